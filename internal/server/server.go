// Package server exposes the health check and metrics endpoints.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"

	"github.com/litescript/ls-media-sorter/internal/config"
)

// Status is the body of GET /healthcheck.
type Status struct {
	Msg string `json:"msg"`
}

// NewHandler builds the echo router. gatherer backs /metrics.
func NewHandler(gatherer prometheus.Gatherer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(recovery.Middleware())

	health.RegisterRoutes(e)

	e.GET("/healthcheck", func(c echo.Context) error {
		return c.JSON(http.StatusOK, Status{Msg: "running"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return e
}

// New returns an http.Server listening on the configured address.
func New(cfg config.ServerConfig, gatherer prometheus.Gatherer) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           NewHandler(gatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
