// Package report renders classification results for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-media-sorter/internal/anime"
)

// Palette holds the color scheme for terminal output
type Palette struct {
	FG     string // primary text
	Muted  string // labels, secondary info
	Accent string // success, highlights
	Error  string // failures
}

// DefaultPalette returns the fallback amber theme
func DefaultPalette() Palette {
	return Palette{
		FG:     "#d4a017",
		Muted:  "#6b6b4f",
		Accent: "#8bc34a",
		Error:  "#ff6b6b",
	}
}

// Styles holds all lipgloss styles derived from a palette
type Styles struct {
	Name  lipgloss.Style
	Label lipgloss.Style
	Value lipgloss.Style
	OK    lipgloss.Style
	Fail  lipgloss.Style
}

// NewStyles derives styles from p.
func NewStyles(p Palette) Styles {
	return Styles{
		Name:  lipgloss.NewStyle().Foreground(lipgloss.Color(p.FG)).Bold(true),
		Label: lipgloss.NewStyle().Foreground(lipgloss.Color(p.Muted)).Width(12),
		Value: lipgloss.NewStyle().Foreground(lipgloss.Color(p.FG)),
		OK:    lipgloss.NewStyle().Foreground(lipgloss.Color(p.Accent)).Bold(true),
		Fail:  lipgloss.NewStyle().Foreground(lipgloss.Color(p.Error)).Bold(true),
	}
}

// Printer writes one block per classified filename.
type Printer struct {
	w      io.Writer
	styles Styles
}

// NewPrinter creates a Printer on w.
func NewPrinter(w io.Writer, styles Styles) *Printer {
	return &Printer{w: w, styles: styles}
}

// Location prints a successful classification.
func (p *Printer) Location(loc anime.Location) {
	s := p.styles
	r := loc.Result
	rows := [][2]string{
		{"convention", r.Convention},
		{"title", r.Title},
		{"season", fmt.Sprintf("%d", r.Season)},
		{"episode", fmt.Sprintf("%d", r.Episode)},
		{"has season", fmt.Sprintf("%t", r.HasSeason)},
		{"destination", loc.DestinationRelativePath},
	}

	var b strings.Builder
	b.WriteString(s.OK.Render("✓") + " " + s.Name.Render(r.SourceName) + "\n")
	for _, row := range rows {
		b.WriteString("  " + s.Label.Render(row[0]) + s.Value.Render(row[1]) + "\n")
	}
	fmt.Fprint(p.w, b.String())
}

// Failure prints a failed classification.
func (p *Printer) Failure(filename string, err error) {
	s := p.styles
	reason := anime.Reason(err)
	if reason == "" {
		reason = "error"
	}
	fmt.Fprintf(p.w, "%s %s\n  %s%s\n",
		s.Fail.Render("✗"),
		s.Name.Render(filename),
		s.Label.Render(reason),
		s.Value.Render(err.Error()),
	)
}
