package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-media-sorter/internal/anime"
	"github.com/litescript/ls-media-sorter/internal/report"
)

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <filename>...",
		Short: "Print how anime filenames would be sorted",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := report.NewPrinter(cmd.OutOrStdout(), report.NewStyles(report.Detect()))
			failed := 0
			for _, name := range args {
				loc, err := anime.ClassifyAndLocate(filepath.Base(name), filepath.Dir(name))
				if err != nil {
					failed++
					p.Failure(name, err)
					continue
				}
				p.Location(loc)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d filenames could not be classified", failed, len(args))
			}
			return nil
		},
	}
}
