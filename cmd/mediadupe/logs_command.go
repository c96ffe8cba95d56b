package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"mediadupe/internal/logging"
	"mediadupe/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
		filter logs.Filter
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent entries from the mediadupe log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			out := cmd.OutOrStdout()

			entries, offset, err := logs.Last(path, filter, lines)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintln(out, e.Format())
			}
			if !follow {
				if len(entries) == 0 {
					fmt.Fprintf(out, "No matching log entries in %s\n", path)
				}
				return nil
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			err = logs.Follow(runCtx, path, filter, offset, 0, func(e logs.Entry) {
				fmt.Fprintln(out, e.Format())
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of entries to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new entries until interrupted")
	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only entries from this run id")
	cmd.Flags().StringVar(&filter.Component, "component", "", "Only entries from this component (scan, detect)")
	cmd.Flags().StringVar(&filter.MinLevel, "level", "", "Minimum level: debug, info, warn or error")
	return cmd
}
