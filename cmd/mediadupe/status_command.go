package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mediadupe/internal/preflight"
	"mediadupe/internal/report"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show catalog contents and environment checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()
			counts, err := store.Counts(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			p := newCheckPrinter(out)

			p.heading("Catalog")
			fmt.Fprintln(out, report.KeyValueTable([][2]string{
				{"Database", store.Path()},
				{"Config file", ctx.configPath},
				{"Config exists", yesNo(ctx.configSeen)},
				{"Snapshots", strconv.Itoa(counts.Snapshots)},
				{"Files in latest snapshot", strconv.Itoa(counts.LatestFiles)},
				{"Detections", strconv.Itoa(counts.Detections)},
				{"Groups in latest detection", strconv.Itoa(counts.LatestGroups)},
				{"Annotations", strconv.Itoa(counts.Annotations)},
				{"Ignored folders", strconv.Itoa(counts.IgnoredFolder)},
			}))

			p.heading("Checks")
			results := preflight.RunAll(cfg)
			for _, r := range results {
				level := levelOK
				if !r.Passed {
					level = levelFail
				}
				p.check(r.Name, level, r.Detail)
			}
			var failing []string
			for _, r := range preflight.Failed(results) {
				failing = append(failing, r.Name)
			}
			if len(failing) == 0 {
				p.check("Summary", levelOK, "all checks passed")
			} else {
				p.check("Summary", levelWarn, fmt.Sprintf("%d failing: %s", len(failing), strings.Join(failing, ", ")))
			}
			return nil
		},
	}
}
