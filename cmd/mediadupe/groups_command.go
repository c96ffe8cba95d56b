package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mediadupe/internal/catalog"
	"mediadupe/internal/fingerprint"
	"mediadupe/internal/report"
)

func newGroupsCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOut      bool
		csvOut       bool
		snapshotID   string
		dispositions []string
	)

	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List stored duplicate groups with their annotations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOut && csvOut {
				return errors.New("--json and --csv are mutually exclusive")
			}
			cfg, store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			filter := make([]catalog.Disposition, 0, len(dispositions))
			for _, value := range splitList(dispositions) {
				d, err := catalog.ParseDisposition(value)
				if err != nil {
					return err
				}
				filter = append(filter, d)
			}

			det, err := store.LatestDetection(cmd.Context(), snapshotID)
			if errors.Is(err, catalog.ErrNotFound) {
				return errors.New("no detection results stored; run \"mediadupe detect\" first")
			}
			if err != nil {
				return err
			}
			groups, err := store.LoadGroups(cmd.Context(), det.ID)
			if err != nil {
				return err
			}
			annotations, err := store.Annotations(cmd.Context())
			if err != nil {
				return err
			}
			ignored, err := store.IgnoredFolders(cmd.Context())
			if err != nil {
				return err
			}

			rows := report.BuildRows(groups, report.Options{
				Annotations:    annotations,
				IgnoredFolders: ignored,
				Dispositions:   filter,
			})
			summary := report.Summarize(groups, det.Terminal, det.FailureCount, fingerprint.SamplingFromConfig(cfg))

			out := cmd.OutOrStdout()
			switch {
			case jsonOut:
				return report.WriteJSON(out, report.Export{
					SnapshotID:  det.SnapshotID,
					DetectionID: det.ID,
					Summary:     summary,
					Rows:        rows,
				})
			case csvOut:
				return report.WriteCSV(out, rows)
			}

			if len(rows) == 0 {
				fmt.Fprintln(out, "No duplicate files match")
			} else {
				fmt.Fprintln(out, report.RowsTable(rows))
			}
			fmt.Fprint(out, summary.Render())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit rows and summary as JSON")
	cmd.Flags().BoolVar(&csvOut, "csv", false, "Emit rows as CSV")
	cmd.Flags().StringVar(&snapshotID, "snapshot", "", "Use the latest detection of this snapshot")
	cmd.Flags().StringSliceVar(&dispositions, "disposition", nil, "Only show files with these dispositions")
	return cmd
}
