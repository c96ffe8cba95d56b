package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"mediadupe/internal/catalog"
	"mediadupe/internal/config"
	"mediadupe/internal/fingerprint"
)

func newAnnotateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "annotate <path> <disposition>",
		Short: "Record what should happen to a file",
		Long: `Record a disposition for a file: none, keep, delete, move, review or
ignore-folder. mediadupe only stores the choice; it never deletes or moves
anything. ignore-folder also excludes the file's folder from future scans.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			disposition, err := catalog.ParseDisposition(args[1])
			if err != nil {
				return err
			}
			if disposition != catalog.DispositionNone {
				if _, err := fingerprint.Stat(path); err != nil {
					return err
				}
			}

			_, store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.SetAnnotation(cmd.Context(), path, disposition); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if disposition == catalog.DispositionNone {
				fmt.Fprintf(out, "Cleared annotation for %s\n", path)
				return nil
			}
			fmt.Fprintf(out, "Marked %s as %s\n", path, disposition.Label())
			if disposition == catalog.DispositionIgnoreFolder {
				fmt.Fprintf(out, "Folder %s will be skipped by future scans\n", filepath.Dir(path))
			}
			return nil
		},
	}
}
