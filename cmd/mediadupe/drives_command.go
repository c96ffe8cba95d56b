package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediadupe/internal/drives"
	"mediadupe/internal/report"
)

func newDrivesCommand() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:         "drives",
		Short:       "List the drives a --drives scan would walk",
		Annotations: map[string]string{skipConfigLoad: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := drives.List()
			if err != nil {
				return err
			}
			if jsonOut {
				if list == nil {
					list = []drives.Drive{}
				}
				return writeJSON(cmd, list)
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No drives found")
				return nil
			}
			rows := make([][]string, 0, len(list))
			for _, d := range list {
				rows = append(rows, []string{d.Path, d.Device, d.FSType})
			}
			fmt.Fprintln(out, report.RenderTable([]string{"Path", "Device", "Filesystem"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit drives as JSON")
	return cmd
}
