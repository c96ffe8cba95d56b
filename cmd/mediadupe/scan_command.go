package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mediadupe/internal/catalog"
	"mediadupe/internal/config"
	"mediadupe/internal/drives"
	"mediadupe/internal/logging"
	"mediadupe/internal/media"
	"mediadupe/internal/opstate"
	"mediadupe/internal/report"
	"mediadupe/internal/scan"
	"mediadupe/internal/throttle"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var (
		useDrives  bool
		extensions []string
		skips      []string
		pauseAfter int
		list       bool
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "scan [roots...]",
		Short: "Inventory media files under the given roots",
		Long: `Walk the scan roots and record every file whose extension matches the
configured media extensions. The completed inventory is stored as a new
snapshot that "mediadupe detect" works from. Press Ctrl+C to cancel; a
cancelled scan stores nothing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			roots, driveMode, err := resolveScanRoots(cfg, args, useDrives)
			if err != nil {
				return err
			}
			exts := cfg.Scan.Extensions
			if len(extensions) > 0 {
				exts = config.NormalizeExtensions(splitList(extensions))
			}
			ignored, err := store.IgnoredFolders(cmd.Context())
			if err != nil {
				return err
			}
			skipPatterns, skipFolders := mergeSkipSets(cfg.Scan.SkipPatterns, skips, ignored, driveMode)

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			runCtx = logging.WithRunID(logging.WithStage(runCtx, "scan"), uuid.NewString())

			progress := newProgressLine(cmd.ErrOrStderr())
			var (
				ctrl         *scan.Controller
				pausePending = pauseAfter > 0
			)
			ctrl = scan.New(scan.Options{
				Roots:        roots,
				Extensions:   exts,
				SkipPatterns: skipPatterns,
				SkipFolders:  skipFolders,
				Logger:       logging.WithContext(runCtx, logger),
				Limiter:      throttle.New(throttle.PolicyFromConfig(cfg)),
				OnDirectory: func(p scan.Progress) {
					progress.Update("Scanning: %d files, %d directories done, %d pending", p.FilesFound, p.DirsCompleted, p.DirsPending)
					if pausePending && p.DirsCompleted >= pauseAfter {
						pausePending = false
						_ = ctrl.Pause()
					}
				},
			})
			if err := ctrl.Start(runCtx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			state, err := ctrl.Wait(context.Background())
			if err != nil {
				return err
			}
			if state == opstate.StatePaused {
				progress.Done()
				p := ctrl.Progress()
				fmt.Fprintf(out, "Scan paused after %d directories with %d files found; resuming\n", p.DirsCompleted, p.FilesFound)
				if err := ctrl.Resume(); err != nil && ctrl.State() != opstate.StateCancelled {
					return err
				}
				if state, err = ctrl.Wait(context.Background()); err != nil {
					return err
				}
			}
			progress.Done()

			switch state {
			case opstate.StateCancelled:
				fmt.Fprintln(cmd.ErrOrStderr(), "Scan cancelled; nothing was stored")
				return context.Canceled
			case opstate.StateFailed:
				return fmt.Errorf("scan failed: %w", ctrl.Err())
			}

			records := ctrl.Records()
			p := ctrl.Progress()
			snap, err := store.SaveSnapshot(cmd.Context(), catalog.SnapshotInput{
				Roots:         ctrl.Roots(),
				Extensions:    exts,
				SkipPatterns:  append(append([]string(nil), skipPatterns...), skipFolders...),
				Records:       records,
				DirsCompleted: p.DirsCompleted,
				ErrorCount:    p.Errors,
			})
			if err != nil {
				return fmt.Errorf("save snapshot: %w", err)
			}

			if jsonOut {
				return writeJSON(cmd, snap)
			}
			for _, failure := range ctrl.Failures() {
				fmt.Fprintf(cmd.ErrOrStderr(), "Skipped %s: %v\n", failure.Path, failure.Err)
			}
			if list && len(records) > 0 {
				fmt.Fprintln(out, report.InventoryTable(records))
			}
			fmt.Fprintf(out, "Snapshot %s: %d files (%s) in %d directories, %d skipped, %d unreadable\n",
				snap.ID, len(records), humanize.IBytes(uint64(totalSize(records))), p.DirsCompleted, p.DirsSkipped, p.Errors)
			return nil
		},
	}

	cmd.Flags().BoolVar(&useDrives, "drives", false, "Scan every mounted drive instead of folders")
	cmd.Flags().StringSliceVar(&extensions, "ext", nil, "Media extensions to include (overrides config)")
	cmd.Flags().StringArrayVar(&skips, "skip", nil, "Additional folder or glob to skip (repeatable)")
	cmd.Flags().IntVar(&pauseAfter, "pause-after", 0, "Pause after N directories, report, then resume")
	cmd.Flags().BoolVar(&list, "list", false, "Print the inventory table")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the stored snapshot as JSON")
	return cmd
}

// resolveScanRoots picks the roots from arguments, drive discovery or config.
// It also reports whether drive mode is in effect.
func resolveScanRoots(cfg *config.Config, args []string, useDrives bool) ([]string, bool, error) {
	if len(args) > 0 {
		roots := make([]string, 0, len(args))
		for _, arg := range args {
			expanded, err := config.ExpandPath(arg)
			if err != nil {
				return nil, false, fmt.Errorf("resolve root %q: %w", arg, err)
			}
			roots = append(roots, expanded)
		}
		return roots, false, nil
	}
	if useDrives || cfg.Scan.Mode == config.ModeDrives {
		list, err := drives.List()
		if err != nil {
			return nil, true, fmt.Errorf("list drives: %w", err)
		}
		return drives.Roots(list), true, nil
	}
	return cfg.Scan.Roots, false, nil
}

// mergeSkipSets splits what a scan prunes into glob patterns (config and
// --skip) and literal folders (ignore-folder annotations, plus the system
// trees such as /proc when whole drives are walked). Both lists are
// de-duplicated in order.
func mergeSkipSets(configured, extra, ignored []string, driveMode bool) (patterns, folders []string) {
	patterns = appendUnique(nil, configured, extra)
	folders = appendUnique(nil, ignored)
	if driveMode {
		folders = appendUnique(folders, drives.SystemFolders())
	}
	return patterns, folders
}

func appendUnique(dst []string, groups ...[]string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, group := range groups {
		for _, v := range group {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			dst = append(dst, v)
		}
	}
	return dst
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })...)
	}
	return out
}

func totalSize(records []media.FileRecord) int64 {
	var total int64
	for _, r := range records {
		total += r.Size
	}
	return total
}
