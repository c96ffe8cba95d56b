package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mediadupe/internal/catalog"
	"mediadupe/internal/detect"
	"mediadupe/internal/fingerprint"
	"mediadupe/internal/logging"
	"mediadupe/internal/opstate"
	"mediadupe/internal/report"
	"mediadupe/internal/throttle"
)

func newDetectCommand(ctx *commandContext) *cobra.Command {
	var (
		highPrecision bool
		snapshotID    string
		jsonOut       bool
	)

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Group duplicate files in a stored snapshot",
		Long: `Run the size, quick-hash and (with --high-precision) full-hash stages over
the latest snapshot, or the one named by --snapshot, and store the
resulting duplicate groups.`,
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

			snap, err := resolveSnapshot(cmd.Context(), store, snapshotID)
			if err != nil {
				return err
			}
			records, err := store.LoadInventory(cmd.Context(), snap.ID)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			runCtx = logging.WithRunID(logging.WithStage(runCtx, "detect"), uuid.NewString())

			limiter := throttle.New(throttle.PolicyFromConfig(cfg))
			hasher := fingerprint.New(limiter, fingerprint.SamplingFromConfig(cfg))
			precise := highPrecision || cfg.Detect.HighPrecision
			progress := newProgressLine(cmd.ErrOrStderr())

			det := detect.New(records, detect.Options{
				HighPrecision: precise,
				Workers:       cfg.Throttle.MaxHandles,
				Hasher:        hasher,
				Logger:        logging.WithContext(runCtx, logger),
				OnProgress: func(p detect.Progress) {
					progress.Update("Detecting (%s): %d files hashed, %d buckets left", p.StageName, p.FilesHashed, p.BucketsRemaining)
				},
			})
			if err := det.Start(runCtx); err != nil {
				return err
			}
			state, err := det.Wait(context.Background())
			progress.Done()
			if err != nil {
				return err
			}
			switch state {
			case opstate.StateCancelled:
				fmt.Fprintln(cmd.ErrOrStderr(), "Detection cancelled; nothing was stored")
				return context.Canceled
			case opstate.StateFailed:
				return fmt.Errorf("detection failed: %w", det.Err())
			}
			result, ok := det.Result()
			if !ok {
				return errors.New("detection finished without a result")
			}

			stored, err := store.SaveDetection(cmd.Context(), catalog.DetectionInput{
				SnapshotID:    snap.ID,
				HighPrecision: result.HighPrecision,
				Terminal:      result.Terminal,
				Groups:        result.Groups,
				FailureCount:  len(result.Failures),
			})
			if err != nil {
				return fmt.Errorf("save detection: %w", err)
			}

			summary := report.Summarize(result.Groups, result.Terminal, len(result.Failures), hasher.Sampling())
			if jsonOut {
				return writeJSON(cmd, struct {
					Detection *catalog.Detection `json:"detection"`
					Summary   report.Summary     `json:"summary"`
					Failures  []detect.Failure   `json:"failures"`
				}{stored, summary, result.Failures})
			}
			out := cmd.OutOrStdout()
			for _, failure := range result.Failures {
				fmt.Fprintf(cmd.ErrOrStderr(), "Dropped %s: %s\n", failure.Path, failure.Err)
			}
			fmt.Fprint(out, summary.Render())
			fmt.Fprintf(out, "Detection %s stored for snapshot %s; run \"mediadupe groups\" to review\n", stored.ID, snap.ID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&highPrecision, "high-precision", false, "Confirm quick-hash matches with a full SHA-256 hash")
	cmd.Flags().StringVar(&snapshotID, "snapshot", "", "Snapshot ID to analyse (defaults to the latest)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the detection summary as JSON")
	return cmd
}

func resolveSnapshot(ctx context.Context, store *catalog.Store, id string) (*catalog.Snapshot, error) {
	if id != "" {
		return store.GetSnapshot(ctx, id)
	}
	snap, err := store.LatestSnapshot(ctx)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, errors.New("no snapshots stored; run \"mediadupe scan\" first")
	}
	return snap, err
}
