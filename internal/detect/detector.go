package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"mediadupe/internal/fingerprint"
	"mediadupe/internal/logging"
	"mediadupe/internal/media"
	"mediadupe/internal/opstate"
)

// Fingerprinter computes the hashed stages. *fingerprint.Hasher satisfies it.
type Fingerprinter interface {
	QuickHash(ctx context.Context, path string, size int64) (string, error)
	FullHash(ctx context.Context, path string) (string, error)
}

// Options configures a detection run.
type Options struct {
	HighPrecision bool
	// Workers bounds concurrent hashing; defaults to 2.
	Workers int
	Hasher  Fingerprinter
	Logger  *slog.Logger
	// OnProgress is invoked after every hashed file and stage change. Hashing
	// workers call it concurrently.
	OnProgress func(Progress)
}

// Progress is a point-in-time snapshot of the pipeline.
type Progress struct {
	State            opstate.State `json:"state"`
	Stage            media.Stage   `json:"-"`
	StageName        string        `json:"stage"`
	BucketsRemaining int           `json:"buckets_remaining"`
	Candidates       int           `json:"candidates"`
	FilesHashed      int           `json:"files_hashed"`
	Failures         int           `json:"failures"`
}

// Failure is a file dropped during hashing.
type Failure struct {
	Path  string      `json:"path"`
	Stage media.Stage `json:"-"`
	Err   string      `json:"error"`
}

// Result is the outcome of a completed run.
type Result struct {
	Groups        []media.DuplicateGroup
	Failures      []Failure
	HighPrecision bool
	Terminal      media.Stage
}

// Reclaimable is the bytes freed by keeping one member of every group.
func (r Result) Reclaimable() int64 {
	return media.TotalReclaimable(r.Groups)
}

// Detector runs one detection through the operation lifecycle.
type Detector struct {
	opts    Options
	logger  *slog.Logger
	sampler *logging.ProgressSampler
	machine *opstate.Machine

	mu       sync.Mutex
	records  []media.FileRecord
	stage    media.Stage
	started  bool
	buckets  [][]int
	next     int
	carry    [][]int
	hashed   int
	failed   map[int]bool
	failures []Failure
	result   *Result
}

// New prepares a detector over a copy of inventory. The caller's slice is
// never modified.
func New(inventory []media.FileRecord, opts Options) *Detector {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	d := &Detector{
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "detect"),
		sampler: logging.NewProgressSampler(5),
		records: media.CloneRecords(inventory),
		failed:  make(map[int]bool),
	}
	d.machine = opstate.New(d.run, opstate.Hooks{
		Discard:      d.discard,
		OnTransition: d.logTransition,
	})
	return d
}

// Start validates the inventory and begins detection in the background.
func (d *Detector) Start(ctx context.Context) error {
	if state := d.machine.State(); state != opstate.StateIdle {
		return fmt.Errorf("start detection from %s: %w", state, opstate.ErrInvalidTransition)
	}
	if d.opts.Hasher == nil {
		return errors.New("detect: fingerprinter is required")
	}
	seen := make(map[string]struct{}, len(d.records))
	for _, r := range d.records {
		if _, dup := seen[r.Path]; dup {
			return opstate.Invariantf("path %s appears twice in the inventory", r.Path)
		}
		seen[r.Path] = struct{}{}
	}
	d.logger.Info("detection started",
		logging.Int("files", len(d.records)),
		logging.Bool("high_precision", d.opts.HighPrecision),
		logging.Int("workers", d.opts.Workers),
	)
	return d.machine.Start(ctx)
}

// Pause requests a pause before the next file. It does not block.
func (d *Detector) Pause() error { return d.machine.Pause() }

// Resume continues from the saved buckets and digests.
func (d *Detector) Resume() error { return d.machine.Resume() }

// Cancel stops detection and discards its progress.
func (d *Detector) Cancel() error { return d.machine.Cancel() }

// Wait blocks until the run parks (paused) or finishes.
func (d *Detector) Wait(ctx context.Context) (opstate.State, error) {
	return d.machine.Wait(ctx)
}

// State returns the lifecycle state.
func (d *Detector) State() opstate.State { return d.machine.State() }

// Err returns the failure behind StateFailed.
func (d *Detector) Err() error { return d.machine.Err() }

// Result returns the outcome once the run completed.
func (d *Detector) Result() (Result, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.result == nil {
		return Result{}, false
	}
	out := *d.result
	out.Groups = cloneGroups(d.result.Groups)
	out.Failures = append([]Failure(nil), d.result.Failures...)
	return out, true
}

// Records returns the detector's copy of the inventory, including any
// fingerprints computed so far.
func (d *Detector) Records() []media.FileRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return media.CloneRecords(d.records)
}

// Progress returns a snapshot of the pipeline.
func (d *Detector) Progress() Progress {
	state := d.machine.State()
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.progressLocked(state)
}

func (d *Detector) progressLocked(state opstate.State) Progress {
	candidates := 0
	for _, b := range d.buckets {
		candidates += len(b)
	}
	return Progress{
		State:            state,
		Stage:            d.stage,
		StageName:        d.stage.String(),
		BucketsRemaining: len(d.buckets) - d.next,
		Candidates:       candidates,
		FilesHashed:      d.hashed,
		Failures:         len(d.failures),
	}
}

func (d *Detector) run(ctx context.Context, tok *opstate.Token) error {
	d.mu.Lock()
	if !d.started {
		d.sizeStageLocked()
	}
	d.mu.Unlock()
	d.emitProgress()

	for {
		if err := tok.Checkpoint(); err != nil {
			return err
		}
		d.mu.Lock()
		stage := d.stage
		d.mu.Unlock()

		if stage == d.terminal() && d.stageDone() {
			return d.finish()
		}
		if d.stageDone() {
			d.advance()
			continue
		}
		if err := d.hashNextBucket(ctx, tok, stage); err != nil {
			return err
		}
	}
}

func (d *Detector) terminal() media.Stage {
	if d.opts.HighPrecision {
		return media.StageFullHash
	}
	return media.StageQuickHash
}

// sizeStageLocked partitions the inventory by size; the surviving buckets
// become the input of the quick-hash stage.
func (d *Detector) sizeStageLocked() {
	d.started = true
	indexes := make([]int, len(d.records))
	for i := range d.records {
		indexes[i] = i
	}
	d.buckets = partition(indexes, func(i int) string {
		return d.records[i].Fingerprint(media.StageSize)
	})
	d.stage = media.StageQuickHash
	d.next = 0
	d.carry = nil
	d.logger.Info("size stage complete",
		logging.String(logging.FieldStage, media.StageSize.String()),
		logging.Int("files", len(d.records)),
		logging.Int("buckets", len(d.buckets)),
		logging.Int("candidates", countMembers(d.buckets)),
	)
}

func (d *Detector) stageDone() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.next >= len(d.buckets)
}

func (d *Detector) advance() {
	d.mu.Lock()
	completed := d.stage
	d.buckets = d.carry
	d.carry = nil
	d.next = 0
	d.stage++
	buckets := len(d.buckets)
	candidates := countMembers(d.buckets)
	d.mu.Unlock()

	d.logger.Info("stage complete",
		logging.String(logging.FieldStage, completed.String()),
		logging.Int("buckets", buckets),
		logging.Int("candidates", candidates),
	)
	d.emitProgress()
}

// hashNextBucket fingerprints the members of the next bucket that are still
// missing a digest, then splits the bucket by digest.
func (d *Detector) hashNextBucket(ctx context.Context, tok *opstate.Token, stage media.Stage) error {
	d.mu.Lock()
	bucket := append([]int(nil), d.buckets[d.next]...)
	var todo []int
	for _, idx := range bucket {
		if !d.failed[idx] && d.records[idx].Fingerprint(stage) == "" {
			todo = append(todo, idx)
		}
	}
	d.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)
	var stop error
	for _, idx := range todo {
		if err := tok.Checkpoint(); err != nil {
			stop = err
			break
		}
		g.Go(func() error {
			return d.hashOne(gctx, stage, idx)
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, fingerprint.ErrCancelled) || errors.Is(err, context.Canceled) {
			return opstate.ErrCancelled
		}
		return err
	}
	if stop != nil {
		return stop
	}

	d.mu.Lock()
	var alive []int
	for _, idx := range bucket {
		if !d.failed[idx] {
			alive = append(alive, idx)
		}
	}
	subs := partition(alive, func(i int) string {
		return d.records[i].Fingerprint(stage)
	})
	for _, sub := range subs {
		if err := d.checkBucketLocked(sub, stage); err != nil {
			d.mu.Unlock()
			return err
		}
	}
	d.carry = append(d.carry, subs...)
	d.next++
	d.mu.Unlock()
	return nil
}

func (d *Detector) hashOne(ctx context.Context, stage media.Stage, idx int) error {
	d.mu.Lock()
	record := d.records[idx]
	d.mu.Unlock()

	var digest string
	var err error
	switch stage {
	case media.StageQuickHash:
		digest, err = d.opts.Hasher.QuickHash(ctx, record.Path, record.Size)
	case media.StageFullHash:
		digest, err = d.opts.Hasher.FullHash(ctx, record.Path)
	default:
		return opstate.Invariantf("stage %s is not hashed", stage)
	}

	switch {
	case err == nil:
		d.mu.Lock()
		if stage == media.StageQuickHash {
			d.records[idx].QuickHash = digest
		} else {
			d.records[idx].FullHash = digest
		}
		d.hashed++
		d.mu.Unlock()
	case errors.Is(err, fingerprint.ErrFileAccess):
		d.mu.Lock()
		d.failed[idx] = true
		d.failures = append(d.failures, Failure{Path: record.Path, Stage: stage, Err: err.Error()})
		d.mu.Unlock()
		logging.WarnWithContext(d.logger, "fingerprint failed; dropping file", "fingerprint_failed",
			logging.String(logging.FieldPath, record.Path),
			logging.String(logging.FieldStage, stage.String()),
			logging.String(logging.FieldErrorHint, "file was moved, deleted, or became unreadable after the scan"),
			logging.String(logging.FieldImpact, "file excluded from duplicate groups"),
			logging.Error(err),
		)
	default:
		return err
	}
	d.emitProgress()
	return nil
}

func (d *Detector) checkBucketLocked(bucket []int, stage media.Stage) error {
	if len(bucket) < 2 {
		return opstate.Invariantf("%s bucket with %d members survived partitioning", stage, len(bucket))
	}
	first := d.records[bucket[0]]
	for _, idx := range bucket[1:] {
		r := d.records[idx]
		if r.Size != first.Size || r.Fingerprint(stage) != first.Fingerprint(stage) {
			return opstate.Invariantf("%s bucket mixes %s and %s", stage, first.Path, r.Path)
		}
	}
	return nil
}

func (d *Detector) finish() error {
	d.mu.Lock()
	stage := d.terminal()
	d.buckets = d.carry
	d.carry = nil
	d.next = len(d.buckets)
	groups := make([]media.DuplicateGroup, 0, len(d.buckets))
	for _, bucket := range d.buckets {
		if err := d.checkBucketLocked(bucket, stage); err != nil {
			d.mu.Unlock()
			return err
		}
		members := make([]media.FileRecord, 0, len(bucket))
		for _, idx := range bucket {
			members = append(members, d.records[idx])
		}
		groups = append(groups, media.DuplicateGroup{
			Key:     members[0].Fingerprint(stage),
			Stage:   stage,
			Size:    members[0].Size,
			Members: members,
		})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Members[0].Index < groups[j].Members[0].Index
	})
	for i := range groups {
		groups[i].ID = i + 1
	}
	d.result = &Result{
		Groups:        groups,
		Failures:      append([]Failure(nil), d.failures...),
		HighPrecision: d.opts.HighPrecision,
		Terminal:      stage,
	}
	result := *d.result
	d.mu.Unlock()

	d.logger.Info("detection completed",
		logging.String(logging.FieldStage, stage.String()),
		logging.Int("groups", len(result.Groups)),
		logging.Int("duplicate_files", media.DuplicateFiles(result.Groups)),
		logging.Int64("reclaimable_bytes", result.Reclaimable()),
		logging.Int("failures", len(result.Failures)),
	)
	return nil
}

func (d *Detector) discard() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buckets = nil
	d.carry = nil
	d.next = 0
	d.result = nil
	d.failures = nil
	d.failed = make(map[int]bool)
	for i := range d.records {
		d.records[i].QuickHash = ""
		d.records[i].FullHash = ""
	}
}

func (d *Detector) emitProgress() {
	p := d.Progress()
	if d.opts.OnProgress != nil {
		d.opts.OnProgress(p)
	}
	total := p.Candidates
	if total == 0 {
		return
	}
	done := total - remainingMembers(d)
	percent := float64(done) / float64(total) * 100
	if d.sampler.ShouldLog(percent, p.StageName) {
		d.logger.Info("detection progress",
			logging.String(logging.FieldStage, p.StageName),
			logging.Int("buckets_remaining", p.BucketsRemaining),
			logging.Int("files_hashed", p.FilesHashed),
		)
	}
}

func remainingMembers(d *Detector) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.next >= len(d.buckets) {
		return 0
	}
	return countMembers(d.buckets[d.next:])
}

func (d *Detector) logTransition(from, to opstate.State) {
	d.logger.Debug("detection state changed",
		logging.String("from", from.String()),
		logging.String("to", to.String()),
	)
}

// partition splits indexes by key, keeping first-seen order for buckets and
// members, and drops singletons.
func partition(indexes []int, key func(int) string) [][]int {
	order := make([]string, 0)
	byKey := make(map[string][]int)
	for _, idx := range indexes {
		k := key(idx)
		if _, ok := byKey[k]; !ok {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], idx)
	}
	out := make([][]int, 0, len(order))
	for _, k := range order {
		if members := byKey[k]; len(members) >= 2 {
			out = append(out, members)
		}
	}
	return out
}

func countMembers(buckets [][]int) int {
	n := 0
	for _, b := range buckets {
		n += len(b)
	}
	return n
}

func cloneGroups(groups []media.DuplicateGroup) []media.DuplicateGroup {
	out := make([]media.DuplicateGroup, len(groups))
	for i, g := range groups {
		out[i] = g
		out[i].Members = media.CloneRecords(g.Members)
	}
	return out
}
