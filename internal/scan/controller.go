package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"mediadupe/internal/fingerprint"
	"mediadupe/internal/logging"
	"mediadupe/internal/media"
	"mediadupe/internal/opstate"
	"mediadupe/internal/preflight"
	"mediadupe/internal/throttle"
)

// Options configures a scan.
type Options struct {
	Roots        []string
	Extensions   []string
	SkipPatterns []string
	// SkipFolders are pruned literally, without glob interpretation.
	SkipFolders []string

	Logger  *slog.Logger
	Limiter *throttle.Limiter
	// OnRecord is invoked on the walk goroutine for each new record, in
	// discovery order.
	OnRecord func(media.FileRecord)
	// OnDirectory is invoked on the walk goroutine after each directory is
	// committed. It may call Pause or Cancel.
	OnDirectory func(Progress)
}

// Progress is a point-in-time snapshot of the walk.
type Progress struct {
	State         opstate.State `json:"state"`
	FilesFound    int           `json:"files_found"`
	DirsCompleted int           `json:"dirs_completed"`
	DirsPending   int           `json:"dirs_pending"`
	DirsSkipped   int           `json:"dirs_skipped"`
	Errors        int           `json:"errors"`
}

// Controller runs one scan through the operation lifecycle.
type Controller struct {
	opts    Options
	logger  *slog.Logger
	limiter *throttle.Limiter
	exts    media.ExtensionSet
	skip    *SkipMatcher
	roots   []string
	sampler *logging.ProgressSampler
	machine *opstate.Machine

	mu       sync.Mutex
	pending  []string
	records  []media.FileRecord
	done     int
	skipped  int
	failures []Failure
}

// New prepares a controller without touching the filesystem.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = throttle.New(throttle.DefaultPolicy())
	}
	c := &Controller{
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "scan"),
		limiter: limiter,
		exts:    media.NewExtensionSet(opts.Extensions),
		sampler: logging.NewProgressSampler(5),
	}
	c.machine = opstate.New(c.run, opstate.Hooks{
		Discard:      c.discard,
		OnTransition: c.logTransition,
	})
	return c
}

// Start validates the roots and skip patterns, then begins walking in the
// background. Configuration problems are returned as *ConfigError before any
// directory is read.
func (c *Controller) Start(ctx context.Context) error {
	if state := c.machine.State(); state != opstate.StateIdle {
		return fmt.Errorf("start scan from %s: %w", state, opstate.ErrInvalidTransition)
	}
	skip, err := NewSkipMatcher(c.opts.SkipPatterns)
	if err != nil {
		return &ConfigError{Detail: err.Error()}
	}
	skip.AddFolders(c.opts.SkipFolders...)
	roots, err := resolveRoots(c.opts.Roots)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.skip = skip
	c.roots = roots
	c.pending = make([]string, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		if pattern, ok := skip.Match(roots[i]); ok {
			c.logger.Info("root matches skip pattern",
				logging.String(logging.FieldRoot, roots[i]),
				logging.String("pattern", pattern),
			)
			c.skipped++
			continue
		}
		c.pending = append(c.pending, roots[i])
	}
	c.mu.Unlock()

	c.logger.Info("scan started",
		logging.Int("roots", len(roots)),
		logging.Int("extensions", len(c.exts)),
		logging.Int("skip_patterns", skip.Len()),
	)
	return c.machine.Start(ctx)
}

// Pause requests a pause at the next directory boundary. It does not block.
func (c *Controller) Pause() error { return c.machine.Pause() }

// Resume continues a paused scan from the first pending directory.
func (c *Controller) Resume() error { return c.machine.Resume() }

// Cancel stops the scan and discards its progress.
func (c *Controller) Cancel() error { return c.machine.Cancel() }

// Wait blocks until the scan parks (paused) or finishes.
func (c *Controller) Wait(ctx context.Context) (opstate.State, error) {
	return c.machine.Wait(ctx)
}

// State returns the lifecycle state.
func (c *Controller) State() opstate.State { return c.machine.State() }

// Err returns the failure behind StateFailed.
func (c *Controller) Err() error { return c.machine.Err() }

// Roots returns the validated roots.
func (c *Controller) Roots() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.roots...)
}

// Progress returns a snapshot of the walk.
func (c *Controller) Progress() Progress {
	// The machine lock is never taken while c.mu is held; the discard hook
	// runs under the machine lock and takes c.mu.
	state := c.machine.State()
	c.mu.Lock()
	defer c.mu.Unlock()
	return Progress{
		State:         state,
		FilesFound:    len(c.records),
		DirsCompleted: c.done,
		DirsPending:   len(c.pending),
		DirsSkipped:   c.skipped,
		Errors:        len(c.failures),
	}
}

// Records returns a copy of the records found so far, in discovery order.
func (c *Controller) Records() []media.FileRecord {
	return c.RecordsFrom(0)
}

// RecordsFrom returns records with discovery index >= offset, letting a
// caller pull the inventory incrementally.
func (c *Controller) RecordsFrom(offset int) []media.FileRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	if offset < 0 {
		offset = 0
	}
	if offset >= len(c.records) {
		return nil
	}
	return media.CloneRecords(c.records[offset:])
}

// Failures returns the unreadable directories and files seen so far.
func (c *Controller) Failures() []Failure {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Failure(nil), c.failures...)
}

func (c *Controller) run(ctx context.Context, tok *opstate.Token) error {
	for {
		if err := tok.Checkpoint(); err != nil {
			if errors.Is(err, opstate.ErrPaused) {
				c.logger.Info("scan paused at directory boundary", logging.Args(c.progressAttrs()...)...)
			}
			return err
		}

		c.mu.Lock()
		if len(c.pending) == 0 {
			c.mu.Unlock()
			c.logger.Info("scan completed", logging.Args(c.progressAttrs()...)...)
			return nil
		}
		dir := c.pending[len(c.pending)-1]
		c.mu.Unlock()

		if err := c.limiter.Wait(ctx, throttle.OpOpen); err != nil {
			return opstate.ErrCancelled
		}

		listing, err := c.visit(ctx, dir)
		if err != nil {
			return err
		}
		added := c.commit(dir, listing)

		if c.opts.OnRecord != nil {
			for _, record := range added {
				c.opts.OnRecord(record)
			}
		}
		progress := c.Progress()
		if c.opts.OnDirectory != nil {
			c.opts.OnDirectory(progress)
		}
		c.logProgress(progress)
	}
}

type listing struct {
	records  []media.FileRecord
	subdirs  []string
	pruned   int
	failures []Failure
}

// visit reads one directory completely. Entries arrive sorted by name. Every
// stat observes the inter-operation delay; cancellation abandons the
// directory uncommitted.
func (c *Controller) visit(ctx context.Context, dir string) (listing, error) {
	var out listing
	entries, err := os.ReadDir(dir)
	if err != nil {
		out.failures = append(out.failures, Failure{Path: dir, Op: "read_dir", Err: err.Error()})
		logging.WarnWithContext(c.logger, "directory unreadable; skipping", "directory_unreadable",
			logging.String(logging.FieldPath, dir),
			logging.String(logging.FieldErrorHint, "check permissions on the directory"),
			logging.String(logging.FieldImpact, "files in this directory are not inventoried"),
			logging.Error(err),
		)
	}
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if pattern, ok := c.skip.Match(full); ok {
				c.logger.Debug("pruned directory",
					logging.String(logging.FieldPath, full),
					logging.String("pattern", pattern),
				)
				out.pruned++
				continue
			}
			out.subdirs = append(out.subdirs, full)
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		if !c.exts.Match(entry.Name()) {
			continue
		}
		if err := c.limiter.Wait(ctx, throttle.OpOpen); err != nil {
			return listing{}, opstate.ErrCancelled
		}
		info, err := fingerprint.Stat(full)
		if err != nil {
			out.failures = append(out.failures, Failure{Path: full, Op: "stat", Err: err.Error()})
			logging.WarnWithContext(c.logger, "file unreadable; dropping from inventory", "file_unreadable",
				logging.String(logging.FieldPath, full),
				logging.String(logging.FieldImpact, "file excluded from duplicate detection"),
				logging.Error(err),
			)
			continue
		}
		out.records = append(out.records, media.NewRecord(full, info.Size(), info.ModTime(), -1))
	}
	return out, nil
}

// commit pops dir and applies its listing atomically, so a checkpoint never
// observes a half-walked directory.
func (c *Controller) commit(dir string, l listing) []media.FileRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.pending); n > 0 && c.pending[n-1] == dir {
		c.pending = c.pending[:n-1]
	}
	start := len(c.records)
	for _, record := range l.records {
		record.Index = len(c.records)
		c.records = append(c.records, record)
	}
	sort.Strings(l.subdirs)
	for i := len(l.subdirs) - 1; i >= 0; i-- {
		c.pending = append(c.pending, l.subdirs[i])
	}
	c.done++
	c.skipped += l.pruned
	c.failures = append(c.failures, l.failures...)
	return media.CloneRecords(c.records[start:])
}

func (c *Controller) discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
	c.records = nil
	c.failures = nil
	c.done = 0
	c.skipped = 0
}

func (c *Controller) progressAttrs() []logging.Attr {
	p := c.Progress()
	return []logging.Attr{
		logging.Int("files_found", p.FilesFound),
		logging.Int("dirs_completed", p.DirsCompleted),
		logging.Int("dirs_pending", p.DirsPending),
		logging.Int("dirs_skipped", p.DirsSkipped),
		logging.Int("errors", p.Errors),
	}
}

func (c *Controller) logProgress(p Progress) {
	total := p.DirsCompleted + p.DirsPending
	if total == 0 {
		return
	}
	percent := float64(p.DirsCompleted) / float64(total) * 100
	if !c.sampler.ShouldLog(percent, "walk") {
		return
	}
	c.logger.Info("scan progress",
		logging.String(logging.FieldStage, "walk"),
		logging.Int("files_found", p.FilesFound),
		logging.Int("dirs_completed", p.DirsCompleted),
		logging.Int("dirs_pending", p.DirsPending),
	)
}

func (c *Controller) logTransition(from, to opstate.State) {
	c.logger.Debug("scan state changed",
		logging.String("from", from.String()),
		logging.String("to", to.String()),
	)
}

// resolveRoots makes roots absolute, checks each one, and drops roots nested
// inside another root so no path is inventoried twice.
func resolveRoots(raw []string) ([]string, error) {
	var roots []string
	for _, root := range raw {
		if root == "" {
			continue
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, &ConfigError{Root: root, Detail: fmt.Sprintf("resolve path: %v", err)}
		}
		if result := preflight.CheckRoot(abs); !result.Passed {
			return nil, &ConfigError{Root: abs, Detail: result.Detail}
		}
		roots = append(roots, abs)
	}
	if len(roots) == 0 {
		return nil, &ConfigError{Detail: "no scan roots configured"}
	}

	var kept []string
	for i, root := range roots {
		covered := false
		for j, other := range roots {
			if i == j {
				continue
			}
			if within(root, other) && (root != other || j < i) {
				covered = true
				break
			}
		}
		if !covered {
			kept = append(kept, root)
		}
	}
	return kept, nil
}

func within(path, parent string) bool {
	rel, err := filepath.Rel(parent, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !filepath.IsAbs(rel) && !startsWithParent(rel))
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
