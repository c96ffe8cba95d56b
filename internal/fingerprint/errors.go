package fingerprint

import (
	"context"
	"errors"
	"fmt"

	"mediadupe/internal/opstate"
)

var (
	// ErrFileAccess marks per-file failures: the file vanished, became
	// unreadable, or changed length while being read.
	ErrFileAccess = errors.New("file access error")
	// ErrCancelled is returned when cancellation is observed between reads.
	ErrCancelled = opstate.ErrCancelled
)

// FileAccessError describes a per-file failure.
type FileAccessError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error { return e.Err }

// Is reports ErrFileAccess as a match so callers can classify without a type
// assertion.
func (e *FileAccessError) Is(target error) bool {
	return target == ErrFileAccess
}

func accessError(op, path string, err error) error {
	return &FileAccessError{Path: path, Op: op, Err: err}
}

// cancelled maps context errors onto ErrCancelled and leaves others intact.
func cancelled(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrCancelled
	}
	return err
}
