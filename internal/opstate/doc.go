// Package opstate implements the pause/resume/cancel contract shared by the
// scan controller and the duplicate detector.
//
// A Machine owns one long-running operation. The work itself is a RunFunc that
// consults its Token at every safe boundary (one directory, one file). Pause
// is a request: the run notices it at the next checkpoint, saves whatever it
// needs, and returns ErrPaused, which parks the machine in Paused. Resume
// starts a fresh goroutine that continues from the saved progress. Cancel
// cancels the run context; the run unwinds to its nearest checkpoint and the
// machine discards progress through the Discard hook.
package opstate
