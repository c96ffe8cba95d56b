// Package logging assembles structured slog loggers and formatting helpers used
// across mediadupe.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so scan and detection code can
// tag log lines with run identifiers, stages, and roots. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging
