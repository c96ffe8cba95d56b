// Package preflight provides readiness checks for the filesystem paths that
// mediadupe depends on.
//
// These checks run in two contexts:
//   - The scan controller calls CheckRoot for every root before walking, so a
//     missing or unreadable root is reported before any I/O starts.
//   - The CLI "mediadupe status" command uses RunAll to display path health.
package preflight
