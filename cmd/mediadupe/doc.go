// Package main hosts the mediadupe CLI entrypoint and command graph.
//
// Commands resolve configuration once, open the catalog under its file lock,
// and hand the heavy lifting to the scan and detect packages. Results are
// persisted so that later commands (groups, annotate) work without rescanning.
//
// Keep this package lean: new behaviour belongs in internal packages first
// and is only surfaced here through commands or flags.
package main
