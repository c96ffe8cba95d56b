// Package report turns duplicate groups and annotations into export rows,
// a reclaimable-space summary, and rendered tables.
//
// Rows carry everything an external collaborator needs to join annotations
// with detection results: path, size, category, terminal fingerprint, and
// group id. Nothing here touches the files themselves.
package report
