// Package catalog persists inventories, detection results, and user
// annotations in a SQLite database under the state directory.
//
// The catalog belongs to the CLI shell, not to the scan or detect engines:
// it stores a completed inventory as a snapshot, the groups produced by a
// detection over that snapshot, and the disposition a user attached to each
// path. A file lock next to the database admits a single process at a time.
package catalog
