// Package scan walks media roots and builds the file inventory.
//
// The walk is single-threaded and depth-first over an explicit stack of
// pending directories, with entries visited in name order, so a given tree
// always yields the same inventory in the same order. Each directory is read
// completely before the controller reaches its next checkpoint; pausing saves
// the stack and the records found so far, and resuming pops the next pending
// directory without re-reading completed ones.
//
// Skip patterns prune whole subtrees before they are read. Files whose
// extension is not in the configured media set are discarded on name alone,
// without a stat call.
package scan
