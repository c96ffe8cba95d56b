// Package detect groups an inventory into duplicate sets.
//
// The pipeline narrows candidates stage by stage. Files are first bucketed by
// exact size, which is free because the inventory already carries it. Buckets
// with at least two members are then split by quick hash and, in
// high-precision mode, by full SHA-256. Singleton buckets are dropped at every
// stage, so the expensive stages only ever read true candidates.
//
// Hashing runs on a small worker pool bounded by the throttle handle cap. The
// detector checkpoints at stage boundaries and before every file: a paused
// run keeps every digest computed so far, and a resumed run hashes only what
// is missing. Files that vanish or become unreadable are dropped from their
// bucket and reported as failures without aborting the run.
package detect
