// Package fingerprint computes the content fingerprints used by duplicate
// detection: the file size, a sampled quick hash, and a full-file digest.
//
// Every function that opens a file acquires a handle slot from the throttle
// limiter and releases it before returning, observes the configured delays
// between reads, and checks for cancellation between windows or chunks.
// Failures on individual files are reported as *FileAccessError so callers
// can drop the file and continue.
package fingerprint
