// Package drives lists the logical drives or mount points that a scan in
// drives mode walks. The listing is a point-in-time snapshot; there is no
// hot-plug tracking.
package drives
