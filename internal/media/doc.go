// Package media defines the inventory data model shared by scanning,
// detection, persistence, and reporting: file records, duplicate groups,
// media categories, and extension matching.
package media
