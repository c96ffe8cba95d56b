package testsupport

import (
	"context"
	"testing"

	"mediadupe/internal/catalog"
	"mediadupe/internal/config"
	"mediadupe/internal/media"
)

// MustOpenCatalog opens a catalog.Store for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SaveSnapshot stores records as a new snapshot using the config's scan settings.
func SaveSnapshot(t testing.TB, store *catalog.Store, cfg *config.Config, records []media.FileRecord) *catalog.Snapshot {
	t.Helper()

	snap, err := store.SaveSnapshot(context.Background(), catalog.SnapshotInput{
		Roots:      cfg.Scan.Roots,
		Extensions: cfg.Scan.Extensions,
		Records:    records,
	})
	if err != nil {
		t.Fatalf("store.SaveSnapshot: %v", err)
	}
	return snap
}
