package session

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestStoreCreateLoadsSource(t *testing.T) {
	store := NewStore(writeDataset(t, tenRowCSV))
	defer store.Close()

	s := store.Create()
	if s.State() != StateUnfiltered {
		t.Fatalf("Expected unfiltered session, got %s", s.State())
	}

	got, err := store.Get(s.ID())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != s {
		t.Error("Get returned a different session")
	}
}

func TestStoreCreateWithMissingSource(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.csv"))
	defer store.Close()

	s := store.Create()
	if s.State() != StateAwaitingUpload {
		t.Errorf("Expected awaiting upload, got %s", s.State())
	}
	if len(store.List()) != 1 {
		t.Errorf("Expected session to be kept, got %d sessions", len(store.List()))
	}
}

func TestStoreSessionsAreIndependent(t *testing.T) {
	store := NewStore(writeDataset(t, tenRowCSV))
	defer store.Close()

	a := store.Create()
	b := store.Create()
	if a.ID() == b.ID() {
		t.Fatal("Expected distinct session IDs")
	}

	a.ApplyFilter(FilterSpec{Column: "Country", Values: []string{"DE"}})
	if b.State() != StateUnfiltered {
		t.Error("Filtering one session affected another")
	}
}

func TestStoreDelete(t *testing.T) {
	store := NewStore(writeDataset(t, tenRowCSV))
	defer store.Close()

	s := store.Create()
	if err := store.Delete(s.ID()); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(s.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(s.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}
