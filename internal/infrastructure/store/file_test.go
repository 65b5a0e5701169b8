package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dealradar/backend/internal/domain"
)

func TestFileStoreLoad(t *testing.T) {
	t.Run("missing file is an empty set", func(t *testing.T) {
		s := NewFileStore(filepath.Join(t.TempDir(), "seen.json"))

		seen, err := s.Load(context.Background())
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if seen.Len() != 0 {
			t.Errorf("Len() = %d, want 0", seen.Len())
		}
	})

	t.Run("corrupt blob fails with ErrStoreUnavailable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seen.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		s := NewFileStore(path)

		_, err := s.Load(context.Background())
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			t.Errorf("Load() error = %v, want ErrStoreUnavailable", err)
		}
	})
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	s := NewFileStore(path)
	ctx := context.Background()

	seen := domain.NewSeenSet("c", "a", "b")
	if err := s.Save(ctx, seen); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	got := loaded.IDs()
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("IDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("IDs() = %v, want %v (order must survive the round trip)", got, want)
		}
	}
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	s := NewFileStore(path)
	ctx := context.Background()

	if err := s.Save(ctx, domain.NewSeenSet("a", "b")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save(ctx, domain.NewSeenSet("a", "b", "c")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Len() != 3 || !loaded.Contains("c") {
		t.Errorf("loaded set = %v, want the second write", loaded.IDs())
	}
}

func TestFileStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "seen.json"))

	if err := s.Save(context.Background(), domain.NewSeenSet("a")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "seen.json" {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("directory contents = %v, want only seen.json", names)
	}
}

func TestFileStoreSaveToBadDirectory(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "missing", "seen.json"))

	err := s.Save(context.Background(), domain.NewSeenSet("a"))
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("Save() error = %v, want ErrStoreUnavailable", err)
	}
}
