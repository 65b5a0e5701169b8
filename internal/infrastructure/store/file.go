package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dealradar/backend/internal/domain"
)

// FileStore persists the seen set as a single JSON blob on the local
// filesystem. Writes go through a temp file and rename so a crashed run
// never leaves a partial blob behind.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed seen store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the blob. A missing file is an empty set, not an error.
func (s *FileStore) Load(ctx context.Context) (*domain.SeenSet, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewSeenSet(), nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("%w: corrupt seen blob: %v", domain.ErrStoreUnavailable, err)
	}
	return domain.NewSeenSet(ids...), nil
}

// Save overwrites the blob in full.
func (s *FileStore) Save(ctx context.Context, seen *domain.SeenSet) error {
	data, err := json.Marshal(seen.IDs())
	if err != nil {
		return fmt.Errorf("failed to encode seen set: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".seen-*")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}
