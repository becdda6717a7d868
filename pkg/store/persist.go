package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FilePersister stores snapshots as a JSON file. A missing file loads
// as an empty snapshot, so first runs need no setup.
type FilePersister struct {
	Path string
}

// NewFilePersister builds a persister rooted at path.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{Path: path}
}

// Load implements Persister.
func (p *FilePersister) Load() (map[string]any, error) {
	raw, err := os.ReadFile(p.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	var snap map[string]any
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", p.Path, err)
	}
	return snap, nil
}

// Save implements Persister. The snapshot is written to a temp file
// and renamed into place so a crash never leaves a half-written file.
func (p *FilePersister) Save(snapshot map[string]any) error {
	raw, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(p.Path)
	tmp, err := os.CreateTemp(dir, ".store-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p.Path)
}
