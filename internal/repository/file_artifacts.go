package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"FinTrain/internal/domain/models"
	domrepo "FinTrain/internal/domain/repository"
)

const (
	weightsExt = ".weights"
	metaExt    = ".meta.json"
)

// FileArtifactStore keeps model states and metadata as files in one directory.
// Writes go through a temp file and a rename so readers never see a partial file.
type FileArtifactStore struct {
	dir string
}

func NewFileArtifactStore(dir string) (*FileArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create models dir: %w", err)
	}
	return &FileArtifactStore{dir: dir}, nil
}

func (s *FileArtifactStore) path(key, ext string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return filepath.Join(s.dir, key+ext), nil
}

func (s *FileArtifactStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	p, err := s.path(key, weightsExt)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read weights: %w", err)
	}
	return b, true, nil
}

func (s *FileArtifactStore) Save(_ context.Context, key string, state []byte) error {
	p, err := s.path(key, weightsExt)
	if err != nil {
		return err
	}
	return writeAtomic(p, state)
}

func (s *FileArtifactStore) SaveMeta(_ context.Context, key string, meta models.ModelMeta) error {
	p, err := s.path(key, metaExt)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	return writeAtomic(p, b)
}

func (s *FileArtifactStore) LoadMeta(_ context.Context, key string) (models.ModelMeta, bool, error) {
	var meta models.ModelMeta
	p, err := s.path(key, metaExt)
	if err != nil {
		return meta, false, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return meta, false, nil
	}
	if err != nil {
		return meta, false, fmt.Errorf("read meta: %w", err)
	}
	if err := json.Unmarshal(b, &meta); err != nil {
		return meta, false, fmt.Errorf("decode meta: %w", err)
	}
	return meta, true, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

var _ domrepo.ArtifactStore = (*FileArtifactStore)(nil)
