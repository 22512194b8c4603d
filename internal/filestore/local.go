package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type localConfig struct {
	Dir string `json:"dir"`
}

// localStore writes blobs under a root directory, one file per key. Writes
// go through a temp file and rename so readers never see partial content.
type localStore struct {
	dir string
}

func init() {
	Register("local", createLocalStore)
}

func createLocalStore(args interface{}) (Store, error) {
	cfg := &localConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("local store dir is required")
	}
	return &localStore{dir: cfg.Dir}, nil
}

func (s *localStore) resolve(key string) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("invalid file key: %q", key)
	}
	return filepath.Join(s.dir, filepath.FromSlash(key)), nil
}

func (s *localStore) Save(ctx context.Context, key string, r io.Reader, size int64) error {
	_ = ctx
	_ = size
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *localStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	_ = ctx
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}
