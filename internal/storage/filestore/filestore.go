package filestore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"parking-ledger/internal/parking"
	"parking-ledger/internal/storage"
)

// Store keeps the snapshot in one JSON file. Saves go through a temporary
// file in the same directory and a rename, so readers never see a partial
// document.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load(ctx context.Context) (*parking.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "read snapshot file")
	}
	return storage.Decode(data)
}

func (s *Store) Save(ctx context.Context, snap *parking.Snapshot) error {
	data, err := storage.Encode(snap)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create snapshot dir")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp snapshot")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp snapshot")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp snapshot")
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(err, "replace snapshot file")
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}
