// Package storage defines how ledger snapshots reach durable storage. Each
// subpackage is one backend; all of them read and write the whole snapshot
// in a single call.
package storage

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/pkg/errors"

	"parking-ledger/internal/parking"
)

var (
	// ErrNotFound means nothing has been saved yet. Callers start a fresh ledger.
	ErrNotFound = stderrors.New("snapshot not found")
	// ErrMalformed means a stored document exists but cannot be decoded.
	ErrMalformed = stderrors.New("malformed snapshot document")
)

type Store interface {
	Load(ctx context.Context) (*parking.Snapshot, error)
	Save(ctx context.Context, snap *parking.Snapshot) error
	Close() error
}

func Encode(snap *parking.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode snapshot")
	}
	return data, nil
}

func Decode(data []byte) (*parking.Snapshot, error) {
	var snap parking.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrapf(ErrMalformed, "decode snapshot: %v", err)
	}
	return &snap, nil
}
