package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"parking-ledger/internal/parking"
	"parking-ledger/internal/storage"
)

type Store struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, connString string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.Wrap(err, "parse pg config")
	}

	db, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "connect pg")
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
CREATE TABLE IF NOT EXISTS ledger_snapshot (
  id       SMALLINT PRIMARY KEY CHECK (id = 1),
  body     JSONB NOT NULL,
  saved_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`)
	if err != nil {
		return errors.Wrap(err, "init schema")
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (*parking.Snapshot, error) {
	var body []byte
	err := s.db.QueryRow(ctx, `SELECT body FROM ledger_snapshot WHERE id = 1`).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select snapshot")
	}
	return storage.Decode(body)
}

func (s *Store) Save(ctx context.Context, snap *parking.Snapshot) error {
	data, err := storage.Encode(snap)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
INSERT INTO ledger_snapshot (id, body, saved_at) VALUES (1, $1, now())
ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, saved_at = EXCLUDED.saved_at
`, data)
	if err != nil {
		return errors.Wrap(err, "upsert snapshot")
	}
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		s.db.Close()
	}
	return nil
}
