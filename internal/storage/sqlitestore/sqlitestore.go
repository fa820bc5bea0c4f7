package sqlitestore

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"parking-ledger/internal/parking"
	"parking-ledger/internal/storage"
)

// Store keeps the latest snapshot in a single-row SQLite table.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "create db dir")
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS ledger_snapshot (
		id       INTEGER PRIMARY KEY CHECK (id = 1),
		body     TEXT NOT NULL,
		saved_at TEXT NOT NULL
	);`)
	return err
}

func (s *Store) Load(ctx context.Context) (*parking.Snapshot, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM ledger_snapshot WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select snapshot")
	}
	return storage.Decode([]byte(body))
}

func (s *Store) Save(ctx context.Context, snap *parking.Snapshot) error {
	data, err := storage.Encode(snap)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO ledger_snapshot (id, body, saved_at) VALUES (1, ?, ?)
	ON CONFLICT(id) DO UPDATE SET body = excluded.body, saved_at = excluded.saved_at`,
		string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return errors.Wrap(err, "upsert snapshot")
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
