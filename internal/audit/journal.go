package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

const DefaultJournalSize = 200

// Journal is a bounded history kept as a JSON array on disk. Only the most
// recent max entries survive each write.
type Journal struct {
	mu   sync.Mutex
	path string
	max  int
}

func NewJournal(path string, max int) *Journal {
	if max <= 0 {
		max = DefaultJournalSize
	}
	return &Journal{path: path, max: max}
}

func (j *Journal) Record(ctx context.Context, ev Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	events, err := j.read()
	if err != nil {
		return err
	}

	events = append(events, ev)
	if len(events) > j.max {
		events = events[len(events)-j.max:]
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode journal")
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return errors.Wrap(err, "create journal dir")
	}
	if err := os.WriteFile(j.path, data, 0o644); err != nil {
		return errors.Wrap(err, "write journal")
	}
	return nil
}

func (j *Journal) Recent(ctx context.Context, n int) ([]Event, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	events, err := j.read()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(events) > n {
		events = events[len(events)-n:]
	}
	return events, nil
}

func (j *Journal) read() ([]Event, error) {
	data, err := os.ReadFile(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read journal")
	}

	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, errors.Wrap(err, "decode journal")
	}
	return events, nil
}
