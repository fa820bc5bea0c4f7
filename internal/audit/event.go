// Package audit records park and remove events outside the ledger. Nothing
// here affects ledger state.
package audit

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type Kind string

const (
	KindPark   Kind = "park"
	KindRemove Kind = "remove"
)

type Event struct {
	ID      string    `json:"id"`
	Kind    Kind      `json:"event"`
	Vehicle string    `json:"vehicle"`
	Slot    string    `json:"slot"`
	Time    time.Time `json:"time"`
	Fee     *float64  `json:"fee,omitempty"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

func NewParkEvent(vehicle, slot string, at time.Time) Event {
	at = at.UTC()
	return Event{ID: newID(at), Kind: KindPark, Vehicle: vehicle, Slot: slot, Time: at}
}

func NewRemoveEvent(vehicle, slot string, fee float64, at time.Time) Event {
	at = at.UTC()
	return Event{ID: newID(at), Kind: KindRemove, Vehicle: vehicle, Slot: slot, Time: at, Fee: &fee}
}

// Recorder accepts events. Implementations must not block for long; the
// ledger operation has already completed when Record is called.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Reader serves recent history, newest last.
type Reader interface {
	Recent(ctx context.Context, n int) ([]Event, error)
}

type Nop struct{}

func (Nop) Record(context.Context, Event) error { return nil }

func (Nop) Recent(context.Context, int) ([]Event, error) { return nil, nil }

// Fanout records to every recorder and returns the first error.
type Fanout []Recorder

func (f Fanout) Record(ctx context.Context, ev Event) error {
	var first error
	for _, r := range f {
		if err := r.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
