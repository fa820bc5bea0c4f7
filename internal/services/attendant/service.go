package attendant

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"parking-ledger/internal/audit"
	"parking-ledger/internal/logging"
	"parking-ledger/internal/parking"
	"parking-ledger/internal/storage"
)

// Service is the single entry point the shell and HTTP API use. It owns one
// ledger and serializes every call to it.
type Service struct {
	mu       sync.Mutex
	ledger   *parking.InstrumentedLedger
	store    storage.Store
	recorder audit.Recorder
	history  audit.Reader
	autoSave bool
	now      func() time.Time

	// reserved is a display marker only; the ledger does not enforce it.
	reserved map[parking.SlotAddress]bool
}

type Deps struct {
	Ledger   *parking.InstrumentedLedger
	Store    storage.Store
	Recorder audit.Recorder
	History  audit.Reader
	AutoSave bool
	Now      func() time.Time
}

func New(deps Deps) *Service {
	s := &Service{
		ledger:   deps.Ledger,
		store:    deps.Store,
		recorder: deps.Recorder,
		history:  deps.History,
		autoSave: deps.AutoSave,
		now:      deps.Now,
		reserved: make(map[parking.SlotAddress]bool),
	}
	if s.recorder == nil {
		s.recorder = audit.Nop{}
	}
	if s.history == nil {
		s.history = audit.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// LoadLedger reads the stored snapshot. When nothing has been stored yet it
// returns a fresh ledger built from cfg. Any other failure is returned as is
// and the caller decides whether to fall back.
func LoadLedger(ctx context.Context, store storage.Store, cfg parking.Config, opts ...parking.Option) (*parking.Ledger, error) {
	snap, err := store.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		logging.Info(ctx).Msg("no stored snapshot, starting with an empty lot")
		return parking.NewLedger(cfg, opts...)
	}
	if err != nil {
		return nil, err
	}
	return parking.FromSnapshot(snap, cfg, opts...)
}

func (s *Service) Park(ctx context.Context, registration, classCode string) (parking.SlotAddress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr, err := s.ledger.Park(ctx, registration, classCode)
	if err != nil {
		logging.Info(ctx).
			Str("registration", registration).
			Str("class", classCode).
			Str("reason", string(parking.ReasonOf(err))).
			Msg("park rejected")
		return addr, err
	}

	logging.Info(ctx).
		Str("registration", parking.NormalizeRegistration(registration)).
		Str("slot", addr.String()).
		Msg("vehicle parked")

	s.record(ctx, audit.NewParkEvent(parking.NormalizeRegistration(registration), addr.String(), s.now()))
	s.afterMutation(ctx)

	return addr, nil
}

func (s *Service) Remove(ctx context.Context, identifier string) (parking.Removal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removal, err := s.ledger.Remove(ctx, identifier)
	if err != nil {
		logging.Info(ctx).
			Str("identifier", identifier).
			Str("reason", string(parking.ReasonOf(err))).
			Msg("remove rejected")
		return removal, err
	}

	logging.Info(ctx).
		Str("registration", removal.Registration).
		Str("slot", removal.Address.String()).
		Float64("fee", removal.Fee).
		Msg("vehicle removed")

	s.record(ctx, audit.NewRemoveEvent(removal.Registration, removal.Address.String(), removal.Fee, removal.RemovedAt))
	s.afterMutation(ctx)

	return removal, nil
}

func (s *Service) Find(ctx context.Context, registration string) (parking.SlotAddress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ledger.Find(ctx, registration)
}

// Quote reports the fee owed right now by the vehicle at addr.
func (s *Service) Quote(ctx context.Context, addr parking.SlotAddress) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ledger.Quote(addr)
}

func (s *Service) Status(ctx context.Context) []parking.ClassStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ledger.Status(ctx)
}

func (s *Service) List(ctx context.Context) []parking.ParkedVehicle {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ledger.ListOccupied(ctx)
}

// Listing is a parked vehicle with the fee it would pay if it left now.
type Listing struct {
	parking.ParkedVehicle
	Due float64
}

// ListWithDue quotes every parked vehicle under the same lock as the listing.
func (s *Service) ListWithDue(ctx context.Context) []Listing {
	s.mu.Lock()
	defer s.mu.Unlock()

	parked := s.ledger.ListOccupied(ctx)
	out := make([]Listing, 0, len(parked))
	for _, p := range parked {
		due, _ := s.ledger.Quote(p.Address)
		out = append(out, Listing{ParkedVehicle: p, Due: due})
	}
	return out
}

// Save writes the current snapshot. A failed save leaves the ledger as it was.
func (s *Service) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(ctx)
}

func (s *Service) save(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	return s.store.Save(ctx, s.ledger.Snapshot(ctx))
}

func (s *Service) History(ctx context.Context, n int) ([]audit.Event, error) {
	return s.history.Recent(ctx, n)
}

// ToggleReservation flips the marker on a slot and reports the new state.
func (s *Service) ToggleReservation(ctx context.Context, identifier string) (parking.SlotAddress, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr, ok := parking.ParseSlotAddress(identifier)
	if !ok || addr.Index < 1 || addr.Index > s.ledger.Capacity(addr.Class) {
		return parking.SlotAddress{}, false, &parking.Error{
			Reason:  parking.ReasonInvalidSlot,
			Message: "Invalid slot " + identifier + ".",
		}
	}

	if s.reserved[addr] {
		delete(s.reserved, addr)
	} else {
		s.reserved[addr] = true
	}
	return addr, s.reserved[addr], nil
}

func (s *Service) Reservations(ctx context.Context) []parking.SlotAddress {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]parking.SlotAddress, 0, len(s.reserved))
	for addr := range s.reserved {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Class != out[j].Class {
			return out[i].Class < out[j].Class
		}
		return out[i].Index < out[j].Index
	})
	return out
}

func (s *Service) record(ctx context.Context, ev audit.Event) {
	if err := s.recorder.Record(ctx, ev); err != nil {
		logging.Warn(ctx).Err(err).Str("event", string(ev.Kind)).Msg("audit record failed")
	}
}

func (s *Service) afterMutation(ctx context.Context) {
	if !s.autoSave {
		return
	}
	if err := s.save(ctx); err != nil {
		logging.Error(ctx).Err(err).Msg("autosave failed")
	}
}
