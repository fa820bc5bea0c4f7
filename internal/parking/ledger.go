package parking

import (
	"fmt"
	"strings"
	"time"
)

// Config holds per-class capacities and hourly rates. Classes left out of
// either map take the defaults.
type Config struct {
	Capacities map[VehicleClass]int
	Rates      map[VehicleClass]float64
}

func DefaultConfig() Config {
	return Config{
		Capacities: map[VehicleClass]int{
			TwoWheeler:  10,
			FourWheeler: 20,
			Truck:       5,
		},
		Rates: map[VehicleClass]float64{
			TwoWheeler:  5.0,
			FourWheeler: 10.0,
			Truck:       20.0,
		},
	}
}

// Ledger is the authoritative record of slot occupancy. It is not safe for
// concurrent use; callers sharing one ledger must serialize access.
type Ledger struct {
	capacities [len(classCodes)]int
	rates      [len(classCodes)]float64
	slots      [len(classCodes)][]*Slot
	now        func() time.Time
}

type Option func(*Ledger)

// WithClock replaces the time source used for entry stamps and fees.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

func NewLedger(cfg Config, opts ...Option) (*Ledger, error) {
	defaults := DefaultConfig()
	l := &Ledger{now: time.Now}

	for _, class := range Classes() {
		capacity, ok := cfg.Capacities[class]
		if !ok {
			capacity = defaults.Capacities[class]
		}
		if capacity <= 0 {
			return nil, fmt.Errorf("%w: capacity for %s must be positive, got %d", ErrInvalidConfig, class, capacity)
		}

		rate, ok := cfg.Rates[class]
		if !ok {
			rate = defaults.Rates[class]
		}
		if rate < 0 {
			return nil, fmt.Errorf("%w: rate for %s must not be negative, got %g", ErrInvalidConfig, class, rate)
		}

		l.capacities[class] = capacity
		l.rates[class] = rate
		l.slots[class] = make([]*Slot, capacity)
		for i := 0; i < capacity; i++ {
			l.slots[class][i] = NewSlot(class, i+1)
		}
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

func (l *Ledger) Capacity(class VehicleClass) int {
	if !class.Valid() {
		return 0
	}
	return l.capacities[class]
}

func (l *Ledger) Rate(class VehicleClass) float64 {
	if !class.Valid() {
		return 0
	}
	return l.rates[class]
}

// Config returns a copy of the configuration the ledger was built with.
func (l *Ledger) Config() Config {
	cfg := Config{
		Capacities: make(map[VehicleClass]int, len(classCodes)),
		Rates:      make(map[VehicleClass]float64, len(classCodes)),
	}
	for _, class := range Classes() {
		cfg.Capacities[class] = l.capacities[class]
		cfg.Rates[class] = l.rates[class]
	}
	return cfg
}

func (l *Ledger) clock() time.Time {
	return l.now().UTC()
}

func (l *Ledger) slot(addr SlotAddress) (*Slot, bool) {
	if !addr.Class.Valid() || addr.Index < 1 || addr.Index > l.capacities[addr.Class] {
		return nil, false
	}
	return l.slots[addr.Class][addr.Index-1], true
}

// Find locates a parked vehicle by registration.
func (l *Ledger) Find(registration string) (SlotAddress, bool) {
	registration = NormalizeRegistration(registration)
	for _, class := range Classes() {
		for _, slot := range l.slots[class] {
			if slot.IsOccupied() && slot.Vehicle.Registration == registration {
				return slot.Address(), true
			}
		}
	}
	return SlotAddress{}, false
}

// Park assigns the lowest-numbered empty slot of the given class.
func (l *Ledger) Park(registration string, class VehicleClass) (SlotAddress, error) {
	if !class.Valid() {
		return SlotAddress{}, newError(ReasonInvalidClass,
			fmt.Sprintf("Invalid vehicle type '%s'. Use %s.", class, classCodeList()))
	}

	registration = NormalizeRegistration(registration)
	if addr, ok := l.Find(registration); ok {
		return SlotAddress{}, newError(ReasonAlreadyParked,
			fmt.Sprintf("Vehicle %s already parked at %s.", registration, addr))
	}

	for _, slot := range l.slots[class] {
		if !slot.IsOccupied() {
			slot.Park(NewVehicle(registration, class, l.clock()))
			return slot.Address(), nil
		}
	}

	return SlotAddress{}, newError(ReasonLotFull,
		fmt.Sprintf("No available slots for type %s.", class))
}

// ParkCode is Park with a textual class code.
func (l *Ledger) ParkCode(registration, classCode string) (SlotAddress, error) {
	class, ok := ParseClass(classCode)
	if !ok {
		return SlotAddress{}, newError(ReasonInvalidClass,
			fmt.Sprintf("Invalid vehicle type '%s'. Use %s.", strings.ToUpper(strings.TrimSpace(classCode)), classCodeList()))
	}
	return l.Park(registration, class)
}

// Removal describes a vehicle that left the lot.
type Removal struct {
	Registration string
	Address      SlotAddress
	EnteredAt    time.Time
	RemovedAt    time.Time
	Fee          float64
}

// Remove frees a slot. identifier is either a slot address ("4W:3", "2W-1")
// or a registration.
func (l *Ledger) Remove(identifier string) (Removal, error) {
	var slot *Slot

	if addr, ok := ParseSlotAddress(identifier); ok {
		s, ok := l.slot(addr)
		if !ok {
			return Removal{}, newError(ReasonInvalidSlot,
				fmt.Sprintf("Invalid slot %s.", NormalizeRegistration(identifier)))
		}
		if !s.IsOccupied() {
			return Removal{}, newError(ReasonAlreadyEmpty,
				fmt.Sprintf("Slot %s is already empty.", addr))
		}
		slot = s
	} else {
		registration := NormalizeRegistration(identifier)
		addr, ok := l.Find(registration)
		if !ok {
			return Removal{}, newError(ReasonNotFound,
				fmt.Sprintf("Vehicle %s not found.", registration))
		}
		slot, _ = l.slot(addr)
	}

	now := l.clock()
	vehicle := slot.Leave()

	return Removal{
		Registration: vehicle.Registration,
		Address:      slot.Address(),
		EnteredAt:    vehicle.EnteredAt,
		RemovedAt:    now,
		Fee:          Fee(vehicle.EnteredAt, now, l.rates[slot.Class]),
	}, nil
}

// Quote returns the fee the vehicle in addr would pay if it left now.
func (l *Ledger) Quote(addr SlotAddress) (float64, bool) {
	s, ok := l.slot(addr)
	if !ok || !s.IsOccupied() {
		return 0, false
	}
	return Fee(s.Vehicle.EnteredAt, l.clock(), l.rates[addr.Class]), true
}

type ClassStatus struct {
	Class     VehicleClass
	Total     int
	Occupied  int
	Available int
}

// OccupancyPercent is occupied/total as a percentage rounded to one decimal.
func (s ClassStatus) OccupancyPercent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(int(float64(s.Occupied)/float64(s.Total)*1000+0.5)) / 10
}

func (l *Ledger) Status() []ClassStatus {
	out := make([]ClassStatus, 0, len(classCodes))
	for _, class := range Classes() {
		occupied := 0
		for _, slot := range l.slots[class] {
			if slot.IsOccupied() {
				occupied++
			}
		}
		total := len(l.slots[class])
		out = append(out, ClassStatus{
			Class:     class,
			Total:     total,
			Occupied:  occupied,
			Available: total - occupied,
		})
	}
	return out
}

type ParkedVehicle struct {
	Address      SlotAddress
	Registration string
	EnteredAt    time.Time
}

// ListOccupied returns parked vehicles in class-then-index order.
func (l *Ledger) ListOccupied() []ParkedVehicle {
	var out []ParkedVehicle
	for _, class := range Classes() {
		for _, slot := range l.slots[class] {
			if slot.IsOccupied() {
				out = append(out, ParkedVehicle{
					Address:      slot.Address(),
					Registration: slot.Vehicle.Registration,
					EnteredAt:    slot.Vehicle.EnteredAt,
				})
			}
		}
	}
	return out
}
