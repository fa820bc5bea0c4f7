package parking

import (
	"fmt"
	"strconv"
)

// Snapshot is the structural form of a ledger. Slot indices are strings only
// here; inside the ledger they are ints.
type Snapshot struct {
	Capacities map[string]int                       `json:"capacities"`
	Rates      map[string]float64                   `json:"rates"`
	Slots      map[string]map[string]*VehicleRecord `json:"slots"`
}

type VehicleRecord struct {
	Number    string `json:"number"`
	VType     string `json:"vtype"`
	EntryTime string `json:"entry_time"`
}

// Snapshot captures capacities, rates and every slot, empty ones as nil.
func (l *Ledger) Snapshot() *Snapshot {
	snap := &Snapshot{
		Capacities: make(map[string]int, len(classCodes)),
		Rates:      make(map[string]float64, len(classCodes)),
		Slots:      make(map[string]map[string]*VehicleRecord, len(classCodes)),
	}

	for _, class := range Classes() {
		code := class.String()
		snap.Capacities[code] = l.capacities[class]
		snap.Rates[code] = l.rates[class]

		slots := make(map[string]*VehicleRecord, len(l.slots[class]))
		for _, slot := range l.slots[class] {
			key := strconv.Itoa(slot.Index)
			if !slot.IsOccupied() {
				slots[key] = nil
				continue
			}
			slots[key] = &VehicleRecord{
				Number:    slot.Vehicle.Registration,
				VType:     code,
				EntryTime: slot.Vehicle.stamp,
			}
		}
		snap.Slots[code] = slots
	}

	return snap
}

// FromSnapshot rebuilds a ledger. Capacities and rates come from the snapshot,
// falling back to fallback (then to the defaults) for classes it does not
// mention. Entries for class codes this build does not know are skipped so an
// older configuration can still read a newer snapshot.
func FromSnapshot(snap *Snapshot, fallback Config, opts ...Option) (*Ledger, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrMalformedSnapshot)
	}

	cfg := Config{
		Capacities: make(map[VehicleClass]int, len(classCodes)),
		Rates:      make(map[VehicleClass]float64, len(classCodes)),
	}
	for class, capacity := range fallback.Capacities {
		cfg.Capacities[class] = capacity
	}
	for class, rate := range fallback.Rates {
		cfg.Rates[class] = rate
	}
	for code, capacity := range snap.Capacities {
		if class, ok := ParseClass(code); ok {
			cfg.Capacities[class] = capacity
		}
	}
	for code, rate := range snap.Rates {
		if class, ok := ParseClass(code); ok {
			cfg.Rates[class] = rate
		}
	}

	l, err := NewLedger(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	seen := make(map[string]SlotAddress)
	for code, slots := range snap.Slots {
		class, ok := ParseClass(code)
		if !ok {
			continue
		}

		for key, rec := range slots {
			index, err := strconv.Atoi(key)
			if err != nil {
				return nil, fmt.Errorf("%w: slot key %q in %s is not an integer", ErrMalformedSnapshot, key, class)
			}
			addr := SlotAddress{Class: class, Index: index}
			slot, ok := l.slot(addr)
			if !ok {
				return nil, fmt.Errorf("%w: slot %s outside capacity %d", ErrMalformedSnapshot, addr, l.capacities[class])
			}
			if rec == nil {
				continue
			}

			vehicle, err := rec.vehicle(class)
			if err != nil {
				return nil, fmt.Errorf("%w: slot %s: %v", ErrMalformedSnapshot, addr, err)
			}
			if prev, dup := seen[vehicle.Registration]; dup {
				return nil, fmt.Errorf("%w: %s parked in both %s and %s", ErrMalformedSnapshot, vehicle.Registration, prev, addr)
			}
			seen[vehicle.Registration] = addr
			slot.Park(vehicle)
		}
	}

	return l, nil
}

// vehicle converts a record found under class. The slot's class wins over
// the record's vtype field.
func (r *VehicleRecord) vehicle(class VehicleClass) (*Vehicle, error) {
	registration := NormalizeRegistration(r.Number)

	enteredAt, err := parseEntryStamp(r.EntryTime)
	if err != nil {
		return nil, fmt.Errorf("entry_time %q: %v", r.EntryTime, err)
	}

	return &Vehicle{
		Registration: registration,
		Class:        class,
		EnteredAt:    enteredAt,
		stamp:        r.EntryTime,
	}, nil
}
