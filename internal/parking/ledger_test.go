package parking

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLedger(t *testing.T, capacities map[VehicleClass]int) (*Ledger, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)}
	l, err := NewLedger(Config{Capacities: capacities}, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	return l, clock
}

func TestNewLedger(t *testing.T) {
	l, err := NewLedger(Config{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	defaults := DefaultConfig()
	for _, class := range Classes() {
		if l.Capacity(class) != defaults.Capacities[class] {
			t.Errorf("Expected %s capacity %d, got %d", class, defaults.Capacities[class], l.Capacity(class))
		}
		if l.Rate(class) != defaults.Rates[class] {
			t.Errorf("Expected %s rate %v, got %v", class, defaults.Rates[class], l.Rate(class))
		}
		for i, slot := range l.slots[class] {
			if slot.Index != i+1 {
				t.Errorf("Expected slot index %d, got %d", i+1, slot.Index)
			}
			if slot.IsOccupied() {
				t.Errorf("Expected slot %s to be unoccupied", slot.Address())
			}
		}
	}
}

func TestNewLedgerRejectsBadConfig(t *testing.T) {
	_, err := NewLedger(Config{Capacities: map[VehicleClass]int{Truck: 0}})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for zero capacity, got %v", err)
	}

	_, err = NewLedger(Config{Rates: map[VehicleClass]float64{TwoWheeler: -1}})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for negative rate, got %v", err)
	}
}

func TestLedgerWorkedExample(t *testing.T) {
	l, _ := newTestLedger(t, map[VehicleClass]int{TwoWheeler: 1, FourWheeler: 1})

	addr, err := l.Park("ab12cd", FourWheeler)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if addr != (SlotAddress{FourWheeler, 1}) {
		t.Errorf("Expected 4W:1, got %s", addr)
	}

	_, err = l.Park("ab12cd", TwoWheeler)
	if !errors.Is(err, ErrAlreadyParked) {
		t.Errorf("Expected AlreadyParked, got %v", err)
	}

	_, err = l.Park("xy99zz", FourWheeler)
	if !errors.Is(err, ErrLotFull) {
		t.Errorf("Expected LotFull, got %v", err)
	}

	removal, err := l.Remove("4W:1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if removal.Registration != "AB12CD" {
		t.Errorf("Expected AB12CD, got %s", removal.Registration)
	}
	if removal.Fee < 0 {
		t.Errorf("Expected non-negative fee, got %v", removal.Fee)
	}

	_, err = l.Remove("4W:1")
	if !errors.Is(err, ErrAlreadyEmpty) {
		t.Errorf("Expected AlreadyEmpty, got %v", err)
	}
}

func TestLedgerParkLowestIndex(t *testing.T) {
	l, _ := newTestLedger(t, map[VehicleClass]int{FourWheeler: 3})

	for i, reg := range []string{"KA01HH1234", "KA01HH9999", "KA01BB0001"} {
		addr, err := l.Park(reg, FourWheeler)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if addr.Index != i+1 {
			t.Errorf("Expected slot %d, got %d", i+1, addr.Index)
		}
	}

	if _, err := l.Remove("KA01HH1234"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	addr, err := l.Park("KA01HH7777", FourWheeler)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if addr.Index != 1 {
		t.Errorf("Expected to reuse slot 1, got slot %d", addr.Index)
	}
}

func TestLedgerFullLotLeavesStateUnchanged(t *testing.T) {
	l, _ := newTestLedger(t, map[VehicleClass]int{Truck: 2})
	l.Park("TR0001", Truck)
	l.Park("TR0002", Truck)

	before := l.Snapshot()
	_, err := l.Park("TR0003", Truck)
	if ReasonOf(err) != ReasonLotFull {
		t.Fatalf("Expected lot_full, got %v", err)
	}
	if !reflect.DeepEqual(before, l.Snapshot()) {
		t.Error("Expected a rejected park to leave the ledger unchanged")
	}
}

func TestLedgerUniqueRegistrations(t *testing.T) {
	l, _ := newTestLedger(t, nil)

	regs := []string{"a1", " A1", "b2", "a1 ", "B2", "c3"}
	classes := []VehicleClass{TwoWheeler, FourWheeler, Truck}
	for i, reg := range regs {
		l.Park(reg, classes[i%len(classes)])
	}

	seen := map[string]bool{}
	for _, pv := range l.ListOccupied() {
		if seen[pv.Registration] {
			t.Errorf("Registration %s occupies more than one slot", pv.Registration)
		}
		seen[pv.Registration] = true
	}
	if len(seen) != 3 {
		t.Errorf("Expected 3 parked vehicles, got %d", len(seen))
	}
}

func TestLedgerParkCodeInvalidClass(t *testing.T) {
	l, _ := newTestLedger(t, nil)

	_, err := l.ParkCode("KA01", "3w")
	if !errors.Is(err, ErrInvalidClass) {
		t.Fatalf("Expected InvalidClass, got %v", err)
	}
	if err.Error() != "Invalid vehicle type '3W'. Use 2W, 4W, TR." {
		t.Errorf("Unexpected message %q", err.Error())
	}

	if _, err := l.Park("KA01", VehicleClass(9)); !errors.Is(err, ErrInvalidClass) {
		t.Errorf("Expected InvalidClass for out-of-range class, got %v", err)
	}
}

func TestLedgerRemove(t *testing.T) {
	l, clock := newTestLedger(t, map[VehicleClass]int{TwoWheeler: 2})
	l.Park("KA01HH1234", TwoWheeler)
	l.Park("KA01HH9999", TwoWheeler)

	clock.Advance(2*time.Hour + 5*time.Minute)

	removal, err := l.Remove(" ka01hh9999 ")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if removal.Address != (SlotAddress{TwoWheeler, 2}) {
		t.Errorf("Expected 2W:2, got %s", removal.Address)
	}
	if removal.Fee != 15 {
		t.Errorf("Expected fee 15 (3h x 5), got %v", removal.Fee)
	}

	if _, err := l.Remove("KA01HH9999"); ReasonOf(err) != ReasonNotFound {
		t.Errorf("Expected not_found, got %v", err)
	}

	for _, id := range []string{"2W:0", "2W-3", "2W:99999999999999999999"} {
		if _, err := l.Remove(id); ReasonOf(err) != ReasonInvalidSlot {
			t.Errorf("Remove(%q): expected invalid_slot, got %v", id, err)
		}
	}

	removal, err = l.Remove("2w-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if removal.Registration != "KA01HH1234" {
		t.Errorf("Expected KA01HH1234, got %s", removal.Registration)
	}
}

func TestLedgerRemoveWithinFirstHour(t *testing.T) {
	l, clock := newTestLedger(t, nil)
	l.Park("MH12AB0001", Truck)

	clock.Advance(59 * time.Minute)

	removal, err := l.Remove("MH12AB0001")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if removal.Fee != l.Rate(Truck) {
		t.Errorf("Expected one hour at %v, got %v", l.Rate(Truck), removal.Fee)
	}
}

func TestLedgerRemoveImmediatelyBillsZero(t *testing.T) {
	l, _ := newTestLedger(t, nil)
	l.Park("MH12AB0001", Truck)

	removal, err := l.Remove("TR:1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if removal.Fee != 0 {
		t.Errorf("Expected zero fee for zero elapsed time, got %v", removal.Fee)
	}
}

func TestLedgerFind(t *testing.T) {
	l, _ := newTestLedger(t, nil)
	l.Park("KA01HH1234", TwoWheeler)
	l.Park("KA01HH9999", Truck)

	addr, ok := l.Find("ka01hh9999")
	if !ok {
		t.Fatal("Expected to find KA01HH9999")
	}
	if addr != (SlotAddress{Truck, 1}) {
		t.Errorf("Expected TR:1, got %s", addr)
	}

	if _, ok := l.Find("NOTFOUND"); ok {
		t.Error("Expected no match for unknown registration")
	}
}

func TestLedgerStatusAndList(t *testing.T) {
	l, _ := newTestLedger(t, map[VehicleClass]int{TwoWheeler: 4, FourWheeler: 6, Truck: 2})
	l.Park("A", FourWheeler)
	l.Park("B", FourWheeler)
	l.Park("C", TwoWheeler)
	l.Park("D", FourWheeler)
	l.Remove("4W:2")

	status := l.Status()
	want := []ClassStatus{
		{Class: TwoWheeler, Total: 4, Occupied: 1, Available: 3},
		{Class: FourWheeler, Total: 6, Occupied: 2, Available: 4},
		{Class: Truck, Total: 2, Occupied: 0, Available: 2},
	}
	if !reflect.DeepEqual(status, want) {
		t.Errorf("Expected status %+v, got %+v", want, status)
	}
	if got := status[1].OccupancyPercent(); got != 33.3 {
		t.Errorf("Expected 33.3%%, got %v", got)
	}

	var addrs []string
	for _, pv := range l.ListOccupied() {
		addrs = append(addrs, pv.Address.String())
	}
	if !reflect.DeepEqual(addrs, []string{"2W:1", "4W:1", "4W:3"}) {
		t.Errorf("Unexpected listing order %v", addrs)
	}
}

func TestLedgerQuote(t *testing.T) {
	l, clock := newTestLedger(t, nil)
	l.Park("Q1", FourWheeler)
	clock.Advance(90 * time.Minute)

	fee, ok := l.Quote(SlotAddress{FourWheeler, 1})
	if !ok || fee != 20 {
		t.Errorf("Expected quote 20, got %v (%v)", fee, ok)
	}
	if _, ok := l.Quote(SlotAddress{FourWheeler, 2}); ok {
		t.Error("Expected no quote for an empty slot")
	}
}
