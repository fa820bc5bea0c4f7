package parking

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestSnapshotRoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 987654000, time.UTC)}
	cfg := Config{
		Capacities: map[VehicleClass]int{TwoWheeler: 3, FourWheeler: 2, Truck: 1},
		Rates:      map[VehicleClass]float64{TwoWheeler: 2.5, FourWheeler: 7.25, Truck: 30},
	}
	l, err := NewLedger(cfg, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	l.Park("AA11", TwoWheeler)
	clock.Advance(17 * time.Minute)
	l.Park("BB22", TwoWheeler)
	l.Park("CC33", Truck)
	l.Remove("2W:1")

	snap := l.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	restored, err := FromSnapshot(&decoded, Config{})
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}

	if !reflect.DeepEqual(restored.Snapshot(), snap) {
		t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", restored.Snapshot(), snap)
	}
	if !reflect.DeepEqual(restored.Config(), l.Config()) {
		t.Errorf("Expected config %+v, got %+v", l.Config(), restored.Config())
	}
	if !reflect.DeepEqual(restored.ListOccupied(), l.ListOccupied()) {
		t.Errorf("Expected occupancy %+v, got %+v", l.ListOccupied(), restored.ListOccupied())
	}
}

func TestSnapshotShape(t *testing.T) {
	l, _ := newTestLedger(t, map[VehicleClass]int{TwoWheeler: 1, FourWheeler: 1, Truck: 1})
	l.Park("ab12cd", FourWheeler)

	data, err := json.Marshal(l.Snapshot())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	want := `{"capacities":{"2W":1,"4W":1,"TR":1},"rates":{"2W":5,"4W":10,"TR":20},` +
		`"slots":{"2W":{"1":null},"4W":{"1":{"number":"AB12CD","vtype":"4W","entry_time":"2024-03-10T08:00:00.000000+00:00"}},"TR":{"1":null}}}`
	if string(data) != want {
		t.Errorf("Unexpected snapshot JSON:\n got %s\nwant %s", data, want)
	}
}

func TestFromSnapshotPreservesForeignTimestamps(t *testing.T) {
	raw := `{
		"capacities": {"2W": 2, "4W": 2, "TR": 1},
		"rates": {"2W": 5.0, "4W": 10.0, "TR": 20.0},
		"slots": {
			"4W": {"1": null, "2": {"number": "ka05mn4321", "vtype": "4W", "entry_time": "2024-01-01T10:00:00+00:00"}}
		}
	}`
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	l, err := FromSnapshot(&snap, Config{})
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}

	addr, ok := l.Find("KA05MN4321")
	if !ok || addr != (SlotAddress{FourWheeler, 2}) {
		t.Fatalf("Expected KA05MN4321 at 4W:2, got %v %v", addr, ok)
	}

	rec := l.Snapshot().Slots["4W"]["2"]
	if rec.EntryTime != "2024-01-01T10:00:00+00:00" {
		t.Errorf("Expected entry_time to round-trip verbatim, got %s", rec.EntryTime)
	}

	if st := l.Status(); st[0].Total != 2 || st[2].Total != 1 {
		t.Errorf("Expected capacities from snapshot, got %+v", st)
	}
}

func TestFromSnapshotIgnoresUnknownClasses(t *testing.T) {
	snap := &Snapshot{
		Capacities: map[string]int{"2W": 1, "BUS": 4},
		Rates:      map[string]float64{"BUS": 50},
		Slots: map[string]map[string]*VehicleRecord{
			"2W":  {"1": {Number: "X1", VType: "2W", EntryTime: "2024-01-01T10:00:00+00:00"}},
			"BUS": {"1": {Number: "BUS1", VType: "BUS", EntryTime: "2024-01-01T10:00:00+00:00"}},
		},
	}

	l, err := FromSnapshot(snap, Config{Capacities: map[VehicleClass]int{Truck: 2}})
	if err != nil {
		t.Fatalf("Expected unknown classes to be ignored, got %v", err)
	}

	if _, ok := l.Find("BUS1"); ok {
		t.Error("Expected vehicles from unknown classes to be dropped")
	}
	if _, ok := l.Find("X1"); !ok {
		t.Error("Expected X1 to be restored")
	}
	if l.Capacity(Truck) != 2 {
		t.Errorf("Expected fallback truck capacity 2, got %d", l.Capacity(Truck))
	}
	if l.Capacity(FourWheeler) != DefaultConfig().Capacities[FourWheeler] {
		t.Errorf("Expected default 4W capacity, got %d", l.Capacity(FourWheeler))
	}
}

func TestSnapshotRoundTripBlankRegistration(t *testing.T) {
	l, _ := newTestLedger(t, map[VehicleClass]int{FourWheeler: 1})
	addr, err := l.Park("   ", FourWheeler)
	if err != nil {
		t.Fatalf("Park: %v", err)
	}

	restored, err := FromSnapshot(l.Snapshot(), Config{})
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	if !reflect.DeepEqual(restored.Snapshot(), l.Snapshot()) {
		t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", restored.Snapshot(), l.Snapshot())
	}
	if got, ok := restored.Find(""); !ok || got != addr {
		t.Errorf("Expected blank registration at %s, got %s (found=%t)", addr, got, ok)
	}
}

func TestFromSnapshotRejectsMalformed(t *testing.T) {
	stamp := "2024-01-01T10:00:00+00:00"
	cases := map[string]*Snapshot{
		"nil": nil,
		"index out of range": {
			Capacities: map[string]int{"2W": 1},
			Slots:      map[string]map[string]*VehicleRecord{"2W": {"2": nil}},
		},
		"non-integer key": {
			Slots: map[string]map[string]*VehicleRecord{"2W": {"one": nil}},
		},
		"bad timestamp": {
			Slots: map[string]map[string]*VehicleRecord{"2W": {"1": {Number: "A", EntryTime: "yesterday"}}},
		},
		"duplicate registration": {
			Slots: map[string]map[string]*VehicleRecord{
				"2W": {"1": {Number: "A", EntryTime: stamp}},
				"4W": {"1": {Number: "a", EntryTime: stamp}},
			},
		},
		"zero capacity": {
			Capacities: map[string]int{"TR": 0},
		},
	}

	for name, snap := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := FromSnapshot(snap, Config{}); !errors.Is(err, ErrMalformedSnapshot) {
				t.Errorf("Expected ErrMalformedSnapshot, got %v", err)
			}
		})
	}
}
