package parking

import (
	"testing"
	"time"
)

func TestNewVehicle(t *testing.T) {
	entered := time.Date(2024, 5, 1, 9, 30, 0, 123456000, time.FixedZone("IST", 5*3600+1800))

	vehicle := NewVehicle("  ka01hh1234 ", FourWheeler, entered)

	if vehicle.Registration != "KA01HH1234" {
		t.Errorf("Expected normalized registration KA01HH1234, got %q", vehicle.Registration)
	}

	if vehicle.EnteredAt.Location() != time.UTC {
		t.Errorf("Expected entry time in UTC, got %s", vehicle.EnteredAt.Location())
	}

	if got, want := vehicle.EntryStamp(), "2024-05-01T04:00:00.123456+00:00"; got != want {
		t.Errorf("Expected entry stamp %s, got %s", want, got)
	}
}

func TestParseClass(t *testing.T) {
	cases := map[string]VehicleClass{
		"2W":   TwoWheeler,
		" 4w ": FourWheeler,
		"tr":   Truck,
	}
	for code, want := range cases {
		got, ok := ParseClass(code)
		if !ok || got != want {
			t.Errorf("ParseClass(%q) = %v, %v; want %v", code, got, ok, want)
		}
	}

	if _, ok := ParseClass("3W"); ok {
		t.Error("Expected 3W to be rejected")
	}
}
