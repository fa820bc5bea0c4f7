package parking

import (
	"strings"
	"time"
)

// entryLayout matches ISO-8601 with microseconds and an explicit UTC offset.
const entryLayout = "2006-01-02T15:04:05.000000-07:00"

type Vehicle struct {
	Registration string
	Class        VehicleClass
	EnteredAt    time.Time

	// stamp is the textual entry time written to snapshots. Vehicles read
	// back from a snapshot keep the exact string they were stored with.
	stamp string
}

func NewVehicle(registration string, class VehicleClass, enteredAt time.Time) *Vehicle {
	enteredAt = enteredAt.UTC()
	return &Vehicle{
		Registration: NormalizeRegistration(registration),
		Class:        class,
		EnteredAt:    enteredAt,
		stamp:        enteredAt.Format(entryLayout),
	}
}

// EntryStamp returns the entry time as it is persisted.
func (v *Vehicle) EntryStamp() string {
	return v.stamp
}

func NormalizeRegistration(registration string) string {
	return strings.ToUpper(strings.TrimSpace(registration))
}

func parseEntryStamp(stamp string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
