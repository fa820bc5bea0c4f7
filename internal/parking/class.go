package parking

import (
	"fmt"
	"strings"
)

// VehicleClass is a vehicle-size category. The set is closed; capacity and
// rate tables are indexed by it.
type VehicleClass int

const (
	TwoWheeler VehicleClass = iota
	FourWheeler
	Truck
)

var classCodes = [...]string{
	TwoWheeler:  "2W",
	FourWheeler: "4W",
	Truck:       "TR",
}

// Classes lists every class in iteration order.
func Classes() []VehicleClass {
	return []VehicleClass{TwoWheeler, FourWheeler, Truck}
}

func (c VehicleClass) Valid() bool {
	return c >= TwoWheeler && c <= Truck
}

func (c VehicleClass) String() string {
	if !c.Valid() {
		return fmt.Sprintf("VehicleClass(%d)", int(c))
	}
	return classCodes[c]
}

// ParseClass accepts a class code such as "2w" or " TR ".
func ParseClass(code string) (VehicleClass, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for i, c := range classCodes {
		if c == code {
			return VehicleClass(i), true
		}
	}
	return 0, false
}

func classCodeList() string {
	return strings.Join(classCodes[:], ", ")
}
