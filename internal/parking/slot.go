package parking

import "fmt"

type Slot struct {
	Class   VehicleClass
	Index   int
	Vehicle *Vehicle
}

func NewSlot(class VehicleClass, index int) *Slot {
	return &Slot{
		Class: class,
		Index: index,
	}
}

func (s *Slot) IsOccupied() bool {
	return s.Vehicle != nil
}

func (s *Slot) Park(vehicle *Vehicle) {
	s.Vehicle = vehicle
}

func (s *Slot) Leave() *Vehicle {
	vehicle := s.Vehicle
	s.Vehicle = nil
	return vehicle
}

func (s *Slot) Address() SlotAddress {
	return SlotAddress{Class: s.Class, Index: s.Index}
}

// SlotAddress identifies a slot as (class, index).
type SlotAddress struct {
	Class VehicleClass
	Index int
}

func (a SlotAddress) String() string {
	return fmt.Sprintf("%s:%d", a.Class, a.Index)
}
