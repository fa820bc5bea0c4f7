package parking

import "testing"

func TestParseSlotAddress(t *testing.T) {
	cases := []struct {
		in    string
		want  SlotAddress
		match bool
	}{
		{"4W:3", SlotAddress{FourWheeler, 3}, true},
		{"2w-12", SlotAddress{TwoWheeler, 12}, true},
		{" tr:1 ", SlotAddress{Truck, 1}, true},
		{"4W:0", SlotAddress{FourWheeler, 0}, true},
		{"4W3", SlotAddress{}, false},
		{"4W:", SlotAddress{}, false},
		{"XX:1", SlotAddress{}, false},
		{"AB12CD", SlotAddress{}, false},
		{"4W:1a", SlotAddress{}, false},
	}

	for _, tc := range cases {
		got, ok := ParseSlotAddress(tc.in)
		if ok != tc.match {
			t.Errorf("ParseSlotAddress(%q) match = %v, want %v", tc.in, ok, tc.match)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("ParseSlotAddress(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseSlotAddressOverflow(t *testing.T) {
	addr, ok := ParseSlotAddress("2W:99999999999999999999999")
	if !ok {
		t.Fatal("Expected overflowing index to still parse as an address")
	}
	if addr.Index != -1 {
		t.Errorf("Expected index -1 for overflow, got %d", addr.Index)
	}
}
