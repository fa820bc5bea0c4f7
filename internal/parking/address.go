package parking

import (
	"regexp"
	"strconv"
	"strings"
)

var slotAddressPattern = regexp.MustCompile(`^(2W|4W|TR)[-:](\d+)$`)

// ParseSlotAddress reports whether identifier has the form <CLASS><SEP><INDEX>,
// e.g. "4W:3" or "tr-1". The index is not range checked here; an index too
// large to represent comes back as -1.
func ParseSlotAddress(identifier string) (SlotAddress, bool) {
	m := slotAddressPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(identifier)))
	if m == nil {
		return SlotAddress{}, false
	}

	class, ok := ParseClass(m[1])
	if !ok {
		return SlotAddress{}, false
	}

	index, err := strconv.Atoi(m[2])
	if err != nil {
		index = -1
	}

	return SlotAddress{Class: class, Index: index}, true
}
