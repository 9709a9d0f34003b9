package domain

import (
	"fmt"
	"math/bits"
	"strings"
)

// ZoneCount is the number of broadcast zones the country is divided
// into. Each zone maps to the mesh channel of the same number.
const ZoneCount = 7

// ZoneSet is a set of broadcast zone numbers in [1, ZoneCount]. The zero
// value is the empty set. Zone numbers outside the valid range are
// silently ignored on Add, so a ZoneSet can never hold an invalid zone.
type ZoneSet struct {
	bits uint8
}

// Add inserts a zone into the set.
func (s *ZoneSet) Add(zone int) {
	if zone < 1 || zone > ZoneCount {
		return
	}
	s.bits |= 1 << (zone - 1)
}

// Contains reports whether zone is a member of the set.
func (s ZoneSet) Contains(zone int) bool {
	if zone < 1 || zone > ZoneCount {
		return false
	}
	return s.bits&(1<<(zone-1)) != 0
}

// Len returns the number of zones in the set.
func (s ZoneSet) Len() int {
	return bits.OnesCount8(s.bits)
}

// Zones returns the member zones in ascending order.
func (s ZoneSet) Zones() []int {
	zones := make([]int, 0, s.Len())
	for z := 1; z <= ZoneCount; z++ {
		if s.Contains(z) {
			zones = append(zones, z)
		}
	}
	return zones
}

// String renders the set as "{1,4,7}" for logs.
func (s ZoneSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, z := range s.Zones() {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", z)
	}
	b.WriteByte('}')
	return b.String()
}
