// Package numbering proposes circuit numbers for new breakers.
//
// Panel positions follow standard odd/even numbering: positions on the same
// side of the bus that share a phase are two apart, so a two-pole breaker in
// position 1 occupies "1,3" and a three-pole breaker occupies "1,3,5".
//
// Every breaker takes the lowest starting position whose same-phase
// positions are all free, on either side of the bus.
//
// The allocator only proposes a default. Circuit numbers are user-editable
// strings and are never re-validated or renumbered here.
package numbering

import (
	"sort"
	"strconv"
	"strings"
)

// Parse returns the positive integers listed in a circuit-number string such
// as "1,3" or " 2, 4 ". Tokens that are not positive integers are ignored.
func Parse(circuit string) []int {
	var out []int
	for _, tok := range strings.Split(circuit, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil || n < 1 {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Format joins positions into a circuit-number string.
func Format(positions []int) string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

// Occupied returns the set of positions used by the given circuit numbers.
func Occupied(circuits []string) map[int]bool {
	used := make(map[int]bool)
	for _, c := range circuits {
		for _, n := range Parse(c) {
			used[n] = true
		}
	}
	return used
}

// Next proposes a circuit number for a breaker with the given pole count in
// a panel of unknown size. A poles value below 1 is treated as 1.
//
// It returns the lowest k >= 1 such that k, k+2, ..., k+2(n-1) are all
// unoccupied. For one pole that is the lowest unoccupied position.
func Next(circuits []string, poles int) string {
	return NextWithin(circuits, poles, 0)
}

// NextWithin is like [Next] for a panel with the given number of spaces.
// Positions that end inside the panel are tried first; when none fit, the
// lowest start past them is returned. A spaces value of 0 means unknown.
func NextWithin(circuits []string, poles, spaces int) string {
	if poles < 1 {
		poles = 1
	}
	used := Occupied(circuits)
	last := func(k int) int { return k + 2*(poles-1) }
	k := 1
	if spaces > 0 {
		for ; last(k) <= spaces; k++ {
			if fits(used, k, poles) {
				return Format(positions(k, poles))
			}
		}
	}
	for ; ; k++ {
		if fits(used, k, poles) {
			return Format(positions(k, poles))
		}
	}
}

// Positions returns the sorted, de-duplicated positions across circuits.
func Positions(circuits []string) []int {
	used := Occupied(circuits)
	out := make([]int, 0, len(used))
	for n := range used {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func fits(used map[int]bool, k, poles int) bool {
	for i := 0; i < poles; i++ {
		if used[k+2*i] {
			return false
		}
	}
	return true
}

func positions(k, poles int) []int {
	out := make([]int, poles)
	for i := range out {
		out[i] = k + 2*i
	}
	return out
}
