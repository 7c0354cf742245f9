package models

import (
	"fmt"
	"strings"
)

// Partition keys. Groups of the first stage are 1..3 (A..C), elimination
// seed-pots are 4..7 (D..G) and semifinal brackets are 1..2.
const (
	FirstGroup   = 1
	LastGroup    = 3
	FirstSeedPot = 4
	LastSeedPot  = 7

	TeamsPerGroup   = 4
	TeamsPerSeedPot = 2
	SeededTeams     = (LastSeedPot - FirstSeedPot + 1) * TeamsPerSeedPot
)

// PartitionIndex converts a group or seed-pot label ("A".."G") to its key.
func PartitionIndex(label string) (int, error) {
	l := strings.ToUpper(strings.TrimSpace(label))
	if len(l) != 1 || l[0] < 'A' || l[0] > 'A'+LastSeedPot-1 {
		return 0, fmt.Errorf("%w: unknown group code %q", ErrInputData, label)
	}
	return int(l[0]-'A') + 1, nil
}

// PartitionLabel is the inverse of PartitionIndex. Unknown keys yield "?".
func PartitionLabel(i int) string {
	if i < FirstGroup || i > LastSeedPot {
		return "?"
	}
	return string(rune('A' + i - 1))
}

// RomanNumeral renders small round numbers (1..8) the way the schedule
// prints them.
func RomanNumeral(n int) string {
	if n <= 0 {
		return ""
	}
	values := []int{5, 4, 1}
	symbols := []string{"V", "IV", "I"}
	var b strings.Builder
	for i, v := range values {
		for n >= v {
			b.WriteString(symbols[i])
			n -= v
		}
	}
	return b.String()
}
