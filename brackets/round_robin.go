package brackets

import (
	"context"
	"fmt"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() BracketGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// GenerateBracket schedules a single round robin with the circle method:
// the first team stays in place while the others rotate one seat per round,
// so n teams play n-1 rounds of n/2 games and every pair meets once.
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	teams := params.Teams
	n := len(teams)
	if n < 2 {
		return nil, fmt.Errorf("RoundRobinGenerator: not enough teams (found %d, min 2 required)", n)
	}
	if n%2 != 0 {
		return nil, fmt.Errorf("RoundRobinGenerator: odd number of teams (%d) is not supported", n)
	}

	seats := make([]int, n)
	for i := range seats {
		seats[i] = i
	}

	matches := make([]*BracketMatch, 0, n*(n-1)/2)
	for round := 1; round < n; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := 0; i < n/2; i++ {
			home, away := teams[seats[i]], teams[seats[n-1-i]]
			// Alternate the fixed seat between home and away.
			if i == 0 && round%2 == 0 {
				home, away = away, home
			}
			matches = append(matches, &BracketMatch{
				UID:          fmt.Sprintf("RR%dM%d", round, i+1),
				Round:        round,
				OrderInRound: i + 1,
				Home:         home,
				Away:         away,
			})
		}
		// Rotate every seat but the first one step clockwise.
		last := seats[n-1]
		copy(seats[2:], seats[1:n-1])
		seats[1] = last
	}
	return matches, nil
}

// Rounds groups a schedule by round number, in order.
func Rounds(matches []*BracketMatch) [][]*BracketMatch {
	var rounds [][]*BracketMatch
	for _, m := range matches {
		for len(rounds) < m.Round {
			rounds = append(rounds, nil)
		}
		rounds[m.Round-1] = append(rounds[m.Round-1], m)
	}
	return rounds
}
