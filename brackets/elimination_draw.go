package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/basketball-olympics/models"
)

// EliminationDrawGenerator pairs the teams of a higher and a lower seed-pot
// for the quarterfinals while trying to avoid group-stage rematches.
type EliminationDrawGenerator struct {
	rng RandomSource
}

func NewEliminationDrawGenerator(rng RandomSource) BracketGenerator {
	return &EliminationDrawGenerator{rng: rng}
}

func (g *EliminationDrawGenerator) GetName() string {
	return "EliminationDraw"
}

// GenerateBracket expects four teams: the two of the higher pot followed by
// the two of the lower pot. A random team of each pot forms the first
// pairing and the remaining two the second. If either pairing is a rematch
// the partners are swapped once; if that still yields a rematch the first
// draw is kept and the rematch accepted.
func (g *EliminationDrawGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	teams := params.Teams
	if len(teams) != 2*models.TeamsPerSeedPot {
		return nil, fmt.Errorf("%w: elimination draw needs %d teams, got %d",
			models.ErrInvariantViolation, 2*models.TeamsPerSeedPot, len(teams))
	}

	first := g.rng.Intn(2)
	second := 2 + g.rng.Intn(2)
	otherFirst := 1 - first
	otherSecond := 5 - second

	drawn := [2][2]*models.Team{
		{teams[first], teams[second]},
		{teams[otherFirst], teams[otherSecond]},
	}
	pairs := drawn
	if rematch(pairs[0]) || rematch(pairs[1]) {
		pairs = [2][2]*models.Team{
			{teams[first], teams[otherSecond]},
			{teams[otherFirst], teams[second]},
		}
		if rematch(pairs[0]) || rematch(pairs[1]) {
			pairs = drawn
		}
	}

	matches := make([]*BracketMatch, 0, 2)
	for i, p := range pairs {
		matches = append(matches, &BracketMatch{
			UID:          fmt.Sprintf("QF-%s-%s", p[0].ISOCode, p[1].ISOCode),
			Round:        RoundQuarterfinal,
			OrderInRound: i + 1,
			Home:         p[0],
			Away:         p[1],
			Repeat:       rematch(p),
		})
	}
	return matches, nil
}

func rematch(p [2]*models.Team) bool {
	return p[0].HasFaced(p[1].ISOCode)
}
