package brackets

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/basketball-olympics/models"
)

type BracketMatch struct {
	UID          string
	Round        int
	OrderInRound int

	Home *models.Team
	Away *models.Team

	// Placeholders are filled from the winners (or losers) of their sources.
	SourceMatch1UID *string
	SourceMatch2UID *string
	FromLosers      bool

	IsPlaceholder bool

	// Repeat marks a pairing of two teams that already met.
	Repeat bool
}

func (m *BracketMatch) Teams() []*models.Team {
	var out []*models.Team
	if m.Home != nil {
		out = append(out, m.Home)
	}
	if m.Away != nil {
		out = append(out, m.Away)
	}
	return out
}

const (
	RoundQuarterfinal = 1
	RoundSemifinal    = 2
	RoundMedal        = 3
)

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket builds the knockout tree on top of four quarterfinal
// pairings. Quarterfinals 1 and 2 feed the first semifinal, 3 and 4 the
// second; the final takes both semifinal winners and the third-place game
// both semifinal losers.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	quarterfinals := params.Matches
	if len(quarterfinals) == 0 {
		return nil, errors.New("cannot generate a knockout tree without quarterfinal pairings")
	}
	if len(quarterfinals) != 4 {
		return nil, fmt.Errorf("%w: knockout tree needs 4 quarterfinals, got %d", models.ErrInvariantViolation, len(quarterfinals))
	}

	all := make([]*BracketMatch, 0, 8)
	for i, qf := range quarterfinals {
		if qf.Home == nil || qf.Away == nil {
			return nil, fmt.Errorf("%w: quarterfinal %d is missing a team", models.ErrInvariantViolation, i+1)
		}
		uid := fmt.Sprintf("R%dM%d", RoundQuarterfinal, i+1)
		all = append(all, &BracketMatch{
			UID:          uid,
			Round:        RoundQuarterfinal,
			OrderInRound: i + 1,
			Home:         qf.Home,
			Away:         qf.Away,
			Repeat:       qf.Repeat,
		})
	}

	placeholder := func(round, order int, src1, src2 string, fromLosers bool) *BracketMatch {
		return &BracketMatch{
			UID:             fmt.Sprintf("R%dM%d", round, order),
			Round:           round,
			OrderInRound:    order,
			SourceMatch1UID: &src1,
			SourceMatch2UID: &src2,
			FromLosers:      fromLosers,
			IsPlaceholder:   true,
		}
	}

	sf1 := placeholder(RoundSemifinal, 1, all[0].UID, all[1].UID, false)
	sf2 := placeholder(RoundSemifinal, 2, all[2].UID, all[3].UID, false)
	final := placeholder(RoundMedal, 1, sf1.UID, sf2.UID, false)
	bronze := placeholder(RoundMedal, 2, sf1.UID, sf2.UID, true)

	return append(all, sf1, sf2, final, bronze), nil
}

// Sources returns the matches feeding m, looked up by UID in the tree.
func Sources(tree []*BracketMatch, m *BracketMatch) []*BracketMatch {
	var out []*BracketMatch
	for _, uid := range []*string{m.SourceMatch1UID, m.SourceMatch2UID} {
		if uid == nil {
			continue
		}
		for _, candidate := range tree {
			if candidate.UID == *uid {
				out = append(out, candidate)
				break
			}
		}
	}
	return out
}
