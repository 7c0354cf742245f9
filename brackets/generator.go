package brackets

import (
	"context"

	"github.com/Dosada05/basketball-olympics/models"
)

type GenerateBracketParams struct {
	Teams []*models.Team
	// Matches feeds generators that build on an earlier stage, e.g. the
	// knockout tree built from the quarterfinal pairings.
	Matches []*BracketMatch
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error)

	GetName() string
}

// RandomSource is the part of *rand.Rand the draws need.
type RandomSource interface {
	Intn(n int) int
}
