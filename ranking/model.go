// Package ranking holds the power-ranking model: the initial ranking built
// from exhibition games, the per-game adjustment, the odds of winning a
// quarter and the comparators used to order standings.
package ranking

import (
	"fmt"

	"github.com/Dosada05/basketball-olympics/models"
)

const (
	RegularWinPoints   = 2
	BlowoutWinBonus    = 3
	RegularLossPoints  = -2
	BlowoutLossPenalty = -3
	BaseRanking        = 60
	BlowoutMargin      = 10

	MinPowerRanking = 10
	MaxPowerRanking = 100

	favoriteBonus   = 10
	underdogPenalty = 7
	minOdds         = 10
	maxOdds         = 100
)

// Lookup maps a country code to its federation ranking. It is built once
// from the tournament roster and passed explicitly wherever opponents have
// to be rated.
type Lookup map[string]int

func NewLookup(teams []*models.Team) (Lookup, error) {
	l := make(Lookup, len(teams))
	for _, t := range teams {
		if t.ISOCode == "" {
			return nil, fmt.Errorf("%w: team %q has no country code", models.ErrInputData, t.Name)
		}
		if t.FederationRank <= 0 {
			return nil, fmt.Errorf("%w: team %s has no federation ranking", models.ErrInputData, t.ISOCode)
		}
		if _, dup := l[t.ISOCode]; dup {
			return nil, fmt.Errorf("%w: duplicate country code %s", models.ErrInputData, t.ISOCode)
		}
		l[t.ISOCode] = t.FederationRank
	}
	return l, nil
}

func (l Lookup) Rank(code string) (int, error) {
	r, ok := l[code]
	if !ok {
		return 0, fmt.Errorf("%w: no federation ranking for %q", models.ErrInputData, code)
	}
	return r, nil
}

// Clamp bounds a power ranking to [MinPowerRanking, MaxPowerRanking].
func Clamp(r int) int {
	return min(max(r, MinPowerRanking), MaxPowerRanking)
}

// InitialPowerRanking starts from the federation ranking and adjusts it by
// every exhibition result. Scores are read from the team's point of view.
func InitialPowerRanking(games []models.ExhibitionGame, federationRank int, lookup Lookup) (int, error) {
	ranking := BaseRanking - 2*federationRank
	for _, g := range games {
		opponentRank, err := lookup.Rank(g.Opponent)
		if err != nil {
			return 0, err
		}
		own, opp, err := g.Score()
		if err != nil {
			return 0, err
		}
		diff := own - opp
		ranking += RankingDelta(federationRank, opponentRank, diff, diff > 0)
	}
	return Clamp(ranking), nil
}

// RankingDelta is the change to a team's power ranking after one game. The
// caller adds it to the current ranking and clamps the sum.
func RankingDelta(teamFedRank, opponentFedRank, pointDiff int, won bool) int {
	delta := 0
	switch {
	case pointDiff >= BlowoutMargin:
		delta += BlowoutWinBonus
	case pointDiff > 0:
		delta += RegularWinPoints
	case pointDiff <= -BlowoutMargin:
		delta += BlowoutLossPenalty
	case pointDiff < 0:
		delta += RegularLossPoints
	}

	// A lower federation rank is the stronger side.
	if won && teamFedRank < opponentFedRank {
		delta += RegularWinPoints
	} else if !won && teamFedRank > opponentFedRank {
		delta += RegularLossPoints
	}
	return delta
}

// WinProbability is the chance, in percent, that the team ranked rankingA
// wins a quarter against the team ranked rankingB. Favorites get a bonus and
// underdogs a penalty on top of the linear gap.
func WinProbability(rankingA, rankingB int) float64 {
	d := rankingA - rankingB
	var odds int
	if d >= 0 {
		odds = maxOdds - d + favoriteBonus
	} else {
		odds = -underdogPenalty - d
	}
	return float64(min(max(odds, minOdds), maxOdds))
}
