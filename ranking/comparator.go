package ranking

import (
	"cmp"
	"slices"

	"github.com/Dosada05/basketball-olympics/models"
)

// Compare orders two teams of the same partition, best first: it returns a
// negative number when a ranks above b. Tournament points decide first, then
// the direct meeting, then point differential and points allowed.
//
// The head-to-head step is only transitive when every pair of the partition
// has played, i.e. inside a finished round-robin group.
func Compare(a, b *models.Team) int {
	if c := cmp.Compare(b.Tally.TournamentPoints, a.Tally.TournamentPoints); c != 0 {
		return c
	}
	if g := a.HeadToHead(b.ISOCode); g != nil {
		switch g.Winner {
		case a.ISOCode:
			return -1
		case b.ISOCode:
			return 1
		}
	}
	return compareScoring(a, b)
}

// CompareOverall orders teams coming from different groups. They never met,
// so the final group standing carries over and the scoring record breaks ties.
func CompareOverall(a, b *models.Team) int {
	if c := cmp.Compare(a.GroupStanding, b.GroupStanding); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Tally.TournamentPoints, a.Tally.TournamentPoints); c != 0 {
		return c
	}
	return compareScoring(a, b)
}

func compareScoring(a, b *models.Team) int {
	if c := cmp.Compare(b.Tally.PointsDifferential, a.Tally.PointsDifferential); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Tally.PointsReceived, b.Tally.PointsReceived); c != 0 {
		return c
	}
	// Identical records: fall back to the federation order so the result
	// is still a total order.
	if c := cmp.Compare(a.FederationRank, b.FederationRank); c != 0 {
		return c
	}
	return cmp.Compare(a.ISOCode, b.ISOCode)
}

// Rank returns a sorted copy of teams and assigns dense standings 1..N.
func Rank(teams []*models.Team, compare func(a, b *models.Team) int) []*models.Team {
	sorted := slices.Clone(teams)
	slices.SortStableFunc(sorted, compare)
	for i, t := range sorted {
		t.Standing = i + 1
	}
	return sorted
}
