// Package standings owns the teams of a tournament and the partitions they
// move through: groups, seed-pots and semifinal brackets.
package standings

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/Dosada05/basketball-olympics/brackets"
	"github.com/Dosada05/basketball-olympics/models"
	"github.com/Dosada05/basketball-olympics/ranking"
)

type stage int

const (
	stageGroups stage = iota
	stageGroupsFinal
	stageSeeded
	stageDrawn
)

// Store is not safe for concurrent use; one run owns one store.
type Store struct {
	groups   map[int][]*models.Team
	pool     []*models.Team
	seedPots map[int][]*models.Team
	tree     []*brackets.BracketMatch
	semis    map[int][]*brackets.BracketMatch

	lookup ranking.Lookup
	rng    brackets.RandomSource
	stage  stage
	logger *slog.Logger
}

// NewStore validates the groups (labels A..C, four teams each) and builds
// the federation ranking lookup from them.
func NewStore(groups map[string][]*models.Team, rng brackets.RandomSource, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(groups) != models.LastGroup-models.FirstGroup+1 {
		return nil, fmt.Errorf("%w: expected %d groups, got %d",
			models.ErrInputData, models.LastGroup-models.FirstGroup+1, len(groups))
	}

	s := &Store{
		groups:   make(map[int][]*models.Team, len(groups)),
		seedPots: make(map[int][]*models.Team),
		semis:    make(map[int][]*brackets.BracketMatch),
		rng:      rng,
		logger:   logger,
	}

	var all []*models.Team
	for label, teams := range groups {
		key, err := models.PartitionIndex(label)
		if err != nil {
			return nil, err
		}
		if key > models.LastGroup {
			return nil, fmt.Errorf("%w: %q is not a group-stage label", models.ErrInputData, label)
		}
		if len(teams) != models.TeamsPerGroup {
			return nil, fmt.Errorf("%w: group %s has %d teams, want %d",
				models.ErrInputData, label, len(teams), models.TeamsPerGroup)
		}
		for _, t := range teams {
			if t == nil {
				return nil, fmt.Errorf("%w: group %s has an empty slot", models.ErrInputData, label)
			}
			t.Group = key
		}
		s.groups[key] = slices.Clone(teams)
		all = append(all, teams...)
	}

	lookup, err := ranking.NewLookup(all)
	if err != nil {
		return nil, err
	}
	s.lookup = lookup
	return s, nil
}

func (s *Store) Lookup() ranking.Lookup {
	return s.lookup
}

// Teams returns every team, group by group.
func (s *Store) Teams() []*models.Team {
	var out []*models.Team
	for _, key := range sortedKeys(s.groups) {
		out = append(out, s.groups[key]...)
	}
	return out
}

func (s *Store) Group(key int) []*models.Team {
	return slices.Clone(s.groups[key])
}

// RecordInitialRankings rates every team from its exhibition results. It
// has to run before the first group game.
func (s *Store) RecordInitialRankings(fixtures map[string][]models.ExhibitionGame) error {
	for _, t := range s.Teams() {
		if len(t.GamesPlayed) > 0 {
			return fmt.Errorf("%w: initial rankings after %s already played", models.ErrInvariantViolation, t.ISOCode)
		}
	}
	for _, t := range s.Teams() {
		games, ok := fixtures[t.ISOCode]
		if !ok {
			return fmt.Errorf("%w: no exhibition games for %s", models.ErrInputData, t.ISOCode)
		}
		r, err := ranking.InitialPowerRanking(games, t.FederationRank, s.lookup)
		if err != nil {
			return fmt.Errorf("rating %s: %w", t.ISOCode, err)
		}
		t.PowerRanking = r
		s.logger.Debug("initial power ranking", slog.String("team", t.ISOCode), slog.Int("ranking", r))
	}
	return nil
}

// GroupRankings returns the group partitions. With final set every group is
// re-sorted and its standings reassigned first; repeated calls without a
// game in between return the same order.
func (s *Store) GroupRankings(final bool) map[int][]*models.Team {
	if final {
		for key, teams := range s.groups {
			s.groups[key] = ranking.Rank(teams, ranking.Compare)
		}
	}
	out := make(map[int][]*models.Team, len(s.groups))
	for key, teams := range s.groups {
		out[key] = slices.Clone(teams)
	}
	return out
}

// FinalizeGroupStage ranks every finished group, freezes the group standings
// and merges all teams into the cross-group pool.
func (s *Store) FinalizeGroupStage() error {
	if s.stage != stageGroups {
		return fmt.Errorf("%w: group stage already finalized", models.ErrInvariantViolation)
	}
	for _, t := range s.Teams() {
		if played := len(t.GamesPlayed); played != models.TeamsPerGroup-1 {
			return fmt.Errorf("%w: %s played %d group games, want %d",
				models.ErrInvariantViolation, t.ISOCode, played, models.TeamsPerGroup-1)
		}
	}

	groups := s.GroupRankings(true)
	var pool []*models.Team
	for _, key := range sortedKeys(groups) {
		for _, t := range groups[key] {
			t.GroupStanding = t.Standing
			pool = append(pool, t)
		}
	}
	slices.SortStableFunc(pool, ranking.CompareOverall)
	s.pool = pool
	s.stage = stageGroupsFinal
	return nil
}

// GroupTables returns printable group tables using the frozen group
// standings.
func (s *Store) GroupTables() map[int][]models.StandingRow {
	out := make(map[int][]models.StandingRow, len(s.groups))
	for key, teams := range s.groups {
		rows := make([]models.StandingRow, 0, len(teams))
		for _, t := range teams {
			row := models.NewStandingRow(t)
			if t.GroupStanding > 0 {
				row.Standing = t.GroupStanding
			}
			rows = append(rows, row)
		}
		out[key] = rows
	}
	return out
}

// SelectEliminationSeeds assigns overall standings 1..12 and splits the top
// eight into seed-pots 4..7 of two teams each. The rest are eliminated.
func (s *Store) SelectEliminationSeeds() (map[int][]*models.Team, error) {
	if s.stage != stageGroupsFinal {
		return nil, fmt.Errorf("%w: seeds need a finalized group stage", models.ErrInvariantViolation)
	}
	if len(s.pool) < models.SeededTeams {
		return nil, fmt.Errorf("%w: pool holds %d teams, need %d",
			models.ErrInvariantViolation, len(s.pool), models.SeededTeams)
	}

	for i, t := range s.pool {
		t.Standing = i + 1
	}
	for pot := models.FirstSeedPot; pot <= models.LastSeedPot; pot++ {
		from := (pot - models.FirstSeedPot) * models.TeamsPerSeedPot
		s.seedPots[pot] = slices.Clone(s.pool[from : from+models.TeamsPerSeedPot])
	}
	s.stage = stageSeeded
	return s.SeedPots(), nil
}

func (s *Store) SeedPots() map[int][]*models.Team {
	out := make(map[int][]*models.Team, len(s.seedPots))
	for key, teams := range s.seedPots {
		out[key] = slices.Clone(teams)
	}
	return out
}

// Overall returns the cross-group pool in standing order.
func (s *Store) Overall() []*models.Team {
	return slices.Clone(s.pool)
}

// Eliminated returns the teams that missed the seed-pots.
func (s *Store) Eliminated() []*models.Team {
	if len(s.pool) <= models.SeededTeams {
		return nil
	}
	return slices.Clone(s.pool[models.SeededTeams:])
}

// DrawEliminationPairings pairs the teams of a higher and a lower seed-pot.
func (s *Store) DrawEliminationPairings(ctx context.Context, high, low int) ([]*brackets.BracketMatch, error) {
	if s.stage < stageSeeded {
		return nil, fmt.Errorf("%w: draw before seeding", models.ErrInvariantViolation)
	}
	var teams []*models.Team
	for _, pot := range []int{high, low} {
		members := s.seedPots[pot]
		if len(members) != models.TeamsPerSeedPot {
			return nil, fmt.Errorf("%w: seed-pot %s holds %d teams, want %d",
				models.ErrInvariantViolation, models.PartitionLabel(pot), len(members), models.TeamsPerSeedPot)
		}
		teams = append(teams, members...)
	}

	draw := brackets.NewEliminationDrawGenerator(s.rng)
	pairings, err := draw.GenerateBracket(ctx, brackets.GenerateBracketParams{Teams: teams})
	if err != nil {
		return nil, fmt.Errorf("drawing %s/%s: %w", models.PartitionLabel(high), models.PartitionLabel(low), err)
	}
	for _, p := range pairings {
		if p.Repeat {
			s.logger.Warn("elimination draw accepted a rematch",
				slog.String("home", p.Home.ISOCode), slog.String("away", p.Away.ISOCode))
		}
	}
	return pairings, nil
}

// DrawQuarterfinals draws pots D/G and E/F and builds the knockout tree on
// top of the four pairings. It returns the quarterfinals in tree order.
func (s *Store) DrawQuarterfinals(ctx context.Context) ([]*brackets.BracketMatch, error) {
	if s.stage != stageSeeded {
		return nil, fmt.Errorf("%w: quarterfinals drawn out of order", models.ErrInvariantViolation)
	}
	outer, err := s.DrawEliminationPairings(ctx, models.FirstSeedPot, models.LastSeedPot)
	if err != nil {
		return nil, err
	}
	inner, err := s.DrawEliminationPairings(ctx, models.FirstSeedPot+1, models.LastSeedPot-1)
	if err != nil {
		return nil, err
	}

	// The first pairing of each draw shares a semifinal, so does the second.
	quarterfinals := []*brackets.BracketMatch{outer[0], inner[0], outer[1], inner[1]}
	tree, err := brackets.NewSingleEliminationGenerator().GenerateBracket(ctx, brackets.GenerateBracketParams{Matches: quarterfinals})
	if err != nil {
		return nil, err
	}
	s.tree = tree
	s.stage = stageDrawn
	return s.Quarterfinals(), nil
}

// Quarterfinals returns the drawn quarterfinal matches, or nil before the draw.
func (s *Store) Quarterfinals() []*brackets.BracketMatch {
	var out []*brackets.BracketMatch
	for _, m := range s.tree {
		if m.Round == brackets.RoundQuarterfinal {
			out = append(out, m)
		}
	}
	return out
}

// FormSemifinalBrackets groups the quarterfinals by the semifinal they feed.
// It can run before the quarterfinals are played.
func (s *Store) FormSemifinalBrackets() (map[int][]*models.Team, error) {
	if s.stage != stageDrawn {
		return nil, fmt.Errorf("%w: brackets need a quarterfinal draw", models.ErrInvariantViolation)
	}
	out := make(map[int][]*models.Team, 2)
	for _, m := range s.tree {
		if m.Round != brackets.RoundSemifinal {
			continue
		}
		sources := brackets.Sources(s.tree, m)
		if len(sources) != 2 {
			return nil, fmt.Errorf("%w: semifinal %s has %d sources", models.ErrInvariantViolation, m.UID, len(sources))
		}
		s.semis[m.OrderInRound] = sources
		for _, qf := range sources {
			out[m.OrderInRound] = append(out[m.OrderInRound], qf.Teams()...)
		}
	}
	return out, nil
}

// Semifinalists filters each bracket down to its quarterfinal winners. Every
// bracket has to yield exactly two.
func (s *Store) Semifinalists() (map[int][]*models.Team, error) {
	if len(s.semis) == 0 {
		return nil, fmt.Errorf("%w: semifinal brackets not formed", models.ErrInvariantViolation)
	}
	out := make(map[int][]*models.Team, len(s.semis))
	for bracket, sources := range s.semis {
		var winners []*models.Team
		for _, qf := range sources {
			g := qf.Home.LastGame()
			if g == nil || !g.Involves(qf.Away.ISOCode) {
				return nil, fmt.Errorf("%w: quarterfinal %s-%s not played",
					models.ErrInvariantViolation, qf.Home.ISOCode, qf.Away.ISOCode)
			}
			for _, t := range qf.Teams() {
				if t.WonLastGame() {
					winners = append(winners, t)
				}
			}
		}
		if len(winners) != 2 {
			return nil, fmt.Errorf("%w: bracket %d has %d semifinalists, want 2",
				models.ErrInvariantViolation, bracket, len(winners))
		}
		out[bracket] = winners
	}
	return out, nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
