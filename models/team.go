package models

import "fmt"

// Team is a national team taking part in the tournament. It is owned by the
// standings store; the game engine mutates it in place.
type Team struct {
	Name           string `json:"name"`
	ISOCode        string `json:"iso_code"`
	FederationRank int    `json:"federation_rank"`

	PowerRanking int   `json:"power_ranking"`
	Tally        Tally `json:"tally"`
	Group        int   `json:"group"`
	// Standing is the rank inside the team's current partition.
	Standing int `json:"standing"`
	// GroupStanding is frozen when the group stage is finalized.
	GroupStanding int `json:"group_standing"`

	GamesPlayed    []*Game         `json:"-"`
	OpponentsFaced map[string]bool `json:"-"`
}

func NewTeam(name, isoCode string, federationRank int) *Team {
	return &Team{
		Name:           name,
		ISOCode:        isoCode,
		FederationRank: federationRank,
		OpponentsFaced: make(map[string]bool),
	}
}

func (t *Team) String() string {
	return fmt.Sprintf("%s (%s)", t.Name, t.ISOCode)
}

// Ref returns the lightweight identity used in results and reports.
func (t *Team) Ref() TeamRef {
	return TeamRef{Code: t.ISOCode, Name: t.Name}
}

func (t *Team) HasFaced(code string) bool {
	return t.OpponentsFaced[code]
}

// RecordGame appends a finished game to the history and marks the opponent
// as faced.
func (t *Team) RecordGame(g *Game) {
	if t.OpponentsFaced == nil {
		t.OpponentsFaced = make(map[string]bool)
	}
	t.GamesPlayed = append(t.GamesPlayed, g)
	t.OpponentsFaced[g.Opponent(t.ISOCode)] = true
}

// LastGame returns the most recent game or nil before the first one.
func (t *Team) LastGame() *Game {
	if len(t.GamesPlayed) == 0 {
		return nil
	}
	return t.GamesPlayed[len(t.GamesPlayed)-1]
}

// HeadToHead returns the first game played against the team with the given
// code, or nil if they never met.
func (t *Team) HeadToHead(code string) *Game {
	for _, g := range t.GamesPlayed {
		if g.Involves(code) {
			return g
		}
	}
	return nil
}

// WonLastGame reports whether the team won its most recent game.
func (t *Team) WonLastGame() bool {
	last := t.LastGame()
	return last != nil && last.Winner == t.ISOCode
}

// TeamRef identifies a team in results without carrying its mutable state.
type TeamRef struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
