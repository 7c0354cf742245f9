package models

import "time"

// RunStatus tracks a simulation run handed to the API layer.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

type Medals struct {
	Gold   TeamRef `json:"gold"`
	Silver TeamRef `json:"silver"`
	Bronze TeamRef `json:"bronze"`
}

// EliminationPairing is one quarterfinal meeting produced by the draw.
type EliminationPairing struct {
	Home TeamRef `json:"home"`
	Away TeamRef `json:"away"`
	// Repeat is set when the draw had to accept a group-stage rematch.
	Repeat bool `json:"repeat"`
}

// TournamentResult is everything a finished run exposes to reporting.
type TournamentResult struct {
	RunID      string                `json:"run_id"`
	Seed       int64                 `json:"seed"`
	Status     RunStatus             `json:"status"`
	Error      string                `json:"error,omitempty"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Games      []PlayedGame          `json:"games"`
	Groups     map[int][]StandingRow `json:"groups"`
	Overall    []StandingRow         `json:"overall"`
	SeedPots   map[int][]TeamRef     `json:"seed_pots"`
	Pairings   []EliminationPairing  `json:"pairings"`
	Medals     *Medals               `json:"medals,omitempty"`
	ReportURL  string                `json:"report_url,omitempty"`
}

// GamesOf returns the games of one stage in play order.
func (r *TournamentResult) GamesOf(stage Stage) []PlayedGame {
	var out []PlayedGame
	for _, g := range r.Games {
		if g.Stage == stage {
			out = append(out, g)
		}
	}
	return out
}

// MedalTally aggregates medals over many runs, keyed by team code.
type MedalTally struct {
	Runs  int                    `json:"runs"`
	Teams map[string]*MedalCount `json:"teams"`
}

type MedalCount struct {
	Team   TeamRef `json:"team"`
	Gold   int     `json:"gold"`
	Silver int     `json:"silver"`
	Bronze int     `json:"bronze"`
}

func NewMedalTally() *MedalTally {
	return &MedalTally{Teams: make(map[string]*MedalCount)}
}

func (m *MedalTally) Add(medals Medals) {
	m.Runs++
	m.count(medals.Gold).Gold++
	m.count(medals.Silver).Silver++
	m.count(medals.Bronze).Bronze++
}

// Merge folds another tally into m.
func (m *MedalTally) Merge(other *MedalTally) {
	m.Runs += other.Runs
	for _, c := range other.Teams {
		mine := m.count(c.Team)
		mine.Gold += c.Gold
		mine.Silver += c.Silver
		mine.Bronze += c.Bronze
	}
}

func (m *MedalTally) count(t TeamRef) *MedalCount {
	c, ok := m.Teams[t.Code]
	if !ok {
		c = &MedalCount{Team: t}
		m.Teams[t.Code] = c
	}
	return c
}
