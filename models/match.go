package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Stage string

const (
	StageGroup        Stage = "group"
	StageQuarterfinal Stage = "quarterfinal"
	StageSemifinal    Stage = "semifinal"
	StageBronze       Stage = "bronze"
	StageFinal        Stage = "final"
)

// Game is the record of one simulated contest. Only Winner is set after the
// record is created.
type Game struct {
	Date        time.Time `json:"date"`
	TeamA       string    `json:"team_a"`
	TeamAName   string    `json:"team_a_name"`
	TeamB       string    `json:"team_b"`
	TeamBName   string    `json:"team_b_name"`
	ScoreA      int       `json:"score_a"`
	ScoreB      int       `json:"score_b"`
	Walkover    bool      `json:"walkover"`
	PulloutNote string    `json:"pullout_note,omitempty"`
	Overtimes   int       `json:"overtimes"`
	Winner      string    `json:"winner"`
}

// Result renders the score the way fixtures store it, "A-B".
func (g *Game) Result() string {
	return fmt.Sprintf("%d-%d", g.ScoreA, g.ScoreB)
}

func (g *Game) Involves(code string) bool {
	return g.TeamA == code || g.TeamB == code
}

// Opponent returns the code of the other participant.
func (g *Game) Opponent(code string) string {
	if g.TeamA == code {
		return g.TeamB
	}
	return g.TeamA
}

// Loser returns the code of the participant that did not win.
func (g *Game) Loser() string {
	if g.Winner == "" {
		return ""
	}
	return g.Opponent(g.Winner)
}

// PlayedGame is a game together with the stage it belongs to, in play order.
type PlayedGame struct {
	Sequence int   `json:"sequence"`
	Stage    Stage `json:"stage"`
	Round    int   `json:"round,omitempty"`
	Group    int   `json:"group,omitempty"`
	Game     *Game `json:"game"`
}

// ExhibitionGame is a pre-tournament friendly as listed in the fixtures.
type ExhibitionGame struct {
	Date     time.Time `json:"date"`
	Opponent string    `json:"opponent"`
	Result   string    `json:"result"`
}

// Score parses Result ("A-B") into the team's and the opponent's points.
func (e ExhibitionGame) Score() (int, int, error) {
	parts := strings.Split(e.Result, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: malformed score %q against %s", ErrInputData, e.Result, e.Opponent)
	}
	own, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: malformed score %q against %s: %v", ErrInputData, e.Result, e.Opponent, err)
	}
	opp, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: malformed score %q against %s: %v", ErrInputData, e.Result, e.Opponent, err)
	}
	if own < 0 || opp < 0 {
		return 0, 0, fmt.Errorf("%w: negative score %q against %s", ErrInputData, e.Result, e.Opponent)
	}
	return own, opp, nil
}
