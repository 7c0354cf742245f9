package models

// Tally holds the running totals of a team. PointsDifferential always equals
// PointsGiven - PointsReceived and TournamentPoints never decreases.
type Tally struct {
	Wins               int `json:"wins"`
	Losses             int `json:"losses"`
	TournamentPoints   int `json:"tournament_points"`
	PointsGiven        int `json:"points_given"`
	PointsReceived     int `json:"points_received"`
	PointsDifferential int `json:"points_differential"`
}

const (
	WinTournamentPoints  = 2
	LossTournamentPoints = 1
)

func (t *Tally) AwardWin() {
	t.Wins++
	t.TournamentPoints += WinTournamentPoints
}

func (t *Tally) AwardLoss() {
	t.Losses++
	t.TournamentPoints += LossTournamentPoints
}

// AwardForfeit records a loss by walkover: no tournament points.
func (t *Tally) AwardForfeit() {
	t.Losses++
}

func (t *Tally) AddScore(given, received int) {
	t.PointsGiven += given
	t.PointsReceived += received
	t.PointsDifferential = t.PointsGiven - t.PointsReceived
}

// StandingRow is a printable snapshot of one team's position in a partition.
type StandingRow struct {
	Group              int    `json:"group"`
	Standing           int    `json:"standing"`
	Code               string `json:"code"`
	Name               string `json:"name"`
	Wins               int    `json:"wins"`
	Losses             int    `json:"losses"`
	TournamentPoints   int    `json:"tournament_points"`
	PointsGiven        int    `json:"points_given"`
	PointsReceived     int    `json:"points_received"`
	PointsDifferential int    `json:"points_differential"`
	PowerRanking       int    `json:"power_ranking"`
}

func NewStandingRow(t *Team) StandingRow {
	return StandingRow{
		Group:              t.Group,
		Standing:           t.Standing,
		Code:               t.ISOCode,
		Name:               t.Name,
		Wins:               t.Tally.Wins,
		Losses:             t.Tally.Losses,
		TournamentPoints:   t.Tally.TournamentPoints,
		PointsGiven:        t.Tally.PointsGiven,
		PointsReceived:     t.Tally.PointsReceived,
		PointsDifferential: t.Tally.PointsDifferential,
		PowerRanking:       t.PowerRanking,
	}
}
