// Package engine simulates single basketball games quarter by quarter and
// settles their outcome on the participating teams.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/basketball-olympics/models"
	"github.com/Dosada05/basketball-olympics/ranking"
)

// RandomSource is the part of *rand.Rand the engine draws from. A single
// source is shared by the whole run; the order of draws matters for replay.
type RandomSource interface {
	Intn(n int) int
}

type Settings struct {
	Quarters             int
	BasePointsPerQuarter int
	// ForfeitChance is the per-team chance, in percent, of pulling out of a
	// game. Zero disables walkovers.
	ForfeitChance int
}

func DefaultSettings() Settings {
	return Settings{
		Quarters:             4,
		BasePointsPerQuarter: 17,
		ForfeitChance:        3,
	}
}

type Engine struct {
	rng      RandomSource
	lookup   ranking.Lookup
	settings Settings
	logger   *slog.Logger
}

func New(rng RandomSource, lookup ranking.Lookup, settings Settings, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		rng:      rng,
		lookup:   lookup,
		settings: settings,
		logger:   logger,
	}
}

func (e *Engine) ForfeitChance() int {
	return e.settings.ForfeitChance
}

// SetForfeitChance changes the walkover probability for subsequent games.
func (e *Engine) SetForfeitChance(percent int) {
	e.settings.ForfeitChance = min(max(percent, 0), 100)
}

// PlayGame simulates a game between a and b, updates both teams and returns
// the finished record, which is also appended to both histories.
func (e *Engine) PlayGame(a, b *models.Team, date time.Time) (*models.Game, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: game needs two teams", models.ErrInvariantViolation)
	}
	if a.ISOCode == b.ISOCode {
		return nil, fmt.Errorf("%w: %s cannot play itself", models.ErrInvariantViolation, a.ISOCode)
	}
	fedA, err := e.lookup.Rank(a.ISOCode)
	if err != nil {
		return nil, err
	}
	fedB, err := e.lookup.Rank(b.ISOCode)
	if err != nil {
		return nil, err
	}

	game := &models.Game{
		Date:      date,
		TeamA:     a.ISOCode,
		TeamAName: a.Name,
		TeamB:     b.ISOCode,
		TeamBName: b.Name,
	}

	aOut, bOut := e.pullsOut(), e.pullsOut()
	if aOut && bOut {
		// A double walkover makes no sense; both teams play.
		aOut, bOut = false, false
	}
	switch {
	case aOut:
		e.forfeit(game, a, b)
		return game, nil
	case bOut:
		e.forfeit(game, b, a)
		return game, nil
	}

	scoreA, scoreB := e.playRegulation(a, b)
	scoreA, scoreB, overtimes := e.playOvertime(a, b, scoreA, scoreB)
	game.ScoreA, game.ScoreB, game.Overtimes = scoreA, scoreB, overtimes

	e.settle(game, a, b, fedA, fedB)
	return game, nil
}

func (e *Engine) pullsOut() bool {
	if e.settings.ForfeitChance <= 0 {
		return false
	}
	return e.percentRoll() <= e.settings.ForfeitChance
}

// forfeit awards the win to winner without playing. The score stays 0-0 and
// no ranking changes.
func (e *Engine) forfeit(game *models.Game, forfeiting, winner *models.Team) {
	game.Walkover = true
	game.PulloutNote = fmt.Sprintf("%s forfeited the game.", forfeiting.Name)
	game.Winner = winner.ISOCode

	winner.Tally.AwardWin()
	forfeiting.Tally.AwardForfeit()
	forfeiting.RecordGame(game)
	winner.RecordGame(game)

	e.logger.Debug("walkover",
		slog.String("forfeiting", forfeiting.ISOCode),
		slog.String("winner", winner.ISOCode),
		slog.Time("date", game.Date))
}

func (e *Engine) playRegulation(a, b *models.Team) (int, int) {
	scoreA, scoreB := 0, 0
	for q := 0; q < e.settings.Quarters; q++ {
		aWins := e.aWinsPeriod(a, b)
		won, lost := e.quarterPoints(true), e.quarterPoints(false)
		if aWins {
			scoreA += won
			scoreB += lost
		} else {
			scoreA += lost
			scoreB += won
		}
		// Free throws land regardless of who took the quarter.
		scoreA += e.uniform(0, 5)
		scoreB += e.uniform(0, 5)
	}
	return scoreA, scoreB
}

// playOvertime adds half-quarter periods until the score is no longer tied.
// There is no cap: a tie after every period becomes vanishingly unlikely.
func (e *Engine) playOvertime(a, b *models.Team, scoreA, scoreB int) (int, int, int) {
	periods := 0
	for scoreA == scoreB {
		periods++
		aWins := e.aWinsPeriod(a, b)
		won, lost := abs(e.quarterPoints(true)/2), abs(e.quarterPoints(false)/2)
		if aWins {
			scoreA += won
			scoreB += lost
		} else {
			scoreA += lost
			scoreB += won
		}
	}
	return scoreA, scoreB, periods
}

func (e *Engine) settle(game *models.Game, a, b *models.Team, fedA, fedB int) {
	diff := game.ScoreA - game.ScoreB
	aWon := diff > 0

	winner, loser := a, b
	if !aWon {
		winner, loser = b, a
	}
	game.Winner = winner.ISOCode
	winner.Tally.AwardWin()
	loser.Tally.AwardLoss()

	a.Tally.AddScore(game.ScoreA, game.ScoreB)
	b.Tally.AddScore(game.ScoreB, game.ScoreA)

	a.PowerRanking = ranking.Clamp(a.PowerRanking + ranking.RankingDelta(fedA, fedB, diff, aWon))
	b.PowerRanking = ranking.Clamp(b.PowerRanking + ranking.RankingDelta(fedB, fedA, -diff, !aWon))

	a.RecordGame(game)
	b.RecordGame(game)

	e.logger.Debug("game settled",
		slog.String("team_a", a.ISOCode),
		slog.String("team_b", b.ISOCode),
		slog.String("score", game.Result()),
		slog.Int("overtimes", game.Overtimes),
		slog.Int("ranking_a", a.PowerRanking),
		slog.Int("ranking_b", b.PowerRanking))
}

func (e *Engine) aWinsPeriod(a, b *models.Team) bool {
	odds := ranking.WinProbability(a.PowerRanking, b.PowerRanking)
	return float64(e.percentRoll()) <= odds
}

func (e *Engine) quarterPoints(won bool) int {
	if won {
		return e.settings.BasePointsPerQuarter + e.uniform(2, 6)
	}
	return e.settings.BasePointsPerQuarter - e.uniform(0, 4)
}

// percentRoll draws uniformly from [1,100].
func (e *Engine) percentRoll() int {
	return e.uniform(1, 100)
}

func (e *Engine) uniform(lo, hi int) int {
	return lo + e.rng.Intn(hi-lo+1)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
