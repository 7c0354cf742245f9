package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/Dosada05/basketball-olympics/brackets"
	"github.com/Dosada05/basketball-olympics/engine"
	"github.com/Dosada05/basketball-olympics/fixtures"
	"github.com/Dosada05/basketball-olympics/models"
	"github.com/Dosada05/basketball-olympics/standings"
)

// EventPublisher receives live events of a run. brackets.Hub implements it.
type EventPublisher interface {
	Publish(runID, messageType string, payload interface{})
}

type StageClosedPayload struct {
	Stage models.Stage `json:"stage"`
	Games int          `json:"games"`
}

type RunFailedPayload struct {
	Error string `json:"error"`
}

type SimulationSettings struct {
	Engine engine.Settings
	Start  time.Time
}

func DefaultSimulationSettings() SimulationSettings {
	return SimulationSettings{
		Engine: engine.DefaultSettings(),
		Start:  time.Date(2024, time.August, 11, 0, 0, 0, 0, time.UTC),
	}
}

type TournamentService interface {
	// Simulate plays one complete tournament with its own random source
	// seeded from seed. Calls are independent and may run concurrently.
	Simulate(ctx context.Context, runID string, seed int64) (*models.TournamentResult, error)
}

type tournamentService struct {
	data      *fixtures.Data
	settings  SimulationSettings
	publisher EventPublisher
	logger    *slog.Logger
}

func NewTournamentService(data *fixtures.Data, settings SimulationSettings, publisher EventPublisher, logger *slog.Logger) TournamentService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &tournamentService{
		data:      data,
		settings:  settings,
		publisher: publisher,
		logger:    logger,
	}
}

// tournamentRun is the state of one run. Every game depends on the previous
// one, so a run is strictly sequential.
type tournamentRun struct {
	id        string
	store     *standings.Store
	engine    *engine.Engine
	calendar  *engine.Calendar
	result    *models.TournamentResult
	publisher EventPublisher
	logger    *slog.Logger
}

func (s *tournamentService) Simulate(ctx context.Context, runID string, seed int64) (*models.TournamentResult, error) {
	logger := s.logger.With(slog.String("run_id", runID), slog.Int64("seed", seed))
	result := &models.TournamentResult{
		RunID:     runID,
		Seed:      seed,
		Status:    models.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	s.publisher.Publish(runID, brackets.MessageRunStarted, result)

	err := s.simulate(ctx, runID, seed, result, logger)
	result.FinishedAt = time.Now().UTC()
	if err != nil {
		result.Status = models.RunStatusFailed
		result.Error = err.Error()
		logger.Error("simulation failed", slog.String("error", err.Error()))
		s.publisher.Publish(runID, brackets.MessageRunFailed, RunFailedPayload{Error: err.Error()})
		return result, fmt.Errorf("simulate run %s: %w", runID, err)
	}

	result.Status = models.RunStatusCompleted
	logger.Info("simulation finished",
		slog.String("gold", result.Medals.Gold.Code),
		slog.String("silver", result.Medals.Silver.Code),
		slog.String("bronze", result.Medals.Bronze.Code),
		slog.Int("games", len(result.Games)))
	s.publisher.Publish(runID, brackets.MessageRunFinished, result.Medals)
	return result, nil
}

func (s *tournamentService) simulate(ctx context.Context, runID string, seed int64, result *models.TournamentResult, logger *slog.Logger) error {
	if s.data == nil {
		return fmt.Errorf("%w: no fixtures loaded", models.ErrInputData)
	}
	rng := rand.New(rand.NewSource(seed))

	store, err := standings.NewStore(s.data.NewGroups(), rng, logger)
	if err != nil {
		return err
	}
	if err := store.RecordInitialRankings(s.data.Exhibitions); err != nil {
		return err
	}

	run := &tournamentRun{
		id:        runID,
		store:     store,
		engine:    engine.New(rng, store.Lookup(), s.settings.Engine, logger),
		calendar:  engine.NewCalendar(s.settings.Start),
		result:    result,
		publisher: s.publisher,
		logger:    logger,
	}

	steps := []func(context.Context) error{
		run.playGroupStage,
		run.seedAndDraw,
		run.playKnockouts,
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// playGroupStage plays the three round-robin rounds, group after group
// inside each round, and finalizes the group tables.
func (r *tournamentRun) playGroupStage(ctx context.Context) error {
	generator := brackets.NewRoundRobinGenerator()
	groups := r.store.GroupRankings(false)

	schedules := make(map[int][][]*brackets.BracketMatch, len(groups))
	rounds := 0
	for key, teams := range groups {
		matches, err := generator.GenerateBracket(ctx, brackets.GenerateBracketParams{Teams: teams})
		if err != nil {
			return fmt.Errorf("schedule group %s: %w", models.PartitionLabel(key), err)
		}
		schedules[key] = brackets.Rounds(matches)
		rounds = max(rounds, len(schedules[key]))
	}

	for round := 1; round <= rounds; round++ {
		for key := models.FirstGroup; key <= models.LastGroup; key++ {
			if round > len(schedules[key]) {
				continue
			}
			for _, m := range schedules[key][round-1] {
				if err := ctx.Err(); err != nil {
					return err
				}
				if _, err := r.play(models.StageGroup, round, key, m.Home, m.Away); err != nil {
					return err
				}
			}
		}
	}

	if err := r.store.FinalizeGroupStage(); err != nil {
		return err
	}
	r.result.Groups = r.store.GroupTables()
	r.closeStage(models.StageGroup)
	return nil
}

// seedAndDraw builds the seed-pots from the overall standings and draws the
// quarterfinals. Walkovers are only possible in the group stage.
func (r *tournamentRun) seedAndDraw(ctx context.Context) error {
	pots, err := r.store.SelectEliminationSeeds()
	if err != nil {
		return err
	}
	for _, t := range r.store.Overall() {
		r.result.Overall = append(r.result.Overall, models.NewStandingRow(t))
	}
	r.result.SeedPots = make(map[int][]models.TeamRef, len(pots))
	for key, teams := range pots {
		for _, t := range teams {
			r.result.SeedPots[key] = append(r.result.SeedPots[key], t.Ref())
		}
	}

	r.engine.SetForfeitChance(0)
	quarterfinals, err := r.store.DrawQuarterfinals(ctx)
	if err != nil {
		return err
	}
	for _, qf := range quarterfinals {
		r.result.Pairings = append(r.result.Pairings, models.EliminationPairing{
			Home:   qf.Home.Ref(),
			Away:   qf.Away.Ref(),
			Repeat: qf.Repeat,
		})
	}
	r.logger.Info("quarterfinals drawn", slog.Int("rematches", countRepeats(quarterfinals)))
	return nil
}

func (r *tournamentRun) playKnockouts(ctx context.Context) error {
	if _, err := r.store.FormSemifinalBrackets(); err != nil {
		return err
	}
	for _, qf := range r.store.Quarterfinals() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := r.play(models.StageQuarterfinal, brackets.RoundQuarterfinal, 0, qf.Home, qf.Away); err != nil {
			return err
		}
	}
	r.closeStage(models.StageQuarterfinal)

	semifinalists, err := r.store.Semifinalists()
	if err != nil {
		return err
	}
	var winners, losers []*models.Team
	for bracket := 1; bracket <= 2; bracket++ {
		pair := semifinalists[bracket]
		if len(pair) != 2 {
			return fmt.Errorf("%w: bracket %d has %d semifinalists", models.ErrInvariantViolation, bracket, len(pair))
		}
		outcome, err := r.play(models.StageSemifinal, brackets.RoundSemifinal, bracket, pair[0], pair[1])
		if err != nil {
			return err
		}
		winners = append(winners, outcome.winner)
		losers = append(losers, outcome.loser)
	}
	r.closeStage(models.StageSemifinal)

	bronze, err := r.play(models.StageBronze, brackets.RoundMedal, 0, losers[0], losers[1])
	if err != nil {
		return err
	}
	final, err := r.play(models.StageFinal, brackets.RoundMedal, 0, winners[0], winners[1])
	if err != nil {
		return err
	}
	r.result.Medals = &models.Medals{
		Gold:   final.winner.Ref(),
		Silver: final.loser.Ref(),
		Bronze: bronze.winner.Ref(),
	}
	return nil
}

type outcome struct {
	game   *models.Game
	winner *models.Team
	loser  *models.Team
}

func (r *tournamentRun) play(stage models.Stage, round, group int, a, b *models.Team) (outcome, error) {
	game, err := r.engine.PlayGame(a, b, r.calendar.Next())
	if err != nil {
		return outcome{}, fmt.Errorf("%s game %s-%s: %w", stage, a.ISOCode, b.ISOCode, err)
	}
	played := models.PlayedGame{
		Sequence: len(r.result.Games) + 1,
		Stage:    stage,
		Round:    round,
		Group:    group,
		Game:     game,
	}
	r.result.Games = append(r.result.Games, played)
	r.publisher.Publish(r.id, brackets.MessageGamePlayed, played)

	switch game.Winner {
	case a.ISOCode:
		return outcome{game: game, winner: a, loser: b}, nil
	case b.ISOCode:
		return outcome{game: game, winner: b, loser: a}, nil
	}
	return outcome{}, fmt.Errorf("%w: game %s-%s has no winner", models.ErrInvariantViolation, a.ISOCode, b.ISOCode)
}

func (r *tournamentRun) closeStage(stage models.Stage) {
	games := len(r.result.GamesOf(stage))
	r.logger.Info("stage closed", slog.String("stage", string(stage)), slog.Int("games", games))
	r.publisher.Publish(r.id, brackets.MessageStageClosed, StageClosedPayload{Stage: stage, Games: games})
}

func countRepeats(matches []*brackets.BracketMatch) int {
	n := 0
	for _, m := range matches {
		if m.Repeat {
			n++
		}
	}
	return n
}

// IsInputError reports whether err was caused by bad fixtures rather than a
// bug in the stage sequencing.
func IsInputError(err error) bool {
	return errors.Is(err, models.ErrInputData)
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, string, interface{}) {}
