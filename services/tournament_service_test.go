package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/basketball-olympics/brackets"
	"github.com/Dosada05/basketball-olympics/fixtures"
	"github.com/Dosada05/basketball-olympics/models"
)

type recordedEvent struct {
	runID   string
	kind    string
	payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(runID, messageType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{runID: runID, kind: messageType, payload: payload})
}

func (p *recordingPublisher) count(kind string) int {
	n := 0
	for _, e := range p.events {
		if e.kind == kind {
			n++
		}
	}
	return n
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultData(t *testing.T) *fixtures.Data {
	t.Helper()
	d, err := fixtures.Default()
	if err != nil {
		t.Fatalf("fixtures.Default: %v", err)
	}
	return d
}

func TestSimulateCompletesTournament(t *testing.T) {
	publisher := &recordingPublisher{}
	svc := NewTournamentService(defaultData(t), DefaultSimulationSettings(), publisher, discard())

	result, err := svc.Simulate(context.Background(), "run-1", 2024)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if result.Status != models.RunStatusCompleted {
		t.Fatalf("status = %s, want completed", result.Status)
	}

	wantGames := map[models.Stage]int{
		models.StageGroup:        18,
		models.StageQuarterfinal: 4,
		models.StageSemifinal:    2,
		models.StageBronze:       1,
		models.StageFinal:        1,
	}
	for stage, want := range wantGames {
		if got := len(result.GamesOf(stage)); got != want {
			t.Errorf("%s games = %d, want %d", stage, got, want)
		}
	}
	for i, pg := range result.Games {
		if pg.Sequence != i+1 {
			t.Errorf("game %d has sequence %d", i+1, pg.Sequence)
		}
		if pg.Stage != models.StageGroup && pg.Game.Walkover {
			t.Errorf("walkover in %s game %s", pg.Stage, pg.Game.Result())
		}
		if !pg.Game.Walkover && pg.Game.ScoreA == pg.Game.ScoreB {
			t.Errorf("tied game %s-%s %s", pg.Game.TeamA, pg.Game.TeamB, pg.Game.Result())
		}
	}
	first := result.Games[0].Game.Date
	if want := time.Date(2024, time.August, 13, 0, 0, 0, 0, time.UTC); !first.Equal(want) {
		t.Errorf("first game on %v, want %v", first, want)
	}

	if len(result.Groups) != 3 || len(result.Overall) != 12 || len(result.SeedPots) != 4 || len(result.Pairings) != 4 {
		t.Errorf("groups %d, overall %d, pots %d, pairings %d",
			len(result.Groups), len(result.Overall), len(result.SeedPots), len(result.Pairings))
	}

	m := result.Medals
	if m == nil {
		t.Fatal("no medals assigned")
	}
	if m.Gold.Code == m.Silver.Code || m.Gold.Code == m.Bronze.Code || m.Silver.Code == m.Bronze.Code {
		t.Errorf("medals repeat a team: %+v", m)
	}
	final := result.GamesOf(models.StageFinal)[0].Game
	if final.Winner != m.Gold.Code || final.Loser() != m.Silver.Code {
		t.Errorf("final %s-%s won by %s does not match medals %+v", final.TeamA, final.TeamB, final.Winner, m)
	}
	if bronze := result.GamesOf(models.StageBronze)[0].Game; bronze.Winner != m.Bronze.Code {
		t.Errorf("bronze game won by %s, medal went to %s", bronze.Winner, m.Bronze.Code)
	}

	if got := publisher.count(brackets.MessageGamePlayed); got != 26 {
		t.Errorf("published %d games, want 26", got)
	}
	if got := publisher.count(brackets.MessageStageClosed); got != 3 {
		t.Errorf("published %d closed stages, want 3", got)
	}
	if publisher.events[0].kind != brackets.MessageRunStarted {
		t.Errorf("first event = %s", publisher.events[0].kind)
	}
	if last := publisher.events[len(publisher.events)-1]; last.kind != brackets.MessageRunFinished || last.runID != "run-1" {
		t.Errorf("last event = %s for %s", last.kind, last.runID)
	}
}

func TestSimulateIsReproducible(t *testing.T) {
	svc := NewTournamentService(defaultData(t), DefaultSimulationSettings(), nil, discard())

	summary := func(r *models.TournamentResult) []string {
		var out []string
		for _, pg := range r.Games {
			out = append(out, pg.Game.TeamA+pg.Game.TeamB+pg.Game.Result()+pg.Game.Winner+pg.Game.Date.Format("0201"))
		}
		return out
	}

	a, err := svc.Simulate(context.Background(), "a", 77)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	b, err := svc.Simulate(context.Background(), "b", 77)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if !reflect.DeepEqual(summary(a), summary(b)) {
		t.Error("same seed produced different tournaments")
	}
	if !reflect.DeepEqual(a.Medals, b.Medals) {
		t.Errorf("medals differ: %+v vs %+v", a.Medals, b.Medals)
	}
}

func TestSimulateStopsOnCancel(t *testing.T) {
	publisher := &recordingPublisher{}
	svc := NewTournamentService(defaultData(t), DefaultSimulationSettings(), publisher, discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := svc.Simulate(ctx, "cancelled", 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if result.Status != models.RunStatusFailed || len(result.Games) != 0 {
		t.Errorf("status %s after %d games", result.Status, len(result.Games))
	}
	if publisher.count(brackets.MessageRunFailed) != 1 {
		t.Error("expected a RUN_FAILED event")
	}
}

func TestSimulateRejectsBadFixtures(t *testing.T) {
	data := defaultData(t)
	broken := &fixtures.Data{Groups: map[string][]fixtures.TeamEntry{}, Exhibitions: data.Exhibitions}
	for label, entries := range data.Groups {
		broken.Groups[label] = entries
	}
	broken.Groups["B"] = broken.Groups["B"][:3]

	svc := NewTournamentService(broken, DefaultSimulationSettings(), nil, discard())
	_, err := svc.Simulate(context.Background(), "broken", 1)
	if !errors.Is(err, models.ErrInputData) || !IsInputError(err) {
		t.Fatalf("err = %v, want ErrInputData", err)
	}
}

func TestRunBatch(t *testing.T) {
	tournaments := NewTournamentService(defaultData(t), DefaultSimulationSettings(), nil, discard())

	parallel, err := NewBatchService(tournaments, 4, discard()).RunBatch(context.Background(), 12, 100)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if parallel.Runs != 12 {
		t.Fatalf("Runs = %d, want 12", parallel.Runs)
	}
	gold, silver, bronze := 0, 0, 0
	for _, c := range parallel.Teams {
		gold += c.Gold
		silver += c.Silver
		bronze += c.Bronze
	}
	if gold != 12 || silver != 12 || bronze != 12 {
		t.Errorf("medal totals %d/%d/%d, want 12 each", gold, silver, bronze)
	}

	sequential, err := NewBatchService(tournaments, 1, discard()).RunBatch(context.Background(), 12, 100)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if !reflect.DeepEqual(parallel, sequential) {
		t.Error("worker count changed the batch outcome")
	}
}

func TestRunBatchValidation(t *testing.T) {
	batch := NewBatchService(NewTournamentService(defaultData(t), DefaultSimulationSettings(), nil, discard()), 2, discard())
	for _, runs := range []int{0, -3, MaxBatchRuns + 1} {
		if _, err := batch.RunBatch(context.Background(), runs, 1); !errors.Is(err, ErrValidationFailed) {
			t.Errorf("runs=%d: err = %v, want ErrValidationFailed", runs, err)
		}
	}
}
