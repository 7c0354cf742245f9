package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/Dosada05/basketball-olympics/models"
	"github.com/Dosada05/basketball-olympics/repositories"
	"github.com/Dosada05/basketball-olympics/storage"
)

type memoryRunRepository struct {
	mu    sync.Mutex
	runs  map[string]*models.TournamentResult
	games map[string][]models.PlayedGame
}

func newMemoryRunRepository() *memoryRunRepository {
	return &memoryRunRepository{
		runs:  make(map[string]*models.TournamentResult),
		games: make(map[string][]models.PlayedGame),
	}
}

func (r *memoryRunRepository) Create(ctx context.Context, exec repositories.SQLExecutor, result *models.TournamentResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[result.RunID]; ok {
		return repositories.ErrRunConflict
	}
	copied := *result
	r.runs[result.RunID] = &copied
	return nil
}

func (r *memoryRunRepository) CreateGames(ctx context.Context, exec repositories.SQLExecutor, runID string, games []models.PlayedGame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[runID] = games
	return nil
}

func (r *memoryRunRepository) GetByID(ctx context.Context, runID string) (*models.TournamentResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return nil, repositories.ErrRunNotFound
	}
	return run, nil
}

func (r *memoryRunRepository) ListGames(ctx context.Context, runID string) ([]models.PlayedGame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.games[runID], nil
}

func (r *memoryRunRepository) UpdateReportURL(ctx context.Context, runID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return repositories.ErrRunNotFound
	}
	run.ReportURL = url
	return nil
}

func (r *memoryRunRepository) Delete(ctx context.Context, runID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[runID]; !ok {
		return repositories.ErrRunNotFound
	}
	delete(r.runs, runID)
	delete(r.games, runID)
	return nil
}

func (r *memoryRunRepository) MedalCounts(ctx context.Context) ([]repositories.MedalRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]*repositories.MedalRow)
	row := func(code string) *repositories.MedalRow {
		if counts[code] == nil {
			counts[code] = &repositories.MedalRow{Code: code}
		}
		return counts[code]
	}
	for _, run := range r.runs {
		if run.Medals == nil {
			continue
		}
		row(run.Medals.Gold.Code).Gold++
		row(run.Medals.Silver.Code).Silver++
		row(run.Medals.Bronze.Code).Bronze++
	}
	out := make([]repositories.MedalRow, 0, len(counts))
	for _, c := range counts {
		out = append(out, *c)
	}
	return out, nil
}

type memoryUploader struct {
	mu      sync.Mutex
	objects map[string]string
}

func (u *memoryUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.objects == nil {
		u.objects = make(map[string]string)
	}
	u.objects[key] = string(body)
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *memoryUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	return nil
}

func (u *memoryUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

// gatedTournaments blocks every run until release is closed.
type gatedTournaments struct {
	inner   TournamentService
	release chan struct{}
}

func (g *gatedTournaments) Simulate(ctx context.Context, runID string, seed int64) (*models.TournamentResult, error) {
	<-g.release
	return g.inner.Simulate(ctx, runID, seed)
}

func newSimulationService(t *testing.T, tournaments TournamentService, repo repositories.RunRepository, uploader storage.FileUploader) SimulationService {
	t.Helper()
	var reports ReportService
	if uploader != nil {
		reports = NewReportService(uploader, discard())
	}
	return NewSimulationService(tournaments, NewBatchService(tournaments, 2, discard()), reports, repo, nil, discard())
}

func TestSimulationLifecycle(t *testing.T) {
	repo := newMemoryRunRepository()
	uploader := &memoryUploader{}
	gate := &gatedTournaments{
		inner:   NewTournamentService(defaultData(t), DefaultSimulationSettings(), nil, discard()),
		release: make(chan struct{}),
	}
	svc := newSimulationService(t, gate, repo, uploader)
	ctx := context.Background()

	seed := int64(5)
	started, err := svc.Start(ctx, &seed)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if started.RunID == "" || started.Seed != 5 || started.Status != models.RunStatusPending {
		t.Fatalf("Start returned %+v", started)
	}

	if _, err := svc.Games(ctx, started.RunID); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("Games while running: err = %v, want ErrRunInProgress", err)
	}
	if err := svc.Delete(ctx, started.RunID); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("Delete while running: err = %v, want ErrRunInProgress", err)
	}

	close(gate.release)
	svc.Wait()

	got, err := svc.Get(ctx, started.RunID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.RunStatusCompleted || got.Medals == nil {
		t.Fatalf("run finished as %s with medals %v", got.Status, got.Medals)
	}
	wantURL := "https://cdn.example.com/" + storage.ReportKey(started.RunID)
	if got.ReportURL != wantURL {
		t.Errorf("ReportURL = %q, want %q", got.ReportURL, wantURL)
	}
	if body := uploader.objects[storage.ReportKey(started.RunID)]; !strings.Contains(body, "Final:") {
		t.Errorf("uploaded report lacks the final:\n%s", body)
	}

	games, err := svc.Games(ctx, started.RunID)
	if err != nil || len(games) != 26 {
		t.Fatalf("Games = %d, %v", len(games), err)
	}
	if archived := repo.games[started.RunID]; len(archived) != 26 {
		t.Errorf("archived %d games, want 26", len(archived))
	}
	if repo.runs[started.RunID].ReportURL != wantURL {
		t.Error("archive missing the report url")
	}

	medals, err := svc.ArchivedMedals(ctx)
	if err != nil || len(medals) == 0 {
		t.Errorf("ArchivedMedals = %v, %v", medals, err)
	}

	if err := svc.Delete(ctx, started.RunID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, started.RunID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Get after delete: err = %v, want ErrRunNotFound", err)
	}
	if _, ok := uploader.objects[storage.ReportKey(started.RunID)]; ok {
		t.Error("report still stored after delete")
	}
}

func TestSimulationServiceWithoutArchive(t *testing.T) {
	tournaments := NewTournamentService(defaultData(t), DefaultSimulationSettings(), nil, discard())
	svc := newSimulationService(t, tournaments, nil, nil)
	ctx := context.Background()

	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Get: err = %v, want ErrRunNotFound", err)
	}
	if err := svc.Delete(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Delete: err = %v, want ErrRunNotFound", err)
	}
	if _, err := svc.ArchivedMedals(ctx); !errors.Is(err, ErrArchiveDisabled) {
		t.Errorf("ArchivedMedals: err = %v, want ErrArchiveDisabled", err)
	}

	started, err := svc.Start(ctx, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	svc.Wait()
	got, err := svc.Get(ctx, started.RunID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.RunStatusCompleted || got.ReportURL != "" {
		t.Errorf("run = %s with report %q", got.Status, got.ReportURL)
	}

	seed := int64(3)
	tally, err := svc.RunBatch(ctx, 4, &seed)
	if err != nil || tally.Runs != 4 {
		t.Errorf("RunBatch = %+v, %v", tally, err)
	}
}
