package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/basketball-olympics/models"
	"github.com/Dosada05/basketball-olympics/repositories"
	"github.com/google/uuid"
)

// SimulationService runs tournaments in the background for the HTTP API and
// keeps their results in memory. Finished runs are also archived and
// reported when those collaborators are configured.
type SimulationService interface {
	Start(ctx context.Context, seed *int64) (*models.TournamentResult, error)
	Get(ctx context.Context, runID string) (*models.TournamentResult, error)
	Games(ctx context.Context, runID string) ([]models.PlayedGame, error)
	Delete(ctx context.Context, runID string) error
	RunBatch(ctx context.Context, runs int, seed *int64) (*models.MedalTally, error)
	ArchivedMedals(ctx context.Context) ([]repositories.MedalRow, error)
	// Wait blocks until every started run has finished.
	Wait()
}

type simulationService struct {
	tournaments TournamentService
	batches     BatchService
	reports     ReportService
	runRepo     repositories.RunRepository
	db          *sql.DB
	logger      *slog.Logger

	mu   sync.RWMutex
	runs map[string]*models.TournamentResult
	wg   sync.WaitGroup
	now  func() time.Time
}

// NewSimulationService wires the run registry. db, runRepo and reports may
// be nil; the archive and report upload are skipped then.
func NewSimulationService(
	tournaments TournamentService,
	batches BatchService,
	reports ReportService,
	runRepo repositories.RunRepository,
	db *sql.DB,
	logger *slog.Logger,
) SimulationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &simulationService{
		tournaments: tournaments,
		batches:     batches,
		reports:     reports,
		runRepo:     runRepo,
		db:          db,
		logger:      logger,
		runs:        make(map[string]*models.TournamentResult),
		now:         time.Now,
	}
}

func (s *simulationService) seedOrNow(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return s.now().UnixNano()
}

func (s *simulationService) Start(ctx context.Context, seed *int64) (*models.TournamentResult, error) {
	runID := uuid.NewString()
	pending := &models.TournamentResult{
		RunID:  runID,
		Seed:   s.seedOrNow(seed),
		Status: models.RunStatusPending,
	}

	s.mu.Lock()
	s.runs[runID] = pending
	s.mu.Unlock()

	// The run outlives the request that started it.
	runCtx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.setStatus(runID, models.RunStatusRunning)
		result, err := s.tournaments.Simulate(runCtx, runID, pending.Seed)
		if result == nil {
			result = &models.TournamentResult{RunID: runID, Seed: pending.Seed, Status: models.RunStatusFailed}
			if err != nil {
				result.Error = err.Error()
			}
		}
		s.finish(runCtx, result)
	}()

	snapshot := *pending
	return &snapshot, nil
}

func (s *simulationService) setStatus(runID string, status models.RunStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.runs[runID]; ok {
		updated := *r
		updated.Status = status
		s.runs[runID] = &updated
	}
}

func (s *simulationService) finish(ctx context.Context, result *models.TournamentResult) {
	if s.runRepo != nil {
		if err := s.archive(ctx, result); err != nil {
			s.logger.Error("failed to archive run", slog.String("run_id", result.RunID), slog.String("error", err.Error()))
		}
	}
	if s.reports != nil && result.Status == models.RunStatusCompleted {
		location, err := s.reports.Publish(ctx, result)
		switch {
		case err == nil:
			result.ReportURL = location
			if s.runRepo != nil {
				if err := s.runRepo.UpdateReportURL(ctx, result.RunID, location); err != nil {
					s.logger.Warn("failed to store report url", slog.String("run_id", result.RunID), slog.String("error", err.Error()))
				}
			}
		case !errors.Is(err, ErrReportsDisabled):
			s.logger.Error("failed to publish report", slog.String("run_id", result.RunID), slog.String("error", err.Error()))
		}
	}

	s.mu.Lock()
	s.runs[result.RunID] = result
	s.mu.Unlock()
}

// archive writes the run and its games in one transaction.
func (s *simulationService) archive(ctx context.Context, result *models.TournamentResult) (txErr error) {
	var exec repositories.SQLExecutor
	var tx *sql.Tx
	if s.db != nil {
		var err error
		tx, err = s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		exec = tx
		defer func() {
			if txErr != nil {
				if rbErr := tx.Rollback(); rbErr != nil {
					txErr = fmt.Errorf("%w (rollback also failed: %v)", txErr, rbErr)
				}
				return
			}
			if cErr := tx.Commit(); cErr != nil {
				txErr = fmt.Errorf("failed to commit archive of run %s: %w", result.RunID, cErr)
			}
		}()
	}

	if err := s.runRepo.Create(ctx, exec, result); err != nil {
		return err
	}
	return s.runRepo.CreateGames(ctx, exec, result.RunID, result.Games)
}

func (s *simulationService) lookup(ctx context.Context, runID string) (*models.TournamentResult, error) {
	s.mu.RLock()
	r, ok := s.runs[runID]
	s.mu.RUnlock()
	if ok {
		return r, nil
	}
	if s.runRepo == nil {
		return nil, ErrRunNotFound
	}
	archived, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, repositories.ErrRunNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to load archived run %s: %w", runID, err)
	}
	return archived, nil
}

func (s *simulationService) Get(ctx context.Context, runID string) (*models.TournamentResult, error) {
	return s.lookup(ctx, runID)
}

func (s *simulationService) Games(ctx context.Context, runID string) ([]models.PlayedGame, error) {
	r, err := s.lookup(ctx, runID)
	if err != nil {
		return nil, err
	}
	switch r.Status {
	case models.RunStatusPending, models.RunStatusRunning:
		return nil, ErrRunInProgress
	}
	if r.Games == nil {
		return []models.PlayedGame{}, nil
	}
	return r.Games, nil
}

func (s *simulationService) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	r, inMemory := s.runs[runID]
	if inMemory && (r.Status == models.RunStatusPending || r.Status == models.RunStatusRunning) {
		s.mu.Unlock()
		return ErrRunInProgress
	}
	delete(s.runs, runID)
	s.mu.Unlock()

	found := inMemory
	if s.runRepo != nil {
		err := s.runRepo.Delete(ctx, runID)
		switch {
		case err == nil:
			found = true
		case !errors.Is(err, repositories.ErrRunNotFound):
			return err
		}
	}
	if !found {
		return ErrRunNotFound
	}

	if s.reports != nil {
		if err := s.reports.Remove(ctx, runID); err != nil && !errors.Is(err, ErrReportsDisabled) {
			s.logger.Warn("failed to remove report", slog.String("run_id", runID), slog.String("error", err.Error()))
		}
	}
	return nil
}

func (s *simulationService) RunBatch(ctx context.Context, runs int, seed *int64) (*models.MedalTally, error) {
	return s.batches.RunBatch(ctx, runs, s.seedOrNow(seed))
}

func (s *simulationService) ArchivedMedals(ctx context.Context) ([]repositories.MedalRow, error) {
	if s.runRepo == nil {
		return nil, ErrArchiveDisabled
	}
	return s.runRepo.MedalCounts(ctx)
}

func (s *simulationService) Wait() {
	s.wg.Wait()
}
