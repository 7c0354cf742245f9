package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/basketball-olympics/models"
	"golang.org/x/sync/errgroup"
)

const MaxBatchRuns = 10000

type BatchService interface {
	// RunBatch plays runs independent tournaments seeded seed, seed+1, ...
	// and aggregates their medals.
	RunBatch(ctx context.Context, runs int, seed int64) (*models.MedalTally, error)
}

type batchService struct {
	tournaments TournamentService
	workers     int
	logger      *slog.Logger
}

func NewBatchService(tournaments TournamentService, workers int, logger *slog.Logger) BatchService {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &batchService{
		tournaments: tournaments,
		workers:     workers,
		logger:      logger,
	}
}

func (s *batchService) RunBatch(ctx context.Context, runs int, seed int64) (*models.MedalTally, error) {
	if runs <= 0 || runs > MaxBatchRuns {
		return nil, fmt.Errorf("%w: runs must be between 1 and %d, got %d", ErrValidationFailed, MaxBatchRuns, runs)
	}

	// Runs share nothing but the read-only fixtures; each one writes its
	// medals into its own slot.
	medals := make([]models.Medals, runs)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := 0; i < runs; i++ {
		i := i
		g.Go(func() error {
			runID := fmt.Sprintf("batch-%d-%d", seed, i)
			result, err := s.tournaments.Simulate(gCtx, runID, seed+int64(i))
			if err != nil {
				return fmt.Errorf("batch run %d: %w", i, err)
			}
			medals[i] = *result.Medals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tally := models.NewMedalTally()
	for _, m := range medals {
		tally.Add(m)
	}
	s.logger.Info("batch finished", slog.Int("runs", runs), slog.Int("workers", s.workers), slog.Int64("seed", seed))
	return tally, nil
}
