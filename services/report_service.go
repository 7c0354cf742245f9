package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/basketball-olympics/models"
	"github.com/Dosada05/basketball-olympics/report"
	"github.com/Dosada05/basketball-olympics/storage"
)

type ReportService interface {
	// Publish uploads the text report of a finished run and returns its
	// public URL.
	Publish(ctx context.Context, result *models.TournamentResult) (string, error)
	// Remove deletes the stored report of a run.
	Remove(ctx context.Context, runID string) error
}

type reportService struct {
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewReportService(uploader storage.FileUploader, logger *slog.Logger) ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &reportService{uploader: uploader, logger: logger}
}

func (s *reportService) Publish(ctx context.Context, result *models.TournamentResult) (string, error) {
	if s.uploader == nil {
		return "", ErrReportsDisabled
	}
	key := storage.ReportKey(result.RunID)
	uploaded, err := s.uploader.Upload(ctx, key, "text/plain; charset=utf-8", strings.NewReader(report.String(result)))
	if err != nil {
		return "", fmt.Errorf("failed to publish report of run %s: %w", result.RunID, err)
	}
	s.logger.Info("report published", slog.String("run_id", result.RunID), slog.String("location", uploaded.Location))
	return uploaded.Location, nil
}

func (s *reportService) Remove(ctx context.Context, runID string) error {
	if s.uploader == nil {
		return ErrReportsDisabled
	}
	if err := s.uploader.Delete(ctx, storage.ReportKey(runID)); err != nil {
		return fmt.Errorf("failed to remove report of run %s: %w", runID, err)
	}
	s.logger.Info("report removed", slog.String("run_id", runID))
	return nil
}
