package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/basketball-olympics/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrRunNotFound     = errors.New("archived run not found")
	ErrRunConflict     = errors.New("run is already archived")
	ErrRunInvalidID    = errors.New("run id is not a valid uuid")
	ErrGameRunNotFound = errors.New("game references a run that is not archived")
)

// MedalRow is the number of medals one team won over all archived runs.
type MedalRow struct {
	Code   string `json:"code"`
	Gold   int    `json:"gold"`
	Silver int    `json:"silver"`
	Bronze int    `json:"bronze"`
}

type RunRepository interface {
	Create(ctx context.Context, exec SQLExecutor, result *models.TournamentResult) error
	CreateGames(ctx context.Context, exec SQLExecutor, runID string, games []models.PlayedGame) error
	GetByID(ctx context.Context, runID string) (*models.TournamentResult, error)
	ListGames(ctx context.Context, runID string) ([]models.PlayedGame, error)
	UpdateReportURL(ctx context.Context, runID, url string) error
	Delete(ctx context.Context, runID string) error
	MedalCounts(ctx context.Context) ([]MedalRow, error)
}

type postgresRunRepository struct {
	db *sql.DB
}

func NewPostgresRunRepository(db *sql.DB) RunRepository {
	return &postgresRunRepository{db: db}
}

func (r *postgresRunRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRunRepository) Create(ctx context.Context, exec SQLExecutor, result *models.TournamentResult) error {
	id, err := uuid.Parse(result.RunID)
	if err != nil {
		return ErrRunInvalidID
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode run %s: %w", result.RunID, err)
	}

	var gold, silver, bronze *string
	if result.Medals != nil {
		gold, silver, bronze = &result.Medals.Gold.Code, &result.Medals.Silver.Code, &result.Medals.Bronze.Code
	}

	query := `
		INSERT INTO simulation_runs (
			run_id, seed, status, error, gold, silver, bronze, result, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.getExecutor(exec).ExecContext(ctx, query,
		id, result.Seed, result.Status, result.Error, gold, silver, bronze, payload,
		result.StartedAt, result.FinishedAt,
	)
	return r.handleRunError(err)
}

func (r *postgresRunRepository) CreateGames(ctx context.Context, exec SQLExecutor, runID string, games []models.PlayedGame) error {
	id, err := uuid.Parse(runID)
	if err != nil {
		return ErrRunInvalidID
	}
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO simulation_games (
			run_id, sequence, stage, round, group_key, game_date,
			team_a, team_a_name, team_b, team_b_name, score_a, score_b,
			walkover, pullout, overtimes, winner
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	for _, pg := range games {
		g := pg.Game
		_, err := executor.ExecContext(ctx, query,
			id, pg.Sequence, pg.Stage, pg.Round, pg.Group, g.Date,
			g.TeamA, g.TeamAName, g.TeamB, g.TeamBName, g.ScoreA, g.ScoreB,
			g.Walkover, g.PulloutNote, g.Overtimes, g.Winner,
		)
		if err != nil {
			return fmt.Errorf("failed to archive game %d of run %s: %w", pg.Sequence, runID, r.handleRunError(err))
		}
	}
	return nil
}

func (r *postgresRunRepository) GetByID(ctx context.Context, runID string) (*models.TournamentResult, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, ErrRunNotFound
	}
	query := `SELECT result, report_url FROM simulation_runs WHERE run_id = $1`

	var payload []byte
	var reportURL string
	err = r.db.QueryRowContext(ctx, query, id).Scan(&payload, &reportURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	result := &models.TournamentResult{}
	if err := json.Unmarshal(payload, result); err != nil {
		return nil, fmt.Errorf("failed to decode archived run %s: %w", runID, err)
	}
	result.ReportURL = reportURL
	return result, nil
}

func (r *postgresRunRepository) ListGames(ctx context.Context, runID string) ([]models.PlayedGame, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, ErrRunNotFound
	}
	query := `
		SELECT
			sequence, stage, round, group_key, game_date,
			team_a, team_a_name, team_b, team_b_name, score_a, score_b,
			walkover, pullout, overtimes, winner
		FROM simulation_games
		WHERE run_id = $1
		ORDER BY sequence`

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := make([]models.PlayedGame, 0)
	for rows.Next() {
		var pg models.PlayedGame
		g := &models.Game{}
		if err := rows.Scan(
			&pg.Sequence, &pg.Stage, &pg.Round, &pg.Group, &g.Date,
			&g.TeamA, &g.TeamAName, &g.TeamB, &g.TeamBName, &g.ScoreA, &g.ScoreB,
			&g.Walkover, &g.PulloutNote, &g.Overtimes, &g.Winner,
		); err != nil {
			return nil, err
		}
		pg.Game = g
		games = append(games, pg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return games, nil
}

func (r *postgresRunRepository) UpdateReportURL(ctx context.Context, runID, url string) error {
	id, err := uuid.Parse(runID)
	if err != nil {
		return ErrRunNotFound
	}
	query := `UPDATE simulation_runs SET report_url = $1 WHERE run_id = $2`
	result, err := r.db.ExecContext(ctx, query, url, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRunNotFound)
}

func (r *postgresRunRepository) Delete(ctx context.Context, runID string) error {
	id, err := uuid.Parse(runID)
	if err != nil {
		return ErrRunNotFound
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM simulation_runs WHERE run_id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRunNotFound)
}

func (r *postgresRunRepository) MedalCounts(ctx context.Context) ([]MedalRow, error) {
	query := `
		SELECT code,
			COUNT(*) FILTER (WHERE medal = 'gold'),
			COUNT(*) FILTER (WHERE medal = 'silver'),
			COUNT(*) FILTER (WHERE medal = 'bronze')
		FROM (
			SELECT gold AS code, 'gold' AS medal FROM simulation_runs WHERE gold IS NOT NULL
			UNION ALL
			SELECT silver, 'silver' FROM simulation_runs WHERE silver IS NOT NULL
			UNION ALL
			SELECT bronze, 'bronze' FROM simulation_runs WHERE bronze IS NOT NULL
		) medals
		GROUP BY code
		ORDER BY 2 DESC, 3 DESC, 4 DESC, code`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]MedalRow, 0)
	for rows.Next() {
		var row MedalRow
		if err := rows.Scan(&row.Code, &row.Gold, &row.Silver, &row.Bronze); err != nil {
			return nil, err
		}
		counts = append(counts, row)
	}
	return counts, rows.Err()
}

func (r *postgresRunRepository) handleRunError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return ErrRunConflict
		case "23503":
			return ErrGameRunNotFound
		}
	}
	return err
}
