package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dosada05/basketball-olympics/middleware"
	"github.com/Dosada05/basketball-olympics/models"
	"github.com/Dosada05/basketball-olympics/services"
)

type SimulationHandler struct {
	simulationService services.SimulationService
	defaultBatchRuns  int
	logger            *slog.Logger
}

func NewSimulationHandler(ss services.SimulationService, defaultBatchRuns int, logger *slog.Logger) *SimulationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimulationHandler{
		simulationService: ss,
		defaultBatchRuns:  defaultBatchRuns,
		logger:            logger,
	}
}

type startSimulationRequest struct {
	Seed *int64 `json:"seed"`
}

type batchRequest struct {
	Runs *int   `json:"runs"`
	Seed *int64 `json:"seed"`
}

// StartHandler handles POST /simulations. The body is optional.
func (h *SimulationHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	var input startSimulationRequest
	if hasBody(r) {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	run, err := h.simulationService.Start(r.Context(), input.Seed)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	attrs := []any{slog.String("run_id", run.RunID), slog.Int64("seed", run.Seed)}
	if subject, err := middleware.GetSubjectFromContext(r.Context()); err == nil {
		attrs = append(attrs, slog.String("subject", subject))
	}
	h.logger.Info("simulation started", attrs...)

	headers := make(http.Header)
	headers.Set("Location", "/simulations/"+run.RunID)
	if err := writeJSON(w, http.StatusAccepted, jsonResponse{"simulation": run}, headers); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetHandler handles GET /simulations/{runID}
func (h *SimulationHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	runID, err := runIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	run, err := h.simulationService.Get(r.Context(), runID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"simulation": run}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GamesHandler handles GET /simulations/{runID}/games?stage=
func (h *SimulationHandler) GamesHandler(w http.ResponseWriter, r *http.Request) {
	runID, err := runIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var stage models.Stage
	if stageStr := r.URL.Query().Get("stage"); stageStr != "" {
		stage = models.Stage(stageStr)
		if !validStage(stage) {
			badRequestResponse(w, r, errors.New("invalid stage query parameter"))
			return
		}
	}

	games, err := h.simulationService.Games(r.Context(), runID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if stage != "" {
		filtered := make([]models.PlayedGame, 0, len(games))
		for _, g := range games {
			if g.Stage == stage {
				filtered = append(filtered, g)
			}
		}
		games = filtered
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler handles DELETE /simulations/{runID}
func (h *SimulationHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	runID, err := runIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.simulationService.Delete(r.Context(), runID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BatchHandler handles POST /simulations/batch and answers with the medal
// tally once every run has finished.
func (h *SimulationHandler) BatchHandler(w http.ResponseWriter, r *http.Request) {
	var input batchRequest
	if hasBody(r) {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}
	runs := h.defaultBatchRuns
	if input.Runs != nil {
		runs = *input.Runs
	}

	tally, err := h.simulationService.RunBatch(r.Context(), runs, input.Seed)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tally": tally}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ArchivedMedalsHandler handles GET /archive/medals
func (h *SimulationHandler) ArchivedMedalsHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := h.simulationService.ArchivedMedals(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"medals": rows}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func validStage(s models.Stage) bool {
	switch s {
	case models.StageGroup, models.StageQuarterfinal, models.StageSemifinal, models.StageBronze, models.StageFinal:
		return true
	}
	return false
}
