package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/finmodel/internal/adapter/http/dto"
	"github.com/iho/finmodel/internal/domain"
	"github.com/iho/finmodel/internal/usecase"
)

// CalculationService defines the behavior needed by CalculationHandler.
type CalculationService interface {
	Calculate(ctx context.Context, input usecase.CalculateInput) (*domain.CalculationRun, error)
	Submit(ctx context.Context, input usecase.CalculateInput) (*domain.CalculationRun, error)
	History(ctx context.Context, projectID string, calcType domain.CalculationType, limit, offset int) ([]*domain.CalculationRun, error)
	GetSchedule(ctx context.Context, projectID string, calcType domain.CalculationType) (*domain.CalculationRun, error)
}

// ValidationService defines the behavior needed for the validation endpoint.
type ValidationService interface {
	Validate(ctx context.Context, projectID string, calcType domain.CalculationType) (domain.ValidationResult, error)
}

// CalculationHandler handles project calculation requests.
type CalculationHandler struct {
	calcUC       CalculationService
	validationUC ValidationService
}

// NewCalculationHandler creates a new CalculationHandler.
func NewCalculationHandler(calcUC CalculationService, validationUC ValidationService) *CalculationHandler {
	return &CalculationHandler{calcUC: calcUC, validationUC: validationUC}
}

// Validate reports whether a project has the inputs a calculation needs.
// An invalid project is a 200 with is_valid=false.
func (h *CalculationHandler) Validate(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	calcType, ok := calcTypeParam(w, r)
	if !ok {
		return
	}

	result, err := h.validationUC.Validate(r.Context(), projectID, calcType)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to validate inputs", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ValidationFromDomain(projectID, calcType, result))
}

// Calculate creates a run. With ?async=true the engine runs in the
// background and the response is 202 with the running run.
func (h *CalculationHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	calcType, ok := calcTypeParam(w, r)
	if !ok {
		return
	}

	var req dto.CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	input := req.ToUseCaseInput(projectID, calcType)

	if r.URL.Query().Get("async") == "true" {
		run, err := h.calcUC.Submit(r.Context(), input)
		if err != nil {
			writeError(w, mapDomainError(err), "failed to submit calculation", err.Error())
			return
		}

		w.Header().Set("Location", "/api/v1/runs/"+run.ID)
		writeJSON(w, http.StatusAccepted, dto.RunSummaryFromDomain(run))
		return
	}

	run, err := h.calcUC.Calculate(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to run calculation", err.Error())
		return
	}

	// A failed engine run is still a created, versioned run.
	writeJSON(w, http.StatusCreated, dto.RunFromDomain(run))
}

// History lists the runs of a project and type, newest first.
func (h *CalculationHandler) History(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	calcType, ok := calcTypeParam(w, r)
	if !ok {
		return
	}

	limit := parseIntQuery(r, "limit", usecase.DefaultHistoryLimit)
	offset := parseIntQuery(r, "offset", 0)

	runs, err := h.calcUC.History(r.Context(), projectID, calcType, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list runs", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoryFromDomain(runs))
}

// Active returns the active run of a project and type with its output.
func (h *CalculationHandler) Active(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	calcType, ok := calcTypeParam(w, r)
	if !ok {
		return
	}

	run, err := h.calcUC.GetSchedule(r.Context(), projectID, calcType)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get active run", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RunFromDomain(run))
}
