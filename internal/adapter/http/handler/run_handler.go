package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/finmodel/internal/adapter/export"
	"github.com/iho/finmodel/internal/adapter/http/dto"
	"github.com/iho/finmodel/internal/domain"
	"github.com/iho/finmodel/internal/usecase"
)

// RunService defines the behavior needed by RunHandler.
type RunService interface {
	GetRun(ctx context.Context, runID string) (*domain.CalculationRun, error)
	Restore(ctx context.Context, runID string) (*domain.RunOutput, error)
	Compare(ctx context.Context, baseRunID, targetRunID string) (*usecase.RunComparison, error)
}

// RunHandler handles requests addressed to a single run.
type RunHandler struct {
	runUC RunService
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(runUC RunService) *RunHandler {
	return &RunHandler{runUC: runUC}
}

// Get retrieves a run with its output.
func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing run ID", "")
		return
	}

	run, err := h.runUC.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get run", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RunFromDomain(run))
}

// Restore makes a completed run active and returns its stored output.
func (h *RunHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing run ID", "")
		return
	}

	output, err := h.runUC.Restore(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to restore run", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RestoreResponse{
		RunID:  id,
		Output: dto.OutputFromDomain(output),
	})
}

// Compare diffs two runs given as ?a=&b=.
func (h *RunHandler) Compare(w http.ResponseWriter, r *http.Request) {
	base, target := r.URL.Query().Get("a"), r.URL.Query().Get("b")
	if base == "" || target == "" {
		writeError(w, http.StatusBadRequest, "missing run IDs", "both a and b are required")
		return
	}

	comparison, err := h.runUC.Compare(r.Context(), base, target)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to compare runs", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ComparisonFromUseCase(comparison))
}

// Export streams a completed run as CSV or XLSX.
func (h *RunHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported export format", err.Error())
		return
	}

	run, err := h.runUC.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get run", err.Error())
		return
	}
	if run.Status != domain.RunStatusCompleted || run.Output == nil {
		writeError(w, http.StatusConflict, "run has no output", fmt.Sprintf("run %s is %s", run.ID, run.Status))
		return
	}

	tables, err := export.Tables(run.Output)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to export run", err.Error())
		return
	}

	var buf bytes.Buffer
	if format == export.FormatXLSX {
		err = export.WriteXLSX(&buf, tables)
	} else {
		err = export.WriteCSV(&buf, tables[0])
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to export run", err.Error())
		return
	}

	filename := fmt.Sprintf("%s-%s-v%d.%s", run.ProjectID, run.Type, run.Version, format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
