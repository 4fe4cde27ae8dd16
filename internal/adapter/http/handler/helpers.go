package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iho/finmodel/internal/adapter/http/dto"
	"github.com/iho/finmodel/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInputValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConcurrency):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRunFinalized):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrProjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRunTypeMismatch):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRunNotRestorable):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownCalculationType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// calcTypeParam reads the {type} path parameter and writes a 400 if it is
// not a known calculation type.
func calcTypeParam(w http.ResponseWriter, r *http.Request) (domain.CalculationType, bool) {
	calcType, err := domain.ParseCalculationType(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown calculation type", err.Error())
		return "", false
	}
	return calcType, true
}
