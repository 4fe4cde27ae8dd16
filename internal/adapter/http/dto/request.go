package dto

import (
	"github.com/iho/finmodel/internal/domain"
	"github.com/iho/finmodel/internal/usecase"
)

// CalculateRequest is the optional body of a calculation request.
type CalculateRequest struct {
	ChangeReason  string `json:"change_reason"`
	HorizonMonths int    `json:"horizon_months,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CalculateRequest) ToUseCaseInput(projectID string, calcType domain.CalculationType) usecase.CalculateInput {
	return usecase.CalculateInput{
		ProjectID:     projectID,
		Type:          calcType,
		ChangeReason:  r.ChangeReason,
		HorizonMonths: r.HorizonMonths,
	}
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
