package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/iho/finmodel/internal/domain"
)

// ValidationUseCase is the gate every calculation passes before a run exists.
// It never writes anything.
type ValidationUseCase struct {
	inputs InputRepository
}

// NewValidationUseCase creates a new ValidationUseCase.
func NewValidationUseCase(inputs InputRepository) *ValidationUseCase {
	return &ValidationUseCase{inputs: inputs}
}

// Validate reports whether the project has everything calcType needs.
// An unknown project is reported as invalid, not as an error.
func (uc *ValidationUseCase) Validate(ctx context.Context, projectID string, calcType domain.CalculationType) (domain.ValidationResult, error) {
	_, result, err := uc.load(ctx, projectID, calcType, 0)
	return result, err
}

// load reads the inputs calcType consumes and validates them. The returned
// snapshot is what the run will compute on.
func (uc *ValidationUseCase) load(
	ctx context.Context,
	projectID string,
	calcType domain.CalculationType,
	horizonMonths int,
) (domain.InputSnapshot, domain.ValidationResult, error) {
	snapshot := domain.InputSnapshot{ProjectID: projectID}

	if _, err := domain.ParseCalculationType(string(calcType)); err != nil {
		return snapshot, domain.ValidationResult{}, err
	}

	if projectID == "" {
		var p domain.Problems
		p.Add("project_id", "is required")
		return snapshot, p.Result(), nil
	}

	project, err := uc.inputs.GetProject(ctx, projectID)
	if errors.Is(err, domain.ErrProjectNotFound) {
		var p domain.Problems
		p.Add("project", "%s not found", projectID)
		return snapshot, p.Result(), nil
	}
	if err != nil {
		return snapshot, domain.ValidationResult{}, fmt.Errorf("load project: %w", err)
	}

	switch calcType {
	case domain.CalculationAmortization:
		instruments, err := uc.inputs.ListDebtInstruments(ctx, projectID)
		if err != nil {
			return snapshot, domain.ValidationResult{}, fmt.Errorf("load debt instruments: %w", err)
		}
		snapshot.Instruments = instruments
		return snapshot, domain.ValidateDebtInstruments(instruments), nil

	case domain.CalculationDepreciation:
		vintages, err := uc.inputs.ListDepreciationVintages(ctx, projectID)
		if err != nil {
			return snapshot, domain.ValidationResult{}, fmt.Errorf("load depreciation vintages: %w", err)
		}
		snapshot.Vintages = vintages
		snapshot.HorizonMonths = horizonMonths
		if snapshot.HorizonMonths == 0 {
			snapshot.HorizonMonths = project.HorizonMonths
		}

		result := domain.ValidateVintages(vintages)
		if domain.ValidateHorizon(snapshot.HorizonMonths) != nil {
			result.IsValid = false
			result.MissingFields = append(result.MissingFields,
				fmt.Sprintf("horizon_months: must be between 0 and %d", domain.MaxHorizonMonths))
		}
		return snapshot, result, nil

	default:
		inputs, err := uc.inputs.ListFinancialInputs(ctx, projectID)
		if err != nil {
			return snapshot, domain.ValidationResult{}, fmt.Errorf("load financial inputs: %w", err)
		}
		snapshot.FinancialInputs = inputs
		return snapshot, domain.ValidateFinancialInputs(inputs), nil
	}
}
