package domain

import "fmt"

// Scenario is a complete set of project inputs, as loaded from a scenario
// file or replaced in storage in one go.
type Scenario struct {
	Project         Project               `json:"project"          yaml:"project"`
	FinancialInputs []FinancialInputs     `json:"financial_inputs" yaml:"financial_inputs"`
	Instruments     []DebtInstrument      `json:"instruments"      yaml:"instruments"`
	Vintages        []DepreciationVintage `json:"vintages"         yaml:"vintages"`
}

// Check rejects scenarios that cannot be stored. Engine-level validation
// happens when a calculation runs.
func (s Scenario) Check() error {
	if s.Project.ID == "" {
		return fmt.Errorf("%w: scenario has no project id", ErrInputValidation)
	}
	if s.Project.HorizonMonths < 0 {
		return fmt.Errorf("%w: horizon_months must not be negative", ErrInputValidation)
	}

	seen := make(map[Period]bool, len(s.FinancialInputs))
	for _, f := range s.FinancialInputs {
		if !f.Period.Valid() {
			return fmt.Errorf("%w: invalid period %d-%02d", ErrInputValidation, f.Period.Year, f.Period.Month)
		}
		if seen[f.Period] {
			return fmt.Errorf("%w: duplicate period %d-%02d", ErrInputValidation, f.Period.Year, f.Period.Month)
		}
		seen[f.Period] = true
	}

	ids := make(map[string]bool, len(s.Instruments))
	for _, d := range s.Instruments {
		if d.ID == "" || ids[d.ID] {
			return fmt.Errorf("%w: instrument ids must be unique and non-empty", ErrInputValidation)
		}
		ids[d.ID] = true
	}

	ids = make(map[string]bool, len(s.Vintages))
	for _, v := range s.Vintages {
		if v.ID == "" || ids[v.ID] {
			return fmt.Errorf("%w: vintage ids must be unique and non-empty", ErrInputValidation)
		}
		ids[v.ID] = true
	}

	return nil
}
