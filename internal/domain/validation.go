package domain

import (
	"fmt"
	"math"
	"strings"
)

// Validation constants
const (
	MaxAmortizationYears = 50
	MaxUsefulLifeYears   = 100
	MaxHorizonMonths     = 1200
	MaxChangeReasonLen   = 1024
)

// ValidationResult is the outcome of the validation gate.
type ValidationResult struct {
	IsValid       bool     `json:"is_valid"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

// Err converts an invalid result into an ErrInputValidation error.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInputValidation, strings.Join(r.MissingFields, "; "))
}

// Problems collects field problems while validating.
type Problems []string

// Add records a problem for field.
func (p *Problems) Add(field, format string, args ...any) {
	*p = append(*p, field+": "+fmt.Sprintf(format, args...))
}

// Result converts the problems into a ValidationResult.
func (p Problems) Result() ValidationResult {
	if len(p) == 0 {
		return ValidationResult{IsValid: true}
	}
	return ValidationResult{IsValid: false, MissingFields: p}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ValidateDebtInstrument checks the fields the amortization generator needs.
func ValidateDebtInstrument(d DebtInstrument) error {
	var p Problems
	d.collectProblems(&p, "instrument")
	return p.Result().Err()
}

func (d DebtInstrument) collectProblems(p *Problems, prefix string) {
	if !finite(d.Principal) || d.Principal <= 0 {
		p.Add(prefix+".principal", "must be positive")
	}

	rates := map[string]float64{
		"base_rate":         d.BaseRate,
		"liquidity_premium": d.LiquidityPremium,
		"credit_premium":    d.CreditPremium,
	}
	for _, name := range []string{"base_rate", "liquidity_premium", "credit_premium"} {
		if v := rates[name]; !finite(v) || v < 0 {
			p.Add(prefix+"."+name, "must be zero or positive")
		}
	}

	if d.AmortizationYears <= 0 {
		p.Add(prefix+".amortization_years", "must be positive")
	} else if d.AmortizationYears > MaxAmortizationYears {
		p.Add(prefix+".amortization_years", "exceeds %d years", MaxAmortizationYears)
	}

	if d.MaturityYears < 0 {
		p.Add(prefix+".maturity_years", "must not be negative")
	} else if d.MaturityYears > 0 && d.MaturityYears < d.AmortizationYears {
		p.Add(prefix+".maturity_years", "must not be shorter than amortization term")
	}

	if d.Frequency.PeriodsPerYear() == 0 {
		p.Add(prefix+".frequency", "must be monthly, quarterly or annual")
	}
}

// ValidateDebtInstruments validates a project's instruments as a set.
func ValidateDebtInstruments(instruments []DebtInstrument) ValidationResult {
	var p Problems
	if len(instruments) == 0 {
		p.Add("instruments", "at least one debt instrument is required")
	}
	for i, d := range instruments {
		d.collectProblems(&p, instrumentLabel(i, d.ID))
	}
	return p.Result()
}

// ValidateVintage checks the fields the depreciation generator needs.
func ValidateVintage(v DepreciationVintage) error {
	var p Problems
	v.collectProblems(&p, "vintage")
	return p.Result().Err()
}

func (v DepreciationVintage) collectProblems(p *Problems, prefix string) {
	if !finite(v.CapitalizedValue) || v.CapitalizedValue <= 0 {
		p.Add(prefix+".capitalized_value", "must be positive")
	}
	if !finite(v.UsefulLifeYears) || v.UsefulLifeYears <= 0 {
		p.Add(prefix+".useful_life_years", "must be positive")
	} else if v.UsefulLifeYears > MaxUsefulLifeYears {
		p.Add(prefix+".useful_life_years", "exceeds %d years", MaxUsefulLifeYears)
	}
	if v.StartPeriod < 1 {
		p.Add(prefix+".start_period", "must be 1 or later")
	}
}

// ValidateVintages validates a project's vintages as a set.
func ValidateVintages(vintages []DepreciationVintage) ValidationResult {
	var p Problems
	if len(vintages) == 0 {
		p.Add("vintages", "at least one capitalized asset is required")
	}
	for i, v := range vintages {
		v.collectProblems(&p, vintageLabel(i, v.ID))
	}
	return p.Result()
}

// ValidateFinancialInputs checks the monthly snapshots the KPI engine needs.
func ValidateFinancialInputs(inputs []FinancialInputs) ValidationResult {
	var p Problems
	if len(inputs) == 0 {
		p.Add("financial_inputs", "at least one period is required")
	}

	seen := make(map[Period]bool, len(inputs))
	for i := range inputs {
		in := inputs[i]
		label := fmt.Sprintf("financial_inputs[%s]", in.Period)
		if !in.Period.Valid() {
			p.Add(fmt.Sprintf("financial_inputs[%d].period", i), "invalid period %d-%d", in.Period.Year, in.Period.Month)
			continue
		}
		if seen[in.Period] {
			p.Add(label, "duplicate period")
		}
		seen[in.Period] = true

		for _, f := range FinancialFields {
			if !finite(*f.Ref(&in)) {
				p.Add(label+"."+f.Name, "must be a finite number")
			}
		}
	}
	return p.Result()
}

// ValidateHorizon checks an explicit depreciation horizon.
func ValidateHorizon(months int) error {
	if months < 0 || months > MaxHorizonMonths {
		return fmt.Errorf("%w: horizon_months must be between 0 and %d", ErrInputValidation, MaxHorizonMonths)
	}
	return nil
}

// ValidateChangeReason limits free-text reasons attached to runs.
func ValidateChangeReason(reason string) error {
	if len(reason) > MaxChangeReasonLen {
		return fmt.Errorf("%w: change_reason exceeds %d characters", ErrInputValidation, MaxChangeReasonLen)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}

func instrumentLabel(i int, id string) string {
	if id != "" {
		return "instruments[" + id + "]"
	}
	return fmt.Sprintf("instruments[%d]", i)
}

func vintageLabel(i int, id string) string {
	if id != "" {
		return "vintages[" + id + "]"
	}
	return fmt.Sprintf("vintages[%d]", i)
}
