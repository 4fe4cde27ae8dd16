package domain

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func validInstrument() DebtInstrument {
	return DebtInstrument{
		ID:                "senior",
		Principal:         12_000_000,
		BaseRate:          0.05,
		LiquidityPremium:  0.01,
		CreditPremium:     0.01,
		MaturityYears:     7,
		AmortizationYears: 4,
		Frequency:         FrequencyMonthly,
	}
}

func TestValidateDebtInstrument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(d *DebtInstrument)
		expectError bool
	}{
		{name: "valid instrument", mutate: func(d *DebtInstrument) {}},
		{name: "zero rate allowed", mutate: func(d *DebtInstrument) { d.BaseRate, d.LiquidityPremium, d.CreditPremium = 0, 0, 0 }},
		{name: "maturity defaults to amortization term", mutate: func(d *DebtInstrument) { d.MaturityYears = 0 }},
		{name: "zero principal", mutate: func(d *DebtInstrument) { d.Principal = 0 }, expectError: true},
		{name: "negative principal", mutate: func(d *DebtInstrument) { d.Principal = -1 }, expectError: true},
		{name: "NaN principal", mutate: func(d *DebtInstrument) { d.Principal = math.NaN() }, expectError: true},
		{name: "negative base rate", mutate: func(d *DebtInstrument) { d.BaseRate = -0.01 }, expectError: true},
		{name: "negative credit premium", mutate: func(d *DebtInstrument) { d.CreditPremium = -0.01 }, expectError: true},
		{name: "zero term", mutate: func(d *DebtInstrument) { d.AmortizationYears = 0 }, expectError: true},
		{name: "maturity shorter than term", mutate: func(d *DebtInstrument) { d.MaturityYears = 3 }, expectError: true},
		{name: "unknown frequency", mutate: func(d *DebtInstrument) { d.Frequency = "weekly" }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validInstrument()
			tt.mutate(&d)

			err := ValidateDebtInstrument(d)

			if tt.expectError && !errors.Is(err, ErrInputValidation) {
				t.Fatalf("expected ErrInputValidation, got %v", err)
			}
			if !tt.expectError && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateDebtInstruments_Empty(t *testing.T) {
	t.Parallel()

	res := ValidateDebtInstruments(nil)
	if res.IsValid {
		t.Fatal("expected empty instrument list to be invalid")
	}
	if len(res.MissingFields) != 1 || !strings.HasPrefix(res.MissingFields[0], "instruments") {
		t.Fatalf("unexpected missing fields: %v", res.MissingFields)
	}
}

func TestValidateDebtInstruments_ReportsEveryProblem(t *testing.T) {
	t.Parallel()

	bad := validInstrument()
	bad.ID = "tranche"
	bad.Principal = 0
	bad.AmortizationYears = 0

	res := ValidateDebtInstruments([]DebtInstrument{validInstrument(), bad})
	if res.IsValid {
		t.Fatal("expected invalid result")
	}
	if len(res.MissingFields) != 2 {
		t.Fatalf("expected 2 problems, got %v", res.MissingFields)
	}
	for _, f := range res.MissingFields {
		if !strings.HasPrefix(f, "instruments[tranche]") {
			t.Fatalf("expected problems to be labelled by instrument ID, got %q", f)
		}
	}
}

func TestValidateVintage(t *testing.T) {
	t.Parallel()

	valid := DepreciationVintage{CapitalizedValue: 15_000_000, StartPeriod: 1, UsefulLifeYears: 10}
	if err := ValidateVintage(valid); err != nil {
		t.Fatalf("expected valid vintage, got %v", err)
	}

	noLife := valid
	noLife.UsefulLifeYears = 0
	if err := ValidateVintage(noLife); !errors.Is(err, ErrInputValidation) {
		t.Fatalf("expected ErrInputValidation for zero life, got %v", err)
	}

	noValue := valid
	noValue.CapitalizedValue = 0
	if err := ValidateVintage(noValue); !errors.Is(err, ErrInputValidation) {
		t.Fatalf("expected ErrInputValidation for zero value, got %v", err)
	}

	badStart := valid
	badStart.StartPeriod = 0
	if err := ValidateVintage(badStart); !errors.Is(err, ErrInputValidation) {
		t.Fatalf("expected ErrInputValidation for start period 0, got %v", err)
	}
}

func TestValidateFinancialInputs(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		if res := ValidateFinancialInputs(nil); res.IsValid {
			t.Fatal("expected empty inputs to be invalid")
		}
	})

	t.Run("duplicate period", func(t *testing.T) {
		p := Period{Year: 2024, Month: 1}
		res := ValidateFinancialInputs([]FinancialInputs{{Period: p}, {Period: p}})
		if res.IsValid {
			t.Fatal("expected duplicate periods to be invalid")
		}
	})

	t.Run("non-finite value", func(t *testing.T) {
		res := ValidateFinancialInputs([]FinancialInputs{{Period: Period{Year: 2024, Month: 1}, Cash: math.Inf(1)}})
		if res.IsValid {
			t.Fatal("expected infinite cash to be invalid")
		}
		if !strings.Contains(res.MissingFields[0], "cash") {
			t.Fatalf("expected cash to be reported, got %v", res.MissingFields)
		}
	})

	t.Run("invalid month", func(t *testing.T) {
		if res := ValidateFinancialInputs([]FinancialInputs{{Period: Period{Year: 2024, Month: 13}}}); res.IsValid {
			t.Fatal("expected month 13 to be invalid")
		}
	})

	t.Run("valid", func(t *testing.T) {
		res := ValidateFinancialInputs([]FinancialInputs{
			{Period: Period{Year: 2024, Month: 1}, Revenue: 100},
			{Period: Period{Year: 2024, Month: 2}, Revenue: 100},
		})
		if !res.IsValid {
			t.Fatalf("expected valid inputs, got %v", res.MissingFields)
		}
	})
}

func TestValidationResult_Err(t *testing.T) {
	t.Parallel()

	if err := (ValidationResult{IsValid: true}).Err(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	err := (ValidationResult{MissingFields: []string{"a: missing", "b: missing"}}).Err()
	if !errors.Is(err, ErrInputValidation) {
		t.Fatalf("expected ErrInputValidation, got %v", err)
	}
	if !strings.Contains(err.Error(), "a: missing; b: missing") {
		t.Fatalf("expected joined fields in message, got %q", err.Error())
	}
}

func TestParseCalculationType(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"amortization", "Depreciation", " kpi "} {
		if _, err := ParseCalculationType(in); err != nil {
			t.Fatalf("expected %q to parse, got %v", in, err)
		}
	}

	if _, err := ParseCalculationType("tax"); !errors.Is(err, ErrUnknownCalculationType) {
		t.Fatalf("expected ErrUnknownCalculationType, got %v", err)
	}
}

func TestValidatePagination(t *testing.T) {
	t.Parallel()

	limit, offset, err := ValidatePagination(-1, -5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limit != 50 || offset != 0 {
		t.Fatalf("expected defaults (50,0), got (%d,%d)", limit, offset)
	}

	limit, _, _ = ValidatePagination(5000, 0)
	if limit != 1000 {
		t.Fatalf("expected limit capped at 1000, got %d", limit)
	}
}
