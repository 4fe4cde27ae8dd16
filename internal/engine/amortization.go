// Package engine holds the pure financial calculators: amortization and
// depreciation schedules, KPI ratios and stock/flow aware aggregation.
// Nothing in this package performs I/O or keeps state between calls.
package engine

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/iho/finmodel/internal/domain"
)

// LevelPayment returns the constant per-period payment that retires
// principal over n periods at periodRate.
func LevelPayment(principal, periodRate float64, n int) float64 {
	if periodRate == 0 {
		return principal / float64(n)
	}
	growth := math.Pow(1+periodRate, float64(n))
	return principal * periodRate * growth / (growth - 1)
}

// GenerateAmortization folds a debt instrument into its payment schedule.
//
// Values keep full float64 precision through the fold; rounding is left to
// the presentation layer. The final period absorbs the floating point
// residue so the schedule closes at exactly zero.
func GenerateAmortization(instrument domain.DebtInstrument) ([]domain.AmortizationScheduleEntry, error) {
	if err := domain.ValidateDebtInstrument(instrument); err != nil {
		return nil, err
	}

	periodsPerYear := instrument.Frequency.PeriodsPerYear()
	n := instrument.TotalPeriods()
	periodRate := instrument.EffectiveRate() / float64(periodsPerYear)

	payment := LevelPayment(instrument.Principal, periodRate, n)
	if !isFinite(payment) || payment <= 0 {
		return nil, fmt.Errorf("%w: payment formula did not converge for instrument %q (rate %g, periods %d)",
			domain.ErrComputation, instrument.ID, periodRate, n)
	}

	entries := make([]domain.AmortizationScheduleEntry, 0, n)
	balance := instrument.Principal
	cumulativeInterest := 0.0

	for period := 1; period <= n; period++ {
		interest := balance * periodRate
		principalPayment := payment - interest
		periodPayment := payment
		if period == n {
			principalPayment = balance
			periodPayment = interest + principalPayment
		}
		closing := balance - principalPayment
		cumulativeInterest += interest

		if !isFinite(closing) || !isFinite(interest) {
			return nil, fmt.Errorf("%w: non-finite balance at period %d of instrument %q",
				domain.ErrComputation, period, instrument.ID)
		}

		entries = append(entries, domain.AmortizationScheduleEntry{
			Period:             period,
			OpeningBalance:     balance,
			Payment:            periodPayment,
			InterestPayment:    interest,
			PrincipalPayment:   principalPayment,
			ClosingBalance:     closing,
			CumulativeInterest: cumulativeInterest,
		})
		balance = closing
	}

	return entries, nil
}

// GenerateInstrumentSchedule wraps GenerateAmortization with instrument
// metadata and totals.
func GenerateInstrumentSchedule(instrument domain.DebtInstrument) (domain.InstrumentSchedule, error) {
	entries, err := GenerateAmortization(instrument)
	if err != nil {
		return domain.InstrumentSchedule{}, err
	}

	return domain.InstrumentSchedule{
		InstrumentID:  instrument.ID,
		Name:          instrument.Name,
		Frequency:     instrument.Frequency,
		EffectiveRate: instrument.EffectiveRate(),
		Entries:       entries,
		Summary:       SummarizeSchedule(entries),
	}, nil
}

// GenerateAmortizationSet builds a schedule for each instrument, in order.
func GenerateAmortizationSet(instruments []domain.DebtInstrument) ([]domain.InstrumentSchedule, error) {
	schedules := make([]domain.InstrumentSchedule, 0, len(instruments))
	for _, instrument := range instruments {
		s, err := GenerateInstrumentSchedule(instrument)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, nil
}

// SummarizeSchedule totals payments, interest and principal.
func SummarizeSchedule(entries []domain.AmortizationScheduleEntry) domain.ScheduleSummary {
	payments := make([]float64, len(entries))
	interest := make([]float64, len(entries))
	principal := make([]float64, len(entries))
	for i, e := range entries {
		payments[i] = e.Payment
		interest[i] = e.InterestPayment
		principal[i] = e.PrincipalPayment
	}

	return domain.ScheduleSummary{
		Periods:        len(entries),
		TotalPayments:  floats.Sum(payments),
		TotalInterest:  floats.Sum(interest),
		TotalPrincipal: floats.Sum(principal),
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
