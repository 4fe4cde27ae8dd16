package domain

import "strings"

// PaymentFrequency is how often a debt instrument is serviced.
type PaymentFrequency string

const (
	FrequencyMonthly   PaymentFrequency = "monthly"
	FrequencyQuarterly PaymentFrequency = "quarterly"
	FrequencyAnnual    PaymentFrequency = "annual"
)

// ParsePaymentFrequency normalizes user input to a known frequency.
func ParsePaymentFrequency(s string) (PaymentFrequency, bool) {
	f := PaymentFrequency(strings.ToLower(strings.TrimSpace(s)))
	return f, f.PeriodsPerYear() > 0
}

// PeriodsPerYear returns 0 for an unknown frequency.
func (f PaymentFrequency) PeriodsPerYear() int {
	switch f {
	case FrequencyMonthly:
		return 12
	case FrequencyQuarterly:
		return 4
	case FrequencyAnnual:
		return 1
	default:
		return 0
	}
}

// DebtInstrument is a loan to be amortized.
//
// The whole principal amortizes within AmortizationYears. MaturityYears only
// bounds it: zero means the instrument matures with its last payment, and a
// maturity shorter than the amortization term is rejected.
type DebtInstrument struct {
	ID                string           `json:"id"                 yaml:"id"`
	Name              string           `json:"name"               yaml:"name"`
	Principal         float64          `json:"principal"          yaml:"principal"`
	BaseRate          float64          `json:"base_rate"          yaml:"base_rate"`
	LiquidityPremium  float64          `json:"liquidity_premium"  yaml:"liquidity_premium"`
	CreditPremium     float64          `json:"credit_premium"     yaml:"credit_premium"`
	MaturityYears     int              `json:"maturity_years"     yaml:"maturity_years"`
	AmortizationYears int              `json:"amortization_years" yaml:"amortization_years"`
	Frequency         PaymentFrequency `json:"frequency"          yaml:"frequency"`
}

// EffectiveRate is the annual rate charged on the outstanding balance.
func (d DebtInstrument) EffectiveRate() float64 {
	return d.BaseRate + d.LiquidityPremium + d.CreditPremium
}

// TotalPeriods is the schedule length.
func (d DebtInstrument) TotalPeriods() int {
	return d.AmortizationYears * d.Frequency.PeriodsPerYear()
}

// AmortizationScheduleEntry is one payment period of a schedule.
type AmortizationScheduleEntry struct {
	Period             int     `json:"period"`
	OpeningBalance     float64 `json:"opening_balance"`
	Payment            float64 `json:"payment"`
	InterestPayment    float64 `json:"interest_payment"`
	PrincipalPayment   float64 `json:"principal_payment"`
	ClosingBalance     float64 `json:"closing_balance"`
	CumulativeInterest float64 `json:"cumulative_interest"`
}

// ScheduleSummary holds totals over a whole amortization schedule.
type ScheduleSummary struct {
	Periods        int     `json:"periods"`
	TotalPayments  float64 `json:"total_payments"`
	TotalInterest  float64 `json:"total_interest"`
	TotalPrincipal float64 `json:"total_principal"`
}

// InstrumentSchedule is the generated schedule for one instrument.
type InstrumentSchedule struct {
	InstrumentID  string                      `json:"instrument_id"`
	Name          string                      `json:"name"`
	Frequency     PaymentFrequency            `json:"frequency"`
	EffectiveRate float64                     `json:"effective_rate"`
	Entries       []AmortizationScheduleEntry `json:"entries"`
	Summary       ScheduleSummary             `json:"summary"`
}
