package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/finmodel/internal/domain"
	"github.com/iho/finmodel/internal/usecase"
)

// Output precision. Stored outputs keep full float precision.
const (
	MoneyPlaces = 2
	RatioPlaces = 4
)

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(MoneyPlaces)
}

func ratio(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(RatioPlaces)
}

// RunResponse represents a calculation run in API responses.
type RunResponse struct {
	ID              string          `json:"id"`
	ProjectID       string          `json:"project_id"`
	CalculationType string          `json:"calculation_type"`
	Status          string          `json:"status"`
	Version         int64           `json:"version"`
	Active          bool            `json:"active"`
	InputHash       string          `json:"input_hash,omitempty"`
	ChangeReason    string          `json:"change_reason,omitempty"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	ExecutionMs     int64           `json:"execution_ms"`
	CreatedAt       time.Time       `json:"created_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	Output          *OutputResponse `json:"output,omitempty"`
}

// RunFromDomain converts a domain run to a response, including its output.
func RunFromDomain(r *domain.CalculationRun) *RunResponse {
	resp := RunSummaryFromDomain(r)
	resp.Output = OutputFromDomain(r.Output)
	return resp
}

// RunSummaryFromDomain converts a domain run without its output.
func RunSummaryFromDomain(r *domain.CalculationRun) *RunResponse {
	return &RunResponse{
		ID:              r.ID,
		ProjectID:       r.ProjectID,
		CalculationType: string(r.Type),
		Status:          string(r.Status),
		Version:         r.Version,
		Active:          r.Active,
		InputHash:       r.InputHash,
		ChangeReason:    r.ChangeReason,
		ErrorMessage:    r.ErrorMessage,
		ExecutionMs:     r.ExecutionTime.Milliseconds(),
		CreatedAt:       r.CreatedAt,
		CompletedAt:     r.CompletedAt,
	}
}

// HistoryResponse lists runs, newest version first.
type HistoryResponse struct {
	Runs  []*RunResponse `json:"runs"`
	Total int            `json:"total"`
}

// HistoryFromDomain converts a run list.
func HistoryFromDomain(runs []*domain.CalculationRun) HistoryResponse {
	result := make([]*RunResponse, len(runs))
	for i, r := range runs {
		result[i] = RunSummaryFromDomain(r)
	}
	return HistoryResponse{Runs: result, Total: len(result)}
}

// OutputResponse is a run output with values rounded for display.
type OutputResponse struct {
	Amortization []InstrumentScheduleResponse `json:"amortization,omitempty"`
	Depreciation *DepreciationResponse        `json:"depreciation,omitempty"`
	KPIs         *KPIReportResponse           `json:"kpis,omitempty"`
}

// OutputFromDomain converts a run output. It returns nil for nil.
func OutputFromDomain(o *domain.RunOutput) *OutputResponse {
	if o == nil {
		return nil
	}

	resp := &OutputResponse{}
	for _, s := range o.Amortization {
		resp.Amortization = append(resp.Amortization, instrumentScheduleFromDomain(s))
	}
	if o.Depreciation != nil {
		resp.Depreciation = depreciationFromDomain(o.Depreciation)
	}
	if o.KPIs != nil {
		resp.KPIs = &KPIReportResponse{
			Monthly:   kpiSetsFromDomain(o.KPIs.Monthly),
			Quarterly: kpiSetsFromDomain(o.KPIs.Quarterly),
			Yearly:    kpiSetsFromDomain(o.KPIs.Yearly),
		}
	}
	return resp
}

// AmortizationEntryResponse is one payment period.
type AmortizationEntryResponse struct {
	Period             int             `json:"period"`
	OpeningBalance     decimal.Decimal `json:"opening_balance"`
	Payment            decimal.Decimal `json:"payment"`
	InterestPayment    decimal.Decimal `json:"interest_payment"`
	PrincipalPayment   decimal.Decimal `json:"principal_payment"`
	ClosingBalance     decimal.Decimal `json:"closing_balance"`
	CumulativeInterest decimal.Decimal `json:"cumulative_interest"`
}

// InstrumentScheduleResponse is the schedule of one debt instrument.
type InstrumentScheduleResponse struct {
	InstrumentID   string                      `json:"instrument_id"`
	Name           string                      `json:"name,omitempty"`
	Frequency      string                      `json:"frequency"`
	EffectiveRate  decimal.Decimal             `json:"effective_rate"`
	Periods        int                         `json:"periods"`
	TotalPayments  decimal.Decimal             `json:"total_payments"`
	TotalInterest  decimal.Decimal             `json:"total_interest"`
	TotalPrincipal decimal.Decimal             `json:"total_principal"`
	Entries        []AmortizationEntryResponse `json:"entries"`
}

func instrumentScheduleFromDomain(s domain.InstrumentSchedule) InstrumentScheduleResponse {
	entries := make([]AmortizationEntryResponse, len(s.Entries))
	for i, e := range s.Entries {
		entries[i] = AmortizationEntryResponse{
			Period:             e.Period,
			OpeningBalance:     money(e.OpeningBalance),
			Payment:            money(e.Payment),
			InterestPayment:    money(e.InterestPayment),
			PrincipalPayment:   money(e.PrincipalPayment),
			ClosingBalance:     money(e.ClosingBalance),
			CumulativeInterest: money(e.CumulativeInterest),
		}
	}

	return InstrumentScheduleResponse{
		InstrumentID:   s.InstrumentID,
		Name:           s.Name,
		Frequency:      string(s.Frequency),
		EffectiveRate:  ratio(s.EffectiveRate),
		Periods:        s.Summary.Periods,
		TotalPayments:  money(s.Summary.TotalPayments),
		TotalInterest:  money(s.Summary.TotalInterest),
		TotalPrincipal: money(s.Summary.TotalPrincipal),
		Entries:        entries,
	}
}

// DepreciationEntryResponse is the consolidated charge for one month.
type DepreciationEntryResponse struct {
	Period                  int             `json:"period"`
	Year                    int             `json:"year"`
	AssetValue              decimal.Decimal `json:"asset_value"`
	MonthlyDepreciation     decimal.Decimal `json:"monthly_depreciation"`
	AccumulatedDepreciation decimal.Decimal `json:"accumulated_depreciation"`
	NetBookValue            decimal.Decimal `json:"net_book_value"`
}

// VintageResponse is the schedule of one vintage.
type VintageResponse struct {
	VintageID string                      `json:"vintage_id"`
	Name      string                      `json:"name,omitempty"`
	Entries   []DepreciationEntryResponse `json:"entries"`
}

// DepreciationResponse is the consolidated depreciation schedule.
type DepreciationResponse struct {
	HorizonMonths int                         `json:"horizon_months"`
	Entries       []DepreciationEntryResponse `json:"entries"`
	Vintages      []VintageResponse           `json:"vintages"`
}

func depreciationEntriesFromDomain(entries []domain.DepreciationScheduleEntry) []DepreciationEntryResponse {
	result := make([]DepreciationEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = DepreciationEntryResponse{
			Period:                  e.Period,
			Year:                    e.Year,
			AssetValue:              money(e.AssetValue),
			MonthlyDepreciation:     money(e.MonthlyDepreciation),
			AccumulatedDepreciation: money(e.AccumulatedDepreciation),
			NetBookValue:            money(e.NetBookValue),
		}
	}
	return result
}

func depreciationFromDomain(s *domain.DepreciationSchedule) *DepreciationResponse {
	vintages := make([]VintageResponse, len(s.Vintages))
	for i, v := range s.Vintages {
		vintages[i] = VintageResponse{
			VintageID: v.VintageID,
			Name:      v.Name,
			Entries:   depreciationEntriesFromDomain(v.Entries),
		}
	}

	return &DepreciationResponse{
		HorizonMonths: s.HorizonMonths,
		Entries:       depreciationEntriesFromDomain(s.Entries),
		Vintages:      vintages,
	}
}

// KPISetResponse maps ratio names to rounded values for one period.
type KPISetResponse struct {
	Period      string                     `json:"period"`
	Granularity string                     `json:"granularity"`
	Ratios      map[string]decimal.Decimal `json:"ratios"`
	Undefined   []string                   `json:"undefined,omitempty"`
}

// KPIReportResponse holds the KPI series at every granularity.
type KPIReportResponse struct {
	Monthly   []KPISetResponse `json:"monthly"`
	Quarterly []KPISetResponse `json:"quarterly"`
	Yearly    []KPISetResponse `json:"yearly"`
}

func kpiSetsFromDomain(sets []domain.KPISet) []KPISetResponse {
	result := make([]KPISetResponse, len(sets))
	for i, k := range sets {
		ratios := make(map[string]decimal.Decimal)
		for _, nr := range k.Ratios() {
			ratios[nr.Name] = ratio(nr.Value)
		}
		result[i] = KPISetResponse{
			Period:      k.Period,
			Granularity: string(k.Granularity),
			Ratios:      ratios,
			Undefined:   k.Undefined,
		}
	}
	return result
}

// ValidationResponse is the result of the validation gate.
type ValidationResponse struct {
	ProjectID       string   `json:"project_id"`
	CalculationType string   `json:"calculation_type"`
	IsValid         bool     `json:"is_valid"`
	MissingFields   []string `json:"missing_fields,omitempty"`
}

// ValidationFromDomain converts a validation result.
func ValidationFromDomain(projectID string, calcType domain.CalculationType, r domain.ValidationResult) ValidationResponse {
	return ValidationResponse{
		ProjectID:       projectID,
		CalculationType: string(calcType),
		IsValid:         r.IsValid,
		MissingFields:   r.MissingFields,
	}
}

// RestoreResponse carries the output of a restored run exactly as stored.
type RestoreResponse struct {
	RunID  string          `json:"run_id"`
	Output *OutputResponse `json:"output"`
}

// DiffResponse is one changed value between two runs.
type DiffResponse struct {
	Key      string          `json:"key"`
	Kind     string          `json:"kind"`
	Before   decimal.Decimal `json:"before"`
	After    decimal.Decimal `json:"after"`
	AbsDelta decimal.Decimal `json:"abs_delta"`
	RelDelta decimal.Decimal `json:"rel_delta"`
}

// ComparisonResponse is the diff between two runs of the same type.
type ComparisonResponse struct {
	BaseRunID       string         `json:"base_run_id"`
	BaseVersion     int64          `json:"base_version"`
	TargetRunID     string         `json:"target_run_id"`
	TargetVersion   int64          `json:"target_version"`
	CalculationType string         `json:"calculation_type"`
	Identical       bool           `json:"identical"`
	Unchanged       int            `json:"unchanged"`
	Differences     []DiffResponse `json:"differences"`
}

// ComparisonFromUseCase converts a run comparison. Before and after keep
// four places so small ratio moves stay visible.
func ComparisonFromUseCase(c *usecase.RunComparison) ComparisonResponse {
	diffs := make([]DiffResponse, len(c.Differences))
	for i, d := range c.Differences {
		diffs[i] = DiffResponse{
			Key:      d.Key,
			Kind:     string(d.Kind),
			Before:   ratio(d.Before),
			After:    ratio(d.After),
			AbsDelta: ratio(d.AbsDelta),
			RelDelta: ratio(d.RelDelta),
		}
	}

	return ComparisonResponse{
		BaseRunID:       c.Base.ID,
		BaseVersion:     c.Base.Version,
		TargetRunID:     c.Target.ID,
		TargetVersion:   c.Target.Version,
		CalculationType: string(c.Type),
		Identical:       c.Identical(),
		Unchanged:       c.Unchanged,
		Differences:     diffs,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
