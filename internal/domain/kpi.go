package domain

// Ratio names, as used in KPISet.Undefined and exports.
const (
	RatioDebtToEBITDA        = "debt_to_ebitda"
	RatioDSCR                = "dscr"
	RatioLTV                 = "ltv"
	RatioInterestCoverage    = "interest_coverage"
	RatioDebtToEquity        = "debt_to_equity"
	RatioCurrentRatio        = "current_ratio"
	RatioQuickRatio          = "quick_ratio"
	RatioOperatingMargin     = "operating_margin"
	RatioGrossProfitMargin   = "gross_profit_margin"
	RatioEBITDAMargin        = "ebitda_margin"
	RatioNetIncomeMargin     = "net_income_margin"
	RatioFCFF                = "fcff"
	RatioFCFE                = "fcfe"
	RatioARCycleDays         = "ar_cycle_days"
	RatioInventoryCycleDays  = "inventory_cycle_days"
	RatioAPCycleDays         = "ap_cycle_days"
	RatioCashConversionCycle = "cash_conversion_cycle"
)

// KPISet is the derived ratio set for one period at one granularity.
//
// A ratio whose denominator is zero is reported as 0 and its name is listed in
// Undefined, so consumers can tell "insufficient data" from a computed zero.
type KPISet struct {
	Period      string      `json:"period"`
	Granularity Granularity `json:"granularity"`

	DebtToEBITDA        float64 `json:"debt_to_ebitda"`
	DSCR                float64 `json:"dscr"`
	LTV                 float64 `json:"ltv"`
	InterestCoverage    float64 `json:"interest_coverage"`
	DebtToEquity        float64 `json:"debt_to_equity"`
	CurrentRatio        float64 `json:"current_ratio"`
	QuickRatio          float64 `json:"quick_ratio"`
	OperatingMargin     float64 `json:"operating_margin"`
	GrossProfitMargin   float64 `json:"gross_profit_margin"`
	EBITDAMargin        float64 `json:"ebitda_margin"`
	NetIncomeMargin     float64 `json:"net_income_margin"`
	FCFF                float64 `json:"fcff"`
	FCFE                float64 `json:"fcfe"`
	ARCycleDays         float64 `json:"ar_cycle_days"`
	InventoryCycleDays  float64 `json:"inventory_cycle_days"`
	APCycleDays         float64 `json:"ap_cycle_days"`
	CashConversionCycle float64 `json:"cash_conversion_cycle"`

	Undefined []string `json:"undefined,omitempty"`
}

// NamedRatio pairs a ratio name with its value.
type NamedRatio struct {
	Name  string
	Value float64
}

// Ratios returns every ratio in a stable order.
func (k KPISet) Ratios() []NamedRatio {
	return []NamedRatio{
		{RatioDebtToEBITDA, k.DebtToEBITDA},
		{RatioDSCR, k.DSCR},
		{RatioLTV, k.LTV},
		{RatioInterestCoverage, k.InterestCoverage},
		{RatioDebtToEquity, k.DebtToEquity},
		{RatioCurrentRatio, k.CurrentRatio},
		{RatioQuickRatio, k.QuickRatio},
		{RatioOperatingMargin, k.OperatingMargin},
		{RatioGrossProfitMargin, k.GrossProfitMargin},
		{RatioEBITDAMargin, k.EBITDAMargin},
		{RatioNetIncomeMargin, k.NetIncomeMargin},
		{RatioFCFF, k.FCFF},
		{RatioFCFE, k.FCFE},
		{RatioARCycleDays, k.ARCycleDays},
		{RatioInventoryCycleDays, k.InventoryCycleDays},
		{RatioAPCycleDays, k.APCycleDays},
		{RatioCashConversionCycle, k.CashConversionCycle},
	}
}

// IsUndefined reports whether the named ratio lacked data.
func (k KPISet) IsUndefined(name string) bool {
	for _, u := range k.Undefined {
		if u == name {
			return true
		}
	}
	return false
}

// KPIReport holds the KPI series at all three granularities.
type KPIReport struct {
	Monthly   []KPISet `json:"monthly"`
	Quarterly []KPISet `json:"quarterly"`
	Yearly    []KPISet `json:"yearly"`
}

// ByGranularity returns the series for g.
func (r *KPIReport) ByGranularity(g Granularity) []KPISet {
	switch g {
	case GranularityQuarter:
		return r.Quarterly
	case GranularityYear:
		return r.Yearly
	default:
		return r.Monthly
	}
}
