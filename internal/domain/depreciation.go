package domain

// DepreciationVintage is one capitalized asset addition.
// StartPeriod is the 1-based month of the schedule in which it starts depreciating.
type DepreciationVintage struct {
	ID               string  `json:"id"                 yaml:"id"`
	Name             string  `json:"name"               yaml:"name"`
	CapitalizedValue float64 `json:"capitalized_value"  yaml:"capitalized_value"`
	StartPeriod      int     `json:"start_period"       yaml:"start_period"`
	UsefulLifeYears  float64 `json:"useful_life_years"  yaml:"useful_life_years"`
}

// LifeMonths is the number of months the vintage depreciates over.
func (v DepreciationVintage) LifeMonths() float64 {
	return v.UsefulLifeYears * 12
}

// MonthlyDepreciation is the straight-line monthly charge.
func (v DepreciationVintage) MonthlyDepreciation() float64 {
	return v.CapitalizedValue / v.LifeMonths()
}

// DepreciationScheduleEntry is the consolidated charge for one month.
// AssetValue is the remaining basis after the month's charge, summed over
// vintages.
type DepreciationScheduleEntry struct {
	Period                  int     `json:"period"`
	Year                    int     `json:"year"`
	AssetValue              float64 `json:"asset_value"`
	MonthlyDepreciation     float64 `json:"monthly_depreciation"`
	AccumulatedDepreciation float64 `json:"accumulated_depreciation"`
	NetBookValue            float64 `json:"net_book_value"`
}

// VintageSchedule is the self-contained lifecycle of a single vintage.
type VintageSchedule struct {
	VintageID string                      `json:"vintage_id"`
	Name      string                      `json:"name"`
	Entries   []DepreciationScheduleEntry `json:"entries"`
}

// DepreciationSchedule is the consolidated schedule plus its per-vintage parts.
type DepreciationSchedule struct {
	HorizonMonths int                         `json:"horizon_months"`
	Entries       []DepreciationScheduleEntry `json:"entries"`
	Vintages      []VintageSchedule           `json:"vintages"`
}
