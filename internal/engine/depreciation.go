package engine

import (
	"fmt"
	"math"

	"github.com/iho/finmodel/internal/domain"
)

// lifeEpsilon absorbs float noise when a life in years converts to months.
const lifeEpsilon = 1e-9

// DefaultHorizon returns the number of months until every vintage is fully
// depreciated.
func DefaultHorizon(vintages []domain.DepreciationVintage) int {
	horizon := 0
	for _, v := range vintages {
		end := v.StartPeriod - 1 + lastActiveMonth(v)
		if end > horizon {
			horizon = end
		}
	}
	return horizon
}

// GenerateDepreciation builds the consolidated straight-line schedule for a
// set of vintages over horizonMonths (0 means DefaultHorizon).
//
// Every vintage is folded on its own into a VintageSchedule; the consolidated
// entries are the per-period sums, so adding a vintage never changes the
// charge of the others.
func GenerateDepreciation(vintages []domain.DepreciationVintage, horizonMonths int) (*domain.DepreciationSchedule, error) {
	if res := domain.ValidateVintages(vintages); !res.IsValid {
		return nil, res.Err()
	}
	if err := domain.ValidateHorizon(horizonMonths); err != nil {
		return nil, err
	}
	if horizonMonths == 0 {
		horizonMonths = DefaultHorizon(vintages)
	}

	schedule := &domain.DepreciationSchedule{
		HorizonMonths: horizonMonths,
		Entries:       make([]domain.DepreciationScheduleEntry, horizonMonths),
		Vintages:      make([]domain.VintageSchedule, 0, len(vintages)),
	}
	for i := range schedule.Entries {
		schedule.Entries[i].Period = i + 1
		schedule.Entries[i].Year = yearOf(i + 1)
	}

	for _, v := range vintages {
		vs, err := depreciateVintage(v, horizonMonths)
		if err != nil {
			return nil, err
		}
		for i, e := range vs.Entries {
			c := &schedule.Entries[i]
			c.AssetValue += e.AssetValue
			c.MonthlyDepreciation += e.MonthlyDepreciation
			c.AccumulatedDepreciation += e.AccumulatedDepreciation
			c.NetBookValue += e.NetBookValue
		}
		schedule.Vintages = append(schedule.Vintages, vs)
	}

	return schedule, nil
}

// depreciateVintage folds a single vintage over the horizon. Accumulated
// depreciation is derived from the month count rather than summed, so it
// cannot drift past the capitalized value.
func depreciateVintage(v domain.DepreciationVintage, horizonMonths int) (domain.VintageSchedule, error) {
	monthly := v.MonthlyDepreciation()
	if !isFinite(monthly) || monthly <= 0 {
		return domain.VintageSchedule{}, fmt.Errorf("%w: invalid monthly depreciation for vintage %q",
			domain.ErrComputation, v.ID)
	}

	last := lastActiveMonth(v)
	entries := make([]domain.DepreciationScheduleEntry, horizonMonths)
	accumulated := 0.0

	for i := range entries {
		period := i + 1
		entry := domain.DepreciationScheduleEntry{Period: period, Year: yearOf(period)}

		if period >= v.StartPeriod {
			month := period - v.StartPeriod + 1
			next := v.CapitalizedValue
			if month < last {
				next = float64(month) * monthly
			}

			entry.AssetValue = v.CapitalizedValue - next
			entry.MonthlyDepreciation = next - accumulated
			entry.AccumulatedDepreciation = next
			entry.NetBookValue = entry.AssetValue
			accumulated = next
		}

		entries[i] = entry
	}

	return domain.VintageSchedule{VintageID: v.ID, Name: v.Name, Entries: entries}, nil
}

// lastActiveMonth is the 1-based month (relative to the vintage start) in
// which the vintage becomes fully depreciated.
func lastActiveMonth(v domain.DepreciationVintage) int {
	return int(math.Ceil(v.LifeMonths() - lifeEpsilon))
}

func yearOf(period int) int {
	return (period-1)/12 + 1
}
