package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/iho/finmodel/internal/domain"
)

// Aggregate rolls monthly snapshots up to quarters or years.
//
// Flow fields are summed over the months of a bucket. Stock fields take the
// last month's value. The returned snapshot carries the period of the last
// month present in its bucket.
func Aggregate(monthly []domain.FinancialInputs, g domain.Granularity) ([]domain.FinancialInputs, error) {
	sorted := slices.Clone(monthly)
	slices.SortStableFunc(sorted, func(a, b domain.FinancialInputs) int {
		return a.Period.Index() - b.Period.Index()
	})

	if g == domain.GranularityMonth {
		return sorted, nil
	}
	if g != domain.GranularityQuarter && g != domain.GranularityYear {
		return nil, fmt.Errorf("%w: unsupported granularity %q", domain.ErrInputValidation, g)
	}

	var (
		buckets []domain.FinancialInputs
		current domain.FinancialInputs
		key     string
	)

	for i := range sorted {
		m := sorted[i]
		k := m.Period.Key(g)
		if k != key {
			if key != "" {
				buckets = append(buckets, current)
			}
			current = domain.FinancialInputs{}
			key = k
		}
		foldMonth(&current, &m)
	}
	if key != "" {
		buckets = append(buckets, current)
	}

	return buckets, nil
}

// foldMonth adds month m into bucket acc.
func foldMonth(acc, m *domain.FinancialInputs) {
	acc.Period = m.Period
	for _, f := range domain.FinancialFields {
		switch f.Kind {
		case domain.FieldFlow:
			*f.Ref(acc) += *f.Ref(m)
		case domain.FieldStock:
			*f.Ref(acc) = *f.Ref(m)
		}
	}
}

// BuildKPIReport computes monthly ratios and recomputes quarterly and yearly
// ratios from aggregated components, never from averaged monthly ratios.
func BuildKPIReport(ctx context.Context, monthly []domain.FinancialInputs) (*domain.KPIReport, error) {
	if res := domain.ValidateFinancialInputs(monthly); !res.IsValid {
		return nil, res.Err()
	}

	report := &domain.KPIReport{}
	for _, g := range []domain.Granularity{domain.GranularityMonth, domain.GranularityQuarter, domain.GranularityYear} {
		inputs, err := Aggregate(monthly, g)
		if err != nil {
			return nil, err
		}
		series, err := ComputeKPISeries(ctx, inputs, g)
		if err != nil {
			return nil, err
		}

		switch g {
		case domain.GranularityMonth:
			report.Monthly = series
		case domain.GranularityQuarter:
			report.Quarterly = series
		case domain.GranularityYear:
			report.Yearly = series
		}
	}

	return report, nil
}
