package engine

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/iho/finmodel/internal/domain"
)

const daysPerYear = 365.0

// ratioBuilder accumulates ratios and remembers which ones had no data.
type ratioBuilder struct {
	undefined []string
}

// div returns num/den, or 0 with the ratio flagged when den is zero.
func (b *ratioBuilder) div(name string, num, den float64) float64 {
	if den == 0 || !isFinite(num) || !isFinite(den) {
		b.undefined = append(b.undefined, name)
		return 0
	}
	return num / den
}

func (b *ratioBuilder) flagged(name string) bool {
	for _, u := range b.undefined {
		if u == name {
			return true
		}
	}
	return false
}

// ComputeKPIs maps one period's snapshot to its ratio set. It is a pure
// function of its argument.
func ComputeKPIs(in domain.FinancialInputs) domain.KPISet {
	var b ratioBuilder

	k := domain.KPISet{
		Period:      in.Period.Key(domain.GranularityMonth),
		Granularity: domain.GranularityMonth,
	}

	k.DebtToEBITDA = b.div(domain.RatioDebtToEBITDA, in.TotalDebt, in.EBITDA)
	k.DSCR = b.div(domain.RatioDSCR, in.OperatingCashFlow, in.DebtService)
	k.LTV = b.div(domain.RatioLTV, in.TotalDebt, in.TangibleAssets)
	k.InterestCoverage = b.div(domain.RatioInterestCoverage, in.EBITDA, in.InterestExpense)
	k.DebtToEquity = b.div(domain.RatioDebtToEquity, in.TotalDebt, in.TotalEquity)
	k.CurrentRatio = b.div(domain.RatioCurrentRatio, in.CurrentAssets, in.CurrentLiabilities)
	k.QuickRatio = b.div(domain.RatioQuickRatio, in.CurrentAssets-in.Inventory, in.CurrentLiabilities)

	k.OperatingMargin = b.div(domain.RatioOperatingMargin, in.Revenue-in.COGS-in.OperatingExpenses, in.Revenue)
	k.GrossProfitMargin = b.div(domain.RatioGrossProfitMargin, in.Revenue-in.COGS, in.Revenue)
	k.EBITDAMargin = b.div(domain.RatioEBITDAMargin, in.EBITDA, in.Revenue)
	k.NetIncomeMargin = b.div(domain.RatioNetIncomeMargin, in.NetIncome, in.Revenue)

	k.FCFF = in.OperatingCashFlow - in.CapitalExpenditures
	k.FCFE = in.FreeCashFlow - in.InterestExpense

	k.ARCycleDays = b.div(domain.RatioARCycleDays, in.AccountsReceivable, in.Revenue/daysPerYear)
	k.InventoryCycleDays = b.div(domain.RatioInventoryCycleDays, in.Inventory, in.COGS/daysPerYear)
	k.APCycleDays = b.div(domain.RatioAPCycleDays, in.AccountsPayable, in.COGS/daysPerYear)

	if b.flagged(domain.RatioARCycleDays) || b.flagged(domain.RatioInventoryCycleDays) || b.flagged(domain.RatioAPCycleDays) {
		b.undefined = append(b.undefined, domain.RatioCashConversionCycle)
	} else {
		k.CashConversionCycle = k.ARCycleDays + k.InventoryCycleDays - k.APCycleDays
	}

	k.Undefined = b.undefined
	return k
}

// ComputeKPISeries computes the ratio set of every period concurrently.
// Results keep the order of the inputs.
func ComputeKPISeries(ctx context.Context, inputs []domain.FinancialInputs, g domain.Granularity) ([]domain.KPISet, error) {
	out := make([]domain.KPISet, len(inputs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))

	for i := range inputs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			k := ComputeKPIs(inputs[i])
			k.Period = inputs[i].Period.Key(g)
			k.Granularity = g
			out[i] = k
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
