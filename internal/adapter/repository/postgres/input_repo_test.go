package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/iho/finmodel/internal/domain"
)

func TestInputRepositoryGetProject(t *testing.T) {
	mockPool := newMockPool(t)
	repo := newInputRepository(mockPool)
	columns := []string{"id", "name", "horizon_months", "created_at"}

	mockPool.ExpectQuery(regexp.QuoteMeta("FROM projects WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(columns))
	mockPool.ExpectQuery(regexp.QuoteMeta("FROM projects WHERE id = $1")).
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows(columns).AddRow("p1", "Solar plant", int32(60), timeToPgTimestamptz(time.Now())))

	if _, err := repo.GetProject(context.Background(), "missing"); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}

	project, err := repo.GetProject(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if project.Name != "Solar plant" || project.HorizonMonths != 60 {
		t.Fatalf("unexpected project: %+v", project)
	}
	assertExpectations(t, mockPool)
}

func TestInputRepositoryListsConvertNumericColumns(t *testing.T) {
	mockPool := newMockPool(t)
	repo := newInputRepository(mockPool)

	mockPool.ExpectQuery(regexp.QuoteMeta("FROM debt_instruments")).
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows([]string{
			"project_id", "id", "name", "principal", "base_rate", "liquidity_premium", "credit_premium",
			"maturity_years", "amortization_years", "frequency", "position",
		}).AddRow("p1", "senior", "Senior", floatToNumeric(12_000_000.5), 0.05, 0.01, 0.01, int32(0), int32(4), "monthly", int32(0)))

	mockPool.ExpectQuery(regexp.QuoteMeta("FROM depreciation_vintages")).
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows([]string{
			"project_id", "id", "name", "capitalized_value", "start_period", "useful_life_years",
		}).AddRow("p1", "v1", "Turbines", floatToNumeric(15_000_000), int32(1), 10.0))

	mockPool.ExpectQuery(regexp.QuoteMeta("FROM financial_inputs")).
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows([]string{"project_id", "period_year", "period_month", "data"}).
			AddRow("p1", int32(2025), int32(3), []byte(`{"revenue":1000,"ebitda":400,"period":{"year":1,"month":1}}`)))

	ctx := context.Background()

	instruments, err := repo.ListDebtInstruments(ctx, "p1")
	if err != nil {
		t.Fatalf("list instruments: %v", err)
	}
	if len(instruments) != 1 || instruments[0].Principal != 12_000_000.5 || instruments[0].Frequency != domain.FrequencyMonthly {
		t.Fatalf("unexpected instruments: %+v", instruments)
	}

	vintages, err := repo.ListDepreciationVintages(ctx, "p1")
	if err != nil {
		t.Fatalf("list vintages: %v", err)
	}
	if len(vintages) != 1 || vintages[0].CapitalizedValue != 15_000_000 || vintages[0].UsefulLifeYears != 10 {
		t.Fatalf("unexpected vintages: %+v", vintages)
	}

	inputs, err := repo.ListFinancialInputs(ctx, "p1")
	if err != nil {
		t.Fatalf("list inputs: %v", err)
	}
	if len(inputs) != 1 || inputs[0].Revenue != 1000 {
		t.Fatalf("unexpected inputs: %+v", inputs)
	}
	if inputs[0].Period != (domain.Period{Year: 2025, Month: 3}) {
		t.Fatalf("period must come from the key columns, got %+v", inputs[0].Period)
	}
	assertExpectations(t, mockPool)
}

func TestInputRepositoryReplaceScenario(t *testing.T) {
	ctx := context.Background()
	mockPool := newMockPool(t)

	scenario := domain.Scenario{
		Project: domain.Project{ID: "p1", Name: "Solar plant", HorizonMonths: 24},
		FinancialInputs: []domain.FinancialInputs{
			{Period: domain.Period{Year: 2025, Month: 1}, Revenue: 10},
		},
		Instruments: []domain.DebtInstrument{
			{ID: "senior", Principal: 100, AmortizationYears: 4, Frequency: domain.FrequencyMonthly},
			{ID: "tranche", Principal: 50, AmortizationYears: 2, Frequency: domain.FrequencyAnnual},
		},
		Vintages: []domain.DepreciationVintage{{ID: "v1", CapitalizedValue: 1200, StartPeriod: 1, UsefulLifeYears: 1}},
	}

	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO projects")).
		WithArgs("p1", "Solar plant", int32(24)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM financial_inputs")).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO financial_inputs")).
		WithArgs("p1", int32(2025), int32(1), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM debt_instruments")).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO debt_instruments")).
		WithArgs("p1", "senior", "", floatToNumeric(100), 0.0, 0.0, 0.0, int32(0), int32(4), "monthly", int32(0)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO debt_instruments")).
		WithArgs("p1", "tranche", "", floatToNumeric(50), 0.0, 0.0, 0.0, int32(0), int32(2), "annual", int32(1)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM depreciation_vintages")).
		WithArgs("p1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO depreciation_vintages")).
		WithArgs("p1", "v1", "", floatToNumeric(1200), int32(1), 1.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()

	tx, err := newTxManagerWithPool(mockPool).Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := newInputRepository(mockPool).ReplaceScenario(ctx, tx, scenario); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	assertExpectations(t, mockPool)
}

func TestInputRepositoryReplaceScenarioRejectsBadScenario(t *testing.T) {
	mockPool := newMockPool(t)

	err := newInputRepository(mockPool).ReplaceScenario(context.Background(), nil, domain.Scenario{})
	if !errors.Is(err, domain.ErrInputValidation) {
		t.Fatalf("expected ErrInputValidation, got %v", err)
	}
	assertExpectations(t, mockPool)
}
