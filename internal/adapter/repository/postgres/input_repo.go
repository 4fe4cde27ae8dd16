package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/finmodel/internal/domain"
	"github.com/iho/finmodel/internal/infrastructure/postgres/generated"
	"github.com/iho/finmodel/internal/usecase"
)

var _ usecase.InputRepository = (*InputRepository)(nil)

// InputRepository reads project inputs and replaces them from scenarios.
type InputRepository struct {
	db      generated.DBTX
	queries *generated.Queries
}

// NewInputRepository creates a new InputRepository.
func NewInputRepository(pool *pgxpool.Pool) *InputRepository {
	return newInputRepository(pool)
}

func newInputRepository(db generated.DBTX) *InputRepository {
	return &InputRepository{
		db:      db,
		queries: generated.New(db),
	}
}

// GetProject retrieves a project by ID.
func (r *InputRepository) GetProject(ctx context.Context, projectID string) (*domain.Project, error) {
	row, err := r.queries.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}

		return nil, err
	}

	return &domain.Project{
		ID:            row.ID,
		Name:          row.Name,
		HorizonMonths: int(row.HorizonMonths),
	}, nil
}

// ListFinancialInputs retrieves the monthly snapshots in period order.
func (r *InputRepository) ListFinancialInputs(ctx context.Context, projectID string) ([]domain.FinancialInputs, error) {
	rows, err := r.queries.ListFinancialInputs(ctx, projectID)
	if err != nil {
		return nil, err
	}

	inputs := make([]domain.FinancialInputs, 0, len(rows))
	for _, row := range rows {
		var f domain.FinancialInputs
		if err := json.Unmarshal(row.Data, &f); err != nil {
			return nil, fmt.Errorf("decode financial inputs %d-%02d: %w", row.PeriodYear, row.PeriodMonth, err)
		}
		f.Period = domain.Period{Year: int(row.PeriodYear), Month: int(row.PeriodMonth)}
		inputs = append(inputs, f)
	}

	return inputs, nil
}

// ListDebtInstruments retrieves the instruments in entry order.
func (r *InputRepository) ListDebtInstruments(ctx context.Context, projectID string) ([]domain.DebtInstrument, error) {
	rows, err := r.queries.ListDebtInstruments(ctx, projectID)
	if err != nil {
		return nil, err
	}

	instruments := make([]domain.DebtInstrument, 0, len(rows))
	for _, row := range rows {
		instruments = append(instruments, domain.DebtInstrument{
			ID:                row.ID,
			Name:              row.Name,
			Principal:         numericToFloat(row.Principal),
			BaseRate:          row.BaseRate,
			LiquidityPremium:  row.LiquidityPremium,
			CreditPremium:     row.CreditPremium,
			MaturityYears:     int(row.MaturityYears),
			AmortizationYears: int(row.AmortizationYears),
			Frequency:         domain.PaymentFrequency(row.Frequency),
		})
	}

	return instruments, nil
}

// ListDepreciationVintages retrieves the vintages by start period.
func (r *InputRepository) ListDepreciationVintages(ctx context.Context, projectID string) ([]domain.DepreciationVintage, error) {
	rows, err := r.queries.ListDepreciationVintages(ctx, projectID)
	if err != nil {
		return nil, err
	}

	vintages := make([]domain.DepreciationVintage, 0, len(rows))
	for _, row := range rows {
		vintages = append(vintages, domain.DepreciationVintage{
			ID:               row.ID,
			Name:             row.Name,
			CapitalizedValue: numericToFloat(row.CapitalizedValue),
			StartPeriod:      int(row.StartPeriod),
			UsefulLifeYears:  row.UsefulLifeYears,
		})
	}

	return vintages, nil
}

// ReplaceScenario upserts the project and replaces all of its inputs
// within a transaction.
func (r *InputRepository) ReplaceScenario(ctx context.Context, tx usecase.Transaction, s domain.Scenario) error {
	if err := s.Check(); err != nil {
		return err
	}

	queries := queriesFor(r.db, tx)
	projectID := s.Project.ID

	err := queries.UpsertProject(ctx, generated.UpsertProjectParams{
		ID:            projectID,
		Name:          s.Project.Name,
		HorizonMonths: int32(s.Project.HorizonMonths),
	})
	if err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}

	if err := queries.DeleteFinancialInputs(ctx, projectID); err != nil {
		return err
	}
	for _, f := range s.FinancialInputs {
		data, err := json.Marshal(f)
		if err != nil {
			return err
		}

		err = queries.InsertFinancialInput(ctx, generated.InsertFinancialInputParams{
			ProjectID:   projectID,
			PeriodYear:  int32(f.Period.Year),
			PeriodMonth: int32(f.Period.Month),
			Data:        data,
		})
		if err != nil {
			return fmt.Errorf("insert financial inputs %d-%02d: %w", f.Period.Year, f.Period.Month, err)
		}
	}

	if err := queries.DeleteDebtInstruments(ctx, projectID); err != nil {
		return err
	}
	for i, d := range s.Instruments {
		err := queries.InsertDebtInstrument(ctx, generated.InsertDebtInstrumentParams{
			ProjectID:         projectID,
			ID:                d.ID,
			Name:              d.Name,
			Principal:         floatToNumeric(d.Principal),
			BaseRate:          d.BaseRate,
			LiquidityPremium:  d.LiquidityPremium,
			CreditPremium:     d.CreditPremium,
			MaturityYears:     int32(d.MaturityYears),
			AmortizationYears: int32(d.AmortizationYears),
			Frequency:         string(d.Frequency),
			Position:          int32(i),
		})
		if err != nil {
			return fmt.Errorf("insert instrument %s: %w", d.ID, err)
		}
	}

	if err := queries.DeleteDepreciationVintages(ctx, projectID); err != nil {
		return err
	}
	for _, v := range s.Vintages {
		err := queries.InsertDepreciationVintage(ctx, generated.InsertDepreciationVintageParams{
			ProjectID:        projectID,
			ID:               v.ID,
			Name:             v.Name,
			CapitalizedValue: floatToNumeric(v.CapitalizedValue),
			StartPeriod:      int32(v.StartPeriod),
			UsefulLifeYears:  v.UsefulLifeYears,
		})
		if err != nil {
			return fmt.Errorf("insert vintage %s: %w", v.ID, err)
		}
	}

	return nil
}
