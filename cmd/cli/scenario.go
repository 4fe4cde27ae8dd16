package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/iho/finmodel/internal/adapter/export"
	"github.com/iho/finmodel/internal/adapter/http/dto"
	"github.com/iho/finmodel/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/finmodel/internal/adapter/repository/postgres"
	"github.com/iho/finmodel/internal/domain"
	"github.com/iho/finmodel/internal/infrastructure/config"
	"github.com/iho/finmodel/internal/infrastructure/postgres"
	"github.com/iho/finmodel/internal/usecase"
)

func scenarioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Work with YAML scenario files",
	}

	cmd.AddCommand(scenarioRunCmd(), scenarioValidateCmd(), scenarioLoadCmd())

	return cmd
}

// readScenario decodes and checks a scenario file.
func readScenario(path string) (domain.Scenario, error) {
	var s domain.Scenario

	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := s.Check(); err != nil {
		return s, err
	}

	return s, nil
}

// offlineEngine wires the calculation use case to in-memory storage.
func offlineEngine(s domain.Scenario) (*usecase.CalculationUseCase, *usecase.ValidationUseCase) {
	inputs := memory.NewInputRepository()
	inputs.Load(s)

	validator := usecase.NewValidationUseCase(inputs)
	calc := usecase.NewCalculationUseCase(usecase.CalculationConfig{
		Validator:  validator,
		TxManager:  memory.NewTxManager(),
		RunRepo:    memory.NewRunRepository(),
		OutboxRepo: memory.NewOutboxRepository(),
		AuditRepo:  memory.NewAuditRepository(),
		Locker:     memory.NewRunLocker(),
		IDGen:      postgresRepo.NewULIDGenerator(),
		Logger:     zerolog.Nop(),
	})

	return calc, validator
}

func calcTypes(arg string) ([]domain.CalculationType, error) {
	if arg == "" || arg == "all" {
		return []domain.CalculationType{
			domain.CalculationAmortization,
			domain.CalculationDepreciation,
			domain.CalculationKPI,
		}, nil
	}

	t, err := domain.ParseCalculationType(arg)
	if err != nil {
		return nil, err
	}
	return []domain.CalculationType{t}, nil
}

func scenarioRunCmd() *cobra.Command {
	var (
		calcType string
		format   string
		horizon  int
	)

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run calculations offline on a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := readScenario(args[0])
			if err != nil {
				return err
			}
			types, err := calcTypes(calcType)
			if err != nil {
				return err
			}
			if format != "json" && format != "csv" {
				return fmt.Errorf("%w: unknown format %q", domain.ErrInputValidation, format)
			}

			calc, _ := offlineEngine(s)
			out := cmd.OutOrStdout()
			results := make([]*dto.RunResponse, 0, len(types))

			for _, t := range types {
				run, err := calc.Calculate(cmd.Context(), usecase.CalculateInput{
					ProjectID:     s.Project.ID,
					Type:          t,
					ChangeReason:  "offline scenario " + args[0],
					HorizonMonths: horizon,
				})
				if err != nil {
					return fmt.Errorf("%s: %w", t, err)
				}
				if run.Status != domain.RunStatusCompleted {
					return fmt.Errorf("%s: %s", t, run.ErrorMessage)
				}

				if format == "csv" {
					if err := writeRunCSV(out, run); err != nil {
						return err
					}
					continue
				}
				results = append(results, dto.RunFromDomain(run))
			}

			if format == "json" {
				return printJSON(out, results)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&calcType, "type", "all", "Calculation type (amortization, depreciation, kpi or all)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format (json or csv)")
	cmd.Flags().IntVar(&horizon, "horizon", 0, "Depreciation horizon in months (0 uses the project horizon)")

	return cmd
}

func writeRunCSV(w io.Writer, run *domain.CalculationRun) error {
	tables, err := export.Tables(run.Output)
	if err != nil {
		return err
	}

	for _, t := range tables {
		if _, err := fmt.Fprintf(w, "# %s\n", t.Name); err != nil {
			return err
		}
		if err := export.WriteCSV(w, t); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	return nil
}

func scenarioValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Report which calculations a scenario can run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := readScenario(args[0])
			if err != nil {
				return err
			}
			_, validator := offlineEngine(s)

			types, _ := calcTypes("all")
			results := make([]dto.ValidationResponse, 0, len(types))
			for _, t := range types {
				result, err := validator.Validate(cmd.Context(), s.Project.ID, t)
				if err != nil {
					return err
				}
				results = append(results, dto.ValidationFromDomain(s.Project.ID, t, result))
			}

			return printJSON(cmd.OutOrStdout(), results)
		},
	}
}

func scenarioLoadCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "load <scenario.yaml>",
		Short: "Replace a project's stored inputs with a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := readScenario(args[0])
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if migrate {
				if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, zerolog.Nop()); err != nil {
					return err
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{DatabaseURL: cfg.DatabaseURL, MaxConns: 2})
			if err != nil {
				return err
			}
			defer pool.Close()

			tx, err := postgresRepo.NewTxManager(pool).Begin(ctx)
			if err != nil {
				return err
			}
			defer tx.Rollback(ctx)

			if err := postgresRepo.NewInputRepository(pool).ReplaceScenario(ctx, tx, s); err != nil {
				return err
			}
			if err := tx.Commit(ctx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"loaded project %s: %d periods, %d instruments, %d vintages\n",
				s.Project.ID, len(s.FinancialInputs), len(s.Instruments), len(s.Vintages))
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply database migrations first")

	return cmd
}
