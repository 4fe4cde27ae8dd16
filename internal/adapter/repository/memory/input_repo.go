package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/iho/finmodel/internal/domain"
	"github.com/iho/finmodel/internal/usecase"
)

var _ usecase.InputRepository = (*InputRepository)(nil)

// InputRepository keeps project inputs in memory.
type InputRepository struct {
	mu          sync.RWMutex
	projects    map[string]domain.Project
	financials  map[string][]domain.FinancialInputs
	instruments map[string][]domain.DebtInstrument
	vintages    map[string][]domain.DepreciationVintage
}

// NewInputRepository creates an empty InputRepository.
func NewInputRepository() *InputRepository {
	return &InputRepository{
		projects:    make(map[string]domain.Project),
		financials:  make(map[string][]domain.FinancialInputs),
		instruments: make(map[string][]domain.DebtInstrument),
		vintages:    make(map[string][]domain.DepreciationVintage),
	}
}

// PutProject creates or replaces a project.
func (r *InputRepository) PutProject(p domain.Project) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = p
}

// PutFinancialInputs replaces the monthly snapshots of a project.
func (r *InputRepository) PutFinancialInputs(projectID string, inputs []domain.FinancialInputs) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.financials[projectID] = slices.Clone(inputs)
}

// PutDebtInstruments replaces the instruments of a project.
func (r *InputRepository) PutDebtInstruments(projectID string, instruments []domain.DebtInstrument) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instruments[projectID] = slices.Clone(instruments)
}

// PutDepreciationVintages replaces the vintages of a project.
func (r *InputRepository) PutDepreciationVintages(projectID string, vintages []domain.DepreciationVintage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vintages[projectID] = slices.Clone(vintages)
}

// Load replaces everything stored for the scenario's project.
func (r *InputRepository) Load(s domain.Scenario) {
	r.PutProject(s.Project)
	r.PutFinancialInputs(s.Project.ID, s.FinancialInputs)
	r.PutDebtInstruments(s.Project.ID, s.Instruments)
	r.PutDepreciationVintages(s.Project.ID, s.Vintages)
}

// GetProject returns a project or domain.ErrProjectNotFound.
func (r *InputRepository) GetProject(ctx context.Context, projectID string) (*domain.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[projectID]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return &p, nil
}

// ListFinancialInputs returns a copy of the project's monthly snapshots.
func (r *InputRepository) ListFinancialInputs(ctx context.Context, projectID string) ([]domain.FinancialInputs, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.financials[projectID]), nil
}

// ListDebtInstruments returns a copy of the project's instruments.
func (r *InputRepository) ListDebtInstruments(ctx context.Context, projectID string) ([]domain.DebtInstrument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.instruments[projectID]), nil
}

// ListDepreciationVintages returns a copy of the project's vintages.
func (r *InputRepository) ListDepreciationVintages(ctx context.Context, projectID string) ([]domain.DepreciationVintage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.vintages[projectID]), nil
}
