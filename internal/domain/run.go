package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// CalculationType selects which engine a run executes.
type CalculationType string

const (
	CalculationAmortization CalculationType = "amortization"
	CalculationDepreciation CalculationType = "depreciation"
	CalculationKPI          CalculationType = "kpi"
)

// ParseCalculationType validates a calculation type.
func ParseCalculationType(s string) (CalculationType, error) {
	t := CalculationType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case CalculationAmortization, CalculationDepreciation, CalculationKPI:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCalculationType, s)
}

// RunStatus is the state of a calculation run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IsFinal reports whether the status can no longer change.
func (s RunStatus) IsFinal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// CalculationRun is one immutable, versioned execution of a calculation.
type CalculationRun struct {
	ID            string
	ProjectID     string
	Type          CalculationType
	Status        RunStatus
	Version       int64
	InputHash     string
	InputSnapshot json.RawMessage
	Output        *RunOutput
	ChangeReason  string
	ErrorMessage  string
	CreatedAt     time.Time
	CompletedAt   *time.Time
	ExecutionTime time.Duration
	Active        bool
}

// RunOutput is the stored result of a run. Exactly one branch is set.
type RunOutput struct {
	Amortization []InstrumentSchedule  `json:"amortization,omitempty"`
	Depreciation *DepreciationSchedule `json:"depreciation,omitempty"`
	KPIs         *KPIReport            `json:"kpis,omitempty"`
}

// Clone returns a deep copy of the output. Stored outputs are immutable, so
// repositories hand out clones.
func (o *RunOutput) Clone() *RunOutput {
	if o == nil {
		return nil
	}

	c := &RunOutput{}
	if o.Amortization != nil {
		c.Amortization = make([]InstrumentSchedule, len(o.Amortization))
		for i, s := range o.Amortization {
			s.Entries = slices.Clone(s.Entries)
			c.Amortization[i] = s
		}
	}
	if o.Depreciation != nil {
		d := *o.Depreciation
		d.Entries = slices.Clone(d.Entries)
		if d.Vintages != nil {
			d.Vintages = make([]VintageSchedule, len(o.Depreciation.Vintages))
			for i, v := range o.Depreciation.Vintages {
				v.Entries = slices.Clone(v.Entries)
				d.Vintages[i] = v
			}
		}
		c.Depreciation = &d
	}
	if o.KPIs != nil {
		c.KPIs = &KPIReport{
			Monthly:   cloneKPISets(o.KPIs.Monthly),
			Quarterly: cloneKPISets(o.KPIs.Quarterly),
			Yearly:    cloneKPISets(o.KPIs.Yearly),
		}
	}
	return c
}

func cloneKPISets(sets []KPISet) []KPISet {
	if sets == nil {
		return nil
	}
	out := make([]KPISet, len(sets))
	for i, k := range sets {
		k.Undefined = slices.Clone(k.Undefined)
		out[i] = k
	}
	return out
}

// InputSnapshot is everything a run read from the input collaborator.
type InputSnapshot struct {
	ProjectID       string                `json:"project_id"`
	HorizonMonths   int                   `json:"horizon_months,omitempty"`
	Instruments     []DebtInstrument      `json:"instruments,omitempty"`
	Vintages        []DepreciationVintage `json:"vintages,omitempty"`
	FinancialInputs []FinancialInputs     `json:"financial_inputs,omitempty"`
}

// Encode returns the canonical JSON form of the snapshot and its SHA-256.
func (s InputSnapshot) Encode() (json.RawMessage, string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, "", err
	}
	sum := sha256.Sum256(data)
	return data, hex.EncodeToString(sum[:]), nil
}

// RunFilter narrows history queries.
type RunFilter struct {
	ProjectID string
	Type      CalculationType
	Status    RunStatus
	Limit     int
	Offset    int
}
