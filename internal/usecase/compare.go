package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/iho/finmodel/internal/domain"
)

// compareTolerance hides float noise between otherwise equal runs.
const compareTolerance = 1e-9

// ChangeKind classifies one difference between two outputs.
type ChangeKind string

const (
	ChangeChanged ChangeKind = "changed"
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
)

// ValueDiff is the difference at one numeric leaf of a run output.
type ValueDiff struct {
	Key      string     `json:"key"`
	Kind     ChangeKind `json:"kind"`
	Before   float64    `json:"before"`
	After    float64    `json:"after"`
	AbsDelta float64    `json:"abs_delta"`
	// RelDelta is AbsDelta relative to Before; 0 when Before is 0.
	RelDelta float64 `json:"rel_delta"`
}

// RunComparison is the structured diff between two runs of the same type.
type RunComparison struct {
	Base        *domain.CalculationRun
	Target      *domain.CalculationRun
	Type        domain.CalculationType
	Differences []ValueDiff
	Unchanged   int
}

// Identical reports whether the two outputs have no differences.
func (c *RunComparison) Identical() bool {
	return len(c.Differences) == 0
}

// DiffOutputs compares two outputs leaf by leaf. Keys are sorted.
func DiffOutputs(base, target *domain.RunOutput) ([]ValueDiff, int, error) {
	before, err := FlattenOutput(base)
	if err != nil {
		return nil, 0, err
	}
	after, err := FlattenOutput(target)
	if err != nil {
		return nil, 0, err
	}

	keys := make([]string, 0, len(before)+len(after))
	for k := range before {
		keys = append(keys, k)
	}
	for k := range after {
		if _, ok := before[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var (
		diffs     []ValueDiff
		unchanged int
	)
	for _, k := range keys {
		b, inBefore := before[k]
		a, inAfter := after[k]

		switch {
		case !inAfter:
			diffs = append(diffs, ValueDiff{Key: k, Kind: ChangeRemoved, Before: b, AbsDelta: math.Abs(b)})
		case !inBefore:
			diffs = append(diffs, ValueDiff{Key: k, Kind: ChangeAdded, After: a, AbsDelta: math.Abs(a)})
		default:
			delta := math.Abs(a - b)
			if delta <= compareTolerance {
				unchanged++
				continue
			}
			d := ValueDiff{Key: k, Kind: ChangeChanged, Before: b, After: a, AbsDelta: delta}
			if b != 0 {
				d.RelDelta = delta / math.Abs(b)
			}
			diffs = append(diffs, d)
		}
	}

	return diffs, unchanged, nil
}

// FlattenOutput maps every numeric leaf of an output to a stable key such as
// "amortization[senior].entries[12].closing_balance". Array elements that
// carry an identifier are keyed by it so reordering does not show up as a
// change. A list of names, such as the undefined ratios of a KPI set, becomes
// one leaf of value 1 per member ("kpis.monthly[2025-01].undefined.dscr").
func FlattenOutput(out *domain.RunOutput) (map[string]float64, error) {
	leaves := make(map[string]float64)
	if out == nil {
		return leaves, nil
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}

	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decode output: %w", err)
	}

	flatten("", tree, leaves)
	return leaves, nil
}

var elementKeys = []string{"instrument_id", "vintage_id", "period"}

func flatten(prefix string, node any, leaves map[string]float64) {
	switch v := node.(type) {
	case float64:
		leaves[prefix] = v
	case map[string]any:
		for k, child := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flatten(key, child, leaves)
		}
	case []any:
		for i, child := range v {
			if name, ok := child.(string); ok {
				leaves[prefix+"."+name] = 1
				continue
			}
			flatten(prefix+"["+elementKey(i, child)+"]", child, leaves)
		}
	}
}

func elementKey(i int, node any) string {
	m, ok := node.(map[string]any)
	if !ok {
		return strconv.Itoa(i)
	}
	for _, k := range elementKeys {
		switch id := m[k].(type) {
		case string:
			if id != "" {
				return id
			}
		case float64:
			return strconv.FormatFloat(id, 'f', -1, 64)
		}
	}
	return strconv.Itoa(i)
}
