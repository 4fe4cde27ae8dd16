package domain

import (
	"reflect"
	"testing"
)

func TestRunOutput_Clone(t *testing.T) {
	t.Parallel()

	if (*RunOutput)(nil).Clone() != nil {
		t.Fatal("clone of nil output should be nil")
	}

	original := &RunOutput{
		Depreciation: &DepreciationSchedule{
			HorizonMonths: 2,
			Entries:       []DepreciationScheduleEntry{{Period: 1, AssetValue: 100}},
			Vintages: []VintageSchedule{{
				VintageID: "v1",
				Entries:   []DepreciationScheduleEntry{{Period: 1, AssetValue: 100}},
			}},
		},
		KPIs: &KPIReport{
			Monthly: []KPISet{{Period: "2025-01", Undefined: []string{"dscr"}}},
			Yearly:  []KPISet{},
		},
	}

	c := original.Clone()
	if !reflect.DeepEqual(original, c) {
		t.Fatalf("clone differs: %+v", c)
	}

	c.Depreciation.Entries[0].AssetValue = 1
	c.Depreciation.Vintages[0].Entries[0].AssetValue = 1
	c.KPIs.Monthly[0].Undefined[0] = "ltv"

	if original.Depreciation.Entries[0].AssetValue != 100 {
		t.Error("consolidated entries are shared")
	}
	if original.Depreciation.Vintages[0].Entries[0].AssetValue != 100 {
		t.Error("vintage entries are shared")
	}
	if original.KPIs.Monthly[0].Undefined[0] != "dscr" {
		t.Error("undefined markers are shared")
	}
}
