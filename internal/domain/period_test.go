package domain

import "testing"

func TestPeriod_Key(t *testing.T) {
	p := Period{Year: 2024, Month: 5}

	tests := []struct {
		g    Granularity
		want string
	}{
		{GranularityMonth, "2024-05"},
		{GranularityQuarter, "2024-Q2"},
		{GranularityYear, "2024"},
	}

	for _, tt := range tests {
		if got := p.Key(tt.g); got != tt.want {
			t.Errorf("Key(%s) = %q, want %q", tt.g, got, tt.want)
		}
	}
}

func TestPeriod_AddMonths(t *testing.T) {
	p := Period{Year: 2024, Month: 11}

	if got := p.AddMonths(3); got != (Period{Year: 2025, Month: 2}) {
		t.Fatalf("expected 2025-02, got %s", got)
	}
	if got := p.AddMonths(-11); got != (Period{Year: 2023, Month: 12}) {
		t.Fatalf("expected 2023-12, got %s", got)
	}
	if !p.Before(p.AddMonths(1)) {
		t.Fatal("expected period to be before the next month")
	}
}
