package domain

import (
	"fmt"
	"time"
)

// Granularity is the reporting grain of a KPI set.
type Granularity string

const (
	GranularityMonth   Granularity = "month"
	GranularityQuarter Granularity = "quarter"
	GranularityYear    Granularity = "year"
)

// Period identifies a calendar month.
type Period struct {
	Year  int `json:"year"  yaml:"year"`
	Month int `json:"month" yaml:"month"`
}

// NewPeriod returns the period containing t.
func NewPeriod(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// Valid reports whether the month is in range.
func (p Period) Valid() bool {
	return p.Year > 0 && p.Month >= 1 && p.Month <= 12
}

// Index returns a monotonically increasing month number, handy for ordering.
func (p Period) Index() int {
	return p.Year*12 + (p.Month - 1)
}

// Before reports whether p is strictly earlier than other.
func (p Period) Before(other Period) bool {
	return p.Index() < other.Index()
}

// AddMonths shifts the period by n months.
func (p Period) AddMonths(n int) Period {
	idx := p.Index() + n
	return Period{Year: idx / 12, Month: idx%12 + 1}
}

// Quarter returns the 1-based quarter of the month.
func (p Period) Quarter() int {
	return (p.Month-1)/3 + 1
}

// Key formats the period for the given granularity (2024-03, 2024-Q1, 2024).
func (p Period) Key(g Granularity) string {
	switch g {
	case GranularityQuarter:
		return fmt.Sprintf("%04d-Q%d", p.Year, p.Quarter())
	case GranularityYear:
		return fmt.Sprintf("%04d", p.Year)
	default:
		return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
	}
}

func (p Period) String() string {
	return p.Key(GranularityMonth)
}
