// Package export renders run outputs as spreadsheets.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/finmodel/internal/domain"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat parses a format name. The empty string means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}

	return "", fmt.Errorf("%w: export format %q", domain.ErrInputValidation, s)
}

// ContentType is the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

const (
	money = 2
	ratio = 4
	text  = -1
)

// Column describes one column. Numeric cells are rounded to Places; text
// columns use a negative value.
type Column struct {
	Name   string
	Places int32
}

// Table is one header row plus one row per period. Cells hold string, int or
// float64 values.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// Header returns the column names.
func (t Table) Header() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Tables lays out a run output. The first table is the main schedule;
// depreciation adds one table per vintage.
func Tables(out *domain.RunOutput) ([]Table, error) {
	switch {
	case out == nil:
		return nil, fmt.Errorf("%w: run has no output", domain.ErrInputValidation)
	case out.Depreciation != nil:
		return depreciationTables(out.Depreciation), nil
	case out.KPIs != nil:
		return []Table{kpiTable(out.KPIs)}, nil
	default:
		return []Table{amortizationTable(out.Amortization)}, nil
	}
}

func amortizationTable(schedules []domain.InstrumentSchedule) Table {
	t := Table{
		Name: "Amortization",
		Columns: []Column{
			{"instrument_id", text},
			{"period", text},
			{"opening_balance", money},
			{"payment", money},
			{"interest_payment", money},
			{"principal_payment", money},
			{"closing_balance", money},
			{"cumulative_interest", money},
		},
	}

	for _, s := range schedules {
		for _, e := range s.Entries {
			t.Rows = append(t.Rows, []any{
				s.InstrumentID, e.Period,
				e.OpeningBalance, e.Payment, e.InterestPayment,
				e.PrincipalPayment, e.ClosingBalance, e.CumulativeInterest,
			})
		}
	}

	return t
}

var depreciationColumns = []Column{
	{"period", text},
	{"year", text},
	{"asset_value", money},
	{"monthly_depreciation", money},
	{"accumulated_depreciation", money},
	{"net_book_value", money},
}

func depreciationRows(entries []domain.DepreciationScheduleEntry) [][]any {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{
			e.Period, e.Year,
			e.AssetValue, e.MonthlyDepreciation, e.AccumulatedDepreciation, e.NetBookValue,
		})
	}
	return rows
}

func depreciationTables(s *domain.DepreciationSchedule) []Table {
	tables := []Table{{Name: "Depreciation", Columns: depreciationColumns, Rows: depreciationRows(s.Entries)}}
	for _, v := range s.Vintages {
		tables = append(tables, Table{
			Name:    "Vintage " + v.VintageID,
			Columns: depreciationColumns,
			Rows:    depreciationRows(v.Entries),
		})
	}
	return tables
}

func kpiTable(r *domain.KPIReport) Table {
	t := Table{
		Name:    "KPIs",
		Columns: []Column{{"granularity", text}, {"period", text}},
	}
	for _, nr := range (domain.KPISet{}).Ratios() {
		t.Columns = append(t.Columns, Column{nr.Name, ratio})
	}
	t.Columns = append(t.Columns, Column{"undefined", text})

	for _, series := range [][]domain.KPISet{r.Monthly, r.Quarterly, r.Yearly} {
		for _, k := range series {
			row := []any{string(k.Granularity), k.Period}
			for _, nr := range k.Ratios() {
				row = append(row, nr.Value)
			}
			row = append(row, strings.Join(k.Undefined, ";"))
			t.Rows = append(t.Rows, row)
		}
	}

	return t
}

// formatCell renders a cell as text.
func formatCell(v any, places int32) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		if places < 0 {
			return strconv.FormatFloat(x, 'f', -1, 64)
		}
		return decimal.NewFromFloat(x).StringFixed(places)
	default:
		return fmt.Sprint(x)
	}
}

// numericCell rounds a float cell for spreadsheet output.
func numericCell(v any, places int32) any {
	if x, ok := v.(float64); ok && places >= 0 {
		return decimal.NewFromFloat(x).Round(places).InexactFloat64()
	}
	return v
}
