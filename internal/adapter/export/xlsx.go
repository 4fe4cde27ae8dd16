package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is Excel's limit on sheet name length.
const maxSheetName = 31

// WriteXLSX writes every table to its own sheet of one workbook.
func WriteXLSX(w io.Writer, tables []Table) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		name := sheetName(t.Name, i)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}

		if err := writeSheet(f, name, t); err != nil {
			return fmt.Errorf("sheet %s: %w", name, err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func writeSheet(f *excelize.File, sheet string, t Table) error {
	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for r, row := range t.Rows {
		cells := make([]any, len(row))
		for i, cell := range row {
			cells[i] = numericCell(cell, t.Columns[i].Places)
		}

		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, axis, &cells); err != nil {
			return err
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// sheetName strips characters Excel rejects and keeps names unique by index.
func sheetName(name string, i int) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, name)
	if clean == "" {
		clean = fmt.Sprintf("Sheet%d", i+1)
	}
	if len(clean) > maxSheetName {
		suffix := fmt.Sprintf("~%d", i)
		clean = clean[:maxSheetName-len(suffix)] + suffix
	}
	return clean
}
