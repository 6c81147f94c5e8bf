// Package report renders plant data as xlsx workbooks.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const dateLayout = "Jan 02, 2006"

// styles holds the handful of cell styles every workbook uses.
type styles struct {
	title   int
	section int
	header  int
	alert   int
	ok      int
	decimal int
}

func newStyles(f *excelize.File) (*styles, error) {
	var s styles
	var err error
	if s.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}); err != nil {
		return nil, err
	}
	if s.section, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D3D3D3"}, Pattern: 1},
	}); err != nil {
		return nil, err
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	}); err != nil {
		return nil, err
	}
	if s.alert, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Color: "FF0000"}}); err != nil {
		return nil, err
	}
	if s.ok, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: "008000"}}); err != nil {
		return nil, err
	}
	fmtStr := "0.0"
	if s.decimal, err = f.NewStyle(&excelize.Style{CustomNumFmt: &fmtStr}); err != nil {
		return nil, err
	}
	return &s, nil
}

// sheet wraps one worksheet with row-oriented writers.
type sheet struct {
	f    *excelize.File
	name string
	err  error
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func (s *sheet) set(col, row int, v any) {
	if s.err != nil {
		return
	}
	s.err = s.f.SetCellValue(s.name, cell(col, row), v)
}

func (s *sheet) row(row int, values ...any) {
	for i, v := range values {
		s.set(i+1, row, v)
	}
}

func (s *sheet) style(col, row, styleID int) {
	if s.err != nil {
		return
	}
	s.err = s.f.SetCellStyle(s.name, cell(col, row), cell(col, row), styleID)
}

func (s *sheet) styleRow(row, cols, styleID int) {
	if s.err != nil {
		return
	}
	s.err = s.f.SetCellStyle(s.name, cell(1, row), cell(cols, row), styleID)
}

func (s *sheet) widths(cols int, width float64) {
	if s.err != nil {
		return
	}
	last, _ := excelize.ColumnNumberToName(cols)
	s.err = s.f.SetColWidth(s.name, "A", last, width)
}

// firstSheet renames the default sheet of a new workbook.
func firstSheet(f *excelize.File, name string) (*sheet, error) {
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	return &sheet{f: f, name: name}, nil
}

func addSheet(f *excelize.File, name string) (*sheet, error) {
	if _, err := f.NewSheet(name); err != nil {
		return nil, fmt.Errorf("add sheet %s: %w", name, err)
	}
	return &sheet{f: f, name: name}, nil
}
