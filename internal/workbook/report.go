package workbook

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"ControlPagos/internal/grouping"
)

// Report colours and number format.
const (
	HeaderFill   = "366092"
	TotalFill    = "FFC000"
	AmountFormat = "#,##0.00"
)

const (
	minColWidth = 10
	maxColWidth = 60
)

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

type reportStyles struct {
	header, body, bodyAmount, total, totalAmount int
}

func newReportStyles(f *excelize.File) (reportStyles, error) {
	var s reportStyles
	var err error
	numFmt := AmountFormat

	if s.header, err = f.NewStyle(&excelize.Style{
		Border:    thinBorder,
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{HeaderFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return s, err
	}
	if s.body, err = f.NewStyle(&excelize.Style{Border: thinBorder}); err != nil {
		return s, err
	}
	if s.bodyAmount, err = f.NewStyle(&excelize.Style{Border: thinBorder, CustomNumFmt: &numFmt}); err != nil {
		return s, err
	}
	totalFill := excelize.Fill{Type: "pattern", Color: []string{TotalFill}, Pattern: 1}
	if s.total, err = f.NewStyle(&excelize.Style{
		Border: thinBorder,
		Font:   &excelize.Font{Bold: true},
		Fill:   totalFill,
	}); err != nil {
		return s, err
	}
	s.totalAmount, err = f.NewStyle(&excelize.Style{
		Border:       thinBorder,
		Font:         &excelize.Font{Bold: true},
		Fill:         totalFill,
		CustomNumFmt: &numFmt,
	})
	return s, err
}

func isAmountColumn(col int) bool {
	h := grouping.ReportHeaders[col]
	return h == "NOTA CRÉDITO" || h == "VALOR A PAGAR"
}

// WriteReport renders rows into sheetName of the workbook at path, replacing
// the sheet if it already exists, and makes it the active sheet.
func WriteReport(ctx context.Context, path, sheetName string, rows []grouping.ReportRow, policy RetryPolicy) error {
	return policy.Do(ctx, path, func() error {
		if err := CheckUnlocked(path); err != nil {
			return err
		}
		f, err := excelize.OpenFile(path)
		if err != nil {
			return err
		}
		defer f.Close()

		if err := renderReport(f, sheetName, rows); err != nil {
			return err
		}
		return f.Save()
	})
}

func renderReport(f *excelize.File, sheetName string, rows []grouping.ReportRow) error {
	if idx, err := f.GetSheetIndex(sheetName); err == nil && idx >= 0 {
		if err := f.DeleteSheet(sheetName); err != nil {
			return fmt.Errorf("replace sheet %s: %w", sheetName, err)
		}
	}
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet %s: %w", sheetName, err)
	}
	styles, err := newReportStyles(f)
	if err != nil {
		return err
	}

	cols := len(grouping.ReportHeaders)
	widths := make([]int, cols)
	header := make([]interface{}, cols)
	for i, h := range grouping.ReportHeaders {
		header[i] = h
		widths[i] = utf8.RuneCountInString(h)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(cols, 1)
	if err := f.SetCellStyle(sheetName, "A1", last, styles.header); err != nil {
		return err
	}

	for i, r := range rows {
		rowNum := i + 2
		vals := r.Values()
		start, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := f.SetSheetRow(sheetName, start, &vals); err != nil {
			return err
		}
		for c := 0; c < cols; c++ {
			style := styles.body
			switch {
			case r.Kind == grouping.RowTotal && isAmountColumn(c):
				style = styles.totalAmount
			case r.Kind == grouping.RowTotal:
				style = styles.total
			case isAmountColumn(c):
				style = styles.bodyAmount
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, rowNum)
			if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
				return err
			}
			if n := displayWidth(vals[c]); n > widths[c] {
				widths[c] = n
			}
		}
	}

	for c, w := range widths {
		name, _ := excelize.ColumnNumberToName(c + 1)
		if err := f.SetColWidth(sheetName, name, name, clampWidth(w+2)); err != nil {
			return err
		}
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	return nil
}

func displayWidth(v interface{}) int {
	switch x := v.(type) {
	case nil:
		return 0
	case string:
		return utf8.RuneCountInString(x)
	case float64:
		// thousands separators and two decimals
		s := fmt.Sprintf("%.2f", x)
		return len(s) + (len(s)-4)/3
	default:
		return len(fmt.Sprint(x))
	}
}

func clampWidth(w int) float64 {
	if w < minColWidth {
		return minColWidth
	}
	if w > maxColWidth {
		return maxColWidth
	}
	return float64(w)
}
