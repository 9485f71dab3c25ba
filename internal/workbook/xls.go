package workbook

import (
	"fmt"

	"github.com/shakinm/xlsReader/xls"
)

// readXLS handles legacy BIFF workbooks.
func readXLS(path, sheetName string) (Sheet, error) {
	book, err := xls.OpenFile(path)
	if err != nil {
		return Sheet{}, fmt.Errorf("%w: %v", ErrRead, err)
	}

	var out Sheet
	var ids []int
	for i := 0; i < book.GetNumberSheets(); i++ {
		s, err := book.GetSheet(i)
		if err != nil || s == nil {
			continue
		}
		out.Sheets = append(out.Sheets, s.GetName())
		ids = append(ids, i)
	}
	if len(out.Sheets) == 0 {
		return out, fmt.Errorf("%w: no sheets in %s", ErrRead, path)
	}

	idx := 0
	if name, ok := MatchSheet(out.Sheets, sheetName); ok {
		for i, s := range out.Sheets {
			if s == name {
				idx = i
				break
			}
		}
	} else {
		out.FellBack = true
	}
	out.Name = out.Sheets[idx]

	sheet, err := book.GetSheet(ids[idx])
	if err != nil {
		return out, fmt.Errorf("%w: sheet %s: %v", ErrRead, out.Name, err)
	}
	for _, row := range sheet.GetRows() {
		var vals []string
		for _, col := range row.GetCols() {
			vals = append(vals, col.GetString())
		}
		out.Rows = append(out.Rows, vals)
	}
	return out, nil
}
