package workbook

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"ControlPagos/internal/ledger"
)

// ErrLedgerNotFound means the master ledger workbook does not exist.
var ErrLedgerNotFound = errors.New("ledger workbook not found")

// DefaultLedgerSheets are the accepted names of the ledger sheet.
var DefaultLedgerSheets = []string{"Pagos Importación", "Pagos importacion"}

// LedgerOptions configures AppendLedger.
type LedgerOptions struct {
	SheetNames []string
	Policy     RetryPolicy
}

// AppendResult reports where ledger rows were written.
type AppendResult struct {
	Sheet    string
	FellBack bool
	FirstRow int
	LastRow  int
	Table    string // name of the resized table, if any
	Warnings []string
}

// AppendLedger writes rows after the last populated cell of column A. When
// the sheet holds a table its range is extended to cover the new rows.
func AppendLedger(ctx context.Context, path string, rows []ledger.Row, opts LedgerOptions) (AppendResult, error) {
	var res AppendResult
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return res, fmt.Errorf("%w: %s", ErrLedgerNotFound, path)
		}
		return res, err
	}
	if len(rows) == 0 {
		return res, nil
	}
	names := opts.SheetNames
	if len(names) == 0 {
		names = DefaultLedgerSheets
	}

	err := opts.Policy.Do(ctx, path, func() error {
		res = AppendResult{}
		if err := CheckUnlocked(path); err != nil {
			return err
		}
		f, err := excelize.OpenFile(path)
		if err != nil {
			return err
		}
		defer f.Close()

		if err := appendRows(f, names, rows, &res); err != nil {
			return err
		}
		return f.Save()
	})
	return res, err
}

func appendRows(f *excelize.File, names []string, rows []ledger.Row, res *AppendResult) error {
	sheets := f.GetSheetList()
	for _, n := range names {
		if s, ok := MatchSheet(sheets, n); ok {
			res.Sheet = s
			break
		}
	}
	if res.Sheet == "" {
		res.Sheet = f.GetSheetName(f.GetActiveSheetIndex())
		res.FellBack = true
		res.Warnings = append(res.Warnings, fmt.Sprintf("ledger sheet not found, using active sheet %q", res.Sheet))
	}

	lastRow, err := lastRowInColumnA(f, res.Sheet)
	if err != nil {
		return err
	}
	res.FirstRow = lastRow + 1
	res.LastRow = lastRow + len(rows)

	for i, r := range rows {
		vals := make([]interface{}, len(r))
		copy(vals, r[:])
		cell, _ := excelize.CoordinatesToCellName(1, res.FirstRow+i)
		if err := f.SetSheetRow(res.Sheet, cell, &vals); err != nil {
			return fmt.Errorf("write row %d: %w", res.FirstRow+i, err)
		}
	}

	if name, err := resizeTable(f, res.Sheet, res.LastRow); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("could not resize table: %v", err))
		log.Printf("[Workbook] could not resize table on %s: %v", res.Sheet, err)
	} else {
		res.Table = name
	}
	return nil
}

func lastRowInColumnA(f *excelize.File, sheet string) (int, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return 0, err
	}
	last := 0
	for i, r := range rows {
		if len(r) > 0 && strings.TrimSpace(r[0]) != "" {
			last = i + 1
		}
	}
	return last, nil
}

// resizeTable extends the first table on sheet down to lastRow. It returns
// the table name, or "" when the sheet has no table.
func resizeTable(f *excelize.File, sheet string, lastRow int) (string, error) {
	tables, err := f.GetTables(sheet)
	if err != nil {
		return "", err
	}
	if len(tables) == 0 {
		return "", nil
	}
	t := tables[0]
	bounds := strings.Split(strings.ReplaceAll(t.Range, "$", ""), ":")
	if len(bounds) != 2 {
		return "", fmt.Errorf("unexpected table range %q", t.Range)
	}
	endCol, endRow, err := excelize.CellNameToCoordinates(bounds[1])
	if err != nil {
		return "", err
	}
	if lastRow <= endRow {
		return t.Name, nil
	}
	startCol, headerRow, err := excelize.CellNameToCoordinates(bounds[0])
	if err != nil {
		return "", err
	}
	endCol = headerEnd(f, sheet, headerRow, endCol, startCol+ledger.Width-1)
	end, err := excelize.CoordinatesToCellName(endCol, lastRow)
	if err != nil {
		return "", err
	}

	if err := f.DeleteTable(t.Name); err != nil {
		return "", err
	}
	resized := &excelize.Table{
		Range:             bounds[0] + ":" + end,
		Name:              t.Name,
		StyleName:         t.StyleName,
		ShowColumnStripes: t.ShowColumnStripes,
		ShowFirstColumn:   t.ShowFirstColumn,
		ShowHeaderRow:     t.ShowHeaderRow,
		ShowLastColumn:    t.ShowLastColumn,
		ShowRowStripes:    t.ShowRowStripes,
	}
	if err := f.AddTable(sheet, resized); err != nil {
		return "", err
	}
	return t.Name, nil
}

// headerEnd extends endCol over the non-blank header cells that follow it, up
// to limit. Blank headers are left alone: a table over them would rename them.
func headerEnd(f *excelize.File, sheet string, row, endCol, limit int) int {
	for col := endCol + 1; col <= limit; col++ {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			break
		}
		v, err := f.GetCellValue(sheet, cell)
		if err != nil || strings.TrimSpace(v) == "" {
			break
		}
		endCol = col
	}
	return endCol
}
