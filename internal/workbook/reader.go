package workbook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"ControlPagos/internal/schema"
)

var (
	// ErrSourceNotFound means the workbook path does not exist.
	ErrSourceNotFound = errors.New("source workbook not found")
	// ErrRead wraps any failure to open or parse a workbook.
	ErrRead = errors.New("could not read workbook")
)

// Sheet is a worksheet read as text rows.
type Sheet struct {
	Name   string
	Rows   [][]string
	Sheets []string
	// FellBack is set when the requested sheet was not found and the first
	// sheet was used instead.
	FellBack bool
}

// MatchSheet finds name among sheets ignoring case, accents and padding.
func MatchSheet(sheets []string, name string) (string, bool) {
	want := schema.NormalizeHeader(name)
	for _, s := range sheets {
		if schema.NormalizeHeader(s) == want {
			return s, true
		}
	}
	return "", false
}

// ReadSheet reads sheetName from an .xlsx/.xlsm (excelize) or .xls workbook.
// Numbers and dates come back as their raw stored values.
func ReadSheet(path, sheetName string) (Sheet, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Sheet{}, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return Sheet{}, fmt.Errorf("%w: %v", ErrRead, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".xls") {
		return readXLS(path, sheetName)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		if IsLocked(path, err) {
			return Sheet{}, fmt.Errorf("%w: %v", ErrFileLocked, err)
		}
		return Sheet{}, fmt.Errorf("%w: %v", ErrRead, err)
	}
	defer f.Close()

	out := Sheet{Sheets: f.GetSheetList()}
	if len(out.Sheets) == 0 {
		return out, fmt.Errorf("%w: %s has no sheets", ErrRead, filepath.Base(path))
	}
	name, ok := MatchSheet(out.Sheets, sheetName)
	if !ok {
		name, out.FellBack = out.Sheets[0], true
	}
	out.Name = name

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return out, fmt.Errorf("%w: sheet %s: %v", ErrRead, name, err)
	}
	out.Rows = rows
	return out, nil
}
