package workbook

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"ControlPagos/internal/checksum"
)

// ErrCopyMismatch means the copied bytes differ from the source.
var ErrCopyMismatch = errors.New("copied workbook does not match source checksum")

// CopyResult describes the projection workbook produced by PrepareProjectionCopy.
type CopyResult struct {
	Path     string
	Sheet    string
	Checksum string
	Removed  []string
	FellBack bool
}

// PrepareProjectionCopy copies src to dst keeping only the data sheet. The
// sheet is made visible and active and the copy is always stored as .xlsx.
// Nothing is created when src does not exist.
func PrepareProjectionCopy(ctx context.Context, src, dst, sheetName string, policy RetryPolicy) (CopyResult, error) {
	res := CopyResult{Path: dst}
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return res, fmt.Errorf("%w: %s", ErrSourceNotFound, src)
		}
		return res, fmt.Errorf("%w: %v", ErrRead, err)
	}
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return res, fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
	}
	if strings.EqualFold(filepath.Ext(src), ".xls") {
		return copyFromXLS(ctx, src, dst, sheetName, policy)
	}

	var data []byte
	err := policy.Do(ctx, src, func() error {
		var err error
		data, err = os.ReadFile(src)
		return err
	})
	if err != nil {
		return res, err
	}
	res.Checksum = checksum.Sum(data)

	tmp := filepath.Join(filepath.Dir(dst), ".copy-"+filepath.Base(src))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return res, fmt.Errorf("write %s: %w", tmp, err)
	}
	defer os.Remove(tmp)

	ok, err := checksum.NewChecksumMatcher(res.Checksum).MatchFile(tmp)
	if err != nil {
		return res, err
	}
	if !ok {
		return res, fmt.Errorf("%w: %s", ErrCopyMismatch, src)
	}

	f, err := excelize.OpenFile(tmp)
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrRead, err)
	}
	defer f.Close()

	name, ok := MatchSheet(f.GetSheetList(), sheetName)
	if !ok {
		name, res.FellBack = f.GetSheetName(0), true
		log.Printf("[Workbook] sheet %q not found in %s, using %q", sheetName, filepath.Base(src), name)
	}
	res.Sheet = name

	if err := f.SetSheetVisible(name, true); err != nil {
		return res, fmt.Errorf("show sheet %s: %w", name, err)
	}
	for _, other := range f.GetSheetList() {
		if other == name {
			continue
		}
		if err := f.DeleteSheet(other); err != nil {
			log.Printf("[Workbook] could not remove sheet %q: %v", other, err)
			continue
		}
		res.Removed = append(res.Removed, other)
	}
	if idx, err := f.GetSheetIndex(name); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	err = policy.Do(ctx, dst, func() error {
		if err := CheckUnlocked(dst); err != nil {
			return err
		}
		return f.SaveAs(dst)
	})
	return res, err
}

func copyFromXLS(ctx context.Context, src, dst, sheetName string, policy RetryPolicy) (CopyResult, error) {
	res := CopyResult{Path: dst}
	s, err := readXLS(src, sheetName)
	if err != nil {
		return res, err
	}
	res.Sheet, res.FellBack = s.Name, s.FellBack
	if sum, err := checksum.SumFile(src); err == nil {
		res.Checksum = sum
	}
	for _, other := range s.Sheets {
		if other != s.Name {
			res.Removed = append(res.Removed, other)
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", s.Name); err != nil {
		return res, err
	}
	for i, row := range s.Rows {
		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(s.Name, cell, &vals); err != nil {
			return res, err
		}
	}
	err = policy.Do(ctx, dst, func() error {
		if err := CheckUnlocked(dst); err != nil {
			return err
		}
		return f.SaveAs(dst)
	})
	return res, err
}
