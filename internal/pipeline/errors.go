package pipeline

import (
	"errors"
	"fmt"
	"time"

	"ControlPagos/internal/filter"
	"ControlPagos/internal/ledger"
	"ControlPagos/internal/workbook"
)

var (
	ErrSourceNotFound   = workbook.ErrSourceNotFound
	ErrFileLocked       = workbook.ErrFileLocked
	ErrCancelled        = workbook.ErrCancelled
	ErrRead             = workbook.ErrRead
	ErrSchema           = filter.ErrSchema
	ErrNoRecordsMatched = errors.New("no records found for the business date")
	ErrWrite            = errors.New("write failed")
	ErrRunInProgress    = errors.New("a run is already in progress")
)

// Status is the terminal state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusNoRecords Status = "no_records"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Outcome summarizes a finished run.
type Outcome struct {
	RunID           string    `json:"run_id"`
	Status          Status    `json:"status"`
	Kind            string    `json:"kind,omitempty"`
	Error           string    `json:"error,omitempty"`
	Date            time.Time `json:"date"`
	ProjectionPath  string    `json:"projection_path,omitempty"`
	ProjectionSheet string    `json:"projection_sheet,omitempty"`
	LedgerPath      string    `json:"ledger_path,omitempty"`
	Matched         int       `json:"matched"`
	Groups          int       `json:"groups"`
	LedgerRows      int       `json:"ledger_rows"`
	Warnings        int       `json:"warnings"`
	Started         time.Time `json:"started"`
	Finished        time.Time `json:"finished"`
	Err             error     `json:"-"`
}

// StatusFor maps a run error onto its terminal status.
func StatusFor(err error) Status {
	switch {
	case err == nil:
		return StatusSucceeded
	case errors.Is(err, ErrCancelled):
		return StatusCancelled
	case errors.Is(err, ErrNoRecordsMatched), errors.Is(err, ErrSchema):
		return StatusNoRecords
	}
	return StatusFailed
}

// KindOf names the error category for operators and the console.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrSourceNotFound):
		return "source_not_found"
	case errors.Is(err, ErrFileLocked):
		return "file_locked"
	case errors.Is(err, ErrSchema), errors.Is(err, ledger.ErrMissingLedgerFields):
		return "schema"
	case errors.Is(err, ErrNoRecordsMatched):
		return "no_records"
	case errors.Is(err, ErrRead):
		return "read"
	case errors.Is(err, ErrWrite):
		return "write"
	}
	return "internal"
}

// writeFailure tags err as a write failure unless it is lock contention or
// an operator cancel, which keep their own category.
func writeFailure(step string, err error) error {
	if errors.Is(err, ErrFileLocked) || errors.Is(err, ErrCancelled) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrWrite, step, err)
}
