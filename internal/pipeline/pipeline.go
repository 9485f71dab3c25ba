package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"ControlPagos/internal/calendar"
	"ControlPagos/internal/config"
	"ControlPagos/internal/filter"
	"ControlPagos/internal/grouping"
	"ControlPagos/internal/ledger"
	"ControlPagos/internal/schema"
	"ControlPagos/internal/workbook"
)

// Request is one run of the pipeline.
type Request struct {
	RunID   string
	Date    time.Time
	Trigger string // cli, console, scheduler
	// Policy overrides the configured lock policy, e.g. with an interactive prompt.
	Policy *workbook.RetryPolicy
	Sink   Sink
}

// Pipeline copies the control workbook, filters the rows due on the business
// date, writes the grouped projection sheet and appends the ledger.
type Pipeline struct {
	cfg        config.PipelineConfig
	locale     calendar.Locale
	normalizer *schema.Normalizer
	mode       filter.MatchMode
	policy     workbook.RetryPolicy
	now        func() time.Time
}

// New validates cfg and builds a Pipeline.
func New(cfg config.PipelineConfig) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := filter.ParseMatchMode(cfg.MatchMode)
	if err != nil {
		return nil, err
	}
	delay, err := cfg.RetryDelay()
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:        cfg,
		locale:     calendar.LocaleByCode(cfg.Locale),
		normalizer: schema.NewNormalizer(cfg.AliasTable()),
		mode:       mode,
		policy:     workbook.RetryPolicy{MaxAttempts: cfg.Retry.MaxAttempts, Delay: delay},
		now:        time.Now,
	}, nil
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() config.PipelineConfig { return p.cfg }

// Locale returns the naming locale for output files and sheets.
func (p *Pipeline) Locale() calendar.Locale { return p.locale }

// ProjectionPath is where the projection workbook for date is written.
func (p *Pipeline) ProjectionPath(date time.Time) string {
	return filepath.Join(p.locale.ProjectionDir(p.cfg.OutputRoot, date), p.locale.ProjectionFileName(date))
}

// Run executes one run to completion. It never panics on data problems; the
// returned Outcome carries the terminal status and error.
func (p *Pipeline) Run(ctx context.Context, req Request) Outcome {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	date := calendar.Date(req.Date)
	em := &emitter{runID: req.RunID, sink: req.Sink, now: p.now}
	out := Outcome{RunID: req.RunID, Date: date, Started: p.now()}

	err := p.run(ctx, date, req, em, &out)
	out.Finished = p.now()
	out.Status = StatusFor(err)
	out.Kind = KindOf(err)
	out.Err = err
	if err != nil {
		out.Error = err.Error()
	}

	switch out.Status {
	case StatusSucceeded:
		em.ok("Proceso completado: %d registros, %d grupos, %d filas en el ledger", out.Matched, out.Groups, out.LedgerRows)
	case StatusNoRecords:
		em.warn("No se encontraron registros para %s", calendar.FormatDMY(date))
	case StatusCancelled:
		em.warn("Proceso cancelado: %v", err)
	default:
		em.fail("Error: %v", err)
	}
	return out
}

func (p *Pipeline) run(ctx context.Context, date time.Time, req Request, em *emitter, out *Outcome) error {
	policy := p.policy
	if req.Policy != nil {
		policy = *req.Policy
	}
	cfg := p.cfg
	warn := func(format string, args ...interface{}) {
		out.Warnings++
		em.warn(format, args...)
	}

	em.step("Fecha de proyección: %s (%s)", calendar.FormatDMY(date), p.locale.Weekday(date))
	if date.Weekday() != time.Wednesday {
		warn("La fecha seleccionada es %s, no miércoles", p.locale.Weekday(date))
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCancelled, err)
	}

	if _, err := os.Stat(cfg.SourcePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceNotFound, cfg.SourcePath)
		}
		return fmt.Errorf("%w: %v", ErrRead, err)
	}

	out.ProjectionPath = p.ProjectionPath(date)
	em.step("Copiando %s", filepath.Base(cfg.SourcePath))
	copied, err := workbook.PrepareProjectionCopy(ctx, cfg.SourcePath, out.ProjectionPath, cfg.SourceSheet, policy)
	if err != nil {
		if errors.Is(err, ErrSourceNotFound) || errors.Is(err, ErrFileLocked) || errors.Is(err, ErrCancelled) || errors.Is(err, ErrRead) {
			return err
		}
		return writeFailure("copy", err)
	}
	em.ok("Archivo creado: %s", out.ProjectionPath)
	if copied.FellBack {
		warn("Hoja %q no encontrada, se usa %q", cfg.SourceSheet, copied.Sheet)
	}
	if len(copied.Removed) > 0 {
		em.info("Hojas eliminadas de la copia: %s", strings.Join(copied.Removed, ", "))
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCancelled, err)
	}

	em.step("Leyendo hoja %s", copied.Sheet)
	sheet, err := workbook.ReadSheet(out.ProjectionPath, copied.Sheet)
	if err != nil {
		return err
	}
	records, cols := p.normalizer.NormalizeSheet(sheet.Rows)
	em.info("%d filas leídas; columnas encontradas: %s", len(records), joinFields(cols.Found()))
	if missing := cols.Missing(); len(missing) > 0 {
		em.info("Columnas ausentes: %s", joinFields(missing))
	}

	criteria := filter.Criteria{
		Date:           date,
		Mode:           p.mode,
		PendingToken:   cfg.PendingToken,
		StatusFallback: cfg.StatusFallback,
	}
	em.step("Filtrando por fecha (%s) y estado %q", p.mode, strings.ToUpper(criteria.PendingToken))
	res, err := filter.Filter(records, cols, criteria)
	if err != nil {
		warn("%v", err)
		return err
	}
	em.info("Columna de fecha: %s", res.DateColumn)
	if res.Unparseable > 0 {
		warn("%d fechas no se pudieron interpretar y se excluyeron", res.Unparseable)
	}
	if res.FellBack {
		warn("Ningún registro con estado %q; se incluyen los %d registros de la fecha", criteria.PendingToken, res.DateMatches)
	} else if res.DateMatches > 0 && len(res.Matched) == 0 {
		warn("%d registros en la fecha pero ninguno pendiente; estados encontrados: %s", res.DateMatches, quoteAll(res.StatusesSeen))
	}
	out.Matched = len(res.Matched)
	if out.Matched == 0 {
		return ErrNoRecordsMatched
	}
	em.ok("%d registros seleccionados", out.Matched)

	rows, err := ledger.Project(res.Matched, cols, date)
	if err != nil {
		return err
	}

	groups, stats := grouping.Aggregate(res.Matched)
	out.Groups = stats.Groups
	if stats.CoercedAmounts > 0 {
		warn("%d valores no numéricos en VALOR A PAGAR se tomaron como 0 (filas %s)", stats.CoercedAmounts, joinInts(stats.CoercedRows))
	}
	report := grouping.Rows(groups, grouping.RenderOptions{
		BlankSeparators: cfg.BlankSeparators,
		SeparatorRows:   cfg.SeparatorRows,
	})

	out.ProjectionSheet = p.locale.ProjectionSheetName(date)
	em.step("Escribiendo hoja %s (%d grupos)", out.ProjectionSheet, out.Groups)
	if err := workbook.WriteReport(ctx, out.ProjectionPath, out.ProjectionSheet, report, policy); err != nil {
		return writeFailure("projection sheet", err)
	}
	em.ok("Proyección guardada")

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCancelled, err)
	}

	out.LedgerPath = cfg.LedgerPath
	em.step("Anexando %d registros a %s", len(rows), filepath.Base(cfg.LedgerPath))
	appended, err := workbook.AppendLedger(ctx, cfg.LedgerPath, rows, workbook.LedgerOptions{
		SheetNames: cfg.LedgerSheets,
		Policy:     policy,
	})
	if err != nil {
		return writeFailure("ledger append", err)
	}
	for _, w := range appended.Warnings {
		warn("%s", w)
	}
	out.LedgerRows = len(rows)
	if appended.Table != "" {
		em.ok("Tabla %s expandida hasta la fila %d", appended.Table, appended.LastRow)
	}
	em.ok("Registros anexados en %s, filas %d a %d", appended.Sheet, appended.FirstRow, appended.LastRow)
	return nil
}

func joinFields(fs []schema.Field) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = string(f)
	}
	return strings.Join(parts, ", ")
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}

func quoteAll(ss []string) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(parts, ", ")
}
