package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"ControlPagos/internal/calendar"
	"ControlPagos/internal/pipeline"
)

// prompter asks the operator yes/no questions on a terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

func (p *prompter) readLine() (string, bool) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}

// confirm asks question and accepts s/si/y/yes. End of input is a no.
func (p *prompter) confirm(question string) bool {
	fmt.Fprintf(p.out, "%s (s/n): ", question)
	answer, ok := p.readLine()
	if !ok {
		return false
	}
	switch strings.ToLower(answer) {
	case "s", "si", "sí", "y", "yes":
		return true
	}
	return false
}

// onLocked is the interactive lock handler: Enter retries, C cancels.
func (p *prompter) onLocked(ctx context.Context, path string, attempt int) bool {
	if ctx.Err() != nil {
		return false
	}
	fmt.Fprintf(p.out, "\n%s está abierto o bloqueado (intento %d).\n", filepath.Base(path), attempt)
	fmt.Fprint(p.out, "Ciérrelo y presione Enter para reintentar, o C para cancelar: ")
	answer, ok := p.readLine()
	if !ok {
		return false
	}
	return !strings.EqualFold(answer, "c")
}

// confirmRun walks the operator through the pre-run checks.
func (p *prompter) confirmRun(pl *pipeline.Pipeline, date time.Time) bool {
	cfg := pl.Config()
	fmt.Fprintf(p.out, "Fecha de proyección: %s (%s)\n", calendar.FormatDMY(date), pl.Locale().Weekday(date))
	fmt.Fprintf(p.out, "Archivo de salida:   %s\n", pl.ProjectionPath(date))
	if date.Weekday() != time.Wednesday {
		if !p.confirm("La fecha no es miércoles. ¿Desea continuar?") {
			return false
		}
	}
	fmt.Fprintf(p.out, "Antes de continuar, actualice y cierre %s y %s.\n",
		filepath.Base(cfg.SourcePath), filepath.Base(cfg.LedgerPath))
	return p.confirm("¿Los archivos están actualizados y cerrados?")
}

// exitCode maps a run status to the process exit status.
func exitCode(status pipeline.Status) int {
	switch status {
	case pipeline.StatusFailed:
		return 1
	case pipeline.StatusCancelled:
		return 2
	}
	return 0
}
