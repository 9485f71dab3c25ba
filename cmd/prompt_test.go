package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ControlPagos/internal/config"
	"ControlPagos/internal/pipeline"
)

func TestPrompter_Confirm(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("s\nno\nSí\n"), &out)
	assert.True(t, p.confirm("uno"))
	assert.False(t, p.confirm("dos"))
	assert.True(t, p.confirm("tres"))
	assert.False(t, p.confirm("sin entrada"))
	assert.Contains(t, out.String(), "uno (s/n): ")
}

func TestPrompter_OnLocked(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("\nc\n"), &out)
	ctx := context.Background()
	assert.True(t, p.onLocked(ctx, "/tmp/CONTROL PAGOS.xlsx", 1))
	assert.False(t, p.onLocked(ctx, "/tmp/CONTROL PAGOS.xlsx", 2))
	assert.Contains(t, out.String(), "CONTROL PAGOS.xlsx está abierto")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.False(t, newPrompter(strings.NewReader("\n"), &out).onLocked(cancelled, "x.xlsx", 1))
}

func TestPrompter_ConfirmRun(t *testing.T) {
	cfg := config.Default()
	cfg.OutputRoot = filepath.Join(t.TempDir(), "out")
	cfg.TimeZone = "UTC"
	p, err := pipeline.New(cfg)
	require.NoError(t, err)

	var out bytes.Buffer
	wednesday := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	assert.True(t, newPrompter(strings.NewReader("s\n"), &out).confirmRun(p, wednesday))
	assert.Contains(t, out.String(), "07 ENERO 2026.xlsx")
	assert.NotContains(t, out.String(), "no es miércoles")

	out.Reset()
	thursday := wednesday.AddDate(0, 0, 1)
	assert.False(t, newPrompter(strings.NewReader("n\n"), &out).confirmRun(p, thursday))
	assert.Contains(t, out.String(), "no es miércoles")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(pipeline.StatusSucceeded))
	assert.Equal(t, 0, exitCode(pipeline.StatusNoRecords))
	assert.Equal(t, 1, exitCode(pipeline.StatusFailed))
	assert.Equal(t, 2, exitCode(pipeline.StatusCancelled))
}
