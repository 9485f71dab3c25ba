package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ControlPagos/internal/schema"
)

const servicesYAML = `
services:
  - name: logger
    start_order: 1
    config:
      folder_path: ./logs
pipeline:
  source_path: "C:/Escritorio/CONTROL DE PAGOS.xlsx"
  match_mode: week
  blank_separators: true
  retry:
    max_attempts: 3
    delay: 2s
  aliases:
    - header: "IMPORTE USD"
      field: amount_to_pay
      priority: 4
`

func TestParse(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(servicesYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "C:/Escritorio/CONTROL DE PAGOS.xlsx", cfg.SourcePath)
	assert.Equal(t, DefaultSourceSheet, cfg.SourceSheet)
	assert.Equal(t, DefaultLedgerFile, cfg.LedgerPath)
	assert.Equal(t, "week", cfg.MatchMode)
	assert.True(t, cfg.BlankSeparators)
	assert.False(t, cfg.StatusFallback)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)

	d, err := cfg.RetryDelay()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)

	a, ok := cfg.AliasTable().Lookup("importe usd")
	require.True(t, ok)
	assert.Equal(t, schema.AmountToPay, a.Field)
}

func TestParse_EmptyDocumentKeepsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte("services: []\n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"CONTROL_PAGOS_SOURCE":          "/data/control.xlsm",
		"CONTROL_PAGOS_STATUS_FALLBACK": "true",
		"CONTROL_PAGOS_RETRY_ATTEMPTS":  "0",
		"CONTROL_PAGOS_MATCH_MODE":      " ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "/data/control.xlsm", cfg.SourcePath)
	assert.True(t, cfg.StatusFallback)
	assert.Equal(t, 0, cfg.Retry.MaxAttempts)
	assert.Equal(t, DefaultMatchMode, cfg.MatchMode)

	env["CONTROL_PAGOS_BLANK_SEPARATORS"] = "maybe"
	assert.Error(t, cfg.ApplyEnv(lookup))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.MatchMode = "month"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Retry.Delay = "soon"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Aliases = []schema.Alias{{Header: "X", Field: "NOPE"}}
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.TimeZone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())
}

func TestServiceValues(t *testing.T) {
	t.Parallel()

	cfg := map[string]interface{}{
		"port":     8143,
		"attempts": 4.0,
		"text":     "7",
		"enabled":  true,
		"delay":    "1m",
		"secs":     5,
	}
	assert.Equal(t, 8143, Int(cfg, "port", 0))
	assert.Equal(t, 4, Int(cfg, "attempts", 0))
	assert.Equal(t, 7, Int(cfg, "text", 0))
	assert.Equal(t, 9, Int(cfg, "missing", 9))
	assert.Equal(t, 9, Int(nil, "port", 9))
	assert.True(t, Bool(cfg, "enabled", false))
	assert.Equal(t, "d", String(cfg, "nope", "d"))
	assert.Equal(t, time.Minute, Duration(cfg, "delay", 0))
	assert.Equal(t, 5*time.Second, Duration(cfg, "secs", 0))
}
