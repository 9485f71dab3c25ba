package jobs

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ControlPagos/internal/config"
	"ControlPagos/internal/pipeline"
)

func newRunner(t *testing.T) *pipeline.Runner {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.SourcePath = filepath.Join(dir, "missing.xlsx")
	cfg.LedgerPath = filepath.Join(dir, "ledger.xlsx")
	cfg.OutputRoot = filepath.Join(dir, "out")
	cfg.TimeZone = "UTC"
	p, err := pipeline.New(cfg)
	require.NoError(t, err)
	return pipeline.NewRunner(p)
}

func TestNewScheduleConfig(t *testing.T) {
	t.Setenv(config.EnvPrefix+"SCHEDULE", "")
	sc := NewScheduleConfig(map[string]interface{}{"retry_attempts": 3, "retry_delay": "2s"})
	assert.True(t, sc.Enabled)
	assert.Equal(t, config.DefaultSchedule, sc.Schedule)
	assert.Equal(t, 3, sc.RetryAttempts)
	assert.Equal(t, 2*time.Second, sc.RetryDelay)

	t.Setenv(config.EnvPrefix+"SCHEDULE", "30 6 * * 2")
	assert.Equal(t, "30 6 * * 2", NewScheduleConfig(nil).Schedule)
}

func TestCronService_RunTickTargetsNextWednesday(t *testing.T) {
	s := NewCronService(map[string]interface{}{"retry_attempts": 1}, newRunner(t))
	s.now = func() time.Time { return time.Date(2026, 1, 6, 7, 0, 0, 0, time.UTC) }

	out, ran := s.RunTick()
	require.True(t, ran)
	assert.Equal(t, time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), out.Date)
	assert.Equal(t, pipeline.StatusFailed, out.Status)
	assert.Equal(t, "source_not_found", out.Kind)
}

func TestCronService_StartStop(t *testing.T) {
	t.Setenv(config.EnvPrefix+"SCHEDULE", "")

	s := NewCronService(map[string]interface{}{"enabled": false}, newRunner(t))
	assert.Equal(t, "scheduler", s.Name())
	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())

	bad := NewCronService(map[string]interface{}{"schedule": "not a cron"}, newRunner(t))
	assert.Error(t, bad.Start())

	ok := NewCronService(map[string]interface{}{"schedule": "0 7 * * 2", "timezone": "UTC"}, newRunner(t))
	require.NoError(t, ok.Start())
	require.NoError(t, ok.Stop())
}
