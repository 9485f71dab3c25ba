package console

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ControlPagos/internal/config"
	"ControlPagos/internal/dashboard"
	"ControlPagos/internal/notification"
	"ControlPagos/internal/pipeline"
	"ControlPagos/internal/resource"
	"ControlPagos/internal/workbook"
)

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
	Rows    json.RawMessage `json:"rows"`
}

func newHandler(t *testing.T) *Handler {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.SourcePath = filepath.Join(dir, "CONTROL DE PAGOS.xlsx")
	cfg.LedgerPath = filepath.Join(dir, "CONTROL PAGOS.xlsx")
	cfg.OutputRoot = filepath.Join(dir, "proyeccion semana")
	cfg.TimeZone = "UTC"
	p, err := pipeline.New(cfg)
	require.NoError(t, err)

	reg := resource.NewRunRegistryService(nil)
	hub := dashboard.NewSSEServer(reg, time.Minute)
	notes := notification.NewNotificationService(10)
	return &Handler{
		Runner:        pipeline.NewRunner(p, reg, hub, notes),
		Registry:      reg,
		Hub:           hub,
		Notifications: notes,
		Policy:        workbook.NoRetry,
		Location:      time.UTC,
		Now:           func() time.Time { return time.Date(2026, 1, 7, 9, 0, 0, 0, time.UTC) },
	}
}

func do(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestConsole_DefaultDateIsNextWednesday(t *testing.T) {
	router := NewRouter(newHandler(t))
	rec, env := do(t, router, http.MethodGet, "/api/default-date", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var info dateInfo
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, "2026-01-14", info.Date)
	assert.Equal(t, "14/01/2026", info.Display)
	assert.True(t, info.Wednesday)
	assert.True(t, strings.HasSuffix(info.ProjectionPath, filepath.Join("AÑO 2026", "ENERO", "14 ENERO 2026.xlsx")))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestConsole_StartRunAndInspect(t *testing.T) {
	h := newHandler(t)
	router := NewRouter(h)

	rec, env := do(t, router, http.MethodPost, "/api/runs", `{"date":"2026-01-07"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var started struct {
		RunID string   `json:"run_id"`
		Date  dateInfo `json:"date"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &started))
	require.NotEmpty(t, started.RunID)
	assert.Equal(t, "2026-01-07", started.Date.Date)

	require.Eventually(t, func() bool {
		v, ok := h.Registry.Get(started.RunID)
		return ok && v.Outcome != nil
	}, 2*time.Second, 10*time.Millisecond)

	rec, env = do(t, router, http.MethodGet, "/api/runs/"+started.RunID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var run resource.RunView
	require.NoError(t, json.Unmarshal(env.Data, &run))
	assert.Equal(t, pipeline.StatusFailed, run.Status)
	assert.Equal(t, "source_not_found", run.Outcome.Kind)
	assert.Equal(t, "console", run.Trigger)
	assert.NotEmpty(t, run.Events)

	rec, env = do(t, router, http.MethodGet, "/api/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []resource.RunView
	require.NoError(t, json.Unmarshal(env.Rows, &runs))
	assert.Len(t, runs, 1)

	rec, env = do(t, router, http.MethodGet, "/api/notifications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var notes []notification.Notification
	require.NoError(t, json.Unmarshal(env.Rows, &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, started.RunID, notes[0].RunID)

	rec, _ = do(t, router, http.MethodGet, "/api/runs/"+started.RunID+"/events", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "event: outcome")
}

func TestConsole_RejectsBadInput(t *testing.T) {
	router := NewRouter(newHandler(t))

	rec, env := do(t, router, http.MethodPost, "/api/runs", `{"date":"07/01/2026"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)

	rec, _ = do(t, router, http.MethodPost, "/api/runs", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, router, http.MethodGet, "/api/runs/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, router, http.MethodPost, "/api/runs/unknown/cancel", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, router, http.MethodDelete, "/api/runs", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestConsole_SingleRunAndCancel(t *testing.T) {
	h := newHandler(t)
	router := NewRouter(h)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	done := make(chan pipeline.Outcome, 1)
	id, err := h.Runner.Start(context.Background(), pipeline.Request{
		Date: time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC),
		Sink: func(pipeline.Event) {
			once.Do(func() {
				close(entered)
				<-release
			})
		},
	}, func(out pipeline.Outcome) { done <- out })
	require.NoError(t, err)
	<-entered

	rec, env := do(t, router, http.MethodPost, "/api/runs", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "a run is already in progress", env.Error)

	rec, env = do(t, router, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), id)

	rec, _ = do(t, router, http.MethodPost, "/api/runs/"+id+"/cancel", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	close(release)

	out := <-done
	assert.Equal(t, pipeline.StatusCancelled, out.Status)

	rec, _ = do(t, router, http.MethodPost, "/api/runs/"+id+"/cancel", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}
