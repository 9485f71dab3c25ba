package console

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"ControlPagos/api"
	"ControlPagos/api/constants"
	"ControlPagos/internal/calendar"
	"ControlPagos/internal/dashboard"
	"ControlPagos/internal/notification"
	"ControlPagos/internal/pipeline"
	"ControlPagos/internal/resource"
	"ControlPagos/internal/workbook"
)

// Handler serves the operator console API.
type Handler struct {
	Runner        *pipeline.Runner
	Registry      *resource.RunRegistry
	Hub           *dashboard.SSEServer
	Notifications *notification.NotificationService
	// Policy is the lock policy of console runs. Cancel ends a wait early.
	Policy   workbook.RetryPolicy
	Location *time.Location
	Now      func() time.Time
}

type runRequest struct {
	Date string `json:"date"`
}

type dateInfo struct {
	Date           string `json:"date"`
	Display        string `json:"display"`
	Weekday        string `json:"weekday"`
	Wednesday      bool   `json:"wednesday"`
	ProjectionPath string `json:"projection_path"`
}

func (h *Handler) now() time.Time {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	loc := h.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc)
}

func (h *Handler) describe(date time.Time) dateInfo {
	p := h.Runner.Pipeline()
	return dateInfo{
		Date:           date.Format(constants.DateFormat),
		Display:        calendar.FormatDMY(date),
		Weekday:        p.Locale().Weekday(date),
		Wednesday:      date.Weekday() == time.Wednesday,
		ProjectionPath: p.ProjectionPath(date),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	active, busy := h.Runner.Active()
	api.RespondWithData(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"busy":       busy,
		"active_run": active,
	})
}

func (h *Handler) DefaultDate(w http.ResponseWriter, r *http.Request) {
	api.RespondWithData(w, http.StatusOK, h.describe(calendar.NextWednesday(h.now())))
}

func (h *Handler) StartRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
		return
	}

	date := calendar.NextWednesday(h.now())
	if s := strings.TrimSpace(req.Date); s != "" {
		parsed, err := time.ParseInLocation(constants.DateFormat, s, date.Location())
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidDate)
			return
		}
		date = parsed
	}

	policy := h.Policy
	id, err := h.Runner.Start(context.Background(), pipeline.Request{
		Date:    date,
		Trigger: "console",
		Policy:  &policy,
	}, nil)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		api.RespondWithError(w, http.StatusConflict, constants.ErrRunInProgress)
		return
	}
	if err != nil {
		api.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	api.LogInfo("[Console] Run %s started for %s", id, calendar.FormatDMY(date))
	api.RespondWithData(w, http.StatusAccepted, map[string]interface{}{
		"run_id": id,
		"date":   h.describe(date),
	})
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	api.RespondWithPayload(w, true, "", h.Registry.List())
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.Registry.Get(mux.Vars(r)["id"])
	if !ok {
		api.RespondWithError(w, http.StatusNotFound, constants.ErrRunNotFound)
		return
	}
	api.RespondWithData(w, http.StatusOK, run)
}

func (h *Handler) CancelRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if h.Runner.Cancel(id) {
		api.LogInfo("[Console] Run %s cancelled by operator", id)
		api.RespondWithData(w, http.StatusAccepted, map[string]string{"run_id": id})
		return
	}
	if _, ok := h.Registry.Get(id); ok {
		api.RespondWithError(w, http.StatusConflict, constants.ErrRunNotActive)
		return
	}
	api.RespondWithError(w, http.StatusNotFound, constants.ErrRunNotFound)
}

func (h *Handler) RunEvents(w http.ResponseWriter, r *http.Request) {
	h.Hub.ServeRun(w, r, mux.Vars(r)["id"])
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	api.RespondWithPayload(w, true, "", h.Notifications.GetNotifications())
}
