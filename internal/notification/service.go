package notification

import (
	"fmt"
	"sync"
	"time"

	"ControlPagos/internal/calendar"
	"ControlPagos/internal/pipeline"
)

// Notification is one line of the operator feed, written when a run ends.
type Notification struct {
	RunID   string          `json:"run_id"`
	Status  pipeline.Status `json:"status"`
	Message string          `json:"message"`
	Time    time.Time       `json:"time"`
}

// NotificationService keeps the latest notifications, oldest dropped first.
type NotificationService struct {
	mu            sync.Mutex
	notifications []Notification
	limit         int
}

func NewNotificationService(limit int) *NotificationService {
	if limit <= 0 {
		limit = 50
	}
	return &NotificationService{
		notifications: make([]Notification, 0, limit),
		limit:         limit,
	}
}

func (ns *NotificationService) AddNotification(n Notification) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if n.Time.IsZero() {
		n.Time = time.Now()
	}
	if len(ns.notifications) >= ns.limit {
		ns.notifications = append(ns.notifications[:0], ns.notifications[1:]...)
	}
	ns.notifications = append(ns.notifications, n)
}

// GetNotifications returns the feed newest first.
func (ns *NotificationService) GetNotifications() []Notification {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	out := make([]Notification, len(ns.notifications))
	for i, n := range ns.notifications {
		out[len(out)-1-i] = n
	}
	return out
}

func (ns *NotificationService) ClearNotifications() {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.notifications = ns.notifications[:0]
}

func (ns *NotificationService) RunStarted(pipeline.RunInfo) {}

func (ns *NotificationService) RunEvent(pipeline.Event) {}

func (ns *NotificationService) RunFinished(out pipeline.Outcome) {
	ns.AddNotification(Notification{
		RunID:   out.RunID,
		Status:  out.Status,
		Message: Summarize(out),
		Time:    out.Finished,
	})
}

// Summarize renders the one-line result of a run.
func Summarize(out pipeline.Outcome) string {
	date := calendar.FormatDMY(out.Date)
	switch out.Status {
	case pipeline.StatusSucceeded:
		return fmt.Sprintf("Proyección %s: %d registros en %d grupos, %d filas anexadas", date, out.Matched, out.Groups, out.LedgerRows)
	case pipeline.StatusNoRecords:
		return fmt.Sprintf("Proyección %s: sin registros pendientes", date)
	case pipeline.StatusCancelled:
		return fmt.Sprintf("Proyección %s: cancelada", date)
	default:
		return fmt.Sprintf("Proyección %s: error (%s) %s", date, out.Kind, out.Error)
	}
}
