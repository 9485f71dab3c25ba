package filter

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"ControlPagos/internal/calendar"
	"ControlPagos/internal/schema"
)

// ErrSchema is returned when the due date or status column cannot be located.
var ErrSchema = errors.New("required columns not found")

// DefaultPendingToken marks rows still awaiting payment ("POR PAGAR").
const DefaultPendingToken = "PAGAR"

// MatchMode selects how DUE_DATE is compared with the business date.
type MatchMode string

const (
	// MatchDay keeps rows due exactly on the business date.
	MatchDay MatchMode = "day"
	// MatchWeek keeps rows due in the Monday to Sunday week of the business date.
	MatchWeek MatchMode = "week"
)

// ParseMatchMode validates a configured mode. Empty means MatchDay.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchDay:
		return MatchDay, nil
	case MatchWeek:
		return MatchWeek, nil
	}
	return "", fmt.Errorf("invalid match mode %q (want %q or %q)", s, MatchDay, MatchWeek)
}

// Criteria holds the business date and the status predicate settings.
type Criteria struct {
	Date         time.Time
	Mode         MatchMode
	PendingToken string
	// StatusFallback returns every date match, with a warning, when none of
	// them carries the pending token.
	StatusFallback bool
}

// NewCriteria returns exact-day criteria with the default pending token.
func NewCriteria(date time.Time) Criteria {
	return Criteria{Date: date, Mode: MatchDay, PendingToken: DefaultPendingToken}
}

// MatchesDate applies the date policy to a parsed due date.
func (c Criteria) MatchesDate(due time.Time) bool {
	if c.Mode == MatchWeek {
		return calendar.InWeek(due, c.Date)
	}
	return calendar.SameDay(due, c.Date)
}

// IsPending reports whether status contains token, case-insensitively.
func IsPending(status, token string) bool {
	s := strings.ToUpper(strings.TrimSpace(status))
	if s == "" {
		return false
	}
	if token == "" {
		token = DefaultPendingToken
	}
	return strings.Contains(s, strings.ToUpper(strings.TrimSpace(token)))
}

// Result is the outcome of Filter.
type Result struct {
	Matched      []schema.Record
	DateColumn   string
	DateMatches  int
	Unparseable  int
	FellBack     bool
	StatusesSeen []string // distinct statuses of date matches that failed the status check
}

// Filter keeps the records due on the criteria date whose status is pending,
// preserving input order.
func Filter(records []schema.Record, cols schema.Columns, c Criteria) (Result, error) {
	res := Result{DateColumn: cols.Header(schema.DueDate)}
	if !cols.Has(schema.DueDate) || !cols.Has(schema.Status) {
		var missing []string
		if !cols.Has(schema.DueDate) {
			missing = append(missing, "FECHA DE VENCIMIENTO/FECHA DE PAGO")
		}
		if !cols.Has(schema.Status) {
			missing = append(missing, "ESTADO")
		}
		return res, fmt.Errorf("%w: %s", ErrSchema, strings.Join(missing, ", "))
	}

	var dated []schema.Record
	seen := map[string]bool{}
	for _, r := range records {
		due, err := ParseDate(r.DueDate)
		if err != nil {
			if strings.TrimSpace(r.DueDate) != "" {
				res.Unparseable++
			}
			continue
		}
		if !c.MatchesDate(due) {
			continue
		}
		dated = append(dated, r)
		if IsPending(r.Status, c.PendingToken) {
			res.Matched = append(res.Matched, r)
			continue
		}
		st := strings.TrimSpace(r.Status)
		if !seen[st] {
			seen[st] = true
			res.StatusesSeen = append(res.StatusesSeen, st)
		}
	}
	res.DateMatches = len(dated)
	sort.Strings(res.StatusesSeen)

	if len(res.Matched) == 0 && len(dated) > 0 && c.StatusFallback {
		res.Matched = dated
		res.FellBack = true
	}
	return res, nil
}
