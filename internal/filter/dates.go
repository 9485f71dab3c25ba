package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Largest serial Excel accepts (9999-12-31).
const maxExcelSerial = 2958465

// dd/mm layouts come first: the workbook is maintained with day-first dates.
var dateLayouts = []string{
	"02/01/2006", "2/1/2006", "02/01/06", "2/1/06",
	"02-01-2006", "2-1-2006", "02.01.2006",
	"2006-01-02", "2006/01/02", "2006-1-2", "2006/1/2",
	"2006-01-02 15:04:05", "2006-01-02T15:04:05", time.RFC3339,
	"02/01/2006 15:04:05", "02/01/2006 15:04", "2/1/2006 15:04:05", "2/1/2006 15:04",
	"02-Jan-2006", "2-Jan-2006", "02-Jan-06", "02/Jan/2006", "2 Jan 2006", "Jan 2, 2006",
	"20060102",
}

// ParseDate reads a date-like cell value: Excel serial numbers and the common
// textual layouts. The result is the calendar day at UTC midnight.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 1 && f <= maxExcelSerial {
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("excel serial %q: %w", s, err)
		}
		return dayUTC(t), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dayUTC(t), nil
		}
	}
	if len(s) > 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return dayUTC(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse date: %s", s)
}

func dayUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
