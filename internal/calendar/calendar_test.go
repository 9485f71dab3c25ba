package calendar

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextWednesday(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{"monday", day(2026, 1, 5), day(2026, 1, 7)},
		{"tuesday late", time.Date(2026, 1, 6, 23, 30, 0, 0, time.UTC), day(2026, 1, 7)},
		{"wednesday rolls a week", day(2026, 1, 7), day(2026, 1, 14)},
		{"thursday", day(2026, 1, 8), day(2026, 1, 14)},
		{"sunday across month", day(2026, 1, 25), day(2026, 1, 28)},
		{"year boundary", day(2025, 12, 31), day(2026, 1, 7)},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NextWednesday(tc.from), tc.name)
	}
}

func TestWeekBounds_MondayStart(t *testing.T) {
	t.Parallel()

	monday, sunday := WeekBounds(day(2026, 1, 7))
	assert.Equal(t, day(2026, 1, 5), monday)
	assert.Equal(t, day(2026, 1, 11), sunday)

	monday, sunday = WeekBounds(day(2026, 1, 11))
	assert.Equal(t, day(2026, 1, 5), monday, "sunday belongs to the week that started on monday")
	assert.Equal(t, day(2026, 1, 11), sunday)

	assert.True(t, InWeek(day(2026, 1, 5), day(2026, 1, 7)))
	assert.True(t, InWeek(time.Date(2026, 1, 11, 18, 0, 0, 0, time.UTC), day(2026, 1, 7)))
	assert.False(t, InWeek(day(2026, 1, 4), day(2026, 1, 7)))
	assert.False(t, InWeek(day(2026, 1, 12), day(2026, 1, 7)))
}

func TestSpanishNames(t *testing.T) {
	t.Parallel()

	d := day(2026, 1, 7)
	assert.Equal(t, "07 ENERO 2026.xlsx", Spanish.ProjectionFileName(d))
	assert.Equal(t, "ENERO 07", Spanish.ProjectionSheetName(d))
	assert.Equal(t, filepath.Join("root", "AÑO 2026", "ENERO"), Spanish.ProjectionDir("root", d))
	assert.Equal(t, "Miércoles", Spanish.Weekday(d))
	assert.Equal(t, "SEPTIEMBRE", Spanish.MonthUpper(day(2026, 9, 1)))
	assert.Equal(t, "07/01/2026", FormatDMY(d))
}

func TestLocaleByCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "en", LocaleByCode("EN").Code)
	assert.Equal(t, "es", LocaleByCode("").Code)
	assert.Equal(t, "JANUARY", LocaleByCode("english").MonthUpper(day(2026, 1, 1)))
}
