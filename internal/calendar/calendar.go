package calendar

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Locale carries the month and weekday names used to build file, folder and
// sheet names. Formatting never depends on the process locale.
type Locale struct {
	Code       string
	Months     [12]string
	Weekdays   [7]string // indexed by time.Weekday (Sunday first)
	YearFolder string    // fmt pattern for the year folder, e.g. "AÑO %d"
}

var Spanish = Locale{
	Code: "es",
	Months: [12]string{
		"enero", "febrero", "marzo", "abril", "mayo", "junio",
		"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
	},
	Weekdays: [7]string{
		"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
	},
	YearFolder: "AÑO %d",
}

var English = Locale{
	Code: "en",
	Months: [12]string{
		"january", "february", "march", "april", "may", "june",
		"july", "august", "september", "october", "november", "december",
	},
	Weekdays: [7]string{
		"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
	},
	YearFolder: "YEAR %d",
}

// LocaleByCode returns the locale for code, defaulting to Spanish.
func LocaleByCode(code string) Locale {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "en", "en_us", "en-us", "english":
		return English
	default:
		return Spanish
	}
}

// MonthUpper returns the upper-cased month name of t.
func (l Locale) MonthUpper(t time.Time) string {
	return strings.ToUpper(l.Months[t.Month()-1])
}

// Weekday returns the capitalized weekday name of t.
func (l Locale) Weekday(t time.Time) string {
	name := l.Weekdays[t.Weekday()]
	if name == "" {
		return ""
	}
	r := []rune(name)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// ProjectionFileName builds "<dd> <MONTH> <yyyy>.xlsx".
func (l Locale) ProjectionFileName(t time.Time) string {
	return fmt.Sprintf("%02d %s %d.xlsx", t.Day(), l.MonthUpper(t), t.Year())
}

// ProjectionSheetName builds "<MONTH> <dd>".
func (l Locale) ProjectionSheetName(t time.Time) string {
	return fmt.Sprintf("%s %02d", l.MonthUpper(t), t.Day())
}

// ProjectionDir returns root/<year folder>/<MONTH>. It does not touch the disk.
func (l Locale) ProjectionDir(root string, t time.Time) string {
	return filepath.Join(root, fmt.Sprintf(l.YearFolder, t.Year()), l.MonthUpper(t))
}

// Date truncates t to its calendar day in t's location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// NextWednesday returns the Wednesday strictly after from. When from is a
// Wednesday the following week's Wednesday is returned.
func NextWednesday(from time.Time) time.Time {
	days := (int(time.Wednesday) - int(from.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return Date(from).AddDate(0, 0, days)
}

// WeekBounds returns the Monday and Sunday of the ISO week containing t.
func WeekBounds(t time.Time) (time.Time, time.Time) {
	day := Date(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	monday := day.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 6)
}

// InWeek reports whether d falls in the Monday to Sunday week containing ref.
func InWeek(d, ref time.Time) bool {
	monday, sunday := WeekBounds(ref)
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, monday.Location())
	return !day.Before(monday) && !day.After(sunday)
}

// FormatDMY renders t as dd/mm/yyyy.
func FormatDMY(t time.Time) string {
	return t.Format("02/01/2006")
}
