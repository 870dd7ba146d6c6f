package utils

import (
	"fmt"
	"regexp"
	"time"
)

// Buddhist-era years run 543 ahead of the Gregorian calendar. Years above
// this threshold are treated as BE and normalized.
const buddhistYearThreshold = 2400

var thaiDatePattern = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)

// ToThaiDate formats a date as DD/MM/YYYY in the Buddhist era.
func ToThaiDate(d time.Time) string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day(), int(d.Month()), d.Year()+543)
}

// ParseThaiDate parses DD/MM/YYYY where the year may be Buddhist-era or
// Gregorian, returning a UTC midnight date. Returns an error for anything
// that is not a full DD/MM/YYYY string.
func ParseThaiDate(s string) (time.Time, error) {
	m := thaiDatePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected DD/MM/YYYY", s)
	}
	var day, month, year int
	fmt.Sscanf(s, "%02d/%02d/%04d", &day, &month, &year)
	if day == 0 || month == 0 || year == 0 {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	if year > buddhistYearThreshold {
		year -= 543
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// NormalizeInputDate accepts DD/MM/YYYY (BE or AD) or an ISO date/datetime.
func NormalizeInputDate(s string) (time.Time, error) {
	if thaiDatePattern.MatchString(s) {
		return ParseThaiDate(s)
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format %q", s)
}

// TodayUTC returns the current date with the time fixed to 00:00:00 UTC.
func TodayUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
