package phenology

import "time"

// cumulativeDays holds the day count before each month of a non-leap year.
// Leap days are deliberately ignored; February 29 shares a day number with
// March 1.
var cumulativeDays = [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

// DayOfYear returns the 1-based non-leap day of year for t.
func DayOfYear(t time.Time) int {
	return cumulativeDays[t.Month()-1] + t.Day()
}

// DateFromDayOfYear converts a non-leap day of year into a calendar date in
// year. Out-of-range values are clamped to 1..365.
func DateFromDayOfYear(year, doy int) time.Time {
	doy = max(1, min(365, doy))
	m := 11
	for m > 0 && cumulativeDays[m] >= doy {
		m--
	}
	return time.Date(year, time.Month(m+1), doy-cumulativeDays[m], 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole days from one midnight date to another,
// negative when to precedes from.
func DaysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
