package util

import "time"

// PreviousMonth returns the year and month for the previous month
func PreviousMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// StartOfDay truncates t to midnight UTC of its calendar day
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last representable instant of t's calendar day (UTC)
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// MonthBounds returns the first instant and the end-of-day of the last calendar day of a month
func MonthBounds(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	// Day 0 of next month is the last day of this month
	last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
	return start, EndOfDay(last)
}

// YearBounds returns Jan 1 00:00 through Dec 31 end-of-day of a year
func YearBounds(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, EndOfDay(time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC))
}

// InRange reports whether t lies within [start, end] inclusive
func InRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// SameMonth reports whether t falls in the given year and month (UTC)
func SameMonth(t time.Time, year, month int) bool {
	y, m, _ := t.UTC().Date()
	return y == year && int(m) == month
}

// MonthKey formats a date as "MM/YYYY"
func MonthKey(t time.Time) string {
	return t.UTC().Format("01/2006")
}

// TrailingMonths returns the n calendar months ending with now's month, oldest first
func TrailingMonths(now time.Time, n int) [][2]int {
	if n <= 0 {
		return nil
	}
	months := make([][2]int, n)
	year, month := now.UTC().Year(), int(now.UTC().Month())
	for i := n - 1; i >= 0; i-- {
		months[i] = [2]int{year, month}
		year, month = PreviousMonth(year, month)
	}
	return months
}

// DaysUntil returns ceil((deadline - today) / 24h), never negative, where
// today is the start of now's calendar day
func DaysUntil(deadline, now time.Time) int {
	diff := deadline.Sub(StartOfDay(now))
	if diff <= 0 {
		return 0
	}
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) != 0 {
		days++
	}
	return days
}
