// Package dateutil provides calendar date helpers used across the application.
package dateutil

import "time"

// Date builds a UTC date at midnight. All calendar dates in the system are
// stored normalized this way so equality and range comparisons are exact.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Normalize truncates a timestamp to its UTC calendar date.
func Normalize(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// DaysInMonth returns the number of days in the given month, accounting for
// leap years.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthDays returns every date of the given month in calendar order.
func MonthDays(year int, month time.Month) []time.Time {
	n := DaysInMonth(year, month)
	days := make([]time.Time, 0, n)
	for d := 1; d <= n; d++ {
		days = append(days, Date(year, month, d))
	}
	return days
}

// MonthRange returns the first and last date of the given month.
func MonthRange(year int, month time.Month) (start, end time.Time) {
	return Date(year, month, 1), Date(year, month, DaysInMonth(year, month))
}

// PrevMonth returns the calendar month immediately preceding (year, month),
// wrapping January back into December of the previous year.
func PrevMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

// IsWeekend reports whether the date falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// WeekdayName returns the short English weekday name ("Mon" .. "Sun").
func WeekdayName(t time.Time) string {
	return t.Format("Mon")
}

// WeekOfMonth returns the 1-based week slot of a date within its month,
// counted in fixed 7-day blocks from the 1st (days 1-7 are week 1, 8-14
// week 2, and so on) regardless of weekday alignment.
func WeekOfMonth(t time.Time) int {
	return (t.Day()-1)/7 + 1
}

// SameMonth reports whether the date belongs to the given (year, month).
func SameMonth(t time.Time, year int, month time.Month) bool {
	return t.Year() == year && t.Month() == month
}
