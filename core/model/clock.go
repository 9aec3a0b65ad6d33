package model

import "time"

// Schedules carry a time of day only. Pinning every computed time to a
// fixed reference date keeps overnight comparisons and interval overlaps
// well-defined without calendar logic.
var referenceDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// NormalizeClock maps t onto the reference date, keeping its time of day,
// rounded to the second.
func NormalizeClock(t time.Time) time.Time {
	return referenceDate.
		Add(time.Duration(t.Hour()) * time.Hour).
		Add(time.Duration(t.Minute()) * time.Minute).
		Add(time.Duration(t.Second()) * time.Second)
}

// ClockTime builds a reference-date time from hours and minutes, for tests
// and schedule generation.
func ClockTime(hour, minute int) time.Time {
	return referenceDate.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}
