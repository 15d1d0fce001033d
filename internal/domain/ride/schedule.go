package ride

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDate interprets a YYYY-MM-DD string as midnight in loc and normalizes it so the
// stored instant carries the same calendar date whatever timezone the server runs in.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return NormalizeDate(t), nil
}

// NormalizeDate maps t to midnight UTC of t's calendar date in its own location.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseClock validates an HH:MM local time and returns minutes since midnight.
func ParseClock(value string) (int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) != 2 {
		return 0, ErrInvalidTime
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, ErrInvalidTime
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, ErrInvalidTime
	}
	return h*60 + m, nil
}

// clockMinutes is ParseClock for sorting: malformed times sort as midnight.
func clockMinutes(value string) int {
	m, _ := ParseClock(value)
	return m
}

// SortByPriority orders by status priority, then date ascending, then time ascending.
func SortByPriority(rides []*Ride) {
	sort.SliceStable(rides, func(i, j int) bool {
		a, b := rides[i], rides[j]
		if pa, pb := a.Status.Priority(), b.Status.Priority(); pa != pb {
			return pa < pb
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return clockMinutes(a.Time) < clockMinutes(b.Time)
	})
}

// SortByDateDesc orders most recent date first, keeping insertion order for equal dates.
func SortByDateDesc(rides []*Ride) {
	sort.SliceStable(rides, func(i, j int) bool {
		return rides[i].Date.After(rides[j].Date)
	})
}

// SortByScheduleDesc orders by date descending, then time descending.
func SortByScheduleDesc(rides []*Ride) {
	sort.SliceStable(rides, func(i, j int) bool {
		a, b := rides[i], rides[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return clockMinutes(a.Time) > clockMinutes(b.Time)
	})
}
