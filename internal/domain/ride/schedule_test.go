package ride

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate_CalendarDateSurvivesServerTimezone(t *testing.T) {
	zones := []*time.Location{
		time.UTC,
		time.FixedZone("UTC+14", 14*3600),
		time.FixedZone("UTC-11", -11*3600),
		time.FixedZone("UTC-5", -5*3600),
		time.FixedZone("UTC+5:30", 5*3600+1800),
	}

	for _, loc := range zones {
		t.Run(loc.String(), func(t *testing.T) {
			date, err := ParseDate("2024-03-15", loc)
			require.NoError(t, err)

			assert.Equal(t, "March 15, 2024", date.Format("January 2, 2006"))
			assert.Equal(t, time.UTC, date.Location())
			assert.Zero(t, date.Hour())
		})
	}
}

func TestParseDate_Rejects(t *testing.T) {
	for _, value := range []string{"", "15/03/2024", "2024-13-01", "2024-02-30", "tomorrow"} {
		_, err := ParseDate(value, time.UTC)
		assert.ErrorIs(t, err, ErrInvalidDate, value)
	}
}

func TestNormalizeDate_KeepsLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	localMidnight := time.Date(2024, time.January, 1, 0, 0, 0, 0, loc)

	// the raw instant is still Dec 31 in UTC
	assert.Equal(t, 31, localMidnight.UTC().Day())
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), NormalizeDate(localMidnight))
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		value   string
		minutes int
		valid   bool
	}{
		{"00:00", 0, true},
		{"09:05", 545, true},
		{"9:05", 545, true},
		{"23:59", 1439, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"12:5", 0, false},
		{"noon", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			minutes, err := ParseClock(tt.value)
			if !tt.valid {
				assert.ErrorIs(t, err, ErrInvalidTime)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.minutes, minutes)
		})
	}
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func names(rides []*Ride) []string {
	out := make([]string, len(rides))
	for i, r := range rides {
		out[i] = r.Name
	}
	return out
}

func TestSortByPriority(t *testing.T) {
	rides := []*Ride{
		{Name: "cancelled", Status: StatusCancelled, Date: day(1), Time: "08:00"},
		{Name: "completed", Status: StatusCompleted, Date: day(1), Time: "08:00"},
		{Name: "pending-late", Status: StatusPending, Date: day(2), Time: "07:00"},
		{Name: "pending-early-pm", Status: StatusPending, Date: day(1), Time: "14:30"},
		{Name: "pending-early-am", Status: StatusPending, Date: day(1), Time: "9:15"},
		{Name: "confirmed", Status: StatusConfirmed, Date: day(5), Time: "08:00"},
	}

	SortByPriority(rides)

	assert.Equal(t, []string{
		"pending-early-am", "pending-early-pm", "pending-late", "confirmed", "completed", "cancelled",
	}, names(rides))
}

func TestSortByScheduleDesc(t *testing.T) {
	rides := []*Ride{
		{Name: "a", Date: day(1), Time: "10:00"},
		{Name: "b", Date: day(3), Time: "08:00"},
		{Name: "c", Date: day(3), Time: "18:45"},
		{Name: "d", Date: day(2), Time: "12:00"},
	}

	SortByScheduleDesc(rides)

	assert.Equal(t, []string{"c", "b", "d", "a"}, names(rides))
}

func TestSortByDateDesc_Stable(t *testing.T) {
	rides := []*Ride{
		{Name: "first", Date: day(2), Time: "08:00"},
		{Name: "second", Date: day(2), Time: "20:00"},
		{Name: "older", Date: day(1)},
	}

	SortByDateDesc(rides)

	assert.Equal(t, []string{"first", "second", "older"}, names(rides))
}

func TestReturnLeg_SwapsLocations(t *testing.T) {
	a := &Coordinates{Lat: 1, Lng: 2}
	b := &Coordinates{Lat: 3, Lng: 4}
	out := &Ride{
		Name: "Ann", Phone: "555", PickupLocation: "A", DropLocation: "B",
		PickupCoordinates: a, DropCoordinates: b, IsPrivate: true, Notes: "bags",
		Date: day(1), Time: "08:00", Status: StatusPending,
	}

	back := out.ReturnLeg(day(4), "17:30")

	assert.Equal(t, "B", back.PickupLocation)
	assert.Equal(t, "A", back.DropLocation)
	assert.Same(t, b, back.PickupCoordinates)
	assert.Same(t, a, back.DropCoordinates)
	assert.Equal(t, day(4), back.Date)
	assert.Equal(t, "17:30", back.Time)
	assert.True(t, back.ReturnRide)
	assert.True(t, back.IsPrivate)
	assert.Equal(t, "bags", back.Notes)
	assert.Equal(t, StatusPending, back.Status)
}

func TestStatus_Validity(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled} {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, Status("in_progress").IsValid())
	assert.Equal(t, 99, Status("in_progress").Priority())
}
