package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pto-tracker/generic"
)

func TestIsWeekend(t *testing.T) {
	// 2024-03-02 is a Saturday
	start := generic.NewTimePoint(2024, time.March, 2)
	expected := []bool{true, true, false, false, false, false, false}
	for i, want := range expected {
		day := start.AddDays(i)
		assert.Equal(t, want, day.IsWeekend(), "day %s (%s)", day, day.Weekday())
	}
}

func TestWeekdaysInRange_SkipsWeekend(t *testing.T) {
	// GIVEN: Friday Mar 1 to Monday Mar 4
	fri := generic.NewTimePoint(2024, time.March, 1)
	mon := generic.NewTimePoint(2024, time.March, 4)

	// WHEN
	days := generic.WeekdaysInRange(fri, mon)

	// THEN: Saturday and Sunday are dropped
	require.Len(t, days, 2)
	assert.True(t, days[0].Equal(fri))
	assert.True(t, days[1].Equal(mon))
}

func TestWeekdaysInRange_Empty(t *testing.T) {
	sat := generic.NewTimePoint(2024, time.March, 2)
	sun := generic.NewTimePoint(2024, time.March, 3)
	mon := generic.NewTimePoint(2024, time.March, 4)

	assert.Empty(t, generic.WeekdaysInRange(sat, sun), "weekend only")
	assert.Empty(t, generic.WeekdaysInRange(sat, sat), "single weekend day")
	assert.Empty(t, generic.WeekdaysInRange(mon, sat), "start after end")
}

func TestWeekdaysInRange_Restartable(t *testing.T) {
	start := generic.NewTimePoint(2024, time.March, 4)
	end := generic.NewTimePoint(2024, time.March, 15)

	first := generic.WeekdaysInRange(start, end)
	second := generic.WeekdaysInRange(start, end)

	assert.Len(t, first, 10)
	assert.Equal(t, first, second)
}

func TestNormalizeDate_DropsTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	late := time.Date(2024, time.March, 4, 23, 30, 0, 0, loc)

	tp := generic.NormalizeDate(late)

	assert.Equal(t, "2024-03-04", tp.String())
	assert.True(t, tp.Equal(generic.NewTimePoint(2024, time.March, 4)))
}

func TestParseDate(t *testing.T) {
	tp, err := generic.ParseDate("2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", tp.String())

	tp, err = generic.ParseDate("2024-03-04T15:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", tp.String())

	_, err = generic.ParseDate("March 4th")
	assert.Error(t, err)
}

func TestPeriod_Overlaps(t *testing.T) {
	d := func(day int) generic.TimePoint { return generic.NewTimePoint(2024, time.March, day) }

	tests := []struct {
		name string
		a, b generic.Period
		want bool
	}{
		{"same day", generic.Period{Start: d(4), End: d(4)}, generic.Period{Start: d(4), End: d(4)}, true},
		{"touching edge", generic.Period{Start: d(4), End: d(6)}, generic.Period{Start: d(6), End: d(8)}, true},
		{"contained", generic.Period{Start: d(4), End: d(15)}, generic.Period{Start: d(6), End: d(7)}, true},
		{"disjoint", generic.Period{Start: d(4), End: d(5)}, generic.Period{Start: d(6), End: d(7)}, false},
		{"across weekend only", generic.Period{Start: d(1), End: d(1)}, generic.Period{Start: d(4), End: d(4)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}
