package planning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendar_DefaultAndBucketValue(t *testing.T) {
	cal := NewCalendar("capacity", 1)
	cal.AddBucket(date(10, 0), date(20, 0), 5)

	assert.Equal(t, 1.0, cal.ValueAt(date(9, 23)))
	assert.Equal(t, 5.0, cal.ValueAt(date(10, 0)))
	assert.Equal(t, 5.0, cal.ValueAt(date(19, 23)))
	assert.Equal(t, 1.0, cal.ValueAt(date(20, 0)))
}

func TestCalendar_PriorityWinsOnOverlap(t *testing.T) {
	cal := NewCalendar("cal", 0)
	low := cal.AddBucket(date(1, 0), date(28, 0), 100)
	low.SetPriority(10)
	high := cal.AddBucket(date(10, 0), date(15, 0), 7)
	high.SetPriority(1)

	assert.Equal(t, 100.0, cal.ValueAt(date(5, 0)))
	assert.Equal(t, 7.0, cal.ValueAt(date(12, 0)))
	assert.Equal(t, 100.0, cal.ValueAt(date(16, 0)))
}

func TestCalendar_WeekdayMaskAndDayWindow(t *testing.T) {
	cal := NewCalendar("shifts", 0)
	b := cal.AddBucket(date(1, 0), date(28, 0), 1)
	// Monday through Friday, 09:00 to 17:00.
	require.NoError(t, b.SetDays(0b0111110))
	require.NoError(t, b.SetStartTime(9*time.Hour))
	require.NoError(t, b.SetEndTime(17*time.Hour))

	// 2026-03-06 is a Friday, 2026-03-07 a Saturday.
	friday := time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC)
	saturday := friday.AddDate(0, 0, 1)
	monday := friday.AddDate(0, 0, 3)

	assert.False(t, cal.BoolAt(friday.Add(8*time.Hour)))
	assert.True(t, cal.BoolAt(friday.Add(9*time.Hour)))
	assert.True(t, cal.BoolAt(friday.Add(16*time.Hour)))
	assert.False(t, cal.BoolAt(friday.Add(17*time.Hour)))
	assert.False(t, cal.BoolAt(saturday.Add(12*time.Hour)))
	assert.True(t, cal.BoolAt(monday.Add(12*time.Hour)))
}

func TestCalendar_NextEventAfter(t *testing.T) {
	cal := NewCalendar("cal", 0)
	cal.AddBucket(date(10, 0), date(20, 0), 1)

	assert.Equal(t, date(10, 0), cal.NextEventAfter(date(1, 0)))
	assert.Equal(t, date(20, 0), cal.NextEventAfter(date(10, 0)))
	assert.Equal(t, InfiniteFuture, cal.NextEventAfter(date(20, 0)))
	assert.Equal(t, date(20, 0), cal.PrevEventBefore(date(25, 0)))
	assert.Equal(t, date(10, 0), cal.PrevEventBefore(date(20, 0)))
	assert.Equal(t, InfinitePast, cal.PrevEventBefore(date(10, 0)))
}

func TestCalendar_EventIterator(t *testing.T) {
	cal := NewCalendar("cal", 0)
	cal.AddBucket(date(10, 0), date(12, 0), 1)
	cal.AddBucket(date(14, 0), date(16, 0), 2)

	it := NewCalendarEventIterator(cal, date(1, 0), true)
	var seen []time.Time
	for {
		d := it.Next()
		if !d.Before(InfiniteFuture) {
			break
		}
		seen = append(seen, d)
	}
	require.Equal(t, []time.Time{date(10, 0), date(12, 0), date(14, 0), date(16, 0)}, seen)
}

func TestCalendar_BucketValidation(t *testing.T) {
	cal := NewCalendar("cal", 0)
	b := cal.AddBucket(date(1, 0), date(2, 0), 1)

	assert.Error(t, b.SetDays(200))
	assert.Error(t, b.SetStartTime(-time.Second))
	assert.Error(t, b.SetStartTime(24*time.Hour))
	assert.Error(t, b.SetEndTime(25*time.Hour))
	assert.NoError(t, b.SetEndTime(24*time.Hour))
}
