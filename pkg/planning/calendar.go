package planning

import (
	"time"
)

const secondsPerDay = 24 * time.Hour

// Calendar holds an ordered set of buckets and yields a time-varying value.
// At any instant the effective bucket with the lowest priority number wins;
// outside every bucket the calendar default applies. An availability
// calendar is a calendar whose values are interpreted as booleans
// (non-zero means available).
type Calendar struct {
	name         string
	defaultValue float64
	buckets      []*CalendarBucket
	nextBucketID int
}

// NewCalendar creates a calendar with the given default value.
func NewCalendar(name string, defaultValue float64) *Calendar {
	return &Calendar{name: name, defaultValue: defaultValue, nextBucketID: 1}
}

// Name returns the calendar name.
func (c *Calendar) Name() string { return c.name }

// Default returns the value applied outside every bucket.
func (c *Calendar) Default() float64 { return c.defaultValue }

// SetDefault updates the value applied outside every bucket.
func (c *Calendar) SetDefault(v float64) { c.defaultValue = v }

// CalendarBucket is one dated entry of a calendar. It is effective on the
// weekdays enabled in its day mask, between its daily start and end times,
// within its [start, end) date range. Buckets are kept sorted in ascending
// (start, priority) order.
type CalendarBucket struct {
	cal       *Calendar
	id        int
	start     time.Time
	end       time.Time
	priority  int
	days      uint8
	startTime time.Duration
	endTime   time.Duration
	value     float64
}

// AddBucket creates a bucket covering [start, end) with the given value.
// The bucket starts out effective on all weekdays around the clock, with
// priority 0.
func (c *Calendar) AddBucket(start, end time.Time, value float64) *CalendarBucket {
	b := &CalendarBucket{
		cal:       c,
		id:        c.nextBucketID,
		start:     start,
		end:       end,
		days:      127,
		startTime: 0,
		endTime:   secondsPerDay,
		value:     value,
	}
	c.nextBucketID++
	c.buckets = append(c.buckets, b)
	c.sortBuckets()
	return b
}

// RemoveBucket destroys a bucket owned by this calendar.
func (c *Calendar) RemoveBucket(b *CalendarBucket) {
	for i, x := range c.buckets {
		if x == b {
			c.buckets = append(c.buckets[:i], c.buckets[i+1:]...)
			return
		}
	}
}

// Buckets returns the buckets in ascending (start, priority) order.
func (c *Calendar) Buckets() []*CalendarBucket { return c.buckets }

func (c *Calendar) sortBuckets() {
	// Insertion sort keeps the common single-append case cheap.
	for i := 1; i < len(c.buckets); i++ {
		for j := i; j > 0; j-- {
			a, b := c.buckets[j-1], c.buckets[j]
			if a.start.After(b.start) || (a.start.Equal(b.start) && a.priority > b.priority) {
				c.buckets[j-1], c.buckets[j] = b, a
			} else {
				break
			}
		}
	}
}

// ID returns the bucket identifier, unique within the calendar.
func (b *CalendarBucket) ID() int { return b.id }

// Start returns the bucket start date.
func (b *CalendarBucket) Start() time.Time { return b.start }

// SetStart updates the bucket start date.
func (b *CalendarBucket) SetStart(d time.Time) {
	b.start = d
	b.cal.sortBuckets()
}

// End returns the bucket end date.
func (b *CalendarBucket) End() time.Time { return b.end }

// SetEnd updates the bucket end date.
func (b *CalendarBucket) SetEnd(d time.Time) { b.end = d }

// Priority returns the bucket priority. Lower numbers win on overlap.
func (b *CalendarBucket) Priority() int { return b.priority }

// SetPriority updates the bucket priority.
func (b *CalendarBucket) SetPriority(p int) {
	b.priority = p
	b.cal.sortBuckets()
}

// Days returns the weekday mask: bit 0 is Sunday through bit 6 Saturday.
func (b *CalendarBucket) Days() uint8 { return b.days }

// SetDays updates the weekday mask.
func (b *CalendarBucket) SetDays(d uint8) error {
	if d > 127 {
		return NewDataError("calendar bucket days must be between 0 and 127")
	}
	b.days = d
	return nil
}

// StartTime returns the time of day at which the bucket becomes effective.
func (b *CalendarBucket) StartTime() time.Duration { return b.startTime }

// SetStartTime updates the daily start time.
func (b *CalendarBucket) SetStartTime(t time.Duration) error {
	if t < 0 || t >= secondsPerDay {
		return NewDataError("calendar bucket start time must be between 0 and 86399 seconds")
	}
	b.startTime = t
	return nil
}

// EndTime returns the time of day at which the bucket stops being effective.
func (b *CalendarBucket) EndTime() time.Duration { return b.endTime }

// SetEndTime updates the daily end time.
func (b *CalendarBucket) SetEndTime(t time.Duration) error {
	if t < 0 || t > secondsPerDay {
		return NewDataError("calendar bucket end time must be between 0 and 86400 seconds")
	}
	b.endTime = t
	return nil
}

// Value returns the bucket value.
func (b *CalendarBucket) Value() float64 { return b.value }

// SetValue updates the bucket value.
func (b *CalendarBucket) SetValue(v float64) { b.value = v }

// allDay reports whether the bucket has no weekday or time-of-day holes.
func (b *CalendarBucket) allDay() bool {
	return b.days == 127 && b.startTime == 0 && b.endTime == secondsPerDay
}

// effectiveAt reports whether the bucket applies at the given instant.
func (b *CalendarBucket) effectiveAt(d time.Time) bool {
	if d.Before(b.start) || !d.Before(b.end) {
		return false
	}
	if b.allDay() {
		return true
	}
	if b.days&(1<<uint(d.Weekday())) == 0 {
		return false
	}
	tod := timeOfDay(d)
	return tod >= b.startTime && tod < b.endTime
}

func timeOfDay(d time.Time) time.Duration {
	h, m, s := d.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}

func startOfDay(d time.Time) time.Time {
	y, mo, da := d.Date()
	return time.Date(y, mo, da, 0, 0, 0, 0, d.Location())
}

// FindBucket returns the bucket effective at d, or nil. Among effective
// buckets the one with the lowest priority wins; ties resolve to the earlier
// bucket in (start, priority) order.
func (c *Calendar) FindBucket(d time.Time) *CalendarBucket {
	var best *CalendarBucket
	for _, b := range c.buckets {
		if !b.effectiveAt(d) {
			continue
		}
		if best == nil || b.priority < best.priority {
			best = b
		}
	}
	return best
}

// ValueAt returns the calendar value at the given instant.
func (c *Calendar) ValueAt(d time.Time) float64 {
	if b := c.FindBucket(d); b != nil {
		return b.value
	}
	return c.defaultValue
}

// BoolAt interprets the calendar value at d as a boolean.
func (c *Calendar) BoolAt(d time.Time) bool { return c.ValueAt(d) != 0 }

// nextToggleAfter returns the first instant strictly after d at which the
// bucket's effectivity can change, or the zero time when there is none.
func (b *CalendarBucket) nextToggleAfter(d time.Time) time.Time {
	var best time.Time
	consider := func(t time.Time) {
		if !t.After(d) {
			return
		}
		if best.IsZero() || t.Before(best) {
			best = t
		}
	}
	consider(b.start)
	consider(b.end)
	if !b.allDay() && d.Before(b.end) {
		// Day-window boundaries repeat weekly; scanning the next eight days
		// from the later of d and the bucket start is enough to find the
		// first one.
		from := startOfDay(maxDate(d, b.start))
		for k := 0; k < 8; k++ {
			day := from.AddDate(0, 0, k)
			if day.After(b.end) {
				break
			}
			if b.days&(1<<uint(day.Weekday())) == 0 {
				continue
			}
			consider(day.Add(b.startTime))
			consider(day.Add(b.endTime))
		}
	}
	return best
}

// prevToggleBefore returns the last instant strictly before d at which the
// bucket's effectivity can change, or the zero time when there is none.
func (b *CalendarBucket) prevToggleBefore(d time.Time) time.Time {
	var best time.Time
	consider := func(t time.Time) {
		if !t.Before(d) {
			return
		}
		if best.IsZero() || t.After(best) {
			best = t
		}
	}
	consider(b.start)
	consider(b.end)
	if !b.allDay() && d.After(b.start) {
		from := startOfDay(minDate(d, b.end))
		for k := 0; k < 8; k++ {
			day := from.AddDate(0, 0, -k)
			if day.Add(secondsPerDay).Before(b.start) {
				break
			}
			if b.days&(1<<uint(day.Weekday())) == 0 {
				continue
			}
			consider(day.Add(b.startTime))
			consider(day.Add(b.endTime))
		}
	}
	return best
}

// NextEventAfter returns the first instant strictly after d at which the
// calendar value can change. InfiniteFuture is returned when no change
// remains.
func (c *Calendar) NextEventAfter(d time.Time) time.Time {
	next := InfiniteFuture
	for _, b := range c.buckets {
		if t := b.nextToggleAfter(d); !t.IsZero() && t.Before(next) {
			next = t
		}
	}
	return next
}

// PrevEventBefore returns the last instant strictly before d at which the
// calendar value can change. InfinitePast is returned when no change
// remains.
func (c *Calendar) PrevEventBefore(d time.Time) time.Time {
	prev := InfinitePast
	for _, b := range c.buckets {
		if t := b.prevToggleBefore(d); !t.IsZero() && t.After(prev) {
			prev = t
		}
	}
	return prev
}

// CalendarEventIterator walks the dates at which a calendar value changes.
type CalendarEventIterator struct {
	cal     *Calendar
	date    time.Time
	forward bool
}

// NewCalendarEventIterator positions an iterator at d.
func NewCalendarEventIterator(c *Calendar, d time.Time, forward bool) *CalendarEventIterator {
	return &CalendarEventIterator{cal: c, date: d, forward: forward}
}

// Date returns the iterator's current position.
func (it *CalendarEventIterator) Date() time.Time { return it.date }

// Value returns the calendar value at the current position.
func (it *CalendarEventIterator) Value() float64 { return it.cal.ValueAt(it.date) }

// Next advances to the next change date and returns it. The iterator parks
// at the horizon sentinel once exhausted.
func (it *CalendarEventIterator) Next() time.Time {
	if it.forward {
		it.date = it.cal.NextEventAfter(it.date)
	} else {
		it.date = it.cal.PrevEventBefore(it.date)
	}
	return it.date
}
