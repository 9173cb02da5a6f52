package planning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(day int, hour int) time.Time {
	return time.Date(2026, time.March, day, hour, 0, 0, 0, time.UTC)
}

func TestTimeline_RunningOnhand(t *testing.T) {
	tl := NewTimeline[*FlowPlan]()

	// Insert out of order; the running totals must come out sorted.
	tl.InsertChange(date(3, 0), -2, nil)
	tl.InsertChange(date(1, 0), 10, nil)
	tl.InsertChange(date(2, 0), -3, nil)
	tl.InsertChange(date(4, 0), 5, nil)

	assert.Equal(t, 0.0, tl.OnhandAt(date(1, 0).Add(-time.Hour)))
	assert.Equal(t, 10.0, tl.OnhandAt(date(1, 0)))
	assert.Equal(t, 7.0, tl.OnhandAt(date(2, 0)))
	assert.Equal(t, 5.0, tl.OnhandAt(date(3, 0)))
	assert.Equal(t, 10.0, tl.OnhandAt(date(5, 0)))

	// The onhand at each event is the onhand of its predecessor plus its
	// own signed quantity; the cumulative totals split by sign.
	var prev float64
	var prod, cons float64
	tl.Ascend(func(e *Event[*FlowPlan]) bool {
		assert.InDelta(t, prev+e.Quantity(), e.Onhand(), 1e-9)
		if e.Quantity() > 0 {
			prod += e.Quantity()
		} else {
			cons += -e.Quantity()
		}
		assert.InDelta(t, prod, e.CumulativeProduced(), 1e-9)
		assert.InDelta(t, cons, e.CumulativeConsumed(), 1e-9)
		prev = e.Onhand()
		return true
	})
	assert.Equal(t, 15.0, prod)
	assert.Equal(t, 5.0, cons)
}

func TestTimeline_ProducersBeforeConsumersAtSameDate(t *testing.T) {
	tl := NewTimeline[*FlowPlan]()
	d := date(10, 0)

	// The consumer is inserted first but must sort after the producer, so
	// material is available before it is taken at the date boundary.
	tl.InsertChange(d, -4, nil)
	tl.InsertChange(d, 4, nil)

	var onhands []float64
	tl.Ascend(func(e *Event[*FlowPlan]) bool {
		onhands = append(onhands, e.Onhand())
		return true
	})
	require.Equal(t, []float64{4, 0}, onhands)
}

func TestTimeline_EraseAndUpdate(t *testing.T) {
	tl := NewTimeline[*FlowPlan]()
	a := tl.InsertChange(date(1, 0), 10, nil)
	b := tl.InsertChange(date(2, 0), -4, nil)

	tl.Update(b, -6, date(3, 0))
	assert.Equal(t, 10.0, tl.OnhandAt(date(2, 0)))
	assert.Equal(t, 4.0, tl.OnhandAt(date(3, 0)))

	tl.Erase(a)
	assert.Equal(t, -6.0, tl.OnhandAt(date(3, 0)))
	assert.Equal(t, 1, tl.Len())
}

func TestTimeline_SetOnhandResets(t *testing.T) {
	tl := NewTimeline[*FlowPlan]()
	tl.InsertSetOnhand(InfinitePast, 7)
	tl.InsertChange(date(1, 0), -3, nil)

	assert.Equal(t, 7.0, tl.OnhandAt(InfinitePast))
	assert.Equal(t, 4.0, tl.OnhandAt(date(1, 0)))
}

func TestTimeline_Envelope(t *testing.T) {
	tl := NewTimeline[*FlowPlan]()
	tl.InsertMin(InfinitePast, 0)
	tl.InsertMin(date(5, 0), 2)
	tl.InsertMax(InfinitePast, 10)
	tl.InsertMax(date(7, 0), 20)

	assert.Equal(t, 0.0, tl.MinAt(date(4, 0)))
	assert.Equal(t, 2.0, tl.MinAt(date(5, 0)))
	assert.Equal(t, 2.0, tl.MinAt(date(9, 0)))
	assert.Equal(t, 10.0, tl.MaxAt(date(6, 23)))
	assert.Equal(t, 20.0, tl.MaxAt(date(7, 0)))
}

func TestTimeline_NextPrevEvent(t *testing.T) {
	tl := NewTimeline[*FlowPlan]()
	a := tl.InsertChange(date(1, 0), 1, nil)
	b := tl.InsertChange(date(2, 0), 1, nil)
	c := tl.InsertChange(date(3, 0), 1, nil)

	assert.Same(t, b, tl.NextEvent(a))
	assert.Same(t, c, tl.NextEvent(b))
	assert.Nil(t, tl.NextEvent(c))
	assert.Same(t, b, tl.PrevEvent(c))
	assert.Nil(t, tl.PrevEvent(a))
}
