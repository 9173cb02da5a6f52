package planning

import (
	"math"
	"time"

	"github.com/google/btree"
)

// EventKind discriminates the event variants stored on a timeline.
type EventKind int8

const (
	// EventSetOnhand resets the running quantity to an absolute value.
	// Buffers use it for initial inventory; bucketed resources use it for
	// per-bucket capacity.
	EventSetOnhand EventKind = iota
	// EventMin changes the minimum envelope.
	EventMin
	// EventMax changes the maximum envelope.
	EventMax
	// EventChange adds a signed quantity to the running onhand. Flow plans
	// and load plans are change events.
	EventChange
)

// Event is one node of a timeline. Events carry their running onhand and
// cumulative produced/consumed totals, maintained on every insert, erase
// and update.
type Event[P any] struct {
	date        time.Time
	qty         float64
	kind        EventKind
	value       float64
	onhand      float64
	cumProduced float64
	cumConsumed float64
	seq         uint64
	Payload     P
}

// Date returns the event date.
func (e *Event[P]) Date() time.Time { return e.date }

// Quantity returns the signed quantity of a change event.
func (e *Event[P]) Quantity() float64 { return e.qty }

// Kind returns the event variant.
func (e *Event[P]) Kind() EventKind { return e.kind }

// Value returns the target value of a set-onhand or envelope event.
func (e *Event[P]) Value() float64 { return e.value }

// Onhand returns the running quantity up to and including this event.
func (e *Event[P]) Onhand() float64 { return e.onhand }

// CumulativeProduced returns the sum of positive quantities up to and
// including this event.
func (e *Event[P]) CumulativeProduced() float64 { return e.cumProduced }

// CumulativeConsumed returns the sum of absolute negative quantities up to
// and including this event.
func (e *Event[P]) CumulativeConsumed() float64 { return e.cumConsumed }

// rank orders events at an equal date: onhand resets first, then envelope
// changes, then producers before consumers so that material is available
// before it is consumed at a date boundary.
func (e *Event[P]) rank() int {
	switch e.kind {
	case EventSetOnhand:
		return 0
	case EventMin:
		return 1
	case EventMax:
		return 2
	default:
		if e.qty > 0 {
			return 3
		}
		return 4
	}
}

// Timeline is the ordered event list owned by every buffer and resource.
// Events are kept in a B-tree keyed by (date, rank, insertion sequence),
// giving O(log n) insertion and removal.
type Timeline[P any] struct {
	tree *btree.BTreeG[*Event[P]]
	seq  uint64
}

// NewTimeline creates an empty timeline.
func NewTimeline[P any]() *Timeline[P] {
	t := &Timeline[P]{}
	t.tree = btree.NewG(8, func(a, b *Event[P]) bool {
		if !a.date.Equal(b.date) {
			return a.date.Before(b.date)
		}
		if ar, br := a.rank(), b.rank(); ar != br {
			return ar < br
		}
		return a.seq < b.seq
	})
	return t
}

// Len returns the number of events.
func (t *Timeline[P]) Len() int { return t.tree.Len() }

// InsertChange adds a signed-quantity event and returns it.
func (t *Timeline[P]) InsertChange(date time.Time, qty float64, payload P) *Event[P] {
	e := &Event[P]{date: date, qty: qty, kind: EventChange, Payload: payload}
	t.insert(e)
	return e
}

// InsertSetOnhand adds an event resetting the running quantity.
func (t *Timeline[P]) InsertSetOnhand(date time.Time, value float64) *Event[P] {
	e := &Event[P]{date: date, kind: EventSetOnhand, value: value}
	t.insert(e)
	return e
}

// InsertMin adds a minimum-envelope change point.
func (t *Timeline[P]) InsertMin(date time.Time, value float64) *Event[P] {
	e := &Event[P]{date: date, kind: EventMin, value: value}
	t.insert(e)
	return e
}

// InsertMax adds a maximum-envelope change point.
func (t *Timeline[P]) InsertMax(date time.Time, value float64) *Event[P] {
	e := &Event[P]{date: date, kind: EventMax, value: value}
	t.insert(e)
	return e
}

func (t *Timeline[P]) insert(e *Event[P]) {
	t.seq++
	e.seq = t.seq
	t.tree.ReplaceOrInsert(e)
	t.recomputeFrom(e)
}

// Erase removes an event from the timeline.
func (t *Timeline[P]) Erase(e *Event[P]) {
	if _, ok := t.tree.Delete(e); !ok {
		return
	}
	t.recomputeFromDate(e.date)
}

// Update moves a change event to a new quantity and date.
func (t *Timeline[P]) Update(e *Event[P], qty float64, date time.Time) {
	old := e.date
	t.tree.Delete(e)
	e.qty = qty
	e.date = date
	t.tree.ReplaceOrInsert(e)
	t.recomputeFromDate(minDate(old, date))
}

// UpdateValue moves a set-onhand or envelope event to a new value and date.
func (t *Timeline[P]) UpdateValue(e *Event[P], value float64, date time.Time) {
	old := e.date
	t.tree.Delete(e)
	e.value = value
	e.date = date
	t.tree.ReplaceOrInsert(e)
	t.recomputeFromDate(minDate(old, date))
}

// probe builds a synthetic key sorting before (first=true) or after every
// real event at the given date.
func (t *Timeline[P]) probe(date time.Time, first bool) *Event[P] {
	if first {
		return &Event[P]{date: date, kind: EventSetOnhand, seq: 0}
	}
	return &Event[P]{date: date, kind: EventChange, qty: -1, seq: math.MaxUint64}
}

func (t *Timeline[P]) recomputeFromDate(d time.Time) {
	t.recomputeFrom(t.probe(d, true))
}

// recomputeFrom refreshes the running totals of every event at or after the
// pivot, seeding from the state of the last event before it.
func (t *Timeline[P]) recomputeFrom(pivot *Event[P]) {
	var onhand, prod, cons float64
	t.tree.DescendLessOrEqual(pivot, func(e *Event[P]) bool {
		if e == pivot {
			return true
		}
		onhand, prod, cons = e.onhand, e.cumProduced, e.cumConsumed
		return false
	})
	t.tree.AscendGreaterOrEqual(pivot, func(e *Event[P]) bool {
		switch e.kind {
		case EventChange:
			onhand += e.qty
			if e.qty > 0 {
				prod += e.qty
			} else {
				cons += -e.qty
			}
		case EventSetOnhand:
			delta := e.value - onhand
			onhand = e.value
			if delta > 0 {
				prod += delta
			} else {
				cons += -delta
			}
		}
		e.onhand = onhand
		e.cumProduced = prod
		e.cumConsumed = cons
		return true
	})
}

// Ascend walks all events in timeline order.
func (t *Timeline[P]) Ascend(fn func(*Event[P]) bool) {
	t.tree.Ascend(fn)
}

// AscendFrom walks events in order starting at e (inclusive).
func (t *Timeline[P]) AscendFrom(e *Event[P], fn func(*Event[P]) bool) {
	t.tree.AscendGreaterOrEqual(e, fn)
}

// DescendFrom walks events in reverse order starting at e (inclusive).
func (t *Timeline[P]) DescendFrom(e *Event[P], fn func(*Event[P]) bool) {
	t.tree.DescendLessOrEqual(e, fn)
}

// NextEvent returns the event following e in timeline order, or nil.
func (t *Timeline[P]) NextEvent(e *Event[P]) *Event[P] {
	var out *Event[P]
	t.tree.AscendGreaterOrEqual(e, func(x *Event[P]) bool {
		if x == e {
			return true
		}
		out = x
		return false
	})
	return out
}

// PrevEvent returns the event preceding e in timeline order, or nil.
func (t *Timeline[P]) PrevEvent(e *Event[P]) *Event[P] {
	var out *Event[P]
	t.tree.DescendLessOrEqual(e, func(x *Event[P]) bool {
		if x == e {
			return true
		}
		out = x
		return false
	})
	return out
}

// First returns the earliest event, or nil on an empty timeline.
func (t *Timeline[P]) First() *Event[P] {
	var out *Event[P]
	t.tree.Ascend(func(e *Event[P]) bool {
		out = e
		return false
	})
	return out
}

// Last returns the latest event, or nil on an empty timeline.
func (t *Timeline[P]) Last() *Event[P] {
	var out *Event[P]
	t.tree.Descend(func(e *Event[P]) bool {
		out = e
		return false
	})
	return out
}

// OnhandAt returns the running quantity at the given date, after all events
// on that date have taken effect.
func (t *Timeline[P]) OnhandAt(d time.Time) float64 {
	var out float64
	t.tree.DescendLessOrEqual(t.probe(d, false), func(e *Event[P]) bool {
		out = e.onhand
		return false
	})
	return out
}

// MinAt returns the minimum envelope effective at the given date.
func (t *Timeline[P]) MinAt(d time.Time) float64 {
	var out float64
	t.tree.DescendLessOrEqual(t.probe(d, false), func(e *Event[P]) bool {
		if e.kind != EventMin {
			return true
		}
		out = e.value
		return false
	})
	return out
}

// MaxAt returns the maximum envelope effective at the given date.
func (t *Timeline[P]) MaxAt(d time.Time) float64 {
	var out float64
	t.tree.DescendLessOrEqual(t.probe(d, false), func(e *Event[P]) bool {
		if e.kind != EventMax {
			return true
		}
		out = e.value
		return false
	})
	return out
}
