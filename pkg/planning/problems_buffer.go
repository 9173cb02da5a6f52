package planning

import (
	"fmt"
)

// MaterialShortage reports a region where the projected inventory of a
// buffer falls below its minimum target.
type MaterialShortage struct {
	buffer *Buffer
	dates  DateRange
	qty    float64
}

// Name returns the problem kind.
func (p *MaterialShortage) Name() string { return "material shortage" }

// Description returns a human-readable account of the problem.
func (p *MaterialShortage) Description() string {
	return fmt.Sprintf("Buffer '%s' has material shortage of %g", p.buffer.Name(), p.qty)
}

// Dates returns the shortage region.
func (p *MaterialShortage) Dates() DateRange { return p.dates }

// Weight returns the deepest shortage seen in the region.
func (p *MaterialShortage) Weight() float64 { return p.qty }

// IsFeasible reports whether the plan remains executable.
func (p *MaterialShortage) IsFeasible() bool { return false }

// Owner returns the buffer the problem is attached to.
func (p *MaterialShortage) Owner() any { return p.buffer }

// Buffer returns the short buffer.
func (p *MaterialShortage) Buffer() *Buffer { return p.buffer }

// MaterialExcess reports a region where the projected inventory of a
// buffer exceeds its maximum target.
type MaterialExcess struct {
	buffer *Buffer
	dates  DateRange
	qty    float64
}

// Name returns the problem kind.
func (p *MaterialExcess) Name() string { return "material excess" }

// Description returns a human-readable account of the problem.
func (p *MaterialExcess) Description() string {
	return fmt.Sprintf("Buffer '%s' has material excess of %g", p.buffer.Name(), p.qty)
}

// Dates returns the excess region.
func (p *MaterialExcess) Dates() DateRange { return p.dates }

// Weight returns the highest excess seen in the region.
func (p *MaterialExcess) Weight() float64 { return p.qty }

// IsFeasible reports whether the plan remains executable.
func (p *MaterialExcess) IsFeasible() bool { return true }

// Owner returns the buffer the problem is attached to.
func (p *MaterialExcess) Owner() any { return p.buffer }

// Buffer returns the overfull buffer.
func (p *MaterialExcess) Buffer() *Buffer { return p.buffer }

// updateProblems rebuilds the buffer's problem list with a single pass
// over the timeline: the (min, max) envelope is tracked through the
// envelope events, the running onhand of the last event per date is
// compared against it, and a shortage or excess region is opened on the
// transition and closed with the extreme magnitude seen inside it. A
// region still open at the end of the horizon closes at the horizon
// sentinel.
func (b *Buffer) updateProblems() {
	b.problems = nil
	if !b.detectProblems || b.kind == BufferInfinite {
		return
	}

	var (
		shortageStart, excessStart DateRange
		shortage, excess           bool
		shortageQty, excessQty     float64
		curMin, curMax             float64
	)
	events := make([]*Event[*FlowPlan], 0, b.timeline.Len())
	b.timeline.Ascend(func(e *Event[*FlowPlan]) bool {
		events = append(events, e)
		return true
	})
	for i, e := range events {
		switch e.Kind() {
		case EventMin:
			curMin = e.Value()
		case EventMax:
			curMax = e.Value()
		}
		// Only judge the last event of every date.
		if i+1 < len(events) && events[i+1].Date().Equal(e.Date()) {
			continue
		}

		delta := e.Onhand() - curMin
		if delta < -roundingError {
			if !shortage {
				shortageStart = DateRange{Start: e.Date()}
				shortageQty = delta
				shortage = true
			} else if delta < shortageQty {
				shortageQty = delta
			}
		} else if shortage {
			if !e.Date().Equal(shortageStart.Start) {
				shortageStart.End = e.Date()
				b.problems = append(b.problems, &MaterialShortage{buffer: b, dates: shortageStart, qty: -shortageQty})
			}
			shortage = false
		}

		ceiling := curMax
		if curMin > curMax {
			ceiling = curMin
		}
		delta = e.Onhand() - ceiling
		if delta > roundingError {
			if !excess {
				excessStart = DateRange{Start: e.Date()}
				excessQty = delta
				excess = true
			} else if delta > excessQty {
				excessQty = delta
			}
		} else if excess {
			if !e.Date().Equal(excessStart.Start) {
				excessStart.End = e.Date()
				b.problems = append(b.problems, &MaterialExcess{buffer: b, dates: excessStart, qty: excessQty})
			}
			excess = false
		}
	}

	if excess {
		excessStart.End = InfiniteFuture
		b.problems = append(b.problems, &MaterialExcess{buffer: b, dates: excessStart, qty: excessQty})
	}
	if shortage {
		shortageStart.End = InfiniteFuture
		b.problems = append(b.problems, &MaterialShortage{buffer: b, dates: shortageStart, qty: -shortageQty})
	}
}
