package planning

import (
	"fmt"
)

// CapacityOverload reports a region where the load on a resource exceeds
// its capacity.
type CapacityOverload struct {
	resource *Resource
	dates    DateRange
	qty      float64
}

// Name returns the problem kind.
func (p *CapacityOverload) Name() string { return "capacity overload" }

// Description returns a human-readable account of the problem.
func (p *CapacityOverload) Description() string {
	return fmt.Sprintf("Resource '%s' has capacity shortage of %g", p.resource.Name(), p.qty)
}

// Dates returns the overload region.
func (p *CapacityOverload) Dates() DateRange { return p.dates }

// Weight returns the highest overload seen in the region.
func (p *CapacityOverload) Weight() float64 { return p.qty }

// IsFeasible reports whether the plan remains executable.
func (p *CapacityOverload) IsFeasible() bool { return false }

// Owner returns the resource the problem is attached to.
func (p *CapacityOverload) Owner() any { return p.resource }

// Resource returns the overloaded resource.
func (p *CapacityOverload) Resource() *Resource { return p.resource }

// CapacityUnderload reports a region where the load on a resource stays
// below its minimum usage target.
type CapacityUnderload struct {
	resource *Resource
	dates    DateRange
	qty      float64
}

// Name returns the problem kind.
func (p *CapacityUnderload) Name() string { return "capacity underload" }

// Description returns a human-readable account of the problem.
func (p *CapacityUnderload) Description() string {
	return fmt.Sprintf("Resource '%s' has excess capacity of %g", p.resource.Name(), p.qty)
}

// Dates returns the underload region.
func (p *CapacityUnderload) Dates() DateRange { return p.dates }

// Weight returns the deepest underload seen in the region.
func (p *CapacityUnderload) Weight() float64 { return p.qty }

// IsFeasible reports whether the plan remains executable.
func (p *CapacityUnderload) IsFeasible() bool { return true }

// Owner returns the resource the problem is attached to.
func (p *CapacityUnderload) Owner() any { return p.resource }

// Resource returns the underloaded resource.
func (p *CapacityUnderload) Resource() *Resource { return p.resource }

// updateProblems rebuilds the resource's problem list. A continuous
// resource is scanned like a buffer, comparing the running load of the
// last event per date against the capacity envelope. A bucketed resource
// compares the remaining capacity at every bucket boundary: the bucket
// started with its capacity and every load inside subtracted from it, so a
// negative running value at the boundary is an overload.
func (r *Resource) updateProblems() {
	r.problems = nil
	if !r.detectProblems || r.kind == ResourceInfinite {
		return
	}
	if r.kind == ResourceBucketed {
		r.updateBucketProblems()
		return
	}

	var (
		overStart, underStart DateRange
		over, under           bool
		overQty, underQty     float64
		curMin, curMax        float64
	)
	events := make([]*Event[*LoadPlan], 0, r.timeline.Len())
	r.timeline.Ascend(func(e *Event[*LoadPlan]) bool {
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
		if i+1 < len(events) && events[i+1].Date().Equal(e.Date()) {
			continue
		}

		delta := e.Onhand() - curMin
		if delta < -roundingError {
			if !under {
				underStart = DateRange{Start: e.Date()}
				underQty = delta
				under = true
			} else if delta < underQty {
				underQty = delta
			}
		} else if under {
			if !e.Date().Equal(underStart.Start) {
				underStart.End = e.Date()
				r.problems = append(r.problems, &CapacityUnderload{resource: r, dates: underStart, qty: -underQty})
			}
			under = false
		}

		delta = e.Onhand() - curMax
		if delta > roundingError {
			if !over {
				overStart = DateRange{Start: e.Date()}
				overQty = delta
				over = true
			} else if delta > overQty {
				overQty = delta
			}
		} else if over {
			if !e.Date().Equal(overStart.Start) {
				overStart.End = e.Date()
				r.problems = append(r.problems, &CapacityOverload{resource: r, dates: overStart, qty: overQty})
			}
			over = false
		}
	}

	if over {
		overStart.End = InfiniteFuture
		r.problems = append(r.problems, &CapacityOverload{resource: r, dates: overStart, qty: overQty})
	}
	if under {
		underStart.End = InfiniteFuture
		r.problems = append(r.problems, &CapacityUnderload{resource: r, dates: underStart, qty: -underQty})
	}
}

func (r *Resource) updateBucketProblems() {
	bucketStart := InfinitePast
	load := 0.0
	r.timeline.Ascend(func(e *Event[*LoadPlan]) bool {
		if e.Kind() != EventSetOnhand {
			load = e.Onhand()
			return true
		}
		// Close the previous bucket before opening the new one.
		if load < -roundingError {
			r.problems = append(r.problems, &CapacityOverload{
				resource: r,
				dates:    DateRange{Start: bucketStart, End: e.Date()},
				qty:      -load,
			})
		}
		bucketStart = e.Date()
		load = 0
		return true
	})
	if load < -roundingError {
		r.problems = append(r.problems, &CapacityOverload{
			resource: r,
			dates:    DateRange{Start: bucketStart, End: InfiniteFuture},
			qty:      -load,
		})
	}
}
