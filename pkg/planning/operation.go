package planning

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// SearchMode records how a solver should choose between alternates.
type SearchMode int

const (
	// SearchPriority picks the first effective alternate with the lowest
	// priority number.
	SearchPriority SearchMode = iota
	// SearchMinCost picks the alternate with the lowest cost.
	SearchMinCost
	// SearchMinPenalty picks the alternate with the lowest penalty.
	SearchMinPenalty
	// SearchMinCostPenalty picks the alternate with the lowest sum of cost
	// and penalty.
	SearchMinCostPenalty
)

// SearchModeFromString parses the textual search mode names.
func SearchModeFromString(s string) (SearchMode, error) {
	switch s {
	case "PRIORITY":
		return SearchPriority, nil
	case "MINCOST":
		return SearchMinCost, nil
	case "MINPENALTY":
		return SearchMinPenalty, nil
	case "MINCOSTPENALTY":
		return SearchMinCostPenalty, nil
	default:
		return SearchPriority, NewDataError("invalid search mode '%s'", s)
	}
}

// PlanState is the (start, end, quantity) triple resulting from applying
// operation-specific shape rules to an operation plan.
type PlanState struct {
	Start    time.Time
	End      time.Time
	Quantity float64
}

func stateOf(o *OperationPlan) PlanState {
	return PlanState{Start: o.start, End: o.end, Quantity: o.quantity}
}

// Operation is a transformation activity. Executing it produces and
// consumes material through its flows and occupies capacity through its
// loads. The concrete variants fix the relation between plan quantity and
// plan duration.
type Operation interface {
	Name() string

	// Common gives access to the fields shared by all variants.
	Common() *OperationCommon

	// SetPlanParameters applies the variant's shape rules to a plan. With
	// execute false the call is a pure preview; nothing is modified.
	SetPlanParameters(o *OperationPlan, qty float64, start, end time.Time, preferEnd, execute bool) (PlanState, error)

	// instantiate runs variant-specific work when a plan is activated:
	// routings build their step sub-plans, alternates pick a child,
	// fixed-time plans may merge into an equal sibling. It reports whether
	// the plan should be kept.
	instantiate(o *OperationPlan) (bool, error)
}

// OperationCommon carries the state shared by every operation variant.
type OperationCommon struct {
	plannable
	hasLevel
	name         string
	description  string
	plan         *Plan
	loc          *Location
	fence        time.Duration
	preTime      time.Duration
	postTime     time.Duration
	sizeMinimum  float64
	sizeMaximum  float64
	sizeMultiple float64
	cost         decimal.Decimal
	hidden       bool
	flows        []*Flow
	loads        []*Load
	firstPlan    *OperationPlan
	lastPlan     *OperationPlan
	superOps     []Operation
}

func (c *OperationCommon) init(p *Plan, name string) {
	c.plan = p
	c.name = name
	c.sizeMaximum = math.MaxFloat64
	c.plannable.init(p)
}

// Common returns the shared operation state. It is promoted into every
// variant, which makes each variant satisfy the Operation interface.
func (c *OperationCommon) Common() *OperationCommon { return c }

// Name returns the unique operation name.
func (c *OperationCommon) Name() string { return c.name }

// Description returns the free-form operation description.
func (c *OperationCommon) Description() string { return c.description }

// SetDescription updates the operation description.
func (c *OperationCommon) SetDescription(d string) { c.description = d }

// Location returns the location whose availability calendar constrains this
// operation.
func (c *OperationCommon) Location() *Location { return c.loc }

// SetLocation updates the operation location.
func (c *OperationCommon) SetLocation(l *Location) {
	c.loc = l
	c.setChanged()
}

// Fence returns the release fence: the period after the current date in
// which no new plans may start.
func (c *OperationCommon) Fence() time.Duration { return c.fence }

// SetFence updates the release fence.
func (c *OperationCommon) SetFence(d time.Duration) { c.fence = d }

// PreTime returns the soft gap wanted before the operation start.
func (c *OperationCommon) PreTime() time.Duration { return c.preTime }

// SetPreTime updates the pre-operation time.
func (c *OperationCommon) SetPreTime(d time.Duration) error {
	if d < 0 {
		return NewDataError("operation pre-time must not be negative")
	}
	c.preTime = d
	return nil
}

// PostTime returns the soft gap wanted after the operation end.
func (c *OperationCommon) PostTime() time.Duration { return c.postTime }

// SetPostTime updates the post-operation time.
func (c *OperationCommon) SetPostTime(d time.Duration) error {
	if d < 0 {
		return NewDataError("operation post-time must not be negative")
	}
	c.postTime = d
	return nil
}

// SizeMinimum returns the minimum plan quantity.
func (c *OperationCommon) SizeMinimum() float64 { return c.sizeMinimum }

// SetSizeMinimum updates the minimum plan quantity.
func (c *OperationCommon) SetSizeMinimum(v float64) error {
	if v < 0 {
		return NewDataError("operation minimum size must not be negative")
	}
	c.sizeMinimum = v
	c.setChanged()
	return nil
}

// SizeMaximum returns the maximum plan quantity.
func (c *OperationCommon) SizeMaximum() float64 { return c.sizeMaximum }

// SetSizeMaximum updates the maximum plan quantity.
func (c *OperationCommon) SetSizeMaximum(v float64) error {
	if v < c.sizeMinimum {
		return NewDataError("operation maximum size must not be below the minimum size")
	}
	c.sizeMaximum = v
	c.setChanged()
	return nil
}

// SizeMultiple returns the plan quantity multiple.
func (c *OperationCommon) SizeMultiple() float64 { return c.sizeMultiple }

// SetSizeMultiple updates the plan quantity multiple.
func (c *OperationCommon) SetSizeMultiple(v float64) error {
	if v < 0 {
		return NewDataError("operation size multiple must not be negative")
	}
	c.sizeMultiple = v
	c.setChanged()
	return nil
}

// Cost returns the execution cost per unit.
func (c *OperationCommon) Cost() decimal.Decimal { return c.cost }

// SetCost updates the execution cost per unit.
func (c *OperationCommon) SetCost(v decimal.Decimal) error {
	if v.IsNegative() {
		return NewDataError("operation cost must not be negative")
	}
	c.cost = v
	return nil
}

// Hidden reports whether the operation was generated internally.
func (c *OperationCommon) Hidden() bool { return c.hidden }

// Flows returns the material arcs of the operation.
func (c *OperationCommon) Flows() []*Flow { return c.flows }

// Loads returns the capacity arcs of the operation.
func (c *OperationCommon) Loads() []*Load { return c.loads }

// SuperOperations returns the operations using this one as a sub-step.
func (c *OperationCommon) SuperOperations() []Operation { return c.superOps }

// FirstPlan returns the earliest plan of this operation, or nil.
func (c *OperationCommon) FirstPlan() *OperationPlan { return c.firstPlan }

// EachPlan walks the operation's plans in (start asc, quantity desc) order.
func (c *OperationCommon) EachPlan(fn func(*OperationPlan) bool) {
	for o := c.firstPlan; o != nil; o = o.next {
		if !fn(o) {
			return
		}
	}
}

// sizeQuantity clamps a requested quantity to the operation sizing rules:
// min <= q <= max and (q - min) is a whole number of multiples. Zero always
// passes through unchanged.
func (c *OperationCommon) sizeQuantity(q float64, roundDown bool) float64 {
	if q <= 0 {
		return 0
	}
	if q < c.sizeMinimum {
		if roundDown {
			return 0
		}
		q = c.sizeMinimum
	}
	if c.sizeMultiple > 0 {
		steps := (q - c.sizeMinimum) / c.sizeMultiple
		if roundDown {
			steps = math.Floor(steps + roundingError)
		} else {
			steps = math.Ceil(steps - roundingError)
		}
		q = c.sizeMinimum + steps*c.sizeMultiple
	}
	if q > c.sizeMaximum {
		q = c.sizeMaximum
		if c.sizeMultiple > 0 {
			steps := math.Floor((q-c.sizeMinimum)/c.sizeMultiple + roundingError)
			q = c.sizeMinimum + steps*c.sizeMultiple
			if q < c.sizeMinimum {
				return 0
			}
		}
	}
	return q
}

// availabilityCalendars collects the calendars constraining the working
// time of this operation.
func (c *OperationCommon) availabilityCalendars() []*Calendar {
	var cals []*Calendar
	if c.loc != nil && c.loc.Available() != nil {
		cals = append(cals, c.loc.Available())
	}
	return cals
}

// operationTime fits a window of the requested effective duration against
// the operation's availability calendars, walking forward or backward from
// the anchor date. It returns the window and the duration actually
// obtained, which is shorter than requested when the horizon runs out.
func (c *OperationCommon) operationTime(anchor time.Time, dur time.Duration, forward bool) (DateRange, time.Duration) {
	cals := c.availabilityCalendars()
	if len(cals) == 0 {
		if forward {
			return DateRange{Start: anchor, End: anchor.Add(dur)}, dur
		}
		return DateRange{Start: anchor.Add(-dur), End: anchor}, dur
	}

	remaining := dur
	cur := anchor
	var edge time.Time
	started := false
	for {
		if forward {
			next := InfiniteFuture
			for _, cal := range cals {
				if t := cal.NextEventAfter(cur); t.Before(next) {
					next = t
				}
			}
			avail := true
			for _, cal := range cals {
				if !cal.BoolAt(cur) {
					avail = false
					break
				}
			}
			if avail {
				if !started {
					started = true
					edge = cur
				}
				delta := next.Sub(cur)
				if delta >= remaining {
					return DateRange{Start: edge, End: cur.Add(remaining)}, dur
				}
				remaining -= delta
			}
			if !next.Before(InfiniteFuture) {
				if !started {
					return DateRange{Start: anchor, End: anchor}, 0
				}
				return DateRange{Start: edge, End: next}, dur - remaining
			}
			cur = next
		} else {
			prev := InfinitePast
			for _, cal := range cals {
				if t := cal.PrevEventBefore(cur); t.After(prev) {
					prev = t
				}
			}
			avail := true
			for _, cal := range cals {
				if !cal.BoolAt(prev) {
					avail = false
					break
				}
			}
			if avail {
				if !started {
					started = true
					edge = cur
				}
				delta := cur.Sub(prev)
				if delta >= remaining {
					return DateRange{Start: cur.Add(-remaining), End: edge}, dur
				}
				remaining -= delta
			}
			if !prev.After(InfinitePast) {
				if !started {
					return DateRange{Start: anchor, End: anchor}, 0
				}
				return DateRange{Start: prev, End: edge}, dur - remaining
			}
			cur = prev
		}
	}
}

// operationTimeRange returns the available working time inside [start, end]
// and the sub-range actually covered by it.
func (c *OperationCommon) operationTimeRange(start, end time.Time) (DateRange, time.Duration) {
	if end.Before(start) {
		start, end = end, start
	}
	cals := c.availabilityCalendars()
	if len(cals) == 0 {
		return DateRange{Start: start, End: end}, end.Sub(start)
	}

	var actual time.Duration
	res := DateRange{Start: start, End: start}
	started := false
	cur := start
	for cur.Before(end) {
		next := InfiniteFuture
		for _, cal := range cals {
			if t := cal.NextEventAfter(cur); t.Before(next) {
				next = t
			}
		}
		if next.After(end) {
			next = end
		}
		avail := true
		for _, cal := range cals {
			if !cal.BoolAt(cur) {
				avail = false
				break
			}
		}
		if avail {
			if !started {
				started = true
				res.Start = cur
			}
			actual += next.Sub(cur)
			res.End = next
		}
		cur = next
	}
	return res, actual
}

// unlinkPlan removes a plan from the operation's sorted plan list.
func (c *OperationCommon) unlinkPlan(o *OperationPlan) {
	if o.prev != nil {
		o.prev.next = o.next
	} else if c.firstPlan == o {
		c.firstPlan = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else if c.lastPlan == o {
		c.lastPlan = o.prev
	}
	o.prev = nil
	o.next = nil
}

// linkPlan inserts a plan into the list, keeping (start asc, quantity
// desc) order.
func (c *OperationCommon) linkPlan(o *OperationPlan) {
	var after *OperationPlan
	for x := c.firstPlan; x != nil; x = x.next {
		if x.start.After(o.start) {
			break
		}
		if x.start.Equal(o.start) && x.quantity < o.quantity {
			break
		}
		after = x
	}
	if after == nil {
		o.next = c.firstPlan
		if c.firstPlan != nil {
			c.firstPlan.prev = o
		}
		c.firstPlan = o
		if c.lastPlan == nil {
			c.lastPlan = o
		}
		return
	}
	o.prev = after
	o.next = after.next
	if after.next != nil {
		after.next.prev = o
	} else {
		c.lastPlan = o
	}
	after.next = o
}

// relinkPlan restores list order after a date or quantity mutation.
func (c *OperationCommon) relinkPlan(o *OperationPlan) {
	c.unlinkPlan(o)
	c.linkPlan(o)
}

// updateProblems delegates problem detection to the operation's plans.
func (c *OperationCommon) updateProblems() {
	if !c.detectProblems {
		return
	}
	for o := c.firstPlan; o != nil; o = o.next {
		o.updateProblems()
	}
}
