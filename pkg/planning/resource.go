package planning

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResourceKind discriminates the resource subtypes.
type ResourceKind int

const (
	// ResourceStandard has a time-continuous capacity level.
	ResourceStandard ResourceKind = iota
	// ResourceInfinite never constrains the plan.
	ResourceInfinite
	// ResourceBucketed offers capacity per calendar bucket; load is
	// consumed inside the bucket it falls in.
	ResourceBucketed
)

// Resource is a capacity provider: a machine, a work-cell, an operator
// pool. Load plans occupy it on its timeline.
type Resource struct {
	plannable
	hasLevel
	plan     *Plan
	name     string
	kind     ResourceKind
	loc      *Location
	cost     decimal.Decimal
	hidden   bool
	loads    []*Load
	skills   []*ResourceSkill
	timeline *Timeline[*LoadPlan]

	maxValue    float64
	maxCalendar *Calendar
	maxEvents   []*Event[*LoadPlan]

	setupMatrix *SetupMatrix
	setup       string
	maxEarly    time.Duration
}

// Name returns the unique resource name.
func (r *Resource) Name() string { return r.name }

// Kind returns the resource subtype.
func (r *Resource) Kind() ResourceKind { return r.kind }

// Location returns the resource location.
func (r *Resource) Location() *Location { return r.loc }

// SetLocation updates the resource location.
func (r *Resource) SetLocation(l *Location) { r.loc = l }

// Cost returns the usage cost per unit per hour.
func (r *Resource) Cost() decimal.Decimal { return r.cost }

// SetCost updates the usage cost.
func (r *Resource) SetCost(c decimal.Decimal) error {
	if c.IsNegative() {
		return NewDataError("resource cost must not be negative")
	}
	r.cost = c
	return nil
}

// Hidden reports whether the resource was generated internally.
func (r *Resource) Hidden() bool { return r.hidden }

// Loads returns the capacity arcs incident to the resource.
func (r *Resource) Loads() []*Load { return r.loads }

// Skills returns the skills this resource masters.
func (r *Resource) Skills() []*ResourceSkill { return r.skills }

// Timeline returns the resource's event list.
func (r *Resource) Timeline() *Timeline[*LoadPlan] { return r.timeline }

// Maximum returns the scalar capacity level.
func (r *Resource) Maximum() float64 { return r.maxValue }

// SetMaximum sets a constant capacity level.
func (r *Resource) SetMaximum(v float64) error {
	if v < 0 {
		return NewDataError("resource maximum must not be negative")
	}
	r.maxValue = v
	r.maxCalendar = nil
	r.rebuildCapacity()
	r.setChanged()
	return nil
}

// SetMaximumCalendar drives the capacity level from a calendar. On a
// bucketed resource every calendar change starts a fresh capacity bucket.
func (r *Resource) SetMaximumCalendar(c *Calendar) {
	r.maxCalendar = c
	r.rebuildCapacity()
	r.setChanged()
}

// rebuildCapacity re-materializes the capacity events on the timeline.
func (r *Resource) rebuildCapacity() {
	for _, e := range r.maxEvents {
		r.timeline.Erase(e)
	}
	r.maxEvents = nil
	insert := func(d time.Time, v float64) {
		var e *Event[*LoadPlan]
		if r.kind == ResourceBucketed {
			e = r.timeline.InsertSetOnhand(d, v)
		} else {
			e = r.timeline.InsertMax(d, v)
		}
		r.maxEvents = append(r.maxEvents, e)
	}
	if r.maxCalendar == nil {
		insert(InfinitePast, r.maxValue)
		return
	}
	insert(InfinitePast, r.maxCalendar.ValueAt(InfinitePast))
	for d := r.maxCalendar.NextEventAfter(InfinitePast); d.Before(InfiniteFuture); d = r.maxCalendar.NextEventAfter(d) {
		insert(d, r.maxCalendar.ValueAt(d))
	}
}

// LoadAt returns the occupied capacity at the given date.
func (r *Resource) LoadAt(d time.Time) float64 { return r.timeline.OnhandAt(d) }

// CapacityAt returns the capacity level at the given date.
func (r *Resource) CapacityAt(d time.Time) float64 {
	if r.maxCalendar != nil {
		return r.maxCalendar.ValueAt(d)
	}
	return r.maxValue
}

// SetupMatrix returns the changeover matrix, or nil.
func (r *Resource) SetupMatrix() *SetupMatrix { return r.setupMatrix }

// SetSetupMatrix updates the changeover matrix.
func (r *Resource) SetSetupMatrix(m *SetupMatrix) { r.setupMatrix = m }

// Setup returns the current setup state of the resource.
func (r *Resource) Setup() string { return r.setup }

// SetSetup updates the current setup state.
func (r *Resource) SetSetup(s string) { r.setup = s }

// MaxEarly returns the maximum inventory-build-ahead time.
func (r *Resource) MaxEarly() time.Duration { return r.maxEarly }

// SetMaxEarly updates the maximum build-ahead time.
func (r *Resource) SetMaxEarly(d time.Duration) error {
	if d < 0 {
		return NewDataError("resource max-early must not be negative")
	}
	r.maxEarly = d
	return nil
}

// setupAt derives the setup state of the resource at a boundary date from
// the last setup-carrying load plan at or before it, falling back to the
// resource's own setup. The plans given as exclusions (the conversion plan
// and its owner) are skipped.
func (r *Resource) setupAt(boundary time.Time, exclude ...*OperationPlan) string {
	skip := func(o *OperationPlan) bool {
		for _, x := range exclude {
			if o == x {
				return true
			}
		}
		return false
	}
	last := r.setup
	r.timeline.Ascend(func(e *Event[*LoadPlan]) bool {
		if e.Date().After(boundary) {
			return false
		}
		if e.Kind() != EventChange || e.Quantity() == 0 || e.Payload == nil {
			return true
		}
		lp := e.Payload
		if skip(lp.opplan) || lp.load.Setup() == "" {
			return true
		}
		last = lp.load.Setup()
		return true
	})
	return last
}
