package planning

import (
	"math"
	"time"
)

// setupPenaltyDuration is charged for a changeover the setup matrix does
// not define. The conversion is effectively infeasible.
const setupPenaltyDuration = 365 * 24 * time.Hour

// fixedDurationParams fits a plan with a quantity-independent duration.
// Shared by fixed-time, item-supplier and setup operations.
func fixedDurationParams(c *OperationCommon, duration time.Duration, o *OperationPlan, q float64, s, e time.Time, preferEnd, execute bool) (PlanState, error) {
	if o == nil || q < 0 {
		return PlanState{}, NewLogicError("incorrect parameters for fixed-duration operation plan")
	}
	if o.locked {
		return stateOf(o), nil
	}

	if q > 0 && q < c.sizeMinimum {
		q = c.sizeMinimum
	}
	if q > c.sizeMaximum {
		q = c.sizeMaximum
	}
	q = o.setQuantityValue(q, false, execute)

	var window DateRange
	var actual time.Duration
	switch {
	case dateGiven(s) && dateGiven(e):
		if preferEnd {
			window, actual = c.operationTime(e, duration, false)
		} else {
			window, actual = c.operationTime(s, duration, true)
		}
	case dateGiven(s):
		window, actual = c.operationTime(s, duration, true)
	case dateGiven(e):
		window, actual = c.operationTime(e, duration, false)
	default:
		// No dates given: the dates stay untouched.
		if !dateGiven(o.end) {
			return PlanState{Start: o.start, End: o.end, Quantity: q}, nil
		}
		// Replan in place around the existing end.
		window, actual = c.operationTime(o.end, duration, false)
	}

	if !execute {
		if actual == duration {
			return PlanState{Start: window.Start, End: window.End, Quantity: q}, nil
		}
		return PlanState{Start: window.Start, End: window.End, Quantity: 0}, nil
	}
	if actual == duration {
		o.setStartAndEnd(window.Start, window.End)
	} else {
		// Not enough available time inside the horizon.
		o.setQuantityValue(0, false, true)
	}
	return stateOf(o), nil
}

// FixedTimeOperation takes a constant duration regardless of the planned
// quantity.
type FixedTimeOperation struct {
	OperationCommon
	duration time.Duration
}

// Duration returns the constant operation duration.
func (op *FixedTimeOperation) Duration() time.Duration { return op.duration }

// SetDuration updates the operation duration.
func (op *FixedTimeOperation) SetDuration(d time.Duration) error {
	if d < 0 {
		return NewDataError("operation duration must not be negative")
	}
	op.duration = d
	op.setChanged()
	return nil
}

// SetPlanParameters fits the plan into a contiguous available window of the
// operation duration.
func (op *FixedTimeOperation) SetPlanParameters(o *OperationPlan, q float64, s, e time.Time, preferEnd, execute bool) (PlanState, error) {
	return fixedDurationParams(&op.OperationCommon, op.duration, o, q, s, e, preferEnd, execute)
}

// instantiate merges the plan into an existing one when possible: both
// unlocked, ownerless, same dates and demand, no loads, no fixed flows,
// and a combined quantity within the maximum size.
func (op *FixedTimeOperation) instantiate(o *OperationPlan) (bool, error) {
	if o.id != 0 || o.locked || o.owner != nil || len(op.loads) > 0 {
		return true, nil
	}
	for x := op.firstPlan; x != nil; x = x.next {
		if x == o || x.owner != nil || x.locked || x.id == 0 {
			continue
		}
		if !x.start.Equal(o.start) || !x.end.Equal(o.end) || x.demand != o.demand {
			continue
		}
		if x.quantity+o.quantity >= op.sizeMaximum {
			continue
		}
		mergeable := true
		for _, fp := range o.flowPlans {
			if fp.flow.IsFixed() {
				mergeable = false
				break
			}
		}
		if !mergeable {
			continue
		}
		if err := x.SetQuantity(x.quantity + o.quantity); err != nil {
			return true, err
		}
		return false, nil
	}
	return true, nil
}

// TimePerOperation takes a base duration plus a per-unit duration.
type TimePerOperation struct {
	OperationCommon
	duration    time.Duration
	durationPer time.Duration
}

// Duration returns the quantity-independent part of the duration.
func (op *TimePerOperation) Duration() time.Duration { return op.duration }

// SetDuration updates the base duration.
func (op *TimePerOperation) SetDuration(d time.Duration) error {
	if d < 0 {
		return NewDataError("operation duration must not be negative")
	}
	op.duration = d
	op.setChanged()
	return nil
}

// DurationPer returns the duration added per planned unit.
func (op *TimePerOperation) DurationPer() time.Duration { return op.durationPer }

// SetDurationPer updates the per-unit duration.
func (op *TimePerOperation) SetDurationPer(d time.Duration) error {
	if d < 0 {
		return NewDataError("operation duration-per must not be negative")
	}
	op.durationPer = d
	op.setChanged()
	return nil
}

func (op *TimePerOperation) wanted(q float64) time.Duration {
	return op.duration + time.Duration(float64(op.durationPer)*q)
}

// SetPlanParameters applies the duration = base + per-unit * quantity shape.
// When both dates are given the quantity is reduced to whatever fits the
// window; when the base duration alone does not fit, the plan is infeasible
// and its quantity drops to zero.
func (op *TimePerOperation) SetPlanParameters(o *OperationPlan, q float64, s, e time.Time, preferEnd, execute bool) (PlanState, error) {
	if o == nil || q < 0 {
		return PlanState{}, NewLogicError("incorrect parameters for time-per operation plan")
	}
	if o.locked {
		return stateOf(o), nil
	}
	c := &op.OperationCommon
	if q > 0 && q < c.sizeMinimum {
		q = c.sizeMinimum
	}
	if q > c.sizeMaximum {
		q = c.sizeMaximum
	}

	switch {
	case dateGiven(s) && dateGiven(e):
		// Both dates fixed: derive the quantity from the available time.
		window, actual := c.operationTimeRange(s, e)
		if actual < op.duration {
			if !execute {
				return PlanState{Start: window.Start, End: window.End, Quantity: 0}, nil
			}
			o.setQuantityValue(0, true, true)
			o.setStartAndEnd(e, e)
			return stateOf(o), nil
		}
		if op.durationPer > 0 {
			// Accept the requested quantity with a one-second margin, else
			// plan the largest quantity fitting the window.
			if float64(op.durationPer)*q < float64(actual-op.duration)+float64(time.Second) {
				q = o.setQuantityValue(q, true, execute)
			} else {
				q = o.setQuantityValue(float64(actual-op.duration)/float64(op.durationPer), true, execute)
			}
		} else {
			q = o.setQuantityValue(q, true, execute)
		}
		wanted := op.wanted(q)
		var fit DateRange
		if preferEnd {
			fit, _ = c.operationTime(e, wanted, false)
		} else {
			fit, _ = c.operationTime(s, wanted, true)
		}
		if !execute {
			return PlanState{Start: fit.Start, End: fit.End, Quantity: q}, nil
		}
		o.setStartAndEnd(fit.Start, fit.End)
		return stateOf(o), nil

	case dateGiven(e) || !dateGiven(s):
		// Only an end date (or nothing at all): respect the quantity and
		// derive the start.
		anchor := e
		if !dateGiven(anchor) {
			anchor = o.end
		}
		if !dateGiven(anchor) {
			// No dates at all: size the quantity, leave the dates alone.
			q = o.setQuantityValue(q, true, execute)
			return PlanState{Start: o.start, End: o.end, Quantity: q}, nil
		}
		return op.fitFromAnchor(o, q, anchor, false, execute)

	default:
		// Only a start date: respect the quantity and derive the end.
		return op.fitFromAnchor(o, q, s, true, execute)
	}
}

func (op *TimePerOperation) fitFromAnchor(o *OperationPlan, q float64, anchor time.Time, forward, execute bool) (PlanState, error) {
	c := &op.OperationCommon
	q = o.setQuantityValue(q, true, execute)
	wanted := op.wanted(q)
	window, actual := c.operationTime(anchor, wanted, forward)
	if actual == wanted {
		if !execute {
			return PlanState{Start: window.Start, End: window.End, Quantity: q}, nil
		}
		o.setStartAndEnd(window.Start, window.End)
		return stateOf(o), nil
	}
	if actual < op.duration {
		if !execute {
			return PlanState{Start: window.Start, End: window.End, Quantity: 0}, nil
		}
		o.setQuantityValue(0, true, true)
		o.setStartAndEnd(anchor, anchor)
		return stateOf(o), nil
	}
	// Shrink the quantity to what fits in the obtained window.
	maxQ := q
	if op.durationPer > 0 {
		maxQ = float64(actual-op.duration) / float64(op.durationPer)
	}
	q = o.setQuantityValue(math.Min(q, maxQ), true, execute)
	wanted = op.wanted(q)
	window, _ = c.operationTime(anchor, wanted, forward)
	if !execute {
		return PlanState{Start: window.Start, End: window.End, Quantity: q}, nil
	}
	o.setStartAndEnd(window.Start, window.End)
	return stateOf(o), nil
}

func (op *TimePerOperation) instantiate(o *OperationPlan) (bool, error) { return true, nil }

// RoutingOperation executes an ordered sequence of sub-operations.
type RoutingOperation struct {
	OperationCommon
	steps []Operation
}

// Steps returns the sub-operations in execution order.
func (op *RoutingOperation) Steps() []Operation { return op.steps }

// AppendStep adds a sub-operation at the end of the routing.
func (op *RoutingOperation) AppendStep(step Operation) error {
	if step == nil {
		return NewDataError("routing step must not be nil")
	}
	op.steps = append(op.steps, step)
	step.Common().superOps = append(step.Common().superOps, op)
	op.setChanged()
	op.plan.setLevelsChanged()
	return nil
}

// RemoveStep drops a sub-operation from the routing.
func (op *RoutingOperation) RemoveStep(step Operation) {
	for i, s := range op.steps {
		if s == step {
			op.steps = append(op.steps[:i], op.steps[i+1:]...)
			step.Common().dropSuperOperation(op)
			op.setChanged()
			op.plan.setLevelsChanged()
			return
		}
	}
}

// SetPlanParameters walks the step sub-plans backward from the end date or
// forward from the start date, chaining each step to the free edge of its
// neighbor.
func (op *RoutingOperation) SetPlanParameters(o *OperationPlan, q float64, s, e time.Time, preferEnd, execute bool) (PlanState, error) {
	if o == nil || q < 0 {
		return PlanState{}, NewLogicError("incorrect parameters for routing operation plan")
	}
	if o.locked {
		return stateOf(o), nil
	}
	if o.firstSub == nil {
		// No step plans yet: accept the requested values. A start-only
		// request on a routing with steps leaves the end open, so that
		// instantiate chains the steps forward from the start.
		q = o.setQuantityValue(q, false, execute)
		if !dateGiven(s) && dateGiven(e) {
			s = e
		}
		if dateGiven(s) && !dateGiven(e) && len(op.steps) == 0 {
			e = s
		}
		if !execute {
			return PlanState{Start: s, End: e, Quantity: q}, nil
		}
		o.setStartAndEnd(s, e)
		return stateOf(o), nil
	}

	var last PlanState
	var farEdge time.Time
	first := true
	if dateGiven(e) {
		for child := o.lastSub; child != nil; child = child.prevSub {
			if child.isSetup {
				continue
			}
			x, err := child.operation.SetPlanParameters(child, q, time.Time{}, e, preferEnd, execute)
			if err != nil {
				return PlanState{}, err
			}
			last = x
			e = x.Start
			if first {
				farEdge = x.End
				first = false
			}
		}
		if execute {
			o.syncWithChildren()
			return stateOf(o), nil
		}
		return PlanState{Start: last.Start, End: farEdge, Quantity: last.Quantity}, nil
	}
	if dateGiven(s) {
		for child := o.firstSub; child != nil; child = child.nextSub {
			if child.isSetup {
				continue
			}
			x, err := child.operation.SetPlanParameters(child, q, s, time.Time{}, preferEnd, execute)
			if err != nil {
				return PlanState{}, err
			}
			last = x
			s = x.End
			if first {
				farEdge = x.Start
				first = false
			}
		}
		if execute {
			o.syncWithChildren()
			return stateOf(o), nil
		}
		return PlanState{Start: farEdge, End: last.End, Quantity: last.Quantity}, nil
	}
	return PlanState{}, NewLogicError("updating a routing operation plan without a start or end date")
}

// instantiate creates the step sub-plans when they do not exist yet.
func (op *RoutingOperation) instantiate(o *OperationPlan) (bool, error) {
	if o.firstSub != nil {
		return true, nil
	}
	if dateGiven(o.end) && !o.end.Equal(InfiniteFuture) {
		d := o.end
		for i := len(op.steps) - 1; i >= 0; i-- {
			child, err := o.plan.CreateOperationPlan(op.steps[i], o.quantity, time.Time{}, d, nil, o, true)
			if err != nil {
				return true, err
			}
			d = child.start
		}
	} else {
		d := o.start
		if !dateGiven(d) {
			d = o.plan.Current()
		}
		for _, step := range op.steps {
			child, err := o.plan.CreateOperationPlan(step, o.quantity, d, time.Time{}, nil, o, true)
			if err != nil {
				return true, err
			}
			d = child.end
		}
	}
	o.syncWithChildren()
	return true, nil
}

// alternateLink pairs a sub-operation with its selection properties.
type alternateLink struct {
	operation Operation
	priority  int
	effective DateRange
}

// AlternateOperation holds a priority-ordered set of sub-operations of
// which exactly one is executed per plan.
type AlternateOperation struct {
	OperationCommon
	alternates []alternateLink
	search     SearchMode
}

// Search returns the alternate selection mode.
func (op *AlternateOperation) Search() SearchMode { return op.search }

// SetSearch updates the alternate selection mode.
func (op *AlternateOperation) SetSearch(m SearchMode) { op.search = m }

// AddAlternate registers a sub-operation with a priority and an effectivity
// range. The list stays sorted by ascending priority, stable on ties.
func (op *AlternateOperation) AddAlternate(alt Operation, priority int, effective DateRange) error {
	if alt == nil {
		return NewDataError("alternate sub-operation must not be nil")
	}
	pos := len(op.alternates)
	for i, l := range op.alternates {
		if priority < l.priority {
			pos = i
			break
		}
	}
	op.alternates = append(op.alternates, alternateLink{})
	copy(op.alternates[pos+1:], op.alternates[pos:])
	op.alternates[pos] = alternateLink{operation: alt, priority: priority, effective: effective}
	alt.Common().superOps = append(alt.Common().superOps, op)
	op.setChanged()
	op.plan.setLevelsChanged()
	return nil
}

// Alternates returns the sub-operations in ascending priority order.
func (op *AlternateOperation) Alternates() []Operation {
	out := make([]Operation, len(op.alternates))
	for i, l := range op.alternates {
		out[i] = l.operation
	}
	return out
}

// AlternatePriority returns the priority of a sub-operation.
func (op *AlternateOperation) AlternatePriority(alt Operation) (int, error) {
	for _, l := range op.alternates {
		if l.operation == alt {
			return l.priority, nil
		}
	}
	return 0, NewDataError("operation '%s' is not an alternate of '%s'", alt.Name(), op.name)
}

// SetAlternatePriority updates the priority of a sub-operation. Priority
// zero disables the alternate.
func (op *AlternateOperation) SetAlternatePriority(alt Operation, priority int) error {
	for i := range op.alternates {
		if op.alternates[i].operation == alt {
			op.alternates[i].priority = priority
			op.sortAlternates()
			op.setChanged()
			return nil
		}
	}
	return NewDataError("operation '%s' is not an alternate of '%s'", alt.Name(), op.name)
}

// SetAlternateEffective updates the effectivity range of a sub-operation.
func (op *AlternateOperation) SetAlternateEffective(alt Operation, r DateRange) error {
	for i := range op.alternates {
		if op.alternates[i].operation == alt {
			op.alternates[i].effective = r
			op.setChanged()
			return nil
		}
	}
	return NewDataError("operation '%s' is not an alternate of '%s'", alt.Name(), op.name)
}

// RemoveAlternate drops a sub-operation.
func (op *AlternateOperation) RemoveAlternate(alt Operation) {
	for i, l := range op.alternates {
		if l.operation == alt {
			op.alternates = append(op.alternates[:i], op.alternates[i+1:]...)
			alt.Common().dropSuperOperation(op)
			op.setChanged()
			op.plan.setLevelsChanged()
			return
		}
	}
}

func (op *AlternateOperation) sortAlternates() {
	// Stable insertion sort: equal priorities keep their insertion order,
	// which makes selection deterministic.
	for i := 1; i < len(op.alternates); i++ {
		for j := i; j > 0 && op.alternates[j-1].priority > op.alternates[j].priority; j-- {
			op.alternates[j-1], op.alternates[j] = op.alternates[j], op.alternates[j-1]
		}
	}
}

// SetPlanParameters delegates to the single non-setup child plan, or
// accepts the parameters blindly when no child exists yet.
func (op *AlternateOperation) SetPlanParameters(o *OperationPlan, q float64, s, e time.Time, preferEnd, execute bool) (PlanState, error) {
	if o == nil || q < 0 {
		return PlanState{}, NewLogicError("incorrect parameters for alternate operation plan")
	}
	if o.locked {
		return stateOf(o), nil
	}
	child := o.lastSub
	for child != nil && child.isSetup {
		child = child.prevSub
	}
	if child == nil {
		q = o.setQuantityValue(q, false, execute)
		if !execute {
			return PlanState{Start: s, End: e, Quantity: q}, nil
		}
		o.setStartAndEnd(s, e)
		return stateOf(o), nil
	}
	x, err := child.operation.SetPlanParameters(child, q, s, e, preferEnd, execute)
	if err != nil {
		return PlanState{}, err
	}
	if execute {
		o.syncWithChildren()
		return stateOf(o), nil
	}
	return x, nil
}

// instantiate creates a child plan on the highest-priority alternate
// effective at the plan's end date. Alternates with priority zero are
// disabled.
func (op *AlternateOperation) instantiate(o *OperationPlan) (bool, error) {
	child := o.lastSub
	for child != nil && child.isSetup {
		child = child.prevSub
	}
	if child != nil {
		return true, nil
	}
	for _, l := range op.alternates {
		if l.priority == 0 || !l.effective.Within(o.end) {
			continue
		}
		if _, err := o.plan.CreateOperationPlan(l.operation, o.quantity, o.start, o.end, nil, o, true); err != nil {
			return true, err
		}
		o.syncWithChildren()
		return true, nil
	}
	return true, nil
}

// splitPart pairs a sub-operation with its share of the parent quantity.
type splitPart struct {
	operation Operation
	share     float64
	effective DateRange
}

// SplitOperation executes its sub-operations in parallel, splitting the
// plan quantity over them in fixed proportions.
type SplitOperation struct {
	OperationCommon
	parts []splitPart
}

// AddSplit registers a sub-operation with its proportion.
func (op *SplitOperation) AddSplit(sub Operation, share float64, effective DateRange) error {
	if sub == nil {
		return NewDataError("split sub-operation must not be nil")
	}
	if share <= 0 {
		return NewDataError("split share must be positive")
	}
	op.parts = append(op.parts, splitPart{operation: sub, share: share, effective: effective})
	sub.Common().superOps = append(sub.Common().superOps, op)
	op.setChanged()
	op.plan.setLevelsChanged()
	return nil
}

// Splits returns the sub-operations of the split.
func (op *SplitOperation) Splits() []Operation {
	out := make([]Operation, len(op.parts))
	for i, p := range op.parts {
		out[i] = p.operation
	}
	return out
}

// SetPlanParameters repositions every child in the same window, keeping
// the fixed proportions. Children may overlap freely.
func (op *SplitOperation) SetPlanParameters(o *OperationPlan, q float64, s, e time.Time, preferEnd, execute bool) (PlanState, error) {
	if o == nil || q < 0 {
		return PlanState{}, NewLogicError("incorrect parameters for split operation plan")
	}
	if o.locked {
		return stateOf(o), nil
	}
	if o.firstSub == nil {
		q = o.setQuantityValue(q, false, execute)
		if !execute {
			return PlanState{Start: s, End: e, Quantity: q}, nil
		}
		o.setStartAndEnd(s, e)
		return stateOf(o), nil
	}
	total := op.totalShare(o.end)
	for child := o.firstSub; child != nil; child = child.nextSub {
		if child.isSetup {
			continue
		}
		share := op.shareOf(child.operation)
		childQty := 0.0
		if total > 0 {
			childQty = q * share / total
		}
		if _, err := child.operation.SetPlanParameters(child, childQty, s, e, preferEnd, execute); err != nil {
			return PlanState{}, err
		}
	}
	if execute {
		o.syncWithChildren()
		o.quantity = q
		return stateOf(o), nil
	}
	return PlanState{Start: s, End: e, Quantity: q}, nil
}

func (op *SplitOperation) totalShare(at time.Time) float64 {
	var total float64
	for _, p := range op.parts {
		if p.effective.Within(at) {
			total += p.share
		}
	}
	return total
}

func (op *SplitOperation) shareOf(sub Operation) float64 {
	for _, p := range op.parts {
		if p.operation == sub {
			return p.share
		}
	}
	return 0
}

// instantiate creates one child per effective part, splitting the quantity
// proportionally.
func (op *SplitOperation) instantiate(o *OperationPlan) (bool, error) {
	if o.firstSub != nil {
		return true, nil
	}
	total := op.totalShare(o.end)
	if total <= 0 {
		return true, nil
	}
	for _, p := range op.parts {
		if !p.effective.Within(o.end) {
			continue
		}
		qty := o.quantity * p.share / total
		if _, err := o.plan.CreateOperationPlan(p.operation, qty, o.start, o.end, nil, o, true); err != nil {
			return true, err
		}
	}
	o.syncWithChildren()
	o.quantity = o.childQuantitySum()
	return true, nil
}

// SetupOperation is the synthetic operation representing a setup
// conversion on a resource. One hidden instance serves the whole plan; its
// plans always live under the plan they convert the resource for.
type SetupOperation struct {
	OperationCommon
}

// SetPlanParameters derives the conversion duration from the setup matrix,
// using the resource state at the boundary date, and fits it like a
// fixed-duration operation. The owning plan is pushed to start at the
// conversion end.
func (op *SetupOperation) SetPlanParameters(o *OperationPlan, q float64, s, e time.Time, preferEnd, execute bool) (PlanState, error) {
	if o.owner == nil {
		return PlanState{}, NewLogicError("setup operation plan always must have an owner")
	}
	var ld *Load
	for _, l := range o.owner.operation.Common().loads {
		if l.Setup() != "" && l.Resource().SetupMatrix() != nil {
			ld = l
			break
		}
	}
	if ld == nil {
		return PlanState{}, NewLogicError("can't find a setup on operation '%s'", o.owner.operation.Name())
	}

	boundary := s
	if !dateGiven(boundary) {
		boundary = e
	}
	last := ld.Resource().setupAt(boundary, o, o.owner)
	var duration time.Duration
	if last != ld.Setup() {
		if rule := ld.Resource().SetupMatrix().CalculateSetup(last, ld.Setup()); rule != nil {
			duration = rule.Duration()
		} else {
			duration = setupPenaltyDuration
		}
	}

	state, err := fixedDurationParams(&op.OperationCommon, duration, o, q, s, e, preferEnd, execute)
	if err != nil {
		return state, err
	}
	if execute && !o.owner.start.Equal(o.end) {
		o.owner.setStartAndEnd(o.end, o.owner.end)
	}
	return state, nil
}

func (op *SetupOperation) instantiate(o *OperationPlan) (bool, error) { return true, nil }

// ItemSupplierOperation is the synthetic purchase operation derived from an
// item-supplier relation. It behaves like a fixed-time operation whose
// duration is the purchasing leadtime.
type ItemSupplierOperation struct {
	FixedTimeOperation
	itemSupplier *ItemSupplier
}

// ItemSupplier returns the relation the operation was derived from.
func (op *ItemSupplierOperation) ItemSupplier() *ItemSupplier { return op.itemSupplier }

// dropSuperOperation removes a super-operation back-reference.
func (c *OperationCommon) dropSuperOperation(super Operation) {
	for i, s := range c.superOps {
		if s == super {
			c.superOps = append(c.superOps[:i], c.superOps[i+1:]...)
			return
		}
	}
}
