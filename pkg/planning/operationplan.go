package planning

import (
	"time"
)

// roundingError is the tolerance applied to all quantity comparisons.
const roundingError = 1e-6

// OperationPlan is one scheduled execution of an operation: a start date,
// an end date and a quantity. Its flow plans and load plans project the
// execution onto the buffer and resource timelines. Plans of composite
// operations own child plans.
type OperationPlan struct {
	plan      *Plan
	operation Operation
	id        uint64

	owner    *OperationPlan
	prevSub  *OperationPlan
	nextSub  *OperationPlan
	firstSub *OperationPlan
	lastSub  *OperationPlan

	// Intrusive list of all plans of the same operation, kept in
	// (start asc, quantity desc) order.
	prev *OperationPlan
	next *OperationPlan

	start    time.Time
	end      time.Time
	quantity float64
	demand   *Demand

	locked          bool
	consumeMaterial bool
	produceMaterial bool
	consumeCapacity bool
	isSetup         bool
	hasSetup        bool
	active          bool
	destroyed       bool

	flowPlans []*FlowPlan
	loadPlans []*LoadPlan
	problems  []Problem
}

// CreateOperationPlan builds a new, not yet activated plan for an
// operation. The variant's shape rules are applied to the requested
// quantity and dates immediately. With makeFlowPlans the material and
// capacity events are created as well.
func (p *Plan) CreateOperationPlan(op Operation, qty float64, start, end time.Time, demand *Demand, owner *OperationPlan, makeFlowPlans bool) (*OperationPlan, error) {
	if op == nil {
		return nil, NewDataError("operation plan needs an operation")
	}
	if qty < 0 {
		return nil, NewDataError("operation plan quantity must not be negative")
	}
	o := &OperationPlan{
		plan:            p,
		operation:       op,
		quantity:        qty,
		demand:          demand,
		consumeMaterial: true,
		produceMaterial: true,
		consumeCapacity: true,
	}
	if owner != nil {
		o.setOwner(owner)
	}
	if _, err := op.SetPlanParameters(o, qty, start, end, true, true); err != nil {
		o.unlinkOwner()
		return nil, err
	}
	if makeFlowPlans {
		o.createFlowLoadPlans()
	}
	op.Common().setChanged()
	return o, nil
}

// Operation returns the planned operation.
func (o *OperationPlan) Operation() Operation { return o.operation }

// Plan returns the owning plan aggregate.
func (o *OperationPlan) Plan() *Plan { return o.plan }

// ID returns the plan identifier, drawing one from the monotonic counter
// on first read.
func (o *OperationPlan) ID() uint64 {
	if o.id == 0 {
		o.id = o.plan.takePlanID()
	}
	return o.id
}

// Owner returns the parent plan, or nil for a top-level plan.
func (o *OperationPlan) Owner() *OperationPlan { return o.owner }

// TopOwner follows the owner chain to the outermost plan.
func (o *OperationPlan) TopOwner() *OperationPlan {
	t := o
	for t.owner != nil {
		t = t.owner
	}
	return t
}

// Start returns the plan start date.
func (o *OperationPlan) Start() time.Time { return o.start }

// End returns the plan end date.
func (o *OperationPlan) End() time.Time { return o.end }

// Quantity returns the planned quantity.
func (o *OperationPlan) Quantity() float64 { return o.quantity }

// Demand returns the demand this plan delivers, or nil.
func (o *OperationPlan) Demand() *Demand { return o.demand }

// Locked reports whether the plan is frozen against solver mutation.
func (o *OperationPlan) Locked() bool { return o.locked }

// IsSetup reports whether this plan represents a setup conversion.
func (o *OperationPlan) IsSetup() bool { return o.isSetup }

// HasSetup reports whether this plan owns a setup conversion child.
func (o *OperationPlan) HasSetup() bool { return o.hasSetup }

// ConsumeMaterial reports whether consuming flow plans carry quantity.
func (o *OperationPlan) ConsumeMaterial() bool { return o.consumeMaterial }

// SetConsumeMaterial toggles material consumption of the plan.
func (o *OperationPlan) SetConsumeMaterial(v bool) {
	o.consumeMaterial = v
	o.refreshFlowLoadPlans()
}

// ProduceMaterial reports whether producing flow plans carry quantity.
func (o *OperationPlan) ProduceMaterial() bool { return o.produceMaterial }

// SetProduceMaterial toggles material production of the plan.
func (o *OperationPlan) SetProduceMaterial(v bool) {
	o.produceMaterial = v
	o.refreshFlowLoadPlans()
}

// ConsumeCapacity reports whether load plans occupy their resource. The
// flag applies to bucketed and continuous resources alike.
func (o *OperationPlan) ConsumeCapacity() bool { return o.consumeCapacity }

// SetConsumeCapacity toggles capacity consumption of the plan.
func (o *OperationPlan) SetConsumeCapacity(v bool) {
	o.consumeCapacity = v
	o.refreshFlowLoadPlans()
}

// FlowPlans returns the material events of this plan.
func (o *OperationPlan) FlowPlans() []*FlowPlan { return o.flowPlans }

// LoadPlans returns the capacity events of this plan.
func (o *OperationPlan) LoadPlans() []*LoadPlan { return o.loadPlans }

// FirstChild returns the first child plan, or nil.
func (o *OperationPlan) FirstChild() *OperationPlan { return o.firstSub }

// LastChild returns the last child plan, or nil.
func (o *OperationPlan) LastChild() *OperationPlan { return o.lastSub }

// EachChild walks the child plans in start order.
func (o *OperationPlan) EachChild(fn func(*OperationPlan) bool) {
	for c := o.firstSub; c != nil; c = c.nextSub {
		if !fn(c) {
			return
		}
	}
}

// NextSibling returns the next child of the same owner.
func (o *OperationPlan) NextSibling() *OperationPlan { return o.nextSub }

// setOwner links the plan under a parent, keeping children in start order.
func (o *OperationPlan) setOwner(owner *OperationPlan) {
	o.owner = owner
	var after *OperationPlan
	for x := owner.firstSub; x != nil; x = x.nextSub {
		if x.start.After(o.start) {
			break
		}
		after = x
	}
	if after == nil {
		o.nextSub = owner.firstSub
		if owner.firstSub != nil {
			owner.firstSub.prevSub = o
		}
		owner.firstSub = o
		if owner.lastSub == nil {
			owner.lastSub = o
		}
		return
	}
	o.prevSub = after
	o.nextSub = after.nextSub
	if after.nextSub != nil {
		after.nextSub.prevSub = o
	} else {
		owner.lastSub = o
	}
	after.nextSub = o
}

// unlinkOwner removes the plan from its parent's child list.
func (o *OperationPlan) unlinkOwner() {
	if o.owner == nil {
		return
	}
	if o.prevSub != nil {
		o.prevSub.nextSub = o.nextSub
	} else if o.owner.firstSub == o {
		o.owner.firstSub = o.nextSub
	}
	if o.nextSub != nil {
		o.nextSub.prevSub = o.prevSub
	} else if o.owner.lastSub == o {
		o.owner.lastSub = o.prevSub
	}
	o.prevSub = nil
	o.nextSub = nil
	o.owner = nil
}

// resortWithinOwner restores child order after a date mutation.
func (o *OperationPlan) resortWithinOwner() {
	owner := o.owner
	if owner == nil {
		return
	}
	o.unlinkOwner()
	o.setOwner(owner)
}

// createFlowLoadPlans materializes the material and capacity events of the
// plan. Alternate flow groups contribute a single flow plan: the effective
// flow with the best priority.
func (o *OperationPlan) createFlowLoadPlans() {
	if len(o.flowPlans) > 0 || len(o.loadPlans) > 0 {
		return
	}
	c := o.operation.Common()
	chosen := make(map[string]*Flow)
	for _, f := range c.flows {
		if f.Alternate() == "" {
			continue
		}
		cur := chosen[f.Alternate()]
		if !f.Effective().Within(o.end) {
			continue
		}
		if cur == nil || f.Priority() < cur.Priority() {
			chosen[f.Alternate()] = f
		}
	}
	for _, f := range c.flows {
		if f.Alternate() != "" && chosen[f.Alternate()] != f {
			continue
		}
		newFlowPlan(o, f)
	}
	for _, l := range c.loads {
		newLoadPlan(o, l)
	}
}

// refreshFlowLoadPlans recomputes the dates and quantities of all events.
func (o *OperationPlan) refreshFlowLoadPlans() {
	for _, fp := range o.flowPlans {
		fp.update()
	}
	for _, lp := range o.loadPlans {
		lp.update()
	}
}

// dropFlowLoadPlans removes all events from their timelines.
func (o *OperationPlan) dropFlowLoadPlans() {
	for _, fp := range o.flowPlans {
		fp.destroy()
	}
	o.flowPlans = nil
	for _, lp := range o.loadPlans {
		lp.destroy()
	}
	o.loadPlans = nil
}

// setQuantityValue applies the operation sizing rules and, when execute is
// set, stores the result and refreshes the dependent events. The sized
// quantity is returned.
func (o *OperationPlan) setQuantityValue(q float64, roundDown, execute bool) float64 {
	q = o.operation.Common().sizeQuantity(q, roundDown)
	if !execute {
		return q
	}
	if q != o.quantity {
		o.quantity = q
		o.refreshFlowLoadPlans()
		if o.active {
			o.operation.Common().relinkPlan(o)
		}
		o.markChanged()
	}
	return q
}

// setStartAndEnd stores new plan dates and refreshes the dependent events.
func (o *OperationPlan) setStartAndEnd(s, e time.Time) {
	if o.start.Equal(s) && o.end.Equal(e) {
		return
	}
	o.start = s
	o.end = e
	o.refreshFlowLoadPlans()
	if o.active {
		o.operation.Common().relinkPlan(o)
	}
	o.resortWithinOwner()
	o.markChanged()
}

// syncWithChildren pulls the parent dates and quantity from the child
// plans: the dates are the envelope; the quantity follows the variant
// rules (the single active child for alternates, the step quantity for
// routings, the sum for splits).
func (o *OperationPlan) syncWithChildren() {
	if o.firstSub == nil {
		return
	}
	s, e := InfiniteFuture, InfinitePast
	for c := o.firstSub; c != nil; c = c.nextSub {
		if dateGiven(c.start) && c.start.Before(s) {
			s = c.start
		}
		if dateGiven(c.end) && c.end.After(e) {
			e = c.end
		}
	}
	var qty float64
	switch o.operation.(type) {
	case *SplitOperation:
		qty = o.childQuantitySum()
	default:
		for c := o.lastSub; c != nil; c = c.prevSub {
			if !c.isSetup {
				qty = c.quantity
				break
			}
		}
	}
	o.start = s
	o.end = e
	o.quantity = qty
	o.refreshFlowLoadPlans()
	if o.active {
		o.operation.Common().relinkPlan(o)
	}
	o.markChanged()
}

func (o *OperationPlan) childQuantitySum() float64 {
	var total float64
	for c := o.firstSub; c != nil; c = c.nextSub {
		if !c.isSetup {
			total += c.quantity
		}
	}
	return total
}

// SetQuantity resizes the plan through the operation's shape rules. Locked
// plans ignore the call.
func (o *OperationPlan) SetQuantity(q float64) error {
	if o.locked {
		return nil
	}
	if q < 0 {
		return NewDataError("operation plan quantity must not be negative")
	}
	_, err := o.operation.SetPlanParameters(o, q, time.Time{}, o.end, true, true)
	return err
}

// SetStart moves the plan to a new start date, deriving the end from the
// shape rules. Locked plans ignore the call.
func (o *OperationPlan) SetStart(d time.Time) error {
	if o.locked {
		return nil
	}
	_, err := o.operation.SetPlanParameters(o, o.quantity, d, time.Time{}, false, true)
	return err
}

// SetEnd moves the plan to a new end date, deriving the start from the
// shape rules. Locked plans ignore the call.
func (o *OperationPlan) SetEnd(d time.Time) error {
	if o.locked {
		return nil
	}
	_, err := o.operation.SetPlanParameters(o, o.quantity, time.Time{}, d, true, true)
	return err
}

// SetLocked freezes or unfreezes the plan. A locked plan keeps its events
// on the timelines but refuses every parameter change.
func (o *OperationPlan) SetLocked(v bool) {
	o.locked = v
	o.markChanged()
}

// Activate turns the plan into a full member of the model: variant
// instantiation runs (routings build steps, alternates pick a child,
// fixed-time plans may merge away), an identifier is assigned, the plan
// joins its operation's list and registers as a delivery with its demand.
func (o *OperationPlan) Activate() error {
	if o.active || o.destroyed {
		return nil
	}
	keep, err := o.operation.instantiate(o)
	if err != nil {
		return err
	}
	if !keep {
		// Merged into an existing plan.
		o.Destroy()
		return nil
	}
	if err := o.createSetupPlan(); err != nil {
		return err
	}
	o.active = true
	_ = o.ID()
	o.operation.Common().linkPlan(o)
	if o.demand != nil && o.owner == nil {
		o.demand.addDelivery(o)
	}
	for c := o.firstSub; c != nil; c = c.nextSub {
		if err := c.Activate(); err != nil {
			return err
		}
	}
	o.markChanged()
	return nil
}

// Deactivate removes the plan from its operation's list and from its
// demand without touching the timelines.
func (o *OperationPlan) Deactivate() {
	if !o.active {
		return
	}
	o.active = false
	o.operation.Common().unlinkPlan(o)
	if o.demand != nil && o.owner == nil {
		o.demand.removeDelivery(o)
	}
	o.markChanged()
}

// Destroy drops the plan and all its children from the model, erasing
// every flow and load plan from the timelines.
func (o *OperationPlan) Destroy() {
	if o.destroyed {
		return
	}
	o.Deactivate()
	for c := o.firstSub; c != nil; {
		next := c.nextSub
		c.Destroy()
		c = next
	}
	o.dropFlowLoadPlans()
	o.unlinkOwner()
	o.destroyed = true
	o.markChanged()
}

// Active reports whether the plan is activated and not destroyed.
func (o *OperationPlan) Active() bool { return o.active && !o.destroyed }

// createSetupPlan inserts a setup conversion child when the operation
// loads a resource with a setup matrix and a required setup.
func (o *OperationPlan) createSetupPlan() error {
	if o.isSetup || o.hasSetup {
		return nil
	}
	var ld *Load
	for _, l := range o.operation.Common().loads {
		if l.Setup() != "" && l.Resource().SetupMatrix() != nil {
			ld = l
			break
		}
	}
	if ld == nil {
		return nil
	}
	setupOp := o.plan.setupOperation()
	child := &OperationPlan{
		plan:            o.plan,
		operation:       setupOp,
		quantity:        1,
		isSetup:         true,
		consumeMaterial: true,
		produceMaterial: true,
		consumeCapacity: true,
	}
	child.setOwner(o)
	newLoadPlan(child, ld)
	if _, err := setupOp.SetPlanParameters(child, 1, time.Time{}, o.start, true, true); err != nil {
		child.unlinkOwner()
		return err
	}
	o.hasSetup = true
	return nil
}

// markChanged flags every entity whose problems depend on this plan.
func (o *OperationPlan) markChanged() {
	c := o.operation.Common()
	c.setChanged()
	for _, fp := range o.flowPlans {
		fp.flow.buffer.setChanged()
	}
	for _, lp := range o.loadPlans {
		lp.resource.setChanged()
	}
	if o.demand != nil {
		o.demand.setChanged()
	}
	if o.owner != nil {
		o.owner.operation.Common().setChanged()
	}
}
