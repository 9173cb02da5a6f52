package planning

// PeggingIterator walks the who-feeds-whom graph of the plan: starting
// from a demand, an operation plan or a flow plan's operation plan, it reports which
// upstream production covers which downstream consumption and in what
// proportion. The iterator is single-pass and not restartable; clients
// wanting deduplication must remember visited plans themselves.
type PeggingIterator struct {
	downstream     bool
	states         []peggingState
	first          bool
	firstIteration bool
}

// peggingState is one stack frame of the traversal.
type peggingState struct {
	opplan   *OperationPlan
	quantity float64
	offset   float64
	level    int
}

// NewDemandPegging starts an upstream traversal from the deliveries of a
// demand.
func NewDemandPegging(d *Demand) *PeggingIterator {
	it := &PeggingIterator{downstream: false, firstIteration: true}
	for _, o := range d.Deliveries() {
		top := o.TopOwner()
		it.updateStack(top, top.quantity, 0, 0)
	}
	return it
}

// NewOperationPlanPegging starts a traversal from an operation plan,
// upstream or downstream.
func NewOperationPlanPegging(o *OperationPlan, downstream bool) *PeggingIterator {
	it := &PeggingIterator{downstream: downstream, firstIteration: true}
	if o == nil {
		return it
	}
	top := o.TopOwner()
	if _, isSplit := top.operation.(*SplitOperation); isSplit {
		it.updateStack(o, o.quantity, 0, 0)
	} else {
		it.updateStack(top, top.quantity, 0, 0)
	}
	return it
}

// NewFlowPlanPegging starts a traversal from the top-level operation plan
// owning a flow plan. Every flow plan of that operation plan is followed,
// not only the given one.
func NewFlowPlanPegging(fp *FlowPlan, downstream bool) *PeggingIterator {
	it := &PeggingIterator{downstream: downstream, firstIteration: true}
	if fp == nil {
		return it
	}
	top := fp.opplan.TopOwner()
	it.updateStack(top, top.quantity, 0, 0)
	return it
}

// Next advances the traversal. It reports false when the walk is finished.
func (it *PeggingIterator) Next() bool {
	if it.firstIteration {
		it.firstIteration = false
		return len(it.states) > 0
	}
	if len(it.states) == 0 {
		return false
	}
	// Mark the top entry as reusable, then expand it. When nothing
	// replaces it, pop it.
	it.first = true
	t := it.states[len(it.states)-1]
	it.followPegging(t.opplan, t.quantity, t.offset, t.level)
	if it.first {
		it.states = it.states[:len(it.states)-1]
	}
	return len(it.states) > 0
}

// OperationPlan returns the plan of the current frame.
func (it *PeggingIterator) OperationPlan() *OperationPlan {
	return it.states[len(it.states)-1].opplan
}

// Quantity returns the pegged quantity of the current frame.
func (it *PeggingIterator) Quantity() float64 {
	return it.states[len(it.states)-1].quantity
}

// Offset returns the cumulative offset of the current frame.
func (it *PeggingIterator) Offset() float64 {
	return it.states[len(it.states)-1].offset
}

// Level returns the traversal depth of the current frame.
func (it *PeggingIterator) Level() int {
	return it.states[len(it.states)-1].level
}

// Downstream reports the traversal direction.
func (it *PeggingIterator) Downstream() bool { return it.downstream }

// followPegging expands one frame: the buffers touched by the plan's flow
// plans contribute the pegged counterpart plans, and child plans are
// stacked with quantities rescaled by their share of the parent.
func (it *PeggingIterator) followPegging(o *OperationPlan, qty, offset float64, lvl int) {
	if o.quantity == 0 {
		// Zero-quantity plans have no pegging.
		return
	}
	for _, fp := range o.flowPlans {
		if it.downstream && fp.Quantity() > roundingError {
			fp.Buffer().followPegging(it, fp, qty, offset, lvl+1)
		}
		if !it.downstream && fp.Quantity() < -roundingError {
			fp.Buffer().followPegging(it, fp, qty, offset, lvl+1)
		}
	}
	for child := o.firstSub; child != nil; child = child.nextSub {
		it.updateStack(child,
			qty*child.quantity/o.quantity,
			offset*child.quantity/o.quantity,
			lvl+1)
	}
}

// updateStack replaces the reusable top frame or pushes a new one. Very
// small pegged quantities are dropped.
func (it *PeggingIterator) updateStack(o *OperationPlan, qty, offset float64, lvl int) {
	if qty < roundingError {
		return
	}
	if it.first {
		t := &it.states[len(it.states)-1]
		t.opplan = o
		t.quantity = qty
		t.offset = offset
		t.level = lvl
		it.first = false
	} else {
		it.states = append(it.states, peggingState{opplan: o, quantity: qty, offset: offset, level: lvl})
	}
}
