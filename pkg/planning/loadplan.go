package planning

import "time"

// LoadPlan is the pair of capacity events an operation plan creates on a
// resource timeline: occupation rises at the plan start and falls at the
// plan end. On a bucketed resource there is a single event at the plan
// start, consuming capacity inside the bucket it falls in.
type LoadPlan struct {
	opplan     *OperationPlan
	load       *Load
	resource   *Resource
	startEvent *Event[*LoadPlan]
	endEvent   *Event[*LoadPlan]
}

// newLoadPlan creates the events and inserts them into the timeline of the
// selected resource, which may differ from the load's own resource when a
// required skill allows substitution.
func newLoadPlan(o *OperationPlan, l *Load) *LoadPlan {
	lp := &LoadPlan{opplan: o, load: l}
	lp.resource = l.findResource(DateRange{Start: o.start, End: o.end})
	startQty, endQty := lp.computeQuantities()
	lp.startEvent = lp.resource.timeline.InsertChange(o.start, startQty, lp)
	if lp.resource.kind != ResourceBucketed {
		lp.endEvent = lp.resource.timeline.InsertChange(o.end, endQty, lp)
	}
	o.loadPlans = append(o.loadPlans, lp)
	lp.resource.setChanged()
	return lp
}

// OperationPlan returns the owning plan.
func (lp *LoadPlan) OperationPlan() *OperationPlan { return lp.opplan }

// Load returns the static arc this event derives from.
func (lp *LoadPlan) Load() *Load { return lp.load }

// Resource returns the resource actually carrying the load.
func (lp *LoadPlan) Resource() *Resource { return lp.resource }

// StartEvent returns the event at the plan start.
func (lp *LoadPlan) StartEvent() *Event[*LoadPlan] { return lp.startEvent }

// EndEvent returns the event at the plan end, or nil on a bucketed
// resource.
func (lp *LoadPlan) EndEvent() *Event[*LoadPlan] { return lp.endEvent }

// Date returns the date of the start event.
func (lp *LoadPlan) Date() time.Time { return lp.startEvent.Date() }

// computeQuantities derives the signed quantities of the start and end
// events. The quantity is zero outside the load's effectivity window and
// when the plan does not consume capacity.
func (lp *LoadPlan) computeQuantities() (float64, float64) {
	if !lp.load.effective.Within(lp.opplan.start) {
		return 0, 0
	}
	if !lp.opplan.consumeCapacity || lp.opplan.quantity == 0 {
		return 0, 0
	}
	if lp.resource.kind == ResourceBucketed {
		return -lp.load.quantity * lp.opplan.quantity, 0
	}
	return lp.load.quantity, -lp.load.quantity
}

// update refreshes the events after a plan mutation.
func (lp *LoadPlan) update() {
	startQty, endQty := lp.computeQuantities()
	lp.resource.timeline.Update(lp.startEvent, startQty, lp.opplan.start)
	if lp.endEvent != nil {
		lp.resource.timeline.Update(lp.endEvent, endQty, lp.opplan.end)
	}
	lp.resource.setChanged()
}

// destroy erases the events from the resource timeline.
func (lp *LoadPlan) destroy() {
	lp.resource.timeline.Erase(lp.startEvent)
	if lp.endEvent != nil {
		lp.resource.timeline.Erase(lp.endEvent)
	}
	lp.resource.setChanged()
}
