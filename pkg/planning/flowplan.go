package planning

import "time"

// FlowPlan is the material event an operation plan creates on a buffer
// timeline. Its date follows the flow type (plan start or end) and its
// quantity is proportional to the plan quantity, or constant for fixed
// flows. Outside the flow's effectivity window the quantity is zero.
type FlowPlan struct {
	opplan *OperationPlan
	flow   *Flow
	event  *Event[*FlowPlan]
}

// newFlowPlan creates the event and inserts it into the buffer timeline.
func newFlowPlan(o *OperationPlan, f *Flow) *FlowPlan {
	fp := &FlowPlan{opplan: o, flow: f}
	fp.event = f.buffer.timeline.InsertChange(fp.date(), fp.computeQuantity(), fp)
	o.flowPlans = append(o.flowPlans, fp)
	f.buffer.setChanged()
	return fp
}

// OperationPlan returns the owning plan.
func (fp *FlowPlan) OperationPlan() *OperationPlan { return fp.opplan }

// Flow returns the static arc this event derives from.
func (fp *FlowPlan) Flow() *Flow { return fp.flow }

// Buffer returns the buffer holding the event.
func (fp *FlowPlan) Buffer() *Buffer { return fp.flow.buffer }

// Date returns the event date.
func (fp *FlowPlan) Date() time.Time { return fp.event.Date() }

// Quantity returns the signed event quantity.
func (fp *FlowPlan) Quantity() float64 { return fp.event.Quantity() }

// Event returns the timeline node of this flow plan.
func (fp *FlowPlan) Event() *Event[*FlowPlan] { return fp.event }

// date derives the event date from the flow type.
func (fp *FlowPlan) date() time.Time {
	switch fp.flow.typ {
	case FlowStart, FlowFixedStart:
		return fp.opplan.start
	default:
		return fp.opplan.end
	}
}

// computeQuantity derives the signed event quantity.
func (fp *FlowPlan) computeQuantity() float64 {
	if !fp.flow.effective.Within(fp.date()) {
		return 0
	}
	if fp.flow.IsConsumer() && !fp.opplan.consumeMaterial {
		return 0
	}
	if fp.flow.IsProducer() && !fp.opplan.produceMaterial {
		return 0
	}
	if fp.flow.IsFixed() {
		if fp.opplan.quantity == 0 {
			return 0
		}
		return fp.flow.quantity
	}
	return fp.flow.quantity * fp.opplan.quantity
}

// update refreshes the event after a plan mutation.
func (fp *FlowPlan) update() {
	fp.flow.buffer.timeline.Update(fp.event, fp.computeQuantity(), fp.date())
	fp.flow.buffer.setChanged()
}

// destroy erases the event from the buffer timeline.
func (fp *FlowPlan) destroy() {
	fp.flow.buffer.timeline.Erase(fp.event)
	fp.flow.buffer.setChanged()
}
