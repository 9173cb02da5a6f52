package planning

import (
	"time"

	"github.com/shopspring/decimal"
)

// BufferKind discriminates the buffer subtypes.
type BufferKind int

const (
	// BufferStandard is a normal stock-point with min/max constraints.
	BufferStandard BufferKind = iota
	// BufferInfinite never constrains the plan.
	BufferInfinite
	// BufferProcure replenishes itself with purchase proposals following a
	// reorder-point policy.
	BufferProcure
)

// Buffer is a stock-point for one item at one location. The material
// inventory lives on its timeline.
type Buffer struct {
	plannable
	hasLevel
	plan        *Plan
	name        string
	kind        BufferKind
	item        *Item
	loc         *Location
	producing   Operation
	autoBuilt   bool
	carrying    decimal.Decimal
	tool        bool
	hidden      bool
	flows       []*Flow
	timeline    *Timeline[*FlowPlan]
	onhandEvent *Event[*FlowPlan]

	minValue    float64
	minCalendar *Calendar
	minEvents   []*Event[*FlowPlan]
	maxValue    float64
	maxCalendar *Calendar
	maxEvents   []*Event[*FlowPlan]

	// Procurement policy fields, meaningful for BufferProcure only.
	leadtime     time.Duration
	minInventory float64
	maxInventory float64
	sizeMinimum  float64
	sizeMaximum  float64
	sizeMultiple float64
	minInterval  time.Duration
	maxInterval  time.Duration
}

// Name returns the unique buffer name.
func (b *Buffer) Name() string { return b.name }

// Kind returns the buffer subtype.
func (b *Buffer) Kind() BufferKind { return b.kind }

// Item returns the stocked item.
func (b *Buffer) Item() *Item { return b.item }

// SetItem updates the stocked item.
func (b *Buffer) SetItem(i *Item) { b.item = i }

// Location returns the stocking location.
func (b *Buffer) Location() *Location { return b.loc }

// SetLocation updates the stocking location.
func (b *Buffer) SetLocation(l *Location) { b.loc = l }

// CarryingCost returns the inventory carrying cost per unit per year.
func (b *Buffer) CarryingCost() decimal.Decimal { return b.carrying }

// SetCarryingCost updates the carrying cost.
func (b *Buffer) SetCarryingCost(c decimal.Decimal) error {
	if c.IsNegative() {
		return NewDataError("buffer carrying cost must not be negative")
	}
	b.carrying = c
	return nil
}

// Tool reports whether the buffer stocks a reusable tool. Tool buffers
// contribute no pegging links.
func (b *Buffer) Tool() bool { return b.tool }

// SetTool marks the buffer as a tool buffer.
func (b *Buffer) SetTool(v bool) { b.tool = v }

// Hidden reports whether the buffer was generated internally.
func (b *Buffer) Hidden() bool { return b.hidden }

// Flows returns the material arcs incident to the buffer.
func (b *Buffer) Flows() []*Flow { return b.flows }

// Timeline returns the buffer's event list.
func (b *Buffer) Timeline() *Timeline[*FlowPlan] { return b.timeline }

// Onhand returns the initial inventory.
func (b *Buffer) Onhand() float64 {
	if b.onhandEvent == nil {
		return 0
	}
	return b.onhandEvent.Value()
}

// SetOnhand updates the initial inventory, materialized as an onhand reset
// at the very start of the horizon.
func (b *Buffer) SetOnhand(v float64) {
	if b.onhandEvent == nil {
		b.onhandEvent = b.timeline.InsertSetOnhand(InfinitePast, v)
	} else {
		b.timeline.UpdateValue(b.onhandEvent, v, InfinitePast)
	}
	b.setChanged()
}

// OnhandAt returns the projected inventory at the given date.
func (b *Buffer) OnhandAt(d time.Time) float64 { return b.timeline.OnhandAt(d) }

// Minimum returns the scalar minimum inventory target.
func (b *Buffer) Minimum() float64 { return b.minValue }

// SetMinimum sets a constant minimum inventory target.
func (b *Buffer) SetMinimum(v float64) {
	b.minValue = v
	b.minCalendar = nil
	b.rebuildEnvelope(EventMin)
	b.setChanged()
}

// SetMinimumCalendar drives the minimum inventory target from a calendar.
func (b *Buffer) SetMinimumCalendar(c *Calendar) {
	b.minCalendar = c
	b.rebuildEnvelope(EventMin)
	b.setChanged()
}

// Maximum returns the scalar maximum inventory target.
func (b *Buffer) Maximum() float64 { return b.maxValue }

// SetMaximum sets a constant maximum inventory target.
func (b *Buffer) SetMaximum(v float64) {
	b.maxValue = v
	b.maxCalendar = nil
	b.rebuildEnvelope(EventMax)
	b.setChanged()
}

// SetMaximumCalendar drives the maximum inventory target from a calendar.
func (b *Buffer) SetMaximumCalendar(c *Calendar) {
	b.maxCalendar = c
	b.rebuildEnvelope(EventMax)
	b.setChanged()
}

// rebuildEnvelope re-materializes the min or max change points on the
// timeline from the scalar value or the driving calendar.
func (b *Buffer) rebuildEnvelope(kind EventKind) {
	events := &b.minEvents
	cal := b.minCalendar
	scalar := b.minValue
	if kind == EventMax {
		events = &b.maxEvents
		cal = b.maxCalendar
		scalar = b.maxValue
	}
	for _, e := range *events {
		b.timeline.Erase(e)
	}
	*events = nil
	insert := func(d time.Time, v float64) {
		var e *Event[*FlowPlan]
		if kind == EventMin {
			e = b.timeline.InsertMin(d, v)
		} else {
			e = b.timeline.InsertMax(d, v)
		}
		*events = append(*events, e)
	}
	if cal == nil {
		insert(InfinitePast, scalar)
		return
	}
	insert(InfinitePast, cal.ValueAt(InfinitePast))
	for d := cal.NextEventAfter(InfinitePast); d.Before(InfiniteFuture); d = cal.NextEventAfter(d) {
		insert(d, cal.ValueAt(d))
	}
}

// ProducingOperation returns the operation replenishing this buffer. When
// none is configured, a purchase operation is derived from the best
// item-supplier relation of the stocked item.
func (b *Buffer) ProducingOperation() Operation {
	if b.producing != nil || b.kind != BufferStandard {
		return b.producing
	}
	if b.item == nil {
		return nil
	}
	var best *ItemSupplier
	b.plan.Suppliers().Each(func(s *Supplier) bool {
		for _, is := range s.Items() {
			if is.Item() != b.item {
				continue
			}
			if best == nil || is.Priority() < best.Priority() {
				best = is
			}
		}
		return true
	})
	if best == nil {
		return nil
	}
	op, err := b.plan.newItemSupplierOperation(b, best)
	if err != nil {
		return nil
	}
	b.producing = op
	b.autoBuilt = true
	return op
}

// SetProducingOperation updates the replenishing operation.
func (b *Buffer) SetProducingOperation(op Operation) {
	b.producing = op
	b.autoBuilt = false
	b.setChanged()
	b.plan.setLevelsChanged()
}

// Leadtime returns the procurement leadtime.
func (b *Buffer) Leadtime() time.Duration { return b.leadtime }

// SetLeadtime updates the procurement leadtime.
func (b *Buffer) SetLeadtime(d time.Duration) error {
	if d < 0 {
		return NewDataError("buffer leadtime must not be negative")
	}
	b.leadtime = d
	return nil
}

// MinimumInventory returns the reorder point.
func (b *Buffer) MinimumInventory() float64 { return b.minInventory }

// SetMinimumInventory updates the reorder point.
func (b *Buffer) SetMinimumInventory(v float64) { b.minInventory = v }

// MaximumInventory returns the order-up-to level.
func (b *Buffer) MaximumInventory() float64 { return b.maxInventory }

// SetMaximumInventory updates the order-up-to level.
func (b *Buffer) SetMaximumInventory(v float64) { b.maxInventory = v }

// SetOrderSizing updates the min/max/multiple order size rules.
func (b *Buffer) SetOrderSizing(min, max, multiple float64) error {
	if min < 0 || max < 0 || multiple < 0 {
		return NewDataError("buffer order sizes must not be negative")
	}
	if max > 0 && max < min {
		return NewDataError("buffer maximum order size must not be below the minimum")
	}
	b.sizeMinimum = min
	b.sizeMaximum = max
	b.sizeMultiple = multiple
	return nil
}

// SetReorderIntervals updates the min/max spacing between purchases.
func (b *Buffer) SetReorderIntervals(min, max time.Duration) error {
	if min < 0 || max < 0 {
		return NewDataError("buffer reorder intervals must not be negative")
	}
	b.minInterval = min
	b.maxInterval = max
	return nil
}

// sizeOrder clamps a purchase proposal to the order sizing rules.
func (b *Buffer) sizeOrder(q float64) float64 {
	if q <= 0 {
		return 0
	}
	if q < b.sizeMinimum {
		q = b.sizeMinimum
	}
	if b.sizeMultiple > 0 {
		n := q / b.sizeMultiple
		if n != float64(int64(n)) {
			q = float64(int64(n)+1) * b.sizeMultiple
		}
	}
	if b.sizeMaximum > 0 && q > b.sizeMaximum {
		q = b.sizeMaximum
	}
	return q
}

// GeneratePurchasePlans walks the projected inventory of a procurement
// buffer and creates purchase plans whenever it dips below the reorder
// point, raising it back to the order-up-to level. Orders respect the
// sizing rules and the minimum spacing between orders; the maximum spacing
// set by SetReorderIntervals is not applied.
func (b *Buffer) GeneratePurchasePlans() ([]*OperationPlan, error) {
	if b.kind != BufferProcure {
		return nil, NewDataError("buffer '%s' is not a procurement buffer", b.name)
	}
	op := b.ProducingOperation()
	if op == nil {
		var err error
		op, err = b.plan.newProcureOperation(b)
		if err != nil {
			return nil, err
		}
		b.producing = op
		b.autoBuilt = true
	}

	var created []*OperationPlan
	lastOrder := InfinitePast
	for {
		// Find the first date where the projection dips below the reorder
		// point, after the last order date plus the minimum interval.
		var shortDate time.Time
		found := false
		b.timeline.Ascend(func(e *Event[*FlowPlan]) bool {
			if e.Kind() != EventChange && e.Kind() != EventSetOnhand {
				return true
			}
			if e.Onhand() < b.minInventory-roundingError {
				earliest := b.plan.Current()
				if b.minInterval > 0 && !lastOrder.Equal(InfinitePast) {
					earliest = maxDate(earliest, lastOrder.Add(b.minInterval))
				}
				shortDate = maxDate(e.Date(), earliest)
				found = true
				return false
			}
			return true
		})
		if !found {
			break
		}
		qty := b.sizeOrder(b.maxInventory - b.timeline.OnhandAt(shortDate))
		if qty <= 0 {
			break
		}
		o, err := b.plan.CreateOperationPlan(op, qty, shortDate.Add(-b.leadtime), shortDate, nil, nil, true)
		if err != nil {
			return created, err
		}
		if err := o.Activate(); err != nil {
			return created, err
		}
		created = append(created, o)
		lastOrder = shortDate
		if len(created) > 10000 {
			return created, NewRuntimeError("runaway procurement generation on buffer '%s'", b.name)
		}
	}
	return created, nil
}

// followPegging finds the timeline events pegged to one flow plan and
// pushes them on the iterator stack. Consuming events peg upstream to the
// producers covering the same cumulative range; producing events peg
// downstream to the consumers drawing on them. The cumulative totals on
// the timeline make each call proportional to the number of matches.
func (b *Buffer) followPegging(it *PeggingIterator, fp *FlowPlan, qty, offset float64, lvl int) {
	if fp.opplan.quantity == 0 || b.tool {
		return
	}
	f := fp.event

	if fp.Quantity() < -roundingError && !it.downstream {
		scale := -fp.Quantity() / fp.opplan.quantity
		startQty := f.CumulativeConsumed() + f.Quantity() + offset*scale
		endQty := startQty + qty*scale
		if f.CumulativeProduced() <= startQty+roundingError {
			// Not produced enough yet at this event: move forward.
			e := f
			for e != nil && e.CumulativeProduced() <= startQty {
				e = b.timeline.NextEvent(e)
			}
			for e != nil {
				if e.Quantity() <= 0 && e.CumulativeProduced() >= endQty {
					break
				}
				if e.Quantity() > 0 && e.CumulativeProduced()-e.Quantity() >= endQty {
					break
				}
				b.pushProducer(it, e, startQty, endQty, lvl)
				e = b.timeline.NextEvent(e)
			}
		} else {
			// Produced too much already: move backward.
			e := f
			for e != nil {
				if e.Quantity() <= 0 && e.CumulativeProduced() <= endQty {
					break
				}
				if e.Quantity() > 0 && e.CumulativeProduced()-e.Quantity() <= endQty {
					break
				}
				e = b.timeline.PrevEvent(e)
			}
			for e != nil && e.CumulativeProduced() > startQty {
				b.pushProducer(it, e, startQty, endQty, lvl)
				e = b.timeline.PrevEvent(e)
			}
		}
		return
	}

	if fp.Quantity() > roundingError && it.downstream {
		scale := fp.Quantity() / fp.opplan.quantity
		startQty := f.CumulativeProduced() - f.Quantity() + offset*scale
		endQty := startQty + qty*scale
		if f.CumulativeConsumed() <= startQty+roundingError {
			// Not consumed enough yet at this event: move forward.
			e := f
			for e != nil && e.CumulativeConsumed() <= startQty {
				e = b.timeline.NextEvent(e)
			}
			for e != nil {
				if e.Quantity() >= 0 && e.CumulativeConsumed() >= endQty {
					break
				}
				if e.Quantity() < 0 && e.CumulativeConsumed()+e.Quantity() >= endQty {
					break
				}
				b.pushConsumer(it, e, startQty, endQty, lvl)
				e = b.timeline.NextEvent(e)
			}
		} else {
			// Consumed too much already: move backward.
			e := f
			for e != nil {
				if e.Quantity() >= 0 && e.CumulativeConsumed() <= endQty {
					break
				}
				if e.Quantity() < 0 && e.CumulativeConsumed()+e.Quantity() <= endQty {
					break
				}
				e = b.timeline.PrevEvent(e)
			}
			for e != nil && e.CumulativeConsumed() > startQty {
				b.pushConsumer(it, e, startQty, endQty, lvl)
				e = b.timeline.PrevEvent(e)
			}
		}
	}
}

// pushProducer stacks the producing plan behind an event, clipped to the
// overlap with the pegged cumulative range.
func (b *Buffer) pushProducer(it *PeggingIterator, e *Event[*FlowPlan], startQty, endQty float64, lvl int) {
	if e.Quantity() <= roundingError || e.Payload == nil {
		return
	}
	newQty := e.Quantity()
	newOffset := 0.0
	if e.CumulativeProduced()-e.Quantity() < startQty {
		newOffset = startQty - (e.CumulativeProduced() - e.Quantity())
		newQty -= newOffset
	}
	if e.CumulativeProduced() > endQty {
		newQty -= e.CumulativeProduced() - endQty
	}
	opplan := e.Payload.opplan
	top := opplan.TopOwner()
	if _, isSplit := top.operation.(*SplitOperation); isSplit {
		top = opplan
	}
	it.updateStack(top,
		top.quantity*newQty/e.Quantity(),
		top.quantity*newOffset/e.Quantity(),
		lvl)
}

// pushConsumer stacks the consuming plan behind an event, clipped to the
// overlap with the pegged cumulative range.
func (b *Buffer) pushConsumer(it *PeggingIterator, e *Event[*FlowPlan], startQty, endQty float64, lvl int) {
	if e.Quantity() >= -roundingError || e.Payload == nil {
		return
	}
	consumed := -e.Quantity()
	newQty := consumed
	newOffset := 0.0
	if e.CumulativeConsumed()-consumed < startQty {
		newOffset = startQty - (e.CumulativeConsumed() - consumed)
		newQty -= newOffset
	}
	if e.CumulativeConsumed() > endQty {
		newQty -= e.CumulativeConsumed() - endQty
	}
	opplan := e.Payload.opplan
	top := opplan.TopOwner()
	if _, isSplit := top.operation.(*SplitOperation); isSplit {
		top = opplan
	}
	it.updateStack(top,
		top.quantity*newQty/consumed,
		top.quantity*newOffset/consumed,
		lvl)
}
