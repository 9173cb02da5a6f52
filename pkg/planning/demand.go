package planning

import (
	"time"
)

// Demand is a dated customer request for a quantity of an item. Its
// delivery operation plans record how, when and how much of it is planned.
type Demand struct {
	plannable
	plan        *Plan
	name        string
	description string
	item        *Item
	loc         *Location
	customer    *Customer
	priority    int
	due         time.Time
	quantity    float64
	operation   Operation
	maxLateness time.Duration
	minShipment float64
	deliveries  []*OperationPlan
	constraints []Problem
	hidden      bool
}

// Name returns the unique demand name.
func (d *Demand) Name() string { return d.name }

// Description returns the free-form demand description.
func (d *Demand) Description() string { return d.description }

// SetDescription updates the demand description.
func (d *Demand) SetDescription(s string) { d.description = s }

// Item returns the requested item.
func (d *Demand) Item() *Item { return d.item }

// SetItem updates the requested item.
func (d *Demand) SetItem(i *Item) { d.item = i; d.setChanged() }

// Location returns the delivery location, or nil.
func (d *Demand) Location() *Location { return d.loc }

// SetLocation updates the delivery location.
func (d *Demand) SetLocation(l *Location) { d.loc = l }

// Customer returns the requesting customer, or nil.
func (d *Demand) Customer() *Customer { return d.customer }

// SetCustomer updates the requesting customer.
func (d *Demand) SetCustomer(c *Customer) { d.customer = c }

// Priority returns the demand priority. Lower numbers are more important.
func (d *Demand) Priority() int { return d.priority }

// SetPriority updates the demand priority.
func (d *Demand) SetPriority(p int) { d.priority = p }

// Due returns the requested delivery date.
func (d *Demand) Due() time.Time { return d.due }

// SetDue updates the requested delivery date.
func (d *Demand) SetDue(t time.Time) { d.due = t; d.setChanged() }

// Quantity returns the requested quantity.
func (d *Demand) Quantity() float64 { return d.quantity }

// SetQuantity updates the requested quantity.
func (d *Demand) SetQuantity(q float64) error {
	if q < 0 {
		return NewDataError("demand quantity must not be negative")
	}
	d.quantity = q
	d.setChanged()
	return nil
}

// Operation returns the delivery operation override, or nil.
func (d *Demand) Operation() Operation { return d.operation }

// SetOperation updates the delivery operation override.
func (d *Demand) SetOperation(op Operation) { d.operation = op; d.setChanged() }

// DeliveryOperation resolves the operation used to deliver this demand:
// the demand override first, then the item's default operation.
func (d *Demand) DeliveryOperation() Operation {
	if d.operation != nil {
		return d.operation
	}
	if d.item != nil {
		return d.item.Operation()
	}
	return nil
}

// MaxLateness returns the tolerated delay past the due date.
func (d *Demand) MaxLateness() time.Duration { return d.maxLateness }

// SetMaxLateness updates the tolerated delay.
func (d *Demand) SetMaxLateness(t time.Duration) error {
	if t < 0 {
		return NewDataError("demand max-lateness must not be negative")
	}
	d.maxLateness = t
	return nil
}

// MinShipment returns the smallest useful partial delivery quantity.
func (d *Demand) MinShipment() float64 { return d.minShipment }

// SetMinShipment updates the minimum shipment quantity.
func (d *Demand) SetMinShipment(q float64) error {
	if q < 0 {
		return NewDataError("demand min-shipment must not be negative")
	}
	d.minShipment = q
	return nil
}

// Hidden reports whether the demand was generated internally.
func (d *Demand) Hidden() bool { return d.hidden }

// Deliveries returns the delivery operation plans of this demand.
func (d *Demand) Deliveries() []*OperationPlan { return d.deliveries }

func (d *Demand) addDelivery(o *OperationPlan) {
	d.deliveries = append(d.deliveries, o)
	d.setChanged()
}

func (d *Demand) removeDelivery(o *OperationPlan) {
	for i, x := range d.deliveries {
		if x == o {
			d.deliveries = append(d.deliveries[:i], d.deliveries[i+1:]...)
			d.setChanged()
			return
		}
	}
}

// PlannedQuantity returns the total quantity of all deliveries.
func (d *Demand) PlannedQuantity() float64 {
	var total float64
	for _, o := range d.deliveries {
		total += o.quantity
	}
	return total
}

// EarliestDelivery returns the delivery plan ending first, or nil.
func (d *Demand) EarliestDelivery() *OperationPlan {
	var out *OperationPlan
	for _, o := range d.deliveries {
		if out == nil || o.end.Before(out.end) {
			out = o
		}
	}
	return out
}

// LatestDelivery returns the delivery plan ending last, or nil.
func (d *Demand) LatestDelivery() *OperationPlan {
	var out *OperationPlan
	for _, o := range d.deliveries {
		if out == nil || o.end.After(out.end) {
			out = o
		}
	}
	return out
}

// Constraints returns the planning constraints recorded by solvers on this
// demand.
func (d *Demand) Constraints() []Problem { return d.constraints }

// AddConstraint records a planning constraint.
func (d *Demand) AddConstraint(p Problem) { d.constraints = append(d.constraints, p) }

// ClearConstraints drops all recorded planning constraints.
func (d *Demand) ClearConstraints() { d.constraints = nil }
