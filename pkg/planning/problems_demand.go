package planning

import (
	"fmt"
)

// DemandNotPlanned reports a demand without any delivery plan.
type DemandNotPlanned struct {
	demand *Demand
}

// Name returns the problem kind.
func (p *DemandNotPlanned) Name() string { return "unplanned" }

// Description returns a human-readable account of the problem.
func (p *DemandNotPlanned) Description() string {
	return fmt.Sprintf("Demand '%s' is not planned", p.demand.Name())
}

// Dates returns the due date of the unplanned demand.
func (p *DemandNotPlanned) Dates() DateRange {
	return DateRange{Start: p.demand.Due(), End: p.demand.Due()}
}

// Weight returns the full requested quantity.
func (p *DemandNotPlanned) Weight() float64 { return p.demand.Quantity() }

// IsFeasible reports whether the plan remains executable.
func (p *DemandNotPlanned) IsFeasible() bool { return false }

// Owner returns the demand the problem is attached to.
func (p *DemandNotPlanned) Owner() any { return p.demand }

// Demand returns the unplanned demand.
func (p *DemandNotPlanned) Demand() *Demand { return p.demand }

// DemandLate reports a delivery ending after the due date.
type DemandLate struct {
	demand *Demand
}

// Name returns the problem kind.
func (p *DemandLate) Name() string { return "late" }

// Description returns a human-readable account of the problem.
func (p *DemandLate) Description() string {
	late := p.demand.LatestDelivery()
	if late == nil {
		return fmt.Sprintf("Demand '%s' planned late", p.demand.Name())
	}
	return fmt.Sprintf("Demand '%s' planned %s after its due date",
		p.demand.Name(), late.End().Sub(p.demand.Due()))
}

// Dates returns the range from the due date to the latest delivery.
func (p *DemandLate) Dates() DateRange {
	end := p.demand.Due()
	if late := p.demand.LatestDelivery(); late != nil {
		end = late.End()
	}
	return DateRange{Start: p.demand.Due(), End: end}
}

// Weight returns the requested quantity.
func (p *DemandLate) Weight() float64 { return p.demand.Quantity() }

// IsFeasible reports whether the plan remains executable.
func (p *DemandLate) IsFeasible() bool { return true }

// Owner returns the demand the problem is attached to.
func (p *DemandLate) Owner() any { return p.demand }

// Demand returns the late demand.
func (p *DemandLate) Demand() *Demand { return p.demand }

// DemandEarly reports a delivery ending before the due date.
type DemandEarly struct {
	demand *Demand
}

// Name returns the problem kind.
func (p *DemandEarly) Name() string { return "early" }

// Description returns a human-readable account of the problem.
func (p *DemandEarly) Description() string {
	early := p.demand.EarliestDelivery()
	if early == nil {
		return fmt.Sprintf("Demand '%s' planned early", p.demand.Name())
	}
	return fmt.Sprintf("Demand '%s' planned %s before its due date",
		p.demand.Name(), p.demand.Due().Sub(early.End()))
}

// Dates returns the range from the earliest delivery to the due date.
func (p *DemandEarly) Dates() DateRange {
	start := p.demand.Due()
	if early := p.demand.EarliestDelivery(); early != nil {
		start = early.End()
	}
	return DateRange{Start: start, End: p.demand.Due()}
}

// Weight returns the requested quantity.
func (p *DemandEarly) Weight() float64 { return p.demand.Quantity() }

// IsFeasible reports whether the plan remains executable.
func (p *DemandEarly) IsFeasible() bool { return true }

// Owner returns the demand the problem is attached to.
func (p *DemandEarly) Owner() any { return p.demand }

// Demand returns the early demand.
func (p *DemandEarly) Demand() *Demand { return p.demand }

// DemandShort reports a planned quantity below the requested quantity.
type DemandShort struct {
	demand *Demand
}

// Name returns the problem kind.
func (p *DemandShort) Name() string { return "short" }

// Description returns a human-readable account of the problem.
func (p *DemandShort) Description() string {
	return fmt.Sprintf("Demand '%s' planned %g units short",
		p.demand.Name(), p.demand.Quantity()-p.demand.PlannedQuantity())
}

// Dates returns the due date of the short demand.
func (p *DemandShort) Dates() DateRange {
	return DateRange{Start: p.demand.Due(), End: p.demand.Due()}
}

// Weight returns the missing quantity.
func (p *DemandShort) Weight() float64 {
	return p.demand.Quantity() - p.demand.PlannedQuantity()
}

// IsFeasible reports whether the plan remains executable.
func (p *DemandShort) IsFeasible() bool { return false }

// Owner returns the demand the problem is attached to.
func (p *DemandShort) Owner() any { return p.demand }

// Demand returns the short demand.
func (p *DemandShort) Demand() *Demand { return p.demand }

// DemandExcess reports a planned quantity above the requested quantity.
type DemandExcess struct {
	demand *Demand
}

// Name returns the problem kind.
func (p *DemandExcess) Name() string { return "excess" }

// Description returns a human-readable account of the problem.
func (p *DemandExcess) Description() string {
	return fmt.Sprintf("Demand '%s' planned %g units excess",
		p.demand.Name(), p.demand.PlannedQuantity()-p.demand.Quantity())
}

// Dates returns the due date of the overplanned demand.
func (p *DemandExcess) Dates() DateRange {
	return DateRange{Start: p.demand.Due(), End: p.demand.Due()}
}

// Weight returns the surplus quantity.
func (p *DemandExcess) Weight() float64 {
	return p.demand.PlannedQuantity() - p.demand.Quantity()
}

// IsFeasible reports whether the plan remains executable.
func (p *DemandExcess) IsFeasible() bool { return true }

// Owner returns the demand the problem is attached to.
func (p *DemandExcess) Owner() any { return p.demand }

// Demand returns the overplanned demand.
func (p *DemandExcess) Demand() *Demand { return p.demand }

// updateProblems rebuilds the demand's problem list from its deliveries.
func (d *Demand) updateProblems() {
	d.problems = nil
	if !d.detectProblems {
		return
	}
	if len(d.deliveries) == 0 {
		if d.quantity > 0 {
			d.problems = append(d.problems, &DemandNotPlanned{demand: d})
		}
	} else {
		var late, early bool
		for _, o := range d.deliveries {
			if o.End().After(d.due) {
				late = true
			} else if o.End().Before(d.due) {
				early = true
			}
		}
		if late {
			d.problems = append(d.problems, &DemandLate{demand: d})
		}
		if early {
			d.problems = append(d.problems, &DemandEarly{demand: d})
		}
	}
	planned := d.PlannedQuantity()
	if planned+roundingError < d.quantity {
		d.problems = append(d.problems, &DemandShort{demand: d})
	}
	if planned-roundingError > d.quantity {
		d.problems = append(d.problems, &DemandExcess{demand: d})
	}
}
