package planning

import (
	"fmt"
)

// BeforeCurrent reports an operation plan starting before the current
// date: its execution lies in the past.
type BeforeCurrent struct {
	opplan *OperationPlan
	dates  DateRange
}

// Name returns the problem kind.
func (p *BeforeCurrent) Name() string { return "before current" }

// Description returns a human-readable account of the problem.
func (p *BeforeCurrent) Description() string {
	return fmt.Sprintf("Operation '%s' planned in the past", p.opplan.Operation().Name())
}

// Dates returns the range from the plan start to the current date.
func (p *BeforeCurrent) Dates() DateRange { return p.dates }

// Weight returns the plan quantity.
func (p *BeforeCurrent) Weight() float64 { return p.opplan.Quantity() }

// IsFeasible reports whether the plan remains executable.
func (p *BeforeCurrent) IsFeasible() bool { return false }

// Owner returns the operation plan the problem is attached to.
func (p *BeforeCurrent) Owner() any { return p.opplan }

// OperationPlan returns the offending plan.
func (p *BeforeCurrent) OperationPlan() *OperationPlan { return p.opplan }

// BeforeFence reports an operation plan starting inside the release fence
// of its operation.
type BeforeFence struct {
	opplan *OperationPlan
	dates  DateRange
}

// Name returns the problem kind.
func (p *BeforeFence) Name() string { return "before fence" }

// Description returns a human-readable account of the problem.
func (p *BeforeFence) Description() string {
	return fmt.Sprintf("Operation '%s' planned before fence", p.opplan.Operation().Name())
}

// Dates returns the range from the plan start to the fence.
func (p *BeforeFence) Dates() DateRange { return p.dates }

// Weight returns the plan quantity.
func (p *BeforeFence) Weight() float64 { return p.opplan.Quantity() }

// IsFeasible reports whether the plan remains executable.
func (p *BeforeFence) IsFeasible() bool { return true }

// Owner returns the operation plan the problem is attached to.
func (p *BeforeFence) Owner() any { return p.opplan }

// OperationPlan returns the offending plan.
func (p *BeforeFence) OperationPlan() *OperationPlan { return p.opplan }

// Precedence reports a step plan overlapping its successor inside a
// routing.
type Precedence struct {
	opplan *OperationPlan
	dates  DateRange
}

// Name returns the problem kind.
func (p *Precedence) Name() string { return "precedence" }

// Description returns a human-readable account of the problem.
func (p *Precedence) Description() string {
	return fmt.Sprintf("Operation '%s' overlaps with its next step", p.opplan.Operation().Name())
}

// Dates returns the overlapping range.
func (p *Precedence) Dates() DateRange { return p.dates }

// Weight returns the plan quantity.
func (p *Precedence) Weight() float64 { return p.opplan.Quantity() }

// IsFeasible reports whether the plan remains executable.
func (p *Precedence) IsFeasible() bool { return false }

// Owner returns the operation plan the problem is attached to.
func (p *Precedence) Owner() any { return p.opplan }

// OperationPlan returns the offending plan.
func (p *Precedence) OperationPlan() *OperationPlan { return p.opplan }

// updateProblems rebuilds the plan's problem list. Locked plans and plans
// of hidden operations never carry problems. Before-current and
// before-fence are mutually exclusive and only checked on top-level plans
// to avoid duplicating them on children. The precedence check is skipped
// inside split owners, whose children may overlap freely.
func (o *OperationPlan) updateProblems() {
	o.problems = nil
	if o.locked || !o.operation.Common().detectProblems || o.operation.Common().hidden {
		return
	}
	current := o.plan.Current()
	if o.owner == nil || o.isSetup {
		if o.start.Before(current) {
			o.problems = append(o.problems, &BeforeCurrent{
				opplan: o,
				dates:  DateRange{Start: o.start, End: current},
			})
		} else if o.start.Before(current.Add(o.operation.Common().fence)) {
			o.problems = append(o.problems, &BeforeFence{
				opplan: o,
				dates:  DateRange{Start: o.start, End: current.Add(o.operation.Common().fence)},
			})
		}
	}
	if o.nextSub != nil && o.end.After(o.nextSub.start) && !o.nextSub.locked && o.owner != nil {
		if _, split := o.owner.operation.(*SplitOperation); !split {
			o.problems = append(o.problems, &Precedence{
				opplan: o,
				dates:  DateRange{Start: o.nextSub.start, End: o.end},
			})
		}
	}
	for c := o.firstSub; c != nil; c = c.nextSub {
		c.updateProblems()
	}
}
