package planning

// ExportDepth selects how much of the model a serializer receives.
type ExportDepth int

const (
	// ExportBase covers the structural model only.
	ExportBase ExportDepth = iota
	// ExportPlan adds the operation plans.
	ExportPlan
	// ExportPlanDetail adds the pegging per demand.
	ExportPlanDetail
)

// EachOperationPlan walks every activated operation plan in the model,
// operation by operation, plans in (start asc, quantity desc) order.
func (p *Plan) EachOperationPlan(fn func(*OperationPlan) bool) {
	p.operations.Each(func(o Operation) bool {
		for pl := o.Common().firstPlan; pl != nil; pl = pl.next {
			if !fn(pl) {
				return false
			}
		}
		return true
	})
}

// PeggingForDemand returns the upstream pegging traversal of one demand,
// used by serializers writing at plan-detail depth.
func (p *Plan) PeggingForDemand(d *Demand) *PeggingIterator {
	return NewDemandPegging(d)
}
