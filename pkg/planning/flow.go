package planning

// FlowType fixes when the material event of a flow happens and whether its
// quantity scales with the plan quantity.
type FlowType int

const (
	// FlowStart books the material at the start of the operation plan.
	FlowStart FlowType = iota
	// FlowEnd books the material at the end of the operation plan.
	FlowEnd
	// FlowFixedStart books a constant quantity at the plan start.
	FlowFixedStart
	// FlowFixedEnd books a constant quantity at the plan end.
	FlowFixedEnd
)

// String returns the flow type name.
func (t FlowType) String() string {
	switch t {
	case FlowStart:
		return "flow_start"
	case FlowEnd:
		return "flow_end"
	case FlowFixedStart:
		return "flow_fixed_start"
	case FlowFixedEnd:
		return "flow_fixed_end"
	default:
		return "unknown"
	}
}

// Flow is a static arc between an operation and a buffer: every execution
// of the operation produces (positive quantity) or consumes (negative
// quantity) material in the buffer.
type Flow struct {
	operation Operation
	buffer    *Buffer
	quantity  float64
	typ       FlowType
	effective DateRange
	priority  int
	search    SearchMode
	alternate string
	hidden    bool
}

// NewFlow links an operation to a buffer. The quantity is per unit of plan
// quantity for proportional flow types and absolute for fixed ones.
func NewFlow(op Operation, buf *Buffer, quantity float64, typ FlowType) (*Flow, error) {
	if op == nil || buf == nil {
		return nil, NewDataError("flow needs both an operation and a buffer")
	}
	f := &Flow{
		operation: op,
		buffer:    buf,
		quantity:  quantity,
		typ:       typ,
		effective: EffectiveAlways(),
		priority:  1,
	}
	c := op.Common()
	c.flows = append(c.flows, f)
	buf.flows = append(buf.flows, f)
	c.setChanged()
	buf.setChanged()
	c.plan.setLevelsChanged()
	return f, nil
}

// Operation returns the owning operation.
func (f *Flow) Operation() Operation { return f.operation }

// Buffer returns the target buffer.
func (f *Flow) Buffer() *Buffer { return f.buffer }

// Quantity returns the signed flow quantity.
func (f *Flow) Quantity() float64 { return f.quantity }

// SetQuantity updates the flow quantity.
func (f *Flow) SetQuantity(q float64) {
	f.quantity = q
	f.operation.Common().setChanged()
	f.buffer.setChanged()
}

// Type returns the flow timing variant.
func (f *Flow) Type() FlowType { return f.typ }

// IsProducer reports whether the flow adds material to its buffer.
func (f *Flow) IsProducer() bool { return f.quantity > 0 }

// IsConsumer reports whether the flow takes material from its buffer.
func (f *Flow) IsConsumer() bool { return f.quantity < 0 }

// IsFixed reports whether the flow quantity ignores the plan quantity.
func (f *Flow) IsFixed() bool { return f.typ == FlowFixedStart || f.typ == FlowFixedEnd }

// Effective returns the date range in which the flow applies.
func (f *Flow) Effective() DateRange { return f.effective }

// SetEffective updates the effectivity range.
func (f *Flow) SetEffective(r DateRange) { f.effective = r }

// Priority returns the flow priority among alternates.
func (f *Flow) Priority() int { return f.priority }

// SetPriority updates the flow priority.
func (f *Flow) SetPriority(p int) { f.priority = p }

// Search returns the alternate search mode recorded on the flow.
func (f *Flow) Search() SearchMode { return f.search }

// SetSearch updates the alternate search mode.
func (f *Flow) SetSearch(m SearchMode) { f.search = m }

// Alternate returns the logical role name shared by alternate flows, or the
// empty string for a standalone flow.
func (f *Flow) Alternate() string { return f.alternate }

// SetAlternate joins the flow to a named alternate group. All flows of a
// group must belong to the same operation.
func (f *Flow) SetAlternate(name string) error {
	if name == "" {
		f.alternate = ""
		return nil
	}
	for _, other := range f.buffer.flows {
		if other != f && other.alternate == name && other.operation != f.operation {
			return NewDataError("alternate flows must belong to the same operation")
		}
	}
	f.alternate = name
	return nil
}

// Hidden reports whether the flow was generated internally.
func (f *Flow) Hidden() bool { return f.hidden }

// Remove unlinks the flow from its operation and buffer.
func (f *Flow) Remove() {
	c := f.operation.Common()
	for i, x := range c.flows {
		if x == f {
			c.flows = append(c.flows[:i], c.flows[i+1:]...)
			break
		}
	}
	for i, x := range f.buffer.flows {
		if x == f {
			f.buffer.flows = append(f.buffer.flows[:i], f.buffer.flows[i+1:]...)
			break
		}
	}
	c.setChanged()
	f.buffer.setChanged()
	c.plan.setLevelsChanged()
}
