package planning

import (
	"sync"
	"time"
)

// Plan is the singleton aggregate owning the whole model: the entity
// registries per category, the current date driving release-fence and
// before-current detection, the monotonic plan identifier counter and the
// lazy recomputation flags for problems and levels.
type Plan struct {
	name        string
	description string
	current     time.Time

	items         *Registry[*Item]
	locations     *Registry[*Location]
	customers     *Registry[*Customer]
	suppliers     *Registry[*Supplier]
	skills        *Registry[*Skill]
	calendars     *Registry[*Calendar]
	setupMatrices *Registry[*SetupMatrix]
	operations    *Registry[Operation]
	buffers       *Registry[*Buffer]
	resources     *Registry[*Resource]
	demands       *Registry[*Demand]
	solvers       *Registry[Solver]

	mu    sync.Mutex
	state planState

	planIDCounter uint64
	setupOp       *SetupOperation
}

// planState bundles the process-wide lazy recomputation flags.
type planState struct {
	anyChange       bool
	computationBusy bool
	recomputeLevels bool
	levelBusy       bool
}

// NewPlan creates an empty model with the current date set to now.
func NewPlan() *Plan {
	return &Plan{
		current:       time.Now().UTC().Truncate(time.Second),
		items:         NewRegistry[*Item](),
		locations:     NewRegistry[*Location](),
		customers:     NewRegistry[*Customer](),
		suppliers:     NewRegistry[*Supplier](),
		skills:        NewRegistry[*Skill](),
		calendars:     NewRegistry[*Calendar](),
		setupMatrices: NewRegistry[*SetupMatrix](),
		operations:    NewRegistry[Operation](),
		buffers:       NewRegistry[*Buffer](),
		resources:     NewRegistry[*Resource](),
		demands:       NewRegistry[*Demand](),
		solvers:       NewRegistry[Solver](),
	}
}

// Name returns the plan name.
func (p *Plan) Name() string { return p.name }

// SetName updates the plan name.
func (p *Plan) SetName(n string) { p.name = n }

// Description returns the plan description.
func (p *Plan) Description() string { return p.description }

// SetDescription updates the plan description.
func (p *Plan) SetDescription(d string) { p.description = d }

// Current returns the current date of the plan.
func (p *Plan) Current() time.Time { return p.current }

// SetCurrent moves the current date. Before-current and before-fence
// detection follow it.
func (p *Plan) SetCurrent(t time.Time) {
	p.current = t
	p.markAllChanged()
}

// takePlanID draws the next identifier from the monotonic counter.
func (p *Plan) takePlanID() uint64 {
	p.planIDCounter++
	return p.planIDCounter
}

// setLevelsChanged flags the level and cluster indices as stale.
func (p *Plan) setLevelsChanged() { p.state.recomputeLevels = true }

// markAllChanged arms problem detection on every entity.
func (p *Plan) markAllChanged() {
	p.buffers.Each(func(b *Buffer) bool { b.setChanged(); return true })
	p.resources.Each(func(r *Resource) bool { r.setChanged(); return true })
	p.operations.Each(func(o Operation) bool { o.Common().setChanged(); return true })
	p.demands.Each(func(d *Demand) bool { d.setChanged(); return true })
}

// Items returns the item registry.
func (p *Plan) Items() *Registry[*Item] { return p.items }

// Locations returns the location registry.
func (p *Plan) Locations() *Registry[*Location] { return p.locations }

// Customers returns the customer registry.
func (p *Plan) Customers() *Registry[*Customer] { return p.customers }

// Suppliers returns the supplier registry.
func (p *Plan) Suppliers() *Registry[*Supplier] { return p.suppliers }

// Skills returns the skill registry.
func (p *Plan) Skills() *Registry[*Skill] { return p.skills }

// Calendars returns the calendar registry.
func (p *Plan) Calendars() *Registry[*Calendar] { return p.calendars }

// SetupMatrices returns the setup matrix registry.
func (p *Plan) SetupMatrices() *Registry[*SetupMatrix] { return p.setupMatrices }

// Operations returns the operation registry.
func (p *Plan) Operations() *Registry[Operation] { return p.operations }

// Buffers returns the buffer registry.
func (p *Plan) Buffers() *Registry[*Buffer] { return p.buffers }

// Resources returns the resource registry.
func (p *Plan) Resources() *Registry[*Resource] { return p.resources }

// Demands returns the demand registry.
func (p *Plan) Demands() *Registry[*Demand] { return p.demands }

// Solvers returns the solver registry.
func (p *Plan) Solvers() *Registry[Solver] { return p.solvers }

// NewItem creates and registers an item.
func (p *Plan) NewItem(name string) (*Item, error) {
	i := &Item{name: name}
	if err := p.items.Add(i); err != nil {
		return nil, err
	}
	return i, nil
}

// NewLocation creates and registers a location.
func (p *Plan) NewLocation(name string) (*Location, error) {
	l := &Location{name: name}
	if err := p.locations.Add(l); err != nil {
		return nil, err
	}
	return l, nil
}

// NewCustomer creates and registers a customer.
func (p *Plan) NewCustomer(name string) (*Customer, error) {
	c := &Customer{name: name}
	if err := p.customers.Add(c); err != nil {
		return nil, err
	}
	return c, nil
}

// NewSupplier creates and registers a supplier.
func (p *Plan) NewSupplier(name string) (*Supplier, error) {
	s := &Supplier{name: name}
	if err := p.suppliers.Add(s); err != nil {
		return nil, err
	}
	return s, nil
}

// NewSkill creates and registers a skill.
func (p *Plan) NewSkill(name string) (*Skill, error) {
	s := &Skill{name: name}
	if err := p.skills.Add(s); err != nil {
		return nil, err
	}
	return s, nil
}

// NewCalendar creates and registers a calendar.
func (p *Plan) NewCalendar(name string, defaultValue float64) (*Calendar, error) {
	c := NewCalendar(name, defaultValue)
	if err := p.calendars.Add(c); err != nil {
		return nil, err
	}
	return c, nil
}

// NewSetupMatrix creates and registers a setup matrix.
func (p *Plan) NewSetupMatrix(name string) (*SetupMatrix, error) {
	m := NewSetupMatrix(name)
	if err := p.setupMatrices.Add(m); err != nil {
		return nil, err
	}
	return m, nil
}

// NewFixedTimeOperation creates and registers a fixed-time operation.
func (p *Plan) NewFixedTimeOperation(name string, duration time.Duration) (*FixedTimeOperation, error) {
	if duration < 0 {
		return nil, NewDataError("operation duration must not be negative")
	}
	op := &FixedTimeOperation{duration: duration}
	op.init(p, name)
	if err := p.operations.Add(op); err != nil {
		return nil, err
	}
	p.setLevelsChanged()
	return op, nil
}

// NewTimePerOperation creates and registers a time-per operation.
func (p *Plan) NewTimePerOperation(name string, duration, durationPer time.Duration) (*TimePerOperation, error) {
	if duration < 0 || durationPer < 0 {
		return nil, NewDataError("operation durations must not be negative")
	}
	op := &TimePerOperation{duration: duration, durationPer: durationPer}
	op.init(p, name)
	if err := p.operations.Add(op); err != nil {
		return nil, err
	}
	p.setLevelsChanged()
	return op, nil
}

// NewRoutingOperation creates and registers a routing operation.
func (p *Plan) NewRoutingOperation(name string) (*RoutingOperation, error) {
	op := &RoutingOperation{}
	op.init(p, name)
	if err := p.operations.Add(op); err != nil {
		return nil, err
	}
	p.setLevelsChanged()
	return op, nil
}

// NewAlternateOperation creates and registers an alternate operation.
func (p *Plan) NewAlternateOperation(name string) (*AlternateOperation, error) {
	op := &AlternateOperation{}
	op.init(p, name)
	if err := p.operations.Add(op); err != nil {
		return nil, err
	}
	p.setLevelsChanged()
	return op, nil
}

// NewSplitOperation creates and registers a split operation.
func (p *Plan) NewSplitOperation(name string) (*SplitOperation, error) {
	op := &SplitOperation{}
	op.init(p, name)
	if err := p.operations.Add(op); err != nil {
		return nil, err
	}
	p.setLevelsChanged()
	return op, nil
}

// setupOperation returns the hidden singleton operation representing setup
// conversions, creating it on first use.
func (p *Plan) setupOperation() *SetupOperation {
	if p.setupOp == nil {
		op := &SetupOperation{}
		op.init(p, "setup operation")
		op.hidden = true
		// The singleton stays out of the registry so user names can never
		// collide with it.
		p.setupOp = op
	}
	return p.setupOp
}

// newItemSupplierOperation derives the hidden purchase operation of a
// buffer from an item-supplier relation.
func (p *Plan) newItemSupplierOperation(b *Buffer, is *ItemSupplier) (*ItemSupplierOperation, error) {
	op := &ItemSupplierOperation{itemSupplier: is}
	op.duration = is.Leadtime()
	op.init(p, "Purchase "+b.Name()+" from "+is.Supplier().Name())
	op.hidden = true
	op.sizeMinimum = is.SizeMinimum()
	op.sizeMultiple = is.SizeMultiple()
	if err := p.operations.Add(op); err != nil {
		return nil, err
	}
	if _, err := NewFlow(op, b, 1, FlowEnd); err != nil {
		p.operations.Remove(op.Name())
		return nil, err
	}
	p.setLevelsChanged()
	return op, nil
}

// newProcureOperation derives the hidden replenishment operation of a
// procurement buffer.
func (p *Plan) newProcureOperation(b *Buffer) (*FixedTimeOperation, error) {
	op := &FixedTimeOperation{duration: b.Leadtime()}
	op.init(p, "Procure "+b.Name())
	op.hidden = true
	op.sizeMinimum = b.sizeMinimum
	if b.sizeMaximum > 0 {
		op.sizeMaximum = b.sizeMaximum
	}
	op.sizeMultiple = b.sizeMultiple
	if err := p.operations.Add(op); err != nil {
		return nil, err
	}
	if _, err := NewFlow(op, b, 1, FlowEnd); err != nil {
		p.operations.Remove(op.Name())
		return nil, err
	}
	p.setLevelsChanged()
	return op, nil
}

// NewBuffer creates and registers a buffer.
func (p *Plan) NewBuffer(name string, kind BufferKind) (*Buffer, error) {
	b := &Buffer{plan: p, name: name, kind: kind, timeline: NewTimeline[*FlowPlan]()}
	b.plannable.init(p)
	if err := p.buffers.Add(b); err != nil {
		return nil, err
	}
	p.setLevelsChanged()
	return b, nil
}

// NewResource creates and registers a resource.
func (p *Plan) NewResource(name string, kind ResourceKind) (*Resource, error) {
	r := &Resource{plan: p, name: name, kind: kind, maxValue: 1, timeline: NewTimeline[*LoadPlan]()}
	r.plannable.init(p)
	if err := p.resources.Add(r); err != nil {
		return nil, err
	}
	r.rebuildCapacity()
	p.setLevelsChanged()
	return r, nil
}

// NewDemand creates and registers a demand.
func (p *Plan) NewDemand(name string) (*Demand, error) {
	d := &Demand{plan: p, name: name, priority: 1}
	d.plannable.init(p)
	if err := p.demands.Add(d); err != nil {
		return nil, err
	}
	return d, nil
}

// AddSolver registers an externally implemented solver.
func (p *Plan) AddSolver(s Solver) error { return p.solvers.Add(s) }

// DeleteBuffer removes a buffer with everything referring to it: its
// incident flows, their flow plans (and the operation plans owning them),
// and the hidden purchase operation derived for it.
func (p *Plan) DeleteBuffer(b *Buffer) {
	// Destroy every plan touching the buffer first. Destroying a plan
	// mutates the flow-plan list of others, so collect, then destroy.
	var doomed []*OperationPlan
	seen := make(map[*OperationPlan]bool)
	b.timeline.Ascend(func(e *Event[*FlowPlan]) bool {
		if e.Payload != nil {
			top := e.Payload.opplan.TopOwner()
			if !seen[top] {
				seen[top] = true
				doomed = append(doomed, top)
			}
		}
		return true
	})
	for _, o := range doomed {
		o.Destroy()
	}
	for len(b.flows) > 0 {
		b.flows[0].Remove()
	}
	if b.autoBuilt && b.producing != nil {
		p.operations.Remove(b.producing.Name())
	}
	p.buffers.Remove(b.name)
	p.setLevelsChanged()
	p.state.anyChange = true
}

// DeleteDemand removes a demand and destroys its delivery plans.
func (p *Plan) DeleteDemand(d *Demand) {
	for len(d.deliveries) > 0 {
		d.deliveries[0].Destroy()
	}
	p.demands.Remove(d.name)
	p.state.anyChange = true
}
