// Package loader applies externally produced model records to a planning
// model. A record names its category, the action to take and the data
// attributes; references to other entities travel by name. Callers are
// responsible for feeding records leaves-first.
package loader

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/supplyos/planner/pkg/planning"
)

// Action tells the loader what to do with a record.
type Action string

const (
	// ActionAdd creates the entity; an existing name is an error.
	ActionAdd Action = "ADD"
	// ActionChange updates an existing entity; an unknown name is an error.
	ActionChange Action = "CHANGE"
	// ActionAddChange creates the entity or updates it when it exists.
	ActionAddChange Action = "ADD_CHANGE"
	// ActionRemove deletes the entity.
	ActionRemove Action = "REMOVE"
)

// Loader resolves record references against the registries of one plan
// and applies the actions.
type Loader struct {
	plan     *planning.Plan
	validate *validator.Validate
}

// NewLoader creates a loader for the given plan.
func NewLoader(p *planning.Plan) *Loader {
	return &Loader{plan: p, validate: validator.New()}
}

// ItemRecord loads one item.
type ItemRecord struct {
	Name        string `validate:"required"`
	Description string
	Parent      string
	Price       float64 `validate:"gte=0"`
	Action      Action  `validate:"omitempty,oneof=ADD CHANGE ADD_CHANGE REMOVE"`
}

// LocationRecord loads one location.
type LocationRecord struct {
	Name        string `validate:"required"`
	Description string
	Parent      string
	Available   string
	Action      Action `validate:"omitempty,oneof=ADD CHANGE ADD_CHANGE REMOVE"`
}

// CustomerRecord loads one customer.
type CustomerRecord struct {
	Name        string `validate:"required"`
	Description string
	Parent      string
	Action      Action `validate:"omitempty,oneof=ADD CHANGE ADD_CHANGE REMOVE"`
}

// SupplierRecord loads one supplier.
type SupplierRecord struct {
	Name        string `validate:"required"`
	Description string
	Parent      string
	Action      Action `validate:"omitempty,oneof=ADD CHANGE ADD_CHANGE REMOVE"`
}

// CalendarRecord loads one calendar with its buckets.
type CalendarRecord struct {
	Name    string `validate:"required"`
	Default float64
	Buckets []CalendarBucketRecord `validate:"dive"`
	Action  Action                 `validate:"omitempty,oneof=ADD CHANGE ADD_CHANGE REMOVE"`
}

// CalendarBucketRecord loads one calendar bucket.
type CalendarBucketRecord struct {
	Start     time.Time `validate:"required"`
	End       time.Time `validate:"required"`
	Value     float64
	Priority  int
	Days      uint8         `validate:"lte=127"`
	StartTime time.Duration `validate:"gte=0"`
	EndTime   time.Duration `validate:"gte=0,lte=86400000000000"`
}

// OperationRecord loads one operation. Type selects the variant.
type OperationRecord struct {
	Name         string `validate:"required"`
	Type         string `validate:"required,oneof=fixed_time time_per routing alternate split"`
	Location     string
	Duration     time.Duration `validate:"gte=0"`
	DurationPer  time.Duration `validate:"gte=0"`
	Fence        time.Duration
	SizeMinimum  float64 `validate:"gte=0"`
	SizeMaximum  float64 `validate:"gte=0"`
	SizeMultiple float64 `validate:"gte=0"`
	Action       Action  `validate:"omitempty,oneof=ADD CHANGE ADD_CHANGE REMOVE"`
}

// BufferRecord loads one buffer.
type BufferRecord struct {
	Name      string `validate:"required"`
	Type      string `validate:"omitempty,oneof=standard infinite procure"`
	Item      string
	Location  string
	Onhand    float64
	Minimum   float64
	Maximum   float64
	Producing string
	Action    Action `validate:"omitempty,oneof=ADD CHANGE ADD_CHANGE REMOVE"`
}

// ResourceRecord loads one resource.
type ResourceRecord struct {
	Name        string `validate:"required"`
	Type        string `validate:"omitempty,oneof=standard infinite bucketed"`
	Location    string
	Maximum     float64 `validate:"gte=0"`
	MaxCalendar string
	SetupMatrix string
	Setup       string
	Action      Action `validate:"omitempty,oneof=ADD CHANGE ADD_CHANGE REMOVE"`
}

// DemandRecord loads one demand.
type DemandRecord struct {
	Name      string    `validate:"required"`
	Item      string    `validate:"required"`
	Customer  string
	Due       time.Time `validate:"required"`
	Quantity  float64   `validate:"gte=0"`
	Priority  int
	Operation string
	Action    Action `validate:"omitempty,oneof=ADD CHANGE ADD_CHANGE REMOVE"`
}

// FlowRecord loads one flow arc.
type FlowRecord struct {
	Operation string  `validate:"required"`
	Buffer    string  `validate:"required"`
	Quantity  float64 `validate:"required"`
	Type      string  `validate:"omitempty,oneof=start end fixed_start fixed_end"`
}

// LoadRecord loads one load arc.
type LoadRecord struct {
	Operation string  `validate:"required"`
	Resource  string  `validate:"required"`
	Quantity  float64 `validate:"gte=0"`
	Setup     string
	Priority  int
}

func actionOf(a Action) Action {
	if a == "" {
		return ActionAddChange
	}
	return a
}

// LoadItem applies one item record.
func (l *Loader) LoadItem(rec ItemRecord) error {
	if err := l.validate.Struct(rec); err != nil {
		return planning.NewDataError("invalid item record: %v", err)
	}
	switch actionOf(rec.Action) {
	case ActionRemove:
		l.plan.Items().Remove(rec.Name)
		return nil
	case ActionAdd:
		item, err := l.plan.NewItem(rec.Name)
		if err != nil {
			return err
		}
		return l.fillItem(item, rec)
	case ActionChange:
		item, ok := l.plan.Items().Find(rec.Name)
		if !ok {
			return planning.NewDataError("item '%s' does not exist", rec.Name)
		}
		return l.fillItem(item, rec)
	default:
		item, ok := l.plan.Items().Find(rec.Name)
		if !ok {
			var err error
			item, err = l.plan.NewItem(rec.Name)
			if err != nil {
				return err
			}
		}
		return l.fillItem(item, rec)
	}
}

func (l *Loader) fillItem(item *planning.Item, rec ItemRecord) error {
	if rec.Description != "" {
		item.SetDescription(rec.Description)
	}
	if rec.Price != 0 {
		if err := item.SetPrice(decimal.NewFromFloat(rec.Price)); err != nil {
			return err
		}
	}
	if rec.Parent != "" {
		parent, ok := l.plan.Items().Find(rec.Parent)
		if !ok {
			return planning.NewDataError("unknown parent item '%s'", rec.Parent)
		}
		if err := item.SetParent(parent); err != nil {
			return err
		}
	}
	return nil
}

// LoadLocation applies one location record.
func (l *Loader) LoadLocation(rec LocationRecord) error {
	if err := l.validate.Struct(rec); err != nil {
		return planning.NewDataError("invalid location record: %v", err)
	}
	if actionOf(rec.Action) == ActionRemove {
		l.plan.Locations().Remove(rec.Name)
		return nil
	}
	loc, ok := l.plan.Locations().Find(rec.Name)
	if !ok {
		if actionOf(rec.Action) == ActionChange {
			return planning.NewDataError("location '%s' does not exist", rec.Name)
		}
		var err error
		loc, err = l.plan.NewLocation(rec.Name)
		if err != nil {
			return err
		}
	} else if actionOf(rec.Action) == ActionAdd {
		return planning.NewDataError("location '%s' already exists", rec.Name)
	}
	if rec.Description != "" {
		loc.SetDescription(rec.Description)
	}
	if rec.Parent != "" {
		parent, ok := l.plan.Locations().Find(rec.Parent)
		if !ok {
			return planning.NewDataError("unknown parent location '%s'", rec.Parent)
		}
		if err := loc.SetParent(parent); err != nil {
			return err
		}
	}
	if rec.Available != "" {
		cal, ok := l.plan.Calendars().Find(rec.Available)
		if !ok {
			return planning.NewDataError("unknown calendar '%s'", rec.Available)
		}
		loc.SetAvailable(cal)
	}
	return nil
}

// LoadCustomer applies one customer record.
func (l *Loader) LoadCustomer(rec CustomerRecord) error {
	if err := l.validate.Struct(rec); err != nil {
		return planning.NewDataError("invalid customer record: %v", err)
	}
	if actionOf(rec.Action) == ActionRemove {
		l.plan.Customers().Remove(rec.Name)
		return nil
	}
	c, ok := l.plan.Customers().Find(rec.Name)
	if !ok {
		if actionOf(rec.Action) == ActionChange {
			return planning.NewDataError("customer '%s' does not exist", rec.Name)
		}
		var err error
		c, err = l.plan.NewCustomer(rec.Name)
		if err != nil {
			return err
		}
	} else if actionOf(rec.Action) == ActionAdd {
		return planning.NewDataError("customer '%s' already exists", rec.Name)
	}
	if rec.Description != "" {
		c.SetDescription(rec.Description)
	}
	if rec.Parent != "" {
		parent, ok := l.plan.Customers().Find(rec.Parent)
		if !ok {
			return planning.NewDataError("unknown parent customer '%s'", rec.Parent)
		}
		if err := c.SetParent(parent); err != nil {
			return err
		}
	}
	return nil
}

// LoadCalendar applies one calendar record with its buckets.
func (l *Loader) LoadCalendar(rec CalendarRecord) error {
	if err := l.validate.Struct(rec); err != nil {
		return planning.NewDataError("invalid calendar record: %v", err)
	}
	if actionOf(rec.Action) == ActionRemove {
		l.plan.Calendars().Remove(rec.Name)
		return nil
	}
	cal, ok := l.plan.Calendars().Find(rec.Name)
	if !ok {
		if actionOf(rec.Action) == ActionChange {
			return planning.NewDataError("calendar '%s' does not exist", rec.Name)
		}
		var err error
		cal, err = l.plan.NewCalendar(rec.Name, rec.Default)
		if err != nil {
			return err
		}
	} else if actionOf(rec.Action) == ActionAdd {
		return planning.NewDataError("calendar '%s' already exists", rec.Name)
	} else {
		cal.SetDefault(rec.Default)
	}
	for _, br := range rec.Buckets {
		b := cal.AddBucket(br.Start, br.End, br.Value)
		b.SetPriority(br.Priority)
		if br.Days != 0 {
			if err := b.SetDays(br.Days); err != nil {
				return err
			}
		}
		if br.StartTime != 0 {
			if err := b.SetStartTime(br.StartTime); err != nil {
				return err
			}
		}
		if br.EndTime != 0 {
			if err := b.SetEndTime(br.EndTime); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadOperation applies one operation record.
func (l *Loader) LoadOperation(rec OperationRecord) error {
	if err := l.validate.Struct(rec); err != nil {
		return planning.NewDataError("invalid operation record: %v", err)
	}
	if actionOf(rec.Action) == ActionRemove {
		l.plan.Operations().Remove(rec.Name)
		return nil
	}
	op, ok := l.plan.Operations().Find(rec.Name)
	if !ok {
		if actionOf(rec.Action) == ActionChange {
			return planning.NewDataError("operation '%s' does not exist", rec.Name)
		}
		var err error
		switch rec.Type {
		case "fixed_time":
			op, err = l.plan.NewFixedTimeOperation(rec.Name, rec.Duration)
		case "time_per":
			op, err = l.plan.NewTimePerOperation(rec.Name, rec.Duration, rec.DurationPer)
		case "routing":
			op, err = l.plan.NewRoutingOperation(rec.Name)
		case "alternate":
			op, err = l.plan.NewAlternateOperation(rec.Name)
		case "split":
			op, err = l.plan.NewSplitOperation(rec.Name)
		}
		if err != nil {
			return err
		}
	} else if actionOf(rec.Action) == ActionAdd {
		return planning.NewDataError("operation '%s' already exists", rec.Name)
	}
	c := op.Common()
	if rec.Location != "" {
		loc, ok := l.plan.Locations().Find(rec.Location)
		if !ok {
			return planning.NewDataError("unknown location '%s'", rec.Location)
		}
		c.SetLocation(loc)
	}
	c.SetFence(rec.Fence)
	if rec.SizeMinimum > 0 {
		if err := c.SetSizeMinimum(rec.SizeMinimum); err != nil {
			return err
		}
	}
	if rec.SizeMaximum > 0 {
		if err := c.SetSizeMaximum(rec.SizeMaximum); err != nil {
			return err
		}
	}
	if rec.SizeMultiple > 0 {
		if err := c.SetSizeMultiple(rec.SizeMultiple); err != nil {
			return err
		}
	}
	return nil
}

// LoadBuffer applies one buffer record.
func (l *Loader) LoadBuffer(rec BufferRecord) error {
	if err := l.validate.Struct(rec); err != nil {
		return planning.NewDataError("invalid buffer record: %v", err)
	}
	if actionOf(rec.Action) == ActionRemove {
		if b, ok := l.plan.Buffers().Find(rec.Name); ok {
			l.plan.DeleteBuffer(b)
		}
		return nil
	}
	b, ok := l.plan.Buffers().Find(rec.Name)
	if !ok {
		if actionOf(rec.Action) == ActionChange {
			return planning.NewDataError("buffer '%s' does not exist", rec.Name)
		}
		kind := planning.BufferStandard
		switch rec.Type {
		case "infinite":
			kind = planning.BufferInfinite
		case "procure":
			kind = planning.BufferProcure
		}
		var err error
		b, err = l.plan.NewBuffer(rec.Name, kind)
		if err != nil {
			return err
		}
	} else if actionOf(rec.Action) == ActionAdd {
		return planning.NewDataError("buffer '%s' already exists", rec.Name)
	}
	if rec.Item != "" {
		item, ok := l.plan.Items().Find(rec.Item)
		if !ok {
			return planning.NewDataError("unknown item '%s'", rec.Item)
		}
		b.SetItem(item)
	}
	if rec.Location != "" {
		loc, ok := l.plan.Locations().Find(rec.Location)
		if !ok {
			return planning.NewDataError("unknown location '%s'", rec.Location)
		}
		b.SetLocation(loc)
	}
	if rec.Producing != "" {
		op, ok := l.plan.Operations().Find(rec.Producing)
		if !ok {
			return planning.NewDataError("unknown operation '%s'", rec.Producing)
		}
		b.SetProducingOperation(op)
	}
	b.SetOnhand(rec.Onhand)
	b.SetMinimum(rec.Minimum)
	if rec.Maximum > 0 {
		b.SetMaximum(rec.Maximum)
	}
	return nil
}

// LoadResource applies one resource record.
func (l *Loader) LoadResource(rec ResourceRecord) error {
	if err := l.validate.Struct(rec); err != nil {
		return planning.NewDataError("invalid resource record: %v", err)
	}
	if actionOf(rec.Action) == ActionRemove {
		l.plan.Resources().Remove(rec.Name)
		return nil
	}
	r, ok := l.plan.Resources().Find(rec.Name)
	if !ok {
		if actionOf(rec.Action) == ActionChange {
			return planning.NewDataError("resource '%s' does not exist", rec.Name)
		}
		kind := planning.ResourceStandard
		switch rec.Type {
		case "infinite":
			kind = planning.ResourceInfinite
		case "bucketed":
			kind = planning.ResourceBucketed
		}
		var err error
		r, err = l.plan.NewResource(rec.Name, kind)
		if err != nil {
			return err
		}
	} else if actionOf(rec.Action) == ActionAdd {
		return planning.NewDataError("resource '%s' already exists", rec.Name)
	}
	if rec.Location != "" {
		loc, ok := l.plan.Locations().Find(rec.Location)
		if !ok {
			return planning.NewDataError("unknown location '%s'", rec.Location)
		}
		r.SetLocation(loc)
	}
	if rec.Maximum > 0 {
		if err := r.SetMaximum(rec.Maximum); err != nil {
			return err
		}
	}
	if rec.MaxCalendar != "" {
		cal, ok := l.plan.Calendars().Find(rec.MaxCalendar)
		if !ok {
			return planning.NewDataError("unknown calendar '%s'", rec.MaxCalendar)
		}
		r.SetMaximumCalendar(cal)
	}
	if rec.SetupMatrix != "" {
		m, ok := l.plan.SetupMatrices().Find(rec.SetupMatrix)
		if !ok {
			return planning.NewDataError("unknown setup matrix '%s'", rec.SetupMatrix)
		}
		r.SetSetupMatrix(m)
	}
	if rec.Setup != "" {
		r.SetSetup(rec.Setup)
	}
	return nil
}

// LoadDemand applies one demand record.
func (l *Loader) LoadDemand(rec DemandRecord) error {
	if err := l.validate.Struct(rec); err != nil {
		return planning.NewDataError("invalid demand record: %v", err)
	}
	if actionOf(rec.Action) == ActionRemove {
		if d, ok := l.plan.Demands().Find(rec.Name); ok {
			l.plan.DeleteDemand(d)
		}
		return nil
	}
	d, ok := l.plan.Demands().Find(rec.Name)
	if !ok {
		if actionOf(rec.Action) == ActionChange {
			return planning.NewDataError("demand '%s' does not exist", rec.Name)
		}
		var err error
		d, err = l.plan.NewDemand(rec.Name)
		if err != nil {
			return err
		}
	} else if actionOf(rec.Action) == ActionAdd {
		return planning.NewDataError("demand '%s' already exists", rec.Name)
	}
	item, ok := l.plan.Items().Find(rec.Item)
	if !ok {
		return planning.NewDataError("unknown item '%s'", rec.Item)
	}
	d.SetItem(item)
	if rec.Customer != "" {
		cust, ok := l.plan.Customers().Find(rec.Customer)
		if !ok {
			return planning.NewDataError("unknown customer '%s'", rec.Customer)
		}
		d.SetCustomer(cust)
	}
	if rec.Operation != "" {
		op, ok := l.plan.Operations().Find(rec.Operation)
		if !ok {
			return planning.NewDataError("unknown operation '%s'", rec.Operation)
		}
		d.SetOperation(op)
	}
	d.SetDue(rec.Due)
	if rec.Priority != 0 {
		d.SetPriority(rec.Priority)
	}
	return d.SetQuantity(rec.Quantity)
}

// LoadFlow applies one flow record.
func (l *Loader) LoadFlow(rec FlowRecord) error {
	if err := l.validate.Struct(rec); err != nil {
		return planning.NewDataError("invalid flow record: %v", err)
	}
	op, ok := l.plan.Operations().Find(rec.Operation)
	if !ok {
		return planning.NewDataError("unknown operation '%s'", rec.Operation)
	}
	buf, ok := l.plan.Buffers().Find(rec.Buffer)
	if !ok {
		return planning.NewDataError("unknown buffer '%s'", rec.Buffer)
	}
	typ := planning.FlowEnd
	switch rec.Type {
	case "start":
		typ = planning.FlowStart
	case "fixed_start":
		typ = planning.FlowFixedStart
	case "fixed_end":
		typ = planning.FlowFixedEnd
	}
	_, err := planning.NewFlow(op, buf, rec.Quantity, typ)
	return err
}

// LoadLoad applies one load record.
func (l *Loader) LoadLoad(rec LoadRecord) error {
	if err := l.validate.Struct(rec); err != nil {
		return planning.NewDataError("invalid load record: %v", err)
	}
	op, ok := l.plan.Operations().Find(rec.Operation)
	if !ok {
		return planning.NewDataError("unknown operation '%s'", rec.Operation)
	}
	res, ok := l.plan.Resources().Find(rec.Resource)
	if !ok {
		return planning.NewDataError("unknown resource '%s'", rec.Resource)
	}
	ld, err := planning.NewLoad(op, res, rec.Quantity)
	if err != nil {
		return err
	}
	if rec.Setup != "" {
		if err := ld.SetSetup(rec.Setup); err != nil {
			return err
		}
	}
	if rec.Priority != 0 {
		ld.SetPriority(rec.Priority)
	}
	return nil
}
