package planning

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier is an external source of purchased material.
type Supplier struct {
	name        string
	description string
	parent      *Supplier
	items       []*ItemSupplier
}

// Name returns the unique supplier name.
func (s *Supplier) Name() string { return s.name }

// Description returns the free-form supplier description.
func (s *Supplier) Description() string { return s.description }

// SetDescription updates the supplier description.
func (s *Supplier) SetDescription(d string) { s.description = d }

// Parent returns the parent supplier, or nil at the tree root.
func (s *Supplier) Parent() *Supplier { return s.parent }

// SetParent re-hangs the supplier under a new parent.
func (s *Supplier) SetParent(p *Supplier) error {
	for x := p; x != nil; x = x.parent {
		if x == s {
			return NewDataError("supplier '%s' cannot be its own ancestor", s.name)
		}
	}
	s.parent = p
	return nil
}

// Items returns the item-supplier relations of this supplier.
func (s *Supplier) Items() []*ItemSupplier { return s.items }

// ItemSupplier records that a supplier can deliver an item: the purchasing
// leadtime, the cost per unit and the order sizing rules. Buffers with no
// producing operation derive a purchase operation from it.
type ItemSupplier struct {
	supplier     *Supplier
	item         *Item
	leadtime     time.Duration
	cost         decimal.Decimal
	sizeMinimum  float64
	sizeMultiple float64
	effective    DateRange
	priority     int
}

// NewItemSupplier links an item to a supplier.
func NewItemSupplier(supplier *Supplier, item *Item, leadtime time.Duration) (*ItemSupplier, error) {
	if supplier == nil || item == nil {
		return nil, NewDataError("item-supplier relation needs both an item and a supplier")
	}
	if leadtime < 0 {
		return nil, NewDataError("item-supplier leadtime must not be negative")
	}
	is := &ItemSupplier{
		supplier:  supplier,
		item:      item,
		leadtime:  leadtime,
		effective: EffectiveAlways(),
		priority:  1,
	}
	supplier.items = append(supplier.items, is)
	return is, nil
}

// Supplier returns the supplying party.
func (is *ItemSupplier) Supplier() *Supplier { return is.supplier }

// Item returns the supplied item.
func (is *ItemSupplier) Item() *Item { return is.item }

// Leadtime returns the purchasing leadtime.
func (is *ItemSupplier) Leadtime() time.Duration { return is.leadtime }

// Cost returns the purchasing cost per unit.
func (is *ItemSupplier) Cost() decimal.Decimal { return is.cost }

// SetCost updates the purchasing cost per unit.
func (is *ItemSupplier) SetCost(c decimal.Decimal) { is.cost = c }

// SizeMinimum returns the minimum order quantity.
func (is *ItemSupplier) SizeMinimum() float64 { return is.sizeMinimum }

// SetSizeMinimum updates the minimum order quantity.
func (is *ItemSupplier) SetSizeMinimum(v float64) error {
	if v < 0 {
		return NewDataError("item-supplier minimum size must not be negative")
	}
	is.sizeMinimum = v
	return nil
}

// SizeMultiple returns the order quantity multiple.
func (is *ItemSupplier) SizeMultiple() float64 { return is.sizeMultiple }

// SetSizeMultiple updates the order quantity multiple.
func (is *ItemSupplier) SetSizeMultiple(v float64) error {
	if v < 0 {
		return NewDataError("item-supplier size multiple must not be negative")
	}
	is.sizeMultiple = v
	return nil
}

// Effective returns the date range in which the relation applies.
func (is *ItemSupplier) Effective() DateRange { return is.effective }

// SetEffective updates the effectivity range.
func (is *ItemSupplier) SetEffective(r DateRange) { is.effective = r }

// Priority returns the relation priority among suppliers of the same item.
func (is *ItemSupplier) Priority() int { return is.priority }

// SetPriority updates the relation priority.
func (is *ItemSupplier) SetPriority(p int) { is.priority = p }
