package planning

import "github.com/shopspring/decimal"

// Item identifies a physical product, component or raw material. Items form
// a tree through their parent references; the registry on the plan is the
// single owner.
type Item struct {
	name        string
	description string
	parent      *Item
	price       decimal.Decimal
	operation   Operation
	hidden      bool
}

// Name returns the unique item name.
func (i *Item) Name() string { return i.name }

// Description returns the free-form item description.
func (i *Item) Description() string { return i.description }

// SetDescription updates the item description.
func (i *Item) SetDescription(d string) { i.description = d }

// Parent returns the parent item, or nil at the tree root.
func (i *Item) Parent() *Item { return i.parent }

// SetParent re-hangs the item under a new parent.
func (i *Item) SetParent(p *Item) error {
	for x := p; x != nil; x = x.parent {
		if x == i {
			return NewDataError("item '%s' cannot be its own ancestor", i.name)
		}
	}
	i.parent = p
	return nil
}

// Price returns the standard selling price of one unit.
func (i *Item) Price() decimal.Decimal { return i.price }

// SetPrice updates the item price.
func (i *Item) SetPrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return NewDataError("item price must not be negative")
	}
	i.price = p
	return nil
}

// Operation returns the default delivery operation for demands of this
// item, or nil.
func (i *Item) Operation() Operation { return i.operation }

// SetOperation updates the default delivery operation.
func (i *Item) SetOperation(o Operation) { i.operation = o }

// Hidden reports whether the item was generated internally.
func (i *Item) Hidden() bool { return i.hidden }
