package planning

// Location is a named place in the supply network. Operations, buffers and
// resources all live at a location; its availability calendar drives the
// working-time calculation of the operations there.
type Location struct {
	name        string
	description string
	parent      *Location
	available   *Calendar
}

// Name returns the unique location name.
func (l *Location) Name() string { return l.name }

// Description returns the free-form location description.
func (l *Location) Description() string { return l.description }

// SetDescription updates the location description.
func (l *Location) SetDescription(d string) { l.description = d }

// Parent returns the parent location, or nil at the tree root.
func (l *Location) Parent() *Location { return l.parent }

// SetParent re-hangs the location under a new parent.
func (l *Location) SetParent(p *Location) error {
	for x := p; x != nil; x = x.parent {
		if x == l {
			return NewDataError("location '%s' cannot be its own ancestor", l.name)
		}
	}
	l.parent = p
	return nil
}

// Available returns the availability calendar, or nil when the location
// works around the clock.
func (l *Location) Available() *Calendar { return l.available }

// SetAvailable updates the availability calendar.
func (l *Location) SetAvailable(c *Calendar) { l.available = c }
