package planning

import (
	"github.com/rs/zerolog/log"
)

// Problem is a derived observation about a plan: a shortage, an overload,
// a late demand. Problems are owned by their subject entity and rebuilt
// from scratch whenever the entity has been marked changed.
type Problem interface {
	// Name returns the problem kind.
	Name() string
	// Description returns a human-readable account of the problem.
	Description() string
	// Dates returns the date range the problem covers.
	Dates() DateRange
	// Weight returns the problem magnitude.
	Weight() float64
	// IsFeasible reports whether a plan with this problem is still
	// executable.
	IsFeasible() bool
	// Owner returns the entity the problem is attached to.
	Owner() any
}

// plannable is embedded by every entity that owns a problem list: buffers,
// resources, operations and demands. It carries the changed flag arming
// lazy problem detection.
type plannable struct {
	planRef        *Plan
	changed        bool
	detectProblems bool
	problems       []Problem
}

func (p *plannable) init(plan *Plan) {
	p.planRef = plan
	p.detectProblems = true
	p.changed = true
	plan.state.anyChange = true
}

// Changed reports whether the entity mutated since the last problem
// computation.
func (p *plannable) Changed() bool { return p.changed }

// setChanged arms problem detection for this entity.
func (p *plannable) setChanged() {
	p.changed = true
	if p.planRef != nil {
		p.planRef.state.anyChange = true
	}
}

// DetectProblems reports whether problem detection is enabled.
func (p *plannable) DetectProblems() bool { return p.detectProblems }

// SetDetectProblems toggles problem detection for this entity.
func (p *plannable) SetDetectProblems(v bool) {
	p.detectProblems = v
	p.setChanged()
}

// Problems returns the entity's problem list, recomputing stale lists
// first.
func (p *plannable) Problems() []Problem {
	if p.planRef != nil {
		p.planRef.ComputeProblems()
	}
	return p.problems
}

// ComputeProblems re-derives the problem lists of all changed entities.
// The computation loops to a fixpoint: an entity marked changed during the
// pass is revisited. One mutex serializes concurrent invocations; a
// re-entrant call observes the already-computed result.
func (p *Plan) ComputeProblems() {
	if !p.state.anyChange && !p.state.computationBusy {
		return
	}
	p.state.computationBusy = true
	p.mu.Lock()
	defer func() {
		p.state.computationBusy = false
		p.mu.Unlock()
	}()

	for p.state.anyChange {
		p.state.anyChange = false

		p.buffers.Each(func(b *Buffer) bool {
			if b.changed && b.detectProblems {
				safeUpdateProblems("buffer", b.name, b.updateProblems)
			}
			return true
		})
		p.resources.Each(func(r *Resource) bool {
			if r.changed && r.detectProblems {
				safeUpdateProblems("resource", r.name, r.updateProblems)
			}
			return true
		})
		p.operations.Each(func(o Operation) bool {
			c := o.Common()
			if c.changed && c.detectProblems {
				safeUpdateProblems("operation", c.name, c.updateProblems)
			}
			return true
		})
		p.demands.Each(func(d *Demand) bool {
			if d.changed && d.detectProblems {
				safeUpdateProblems("demand", d.name, d.updateProblems)
			}
			return true
		})

		p.buffers.Each(func(b *Buffer) bool {
			if b.changed && b.detectProblems {
				b.changed = false
			}
			return true
		})
		p.resources.Each(func(r *Resource) bool {
			if r.changed && r.detectProblems {
				r.changed = false
			}
			return true
		})
		p.operations.Each(func(o Operation) bool {
			c := o.Common()
			if c.changed && c.detectProblems {
				c.changed = false
			}
			return true
		})
		p.demands.Each(func(d *Demand) bool {
			if d.changed && d.detectProblems {
				d.changed = false
			}
			return true
		})
	}
}

// safeUpdateProblems shields the computation loop from a failing detector:
// the failure is logged and the entity's list is left as the detector got
// with it.
func safeUpdateProblems(category, name string, update func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("category", category).
				Str("entity", name).
				Any("panic", r).
				Msg("problem detection failed")
		}
	}()
	update()
}

// EachProblem walks every problem in the model, grouped per entity in the
// detection order: buffers, resources, operation plans, demands.
func (p *Plan) EachProblem(fn func(Problem) bool) {
	p.ComputeProblems()
	stop := false
	emit := func(list []Problem) bool {
		for _, pr := range list {
			if !fn(pr) {
				stop = true
				return false
			}
		}
		return true
	}
	p.buffers.Each(func(b *Buffer) bool { return emit(b.problems) })
	if stop {
		return
	}
	p.resources.Each(func(r *Resource) bool { return emit(r.problems) })
	if stop {
		return
	}
	p.operations.Each(func(o Operation) bool {
		for pl := o.Common().firstPlan; pl != nil; pl = pl.next {
			if !emit(pl.problems) {
				return false
			}
		}
		return true
	})
	if stop {
		return
	}
	p.demands.Each(func(d *Demand) bool { return emit(d.problems) })
}
