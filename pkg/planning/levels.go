package planning

import (
	"math"
)

// maxTopologyIndex bounds the level and cluster counters. Exceeding it
// aborts the computation: the model is either far too deep or cyclic.
const maxTopologyIndex = math.MaxUint16

// hasLevel is embedded by operations, buffers and resources. The level is
// the distance upstream from a demand delivery; the cluster is the id of
// the connected component. Cluster 0 is reserved for entities with no
// edges at all.
type hasLevel struct {
	level   int
	cluster int
}

// Level returns the topological level of an operation, recomputing stale
// indices first.
func (c *OperationCommon) Level() (int, error) {
	if err := c.plan.ComputeLevels(); err != nil {
		return 0, err
	}
	return c.hasLevel.level, nil
}

// Cluster returns the connected-component id of an operation.
func (c *OperationCommon) Cluster() (int, error) {
	if err := c.plan.ComputeLevels(); err != nil {
		return 0, err
	}
	return c.hasLevel.cluster, nil
}

// Level returns the topological level of a buffer.
func (b *Buffer) Level() (int, error) {
	if err := b.plan.ComputeLevels(); err != nil {
		return 0, err
	}
	return b.hasLevel.level, nil
}

// Cluster returns the connected-component id of a buffer.
func (b *Buffer) Cluster() (int, error) {
	if err := b.plan.ComputeLevels(); err != nil {
		return 0, err
	}
	return b.hasLevel.cluster, nil
}

// Level returns the topological level of a resource.
func (r *Resource) Level() (int, error) {
	if err := r.plan.ComputeLevels(); err != nil {
		return 0, err
	}
	return r.hasLevel.level, nil
}

// Cluster returns the connected-component id of a resource.
func (r *Resource) Cluster() (int, error) {
	if err := r.plan.ComputeLevels(); err != nil {
		return 0, err
	}
	return r.hasLevel.cluster, nil
}

// subOperationsOf lists the children of a composite operation.
func subOperationsOf(op Operation) []Operation {
	switch x := op.(type) {
	case *RoutingOperation:
		return x.Steps()
	case *AlternateOperation:
		return x.Alternates()
	case *SplitOperation:
		return x.Splits()
	default:
		return nil
	}
}

// ComputeLevels re-derives the level and cluster index of every operation,
// buffer and resource. Delivery operations of demands start at level 1;
// every hop upstream through a consumed buffer to its producers adds one.
// Buffers and resources inherit the lowest level of any adjacent
// operation. A connected-component walk over all edges assigns cluster
// ids 1..N. The computation is lazy: it only runs when a structural change
// armed the flag, and one mutex serializes invocations.
func (p *Plan) ComputeLevels() error {
	if !p.state.recomputeLevels && !p.state.levelBusy {
		return nil
	}
	p.state.levelBusy = true
	p.mu.Lock()
	defer func() {
		p.state.levelBusy = false
		p.mu.Unlock()
	}()
	if !p.state.recomputeLevels {
		return nil
	}
	p.state.recomputeLevels = false

	p.operations.Each(func(o Operation) bool {
		o.Common().hasLevel = hasLevel{level: -1}
		return true
	})
	p.buffers.Each(func(b *Buffer) bool {
		b.hasLevel = hasLevel{level: -1}
		return true
	})
	p.resources.Each(func(r *Resource) bool {
		r.hasLevel = hasLevel{level: -1}
		return true
	})

	if err := p.computeOperationLevels(); err != nil {
		p.state.recomputeLevels = true
		return err
	}

	// Buffers and resources inherit the minimum level of any adjacent
	// operation.
	p.buffers.Each(func(b *Buffer) bool {
		for _, f := range b.flows {
			l := f.Operation().Common().hasLevel.level
			if l >= 0 && (b.hasLevel.level < 0 || l < b.hasLevel.level) {
				b.hasLevel.level = l
			}
		}
		return true
	})
	p.resources.Each(func(r *Resource) bool {
		for _, l := range r.loads {
			lv := l.Operation().Common().hasLevel.level
			if lv >= 0 && (r.hasLevel.level < 0 || lv < r.hasLevel.level) {
				r.hasLevel.level = lv
			}
		}
		return true
	})

	return p.computeClusters()
}

// computeOperationLevels walks upstream from the demand delivery
// operations, assigning each operation the longest distance found.
func (p *Plan) computeOperationLevels() error {
	type frame struct {
		op    Operation
		level int
	}
	var queue []frame
	push := func(op Operation, level int) error {
		if op == nil {
			return nil
		}
		if level > maxTopologyIndex {
			return NewRuntimeError("topological level exceeds %d; the supply network is too deep or cyclic", maxTopologyIndex)
		}
		c := op.Common()
		if c.hasLevel.level >= level {
			return nil
		}
		c.hasLevel.level = level
		queue = append(queue, frame{op: op, level: level})
		return nil
	}

	seed := func(op Operation) error { return push(op, 1) }
	var err error
	p.demands.Each(func(d *Demand) bool {
		if op := d.DeliveryOperation(); op != nil {
			if err = seed(op); err != nil {
				return false
			}
		}
		return true
	})
	if err != nil {
		return err
	}

	for len(queue) > 0 {
		f := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		c := f.op.Common()
		if c.hasLevel.level != f.level {
			continue
		}
		// Children execute as part of the composite: same level.
		for _, sub := range subOperationsOf(f.op) {
			if err := push(sub, f.level); err != nil {
				return err
			}
		}
		// Hop upstream: a buffer this operation consumes from is fed by
		// its producers, one level farther from the demand.
		hop := func(op Operation) error {
			for _, fl := range op.Common().flows {
				if !fl.IsConsumer() {
					continue
				}
				for _, producer := range fl.Buffer().Flows() {
					if producer.IsProducer() {
						if err := push(producer.Operation(), f.level+1); err != nil {
							return err
						}
					}
				}
				if prod := fl.Buffer().ProducingOperation(); prod != nil {
					if err := push(prod, f.level+1); err != nil {
						return err
					}
				}
			}
			return nil
		}
		if err := hop(f.op); err != nil {
			return err
		}
		for _, sub := range subOperationsOf(f.op) {
			if err := hop(sub); err != nil {
				return err
			}
		}
	}
	return nil
}

// computeClusters numbers the connected components of the whole graph.
func (p *Plan) computeClusters() error {
	cluster := 0
	var visitOp func(op Operation, id int)
	var visitBuf func(b *Buffer, id int)
	var visitRes func(r *Resource, id int)

	visitOp = func(op Operation, id int) {
		c := op.Common()
		if c.hasLevel.cluster != 0 {
			return
		}
		c.hasLevel.cluster = id
		for _, f := range c.flows {
			visitBuf(f.Buffer(), id)
		}
		for _, l := range c.loads {
			visitRes(l.Resource(), id)
		}
		for _, sub := range subOperationsOf(op) {
			visitOp(sub, id)
		}
		for _, super := range c.superOps {
			visitOp(super, id)
		}
	}
	visitBuf = func(b *Buffer, id int) {
		if b.hasLevel.cluster != 0 {
			return
		}
		b.hasLevel.cluster = id
		for _, f := range b.flows {
			visitOp(f.Operation(), id)
		}
	}
	visitRes = func(r *Resource, id int) {
		if r.hasLevel.cluster != 0 {
			return
		}
		r.hasLevel.cluster = id
		for _, l := range r.loads {
			visitOp(l.Operation(), id)
		}
	}

	var err error
	startCluster := func(connected bool) (int, bool) {
		if !connected {
			return 0, true
		}
		cluster++
		if cluster > maxTopologyIndex {
			err = NewRuntimeError("cluster count exceeds %d", maxTopologyIndex)
			return 0, false
		}
		return cluster, true
	}

	p.operations.Each(func(o Operation) bool {
		c := o.Common()
		if c.hasLevel.cluster != 0 {
			return true
		}
		connected := len(c.flows) > 0 || len(c.loads) > 0 ||
			len(c.superOps) > 0 || len(subOperationsOf(o)) > 0
		id, ok := startCluster(connected)
		if !ok {
			return false
		}
		if id == 0 {
			return true
		}
		visitOp(o, id)
		return true
	})
	if err != nil {
		return err
	}
	p.buffers.Each(func(b *Buffer) bool {
		if b.hasLevel.cluster != 0 {
			return true
		}
		id, ok := startCluster(len(b.flows) > 0)
		if !ok {
			return false
		}
		if id != 0 {
			visitBuf(b, id)
		}
		return true
	})
	if err != nil {
		return err
	}
	p.resources.Each(func(r *Resource) bool {
		if r.hasLevel.cluster != 0 {
			return true
		}
		id, ok := startCluster(len(r.loads) > 0)
		if !ok {
			return false
		}
		if id != 0 {
			visitRes(r, id)
		}
		return true
	})
	return err
}
