package planning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblems_ShortageAndUnplannedDemand(t *testing.T) {
	p := newTestPlan(t)
	item, err := p.NewItem("widget")
	require.NoError(t, err)

	bufB, err := p.NewBuffer("B", BufferStandard)
	require.NoError(t, err)
	bufB.SetItem(item)
	bufB.SetMinimum(0)

	ship, err := p.NewFixedTimeOperation("ship widget", time.Hour)
	require.NoError(t, err)
	_, err = NewFlow(ship, bufB, -1, FlowEnd)
	require.NoError(t, err)

	due := date(15, 0)
	dmd, err := p.NewDemand("order 42")
	require.NoError(t, err)
	dmd.SetItem(item)
	dmd.SetDue(due)
	require.NoError(t, dmd.SetQuantity(5))

	// Material walks out of the buffer with nothing feeding it.
	o, err := p.CreateOperationPlan(ship, 5, time.Time{}, due, nil, nil, true)
	require.NoError(t, err)
	require.NoError(t, o.Activate())

	p.ComputeProblems()

	probs := bufB.Problems()
	require.Len(t, probs, 1)
	shortage, ok := probs[0].(*MaterialShortage)
	require.True(t, ok)
	assert.Equal(t, 5.0, shortage.Weight())
	assert.Equal(t, due, shortage.Dates().Start)
	assert.Equal(t, InfiniteFuture, shortage.Dates().End)
	assert.False(t, shortage.IsFeasible())

	kinds := map[string]bool{}
	for _, pr := range dmd.Problems() {
		kinds[pr.Name()] = true
	}
	assert.True(t, kinds["unplanned"])
	assert.True(t, kinds["short"])
}

func TestProblems_ExcessRegionCloses(t *testing.T) {
	p := newTestPlan(t)
	bufB, err := p.NewBuffer("B", BufferStandard)
	require.NoError(t, err)
	bufB.SetMaximum(10)

	produce, err := p.NewFixedTimeOperation("produce", time.Hour)
	require.NoError(t, err)
	_, err = NewFlow(produce, bufB, 1, FlowEnd)
	require.NoError(t, err)
	consume, err := p.NewFixedTimeOperation("consume", time.Hour)
	require.NoError(t, err)
	_, err = NewFlow(consume, bufB, -1, FlowEnd)
	require.NoError(t, err)

	in, err := p.CreateOperationPlan(produce, 15, time.Time{}, date(10, 0), nil, nil, true)
	require.NoError(t, err)
	require.NoError(t, in.Activate())
	out, err := p.CreateOperationPlan(consume, 8, time.Time{}, date(12, 0), nil, nil, true)
	require.NoError(t, err)
	require.NoError(t, out.Activate())

	p.ComputeProblems()
	probs := bufB.Problems()
	require.Len(t, probs, 1)
	excess, ok := probs[0].(*MaterialExcess)
	require.True(t, ok)
	assert.Equal(t, 5.0, excess.Weight())
	assert.Equal(t, date(10, 0), excess.Dates().Start)
	assert.Equal(t, date(12, 0), excess.Dates().End)
	assert.True(t, excess.IsFeasible())
}

func TestProblems_InfiniteBufferNeverComplains(t *testing.T) {
	p := newTestPlan(t)
	buf, err := p.NewBuffer("open stock", BufferInfinite)
	require.NoError(t, err)

	take, err := p.NewFixedTimeOperation("take", time.Hour)
	require.NoError(t, err)
	_, err = NewFlow(take, buf, -1, FlowEnd)
	require.NoError(t, err)

	o, err := p.CreateOperationPlan(take, 100, time.Time{}, date(10, 0), nil, nil, true)
	require.NoError(t, err)
	require.NoError(t, o.Activate())

	p.ComputeProblems()
	assert.Empty(t, buf.Problems())
}

func TestProblems_CapacityOverloadContinuous(t *testing.T) {
	p := newTestPlan(t)
	res, err := p.NewResource("machine", ResourceStandard)
	require.NoError(t, err)
	require.NoError(t, res.SetMaximum(1))

	op, err := p.NewFixedTimeOperation("mill", 4*time.Hour)
	require.NoError(t, err)
	_, err = NewLoad(op, res, 1)
	require.NoError(t, err)

	// Two fully overlapping plans occupy two units on a one-unit machine.
	a, err := p.CreateOperationPlan(op, 1, date(10, 8), time.Time{}, nil, nil, true)
	require.NoError(t, err)
	require.NoError(t, a.Activate())
	dmd, err := p.NewDemand("keep separate")
	require.NoError(t, err)
	b, err := p.CreateOperationPlan(op, 1, date(10, 8), time.Time{}, dmd, nil, true)
	require.NoError(t, err)
	require.NoError(t, b.Activate())

	p.ComputeProblems()
	probs := res.Problems()
	require.Len(t, probs, 1)
	over, ok := probs[0].(*CapacityOverload)
	require.True(t, ok)
	assert.Equal(t, 1.0, over.Weight())
	assert.Equal(t, date(10, 8), over.Dates().Start)
	assert.Equal(t, date(10, 12), over.Dates().End)
}

func TestProblems_CapacityOverloadBucketed(t *testing.T) {
	p := newTestPlan(t)
	res, err := p.NewResource("oven", ResourceBucketed)
	require.NoError(t, err)
	require.NoError(t, res.SetMaximum(10))

	op, err := p.NewFixedTimeOperation("bake", time.Hour)
	require.NoError(t, err)
	_, err = NewLoad(op, res, 1)
	require.NoError(t, err)

	o, err := p.CreateOperationPlan(op, 12, date(10, 0), time.Time{}, nil, nil, true)
	require.NoError(t, err)
	require.NoError(t, o.Activate())

	p.ComputeProblems()
	probs := res.Problems()
	require.Len(t, probs, 1)
	over, ok := probs[0].(*CapacityOverload)
	require.True(t, ok)
	assert.InDelta(t, 2.0, over.Weight(), 1e-9)
}

func TestProblems_LockedPlanStillLoadsBucketedResource(t *testing.T) {
	p := newTestPlan(t)
	res, err := p.NewResource("oven", ResourceBucketed)
	require.NoError(t, err)
	require.NoError(t, res.SetMaximum(10))

	op, err := p.NewFixedTimeOperation("bake", time.Hour)
	require.NoError(t, err)
	_, err = NewLoad(op, res, 1)
	require.NoError(t, err)

	o, err := p.CreateOperationPlan(op, 12, date(10, 0), time.Time{}, nil, nil, true)
	require.NoError(t, err)
	require.NoError(t, o.Activate())
	o.SetLocked(true)

	// The locked plan keeps consuming bucket capacity while its
	// consume-capacity flag stands.
	p.ComputeProblems()
	require.Len(t, res.Problems(), 1)

	o.SetConsumeCapacity(false)
	p.ComputeProblems()
	assert.Empty(t, res.Problems())
}

func TestProblems_BeforeCurrentAndFence(t *testing.T) {
	p := newTestPlan(t)
	op, err := p.NewFixedTimeOperation("pack", time.Hour)
	require.NoError(t, err)
	op.SetFence(48 * time.Hour)

	current := p.Current()

	past, err := p.CreateOperationPlan(op, 1, current.Add(-24*time.Hour), time.Time{}, nil, nil, true)
	require.NoError(t, err)
	require.NoError(t, past.Activate())

	dmd, err := p.NewDemand("fenced order")
	require.NoError(t, err)
	fenced, err := p.CreateOperationPlan(op, 1, current.Add(24*time.Hour), time.Time{}, dmd, nil, true)
	require.NoError(t, err)
	require.NoError(t, fenced.Activate())

	p.ComputeProblems()

	require.Len(t, past.problems, 1)
	_, isBeforeCurrent := past.problems[0].(*BeforeCurrent)
	assert.True(t, isBeforeCurrent)

	require.Len(t, fenced.problems, 1)
	_, isBeforeFence := fenced.problems[0].(*BeforeFence)
	assert.True(t, isBeforeFence)
}

func TestProblems_LateAndShortDemand(t *testing.T) {
	p := newTestPlan(t)
	op, err := p.NewFixedTimeOperation("deliver", time.Hour)
	require.NoError(t, err)

	dmd, err := p.NewDemand("order 7")
	require.NoError(t, err)
	dmd.SetDue(date(10, 0))
	require.NoError(t, dmd.SetQuantity(10))

	o, err := p.CreateOperationPlan(op, 6, time.Time{}, date(12, 0), dmd, nil, true)
	require.NoError(t, err)
	require.NoError(t, o.Activate())

	p.ComputeProblems()
	kinds := map[string]float64{}
	for _, pr := range dmd.Problems() {
		kinds[pr.Name()] = pr.Weight()
	}
	assert.Contains(t, kinds, "late")
	assert.InDelta(t, 4.0, kinds["short"], 1e-9)
	assert.NotContains(t, kinds, "unplanned")
}

func TestProblems_ComputeIsIdempotent(t *testing.T) {
	p := newTestPlan(t)
	bufB, err := p.NewBuffer("B", BufferStandard)
	require.NoError(t, err)
	take, err := p.NewFixedTimeOperation("take", time.Hour)
	require.NoError(t, err)
	_, err = NewFlow(take, bufB, -2, FlowEnd)
	require.NoError(t, err)
	o, err := p.CreateOperationPlan(take, 3, time.Time{}, date(10, 0), nil, nil, true)
	require.NoError(t, err)
	require.NoError(t, o.Activate())

	p.ComputeProblems()
	first := bufB.Problems()
	require.Len(t, first, 1)

	// A second run without mutations must not rebuild anything.
	p.ComputeProblems()
	second := bufB.Problems()
	require.Len(t, second, 1)
	assert.Same(t, first[0], second[0])

	// A mutation re-arms detection and rebuilds the list.
	require.NoError(t, o.SetQuantity(4))
	p.ComputeProblems()
	third := bufB.Problems()
	require.Len(t, third, 1)
	assert.NotSame(t, first[0], third[0])
}
