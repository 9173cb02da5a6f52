package planning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildChain wires Raw -> B0 -> Mid -> B1 -> Final with unit flows and
// plans the whole chain for the given quantity, delivering a demand.
func buildChain(t *testing.T, p *Plan, qty float64) (*Demand, *OperationPlan, *OperationPlan, *OperationPlan) {
	t.Helper()
	item, err := p.NewItem("product")
	require.NoError(t, err)

	b0, err := p.NewBuffer("B0", BufferStandard)
	require.NoError(t, err)
	b1, err := p.NewBuffer("B1", BufferStandard)
	require.NoError(t, err)

	raw, err := p.NewFixedTimeOperation("Raw", time.Hour)
	require.NoError(t, err)
	mid, err := p.NewFixedTimeOperation("Mid", time.Hour)
	require.NoError(t, err)
	final, err := p.NewFixedTimeOperation("Final", time.Hour)
	require.NoError(t, err)

	_, err = NewFlow(raw, b0, 1, FlowEnd)
	require.NoError(t, err)
	_, err = NewFlow(mid, b0, -1, FlowStart)
	require.NoError(t, err)
	_, err = NewFlow(mid, b1, 1, FlowEnd)
	require.NoError(t, err)
	_, err = NewFlow(final, b1, -1, FlowStart)
	require.NoError(t, err)

	dmd, err := p.NewDemand("order 1")
	require.NoError(t, err)
	dmd.SetItem(item)
	dmd.SetOperation(final)
	dmd.SetDue(date(20, 0))
	require.NoError(t, dmd.SetQuantity(qty))

	finalPlan, err := p.CreateOperationPlan(final, qty, time.Time{}, date(20, 0), dmd, nil, true)
	require.NoError(t, err)
	require.NoError(t, finalPlan.Activate())
	midPlan, err := p.CreateOperationPlan(mid, qty, time.Time{}, finalPlan.Start(), nil, nil, true)
	require.NoError(t, err)
	require.NoError(t, midPlan.Activate())
	rawPlan, err := p.CreateOperationPlan(raw, qty, time.Time{}, midPlan.Start(), nil, nil, true)
	require.NoError(t, err)
	require.NoError(t, rawPlan.Activate())

	return dmd, rawPlan, midPlan, finalPlan
}

func TestPegging_DownstreamVisitsWholeChain(t *testing.T) {
	p := newTestPlan(t)
	_, rawPlan, midPlan, finalPlan := buildChain(t, p, 5)

	it := NewOperationPlanPegging(rawPlan, true)
	var plans []*OperationPlan
	var levels []int
	var qtys []float64
	for it.Next() {
		plans = append(plans, it.OperationPlan())
		levels = append(levels, it.Level())
		qtys = append(qtys, it.Quantity())
	}

	require.Equal(t, []*OperationPlan{rawPlan, midPlan, finalPlan}, plans)
	assert.Equal(t, []int{0, 1, 2}, levels)
	for _, q := range qtys {
		assert.InDelta(t, 5, q, 1e-9)
	}
}

func TestPegging_UpstreamFromDemandReachesRawMaterial(t *testing.T) {
	p := newTestPlan(t)
	dmd, rawPlan, midPlan, finalPlan := buildChain(t, p, 5)

	it := NewDemandPegging(dmd)
	var plans []*OperationPlan
	for it.Next() {
		plans = append(plans, it.OperationPlan())
	}
	require.Equal(t, []*OperationPlan{finalPlan, midPlan, rawPlan}, plans)
}

func TestPegging_RoundTrip(t *testing.T) {
	p := newTestPlan(t)
	_, rawPlan, _, _ := buildChain(t, p, 3)

	// Every plan reached downstream from the raw producer must lead back
	// to the raw producer when walked upstream.
	down := NewOperationPlanPegging(rawPlan, true)
	var reached []*OperationPlan
	for down.Next() {
		reached = append(reached, down.OperationPlan())
	}
	require.NotEmpty(t, reached)

	for _, start := range reached {
		up := NewOperationPlanPegging(start, false)
		found := false
		for up.Next() {
			if up.OperationPlan() == rawPlan {
				found = true
			}
		}
		assert.True(t, found, "no upstream path from %s to the raw producer", start.Operation().Name())
	}
}

func TestPegging_PartialCoverageScalesQuantity(t *testing.T) {
	p := newTestPlan(t)
	buf, err := p.NewBuffer("B", BufferStandard)
	require.NoError(t, err)

	produce, err := p.NewFixedTimeOperation("produce", time.Hour)
	require.NoError(t, err)
	_, err = NewFlow(produce, buf, 1, FlowEnd)
	require.NoError(t, err)
	consume, err := p.NewFixedTimeOperation("consume", time.Hour)
	require.NoError(t, err)
	_, err = NewFlow(consume, buf, -1, FlowStart)
	require.NoError(t, err)

	// Two producers of four each feed one consumer of six: the consumer
	// pegs fully on the first producer and half on the second.
	d1, err := p.NewDemand("lot 1")
	require.NoError(t, err)
	p1, err := p.CreateOperationPlan(produce, 4, time.Time{}, date(10, 0), d1, nil, true)
	require.NoError(t, err)
	require.NoError(t, p1.Activate())
	d2, err := p.NewDemand("lot 2")
	require.NoError(t, err)
	p2, err := p.CreateOperationPlan(produce, 4, time.Time{}, date(11, 0), d2, nil, true)
	require.NoError(t, err)
	require.NoError(t, p2.Activate())

	c1, err := p.CreateOperationPlan(consume, 6, date(12, 0), time.Time{}, nil, nil, true)
	require.NoError(t, err)
	require.NoError(t, c1.Activate())

	it := NewOperationPlanPegging(c1, false)
	pegged := map[*OperationPlan]float64{}
	for it.Next() {
		if it.OperationPlan() != c1 {
			pegged[it.OperationPlan()] += it.Quantity()
		}
	}
	require.Len(t, pegged, 2)
	assert.InDelta(t, 4, pegged[p1], 1e-9)
	assert.InDelta(t, 2, pegged[p2], 1e-9)
}

func TestPegging_ZeroQuantityAndToolBuffersAreSkipped(t *testing.T) {
	p := newTestPlan(t)
	buf, err := p.NewBuffer("tools", BufferStandard)
	require.NoError(t, err)
	buf.SetTool(true)

	produce, err := p.NewFixedTimeOperation("produce", time.Hour)
	require.NoError(t, err)
	_, err = NewFlow(produce, buf, 1, FlowEnd)
	require.NoError(t, err)
	consume, err := p.NewFixedTimeOperation("consume", time.Hour)
	require.NoError(t, err)
	_, err = NewFlow(consume, buf, -1, FlowStart)
	require.NoError(t, err)

	prod, err := p.CreateOperationPlan(produce, 4, time.Time{}, date(10, 0), nil, nil, true)
	require.NoError(t, err)
	require.NoError(t, prod.Activate())
	cons, err := p.CreateOperationPlan(consume, 4, date(11, 0), time.Time{}, nil, nil, true)
	require.NoError(t, err)
	require.NoError(t, cons.Activate())

	it := NewOperationPlanPegging(cons, false)
	count := 0
	for it.Next() {
		count++
	}
	// Only the starting frame appears: tool buffers contribute no links.
	assert.Equal(t, 1, count)
}
