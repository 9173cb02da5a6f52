package planning

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPlan builds an empty model with a deterministic current date well
// before the dates used by the fixtures.
func newTestPlan(t *testing.T) *Plan {
	t.Helper()
	p := NewPlan()
	p.SetCurrent(time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC))
	return p
}

func TestFixedTime_PlanRoundTrip(t *testing.T) {
	p := newTestPlan(t)
	opA, err := p.NewFixedTimeOperation("A", 24*time.Hour)
	require.NoError(t, err)
	require.NoError(t, opA.SetSizeMinimum(1))
	require.NoError(t, opA.SetSizeMultiple(1))
	require.NoError(t, opA.SetSizeMaximum(10))

	bufB, err := p.NewBuffer("B", BufferStandard)
	require.NoError(t, err)
	bufB.SetMinimum(0)
	bufB.SetMaximum(10)
	_, err = NewFlow(opA, bufB, 1, FlowEnd)
	require.NoError(t, err)

	start := date(10, 0)
	o, err := p.CreateOperationPlan(opA, 5, start, time.Time{}, nil, nil, true)
	require.NoError(t, err)
	require.NoError(t, o.Activate())

	assert.Equal(t, start, o.Start())
	assert.Equal(t, start.Add(24*time.Hour), o.End())
	assert.Equal(t, 5.0, o.Quantity())

	require.Len(t, o.FlowPlans(), 1)
	fp := o.FlowPlans()[0]
	assert.Equal(t, start.Add(24*time.Hour), fp.Date())
	assert.Equal(t, 5.0, fp.Quantity())
	assert.Equal(t, 5.0, bufB.OnhandAt(start.Add(24*time.Hour)))

	p.ComputeProblems()
	assert.Empty(t, bufB.Problems())
	assert.Empty(t, o.problems)
}

func TestTimePer_QuantityClampedToWindow(t *testing.T) {
	p := newTestPlan(t)
	op, err := p.NewTimePerOperation("A", time.Hour, time.Hour)
	require.NoError(t, err)
	require.NoError(t, op.SetSizeMinimum(1))
	require.NoError(t, op.SetSizeMultiple(1))
	require.NoError(t, op.SetSizeMaximum(100))

	start := date(10, 0)
	end := start.Add(3 * time.Hour)
	o, err := p.CreateOperationPlan(op, 4, start, end, nil, nil, true)
	require.NoError(t, err)

	// Only two units fit: one hour base plus two hours per-unit time.
	assert.Equal(t, 2.0, o.Quantity())
	assert.Equal(t, end, o.End())
	assert.Equal(t, start, o.Start())
}

func TestTimePer_BaseAloneDoesNotFit(t *testing.T) {
	p := newTestPlan(t)
	op, err := p.NewTimePerOperation("A", 4*time.Hour, time.Hour)
	require.NoError(t, err)

	start := date(10, 0)
	o, err := p.CreateOperationPlan(op, 1, start, start.Add(time.Hour), nil, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 0.0, o.Quantity())
}

func TestSizing_MinMaxMultiple(t *testing.T) {
	p := newTestPlan(t)
	op, err := p.NewFixedTimeOperation("A", time.Hour)
	require.NoError(t, err)
	require.NoError(t, op.SetSizeMinimum(10))
	require.NoError(t, op.SetSizeMaximum(50))
	require.NoError(t, op.SetSizeMultiple(5))

	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{3, 10},
		{10, 10},
		{11, 15},
		{23, 25},
		{50, 50},
		{99, 50},
	}
	for _, c := range cases {
		o, err := p.CreateOperationPlan(op, c.in, date(10, 0), time.Time{}, nil, nil, false)
		require.NoError(t, err)
		assert.Equal(t, c.want, o.Quantity(), "requested %v", c.in)
		if o.Quantity() > 0 {
			assert.GreaterOrEqual(t, o.Quantity(), op.SizeMinimum())
			assert.LessOrEqual(t, o.Quantity(), op.SizeMaximum())
			rem := math.Mod(o.Quantity()-op.SizeMinimum(), op.SizeMultiple())
			assert.InDelta(t, 0, math.Min(rem, op.SizeMultiple()-rem), 1e-6)
		}
	}
}

func TestOperationPlan_ShapeInvariant(t *testing.T) {
	p := newTestPlan(t)
	fixed, err := p.NewFixedTimeOperation("fixed", 6*time.Hour)
	require.NoError(t, err)
	timePer, err := p.NewTimePerOperation("timeper", time.Hour, 30*time.Minute)
	require.NoError(t, err)

	of, err := p.CreateOperationPlan(fixed, 3, date(10, 0), time.Time{}, nil, nil, false)
	require.NoError(t, err)
	assert.False(t, of.Start().After(of.End()))
	assert.InDelta(t, (6 * time.Hour).Seconds(), of.End().Sub(of.Start()).Seconds(), 1)

	ot, err := p.CreateOperationPlan(timePer, 4, date(10, 0), time.Time{}, nil, nil, false)
	require.NoError(t, err)
	wanted := time.Hour + 4*30*time.Minute
	assert.InDelta(t, wanted.Seconds(), ot.End().Sub(ot.Start()).Seconds(), 1)
}

func TestOperationPlan_LockedIgnoresMutation(t *testing.T) {
	p := newTestPlan(t)
	op, err := p.NewFixedTimeOperation("A", time.Hour)
	require.NoError(t, err)
	bufB, err := p.NewBuffer("B", BufferStandard)
	require.NoError(t, err)
	_, err = NewFlow(op, bufB, 1, FlowEnd)
	require.NoError(t, err)

	o, err := p.CreateOperationPlan(op, 5, date(10, 0), time.Time{}, nil, nil, true)
	require.NoError(t, err)
	require.NoError(t, o.Activate())
	o.SetLocked(true)

	end := o.End()
	require.NoError(t, o.SetQuantity(9))
	require.NoError(t, o.SetStart(date(20, 0)))
	require.NoError(t, o.SetEnd(date(25, 0)))

	assert.Equal(t, 5.0, o.Quantity())
	assert.Equal(t, end, o.End())
	// The locked plan still projects onto the buffer timeline.
	assert.Equal(t, 5.0, bufB.OnhandAt(end))
}

func TestOperationPlan_SiblingOrder(t *testing.T) {
	p := newTestPlan(t)
	op, err := p.NewFixedTimeOperation("A", time.Hour)
	require.NoError(t, err)

	// Distinct demands keep equal-dated plans from consolidating.
	dA, err := p.NewDemand("first order")
	require.NoError(t, err)
	dB, err := p.NewDemand("second order")
	require.NoError(t, err)

	mk := func(qty float64, start time.Time, dmd *Demand) *OperationPlan {
		o, err := p.CreateOperationPlan(op, qty, start, time.Time{}, dmd, nil, false)
		require.NoError(t, err)
		require.NoError(t, o.Activate())
		return o
	}
	mk(1, date(12, 0), dA)
	mk(5, date(10, 0), dA)
	mk(2, date(10, 0), dB)
	mk(9, date(11, 0), dA)

	var got []float64
	var prevStart time.Time
	op.EachPlan(func(o *OperationPlan) bool {
		if dateGiven(prevStart) {
			assert.False(t, o.Start().Before(prevStart))
		}
		prevStart = o.Start()
		got = append(got, o.Quantity())
		return true
	})
	assert.Equal(t, []float64{5, 2, 9, 1}, got)
}

func TestFixedTime_ConsolidatesEqualPlans(t *testing.T) {
	p := newTestPlan(t)
	op, err := p.NewFixedTimeOperation("A", time.Hour)
	require.NoError(t, err)
	require.NoError(t, op.SetSizeMaximum(100))

	first, err := p.CreateOperationPlan(op, 5, date(10, 0), time.Time{}, nil, nil, true)
	require.NoError(t, err)
	require.NoError(t, first.Activate())

	second, err := p.CreateOperationPlan(op, 3, date(10, 0), time.Time{}, nil, nil, true)
	require.NoError(t, err)
	require.NoError(t, second.Activate())

	assert.False(t, second.Active())
	assert.Equal(t, 8.0, first.Quantity())

	count := 0
	op.EachPlan(func(*OperationPlan) bool { count++; return true })
	assert.Equal(t, 1, count)
}

func TestOperationPlan_DeactivateAndDestroy(t *testing.T) {
	p := newTestPlan(t)
	op, err := p.NewFixedTimeOperation("A", time.Hour)
	require.NoError(t, err)
	bufB, err := p.NewBuffer("B", BufferStandard)
	require.NoError(t, err)
	_, err = NewFlow(op, bufB, 1, FlowEnd)
	require.NoError(t, err)

	o, err := p.CreateOperationPlan(op, 5, date(10, 0), time.Time{}, nil, nil, true)
	require.NoError(t, err)
	require.NoError(t, o.Activate())
	end := o.End()
	require.Equal(t, 5.0, bufB.OnhandAt(end))

	o.Deactivate()
	count := 0
	op.EachPlan(func(*OperationPlan) bool { count++; return true })
	assert.Equal(t, 0, count)

	o.Destroy()
	assert.Equal(t, 0.0, bufB.OnhandAt(end))
	assert.Equal(t, 0, bufB.Timeline().Len())
}

func TestOperationTime_AvailabilityCalendar(t *testing.T) {
	p := newTestPlan(t)
	cal, err := p.NewCalendar("working hours", 0)
	require.NoError(t, err)
	b := cal.AddBucket(date(1, 0), date(28, 0), 1)
	require.NoError(t, b.SetDays(0b0111110))
	require.NoError(t, b.SetStartTime(9*time.Hour))
	require.NoError(t, b.SetEndTime(17*time.Hour))

	loc, err := p.NewLocation("factory")
	require.NoError(t, err)
	loc.SetAvailable(cal)

	op, err := p.NewFixedTimeOperation("A", 4*time.Hour)
	require.NoError(t, err)
	op.SetLocation(loc)

	// 2026-03-06 is a Friday: one working hour remains at 16:00, the
	// other three spill over to Monday morning.
	friday16 := time.Date(2026, time.March, 6, 16, 0, 0, 0, time.UTC)
	monday12 := time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC)
	o, err := p.CreateOperationPlan(op, 1, friday16, time.Time{}, nil, nil, false)
	require.NoError(t, err)

	assert.Equal(t, friday16, o.Start())
	assert.Equal(t, monday12, o.End())
}

func TestOperationTime_InsufficientHorizonZeroesQuantity(t *testing.T) {
	p := newTestPlan(t)
	cal, err := p.NewCalendar("closed", 0)
	require.NoError(t, err)
	// Open for a single day only.
	cal.AddBucket(date(10, 0), date(11, 0), 1)

	loc, err := p.NewLocation("factory")
	require.NoError(t, err)
	loc.SetAvailable(cal)

	op, err := p.NewFixedTimeOperation("A", 48*time.Hour)
	require.NoError(t, err)
	op.SetLocation(loc)

	o, err := p.CreateOperationPlan(op, 5, date(10, 0), time.Time{}, nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, o.Quantity())
}
