package planning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_DuplicateNamesRejected(t *testing.T) {
	p := newTestPlan(t)
	_, err := p.NewItem("widget")
	require.NoError(t, err)
	_, err = p.NewItem("widget")
	require.Error(t, err)
	assert.True(t, IsDataError(err))

	_, err = p.NewBuffer("", BufferStandard)
	require.Error(t, err)
}

func TestRegistry_SortedIteration(t *testing.T) {
	p := newTestPlan(t)
	for _, n := range []string{"gamma", "alpha", "beta"} {
		_, err := p.NewItem(n)
		require.NoError(t, err)
	}
	var names []string
	p.Items().Each(func(i *Item) bool {
		names = append(names, i.Name())
		return true
	})
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, names)
}

func TestEntity_ParentCycleRejected(t *testing.T) {
	p := newTestPlan(t)
	a, err := p.NewItem("a")
	require.NoError(t, err)
	b, err := p.NewItem("b")
	require.NoError(t, err)
	require.NoError(t, b.SetParent(a))
	err = a.SetParent(b)
	require.Error(t, err)
	assert.True(t, IsDataError(err))
}

func TestPlan_IdentifiersAreMonotonic(t *testing.T) {
	p := newTestPlan(t)
	op, err := p.NewFixedTimeOperation("A", time.Hour)
	require.NoError(t, err)

	d1, err := p.NewDemand("d1")
	require.NoError(t, err)
	d2, err := p.NewDemand("d2")
	require.NoError(t, err)
	a, err := p.CreateOperationPlan(op, 1, date(10, 0), time.Time{}, d1, nil, false)
	require.NoError(t, err)
	require.NoError(t, a.Activate())
	b, err := p.CreateOperationPlan(op, 1, date(11, 0), time.Time{}, d2, nil, false)
	require.NoError(t, err)
	require.NoError(t, b.Activate())

	assert.Less(t, a.ID(), b.ID())
	assert.Equal(t, a.ID(), a.ID())
}

func TestPlan_DeleteBufferRemovesAllReferences(t *testing.T) {
	p := newTestPlan(t)
	op, err := p.NewFixedTimeOperation("fill", time.Hour)
	require.NoError(t, err)
	buf, err := p.NewBuffer("tank", BufferStandard)
	require.NoError(t, err)
	_, err = NewFlow(op, buf, 1, FlowEnd)
	require.NoError(t, err)

	o, err := p.CreateOperationPlan(op, 5, date(10, 0), time.Time{}, nil, nil, true)
	require.NoError(t, err)
	require.NoError(t, o.Activate())

	p.DeleteBuffer(buf)

	_, ok := p.Buffers().Find("tank")
	assert.False(t, ok)
	assert.Empty(t, op.Flows())
	assert.False(t, o.Active())

	count := 0
	op.EachPlan(func(*OperationPlan) bool { count++; return true })
	assert.Equal(t, 0, count)
}

func TestPlan_DeleteBufferDropsDerivedPurchaseOperation(t *testing.T) {
	p := newTestPlan(t)
	item, err := p.NewItem("bolt")
	require.NoError(t, err)
	sup, err := p.NewSupplier("acme")
	require.NoError(t, err)
	_, err = NewItemSupplier(sup, item, 48*time.Hour)
	require.NoError(t, err)

	buf, err := p.NewBuffer("bolt stock", BufferStandard)
	require.NoError(t, err)
	buf.SetItem(item)

	purchase := buf.ProducingOperation()
	require.NotNil(t, purchase)
	_, ok := p.Operations().Find(purchase.Name())
	require.True(t, ok)

	p.DeleteBuffer(buf)
	_, ok = p.Operations().Find(purchase.Name())
	assert.False(t, ok)
}

func TestBuffer_AutoBuiltPurchaseOperation(t *testing.T) {
	p := newTestPlan(t)
	item, err := p.NewItem("bolt")
	require.NoError(t, err)
	cheap, err := p.NewSupplier("cheap")
	require.NoError(t, err)
	fast, err := p.NewSupplier("fast")
	require.NoError(t, err)
	slowRel, err := NewItemSupplier(cheap, item, 96*time.Hour)
	require.NoError(t, err)
	slowRel.SetPriority(2)
	fastRel, err := NewItemSupplier(fast, item, 24*time.Hour)
	require.NoError(t, err)
	fastRel.SetPriority(1)

	buf, err := p.NewBuffer("bolt stock", BufferStandard)
	require.NoError(t, err)
	buf.SetItem(item)

	op := buf.ProducingOperation()
	require.NotNil(t, op)
	isOp, ok := op.(*ItemSupplierOperation)
	require.True(t, ok)
	assert.Same(t, fastRel, isOp.ItemSupplier())
	assert.Equal(t, 24*time.Hour, isOp.Duration())
	assert.True(t, op.Common().Hidden())

	// The derived operation feeds the buffer.
	require.Len(t, buf.Flows(), 1)
	assert.True(t, buf.Flows()[0].IsProducer())
}

func TestProcurementBuffer_GeneratesReorderPlans(t *testing.T) {
	p := newTestPlan(t)
	buf, err := p.NewBuffer("consumables", BufferProcure)
	require.NoError(t, err)
	buf.SetOnhand(2)
	buf.SetMinimumInventory(5)
	buf.SetMaximumInventory(20)
	require.NoError(t, buf.SetLeadtime(24*time.Hour))

	created, err := buf.GeneratePurchasePlans()
	require.NoError(t, err)
	require.Len(t, created, 1)

	o := created[0]
	assert.Equal(t, 18.0, o.Quantity())
	assert.Equal(t, p.Current(), o.End())
	assert.Equal(t, p.Current().Add(-24*time.Hour), o.Start())
	assert.InDelta(t, 20, buf.OnhandAt(p.Current()), 1e-9)
}

func TestFlow_Validation(t *testing.T) {
	p := newTestPlan(t)
	op, err := p.NewFixedTimeOperation("A", time.Hour)
	require.NoError(t, err)
	other, err := p.NewFixedTimeOperation("B", time.Hour)
	require.NoError(t, err)
	buf, err := p.NewBuffer("stock", BufferStandard)
	require.NoError(t, err)

	_, err = NewFlow(nil, buf, 1, FlowEnd)
	require.Error(t, err)

	f1, err := NewFlow(op, buf, 1, FlowEnd)
	require.NoError(t, err)
	require.NoError(t, f1.SetAlternate("feed"))

	// Alternate flows must share the operation.
	f2, err := NewFlow(other, buf, 1, FlowEnd)
	require.NoError(t, err)
	err = f2.SetAlternate("feed")
	require.Error(t, err)
	assert.True(t, IsDataError(err))
}

func TestLoad_SingleSetupPerOperation(t *testing.T) {
	p := newTestPlan(t)
	op, err := p.NewFixedTimeOperation("paint", time.Hour)
	require.NoError(t, err)
	r1, err := p.NewResource("booth 1", ResourceStandard)
	require.NoError(t, err)
	r2, err := p.NewResource("booth 2", ResourceStandard)
	require.NoError(t, err)

	l1, err := NewLoad(op, r1, 1)
	require.NoError(t, err)
	require.NoError(t, l1.SetSetup("red"))

	l2, err := NewLoad(op, r2, 1)
	require.NoError(t, err)
	err = l2.SetSetup("blue")
	require.Error(t, err)
	assert.True(t, IsDataError(err))
}

func TestDemand_DeliveryBookkeeping(t *testing.T) {
	p := newTestPlan(t)
	op, err := p.NewFixedTimeOperation("deliver", time.Hour)
	require.NoError(t, err)
	dmd, err := p.NewDemand("order")
	require.NoError(t, err)
	dmd.SetDue(date(12, 0))
	require.NoError(t, dmd.SetQuantity(10))

	a, err := p.CreateOperationPlan(op, 6, time.Time{}, date(10, 0), dmd, nil, false)
	require.NoError(t, err)
	require.NoError(t, a.Activate())
	b, err := p.CreateOperationPlan(op, 4, time.Time{}, date(14, 0), dmd, nil, false)
	require.NoError(t, err)
	require.NoError(t, b.Activate())

	assert.InDelta(t, 10, dmd.PlannedQuantity(), 1e-9)
	assert.Same(t, a, dmd.EarliestDelivery())
	assert.Same(t, b, dmd.LatestDelivery())

	b.Destroy()
	assert.InDelta(t, 6, dmd.PlannedQuantity(), 1e-9)
}
