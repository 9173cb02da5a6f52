package planning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupMatrix_DuplicatePriorityRejected(t *testing.T) {
	m := NewSetupMatrix("changeovers")
	_, err := m.AddRule(10)
	require.NoError(t, err)

	_, err = m.AddRule(10)
	require.Error(t, err)
	assert.True(t, IsDataError(err))
}

func TestSetupMatrix_RulesSortedByPriority(t *testing.T) {
	m := NewSetupMatrix("changeovers")
	_, err := m.AddRule(20)
	require.NoError(t, err)
	_, err = m.AddRule(5)
	require.NoError(t, err)
	_, err = m.AddRule(10)
	require.NoError(t, err)

	var prios []int
	for _, r := range m.Rules() {
		prios = append(prios, r.Priority())
	}
	assert.Equal(t, []int{5, 10, 20}, prios)
}

func TestSetupMatrix_CalculateSetup(t *testing.T) {
	m := NewSetupMatrix("changeovers")
	specific, err := m.AddRule(1)
	require.NoError(t, err)
	specific.SetFromSetup("green")
	specific.SetToSetup("blue")
	require.NoError(t, specific.SetDuration(2*time.Hour))

	catchAll, err := m.AddRule(100)
	require.NoError(t, err)
	catchAll.SetFromSetup("*")
	catchAll.SetToSetup("*")
	require.NoError(t, catchAll.SetDuration(8*time.Hour))

	// No conversion needed when the setups are equal.
	assert.Nil(t, m.CalculateSetup("green", "green"))

	// The lowest priority number matching both patterns wins.
	assert.Same(t, specific, m.CalculateSetup("green", "blue"))
	assert.Same(t, catchAll, m.CalculateSetup("blue", "green"))
}

func TestSetupMatrix_WildcardPatterns(t *testing.T) {
	assert.True(t, matchWildcard("*", "anything"))
	assert.True(t, matchWildcard("col?r", "color"))
	assert.False(t, matchWildcard("col?r", "colour"))
	assert.True(t, matchWildcard("c*r", "changeover"))
	assert.False(t, matchWildcard("c*x", "changeover"))
	assert.True(t, matchWildcard("a*b*c", "a1b2c"))
	assert.False(t, matchWildcard("abc", "abcd"))
	assert.True(t, matchWildcard("abc*", "abcd"))
}

func TestSetupMatrix_UndefinedConversion(t *testing.T) {
	m := NewSetupMatrix("changeovers")
	r, err := m.AddRule(1)
	require.NoError(t, err)
	r.SetFromSetup("red")
	r.SetToSetup("blue")

	assert.Nil(t, m.CalculateSetup("yellow", "purple"))
}

func TestSetupMatrix_RemoveAndFind(t *testing.T) {
	m := NewSetupMatrix("changeovers")
	r, err := m.AddRule(3)
	require.NoError(t, err)

	assert.Same(t, r, m.FindRule(3))
	m.RemoveRule(r)
	assert.Nil(t, m.FindRule(3))
}
