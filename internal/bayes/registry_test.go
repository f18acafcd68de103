package bayes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Declare_DuplicateVariable(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Declare("A", boolDomain, nil))

	err := r.Declare("A", boolDomain, nil)
	var dup *DuplicateVariableError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "A", dup.Name)
}

func TestRegistry_Declare_UnknownParent(t *testing.T) {
	r := NewRegistry()

	err := r.Declare("B", boolDomain, []string{"A"})
	var unknown *UnknownParentError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "B", unknown.Variable)
	assert.Equal(t, "A", unknown.Parent)
	assert.Equal(t, 0, r.Len(), "failed declaration must not register")
}

func TestRegistry_Declare_InvalidDomains(t *testing.T) {
	tests := []struct {
		name    string
		varName string
		domain  []string
		parents []string
	}{
		{name: "empty_name", varName: " ", domain: boolDomain},
		{name: "empty_domain", varName: "X", domain: nil},
		{name: "repeated_value", varName: "X", domain: []string{"a", "b", "a"}},
		{name: "repeated_parent", varName: "X", domain: boolDomain, parents: []string{"A", "A"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRegistry()
			require.NoError(t, r.Declare("A", boolDomain, nil))

			err := r.Declare(tc.varName, tc.domain, tc.parents)
			var invalid *InvalidDomainError
			require.ErrorAs(t, err, &invalid)
			assert.True(t, IsStructural(err))
		})
	}
}

func TestRegistry_TopologicalOrder_IsDeclarationOrderAndACopy(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Declare("A", boolDomain, nil))
	require.NoError(t, r.Declare("B", []string{"lo", "mid", "hi"}, []string{"A"}))
	require.NoError(t, r.Declare("C", boolDomain, []string{"A", "B"}))

	order := r.TopologicalOrder()
	require.Len(t, order, 3)
	assert.Equal(t, "A", order[0].Name)
	assert.Equal(t, "B", order[1].Name)
	assert.Equal(t, []string{"A", "B"}, order[2].Parents)

	order[1].Domain[0] = "mutated"
	v, ok := r.Variable("B")
	require.True(t, ok)
	assert.Equal(t, "lo", v.Domain[0])
}
