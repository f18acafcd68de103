package bayes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var boolDomain = []string{"true", "false"}

// sprinkler: Rain -> Sprinkler, {Sprinkler, Rain} -> WetGrass.
func sprinkler(t testing.TB) *Network {
	t.Helper()

	b := NewBuilder().SetName("sprinkler")
	require.NoError(t, b.Declare("R", boolDomain, nil))
	require.NoError(t, b.Declare("S", boolDomain, []string{"R"}))
	require.NoError(t, b.Declare("W", boolDomain, []string{"S", "R"}))

	require.NoError(t, b.SetCPT("R", Table{{Probs: []float64{0.2}}}))
	require.NoError(t, b.SetCPT("S", Table{
		{Given: []string{"true"}, Probs: []float64{0.01}},
		{Given: []string{"false"}, Probs: []float64{0.4}},
	}))
	require.NoError(t, b.SetCPT("W", Table{
		{Given: []string{"true", "true"}, Probs: []float64{0.99}},
		{Given: []string{"true", "false"}, Probs: []float64{0.9}},
		{Given: []string{"false", "true"}, Probs: []float64{0.8}},
		{Given: []string{"false", "false"}, Probs: []float64{0.0}},
	}))

	n, err := b.Build()
	require.NoError(t, err)
	return n
}

// asia is the chest-clinic network with E a deterministic OR of L and T.
func asia(t testing.TB) *Network {
	t.Helper()

	b := NewBuilder().SetName("asia")
	decl := []struct {
		name    string
		parents []string
		table   Table
	}{
		{"A", nil, Table{{Probs: []float64{0.01}}}},
		{"S", nil, Table{{Probs: []float64{0.5}}}},
		{"T", []string{"A"}, Table{
			{Given: []string{"true"}, Probs: []float64{0.05}},
			{Given: []string{"false"}, Probs: []float64{0.01}},
		}},
		{"L", []string{"S"}, Table{
			{Given: []string{"true"}, Probs: []float64{0.1}},
			{Given: []string{"false"}, Probs: []float64{0.01}},
		}},
		{"B", []string{"S"}, Table{
			{Given: []string{"true"}, Probs: []float64{0.6}},
			{Given: []string{"false"}, Probs: []float64{0.3}},
		}},
		{"E", []string{"L", "T"}, Table{
			{Given: []string{"true", "true"}, Probs: []float64{1}},
			{Given: []string{"true", "false"}, Probs: []float64{1}},
			{Given: []string{"false", "true"}, Probs: []float64{1}},
			{Given: []string{"false", "false"}, Probs: []float64{0}},
		}},
		{"X", []string{"E"}, Table{
			{Given: []string{"true"}, Probs: []float64{0.98}},
			{Given: []string{"false"}, Probs: []float64{0.05}},
		}},
		{"D", []string{"E", "B"}, Table{
			{Given: []string{"true", "true"}, Probs: []float64{0.9}},
			{Given: []string{"true", "false"}, Probs: []float64{0.7}},
			{Given: []string{"false", "true"}, Probs: []float64{0.8}},
			{Given: []string{"false", "false"}, Probs: []float64{0.1}},
		}},
	}
	for _, d := range decl {
		require.NoError(t, b.Declare(d.name, boolDomain, d.parents))
		require.NoError(t, b.SetCPT(d.name, d.table))
	}

	n, err := b.Build()
	require.NoError(t, err)
	return n
}

// allAssignments lists every full assignment of n.
func allAssignments(n *Network) []Assignment {
	out := []Assignment{{}}
	for _, v := range n.Variables() {
		next := make([]Assignment, 0, len(out)*len(v.Domain))
		for _, a := range out {
			for _, val := range v.Domain {
				c := a.Clone()
				c[v.Name] = val
				next = append(next, c)
			}
		}
		out = next
	}
	return out
}
