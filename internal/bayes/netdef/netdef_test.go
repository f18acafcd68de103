package netdef

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awmpietro/golang-bayes-inference-case/internal/bayes"
)

func loadYAML(t *testing.T, path string) *Definition {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	def, err := Decode(data)
	require.NoError(t, err)
	return def
}

func TestBuild_SprinklerYAMLOrdersParentsFirst(t *testing.T) {
	def := loadYAML(t, "../testdata/sprinkler.yaml")

	n, err := Build(def)
	require.NoError(t, err)
	assert.Equal(t, "sprinkler", n.Name())

	var names []string
	for _, v := range n.Variables() {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"R", "S", "W"}, names)

	p, err := n.JointProbability(bayes.Assignment{"R": "true", "S": "true", "W": "true"})
	require.NoError(t, err)
	assert.InDelta(t, 0.00198, p, 1e-12)

	post, err := bayes.NewEngine().Query(n, "R", bayes.Assignment{"W": "true"})
	require.NoError(t, err)
	assert.InDelta(t, 0.16038/0.44838, post.Prob("true"), 1e-9)
}

func TestBuild_AsiaExprMatchesExplicitTable(t *testing.T) {
	def := loadYAML(t, "../testdata/asia.yaml")
	withExpr, err := Build(def)
	require.NoError(t, err)

	for i := range def.Variables {
		if def.Variables[i].Name != "E" {
			continue
		}
		def.Variables[i].Expr = ""
		def.Variables[i].CPT = []RowDef{
			{Given: []string{"true", "true"}, Probs: []float64{1, 0}},
			{Given: []string{"true", "false"}, Probs: []float64{1, 0}},
			{Given: []string{"false", "true"}, Probs: []float64{1, 0}},
			{Given: []string{"false", "false"}, Probs: []float64{0, 1}},
		}
	}
	explicit, err := Build(def)
	require.NoError(t, err)

	e := bayes.NewEngine()
	a, err := e.Query(withExpr, "D", bayes.Assignment{"X": "true"})
	require.NoError(t, err)
	b, err := e.Query(explicit, "D", bayes.Assignment{"X": "true"})
	require.NoError(t, err)

	if diff := cmp.Diff(b, a); diff != "" {
		t.Fatalf("posterior mismatch (-explicit +expr):\n%s", diff)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name  string
		def   Definition
		check func(t *testing.T, err error)
	}{
		{
			name: "cycle",
			def: Definition{Variables: []VariableDef{
				{Name: "A", Parents: []string{"B"}, CPT: []RowDef{{Given: []string{"true"}, Probs: []float64{1}}}},
				{Name: "B", Parents: []string{"A"}, CPT: []RowDef{{Given: []string{"true"}, Probs: []float64{1}}}},
			}},
			check: func(t *testing.T, err error) {
				var cycle *CycleError
				require.ErrorAs(t, err, &cycle)
				assert.Contains(t, err.Error(), "contains cycle")
				assert.Equal(t, cycle.Path[0], cycle.Path[len(cycle.Path)-1])
			},
		},
		{
			name: "unknown_parent",
			def: Definition{Variables: []VariableDef{
				{Name: "A", Parents: []string{"ghost"}},
			}},
			check: func(t *testing.T, err error) {
				var unknown *bayes.UnknownParentError
				require.ErrorAs(t, err, &unknown)
				assert.Equal(t, "ghost", unknown.Parent)
			},
		},
		{
			name: "duplicate",
			def: Definition{Variables: []VariableDef{
				{Name: "A", CPT: []RowDef{{Probs: []float64{0.5}}}},
				{Name: "A", CPT: []RowDef{{Probs: []float64{0.5}}}},
			}},
			check: func(t *testing.T, err error) {
				var dup *bayes.DuplicateVariableError
				require.ErrorAs(t, err, &dup)
			},
		},
		{
			name: "row_sums_to_point_nine",
			def: Definition{Variables: []VariableDef{
				{Name: "A", CPT: []RowDef{{Probs: []float64{0.5, 0.4}}}},
			}},
			check: func(t *testing.T, err error) {
				var nn *bayes.NonNormalizedDistributionError
				require.ErrorAs(t, err, &nn)
			},
		},
		{
			name: "cpt_and_expr",
			def: Definition{Variables: []VariableDef{
				{Name: "A", Expr: "true", CPT: []RowDef{{Probs: []float64{1}}}},
			}},
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "both cpt and expr")
			},
		},
		{
			name: "missing_cpt",
			def: Definition{Variables: []VariableDef{
				{Name: "A"},
			}},
			check: func(t *testing.T, err error) {
				var missing *bayes.MissingParentCombinationError
				require.ErrorAs(t, err, &missing)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n, err := Build(&tc.def)
			require.Error(t, err)
			assert.Nil(t, n)
			tc.check(t, err)
		})
	}
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	_, err := Decode([]byte("variables:\n  - name: A\n    prob: 0.3\n"))
	require.Error(t, err)

	_, err = Decode([]byte("name: empty\n"))
	assert.ErrorContains(t, err, "no variables")
}

func TestEncode_RoundTripsThroughBuild(t *testing.T) {
	def := loadYAML(t, "../testdata/asia.yaml")
	data, err := Encode(def)
	require.NoError(t, err)

	again, err := Decode(data)
	require.NoError(t, err)
	_, err = Build(again)
	require.NoError(t, err)
}
