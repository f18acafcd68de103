package bayes

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spyQueryObserver struct {
	mu     sync.Mutex
	events []QueryEvent
}

func (s *spyQueryObserver) ObserveQuery(ev QueryEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// chain builds X0 -> X1 -> ... -> X(n-1) with noisy copies.
func chain(t testing.TB, n int) *Network {
	t.Helper()
	b := NewBuilder().SetName("chain")
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("X%d", i)
		if i == 0 {
			require.NoError(t, b.Declare(name, boolDomain, nil))
			require.NoError(t, b.SetCPT(name, Table{{Probs: []float64{0.3}}}))
			continue
		}
		require.NoError(t, b.Declare(name, boolDomain, []string{fmt.Sprintf("X%d", i-1)}))
		require.NoError(t, b.SetCPT(name, Table{
			{Given: []string{"true"}, Probs: []float64{0.9}},
			{Given: []string{"false"}, Probs: []float64{0.2}},
		}))
	}
	net, err := b.Build()
	require.NoError(t, err)
	return net
}

// bruteForce computes P(query | evidence) straight from the joint.
func bruteForce(t *testing.T, n *Network, query string, evidence Assignment) map[string]float64 {
	t.Helper()
	mass := map[string]float64{}
	total := 0.0
	for _, a := range allAssignments(n) {
		match := true
		for k, v := range evidence {
			if a[k] != v {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		p, err := n.JointProbability(a)
		require.NoError(t, err)
		mass[a[query]] += p
		total += p
	}
	for k := range mass {
		mass[k] /= total
	}
	return mass
}

func TestEngine_Query_SprinklerScenario(t *testing.T) {
	n := sprinkler(t)
	e := NewEngine()

	post, err := e.Query(n, "R", Assignment{"W": "true"})
	require.NoError(t, err)
	assert.Equal(t, []string{"true", "false"}, post.Values)
	assert.InDelta(t, 0.16038/0.44838, post.Prob("true"), 1e-9)
	assert.InDelta(t, 0.288/0.44838, post.Prob("false"), 1e-9)
	assert.InDelta(t, 0.3578, post.Prob("true"), 1e-3)

	value, _ := post.MostLikely()
	assert.Equal(t, "false", value)
}

func TestEngine_Query_RootWithoutEvidenceReturnsPrior(t *testing.T) {
	n := sprinkler(t)

	post, err := NewEngine().Query(n, "R", Assignment{})
	require.NoError(t, err)
	assert.Equal(t, 0.2, post.Prob("true"))
	assert.Equal(t, 0.8, post.Prob("false"))
}

func TestEngine_Query_QueryInEvidence(t *testing.T) {
	n := sprinkler(t)

	for _, full := range []bool{false, true} {
		opts := []EngineOption{}
		if full {
			opts = append(opts, WithFullEnumeration())
		}
		_, err := NewEngine(opts...).Query(n, "R", Assignment{"R": "true"})
		var inEvidence *QueryInEvidenceError
		require.ErrorAs(t, err, &inEvidence)
		assert.Equal(t, "R", inEvidence.Variable)
		assert.True(t, IsQueryError(err))
	}
}

func TestEngine_Query_UnknownVariables(t *testing.T) {
	n := sprinkler(t)
	e := NewEngine()

	_, err := e.Query(n, "Q", nil)
	var unknown *UnknownVariableError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Q", unknown.Name)

	_, err = e.Query(n, "R", Assignment{"Z": "true"})
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Z", unknown.Name)

	_, err = e.Query(n, "R", Assignment{"W": "damp"})
	var bad *InvalidValueError
	require.ErrorAs(t, err, &bad)
}

func TestEngine_Query_ZeroEvidenceProbability(t *testing.T) {
	n := asia(t)

	_, trace, err := NewEngine().QueryWithTrace(n, "D", Assignment{"E": "false", "L": "true"})
	var zero *ZeroEvidenceProbabilityError
	require.ErrorAs(t, err, &zero)
	require.NotNil(t, trace)
	assert.Equal(t, TerminatedZeroEvidence, trace.Terminated)

	post, err := NewEngine().Query(n, "D", Assignment{"E": "true"})
	require.NoError(t, err, "network stays usable after a failed query")
	assert.InDelta(t, 1.0, post.Prob("true")+post.Prob("false"), 1e-9)
}

func TestEngine_Query_MatchesBruteForce(t *testing.T) {
	tests := []struct {
		name     string
		net      func(testing.TB) *Network
		query    string
		evidence Assignment
	}{
		{name: "asia_dyspnoea_given_xray", net: asia, query: "D", evidence: Assignment{"X": "true"}},
		{name: "asia_tb_given_xray_and_asia", net: asia, query: "T", evidence: Assignment{"X": "true", "A": "true"}},
		{name: "asia_smoker_given_dyspnoea", net: asia, query: "S", evidence: Assignment{"D": "true"}},
		{name: "asia_lung_no_evidence", net: asia, query: "L", evidence: Assignment{}},
		{name: "sprinkler_sprinkler_given_wet", net: sprinkler, query: "S", evidence: Assignment{"W": "true"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n := tc.net(t)
			want := bruteForce(t, n, tc.query, tc.evidence)

			for _, e := range []*Engine{NewEngine(), NewEngine(WithFullEnumeration())} {
				post, err := e.Query(n, tc.query, tc.evidence)
				require.NoError(t, err)

				sum := 0.0
				for _, v := range post.Values {
					assert.InDelta(t, want[v], post.Prob(v), 1e-12, "value %s", v)
					sum += post.Prob(v)
				}
				assert.InDelta(t, 1.0, sum, 1e-9)
			}
		})
	}
}

func TestEngine_QueryWithTrace_PrunesBarrenVariables(t *testing.T) {
	n := asia(t)

	_, trace, err := NewEngine().QueryWithTrace(n, "T", Assignment{"A": "true"})
	require.NoError(t, err)
	assert.Empty(t, trace.Hidden)
	assert.Equal(t, []string{"S", "L", "B", "E", "X", "D"}, trace.Pruned)
	assert.Equal(t, int64(2), trace.Evaluated)
	assert.InDelta(t, 0.01, trace.EvidenceProbability, 1e-12)

	_, full, err := NewEngine(WithFullEnumeration()).QueryWithTrace(n, "T", Assignment{"A": "true"})
	require.NoError(t, err)
	assert.Empty(t, full.Pruned)
	assert.Len(t, full.Hidden, 6)
	assert.Equal(t, int64(128), full.Evaluated)
	assert.Equal(t, TerminatedOK, full.Terminated)
}

func TestEngine_Query_AssignmentBudget(t *testing.T) {
	n := asia(t)

	_, trace, err := NewEngine(WithMaxAssignments(100)).QueryWithTrace(n, "D", Assignment{"X": "true"})
	var budget *EnumerationBudgetExceededError
	require.ErrorAs(t, err, &budget)
	assert.Equal(t, int64(128), budget.Required)
	assert.Equal(t, int64(0), trace.Evaluated, "budget is checked before enumerating")

	_, err = NewEngine(WithMaxAssignments(128)).Query(n, "D", Assignment{"X": "true"})
	require.NoError(t, err)
}

func TestEngine_Query_TimeBudget(t *testing.T) {
	n := chain(t, 14)

	_, err := NewEngine(WithTimeBudget(time.Nanosecond)).Query(n, "X13", nil)
	var budget *EnumerationBudgetExceededError
	require.ErrorAs(t, err, &budget)
	assert.Equal(t, time.Nanosecond, budget.TimeBudget)
	assert.Less(t, budget.Evaluated, budget.Required)
}

func TestEngine_Query_IsDeterministic(t *testing.T) {
	n := asia(t)
	e := NewEngine(WithFullEnumeration())

	first, err := e.Query(n, "D", Assignment{"X": "true"})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := e.Query(n, "D", Assignment{"X": "true"})
		require.NoError(t, err)
		assert.Equal(t, first.Probs, again.Probs)
	}
}

func TestEngine_Query_ConcurrentCallers(t *testing.T) {
	n := asia(t)
	e := NewEngine()
	want, err := e.Query(n, "D", Assignment{"X": "true"})
	require.NoError(t, err)

	const workers = 32
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Query(n, "D", Assignment{"X": "true"})
			if err != nil {
				errs <- err
				return
			}
			if got.Probs[0] != want.Probs[0] || got.Probs[1] != want.Probs[1] {
				errs <- fmt.Errorf("posterior differs: %v vs %v", got.Probs, want.Probs)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestEngine_Query_ObservesEachQuery(t *testing.T) {
	n := sprinkler(t)
	spy := &spyQueryObserver{}
	e := NewEngine(WithQueryObserver(spy))

	_, err := e.Query(n, "R", Assignment{"W": "true"})
	require.NoError(t, err)
	_, err = e.Query(n, "R", Assignment{"R": "true"})
	require.Error(t, err)

	require.Len(t, spy.events, 2)
	assert.Equal(t, "sprinkler", spy.events[0].Network)
	assert.Equal(t, int64(4), spy.events[0].Assignments)
	assert.NoError(t, spy.events[0].Err)
	assert.Error(t, spy.events[1].Err)
}

func TestBuilder_Build_RequiresEveryCPT(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Declare("A", boolDomain, nil))
	require.NoError(t, b.Declare("B", boolDomain, []string{"A"}))
	require.NoError(t, b.SetCPT("A", Table{{Probs: []float64{0.5}}}))

	n, err := b.Build()
	var noCPT *MissingCPTError
	require.ErrorAs(t, err, &noCPT)
	assert.Equal(t, "B", noCPT.Variable)
	assert.Nil(t, n)
}

func TestBuilder_Build_SnapshotIsIndependent(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Declare("A", boolDomain, nil))
	require.NoError(t, b.SetCPT("A", Table{{Probs: []float64{0.5}}}))
	n, err := b.Build()
	require.NoError(t, err)

	require.NoError(t, b.SetCPT("A", Table{{Probs: []float64{0.9}}}))
	require.NoError(t, b.Declare("B", boolDomain, []string{"A"}))

	assert.Equal(t, 1, n.Len())
	p, err := n.Probability("A", "true", nil)
	require.NoError(t, err)
	assert.Equal(t, 0.5, p)
}

func TestNetwork_Ancestors(t *testing.T) {
	n := asia(t)

	got, err := n.Ancestors("D")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "S", "T", "L", "B", "E"}, got)

	got, err = n.Ancestors("T", "L")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "S"}, got)

	_, err = n.Ancestors("nope")
	require.Error(t, err)
}
