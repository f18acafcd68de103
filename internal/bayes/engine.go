package bayes

import (
	"fmt"
	"math"
	"time"
)

// timeCheckInterval is how many assignments are evaluated between wall-clock
// checks when a time budget is set.
const timeCheckInterval = 1024

// Engine answers posterior queries by enumeration: it sums the joint
// probability over every assignment of the hidden variables, per query value,
// then normalizes. Cost is exponential in the number of hidden variables.
type Engine struct {
	maxAssignments int64
	timeBudget     time.Duration
	fullEnum       bool
	observer       QueryObserver
}

type EngineOption func(*Engine)

// WithMaxAssignments rejects queries that would evaluate more than n full
// assignments. Zero means unlimited.
func WithMaxAssignments(n int64) EngineOption {
	return func(e *Engine) {
		e.maxAssignments = n
	}
}

// WithTimeBudget aborts enumeration once d has elapsed. Zero means unlimited.
func WithTimeBudget(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.timeBudget = d
	}
}

func WithQueryObserver(observer QueryObserver) EngineOption {
	return func(e *Engine) {
		e.observer = observer
	}
}

// WithFullEnumeration disables barren-variable pruning so every hidden
// variable is enumerated, including those that cannot influence the query.
func WithFullEnumeration() EngineOption {
	return func(e *Engine) {
		e.fullEnum = true
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Query(n *Network, query string, evidence Assignment) (*Posterior, error) {
	post, _, err := e.run(n, query, evidence)
	return post, err
}

// QueryWithTrace is Query plus a trace of the enumeration. The trace is
// returned on error whenever the query got far enough to produce one.
func (e *Engine) QueryWithTrace(n *Network, query string, evidence Assignment) (*Posterior, *QueryTrace, error) {
	return e.run(n, query, evidence)
}

func (e *Engine) run(n *Network, query string, evidence Assignment) (post *Posterior, trace *QueryTrace, err error) {
	start := time.Now()
	if n == nil {
		return nil, nil, fmt.Errorf("network is nil")
	}

	trace = &QueryTrace{
		Network:    n.name,
		Query:      query,
		Evidence:   evidence.Clone(),
		Terminated: TerminatedInvalid,
	}
	defer func() {
		trace.DurationMicros = time.Since(start).Microseconds()
		e.observe(QueryEvent{
			Network:     n.name,
			Query:       query,
			Evidence:    len(evidence),
			Assignments: trace.Evaluated,
			Duration:    time.Since(start),
			Err:         err,
		})
	}()

	qi, qv, ok := n.reg.lookup(query)
	if !ok {
		return nil, trace, &UnknownVariableError{Name: query}
	}
	if _, ok := evidence[query]; ok {
		return nil, trace, &QueryInEvidenceError{Variable: query}
	}

	values := make([]int, n.Len())
	fixed := make([]bool, n.Len())
	fixed[qi] = true
	targets := []int{qi}
	for _, name := range sortedKeys(evidence) {
		i, v, ok := n.reg.lookup(name)
		if !ok {
			return nil, trace, &UnknownVariableError{Name: name}
		}
		xi := v.valueIndex(evidence[name])
		if xi < 0 {
			return nil, trace, &InvalidValueError{Variable: name, Value: evidence[name], Domain: v.Domain}
		}
		values[i] = xi
		fixed[i] = true
		targets = append(targets, i)
	}

	var relevant []bool
	if e.fullEnum {
		relevant = make([]bool, n.Len())
		for i := range relevant {
			relevant[i] = true
		}
	} else {
		relevant = n.ancestorSet(targets)
	}

	var hidden, pruned, order []int
	for i := range n.reg.vars {
		switch {
		case relevant[i]:
			order = append(order, i)
			if !fixed[i] {
				hidden = append(hidden, i)
			}
		case !fixed[i]:
			pruned = append(pruned, i)
		}
	}
	trace.Hidden = n.names(hidden)
	trace.Pruned = n.names(pruned)

	required := int64(len(qv.Domain))
	for _, h := range hidden {
		required = mulSaturating(required, int64(n.domainSize(h)))
	}
	trace.Required = required
	if e.maxAssignments > 0 && required > e.maxAssignments {
		trace.Terminated = TerminatedBudgetExceeded
		return nil, trace, &EnumerationBudgetExceededError{Query: query, Required: required, MaxAssignments: e.maxAssignments}
	}

	mass := make([]float64, len(qv.Domain))
	for x := range qv.Domain {
		values[qi] = x
		for _, h := range hidden {
			values[h] = 0
		}

		for {
			mass[x] += n.joint(values, order)
			trace.Evaluated++

			if e.timeBudget > 0 && trace.Evaluated%timeCheckInterval == 0 && time.Since(start) > e.timeBudget {
				trace.Terminated = TerminatedBudgetExceeded
				return nil, trace, &EnumerationBudgetExceededError{
					Query:      query,
					Required:   required,
					TimeBudget: e.timeBudget,
					Evaluated:  trace.Evaluated,
				}
			}

			if !advance(values, hidden, n) {
				break
			}
		}
	}

	total := 0.0
	trace.Mass = make([]ValueMass, len(mass))
	for i, m := range mass {
		total += m
		trace.Mass[i] = ValueMass{Value: qv.Domain[i], Mass: m}
	}
	trace.EvidenceProbability = total
	if total == 0 {
		trace.Terminated = TerminatedZeroEvidence
		return nil, trace, &ZeroEvidenceProbabilityError{Query: query, Evidence: evidence.Clone()}
	}

	post = &Posterior{
		Variable: query,
		Values:   append([]string(nil), qv.Domain...),
		Probs:    make([]float64, len(mass)),
	}
	for i, m := range mass {
		post.Probs[i] = m / total
	}
	trace.Terminated = TerminatedOK
	return post, trace, nil
}

// advance steps the hidden variables like an odometer, last variable
// fastest. It reports false once every combination has been visited.
func advance(values []int, hidden []int, n *Network) bool {
	for k := len(hidden) - 1; k >= 0; k-- {
		h := hidden[k]
		values[h]++
		if values[h] < n.domainSize(h) {
			return true
		}
		values[h] = 0
	}
	return false
}

func mulSaturating(a, b int64) int64 {
	if a != 0 && b > math.MaxInt64/a {
		return math.MaxInt64
	}
	return a * b
}

func (e *Engine) observe(ev QueryEvent) {
	if e.observer == nil {
		return
	}
	e.observer.ObserveQuery(ev)
}
