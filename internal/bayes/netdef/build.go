package netdef

import (
	"fmt"
	"strings"

	"github.com/awmpietro/golang-bayes-inference-case/internal/bayes"
	"github.com/awmpietro/golang-bayes-inference-case/internal/bayes/eval"
)

// CycleError reports a parent cycle in a definition. Path starts and ends
// with the same variable.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("network contains cycle: %s", strings.Join(e.Path, " -> "))
}

// Build declares the definition's variables parents-first and attaches their
// tables. Variables may appear in any order in the definition; ties keep
// definition order so the resulting topological order is stable.
func Build(def *Definition) (*bayes.Network, error) {
	if def == nil {
		return nil, fmt.Errorf("definition is nil")
	}

	ordered, err := Order(def.Variables)
	if err != nil {
		return nil, err
	}

	b := bayes.NewBuilder().SetName(def.Name)
	declared := make(map[string]bayes.Variable, len(ordered))

	for _, v := range ordered {
		if err := b.Declare(v.Name, v.domain(), v.Parents); err != nil {
			return nil, err
		}
		declared[v.Name] = bayes.Variable{Name: v.Name, Domain: v.domain(), Parents: v.Parents}

		table, err := tableOf(v, declared)
		if err != nil {
			return nil, err
		}
		if err := b.SetCPT(v.Name, table); err != nil {
			return nil, err
		}
	}

	return b.Build()
}

func tableOf(v VariableDef, declared map[string]bayes.Variable) (bayes.Table, error) {
	expression := strings.TrimSpace(v.Expr)
	switch {
	case expression != "" && len(v.CPT) > 0:
		return nil, fmt.Errorf("variable %q sets both cpt and expr", v.Name)
	case expression != "":
		parents := make([]bayes.Variable, len(v.Parents))
		for i, p := range v.Parents {
			parents[i] = declared[p]
		}
		return eval.DeterministicTable(v.Name, expression, v.domain(), parents)
	}

	table := make(bayes.Table, len(v.CPT))
	for i, r := range v.CPT {
		table[i] = bayes.Row{Given: r.Given, Probs: r.Probs}
	}
	return table, nil
}

// Order sorts variables so every parent precedes its children (Kahn's
// algorithm, always taking the earliest ready variable). Parents that are
// not defined are left for the registry to report.
func Order(vars []VariableDef) ([]VariableDef, error) {
	pos := make(map[string]int, len(vars))
	for i, v := range vars {
		if _, dup := pos[v.Name]; dup {
			return nil, &bayes.DuplicateVariableError{Name: v.Name}
		}
		pos[v.Name] = i
	}

	pending := make([]int, len(vars))
	children := make([][]int, len(vars))
	for i, v := range vars {
		for _, p := range v.Parents {
			if pi, ok := pos[p]; ok {
				pending[i]++
				children[pi] = append(children[pi], i)
			}
		}
	}

	done := make([]bool, len(vars))
	out := make([]VariableDef, 0, len(vars))
	for len(out) < len(vars) {
		next := -1
		for i := range vars {
			if !done[i] && pending[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, &CycleError{Path: findCycle(vars, pos, done)}
		}
		done[next] = true
		out = append(out, vars[next])
		for _, c := range children[next] {
			pending[c]--
		}
	}
	return out, nil
}

// findCycle walks parent links from the first unplaced variable until a
// variable repeats.
func findCycle(vars []VariableDef, pos map[string]int, done []bool) []string {
	start := -1
	for i := range vars {
		if !done[i] {
			start = i
			break
		}
	}

	seenAt := map[int]int{}
	var path []int
	cur := start
	for {
		if at, ok := seenAt[cur]; ok {
			cycle := path[at:]
			names := make([]string, 0, len(cycle)+1)
			for i := len(cycle) - 1; i >= 0; i-- {
				names = append(names, vars[cycle[i]].Name)
			}
			return append(names, names[0])
		}
		seenAt[cur] = len(path)
		path = append(path, cur)

		nextIdx := -1
		for _, p := range vars[cur].Parents {
			if pi, ok := pos[p]; ok && !done[pi] {
				nextIdx = pi
				break
			}
		}
		if nextIdx < 0 {
			return []string{vars[start].Name}
		}
		cur = nextIdx
	}
}
