package eval

import (
	"fmt"
	"slices"

	"github.com/expr-lang/expr"

	"github.com/awmpietro/golang-bayes-inference-case/internal/bayes"
)

// DeterministicTable expands expression into a CPT for variable name: for
// every combination of parent values the expression's result gets
// probability 1 and every other domain value 0. Parents are bound by name to
// ParseLiteral of their values.
func DeterministicTable(name, expression string, domain []string, parents []bayes.Variable) (bayes.Table, error) {
	idents, err := Identifiers(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid expr of %q: %w", name, err)
	}

	var unknown []string
	for _, id := range idents {
		if !slices.ContainsFunc(parents, func(p bayes.Variable) bool { return p.Name == id }) {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("invalid expr of %q: %w", name, &UnknownIdentifiersError{Vars: unknown})
	}

	program, err := expr.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid expr of %q: %w", name, err)
	}

	total := 1
	for _, p := range parents {
		total *= len(p.Domain)
	}

	table := make(bayes.Table, 0, total)
	pos := make([]int, len(parents))
	env := make(map[string]any, len(parents))
	for {
		given := make([]string, len(parents))
		for i, p := range parents {
			given[i] = p.Domain[pos[i]]
			env[p.Name] = ParseLiteral(given[i])
		}

		out, err := expr.Run(program, env)
		if err != nil {
			return nil, fmt.Errorf("expr of %q failed for %v: %w", name, given, err)
		}
		value, err := FormatValue(out)
		if err != nil {
			return nil, fmt.Errorf("expr of %q for %v: %w", name, given, err)
		}
		xi := slices.Index(domain, value)
		if xi < 0 {
			return nil, &bayes.InvalidValueError{Variable: name, Value: value, Domain: domain}
		}

		probs := make([]float64, len(domain))
		probs[xi] = 1
		table = append(table, bayes.Row{Given: given, Probs: probs})

		if !next(pos, parents) {
			return table, nil
		}
	}
}

func next(pos []int, parents []bayes.Variable) bool {
	for k := len(pos) - 1; k >= 0; k-- {
		pos[k]++
		if pos[k] < len(parents[k].Domain) {
			return true
		}
		pos[k] = 0
	}
	return false
}
