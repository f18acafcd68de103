package bayes

import (
	"slices"
	"strings"
)

// Registry holds declared variables in declaration order. A parent must be
// declared before its children, so the declaration order is always a valid
// topological order and the graph cannot contain a cycle.
type Registry struct {
	vars  []Variable
	index map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: map[string]int{}}
}

func (r *Registry) Declare(name string, domain []string, parents []string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &InvalidDomainError{Variable: name, Reason: "empty name"}
	}
	if _, ok := r.index[name]; ok {
		return &DuplicateVariableError{Name: name}
	}
	if len(domain) == 0 {
		return &InvalidDomainError{Variable: name, Reason: "empty domain"}
	}

	seen := make(map[string]struct{}, len(domain))
	for _, v := range domain {
		if _, dup := seen[v]; dup {
			return &InvalidDomainError{Variable: name, Reason: "repeated value " + quote(v)}
		}
		seen[v] = struct{}{}
	}

	seenParents := make(map[string]struct{}, len(parents))
	for _, p := range parents {
		if _, ok := r.index[p]; !ok {
			return &UnknownParentError{Variable: name, Parent: p}
		}
		if _, dup := seenParents[p]; dup {
			return &InvalidDomainError{Variable: name, Reason: "repeated parent " + quote(p)}
		}
		seenParents[p] = struct{}{}
	}

	r.index[name] = len(r.vars)
	r.vars = append(r.vars, Variable{
		Name:    name,
		Domain:  slices.Clone(domain),
		Parents: slices.Clone(parents),
	})
	return nil
}

// TopologicalOrder returns a copy of the declared variables, parents first.
func (r *Registry) TopologicalOrder() []Variable {
	out := make([]Variable, len(r.vars))
	for i, v := range r.vars {
		out[i] = v.clone()
	}
	return out
}

func (r *Registry) Variable(name string) (Variable, bool) {
	i, ok := r.index[name]
	if !ok {
		return Variable{}, false
	}
	return r.vars[i].clone(), true
}

func (r *Registry) Len() int { return len(r.vars) }

func (r *Registry) lookup(name string) (int, *Variable, bool) {
	i, ok := r.index[name]
	if !ok {
		return -1, nil, false
	}
	return i, &r.vars[i], true
}

func quote(s string) string {
	return `"` + s + `"`
}
