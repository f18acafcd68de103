package bayes

import (
	"maps"
	"slices"
)

// Builder assembles a Network from declare and set-cpt calls. Each call
// fails fast; Build never returns a partial network.
type Builder struct {
	name string
	reg  *Registry
	cpts *CPTStore
}

func NewBuilder() *Builder {
	reg := NewRegistry()
	return &Builder{reg: reg, cpts: NewCPTStore(reg)}
}

func (b *Builder) SetName(name string) *Builder {
	b.name = name
	return b
}

func (b *Builder) Declare(name string, domain []string, parents []string) error {
	return b.reg.Declare(name, domain, parents)
}

func (b *Builder) SetCPT(variable string, table Table) error {
	return b.cpts.SetCPT(variable, table)
}

// Build snapshots the builder into an immutable Network. The builder stays
// usable; later calls do not affect networks already built.
func (b *Builder) Build() (*Network, error) {
	for i, v := range b.reg.vars {
		if !b.cpts.has(i) {
			return nil, &MissingCPTError{Variable: v.Name}
		}
	}

	reg := &Registry{
		vars:  make([]Variable, len(b.reg.vars)),
		index: maps.Clone(b.reg.index),
	}
	for i, v := range b.reg.vars {
		reg.vars[i] = v.clone()
	}
	cpts := &CPTStore{reg: reg, entries: maps.Clone(b.cpts.entries)}

	n := &Network{
		name:    b.name,
		reg:     reg,
		cpts:    cpts,
		entries: make([]*cptEntry, len(reg.vars)),
	}
	for i := range reg.vars {
		n.entries[i] = cpts.entries[i]
	}
	return n, nil
}

// Network is an immutable Bayesian network: variables in topological order
// plus one CPT per variable. It is safe for concurrent queries.
type Network struct {
	name    string
	reg     *Registry
	cpts    *CPTStore
	entries []*cptEntry
}

func (n *Network) Name() string { return n.name }

func (n *Network) Len() int { return n.reg.Len() }

// Variables returns the network's variables in topological order.
func (n *Network) Variables() []Variable { return n.reg.TopologicalOrder() }

func (n *Network) Variable(name string) (Variable, bool) { return n.reg.Variable(name) }

func (n *Network) Probability(variable, value string, parentAssignment Assignment) (float64, error) {
	return n.cpts.Probability(variable, value, parentAssignment)
}

// Ancestors returns every proper ancestor of the named variables, in
// topological order.
func (n *Network) Ancestors(names ...string) ([]string, error) {
	idx := make([]int, 0, len(names))
	for _, name := range names {
		i, _, ok := n.reg.lookup(name)
		if !ok {
			return nil, &UnknownVariableError{Name: name}
		}
		idx = append(idx, i)
	}
	marked := n.ancestorSet(idx)
	for _, i := range idx {
		marked[i] = false
	}

	out := make([]string, 0)
	for i, v := range n.reg.vars {
		if marked[i] {
			out = append(out, v.Name)
		}
	}
	return out, nil
}

// ancestorSet marks the given variables and all of their ancestors. Since
// parents always precede children, one backwards sweep is enough.
func (n *Network) ancestorSet(idx []int) []bool {
	marked := make([]bool, len(n.reg.vars))
	for _, i := range idx {
		marked[i] = true
	}
	for i := len(n.reg.vars) - 1; i >= 0; i-- {
		if !marked[i] {
			continue
		}
		for _, p := range n.entries[i].parents {
			marked[p] = true
		}
	}
	return marked
}

func (n *Network) domainSize(i int) int { return len(n.reg.vars[i].Domain) }

func (n *Network) names(idx []int) []string {
	out := make([]string, len(idx))
	for i, vi := range idx {
		out[i] = n.reg.vars[vi].Name
	}
	return slices.Clip(out)
}
