package bayes

import (
	"slices"
	"strings"
)

// Variable is a discrete random variable. Domain order is significant: it
// fixes CPT column order and the order of posterior values.
type Variable struct {
	Name    string   `json:"name"`
	Domain  []string `json:"domain"`
	Parents []string `json:"parents,omitempty"`
}

func (v Variable) clone() Variable {
	return Variable{
		Name:    v.Name,
		Domain:  slices.Clone(v.Domain),
		Parents: slices.Clone(v.Parents),
	}
}

func (v Variable) valueIndex(value string) int {
	return slices.Index(v.Domain, value)
}

// Assignment maps variable names to domain values. Evidence is a partial
// assignment; a full assignment covers every variable of a network.
type Assignment map[string]string

// String renders the assignment with sorted keys so error messages are stable.
func (a Assignment) String() string {
	keys := sortedKeys(a)
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(a[k])
	}
	b.WriteByte('}')
	return b.String()
}

func (a Assignment) Clone() Assignment {
	n := make(Assignment, len(a))
	for k, v := range a {
		n[k] = v
	}
	return n
}

// Posterior is a normalized distribution over the query variable's domain,
// in domain order.
type Posterior struct {
	Variable string    `json:"variable"`
	Values   []string  `json:"values"`
	Probs    []float64 `json:"probs"`
}

func (p *Posterior) Map() map[string]float64 {
	out := make(map[string]float64, len(p.Values))
	for i, v := range p.Values {
		out[v] = p.Probs[i]
	}
	return out
}

// Prob returns the posterior probability of value, or 0 when value is not in
// the domain.
func (p *Posterior) Prob(value string) float64 {
	i := slices.Index(p.Values, value)
	if i < 0 {
		return 0
	}
	return p.Probs[i]
}

// MostLikely returns the value with the highest probability. Ties go to the
// value declared first.
func (p *Posterior) MostLikely() (string, float64) {
	best := -1
	for i, pr := range p.Probs {
		if best < 0 || pr > p.Probs[best] {
			best = i
		}
	}
	if best < 0 {
		return "", 0
	}
	return p.Values[best], p.Probs[best]
}
