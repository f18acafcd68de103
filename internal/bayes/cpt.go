package bayes

import (
	"fmt"
	"math"
)

// NormalizationTolerance bounds how far a CPT row may sum away from 1.
const NormalizationTolerance = 1e-9

// Row is one line of a conditional probability table. Given holds parent
// values in the variable's parent order. Probs holds one probability per
// domain value, or one fewer with the last implied as the complement.
type Row struct {
	Given []string  `json:"given,omitempty" yaml:"given,omitempty"`
	Probs []float64 `json:"probs" yaml:"probs"`
}

type Table []Row

// cptEntry stores rows densely, indexed by the mixed-radix number formed by
// the parent value indices (first parent most significant).
type cptEntry struct {
	parents []int
	strides []int
	rows    [][]float64
}

func (c *cptEntry) rowIndex(values []int) int {
	idx := 0
	for i, p := range c.parents {
		idx += values[p] * c.strides[i]
	}
	return idx
}

type CPTStore struct {
	reg     *Registry
	entries map[int]*cptEntry
}

func NewCPTStore(reg *Registry) *CPTStore {
	return &CPTStore{reg: reg, entries: map[int]*cptEntry{}}
}

func (s *CPTStore) SetCPT(variable string, table Table) error {
	vi, v, ok := s.reg.lookup(variable)
	if !ok {
		return &UnknownVariableError{Name: variable}
	}

	parents := make([]*Variable, len(v.Parents))
	entry := &cptEntry{
		parents: make([]int, len(v.Parents)),
		strides: make([]int, len(v.Parents)),
	}
	total := 1
	for i := len(v.Parents) - 1; i >= 0; i-- {
		pi, pv, _ := s.reg.lookup(v.Parents[i])
		parents[i] = pv
		entry.parents[i] = pi
		entry.strides[i] = total
		total *= len(pv.Domain)
	}
	entry.rows = make([][]float64, total)

	for _, row := range table {
		if len(row.Given) != len(parents) {
			return &InvalidDomainError{
				Variable: v.Name,
				Reason:   fmt.Sprintf("cpt row has %d parent values, want %d", len(row.Given), len(parents)),
			}
		}

		idx := 0
		for i, val := range row.Given {
			xi := parents[i].valueIndex(val)
			if xi < 0 {
				return &InvalidValueError{Variable: parents[i].Name, Value: val, Domain: parents[i].Domain}
			}
			idx += xi * entry.strides[i]
		}
		if entry.rows[idx] != nil {
			return &DuplicateParentCombinationError{Variable: v.Name, Given: givenAssignment(v, row.Given)}
		}

		probs, err := completeRow(v, row)
		if err != nil {
			return err
		}
		entry.rows[idx] = probs
	}

	for idx, probs := range entry.rows {
		if probs == nil {
			return &MissingParentCombinationError{Variable: v.Name, Given: givenAssignment(v, decodeRow(parents, entry.strides, idx))}
		}
	}

	s.entries[vi] = entry
	return nil
}

func completeRow(v *Variable, row Row) ([]float64, error) {
	n := len(v.Domain)
	probs := make([]float64, n)

	switch {
	case len(row.Probs) == n:
		copy(probs, row.Probs)
	case len(row.Probs) == n-1 && n > 1:
		copy(probs, row.Probs)
		rest := 1.0
		for _, p := range row.Probs {
			rest -= p
		}
		if rest < -NormalizationTolerance {
			return nil, &NonNormalizedDistributionError{Variable: v.Name, Given: givenAssignment(v, row.Given), Sum: 1 - rest}
		}
		probs[n-1] = math.Max(rest, 0)
	default:
		return nil, &InvalidDomainError{
			Variable: v.Name,
			Reason:   fmt.Sprintf("cpt row has %d probabilities, want %d", len(row.Probs), n),
		}
	}

	sum := 0.0
	for _, p := range probs {
		if p < 0 || p > 1 || math.IsNaN(p) {
			return nil, &NonNormalizedDistributionError{Variable: v.Name, Given: givenAssignment(v, row.Given), Sum: p}
		}
		sum += p
	}
	if math.Abs(sum-1) > NormalizationTolerance {
		return nil, &NonNormalizedDistributionError{Variable: v.Name, Given: givenAssignment(v, row.Given), Sum: sum}
	}
	return probs, nil
}

// Probability returns P(variable = value | parents = parentAssignment).
// Entries of parentAssignment that are not parents of variable are ignored.
func (s *CPTStore) Probability(variable, value string, parentAssignment Assignment) (float64, error) {
	vi, v, ok := s.reg.lookup(variable)
	if !ok {
		return 0, &UnknownVariableError{Name: variable}
	}
	xi := v.valueIndex(value)
	if xi < 0 {
		return 0, &InvalidValueError{Variable: v.Name, Value: value, Domain: v.Domain}
	}
	entry, ok := s.entries[vi]
	if !ok {
		return 0, &MissingCPTError{Variable: v.Name}
	}

	var missing []string
	idx := 0
	for i, p := range v.Parents {
		pv, ok := parentAssignment[p]
		if !ok {
			missing = append(missing, p)
			continue
		}
		parent := &s.reg.vars[entry.parents[i]]
		pi := parent.valueIndex(pv)
		if pi < 0 {
			return 0, &InvalidValueError{Variable: p, Value: pv, Domain: parent.Domain}
		}
		idx += pi * entry.strides[i]
	}
	if len(missing) > 0 {
		return 0, &IncompleteEvidenceError{Variable: v.Name, Missing: missing}
	}
	return entry.rows[idx][xi], nil
}

func (s *CPTStore) has(vi int) bool {
	_, ok := s.entries[vi]
	return ok
}

func givenAssignment(v *Variable, given []string) Assignment {
	a := make(Assignment, len(given))
	for i, val := range given {
		if i < len(v.Parents) {
			a[v.Parents[i]] = val
		}
	}
	return a
}

func decodeRow(parents []*Variable, strides []int, idx int) []string {
	out := make([]string, len(parents))
	for i, p := range parents {
		out[i] = p.Domain[idx/strides[i]]
		idx %= strides[i]
	}
	return out
}
