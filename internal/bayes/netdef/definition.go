// Package netdef holds the declarative form of a network (variables,
// parents, CPT rows or deterministic expressions) and turns it into a
// bayes.Network. DOT and YAML sources both compile to a Definition.
package netdef

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefaultDomain is used for variables that do not list a domain.
var DefaultDomain = []string{"true", "false"}

type Definition struct {
	Name      string        `yaml:"name,omitempty" json:"name,omitempty"`
	Variables []VariableDef `yaml:"variables" json:"variables"`
}

// VariableDef declares one variable. Exactly one of CPT or Expr is set.
type VariableDef struct {
	Name    string   `yaml:"name" json:"name"`
	Domain  []string `yaml:"domain,omitempty" json:"domain,omitempty"`
	Parents []string `yaml:"parents,omitempty" json:"parents,omitempty"`
	CPT     []RowDef `yaml:"cpt,omitempty" json:"cpt,omitempty"`
	Expr    string   `yaml:"expr,omitempty" json:"expr,omitempty"`
}

type RowDef struct {
	Given []string  `yaml:"given,omitempty" json:"given,omitempty"`
	Probs []float64 `yaml:"probs" json:"probs"`
}

func (v VariableDef) domain() []string {
	if len(v.Domain) == 0 {
		return DefaultDomain
	}
	return v.Domain
}

// Decode parses a YAML definition. Unknown fields are rejected so typos in
// a network file fail loudly.
func Decode(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to parse network YAML: %w", err)
	}
	if len(def.Variables) == 0 {
		return nil, fmt.Errorf("network defines no variables")
	}
	return &def, nil
}

// Encode renders def as YAML.
func Encode(def *Definition) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(def); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
