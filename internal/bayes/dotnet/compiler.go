// Package dotnet compiles Graphviz DOT network sources. Edges are
// parent -> child; node attributes carry each variable's domain and table:
//
//	digraph sprinkler {
//	  R [cpt="0.2"];
//	  S [cpt="true: 0.01; false: 0.4"];
//	  W [parents="S,R", cpt="true,true: 0.99; true,false: 0.9; false,true: 0.8; false,false: 0.0"];
//	  R -> S; R -> W; S -> W;
//	}
package dotnet

import (
	"fmt"
	"slices"
	"strings"

	"github.com/awalterschulze/gographviz"
	"github.com/awalterschulze/gographviz/ast"

	"github.com/awmpietro/golang-bayes-inference-case/internal/bayes"
	"github.com/awmpietro/golang-bayes-inference-case/internal/bayes/netdef"
)

type Compiler struct{}

func NewCompiler() *Compiler { return &Compiler{} }

// Compile parses dot and builds the network it describes.
func (c *Compiler) Compile(dot string) (*bayes.Network, error) {
	def, err := c.CompileDefinition(dot)
	if err != nil {
		return nil, err
	}
	return netdef.Build(def)
}

func (c *Compiler) CompileDefinition(dot string) (*netdef.Definition, error) {
	graph, err := gographviz.ParseString(dot)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DOT: %w", err)
	}
	if graph.Type != ast.DIGRAPH {
		return nil, fmt.Errorf("network must be a digraph")
	}

	// Analyse would reject attributes Graphviz does not know (cpt, expr,
	// domain), so statements are read straight from the syntax tree.
	w := &walker{attrs: map[string]map[string]string{}, parents: map[string][]string{}}
	if err := w.stmts(graph.StmtList); err != nil {
		return nil, err
	}

	def := &netdef.Definition{Name: unquote(graph.ID.String())}
	for _, name := range w.order {
		attrs := w.attrs[name]
		v := netdef.VariableDef{
			Name:    name,
			Parents: w.parents[name],
			Expr:    getAttr(attrs, "expr"),
		}

		if raw := getAttr(attrs, "domain"); raw != "" {
			v.Domain = splitList(raw)
		}

		if raw := getAttr(attrs, "parents"); raw != "" {
			declared := splitList(raw)
			if !sameSet(declared, v.Parents) {
				return nil, fmt.Errorf("node %q: parents attribute [%s] does not match incoming edges [%s]",
					name, strings.Join(declared, ", "), strings.Join(v.Parents, ", "))
			}
			v.Parents = declared
		}

		if raw := getAttr(attrs, "cpt"); raw != "" {
			rows, err := ParseTable(raw, len(v.Parents))
			if err != nil {
				return nil, fmt.Errorf("invalid cpt in node %q: %w", name, err)
			}
			v.CPT = rows
		}

		def.Variables = append(def.Variables, v)
	}

	if len(def.Variables) == 0 {
		return nil, fmt.Errorf("network defines no variables")
	}
	return def, nil
}

// walker collects nodes in first-appearance order, their merged attributes,
// and incoming edges in text order (the default parent order).
type walker struct {
	order   []string
	attrs   map[string]map[string]string
	parents map[string][]string
}

func (w *walker) node(name string) {
	if _, ok := w.attrs[name]; ok {
		return
	}
	w.order = append(w.order, name)
	w.attrs[name] = map[string]string{}
}

func (w *walker) stmts(list ast.StmtList) error {
	for _, stmt := range list {
		switch s := stmt.(type) {
		case *ast.NodeStmt:
			name := unquote(s.NodeID.ID.String())
			w.node(name)
			for k, v := range s.Attrs.GetMap() {
				w.attrs[name][k] = v
			}
		case *ast.EdgeStmt:
			if err := w.edges(s); err != nil {
				return err
			}
		case *ast.SubGraph:
			if err := w.stmts(s.StmtList); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *walker) edges(s *ast.EdgeStmt) error {
	src, ok := s.Source.(*ast.NodeID)
	if !ok {
		return fmt.Errorf("subgraph edges are not supported: %s", s.String())
	}
	from := unquote(src.ID.String())
	w.node(from)

	for _, rh := range s.EdgeRHS {
		dst, ok := rh.Destination.(*ast.NodeID)
		if !ok {
			return fmt.Errorf("subgraph edges are not supported: %s", s.String())
		}
		to := unquote(dst.ID.String())
		w.node(to)

		if slices.Contains(w.parents[to], from) {
			return fmt.Errorf("duplicate edge %s -> %s", from, to)
		}
		w.parents[to] = append(w.parents[to], from)
		from = to
	}
	return nil
}

// getAttr reads a node attribute, removing the surrounding quotes and
// escaped inner quotes.
func getAttr(attrs map[string]string, key string) string {
	val, ok := attrs[key]
	if !ok {
		return ""
	}
	return strings.ReplaceAll(unquote(strings.TrimSpace(val)), `\"`, `"`)
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		if !slices.Contains(b, x) {
			return false
		}
	}
	return true
}
