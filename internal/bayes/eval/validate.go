package eval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// UnknownIdentifiersError lists names an expression uses that are not parents
// of the variable it defines.
type UnknownIdentifiersError struct {
	Vars []string
}

func (e *UnknownIdentifiersError) Error() string {
	return fmt.Sprintf("expression references non-parent variables [%s]", strings.Join(e.Vars, ", "))
}

var illegalChars = []rune{'{', '}', '[', ']', ';', '@', '#', '$', '\\', '`'}

// Validate accepts comparison, logic, arithmetic and ternary expressions over
// plain identifiers. Calls, member access, closures and literals of
// composite types are rejected.
func Validate(expression string) error {
	_, err := parse(expression)
	return err
}

// Identifiers returns the sorted, distinct identifiers of expression.
func Identifiers(expression string) ([]string, error) {
	tree, err := parse(expression)
	if err != nil {
		return nil, err
	}
	v := &identVisitor{seen: map[string]struct{}{}}
	ast.Walk(&tree.Node, v)

	out := make([]string, 0, len(v.seen))
	for name := range v.seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func parse(expression string) (*parser.Tree, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, fmt.Errorf("empty expression")
	}
	for _, ch := range illegalChars {
		if strings.ContainsRune(expression, ch) {
			return nil, fmt.Errorf("illegal character %q", ch)
		}
	}

	tree, err := parser.Parse(expression)
	if err != nil {
		return nil, err
	}

	v := &shapeVisitor{}
	ast.Walk(&tree.Node, v)
	if v.err != nil {
		return nil, v.err
	}
	return tree, nil
}

type shapeVisitor struct {
	err error
}

func (v *shapeVisitor) Visit(node *ast.Node) {
	if v.err != nil {
		return
	}
	switch n := (*node).(type) {
	case *ast.CallNode:
		v.err = fmt.Errorf("function calls are not allowed (found %s(...))", n.Callee.String())
	case *ast.BuiltinNode:
		v.err = fmt.Errorf("function calls are not allowed (found %s(...))", n.Name)
	case *ast.MemberNode:
		v.err = fmt.Errorf("member access is not allowed")
	case *ast.ClosureNode, *ast.PointerNode:
		v.err = fmt.Errorf("closures are not allowed")
	case *ast.VariableDeclaratorNode:
		v.err = fmt.Errorf("variable declarations are not allowed")
	}
}

type identVisitor struct {
	seen map[string]struct{}
}

func (v *identVisitor) Visit(node *ast.Node) {
	if id, ok := (*node).(*ast.IdentifierNode); ok {
		v.seen[id.Value] = struct{}{}
	}
}
