package dotnet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/awmpietro/golang-bayes-inference-case/internal/bayes/netdef"
)

// ParseTable parses a cpt attribute. Rows are separated by ';'. A row of a
// variable with parents is "v1,v2: p1,p2"; a root has a single "p1,p2" row.
func ParseTable(raw string, parents int) ([]netdef.RowDef, error) {
	rows := splitRows(raw)
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty cpt")
	}
	if parents == 0 && len(rows) != 1 {
		return nil, fmt.Errorf("root cpt must have one row, got %d", len(rows))
	}

	out := make([]netdef.RowDef, 0, len(rows))
	for _, row := range rows {
		given, probsRaw, hasGiven := strings.Cut(row, ":")
		if parents == 0 {
			if hasGiven {
				return nil, fmt.Errorf("root row %q must not name parent values", row)
			}
			probsRaw = given
			given = ""
		} else if !hasGiven {
			return nil, fmt.Errorf("invalid row %q (expected parent values: probabilities)", row)
		}

		r := netdef.RowDef{}
		if parents > 0 {
			r.Given = splitList(given)
			if len(r.Given) != parents {
				return nil, fmt.Errorf("row %q names %d parent values, want %d", row, len(r.Given), parents)
			}
			for i, g := range r.Given {
				r.Given[i] = unquote(g)
			}
		}

		for _, p := range splitList(probsRaw) {
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid probability %q in row %q", p, row)
			}
			r.Probs = append(r.Probs, f)
		}
		if len(r.Probs) == 0 {
			return nil, fmt.Errorf("row %q has no probabilities", row)
		}

		out = append(out, r)
	}
	return out, nil
}

// splitRows splits on ';' outside double quotes, dropping empty rows.
func splitRows(raw string) []string {
	var out []string
	var b strings.Builder
	inQuotes := false
	escape := false

	for _, r := range raw {
		if escape {
			b.WriteRune(r)
			escape = false
			continue
		}
		if r == '\\' && inQuotes {
			b.WriteRune(r)
			escape = true
			continue
		}
		if r == '"' {
			inQuotes = !inQuotes
			b.WriteRune(r)
			continue
		}
		if r == ';' && !inQuotes {
			if s := strings.TrimSpace(b.String()); s != "" {
				out = append(out, s)
			}
			b.Reset()
			continue
		}
		b.WriteRune(r)
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		out = append(out, s)
	}
	return out
}
