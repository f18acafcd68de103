package eval

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLiteral turns a domain value into the typed value an expression sees:
// true/false become bool, integers int, decimals float64, anything else a
// string (surrounding quotes removed).
func ParseLiteral(s string) any {
	s = strings.TrimSpace(s)

	if s == "true" {
		return true
	}
	if s == "false" {
		return false
	}

	if i, err := strconv.Atoi(s); err == nil {
		return i
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		if s[0] == '\'' {
			s = `"` + s[1:len(s)-1] + `"`
		}
		if unq, err := strconv.Unquote(s); err == nil {
			return unq
		}
	}

	return s
}

// FormatValue is the inverse of ParseLiteral for scalar values, used to map
// expression results and JSON evidence onto domain values.
func FormatValue(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	}
	return "", fmt.Errorf("unsupported value type %T", v)
}
