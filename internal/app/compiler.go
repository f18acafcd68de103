package app

import (
	"fmt"
	"strings"

	"github.com/awmpietro/golang-bayes-inference-case/internal/bayes"
	"github.com/awmpietro/golang-bayes-inference-case/internal/bayes/dotnet"
	"github.com/awmpietro/golang-bayes-inference-case/internal/bayes/netdef"
)

const (
	FormatDOT  = "dot"
	FormatYAML = "yaml"
)

// SourceCompiler dispatches network sources to the DOT or YAML front end.
type SourceCompiler struct {
	dot *dotnet.Compiler
}

func NewSourceCompiler() *SourceCompiler {
	return &SourceCompiler{dot: dotnet.NewCompiler()}
}

func (c *SourceCompiler) Compile(format, source string) (*bayes.Network, error) {
	format, err := normalizeFormat(format)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatYAML:
		def, err := netdef.Decode([]byte(source))
		if err != nil {
			return nil, err
		}
		return netdef.Build(def)
	default:
		return c.dot.Compile(source)
	}
}

// FormatFromPath guesses the source format from a file extension, defaulting
// to DOT.
func FormatFromPath(path string) string {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return FormatYAML
	}
	return FormatDOT
}

func normalizeFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", FormatDOT, "gv":
		return FormatDOT, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported network format %q (want dot or yaml)", format)
	}
}
