package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/awmpietro/golang-bayes-inference-case/internal/app"
	"github.com/awmpietro/golang-bayes-inference-case/internal/bayes"
	"github.com/awmpietro/golang-bayes-inference-case/internal/config"
)

type options struct {
	logLevel       string
	maxAssignments int64
	timeBudget     time.Duration
	full           bool
}

func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the bayesq command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "bayesq",
		Short: "Exact inference over discrete Bayesian networks",
		Long: `bayesq loads a Bayesian network from a DOT or YAML file and answers
posterior and joint probability queries by exact enumeration.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level for query events (debug, info, warn, error)")
	root.PersistentFlags().Int64Var(&opts.maxAssignments, "max-assignments", 0, "Refuse queries needing more assignments than this (0 = unlimited)")
	root.PersistentFlags().DurationVar(&opts.timeBudget, "time-budget", 0, "Abort queries running longer than this (0 = unlimited)")
	root.PersistentFlags().BoolVar(&opts.full, "full", false, "Enumerate every hidden variable, including barren ones")

	root.AddCommand(newQueryCommand(opts))
	root.AddCommand(newJointCommand(opts))
	root.AddCommand(newVarsCommand())
	return root
}

func (o *options) engine() (*bayes.Engine, func(), error) {
	logger, err := config.NewLogger(o.logLevel)
	if err != nil {
		return nil, nil, err
	}

	engineOpts := []bayes.EngineOption{
		bayes.WithQueryObserver(bayes.NewQueryLogger(logger)),
		bayes.WithMaxAssignments(o.maxAssignments),
		bayes.WithTimeBudget(o.timeBudget),
	}
	if o.full {
		engineOpts = append(engineOpts, bayes.WithFullEnumeration())
	}
	return bayes.NewEngine(engineOpts...), func() { _ = logger.Sync() }, nil
}

// loadNetwork compiles a network file, picking the format from its extension.
func loadNetwork(path string) (*bayes.Network, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read network: %w", err)
	}
	n, err := app.NewSourceCompiler().Compile(app.FormatFromPath(path), string(src))
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", path, err)
	}
	return n, nil
}

// parseAssignment turns ["X=true", "D=false"] into an assignment.
func parseAssignment(pairs []string) (bayes.Assignment, error) {
	out := bayes.Assignment{}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if !ok || name == "" || value == "" {
			return nil, fmt.Errorf("invalid assignment %q (want name=value)", pair)
		}
		if prev, dup := out[name]; dup && prev != value {
			return nil, fmt.Errorf("variable %q assigned twice", name)
		}
		out[name] = value
	}
	return out, nil
}
