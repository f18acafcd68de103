package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newQueryCommand(opts *options) *cobra.Command {
	var (
		network  string
		query    string
		evidence []string
		trace    bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print the posterior distribution of a variable",
		Example: `  bayesq query -n asia.dot -q D -e X=true
  bayesq query -n sprinkler.yaml -q R -e W=true --trace`,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := loadNetwork(network)
			if err != nil {
				return err
			}
			ev, err := parseAssignment(evidence)
			if err != nil {
				return err
			}
			engine, flush, err := opts.engine()
			if err != nil {
				return err
			}
			defer flush()

			post, tr, err := engine.QueryWithTrace(n, query, ev)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				body := map[string]any{"query": post.Variable, "distribution": post.Map()}
				if trace {
					body["trace"] = tr
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(body)
			}

			fmt.Fprintf(out, "P(%s | %s)\n", query, ev)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for i, v := range post.Values {
				fmt.Fprintf(w, "  %s\t%.6f\n", v, post.Probs[i])
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if trace {
				fmt.Fprintf(out, "hidden=%v pruned=%v assignments=%d P(evidence)=%g\n",
					tr.Hidden, tr.Pruned, tr.Evaluated, tr.EvidenceProbability)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&network, "network", "n", "", "Network file (.dot or .yaml)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Query variable")
	cmd.Flags().StringSliceVarP(&evidence, "evidence", "e", nil, "Evidence as name=value (repeatable or comma-separated)")
	cmd.Flags().BoolVar(&trace, "trace", false, "Also print the enumeration trace")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("network")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}
