package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newVarsCommand() *cobra.Command {
	var network string

	cmd := &cobra.Command{
		Use:   "vars",
		Short: "List variables in topological order",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := loadNetwork(network)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "VARIABLE\tDOMAIN\tPARENTS")
			for _, v := range n.Variables() {
				parents := "-"
				if len(v.Parents) > 0 {
					parents = strings.Join(v.Parents, ",")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", v.Name, strings.Join(v.Domain, ","), parents)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&network, "network", "n", "", "Network file (.dot or .yaml)")
	_ = cmd.MarkFlagRequired("network")
	return cmd
}
