package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newJointCommand(opts *options) *cobra.Command {
	var (
		network    string
		assignment []string
	)

	cmd := &cobra.Command{
		Use:     "joint",
		Short:   "Print the joint probability of a full assignment",
		Example: `  bayesq joint -n sprinkler.dot -a R=false,S=true,W=true`,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := loadNetwork(network)
			if err != nil {
				return err
			}
			full, err := parseAssignment(assignment)
			if err != nil {
				return err
			}
			p, err := n.JointProbability(full)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "P(%s) = %.10g\n", full, p)
			return nil
		},
	}

	cmd.Flags().StringVarP(&network, "network", "n", "", "Network file (.dot or .yaml)")
	cmd.Flags().StringSliceVarP(&assignment, "assign", "a", nil, "Value of every variable as name=value")
	_ = cmd.MarkFlagRequired("network")
	_ = cmd.MarkFlagRequired("assign")
	return cmd
}
