package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/agroplan/internal/solver"
	"github.com/papapumpkin/agroplan/internal/ui"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the search strategies",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		ui.NewWriter(cmd.OutOrStdout()).Strategies(solver.Strategies())
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
