package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/banshee-data/texture.report/internal/monitoring"
	"github.com/banshee-data/texture.report/internal/version"
)

// newRootCmd builds the command tree writing results to out.
func newRootCmd(out io.Writer) *cobra.Command {
	var quiet bool

	root := &cobra.Command{
		Use:   "texture",
		Short: "Grain orientation trajectories from crystal-plasticity results",
		Long: `texture averages element orientations into one orientation per grain and
timestep, writes Bunge Euler trajectories, classifies grains into texture
families and resolves grain IDs between experimental and mesh numbering.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if quiet {
				monitoring.SetLogger(nil)
			}
		},
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress logging")

	root.AddCommand(
		newTrajectoriesCmd(),
		newFamilyCmd(),
		newIDMapCmd(),
		newRunsCmd(),
		newMigrateCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version.String())
			},
		},
	)
	return root
}
