package root

import (
	"github.com/flarebyte/khepri-release/cmd/khepri/check"
	"github.com/flarebyte/khepri-release/cmd/khepri/run"
	"github.com/flarebyte/khepri-release/cmd/khepri/version"
	"github.com/flarebyte/khepri-release/cmd/khepri/watch"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for khepri.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "khepri",
		Short: "CLI: tag-triggered package publishing with auto-generated release records, rolled forward each dawn",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Show help when no subcommand is provided.
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Subcommands
	cmd.AddCommand(version.VersionCmd)
	cmd.AddCommand(run.Cmd)
	cmd.AddCommand(watch.Cmd)
	cmd.AddCommand(check.Cmd)

	return cmd
}

// Execute runs the root command with provided args.
func Execute(args []string) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}
