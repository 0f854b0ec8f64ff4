package root

import (
	"github.com/codexbridge/codexbridge/cmd/codexbridge/sweep"
	"github.com/codexbridge/codexbridge/cmd/codexbridge/version"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for codexbridge.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codexbridge",
		Short: "CLI: validate machine-authored plans and generate macro stubs with full audit trails",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Show help when no subcommand is provided.
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Subcommands
	cmd.AddCommand(version.VersionCmd)
	cmd.AddCommand(sweep.Cmd)

	return cmd
}

// Execute runs the root command with provided args.
func Execute(args []string) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}
