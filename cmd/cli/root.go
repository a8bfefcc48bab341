// Package cli holds the medmsg command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the medmsg root command.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "medmsg",
		Short:         "Medical Messenger API",
		Long:          "Doctor directory and patient-doctor messaging service.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewMigrateCommand())
	cmd.AddCommand(NewSeedCommand())

	return cmd
}
