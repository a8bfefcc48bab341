package cli

import (
	"medical-messenger/cmd/bootstrap"

	"github.com/spf13/cobra"
)

type serveOptions struct {
	migrate bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap.Setup()
			if err != nil {
				return err
			}

			app, err := bootstrap.New(cfg, opts.migrate)
			if err != nil {
				return err
			}
			return app.Run()
		},
	}

	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "apply pending migrations before serving")

	return cmd
}
