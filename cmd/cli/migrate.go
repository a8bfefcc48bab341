package cli

import (
	"fmt"

	"medical-messenger/cmd/bootstrap"
	"medical-messenger/internal/infrastructure/database"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command with its up and down subcommands.
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *database.Migrator) error {
				return m.Up()
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1, got %d", steps)
			}
			return withMigrator(func(m *database.Migrator) error {
				return m.Down(steps)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	return cmd
}

func withMigrator(run func(m *database.Migrator) error) error {
	cfg, err := bootstrap.Setup()
	if err != nil {
		return err
	}

	db, err := bootstrap.OpenDatabase(cfg, false)
	if err != nil {
		return err
	}
	defer bootstrap.CloseDatabase(db)

	migrator, err := database.NewMigrator(db, logrus.StandardLogger())
	if err != nil {
		return err
	}
	return run(migrator)
}
