package cli

import (
	"context"
	"fmt"

	"medical-messenger/cmd/bootstrap"
	"medical-messenger/internal/repository"
	"medical-messenger/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type seedOptions struct {
	file    string
	migrate bool
}

// NewSeedCommand creates the seed command, which admits doctors and admins
// from a YAML file. Accounts that already exist are skipped.
func NewSeedCommand() *cobra.Command {
	opts := &seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load doctor and admin accounts from a seed file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "seeds/doctors.yaml", "seed file path")
	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "apply pending migrations before seeding")

	return cmd
}

func runSeed(cmd *cobra.Command, opts *seedOptions) error {
	file, err := service.LoadSeedFile(opts.file)
	if err != nil {
		return err
	}

	cfg, err := bootstrap.Setup()
	if err != nil {
		return err
	}

	db, err := bootstrap.OpenDatabase(cfg, opts.migrate)
	if err != nil {
		return err
	}
	defer bootstrap.CloseDatabase(db)

	log := logrus.StandardLogger()
	seeder := service.NewDirectorySeeder(
		db,
		log,
		repository.NewUserRepository(),
		repository.NewRoleRepository(),
		repository.NewDoctorProfileRepository(),
		service.NewAuditService(log, repository.NewAuditLogRepository()),
	)

	result, err := seeder.Seed(context.Background(), file)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %d, skipped %d\n", result.Created, result.Skipped)
	return nil
}
