package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"inventory-envelope/internal/app"
	"inventory-envelope/internal/domain"
	"inventory-envelope/internal/infra"
	"inventory-envelope/internal/usecase"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  "Manage database migrations for managed_keys and settings_entries",
	}
	cmd.AddCommand(migrateUpCmd())
	cmd.AddCommand(migrateStatusCmd())
	return cmd
}

// openMigrationService はDATABASE_URLとMIGRATIONS_DIRからMigrationServiceを生成する。
func openMigrationService() (*usecase.MigrationService, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := infra.NewDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return app.NewMigrationService(cfg, db), nil
}

func migrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := openMigrationService()
			if err != nil {
				return err
			}

			appliedCount, err := service.ApplyMigrations(context.Background())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			if appliedCount == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending migrations.")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", appliedCount)
			}
			return nil
		},
	}
}

func migrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := openMigrationService()
			if err != nil {
				return err
			}

			migrations, err := service.GetMigrationStatus(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			return printMigrations(cmd, migrations)
		},
	}
}

func printMigrations(cmd *cobra.Command, migrations []*domain.Migration) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tSTATUS\tAPPLIED AT")
	fmt.Fprintln(w, "-------\t----\t------\t----------")

	for _, migration := range migrations {
		appliedAt := "-"
		if migration.AppliedAt != nil {
			appliedAt = migration.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", migration.Version, migration.Name, migration.Status, appliedAt)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}
