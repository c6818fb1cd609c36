package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/williamokano/odoo_backuper/pkg/backup"
	"github.com/williamokano/odoo_backuper/pkg/container"
	"github.com/williamokano/odoo_backuper/pkg/rotation"
)

func newBackupCommand(app *App) *cobra.Command {
	var client string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up every configured database, or one with --client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := app.open(ctx, sessionOptions{runtime: true, destinations: true})
			if err != nil {
				return err
			}
			defer s.Close()

			runner, err := app.runner(s)
			if err != nil {
				return err
			}

			var report backup.Report
			if client != "" {
				outcome, err := runner.RunOne(ctx, client)
				if err != nil {
					return err
				}
				report.Outcomes = []backup.Outcome{outcome}
			} else {
				report = runner.RunAll(ctx)
			}

			printReport(cmd.OutOrStdout(), report, app.Verbose)
			return reportError(report)
		},
	}

	cmd.Flags().StringVar(&client, "client", "", "back up only the database with this name")
	return cmd
}

func newCleanCommand(app *App) *cobra.Command {
	var client string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete backups older than their retention, without taking new ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := app.open(ctx, sessionOptions{destinations: true})
			if err != nil {
				return err
			}
			defer s.Close()

			runner, err := app.runner(s)
			if err != nil {
				return err
			}

			var report backup.Report
			if client != "" {
				outcome, err := runner.CleanOne(ctx, client)
				if err != nil {
					return err
				}
				report.Outcomes = []backup.Outcome{outcome}
			} else {
				report = runner.CleanAll(ctx)
			}

			printReport(cmd.OutOrStdout(), report, app.Verbose)
			return reportError(report)
		},
	}

	cmd.Flags().StringVar(&client, "client", "", "clean only the database with this name")
	return cmd
}

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the configured databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context(), sessionOptions{})
			if err != nil {
				return err
			}
			defer s.Close()

			printDatabases(cmd.OutOrStdout(), s.registry.Databases())
			return nil
		},
	}
}

func newStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether each configured container is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := app.open(ctx, sessionOptions{runtime: true})
			if err != nil {
				return err
			}
			defer s.Close()

			runner, err := app.runner(s)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			statuses := runner.StatusAll(ctx)
			printStatuses(out, statuses, app.Verbose)

			if lister, ok := s.runtime.(container.Lister); ok {
				names, err := lister.ListRunning(ctx)
				if err != nil {
					s.logger.Warn().Err(err).Msg("failed to list running containers")
				} else {
					printRunning(out, names)
				}
			}

			for _, st := range statuses {
				if st.Err != nil {
					return fmt.Errorf("%w: could not query container %s", ErrRunFailed, st.ContainerName)
				}
			}
			return nil
		},
	}
}

func newListBackupsCommand(app *App) *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "list-backups",
		Short: "Show backups on the host, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context(), sessionOptions{})
			if err != nil {
				return err
			}
			defer s.Close()

			if database != "" {
				if _, err := s.registry.FindByDatabaseName(database); err != nil {
					s.logger.Warn().Str("database", database).Msg("database is not in the configuration, listing its directory anyway")
				}
			}

			records, err := rotation.List(s.backupDir, database)
			if err != nil {
				return err
			}

			printRecords(cmd.OutOrStdout(), s.backupDir, records)
			return nil
		},
	}

	cmd.Flags().StringVar(&database, "database", "", "only list backups of this database_name")
	return cmd
}

func reportError(report backup.Report) error {
	if failed := report.Failed(); failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrRunFailed, failed, len(report.Outcomes))
	}
	return nil
}
