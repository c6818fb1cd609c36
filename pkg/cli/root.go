package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the command tree around app
func NewRootCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "odoo-backup",
		Short: "Back up Odoo databases running in containers",
		Long: `odoo-backup asks each configured Odoo instance for a backup through its
database manager endpoint, copies the artifact out of the container and
prunes artifacts older than the configured retention.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			flags := cmd.Flags()
			app.backupDirSet = flags.Changed("backup-dir")
			app.logFormatSet = flags.Changed("log-format")
			app.stepTimeoutSet = flags.Changed("step-timeout")
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&app.ConfigFile, "config", "c", envOr(EnvConfigFile, DefaultConfigFile), "configuration file (env "+EnvConfigFile+")")
	flags.StringVarP(&app.BackupDir, "backup-dir", "b", envOr(EnvBackupDir, DefaultBackupDir), "host directory for backups (env "+EnvBackupDir+")")
	flags.BoolVarP(&app.Verbose, "verbose", "v", false, "debug logging and full error chains")
	flags.StringVar(&app.LogFormat, "log-format", "console", "log format: console or json")
	flags.DurationVar(&app.StepTimeout, "step-timeout", 0, "deadline for each backup step (default from config, else 30m)")

	cmd.AddCommand(
		newBackupCommand(app),
		newListCommand(app),
		newStatusCommand(app),
		newCleanCommand(app),
		newListBackupsCommand(app),
	)

	return cmd
}

// Execute runs the CLI with os.Args
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCommand(NewApp()).ExecuteContext(ctx)
}
