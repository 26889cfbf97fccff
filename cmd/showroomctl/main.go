// Command showroomctl runs one-off maintenance tasks against the showroom
// database.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"car-showroom/internal/config"
	"car-showroom/internal/database"
	"car-showroom/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logLevel string

	cfg *config.Config
	log *zap.Logger
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "showroomctl",
	Short: "Maintenance tasks for the car showroom",
	Long: `Run migrations, manage admin accounts and inspect stored data.

Configuration is read from the environment and an optional .env file, the
same way the API reads it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		l, err := logger.New(cfg.Server.Env, logger.WithService("showroomctl"), logger.WithLevel(logLevel))
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "minimum log level")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	adminsCmd.AddCommand(adminsListCmd)
	settingsCmd.AddCommand(settingsShowCmd)

	rootCmd.AddCommand(
		migrateCmd,
		createAdminCmd,
		adminsCmd,
		settingsCmd,
		pruneTokensCmd,
		auditPhonesCmd,
	)
}

// withDB opens the database for the duration of fn.
func withDB(ctx context.Context, fn func(db *sql.DB) error) error {
	svc, err := database.New(cfg.Database)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(svc.DB())
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
