// Command migrate applies the embedded postgres schema used by the
// postgres store driver.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"backend-breathstats/internal/config"
	"backend-breathstats/internal/db"
	"backend-breathstats/internal/logging"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	driverFlag  = "driver"
	uriFlag     = "uri"
	versionFlag = "version"
	timeoutFlag = "timeout"
)

var (
	openDBFn  = db.OpenMigrationDB
	migrateFn = db.Migrate
	statusFn  = db.MigrationStatus
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the breathstats postgres schema",
		SilenceUsage: true,
	}
	root.AddCommand(newUpCommand(), newStatusCommand())
	return root
}

func newUpCommand() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply migrations up to --version, or the latest when omitted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd.Context(), v, func(ctx context.Context, logger *zap.Logger, sqlDB *sql.DB) error {
				version := v.GetInt64(versionFlag)
				if err := migrateFn(ctx, sqlDB, version); err != nil {
					return err
				}
				logger.Info("migration done", zap.Int64("target_version", version))
				return nil
			})
		},
	}
	bindFlags(cmd, v)
	cmd.Flags().Int64(versionFlag, 0, "the version to migrate to (0 means latest)")
	_ = v.BindPFlag(versionFlag, cmd.Flags().Lookup(versionFlag))
	return cmd
}

func newStatusCommand() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the applied state of every migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd.Context(), v, func(ctx context.Context, _ *zap.Logger, sqlDB *sql.DB) error {
				return statusFn(ctx, sqlDB)
			})
		},
	}
	bindFlags(cmd, v)
	return cmd
}

// bindFlags registers the connection flags, falling back to the API's
// environment configuration.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cfg := config.Load()
	flags := cmd.Flags()
	flags.String(driverFlag, cfg.StoreDriver, "store driver; only postgres has a schema")
	flags.String(uriFlag, cfg.PostgresURL, "postgres connection uri")
	flags.Duration(timeoutFlag, time.Minute, "how long to retry the initial connection")

	_ = v.BindPFlag(driverFlag, flags.Lookup(driverFlag))
	_ = v.BindPFlag(uriFlag, flags.Lookup(uriFlag))
	_ = v.BindPFlag(timeoutFlag, flags.Lookup(timeoutFlag))
}

func withDatabase(ctx context.Context, v *viper.Viper, fn func(context.Context, *zap.Logger, *sql.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := logging.New("info", "console", "breathstats-migrate")
	if err != nil {
		logger = zap.NewNop()
	}
	defer func() { _ = logger.Sync() }()

	switch driver := v.GetString(driverFlag); driver {
	case config.DriverPostgres:
	case config.DriverMongo, config.DriverMemory:
		logger.Info("no migrations to run", zap.String("driver", driver))
		return nil
	case "":
		return fmt.Errorf("missing store driver")
	default:
		return fmt.Errorf("unknown store driver: %s", driver)
	}

	sqlDB, err := openDBFn(v.GetString(uriFlag))
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer sqlDB.Close()

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = v.GetDuration(timeoutFlag)
	err = backoff.Retry(func() error {
		return sqlDB.PingContext(ctx)
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return fmt.Errorf("initialize database connection: %w", err)
	}

	return fn(ctx, logger, sqlDB)
}
