package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/redduck/internal/cli/config"
	"github.com/leapstack-labs/redduck/internal/history"
	"github.com/leapstack-labs/redduck/pkg/controller"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg        *config.Config
	Logger     *slog.Logger
	Controller *controller.Controller
	History    *history.Store
}

// NewCommandContext creates a CommandContext with an open controller and
// history store. Returns the context and a cleanup function that must be
// called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	ctrlCfg, err := controllerConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	ctrl := controller.New(ctrlCfg, logger)
	if err := ctrl.Open(cmd.Context()); err != nil {
		return nil, nil, err
	}

	store := history.NewStore()
	if err := store.Open(cfg.HistoryPath); err != nil {
		_ = ctrl.Close()
		return nil, nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		_ = ctrl.Close()
		return nil, nil, err
	}

	cleanup := func() {
		_ = store.Close()
		_ = ctrl.Close()
	}

	return &CommandContext{
		Cfg:        cfg,
		Logger:     logger,
		Controller: ctrl,
		History:    store,
	}, cleanup, nil
}

// NewCommandContextWithoutDB creates a CommandContext without opening the
// database. Useful for commands that only need config and logging.
func NewCommandContextWithoutDB(cmd *cobra.Command) *CommandContext {
	return &CommandContext{
		Cfg:    getConfig(),
		Logger: config.GetLogger(cmd.Context()),
	}
}

// Record runs fn as a catalogued operation: the start is recorded before
// fn executes and the outcome afterwards. Catalog write failures are
// logged but never mask the operation's own result.
func (c *CommandContext) Record(command, detail string, fn func() error) error {
	op, err := c.History.RecordStart(command, detail)
	if err != nil {
		c.Logger.Warn("failed to record operation start", "command", command, "error", err)
		return fn()
	}

	opErr := fn()
	if err := c.History.RecordResult(op.ID, opErr); err != nil {
		c.Logger.Warn("failed to record operation result", "command", command, "error", err)
	}
	return opErr
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	return &config.Config{
		Database: config.DatabaseConfig{
			Path:     getEnvOrDefault("REDDUCK_DATABASE_PATH", config.DefaultDatabasePath),
			ReadOnly: os.Getenv("REDDUCK_DATABASE_READ_ONLY") == "true",
		},
		HistoryPath: getEnvOrDefault("REDDUCK_HISTORY_PATH", config.DefaultHistoryFile),
		Format:      getEnvOrDefault("REDDUCK_FORMAT", config.DefaultFormat),
		Verbose:     os.Getenv("REDDUCK_VERBOSE") == "true",
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// controllerConfig builds a controller.Config from the CLI configuration.
func controllerConfig(cfg *config.Config) (controller.Config, error) {
	secrets, err := controller.DecodeSecrets(cfg.Database.Secrets)
	if err != nil {
		return controller.Config{}, fmt.Errorf("invalid secret configuration: %w", err)
	}
	return controller.Config{
		Path:       cfg.Database.Path,
		ReadOnly:   cfg.Database.ReadOnly,
		Extensions: cfg.Database.Extensions,
		Settings:   cfg.Database.Settings,
		Secrets:    secrets,
	}, nil
}
