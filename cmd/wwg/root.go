package main

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/wherewego/internal/app"
	"github.com/Freeeeeet/wherewego/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	envFile string
)

var rootCmd = &cobra.Command{
	Use:           "wwg",
	Short:         "Where We Go student roster",
	Long:          `Where We Go keeps the roster of graduates: the HTTP API, the admin Telegram bot, database migrations and a terminal search client.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment")
}

// backend общие зависимости серверных команд
type backend struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
}

func openBackend(ctx context.Context) (*backend, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		_ = logger.Sync()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &backend{cfg: cfg, logger: logger, pool: pool}, nil
}

func (b *backend) Close() {
	b.pool.Close()
	_ = b.logger.Sync()
}
