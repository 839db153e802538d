package app

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migrator goose-провайдер над встроенными SQL-файлами
type Migrator struct {
	db       *sql.DB
	provider *goose.Provider
	logger   *zap.Logger
}

// MigrationState версия и признак применения одной миграции
type MigrationState struct {
	Version int64
	Path    string
	Applied bool
}

// NewMigrator создаёт мигратор поверх пула; файлы лежат в корне fsys
func NewMigrator(pool *pgxpool.Pool, fsys fs.FS, logger *zap.Logger) (*Migrator, error) {
	// goose работает с *sql.DB
	db := stdlib.OpenDBFromPool(pool)

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create goose provider: %w", err)
	}

	return &Migrator{db: db, provider: provider, logger: logger}, nil
}

// Run применяет все pending миграции
func (mg *Migrator) Run(ctx context.Context) error {
	mg.logger.Info("Applying database migrations")

	results, err := mg.provider.Up(ctx)
	for _, r := range results {
		mg.logResult(r)
	}
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := mg.Version(ctx)
	if err != nil {
		return err
	}

	mg.logger.Info("Migrations applied", zap.Int("applied", len(results)), zap.Int64("version", version))
	return nil
}

// Down откатывает последнюю применённую миграцию
func (mg *Migrator) Down(ctx context.Context) error {
	r, err := mg.provider.Down(ctx)
	if r != nil {
		mg.logResult(r)
	}
	if err != nil {
		return fmt.Errorf("roll back migration: %w", err)
	}
	return nil
}

// Status все известные миграции в порядке версий
func (mg *Migrator) Status(ctx context.Context) ([]MigrationState, error) {
	statuses, err := mg.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}

	out := make([]MigrationState, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, MigrationState{
			Version: st.Source.Version,
			Path:    st.Source.Path,
			Applied: st.State == goose.StateApplied,
		})
	}
	return out, nil
}

// Version текущая версия схемы
func (mg *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := mg.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

func (mg *Migrator) logResult(r *goose.MigrationResult) {
	fields := []zap.Field{
		zap.Int64("version", r.Source.Version),
		zap.String("file", r.Source.Path),
		zap.String("direction", r.Direction),
		zap.Duration("took", r.Duration),
	}
	if r.Error != nil {
		mg.logger.Error("Migration failed", append(fields, zap.Error(r.Error))...)
		return
	}
	mg.logger.Info("Migration done", fields...)
}

// Close закрывает sql.DB, пул управляется вызывающим
func (mg *Migrator) Close() error {
	return mg.provider.Close()
}
