package base

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository пул соединений и таблица ограничений одной сущности
type Repository struct {
	pool        *pgxpool.Pool
	constraints Constraints
}

// NewRepository constraints сопоставляет ограничения таблицы с полями формы
func NewRepository(pool *pgxpool.Pool, constraints Constraints) *Repository {
	return &Repository{pool: pool, constraints: constraints}
}

func (r *Repository) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return r.pool.QueryRow(ctx, query, args...)
}

// ExecAffected выполняет команду и возвращает количество затронутых строк
func (r *Repository) ExecAffected(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Classify переводит ошибку драйвера в apperr по таблице ограничений
func (r *Repository) Classify(err error, values map[string]string) error {
	return Classify(err, r.constraints, values)
}

// QueryOne одна запись; nil, nil если строк нет
func QueryOne[T any](ctx context.Context, r *Repository, scan func(pgx.Row) (*T, error), query string, args ...any) (*T, error) {
	v, err := scan(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

// QueryAll все строки запроса; пустой результат даёт пустой срез, а не nil
func QueryAll[T any](ctx context.Context, r *Repository, scan func(pgx.Row) (T, error), query string, args ...any) ([]T, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		return scan(row)
	})
}

// IsNotFound проверяет является ли ошибка "строка не найдена"
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
