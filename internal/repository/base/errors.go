package base

import (
	"errors"

	"github.com/Freeeeeet/wherewego/internal/apperr"
	"github.com/jackc/pgx/v5/pgconn"
)

// Коды SQLSTATE, которые видит пользователь
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
)

// Constraints имя ограничения -> поле формы
type Constraints map[string]string

// Classify превращает *pgconn.PgError в apperr.Error.
// Поле берётся из constraints по имени ограничения (или из имени колонки для NOT NULL),
// значение из values по полю. Ошибки не от PostgreSQL возвращаются как есть.
func Classify(err error, constraints Constraints, values map[string]string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	field := constraints[pgErr.ConstraintName]

	switch pgErr.Code {
	case codeUniqueViolation:
		if field != "" {
			return &apperr.Error{Kind: apperr.KindConflict, Field: field, Value: values[field], Err: err}
		}
	case codeForeignKeyViolation:
		if field != "" {
			return &apperr.Error{Kind: apperr.KindReference, Field: field, Value: values[field], Err: err}
		}
	case codeNotNullViolation:
		if field == "" {
			field = pgErr.ColumnName
		}
		return &apperr.Error{Kind: apperr.KindValidation, Field: field, Value: values[field], Err: err}
	case codeCheckViolation:
		if field != "" {
			return &apperr.Error{Kind: apperr.KindValidation, Field: field, Value: values[field], Err: err}
		}
	}

	return apperr.Unknown(pgErr.Code, err)
}
