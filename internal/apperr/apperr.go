package apperr

import (
	"errors"
	"fmt"
)

// Kind категория ошибки, видимая пользователю
type Kind string

const (
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindReference    Kind = "reference"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindInvalidKey   Kind = "invalid_key"
	KindUnknown      Kind = "unknown"
)

// Error структурированная ошибка: поле и значение заполняет слой данных,
// а не разбор текста драйвера
type Error struct {
	Kind  Kind   `json:"kind"`
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
	Code  string `json:"code,omitempty"`
	Err   error  `json:"-"`
}

func (e *Error) Error() string {
	switch {
	case e.Field != "" && e.Err != nil:
		return fmt.Sprintf("%s %s=%q: %v", e.Kind, e.Field, e.Value, e.Err)
	case e.Field != "":
		return fmt.Sprintf("%s %s=%q", e.Kind, e.Field, e.Value)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Conflict нарушено ограничение уникальности
func Conflict(field, value string) *Error {
	return &Error{Kind: KindConflict, Field: field, Value: value}
}

// Reference внешний ключ указывает на несуществующую запись
func Reference(field, value string) *Error {
	return &Error{Kind: KindReference, Field: field, Value: value}
}

// Validation поле отсутствует или некорректно
func Validation(field, value string) *Error {
	return &Error{Kind: KindValidation, Field: field, Value: value}
}

// Unknown прочая ошибка сервера с непрозрачным кодом
func Unknown(code string, err error) *Error {
	return &Error{Kind: KindUnknown, Code: code, Err: err}
}

var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrInvalidKey   = &Error{Kind: KindInvalidKey}
)

// Is сравнивает по категории, чтобы errors.Is(err, apperr.ErrForbidden) работал
// для любых ошибок этого вида
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Field == "" && t.Code == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf возвращает категорию ошибки; всё неизвестное считается KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// As извлекает структурированную ошибку
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
