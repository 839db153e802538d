package i18n

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Freeeeeet/wherewego/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name        string `json:"name" validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,phone"`
	Email       string `json:"email" validate:"omitempty,email"`
}

func newTranslator(t *testing.T) *Translator {
	t.Helper()
	tr, err := New()
	require.NoError(t, err)
	return tr
}

func TestMessage_Conflict(t *testing.T) {
	tr := newTranslator(t)
	err := fmt.Errorf("create student: %w", apperr.Conflict("email", "x@y.com"))

	assert.Equal(t, `The email "x@y.com" has already been taken`, tr.Message(LangEn, err))
	assert.Equal(t, `邮箱“x@y.com”已被占用`, tr.Message(LangZh, err))
}

func TestMessage_Reference(t *testing.T) {
	tr := newTranslator(t)

	err := fmt.Errorf("create student: %w", apperr.Reference("school_uid", "42"))

	assert.Equal(t, `42 is not an existing school`, tr.Message(LangEn, err))
	assert.Equal(t, `42不是已存在的学校`, tr.Message(LangZh, err))
}

// Шаблоны с параметрами вне порядка роняют ut.T, проверяем каждый вид ошибки
func TestMessage_EveryKindRenders(t *testing.T) {
	tr := newTranslator(t)
	errs := []error{
		apperr.Conflict("email", "x@y.com"),
		apperr.Reference("school_uid", "42"),
		apperr.Validation("class", "Class 3 of 2020"),
		apperr.Unknown("E1", errors.New("boom")),
		apperr.ErrInvalidKey,
		apperr.ErrUnauthorized,
		apperr.ErrForbidden,
		apperr.ErrNotFound,
		errors.New("plain"),
	}

	for _, lang := range []string{LangEn, LangZh} {
		for _, err := range errs {
			assert.NotPanics(t, func() {
				assert.NotEmpty(t, tr.Message(lang, err))
			}, "%s: %v", lang, err)
		}
	}
}

func TestMessage_Unknown(t *testing.T) {
	tr := newTranslator(t)

	assert.Equal(t, `An unknown error just occurred [code 40001]`, tr.Message(LangEn, apperr.Unknown("40001", nil)))
	assert.Equal(t, `An unknown error just occurred [code internal]`, tr.Message(LangEn, errors.New("boom")))
}

func TestMessage_InvalidKey(t *testing.T) {
	tr := newTranslator(t)

	assert.Equal(t,
		`The registration key is invalid, please double-check or contact the administrator`,
		tr.Message(LangEn, apperr.ErrInvalidKey))
}

func TestStruct_PhoneValidation(t *testing.T) {
	tr := newTranslator(t)

	require.NoError(t, tr.Struct(signup{Name: "Ann", PhoneNumber: "+8613800138000"}))

	err := tr.Struct(signup{Name: "Ann", PhoneNumber: "12ab"})
	require.Error(t, err)
	assert.Equal(t, "phone_number must be a valid phone number", tr.Message(LangEn, err))

	fields := tr.Fields(LangEn, err)
	assert.Contains(t, fields, "phone_number")
}

func TestStruct_RequiredUsesJSONName(t *testing.T) {
	tr := newTranslator(t)

	err := tr.Struct(signup{})
	require.Error(t, err)
	assert.Contains(t, tr.Fields(LangEn, err), "name")
}

func TestLang(t *testing.T) {
	tr := newTranslator(t)

	assert.Equal(t, LangZh, tr.Lang("zh-CN,zh;q=0.9,en;q=0.8"))
	assert.Equal(t, LangEn, tr.Lang("en-US,en;q=0.9"))
	assert.Equal(t, LangEn, tr.Lang(""))
	assert.Equal(t, LangEn, tr.Lang("fr-FR"))
}
