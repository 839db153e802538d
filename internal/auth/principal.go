package auth

import (
	"context"

	"github.com/Freeeeeet/wherewego/internal/model"
)

// Principal аутентифицированный пользователь запроса
type Principal struct {
	StudentUID    int64
	Role          model.Role
	ClassNumber   int
	GradYear      int
	CurriculumUID int64
}

// PrincipalOf строит Principal из записи студента
func PrincipalOf(s *model.Student) *Principal {
	return &Principal{
		StudentUID:    s.UID,
		Role:          s.Role,
		ClassNumber:   s.ClassNumber,
		GradYear:      s.GradYear,
		CurriculumUID: s.CurriculumUID,
	}
}

type principalKey struct{}

// WithPrincipal кладёт Principal в контекст
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext достаёт Principal; nil если запрос анонимный
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
