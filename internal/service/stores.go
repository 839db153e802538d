package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/wherewego/internal/auth"
	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/Freeeeeet/wherewego/internal/search"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Хранилища, которые реализует пакет repository

type StudentStore interface {
	Create(ctx context.Context, s *model.Student) error
	GetByUID(ctx context.Context, uid int64) (*model.Student, error)
	GetByIdentifier(ctx context.Context, identifier string) (*model.Student, error)
	Update(ctx context.Context, s *model.Student) (int64, error)
	UpdateRole(ctx context.Context, uid int64, role model.Role) (int64, error)
	Delete(ctx context.Context, uid int64) (int64, error)
	Search(ctx context.Context, viewer *auth.Principal, offset, limit int, text string) ([]*model.Student, error)
}

type RegistrationKeyStore interface {
	Create(ctx context.Context, key *model.RegistrationKey) error
	Get(ctx context.Context, key string) (*model.RegistrationKey, error)
	GetValid(ctx context.Context, key string, now time.Time) (*model.RegistrationKey, error)
	Exists(ctx context.Context, key string) (bool, error)
	ListByScope(ctx context.Context, p *auth.Principal) ([]*model.RegistrationKey, error)
	Update(ctx context.Context, key string, expiration time.Time, activated bool) (int64, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type ClassStore interface {
	Get(ctx context.Context, classNumber, gradYear int) (*model.Class, error)
	ListByScope(ctx context.Context, p *auth.Principal) ([]*model.Class, error)
	Create(ctx context.Context, class *model.Class) error
}

type SchoolStore interface {
	Search(ctx context.Context, offset, limit int, text string) ([]*model.School, error)
	Create(ctx context.Context, school *model.School) error
}

type FeedbackStore interface {
	Create(ctx context.Context, f *model.Feedback) error
	ListBySender(ctx context.Context, senderUID int64) ([]*model.Feedback, error)
	ListRecent(ctx context.Context, limit int) ([]*model.Feedback, error)
}

// MaxPageLimit верхняя граница размера страницы поиска
const MaxPageLimit = 50

var tracer = otel.Tracer("github.com/Freeeeeet/wherewego/internal/service")

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}

// endSpan закрывает span с учётом ошибки
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// normalizeQuery ограничивает offset и limit страницы
func normalizeQuery(q search.Query) search.Query {
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Limit <= 0 {
		q.Limit = search.DefaultLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	return q
}

// optional пустая строка превращается в NULL
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
