package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/wherewego/internal/auth"
	"github.com/Freeeeeet/wherewego/internal/metrics"
	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/Freeeeeet/wherewego/internal/search"
	"go.uber.org/zap"
)

// SchoolInput новое учебное заведение
type SchoolInput struct {
	Name    string `json:"name" validate:"required,max=128"`
	Country string `json:"country" validate:"max=64"`
	City    string `json:"city" validate:"max=64"`
}

type SchoolService struct {
	schools SchoolStore
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewSchoolService(schools SchoolStore, m *metrics.Metrics, logger *zap.Logger) *SchoolService {
	return &SchoolService{schools: schools, metrics: m, logger: logger}
}

// Search страница учебных заведений по подстроке названия
func (s *SchoolService) Search(ctx context.Context, q search.Query) (schools []*model.School, err error) {
	ctx, span := startSpan(ctx, "SchoolService.Search")
	defer func() { endSpan(span, err) }()

	q = normalizeQuery(q)
	schools, err = s.schools.Search(ctx, q.Offset, q.Limit, q.Text)
	if err != nil {
		return nil, fmt.Errorf("search schools: %w", err)
	}

	s.metrics.RecordSearch("school")
	return schools, nil
}

// Create добавляет учебное заведение (любой вошедший пользователь)
func (s *SchoolService) Create(ctx context.Context, p *auth.Principal, in SchoolInput) (school *model.School, err error) {
	ctx, span := startSpan(ctx, "SchoolService.Create")
	defer func() { endSpan(span, err) }()

	if p == nil {
		return nil, auth.ErrUnauthenticated
	}

	school = &model.School{Name: in.Name, Country: in.Country, City: in.City}
	if err := s.schools.Create(ctx, school); err != nil {
		return nil, fmt.Errorf("create school: %w", err)
	}

	s.logger.Info("School created",
		zap.Int64("school_uid", school.UID),
		zap.String("name", school.Name),
		zap.Int64("actor_uid", p.StudentUID))

	return school, nil
}

type ClassService struct {
	classes ClassStore
	logger  *zap.Logger
}

func NewClassService(classes ClassStore, logger *zap.Logger) *ClassService {
	return &ClassService{classes: classes, logger: logger}
}

// ListManageable классы, для которых пользователь может выпускать ключи
func (s *ClassService) ListManageable(ctx context.Context, p *auth.Principal) ([]*model.Class, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}
	if !p.Role.IsAdmin() {
		return nil, auth.ErrForbidden
	}

	classes, err := s.classes.ListByScope(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// Get класс по номеру и году выпуска
func (s *ClassService) Get(ctx context.Context, classNumber, gradYear int) (*model.Class, error) {
	return s.classes.Get(ctx, classNumber, gradYear)
}

// Ensure возвращает класс, создавая его при необходимости (выпуск ключей из CLI)
func (s *ClassService) Ensure(ctx context.Context, classNumber, gradYear int, curriculumUID int64) (*model.Class, error) {
	class, err := s.classes.Get(ctx, classNumber, gradYear)
	if err != nil {
		return nil, fmt.Errorf("get class: %w", err)
	}
	if class != nil {
		return class, nil
	}

	class = &model.Class{ClassNumber: classNumber, GradYear: gradYear, CurriculumUID: curriculumUID}
	if err := s.classes.Create(ctx, class); err != nil {
		return nil, fmt.Errorf("create class: %w", err)
	}

	s.logger.Info("Class created",
		zap.Int("class_number", classNumber),
		zap.Int("grad_year", gradYear),
		zap.Int64("curriculum_uid", curriculumUID))

	return s.classes.Get(ctx, classNumber, gradYear)
}
