package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/wherewego/internal/apperr"
	"github.com/Freeeeeet/wherewego/internal/auth"
	"github.com/Freeeeeet/wherewego/internal/metrics"
	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/Freeeeeet/wherewego/internal/search"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput форма регистрации по ключу
type RegisterInput struct {
	Key         string `json:"registration_key" validate:"required"`
	Name        string `json:"name" validate:"required,max=64"`
	PhoneNumber string `json:"phone_number" validate:"required_without=Email,omitempty,phone"`
	Email       string `json:"email" validate:"required_without=PhoneNumber,omitempty,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	WxID        string `json:"wxid" validate:"max=64"`
	Department  string `json:"department" validate:"max=128"`
	Major       string `json:"major" validate:"max=128"`
	SchoolUID   *int64 `json:"school_uid"`
	Visibility  string `json:"visibility" validate:"omitempty,visibility"`
}

// UpdateInput форма изменения анкеты; StudentUID 0 означает себя
type UpdateInput struct {
	StudentUID  int64  `json:"student_uid"`
	Name        string `json:"name" validate:"required,max=64"`
	PhoneNumber string `json:"phone_number" validate:"required_without=Email,omitempty,phone"`
	Email       string `json:"email" validate:"required_without=PhoneNumber,omitempty,email"`
	Password    string `json:"password" validate:"omitempty,min=8,max=72"`
	WxID        string `json:"wxid" validate:"max=64"`
	Department  string `json:"department" validate:"max=128"`
	Major       string `json:"major" validate:"max=128"`
	SchoolUID   *int64 `json:"school_uid"`
	Visibility  string `json:"visibility" validate:"omitempty,visibility"`
}

type StudentService struct {
	students   StudentStore
	keys       RegistrationKeyStore
	bcryptCost int
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

func NewStudentService(
	students StudentStore,
	keys RegistrationKeyStore,
	bcryptCost int,
	m *metrics.Metrics,
	logger *zap.Logger,
) *StudentService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &StudentService{
		students:   students,
		keys:       keys,
		bcryptCost: bcryptCost,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// Register создаёт аккаунт по действующему ключу; класс, год выпуска и
// программа берутся из ключа
func (s *StudentService) Register(ctx context.Context, in RegisterInput) (student *model.Student, err error) {
	ctx, span := startSpan(ctx, "StudentService.Register")
	defer func() { endSpan(span, err) }()

	key, err := s.keys.GetValid(ctx, in.Key, s.now())
	if err != nil {
		return nil, fmt.Errorf("get registration key: %w", err)
	}
	if key == nil {
		s.logger.Info("Registration with invalid key", zap.String("key", in.Key))
		return nil, apperr.ErrInvalidKey
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	visibility := model.Visibility(in.Visibility)
	if visibility == "" {
		visibility = model.VisibilityClass
	}

	student = &model.Student{
		Name:          in.Name,
		PhoneNumber:   optional(in.PhoneNumber),
		Email:         optional(in.Email),
		PasswordHash:  string(hash),
		WxID:          optional(in.WxID),
		Department:    optional(in.Department),
		Major:         optional(in.Major),
		ClassNumber:   key.ClassNumber,
		GradYear:      key.GradYear,
		CurriculumUID: key.CurriculumUID,
		Curriculum:    key.Curriculum,
		SchoolUID:     in.SchoolUID,
		Role:          model.RoleStudent,
		Visibility:    visibility,
	}

	if err := s.students.Create(ctx, student); err != nil {
		s.logger.Warn("Failed to create student", zap.String("key", in.Key), zap.Error(err))
		return nil, fmt.Errorf("create student: %w", err)
	}

	s.metrics.RecordRegistration()
	span.SetAttributes(attribute.Int64("student_uid", student.UID))
	s.logger.Info("Student registered",
		zap.Int64("student_uid", student.UID),
		zap.Int("class_number", student.ClassNumber),
		zap.Int("grad_year", student.GradYear))

	return student, nil
}

// Authenticate проверяет email или телефон и пароль
func (s *StudentService) Authenticate(ctx context.Context, identifier, password string) (student *model.Student, err error) {
	ctx, span := startSpan(ctx, "StudentService.Authenticate")
	defer func() { endSpan(span, err) }()

	student, err = s.students.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return nil, apperr.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}

	return student, nil
}

// Principal загружает пользователя сессии
func (s *StudentService) Principal(ctx context.Context, uid int64) (*auth.Principal, error) {
	student, err := s.students.GetByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return nil, nil
	}
	return auth.PrincipalOf(student), nil
}

// Get анкета студента uid (0 - своя) с проверкой видимости
func (s *StudentService) Get(ctx context.Context, p *auth.Principal, uid int64) (student *model.Student, err error) {
	ctx, span := startSpan(ctx, "StudentService.Get")
	defer func() { endSpan(span, err) }()

	if p == nil {
		return nil, auth.ErrUnauthenticated
	}
	if uid == 0 {
		uid = p.StudentUID
	}

	student, err = s.students.GetByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return nil, apperr.ErrNotFound
	}

	if err := auth.Authorize(p, auth.ActionReadStudent, auth.StudentTarget(student)); err != nil {
		return nil, err
	}

	return student, nil
}

// Update изменяет анкету: свою или студента из административной зоны
func (s *StudentService) Update(ctx context.Context, p *auth.Principal, in UpdateInput) (student *model.Student, err error) {
	ctx, span := startSpan(ctx, "StudentService.Update")
	defer func() { endSpan(span, err) }()

	if p == nil {
		return nil, auth.ErrUnauthenticated
	}
	uid := in.StudentUID
	if uid == 0 {
		uid = p.StudentUID
	}

	student, err = s.students.GetByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return nil, apperr.ErrNotFound
	}

	if err := auth.Authorize(p, auth.ActionUpdateStudent, auth.StudentTarget(student)); err != nil {
		s.logger.Warn("Update forbidden",
			zap.Int64("actor_uid", p.StudentUID),
			zap.Int64("student_uid", uid))
		return nil, err
	}

	student.Name = in.Name
	student.PhoneNumber = optional(in.PhoneNumber)
	student.Email = optional(in.Email)
	student.WxID = optional(in.WxID)
	student.Department = optional(in.Department)
	student.Major = optional(in.Major)
	student.SchoolUID = in.SchoolUID
	if in.Visibility != "" {
		student.Visibility = model.Visibility(in.Visibility)
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		student.PasswordHash = string(hash)
	}

	// анкета и пароль пишутся одним запросом
	affected, err := s.students.Update(ctx, student)
	if err != nil {
		return nil, fmt.Errorf("update student: %w", err)
	}
	if affected == 0 {
		return nil, apperr.ErrNotFound
	}

	s.logger.Info("Student updated",
		zap.Int64("actor_uid", p.StudentUID),
		zap.Int64("student_uid", uid))

	return student, nil
}

// Delete удаляет студента; false если никого не удалили
func (s *StudentService) Delete(ctx context.Context, p *auth.Principal, uid int64) (deleted bool, err error) {
	ctx, span := startSpan(ctx, "StudentService.Delete")
	defer func() { endSpan(span, err) }()

	if p == nil {
		return false, auth.ErrUnauthenticated
	}

	student, err := s.students.GetByUID(ctx, uid)
	if err != nil {
		return false, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return false, nil
	}

	if err := auth.Authorize(p, auth.ActionDeleteStudent, auth.StudentTarget(student)); err != nil {
		s.logger.Warn("Delete forbidden",
			zap.Int64("actor_uid", p.StudentUID),
			zap.Int64("student_uid", uid))
		return false, err
	}

	affected, err := s.students.Delete(ctx, uid)
	if err != nil {
		return false, fmt.Errorf("delete student: %w", err)
	}

	s.logger.Info("Student deleted",
		zap.Int64("actor_uid", p.StudentUID),
		zap.Int64("student_uid", uid),
		zap.Int64("affected", affected))

	return affected > 0, nil
}

// SetRole назначает роль; назначающий должен покрывать цель и быть выше новой роли
func (s *StudentService) SetRole(ctx context.Context, p *auth.Principal, uid int64, role model.Role) (err error) {
	ctx, span := startSpan(ctx, "StudentService.SetRole")
	defer func() { endSpan(span, err) }()

	if p == nil {
		return auth.ErrUnauthenticated
	}
	if !role.Valid() {
		return apperr.Validation("role", string(role))
	}

	student, err := s.students.GetByUID(ctx, uid)
	if err != nil {
		return fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return apperr.ErrNotFound
	}

	if err := auth.Authorize(p, auth.ActionUpdateStudent, auth.StudentTarget(student)); err != nil {
		return err
	}
	if student.UID == p.StudentUID || role.Rank() >= p.Role.Rank() {
		return auth.ErrForbidden
	}

	if _, err := s.students.UpdateRole(ctx, uid, role); err != nil {
		return fmt.Errorf("update role: %w", err)
	}

	s.logger.Info("Role changed",
		zap.Int64("actor_uid", p.StudentUID),
		zap.Int64("student_uid", uid),
		zap.String("role", string(role)))

	return nil
}

// Search страница студентов, видимых пользователю
func (s *StudentService) Search(ctx context.Context, p *auth.Principal, q search.Query) (items []model.StudentBrief, err error) {
	ctx, span := startSpan(ctx, "StudentService.Search")
	defer func() { endSpan(span, err) }()

	if p == nil {
		return nil, auth.ErrUnauthenticated
	}
	q = normalizeQuery(q)
	span.SetAttributes(
		attribute.String("search.text", q.Text),
		attribute.Int("search.offset", q.Offset),
		attribute.Int("search.limit", q.Limit))

	students, err := s.students.Search(ctx, p, q.Offset, q.Limit, q.Text)
	if err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}

	s.metrics.RecordSearch("student")

	items = make([]model.StudentBrief, 0, len(students))
	for _, st := range students {
		items = append(items, st.Brief())
	}
	return items, nil
}
