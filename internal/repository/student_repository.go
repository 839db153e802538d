package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Freeeeeet/wherewego/internal/auth"
	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/Freeeeeet/wherewego/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var studentConstraints = base.Constraints{
	"student_phone_number_key": "phone_number",
	"student_email_key":        "email",
	"student_wxid_key":         "wxid",
	"student_school_uid_fkey":  "school_uid",
	"student_class_fkey":       "class",
	"student_contact_check":    "email",
}

const studentColumns = `
	s.student_uid, s.name, s.phone_number, s.email, s.password_hash, s.wxid, s.department, s.major,
	s.class_number, s.grad_year, c.curriculum_uid, cu.name, s.school_uid, COALESCE(sc.name, ''),
	s.role, s.visibility, s.created_at
`

const studentFrom = `
	FROM wwg.student s
	JOIN wwg.class c ON c.class_number = s.class_number AND c.grad_year = s.grad_year
	JOIN wwg.curriculum cu ON cu.curriculum_uid = c.curriculum_uid
	LEFT JOIN wwg.school sc ON sc.school_uid = s.school_uid
`

type StudentRepository struct {
	*base.Repository
}

func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{Repository: base.NewRepository(pool, studentConstraints)}
}

// studentValues значения полей для текста ошибок ограничений
func studentValues(s *model.Student) map[string]string {
	values := map[string]string{
		"class": fmt.Sprintf("Class %d of %d", s.ClassNumber, s.GradYear),
	}
	if s.PhoneNumber != nil {
		values["phone_number"] = *s.PhoneNumber
	}
	if s.Email != nil {
		values["email"] = *s.Email
	}
	if s.WxID != nil {
		values["wxid"] = *s.WxID
	}
	if s.SchoolUID != nil {
		values["school_uid"] = strconv.FormatInt(*s.SchoolUID, 10)
	}
	return values
}

func scanStudent(row pgx.Row) (*model.Student, error) {
	var s model.Student
	err := row.Scan(
		&s.UID,
		&s.Name,
		&s.PhoneNumber,
		&s.Email,
		&s.PasswordHash,
		&s.WxID,
		&s.Department,
		&s.Major,
		&s.ClassNumber,
		&s.GradYear,
		&s.CurriculumUID,
		&s.Curriculum,
		&s.SchoolUID,
		&s.SchoolName,
		&s.Role,
		&s.Visibility,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create создаёт студента
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	query := `
		INSERT INTO wwg.student (name, phone_number, email, password_hash, wxid, department, major,
			class_number, grad_year, school_uid, role, visibility)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING student_uid, created_at
	`

	err := r.QueryRow(
		ctx, query,
		s.Name,
		s.PhoneNumber,
		s.Email,
		s.PasswordHash,
		s.WxID,
		s.Department,
		s.Major,
		s.ClassNumber,
		s.GradYear,
		s.SchoolUID,
		s.Role,
		s.Visibility,
	).Scan(&s.UID, &s.CreatedAt)

	if err != nil {
		return fmt.Errorf("create student: %w", r.Classify(err, studentValues(s)))
	}

	return nil
}

// GetByUID получает студента по идентификатору
func (r *StudentRepository) GetByUID(ctx context.Context, uid int64) (*model.Student, error) {
	query := `SELECT ` + studentColumns + studentFrom + ` WHERE s.student_uid = $1`

	s, err := base.QueryOne(ctx, r.Repository, scanStudent, query, uid)
	if err != nil {
		return nil, fmt.Errorf("get student by uid: %w", err)
	}
	return s, nil
}

// GetByIdentifier ищет студента по email или номеру телефона
func (r *StudentRepository) GetByIdentifier(ctx context.Context, identifier string) (*model.Student, error) {
	query := `SELECT ` + studentColumns + studentFrom + ` WHERE s.email = $1 OR s.phone_number = $1`

	s, err := base.QueryOne(ctx, r.Repository, scanStudent, query, identifier)
	if err != nil {
		return nil, fmt.Errorf("get student by identifier: %w", err)
	}
	return s, nil
}

// Update обновляет анкету вместе с хешем пароля, возвращает количество затронутых строк
func (r *StudentRepository) Update(ctx context.Context, s *model.Student) (int64, error) {
	query := `
		UPDATE wwg.student
		SET name = $2, phone_number = $3, email = $4, wxid = $5, department = $6, major = $7,
			school_uid = $8, visibility = $9, password_hash = $10
		WHERE student_uid = $1
	`

	affected, err := r.ExecAffected(
		ctx, query,
		s.UID,
		s.Name,
		s.PhoneNumber,
		s.Email,
		s.WxID,
		s.Department,
		s.Major,
		s.SchoolUID,
		s.Visibility,
		s.PasswordHash,
	)
	if err != nil {
		return 0, fmt.Errorf("update student: %w", r.Classify(err, studentValues(s)))
	}

	return affected, nil
}

// UpdateRole назначает роль
func (r *StudentRepository) UpdateRole(ctx context.Context, uid int64, role model.Role) (int64, error) {
	query := `UPDATE wwg.student SET role = $2 WHERE student_uid = $1`

	affected, err := r.ExecAffected(ctx, query, uid, role)
	if err != nil {
		return 0, fmt.Errorf("update student role: %w", err)
	}

	return affected, nil
}

// Delete удаляет студента, возвращает количество удалённых строк
func (r *StudentRepository) Delete(ctx context.Context, uid int64) (int64, error) {
	query := `DELETE FROM wwg.student WHERE student_uid = $1`

	affected, err := r.ExecAffected(ctx, query, uid)
	if err != nil {
		return 0, fmt.Errorf("delete student: %w", err)
	}

	return affected, nil
}

// Search страница студентов по подстроке имени, видимых пользователю:
// свои, попавшие в административную зону и открытые настройкой видимости
func (r *StudentRepository) Search(ctx context.Context, viewer *auth.Principal, offset, limit int, text string) ([]*model.Student, error) {
	scope, scopeArgs := scopeClause(viewer, "s.class_number", "s.grad_year", "c.curriculum_uid", 8)

	query := `SELECT ` + studentColumns + studentFrom + `
		WHERE lower(s.name) LIKE $1
		AND (
			s.student_uid = $2
			OR ` + scope + `
			OR s.visibility = 'students'
			OR (s.visibility = 'year' AND s.grad_year = $3)
			OR (s.visibility = 'curriculum' AND s.grad_year = $3 AND c.curriculum_uid = $4)
			OR (s.visibility = 'class' AND s.grad_year = $3 AND s.class_number = $5)
		)
		ORDER BY s.name, s.student_uid
		OFFSET $6 LIMIT $7
	`

	args := []any{likePattern(text), viewer.StudentUID, viewer.GradYear, viewer.CurriculumUID, viewer.ClassNumber, offset, limit}
	args = append(args, scopeArgs...)

	students, err := base.QueryAll(ctx, r.Repository, scanStudent, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return students, nil
}
