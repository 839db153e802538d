package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/wherewego/internal/auth"
	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/Freeeeeet/wherewego/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ClassRepository struct {
	*base.Repository
}

func NewClassRepository(pool *pgxpool.Pool) *ClassRepository {
	return &ClassRepository{Repository: base.NewRepository(pool, base.Constraints{
		"class_pkey":                "class",
		"class_curriculum_uid_fkey": "curriculum_uid",
	})}
}

// Get получает класс по номеру и году выпуска
func (r *ClassRepository) Get(ctx context.Context, classNumber, gradYear int) (*model.Class, error) {
	query := `
		SELECT c.class_number, c.grad_year, c.curriculum_uid, cu.name
		FROM wwg.class c
		JOIN wwg.curriculum cu ON cu.curriculum_uid = c.curriculum_uid
		WHERE c.class_number = $1 AND c.grad_year = $2
	`

	class, err := base.QueryOne(ctx, r.Repository, scanClass, query, classNumber, gradYear)
	if err != nil {
		return nil, fmt.Errorf("get class: %w", err)
	}
	return class, nil
}

// ListByScope классы в административной зоне пользователя
func (r *ClassRepository) ListByScope(ctx context.Context, p *auth.Principal) ([]*model.Class, error) {
	scope, args := scopeClause(p, "c.class_number", "c.grad_year", "c.curriculum_uid", 1)

	query := `
		SELECT c.class_number, c.grad_year, c.curriculum_uid, cu.name
		FROM wwg.class c
		JOIN wwg.curriculum cu ON cu.curriculum_uid = c.curriculum_uid
		WHERE ` + scope + `
		ORDER BY c.grad_year DESC, c.class_number
	`

	classes, err := base.QueryAll(ctx, r.Repository, scanClass, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

func scanClass(row pgx.Row) (*model.Class, error) {
	var c model.Class
	if err := row.Scan(&c.ClassNumber, &c.GradYear, &c.CurriculumUID, &c.Curriculum); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create добавляет класс
func (r *ClassRepository) Create(ctx context.Context, class *model.Class) error {
	query := `INSERT INTO wwg.class (class_number, grad_year, curriculum_uid) VALUES ($1, $2, $3)`

	if _, err := r.ExecAffected(ctx, query, class.ClassNumber, class.GradYear, class.CurriculumUID); err != nil {
		return fmt.Errorf("create class: %w", r.Classify(err, map[string]string{
			"class":          fmt.Sprintf("Class %d of %d", class.ClassNumber, class.GradYear),
			"curriculum_uid": fmt.Sprintf("%d", class.CurriculumUID),
		}))
	}

	return nil
}
