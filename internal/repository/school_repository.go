package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/Freeeeeet/wherewego/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SchoolRepository struct {
	*base.Repository
}

func NewSchoolRepository(pool *pgxpool.Pool) *SchoolRepository {
	return &SchoolRepository{Repository: base.NewRepository(pool, base.Constraints{
		"school_name_key": "name",
	})}
}

// Search страница учебных заведений по подстроке названия
func (r *SchoolRepository) Search(ctx context.Context, offset, limit int, text string) ([]*model.School, error) {
	query := `
		SELECT school_uid, name, country, city
		FROM wwg.school
		WHERE lower(name) LIKE $1
		ORDER BY name, school_uid
		OFFSET $2 LIMIT $3
	`

	schools, err := base.QueryAll(ctx, r.Repository, scanSchool, query, likePattern(text), offset, limit)
	if err != nil {
		return nil, fmt.Errorf("search schools: %w", err)
	}
	return schools, nil
}

func scanSchool(row pgx.Row) (*model.School, error) {
	var s model.School
	if err := row.Scan(&s.UID, &s.Name, &s.Country, &s.City); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create добавляет учебное заведение
func (r *SchoolRepository) Create(ctx context.Context, school *model.School) error {
	query := `
		INSERT INTO wwg.school (name, country, city)
		VALUES ($1, $2, $3)
		RETURNING school_uid
	`

	err := r.QueryRow(ctx, query, school.Name, school.Country, school.City).Scan(&school.UID)
	if err != nil {
		return fmt.Errorf("create school: %w", r.Classify(err, map[string]string{"name": school.Name}))
	}

	return nil
}
