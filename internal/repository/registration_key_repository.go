package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/wherewego/internal/auth"
	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/Freeeeeet/wherewego/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var registrationKeyConstraints = base.Constraints{
	"registration_key_pkey":       "registration_key",
	"registration_key_class_fkey": "class",
}

const keyColumns = `
	k.registration_key, k.class_number, k.grad_year, c.curriculum_uid, cu.name,
	k.expiration_date, k.activated, k.created_by, k.created_at
`

const keyFrom = `
	FROM wwg.registration_key k
	JOIN wwg.class c ON c.class_number = k.class_number AND c.grad_year = k.grad_year
	JOIN wwg.curriculum cu ON cu.curriculum_uid = c.curriculum_uid
`

type RegistrationKeyRepository struct {
	*base.Repository
}

func NewRegistrationKeyRepository(pool *pgxpool.Pool) *RegistrationKeyRepository {
	return &RegistrationKeyRepository{Repository: base.NewRepository(pool, registrationKeyConstraints)}
}

func scanKey(row pgx.Row) (*model.RegistrationKey, error) {
	var k model.RegistrationKey
	err := row.Scan(
		&k.Key,
		&k.ClassNumber,
		&k.GradYear,
		&k.CurriculumUID,
		&k.Curriculum,
		&k.ExpirationDate,
		&k.Activated,
		&k.CreatedBy,
		&k.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// Create сохраняет новый ключ регистрации
func (r *RegistrationKeyRepository) Create(ctx context.Context, key *model.RegistrationKey) error {
	query := `
		INSERT INTO wwg.registration_key (registration_key, class_number, grad_year, expiration_date, activated, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.QueryRow(
		ctx, query,
		key.Key,
		key.ClassNumber,
		key.GradYear,
		key.ExpirationDate,
		key.Activated,
		key.CreatedBy,
	).Scan(&key.CreatedAt)

	if err != nil {
		return fmt.Errorf("create registration key: %w", r.Classify(err, map[string]string{
			"registration_key": key.Key,
			"class":            fmt.Sprintf("Class %d of %d", key.ClassNumber, key.GradYear),
		}))
	}

	return nil
}

// Get получает ключ без проверки срока действия
func (r *RegistrationKeyRepository) Get(ctx context.Context, key string) (*model.RegistrationKey, error) {
	query := `SELECT ` + keyColumns + keyFrom + ` WHERE k.registration_key = $1`

	k, err := base.QueryOne(ctx, r.Repository, scanKey, query, key)
	if err != nil {
		return nil, fmt.Errorf("get registration key: %w", err)
	}
	return k, nil
}

// GetValid получает активный и не истёкший на момент now ключ
func (r *RegistrationKeyRepository) GetValid(ctx context.Context, key string, now time.Time) (*model.RegistrationKey, error) {
	query := `SELECT ` + keyColumns + keyFrom + `
		WHERE k.registration_key = $1 AND k.activated = true AND k.expiration_date > $2
	`

	k, err := base.QueryOne(ctx, r.Repository, scanKey, query, key, now)
	if err != nil {
		return nil, fmt.Errorf("get valid registration key: %w", err)
	}
	return k, nil
}

// Exists проверяет существование ключа
func (r *RegistrationKeyRepository) Exists(ctx context.Context, key string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM wwg.registration_key WHERE registration_key = $1)`

	var exists bool
	if err := r.QueryRow(ctx, query, key).Scan(&exists); err != nil {
		return false, fmt.Errorf("check registration key exists: %w", err)
	}

	return exists, nil
}

// ListByScope ключи классов из административной зоны пользователя, новые первыми
func (r *RegistrationKeyRepository) ListByScope(ctx context.Context, p *auth.Principal) ([]*model.RegistrationKey, error) {
	scope, args := scopeClause(p, "k.class_number", "k.grad_year", "c.curriculum_uid", 1)

	query := `SELECT ` + keyColumns + keyFrom + ` WHERE ` + scope + ` ORDER BY k.created_at DESC`

	keys, err := base.QueryAll(ctx, r.Repository, scanKey, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list registration keys: %w", err)
	}
	return keys, nil
}

// Update меняет срок действия и активность ключа
func (r *RegistrationKeyRepository) Update(ctx context.Context, key string, expiration time.Time, activated bool) (int64, error) {
	query := `
		UPDATE wwg.registration_key
		SET expiration_date = $2, activated = $3
		WHERE registration_key = $1
	`

	affected, err := r.ExecAffected(ctx, query, key, expiration, activated)
	if err != nil {
		return 0, fmt.Errorf("update registration key: %w", err)
	}

	return affected, nil
}

// DeactivateExpired снимает активность с истёкших ключей
func (r *RegistrationKeyRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE wwg.registration_key
		SET activated = false
		WHERE activated = true AND expiration_date <= $1
	`

	affected, err := r.ExecAffected(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired registration keys: %w", err)
	}

	return affected, nil
}
