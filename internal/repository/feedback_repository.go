package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/Freeeeeet/wherewego/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const feedbackColumns = `
	feedback_uid, reason, title, content, name, email, phone_number,
	class_number, grad_year, sender_uid, status, posted_at
`

type FeedbackRepository struct {
	*base.Repository
}

func NewFeedbackRepository(pool *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{Repository: base.NewRepository(pool, base.Constraints{
		"feedback_sender_uid_fkey": "sender_uid",
	})}
}

// Create сохраняет обращение; UID генерирует вызывающий
func (r *FeedbackRepository) Create(ctx context.Context, f *model.Feedback) error {
	query := `
		INSERT INTO wwg.feedback (feedback_uid, reason, title, content, name, email, phone_number,
			class_number, grad_year, sender_uid, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING posted_at
	`

	err := r.QueryRow(
		ctx, query,
		f.UID,
		f.Reason,
		f.Title,
		f.Content,
		f.Name,
		f.Email,
		f.PhoneNumber,
		f.ClassNumber,
		f.GradYear,
		f.SenderUID,
		f.Status,
	).Scan(&f.PostedAt)

	if err != nil {
		return fmt.Errorf("create feedback: %w", r.Classify(err, nil))
	}

	return nil
}

// ListBySender обращения пользователя, новые первыми
func (r *FeedbackRepository) ListBySender(ctx context.Context, senderUID int64) ([]*model.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM wwg.feedback WHERE sender_uid = $1 ORDER BY posted_at DESC`
	return r.list(ctx, query, senderUID)
}

// ListRecent последние обращения для администратора системы
func (r *FeedbackRepository) ListRecent(ctx context.Context, limit int) ([]*model.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM wwg.feedback ORDER BY posted_at DESC LIMIT $1`
	return r.list(ctx, query, limit)
}

func (r *FeedbackRepository) list(ctx context.Context, query string, args ...any) ([]*model.Feedback, error) {
	items, err := base.QueryAll(ctx, r.Repository, scanFeedback, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return items, nil
}

func scanFeedback(row pgx.Row) (*model.Feedback, error) {
	var f model.Feedback
	err := row.Scan(
		&f.UID,
		&f.Reason,
		&f.Title,
		&f.Content,
		&f.Name,
		&f.Email,
		&f.PhoneNumber,
		&f.ClassNumber,
		&f.GradYear,
		&f.SenderUID,
		&f.Status,
		&f.PostedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
