package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/wherewego/internal/auth"
	"github.com/Freeeeeet/wherewego/internal/mail"
	"github.com/Freeeeeet/wherewego/internal/metrics"
	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FeedbackNotifier оповещение администраторов о новом обращении
type FeedbackNotifier interface {
	NotifyFeedback(ctx context.Context, f *model.Feedback) error
}

// PublicFeedbackInput обращение без входа
type PublicFeedbackInput struct {
	Reason      string `json:"reason" validate:"required,feedback_reason"`
	Title       string `json:"title" validate:"max=128"`
	Content     string `json:"content" validate:"required,max=4096"`
	Name        string `json:"name" validate:"required,max=64"`
	Email       string `json:"email" validate:"required_without=PhoneNumber,omitempty,email"`
	PhoneNumber string `json:"phone_number" validate:"required_without=Email,omitempty,phone"`
	ClassNumber *int   `json:"class_number" validate:"omitempty,min=1"`
	GradYear    *int   `json:"grad_year" validate:"omitempty,min=1900,max=2999"`
}

// FeedbackInput обращение вошедшего пользователя
type FeedbackInput struct {
	Reason  string `json:"reason" validate:"required,feedback_reason"`
	Title   string `json:"title" validate:"max=128"`
	Content string `json:"content" validate:"required,max=4096"`
}

type FeedbackService struct {
	feedback FeedbackStore
	students StudentStore
	notifier FeedbackNotifier
	mailer   mail.Sender
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewFeedbackService(
	feedback FeedbackStore,
	students StudentStore,
	notifier FeedbackNotifier,
	mailer mail.Sender,
	m *metrics.Metrics,
	logger *zap.Logger,
) *FeedbackService {
	return &FeedbackService{
		feedback: feedback,
		students: students,
		notifier: notifier,
		mailer:   mailer,
		metrics:  m,
		logger:   logger,
	}
}

// SetNotifier подключает оповещение (бот создаётся после сервисов)
func (s *FeedbackService) SetNotifier(n FeedbackNotifier) {
	s.notifier = n
}

// SubmitPublic сохраняет анонимное обращение, возвращает его с кодом
func (s *FeedbackService) SubmitPublic(ctx context.Context, in PublicFeedbackInput) (f *model.Feedback, err error) {
	ctx, span := startSpan(ctx, "FeedbackService.SubmitPublic")
	defer func() { endSpan(span, err) }()

	f = &model.Feedback{
		UID:         uuid.New(),
		Reason:      in.Reason,
		Title:       in.Title,
		Content:     in.Content,
		Name:        in.Name,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		ClassNumber: in.ClassNumber,
		GradYear:    in.GradYear,
		Status:      model.FeedbackStatusPending,
	}

	if err := s.save(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Submit сохраняет обращение от имени пользователя
func (s *FeedbackService) Submit(ctx context.Context, p *auth.Principal, in FeedbackInput) (f *model.Feedback, err error) {
	ctx, span := startSpan(ctx, "FeedbackService.Submit")
	defer func() { endSpan(span, err) }()

	if p == nil {
		return nil, auth.ErrUnauthenticated
	}

	student, err := s.students.GetByUID(ctx, p.StudentUID)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return nil, auth.ErrUnauthenticated
	}

	sender := student.UID
	classNumber, gradYear := student.ClassNumber, student.GradYear
	f = &model.Feedback{
		UID:         uuid.New(),
		Reason:      in.Reason,
		Title:       in.Title,
		Content:     in.Content,
		Name:        student.Name,
		ClassNumber: &classNumber,
		GradYear:    &gradYear,
		SenderUID:   &sender,
		Status:      model.FeedbackStatusPending,
	}
	if student.Email != nil {
		f.Email = *student.Email
	}
	if student.PhoneNumber != nil {
		f.PhoneNumber = *student.PhoneNumber
	}

	if err := s.save(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FeedbackService) save(ctx context.Context, f *model.Feedback) error {
	if err := s.feedback.Create(ctx, f); err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}

	s.metrics.RecordFeedback(f.Reason, f.IsPublic())
	s.logger.Info("Feedback received",
		zap.String("feedback_uid", f.UID.String()),
		zap.String("reason", f.Reason),
		zap.Bool("public", f.IsPublic()))

	// оповещения не влияют на результат отправки формы
	if s.notifier != nil {
		if err := s.notifier.NotifyFeedback(ctx, f); err != nil {
			s.logger.Warn("Failed to notify admins about feedback",
				zap.String("feedback_uid", f.UID.String()),
				zap.Error(err))
		}
	}
	if f.Email != "" && s.mailer != nil {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := s.mailer.Send(sendCtx, mail.FeedbackReceipt(f)); err != nil {
			s.logger.Warn("Failed to send feedback receipt",
				zap.String("feedback_uid", f.UID.String()),
				zap.Error(err))
		}
	}

	return nil
}

// ListOwn обращения пользователя
func (s *FeedbackService) ListOwn(ctx context.Context, p *auth.Principal) ([]*model.Feedback, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}

	items, err := s.feedback.ListBySender(ctx, p.StudentUID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return items, nil
}

// ListRecent последние обращения (администратор системы)
func (s *FeedbackService) ListRecent(ctx context.Context, p *auth.Principal, limit int) ([]*model.Feedback, error) {
	if err := auth.Authorize(p, auth.ActionReadFeedback, auth.Target{}); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	items, err := s.feedback.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent feedback: %w", err)
	}
	return items, nil
}
