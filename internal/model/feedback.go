package model

import (
	"time"

	"github.com/google/uuid"
)

type FeedbackStatus string

const (
	FeedbackStatusPending  FeedbackStatus = "pending"
	FeedbackStatusResolved FeedbackStatus = "resolved"
	FeedbackStatusClosed   FeedbackStatus = "closed"
)

// FeedbackReasons допустимые причины обращения
var FeedbackReasons = []string{"registration", "reset password", "update info", "improvement", "general"}

type Feedback struct {
	UID         uuid.UUID      `json:"feedback_uid"`
	Reason      string         `json:"reason"`
	Title       string         `json:"title,omitempty"`
	Content     string         `json:"content,omitempty"`
	Name        string         `json:"name,omitempty"`
	Email       string         `json:"email,omitempty"`
	PhoneNumber string         `json:"phone_number,omitempty"`
	ClassNumber *int           `json:"class_number,omitempty"`
	GradYear    *int           `json:"grad_year,omitempty"`
	SenderUID   *int64         `json:"sender_uid,omitempty"` // nil для анонимных обращений
	Status      FeedbackStatus `json:"status"`
	PostedAt    time.Time      `json:"posted_at"`
}

// IsPublic отправлено ли без входа
func (f *Feedback) IsPublic() bool {
	return f.SenderUID == nil
}
