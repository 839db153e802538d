package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const recentFeedback = 10

// feedbackText карточка обращения для администратора
func feedbackText(f *model.Feedback) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📨 <b>%s</b>", html.EscapeString(f.Reason))
	if f.Title != "" {
		fmt.Fprintf(&sb, ": %s", html.EscapeString(f.Title))
	}
	sb.WriteByte('\n')

	from := f.Name
	if f.IsPublic() {
		from += " (not logged in)"
	}
	fmt.Fprintf(&sb, "From: %s\n", html.EscapeString(from))
	if f.ClassNumber != nil && f.GradYear != nil {
		fmt.Fprintf(&sb, "Class: %d/%d\n", *f.ClassNumber, *f.GradYear)
	}
	if f.Email != "" {
		fmt.Fprintf(&sb, "Email: %s\n", html.EscapeString(f.Email))
	}
	if f.PhoneNumber != "" {
		fmt.Fprintf(&sb, "Phone: %s\n", html.EscapeString(f.PhoneNumber))
	}
	fmt.Fprintf(&sb, "\n%s", html.EscapeString(f.Content))
	return sb.String()
}

// NotifyFeedback рассылает новое обращение всем администраторам
func (h *Handlers) NotifyFeedback(ctx context.Context, f *model.Feedback) error {
	text := feedbackText(f)

	var errs []error
	for _, id := range h.adminIDs {
		_, err := h.msg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    id,
			Text:      text,
			ParseMode: models.ParseModeHTML,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("notify admin %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (h *Handlers) HandleFeedback(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	items, err := h.feedback.ListRecent(ctx, botPrincipal, recentFeedback)
	if err != nil {
		h.logger.Error("Failed to list feedback", zap.Error(err))
		h.sendMessage(ctx, chatID, h.errorText(err), nil)
		return
	}
	if len(items) == 0 {
		h.sendMessage(ctx, chatID, "📭 No feedback yet.", nil)
		return
	}

	for _, f := range items {
		h.sendMessage(ctx, chatID, feedbackText(f)+"\n\n<i>"+f.PostedAt.Format("2006-01-02 15:04")+"</i>", nil)
	}
}
