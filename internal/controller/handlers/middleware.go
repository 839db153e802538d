package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

func senderID(update *models.Update) int64 {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From.ID
	}
	return 0
}

// IsAdmin входит ли telegram ID в список ADMIN_TELEGRAM_IDS
func (h *Handlers) IsAdmin(telegramID int64) bool {
	return h.admins[telegramID]
}

// AdminOnly пропускает к next только администраторов
func (h *Handlers) AdminOnly(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		id := senderID(update)
		if h.IsAdmin(id) {
			next(ctx, b, update)
			return
		}

		h.logger.Warn("Rejected non-admin update", zap.Int64("telegram_id", id))
		switch {
		case update.CallbackQuery != nil:
			h.answer(ctx, update.CallbackQuery.ID, "❌ Not allowed", true)
		case update.Message != nil:
			h.sendMessage(ctx, update.Message.Chat.ID, "❌ This bot is for WWG administrators only.", nil)
		}
	}
}
