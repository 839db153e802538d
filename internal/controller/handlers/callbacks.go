package handlers

import (
	"context"
	"strings"

	"github.com/Freeeeeet/wherewego/internal/controller/keyboard"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleCallbackQuery распределяет нажатия inline кнопок
func (h *Handlers) HandleCallbackQuery(ctx context.Context, _ *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	data := cq.Data

	h.logger.Info("Routing callback",
		zap.String("data", data),
		zap.Int64("telegram_id", cq.From.ID))

	switch {
	case data == keyboard.Noop:
		h.answer(ctx, cq.ID, "", false)
	case strings.HasPrefix(data, keyboard.NewKeyClass):
		h.handleNewKeyClass(ctx, cq)
	case strings.HasPrefix(data, keyboard.KeysPage):
		h.handleKeysPage(ctx, cq)
	case strings.HasPrefix(data, keyboard.KeyCard):
		h.handleKeyCard(ctx, cq)
	case strings.HasPrefix(data, keyboard.KeyDisable):
		h.handleKeyDisable(ctx, cq)
	case data == keyboard.SearchMore:
		h.handleSearchMore(ctx, cq)
	case data == keyboard.SearchFinish:
		h.handleSearchDone(ctx, cq)
	default:
		h.logger.Warn("Unknown callback", zap.String("data", data), zap.Int64("telegram_id", cq.From.ID))
		h.answer(ctx, cq.ID, "❌ Unknown action", false)
	}
}
