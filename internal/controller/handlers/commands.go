package handlers

import (
	"context"
	"strings"

	"github.com/Freeeeeet/wherewego/internal/controller/state"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "📚 <b>WWG admin bot</b>\n\n" +
	"/newkey - Issue a registration key\n" +
	"/keys - Registration keys\n" +
	"/search [name] - Find students\n" +
	"/feedback - Recent feedback\n" +
	"/cancel - Cancel the current action\n" +
	"/help - Show this help"

func (h *Handlers) HandleStart(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, update.Message.Chat.ID, "👋 Hi, "+update.Message.From.FirstName+"!\n\n"+helpText, nil)
}

func (h *Handlers) HandleHelp(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, update.Message.Chat.ID, helpText, nil)
}

// HandleCancel сбрасывает диалог и закрывает поиск
func (h *Handlers) HandleCancel(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	hadSearch := h.closeSearch(chatID)

	if h.stateManager.GetState(telegramID) == state.StateNone && !hadSearch {
		h.sendMessage(ctx, chatID, "❌ Nothing to cancel.", nil)
		return
	}

	h.stateManager.ClearState(telegramID)
	h.sendMessage(ctx, chatID, "✅ Cancelled.", nil)
}

// commandRoutes команды бота; всё, кроме /start и /help, только для администраторов
func (h *Handlers) commandRoutes() map[string]bot.HandlerFunc {
	return map[string]bot.HandlerFunc{
		"/start":    h.HandleStart,
		"/help":     h.HandleHelp,
		"/cancel":   h.AdminOnly(h.HandleCancel),
		"/newkey":   h.AdminOnly(h.HandleNewKey),
		"/keys":     h.AdminOnly(h.HandleKeys),
		"/search":   h.AdminOnly(h.HandleSearch),
		"/feedback": h.AdminOnly(h.HandleFeedback),
	}
}

// commandName "/search@wwg_bot ann" -> "/search"
func commandName(text string) string {
	name, _, _ := strings.Cut(text, " ")
	name, _, _ = strings.Cut(name, "@")
	return name
}

// HandleTextMessage единая точка входа для текста: команды и шаги диалогов
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	if strings.HasPrefix(update.Message.Text, "/") {
		name := commandName(update.Message.Text)
		if handler, ok := h.routes[name]; ok {
			handler(ctx, b, update)
			return
		}
		h.sendMessage(ctx, update.Message.Chat.ID, "❓ Unknown command. See /help.", nil)
		return
	}
	h.AdminOnly(h.handleDialogText)(ctx, b, update)
}

func (h *Handlers) handleDialogText(ctx context.Context, _ *bot.Bot, update *models.Update) {
	telegramID := update.Message.From.ID
	current := h.stateManager.GetState(telegramID)

	switch current {
	case state.StateNone:
		h.logger.Debug("No active state, ignoring message", zap.Int64("telegram_id", telegramID))
	case state.StateNewKeyClass:
		h.handleNewKeyInput(ctx, update)
	case state.StateSearching:
		h.handleSearchInput(ctx, update)
	default:
		h.logger.Warn("Unknown state", zap.String("state", string(current)))
	}
}
