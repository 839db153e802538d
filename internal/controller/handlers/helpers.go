package handlers

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/Freeeeeet/wherewego/internal/apperr"
	"github.com/Freeeeeet/wherewego/internal/i18n"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// sendMessage отправляет сообщение и логирует, если не удалось
func (h *Handlers) sendMessage(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) *models.Message {
	msg, err := h.msg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return nil
	}
	return msg
}

// editMessage заменяет текст; "message is not modified" не считается ошибкой
func (h *Handlers) editMessage(ctx context.Context, chatID int64, messageID int, text string, markup models.ReplyMarkup) {
	_, err := h.msg.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil && !isMessageNotModified(err) {
		h.logger.Error("Failed to edit message",
			zap.Int64("chat_id", chatID),
			zap.Int("message_id", messageID),
			zap.Error(err))
	}
}

func (h *Handlers) answer(ctx context.Context, callbackID, text string, alert bool) {
	_, err := h.msg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		h.logger.Warn("Failed to answer callback", zap.Error(err))
	}
}

func isMessageNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

// errorText короткое сообщение об ошибке для администратора
func (h *Handlers) errorText(err error) string {
	if errors.Is(err, context.Canceled) {
		return "❌ Cancelled"
	}
	if h.translator == nil || apperr.KindOf(err) == apperr.KindUnknown {
		return "❌ Something went wrong, see logs"
	}
	return "❌ " + html.EscapeString(h.translator.Message(i18n.LangEn, err))
}

// callbackChat чат и сообщение, к которым привязана кнопка
func callbackChat(cq *models.CallbackQuery) (chatID int64, messageID int, ok bool) {
	if cq.Message.Message == nil {
		return 0, 0, false
	}
	return cq.Message.Message.Chat.ID, cq.Message.Message.ID, true
}
