package handlers

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/wherewego/internal/controller/keyboard"
	"github.com/Freeeeeet/wherewego/internal/controller/state"
	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/Freeeeeet/wherewego/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const keysPerPage = 8

var classInput = regexp.MustCompile(`^\s*(\d{1,3})\s*[\s/,.-]\s*(\d{4})\s*$`)

// parseClassInput разбирает "3 2024" или "3/2024"
func parseClassInput(text string) (classNumber, gradYear int, ok bool) {
	m := classInput.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	classNumber, _ = strconv.Atoi(m[1])
	gradYear, _ = strconv.Atoi(m[2])
	return classNumber, gradYear, classNumber > 0
}

// HandleNewKey предлагает выбрать класс для нового ключа
func (h *Handlers) HandleNewKey(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	classes, err := h.classes.ListManageable(ctx, botPrincipal)
	if err != nil {
		h.logger.Error("Failed to list classes", zap.Error(err))
		h.sendMessage(ctx, chatID, h.errorText(err), nil)
		return
	}

	buttons := make([]models.InlineKeyboardButton, 0, len(classes))
	for _, c := range classes {
		buttons = append(buttons, keyboard.Button(
			fmt.Sprintf("%d · %d", c.ClassNumber, c.GradYear),
			keyboard.NewKeyData(c.ClassNumber, c.GradYear)))
	}

	h.stateManager.SetState(update.Message.From.ID, state.StateNewKeyClass)
	h.sendMessage(ctx, chatID,
		"🔑 Pick a class or type <code>class year</code>, e.g. <code>3 2024</code>.\n/cancel to stop.",
		keyboard.NewBuilder().Grid(3, buttons...).Build())
}

func (h *Handlers) handleNewKeyInput(ctx context.Context, update *models.Update) {
	chatID := update.Message.Chat.ID

	classNumber, gradYear, ok := parseClassInput(update.Message.Text)
	if !ok {
		h.sendMessage(ctx, chatID, "❌ Expected <code>class year</code>, e.g. <code>3 2024</code>.", nil)
		return
	}

	h.stateManager.ClearState(update.Message.From.ID)
	h.issueKey(ctx, chatID, classNumber, gradYear)
}

// issueKey выпускает ключ и отправляет его карточку
func (h *Handlers) issueKey(ctx context.Context, chatID int64, classNumber, gradYear int) {
	key, err := h.keys.Create(ctx, botPrincipal, service.KeyCreate{ClassNumber: classNumber, GradYear: gradYear})
	if err != nil {
		h.logger.Warn("Failed to issue key",
			zap.Int("class_number", classNumber),
			zap.Int("grad_year", gradYear),
			zap.Error(err))
		h.sendMessage(ctx, chatID, h.errorText(err), nil)
		return
	}

	h.logger.Info("Key issued via bot",
		zap.Int64("chat_id", chatID),
		zap.String("key", key.Key))
	h.sendKeyCard(ctx, chatID, key)
}

func (h *Handlers) sendKeyCard(ctx context.Context, chatID int64, key *model.RegistrationKey) {
	caption := keyCaption(key)

	png, err := h.keys.Card(ctx, botPrincipal, key.Key)
	if err != nil {
		h.logger.Error("Failed to render key card", zap.String("key", key.Key), zap.Error(err))
		h.sendMessage(ctx, chatID, caption, nil)
		return
	}

	var markup models.ReplyMarkup
	if key.Activated {
		markup = keyboard.NewBuilder().
			Row(keyboard.Button("⛔ Deactivate", keyboard.KeyDisable+key.Key)).
			Build()
	}

	_, err = h.msg.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:      chatID,
		Photo:       &models.InputFileUpload{Filename: key.Key + ".png", Data: bytes.NewReader(png)},
		Caption:     caption,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		h.logger.Error("Failed to send key card", zap.String("key", key.Key), zap.Error(err))
	}
}

func keyCaption(key *model.RegistrationKey) string {
	return fmt.Sprintf("🔑 <code>%s</code>\nClass %d of %d (%s)\nValid until %s",
		key.Key, key.ClassNumber, key.GradYear, html.EscapeString(key.Curriculum),
		key.ExpirationDate.Format("2006-01-02"))
}

// keyLine строка списка ключей
func keyLine(key *model.RegistrationKey, now time.Time) string {
	status := "✅"
	if !key.IsValid(now) {
		status = "⛔"
	}
	return fmt.Sprintf("%s <code>%s</code> · %d/%d · until %s",
		status, key.Key, key.ClassNumber, key.GradYear, key.ExpirationDate.Format("2006-01-02"))
}

// renderKeysPage текст и кнопки страницы списка ключей
func renderKeysPage(keys []*model.RegistrationKey, page int, now time.Time) (string, *models.InlineKeyboardMarkup) {
	if len(keys) == 0 {
		return "🔑 No registration keys yet. Use /newkey.", nil
	}

	totalPages := (len(keys) + keysPerPage - 1) / keysPerPage
	page = max(0, min(page, totalPages-1))
	from := page * keysPerPage
	to := min(from+keysPerPage, len(keys))

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔑 <b>Registration keys</b> (%d)\n\n", len(keys))

	kb := keyboard.NewBuilder()
	for _, k := range keys[from:to] {
		sb.WriteString(keyLine(k, now))
		sb.WriteByte('\n')

		row := []models.InlineKeyboardButton{keyboard.Button("🖼 "+k.Key, keyboard.KeyCard+k.Key)}
		if k.IsValid(now) {
			row = append(row, keyboard.Button("⛔ "+k.Key, keyboard.KeyDisable+k.Key))
		}
		kb.Row(row...)
	}
	kb.AddPagination(keyboard.KeysPage, page, totalPages)

	return sb.String(), kb.Build()
}

func (h *Handlers) HandleKeys(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	keys, err := h.keys.List(ctx, botPrincipal)
	if err != nil {
		h.logger.Error("Failed to list keys", zap.Error(err))
		h.sendMessage(ctx, chatID, h.errorText(err), nil)
		return
	}

	text, kb := renderKeysPage(keys, 0, time.Now())
	if kb == nil {
		h.sendMessage(ctx, chatID, text, nil)
		return
	}
	h.sendMessage(ctx, chatID, text, kb)
}

func (h *Handlers) handleKeysPage(ctx context.Context, cq *models.CallbackQuery) {
	page, err := keyboard.ParseInt(cq.Data, keyboard.KeysPage)
	if err != nil {
		h.answer(ctx, cq.ID, "❌ Invalid page", true)
		return
	}
	chatID, messageID, ok := callbackChat(cq)
	if !ok {
		h.answer(ctx, cq.ID, "", false)
		return
	}

	keys, err := h.keys.List(ctx, botPrincipal)
	if err != nil {
		h.logger.Error("Failed to list keys", zap.Error(err))
		h.answer(ctx, cq.ID, h.errorText(err), true)
		return
	}

	text, kb := renderKeysPage(keys, page, time.Now())
	h.answer(ctx, cq.ID, "", false)
	if kb == nil {
		h.editMessage(ctx, chatID, messageID, text, nil)
		return
	}
	h.editMessage(ctx, chatID, messageID, text, kb)
}

func (h *Handlers) handleNewKeyClass(ctx context.Context, cq *models.CallbackQuery) {
	classNumber, gradYear, err := keyboard.ParseClass(cq.Data, keyboard.NewKeyClass)
	if err != nil {
		h.answer(ctx, cq.ID, "❌ Invalid class", true)
		return
	}
	chatID, _, ok := callbackChat(cq)
	if !ok {
		h.answer(ctx, cq.ID, "", false)
		return
	}

	h.stateManager.ClearState(cq.From.ID)
	h.answer(ctx, cq.ID, "Issuing key…", false)
	h.issueKey(ctx, chatID, classNumber, gradYear)
}

func (h *Handlers) handleKeyCard(ctx context.Context, cq *models.CallbackQuery) {
	chatID, _, ok := callbackChat(cq)
	if !ok {
		h.answer(ctx, cq.ID, "", false)
		return
	}

	code := strings.TrimPrefix(cq.Data, keyboard.KeyCard)
	keys, err := h.keys.List(ctx, botPrincipal)
	if err != nil {
		h.answer(ctx, cq.ID, h.errorText(err), true)
		return
	}
	for _, k := range keys {
		if k.Key == code {
			h.answer(ctx, cq.ID, "", false)
			h.sendKeyCard(ctx, chatID, k)
			return
		}
	}
	h.answer(ctx, cq.ID, "❌ Not found", true)
}

func (h *Handlers) handleKeyDisable(ctx context.Context, cq *models.CallbackQuery) {
	code := strings.TrimPrefix(cq.Data, keyboard.KeyDisable)

	key, err := h.keys.Deactivate(ctx, botPrincipal, code)
	if err != nil {
		h.logger.Warn("Failed to deactivate key", zap.String("key", code), zap.Error(err))
		h.answer(ctx, cq.ID, h.errorText(err), true)
		return
	}

	h.logger.Info("Key deactivated via bot",
		zap.Int64("telegram_id", cq.From.ID),
		zap.String("key", key.Key))
	h.answer(ctx, cq.ID, "⛔ "+key.Key+" deactivated", false)
}
