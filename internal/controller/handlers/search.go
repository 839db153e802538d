package handlers

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/wherewego/internal/controller/keyboard"
	"github.com/Freeeeeet/wherewego/internal/controller/state"
	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/Freeeeeet/wherewego/internal/search"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// searchSession поиск студентов в одном чате; результаты живут в одном сообщении
type searchSession struct {
	widget    *search.Widget[model.StudentBrief]
	chatID    int64
	messageID int
}

// HandleSearch открывает поиск; "/search ann" сразу показывает первое совпадение
func (h *Handlers) HandleSearch(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	_, initial, _ := strings.Cut(update.Message.Text, " ")
	initial = strings.TrimSpace(initial)

	h.closeSearch(chatID)

	msg := h.sendMessage(ctx, chatID, "🔎 Type a name, phone, email or WeChat ID.\n/cancel to stop.", nil)
	if msg == nil {
		return
	}

	h.stateManager.SetState(update.Message.From.ID, state.StateSearching)
	h.openSearch(ctx, chatID, msg.ID, initial)
}

func (h *Handlers) openSearch(ctx context.Context, chatID int64, messageID int, initial string) *searchSession {
	sess := &searchSession{chatID: chatID, messageID: messageID}
	sessCtx := context.WithoutCancel(ctx)

	fetch := func(ctx context.Context, q search.Query) ([]model.StudentBrief, error) {
		return h.students.Search(ctx, botPrincipal, q)
	}

	opts := []search.Option[model.StudentBrief]{
		search.WithLimit[model.StudentBrief](h.searchLimit),
		search.WithInterval[model.StudentBrief](h.throttle),
		search.WithLogger[model.StudentBrief](h.logger),
		search.WithOnChange[model.StudentBrief](func(st search.State[model.StudentBrief]) {
			text, kb := renderSearch(st, h.searchLimit)
			h.editMessage(sessCtx, chatID, messageID, text, kb)
		}),
		search.WithOnError[model.StudentBrief](func(q search.Query, err error) {
			h.logger.Warn("Student search failed",
				zap.Int64("chat_id", chatID),
				zap.String("text", q.Text),
				zap.Int("offset", q.Offset),
				zap.Error(err))
			h.sendMessage(sessCtx, chatID, h.errorText(err), nil)
		}),
	}
	if initial != "" {
		opts = append(opts, search.WithInitialText[model.StudentBrief](initial))
	}

	sess.widget = search.NewWidget[model.StudentBrief](sessCtx, fetch, opts...)

	h.mu.Lock()
	h.searches[chatID] = sess
	h.mu.Unlock()
	return sess
}

func (h *Handlers) session(chatID int64) *searchSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.searches[chatID]
}

// closeSearch закрывает поиск чата; true если он был открыт
func (h *Handlers) closeSearch(chatID int64) bool {
	h.mu.Lock()
	sess, ok := h.searches[chatID]
	delete(h.searches, chatID)
	h.mu.Unlock()

	if ok && sess.widget != nil {
		sess.widget.Close()
	}
	return ok
}

func (h *Handlers) handleSearchInput(ctx context.Context, update *models.Update) {
	sess := h.session(update.Message.Chat.ID)
	if sess == nil || sess.widget == nil {
		h.stateManager.ClearState(update.Message.From.ID)
		h.sendMessage(ctx, update.Message.Chat.ID, "❌ Search expired, start again with /search.", nil)
		return
	}
	sess.widget.SetText(strings.TrimSpace(update.Message.Text))
}

func (h *Handlers) handleSearchMore(ctx context.Context, cq *models.CallbackQuery) {
	chatID, _, ok := callbackChat(cq)
	sess := h.session(chatID)
	if !ok || sess == nil || sess.widget == nil {
		h.answer(ctx, cq.ID, "❌ Search expired", true)
		return
	}

	if !sess.widget.LoadMore() {
		h.answer(ctx, cq.ID, "No more results", false)
		return
	}
	h.answer(ctx, cq.ID, "", false)
}

func (h *Handlers) handleSearchDone(ctx context.Context, cq *models.CallbackQuery) {
	chatID, _, _ := callbackChat(cq)
	h.closeSearch(chatID)
	h.stateManager.ClearState(cq.From.ID)
	h.answer(ctx, cq.ID, "✅ Search closed", false)
}

// renderSearch текст результатов и кнопки "ещё"/"готово"
func renderSearch(st search.State[model.StudentBrief], limit int) (string, *models.InlineKeyboardMarkup) {
	var sb strings.Builder

	if st.Text == "" {
		sb.WriteString("🔎 Type a name, phone, email or WeChat ID.")
	} else {
		fmt.Fprintf(&sb, "🔎 <b>%s</b>\n\n", html.EscapeString(st.Text))
		for i, s := range st.Results {
			fmt.Fprintf(&sb, "%d. %s · %d/%d", i+1, html.EscapeString(s.Name), s.ClassNumber, s.GradYear)
			if s.Curriculum != "" {
				fmt.Fprintf(&sb, " · %s", html.EscapeString(s.Curriculum))
			}
			if s.SchoolName != "" {
				fmt.Fprintf(&sb, " · 🎓 %s", html.EscapeString(s.SchoolName))
			}
			sb.WriteByte('\n')
		}
		switch {
		case st.Loading:
			sb.WriteString("\n⏳ Searching…")
		case len(st.Results) == 0 && st.Exhausted:
			sb.WriteString("No students found.")
		case st.Exhausted:
			sb.WriteString("\nEnd of results.")
		}
	}

	kb := keyboard.NewBuilder()
	if st.CanLoadMore(limit) {
		kb.Row(keyboard.Button("⬇️ Load more", keyboard.SearchMore))
	}
	kb.Row(keyboard.Button("✅ Done", keyboard.SearchFinish))
	return sb.String(), kb.Build()
}

// Close закрывает все открытые поиски
func (h *Handlers) Close() {
	h.mu.Lock()
	chats := make([]int64, 0, len(h.searches))
	for chatID := range h.searches {
		chats = append(chats, chatID)
	}
	h.mu.Unlock()

	for _, chatID := range chats {
		h.closeSearch(chatID)
	}
}
