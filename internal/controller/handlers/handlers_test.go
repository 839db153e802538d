package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/wherewego/internal/apperr"
	"github.com/Freeeeeet/wherewego/internal/auth"
	"github.com/Freeeeeet/wherewego/internal/controller/keyboard"
	"github.com/Freeeeeet/wherewego/internal/controller/state"
	"github.com/Freeeeeet/wherewego/internal/i18n"
	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/Freeeeeet/wherewego/internal/search"
	"github.com/Freeeeeet/wherewego/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMessenger struct {
	mu      sync.Mutex
	nextID  int
	sent    []*bot.SendMessageParams
	edits   []*bot.EditMessageTextParams
	photos  []*bot.SendPhotoParams
	answers []*bot.AnswerCallbackQueryParams
	failFor map[int64]bool
}

func (f *fakeMessenger) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := p.ChatID.(int64); ok && f.failFor[id] {
		return nil, errors.New("chat not found")
	}
	f.nextID++
	f.sent = append(f.sent, p)
	return &models.Message{ID: f.nextID}, nil
}

func (f *fakeMessenger) EditMessageText(_ context.Context, p *bot.EditMessageTextParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, p)
	return &models.Message{ID: p.MessageID}, nil
}

func (f *fakeMessenger) SendPhoto(_ context.Context, p *bot.SendPhotoParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, p)
	return &models.Message{}, nil
}

func (f *fakeMessenger) AnswerCallbackQuery(_ context.Context, p *bot.AnswerCallbackQueryParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, p)
	return true, nil
}

func (f *fakeMessenger) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].Text
}

func (f *fakeMessenger) lastEdit() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.edits) == 0 {
		return ""
	}
	return f.edits[len(f.edits)-1].Text
}

type fakeKeys struct {
	mu          sync.Mutex
	created     []service.KeyCreate
	deactivated []string
	list        []*model.RegistrationKey
	err         error
}

func (f *fakeKeys) Create(_ context.Context, p *auth.Principal, in service.KeyCreate) (*model.RegistrationKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, in)
	return &model.RegistrationKey{
		Key:            "ABCDEFGH",
		ClassNumber:    in.ClassNumber,
		GradYear:       in.GradYear,
		Curriculum:     "international",
		ExpirationDate: time.Now().Add(time.Hour),
		Activated:      true,
	}, nil
}

func (f *fakeKeys) List(context.Context, *auth.Principal) ([]*model.RegistrationKey, error) {
	return f.list, f.err
}

func (f *fakeKeys) Deactivate(_ context.Context, _ *auth.Principal, key string) (*model.RegistrationKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivated = append(f.deactivated, key)
	return &model.RegistrationKey{Key: key}, nil
}

func (f *fakeKeys) Card(context.Context, *auth.Principal, string) ([]byte, error) {
	return []byte("\x89PNG"), nil
}

type fakeClasses struct{}

func (fakeClasses) ListManageable(context.Context, *auth.Principal) ([]*model.Class, error) {
	return []*model.Class{{ClassNumber: 1, GradYear: 2024}, {ClassNumber: 2, GradYear: 2024}}, nil
}

type fakeStudents struct {
	mu    sync.Mutex
	calls []search.Query
	all   []model.StudentBrief
}

func (f *fakeStudents) Search(_ context.Context, p *auth.Principal, q search.Query) ([]model.StudentBrief, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, q)

	var matched []model.StudentBrief
	for _, s := range f.all {
		if strings.Contains(strings.ToLower(s.Name), strings.ToLower(q.Text)) {
			matched = append(matched, s)
		}
	}
	if q.Offset >= len(matched) {
		return nil, nil
	}
	return matched[q.Offset:min(q.Offset+q.Limit, len(matched))], nil
}

func (f *fakeStudents) Calls() []search.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]search.Query(nil), f.calls...)
}

type fakeFeedback struct{}

func (fakeFeedback) ListRecent(context.Context, *auth.Principal, int) ([]*model.Feedback, error) {
	return nil, nil
}

const adminID = int64(1)

type botEnv struct {
	h        *Handlers
	msg      *fakeMessenger
	keys     *fakeKeys
	students *fakeStudents
}

func newBotEnv(t *testing.T) *botEnv {
	t.Helper()

	env := &botEnv{
		msg:  &fakeMessenger{failFor: map[int64]bool{}},
		keys: &fakeKeys{},
		students: &fakeStudents{all: []model.StudentBrief{
			{UID: 1, Name: "Ann Lee", ClassNumber: 1, GradYear: 2024},
			{UID: 2, Name: "Anna Wu", ClassNumber: 2, GradYear: 2024},
			{UID: 3, Name: "Hannah Li", ClassNumber: 1, GradYear: 2023},
		}},
	}
	tr, err := i18n.New()
	require.NoError(t, err)

	env.h = NewHandlers(env.msg, env.keys, fakeClasses{}, env.students, fakeFeedback{}, state.NewManager(state.DefaultTTL),
		Options{AdminIDs: []int64{adminID, 2}, SearchLimit: 2, SearchThrottle: 20 * time.Millisecond, Translator: tr},
		zap.NewNop())
	t.Cleanup(env.h.Close)
	return env
}

func textUpdate(from int64, text string) *models.Update {
	return &models.Update{Message: &models.Message{
		ID:   1,
		Chat: models.Chat{ID: from},
		From: &models.User{ID: from, FirstName: "Admin"},
		Text: text,
	}}
}

func callbackUpdate(from int64, data string, messageID int) *models.Update {
	return &models.Update{CallbackQuery: &models.CallbackQuery{
		ID:   "cb",
		From: models.User{ID: from},
		Data: data,
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{ID: messageID, Chat: models.Chat{ID: from}},
		},
	}}
}

func TestErrorTextCoversEveryKind(t *testing.T) {
	env := newBotEnv(t)

	tests := []struct {
		err  error
		want string
	}{
		{apperr.Conflict("key", "ABCDEFGH"), `❌ The key &#34;ABCDEFGH&#34; has already been taken`},
		{apperr.ErrInvalidKey, "❌ The registration key is invalid, please double-check or contact the administrator"},
		{apperr.Reference("school_uid", "42"), "❌ 42 is not an existing school"},
		{apperr.ErrForbidden, "❌ You do not have permission to perform this action"},
		{apperr.ErrNotFound, "❌ The requested record does not exist"},
		{fmt.Errorf("issue key: %w", context.Canceled), "❌ Cancelled"},
		{errors.New("connection reset"), "❌ Something went wrong, see logs"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, env.h.errorText(tt.err), tt.err.Error())
	}
}

func TestIssueKeyConflictIsExplained(t *testing.T) {
	env := newBotEnv(t)
	env.keys.err = apperr.Conflict("key", "ABCDEFGH")
	ctx := context.Background()

	env.h.HandleTextMessage(ctx, nil, textUpdate(adminID, "/newkey"))
	env.h.HandleTextMessage(ctx, nil, textUpdate(adminID, "3 2024"))

	assert.Contains(t, env.msg.lastText(), "has already been taken")
	assert.NotContains(t, env.msg.lastText(), "see logs")
}

func TestParseClassInput(t *testing.T) {
	tests := []struct {
		in    string
		class int
		year  int
		ok    bool
	}{
		{"3 2024", 3, 2024, true},
		{" 12/2025 ", 12, 2025, true},
		{"3-2024", 3, 2024, true},
		{"0 2024", 0, 2024, false},
		{"three 2024", 0, 0, false},
		{"3 24", 0, 0, false},
	}
	for _, tt := range tests {
		c, y, ok := parseClassInput(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.class, c, tt.in)
			assert.Equal(t, tt.year, y, tt.in)
		}
	}
}

func TestNonAdminRejected(t *testing.T) {
	env := newBotEnv(t)

	env.h.HandleTextMessage(context.Background(), nil, textUpdate(99, "/keys"))
	assert.Contains(t, env.msg.lastText(), "administrators only")

	env.h.HandleTextMessage(context.Background(), nil, textUpdate(99, "/help"))
	assert.Contains(t, env.msg.lastText(), "/newkey")
}

func TestUnknownCommand(t *testing.T) {
	env := newBotEnv(t)

	env.h.HandleTextMessage(context.Background(), nil, textUpdate(adminID, "/nope"))
	assert.Contains(t, env.msg.lastText(), "Unknown command")
}

func TestIssueKeyByText(t *testing.T) {
	env := newBotEnv(t)
	ctx := context.Background()

	env.h.HandleTextMessage(ctx, nil, textUpdate(adminID, "/newkey@wwg_bot"))
	require.Equal(t, state.StateNewKeyClass, env.h.stateManager.GetState(adminID))

	env.h.HandleTextMessage(ctx, nil, textUpdate(adminID, "not a class"))
	assert.Empty(t, env.keys.created)

	env.h.HandleTextMessage(ctx, nil, textUpdate(adminID, "3 2024"))
	require.Len(t, env.keys.created, 1)
	assert.Equal(t, service.KeyCreate{ClassNumber: 3, GradYear: 2024}, env.keys.created[0])
	assert.Equal(t, state.StateNone, env.h.stateManager.GetState(adminID))

	require.Len(t, env.msg.photos, 1)
	assert.Contains(t, env.msg.photos[0].Caption, "ABCDEFGH")
}

func TestIssueKeyByButton(t *testing.T) {
	env := newBotEnv(t)

	env.h.HandleCallbackQuery(context.Background(), nil, callbackUpdate(adminID, keyboard.NewKeyData(2, 2024), 10))
	require.Len(t, env.keys.created, 1)
	assert.Equal(t, 2, env.keys.created[0].ClassNumber)
	require.Len(t, env.msg.photos, 1)
}

func TestDeactivateKey(t *testing.T) {
	env := newBotEnv(t)

	env.h.HandleCallbackQuery(context.Background(), nil, callbackUpdate(adminID, keyboard.KeyDisable+"ABCDEFGH", 10))
	assert.Equal(t, []string{"ABCDEFGH"}, env.keys.deactivated)
	require.NotEmpty(t, env.msg.answers)
	assert.Contains(t, env.msg.answers[0].Text, "deactivated")
}

func TestRenderKeysPage(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	var keys []*model.RegistrationKey
	for i := 0; i < keysPerPage+2; i++ {
		keys = append(keys, &model.RegistrationKey{
			Key:            "K" + string(rune('A'+i)),
			ExpirationDate: now.Add(time.Hour),
			Activated:      i != 0,
		})
	}

	text, kb := renderKeysPage(keys, 0, now)
	assert.Contains(t, text, "(10)")
	require.NotNil(t, kb)
	// строки ключей и ряд пагинации
	require.Len(t, kb.InlineKeyboard, keysPerPage+1)
	assert.Len(t, kb.InlineKeyboard[0], 1, "inactive key has no deactivate button")
	assert.Len(t, kb.InlineKeyboard[1], 2)

	text, kb = renderKeysPage(keys, 5, now)
	assert.Contains(t, text, "KI")
	assert.Len(t, kb.InlineKeyboard, 3)

	text, kb = renderKeysPage(nil, 0, now)
	assert.Contains(t, text, "No registration keys")
	assert.Nil(t, kb)
}

func TestSearchFlow(t *testing.T) {
	env := newBotEnv(t)
	ctx := context.Background()

	env.h.HandleTextMessage(ctx, nil, textUpdate(adminID, "/search"))
	require.Equal(t, state.StateSearching, env.h.stateManager.GetState(adminID))

	env.h.HandleTextMessage(ctx, nil, textUpdate(adminID, "an"))
	require.Eventually(t, func() bool {
		return strings.Contains(env.msg.lastEdit(), "Anna Wu")
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, env.msg.lastEdit(), "Ann Lee")
	assert.NotContains(t, env.msg.lastEdit(), "Hannah Li")

	sess := env.h.session(adminID)
	require.NotNil(t, sess)
	require.Eventually(t, func() bool {
		return sess.widget.Snapshot().CanLoadMore(2)
	}, time.Second, 5*time.Millisecond)

	env.h.HandleCallbackQuery(ctx, nil, callbackUpdate(adminID, keyboard.SearchMore, sess.messageID))
	require.Eventually(t, func() bool {
		return strings.Contains(env.msg.lastEdit(), "Hannah Li")
	}, time.Second, 5*time.Millisecond)

	calls := env.students.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, search.Query{Offset: 0, Limit: 2, Text: "an"}, calls[0])
	assert.Equal(t, search.Query{Offset: 2, Limit: 2, Text: "an"}, calls[1])

	env.h.HandleCallbackQuery(ctx, nil, callbackUpdate(adminID, keyboard.SearchFinish, sess.messageID))
	assert.Nil(t, env.h.session(adminID))
	assert.Equal(t, state.StateNone, env.h.stateManager.GetState(adminID))
}

func TestSearchWithInitialText(t *testing.T) {
	env := newBotEnv(t)

	env.h.HandleTextMessage(context.Background(), nil, textUpdate(adminID, "/search hannah"))
	require.Eventually(t, func() bool {
		return strings.Contains(env.msg.lastEdit(), "Hannah Li")
	}, time.Second, 5*time.Millisecond)

	calls := env.students.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 1, calls[0].Limit)
}

func TestRenderSearch(t *testing.T) {
	st := search.State[model.StudentBrief]{
		Text:    "<ann>",
		Results: []model.StudentBrief{{Name: "Ann", ClassNumber: 1, GradYear: 2024}, {Name: "Anna"}},
	}

	text, kb := renderSearch(st, 2)
	assert.Contains(t, text, "&lt;ann&gt;")
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, keyboard.SearchMore, kb.InlineKeyboard[0][0].CallbackData)

	st.Exhausted = true
	text, kb = renderSearch(st, 2)
	assert.Contains(t, text, "End of results")
	require.Len(t, kb.InlineKeyboard, 1)
}

func TestCancelClosesSearch(t *testing.T) {
	env := newBotEnv(t)
	ctx := context.Background()

	env.h.HandleTextMessage(ctx, nil, textUpdate(adminID, "/search"))
	env.h.HandleTextMessage(ctx, nil, textUpdate(adminID, "/cancel"))

	assert.Nil(t, env.h.session(adminID))
	assert.Equal(t, state.StateNone, env.h.stateManager.GetState(adminID))
	assert.Contains(t, env.msg.lastText(), "Cancelled")

	env.h.HandleTextMessage(ctx, nil, textUpdate(adminID, "/cancel"))
	assert.Contains(t, env.msg.lastText(), "Nothing to cancel")
}

func TestNotifyFeedback(t *testing.T) {
	env := newBotEnv(t)
	env.msg.failFor[2] = true

	classNumber, gradYear := 3, 2020
	err := env.h.NotifyFeedback(context.Background(), &model.Feedback{
		Reason:      "registration",
		Content:     "lost my <key>",
		Name:        "Ann",
		Email:       "ann@example.com",
		ClassNumber: &classNumber,
		GradYear:    &gradYear,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notify admin 2")

	require.Len(t, env.msg.sent, 1)
	text := env.msg.sent[0].Text
	assert.Contains(t, text, "not logged in")
	assert.Contains(t, text, "Class: 3/2020")
	assert.Contains(t, text, "lost my &lt;key&gt;")
}
