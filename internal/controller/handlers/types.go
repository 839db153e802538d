package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/wherewego/internal/auth"
	"github.com/Freeeeeet/wherewego/internal/controller/state"
	"github.com/Freeeeeet/wherewego/internal/i18n"
	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/Freeeeeet/wherewego/internal/search"
	"github.com/Freeeeeet/wherewego/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Messenger методы *bot.Bot, которыми пользуются обработчики
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

type KeyManager interface {
	Create(ctx context.Context, p *auth.Principal, in service.KeyCreate) (*model.RegistrationKey, error)
	List(ctx context.Context, p *auth.Principal) ([]*model.RegistrationKey, error)
	Deactivate(ctx context.Context, p *auth.Principal, key string) (*model.RegistrationKey, error)
	Card(ctx context.Context, p *auth.Principal, key string) ([]byte, error)
}

type ClassLister interface {
	ListManageable(ctx context.Context, p *auth.Principal) ([]*model.Class, error)
}

type StudentSearcher interface {
	Search(ctx context.Context, p *auth.Principal, q search.Query) ([]model.StudentBrief, error)
}

type FeedbackLister interface {
	ListRecent(ctx context.Context, p *auth.Principal, limit int) ([]*model.Feedback, error)
}

// Options настройки обработчиков
type Options struct {
	AdminIDs       []int64
	SearchLimit    int
	SearchThrottle time.Duration
	// Translator тексты ошибок; без него администратор видит только общее сообщение
	Translator *i18n.Translator
}

// Handlers команды бота для администраторов системы
type Handlers struct {
	msg          Messenger
	keys         KeyManager
	classes      ClassLister
	students     StudentSearcher
	feedback     FeedbackLister
	stateManager *state.Manager
	admins       map[int64]bool
	adminIDs     []int64
	searchLimit  int
	throttle     time.Duration
	translator   *i18n.Translator
	logger       *zap.Logger

	routes map[string]bot.HandlerFunc

	mu       sync.Mutex
	searches map[int64]*searchSession // chatID -> активный поиск
}

func NewHandlers(
	msg Messenger,
	keys KeyManager,
	classes ClassLister,
	students StudentSearcher,
	feedback FeedbackLister,
	stateManager *state.Manager,
	opts Options,
	logger *zap.Logger,
) *Handlers {
	admins := make(map[int64]bool, len(opts.AdminIDs))
	for _, id := range opts.AdminIDs {
		admins[id] = true
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = search.DefaultLimit
	}
	if opts.SearchThrottle <= 0 {
		opts.SearchThrottle = search.DefaultInterval
	}

	h := &Handlers{
		msg:          msg,
		keys:         keys,
		classes:      classes,
		students:     students,
		feedback:     feedback,
		stateManager: stateManager,
		admins:       admins,
		adminIDs:     opts.AdminIDs,
		searchLimit:  opts.SearchLimit,
		throttle:     opts.SearchThrottle,
		translator:   opts.Translator,
		logger:       logger,
		searches:     make(map[int64]*searchSession),
	}
	h.routes = h.commandRoutes()
	return h
}

// botPrincipal от имени бота действует системный администратор без аккаунта
var botPrincipal = &auth.Principal{Role: model.RoleSystem}
