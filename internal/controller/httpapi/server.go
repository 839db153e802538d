package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Freeeeeet/wherewego/internal/auth"
	"github.com/Freeeeeet/wherewego/internal/i18n"
	"github.com/Freeeeeet/wherewego/internal/metrics"
	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/Freeeeeet/wherewego/internal/search"
	"github.com/Freeeeeet/wherewego/internal/service"
	"github.com/Freeeeeet/wherewego/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Сервисы, которые использует HTTP-слой

type StudentAPI interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.Student, error)
	Authenticate(ctx context.Context, identifier, password string) (*model.Student, error)
	Principal(ctx context.Context, uid int64) (*auth.Principal, error)
	Get(ctx context.Context, p *auth.Principal, uid int64) (*model.Student, error)
	Update(ctx context.Context, p *auth.Principal, in service.UpdateInput) (*model.Student, error)
	Delete(ctx context.Context, p *auth.Principal, uid int64) (bool, error)
	Search(ctx context.Context, p *auth.Principal, q search.Query) ([]model.StudentBrief, error)
	SetRole(ctx context.Context, p *auth.Principal, uid int64, role model.Role) error
}

type KeyAPI interface {
	Validate(ctx context.Context, key string) (*model.KeyInfo, error)
	Create(ctx context.Context, p *auth.Principal, in service.KeyCreate) (*model.RegistrationKey, error)
	List(ctx context.Context, p *auth.Principal) ([]*model.RegistrationKey, error)
	Update(ctx context.Context, p *auth.Principal, in service.KeyUpdate) (*model.RegistrationKey, error)
	Card(ctx context.Context, p *auth.Principal, key string) ([]byte, error)
}

type FeedbackAPI interface {
	SubmitPublic(ctx context.Context, in service.PublicFeedbackInput) (*model.Feedback, error)
	Submit(ctx context.Context, p *auth.Principal, in service.FeedbackInput) (*model.Feedback, error)
	ListOwn(ctx context.Context, p *auth.Principal) ([]*model.Feedback, error)
}

type SchoolAPI interface {
	Search(ctx context.Context, q search.Query) ([]*model.School, error)
	Create(ctx context.Context, p *auth.Principal, in service.SchoolInput) (*model.School, error)
}

type ClassAPI interface {
	ListManageable(ctx context.Context, p *auth.Principal) ([]*model.Class, error)
}

// Deps зависимости сервера
type Deps struct {
	Students      StudentAPI
	Keys          KeyAPI
	Feedback      FeedbackAPI
	Schools       SchoolAPI
	Classes       ClassAPI
	Sessions      *session.Store
	Translator    *i18n.Translator
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	Logger        *zap.Logger
	SecureCookies bool
}

type Server struct {
	Deps
	router chi.Router
}

// NewServer собирает маршруты API
func NewServer(d Deps) *Server {
	s := &Server{Deps: d}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.withPrincipal)

		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Post("/validate", s.handleValidate)

		r.Route("/student", func(r chi.Router) {
			r.Post("/", s.handleRegister)
			r.Get("/", s.handleGetStudent)
			r.Put("/", s.handleUpdateStudent)
			r.Delete("/", s.handleDeleteStudent)
			r.Get("/search", s.handleSearchStudents)
			r.Put("/role", s.handleSetRole)
		})

		r.Get("/school/search", s.handleSearchSchools)
		r.Post("/school", s.handleCreateSchool)
		r.Get("/class", s.handleListClasses)

		r.Route("/registration-key", func(r chi.Router) {
			r.Get("/", s.handleListKeys)
			r.Post("/", s.handleCreateKey)
			r.Put("/", s.handleUpdateKey)
			r.Get("/{key}/card.png", s.handleKeyCard)
		})

		r.Post("/feedback/public", s.handlePublicFeedback)
		r.Post("/feedback", s.handleFeedback)
		r.Get("/feedback", s.handleListFeedback)
	})

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe обслуживает запросы до отмены ctx
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("HTTP server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	s.Logger.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
