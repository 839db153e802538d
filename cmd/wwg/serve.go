package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/wherewego/internal/app"
	"github.com/Freeeeeet/wherewego/internal/config"
	"github.com/Freeeeeet/wherewego/internal/controller"
	"github.com/Freeeeeet/wherewego/internal/controller/handlers"
	"github.com/Freeeeeet/wherewego/internal/controller/httpapi"
	"github.com/Freeeeeet/wherewego/internal/controller/state"
	"github.com/Freeeeeet/wherewego/internal/i18n"
	"github.com/Freeeeeet/wherewego/internal/mail"
	"github.com/Freeeeeet/wherewego/internal/metrics"
	"github.com/Freeeeeet/wherewego/internal/repository"
	"github.com/Freeeeeet/wherewego/internal/service"
	"github.com/Freeeeeet/wherewego/internal/session"
	"github.com/Freeeeeet/wherewego/migrations"
	"github.com/go-telegram/bot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the admin bot and background jobs",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	cfg, logger := b.cfg, b.logger
	logger.Info("Starting Where We Go",
		zap.String("version", version),
		zap.String("environment", cfg.Environment),
		zap.Bool("bot_enabled", cfg.TelegramToken != ""))

	tracing, err := app.NewTracing(ctx, cfg.TracingEnabled, cfg.TracingExporter, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}()

	if cfg.MigrationsAuto {
		migrator, err := app.NewMigrator(b.pool, migrations.FS, logger)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		err = migrator.Run(ctx)
		_ = migrator.Close()
		if err != nil {
			return err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	translator, err := i18n.New()
	if err != nil {
		return fmt.Errorf("init translator: %w", err)
	}

	// Репозитории
	studentRepo := repository.NewStudentRepository(b.pool)
	keyRepo := repository.NewRegistrationKeyRepository(b.pool)
	classRepo := repository.NewClassRepository(b.pool)
	schoolRepo := repository.NewSchoolRepository(b.pool)
	feedbackRepo := repository.NewFeedbackRepository(b.pool)

	// Сервисы
	mailer := mail.NewSender(cfg.SendGridAPIKey, cfg.MailFrom, logger)
	studentService := service.NewStudentService(studentRepo, keyRepo, cfg.BcryptCost, m, logger)
	keyService := service.NewRegistrationKeyService(keyRepo, classRepo, cfg.RegistrationKeyTTL, m, logger)
	feedbackService := service.NewFeedbackService(feedbackRepo, studentRepo, nil, mailer, m, logger)
	schoolService := service.NewSchoolService(schoolRepo, m, logger)
	classService := service.NewClassService(classRepo, logger)

	server := httpapi.NewServer(httpapi.Deps{
		Students:      studentService,
		Keys:          keyService,
		Feedback:      feedbackService,
		Schools:       schoolService,
		Classes:       classService,
		Sessions:      session.NewStore(cfg.SessionTTL),
		Translator:    translator,
		Metrics:       m,
		Gatherer:      registry,
		Logger:        logger,
		SecureCookies: cfg.IsProduction(),
	})

	var botController *controller.BotController
	if cfg.TelegramToken != "" {
		botController, err = newBotController(ctx, cfg, keyService, classService, studentService, feedbackService, translator, logger)
		if err != nil {
			return err
		}
	}

	scheduler := app.NewScheduler(keyService, app.DefaultKeyExpiryInterval, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.ListenAndServe(gctx, cfg.HTTPAddr)
	})
	if botController != nil {
		g.Go(func() error {
			return botController.Start(gctx)
		})
	}

	scheduler.Start(gctx)
	defer scheduler.Stop()

	if err := g.Wait(); err != nil {
		logger.Error("Service stopped with error", zap.Error(err))
		return err
	}

	logger.Info("Service stopped")
	return nil
}

// newBotController создаёт бота и подключает его к оповещениям об обращениях
func newBotController(
	ctx context.Context,
	cfg *config.Config,
	keys *service.RegistrationKeyService,
	classes *service.ClassService,
	students *service.StudentService,
	feedback *service.FeedbackService,
	translator *i18n.Translator,
	logger *zap.Logger,
) (*controller.BotController, error) {
	adminIDs, err := cfg.AdminIDs()
	if err != nil {
		return nil, err
	}
	if len(adminIDs) == 0 {
		logger.Warn("ADMIN_TELEGRAM_IDS is empty, nobody can use the bot")
	}

	botInstance, err := bot.New(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	h := handlers.NewHandlers(botInstance, keys, classes, students, feedback,
		state.NewManager(state.DefaultTTL),
		handlers.Options{
			AdminIDs:       adminIDs,
			SearchLimit:    cfg.SearchPageLimit,
			SearchThrottle: cfg.SearchThrottle,
			Translator:     translator,
		},
		logger)
	feedback.SetNotifier(h)

	c := controller.NewBotController(botInstance, h, logger)
	if err := c.RegisterHandlers(ctx); err != nil {
		logger.Warn("Bot commands menu not updated", zap.Error(err))
	}
	return c, nil
}
