package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mityademon-rgb/matveypt-bot/internal/classifier"
	"github.com/mityademon-rgb/matveypt-bot/internal/conversation"
	"github.com/mityademon-rgb/matveypt-bot/internal/email"
	"github.com/mityademon-rgb/matveypt-bot/internal/escalation"
	"github.com/mityademon-rgb/matveypt-bot/internal/events"
	apphttp "github.com/mityademon-rgb/matveypt-bot/internal/http"
	"github.com/mityademon-rgb/matveypt-bot/internal/http/router"
	"github.com/mityademon-rgb/matveypt-bot/internal/quotes"
	quoteservice "github.com/mityademon-rgb/matveypt-bot/internal/quotes/service"
	"github.com/mityademon-rgb/matveypt-bot/internal/scheduler"
	"github.com/mityademon-rgb/matveypt-bot/internal/session"
	"github.com/mityademon-rgb/matveypt-bot/internal/telegram"
	"github.com/mityademon-rgb/matveypt-bot/internal/whatsapp"
	"github.com/mityademon-rgb/matveypt-bot/platform/ai/gemini"
	"github.com/mityademon-rgb/matveypt-bot/platform/ai/openaicompat"
	"github.com/mityademon-rgb/matveypt-bot/platform/config"
	"github.com/mityademon-rgb/matveypt-bot/platform/logger"
	"github.com/mityademon-rgb/matveypt-bot/platform/metrics"
	"github.com/mityademon-rgb/matveypt-bot/platform/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"google.golang.org/adk/model"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting bot", "env", cfg.Env, "addr", cfg.HTTPAddr, "classifier", cfg.ClassifierProvider)
	if !cfg.IsOperatorConfigured() {
		log.Warn("OPERATOR_CHAT_ID not configured; operator notifications disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(registry)

	eventBus := events.NewInMemoryBus(log)
	sessions := session.NewMemoryRepository(time.Now)
	locks := session.NewLocks()
	bot := telegram.NewClient(cfg, log)
	val := validator.New()

	reminderScheduler, closeScheduler := initReminderScheduler(cfg, eventBus, log)
	defer closeScheduler()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	gateway := classifier.NewGateway(newLLM(cfg), log,
		classifier.WithTimeout(cfg.GetClassifierTimeout()),
		classifier.WithMetrics(recorder),
	)

	escalator := escalation.New(sessions, locks, bot, cfg, log)
	escalator.SetScheduler(reminderScheduler)
	escalator.SetBus(eventBus)
	escalator.SetMetrics(recorder)
	escalator.RegisterHandlers(eventBus)

	linker := quoteservice.NewLinkSigner(cfg.GetQuoteLinkSecret(), cfg.GetQuoteLinkTTL(), cfg.GetWebAppURL())

	engine := conversation.New(sessions, locks, bot, gateway, escalator, cfg, log)
	engine.SetLinker(linker)
	engine.SetMetrics(recorder)

	// Operator mirrors subscribe to OperatorNotified; both are optional.
	whatsapp.NewClient(cfg, log).RegisterHandlers(eventBus)
	if sender := email.NewSMTPSenderFromConfig(cfg); sender != nil {
		email.NewMirror(sender, cfg.GetOperatorEmail(), log).RegisterHandlers(eventBus)
	} else {
		log.Info("SMTP not configured; operator e-mail mirror disabled")
	}

	var tokens quoteservice.TokenVerifier
	if cfg.GetQuoteLinkSecret() != "" {
		tokens = linker
	}
	quotesModule := quotes.NewModule(engine, tokens, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Metrics: recorder,
		Modules: []apphttp.Module{
			quotesModule,
		},
	}

	server := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ========================================================================
	// Run
	// ========================================================================

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		poller := telegram.NewPoller(bot, engine.Handle, cfg.GetTelegramPollTimeout(), log)
		return poller.Run(gctx)
	})

	g.Go(func() error {
		log.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.GetRedisURL() != "" {
		worker, err := scheduler.NewWorker(cfg, eventBus, log)
		if err != nil {
			log.Error("failed to initialize reminder worker", "error", err)
			panic("failed to initialize reminder worker: " + err.Error())
		}
		g.Go(func() error {
			return worker.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("bot stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("bot stopped")
}

// newLLM picks the classifier backend. Validate has already restricted the
// provider to the two supported values.
func newLLM(cfg config.ClassifierConfig) model.LLM {
	if cfg.GetClassifierProvider() == "gemini" {
		return gemini.NewModel(gemini.Config{
			APIKey: cfg.GetGeminiAPIKey(),
			Model:  cfg.GetGeminiModel(),
		})
	}
	return openaicompat.NewModel(openaicompat.Config{
		APIKey:  cfg.GetOpenAIAPIKey(),
		BaseURL: cfg.GetOpenAIBaseURL(),
		Model:   cfg.GetOpenAIModel(),
	})
}

// initReminderScheduler uses asynq when Redis is configured and falls back to
// in-process timers otherwise. Local reminders do not survive a restart.
func initReminderScheduler(cfg config.SchedulerConfig, bus events.Publisher, log *logger.Logger) (scheduler.ReminderScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; using in-process reminder timers")
		local := scheduler.NewLocal(bus, time.Now)
		return local, local.Stop
	}

	reminderClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		panic("failed to initialize reminder scheduler client: " + err.Error())
	}

	return reminderClient, func() {
		_ = reminderClient.Close()
	}
}
