// Package main - точка входа API-сервера Studygotchi Hub.
//
// Философия: питомец - это напарник по учёбе, а не игровой автомат.
// Сервер обслуживает браузерного клиента: жизненный цикл питомца,
// учебные заметки, AI-экзамены, магазин и рейтинги класса.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries/Sagas)
// - Infrastructure: PostgreSQL, Redis, Gemini, Toss Payments
// - Interface: HTTP API handlers
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/studygotchi/studygotchi-hub/config"

	// Application layer
	"github.com/studygotchi/studygotchi-hub/internal/application/command"
	"github.com/studygotchi/studygotchi-hub/internal/application/eventhandler"
	"github.com/studygotchi/studygotchi-hub/internal/application/query"
	"github.com/studygotchi/studygotchi-hub/internal/application/saga"

	// Domain layer
	"github.com/studygotchi/studygotchi-hub/internal/domain/notification"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"

	// Infrastructure layer
	"github.com/studygotchi/studygotchi-hub/internal/infrastructure/external/gemini"
	"github.com/studygotchi/studygotchi-hub/internal/infrastructure/external/toss"
	"github.com/studygotchi/studygotchi-hub/internal/infrastructure/messaging"
	"github.com/studygotchi/studygotchi-hub/internal/infrastructure/persistence/postgres"
	"github.com/studygotchi/studygotchi-hub/internal/infrastructure/persistence/redis"
	"github.com/studygotchi/studygotchi-hub/internal/infrastructure/service"

	// Interface layer
	httpserver "github.com/studygotchi/studygotchi-hub/internal/interface/http"
	"github.com/studygotchi/studygotchi-hub/internal/interface/http/handlers"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Studygotchi Hub API",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL/Supabase)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	status, err := migrator.Status(ctx)
	if err != nil {
		log.Warn("failed to get migration status", "error", err)
	} else {
		appliedCount := 0
		for _, m := range status {
			if m.IsApplied {
				appliedCount++
			}
		}
		log.Info("migrations completed", "applied", appliedCount, "total", len(status))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ПОДКЛЮЧЕНИЕ К REDIS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to Redis...")
	cache, err := redis.NewCache(redisConfigFrom(cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer func() {
		log.Info("closing Redis connection...")
		_ = cache.Close()
	}()
	log.Info("Redis connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ И КЕШЕЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	userRepo := postgres.NewUserRepository(dbConn)
	petRepo := postgres.NewPetRepository(dbConn)
	studyRepo := postgres.NewStudyRepository(dbConn)
	examRepo := postgres.NewExamRepository(dbConn)
	classroomRepo := postgres.NewClassroomRepository(dbConn)
	paymentRepo := postgres.NewPaymentRepository(dbConn)
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)

	petCache := redis.NewPetCache(cache)
	sessions := redis.NewSessionTracker(cache, redis.TTLSession)
	leaderboardCache := redis.NewLeaderboardCache(cache)
	chatStore := redis.NewChatStore(cache)
	cooldowns := redis.NewCooldownRegistry(cache, 0)
	notifStore := redis.NewNotificationStore(cache)
	inApp := redis.NewInAppChannel(cache)
	tokens := redis.NewTokenStore(cache, redis.TTLAuthToken)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS И ДИСПЕТЧЕРА
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	dispatcher := messaging.NewDispatcherBuilder(eventBus).
		WithLogger(log).
		Build()
	defer func() { _ = dispatcher.Stop() }()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ ВНЕШНИХ КЛИЕНТОВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing external clients...")

	// Gemini: диалог питомца, решение и проверка экзаменов
	geminiCfg := gemini.DefaultClientConfig(cfg.Gemini.APIKey)
	if cfg.Gemini.BaseURL != "" {
		geminiCfg.BaseURL = cfg.Gemini.BaseURL
	}
	if cfg.Gemini.Model != "" {
		geminiCfg.Model = cfg.Gemini.Model
	}
	geminiCfg.Timeout = cfg.Gemini.RequestTimeout
	geminiCfg.RateLimiterConfig.RequestsPerSecond = cfg.Gemini.RateLimit
	geminiCfg.RateLimiterConfig.BurstSize = cfg.Gemini.RateLimitBurst
	geminiCfg.RetryConfig.MaxRetries = cfg.Gemini.MaxRetries
	geminiCfg.RetryConfig.InitialBackoff = cfg.Gemini.RetryBaseDelay
	geminiCfg.RetryConfig.MaxBackoff = cfg.Gemini.RetryMaxDelay
	geminiCfg.Logger = log
	geminiCfg.Debug = cfg.App.Debug
	geminiClient := gemini.NewClient(geminiCfg)

	// Toss Payments: подтверждение платежей за гемы
	tossCfg := toss.DefaultClientConfig(cfg.Toss.SecretKey)
	if cfg.Toss.BaseURL != "" {
		tossCfg.BaseURL = cfg.Toss.BaseURL
	}
	tossCfg.Timeout = cfg.Toss.RequestTimeout
	tossCfg.RetryAttempts = cfg.Toss.RetryAttempts
	tossCfg.RetryDelay = cfg.Toss.RetryDelay
	tossCfg.Logger = log
	tossClient := toss.NewClient(tossCfg)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ИНИЦИАЛИЗАЦИЯ СЕРВИСА УВЕДОМЛЕНИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing notification service...")
	router := service.NewChannelRouter(log)
	router.RegisterChannel(inApp)

	notificationSvc := service.NewNotificationService(
		notifStore,
		router,
		buildTriggerRules(cfg, log),
		log,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	createPetCmd := command.NewCreatePetHandler(petRepo, cooldowns, eventBus)
	startSessionCmd := command.NewStartSessionHandler(sessions, eventBus)
	recordStudyCmd := command.NewRecordStudyHandler(petRepo, studyRepo, sessions, petCache, geminiClient, eventBus)
	forgetNoteCmd := command.NewForgetNoteHandler(petRepo, studyRepo, sessions, petCache, eventBus)
	chatCmd := command.NewChatWithPetHandler(petRepo, studyRepo, sessions, chatStore, geminiClient, eventBus)
	feedPetCmd := command.NewFeedPetHandler(petRepo, sessions, petCache, eventBus)
	playMinigameCmd := command.NewPlayMinigameHandler(petRepo, sessions, cooldowns, petCache, eventBus)
	revivePetCmd := command.NewRevivePetHandler(petRepo, userRepo, sessions, petCache, eventBus)
	buyFoodCmd := command.NewBuyFoodHandler(petRepo, sessions, petCache, eventBus)
	buyItemCmd := command.NewBuyItemHandler(userRepo)
	createPaymentCmd := command.NewCreatePaymentHandler(paymentRepo)
	confirmPaymentCmd := command.NewConfirmPaymentHandler(paymentRepo, userRepo, tossClient, eventBus)
	createExamCmd := command.NewCreateExamHandler(examRepo, userRepo, classroomRepo)
	createClassCmd := command.NewCreateClassroomHandler(classroomRepo, userRepo)
	joinClassCmd := command.NewJoinClassroomHandler(classroomRepo, eventBus)

	petViewQuery := query.NewGetPetViewHandler(petRepo, sessions, petCache)
	petRankQuery := query.NewGetPetRankHandler(petRepo, leaderboardCache, leaderboardRepo)
	leaderboardQuery := query.NewGetLeaderboardHandler(leaderboardCache, leaderboardRepo, userRepo)
	classmatesQuery := query.NewGetClassmatesHandler(classroomRepo, userRepo, petRepo)
	studyLogsQuery := query.NewGetStudyLogsHandler(studyRepo)
	activeSessionsQuery := query.NewGetActiveSessionsHandler(sessions)
	dailyDigestQuery := query.NewGetDailyDigestHandler(petRepo, studyRepo, examRepo, leaderboardCache)

	onboardingSaga := saga.NewOnboardingSaga(
		userRepo,
		petRepo,
		notificationSvc,
		eventBus,
		service.NewIDGenerator(),
		saga.DefaultOnboardingConfig(),
	)
	examFlowSaga := saga.NewExamFlowSaga(
		petRepo,
		userRepo,
		examRepo,
		studyRepo,
		sessions,
		geminiClient,
		geminiClient,
		eventBus,
		saga.DefaultExamFlowConfig(),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 11. РЕГИСТРАЦИЯ EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering event handlers...")

	levelUpHandler := eventhandler.NewOnLevelUpHandler(notificationSvc, petCache, log)
	petDiedHandler := eventhandler.NewOnPetDiedHandler(notificationSvc, petCache, log)
	paymentHandler := eventhandler.NewOnPaymentCompletedHandler(notificationSvc, log)
	rankChangedHandler := eventhandler.NewOnRankChangedHandler(notificationSvc, log, eventhandler.DefaultRankChangedConfig())
	rankRefreshHandler := eventhandler.NewRankRefreshHandler(petRepo, classroomRepo, leaderboardCache, eventBus, log)

	if err := dispatcher.Register(levelUpHandler.EventType(), "on_level_up", levelUpHandler.Handle); err != nil {
		return fmt.Errorf("failed to register level up handler: %w", err)
	}
	if err := dispatcher.Register(shared.EventPetDied, "on_pet_died", petDiedHandler.Handle); err != nil {
		return fmt.Errorf("failed to register pet died handler: %w", err)
	}
	if err := dispatcher.Register(paymentHandler.EventType(), "on_payment_completed", paymentHandler.Handle); err != nil {
		return fmt.Errorf("failed to register payment handler: %w", err)
	}
	if err := dispatcher.Register(rankChangedHandler.EventType(), "on_rank_changed", rankChangedHandler.Handle); err != nil {
		return fmt.Errorf("failed to register rank changed handler: %w", err)
	}
	for _, eventType := range rankRefreshHandler.EventTypes() {
		if err := dispatcher.Register(eventType, "rank_refresh", rankRefreshHandler.Handle); err != nil {
			return fmt.Errorf("failed to register rank refresh handler: %w", err)
		}
	}

	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start event dispatcher: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	health.AddCheck("cache", handlers.NewCacheCheck(cache))

	// ─────────────────────────────────────────────────────────────────────────
	// 13. СОЗДАНИЕ HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.ShutdownTimeout = cfg.App.ShutdownTimeout
	httpConfig.APIKeys = cfg.HTTP.APIKeys
	if len(cfg.HTTP.AllowedOrigins) > 0 {
		httpConfig.EnableCORS = true
		httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	}
	httpConfig.EnablePprof = cfg.App.Debug

	httpDeps := httpserver.Dependencies{
		Onboarding: onboardingSaga,
		ExamFlow:   examFlowSaga,

		CreatePet:      createPetCmd,
		StartSession:   startSessionCmd,
		RecordStudy:    recordStudyCmd,
		ForgetNote:     forgetNoteCmd,
		ChatWithPet:    chatCmd,
		FeedPet:        feedPetCmd,
		PlayMinigame:   playMinigameCmd,
		RevivePet:      revivePetCmd,
		BuyFood:        buyFoodCmd,
		BuyItem:        buyItemCmd,
		CreatePayment:  createPaymentCmd,
		ConfirmPayment: confirmPaymentCmd,
		CreateExam:     createExamCmd,
		CreateClass:    createClassCmd,
		JoinClass:      joinClassCmd,

		GetPetView:        petViewQuery,
		GetPetRank:        petRankQuery,
		GetLeaderboard:    leaderboardQuery,
		GetClassmates:     classmatesQuery,
		GetStudyLogs:      studyLogsQuery,
		GetActiveSessions: activeSessionsQuery,
		GetDailyDigest:    dailyDigestQuery,

		Users:       userRepo,
		Memberships: classroomRepo,
		Tokens:      tokens,
		Inbox:       inApp,
		Health:      health,
		Logger:      log,
	}

	httpServer := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 14. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "address", httpServer.Addr())
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	log.Info("Studygotchi Hub API is running", "address", httpServer.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error

	log.Info("stopping HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		shutdownErr = err
	}

	// Диспетчер, event bus, Redis и база закроются через defer

	if shutdownErr != nil {
		log.Warn("shutdown completed with errors")
	} else {
		log.Info("shutdown completed successfully")
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Observability.LogLevel),
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Observability.LogFormat, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// redisConfigFrom собирает конфиг Redis-клиента из настроек приложения.
func redisConfigFrom(cfg *config.Config) redis.Config {
	rc := redis.DefaultConfig()
	if cfg.Redis.Host != "" {
		rc.Host = cfg.Redis.Host
	}
	if cfg.Redis.Port != 0 {
		rc.Port = cfg.Redis.Port
	}
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	if cfg.Redis.PoolSize > 0 {
		rc.PoolSize = cfg.Redis.PoolSize
	}
	if cfg.Redis.MinIdleConns > 0 {
		rc.MinIdleConns = cfg.Redis.MinIdleConns
	}
	return rc
}

// buildTriggerRules собирает стандартный набор правил уведомлений.
// Ошибка в одном правиле не валит запуск: правило просто пропускается.
func buildTriggerRules(cfg *config.Config, log *slog.Logger) []*notification.TriggerRule {
	var rules []*notification.TriggerRule

	add := func(rule *notification.TriggerRule, err error) {
		if err != nil {
			log.Warn("skipping notification rule", "error", err)
			return
		}
		rules = append(rules, rule)
	}

	add(notification.NewPetDiedRule("pet_died"))
	add(notification.NewPetHungryRule("pet_hungry", 30))
	add(notification.NewRankUpRule("rank_up", 3))
	add(notification.NewInactivityRule("inactive_3d", 3))
	add(notification.NewDailyDigestRule("daily_digest", cfg.Scheduler.DailyDigestHour, cfg.App.Timezone))

	return rules
}
