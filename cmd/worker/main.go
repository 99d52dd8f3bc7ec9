// Package main - точка входа фоновых процессов (Worker) Studygotchi Hub.
//
// Worker отвечает за периодические задачи:
// - Чекпоинт распада ресурсов и фиксация смертей питомцев
// - Пересчёт лидерборда и публикация изменений рангов
// - Вычистка протухших сессий и зависших заказов
// - Доставка отложенных уведомлений и ежедневных дайджестов
//
// Философия: питомец - это напарник по учёбе. Worker держит мир
// консистентным между визитами ученика: распад должен настигать
// питомца даже когда вкладка закрыта.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/studygotchi/studygotchi-hub/config"

	// Application layer
	"github.com/studygotchi/studygotchi-hub/internal/application/eventhandler"

	// Domain layer
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"

	// Infrastructure layer
	"github.com/studygotchi/studygotchi-hub/internal/infrastructure/external/telegram"
	"github.com/studygotchi/studygotchi-hub/internal/infrastructure/messaging"
	"github.com/studygotchi/studygotchi-hub/internal/infrastructure/persistence/postgres"
	"github.com/studygotchi/studygotchi-hub/internal/infrastructure/persistence/redis"
	"github.com/studygotchi/studygotchi-hub/internal/infrastructure/scheduler"
	"github.com/studygotchi/studygotchi-hub/internal/infrastructure/scheduler/jobs"
	"github.com/studygotchi/studygotchi-hub/internal/infrastructure/service"
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
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting Studygotchi Hub Worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	if !cfg.Scheduler.Enabled {
		log.Warn("scheduler disabled by configuration, nothing to do")
		return nil
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ПОДКЛЮЧЕНИЯ (PostgreSQL, Redis)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	log.Info("connecting to Redis...")
	cache, err := redis.NewCache(redisConfigFrom(cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer func() { _ = cache.Close() }()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. РЕПОЗИТОРИИ И КЕШИ
	// ─────────────────────────────────────────────────────────────────────────
	petRepo := postgres.NewPetRepository(dbConn)
	studyRepo := postgres.NewStudyRepository(dbConn)
	examRepo := postgres.NewExamRepository(dbConn)
	classroomRepo := postgres.NewClassroomRepository(dbConn)
	paymentRepo := postgres.NewPaymentRepository(dbConn)
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)

	petCache := redis.NewPetCache(cache)
	sessions := redis.NewSessionTracker(cache, redis.TTLSession)
	leaderboardCache := redis.NewLeaderboardCache(cache)
	notifStore := redis.NewNotificationStore(cache)
	inApp := redis.NewInAppChannel(cache)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. EVENT BUS, УВЕДОМЛЕНИЯ, АЛЕРТЫ
	// ─────────────────────────────────────────────────────────────────────────
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() { _ = eventBus.Close() }()

	dispatcher := messaging.NewDispatcherBuilder(eventBus).
		WithLogger(log).
		Build()
	defer func() { _ = dispatcher.Stop() }()

	router := service.NewChannelRouter(log)
	router.RegisterChannel(inApp)

	notificationSvc := service.NewNotificationService(notifStore, router, nil, log)

	// Ops-алерты в Telegram. Без токена алертер молчит.
	var alerter *telegram.Alerter
	if cfg.Telegram.Enabled() {
		tgCfg := telegram.DefaultClientConfig(cfg.Telegram.Token)
		tgCfg.Timeout = cfg.Telegram.RequestTimeout
		tgCfg.Logger = log
		alerter = telegram.NewAlerter(telegram.NewClient(tgCfg), cfg.Telegram.OpsChatID, log)
		log.Info("ops alerting enabled", "chat_id", cfg.Telegram.OpsChatID)
	}

	// Смерти и сдвиги рангов, найденные фоновыми задачами, должны
	// превращаться в уведомления так же, как и в API-процессе.
	petDiedHandler := eventhandler.NewOnPetDiedHandler(notificationSvc, petCache, log)
	rankChangedHandler := eventhandler.NewOnRankChangedHandler(notificationSvc, log, eventhandler.DefaultRankChangedConfig())

	if err := dispatcher.Register(shared.EventPetDied, "on_pet_died", petDiedHandler.Handle); err != nil {
		return fmt.Errorf("failed to register pet died handler: %w", err)
	}
	if err := dispatcher.Register(rankChangedHandler.EventType(), "on_rank_changed", rankChangedHandler.Handle); err != nil {
		return fmt.Errorf("failed to register rank changed handler: %w", err)
	}
	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start event dispatcher: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНТЕРВАЛЬНЫЕ ЗАДАЧИ
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:   log,
		Timezone: cfg.App.Location,
	})

	sweepJob := jobs.NewSweepDeadPetsJob(
		petRepo, sessions, petCache, eventBus, log,
		jobs.DefaultSweepDeadPetsConfig(),
	)
	rebuildJob := jobs.NewRebuildLeaderboardJob(
		petRepo, classroomRepo, leaderboardRepo, leaderboardCache, eventBus, log,
		jobs.DefaultRebuildLeaderboardConfig(),
	)
	evictJob := jobs.NewEvictStaleJob(
		sessions, paymentRepo, notifStore, log,
		jobs.DefaultEvictStaleConfig(),
	)
	notifyJob := jobs.NewProcessNotificationsJob(
		notificationSvc, log,
		jobs.DefaultProcessNotificationsConfig(),
	)

	intervalJobs := []struct {
		job      scheduler.Job
		schedule scheduler.Schedule
	}{
		{sweepJob, scheduler.NewIntervalSchedule(cfg.Scheduler.SweepDeadPetsInterval)},
		{rebuildJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildLeaderboardInterval)},
		{evictJob, scheduler.NewIntervalSchedule(cfg.Scheduler.EvictStaleInterval)},
		{notifyJob, scheduler.NewIntervalSchedule(cfg.Scheduler.NotificationsInterval)},
	}
	for _, ij := range intervalJobs {
		if err := sched.Register(ij.job, ij.schedule); err != nil {
			return fmt.Errorf("failed to register job %s: %w", ij.job.Name(), err)
		}
	}

	sched.OnJobError(func(jobName string, err error) {
		if alerter.Enabled() {
			alerter.Alert(ctx, fmt.Sprintf("⚠️ worker job %s failed: %v", jobName, err))
		}
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ЕЖЕДНЕВНЫЙ ДАЙДЖЕСТ (cron)
	// ─────────────────────────────────────────────────────────────────────────
	digestJob := jobs.NewDailyDigestJob(
		petRepo, studyRepo, examRepo, leaderboardCache, notificationSvc, log,
		jobs.DefaultDailyDigestConfig(),
	)

	cron := scheduler.NewCronScheduler(
		scheduler.WithLocation(cfg.App.Location),
		scheduler.WithCronLogger(log),
	)
	digestExpr := fmt.Sprintf("%d %d * * *", cfg.Scheduler.DailyDigestMinute, cfg.Scheduler.DailyDigestHour)
	if err := cron.AddJob(digestJob.Name(), digestExpr, digestJob); err != nil {
		return fmt.Errorf("failed to schedule daily digest: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	if err := cron.Start(ctx); err != nil {
		return fmt.Errorf("failed to start cron scheduler: %w", err)
	}

	log.Info("worker is running",
		"sweep_interval", cfg.Scheduler.SweepDeadPetsInterval.String(),
		"leaderboard_interval", cfg.Scheduler.RebuildLeaderboardInterval.String(),
		"evict_interval", cfg.Scheduler.EvictStaleInterval.String(),
		"notifications_interval", cfg.Scheduler.NotificationsInterval.String(),
		"digest_cron", digestExpr,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("stopping schedulers...")
	cron.Stop()
	if err := sched.Stop(); err != nil {
		log.Error("failed to stop scheduler gracefully", "error", err)
	}

	log.Info("shutdown completed")
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

	log := slog.New(handler).With("service", "worker")
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
