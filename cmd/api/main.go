package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"meal_tracker_api/internal/api"
	"meal_tracker_api/internal/auth"
	"meal_tracker_api/internal/config"
	"meal_tracker_api/internal/domain"
	"meal_tracker_api/internal/feature/admin"
	"meal_tracker_api/internal/feature/user"
	"meal_tracker_api/internal/health"
	"meal_tracker_api/internal/logging"
	"meal_tracker_api/internal/meal"
	"meal_tracker_api/internal/store"
	"meal_tracker_api/internal/telegram"
)

const (
	mongoConnectTimeout     = 10 * time.Second
	mongoIndexTimeout       = 5 * time.Second
	mongoDisconnectTimeout  = 5 * time.Second
	redisConnectTimeout     = 5 * time.Second
	adminBootstrapTimeout   = 5 * time.Second
	httpShutdownTimeout     = 10 * time.Second
	telegramShutdownTimeout = 10 * time.Second
)

func main() {
	startedAt := time.Now()
	configOnly := flag.Bool("config-only", false, "load and print configuration then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("configuration error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg)
	if err != nil {
		logging.Error("logger setup error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "logger setup error: %v\n", err)
		os.Exit(1)
	}

	if *configOnly {
		logging.Info("configuration check", logging.Fields{"event": "config_only"})
		fmt.Println("configuration check: ok")
		fmt.Println(config.FormatRedacted(cfg))
		return
	}

	logger.WithFields(logging.Fields{
		"event":       "startup",
		"mongo_db":    cfg.MongoDB,
		"http_port":   cfg.HTTPPort,
		"bot_enabled": cfg.BotEnabled,
		"redis":       cfg.RedisURL != "",
	}).Info("configuration loaded")

	connectCtx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	mongoManager, err := store.NewManager(connectCtx, cfg)
	cancel()
	if err != nil {
		fatal(logger, "mongo connection error", err)
	}

	logger.WithField("event", "mongo_connect").Info("connected to mongo")

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), mongoIndexTimeout)
	err = mongoManager.EnsureBaseIndexes(indexCtx)
	cancelIndexes()
	if err != nil {
		fatal(logger, "mongo index setup error", err)
	}

	logger.WithField("event", "mongo_indexes").Info("ensured base mongo indexes")

	if cfg.AdminTelegramID != 0 {
		adminCtx, cancelAdmin := context.WithTimeout(context.Background(), adminBootstrapTimeout)
		err := admin.NewRegistrar(mongoManager.Users(), logger).EnsureAdmin(adminCtx, cfg.AdminTelegramID)
		cancelAdmin()
		if err != nil {
			fatal(logger, "admin bootstrap error", err)
		}
	}

	var (
		tokenStore  auth.TokenStore = domain.NewRefreshTokenRepository(mongoManager.RefreshTokens())
		redisClient *redis.Client
		redisHealth health.Checker
	)
	if cfg.RedisURL != "" {
		redisCtx, cancelRedis := context.WithTimeout(context.Background(), redisConnectTimeout)
		redisClient, err = store.NewRedisClient(redisCtx, cfg.RedisURL)
		cancelRedis()
		if err != nil {
			fatal(logger, "redis connection error", err)
		}

		tokenStore = store.NewRedisTokenStore(redisClient)
		redisHealth = store.NewRedisPinger(redisClient)
		logger.WithField("event", "redis_connect").Info("connected to redis, refresh tokens stored in redis")
	}

	userRepository := domain.NewUserRepository(mongoManager.Users())
	mealService := meal.NewService(domain.NewMealRepository(mongoManager.Meals()), logger)

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		fatal(logger, "token issuer setup error", err)
	}

	authService, err := auth.NewService(
		auth.NewVerifier(cfg.TelegramToken, cfg.TelegramAuthMaxAge),
		issuer,
		user.NewRegistrar(mongoManager.Users(), logger),
		userRepository,
		tokenStore,
		logger,
	)
	if err != nil {
		fatal(logger, "auth service setup error", err)
	}

	router, err := api.NewRouter(cfg, api.Dependencies{
		Auth:     authService,
		Profiles: user.NewProfiles(userRepository),
		Meals:    mealService,
		Health:   health.NewHandler(mongoManager, redisHealth, logger),
		Liveness: health.NewUptime(startedAt, logger),
	}, logger)
	if err != nil {
		fatal(logger, "http router setup error", err)
	}

	httpServer := api.NewServer(cfg.HTTPPort, router, logger)

	var tgClient *telegram.Client
	if cfg.BotEnabled {
		commands, err := telegram.NewCommands(
			userRepository,
			mealService,
			store.NewStatsProvider(mongoManager.Users(), mongoManager.Meals()),
			logger,
		)
		if err != nil {
			fatal(logger, "telegram commands setup error", err)
		}

		tgClient, err = telegram.NewClient(cfg, commands, logger)
		if err != nil {
			fatal(logger, "telegram client setup error", err)
		}

		logger.WithField("event", "telegram_ready").Info("telegram client initialized")
	}

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpDone := make(chan error, 1)
	go func() {
		httpDone <- httpServer.ListenAndServe()
	}()

	telegramCtx, cancelTelegram := context.WithCancel(context.Background())
	tgDone := make(chan struct{})
	if tgClient != nil {
		go func() {
			tgClient.Start(telegramCtx)
			close(tgDone)
		}()
	}

	select {
	case <-signalCtx.Done():
		logger.WithField("event", "shutdown_signal").Info("received termination signal, shutting down")
	case err := <-httpDone:
		if err != nil {
			logger.WithField("event", "http_failed").WithError(err).Error("http server stopped unexpectedly")
		}
	}

	shutdownHTTPCtx, cancelHTTP := context.WithTimeout(context.Background(), httpShutdownTimeout)
	if err := httpServer.Shutdown(shutdownHTTPCtx); err != nil {
		logger.WithError(err).Error("http shutdown error")
	}
	cancelHTTP()

	cancelTelegram()
	if tgClient != nil {
		waitCtx, cancelWait := context.WithTimeout(context.Background(), telegramShutdownTimeout)
		select {
		case <-tgDone:
		case <-waitCtx.Done():
			logger.WithField("event", "telegram_shutdown_timeout").Warn("timed out waiting for telegram client to stop")
		}
		cancelWait()
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.WithError(err).Error("redis close error")
		} else {
			logger.WithField("event", "redis_disconnect").Info("redis client closed")
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	if err := mongoManager.Close(shutdownCtx); err != nil {
		logger.WithError(err).Error("mongo disconnect error")
	} else {
		logger.WithField("event", "mongo_disconnect").Info("mongo client disconnected")
	}
	cancelShutdown()

	logger.WithField("event", "shutdown_complete").Info("shutdown complete")
}

func fatal(logger *logrus.Entry, msg string, err error) {
	logger.WithError(err).Error(msg)
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}
