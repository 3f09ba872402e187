package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"pinyinmatch/internal/config"
	"pinyinmatch/internal/handler"
	"pinyinmatch/internal/logger"
	"pinyinmatch/internal/middleware"
	"pinyinmatch/internal/repository"
	"pinyinmatch/internal/repository/postgres"
	"pinyinmatch/internal/repository/sqlite"
	"pinyinmatch/internal/server"
	"pinyinmatch/internal/service"
	"pinyinmatch/internal/speech"
	"pinyinmatch/internal/tts"

	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting Pinyin Match")

	// Open the key-value store
	store, db, err := openStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer db.Close()

	// Speech proxy and static files
	google := tts.NewGoogleClient(cfg.GoogleTTSAPIKey, log)
	srv, err := server.New(server.Config{Addr: cfg.Addr(), StaticRoot: cfg.StaticRoot}, google, log)
	if err != nil {
		log.Fatal("Failed to create server", zap.Error(err))
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info(fmt.Sprintf("Pinyin Match: http://localhost:%s", cfg.Port))
	if cfg.RemoteSpeechEnabled() {
		log.Info("Google TTS enabled (zh-CN).")
	} else {
		log.Warn("GOOGLE_TTS_API_KEY not set. Install a Chinese voice for local speech or set the key for Google TTS.")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional Telegram front-end
	var (
		bot      *tele.Bot
		sessions *service.Sessions
	)
	if cfg.BotEnabled() {
		bot, sessions, err = startBot(ctx, cfg, store, log)
		if err != nil {
			log.Fatal("Failed to start bot", zap.Error(err))
		}
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	log.Info("Shutdown signal received, stopping...")

	// Graceful shutdown
	if bot != nil {
		bot.Stop()
		sessions.CloseAll()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down HTTP server", zap.Error(err))
	}

	log.Info("Stopped gracefully")
}

// openStore opens PostgreSQL when configured, SQLite otherwise
func openStore(cfg *config.Config, log *zap.Logger) (repository.KVStore, *sql.DB, error) {
	if !cfg.UsePostgres() {
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using SQLite store", zap.String("path", cfg.SQLitePath))
		return sqlite.NewKVRepo(db), db, nil
	}

	// Connect to database with retries
	db, err := connectDatabase(cfg.DSN(), log)
	if err != nil {
		return nil, nil, err
	}

	log.Info("Database connection established")

	// Run migrations
	if err := runMigrations(db, log); err != nil {
		db.Close()
		return nil, nil, err
	}

	log.Info("Database migrations completed")
	return postgres.NewKVRepo(db), db, nil
}

// startBot wires the Telegram front-end and starts polling
func startBot(ctx context.Context, cfg *config.Config, store repository.KVStore, log *zap.Logger) (*tele.Bot, *service.Sessions, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create bot: %w", err)
	}

	log.Info("Telegram bot initialized")

	espeakBin := cfg.ESpeakBin
	if _, err := exec.LookPath(espeakBin); err != nil {
		log.Warn("Local speech disabled", zap.String("binary", espeakBin), zap.Error(err))
		espeakBin = ""
	}

	sessions := service.NewSessions(handler.NewSessionFactory(handler.SessionDeps{
		Bot:           bot,
		Store:         store,
		Remote:        speech.NewRemoteClient(cfg.SpeakOrigin, nil),
		ESpeakBin:     espeakBin,
		RemoteEnabled: cfg.RemoteSpeechEnabled(),
		Logger:        log,
	}))
	authService := service.NewAuthService(store, cfg.BotPassword)
	cleanupService := service.NewCleanupService(sessions, log)

	bot.Use(middleware.AuthMiddleware(authService, log))

	h := handler.NewHandler(bot, authService, sessions, log)
	h.RegisterHandlers()

	log.Info("Handlers registered")

	// Start cleanup job in background
	go runCleanupJob(ctx, cleanupService, log)

	// Start bot in background
	go func() {
		log.Info("Bot started successfully")
		bot.Start()
	}()

	return bot, sessions, nil
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(dsn string, log *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			log.Warn("Failed to open database connection",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(retryDelay)
			continue
		}

		// Test connection
		if err = db.Ping(); err != nil {
			log.Warn("Failed to ping database",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			db.Close()
			time.Sleep(retryDelay)
			continue
		}

		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB, log *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	switch {
	case err == migrate.ErrNoChange:
		log.Info("No new migrations to apply")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		log.Info("Migrations applied successfully")
	}
	return nil
}

// runCleanupJob closes idle sessions every hour
func runCleanupJob(ctx context.Context, cleanupService *service.CleanupService, log *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Cleanup job stopped")
			return
		case <-ticker.C:
			cleanupService.CleanupIdleSessions()
		}
	}
}
