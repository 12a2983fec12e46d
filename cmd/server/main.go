package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/go-lawfirm/internal/ai"
	"github.com/diewo77/go-lawfirm/internal/config"
	"github.com/diewo77/go-lawfirm/internal/db"
	"github.com/diewo77/go-lawfirm/internal/logger"
	"github.com/diewo77/go-lawfirm/internal/mail"
	"github.com/diewo77/go-lawfirm/internal/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Seed the administrator account and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logger.Init(logger.Config{Level: cfg.Log.Level, Environment: cfg.Log.Environment, Service: cfg.Log.Service})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()
	conn, err := db.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close(conn) }()

	migrateOpts := db.MigrateOptions{SQL: cfg.Database.Driver == "postgres", Dir: cfg.App.MigrationsDir, URL: cfg.Database.URL()}

	if *migrateOnlyFlag {
		if err := db.Migrate(conn, migrateOpts); err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
		log.Info("migrations completed")
		return
	}
	if *seedOnlyFlag {
		if _, err := db.EnsureAdmin(ctx, conn, cfg.Admin); err != nil {
			log.Fatal("seeding failed", zap.Error(err))
		}
		log.Info("seeding completed")
		return
	}

	// Run migrations on startup if enabled
	if cfg.App.Migrations {
		if err := db.Migrate(conn, migrateOpts); err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
		log.Info("migrations completed")
	}
	if cfg.App.Seed {
		if _, err := db.EnsureAdmin(ctx, conn, cfg.Admin); err != nil {
			log.Warn("admin seed skipped", zap.Error(err))
		}
	}

	backends, closeBackends, err := openBackends(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialise backends", zap.Error(err))
	}
	defer closeBackends()

	app := NewApp(conn, cfg, log, backends)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Server.Port), zap.Bool("dev", cfg.App.Dev))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	log.Info("server stopped gracefully")
}

// openBackends builds file storage, the mailer and the drafting model from cfg.
// The returned func releases whatever needs closing.
func openBackends(ctx context.Context, cfg *config.Config, log *zap.Logger) (Backends, func(), error) {
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return Backends{}, nil, err
	}
	gen, err := ai.New(ctx, cfg.Gemini)
	if err != nil {
		log.Warn("AI drafting disabled", zap.Error(err))
		gen = ai.Disabled{}
	}
	if !cfg.Mail.Enabled() {
		log.Info("SMTP not configured, outgoing mail is logged only")
	}
	closer := func() {
		if c, ok := gen.(io.Closer); ok {
			_ = c.Close()
		}
	}
	return Backends{Storage: store, Mailer: mail.New(cfg.Mail, log), AI: gen}, closer, nil
}
