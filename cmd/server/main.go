package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/praevia/atmp/internal/config"
	"github.com/praevia/atmp/internal/db"
	"github.com/praevia/atmp/internal/notify"
	"github.com/praevia/atmp/internal/server"
	"github.com/praevia/atmp/internal/storage"
)

func main() {
	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := config.NewLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	dbConn, err := db.ConnectAndMigrate(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}

	store := storage.New(cfg.MediaRoot)

	var notifier notify.Notifier
	if cfg.Notifier == "smtp" && cfg.SMTPHost != "" {
		notifier = &notify.SMTPNotifier{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			From: cfg.SMTPFrom,
			Pass: cfg.SMTPPass,
		}
	} else {
		notifier = &notify.LogNotifier{Log: log}
	}

	app := server.NewApp(dbConn, log, store, notifier)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	log.Info("server stopped gracefully")
}
