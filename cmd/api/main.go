// Package main はWebサーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/basic-auth/internal/config"
	"github.com/yourusername/basic-auth/internal/logger"
	"github.com/yourusername/basic-auth/internal/storage"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(cfg.LogLevel, !cfg.IsRelease())

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// ユーザーストア（DB）の準備
	db, err := storage.Open(storage.Config{
		Driver: cfg.DatabaseDriver,
		DSN:    cfg.DatabaseDSN,
		LogSQL: cfg.DatabaseLogSQL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := storage.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	// セッションストアの準備
	store, closeStore, err := newSessionStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up session store")
	}
	defer closeStore()

	router, err := newRouter(cfg, store, storage.NewUserStore(db))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up router")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("mode", cfg.GinMode).Str("session_store", cfg.SessionStore).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info().Msg("server exited")
}
