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
	"github.com/habitlog/internal/config"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/handler"
	applog "github.com/habitlog/internal/log"
	"github.com/habitlog/internal/router"
)

func main() {
	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: applog.ComponentApp,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", applog.FieldError, err)
		os.Exit(1)
	}
	loc, _ := cfg.Location()

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		logger.Error("failed to initialize database", applog.FieldError, err, "path", cfg.DatabasePath)
		os.Exit(1)
	}

	gin.SetMode(cfg.GinMode)
	api := handler.NewAPI(db.DB, loc)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.SetupRouter(api, logger, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String(), applog.FieldOperation, applog.OpShutdown)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", applog.FieldError, err)
		}
	}()

	logger.Info("starting habitlog server", "addr", cfg.ListenAddr, "database", cfg.DatabasePath,
		"timezone", loc.String(), applog.FieldOperation, applog.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", applog.FieldError, err)
		os.Exit(1)
	}

	if sqlDB, err := db.DB.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("server stopped")
}
