package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/sir_venger/video_registry/internal/config"
	"github.com/sir_venger/video_registry/internal/logging"
	meta "github.com/sir_venger/video_registry/internal/repo"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	dsn := strings.TrimSpace(cfg.MetaDSN)
	if dsn == "" || strings.HasPrefix(dsn, "memory://") {
		logger.Info("memory meta store selected, skipping migrations")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := meta.ApplyMigrations(ctx, dsn); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	logger.Info("migrations applied")
}
