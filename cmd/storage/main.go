package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sir_venger/video_registry/internal/app/storagehttp"
	"github.com/sir_venger/video_registry/internal/blobstore"
	"github.com/sir_venger/video_registry/internal/logging"
	"go.uber.org/zap"
)

const (
	defaultStorageAddr   = ":8081"
	dataDirEnv           = "DATA_DIR"
	gcTTLHoursEnv        = "GC_TTL_HOURS"
	gcIntervalMinEnv     = "GC_INTERVAL_MIN"
	logLevelEnv          = "LOG_LEVEL"
	defaultDataDir       = "/data"
	defaultGCTTLHours    = 24
	defaultGCIntervalMin = 30
)

func main() {
	addr := flag.String("addr", defaultStorageAddr, "listen address")
	flag.Parse()

	logger, err := logging.New(os.Getenv(logLevelEnv))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	dataDir := os.Getenv(dataDirEnv)
	if dataDir == "" {
		dataDir = defaultDataDir
	}
	store, err := blobstore.NewFSStore(dataDir)
	if err != nil {
		logger.Fatal("open data dir", zap.String("dir", dataDir), zap.Error(err))
	}

	h := storagehttp.New(store, logger)

	// Настраиваем фоновый GC по удалению брошенных загрузок.
	gcTTLHours := envInt(gcTTLHoursEnv, defaultGCTTLHours)
	gcEveryMin := envInt(gcIntervalMinEnv, defaultGCIntervalMin)
	stopGC := storagehttp.StartGC(store, time.Duration(gcTTLHours)*time.Hour, time.Duration(gcEveryMin)*time.Minute, logger)
	defer stopGC()

	server := &http.Server{Addr: *addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("storage shutdown", zap.Error(err))
		}
	}()

	logger.Info("storage listening",
		zap.String("addr", *addr),
		zap.String("data_dir", dataDir),
		zap.Int("gc_ttl_hours", gcTTLHours),
		zap.Int("gc_every_min", gcEveryMin),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("storage serve", zap.Error(err))
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("storage final shutdown", zap.Error(err))
	}
}

// envInt возвращает целочисленное значение из переменной окружения либо дефолт.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
