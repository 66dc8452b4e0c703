// Command gateway runs the log dispatch gateway: it accepts log packets
// over HTTP and fans each message out to a weighted pool of healthy
// downstream analyzers.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/karteekpv77/loggateway/internal/api"
	"github.com/karteekpv77/loggateway/internal/config"
	"github.com/karteekpv77/loggateway/internal/gateway"
)

const (
	serviceName     = "log-dispatch-gateway"
	serviceVersion  = "1.0.0"
	deadLetterPath  = "dead_letters.json"
	shutdownGrace   = 10 * time.Second
	readTimeout     = 30 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 120 * time.Second
)

func main() {
	logger := initLogger()
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting log dispatch gateway",
		zap.String("service", serviceName),
		zap.String("version", serviceVersion),
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	gw, err := gateway.New(cfg, deadLetterPath, logger)
	if err != nil {
		logger.Fatal("failed to build gateway", zap.Error(err))
	}

	if err := gw.Start(); err != nil {
		logger.Fatal("failed to start gateway", zap.Error(err))
	}

	limits := api.Limits{
		MaxMessagesPerPacket: cfg.MaxMessagesPerPacket,
		MaxLogMessageLength:  cfg.MaxLogMessageLength,
		MaxPacketSizeBytes:   cfg.MaxPacketSizeBytes,
	}
	handler := api.NewHandler(gw, limits, logger)
	router := handler.SetupRoutes()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	go func() {
		logger.Info("http server listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown did not complete cleanly", zap.Error(err))
	}

	if err := gw.Stop(ctx); err != nil {
		logger.Error("gateway shutdown did not complete cleanly", zap.Error(err))
	}

	logger.Info("shutdown complete")
}

func initLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	cfg.Encoding = "console"
	cfg.EncoderConfig = zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "message",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	logger, err := cfg.Build()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	return logger
}
