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

	appcfg "github.com/thevivotran/chessduel/internal/config"
	"github.com/thevivotran/chessduel/internal/obslog"
	"github.com/thevivotran/chessduel/internal/server"
)

func main() {
	cfg, err := appcfg.LoadServer()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("log init error: %v", err)
	}

	ttl := time.Duration(cfg.SessionTTLSec) * time.Second
	var store server.Store
	if cfg.RedisURL != "" {
		store, err = server.NewRedisStore(cfg.RedisURL, ttl)
		if err != nil {
			log.Fatalf("redis store error: %v", err)
		}
		obslog.L().Info("store_ready", zap.String("backend", "redis"))
	} else {
		store = server.NewMemoryStore(ttl)
		obslog.L().Info("store_ready", zap.String("backend", "memory"))
	}

	hub := server.NewHub(store)
	ws := server.NewWSServer(hub, store)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           ws.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		obslog.L().Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obslog.L().Fatal("serve_failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	obslog.L().Info("shutting_down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		obslog.L().Warn("shutdown_error", zap.Error(err))
	}
	if err := store.Close(); err != nil {
		obslog.L().Warn("store_close_error", zap.Error(err))
	}
}
