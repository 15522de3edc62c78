package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/akcyp/chess-online/internal/config"
	"github.com/akcyp/chess-online/internal/lobby"
	"github.com/akcyp/chess-online/internal/obslog"
	"github.com/akcyp/chess-online/internal/server"
	"github.com/akcyp/chess-online/internal/session"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = obslog.L().Sync() }()

	var sessions session.Store
	if cfg.RedisURL != "" {
		store, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			obslog.L().Fatal("redis init error", zap.Error(err))
		}
		defer store.Close()
		sessions = store
	} else {
		sessions = session.NewMemoryStore()
	}

	lb := lobby.New(cfg.DisconnectGrace, cfg.RoomDestroy)
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(cfg, sessions, lb).Handler(),
	}

	go func() {
		obslog.L().Info("server listening",
			zap.String("addr", cfg.ListenAddr),
			zap.Bool("tls", cfg.UseTLS()),
		)
		var err error
		if cfg.UseTLS() {
			err = srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			obslog.L().Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	obslog.L().Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		obslog.L().Error("shutdown error", zap.Error(err))
	}
}
