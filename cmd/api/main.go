package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ai-spm/internal/bootstrap"
	"ai-spm/internal/config"
	apihttp "ai-spm/internal/http"
	"ai-spm/internal/notify"
	"ai-spm/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := bootstrap.OpenSessionStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("session store", zap.String("kind", cfg.SessionStore), zap.Error(err))
	}
	defer closeStore()

	transport, err := bootstrap.NewTransport(cfg, logger)
	if err != nil {
		logger.Fatal("auth transport", zap.String("backend", cfg.AuthBackend), zap.Error(err))
	}

	views, err := bootstrap.LoadPolicy(cfg)
	if err != nil {
		logger.Fatal("view policy", zap.String("file", cfg.ViewPolicyFile), zap.Error(err))
	}

	hub := notify.NewHub()
	notifier := notify.Multi(notify.NewLogNotifier(logger), hub)
	sessions := service.NewSessionManager(logger, store, transport, notifier)
	sessions.OnClear(service.ClearerFunc(func() {
		logger.Debug("session caches cleared")
	}))

	authHandler := apihttp.NewAuthHandler(logger, sessions)
	viewHandler := apihttp.NewViewHandler(views)
	eventsHandler := apihttp.NewEventsHandler(logger, sessions, hub)
	router := apihttp.NewRouter(logger, authHandler, viewHandler, eventsHandler, views, cfg.AuthPath)

	server := newServer(ctx, ":"+cfg.HTTPPort, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server",
			zap.String("port", cfg.HTTPPort),
			zap.String("session_store", cfg.SessionStore),
			zap.String("auth_backend", cfg.AuthBackend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down server")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
	}
	sessions.Wait()
}

// newServer deriva el contexto de cada request de ctx: al cancelarlo se cierran
// los streams SSE abiertos y Shutdown puede terminar.
func newServer(ctx context.Context, addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
}
