// Package bootstrap arma las dependencias compartidas por los binarios a partir de la configuración.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ai-spm/internal/authapi"
	"ai-spm/internal/config"
	"ai-spm/internal/db"
	"ai-spm/internal/policy"
	"ai-spm/internal/repository"
)

const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"

	BackendMock = "mock"
	BackendHTTP = "http"
)

var ErrUnknownBackend = errors.New("unknown backend")

// OpenSessionStore abre el almacenamiento del registro de sesión indicado por SESSION_STORE.
// La función devuelta libera las conexiones abiertas y siempre es no nula.
func OpenSessionStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.SessionStore, func(), error) {
	noop := func() {}
	kind := strings.ToLower(strings.TrimSpace(cfg.SessionStore))

	switch kind {
	case StoreMemory:
		return repository.NewMemorySessionStore(), noop, nil

	case StoreFile, "":
		return repository.NewFileSessionStore(cfg.SessionFile), noop, nil

	case StoreSQLite:
		store, err := repository.OpenSQLiteSessionStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("sqlite close failed", zap.Error(err))
			}
		}, nil

	case StoreRedis:
		if cfg.RedisAddr == "" {
			return nil, noop, errors.New("REDIS_ADDR is required for the redis session store")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(ctxPing).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("redis ping: %w", err)
		}
		return repository.NewRedisSessionStore(client, cfg.SessionKeyPrefix), func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close failed", zap.Error(err))
			}
		}, nil

	case StorePostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, noop, fmt.Errorf("db connect: %w", err)
		}
		if err := db.Ping(ctx, pool); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("db ping: %w", err)
		}
		store := repository.NewPgSessionStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("ensure schema: %w", err)
		}
		return store, pool.Close, nil
	}

	return nil, noop, fmt.Errorf("%w: session store %q", ErrUnknownBackend, cfg.SessionStore)
}

// NewTransport construye el transporte de autenticación indicado por AUTH_BACKEND.
func NewTransport(cfg *config.Config, logger *zap.Logger) (authapi.Transport, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.AuthBackend)) {
	case BackendMock, "":
		return authapi.NewMockTransport(cfg.LoginDelay(), cfg.LogoutDelay(), cfg.RegisterDelay()), nil
	case BackendHTTP:
		if cfg.AuthBaseURL == "" {
			return nil, errors.New("AUTH_BASE_URL is required for the http auth backend")
		}
		return authapi.NewHTTPClient(cfg.AuthBaseURL, nil, logger), nil
	}
	return nil, fmt.Errorf("%w: auth backend %q", ErrUnknownBackend, cfg.AuthBackend)
}

// LoadPolicy devuelve la política de vistas por defecto o la fusionada con VIEW_POLICY_FILE.
func LoadPolicy(cfg *config.Config) (*policy.Policy, error) {
	if cfg.ViewPolicyFile == "" {
		return policy.Default(), nil
	}
	return policy.LoadFile(cfg.ViewPolicyFile)
}
