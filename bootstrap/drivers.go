package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"forms-search-indexer/config"
	"forms-search-indexer/internal/auth"
	"forms-search-indexer/logger"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meilisearch/meilisearch-go"
)

// initDatabasePool creates the pgx pool. DATABASE_URL wins over the
// per-field configuration when set.
func initDatabasePool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = cfg.Database.GetDatabaseURL()
	}

	poolCfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Database.Timeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Logger.Info("Database connected successfully")
	return pool, nil
}

// initMeilisearchClient initializes the Meilisearch client, retrying
// with exponential backoff until the engine answers its health check.
func initMeilisearchClient(ctx context.Context, cfg *config.Config) (meilisearch.ServiceManager, error) {
	if cfg.Meilisearch.Host == "" {
		return nil, fmt.Errorf("MEILISEARCH_HOST environment variable is not set")
	}

	logger.Logger.Info("Connecting to Meilisearch", "host", cfg.Meilisearch.Host)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 30 * time.Second

	client, err := backoff.Retry(ctx, func() (meilisearch.ServiceManager, error) {
		c := meilisearch.New(cfg.Meilisearch.Host, meilisearch.WithAPIKey(cfg.Meilisearch.APIKey))
		if _, healthErr := c.Health(); healthErr != nil {
			logger.Logger.Warn("Meilisearch not ready, retrying", "err", healthErr)
			return nil, healthErr
		}
		return c, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(5))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Meilisearch: %w", err)
	}

	logger.Logger.Info("Connected to Meilisearch successfully")
	return client, nil
}

// initAuthClient builds the service-token validator. Returns nil when
// no secret is configured, which leaves the admin endpoints open.
func initAuthClient() *auth.Client {
	secret := os.Getenv("SERVICE_AUTH_SECRET")
	if secretFile := os.Getenv("SERVICE_AUTH_SECRET_FILE"); secretFile != "" {
		if content, err := os.ReadFile(secretFile); err == nil {
			secret = strings.TrimSpace(string(content))
		}
	}
	if secret == "" {
		logger.Logger.Warn("SERVICE_AUTH_SECRET not set, admin endpoints are unauthenticated")
		return nil
	}

	return auth.NewClient(auth.Config{
		ServiceName:   "forms-search-indexer",
		ServiceSecret: secret,
		TokenTTL:      time.Hour,
	})
}
