// Package app holds the wiring shared by the bidwatch and marketctl binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"marketplace-client/internal/config"
	"marketplace-client/internal/domain"
	"marketplace-client/internal/infrastructure/filestore"
	"marketplace-client/internal/infrastructure/marketapi"
	"marketplace-client/internal/infrastructure/mysql"
	"marketplace-client/internal/infrastructure/redis"
	"marketplace-client/internal/infrastructure/websocket"
	"marketplace-client/internal/services"
	"marketplace-client/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
)

// LoadConfig reads path when given, otherwise the default search paths.
func LoadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func NewLogger(cfg config.LoggingConfig) (logger.Logger, error) {
	return logger.NewWithOptions(logger.Options{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Output:     cfg.Output,
		MaxAgeDays: cfg.MaxAgeDays,
	})
}

func NewAPIClient(cfg config.APIConfig, log logger.Logger) (*marketapi.Client, error) {
	return marketapi.NewClient(marketapi.Config{
		BaseURL:           cfg.BaseURL,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		UserAgent:         cfg.UserAgent,
	}, log)
}

// NewStreamDialer uses stream.url when set and otherwise derives the
// websocket base from the API base.
func NewStreamDialer(cfg *config.Config, client *marketapi.Client, log logger.Logger) (*websocket.StreamDialer, error) {
	base := cfg.Stream.URL
	if base == "" {
		derived, err := marketapi.StreamBaseURL(cfg.API.BaseURL)
		if err != nil {
			return nil, err
		}
		base = derived
	}
	return websocket.NewStreamDialer(websocket.DialerConfig{
		BaseURL:          base,
		HandshakeTimeout: cfg.Stream.ConnectTimeout,
		PingInterval:     cfg.Stream.PingInterval,
	}, client.Token, log), nil
}

func ReconcilerConfig(cfg config.StreamConfig) services.ReconcilerConfig {
	return services.ReconcilerConfig{
		AutoAttach:           cfg.AutoAttach,
		ConnectTimeout:       cfg.ConnectTimeout,
		BackoffMin:           cfg.BackoffMin,
		BackoffMax:           cfg.BackoffMax,
		BackoffFactor:        cfg.BackoffFactor,
		BackoffJitter:        cfg.BackoffJitter,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
	}
}

// OpenRedis returns nil when redis is disabled.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redisClient.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return redis.NewClient(ctx, redis.Options{
		Address:  cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// OpenArchive returns nil handles when mysql is disabled.
func OpenArchive(ctx context.Context, cfg config.MySQLConfig) (*sql.DB, *mysql.MySQLBidRepository, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}
	db, err := mysql.Open(ctx, mysql.Options{
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := mysql.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, mysql.NewMySQLBidRepository(db), nil
}

// NewTokenStore picks the configured session backend. rdb may be nil for
// the file backend.
func NewTokenStore(cfg *config.Config, rdb *redisClient.Client) (domain.TokenStore, error) {
	switch strings.ToLower(cfg.Auth.TokenBackend) {
	case config.TokenBackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("token backend %q needs a redis connection", cfg.Auth.TokenBackend)
		}
		return redis.NewRedisTokenStore(rdb, KeyPrefix(cfg.Redis), cfg.Auth.Profile), nil
	default:
		store, err := filestore.NewFileTokenStore(cfg.Auth.TokenFile)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// KeyPrefix normalises the redis key prefix to end in a colon.
func KeyPrefix(cfg config.RedisConfig) string {
	if cfg.KeyPrefix == "" || strings.HasSuffix(cfg.KeyPrefix, ":") {
		return cfg.KeyPrefix
	}
	return cfg.KeyPrefix + ":"
}
