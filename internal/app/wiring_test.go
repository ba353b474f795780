package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"marketplace-client/internal/config"
	"marketplace-client/internal/infrastructure/filestore"
	"marketplace-client/internal/infrastructure/redis"
	"marketplace-client/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func baseConfig(t *testing.T) *config.Config {
	return &config.Config{
		API: config.APIConfig{BaseURL: "https://market.example.com/api", Timeout: time.Second},
		Stream: config.StreamConfig{
			ConnectTimeout: 2 * time.Second,
			PingInterval:   10 * time.Second,
			BackoffMin:     time.Second,
			BackoffMax:     8 * time.Second,
			BackoffFactor:  3,
			AutoAttach:     true,
		},
		Auth:  config.AuthConfig{TokenBackend: config.TokenBackendFile, TokenFile: filepath.Join(t.TempDir(), "token"), Profile: "default"},
		Redis: config.RedisConfig{KeyPrefix: "marketplace"},
	}
}

func TestStreamDialerDerivesURL(t *testing.T) {
	cfg := baseConfig(t)
	client, err := NewAPIClient(cfg.API, logger.NewNop())
	require.NoError(t, err)

	dialer, err := NewStreamDialer(cfg, client, logger.NewNop())
	require.NoError(t, err)
	require.Equal(t, "wss://market.example.com/ws/bids/7", dialer.StreamURL("7"))

	cfg.Stream.URL = "ws://localhost:9000"
	dialer, err = NewStreamDialer(cfg, client, logger.NewNop())
	require.NoError(t, err)
	require.Equal(t, "ws://localhost:9000/ws/bids/7", dialer.StreamURL("7"))
}

func TestReconcilerConfigMapping(t *testing.T) {
	rc := ReconcilerConfig(baseConfig(t).Stream)
	require.True(t, rc.AutoAttach)
	require.Equal(t, 2*time.Second, rc.ConnectTimeout)
	require.Equal(t, float64(3), rc.BackoffFactor)
	require.Equal(t, 8*time.Second, rc.BackoffMax)
}

func TestNewTokenStore(t *testing.T) {
	cfg := baseConfig(t)

	store, err := NewTokenStore(cfg, nil)
	require.NoError(t, err)
	require.IsType(t, &filestore.FileTokenStore{}, store)

	cfg.Auth.TokenBackend = config.TokenBackendRedis
	_, err = NewTokenStore(cfg, nil)
	require.Error(t, err)

	mr := miniredis.RunT(t)
	rdb, err := redis.NewClient(context.Background(), redis.Options{Address: mr.Addr()})
	require.NoError(t, err)
	defer rdb.Close()

	store, err = NewTokenStore(cfg, rdb)
	require.NoError(t, err)
	require.NoError(t, store.SaveToken(context.Background(), "tok"))
	require.True(t, mr.Exists("marketplace:session:default:token"))
}

func TestOptionalBackendsDisabled(t *testing.T) {
	rdb, err := OpenRedis(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	require.Nil(t, rdb)

	db, archive, err := OpenArchive(context.Background(), config.MySQLConfig{})
	require.NoError(t, err)
	require.Nil(t, db)
	require.Nil(t, archive)
}

func TestKeyPrefix(t *testing.T) {
	require.Equal(t, "mc:", KeyPrefix(config.RedisConfig{KeyPrefix: "mc"}))
	require.Equal(t, "mc:", KeyPrefix(config.RedisConfig{KeyPrefix: "mc:"}))
	require.Equal(t, "", KeyPrefix(config.RedisConfig{}))
}
