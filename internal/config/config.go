package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Stream  StreamConfig  `mapstructure:"stream"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Logging LoggingConfig `mapstructure:"logging"`
	Server  ServerConfig  `mapstructure:"server"`
	Redis   RedisConfig   `mapstructure:"redis"`
	MySQL   MySQLConfig   `mapstructure:"mysql"`
	Resync  ResyncConfig  `mapstructure:"resync"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Leader  LeaderConfig  `mapstructure:"leader"`
}

type APIConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	UserAgent         string        `mapstructure:"user_agent"`
}

type StreamConfig struct {
	// URL overrides the websocket base derived from api.base_url.
	URL                  string        `mapstructure:"url"`
	ConnectTimeout       time.Duration `mapstructure:"connect_timeout"`
	PingInterval         time.Duration `mapstructure:"ping_interval"`
	BackoffMin           time.Duration `mapstructure:"backoff_min"`
	BackoffMax           time.Duration `mapstructure:"backoff_max"`
	BackoffFactor        float64       `mapstructure:"backoff_factor"`
	BackoffJitter        bool          `mapstructure:"backoff_jitter"`
	MaxReconnectAttempts int           `mapstructure:"max_reconnect_attempts"`
	AutoAttach           bool          `mapstructure:"auto_attach"`
	SubscriberBuffer     int           `mapstructure:"subscriber_buffer"`
}

type AuthConfig struct {
	TokenBackend string `mapstructure:"token_backend"`
	TokenFile    string `mapstructure:"token_file"`
	Profile      string `mapstructure:"profile"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type RedisConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Address   string        `mapstructure:"address"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	Channel   string        `mapstructure:"channel"`
	ViewTTL   time.Duration `mapstructure:"view_ttl"`
}

type MySQLConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type ResyncConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

type WatchConfig struct {
	Listings []string `mapstructure:"listings"`
}

// LeaderConfig gates accepted-bid publishing when several bidwatch
// instances share one redis. An empty InstanceID gets a generated one.
type LeaderConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	TTL        time.Duration `mapstructure:"ttl"`
	InstanceID string        `mapstructure:"instance_id"`
}

const (
	TokenBackendFile  = "file"
	TokenBackendRedis = "redis"
)

func newViper() *viper.Viper {
	v := viper.New()

	// Set default values
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.requests_per_second", 10.0)
	v.SetDefault("api.burst", 5)
	v.SetDefault("api.user_agent", "marketplace-client/1.0")
	v.SetDefault("stream.url", "")
	v.SetDefault("stream.connect_timeout", 5*time.Second)
	v.SetDefault("stream.ping_interval", 20*time.Second)
	v.SetDefault("stream.backoff_min", 500*time.Millisecond)
	v.SetDefault("stream.backoff_max", 30*time.Second)
	v.SetDefault("stream.backoff_factor", 2.0)
	v.SetDefault("stream.backoff_jitter", true)
	v.SetDefault("stream.max_reconnect_attempts", 0)
	v.SetDefault("stream.auto_attach", true)
	v.SetDefault("stream.subscriber_buffer", 64)
	v.SetDefault("auth.token_backend", TokenBackendFile)
	v.SetDefault("auth.token_file", "~/.marketplace/token")
	v.SetDefault("auth.profile", "default")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_age_days", 7)
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "marketplace")
	v.SetDefault("redis.channel", "marketplace:bids")
	v.SetDefault("redis.view_ttl", 24*time.Hour)
	v.SetDefault("mysql.enabled", false)
	v.SetDefault("mysql.dsn", "market_user:market_pass@tcp(localhost:3306)/market_watch?parseTime=true")
	v.SetDefault("mysql.max_open_conns", 10)
	v.SetDefault("mysql.max_idle_conns", 5)
	v.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("resync.enabled", true)
	v.SetDefault("resync.schedule", "@every 5m")
	v.SetDefault("watch.listings", []string{})
	v.SetDefault("leader.enabled", false)
	v.SetDefault("leader.ttl", 15*time.Second)
	v.SetDefault("leader.instance_id", "")

	// Environment variable support
	v.AutomaticEnv()

	// Environment variable mappings
	v.BindEnv("api.base_url", "MARKET_API_URL")
	v.BindEnv("api.timeout", "MARKET_API_TIMEOUT")
	v.BindEnv("stream.url", "MARKET_STREAM_URL")
	v.BindEnv("auth.token_backend", "MARKET_TOKEN_BACKEND")
	v.BindEnv("auth.token_file", "MARKET_TOKEN_FILE")
	v.BindEnv("auth.profile", "MARKET_PROFILE")
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.format", "LOG_FORMAT")
	v.BindEnv("logging.output", "LOG_OUTPUT")
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.host", "SERVER_HOST")
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("mysql.enabled", "MYSQL_ENABLED")
	v.BindEnv("mysql.dsn", "MYSQL_DSN")
	v.BindEnv("watch.listings", "WATCH_LISTINGS")
	v.BindEnv("leader.enabled", "LEADER_ENABLED")
	v.BindEnv("leader.instance_id", "INSTANCE_ID")

	return v
}

func Load() (*Config, error) {
	v := newViper()

	// Configuration file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/marketplace-client/")

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return decode(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects configurations the client cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.Stream.URL != "" {
		su, err := url.Parse(c.Stream.URL)
		if err != nil || (su.Scheme != "ws" && su.Scheme != "wss") {
			return fmt.Errorf("stream.url must be a ws(s) URL, got %q", c.Stream.URL)
		}
	}
	if c.Stream.ConnectTimeout <= 0 {
		return errors.New("stream.connect_timeout must be positive")
	}
	if c.Stream.BackoffMin <= 0 || c.Stream.BackoffMax < c.Stream.BackoffMin {
		return fmt.Errorf("stream backoff range invalid: min=%s max=%s", c.Stream.BackoffMin, c.Stream.BackoffMax)
	}
	if c.Stream.MaxReconnectAttempts < 0 {
		return errors.New("stream.max_reconnect_attempts must not be negative")
	}
	switch strings.ToLower(c.Auth.TokenBackend) {
	case TokenBackendFile, TokenBackendRedis:
	default:
		return fmt.Errorf("auth.token_backend must be %q or %q, got %q", TokenBackendFile, TokenBackendRedis, c.Auth.TokenBackend)
	}
	if strings.EqualFold(c.Auth.TokenBackend, TokenBackendRedis) && !c.Redis.Enabled {
		return errors.New("auth.token_backend=redis requires redis.enabled")
	}
	if c.Leader.Enabled {
		if !c.Redis.Enabled {
			return errors.New("leader.enabled requires redis.enabled")
		}
		if c.Leader.TTL < time.Second {
			return fmt.Errorf("leader.ttl must be at least 1s, got %s", c.Leader.TTL)
		}
	}
	return nil
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"API: %s, Stream: %s, Server: %s:%d, Redis: %t(%s), MySQL: %t, Watch: %v",
		c.API.BaseURL,
		c.Stream.URL,
		c.Server.Host,
		c.Server.Port,
		c.Redis.Enabled,
		c.Redis.Address,
		c.MySQL.Enabled,
		c.Watch.Listings,
	)
}
