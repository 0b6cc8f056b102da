package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string         `json:"env"`
	Http     HttpConfig     `json:"http"`
	Postgres PostgresConfig `json:"postgres"`
	Redis    RedisConfig    `json:"redis"`
	Kafka    KafkaConfig    `json:"kafka"`
	APIKey   string         `json:"api_key,omitempty"`
	Webhook  WebhookConfig  `json:"webhook"`
	Notify   NotifyConfig   `json:"notify"`
	Geo      GeoConfig      `json:"geo"`
}

type HttpConfig struct {
	Port            string        `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	RateLimitRPS    float64       `json:"rate_limit_rps"`
	RateLimitBurst  int           `json:"rate_limit_burst"`
}

type PostgresConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password,omitempty"`
	SSLMode  string `json:"ssl_mode"`

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Addr     string `json:"addr"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db"`
}

// KafkaConfig with no brokers turns the lifecycle stream off.
type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
}

type WebhookConfig struct {
	Secret    string        `json:"-"`
	Tolerance time.Duration `json:"tolerance"`
}

type NotifyConfig struct {
	URL      string `json:"url"`
	Disabled bool   `json:"disabled"`
}

type GeoConfig struct {
	DefaultTTL    time.Duration `json:"default_ttl"`
	RetryWindow   time.Duration `json:"retry_window"`
	GridCellKM    float64       `json:"grid_cell_km"`
	SweepInterval time.Duration `json:"sweep_interval"`
	EarthRadiusKM float64       `json:"earth_radius_km"`
}

func Load() (*Config, error) {

	stdLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		stdLogger.Warn(".env load warning", slog.Any("error", err))
	}

	cfg := &Config{
		Env: getEnv("ENV", "local"),
		Http: HttpConfig{
			Port:            getEnv("HTTP_PORT", ":8080"),
			ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
			RateLimitRPS:    getEnvFloat("HTTP_RATE_LIMIT_RPS", 5),
			RateLimitBurst:  getEnvInt("HTTP_RATE_LIMIT_BURST", 10),
		},
		Postgres: PostgresConfig{
			Enabled:         getEnvBool("POSTGRES_ENABLED", true),
			Host:            getEnv("POSTGRES_HOST", "pg-local"),
			Port:            getEnvInt("POSTGRES_PORT", 5432),
			Database:        getEnv("POSTGRES_DB", "proxify"),
			User:            getEnv("POSTGRES_USER", "postgres"),
			Password:        getEnv("POSTGRES_PASSWORD", "postgres"),
			SSLMode:         getEnv("POSTGRES_SSL_MODE", "disable"),
			MaxConns:        20,
			MinConns:        1,
			MaxConnLifetime: 1 * time.Hour,
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "redis-local:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "alerts.lifecycle"),
		},
		APIKey: getEnv("API_KEY", ""),
		Webhook: WebhookConfig{
			Secret:    getEnv("WEBHOOK_SECRET", ""),
			Tolerance: getEnvDuration("WEBHOOK_TOLERANCE", 5*time.Minute),
		},
		Notify: NotifyConfig{
			URL:      getEnv("NOTIFY_URL", ""),
			Disabled: getEnvBool("NOTIFY_DISABLED", false),
		},
		Geo: GeoConfig{
			DefaultTTL:    getEnvSeconds("TTL_DEFAULT_SECONDS", 24*time.Hour),
			RetryWindow:   getEnvSeconds("RETRY_WINDOW_SECONDS", 24*time.Hour),
			GridCellKM:    getEnvFloat("GRID_CELL_KM", 1.0),
			SweepInterval: getEnvSeconds("SWEEP_INTERVAL_SECONDS", 60*time.Second),
			EarthRadiusKM: getEnvFloat("EARTH_RADIUS_KM", 6371.0),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stdLogger.Info("Config loaded successfully",
		slog.String("env", cfg.Env),
		slog.String("http_port", cfg.Http.Port),
		slog.Bool("postgres", cfg.Postgres.Enabled),
		slog.Bool("redis", cfg.Redis.Enabled),
		slog.Int("kafka_brokers", len(cfg.Kafka.Brokers)),
		slog.Float64("grid_cell_km", cfg.Geo.GridCellKM),
		slog.Duration("default_ttl", cfg.Geo.DefaultTTL))

	return cfg, nil
}

func (c *Config) Validate() error {

	if c.Http.Port == "" || (len(c.Http.Port) > 0 && c.Http.Port[0] != ':') {
		return errors.New("HTTP_PORT must start with ':' like ':8080'")
	}

	if c.Postgres.Enabled && c.Postgres.Host == "" {
		return errors.New("POSTGRES_HOST required")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("REDIS_ADDR required")
	}

	if c.APIKey == "" {
		return errors.New("API_KEY required")
	}

	if c.Webhook.Secret == "" {
		return errors.New("WEBHOOK_SECRET required")
	}

	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errors.New("KAFKA_TOPIC required when KAFKA_BROKERS is set")
	}

	if c.Geo.DefaultTTL <= 0 || c.Geo.RetryWindow <= 0 || c.Geo.SweepInterval <= 0 {
		return errors.New("TTL_DEFAULT_SECONDS, RETRY_WINDOW_SECONDS and SWEEP_INTERVAL_SECONDS must be positive")
	}

	if c.Geo.GridCellKM <= 0 || c.Geo.EarthRadiusKM <= 0 {
		return errors.New("GRID_CELL_KM and EARTH_RADIUS_KM must be positive")
	}

	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// getEnvSeconds reads a whole number of seconds.
func getEnvSeconds(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
