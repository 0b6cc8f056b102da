package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("API_KEY", "k")
	t.Setenv("WEBHOOK_SECRET", "whsec_c2VjcmV0")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Geo.DefaultTTL != 24*time.Hour || cfg.Geo.RetryWindow != 24*time.Hour {
		t.Fatalf("unexpected ttl/window %v %v", cfg.Geo.DefaultTTL, cfg.Geo.RetryWindow)
	}
	if cfg.Geo.GridCellKM != 1.0 || cfg.Geo.EarthRadiusKM != 6371.0 {
		t.Fatalf("unexpected geo %+v", cfg.Geo)
	}
	if cfg.Geo.SweepInterval != time.Minute {
		t.Fatalf("unexpected sweep interval %v", cfg.Geo.SweepInterval)
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Fatalf("kafka must be off by default, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Webhook.Tolerance != 5*time.Minute {
		t.Fatalf("unexpected tolerance %v", cfg.Webhook.Tolerance)
	}
}

func TestLoad_GeoOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("TTL_DEFAULT_SECONDS", "1")
	t.Setenv("RETRY_WINDOW_SECONDS", "3600")
	t.Setenv("GRID_CELL_KM", "2.5")
	t.Setenv("SWEEP_INTERVAL_SECONDS", "5")
	t.Setenv("EARTH_RADIUS_KM", "6378.137")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Geo.DefaultTTL != time.Second || cfg.Geo.RetryWindow != time.Hour || cfg.Geo.SweepInterval != 5*time.Second {
		t.Fatalf("durations not applied %+v", cfg.Geo)
	}
	if cfg.Geo.GridCellKM != 2.5 || cfg.Geo.EarthRadiusKM != 6378.137 {
		t.Fatalf("floats not applied %+v", cfg.Geo)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers not parsed %v", cfg.Kafka.Brokers)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Http:     HttpConfig{Port: ":8080"},
			Postgres: PostgresConfig{Enabled: true, Host: "db"},
			Redis:    RedisConfig{Enabled: true, Addr: "r:6379"},
			Kafka:    KafkaConfig{Topic: "t"},
			APIKey:   "k",
			Webhook:  WebhookConfig{Secret: "s"},
			Geo:      GeoConfig{DefaultTTL: time.Hour, RetryWindow: time.Hour, SweepInterval: time.Second, GridCellKM: 1, EarthRadiusKM: 6371},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"ok", func(*Config) {}, false},
		{"port without colon", func(c *Config) { c.Http.Port = "8080" }, true},
		{"postgres disabled needs no host", func(c *Config) { c.Postgres = PostgresConfig{} }, false},
		{"postgres host missing", func(c *Config) { c.Postgres.Host = "" }, true},
		{"no api key", func(c *Config) { c.APIKey = "" }, true},
		{"no webhook secret", func(c *Config) { c.Webhook.Secret = "" }, true},
		{"zero cell", func(c *Config) { c.Geo.GridCellKM = 0 }, true},
		{"zero ttl", func(c *Config) { c.Geo.DefaultTTL = 0 }, true},
		{"brokers without topic", func(c *Config) { c.Kafka = KafkaConfig{Brokers: []string{"k:9092"}} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}
