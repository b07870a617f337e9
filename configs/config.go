package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	AccountCartRealtime = "realtime"
	AccountCartREST     = "rest"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		IdleTimeout     time.Duration `koanf:"idle_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

		// SSE streams are kept alive with a comment line at this interval.
		HeartbeatInterval time.Duration `koanf:"heartbeat_interval"`
	} `koanf:"http"`

	Upstream struct {
		BaseURL string        `koanf:"base_url"`
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"upstream"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	Session struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"session"`

	Idempotency struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`

	Shipping struct {
		OriginLat    float64 `koanf:"origin_lat"`
		OriginLng    float64 `koanf:"origin_lng"`
		MinimumFee   float64 `koanf:"minimum_fee"`
		FallbackRate float64 `koanf:"fallback_rate"`
	} `koanf:"shipping"`

	Cart struct {
		GuestTTL       time.Duration `koanf:"guest_ttl"`
		AccountBackend string        `koanf:"account_backend"`
		SaveRetries    int           `koanf:"save_retries"`
		RetryBackoff   time.Duration `koanf:"retry_backoff"`
	} `koanf:"cart"`

	Orders struct {
		CacheTTL time.Duration `koanf:"cache_ttl"`
	} `koanf:"orders"`

	Security struct {
		JWTSecret string        `koanf:"jwt_secret"`
		Issuer    string        `koanf:"issuer"`
		Audience  string        `koanf:"audience"`
		GuestTTL  time.Duration `koanf:"guest_ttl"`
	} `koanf:"security"`

	MySQL struct {
		DSN             string        `koanf:"dsn"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	} `koanf:"mysql"`

	Rabbit struct {
		URL      string `koanf:"url"`
		Prefetch int    `koanf:"prefetch"`
	} `koanf:"rabbitmq"`

	Kafka struct {
		Brokers     []string `koanf:"brokers"`
		GroupID     string   `koanf:"group_id"`
		TopicStatus string   `koanf:"topic_status"`
		ClientID    string   `koanf:"client_id"`
	} `koanf:"kafka"`

	Outbox struct {
		Enabled    bool          `koanf:"enabled"`
		Interval   time.Duration `koanf:"interval"`
		Batch      int           `koanf:"batch"`
		MaxRetries int           `koanf:"max_retries"`
	} `koanf:"outbox"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env override (dev/staging/prod). Optional: allow missing for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) environment variables override (prefix STOREFRONT_, nested with __)
	// e.g. STOREFRONT_REDIS__ADDR, STOREFRONT_SECURITY__JWT_SECRET
	if err := k.Load(env.Provider("STOREFRONT_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "STOREFRONT_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr required")
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret required")
	}
	switch c.Cart.AccountBackend {
	case AccountCartRealtime, AccountCartREST:
	default:
		return fmt.Errorf("cart.account_backend must be %q or %q", AccountCartRealtime, AccountCartREST)
	}
	if c.Shipping.MinimumFee < 0 || c.Shipping.FallbackRate < 0 {
		return fmt.Errorf("shipping fees must not be negative")
	}
	if c.Outbox.Enabled {
		if c.MySQL.DSN == "" {
			return fmt.Errorf("mysql.dsn required when outbox is enabled")
		}
		if c.Rabbit.URL == "" {
			return fmt.Errorf("rabbitmq.url required when outbox is enabled")
		}
	}
	return nil
}
