// Package config carrega a configuração do gateway (arquivo YAML opcional + variáveis
// de ambiente PDFCRAFT_*) usando viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Quota       QuotaConfig       `mapstructure:"quota"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Stats       StatsConfig       `mapstructure:"stats"`
	Burst       BurstConfig       `mapstructure:"burst"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	MaxUploadMB     int64         `mapstructure:"max_upload_mb"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Metrics         bool          `mapstructure:"metrics"`
}

type QuotaConfig struct {
	DailyLimit   int    `mapstructure:"daily_limit"`
	KeyPrefix    string `mapstructure:"key_prefix"`
	KeyHeader    string `mapstructure:"key_header"`
	TrustXFF     bool   `mapstructure:"trust_xff"`
	AddHeaders   bool   `mapstructure:"add_headers"`
	UpgradeToken string `mapstructure:"upgrade_token"`
	// Timezone define o dia de calendário ("" = fuso local do processo).
	Timezone string `mapstructure:"timezone"`
}

// StorageConfig escolhe onde os UsageRecord vivem: memory, bolt, redis ou valkey.
type StorageConfig struct {
	Type   string       `mapstructure:"type"`
	Bolt   BoltConfig   `mapstructure:"bolt"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Valkey ValkeyConfig `mapstructure:"valkey"`
}

type BoltConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ValkeyConfig struct {
	Addrs    []string `mapstructure:"addrs"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	DB       int      `mapstructure:"db"`
}

// StatsConfig escolhe o destino das decisões do gate: none, memory, redis ou prometheus.
// O tipo redis reaproveita storage.redis para a conexão.
type StatsConfig struct {
	Type      string        `mapstructure:"type"`
	Prefix    string        `mapstructure:"prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
	Bucket    string        `mapstructure:"bucket"`
	TrackKeys bool          `mapstructure:"track_keys"`
}

type BurstConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	RPS        float64       `mapstructure:"rps"`
	Burst      int           `mapstructure:"burst"`
	RetryAfter time.Duration `mapstructure:"retry_after"`
}

type ConcurrencyConfig struct {
	Max     int           `mapstructure:"max"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load lê o arquivo (se path != "") e aplica PDFCRAFT_<SECAO>_<CHAVE> por cima.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PDFCRAFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.max_upload_mb", 64)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.metrics", true)

	v.SetDefault("quota.daily_limit", 50)
	v.SetDefault("quota.key_prefix", "pdfcraft_usage")
	v.SetDefault("quota.key_header", "X-User-Id")
	v.SetDefault("quota.trust_xff", false)
	v.SetDefault("quota.add_headers", true)
	v.SetDefault("quota.upgrade_token", "")
	v.SetDefault("quota.timezone", "")

	v.SetDefault("storage.type", "bolt")
	v.SetDefault("storage.bolt.path", "pdfcraft-usage.db")
	v.SetDefault("storage.redis.addr", "")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.valkey.addrs", []string{})
	v.SetDefault("storage.valkey.username", "")
	v.SetDefault("storage.valkey.password", "")
	v.SetDefault("storage.valkey.db", 0)

	v.SetDefault("stats.type", "prometheus")
	v.SetDefault("stats.prefix", "pdfcraft:stats")
	v.SetDefault("stats.ttl", "192h")
	v.SetDefault("stats.bucket", "day")
	v.SetDefault("stats.track_keys", false)

	// IMPORTANTE: burst baixo com RPS baixo bloqueia uploads seguidos de um mesmo usuário.
	v.SetDefault("burst.enabled", true)
	v.SetDefault("burst.rps", 2)
	v.SetDefault("burst.burst", 5)
	v.SetDefault("burst.retry_after", "1s")

	v.SetDefault("concurrency.max", 8)
	v.SetDefault("concurrency.timeout", "5s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.ListenAddr) == "" {
		return errors.New("server.listen_addr is required")
	}
	if c.Server.MaxUploadMB <= 0 {
		return errors.New("server.max_upload_mb must be > 0")
	}
	if c.Quota.DailyLimit <= 0 {
		return errors.New("quota.daily_limit must be > 0")
	}
	if c.Quota.Timezone != "" {
		if _, err := time.LoadLocation(c.Quota.Timezone); err != nil {
			return fmt.Errorf("quota.timezone: %w", err)
		}
	}

	switch c.Storage.Type {
	case "memory":
	case "bolt":
		if strings.TrimSpace(c.Storage.Bolt.Path) == "" {
			return errors.New("storage.bolt.path is required when storage.type=bolt")
		}
	case "redis":
		if strings.TrimSpace(c.Storage.Redis.Addr) == "" {
			return errors.New("storage.redis.addr is required when storage.type=redis")
		}
	case "valkey":
		if len(c.Storage.Valkey.Addrs) == 0 {
			return errors.New("storage.valkey.addrs is required when storage.type=valkey")
		}
	default:
		return fmt.Errorf("unknown storage.type %q", c.Storage.Type)
	}

	switch c.Stats.Type {
	case "none", "memory":
	case "prometheus":
		// sem /metrics os contadores ficariam num registry que ninguém lê
		if !c.Server.Metrics {
			return errors.New("stats.type=prometheus requires server.metrics=true")
		}
	case "redis":
		if strings.TrimSpace(c.Storage.Redis.Addr) == "" {
			return errors.New("storage.redis.addr is required when stats.type=redis")
		}
	default:
		return fmt.Errorf("unknown stats.type %q", c.Stats.Type)
	}

	if c.Burst.Enabled {
		if c.Burst.RPS <= 0 {
			return errors.New("burst.rps must be > 0")
		}
		if c.Burst.Burst <= 0 {
			return errors.New("burst.burst must be > 0")
		}
	}
	if c.Concurrency.Max < 0 {
		return errors.New("concurrency.max must be >= 0")
	}
	return nil
}

// Location devolve o fuso do dia de calendário da cota.
func (c *Config) Location() *time.Location {
	if c.Quota.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Quota.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
