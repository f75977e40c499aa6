// Package config loads service configuration from the environment.
//
// Values come from VACADEMY_* environment variables, optionally seeded from
// config/.env.<env> when that file exists.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

// Config is the resolved service configuration.
type Config struct {
	Env                string
	Addr               string
	DBPath             string
	LogLevel           string
	ResendKey          string
	EmailFrom          string
	EmailReplyTo       string
	CSRFKey            string // hex, 32 bytes
	RateLimitPerSecond int
	SlowQuery          time.Duration
	SlowRequest        time.Duration
	PerfRingSize       int
	OutboxInterval     time.Duration // 0 disables the retry worker
	OutboxBaseDelay    time.Duration
	OutboxMaxDelay     time.Duration
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool { return c.Env == EnvProduction }

// New builds a viper instance with defaults and env bindings.
// The env file, if any, is loaded from dir/config/.env.<env>.
func New(dir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("env", EnvDevelopment)
	v.SetDefault("addr", ":8080")
	v.SetDefault("db_path", "vacademy.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("resend_key", "")
	v.SetDefault("email_from", "Vacademy <noreply@vacademy.io>")
	v.SetDefault("email_reply_to", "support@vacademy.io")
	v.SetDefault("csrf_key", "")
	v.SetDefault("rate_limit_per_second", 20)
	v.SetDefault("slow_query", 50*time.Millisecond)
	v.SetDefault("slow_request", 200*time.Millisecond)
	v.SetDefault("perf_ring_size", 10000)
	v.SetDefault("outbox_interval", 15*time.Second)
	v.SetDefault("outbox_base_delay", 30*time.Second)
	v.SetDefault("outbox_max_delay", time.Hour)

	env := strings.ToLower(os.Getenv("VACADEMY_ENV"))
	if env == "" {
		env = EnvDevelopment
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(dir, "config", ".env."+env)
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "config: load %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "config: stat %s", dotEnvPath)
	}

	v.SetEnvPrefix("VACADEMY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v, nil
}

// Load resolves a Config from the environment rooted at dir.
func Load(dir string) (Config, error) {
	v, err := New(dir)
	if err != nil {
		return Config{}, err
	}
	return FromViper(v)
}

// FromViper reads a Config out of an already prepared viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Env:                strings.ToLower(v.GetString("env")),
		Addr:               v.GetString("addr"),
		DBPath:             v.GetString("db_path"),
		LogLevel:           strings.ToLower(v.GetString("log_level")),
		ResendKey:          v.GetString("resend_key"),
		EmailFrom:          v.GetString("email_from"),
		EmailReplyTo:       v.GetString("email_reply_to"),
		CSRFKey:            v.GetString("csrf_key"),
		RateLimitPerSecond: v.GetInt("rate_limit_per_second"),
		SlowQuery:          v.GetDuration("slow_query"),
		SlowRequest:        v.GetDuration("slow_request"),
		PerfRingSize:       v.GetInt("perf_ring_size"),
		OutboxInterval:     v.GetDuration("outbox_interval"),
		OutboxBaseDelay:    v.GetDuration("outbox_base_delay"),
		OutboxMaxDelay:     v.GetDuration("outbox_max_delay"),
	}
	switch cfg.Env {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		return Config{}, errors.Errorf("config: unknown env %q", cfg.Env)
	}
	if cfg.DBPath == "" {
		return Config{}, errors.New("config: db_path is required")
	}
	if cfg.IsProduction() && cfg.CSRFKey == "" {
		return Config{}, errors.New("config: csrf_key is required in production")
	}
	if cfg.RateLimitPerSecond <= 0 {
		cfg.RateLimitPerSecond = 20
	}
	return cfg, nil
}
