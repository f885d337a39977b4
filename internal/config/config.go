// Package config loads server configuration from an optional YAML file
// with environment variable overrides
package config

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Game    GameConfig    `koanf:"game"`
	Storage StorageConfig `koanf:"storage"`
	Admin   AdminConfig   `koanf:"admin"`
	Log     LogConfig     `koanf:"log"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type GameConfig struct {
	RoomCodeLength    int           `koanf:"room_code_length"`
	TokenLength       int           `koanf:"token_length"`
	TurnTimeout       time.Duration `koanf:"turn_timeout"`
	InactivityTimeout time.Duration `koanf:"inactivity_timeout"`
}

type StorageConfig struct {
	// Backend selects the store implementation: "memory" or "redis"
	Backend      string        `koanf:"backend"`
	RedisURL     string        `koanf:"redis_url"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	RoomTTL      time.Duration `koanf:"room_ttl"`
}

type AdminConfig struct {
	// Key guards the admin API; empty disables it entirely
	Key        string        `koanf:"key"`
	RateLimit  int           `koanf:"rate_limit"`
	RateWindow time.Duration `koanf:"rate_window"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Load reads the YAML file at path (when non-empty), applies defaults and
// environment overrides, and unmarshals the result
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Storage.Backend != "memory" && cfg.Storage.Backend != "redis" {
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	setDefault(k, "server.host", "0.0.0.0")
	setDefault(k, "server.port", 8080)
	setDefault(k, "server.read_timeout", 10*time.Second)
	setDefault(k, "server.write_timeout", 30*time.Second)
	setDefault(k, "server.shutdown_timeout", 10*time.Second)

	setDefault(k, "game.room_code_length", 6)
	setDefault(k, "game.token_length", 32)
	setDefault(k, "game.turn_timeout", 60*time.Second)
	setDefault(k, "game.inactivity_timeout", 30*time.Minute)

	setDefault(k, "storage.backend", "memory")
	setDefault(k, "storage.redis_url", "redis://localhost:6379/0")
	setDefault(k, "storage.pool_size", 10)
	setDefault(k, "storage.min_idle_conns", 2)
	setDefault(k, "storage.room_ttl", 24*time.Hour)

	setDefault(k, "admin.rate_limit", 5)
	setDefault(k, "admin.rate_window", time.Minute)

	setDefault(k, "log.level", "info")
	setDefault(k, "log.format", "json")
}

func applyEnvOverrides(k *koanf.Koanf) {
	if host := getEnvString("SERVER_HOST", ""); host != "" {
		k.Set("server.host", host)
	}
	if port := getEnvInt("SERVER_PORT", 0); port > 0 {
		k.Set("server.port", port)
	}

	if timeout := getEnvInt("TURN_TIMEOUT_SECONDS", -1); timeout >= 0 {
		k.Set("game.turn_timeout", time.Duration(timeout)*time.Second)
	}
	if timeout := getEnvInt("INACTIVITY_TIMEOUT_SECONDS", -1); timeout >= 0 {
		k.Set("game.inactivity_timeout", time.Duration(timeout)*time.Second)
	}

	if backend := getEnvString("STORAGE_BACKEND", ""); backend != "" {
		k.Set("storage.backend", backend)
	}
	if url := getEnvString("REDIS_URL", ""); url != "" {
		k.Set("storage.redis_url", url)
	}

	if key := getEnvString("ADMIN_KEY", ""); key != "" {
		k.Set("admin.key", key)
	}

	if level := getEnvString("LOG_LEVEL", ""); level != "" {
		k.Set("log.level", level)
	}
	if format := getEnvString("LOG_FORMAT", ""); format != "" {
		k.Set("log.format", format)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value interface{}) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
