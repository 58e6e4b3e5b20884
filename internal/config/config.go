package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	DB       DBConfig       `yaml:"db"`
	Log      LogConfig      `yaml:"log"`
	Auth     AuthConfig     `yaml:"auth"`
	Realtime RealtimeConfig `yaml:"realtime"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// AllowedOrigins limits websocket upgrades. Empty allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// AuthConfig controls bearer token resolution. With auth disabled every
// caller runs as DefaultSession.
type AuthConfig struct {
	Enabled        bool   `yaml:"enabled"`
	DefaultSession string `yaml:"default_session"`
}

// RealtimeConfig tunes the change-feed multiplexers.
type RealtimeConfig struct {
	GraceDelay time.Duration `yaml:"grace_delay"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "taskdeck.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Auth: AuthConfig{
			Enabled: true,
		},
		Realtime: RealtimeConfig{
			GraceDelay: 100 * time.Millisecond,
		},
	}

	if path := os.Getenv("TASKDECK_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("TASKDECK_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("TASKDECK_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TASKDECK_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if origins := os.Getenv("TASKDECK_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, o)
			}
		}
	}
	if dbPath := os.Getenv("TASKDECK_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("TASKDECK_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if enabled := os.Getenv("TASKDECK_AUTH_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TASKDECK_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = v
	}
	if session := os.Getenv("TASKDECK_DEFAULT_SESSION"); session != "" {
		cfg.Auth.DefaultSession = session
	}
	if grace := os.Getenv("TASKDECK_REALTIME_GRACE"); grace != "" {
		d, err := time.ParseDuration(grace)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TASKDECK_REALTIME_GRACE: %w", err)
		}
		cfg.Realtime.GraceDelay = d
	}

	if cfg.Realtime.GraceDelay < 0 {
		return Config{}, fmt.Errorf("realtime grace delay must not be negative")
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
