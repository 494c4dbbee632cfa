package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Server configures the item store (cmd/app).
type Server struct {
	Port           string        `yaml:"port" env:"PORT" env-default:"5001"`
	DatabaseDriver string        `yaml:"db_driver" env:"DB_DRIVER" env-default:"sqlite"`
	DatabaseURL    string        `yaml:"database_url" env:"DATABASE_URL" env-default:"file:todolist.db?_foreign_keys=on"`
	SessionSecret  string        `yaml:"session_secret" env:"SESSION_SECRET"`
	SessionTTL     time.Duration `yaml:"session_ttl" env:"SESSION_TTL" env-default:"24h"`
	SecureCookie   bool          `yaml:"secure_cookie" env:"SECURE_COOKIE" env-default:"false"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
	Lookahead      time.Duration `yaml:"upcoming_lookahead" env:"UPCOMING_LOOKAHEAD" env-default:"2h"`
	OverdueGrace   time.Duration `yaml:"upcoming_overdue_grace" env:"UPCOMING_OVERDUE_GRACE" env-default:"1h"`
	LogLevel       string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
}

// Client configures the terminal front end (cmd/todo).
type Client struct {
	ServerURL    string        `yaml:"server_url" env:"TODO_SERVER_URL" env-default:"http://localhost:5001"`
	PollInterval time.Duration `yaml:"poll_interval" env:"TODO_POLL_INTERVAL" env-default:"60s"`
	// MuteNotifications turns reminder output off.
	MuteNotifications bool   `yaml:"mute_notifications" env:"TODO_MUTE_NOTIFICATIONS"`
	SessionFile       string `yaml:"session_file" env:"TODO_SESSION_FILE"`
	LogLevel          string `yaml:"log_level" env:"TODO_LOG_LEVEL" env-default:"warn"`
}

func LoadServer(path string) (Server, error) {
	var cfg Server
	if err := load(path, &cfg); err != nil {
		return cfg, err
	}
	if cfg.DatabaseDriver != "sqlite" && cfg.DatabaseDriver != "postgres" {
		return cfg, fmt.Errorf("unsupported db driver %q", cfg.DatabaseDriver)
	}
	return cfg, nil
}

func LoadClient(path string) (Client, error) {
	var cfg Client
	if err := load(path, &cfg); err != nil {
		return cfg, err
	}
	if cfg.PollInterval <= 0 {
		return cfg, fmt.Errorf("poll interval must be positive, got %s", cfg.PollInterval)
	}
	return cfg, nil
}

// load reads a YAML file when one is given and present, then env.
// A missing file is not an error.
func load(path string, cfg interface{}) error {
	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return fmt.Errorf("read env: %w", err)
		}
		return nil
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			if err := cleanenv.ReadEnv(cfg); err != nil {
				return fmt.Errorf("read env: %w", err)
			}
			return nil
		}
		return fmt.Errorf("read config %q: %w", path, err)
	}
	return nil
}
