package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends for snapshot persistence.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type AppConfig struct {
	IrisBaseURL string
	IrisWSURL   string

	BotPrefix string

	XUserID    string
	XUserEmail string
	XSessionID string

	RedisURL    string
	DatabaseURL string

	EgressMode string
	DryRun     bool

	AllowedRooms []string

	ChainCaptures bool
	GameTTL       time.Duration
	ChallengeTTL  time.Duration
	HistoryLimit  int
	MessagesDir   string

	Store    string
	StoreDir string
}

func defaults() *AppConfig {
	return &AppConfig{
		EgressMode:   "http",
		GameTTL:      24 * time.Hour,
		ChallengeTTL: 10 * time.Minute,
		HistoryLimit: 10,
		Store:        StoreFile,
		StoreDir:     "snapshots",
	}
}

// Load reads the bot configuration from the environment.
func Load() (*AppConfig, error) {
	cfg := defaults()

	cfg.IrisBaseURL = env("IRIS_BASE_URL")
	cfg.IrisWSURL = env("IRIS_WS_URL")
	cfg.BotPrefix = env("BOT_PREFIX")

	cfg.XUserID = env("X_USER_ID")
	cfg.XUserEmail = env("X_USER_EMAIL")
	cfg.XSessionID = env("X_SESSION_ID")

	cfg.RedisURL = env("REDIS_URL")
	if v := strings.ToLower(env("EGRESS_MODE")); v != "" {
		cfg.EgressMode = v
	}
	cfg.DryRun = envBool("EGRESS_DRYRUN", false)
	cfg.AllowedRooms = splitList(env("ALLOWED_ROOMS"))

	if err := loadCheckers(cfg); err != nil {
		return nil, err
	}

	if cfg.IrisBaseURL == "" {
		return nil, errors.New("IRIS_BASE_URL is required")
	}
	if cfg.IrisWSURL == "" {
		return nil, errors.New("IRIS_WS_URL is required")
	}
	if cfg.BotPrefix == "" {
		return nil, errors.New("BOT_PREFIX is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	switch cfg.EgressMode {
	case "http", "ws", "auto":
	default:
		return nil, fmt.Errorf("EGRESS_MODE must be http, ws or auto: %q", cfg.EgressMode)
	}
	return cfg, nil
}

// LoadCLI is the relaxed variant for the local command loop: only the checkers and store settings apply.
func LoadCLI() (*AppConfig, error) {
	cfg := defaults()
	if err := loadCheckers(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadCheckers(cfg *AppConfig) error {
	cfg.DatabaseURL = env("DATABASE_URL")
	cfg.ChainCaptures = envBool("CHECKERS_CHAIN_CAPTURES", false)
	cfg.MessagesDir = env("CHECKERS_MESSAGES_DIR")

	if v := env("CHECKERS_GAME_TTL"); v != "" {
		d, err := parseTTL(v)
		if err != nil {
			return fmt.Errorf("CHECKERS_GAME_TTL: %w", err)
		}
		cfg.GameTTL = d
	}
	if v := env("CHECKERS_CHALLENGE_TTL"); v != "" {
		d, err := parseTTL(v)
		if err != nil {
			return fmt.Errorf("CHECKERS_CHALLENGE_TTL: %w", err)
		}
		cfg.ChallengeTTL = d
	}
	if v := env("CHECKERS_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryLimit = n
		}
	}

	if v := strings.ToLower(env("CHECKERS_STORE")); v != "" {
		cfg.Store = v
	}
	if v := env("CHECKERS_STORE_DIR"); v != "" {
		cfg.StoreDir = v
	}
	switch cfg.Store {
	case StoreFile, StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for CHECKERS_STORE=postgres")
		}
	default:
		return fmt.Errorf("unknown CHECKERS_STORE %q", cfg.Store)
	}
	return nil
}

// parseTTL accepts plain seconds ("3600") or a Go duration ("1h").
func parseTTL(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		if n <= 0 {
			return 0, errors.New("must be positive")
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.New("must be positive")
	}
	return d, nil
}

func env(k string) string { return strings.TrimSpace(os.Getenv(k)) }

func envBool(k string, def bool) bool {
	v := env(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// RoomAllowed reports whether room may use the bot. An empty allow-list admits every room.
func (c *AppConfig) RoomAllowed(room string) bool {
	if c == nil || len(c.AllowedRooms) == 0 {
		return true
	}
	room = strings.TrimSpace(room)
	for _, r := range c.AllowedRooms {
		if r == room {
			return true
		}
	}
	return false
}
