package kvstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/recipevault-backend/internal/platform/envutil"
	"github.com/yungbote/recipevault-backend/internal/platform/logger"
)

// Store is the durable key-value contract the orchestrator persists through.
// Record bodies live under the raw identifier key; the operation journal
// lives under "operation:<identifier>".
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ErrKeyNotFound is returned by Get for absent keys. Delete of an absent key
// is not an error.
var ErrKeyNotFound = errors.New("kvstore: key not found")

func IsNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

type Mode string

const (
	ModeRedis    Mode = "redis"
	ModePostgres Mode = "postgres"
	ModeSQLite   Mode = "sqlite"
	ModeMemory   Mode = "memory"
)

func IsSupportedMode(mode Mode) bool {
	switch mode {
	case ModeRedis, ModePostgres, ModeSQLite, ModeMemory:
		return true
	default:
		return false
	}
}

type Config struct {
	Mode         Mode
	RedisAddr    string
	RedisDB      int
	KeyPrefix    string
	PostgresDSN  string
	SQLitePath   string
	ModeFallback bool
}

func (cfg Config) ModeSource() string {
	if cfg.ModeFallback {
		return "compatibility_fallback"
	}
	return "explicit_or_default"
}

type ConfigErrorCode string

const (
	ConfigErrorInvalidMode        ConfigErrorCode = "invalid_mode"
	ConfigErrorMissingRedisAddr   ConfigErrorCode = "missing_redis_addr"
	ConfigErrorMissingPostgresDSN ConfigErrorCode = "missing_postgres_dsn"
	ConfigErrorMissingSQLitePath  ConfigErrorCode = "missing_sqlite_path"
)

type ConfigError struct {
	Code ConfigErrorCode
	Mode string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid kv store config"
	}
	switch e.Code {
	case ConfigErrorInvalidMode:
		return fmt.Sprintf(
			"invalid KV_STORE_MODE=%q (allowed: %q, %q, %q, %q)",
			e.Mode, ModeRedis, ModePostgres, ModeSQLite, ModeMemory,
		)
	case ConfigErrorMissingRedisAddr:
		return fmt.Sprintf("KV_STORE_MODE=%q requires REDIS_ADDR to be set", ModeRedis)
	case ConfigErrorMissingPostgresDSN:
		return fmt.Sprintf("KV_STORE_MODE=%q requires POSTGRES_DSN to be set", ModePostgres)
	case ConfigErrorMissingSQLitePath:
		return fmt.Sprintf("KV_STORE_MODE=%q requires KV_SQLITE_PATH to be set", ModeSQLite)
	default:
		return "invalid kv store config"
	}
}

// ResolveConfigFromEnv picks the durable store backend. With no explicit
// KV_STORE_MODE the backend is inferred from which connection settings are
// present, so older deployments that only set REDIS_ADDR keep working.
func ResolveConfigFromEnv() (Config, error) {
	cfg := Config{
		RedisAddr:   strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisDB:     envutil.Int("REDIS_DB", 0),
		PostgresDSN: strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		SQLitePath:  strings.TrimSpace(os.Getenv("KV_SQLITE_PATH")),
		KeyPrefix:   strings.TrimSpace(os.Getenv("KV_KEY_PREFIX")),
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "recipevault:"
	}

	rawMode := strings.TrimSpace(os.Getenv("KV_STORE_MODE"))
	mode := Mode(strings.ToLower(rawMode))

	switch mode {
	case "":
		cfg.ModeFallback = true
		switch {
		case cfg.RedisAddr != "":
			cfg.Mode = ModeRedis
		case cfg.PostgresDSN != "":
			cfg.Mode = ModePostgres
		case cfg.SQLitePath != "":
			cfg.Mode = ModeSQLite
		default:
			cfg.Mode = ModeMemory
		}
	case ModeRedis, ModePostgres, ModeSQLite, ModeMemory:
		cfg.Mode = mode
	default:
		return cfg, &ConfigError{Code: ConfigErrorInvalidMode, Mode: rawMode}
	}

	if err := ValidateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func ValidateConfig(cfg Config) error {
	switch cfg.Mode {
	case ModeRedis:
		if cfg.RedisAddr == "" {
			return &ConfigError{Code: ConfigErrorMissingRedisAddr, Mode: string(cfg.Mode)}
		}
	case ModePostgres:
		if cfg.PostgresDSN == "" {
			return &ConfigError{Code: ConfigErrorMissingPostgresDSN, Mode: string(cfg.Mode)}
		}
	case ModeSQLite:
		if cfg.SQLitePath == "" {
			return &ConfigError{Code: ConfigErrorMissingSQLitePath, Mode: string(cfg.Mode)}
		}
	case ModeMemory:
	default:
		return &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
	return nil
}

// NewFromEnv resolves configuration from the environment and builds the
// matching backend.
func NewFromEnv(log *logger.Logger) (Store, error) {
	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("resolve kv store config: %w", err)
	}
	return New(log, cfg)
}

// New builds the store for the configured mode.
func New(log *logger.Logger, cfg Config) (Store, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	log.Info(
		"Selecting kv store backend",
		"mode", cfg.Mode,
		"mode_source", cfg.ModeSource(),
		"key_prefix", cfg.KeyPrefix,
	)
	switch cfg.Mode {
	case ModeRedis:
		return newRedisStore(log, cfg)
	case ModePostgres, ModeSQLite:
		return newSQLStore(log, cfg)
	case ModeMemory:
		return NewMemoryStore(), nil
	default:
		return nil, &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}
