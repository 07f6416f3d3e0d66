// Package config resolves application settings from defaults, a .env
// file and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/abhisek/prelims/internal/session"
	"github.com/abhisek/prelims/internal/store"
)

// Backend values for StoreConfig.Backend.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Store StoreConfig

	// CorpusDir overrides the embedded question corpus when set.
	CorpusDir string

	// TokenPath is where the local sign-in token is kept.
	TokenPath string

	// Secret signs local identity tokens. When empty, a random secret is
	// kept in SecretPath.
	Secret     string
	SecretPath string

	LogFile  string
	LogLevel string // debug, info, warn, error

	Rewards RewardConfig

	// SecondsPerQuestion is the time allowance per question. Default: 120.
	SecondsPerQuestion int
}

// StoreConfig selects and configures the profile store backend.
type StoreConfig struct {
	// Backend is one of "sqlite", "postgres", "mongo", "memory".
	Backend string

	DBPath string // SQLite file
	DSN    string // Postgres connection string

	MongoURI      string
	MongoDatabase string
}

// RewardConfig holds the coin amounts granted to users.
type RewardConfig struct {
	CoinsPerTest int // Default: 50
	SignupBonus  int // Default: 100
}

// DefaultConfig returns a Config with sensible defaults. Paths live under
// the application data directory.
func DefaultConfig() Config {
	dir, err := store.DataDir()
	if err != nil {
		dir = "."
	}
	return Config{
		Store: StoreConfig{
			Backend:       BackendSQLite,
			DBPath:        filepath.Join(dir, "prelims.db"),
			MongoDatabase: "prelims",
		},
		TokenPath:  filepath.Join(dir, "token"),
		SecretPath: filepath.Join(dir, "secret"),
		LogFile:    filepath.Join(dir, "prelims.log"),
		LogLevel:   "info",
		Rewards: RewardConfig{
			CoinsPerTest: 50,
			SignupBonus:  100,
		},
		SecondsPerQuestion: session.SecondsPerQuestion,
	}
}

// Load reads a .env file from the working directory, if present, and then
// the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	cfg := ConfigFromEnv()
	return cfg, cfg.Validate()
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("PRELIMS_STORE"); v != "" {
		cfg.Store.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("PRELIMS_DB"); v != "" {
		cfg.Store.DBPath = v
	}
	if v := os.Getenv("PRELIMS_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("PRELIMS_MONGO_URI"); v != "" {
		cfg.Store.MongoURI = v
	}
	if v := os.Getenv("PRELIMS_MONGO_DB"); v != "" {
		cfg.Store.MongoDatabase = v
	}

	if v := os.Getenv("PRELIMS_CORPUS_DIR"); v != "" {
		cfg.CorpusDir = v
	}
	if v := os.Getenv("PRELIMS_TOKEN"); v != "" {
		cfg.TokenPath = v
	}
	if v := os.Getenv("PRELIMS_SECRET"); v != "" {
		cfg.Secret = v
	}
	if v := os.Getenv("PRELIMS_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("PRELIMS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	cfg.SecondsPerQuestion = envInt("PRELIMS_SECONDS_PER_QUESTION", cfg.SecondsPerQuestion)
	cfg.Rewards.CoinsPerTest = envInt("PRELIMS_COINS_PER_TEST", cfg.Rewards.CoinsPerTest)
	cfg.Rewards.SignupBonus = envInt("PRELIMS_SIGNUP_BONUS", cfg.Rewards.SignupBonus)

	return cfg
}

// Validate checks that the selected backend has what it needs.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQLite:
		if c.Store.DBPath == "" {
			return fmt.Errorf("config: sqlite backend needs a database path (PRELIMS_DB or --db)")
		}
	case BackendPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("config: postgres backend needs PRELIMS_DSN")
		}
	case BackendMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("config: mongo backend needs PRELIMS_MONGO_URI")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}

	if c.SecondsPerQuestion <= 0 {
		return fmt.Errorf("config: seconds per question must be positive, got %d", c.SecondsPerQuestion)
	}
	if c.Rewards.CoinsPerTest < 0 || c.Rewards.SignupBonus < 0 {
		return fmt.Errorf("config: rewards must not be negative")
	}
	return nil
}

// envInt reads an integer variable. Unset or malformed values keep the
// fallback.
func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %s=%q is not an integer, using %d\n", key, v, fallback)
		return fallback
	}
	return n
}
