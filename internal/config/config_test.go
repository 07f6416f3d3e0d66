package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	cfg := DefaultConfig()

	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, filepath.Join("/data", "prelims", "prelims.db"), cfg.Store.DBPath)
	assert.Equal(t, filepath.Join("/data", "prelims", "token"), cfg.TokenPath)
	assert.Equal(t, 120, cfg.SecondsPerQuestion)
	assert.Equal(t, 50, cfg.Rewards.CoinsPerTest)
	assert.Equal(t, 100, cfg.Rewards.SignupBonus)
	assert.NoError(t, cfg.Validate())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PRELIMS_STORE", "Postgres")
	t.Setenv("PRELIMS_DSN", "postgres://localhost/prelims")
	t.Setenv("PRELIMS_CORPUS_DIR", "/corpus")
	t.Setenv("PRELIMS_LOG_LEVEL", "DEBUG")
	t.Setenv("PRELIMS_SECONDS_PER_QUESTION", "90")
	t.Setenv("PRELIMS_COINS_PER_TEST", "25")
	t.Setenv("PRELIMS_SIGNUP_BONUS", "oops")

	cfg := ConfigFromEnv()
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, "postgres://localhost/prelims", cfg.Store.DSN)
	assert.Equal(t, "/corpus", cfg.CorpusDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 90, cfg.SecondsPerQuestion)
	assert.Equal(t, 25, cfg.Rewards.CoinsPerTest)
	assert.Equal(t, 100, cfg.Rewards.SignupBonus, "malformed value keeps the default")
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"postgres without dsn", func(c *Config) { c.Store.Backend = BackendPostgres }},
		{"mongo without uri", func(c *Config) { c.Store.Backend = BackendMongo }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "redis" }},
		{"sqlite without path", func(c *Config) { c.Store.DBPath = "" }},
		{"zero seconds", func(c *Config) { c.SecondsPerQuestion = 0 }},
		{"negative coins", func(c *Config) { c.Rewards.CoinsPerTest = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := DefaultConfig()
	cfg.Store.Backend = BackendMemory
	cfg.Store.DBPath = ""
	assert.NoError(t, cfg.Validate())
}
