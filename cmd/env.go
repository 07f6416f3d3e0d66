package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/prelims/internal/config"
	"github.com/abhisek/prelims/internal/corpus"
	"github.com/abhisek/prelims/internal/docstore"
	"github.com/abhisek/prelims/internal/identity"
	"github.com/abhisek/prelims/internal/logging"
	"github.com/abhisek/prelims/internal/profile"
	"github.com/abhisek/prelims/internal/store"
)

// environment holds the services a command needs. Close releases them in
// reverse order.
type environment struct {
	cfg      config.Config
	logger   *slog.Logger
	store    docstore.Store
	identity *identity.Local
	profiles *profile.Service

	closers []func() error
}

// resolveConfig loads configuration and applies the persistent flags.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	// Validation runs again once the flags are applied.
	cfg, _ := config.Load()

	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Store.DBPath = p
	}
	if b, _ := cmd.Flags().GetString("store"); b != "" {
		cfg.Store.Backend = strings.ToLower(b)
	}
	if d, _ := cmd.Flags().GetString("corpus"); d != "" {
		cfg.CorpusDir = d
	}
	return cfg, cfg.Validate()
}

// openEnvironment builds the store, identity provider and profile service.
func openEnvironment(cmd *cobra.Command) (*environment, error) {
	ctx := cmd.Context()
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}

	env := &environment{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			env.Close()
		}
	}()

	logger, closeLog, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning: logging disabled:", err)
		logger, closeLog = logging.Discard(), func() error { return nil }
	}
	env.logger = logger
	env.closers = append(env.closers, closeLog)

	backend, err := openStore(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logged := store.WithLogging(backend, logger)
	env.store = logged
	env.closers = append(env.closers, logged.Close)

	secret, err := signingSecret(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureDir(cfg.TokenPath); err != nil {
		return nil, fmt.Errorf("create token dir: %w", err)
	}
	ident, err := identity.NewLocal(cfg.TokenPath, secret)
	if err != nil {
		return nil, fmt.Errorf("open identity: %w", err)
	}
	env.identity = ident

	env.profiles = profile.NewService(
		profile.NewAdapter(env.store, cfg.Rewards.SignupBonus),
		ident,
		profile.Config{CoinsPerTest: cfg.Rewards.CoinsPerTest, Logger: logger},
	)
	env.closers = append(env.closers, func() error {
		env.profiles.Close()
		return nil
	})

	logger.InfoContext(ctx, "environment ready",
		"store", cfg.Store.Backend,
		"signed_in", env.signedIn(),
	)
	ok = true
	return env, nil
}

func openStore(cmd *cobra.Command, cfg config.Config) (docstore.Store, error) {
	ctx := cmd.Context()
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		if err := store.EnsureDir(cfg.Store.DBPath); err != nil {
			return nil, err
		}
		return store.OpenSQLite(ctx, cfg.Store.DBPath)
	case config.BackendPostgres:
		return store.Open(ctx, store.DriverPostgres, cfg.Store.DSN)
	case config.BackendMongo:
		return store.OpenMongo(ctx, store.MongoConfig{
			URI:      cfg.Store.MongoURI,
			Database: cfg.Store.MongoDatabase,
		})
	case config.BackendMemory:
		fmt.Fprintln(os.Stderr, "warning: using the in-memory store; nothing will be saved")
		return docstore.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// signingSecret returns the configured secret, or the one kept in
// SecretPath, creating it on first use.
func signingSecret(cfg config.Config) ([]byte, error) {
	if cfg.Secret != "" {
		return []byte(cfg.Secret), nil
	}

	raw, err := os.ReadFile(cfg.SecretPath)
	if err == nil && len(strings.TrimSpace(string(raw))) > 0 {
		return []byte(strings.TrimSpace(string(raw))), nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read secret: %w", err)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	secret := hex.EncodeToString(buf)
	if err := store.EnsureDir(cfg.SecretPath); err != nil {
		return nil, fmt.Errorf("create secret dir: %w", err)
	}
	if err := os.WriteFile(cfg.SecretPath, []byte(secret+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("write secret: %w", err)
	}
	return []byte(secret), nil
}

// loadCorpus returns the override corpus when configured, else the
// embedded one.
func (e *environment) loadCorpus() (*corpus.Corpus, error) {
	c, err := loadCorpus(e.cfg.CorpusDir)
	if err != nil {
		return nil, err
	}
	if issues := c.Report(); len(issues) > 0 {
		e.logger.Debug("corpus loaded with defaults applied", "questions", len(c.Questions()), "issues", len(issues))
		for _, issue := range issues {
			e.logger.Debug("data quality", "issue", issue.String())
		}
	}
	return c, nil
}

func (e *environment) signedIn() bool {
	_, ok := e.identity.CurrentUser()
	return ok
}

// Close releases everything the environment opened.
func (e *environment) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			fmt.Fprintln(os.Stderr, "warning: close:", err)
		}
	}
	e.closers = nil
}
