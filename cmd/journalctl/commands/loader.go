// Package commands implements the journalctl subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/benvon/daily-journal/internal/app"
	"github.com/benvon/daily-journal/internal/config"
	"github.com/benvon/daily-journal/internal/logger"
	"github.com/benvon/daily-journal/internal/models"
	"go.uber.org/zap"
)

// Loader opens the dependencies a command needs. The caller closes them.
type Loader func(ctx context.Context, mode app.QueueMode) (*app.Deps, error)

// DefaultLoader reads configuration from the environment. Logs go to stderr
// only when JOURNALCTL_DEBUG is set.
func DefaultLoader(ctx context.Context, mode app.QueueMode) (*app.Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyLocation()
	log := zap.NewNop()
	if os.Getenv("JOURNALCTL_DEBUG") != "" {
		if l, err := logger.NewDevelopmentLogger(true); err == nil {
			log = l
		}
	}
	return app.New(ctx, cfg, log, mode)
}

// SecretFromEnv returns ADMIN_JWT_SECRET
func SecretFromEnv() ([]byte, error) {
	secret := os.Getenv("ADMIN_JWT_SECRET")
	if secret == "" {
		return nil, errors.New("ADMIN_JWT_SECRET is not set")
	}
	return []byte(secret), nil
}

func closeDeps(deps *app.Deps) {
	if err := deps.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close connections: %v\n", err)
	}
}

func requireUser(flag int64) (models.UserKey, error) {
	if flag == 0 {
		return 0, errors.New("--user is required")
	}
	return models.UserKey(flag), nil
}
