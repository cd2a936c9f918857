package state

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/config"
)

// NewPersistence 按 state.backend 创建持久化后端
func NewPersistence(ctx context.Context, cfg *config.Config) (Persistence, error) {
	switch strings.ToLower(cfg.State.Backend) {
	case "", config.BackendFile:
		return NewFilePersistence(cfg.StateDir)
	case config.BackendBadger:
		return OpenBadger(filepath.Join(cfg.StateDir, "badger"))
	case config.BackendPostgres:
		return NewPostgres(ctx, cfg.State.DB.DSN())
	default:
		return nil, fmt.Errorf("unknown state backend: %s", cfg.State.Backend)
	}
}
