package store

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"go-autoapply/internal/config"
)

// Open builds the backend named in cfg.
func Open(ctx context.Context, cfg config.StoreConfig, logger arbor.ILogger) (Store, error) {
	switch cfg.Backend {
	case "", "badger":
		return OpenBadger(cfg.Path, logger)
	case "redis":
		return OpenRedis(ctx, cfg.RedisURL)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}
