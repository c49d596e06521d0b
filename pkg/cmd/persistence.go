// Package cmd holds the shared construction helpers used by the command
// line entry points.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docket-io/docket/pkg/persistence"
	"github.com/docket-io/docket/pkg/persistence/file"
	"github.com/docket-io/docket/pkg/persistence/postgresql"
	"github.com/docket-io/docket/pkg/persistence/redis"
)

// NewPersistence picks the backend from the database URL scheme: postgres,
// redis, or a file path for everything else.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parseProvider(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	case "redis":
		return redis.NewPersistence(databaseURL)
	default:
		p, err := file.NewPersistence(databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create file persistence: %w", err)
		}

		return p, nil
	}
}

func parseProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return scheme
}
