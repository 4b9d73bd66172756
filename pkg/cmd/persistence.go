package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence/file"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence/postgresql"
)

// NewPersistence selects the storage backend from the database URL scheme:
// postgres URLs get the PostgreSQL backend, anything else is treated as a
// file tree path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parseProvider(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to initialize postgresql persistence: %w", err))
		}

		return p
	default:
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://"))
	}
}

func parseProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
