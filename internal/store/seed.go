package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/crudtables/internal/core"
)

// Seed inserts each definition's seed records into its resource when the
// resource is empty. Static tables are skipped.
func Seed(ctx context.Context, provider core.ResourceProvider, defs []core.TableDefinition) error {
	for _, def := range defs {
		if def.Rows != nil || len(def.Seed) == 0 {
			continue
		}

		res := provider.Resource(def.ResourceName())
		existing, err := res.List(ctx)
		if err != nil {
			return fmt.Errorf("seed %s: %w", def.Info.Key, err)
		}
		if len(existing) > 0 {
			continue
		}

		archiver, _ := res.(core.Archiver)
		for _, rec := range def.Seed {
			created, err := res.Create(ctx, rec)
			if err != nil {
				return fmt.Errorf("seed %s: %w", def.Info.Key, err)
			}
			if archiver != nil && rec.Archived(core.DefaultArchivedField) {
				id, _ := created.ID()
				if err := archiver.Archive(ctx, id); err != nil {
					return fmt.Errorf("seed %s: %w", def.Info.Key, err)
				}
			}
		}
		slog.InfoContext(ctx, "seeded table", "table", def.Info.Key, "records", len(def.Seed))
	}
	return nil
}
