package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/username/tradeops/backend/src/catalog"
	"github.com/username/tradeops/backend/src/logger"
)

// Seed loads the catalog fixtures into every entity that is still empty
// and reports how many records each entity received.
func Seed(ctx context.Context, repo Repository, cat *catalog.Catalog) (map[string]int, error) {
	seeded := make(map[string]int)
	for _, entity := range cat.Names() {
		n, err := repo.Count(ctx, entity)
		if err != nil {
			return seeded, err
		}
		if n > 0 {
			continue
		}
		fixtures, err := cat.Fixtures(entity)
		if err != nil {
			return seeded, err
		}
		for _, r := range fixtures {
			if _, err := repo.Insert(ctx, entity, r); err != nil {
				if errors.Is(err, ErrDuplicateID) {
					// Ids of deleted fixtures stay reserved; skip them.
					continue
				}
				return seeded, fmt.Errorf("seed %s: %w", entity, err)
			}
			seeded[entity]++
		}
		if seeded[entity] > 0 {
			logger.L.Info("Seeded entity from fixtures", "entity", entity, "records", seeded[entity])
		}
	}
	return seeded, nil
}
