package migrations

import (
	"context"
	"fmt"

	"xelis-stats/internal/storage/postgres"
)

// RunPostgresMigrations applies every embedded file. Files must be
// idempotent; they run on each start.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := load(PostgresFS, "postgres")
	if err != nil {
		return err
	}
	for _, m := range files {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
	}
	return nil
}
