// Package migrations embeds the SQL schema and applies it in file-name order.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed *.sql
var files embed.FS

// Files returns the embedded migration file names in apply order.
func Files() ([]string, error) {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Apply runs every embedded migration. Each file is idempotent, so Apply may be
// run against an already migrated database.
func Apply(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	names, err := Files()
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	for _, name := range names {
		sqlBytes, err := files.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(sqlBytes)); err != nil {
			return nil, fmt.Errorf("migration %s failed: %w", name, err)
		}
	}
	return names, nil
}
