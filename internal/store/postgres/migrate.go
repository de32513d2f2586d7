package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrations returns the embedded schema migrations.
func Migrations() (*migrate.Migrations, error) {
	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return nil, err
	}
	migs := migrate.NewMigrations()
	if err := migs.Discover(sub); err != nil {
		return nil, fmt.Errorf("discover migrations: %w", err)
	}
	return migs, nil
}

// Migrate applies every embedded migration not yet recorded in
// bun_migrations and returns the applied group, which is zero when the
// schema was already current. A concurrent run fails on the migration lock.
func Migrate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migs, err := Migrations()
	if err != nil {
		return nil, err
	}

	m := migrate.NewMigrator(db, migs)
	if err := m.Init(ctx); err != nil {
		return nil, fmt.Errorf("init migrations: %w", err)
	}
	if err := m.Lock(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = m.Unlock(context.WithoutCancel(ctx))
	}()

	group, err := m.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return group, nil
}
