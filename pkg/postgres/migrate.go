package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

var ErrDirtyMigration = errors.New("database schema is dirty")

// RunMigrations applies all pending migrations found at path and returns the
// resulting schema version. A dirty schema is reported as ErrDirtyMigration and
// must be fixed by hand.
func RunMigrations(path string, dsn string) (uint, error) {
	const op = "postgres.RunMigrations"

	m, err := migrate.New(path, dsn)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to initialize migrations: %w", op, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("%s: failed to read schema version: %w", op, err)
	}
	if dirty {
		return version, fmt.Errorf("%s: %w at version %d", op, ErrDirtyMigration, version)
	}

	return version, nil
}
