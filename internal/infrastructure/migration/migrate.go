package migration

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Migrator applies file-based SQL migrations to the postgres schema
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// New wraps an open database connection in a Migrator reading migration
// pairs from migrationsPath.
func New(db *sql.DB, migrationsPath string, logger *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("migrate instance: %w", err)
	}

	return &Migrator{m: m, logger: logger}, nil
}

// Up applies all pending migrations
func (mg *Migrator) Up() error {
	mg.logger.Info("Applying pending migrations")

	if err := mg.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.logger.Info("Schema already up to date")
			return nil
		}
		return fmt.Errorf("migration up: %w", err)
	}

	mg.logVersion("Migrations applied")
	return nil
}

// Down rolls back every applied migration
func (mg *Migrator) Down() error {
	mg.logger.Info("Rolling back all migrations")

	if err := mg.m.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.logger.Info("Nothing to roll back")
			return nil
		}
		return fmt.Errorf("migration down: %w", err)
	}

	mg.logger.Info("All migrations rolled back")
	return nil
}

// Steps applies n migrations; negative n rolls back
func (mg *Migrator) Steps(n int) error {
	mg.logger.Info("Applying migration steps", zap.Int("steps", n))

	if err := mg.m.Steps(n); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.logger.Info("Schema already up to date")
			return nil
		}
		return fmt.Errorf("migration steps: %w", err)
	}

	mg.logVersion("Migration steps applied")
	return nil
}

// GoTo migrates the schema to an exact version, up or down
func (mg *Migrator) GoTo(version uint) error {
	mg.logger.Info("Migrating to version", zap.Uint("target", version))

	if err := mg.m.Migrate(version); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.logger.Info("Already at target version")
			return nil
		}
		return fmt.Errorf("migrate to version %d: %w", version, err)
	}

	mg.logger.Info("Migrated", zap.Uint("version", version))
	return nil
}

// Version reports the current schema version; (0, false, nil) when no
// migration has been applied yet.
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}

// Force overwrites the recorded version without running any SQL. Only for
// recovering a dirty schema after a failed migration.
func (mg *Migrator) Force(version int) error {
	mg.logger.Warn("Forcing migration version", zap.Int("version", version))

	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Drop removes every object in the schema. Destroys all data.
func (mg *Migrator) Drop() error {
	mg.logger.Warn("Dropping all database objects")

	if err := mg.m.Drop(); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return nil
}

// Close releases the source and database handles
func (mg *Migrator) Close() error {
	sourceErr, dbErr := mg.m.Close()
	if sourceErr != nil {
		return fmt.Errorf("close migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("close migration database: %w", dbErr)
	}
	return nil
}

func (mg *Migrator) logVersion(msg string) {
	version, dirty, err := mg.m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		mg.logger.Warn("Could not read migration version", zap.Error(err))
		return
	}
	mg.logger.Info(msg, zap.Uint("version", version), zap.Bool("dirty", dirty))
}
