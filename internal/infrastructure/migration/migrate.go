package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/kvikk/backend/migrations"
)

// MigrationsTable records the applied schema version
const MigrationsTable = "kvikk_schema_migrations"

var (
	// ErrDirtySchema means a previous migration failed halfway and needs Force
	ErrDirtySchema = errors.New("migration: schema is dirty")
	// ErrSchemaAhead means the database carries migrations this binary does not know
	ErrSchemaAhead = errors.New("migration: database schema is newer than the binary")
)

// Migrator applies the SQL migrations of a source to a postgres database.
// Closing it also closes the *sql.DB it was built with.
type Migrator struct {
	migrate *migrate.Migrate
	logger  *zap.Logger
	latest  uint
}

// New creates a Migrator reading SQL files from migrationsPath on disk
func New(db *sql.DB, migrationsPath string, logger *zap.Logger) (*Migrator, error) {
	return NewFromFS(db, os.DirFS(migrationsPath), logger)
}

// NewEmbedded creates a Migrator using the migrations compiled into the binary
func NewEmbedded(db *sql.DB, logger *zap.Logger) (*Migrator, error) {
	return NewFromFS(db, migrations.FS, logger)
}

// NewFromFS creates a Migrator reading SQL files from the root of fsys
func NewFromFS(db *sql.DB, fsys fs.FS, logger *zap.Logger) (*Migrator, error) {
	names, err := ListMigrations(fsys)
	if err != nil {
		return nil, err
	}
	latest, err := latestVersion(names)
	if err != nil {
		return nil, err
	}

	source, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return &Migrator{migrate: m, logger: logger, latest: latest}, nil
}

func latestVersion(names []string) (uint, error) {
	var latest uint
	for _, n := range names {
		prefix, _, _ := strings.Cut(n, "_")
		v, err := strconv.ParseUint(prefix, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("migration %q has a non-numeric version", n)
		}
		latest = max(latest, uint(v))
	}
	return latest, nil
}

// Latest returns the highest version the source provides
func (m *Migrator) Latest() uint {
	return m.latest
}

// Up runs all pending migrations
func (m *Migrator) Up() error {
	m.logger.Info("Running migrations up", zap.Uint("latest", m.latest))
	if err := m.run(m.migrate.Up()); err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return m.logVersion("Migrations completed")
}

// Down rolls back all migrations
func (m *Migrator) Down() error {
	m.logger.Info("Running migrations down")
	if err := m.run(m.migrate.Down()); err != nil {
		return fmt.Errorf("migration down failed: %w", err)
	}
	m.logger.Info("All migrations rolled back")
	return nil
}

// Steps applies n migrations (positive = up, negative = down)
func (m *Migrator) Steps(n int) error {
	m.logger.Info("Running migration steps", zap.Int("steps", n))
	if err := m.run(m.migrate.Steps(n)); err != nil {
		return fmt.Errorf("migration steps failed: %w", err)
	}
	return m.logVersion("Migration steps completed")
}

// GoTo migrates to a specific version
func (m *Migrator) GoTo(version uint) error {
	m.logger.Info("Migrating to version", zap.Uint("target_version", version))
	if err := m.run(m.migrate.Migrate(version)); err != nil {
		return fmt.Errorf("migration to version %d failed: %w", version, err)
	}
	return m.logVersion("Migration to version completed")
}

// run treats "nothing to do" as success
func (m *Migrator) run(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("Schema already up to date")
		return nil
	}
	return err
}

func (m *Migrator) logVersion(msg string) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info(msg, zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// Version returns the current migration version; zero when none is applied
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Check reports whether the database schema matches the source: it fails
// on a dirty schema or one newer than the source. A schema behind the
// source is reported through the returned pending count.
func (m *Migrator) Check() (pending uint, err error) {
	version, dirty, err := m.Version()
	if err != nil {
		return 0, err
	}
	switch {
	case dirty:
		return 0, fmt.Errorf("%w at version %d", ErrDirtySchema, version)
	case version > m.latest:
		return 0, fmt.Errorf("%w: database at %d, binary at %d", ErrSchemaAhead, version, m.latest)
	}
	return m.latest - version, nil
}

// Force sets the migration version without running migrations.
// Only for repairing a dirty schema.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Drop drops every object in the database
func (m *Migrator) Drop() error {
	m.logger.Warn("Dropping database - all data will be lost")
	if err := m.migrate.Drop(); err != nil {
		return fmt.Errorf("failed to drop database: %w", err)
	}
	return nil
}

// Close closes the migrator and releases resources
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}
