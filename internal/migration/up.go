package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/fhuszti/uploads-ms-go/internal/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("could not create source driver: %w", err)
	}
	driver, err := mysql.WithInstance(db, &mysql.Config{})
	if err != nil {
		return nil, fmt.Errorf("could not create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "mysql", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize migration: %w", err)
	}
	return m, nil
}

// MigrateUp applies every pending migration. A schema left dirty by an
// interrupted run is forced back to the previous version and migrated again.
func MigrateUp(db *sql.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	err = m.Up()
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		return nil
	}

	var dirtyErr migrate.ErrDirty
	if !errors.As(err, &dirtyErr) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	prev, err := previousVersion(dirtyErr.Version)
	if err != nil {
		return err
	}
	logger.Warnf(context.Background(), "⚠️ database dirty at version %d, forcing back to %d", dirtyErr.Version, prev)
	if err := m.Force(int(prev)); err != nil {
		return fmt.Errorf("failed to force to version %d: %w", prev, err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed after force: %w", err)
	}
	return nil
}

// Version reports the schema version currently applied. It is 0 on an empty schema.
func Version(db *sql.DB) (version uint, dirty bool, err error) {
	m, err := newMigrator(db)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// LatestVersion is the highest embedded migration version.
func LatestVersion() (uint64, error) {
	versions, err := availableVersions()
	if err != nil {
		return 0, err
	}
	if len(versions) == 0 {
		return 0, errors.New("no embedded migrations")
	}
	return versions[len(versions)-1], nil
}

func previousVersion(dirtyVersion int) (uint64, error) {
	versions, err := availableVersions()
	if err != nil {
		return 0, fmt.Errorf("dirty at %d but failed to read migrations directory: %w", dirtyVersion, err)
	}
	i := slices.Index(versions, uint64(dirtyVersion))
	if i <= 0 {
		return 0, fmt.Errorf("could not determine previous version before %d", dirtyVersion)
	}
	return versions[i-1], nil
}

// availableVersions lists the embedded migration versions in ascending order.
func availableVersions() ([]uint64, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, err
	}
	var versions []uint64
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		// <version>_<description>.up.sql
		prefix, _, _ := strings.Cut(name, "_")
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	slices.Sort(versions)
	return versions, nil
}
