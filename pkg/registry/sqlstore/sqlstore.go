// Package sqlstore serves registry metadata from a SQLite copy of the
// crates.io database dump.
//
// The schema keeps the column names of the dump's crates, versions and
// dependencies tables so the CSV export can be loaded with sqlite3's
// .import command. Dependency kinds use the dump's integer encoding
// (0 normal, 1 build, 2 dev) plus the optional flag.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/matzehuels/cratedeps/pkg/registry"
)

const schema = `
CREATE TABLE IF NOT EXISTS crates (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS versions (
	id       INTEGER PRIMARY KEY,
	crate_id INTEGER NOT NULL REFERENCES crates(id),
	num      TEXT NOT NULL,
	yanked   BOOLEAN NOT NULL DEFAULT 0,
	UNIQUE (crate_id, num)
);

CREATE TABLE IF NOT EXISTS dependencies (
	id         INTEGER PRIMARY KEY,
	version_id INTEGER NOT NULL REFERENCES versions(id),
	crate_id   INTEGER NOT NULL REFERENCES crates(id),
	req        TEXT NOT NULL,
	kind       INTEGER NOT NULL DEFAULT 0,
	optional   BOOLEAN NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_versions_crate ON versions(crate_id);
CREATE INDEX IF NOT EXISTS idx_dependencies_version ON dependencies(version_id);
`

// Store is a [registry.Registry] backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the tables if they don't exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Name implements registry.Registry.
func (s *Store) Name() string { return "sqlite" }

// ListVersions returns every version row of crate, yanked included.
func (s *Store) ListVersions(ctx context.Context, crate string) ([]string, error) {
	crateID, err := s.crateID(ctx, crate)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT num FROM versions WHERE crate_id = ? ORDER BY id`, crateID)
	if err != nil {
		return nil, fmt.Errorf("query versions of %s: %w", crate, err)
	}
	defer rows.Close()

	versions := []string{}
	for rows.Next() {
		var num string
		if err := rows.Scan(&num); err != nil {
			return nil, err
		}
		versions = append(versions, num)
	}
	return versions, rows.Err()
}

// ListDependencies returns every dependency row of crate@version.
func (s *Store) ListDependencies(ctx context.Context, crate, version string) ([]registry.Dependency, error) {
	var versionID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT versions.id
		FROM versions
		JOIN crates ON crates.id = versions.crate_id
		WHERE crates.name = ? AND versions.num = ?`, crate, version).Scan(&versionID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s@%s", registry.ErrNotFound, crate, version)
	}
	if err != nil {
		return nil, fmt.Errorf("query %s@%s: %w", crate, version, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.name, deps.req, deps.kind, deps.optional
		FROM dependencies AS deps
		JOIN crates AS b ON deps.crate_id = b.id
		WHERE deps.version_id = ?
		ORDER BY deps.id`, versionID)
	if err != nil {
		return nil, fmt.Errorf("query dependencies of %s@%s: %w", crate, version, err)
	}
	defer rows.Close()

	deps := []registry.Dependency{}
	for rows.Next() {
		var (
			d        registry.Dependency
			code     int
			optional bool
		)
		if err := rows.Scan(&d.Crate, &d.Requirement, &code, &optional); err != nil {
			return nil, err
		}
		if d.Kind, err = registry.KindFromCode(code, optional); err != nil {
			return nil, fmt.Errorf("%s@%s -> %s: %w", crate, version, d.Crate, err)
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

func (s *Store) crateID(ctx context.Context, crate string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM crates WHERE name = ?`, crate).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: crate %s", registry.ErrNotFound, crate)
	}
	if err != nil {
		return 0, fmt.Errorf("query crate %s: %w", crate, err)
	}
	return id, nil
}

var _ registry.Registry = (*Store)(nil)
