package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/matzehuels/cratedeps/pkg/registry"
)

// Import copies every crate, version and dependency row of src into the
// store in one transaction. Dependency targets that src does not list are
// created as crates without versions.
func (s *Store) Import(ctx context.Context, src *registry.Memory) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, crate := range src.Crates() {
		if _, err := ensureCrate(ctx, tx, crate); err != nil {
			return err
		}
		versions, err := src.ListVersions(ctx, crate)
		if err != nil {
			return err
		}
		for _, num := range versions {
			deps, err := src.ListDependencies(ctx, crate, num)
			if err != nil {
				return err
			}
			if err := insertVersion(ctx, tx, crate, num, deps); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// AddVersion inserts one crate version with its dependency rows.
func (s *Store) AddVersion(ctx context.Context, crate, num string, deps ...registry.Dependency) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := insertVersion(ctx, tx, crate, num, deps); err != nil {
		return err
	}
	return tx.Commit()
}

func insertVersion(ctx context.Context, tx *sql.Tx, crate, num string, deps []registry.Dependency) error {
	crateID, err := ensureCrate(ctx, tx, crate)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO versions (crate_id, num) VALUES (?, ?)`, crateID, num)
	if err != nil {
		return fmt.Errorf("insert %s@%s: %w", crate, num, err)
	}
	versionID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, d := range deps {
		depID, err := ensureCrate(ctx, tx, d.Crate)
		if err != nil {
			return err
		}
		code, optional := kindCode(d.Kind)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dependencies (version_id, crate_id, req, kind, optional) VALUES (?, ?, ?, ?, ?)`,
			versionID, depID, d.Requirement, code, optional); err != nil {
			return fmt.Errorf("insert %s@%s -> %s: %w", crate, num, d.Crate, err)
		}
	}
	return nil
}

func ensureCrate(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO crates (name) VALUES (?)`, name); err != nil {
		return 0, fmt.Errorf("insert crate %s: %w", name, err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM crates WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// kindCode maps a Kind back to the dump encoding. Optional rows are stored
// as normal with the optional flag set.
func kindCode(k registry.Kind) (code int, optional bool) {
	switch k {
	case registry.KindBuild:
		return 1, false
	case registry.KindDev:
		return 2, false
	case registry.KindOptional:
		return 0, true
	}
	return 0, false
}
