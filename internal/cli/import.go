package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/registry"
	"github.com/matzehuels/cratedeps/pkg/registry/sqlstore"
)

func (c *CLI) importCommand() *cobra.Command {
	var fixture, db string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a fixture registry into a SQLite database",
		Long: `Copy every crate, version and dependency row of a TOML fixture into a
SQLite database that "resolve --db" can read. The schema is created when
the database is new. Versions already present in the database are rejected.

Defaults come from [registry] fixture and database in the config file.`,
		Example: `  cratedeps import --fixture examples/fixture.toml --db crates.db`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if fixture == "" {
				fixture = cfg.Registry.Fixture
			}
			if db == "" {
				db = cfg.Registry.Database
			}
			if fixture == "" || db == "" {
				return errors.New(errors.ErrCodeInvalidInput, "both --fixture and --db are required")
			}

			src, err := registry.LoadFixture(fixture)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "load fixture %s", fixture)
			}
			store, err := sqlstore.Open(ctx, db)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer store.Close()

			spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Importing %s...", fixture))
			spinner.Start()
			if err := store.Import(ctx, src); err != nil {
				stopSpinner(spinner, "Import failed")
				return fmt.Errorf("import %s: %w", fixture, err)
			}
			spinner.StopWithSuccess(fmt.Sprintf("Imported %d crates", len(src.Crates())))
			printFile(db)
			return nil
		},
	}
	cmd.Flags().StringVar(&fixture, "fixture", "", "TOML fixture to read")
	cmd.Flags().StringVar(&db, "db", "", "SQLite database to write")
	return cmd
}
