package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cratedeps/pkg/deps"
	"github.com/matzehuels/cratedeps/pkg/errors"
)

func (c *CLI) versionsCommand() *cobra.Command {
	var opts backendOpts

	cmd := &cobra.Command{
		Use:   "versions <crate>",
		Short: "List the published versions of a crate",
		Long: `List the published versions of a crate in ascending order, one per line.

Strings that are not valid semantic versions are left out. The latest
version, pre-releases included, is the one a plain "resolve" starts from.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			crate := args[0]
			if err := errors.ValidateCrateName(crate); err != nil {
				return err
			}

			_, reg, runner, cleanup, err := c.setup(ctx, &opts, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			catalog := deps.NewCatalog(runner.Registry(reg, opts.refresh))
			versions, err := catalog.ListVersions(ctx, crate)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, v := range versions {
				fmt.Fprintln(out, v.Original())
			}
			printKeyValue("latest", versions[len(versions)-1].Original())
			printKeyValue("versions", fmt.Sprint(len(versions)))
			printKeyValue("registry", reg.Name())
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}
