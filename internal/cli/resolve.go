package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cratedeps/pkg/config"
	"github.com/matzehuels/cratedeps/pkg/deps"
	"github.com/matzehuels/cratedeps/pkg/errors"
	"github.com/matzehuels/cratedeps/pkg/graph"
	"github.com/matzehuels/cratedeps/pkg/manifest"
	"github.com/matzehuels/cratedeps/pkg/pipeline"
	"github.com/matzehuels/cratedeps/pkg/registry"
)

// limitOpts holds the resolver flags. Zero limits and an empty kinds list
// keep the config file's values.
type limitOpts struct {
	maxDepth int
	maxNodes int
	workers  int
	kinds    string
}

func (o *limitOpts) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&o.maxDepth, "max-depth", 0, fmt.Sprintf("maximum expansion depth (default %d)", deps.DefaultMaxDepth))
	f.IntVar(&o.maxNodes, "max-nodes", 0, fmt.Sprintf("maximum graph size (default %d)", deps.DefaultMaxNodes))
	f.IntVar(&o.workers, "workers", 0, fmt.Sprintf("concurrent registry lookups (default %d)", deps.DefaultWorkers))
	f.StringVar(&o.kinds, "kinds", "", "dependency kinds to follow, e.g. normal,build,dev")
}

// overlay applies the flags on top of cfg.
func (o *limitOpts) overlay(cfg *config.Config) {
	if o.maxDepth > 0 {
		cfg.Resolver.MaxDepth = o.maxDepth
	}
	if o.maxNodes > 0 {
		cfg.Resolver.MaxNodes = o.maxNodes
	}
	if o.workers > 0 {
		cfg.Resolver.Workers = o.workers
	}
	if o.kinds != "" {
		cfg.Resolver.Kinds = []string{o.kinds}
	}
}

// pipelineOptions converts cfg's resolver section.
func pipelineOptions(cfg config.Config) pipeline.Options {
	ro := cfg.ResolverOptions()
	return pipeline.Options{
		MaxDepth: ro.MaxDepth,
		MaxNodes: ro.MaxNodes,
		Workers:  ro.Workers,
		Kinds:    ro.Kinds,
	}
}

// resolveOpts holds the flags shared by resolve and manifest.
type resolveOpts struct {
	backendOpts
	limitOpts
	version string
	format  string
	output  string
}

func (o *resolveOpts) bind(cmd *cobra.Command) {
	o.backendOpts.bind(cmd)
	o.limitOpts.bind(cmd)
	f := cmd.Flags()
	f.StringVarP(&o.format, "format", "f", pipeline.FormatJSON, "output format: json, dot or svg")
	f.StringVarP(&o.output, "output", "o", "", "output file (stdout if empty)")
}

func (c *CLI) resolveCommand() *cobra.Command {
	var opts resolveOpts

	cmd := &cobra.Command{
		Use:   "resolve <crate>",
		Short: "Resolve the dependency graph of a published crate",
		Long: `Resolve the dependency graph of a published crate.

The root is the crate's latest version unless --version pins one. Every
requirement is matched to the highest published version that satisfies it.
Requirements that cannot be satisfied are reported and skipped.

Examples:
  cratedeps resolve serde_json
  cratedeps resolve tokio --version 1.38.0 --format svg -o tokio.svg
  cratedeps resolve clap --kinds normal,build,dev --max-depth 3
  cratedeps resolve rand --db crates.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd, &opts, func(o *pipeline.Options) {
				o.Crate = args[0]
				o.Version = opts.version
			})
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.version, "version", "", "pin the root version instead of the latest")
	return cmd
}

func (c *CLI) manifestCommand() *cobra.Command {
	var opts resolveOpts

	cmd := &cobra.Command{
		Use:   "manifest <Cargo.toml>",
		Short: "Resolve the dependency graph of a local Cargo.toml",
		Long: `Resolve the dependency graph of a local Cargo.toml.

The package itself becomes the root. Its registry dependencies are resolved
like those of a published crate; path, git and workspace-inherited entries
have no version requirement and are listed as skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.ParseCargo(args[0])
			if err != nil {
				return err
			}
			for _, s := range m.Skipped {
				printWarning("skipped %s (%s): %s", s.Name, s.Kind, s.Reason)
			}
			return c.runResolve(cmd, &opts, func(o *pipeline.Options) {
				o.Manifest = m
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

// runResolve resolves, renders and reports one graph.
func (c *CLI) runResolve(cmd *cobra.Command, opts *resolveOpts, root func(*pipeline.Options)) error {
	ctx := cmd.Context()
	format, err := pipeline.NormalizeFormat(opts.format)
	if err != nil {
		return err
	}

	cfg, reg, runner, cleanup, err := c.setup(ctx, &opts.backendOpts, opts.overlay)
	if err != nil {
		return err
	}
	defer cleanup()

	popts := pipelineOptions(cfg)
	popts.Refresh = opts.refresh
	root(&popts)

	res, hit, err := c.resolveWithSpinner(ctx, runner, reg, popts)
	if err != nil {
		return err
	}
	data, err := runner.Render(ctx, res, format)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd.OutOrStdout(), opts.output, data); err != nil {
		return err
	}

	rootNode, _ := res.Graph.Node(res.Root)
	printSuccess("Resolved %s", StyleHighlight.Render(rootNode.Label()))
	printStats(graph.Summarize(res.Graph, res.Root), res.SkippedEdges(), hit)
	printIssueCounts(res)
	if opts.output != "" {
		printFile(opts.output)
	}
	return nil
}

func (c *CLI) resolveWithSpinner(ctx context.Context, runner *pipeline.Runner, reg registry.Registry, opts pipeline.Options) (*deps.Result, bool, error) {
	name := opts.Crate
	if opts.Manifest != nil {
		name = opts.Manifest.Name
	}
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Resolving %s via %s...", name, reg.Name()))
	spinner.Start()
	prog := newProgress(c.Logger)

	res, hit, err := runner.ResolveWithCacheInfo(ctx, reg, opts)
	if err != nil {
		stopSpinner(spinner, "Resolving "+name+" failed")
		return nil, false, err
	}
	spinner.Stop()
	prog.done(pipeline.Summary(res))
	return res, hit, nil
}

// printIssueCounts lists skipped edges per code, most frequent first.
func printIssueCounts(res *deps.Result) {
	counts := res.IssueCounts()
	codes := slices.Collect(maps.Keys(counts))
	slices.SortFunc(codes, func(a, b errors.Code) int {
		if counts[a] != counts[b] {
			return counts[b] - counts[a]
		}
		return strings.Compare(string(a), string(b))
	})
	for _, code := range codes {
		printDetail("%s: %d", code, counts[code])
	}
}
