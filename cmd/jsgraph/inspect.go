package main

import (
	"fmt"

	"github.com/ludo-technologies/jsgraph/app"
	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/ludo-technologies/jsgraph/service"
	"github.com/spf13/cobra"
)

func chainsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chains <target> [paths...]",
		Short: "Show every import chain from an entry point to a module",
		Long: `Show how entry points reach a module: every import chain, the shortest one,
and chain depth statistics. Modules that are only imported by dead code are
reported together with their dead importers.

Examples:
  jsgraph chains src/utils/format.ts
  jsgraph chains src/legacy.js src/ --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args[1:]
			s, err := opts.newSession(cmd, paths, "", service.ConfigOverrides{})
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := s.context(cmd.Context())
			defer cancel()

			_, err = s.inspectUseCase().Chains(ctx, domain.ChainsRequest{Paths: paths, Target: args[0]}, s.output)
			return err
		},
	}
}

func depsCmd(opts *globalOptions) *cobra.Command {
	var includeDev, includePeer bool
	cmd := &cobra.Command{
		Use:   "deps [paths...]",
		Short: "Report which package.json dependencies are imported",
		RunE: func(cmd *cobra.Command, args []string) error {
			var overrides service.ConfigOverrides
			if cmd.Flags().Changed("include-dev") {
				overrides.IncludeDev = &includeDev
			}
			if cmd.Flags().Changed("include-peer") {
				overrides.IncludePeer = &includePeer
			}
			s, err := opts.newSession(cmd, args, "", overrides)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := s.context(cmd.Context())
			defer cancel()

			_, err = s.inspectUseCase().Deps(ctx, domain.DepsRequest{
				Paths:       args,
				IncludeDev:  s.cfg.Dependencies.IncludeDev,
				IncludePeer: s.cfg.Dependencies.IncludePeer,
			}, s.output)
			return err
		},
	}
	cmd.Flags().BoolVar(&includeDev, "include-dev", false, "Include devDependencies")
	cmd.Flags().BoolVar(&includePeer, "include-peer", false, "Include peerDependencies")
	return cmd
}

func statsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [paths...]",
		Short: "Print module graph statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newSession(cmd, args, "", service.ConfigOverrides{})
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := s.context(cmd.Context())
			defer cancel()

			_, err = s.inspectUseCase().Stats(ctx, args, s.output)
			return err
		},
	}
}

func graphCmd(opts *globalOptions) *cobra.Command {
	var (
		plain    bool
		rankDir  string
		maxDepth int
		cluster  bool
		noLegend bool
	)
	cmd := &cobra.Command{
		Use:   "graph [paths...]",
		Short: "Export the module graph as DOT, JSON or YAML",
		Long: `Export the module graph. DOT output (the default) colors entry points,
live modules, side-effect modules and dead modules, and styles edges by
import kind.

Examples:
  jsgraph graph | dot -Tsvg > graph.svg
  jsgraph graph --cluster --max-depth 3 src/
  jsgraph graph --format json --plain`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newSession(cmd, args, domain.OutputFormatDOT, service.ConfigOverrides{})
			if err != nil {
				return err
			}
			defer s.Close()

			if maxDepth < 0 {
				return domain.NewConfigError("max-depth", fmt.Sprintf("must be >= 0, got %d", maxDepth), nil)
			}
			dot := service.DefaultDOTFormatterConfig()
			dot.RankDir = rankDir
			dot.MaxDepth = maxDepth
			dot.ClusterDirectories = cluster
			dot.ShowLegend = !noLegend

			ctx, cancel := s.context(cmd.Context())
			defer cancel()

			return s.inspectUseCase().Graph(ctx, args, app.GraphOptions{DOT: dot, Plain: plain}, s.output)
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&plain, "plain", false, "Export the bare graph without dead-code annotations")
	flags.StringVar(&rankDir, "rankdir", "LR", "DOT layout direction: TB, LR, BT or RL")
	flags.IntVar(&maxDepth, "max-depth", 0, "Only include modules up to this import depth (0 = all)")
	flags.BoolVar(&cluster, "cluster", false, "Group modules by directory")
	flags.BoolVar(&noLegend, "no-legend", false, "Omit the DOT legend")
	return cmd
}
