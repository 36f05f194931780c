package main

import (
	"fmt"
	"strings"

	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/ludo-technologies/jsgraph/service"
	"github.com/spf13/cobra"
)

// analyzeOptions are the flags of analyze, unused and unreachable
type analyzeOptions struct {
	sections     []string
	sortBy       string
	includeDev   bool
	includePeer  bool
	summaryOnly  bool
	failOnIssues bool
}

func (a *analyzeOptions) register(cmd *cobra.Command, selectable bool) {
	flags := cmd.Flags()
	if selectable {
		flags.StringSliceVarP(&a.sections, "select", "s", nil,
			"Comma-separated sections to report: "+strings.Join(domain.AllSections, ", "))
	}
	flags.StringVar(&a.sortBy, "sort", "", "Sort findings by path or name")
	flags.BoolVar(&a.includeDev, "include-dev", false, "Also report unused devDependencies")
	flags.BoolVar(&a.includePeer, "include-peer", false, "Also report unused peerDependencies")
	flags.BoolVar(&a.summaryOnly, "summary", false, "Print counts without per-finding details")
	flags.BoolVar(&a.failOnIssues, "fail-on-issues", false, "Exit with code 1 when dead code is found")
}

func analyzeCmd(opts *globalOptions) *cobra.Command {
	a := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze [paths...]",
		Short: "Report unused exports, unreachable modules and unused dependencies",
		Long: `Build the module graph of the given files and directories and report dead code.

Sections:
  statistics           Graph size, entry points and import depth
  unused_exports       Exports no module imports
  unreachable_modules  Modules no entry point reaches
  unused_dependencies  package.json dependencies nothing imports
  unused_symbols       Top-level declarations never referenced

Examples:
  # Analyze the current project
  jsgraph analyze

  # Only unused exports, as JSON
  jsgraph analyze --select unused_exports --format json src/

  # Fail CI when dead code is found
  jsgraph analyze --fail-on-issues --no-progress`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts, a, args, a.sections)
		},
	}
	a.register(cmd, true)
	return cmd
}

func unusedCmd(opts *globalOptions) *cobra.Command {
	a := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "unused [paths...]",
		Short: "List exports that no module imports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts, a, args, []string{domain.SectionUnusedExports})
		},
	}
	a.register(cmd, false)
	return cmd
}

func unreachableCmd(opts *globalOptions) *cobra.Command {
	a := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "unreachable [paths...]",
		Short: "List modules that no entry point reaches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts, a, args, []string{domain.SectionUnreachableModules})
		},
	}
	a.register(cmd, false)
	return cmd
}

func (a *analyzeOptions) overrides(cmd *cobra.Command) service.ConfigOverrides {
	var overrides service.ConfigOverrides
	flags := cmd.Flags()
	if flags.Changed("sort") {
		overrides.SortBy = &a.sortBy
	}
	if a.summaryOnly {
		showDetails := false
		overrides.ShowDetails = &showDetails
	}
	if flags.Changed("include-dev") {
		overrides.IncludeDev = &a.includeDev
	}
	if flags.Changed("include-peer") {
		overrides.IncludePeer = &a.includePeer
	}
	return overrides
}

func runAnalyze(cmd *cobra.Command, opts *globalOptions, a *analyzeOptions, paths []string, sections []string) error {
	s, err := opts.newSession(cmd, paths, "", a.overrides(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	uc, err := s.analyzeUseCase()
	if err != nil {
		return err
	}

	ctx, cancel := s.context(cmd.Context())
	defer cancel()

	resp, err := uc.Execute(ctx, domain.AnalyzeRequest{
		Paths:       paths,
		Sections:    sections,
		IncludeDev:  s.cfg.Dependencies.IncludeDev,
		IncludePeer: s.cfg.Dependencies.IncludePeer,
		SortBy:      domain.SortBy(s.cfg.Output.SortBy),
	}, s.output)
	if err != nil {
		return err
	}

	if s.output.Path != "" && s.format == domain.OutputFormatText {
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", s.output.Path)
	}

	if a.failOnIssues && resp.IssueCount() > 0 {
		return &ExitError{Code: exitIssues}
	}
	return nil
}
