package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/ludo-technologies/jsgraph/internal/testutil"
	"github.com/spf13/cobra"
)

func writeProject(t *testing.T) string {
	t.Helper()
	return testutil.WriteSampleProject(t)
}

// run executes the root command and returns stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func subcommand(t *testing.T, name string) *cobra.Command {
	t.Helper()
	cmd, _, err := newRootCmd().Find([]string{name})
	if err != nil || cmd.Name() != name {
		t.Fatalf("command %s not registered: %v", name, err)
	}
	return cmd
}

func TestRootCmd_Subcommands(t *testing.T) {
	for _, name := range []string{"analyze", "unused", "unreachable", "chains", "deps", "graph", "stats", "init", "version"} {
		subcommand(t, name)
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	flags := newRootCmd().PersistentFlags()

	expectedFlags := []string{"config", "format", "output", "storage", "db", "log-level", "no-progress"}
	for _, flagName := range expectedFlags {
		if flags.Lookup(flagName) == nil {
			t.Errorf("Missing expected flag: --%s", flagName)
		}
	}

	shortFlags := map[string]string{
		"c": "config",
		"f": "format",
		"o": "output",
	}
	for short, long := range shortFlags {
		flag := flags.ShorthandLookup(short)
		if flag == nil || flag.Name != long {
			t.Errorf("Missing short flag -%s for --%s", short, long)
		}
	}
}

func TestAnalyzeCmd_FlagsExist(t *testing.T) {
	cmd := subcommand(t, "analyze")

	expectedFlags := []string{"select", "sort", "include-dev", "include-peer", "summary", "fail-on-issues"}
	for _, flagName := range expectedFlags {
		if cmd.Flags().Lookup(flagName) == nil {
			t.Errorf("Missing expected flag: --%s", flagName)
		}
	}
	if cmd.Flags().ShorthandLookup("s") == nil {
		t.Error("Missing short flag -s for --select")
	}

	if subcommand(t, "unused").Flags().Lookup("select") != nil {
		t.Error("unused reports a fixed section and should not accept --select")
	}
}

func TestGraphCmd_DefaultValues(t *testing.T) {
	cmd := subcommand(t, "graph")

	rankDir := cmd.Flags().Lookup("rankdir")
	if rankDir == nil || rankDir.DefValue != "LR" {
		t.Errorf("Expected default rankdir to be 'LR', got %v", rankDir)
	}
	maxDepth := cmd.Flags().Lookup("max-depth")
	if maxDepth == nil || maxDepth.DefValue != "0" {
		t.Errorf("Expected default max-depth to be '0', got %v", maxDepth)
	}
}

func TestChainsCmd_RequiresTarget(t *testing.T) {
	if _, err := run(t, "chains"); err == nil {
		t.Error("Expected error when no target is given")
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "jsgraph version ") {
		t.Errorf("unexpected version output %q", out)
	}

	out, err = run(t, "version", "--verbose")
	if err != nil {
		t.Fatalf("version --verbose failed: %v", err)
	}
	if !strings.Contains(out, "commit: ") || !strings.Contains(out, "go1") {
		t.Errorf("verbose output should include build metadata, got %q", out)
	}
}

func TestAnalyzeCmd_JSONToFile(t *testing.T) {
	root := writeProject(t)
	report := filepath.Join(t.TempDir(), "report.json")

	if _, err := run(t, "analyze", "--no-progress", "--format", "json", "--output", report, root); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	data, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	var resp domain.AnalyzeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if len(resp.UnreachableModules) != 1 || resp.UnreachableModules[0].Path != "orphan.ts" {
		t.Errorf("unexpected unreachable modules %+v", resp.UnreachableModules)
	}
}

func TestAnalyzeCmd_FailOnIssues(t *testing.T) {
	root := writeProject(t)

	_, err := run(t, "unreachable", "--no-progress", "--fail-on-issues", root)
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != exitIssues {
		t.Fatalf("expected exit code %d, got %v", exitIssues, err)
	}

	if _, err := run(t, "unreachable", "--no-progress", root); err != nil {
		t.Errorf("without --fail-on-issues findings are not an error, got %v", err)
	}
}

func TestAnalyzeCmd_InvalidInputs(t *testing.T) {
	root := writeProject(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown section", []string{"analyze", "--select", "complexity", root}},
		{"unknown sort", []string{"analyze", "--sort", "size", root}},
		{"unknown format", []string{"analyze", "--format", "html", root}},
		{"unknown storage", []string{"analyze", "--storage", "redis", root}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"--no-progress"}, tt.args...)...)
			if !domain.IsConfigError(err) {
				t.Errorf("expected ConfigError, got %v", err)
			}
		})
	}
}

func TestUnusedCmd_Text(t *testing.T) {
	root := writeProject(t)

	out, err := run(t, "unused", "--no-progress", "--sort", "name", root)
	if err != nil {
		t.Fatalf("unused failed: %v", err)
	}
	if !strings.Contains(out, "Unused Exports (2):") {
		t.Errorf("unexpected output\n%s", out)
	}
	if strings.Contains(out, "Unreachable Modules") {
		t.Errorf("unused should only report unused exports\n%s", out)
	}
}

func TestChainsCmd(t *testing.T) {
	root := writeProject(t)

	out, err := run(t, "chains", "--no-progress", filepath.Join(root, "util.ts"), root)
	if err != nil {
		t.Fatalf("chains failed: %v", err)
	}
	if !strings.Contains(out, "index.ts -> util.ts") {
		t.Errorf("unexpected output\n%s", out)
	}
}

func TestDepsAndStatsCmd(t *testing.T) {
	root := writeProject(t)

	out, err := run(t, "deps", "--no-progress", "--format", "yaml", root)
	if err != nil {
		t.Fatalf("deps failed: %v", err)
	}
	if !strings.Contains(out, "package: left-pad") {
		t.Errorf("unexpected deps output\n%s", out)
	}

	out, err = run(t, "stats", "--no-progress", "--format", "json", root)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	var stats domain.StatsResponse
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("stats output is not JSON: %v", err)
	}
	if stats.Statistics.ModuleCount != 3 {
		t.Errorf("expected 3 modules, got %d", stats.Statistics.ModuleCount)
	}
}

func TestGraphCmd_DefaultsToDOT(t *testing.T) {
	root := writeProject(t)

	out, err := run(t, "graph", "--no-progress", "--no-legend", root)
	if err != nil {
		t.Fatalf("graph failed: %v", err)
	}
	if !strings.Contains(out, "digraph modules {") || !strings.Contains(out, `"index.ts" -> "util.ts"`) {
		t.Errorf("unexpected DOT output\n%s", out)
	}

	if _, err := run(t, "graph", "--no-progress", "--format", "text", root); !domain.IsConfigError(err) {
		t.Errorf("explicit text format should be rejected, got %v", err)
	}
}

func TestAnalyzeCmd_PersistentStorage(t *testing.T) {
	root := writeProject(t)
	db := filepath.Join(t.TempDir(), "graph.db")

	for i := 0; i < 2; i++ {
		if _, err := run(t, "unreachable", "--no-progress", "--db", db, root); err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
	}
	if _, err := os.Stat(db); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}
