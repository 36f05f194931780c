package domain

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewModuleID_Canonical(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	existing := filepath.Join(dir, "a.ts")
	if err := os.WriteFile(existing, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{existing, filepath.Join(dir, "missing.ts"), existing + string(filepath.Separator) + "."} {
		id, err := NewModuleID(path)
		if err != nil {
			t.Fatalf("NewModuleID(%q) failed: %v", path, err)
		}
		again, err := NewModuleID(id.String())
		if err != nil {
			t.Fatalf("NewModuleID(%q) failed: %v", id.String(), err)
		}
		if again != id {
			t.Errorf("canonicalization is not idempotent: %q then %q", id, again)
		}
		if !filepath.IsAbs(id.Path()) || id.IsVirtual() {
			t.Errorf("expected an absolute file id, got %q", id)
		}
	}

	if _, err := NewModuleID(""); !errors.Is(err, ErrEmptyModuleID) {
		t.Errorf("expected ErrEmptyModuleID, got %v", err)
	}
}

func TestNewModuleID_Symlink(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(dir, "real.ts")
	link := filepath.Join(dir, "link.ts")
	if err := os.WriteFile(target, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	if MustModuleID(link) != MustModuleID(target) {
		t.Error("a symlink and its target should share one id")
	}
}

func TestModuleID_InvalidUTF8(t *testing.T) {
	if _, err := NewModuleID("/proj/x\xffy.ts"); !errors.Is(err, ErrInvalidModuleID) {
		t.Errorf("NewModuleID should reject invalid UTF-8, got %v", err)
	}
	if _, err := ParseModuleID("/proj/x\xffy.ts"); !errors.Is(err, ErrInvalidModuleID) {
		t.Errorf("ParseModuleID should reject invalid UTF-8, got %v", err)
	}

	id := NewVirtualModuleID("x\xffy")
	if id.String() != "virtual:x\uFFFDy" {
		t.Errorf("virtual ids should replace invalid bytes, got %q", id)
	}
	parsed, err := ParseModuleID(id.String())
	if err != nil || parsed != id {
		t.Errorf("virtual id should round trip, got %q, %v", parsed, err)
	}

	if _, err := NewModuleID("/proj/ünïcode/入口.ts"); err != nil {
		t.Errorf("valid non-ASCII paths should be accepted: %v", err)
	}
}

func TestSymbolTable_CloneCopiesMetrics(t *testing.T) {
	lines := 10
	table := SymbolTable{}
	table.Add(Symbol{
		Name:     "run",
		Kind:     SymbolFunction,
		Metadata: SymbolMetadata{CodeQuality: &CodeQualityMetadata{LineCount: &lines}},
	})

	clone := table.Clone()
	*clone.Symbols[0].Metadata.CodeQuality.LineCount = 99

	if lines != 10 {
		t.Errorf("clone shares metric storage with the original, line count is now %d", lines)
	}
	if clone.Symbols[0].Metadata.CodeQuality.ParameterCount != nil {
		t.Error("unset metrics should stay nil")
	}
}

func TestSymbol_EmptyMetadataOmitted(t *testing.T) {
	data, err := json.Marshal(Symbol{Name: "tmp", Kind: SymbolVariable})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "metadata") {
		t.Errorf("empty metadata should be omitted, got %s", data)
	}

	data, err = json.Marshal(Symbol{
		Name:     "x",
		Kind:     SymbolEnumMember,
		Metadata: SymbolMetadata{EnumMember: &EnumMemberMetadata{EnumName: "E"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"enum_name":"E"`) {
		t.Errorf("metadata should be encoded when set, got %s", data)
	}
}

func TestVirtualModuleID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"virtual:entry", "virtual:entry"},
		{"rolldown:runtime", "rolldown:runtime"},
		{"\x00commonjs-helpers", "\x00commonjs-helpers"},
	}
	for _, tt := range tests {
		id, err := NewModuleID(tt.input)
		if err != nil {
			t.Fatalf("NewModuleID(%q) failed: %v", tt.input, err)
		}
		if !id.IsVirtual() || id.String() != tt.want {
			t.Errorf("NewModuleID(%q) = %q (virtual %v)", tt.input, id, id.IsVirtual())
		}
	}

	if got := NewVirtualModuleID("shim"); got.String() != "virtual:shim" || !got.IsVirtual() {
		t.Errorf("NewVirtualModuleID(shim) = %q", got)
	}
}

func TestModuleID_JSON(t *testing.T) {
	a, b := parseID(t, "/proj/a.ts"), parseID(t, "/proj/b.ts")
	ids := map[ModuleID]ModuleID{
		a:                           b,
		NewVirtualModuleID("entry"): a,
	}

	data, err := json.Marshal(ids)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"virtual:entry":"/proj/a.ts"`) {
		t.Errorf("ids should encode as plain strings, got %s", data)
	}

	var decoded map[ModuleID]ModuleID
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(decoded) != len(ids) {
		t.Fatalf("decoded %d ids, want %d", len(decoded), len(ids))
	}
	for k, v := range ids {
		if decoded[k] != v {
			t.Errorf("decoded[%q] = %q, want %q", k, decoded[k], v)
		}
	}
}

func parseID(t *testing.T, s string) ModuleID {
	t.Helper()
	id, err := ParseModuleID(s)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestDependencyChain(t *testing.T) {
	a, b, c := NewVirtualModuleID("a"), NewVirtualModuleID("b"), NewVirtualModuleID("c")

	chain := NewDependencyChain([]ModuleID{a, b, c})
	if chain.Depth != 2 {
		t.Errorf("Depth = %d, want 2", chain.Depth)
	}
	if chain.HasCycle() {
		t.Error("a simple path has no cycle")
	}
	if got := chain.Format(); got != "virtual:a -> virtual:b -> virtual:c" {
		t.Errorf("Format() = %q", got)
	}
	if entry, ok := chain.EntryPoint(); !ok || entry != a {
		t.Errorf("EntryPoint() = %q, %v", entry, ok)
	}

	if !NewDependencyChain([]ModuleID{a, b, a}).HasCycle() {
		t.Error("a repeated module is a cycle")
	}
	if _, ok := NewDependencyChain(nil).Target(); ok {
		t.Error("an empty chain has no target")
	}
}

func TestNewChainAnalysis(t *testing.T) {
	a, b, c, d := NewVirtualModuleID("a"), NewVirtualModuleID("b"), NewVirtualModuleID("c"), NewVirtualModuleID("d")

	analysis := NewChainAnalysis(d, []DependencyChain{
		NewDependencyChain([]ModuleID{a, b, c, d}),
		NewDependencyChain([]ModuleID{a, d}),
		NewDependencyChain([]ModuleID{b, d}),
	})
	if !analysis.IsReachable() {
		t.Fatal("expected reachable")
	}
	if *analysis.MinDepth != 1 || *analysis.MaxDepth != 3 {
		t.Errorf("depth range = [%d, %d], want [1, 3]", *analysis.MinDepth, *analysis.MaxDepth)
	}
	if want := 5.0 / 3.0; analysis.AvgDepth != want {
		t.Errorf("AvgDepth = %v, want %v", analysis.AvgDepth, want)
	}
	if analysis.EntryPointCount != 2 {
		t.Errorf("EntryPointCount = %d, want 2", analysis.EntryPointCount)
	}
	shortest, ok := analysis.ShortestChain()
	if !ok || shortest.Format() != "virtual:a -> virtual:d" {
		t.Errorf("ShortestChain() = %q, %v", shortest.Format(), ok)
	}

	unreachable := NewChainAnalysis(d, nil)
	if unreachable.IsReachable() || unreachable.MinDepth != nil {
		t.Errorf("expected an unreachable analysis, got %+v", unreachable)
	}
}

func TestParseSections(t *testing.T) {
	all, err := ParseSections(nil)
	if err != nil || len(all) != len(AllSections) {
		t.Errorf("empty selection should select every section, got %v, %v", all, err)
	}

	selected, err := ParseSections([]string{" Unused_Exports", "unreachable_modules", "unused_exports"})
	if err != nil {
		t.Fatalf("ParseSections failed: %v", err)
	}
	if strings.Join(selected, ",") != "unused_exports,unreachable_modules" {
		t.Errorf("selected = %v", selected)
	}

	if _, err := ParseSections([]string{"complexity"}); !IsConfigError(err) {
		t.Errorf("expected ConfigError, got %v", err)
	}
}

func TestAnalyzeResponse_IncludesAndIssues(t *testing.T) {
	resp := &AnalyzeResponse{
		Sections:           []string{SectionUnusedExports},
		UnusedExports:      make([]UnusedExport, 2),
		UnreachableModules: make([]UnreachableModule, 1),
	}
	if !resp.Includes(SectionUnusedExports) || resp.Includes(SectionStatistics) {
		t.Error("Includes should reflect the computed sections")
	}
	if resp.IssueCount() != 3 {
		t.Errorf("IssueCount() = %d, want 3", resp.IssueCount())
	}
}

func TestExtractPackageName(t *testing.T) {
	tests := []struct {
		specifier string
		want      string
	}{
		{"react", "react"},
		{"lodash/fp/map", "lodash"},
		{"@babel/core", "@babel/core"},
		{"@babel/core/lib/index", "@babel/core"},
		{"@scope", "@scope"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractPackageName(tt.specifier); got != tt.want {
			t.Errorf("ExtractPackageName(%q) = %q, want %q", tt.specifier, got, tt.want)
		}
	}
}

func TestIsBareSpecifier(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"react", true},
		{"@scope/pkg", true},
		{"./local", false},
		{"../up", false},
		{"/abs/path", false},
		{"virtual:entry", false},
		{`C:\src\a`, false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsBareSpecifier(tt.source); got != tt.want {
			t.Errorf("IsBareSpecifier(%q) = %v, want %v", tt.source, got, tt.want)
		}
	}
}

func TestLoadPackageJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, PackageJSONFileName)
	content := `{"name": "app", "dependencies": {"react": "^18.0.0"}, "devDependencies": {"vitest": "^1.0.0"}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	pkg, err := LoadPackageJSON(path)
	if err != nil {
		t.Fatalf("LoadPackageJSON failed: %v", err)
	}
	if pkg.Name != "app" || pkg.Path != path {
		t.Errorf("unexpected manifest %+v", pkg)
	}
	if pkg.DependenciesOf(DependencyDevelopment)["vitest"] != "^1.0.0" {
		t.Error("devDependencies were not loaded")
	}

	nested := filepath.Join(dir, "src", "components")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	found, err := FindPackageJSON(nested)
	if err != nil || found.Name != "app" {
		t.Errorf("FindPackageJSON should walk upward, got %+v, %v", found, err)
	}
}

func TestLoadPackageJSON_Rejects(t *testing.T) {
	dir := t.TempDir()
	malformed := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(malformed, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"traversal", dir + "/sub/../package.json"},
		{"malformed", malformed},
		{"missing", filepath.Join(dir, "missing.json")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadPackageJSON(tt.path); !IsConfigError(err) {
				t.Errorf("expected ConfigError, got %v", err)
			}
		})
	}
}

func TestCoveragePercentage(t *testing.T) {
	if got := (TypeCoverage{}).Percentage(); got != 100 {
		t.Errorf("an empty bucket is fully covered, got %v", got)
	}
	if got := (TypeCoverage{Declared: 4, Used: 1, Unused: 3}).Percentage(); got != 25 {
		t.Errorf("Percentage() = %v, want 25", got)
	}
	if got := (DependencyCoverage{TotalDeclared: 2, TotalUsed: 1}).CoveragePercentage(); got != 50 {
		t.Errorf("CoveragePercentage() = %v, want 50", got)
	}
}

func TestErrors(t *testing.T) {
	cause := fs.ErrNotExist

	cfgErr := NewConfigError("storage.path", "cannot open database", cause)
	if !errors.Is(cfgErr, fs.ErrNotExist) {
		t.Error("ConfigError should unwrap to its cause")
	}
	if !strings.Contains(cfgErr.Error(), "storage.path: cannot open database") {
		t.Errorf("unexpected message %q", cfgErr.Error())
	}

	storeErr := NewStorageError("get_module", NewVirtualModuleID("a"), cause)
	if !errors.Is(storeErr, fs.ErrNotExist) || !strings.Contains(storeErr.Error(), "virtual:a") {
		t.Errorf("unexpected storage error %q", storeErr.Error())
	}
	if IsConfigError(storeErr) {
		t.Error("a storage error is not a configuration error")
	}
}

func TestParseOutputFormat(t *testing.T) {
	for _, name := range []string{"text", "JSON", " yaml ", "dot"} {
		if _, err := ParseOutputFormat(name); err != nil {
			t.Errorf("ParseOutputFormat(%q) failed: %v", name, err)
		}
	}
	if _, err := ParseOutputFormat("html"); !IsConfigError(err) {
		t.Errorf("expected ConfigError, got %v", err)
	}
}
