package domain

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"
)

// MaxPackageJSONSize is the largest manifest LoadPackageJSON accepts
const MaxPackageJSONSize int64 = 10 * 1024 * 1024

// PackageJSONFileName is the manifest file name
const PackageJSONFileName = "package.json"

// DependencyType is one of the four dependency buckets of a manifest
type DependencyType string

const (
	DependencyProduction  DependencyType = "dependencies"
	DependencyDevelopment DependencyType = "devDependencies"
	DependencyPeer        DependencyType = "peerDependencies"
	DependencyOptional    DependencyType = "optionalDependencies"
)

// AllDependencyTypes lists the buckets in manifest order
var AllDependencyTypes = []DependencyType{
	DependencyProduction,
	DependencyDevelopment,
	DependencyPeer,
	DependencyOptional,
}

// PackageJSON is the subset of a package.json manifest used for coverage queries
type PackageJSON struct {
	Name                 string            `json:"name,omitempty"`
	Version              string            `json:"version,omitempty"`
	Main                 string            `json:"main,omitempty"`
	Module               string            `json:"module,omitempty"`
	Dependencies         map[string]string `json:"dependencies,omitempty"`
	DevDependencies      map[string]string `json:"devDependencies,omitempty"`
	PeerDependencies     map[string]string `json:"peerDependencies,omitempty"`
	OptionalDependencies map[string]string `json:"optionalDependencies,omitempty"`

	// Path is the file the manifest was loaded from
	Path string `json:"-"`
}

// LoadPackageJSON reads and validates a manifest.
// Paths containing "..", files over MaxPackageJSONSize and malformed JSON
// are rejected with a *ConfigError.
func LoadPackageJSON(path string) (*PackageJSON, error) {
	if err := validateManifestPath(path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, NewConfigError("package_json", "cannot read package.json metadata", err)
	}
	if info.Size() > MaxPackageJSONSize {
		return nil, NewConfigError("package_json",
			fmt.Sprintf("package.json exceeds maximum size of %dMB", MaxPackageJSONSize/1024/1024), nil)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError("package_json", "failed to read package.json", err)
	}
	if !utf8.Valid(content) {
		return nil, NewConfigError("package_json", "package.json contains invalid UTF-8", nil)
	}

	return ParsePackageJSON(content, path)
}

// ParsePackageJSON decodes manifest bytes; path is recorded but not read
func ParsePackageJSON(content []byte, path string) (*PackageJSON, error) {
	var pkg PackageJSON
	if err := json.Unmarshal(content, &pkg); err != nil {
		return nil, NewConfigError("package_json", "invalid package.json format", err)
	}
	pkg.Path = path
	return &pkg, nil
}

// FindPackageJSON walks from startDir up to the filesystem root and loads the first manifest found
func FindPackageJSON(startDir string) (*PackageJSON, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, NewConfigError("package_json", "cannot resolve start directory", err)
	}

	for {
		candidate := filepath.Join(dir, PackageJSONFileName)
		if fileExists(candidate) {
			return LoadPackageJSON(candidate)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, NewConfigError("package_json", "no package.json found in directory tree", nil)
		}
		dir = parent
	}
}

func validateManifestPath(path string) error {
	for _, part := range strings.FieldsFunc(filepath.ToSlash(path), func(r rune) bool { return r == '/' }) {
		if part == ".." {
			return NewConfigError("package_json", "path contains '..' (potential directory traversal)", nil)
		}
	}
	return nil
}

// DependenciesOf returns the bucket for the given type
func (p *PackageJSON) DependenciesOf(depType DependencyType) map[string]string {
	switch depType {
	case DependencyProduction:
		return p.Dependencies
	case DependencyDevelopment:
		return p.DevDependencies
	case DependencyPeer:
		return p.PeerDependencies
	case DependencyOptional:
		return p.OptionalDependencies
	}
	return nil
}

// AllDependencyNames returns sorted, deduplicated package names.
// Production and optional dependencies are always included.
func (p *PackageJSON) AllDependencyNames(includeDev, includePeer bool) []string {
	var names []string
	for _, depType := range AllDependencyTypes {
		if depType == DependencyDevelopment && !includeDev {
			continue
		}
		if depType == DependencyPeer && !includePeer {
			continue
		}
		for name := range p.DependenciesOf(depType) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// HasDependency reports whether the package is declared in any bucket
func (p *PackageJSON) HasDependency(name string) bool {
	for _, depType := range AllDependencyTypes {
		if _, ok := p.DependenciesOf(depType)[name]; ok {
			return true
		}
	}
	return false
}

// ExtractPackageName returns the package root of an import specifier:
// "@scope/name/sub" becomes "@scope/name" and "name/sub" becomes "name".
func ExtractPackageName(specifier string) string {
	if specifier == "" {
		return specifier
	}

	if strings.HasPrefix(specifier, "@") {
		first := strings.IndexByte(specifier, '/')
		if first < 0 {
			return specifier
		}
		second := strings.IndexByte(specifier[first+1:], '/')
		if second < 0 {
			return specifier
		}
		return specifier[:first+1+second]
	}

	if idx := strings.IndexByte(specifier, '/'); idx >= 0 {
		return specifier[:idx]
	}
	return specifier
}

// UnusedDependency is a declared package that no module imports
type UnusedDependency struct {
	Package string         `json:"package"`
	Version string         `json:"version"`
	DepType DependencyType `json:"dep_type"`
}

// TypeCoverage is the coverage of one dependency bucket
type TypeCoverage struct {
	Declared int `json:"declared"`
	Used     int `json:"used"`
	Unused   int `json:"unused"`
}

// Percentage returns the used share in percent; an empty bucket is fully covered
func (c TypeCoverage) Percentage() float64 {
	if c.Declared == 0 {
		return 100
	}
	return float64(c.Used) / float64(c.Declared) * 100
}

// DependencyCoverage summarizes how many declared packages are imported
type DependencyCoverage struct {
	TotalDeclared int                             `json:"total_declared"`
	TotalUsed     int                             `json:"total_used"`
	TotalUnused   int                             `json:"total_unused"`
	ByType        map[DependencyType]TypeCoverage `json:"by_type"`
}

// CoveragePercentage returns the overall used share in percent
func (c DependencyCoverage) CoveragePercentage() float64 {
	if c.TotalDeclared == 0 {
		return 100
	}
	return float64(c.TotalUsed) / float64(c.TotalDeclared) * 100
}
