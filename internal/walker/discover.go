package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
	ignore "github.com/sabhiram/go-gitignore"
)

// alwaysSkippedDirs are never descended into
var alwaysSkippedDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
}

// DiscoverOptions controls which files are collected
type DiscoverOptions struct {
	IncludePatterns  []string
	ExcludePatterns  []string
	RespectGitignore bool
	FollowSymlinks   bool
	MaxFileSize      int64
}

// discoverer collects analyzable files below one root
type discoverer struct {
	root      string
	opts      DiscoverOptions
	gitignore *ignore.GitIgnore
	seen      map[string]struct{}
}

// Discover collects source files under the given paths.
// Files named explicitly are kept even when include patterns would not match them.
// The result is absolute, cleaned and sorted.
func Discover(paths []string, opts DiscoverOptions) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
		}
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}

		if !info.IsDir() {
			if IsSourceFile(abs) && !tooLarge(info, opts.MaxFileSize) {
				if _, dup := seen[abs]; !dup {
					seen[abs] = struct{}{}
					files = append(files, abs)
				}
			}
			continue
		}

		d := &discoverer{root: abs, opts: opts, seen: seen}
		if opts.RespectGitignore {
			if gi, err := ignore.CompileIgnoreFile(filepath.Join(abs, ".gitignore")); err == nil {
				d.gitignore = gi
			}
		}
		found, err := d.walk(abs)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	sort.Strings(files)
	return files, nil
}

func (d *discoverer) walk(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(d.root, path)
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if path == dir {
				return nil
			}
			if _, skip := alwaysSkippedDirs[entry.Name()]; skip {
				return filepath.SkipDir
			}
			if d.ignored(rel+"/") || d.excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.Type()&fs.ModeSymlink != 0 {
			if !d.opts.FollowSymlinks {
				return nil
			}
			target, err := filepath.EvalSymlinks(path)
			if err != nil {
				return nil
			}
			info, err := os.Stat(target)
			if err != nil || info.IsDir() {
				// symlinked directories are not traversed
				return nil
			}
		}

		if !IsSourceFile(path) || d.ignored(rel) || d.excluded(rel) || !d.included(rel) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		if tooLarge(info, d.opts.MaxFileSize) {
			return nil
		}

		if _, dup := d.seen[path]; dup {
			return nil
		}
		d.seen[path] = struct{}{}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	return files, nil
}

func (d *discoverer) ignored(rel string) bool {
	return d.gitignore != nil && d.gitignore.MatchesPath(rel)
}

func (d *discoverer) excluded(rel string) bool {
	return matchAny(d.opts.ExcludePatterns, rel)
}

func (d *discoverer) included(rel string) bool {
	if len(d.opts.IncludePatterns) == 0 {
		return true
	}
	return matchAny(d.opts.IncludePatterns, rel)
}

// matchAny reports whether a slash-separated relative path matches one of the globs.
// Patterns without a slash are matched against the base name.
func matchAny(patterns []string, rel string) bool {
	base := rel
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		base = rel[i+1:]
	}
	for _, pattern := range patterns {
		target := rel
		if !strings.Contains(pattern, "/") {
			target = base
		}
		if ok, err := doublestar.Match(pattern, target); err == nil && ok {
			return true
		}
	}
	return false
}

func tooLarge(info fs.FileInfo, max int64) bool {
	return max > 0 && info.Size() > max
}
