package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ludo-technologies/jsgraph/domain"
)

// FileHelper provides file operation utilities
type FileHelper struct {
	// Stdout receives output when no output file is given
	Stdout io.Writer
}

// NewFileHelper creates a new FileHelper writing to os.Stdout by default
func NewFileHelper() *FileHelper {
	return &FileHelper{Stdout: os.Stdout}
}

// ResolvePaths validates analysis paths and makes them absolute.
// An empty list means the current directory.
func (h *FileHelper) ResolvePaths(paths []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	resolved := make([]string, 0, len(paths))
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, domain.NewConfigError("paths", fmt.Sprintf("path does not exist: %s", path), err)
			}
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if !info.IsDir() && !h.IsSourceFile(abs) {
			return nil, domain.NewConfigError("paths",
				fmt.Sprintf("not a JavaScript/TypeScript file or directory: %s", path), nil)
		}
		resolved = append(resolved, abs)
	}
	return resolved, nil
}

// IsSourceFile checks if a file is JavaScript/TypeScript based on extension
func (h *FileHelper) IsSourceFile(path string) bool {
	return domain.SourceTypeFromPath(path).IsScript()
}

// FileExists checks if a regular file exists
func (h *FileHelper) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// WithOutput runs write against the configured destination: an explicit writer,
// a file (parent directories are created), or Stdout
func (h *FileHelper) WithOutput(out OutputOptions, write func(io.Writer) error) error {
	if out.Writer != nil {
		return write(out.Writer)
	}
	if out.Path == "" {
		stdout := h.Stdout
		if stdout == nil {
			stdout = os.Stdout
		}
		return write(stdout)
	}

	if dir := filepath.Dir(out.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	file, err := os.Create(out.Path)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", out.Path, err)
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", out.Path, err)
	}
	return nil
}
