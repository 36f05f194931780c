package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ludo-technologies/jsgraph/internal/config"
)

func TestInitCommand_BasicConfigCreation(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "jsgraph.yaml")

	out, err := run(t, "init", "--config", configPath)
	if err != nil {
		t.Fatalf("init command failed: %v", err)
	}
	if !strings.Contains(out, "Created ") {
		t.Errorf("unexpected init output %q", out)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	expectedSections := []string{
		"storage:",
		"analysis:",
		"dependencies:",
		"framework:",
		"output:",
		"entry_points:",
	}
	for _, section := range expectedSections {
		if !strings.Contains(string(content), section) {
			t.Errorf("Config file missing expected section: %s", section)
		}
	}

	if _, err := config.LoadConfig(configPath); err != nil {
		t.Errorf("generated config does not load: %v", err)
	}
}

func TestInitCommand_ForceOverwrite(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "jsgraph.yaml")
	if err := os.WriteFile(configPath, []byte("existing: true\n"), 0o644); err != nil {
		t.Fatalf("Failed to create existing file: %v", err)
	}

	if _, err := run(t, "init", "--config", configPath); err == nil {
		t.Fatal("Expected error when file exists without --force")
	}

	if _, err := run(t, "init", "--config", configPath, "--force"); err != nil {
		t.Fatalf("init with --force failed: %v", err)
	}
	content, _ := os.ReadFile(configPath)
	if strings.Contains(string(content), "existing") {
		t.Error("File was not overwritten")
	}
}

func TestInitCommand_Minimal(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "jsgraph.yaml")

	if _, err := run(t, "init", "--config", configPath, "--minimal"); err != nil {
		t.Fatalf("init --minimal failed: %v", err)
	}
	content, _ := os.ReadFile(configPath)
	if string(content) != config.GetMinimalConfigTemplate() {
		t.Error("minimal init should write the minimal template")
	}
}

func TestInitCommand_ProjectAndStorage(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "jsgraph.yaml")

	if _, err := run(t, "init", "--config", configPath, "--project", "next", "--storage", "persistent"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.Storage.Backend != "persistent" {
		t.Errorf("Backend = %q, want persistent", cfg.Storage.Backend)
	}
	if len(cfg.Framework.Presets) != 2 || cfg.Framework.Presets[1] != "next" {
		t.Errorf("Presets = %v", cfg.Framework.Presets)
	}
}

func TestInitCommand_NoComments(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "jsgraph.yaml")

	if _, err := run(t, "init", "--config", configPath, "--no-comments", "--project", "vue"); err != nil {
		t.Fatalf("init --no-comments failed: %v", err)
	}
	content, _ := os.ReadFile(configPath)
	if strings.Contains(string(content), "#") {
		t.Error("--no-comments output should not contain comments")
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if len(cfg.Framework.Presets) != 1 || cfg.Framework.Presets[0] != "vue" {
		t.Errorf("Presets = %v", cfg.Framework.Presets)
	}
}

func TestInitCommand_InvalidInputs(t *testing.T) {
	dir := t.TempDir()

	if _, err := run(t, "init", "--config", filepath.Join(dir, "jsgraph.yaml"), "--project", "angular"); err == nil {
		t.Error("Expected error for an unknown project type")
	}
	if _, err := run(t, "init", "--config", filepath.Join(dir, "missing", "jsgraph.yaml")); err == nil {
		t.Error("Expected error when the parent directory does not exist")
	}
}
