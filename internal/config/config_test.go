package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadProjectConfigDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	refitDir := filepath.Join(projectDir, ".refit")
	if err := os.MkdirAll(refitDir, 0755); err != nil {
		t.Fatal(err)
	}
	c := &Config{ProjectDir: projectDir, RefitProjectDir: refitDir, Project: defaultProjectConfig()}
	if err := c.loadProjectConfig(); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	dirs := c.OverlayDirs()
	if len(dirs) != 1 || dirs[0] != filepath.Join(refitDir, "overlays") {
		t.Fatalf("expected default overlay dir under .refit, got %v", dirs)
	}
	if c.Strict() {
		t.Fatalf("expected lenient default")
	}
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	refitDir := filepath.Join(projectDir, ".refit")
	if err := os.MkdirAll(refitDir, 0755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
flags:
  dark_mode: true
  compact: false
overlays:
  dirs:
    - overlays
    - extra-overlays
  strict: true
inspect:
  enabled: true
  host: 0.0.0.0
  port: 9000
`)
	if err := os.WriteFile(filepath.Join(refitDir, "config.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}
	c := &Config{ProjectDir: projectDir, RefitProjectDir: refitDir, Project: defaultProjectConfig()}
	if err := c.loadProjectConfig(); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	if !c.Flag("dark_mode") {
		t.Fatalf("expected dark_mode flag to be true")
	}
	if c.Flag("compact") {
		t.Fatalf("expected compact flag to be false")
	}
	if c.Flag("never-configured") {
		t.Fatalf("expected unknown flag to read false")
	}
	dirs := c.OverlayDirs()
	if len(dirs) != 2 {
		t.Fatalf("expected 2 overlay dirs, got %v", dirs)
	}
	for _, dir := range dirs {
		if !strings.HasPrefix(dir, refitDir) {
			t.Fatalf("expected overlay dir resolved under .refit, got %s", dir)
		}
	}
	if !c.Strict() {
		t.Fatalf("expected strict mode from config")
	}
	if c.Project.Inspect.Port != 9000 {
		t.Fatalf("wrong inspect port: %d", c.Project.Inspect.Port)
	}
}

func TestLoadProjectConfigValidation(t *testing.T) {
	projectDir := t.TempDir()
	refitDir := filepath.Join(projectDir, ".refit")
	if err := os.MkdirAll(refitDir, 0755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
inspect:
  port: 123456
`)
	if err := os.WriteFile(filepath.Join(refitDir, "config.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}
	c := &Config{ProjectDir: projectDir, RefitProjectDir: refitDir, Project: defaultProjectConfig()}
	if err := c.loadProjectConfig(); err == nil {
		t.Fatalf("expected validation error but got none")
	}
}

func TestInitRefitDirSeedsStarterFiles(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitRefitDir(projectDir); err != nil {
		t.Fatalf("InitRefitDir returned error: %v", err)
	}
	for _, rel := range []string{
		"config.yaml",
		filepath.Join("definitions", "sample-button.yaml"),
		filepath.Join("overlays", "sample-dark-button.yaml"),
		"journal",
		"state",
		"logs",
	} {
		if _, err := os.Stat(filepath.Join(projectDir, ".refit", rel)); err != nil {
			t.Fatalf("expected %s to exist: %v", rel, err)
		}
	}

	// A second init must not clobber user edits.
	configPath := filepath.Join(projectDir, ".refit", "config.yaml")
	if err := os.WriteFile(configPath, []byte("version: 1\nflags:\n  custom: true\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := InitRefitDir(projectDir); err != nil {
		t.Fatalf("second InitRefitDir returned error: %v", err)
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "custom: true") {
		t.Fatalf("expected existing config to survive re-init, got:\n%s", data)
	}
}

func TestFindProjectRoot(t *testing.T) {
	t.Setenv("REFIT_ROOT", "")
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".refit"), 0755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "src", "widgets")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	if got := FindProjectRoot(nested); got != root {
		t.Fatalf("expected upward search to find %s, got %s", root, got)
	}

	elsewhere := t.TempDir()
	t.Setenv("REFIT_ROOT", elsewhere)
	if got := FindProjectRoot(nested); got != filepath.Clean(elsewhere) {
		t.Fatalf("expected REFIT_ROOT to win, got %s", got)
	}
}

func TestSetFlagPersists(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitRefitDir(projectDir); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if err := c.SetFlag("dark_mode", true); err != nil {
		t.Fatalf("SetFlag returned error: %v", err)
	}

	reloaded, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig after save returned error: %v", err)
	}
	if !reloaded.Flag("dark_mode") {
		t.Fatalf("expected persisted flag to survive reload")
	}

	if err := c.SetFlag("   ", true); err == nil {
		t.Fatalf("expected error for blank flag name")
	}
}
