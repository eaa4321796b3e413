// internal/config/config.go
//
// This package handles configuration and the .refit directory structure.
// Every project that uses refit gets a .refit/ folder created in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// RefitDir is the name of the directory we create in each project
	RefitDir = ".refit"
)

const defaultProjectConfigYAML = `# refit project configuration
version: 1

# Feature flags referenced by overlay "when.flag" clauses.
flags:
  dark_mode: false

# Overlay application settings. Directories are relative to .refit/ unless
# absolute. strict aborts the run on the first failed overlay instead of
# recording the failure and moving on.
overlays:
  dirs:
    - overlays
  strict: false

# Read-only inspection server used by "refit serve".
inspect:
  enabled: true
  host: 127.0.0.1
  port: 8601
`

const sampleDefinitionYAML = `id: sample-button
name: Sample Button
version: 1.0.0
description: Starter definition so "refit apply" has something to rework.
behaviors:
  color: "#3366cc"
  label: Press me
  elevated: false
`

const sampleOverlayYAML = `id: sample-dark-button
version: 1.0.0
target: sample-button
description: Starter overlay gated on the dark_mode flag.
when:
  flag: dark_mode
set:
  color: "#10131a"
  elevated: true
`

// OverlaySettings captures how overlay documents are discovered and applied.
type OverlaySettings struct {
	Dirs   []string `yaml:"dirs"`
	Strict bool     `yaml:"strict"`
}

// InspectSettings configures the read-only inspection server.
type InspectSettings struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Host    string `yaml:"host,omitempty"`
	Port    int    `yaml:"port,omitempty"`
}

// ProjectConfig models .refit/config.yaml.
type ProjectConfig struct {
	Version  int             `yaml:"version"`
	Flags    map[string]bool `yaml:"flags"`
	Overlays OverlaySettings `yaml:"overlays"`
	Inspect  InspectSettings `yaml:"inspect,omitempty"`
}

// Config holds the runtime configuration for refit.
type Config struct {
	// ProjectDir is the directory where the user ran `refit` from
	ProjectDir string

	// RefitProjectDir is ProjectDir/.refit
	RefitProjectDir string

	Project ProjectConfig
}

// InitRefitDir creates the .refit directory structure in the given project
// directory and seeds starter files so a fresh project has something to apply.
//
// Structure created:
// .refit/
// ├── definitions/  <- behavior definition documents (*.yaml)
// ├── overlays/     <- override documents (*.yaml, *.jsonc, *.go)
// ├── logs/         <- refit.log
// ├── journal/      <- append-only apply journal
// └── state/        <- last-apply run record
func InitRefitDir(projectDir string) error {
	refitDir := filepath.Join(projectDir, RefitDir)

	dirs := []string{
		filepath.Join(refitDir, "definitions"),
		filepath.Join(refitDir, "overlays"),
		filepath.Join(refitDir, "logs"),
		filepath.Join(refitDir, "journal"),
		filepath.Join(refitDir, "state"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	if err := ensureFile(filepath.Join(refitDir, "config.yaml"), defaultProjectConfigYAML); err != nil {
		return err
	}
	if err := ensureFile(filepath.Join(refitDir, "definitions", "sample-button.yaml"), sampleDefinitionYAML); err != nil {
		return err
	}
	return ensureFile(filepath.Join(refitDir, "overlays", "sample-dark-button.yaml"), sampleOverlayYAML)
}

// FindProjectRoot locates the directory whose .refit tree should be used.
// REFIT_ROOT wins when set. Otherwise we walk upward from start looking for
// an existing .refit directory and fall back to start itself.
func FindProjectRoot(start string) string {
	if root := strings.TrimSpace(os.Getenv("REFIT_ROOT")); root != "" {
		return filepath.Clean(root)
	}
	dir := filepath.Clean(start)
	for {
		if info, err := os.Stat(filepath.Join(dir, RefitDir)); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return filepath.Clean(start)
		}
		dir = parent
	}
}

// NewConfig creates a new Config instance populated with project settings.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:      projectDir,
		RefitProjectDir: filepath.Join(projectDir, RefitDir),
		Project:         defaultProjectConfig(),
	}

	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefinitionsDir returns the directory that holds definition documents
func (c *Config) DefinitionsDir() string {
	return filepath.Join(c.RefitProjectDir, "definitions")
}

// OverlayDirs returns the configured overlay directories resolved against
// the .refit directory. Absolute entries are kept as written.
func (c *Config) OverlayDirs() []string {
	dirs := make([]string, 0, len(c.Project.Overlays.Dirs))
	for _, dir := range c.Project.Overlays.Dirs {
		if filepath.IsAbs(dir) {
			dirs = append(dirs, filepath.Clean(dir))
			continue
		}
		dirs = append(dirs, filepath.Join(c.RefitProjectDir, dir))
	}
	return dirs
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.RefitProjectDir, "logs")
}

// JournalPath returns the path to the append-only apply journal
func (c *Config) JournalPath() string {
	return filepath.Join(c.RefitProjectDir, "journal", "journal.jsonl")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.RefitProjectDir, "state")
}

// LastApplyPath returns the path to the persisted record of the last apply run
func (c *Config) LastApplyPath() string {
	return filepath.Join(c.StateDir(), "last-apply.json")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.RefitProjectDir, "config.yaml")
}

// Flag reports the value of a feature flag. Unknown flags are false.
func (c *Config) Flag(name string) bool {
	if c == nil {
		return false
	}
	return c.Project.Flags[strings.TrimSpace(name)]
}

// FlagNames returns the configured flag names in sorted order.
func (c *Config) FlagNames() []string {
	names := make([]string, 0, len(c.Project.Flags))
	for name := range c.Project.Flags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetFlag updates a feature flag and persists the value back to
// .refit/config.yaml so later runs observe it.
func (c *Config) SetFlag(name string, value bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("config: flag name is required")
	}
	if c.Project.Flags == nil {
		c.Project.Flags = map[string]bool{}
	}
	c.Project.Flags[name] = value
	return c.saveProjectConfig()
}

// Strict reports whether overlay application aborts on the first failure.
func (c *Config) Strict() bool {
	return c != nil && c.Project.Overlays.Strict
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Flags:   map[string]bool{},
		Overlays: OverlaySettings{
			Dirs: []string{"overlays"},
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Flags == nil {
		pc.Flags = map[string]bool{}
	}
	if len(pc.Overlays.Dirs) == 0 {
		pc.Overlays.Dirs = []string{"overlays"}
	}
}

func (pc *ProjectConfig) normalize() {
	flags := make(map[string]bool, len(pc.Flags))
	for name, value := range pc.Flags {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		flags[trimmed] = value
	}
	pc.Flags = flags

	dirs := pc.Overlays.Dirs[:0]
	for _, dir := range pc.Overlays.Dirs {
		trimmed := strings.TrimSpace(dir)
		if trimmed == "" {
			continue
		}
		dirs = append(dirs, trimmed)
	}
	pc.Overlays.Dirs = dirs

	pc.Inspect.Host = strings.TrimSpace(pc.Inspect.Host)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if len(pc.Overlays.Dirs) == 0 {
		return fmt.Errorf("overlays.dirs must name at least one directory")
	}
	if pc.Inspect.Port < 0 || pc.Inspect.Port > 65535 {
		return fmt.Errorf("inspect.port %d is out of range", pc.Inspect.Port)
	}
	return nil
}

func ensureFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.RefitProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure refit dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
