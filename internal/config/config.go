// Package config loads the .versync.yaml file describing the canonical
// manifest and every target file kept in sync with it.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/indaco/versync/internal/backup"
	"github.com/indaco/versync/internal/core"
	"github.com/indaco/versync/internal/lock"
	"github.com/indaco/versync/internal/semver"
)

const (
	// DefaultFile is the config file looked up in the working directory.
	DefaultFile = ".versync.yaml"

	// EnvManifest overrides the canonical manifest path.
	EnvManifest = "VERSYNC_MANIFEST"

	// DefaultManifest is the canonical manifest when none is configured.
	DefaultManifest = "pubspec.yaml"

	// ConfigFilePerm defines secure file permissions for config files (owner read/write only).
	ConfigFilePerm = core.PermOwnerRW
)

// TargetFile describes one file kept in sync with the canonical version.
type TargetFile struct {
	Name          string `yaml:"name"`
	Path          string `yaml:"path"`
	Kind          string `yaml:"kind"`
	Required      bool   `yaml:"required,omitempty"`
	Field         string `yaml:"field,omitempty"`
	Pattern       string `yaml:"pattern,omitempty"`
	Constant      string `yaml:"constant,omitempty"`
	BuildConstant string `yaml:"build_constant,omitempty"`
}

// Config is the main configuration structure for versync.
type Config struct {
	Manifest         string       `yaml:"manifest"`
	BackupDir        string       `yaml:"backup_dir,omitempty"`
	BackupRetention  int          `yaml:"backup_retention,omitempty"`
	LockTimeout      string       `yaml:"lock_timeout,omitempty"`
	Placeholder      string       `yaml:"placeholder,omitempty"`
	AuditPlaceholder *bool        `yaml:"audit_placeholder,omitempty"`
	VerifyChecksum   *bool        `yaml:"verify_checksum,omitempty"`
	Targets          []TargetFile `yaml:"targets,omitempty"`

	// Root is the directory relative target paths resolve against.
	Root string `yaml:"-"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{Targets: DefaultTargets()}
	cfg.applyDefaults()
	return cfg
}

// DefaultTargets is the target set of a Flutter app with a shared package.
func DefaultTargets() []TargetFile {
	return []TargetFile{
		{Name: "manifest", Path: DefaultManifest, Kind: "manifest", Required: true},
		{Name: "app-config", Path: "lib/config/app_config.dart", Kind: "constant", Constant: "appVersion", BuildConstant: "buildNumber"},
		{Name: "shared-version", Path: "packages/shared/lib/version.dart", Kind: "constant", Constant: "packageVersion"},
		{Name: "shared-manifest", Path: "packages/shared/pubspec.yaml", Kind: "field", Field: "version"},
		{Name: "build-info", Path: "assets/build_info.json", Kind: "json-metadata"},
		{Name: "readme-badge", Path: "README.md", Kind: "badge"},
		{Name: "package-json", Path: "package.json", Kind: "package-json"},
		{Name: "changelog", Path: "CHANGELOG.md", Kind: "changelog"},
	}
}

func (c *Config) applyDefaults() {
	if c.Manifest == "" {
		c.Manifest = DefaultManifest
	}
	if c.BackupRetention == 0 {
		c.BackupRetention = backup.DefaultRetention
	}
	if c.LockTimeout == "" {
		c.LockTimeout = lock.DefaultTimeout.String()
	}
	if c.Placeholder == "" {
		c.Placeholder = semver.DefaultPlaceholder
	}
	if c.AuditPlaceholder == nil {
		c.AuditPlaceholder = boolPtr(true)
	}
	if c.VerifyChecksum == nil {
		c.VerifyChecksum = boolPtr(true)
	}
	if c.Root == "" {
		c.Root = "."
	}
	if c.ManifestTarget() == nil {
		manifest := TargetFile{Name: "manifest", Path: c.Manifest, Kind: "manifest", Required: true}
		c.Targets = append([]TargetFile{manifest}, c.Targets...)
	}
}

// ManifestTarget returns the target describing the canonical manifest.
func (c *Config) ManifestTarget() *TargetFile {
	for i := range c.Targets {
		t := &c.Targets[i]
		if t.Kind == "manifest" && filepath.Clean(t.Path) == filepath.Clean(c.Manifest) {
			return t
		}
	}
	return nil
}

// Resolve returns p joined to Root unless it is absolute.
func (c *Config) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// SetManifest points the canonical manifest, and its target entry, at path.
func (c *Config) SetManifest(path string) {
	if t := c.ManifestTarget(); t != nil {
		t.Path = path
	}
	c.Manifest = path
}

// LockTimeoutDuration parses LockTimeout; an empty value is lock.DefaultTimeout.
func (c *Config) LockTimeoutDuration() (time.Duration, error) {
	if c.LockTimeout == "" {
		return lock.DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.LockTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid lock_timeout %q: %w", c.LockTimeout, err)
	}
	return d, nil
}

// ShouldAuditPlaceholder reports whether mutations scan for a leftover placeholder.
func (c *Config) ShouldAuditPlaceholder() bool {
	return c.AuditPlaceholder == nil || *c.AuditPlaceholder
}

// ShouldVerifyChecksum reports whether backups are checksum-verified.
func (c *Config) ShouldVerifyChecksum() bool {
	return c.VerifyChecksum == nil || *c.VerifyChecksum
}

func boolPtr(b bool) *bool { return &b }

// LoadConfigFn is a function variable for testability.
var LoadConfigFn = Load

// Load reads the config file at path (DefaultFile when empty). A missing
// file yields Default rooted at the file's directory. The manifest path
// can be overridden through EnvManifest. The result is validated and
// loading fails on any validation error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}

	cfg, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Root = filepath.Dir(path)
	cfg.applyDefaults()

	if envPath := os.Getenv(EnvManifest); envPath != "" {
		cleanPath := filepath.Clean(envPath)
		// Reject relative paths with traversal (use absolute paths instead)
		if strings.Contains(cleanPath, "..") {
			return nil, fmt.Errorf("invalid %s: path traversal not allowed, use absolute path instead", EnvManifest)
		}
		cfg.SetManifest(cleanPath)
	}

	results := NewValidator(core.NewOSFileSystem(), cfg).Validate(context.Background())
	if HasErrors(results) {
		return nil, validationError(path, results)
	}
	return cfg, nil
}

func decodeFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{Targets: DefaultTargets()}, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data), yaml.Strict())
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", path, err)
	}
	return &cfg, nil
}

func validationError(path string, results []ValidationResult) error {
	var msgs []string
	for _, r := range results {
		if !r.Passed && !r.Warning {
			msgs = append(msgs, fmt.Sprintf("%s: %s", r.Category, r.Message))
		}
	}
	return fmt.Errorf("invalid configuration %q: %s", path, strings.Join(msgs, "; "))
}

// Marshaler abstracts configuration encoding for testability.
type Marshaler interface {
	Marshal(v any) ([]byte, error)
}

// FileOpener abstracts file opening operations for testability.
type FileOpener interface {
	OpenFile(name string, flag int, perm os.FileMode) (*os.File, error)
}

// ConfigSaver handles configuration saving with injected dependencies.
type ConfigSaver struct {
	marshaler  Marshaler
	fileOpener FileOpener
}

type osFileOpener struct{}

func (osFileOpener) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, flag, perm)
}

type yamlMarshaler struct{}

func (yamlMarshaler) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

// NewConfigSaver creates a ConfigSaver with the given dependencies.
// If any dependency is nil, the production default is used.
func NewConfigSaver(marshaler Marshaler, opener FileOpener) *ConfigSaver {
	if marshaler == nil {
		marshaler = yamlMarshaler{}
	}
	if opener == nil {
		opener = osFileOpener{}
	}
	return &ConfigSaver{marshaler: marshaler, fileOpener: opener}
}

// SaveTo writes cfg to configFile.
func (s *ConfigSaver) SaveTo(cfg *Config, configFile string) error {
	data, err := s.marshaler.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config to %q: %w", configFile, err)
	}

	file, err := s.fileOpener.OpenFile(configFile, os.O_RDWR|os.O_CREATE|os.O_TRUNC, ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to open config file %q: %w", configFile, err)
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("failed to write config to %q: %w", configFile, err)
	}
	return nil
}

// SaveConfigFn writes cfg with the default saver.
var SaveConfigFn = func(cfg *Config, configFile string) error {
	return NewConfigSaver(nil, nil).SaveTo(cfg, configFile)
}
