package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"mathviz/internal/animation"
	"mathviz/internal/logging"
	"mathviz/pkg/fileops"
)

const APP_NAME = "mathviz" // application name used for config and data directories

// EnvConfigPath selects an explicit config file.
const EnvConfigPath = "MATHVIZ_CONFIG"

// ErrNoConfig is returned by Load when no config file exists yet.
var ErrNoConfig = errors.New("no configuration found, run 'mathviz config init'")

// Config holds user configuration for mathviz.
type Config struct {
	// MirrorRoot is the directory the storage mirror is confined to.
	MirrorRoot     string   `yaml:"mirror_root"`
	AllowedPaths   []string `yaml:"allowed_paths"`
	ForbiddenPaths []string `yaml:"forbidden_paths"`
	// OutputDir is where scene scripts are saved, relative to MirrorRoot.
	OutputDir string        `yaml:"output_dir"`
	Render    RenderConfig  `yaml:"render"`
	Notes     NotesConfig   `yaml:"notes"`
	Archive   ArchiveConfig `yaml:"archive"`
	Version   string        `yaml:"version"`   // Track config version
	InitTime  int64         `yaml:"init_time"` // Unix timestamp of first setup
}

type RenderConfig struct {
	Command string `yaml:"command"`
	// QualityOverride replaces the quality parsed from the description when set.
	QualityOverride string        `yaml:"quality_override,omitempty"`
	Timeout         time.Duration `yaml:"timeout"`
}

type NotesConfig struct {
	// VaultDir is the knowledge vault, relative to MirrorRoot.
	VaultDir string `yaml:"vault_dir"`
}

type ArchiveConfig struct {
	Path      string `yaml:"path"`
	RemoteURL string `yaml:"remote_url,omitempty"`
	Branch    string `yaml:"branch"`
}

// ConfigPath returns the config file location: MATHVIZ_CONFIG when set, otherwise
// config.yaml under the XDG config home.
func ConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return fileops.ExpandPath(p)
	}
	configPath := filepath.Join(xdg.ConfigHome, APP_NAME, "config.yaml")
	logging.Debug("Determined config path", "path", configPath)
	return configPath
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	dataDir := filepath.Join(xdg.DataHome, APP_NAME)
	return Config{
		MirrorRoot:     filepath.Join(dataDir, "mirror"),
		AllowedPaths:   []string{"Media", "MathematicalResearch", "00_MCP_INBOX", "00_MCP_ARCHIVE"},
		ForbiddenPaths: []string{"01_Totem_Networks", ".ssh", ".env", "Library/Keychains"},
		OutputDir:      "Media/Manim",
		Render: RenderConfig{
			Command: "manim",
			Timeout: 10 * time.Minute,
		},
		Notes:   NotesConfig{VaultDir: "MathematicalResearch/Vault"},
		Archive: ArchiveConfig{Path: filepath.Join(dataDir, "archive"), Branch: "main"},
		Version: "1.0",
	}
}

// Load loads the config from ConfigPath. A missing file is ErrNoConfig.
func Load() (*Config, error) {
	path := ConfigPath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoConfig
	}
	return LoadFrom(path)
}

// LoadOrDefault loads the config, falling back to DefaultConfig when none exists.
func LoadOrDefault() (*Config, error) {
	cfg, err := Load()
	if errors.Is(err, ErrNoConfig) {
		logging.Debug("No config file, using defaults")
		def := DefaultConfig()
		return &def, nil
	}
	return cfg, err
}

// LoadFrom loads config from a specific path. Fields missing from the file keep
// their default values.
func LoadFrom(path string) (*Config, error) {
	logging.Debug("Reading config file", "path", path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks that relative settings stay relative and enums are known.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.MirrorRoot) == "" {
		return fmt.Errorf("mirror_root cannot be empty")
	}
	if _, err := fileops.CleanRelative(c.OutputDir); err != nil {
		return fmt.Errorf("output_dir: %w", err)
	}
	if _, err := fileops.CleanRelative(c.Notes.VaultDir); err != nil {
		return fmt.Errorf("notes.vault_dir: %w", err)
	}
	for _, p := range c.AllowedPaths {
		if _, err := fileops.CleanRelative(p); err != nil {
			return fmt.Errorf("allowed_paths %q: %w", p, err)
		}
	}
	if c.Render.QualityOverride != "" {
		if _, err := animation.ParseQuality(c.Render.QualityOverride); err != nil {
			return fmt.Errorf("render.quality_override: %w", err)
		}
	}
	if c.Render.Timeout < 0 {
		return fmt.Errorf("render.timeout cannot be negative")
	}
	return nil
}

// Save writes the config to ConfigPath.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the config to a specific path
func (c *Config) SaveTo(path string) error {
	// Set init time if this is the first save
	if c.InitTime == 0 {
		c.InitTime = time.Now().Unix()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create file with restrictive permissions (600) for security
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	logging.Info("Configuration saved", "path", path)
	return nil
}

// Quality returns the configured override, or requested when none is set.
func (c *Config) Quality(requested animation.Quality) animation.Quality {
	if q, err := animation.ParseQuality(c.Render.QualityOverride); err == nil {
		return q
	}
	return requested
}
