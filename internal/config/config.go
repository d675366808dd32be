// Package config loads and saves the TOML configuration document spec.md
// §6 describes: server identity, embedding defaults, per-silo defaults, and
// the map of configured silos.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/siloindex/siloindex/internal/ignore"
)

// Duration wraps time.Duration so go-toml/v2 reads/writes it as a
// human-readable string ("2s") via encoding.TextMarshaler/TextUnmarshaler,
// rather than an opaque nanosecond integer.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// ServerConfig is the `server` TOML table.
type ServerConfig struct {
	Name string `toml:"name"`
}

// EmbeddingsConfig is the `embeddings` TOML table.
type EmbeddingsConfig struct {
	Model     string `toml:"model"`
	OllamaURL string `toml:"ollama_url"`
}

// DefaultsConfig is the `defaults` TOML table applied to any silo that
// does not override the corresponding field.
type DefaultsConfig struct {
	Debounce    Duration `toml:"debounce"`
	Extensions  []string `toml:"extensions"`
	Ignore      []string `toml:"ignore"`
	IgnoreFiles []string `toml:"ignore_files"`
}

// SiloConfig is one entry of the `silos.<name>` map.
type SiloConfig struct {
	Directories []string `toml:"directories"`
	DBPath      string   `toml:"db_path"`
	Extensions  []string `toml:"extensions,omitempty"`
	Ignore      []string `toml:"ignore,omitempty"`
	IgnoreFiles []string `toml:"ignore_files,omitempty"`
	Model       string   `toml:"model,omitempty"`
	Sleeping    bool     `toml:"sleeping,omitempty"`
	Description string   `toml:"description,omitempty"`
	Color       string   `toml:"color,omitempty"`
	Icon        string   `toml:"icon,omitempty"`
}

// Config is the full TOML document of spec.md §6.
type Config struct {
	Server     ServerConfig          `toml:"server"`
	Embeddings EmbeddingsConfig      `toml:"embeddings"`
	Defaults   DefaultsConfig        `toml:"defaults"`
	Silos      map[string]SiloConfig `toml:"silos"`
}

// DefaultConfig returns the document written for a fresh installation.
func DefaultConfig() *Config {
	return &Config{
		Server:     ServerConfig{Name: "siloindex"},
		Embeddings: EmbeddingsConfig{Model: "static-large", OllamaURL: "http://localhost:11434"},
		Defaults: DefaultsConfig{
			Debounce:    Duration(2 * time.Second),
			Extensions:  []string{".md", ".mdx", ".go", ".py", ".ts", ".tsx", ".js", ".jsx", ".rs", ".java", ".txt"},
			Ignore:      append([]string{}, ignore.DefaultDirPatterns...),
			IgnoreFiles: []string{".DS_Store"},
		},
		Silos: map[string]SiloConfig{},
	}
}

// GetUserConfigDir returns the directory holding the user configuration
// file, following the XDG Base Directory convention:
//   - $XDG_CONFIG_HOME/siloindex (if set)
//   - ~/.config/siloindex (default)
func GetUserConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "siloindex")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "siloindex")
	}
	return filepath.Join(home, ".config", "siloindex")
}

// GetUserConfigPath returns the path to the user configuration file.
func GetUserConfigPath() string {
	return filepath.Join(GetUserConfigDir(), "config.toml")
}

// GetUserDataDir returns the directory relative `db_path` entries resolve
// under (spec §6), following the XDG convention for data files:
//   - $XDG_DATA_HOME/siloindex (if set)
//   - ~/.local/share/siloindex (default)
func GetUserDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "siloindex")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".local", "share", "siloindex")
	}
	return filepath.Join(home, ".local", "share", "siloindex")
}

// UserConfigExists reports whether the user configuration file exists.
func UserConfigExists() bool {
	_, err := os.Stat(GetUserConfigPath())
	return err == nil
}

// Load reads and parses the TOML document at path, seeding every field
// DefaultConfig would set before the file's own values override them.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadUserConfig loads the user configuration file, or returns
// DefaultConfig if none exists yet.
func LoadUserConfig() (*Config, error) {
	if !UserConfigExists() {
		return DefaultConfig(), nil
	}
	return Load(GetUserConfigPath())
}

// Save writes c as TOML to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// ResolveDBPath returns name's configured db_path resolved to an absolute
// path: unchanged if already absolute, otherwise joined under
// GetUserDataDir (spec §6: "Relative db_path is resolved under the
// user-data directory").
func (c *Config) ResolveDBPath(name string) (string, error) {
	sc, ok := c.Silos[name]
	if !ok {
		return "", fmt.Errorf("config: silo %q not found", name)
	}
	if filepath.IsAbs(sc.DBPath) {
		return sc.DBPath, nil
	}
	return filepath.Join(GetUserDataDir(), sc.DBPath), nil
}

// Extensions returns name's effective extension whitelist: its own if set,
// otherwise the document's defaults.
func (c *Config) Extensions(name string) []string {
	if sc, ok := c.Silos[name]; ok && len(sc.Extensions) > 0 {
		return sc.Extensions
	}
	return c.Defaults.Extensions
}

// Ignore returns name's effective folder-ignore list: its own if set,
// otherwise the document's defaults.
func (c *Config) Ignore(name string) []string {
	if sc, ok := c.Silos[name]; ok && len(sc.Ignore) > 0 {
		return sc.Ignore
	}
	return c.Defaults.Ignore
}

// IgnoreFiles returns name's effective file-ignore list: its own if set,
// otherwise the document's defaults.
func (c *Config) IgnoreFiles(name string) []string {
	if sc, ok := c.Silos[name]; ok && len(sc.IgnoreFiles) > 0 {
		return sc.IgnoreFiles
	}
	return c.Defaults.IgnoreFiles
}

// Model returns name's effective embedding model: its own override if
// set, otherwise embeddings.model.
func (c *Config) Model(name string) string {
	if sc, ok := c.Silos[name]; ok && sc.Model != "" {
		return sc.Model
	}
	return c.Embeddings.Model
}

// Validate checks the document for the configuration errors spec §7 calls
// out as surfaced at silo-creation time: missing directories, duplicate
// names (map keys already exclude literal duplicates, so this checks
// structural validity instead), and at least one directory per silo.
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return fmt.Errorf("config: server.name is required")
	}
	for name, sc := range c.Silos {
		if len(sc.Directories) == 0 {
			return fmt.Errorf("config: silo %q: at least one directory required", name)
		}
		if sc.DBPath == "" {
			return fmt.Errorf("config: silo %q: db_path is required", name)
		}
	}
	return nil
}
