// Package config handles peoplegraph configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is read from ~/.config/peoplegraph/config.yml.
type Config struct {
	DataPath   string `yaml:"data_path"`   // File path or http(s) URL of the graph document
	DBPath     string `yaml:"db_path"`     // SQLite query cache
	ListenAddr string `yaml:"listen_addr"` // serve address

	ImageBaseURL         string `yaml:"image_base_url"`
	AvatarTransform      string `yaml:"avatar_transform"`
	PlaceholderTransform string `yaml:"placeholder_transform"`

	PinnedNode     string `yaml:"pinned_node"` // Node whose selection is ignored
	Title          string `yaml:"title"`
	Description    string `yaml:"description"`
	SocialImageURL string `yaml:"social_image_url"`
	SiteName       string `yaml:"site_name"`

	AvatarRateLimit   float64       `yaml:"avatar_rate_limit"` // Requests per second
	AvatarConcurrency int           `yaml:"avatar_concurrency"`
	AvatarTimeout     time.Duration `yaml:"avatar_timeout"`

	LogLevel string `yaml:"log_level"`
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "peoplegraph"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
)

// Environment variables that override the config file.
const (
	EnvDataPath  = "PEOPLEGRAPH_DATA"
	EnvListen    = "PEOPLEGRAPH_LISTEN"
	EnvImageBase = "PEOPLEGRAPH_IMAGE_BASE"
	EnvLogLevel  = "PEOPLEGRAPH_LOG_LEVEL"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataPath:             "static/data.json",
		DBPath:               filepath.Join(os.TempDir(), "peoplegraph.db"),
		ListenAddr:           ":8080",
		ImageBaseURL:         "https://assets.dexa.ai/image/upload",
		AvatarTransform:      "e_grayscale,w_256,h_256,c_thumb,g_face,r_max,f_auto",
		PlaceholderTransform: "r_max,w_256,h_256,c_thumb",
		PinnedNode:           "andrew huberman",
		Title:                "Dexa Labs: Huberman Lab Knowledge Graph",
		Description:          "Every person mentioned on a Huberman Lab episode.",
		SocialImageURL:       "https://huberman-kg.labs.dexa.ai/static/huberman-kg.png",
		SiteName:             "Dexa Labs",
		AvatarRateLimit:      20,
		AvatarConcurrency:    8,
		AvatarTimeout:        10 * time.Second,
		LogLevel:             "info",
	}
}

// configCache caches the loaded config.
var configCache *Config

// Path returns the path to the config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/peoplegraph/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads the config at path, or at Path() when path is empty.
// A missing file yields the defaults. Values from a .env file in the working
// directory and from the environment override the file.
func Load(path string) (*Config, error) {
	if configCache != nil {
		return configCache, nil
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	// Missing .env is fine
	_ = godotenv.Load()
	cfg.applyEnv()

	cfg.DataPath = ExpandTilde(cfg.DataPath)
	cfg.DBPath = ExpandTilde(cfg.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configCache = cfg
	return cfg, nil
}

// LoadFile reads only the config file at path (or Path() when empty) over
// the defaults. Environment overrides are not applied and nothing is cached
// or validated; this is the view to edit and save back.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// ResetCache clears the cached config.
// Useful for testing.
func ResetCache() {
	configCache = nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDataPath); v != "" {
		c.DataPath = v
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv(EnvImageBase); v != "" {
		c.ImageBaseURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validation errors.
var (
	ErrNoDataPath     = errors.New("data_path is required")
	ErrNoListenAddr   = errors.New("listen_addr is required")
	ErrBadRateLimit   = errors.New("avatar_rate_limit must be positive")
	ErrBadConcurrency = errors.New("avatar_concurrency must be at least 1")
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.DataPath == "" {
		return ErrNoDataPath
	}
	if c.ListenAddr == "" {
		return ErrNoListenAddr
	}
	if c.AvatarRateLimit <= 0 {
		return ErrBadRateLimit
	}
	if c.AvatarConcurrency < 1 {
		return ErrBadConcurrency
	}
	return nil
}

// AvatarURL returns the image URL for a secondary image key.
func (c *Config) AvatarURL(sid string) string {
	return joinURL(c.ImageBaseURL, c.AvatarTransform, "entities/people", sid)
}

// PlaceholderURL returns the shared person placeholder image URL.
func (c *Config) PlaceholderURL() string {
	return joinURL(c.ImageBaseURL, c.PlaceholderTransform, "entities/placeholders/person.png")
}

func joinURL(parts ...string) string {
	var kept []string
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

// ExpandTilde expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandTilde(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}

// Save writes the config as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
