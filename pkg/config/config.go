// Package config loads chatbox configuration from defaults, a TOML file,
// a .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/papercomputeco/chatbox/pkg/gemini"
	"github.com/papercomputeco/chatbox/pkg/llm"
)

// Environment variables. CHATBOX_API_KEY wins over GEMINI_API_KEY.
const (
	EnvAPIKey       = "CHATBOX_API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvModel        = "CHATBOX_MODEL"
	EnvBaseURL      = "CHATBOX_BASE_URL"
	EnvTimeout      = "CHATBOX_TIMEOUT"
	EnvDebug        = "CHATBOX_DEBUG"
	EnvLogFile      = "CHATBOX_LOG_FILE"
)

// ErrMissingAPIKey is returned by Validate when no API key was supplied.
var ErrMissingAPIKey = errors.New("no API key configured: set " + EnvAPIKey + " or " + EnvGeminiAPIKey)

// Duration is a time.Duration decoded from a Go duration string ("30s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the complete chatbox configuration.
type Config struct {
	APIKey  string   `toml:"api_key"`
	BaseURL string   `toml:"base_url"`
	Model   string   `toml:"model"`
	Timeout Duration `toml:"timeout"`

	Debug   bool   `toml:"debug"`
	LogFile string `toml:"log_file"`

	// Style is the glamour style for rendering answers ("dark", "light",
	// "notty", ...). Empty picks dark or light from the terminal background.
	Style string `toml:"style"`

	Generation llm.GenerationConfig `toml:"generation"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BaseURL: gemini.DefaultBaseURL,
		Model:   gemini.DefaultModel,
		Timeout: Duration{gemini.DefaultTimeout},
	}
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// Path of the TOML file. Empty means DefaultPath, which may be absent.
	Path string

	// EnvFile is a dotenv file loaded into the process environment before
	// environment overrides are read. Empty means ".env"; a missing file is ignored.
	EnvFile string

	// Getenv reads environment variables. Defaults to os.Getenv.
	Getenv func(string) string
}

// DefaultPath returns $XDG_CONFIG_HOME/chatbox/config.toml, falling back to
// ~/.config/chatbox/config.toml.
func DefaultPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not resolve home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "chatbox", "config.toml"), nil
}

// Load builds the configuration. It does not validate it.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not load %s: %w", envFile, err)
	}

	path, explicit := opts.Path, opts.Path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadFile(path, explicit); err != nil {
		return nil, err
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("could not read config file: %w", err)
	}

	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("could not parse config file %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys in config file %s: %s", path, strings.Join(keys, ", "))
	}

	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	switch {
	case getenv(EnvAPIKey) != "":
		c.APIKey = getenv(EnvAPIKey)
	case getenv(EnvGeminiAPIKey) != "":
		c.APIKey = getenv(EnvGeminiAPIKey)
	}

	if v := getenv(EnvModel); v != "" {
		c.Model = v
	}
	if v := getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := getenv(EnvLogFile); v != "" {
		c.LogFile = v
	}

	if v := getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTimeout, v, err)
		}
		c.Timeout = Duration{d}
	}

	if v := getenv(EnvDebug); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvDebug, v, err)
		}
		c.Debug = b
	}

	return nil
}

// Validate reports the first configuration problem.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}

	if c.Timeout.Duration <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}

	if c.Model == "" {
		return errors.New("model must not be empty")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base URL %q: want an http or https URL", c.BaseURL)
	}

	return nil
}

// Gemini returns the answer service client configuration.
func (c *Config) Gemini() gemini.Config {
	cfg := gemini.Config{
		BaseURL: c.BaseURL,
		Model:   c.Model,
		APIKey:  c.APIKey,
		Timeout: c.Timeout.Duration,
	}

	if !c.Generation.IsZero() {
		g := c.Generation
		cfg.Generation = &g
	}

	return cfg
}
