// Package config provides unified configuration loading for snowball.
// It supports loading from YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DirName is the per-user configuration directory under the home dir.
const DirName = ".snowball"

var validate = validator.New()

// SnowballConfig contains all snowball configuration settings.
type SnowballConfig struct {
	// Content locates the course site and the keyword corpus.
	Content ContentConfig `json:"content" yaml:"content"`

	// Simulation contains the session defaults.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Canvas sets the graph drawing area.
	Canvas CanvasConfig `json:"canvas" yaml:"canvas"`

	// Server configures the local demo page.
	Server ServerConfig `json:"server" yaml:"server"`

	// Logging contains settings for operational and trace logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// ContentConfig configures where course content is read from.
type ContentConfig struct {
	// Base is a directory or http(s) URL holding versions/<id>/...
	// Supports ${VAR} syntax for env vars.
	Base string `json:"base" yaml:"base"`

	// DefaultVersion is used when the requested version is empty or unknown.
	DefaultVersion string `json:"default_version" yaml:"default_version" validate:"required"`

	// Versions lists the known versions. When empty, versions/config.json
	// under Base is consulted.
	Versions []string `json:"versions,omitempty" yaml:"versions,omitempty" validate:"dive,required"`

	// CorpusFile is the corpus location relative to the version root.
	CorpusFile string `json:"corpus_file" yaml:"corpus_file" validate:"required"`

	// Corpus overrides the content lookup with an explicit JSON file, URL
	// or SQLite corpus database (.db).
	Corpus string `json:"corpus,omitempty" yaml:"corpus,omitempty"`
}

// SimulationConfig configures new sessions.
type SimulationConfig struct {
	// Seeds are the keywords added to every new session.
	Seeds []string `json:"seeds" yaml:"seeds" validate:"dive,required"`

	// DiscoveryFactor scales each candidate's frequency into a draw probability.
	// Range: 0.0 to 1.0
	DiscoveryFactor float64 `json:"discovery_factor" yaml:"discovery_factor" validate:"gte=0,lte=1"`

	// AutoplayDelay is the pause between autoplay rounds.
	AutoplayDelay time.Duration `json:"autoplay_delay" yaml:"autoplay_delay"`

	// RandSeed makes runs reproducible. 0 seeds from the clock.
	RandSeed uint64 `json:"rand_seed,omitempty" yaml:"rand_seed,omitempty"`

	// MaxRounds bounds headless runs. 0 runs to closure.
	MaxRounds int `json:"max_rounds,omitempty" yaml:"max_rounds,omitempty" validate:"gte=0"`
}

// CanvasConfig sets the graph canvas size in pixels.
type CanvasConfig struct {
	Width  int `json:"width" yaml:"width" validate:"gte=0"`
	Height int `json:"height" yaml:"height" validate:"gte=0"`
}

// ServerConfig configures `snowball serve`.
type ServerConfig struct {
	// Addr is the listen address; port 0 picks a free port.
	Addr string `json:"addr" yaml:"addr" validate:"required"`

	// AllowedOrigins are the CORS origins allowed to call the API.
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`

	// OpenBrowser opens the page after the server starts.
	OpenBrowser bool `json:"open_browser" yaml:"open_browser"`
}

// LoggingConfig configures snowball's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables round tracing to <trace_dir>/rounds.jsonl.
	Level string `json:"level" yaml:"level" validate:"omitempty,oneof=info debug trace"`

	// TraceDir holds rounds.jsonl. Empty disables the trace file.
	TraceDir string `json:"trace_dir,omitempty" yaml:"trace_dir,omitempty"`
}

// Default returns a SnowballConfig with sensible defaults.
func Default() *SnowballConfig {
	return &SnowballConfig{
		Content: ContentConfig{
			Base:           ".",
			DefaultVersion: "Fall2025",
			CorpusFile:     "demos/snowball-sampling/data/sample-keywords.json",
		},
		Simulation: SimulationConfig{
			Seeds:           []string{"climate change", "global warming"},
			DiscoveryFactor: 0.7,
			AutoplayDelay:   time.Second,
		},
		Canvas: CanvasConfig{
			Width:  800,
			Height: 600,
		},
		Server: ServerConfig{
			Addr:        "localhost:0",
			OpenBrowser: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Path returns the default config file location, ~/.snowball/config.yaml.
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(homeDir, DirName, "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.snowball/config.yaml -> environment variables
func Load() (*SnowballConfig, error) {
	config := Default()

	if configPath, err := Path(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadPath loads path instead of the default file, then applies environment
// overrides. An empty path behaves like Load.
func LoadPath(path string) (*SnowballConfig, error) {
	if path == "" {
		return Load()
	}
	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(config)
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*SnowballConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Content.Base = expandEnvVars(config.Content.Base)
	config.Content.Corpus = expandEnvVars(config.Content.Corpus)
	config.Logging.TraceDir = expandEnvVars(config.Logging.TraceDir)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *SnowballConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.New(formatValidationError(err))
	}

	if c.Simulation.AutoplayDelay < 0 {
		return fmt.Errorf("autoplay_delay must be non-negative, got %v", c.Simulation.AutoplayDelay)
	}

	if len(c.Content.Versions) > 0 && !contains(c.Content.Versions, c.Content.DefaultVersion) {
		return fmt.Errorf("default_version %s is not one of versions %v", c.Content.DefaultVersion, c.Content.Versions)
	}

	return nil
}

// YAML renders the configuration as it would appear in config.yaml.
func (c *SnowballConfig) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *SnowballConfig) {
	if v := os.Getenv("SNOWBALL_CONTENT_BASE"); v != "" {
		config.Content.Base = v
	}

	if v := os.Getenv("SNOWBALL_VERSION"); v != "" {
		config.Content.DefaultVersion = v
	}

	if v := os.Getenv("SNOWBALL_CORPUS"); v != "" {
		config.Content.Corpus = v
	}

	if v := os.Getenv("SNOWBALL_SEEDS"); v != "" {
		var seeds []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				seeds = append(seeds, s)
			}
		}
		config.Simulation.Seeds = seeds
	}

	if v := os.Getenv("SNOWBALL_DISCOVERY_FACTOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Simulation.DiscoveryFactor = f
		}
	}

	if v := os.Getenv("SNOWBALL_AUTOPLAY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Simulation.AutoplayDelay = d
		}
	}

	if v := os.Getenv("SNOWBALL_RAND_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Simulation.RandSeed = n
		}
	}

	if v := os.Getenv("SNOWBALL_ADDR"); v != "" {
		config.Server.Addr = v
	}

	if v := os.Getenv("SNOWBALL_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("SNOWBALL_TRACE_DIR"); v != "" {
		config.Logging.TraceDir = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}

func formatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "gte", "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be %s %s, got %v", field, fe.Tag(), fe.Param(), fe.Value()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
