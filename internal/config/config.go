// Package config loads palmreader-mcp settings.
//
// Values come from three layers, later ones winning: built-in defaults, an
// optional YAML file, and environment variables. Secrets such as the Gemini
// API key are normally supplied through the environment only.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey   = "GEMINI_API_KEY"
	EnvModel    = "GEMINI_MODEL"
	EnvLogLevel = "PALMREADER_LOG_LEVEL"
	EnvCache    = "PALMREADER_CACHE"
	EnvFolder   = "PALMREADER_FOLDER"
	EnvUserAge  = "PALMREADER_USER_AGE"
)

// Config is the complete runtime configuration.
type Config struct {
	Gemini   GeminiConfig `yaml:"gemini"`
	Speech   SpeechConfig `yaml:"speech"`
	Cache    CacheConfig  `yaml:"cache"`
	Folder   string       `yaml:"folder"`
	UserAge  int          `yaml:"user_age"`
	LogLevel string       `yaml:"log_level"`
}

// GeminiConfig configures the text generator.
type GeminiConfig struct {
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SpeechConfig configures text-to-speech.
type SpeechConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	Language  string        `yaml:"language"`
	OutputDir string        `yaml:"output_dir"`
	Timeout   time.Duration `yaml:"timeout"`
}

// CacheConfig configures the reading cache. An empty Path disables it.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Gemini: GeminiConfig{
			Model:    "gemini-1.5-flash",
			Endpoint: "https://generativelanguage.googleapis.com/v1beta",
			Timeout:  60 * time.Second,
		},
		Speech: SpeechConfig{
			Endpoint: "https://translate.google.com/translate_tts",
			Language: "en",
			Timeout:  30 * time.Second,
		},
		Folder:   "001",
		UserAge:  20,
		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is not empty) and the process environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode overlays YAML data onto cfg. Unknown keys are rejected.
func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
// Empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvAPIKey); ok {
		c.Gemini.APIKey = v
	}
	if v, ok := get(EnvModel); ok {
		c.Gemini.Model = v
	}
	if v, ok := get(EnvLogLevel); ok {
		c.LogLevel = v
	}
	if v, ok := get(EnvCache); ok {
		c.Cache.Path = v
	}
	if v, ok := get(EnvFolder); ok {
		c.Folder = v
	}
	if v, ok := get(EnvUserAge); ok {
		age, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvUserAge, v, err)
		}
		c.UserAge = age
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Gemini.Model == "" {
		return errors.New("gemini.model must not be empty")
	}
	if c.Gemini.Timeout <= 0 {
		return fmt.Errorf("gemini.timeout must be positive, got %s", c.Gemini.Timeout)
	}
	if c.Speech.Timeout <= 0 {
		return fmt.Errorf("speech.timeout must be positive, got %s", c.Speech.Timeout)
	}
	if _, err := language.Parse(c.Speech.Language); err != nil {
		return fmt.Errorf("speech.language %q is not a language tag: %w", c.Speech.Language, err)
	}
	if c.UserAge < 1 || c.UserAge > 120 {
		return fmt.Errorf("user_age must be between 1 and 120, got %d", c.UserAge)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel (debug, info, warn, error).
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
