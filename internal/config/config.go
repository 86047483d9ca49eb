// Package config loads the YAML configuration file and applies environment
// overrides.
package config

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/integrand/internal/dispatch"
	"github.com/njchilds90/integrand/internal/narrate"
	"github.com/njchilds90/integrand/internal/ocr"
	"github.com/njchilds90/integrand/internal/speech"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderNone   = "none"

	DefaultAddr        = ":8080"
	DefaultConcurrency = 4
)

// Environment variables read by ApplyEnv.
const (
	EnvConfig   = "INTEGRAND_CONFIG"
	EnvAddr     = "INTEGRAND_ADDR"
	EnvLogLevel = "INTEGRAND_LOG_LEVEL"
	EnvOpenAI   = "OPENAI_API_KEY"
	EnvGemini   = "GEMINI_API_KEY"
)

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Grid      GridConfig      `yaml:"grid"`
	OCR       OCRConfig       `yaml:"ocr"`
	Speech    SpeechConfig    `yaml:"speech"`
	Narration NarrationConfig `yaml:"narration"`
	Batch     BatchConfig     `yaml:"batch"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty *bool  `yaml:"pretty"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type GridConfig struct {
	Points int        `yaml:"points"`
	Window [2]float64 `yaml:"window"`
}

type OCRConfig struct {
	Provider string       `yaml:"provider"`
	MaxSide  uint         `yaml:"max_side"`
	OpenAI   OpenAIConfig `yaml:"openai"`
	Gemini   GeminiConfig `yaml:"gemini"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type SpeechConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Model   string   `yaml:"model"`
}

type NarrationConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Command string `yaml:"command"`
	Rate    int    `yaml:"rate"`
}

type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// Load reads path, or the file named by INTEGRAND_CONFIG when path is
// empty, then applies environment overrides and defaults. With no file at
// all the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if cfg, err = Parse(data); err != nil {
			return nil, errors.Wrapf(err, "config %s", path)
		}
	}
	cfg.ApplyEnv(os.Getenv)
	cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "parse config")
	}
	return &cfg, nil
}

// ApplyEnv overrides file values with non-empty environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Server.Addr, EnvAddr)
	set(&c.Log.Level, EnvLogLevel)
	set(&c.OCR.OpenAI.APIKey, EnvOpenAI)
	set(&c.OCR.Gemini.APIKey, EnvGemini)
}

func (c *Config) WithDefaults() *Config {
	if c.Log.Level == "" {
		c.Log.Level = zerolog.InfoLevel.String()
	}
	if c.Log.Pretty == nil {
		c.Log.Pretty = ptr(true)
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Grid.Points == 0 {
		c.Grid.Points = dispatch.DefaultGridPoints
	}
	if c.Grid.Window == [2]float64{} {
		c.Grid.Window = dispatch.DefaultWindow
	}
	if c.OCR.Provider == "" {
		switch {
		case c.OCR.OpenAI.APIKey != "":
			c.OCR.Provider = ProviderOpenAI
		case c.OCR.Gemini.APIKey != "":
			c.OCR.Provider = ProviderGemini
		default:
			c.OCR.Provider = ProviderNone
		}
	}
	if c.OCR.MaxSide == 0 {
		c.OCR.MaxSide = ocr.DefaultMaxSide
	}
	if c.Narration.Enabled == nil {
		c.Narration.Enabled = ptr(false)
	}
	if c.Narration.Rate == 0 {
		c.Narration.Rate = narrate.DefaultRate
	}
	if c.Batch.Concurrency == 0 {
		c.Batch.Concurrency = DefaultConcurrency
	}
	return c
}

func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrapf(err, "log.level %q", c.Log.Level)
	}
	if c.Grid.Points < 2 {
		return errors.Errorf("grid.points must be at least 2, got %d", c.Grid.Points)
	}
	if c.Grid.Window[0] >= c.Grid.Window[1] {
		return errors.Errorf("grid.window %v must be increasing", c.Grid.Window)
	}
	switch c.OCR.Provider {
	case ProviderOpenAI:
		if c.OCR.OpenAI.APIKey == "" {
			return errors.Errorf("ocr.provider %s needs %s or ocr.openai.api_key", ProviderOpenAI, EnvOpenAI)
		}
	case ProviderGemini:
		if c.OCR.Gemini.APIKey == "" {
			return errors.Errorf("ocr.provider %s needs %s or ocr.gemini.api_key", ProviderGemini, EnvGemini)
		}
	case ProviderNone:
	default:
		return errors.Errorf("unknown ocr.provider %q", c.OCR.Provider)
	}
	if c.Narration.Rate < 0 {
		return errors.Errorf("narration.rate must be positive, got %d", c.Narration.Rate)
	}
	if c.Batch.Concurrency < 1 {
		return errors.Errorf("batch.concurrency must be at least 1, got %d", c.Batch.Concurrency)
	}
	return nil
}

// Logger builds the root logger described by the log section.
func (c *Config) Logger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if c.Log.Pretty == nil || *c.Log.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// Dispatcher returns a dispatcher using the grid section.
func (c *Config) Dispatcher() *dispatch.Dispatcher {
	return &dispatch.Dispatcher{GridPoints: c.Grid.Points, Window: c.Grid.Window}
}

// Extractor builds the configured OCR engine, or nil for ProviderNone.
func (c *Config) Extractor() ocr.Extractor {
	switch c.OCR.Provider {
	case ProviderOpenAI:
		return ocr.NewOpenAI(c.OCR.OpenAI.APIKey, c.OCR.OpenAI.BaseURL, c.OCR.OpenAI.Model)
	case ProviderGemini:
		return ocr.NewGemini(c.OCR.Gemini.APIKey, c.OCR.Gemini.Model)
	}
	return nil
}

// Narrator returns the configured speech engine, or narrate.Silent.
func (c *Config) Narrator() narrate.Narrator {
	if c.Narration.Enabled == nil || !*c.Narration.Enabled {
		return narrate.Silent
	}
	return narrate.NewCommandNarrator(c.Narration.Command, c.Narration.Rate)
}

// Listener builds the voice capture flow. Transcription uses the OpenAI
// key.
func (c *Config) Listener() (*speech.Listener, error) {
	if c.OCR.OpenAI.APIKey == "" {
		return nil, errors.Errorf("voice input needs %s", EnvOpenAI)
	}
	return &speech.Listener{
		Recorder:    speech.NewCommandRecorder(c.Speech.Command, c.Speech.Args...),
		Transcriber: speech.NewWhisper(c.OCR.OpenAI.APIKey, c.OCR.OpenAI.BaseURL, c.Speech.Model),
	}, nil
}

func ptr[T any](v T) *T { return &v }
