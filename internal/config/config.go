// Package config loads the Speakle server configuration from an optional
// YAML file and applies environment overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultPort          = 5000
	DefaultLogLevel      = "info"
	DefaultWindowSize    = 5
	DefaultFlexThreshold = 1200
	DefaultMinVotes      = 3
	DefaultAggregateSize = 10
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultTTSModel      = "tts-1"
	DefaultVoice         = "alloy"
	DefaultSTTModel      = "whisper-1"
	DefaultChatModel     = "gpt-3.5-turbo"
	DefaultChatMaxTokens = 150
	DefaultSystemPrompt  = "You are a helpful assistant for Speakle Smart Glove users. Be concise and clear in your responses."
	DefaultDetectorURL   = "http://localhost:5001"
)

// Config is the complete server configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	Gesture  GestureConfig  `yaml:"gesture"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Detector DetectorConfig `yaml:"detector"`

	// Path is the file the config was read from, empty when none.
	Path string `yaml:"-"`
}

// HTTPConfig configures the listening socket.
type HTTPConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

// Addr returns the host:port listen address.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// StoreConfig configures the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// GestureConfig tunes the gesture pipeline.
type GestureConfig struct {
	WindowSize    int     `yaml:"window_size"`
	FlexThreshold float64 `yaml:"flex_threshold"`
	MinVotes      int     `yaml:"min_votes"`
	AggregateSize int     `yaml:"aggregate_size"`
}

// OpenAIConfig configures the speech and chat clients.
type OpenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	TTSModel       string `yaml:"tts_model"`
	Voice          string `yaml:"voice"`
	STTModel       string `yaml:"stt_model"`
	ChatModel      string `yaml:"chat_model"`
	ChatMaxTokens  int    `yaml:"chat_max_tokens"`
	SystemPrompt   string `yaml:"system_prompt"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (o OpenAIConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// DetectorConfig points at the external sensor-detection process.
type DetectorConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the notify timeout as a duration.
func (d DetectorConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// Default returns a Config populated with defaults only.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from path (if non-empty), fills in defaults and
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
		cfg.Path = path
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = DefaultPort
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Store.Path == "" {
		c.Store.Path = defaultStorePath()
	}

	g := &c.Gesture
	if g.WindowSize == 0 {
		g.WindowSize = DefaultWindowSize
	}
	if g.FlexThreshold == 0 {
		g.FlexThreshold = DefaultFlexThreshold
	}
	if g.MinVotes == 0 {
		g.MinVotes = DefaultMinVotes
	}
	if g.AggregateSize == 0 {
		g.AggregateSize = DefaultAggregateSize
	}

	o := &c.OpenAI
	if o.BaseURL == "" {
		o.BaseURL = DefaultOpenAIBaseURL
	}
	if o.TTSModel == "" {
		o.TTSModel = DefaultTTSModel
	}
	if o.Voice == "" {
		o.Voice = DefaultVoice
	}
	if o.STTModel == "" {
		o.STTModel = DefaultSTTModel
	}
	if o.ChatModel == "" {
		o.ChatModel = DefaultChatModel
	}
	if o.ChatMaxTokens == 0 {
		o.ChatMaxTokens = DefaultChatMaxTokens
	}
	if o.SystemPrompt == "" {
		o.SystemPrompt = DefaultSystemPrompt
	}
	if o.TimeoutSeconds == 0 {
		o.TimeoutSeconds = 30
	}

	if c.Detector.URL == "" {
		c.Detector.URL = DefaultDetectorURL
	}
	if c.Detector.TimeoutSeconds == 0 {
		c.Detector.TimeoutSeconds = 5
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HTTP.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("SPEAKLE_DB"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.OpenAI.BaseURL = v
	}
	if v := os.Getenv("FLASK_SERVER_URL"); v != "" {
		c.Detector.URL = v
	}
}

// Validate checks values that would make the pipeline meaningless.
func (c *Config) Validate() error {
	g := c.Gesture
	if g.WindowSize < 1 {
		return fmt.Errorf("gesture.window_size must be positive, got %d", g.WindowSize)
	}
	if g.AggregateSize < 1 {
		return fmt.Errorf("gesture.aggregate_size must be positive, got %d", g.AggregateSize)
	}
	if g.MinVotes < 1 || g.MinVotes > g.WindowSize {
		return fmt.Errorf("gesture.min_votes must be in [1, %d], got %d", g.WindowSize, g.MinVotes)
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.HTTP.Port)
	}
	return nil
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "speakle.db"
	}
	return filepath.Join(home, ".speakle", "speakle.db")
}
