package speech

import (
	"log/slog"
	"time"
)

// Config holds client configuration. Use the WithXxx options to set it.
type Config struct {
	APIKey  string
	BaseURL string

	TTSModel     string
	Voice        string
	STTModel     string
	ChatModel    string
	MaxTokens    int
	SystemPrompt string

	Timeout time.Duration
	Logger  *slog.Logger
}

// Option configures a client.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL overrides the API base URL (up to and including /v1).
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithTTSModel sets the speech model.
func WithTTSModel(model string) Option {
	return func(c *Config) { c.TTSModel = model }
}

// WithVoice sets the default voice.
func WithVoice(voice string) Option {
	return func(c *Config) { c.Voice = voice }
}

// WithSTTModel sets the transcription model.
func WithSTTModel(model string) Option {
	return func(c *Config) { c.STTModel = model }
}

// WithChatModel sets the chat model and reply token limit.
func WithChatModel(model string, maxTokens int) Option {
	return func(c *Config) {
		c.ChatModel = model
		c.MaxTokens = maxTokens
	}
}

// WithSystemPrompt sets the system prompt prepended to chats.
func WithSystemPrompt(prompt string) Option {
	return func(c *Config) { c.SystemPrompt = prompt }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns the defaults used by the mobile backend.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   "https://api.openai.com/v1",
		TTSModel:  ModelTTS,
		Voice:     VoiceAlloy,
		STTModel:  "whisper-1",
		ChatModel: "gpt-3.5-turbo",
		MaxTokens: 150,
		Timeout:   30 * time.Second,
		Logger:    slog.Default(),
	}
}

// Apply applies options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}
