package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/speakle/speakle/internal/httpc"
)

const providerOpenAI = "openai"

// OpenAI implements Provider against the OpenAI REST API.
type OpenAI struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewOpenAI creates a new OpenAI client.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Voice == "" {
		cfg.Voice = VoiceAlloy
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &OpenAI{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "speech.openai"),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// Synthesize converts text to MP3 audio.
func (o *OpenAI) Synthesize(ctx context.Context, text, voice string) (*AudioResult, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	if voice == "" {
		voice = o.config.Voice
	}
	start := time.Now()

	payload := map[string]interface{}{
		"model":           o.config.TTSModel,
		"voice":           voice,
		"input":           text,
		"response_format": FormatMP3,
	}

	resp, err := o.postJSON(ctx, "/audio/speech", payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, o.parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("read response: %w", err))
	}
	latency := time.Since(start).Milliseconds()

	o.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", voice,
	)

	return &AudioResult{
		Audio:     audio,
		Format:    FormatMP3,
		Voice:     voice,
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Transcribe sends audio to Whisper and returns the recognised text.
func (o *OpenAI) Transcribe(ctx context.Context, audio []byte, filename, language string) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}
	if filename == "" {
		filename = "audio.m4a"
	}
	if language == "" {
		language = "en"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", WrapError(providerOpenAI, fmt.Errorf("create form file: %w", err))
	}
	if _, err := fw.Write(audio); err != nil {
		return "", WrapError(providerOpenAI, fmt.Errorf("write audio: %w", err))
	}
	_ = mw.WriteField("model", o.config.STTModel)
	_ = mw.WriteField("language", language)
	if err := mw.Close(); err != nil {
		return "", WrapError(providerOpenAI, fmt.Errorf("close multipart: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", WrapError(providerOpenAI, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+o.config.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := o.client.Do(req)
	if err != nil {
		return "", WrapError(providerOpenAI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", o.parseError(resp)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", WrapError(providerOpenAI, fmt.Errorf("decode response: %w", err))
	}

	o.logger.Debug("transcribed audio", "bytes", len(audio), "language", language, "chars", len(out.Text))
	return out.Text, nil
}

// Chat sends the conversation to the chat completions endpoint. The
// configured system prompt is prepended when set.
func (o *OpenAI) Chat(ctx context.Context, messages []Message) (string, error) {
	all := make([]Message, 0, len(messages)+1)
	if o.config.SystemPrompt != "" {
		all = append(all, Message{Role: RoleSystem, Content: o.config.SystemPrompt})
	}
	all = append(all, messages...)

	payload := map[string]interface{}{
		"model":    o.config.ChatModel,
		"messages": all,
	}
	if o.config.MaxTokens > 0 {
		payload["max_tokens"] = o.config.MaxTokens
	}

	resp, err := o.postJSON(ctx, "/chat/completions", payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", o.parseError(resp)
	}

	var out struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", WrapError(providerOpenAI, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Choices) == 0 {
		return "", WrapError(providerOpenAI, ErrNoChoices)
	}
	return out.Choices[0].Message.Content, nil
}

// ListModels returns the IDs of the models visible to the API key. It
// doubles as the connectivity and key check.
func (o *OpenAI) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/models", nil)
	if err != nil {
		return nil, WrapError(providerOpenAI, err)
	}
	req.Header.Set("Authorization", "Bearer "+o.config.APIKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("list models: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, o.parseError(resp)
	}

	var out struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("decode models: %w", err))
	}
	ids := make([]string, 0, len(out.Data))
	for _, m := range out.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// Close releases resources.
func (o *OpenAI) Close() error {
	o.client.CloseIdleConnections()
	return nil
}

// Voice returns the configured default voice.
func (o *OpenAI) Voice() string {
	return o.config.Voice
}

func (o *OpenAI) postJSON(ctx context.Context, path string, payload interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+o.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, WrapError(providerOpenAI, err)
	}
	return resp, nil
}

// parseError reads and parses an error response.
func (o *OpenAI) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	message := string(body)
	code := ""
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
		code = errResp.Error.Code
	}

	o.logger.Warn("api error", "status", resp.StatusCode, "code", code)

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Code:       code,
		Provider:   providerOpenAI,
	}
}

var _ Provider = (*OpenAI)(nil)
