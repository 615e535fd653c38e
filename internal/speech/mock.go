package speech

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrMockUnavailable is returned by a Mock with no func set.
var ErrMockUnavailable = errors.New("speech: mock has no behaviour configured")

// Mock implements Provider for testing.
// All methods can be customized via function fields.
type Mock struct {
	SynthesizeFunc func(ctx context.Context, text, voice string) (*AudioResult, error)
	TranscribeFunc func(ctx context.Context, audio []byte, filename, language string) (string, error)
	ChatFunc       func(ctx context.Context, messages []Message) (string, error)
	ListModelsFunc func(ctx context.Context) ([]string, error)

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Text   string
	Voice  string
	Time   time.Time
}

// NewMock creates a mock that returns fake MP3 bytes, echoes transcripts
// and replies to chats.
func NewMock() *Mock {
	return &Mock{
		SynthesizeFunc: func(ctx context.Context, text, voice string) (*AudioResult, error) {
			if voice == "" {
				voice = VoiceAlloy
			}
			return &AudioResult{
				Audio:     append([]byte("ID3"), []byte(text)...),
				Format:    FormatMP3,
				Voice:     voice,
				CharCount: len(text),
				LatencyMs: 1,
			}, nil
		},
		TranscribeFunc: func(ctx context.Context, audio []byte, filename, language string) (string, error) {
			return string(audio), nil
		},
		ChatFunc: func(ctx context.Context, messages []Message) (string, error) {
			if len(messages) == 0 {
				return "", nil
			}
			return "reply: " + messages[len(messages)-1].Content, nil
		},
		ListModelsFunc: func(ctx context.Context) ([]string, error) {
			return []string{"tts-1", "whisper-1", "gpt-3.5-turbo"}, nil
		},
	}
}

// Synthesize calls SynthesizeFunc and records the call.
func (m *Mock) Synthesize(ctx context.Context, text, voice string) (*AudioResult, error) {
	m.recordCall("Synthesize", text, voice)
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text, voice)
	}
	return nil, WrapError("mock", ErrMockUnavailable)
}

// Transcribe calls TranscribeFunc and records the call.
func (m *Mock) Transcribe(ctx context.Context, audio []byte, filename, language string) (string, error) {
	m.recordCall("Transcribe", filename, "")
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio, filename, language)
	}
	return "", WrapError("mock", ErrMockUnavailable)
}

// Chat calls ChatFunc and records the call.
func (m *Mock) Chat(ctx context.Context, messages []Message) (string, error) {
	text := ""
	if len(messages) > 0 {
		text = messages[len(messages)-1].Content
	}
	m.recordCall("Chat", text, "")
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, messages)
	}
	return "", WrapError("mock", ErrMockUnavailable)
}

// ListModels calls ListModelsFunc and records the call.
func (m *Mock) ListModels(ctx context.Context) ([]string, error) {
	m.recordCall("ListModels", "", "")
	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx)
	}
	return nil, nil
}

// Close records the call.
func (m *Mock) Close() error {
	m.recordCall("Close", "", "")
	return nil
}

func (m *Mock) recordCall(method, text, voice string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Method: method,
		Text:   text,
		Voice:  voice,
		Time:   time.Now(),
	})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// LastCall returns the most recent call, or nil if none.
func (m *Mock) LastCall() *MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	call := m.calls[len(m.calls)-1]
	return &call
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// WithError returns a mock whose every operation fails with err.
func WithError(err error) *Mock {
	return &Mock{
		SynthesizeFunc: func(ctx context.Context, text, voice string) (*AudioResult, error) {
			return nil, err
		},
		TranscribeFunc: func(ctx context.Context, audio []byte, filename, language string) (string, error) {
			return "", err
		},
		ChatFunc: func(ctx context.Context, messages []Message) (string, error) {
			return "", err
		},
		ListModelsFunc: func(ctx context.Context) ([]string, error) {
			return nil, err
		},
	}
}

var _ Provider = (*Mock)(nil)
