// Package speech wraps the OpenAI audio and chat endpoints used by the
// backend: text-to-speech, Whisper transcription and chat completions.
//
// Example usage:
//
//	client, err := speech.NewOpenAI(speech.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
//	if err != nil {
//	    // speech.ErrNoAPIKey when the key is missing
//	}
//	result, _ := client.Synthesize(ctx, "Hello", speech.VoiceAlloy)
//	// result.Audio holds MP3 bytes
package speech

import (
	"context"
	"strconv"
)

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Synthesize renders text with the given voice. An empty voice uses the
	// provider default.
	Synthesize(ctx context.Context, text, voice string) (*AudioResult, error)
}

// Transcriber converts recorded audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, language string) (string, error)
}

// Chatter produces assistant replies.
type Chatter interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Provider is the full set of remote speech operations.
type Provider interface {
	Synthesizer
	Transcriber
	Chatter
	ListModels(ctx context.Context) ([]string, error)
	Close() error
}

// AudioResult is a complete synthesis result.
type AudioResult struct {
	Audio     []byte
	Format    string
	Voice     string
	CharCount int
	LatencyMs int64
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAI voice options.
const (
	VoiceAlloy   = "alloy"
	VoiceEcho    = "echo"
	VoiceFable   = "fable"
	VoiceOnyx    = "onyx"
	VoiceNova    = "nova"
	VoiceShimmer = "shimmer"
)

// Voices lists the supported voices. The mobile client also refers to them
// by their index in this list.
var Voices = []string{VoiceAlloy, VoiceEcho, VoiceFable, VoiceOnyx, VoiceNova, VoiceShimmer}

// FormatMP3 is the only output format requested from the TTS endpoint.
const FormatMP3 = "mp3"

// ModelTTS is the default text-to-speech model.
const ModelTTS = "tts-1"

// ResolveVoice maps a requested voice to a supported one. Numeric strings
// index into Voices; anything unsupported falls back to alloy.
func ResolveVoice(v string) string {
	if i, err := strconv.Atoi(v); err == nil {
		if i >= 0 && i < len(Voices) {
			return Voices[i]
		}
		return VoiceAlloy
	}
	for _, known := range Voices {
		if v == known {
			return v
		}
	}
	return VoiceAlloy
}
