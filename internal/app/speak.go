package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/speakle/speakle/internal/gesture"
	"github.com/speakle/speakle/internal/speech"
	"github.com/speakle/speakle/internal/store"
)

// Phrases spoken for each gesture. Other labels are spoken by name.
var phrases = map[gesture.Label]string{
	gesture.LabelHello:    "Hello",
	gesture.LabelMyNameIs: "My name is",
	gesture.LabelBye:      "Goodbye",
}

// PhraseFor returns the text spoken for a gesture.
func PhraseFor(l gesture.Label) string {
	if p, ok := phrases[l]; ok {
		return p
	}
	return l.Name()
}

// SpeakResult is the outcome of a speak request. Audio is nil when Speak
// is false.
type SpeakResult struct {
	Speak   bool
	Gesture string
	Text    string
	Audio   []byte
	Format  string
	Voice   string
}

// Speak synthesizes the phrase for the current majority gesture. Nothing is
// spoken while the glove is idle. Speak never modifies gesture state.
func (a *App) Speak(ctx context.Context) (SpeakResult, error) {
	a.mu.RLock()
	majority := a.majority
	a.mu.RUnlock()

	if majority == gesture.LabelScanning {
		return SpeakResult{Speak: false}, nil
	}
	if a.config.Speech == nil {
		return SpeakResult{}, fmt.Errorf("speak: %w", ErrNotConfigured)
	}

	text := PhraseFor(majority)

	ctx, cancel := context.WithTimeout(ctx, a.config.SpeechTimeout)
	defer cancel()

	audio, err := a.config.Speech.Synthesize(ctx, text, "")
	if err != nil {
		a.logger.Error("speech synthesis failed", "gesture", majority.Name(), "error", err)
		return SpeakResult{}, fmt.Errorf("%w: %w", ErrSynthesis, err)
	}

	a.logger.Info("spoke gesture", "gesture", majority.Name(), "text", text, "bytes", len(audio.Audio))
	a.recordUtterance(store.SourceGesture, majority.Name(), text, audio)

	return SpeakResult{
		Speak:   true,
		Gesture: majority.Name(),
		Text:    text,
		Audio:   audio.Audio,
		Format:  audio.Format,
		Voice:   audio.Voice,
	}, nil
}

// SynthesizeText speaks arbitrary text. Unknown voices fall back to alloy;
// numeric voices index the voice table. An empty voice uses the provider
// default.
func (a *App) SynthesizeText(ctx context.Context, text, voice string) (*speech.AudioResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("text is required: %w", ErrInvalidInput)
	}
	if a.config.Speech == nil {
		return nil, fmt.Errorf("synthesize: %w", ErrNotConfigured)
	}
	if voice != "" {
		voice = speech.ResolveVoice(voice)
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.SpeechTimeout)
	defer cancel()

	audio, err := a.config.Speech.Synthesize(ctx, text, voice)
	if err != nil {
		a.logger.Error("speech synthesis failed", "chars", len(text), "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSynthesis, err)
	}

	a.recordUtterance(store.SourceTTS, "", text, audio)
	return audio, nil
}

// Transcribe converts recorded audio to text. The language defaults to en.
func (a *App) Transcribe(ctx context.Context, audio []byte, filename, language string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("audio is required: %w", ErrInvalidInput)
	}
	if a.config.Speech == nil {
		return "", fmt.Errorf("transcribe: %w", ErrNotConfigured)
	}
	if language == "" {
		language = "en"
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.SpeechTimeout)
	defer cancel()

	text, err := a.config.Speech.Transcribe(ctx, audio, filename, language)
	if err != nil {
		a.logger.Error("transcription failed", "bytes", len(audio), "error", err)
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return text, nil
}

// SpeechCheck reports what the speech provider can reach.
type SpeechCheck struct {
	ModelCount        int
	HasRequiredModels bool
}

// CheckSpeech lists the provider's models to verify connectivity and the
// API key.
func (a *App) CheckSpeech(ctx context.Context) (*SpeechCheck, error) {
	if a.config.Speech == nil {
		return nil, fmt.Errorf("check speech: %w", ErrNotConfigured)
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.SpeechTimeout)
	defer cancel()

	models, err := a.config.Speech.ListModels(ctx)
	if err != nil {
		a.logger.Warn("speech provider check failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	check := &SpeechCheck{ModelCount: len(models)}
	for _, m := range models {
		if m == speech.ModelTTS {
			check.HasRequiredModels = true
			break
		}
	}
	return check, nil
}

// Chat answers message in the context of history. History entries with
// roles other than user or assistant are dropped.
func (a *App) Chat(ctx context.Context, message string, history []speech.Message) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("message is required: %w", ErrInvalidInput)
	}
	if a.config.Speech == nil {
		return "", fmt.Errorf("chat: %w", ErrNotConfigured)
	}

	messages := make([]speech.Message, 0, len(history)+1)
	for _, m := range history {
		if m.Role != speech.RoleUser && m.Role != speech.RoleAssistant {
			continue
		}
		messages = append(messages, m)
	}
	messages = append(messages, speech.Message{Role: speech.RoleUser, Content: message})

	ctx, cancel := context.WithTimeout(ctx, a.config.SpeechTimeout)
	defer cancel()

	reply, err := a.config.Speech.Chat(ctx, messages)
	if err != nil {
		a.logger.Error("chat failed", "error", err)
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return reply, nil
}

func (a *App) recordUtterance(source store.UtteranceSource, gestureName, text string, audio *speech.AudioResult) {
	if a.config.Store == nil {
		return
	}
	err := a.config.Store.Utterances().Create(&store.Utterance{
		Source:  source,
		Gesture: gestureName,
		Text:    text,
		Voice:   audio.Voice,
		Bytes:   len(audio.Audio),
	})
	if err != nil {
		a.logger.Warn("failed to record utterance", "error", err)
	}
}
