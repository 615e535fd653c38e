package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/speakle/speakle/internal/app"
	"github.com/speakle/speakle/internal/speech"
)

// MaxAudioUpload is the largest accepted transcription upload.
const MaxAudioUpload = 10 << 20

// SpeechHandler serves text-to-speech and transcription endpoints:
//
//	POST     /api/tts/speak
//	GET|POST /api/audio/tts
//	GET      /api/audio/utterances
//	GET      /api/audio/check-openai
//	POST     /api/speech/transcribe
type SpeechHandler struct {
	app *app.App
}

// NewSpeechHandler creates a new SpeechHandler for the given app.
func NewSpeechHandler(a *app.App) *SpeechHandler {
	return &SpeechHandler{app: a}
}

// ServeHTTP implements the http.Handler interface.
func (h *SpeechHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch strings.TrimSuffix(r.URL.Path, "/") {
	case "/api/tts/speak":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.ttsSpeak(w, r)
	case "/api/audio/tts":
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.audioTTS(w, r)
	case "/api/audio/utterances":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.utterances(w, r)
	case "/api/audio/check-openai":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.checkProvider(w, r)
	case "/api/speech/transcribe":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.transcribe(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type ttsRequest struct {
	Text  string     `json:"text"`
	Voice voiceParam `json:"voice"`
}

// voiceParam accepts a voice name or a numeric voice index.
type voiceParam string

func (v *voiceParam) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*v = voiceParam(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = voiceParam(s)
	return nil
}

type ttsResponse struct {
	Success     bool   `json:"success"`
	AudioBase64 string `json:"audioBase64"`
	Format      string `json:"format"`
	Voice       string `json:"voice"`
}

type utteranceResponse struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Gesture   string `json:"gesture,omitempty"`
	Text      string `json:"text"`
	Voice     string `json:"voice"`
	Bytes     int    `json:"bytes"`
	CreatedAt string `json:"created_at"`
}

// ttsSpeak handles POST /api/tts/speak.
func (h *SpeechHandler) ttsSpeak(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidFormat)
		return
	}
	h.synthesize(w, r, req)
}

// audioTTS handles GET|POST /api/audio/tts. GET reads text and voice from
// the query string.
func (h *SpeechHandler) audioTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		req.Text = q.Get("text")
		req.Voice = voiceParam(q.Get("voice"))
	} else if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidFormat)
		return
	}
	h.synthesize(w, r, req)
}

func (h *SpeechHandler) synthesize(w http.ResponseWriter, r *http.Request, req ttsRequest) {
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Text is required")
		return
	}

	audio, err := h.app.SynthesizeText(r.Context(), req.Text, string(req.Voice))
	if err != nil {
		writeServiceError(w, err, msgSpeechFailed)
		return
	}

	writeJSON(w, http.StatusOK, ttsResponse{
		Success:     true,
		AudioBase64: base64.StdEncoding.EncodeToString(audio.Audio),
		Format:      audio.Format,
		Voice:       audio.Voice,
	})
}

// utterances handles GET /api/audio/utterances.
func (h *SpeechHandler) utterances(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Utterances(parseLimit(r))
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to load utterances", err)
		return
	}

	out := make([]utteranceResponse, 0, len(list))
	for _, u := range list {
		out = append(out, utteranceResponse{
			ID:        u.ID,
			Source:    string(u.Source),
			Gesture:   u.Gesture,
			Text:      u.Text,
			Voice:     u.Voice,
			Bytes:     u.Bytes,
			CreatedAt: u.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"utterances": out,
	})
}

// transcribe handles POST /api/speech/transcribe with a multipart "file"
// part and an optional "language" field.
func (h *SpeechHandler) transcribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxAudioUpload+(1<<20))
	if err := r.ParseMultipartForm(MaxAudioUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Audio file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer file.Close()

	if header.Size > MaxAudioUpload {
		writeError(w, http.StatusRequestEntityTooLarge, "Audio file too large")
		return
	}
	audio, err := io.ReadAll(file)
	if err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "Failed to read audio file", err)
		return
	}
	if len(audio) == 0 {
		writeError(w, http.StatusBadRequest, "No audio file provided")
		return
	}

	text, err := h.app.Transcribe(r.Context(), audio, header.Filename, r.FormValue("language"))
	if err != nil {
		writeServiceError(w, err, "Failed to transcribe audio")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"text":    text,
	})
}

type checkResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	ModelCount        int    `json:"modelCount,omitempty"`
	HasRequiredModels bool   `json:"hasRequiredModels,omitempty"`
}

// checkProvider handles GET /api/audio/check-openai. A missing key is a
// normal answer, not a server error.
func (h *SpeechHandler) checkProvider(w http.ResponseWriter, r *http.Request) {
	check, err := h.app.CheckSpeech(r.Context())
	if err != nil {
		if errors.Is(err, app.ErrNotConfigured) {
			writeJSON(w, http.StatusOK, checkResponse{
				Success: false,
				Message: "OpenAI API key is not configured",
			})
			return
		}

		message := "Failed to connect to OpenAI API"
		var apiErr *speech.APIError
		if errors.As(err, &apiErr) {
			message = fmt.Sprintf("OpenAI API error: %d - %s", apiErr.StatusCode, apiErr.Message)
		}
		writeJSON(w, http.StatusInternalServerError, checkResponse{
			Success: false,
			Message: message,
		})
		return
	}

	writeJSON(w, http.StatusOK, checkResponse{
		Success:           true,
		Message:           "Successfully connected to OpenAI API",
		ModelCount:        check.ModelCount,
		HasRequiredModels: check.HasRequiredModels,
	})
}
