package api

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/speakle/speakle/internal/app"
	"github.com/speakle/speakle/internal/log"
	"github.com/speakle/speakle/internal/speech"
)

func TestSpeechHandler_TTS(t *testing.T) {
	mock := speech.NewMock()
	handler := NewSpeechHandler(newTestApp(t, mock))

	t.Run("speak with voice", func(t *testing.T) {
		rec := do(handler, http.MethodPost, "/api/tts/speak", `{"text":"Nice to meet you","voice":"nova"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		got := decode(t, rec)
		if got["success"] != true || got["format"] != "mp3" || got["voice"] != "nova" {
			t.Errorf("unexpected response %v", got)
		}
		if got["audioBase64"] == "" {
			t.Error("expected audio")
		}
	})

	t.Run("numeric and unknown voices", func(t *testing.T) {
		got := decode(t, do(handler, http.MethodPost, "/api/tts/speak", `{"text":"hi","voice":3}`))
		if got["voice"] != "onyx" {
			t.Errorf("expected onyx, got %v", got["voice"])
		}
		got = decode(t, do(handler, http.MethodGet, "/api/audio/tts?text=hi&voice=robot", ""))
		if got["voice"] != "alloy" {
			t.Errorf("expected alloy, got %v", got["voice"])
		}
	})

	t.Run("missing text", func(t *testing.T) {
		rec := do(handler, http.MethodPost, "/api/tts/speak", `{"voice":"echo"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
		rec = do(handler, http.MethodGet, "/api/audio/tts", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("utterances are listed", func(t *testing.T) {
		rec := do(handler, http.MethodGet, "/api/audio/utterances?limit=2", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		got := decode(t, rec)
		list, _ := got["utterances"].([]interface{})
		if len(list) != 2 {
			t.Errorf("expected 2 utterances, got %d", len(list))
		}
	})
}

func TestSpeechHandler_NotConfigured(t *testing.T) {
	handler := NewSpeechHandler(newTestApp(t, nil))

	rec := do(handler, http.MethodPost, "/api/tts/speak", `{"text":"hi"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
	if got := decode(t, rec); got["error"] != "Server configuration error: Missing API Key" {
		t.Errorf("unexpected response %v", got)
	}
}

func multipartBody(t *testing.T, filename string, data []byte, language string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write(data)
	}
	if language != "" {
		mw.WriteField("language", language)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestSpeechHandler_Transcribe(t *testing.T) {
	var gotLang, gotName string
	mock := speech.NewMock()
	mock.TranscribeFunc = func(ctx context.Context, audio []byte, filename, language string) (string, error) {
		gotLang, gotName = language, filename
		return "my name is sam", nil
	}
	handler := NewSpeechHandler(newTestApp(t, mock))

	t.Run("transcribes upload", func(t *testing.T) {
		body, ct := multipartBody(t, "clip.m4a", []byte("audio-bytes"), "")
		req := httptest.NewRequest(http.MethodPost, "/api/speech/transcribe", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
		}
		got := decode(t, rec)
		if got["text"] != "my name is sam" {
			t.Errorf("unexpected response %v", got)
		}
		if gotLang != "en" || gotName != "clip.m4a" {
			t.Errorf("unexpected call language=%q filename=%q", gotLang, gotName)
		}
	})

	t.Run("language passed through", func(t *testing.T) {
		body, ct := multipartBody(t, "clip.wav", []byte("x"), "es")
		req := httptest.NewRequest(http.MethodPost, "/api/speech/transcribe", body)
		req.Header.Set("Content-Type", ct)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if gotLang != "es" {
			t.Errorf("expected es, got %q", gotLang)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		body, ct := multipartBody(t, "", nil, "en")
		req := httptest.NewRequest(http.MethodPost, "/api/speech/transcribe", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("not multipart", func(t *testing.T) {
		rec := do(handler, http.MethodPost, "/api/speech/transcribe", `{"file":"x"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
	})
}

func TestSpeechHandler_TranscribeFailure(t *testing.T) {
	handler := NewSpeechHandler(app.New(app.Config{
		Speech: speech.WithError(errors.New("whisper down")),
		Logger: log.Discard(),
	}))

	body, ct := multipartBody(t, "clip.m4a", []byte("x"), "")
	req := httptest.NewRequest(http.MethodPost, "/api/speech/transcribe", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
	if got := decode(t, rec); got["error"] != "Failed to transcribe audio" {
		t.Errorf("unexpected response %v", got)
	}
}

func TestSpeechHandler_CheckOpenAI(t *testing.T) {
	t.Run("connected", func(t *testing.T) {
		handler := NewSpeechHandler(newTestApp(t, speech.NewMock()))

		rec := do(handler, http.MethodGet, "/api/audio/check-openai", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		got := decode(t, rec)
		if got["success"] != true || got["modelCount"] != float64(3) || got["hasRequiredModels"] != true {
			t.Errorf("unexpected response %v", got)
		}
		if got["message"] != "Successfully connected to OpenAI API" {
			t.Errorf("unexpected message %v", got["message"])
		}
	})

	t.Run("missing API key", func(t *testing.T) {
		handler := NewSpeechHandler(newTestApp(t, nil))

		rec := do(handler, http.MethodGet, "/api/audio/check-openai", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		got := decode(t, rec)
		if got["success"] != false || got["message"] != "OpenAI API key is not configured" {
			t.Errorf("unexpected response %v", got)
		}
	})

	t.Run("rejected key", func(t *testing.T) {
		mock := speech.NewMock()
		mock.ListModelsFunc = func(ctx context.Context) ([]string, error) {
			return nil, &speech.APIError{StatusCode: http.StatusUnauthorized, Message: "Incorrect API key provided", Provider: "openai"}
		}
		handler := NewSpeechHandler(newTestApp(t, mock))

		rec := do(handler, http.MethodGet, "/api/audio/check-openai", "")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
		}
		got := decode(t, rec)
		if got["success"] != false || got["message"] != "OpenAI API error: 401 - Incorrect API key provided" {
			t.Errorf("unexpected response %v", got)
		}
	})

	t.Run("rejects POST", func(t *testing.T) {
		handler := NewSpeechHandler(newTestApp(t, speech.NewMock()))
		if rec := do(handler, http.MethodPost, "/api/audio/check-openai", ""); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}
