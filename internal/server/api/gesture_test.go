package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/speakle/speakle/internal/app"
	"github.com/speakle/speakle/internal/log"
	"github.com/speakle/speakle/internal/speech"
	"github.com/speakle/speakle/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "speakle-api-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(tmpDir)
	})

	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func newTestApp(t *testing.T, provider speech.Provider) *app.App {
	t.Helper()
	return app.New(app.Config{
		Speech: provider,
		Store:  newTestStore(t),
		Logger: log.Discard(),
	})
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

const byeBody = `{"flex_little":900,"flex_ring":900,"flex_middle":900,"flex_index":900,"flex_thumb":900,"quat_w":1,"quat_x":0,"quat_y":0,"quat_z":0}`

func TestGestureHandler_Predict(t *testing.T) {
	t.Run("collects then predicts", func(t *testing.T) {
		handler := NewGestureHandler(newTestApp(t, speech.NewMock()))

		var resp predictResponse
		for i := 0; i < 5; i++ {
			rec := do(handler, http.MethodPost, "/predict", byeBody)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", ct)
			}
			resp = predictResponse{}
			json.NewDecoder(rec.Body).Decode(&resp)
			if i < 4 && resp.Prediction != -1 {
				t.Errorf("frame %d: expected -1, got %d", i+1, resp.Prediction)
			}
		}

		if resp.Prediction != 3 || resp.PredictionName != "bye" || !resp.Success {
			t.Errorf("unexpected response %+v", resp)
		}
		if resp.MostFrequent != -1 || resp.MostFrequentName != "collecting_data" {
			t.Errorf("unexpected majority %d %s", resp.MostFrequent, resp.MostFrequentName)
		}
	})

	t.Run("rejects non-object bodies", func(t *testing.T) {
		handler := NewGestureHandler(newTestApp(t, speech.NewMock()))

		for _, body := range []string{"", "not json", "[1,2,3]", "null", `"text"`} {
			rec := do(handler, http.MethodPost, "/predict", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("body %q: expected status %d, got %d", body, http.StatusBadRequest, rec.Code)
			}
			got := decode(t, rec)
			if got["error"] != "Invalid data format" || got["success"] != false {
				t.Errorf("body %q: unexpected response %v", body, got)
			}
		}
	})

	t.Run("non-numeric fields are treated as missing", func(t *testing.T) {
		a := newTestApp(t, speech.NewMock())
		handler := NewGestureHandler(a)

		rec := do(handler, http.MethodPost, "/predict", `{"flex_thumb":"bent","flex_index":null,"flex_little":800,"extra":true}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		s := a.Latest()
		if s.FlexThumb != 1500 || s.FlexIndex != 1500 || s.FlexLittle != 800 {
			t.Errorf("unexpected state %+v", s)
		}
	})

	t.Run("rejects GET", func(t *testing.T) {
		handler := NewGestureHandler(newTestApp(t, speech.NewMock()))
		if rec := do(handler, http.MethodGet, "/predict", ""); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}

func TestGestureHandler_Data(t *testing.T) {
	handler := NewGestureHandler(newTestApp(t, speech.NewMock()))

	rec := do(handler, http.MethodGet, "/data", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	got := decode(t, rec)

	want := map[string]interface{}{
		"flex_little":  float64(1500),
		"flex_thumb":   float64(1500),
		"quat_w":       float64(1),
		"quat_x":       float64(0),
		"gesture_id":   float64(0),
		"gesture_name": "scanning",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
	for _, k := range []string{"timestamp", "server_time", "prediction", "prediction_name"} {
		if _, ok := got[k]; !ok {
			t.Errorf("missing field %s", k)
		}
	}
}

func TestGestureHandler_Speak(t *testing.T) {
	t.Run("idle", func(t *testing.T) {
		mock := speech.NewMock()
		handler := NewGestureHandler(newTestApp(t, mock))

		rec := do(handler, http.MethodGet, "/speak", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		got := decode(t, rec)
		if got["success"] != true || got["speak"] != false || got["message"] != "No active gesture detected" {
			t.Errorf("unexpected response %v", got)
		}
		if mock.CallCount("Synthesize") != 0 {
			t.Error("synthesizer should not be called")
		}
	})

	t.Run("speaks majority", func(t *testing.T) {
		handler := NewGestureHandler(newTestApp(t, speech.NewMock()))
		for i := 0; i < 10; i++ {
			do(handler, http.MethodPost, "/predict", byeBody)
		}

		rec := do(handler, http.MethodGet, "/speak", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		var got speakResponse
		json.NewDecoder(rec.Body).Decode(&got)

		if !got.Speak || got.Gesture != "bye" || got.Text != "Goodbye" || got.Format != "mp3" {
			t.Errorf("unexpected response %+v", got)
		}
		audio, err := base64.StdEncoding.DecodeString(got.AudioBase64)
		if err != nil || !bytes.HasPrefix(audio, []byte("ID3")) {
			t.Errorf("unexpected audio %q (%v)", audio, err)
		}
	})

	t.Run("synthesis failure", func(t *testing.T) {
		handler := NewGestureHandler(newTestApp(t, speech.WithError(errors.New("quota exceeded"))))
		for i := 0; i < 10; i++ {
			do(handler, http.MethodPost, "/predict", byeBody)
		}

		rec := do(handler, http.MethodGet, "/speak", "")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
		}
		got := decode(t, rec)
		if got["success"] != false || got["error"] != "Failed to generate speech" {
			t.Errorf("unexpected response %v", got)
		}
		if details, _ := got["details"].(string); !strings.Contains(details, "quota exceeded") {
			t.Errorf("expected details to carry the cause, got %v", got["details"])
		}
	})

	t.Run("missing API key", func(t *testing.T) {
		handler := NewGestureHandler(newTestApp(t, nil))
		for i := 0; i < 10; i++ {
			do(handler, http.MethodPost, "/predict", byeBody)
		}

		rec := do(handler, http.MethodGet, "/speak", "")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
		}
		got := decode(t, rec)
		if got["error"] != "Server configuration error: Missing API Key" {
			t.Errorf("unexpected response %v", got)
		}
	})
}

func TestGestureHandler_ResetAndHistory(t *testing.T) {
	handler := NewGestureHandler(newTestApp(t, speech.NewMock()))
	for i := 0; i < 10; i++ {
		do(handler, http.MethodPost, "/api/gesture/predict", byeBody)
	}

	rec := do(handler, http.MethodGet, "/api/gesture/history?limit=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var hist struct {
		Success bool            `json:"success"`
		Events  []eventResponse `json:"events"`
	}
	json.NewDecoder(rec.Body).Decode(&hist)
	if len(hist.Events) != 1 || hist.Events[0].GestureName != "bye" {
		t.Errorf("unexpected history %+v", hist)
	}

	rec = do(handler, http.MethodPost, "/api/gesture/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	got := decode(t, do(handler, http.MethodGet, "/api/gesture/data", ""))
	if got["gesture_name"] != "scanning" {
		t.Errorf("expected scanning after reset, got %v", got["gesture_name"])
	}

	if rec := do(handler, http.MethodGet, "/api/gesture/unknown", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestDecodeFrame(t *testing.T) {
	p, err := decodeFrame([]byte(`{"flex_index":1100.5,"quat_z":-0.25,"flex_ring":"x"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Flex[3] == nil || *p.Flex[3] != 1100.5 {
		t.Errorf("flex_index not decoded: %v", p.Flex[3])
	}
	if p.QuatZ == nil || *p.QuatZ != -0.25 {
		t.Errorf("quat_z not decoded: %v", p.QuatZ)
	}
	if p.Flex[1] != nil || p.Flex[0] != nil || p.QuatW != nil {
		t.Error("absent or invalid fields should be nil")
	}
}
