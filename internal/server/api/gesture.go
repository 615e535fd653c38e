package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/speakle/speakle/internal/app"
	"github.com/speakle/speakle/internal/gesture"
)

// GestureHandler serves the glove endpoints. It is mounted both at the
// root (/predict, /data, /speak) and under /api/gesture/.
type GestureHandler struct {
	app *app.App
}

// NewGestureHandler creates a new GestureHandler for the given app.
func NewGestureHandler(a *app.App) *GestureHandler {
	return &GestureHandler{app: a}
}

// ServeHTTP routes on the last path segment.
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/gesture")
	path = strings.Trim(path, "/")

	switch path {
	case "predict":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.predict(w, r)
	case "data":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.data(w, r)
	case "speak":
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.speak(w, r)
	case "reset":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.app.Reset()
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	case "history":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.history(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type predictResponse struct {
	Prediction       int    `json:"prediction"`
	PredictionName   string `json:"prediction_name"`
	MostFrequent     int    `json:"most_frequent"`
	MostFrequentName string `json:"most_frequent_name"`
	Success          bool   `json:"success"`
}

type dataResponse struct {
	app.LatestState
	ServerTime int64 `json:"server_time"`
}

type speakResponse struct {
	Success     bool   `json:"success"`
	Speak       bool   `json:"speak"`
	Message     string `json:"message,omitempty"`
	Gesture     string `json:"gesture,omitempty"`
	Text        string `json:"text,omitempty"`
	AudioBase64 string `json:"audioBase64,omitempty"`
	Format      string `json:"format,omitempty"`
}

type eventResponse struct {
	ID          string `json:"id"`
	GestureID   int    `json:"gesture_id"`
	GestureName string `json:"gesture_name"`
	Prediction  int    `json:"prediction"`
	CreatedAt   string `json:"created_at"`
}

var quatFields = [4]string{"quat_w", "quat_x", "quat_y", "quat_z"}

// decodeFrame parses an ingest body. The body must be a JSON object; any
// field that is absent, null or not a number is left nil.
func decodeFrame(body []byte) (gesture.PartialFrame, error) {
	var p gesture.PartialFrame
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return p, err
	}
	if fields == nil {
		return p, errors.New("body is not an object")
	}

	for i, name := range gesture.FlexFields {
		p.Flex[i] = numberField(fields, name)
	}
	p.QuatW = numberField(fields, quatFields[0])
	p.QuatX = numberField(fields, quatFields[1])
	p.QuatY = numberField(fields, quatFields[2])
	p.QuatZ = numberField(fields, quatFields[3])
	return p, nil
}

func numberField(fields map[string]json.RawMessage, name string) *float64 {
	raw, ok := fields[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

// predict handles POST /predict.
func (h *GestureHandler) predict(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidFormat)
		return
	}
	frame, err := decodeFrame(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidFormat)
		return
	}

	res := h.app.Ingest(frame)

	writeJSON(w, http.StatusOK, predictResponse{
		Prediction:       int(res.Prediction),
		PredictionName:   res.PredictionName,
		MostFrequent:     int(res.Majority),
		MostFrequentName: res.MajorityName,
		Success:          true,
	})
}

// data handles GET /data.
func (h *GestureHandler) data(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dataResponse{
		LatestState: h.app.Latest(),
		ServerTime:  time.Now().UnixMilli(),
	})
}

// speak handles GET /speak.
func (h *GestureHandler) speak(w http.ResponseWriter, r *http.Request) {
	res, err := h.app.Speak(r.Context())
	if err != nil {
		if errors.Is(err, app.ErrNotConfigured) {
			writeError(w, http.StatusInternalServerError, msgMissingAPIKey)
			return
		}
		writeErrorDetails(w, http.StatusInternalServerError, msgSpeechFailed, err)
		return
	}

	if !res.Speak {
		writeJSON(w, http.StatusOK, speakResponse{
			Success: true,
			Speak:   false,
			Message: "No active gesture detected",
		})
		return
	}

	writeJSON(w, http.StatusOK, speakResponse{
		Success:     true,
		Speak:       true,
		Gesture:     res.Gesture,
		Text:        res.Text,
		AudioBase64: base64.StdEncoding.EncodeToString(res.Audio),
		Format:      res.Format,
	})
}

// history handles GET /api/gesture/history.
func (h *GestureHandler) history(w http.ResponseWriter, r *http.Request) {
	events, err := h.app.History(parseLimit(r))
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to load history", err)
		return
	}

	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			ID:          e.ID,
			GestureID:   e.Label,
			GestureName: e.Name,
			Prediction:  e.Prediction,
			CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"events":  out,
	})
}
