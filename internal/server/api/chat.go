package api

import (
	"net/http"
	"strings"

	"github.com/speakle/speakle/internal/app"
	"github.com/speakle/speakle/internal/speech"
)

// ChatHandler serves POST /api/chat.
type ChatHandler struct {
	app *app.App
}

// NewChatHandler creates a new ChatHandler for the given app.
func NewChatHandler(a *app.App) *ChatHandler {
	return &ChatHandler{app: a}
}

type chatRequest struct {
	Message string           `json:"message"`
	History []speech.Message `json:"history"`
}

type chatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
}

// ServeHTTP implements the http.Handler interface.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidFormat)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	reply, err := h.app.Chat(r.Context(), req.Message, req.History)
	if err != nil {
		writeServiceError(w, err, "Failed to get response")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Success: true, Response: reply})
}
