package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/speakle/speakle/internal/app"
	"github.com/speakle/speakle/internal/store"
)

// ConversationHandler serves /api/conversation/start and /api/conversation/end.
type ConversationHandler struct {
	app *app.App
}

// NewConversationHandler creates a new ConversationHandler for the given app.
func NewConversationHandler(a *app.App) *ConversationHandler {
	return &ConversationHandler{app: a}
}

type startConversationRequest struct {
	UserID string `json:"userId"`
}

type endConversationRequest struct {
	ConversationID string `json:"conversationId"`
}

type conversationResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Status    string `json:"status"`
	StartedAt string `json:"startedAt"`
	EndedAt   string `json:"endedAt,omitempty"`
}

func toConversationResponse(c *store.Conversation) conversationResponse {
	resp := conversationResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		Status:    string(c.Status),
		StartedAt: c.StartedAt.Format(time.RFC3339),
	}
	if c.EndedAt != nil {
		resp.EndedAt = c.EndedAt.Format(time.RFC3339)
	}
	return resp
}

// ServeHTTP implements the http.Handler interface.
func (h *ConversationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	switch strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/conversation"), "/") {
	case "start":
		h.start(w, r)
	case "end":
		h.end(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *ConversationHandler) start(w http.ResponseWriter, r *http.Request) {
	var req startConversationRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, msgInvalidFormat)
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "User ID is required to start a conversation")
		return
	}

	c, err := h.app.StartConversation(r.Context(), req.UserID)
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to start conversation", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"conversationId": c.ID,
		"conversation":   toConversationResponse(c),
	})
}

func (h *ConversationHandler) end(w http.ResponseWriter, r *http.Request) {
	var req endConversationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidFormat)
		return
	}
	if req.ConversationID == "" {
		writeError(w, http.StatusBadRequest, "conversationId is required")
		return
	}

	c, err := h.app.EndConversation(r.Context(), req.ConversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to end conversation", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"conversation": toConversationResponse(c),
	})
}
