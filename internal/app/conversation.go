package app

import (
	"context"
	"fmt"

	"github.com/speakle/speakle/internal/detector"
	"github.com/speakle/speakle/internal/store"
)

// DetectionEvent is published when a conversation starts or ends.
type DetectionEvent struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId,omitempty"`
}

// StartConversation opens a conversation and asks the detection process to
// start streaming. Notify failures are logged only.
func (a *App) StartConversation(ctx context.Context, userID string) (*store.Conversation, error) {
	if a.config.Store == nil {
		return nil, fmt.Errorf("start conversation: %w", ErrNotConfigured)
	}

	c, err := a.config.Store.Conversations().Start(userID)
	if err != nil {
		return nil, fmt.Errorf("start conversation: %w", err)
	}

	a.logger.Info("conversation started", "id", c.ID, "user", userID)
	a.notify(ctx, detector.ActionStart)
	a.publish(EventStartDetection, DetectionEvent{ConversationID: c.ID, UserID: userID})
	return c, nil
}

// EndConversation completes a conversation and asks the detection process
// to stop. Unknown ids return store.ErrNotFound.
func (a *App) EndConversation(ctx context.Context, id string) (*store.Conversation, error) {
	if id == "" {
		return nil, fmt.Errorf("conversation id is required: %w", ErrInvalidInput)
	}
	if a.config.Store == nil {
		return nil, fmt.Errorf("end conversation: %w", ErrNotConfigured)
	}

	c, err := a.config.Store.Conversations().End(id)
	if err != nil {
		return nil, fmt.Errorf("end conversation: %w", err)
	}

	a.logger.Info("conversation ended", "id", c.ID)
	a.notify(ctx, detector.ActionStop)
	a.publish(EventStopDetection, DetectionEvent{ConversationID: c.ID, UserID: c.UserID})
	return c, nil
}

func (a *App) notify(ctx context.Context, action detector.Action) {
	if a.config.Detector == nil {
		return
	}
	if err := a.config.Detector.Notify(ctx, action); err != nil {
		a.logger.Warn("failed to notify detector", "action", action, "error", err)
	}
}
