package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ConversationStatus is the lifecycle state of a conversation.
type ConversationStatus string

const (
	ConversationActive    ConversationStatus = "active"
	ConversationCompleted ConversationStatus = "completed"
)

// Conversation is a glove session bracketed by start and end calls.
type Conversation struct {
	ID        string
	UserID    string
	Status    ConversationStatus
	StartedAt time.Time
	EndedAt   *time.Time
}

// ConversationRepository provides operations for conversations.
type ConversationRepository struct {
	db *sql.DB
}

// Conversations returns the conversation repository for this store.
func (s *Store) Conversations() *ConversationRepository {
	return &ConversationRepository{db: s.db}
}

// Start creates a new active conversation for userID.
func (r *ConversationRepository) Start(userID string) (*Conversation, error) {
	c := &Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		Status:    ConversationActive,
		StartedAt: time.Now().UTC(),
	}

	_, err := r.db.Exec(
		`INSERT INTO conversations (id, user_id, status, started_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.UserID, string(c.Status), c.StartedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID retrieves a conversation by its ID.
func (r *ConversationRepository) GetByID(id string) (*Conversation, error) {
	c := &Conversation{}
	var status string
	var ended sql.NullTime

	err := r.db.QueryRow(
		`SELECT id, user_id, status, started_at, ended_at FROM conversations WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.UserID, &status, &c.StartedAt, &ended)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	c.Status = ConversationStatus(status)
	if ended.Valid {
		t := ended.Time
		c.EndedAt = &t
	}
	return c, nil
}

// End marks a conversation completed. Ending an already completed
// conversation returns it unchanged.
func (r *ConversationRepository) End(id string) (*Conversation, error) {
	_, err := r.db.Exec(
		`UPDATE conversations SET status = ?, ended_at = ? WHERE id = ? AND status = ?`,
		string(ConversationCompleted), time.Now().UTC(), id, string(ConversationActive),
	)
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// CountActive returns the number of active conversations.
func (r *ConversationRepository) CountActive() (int, error) {
	var n int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM conversations WHERE status = ?`, string(ConversationActive),
	).Scan(&n)
	return n, err
}
