package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// DefaultListLimit caps list queries when the caller passes no limit.
const DefaultListLimit = 50

// GestureEvent records a change of the majority gesture.
type GestureEvent struct {
	ID         string
	Label      int
	Name       string
	Prediction int
	CreatedAt  time.Time
}

// EventRepository stores gesture transitions.
type EventRepository struct {
	db *sql.DB
}

// Events returns the gesture event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts an event, assigning an ID and timestamp when unset.
func (r *EventRepository) Create(e *GestureEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(
		`INSERT INTO gesture_events (id, label, name, prediction, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Label, e.Name, e.Prediction, e.CreatedAt,
	)
	return err
}

// ListRecent returns up to limit events, newest first.
func (r *EventRepository) ListRecent(limit int) ([]*GestureEvent, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.Query(
		`SELECT id, label, name, prediction, created_at
		 FROM gesture_events ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*GestureEvent{}
	for rows.Next() {
		e := &GestureEvent{}
		if err := rows.Scan(&e.ID, &e.Label, &e.Name, &e.Prediction, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// Count returns the number of stored events.
func (r *EventRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM gesture_events`).Scan(&n)
	return n, err
}
