package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// UtteranceSource identifies which path produced the audio.
type UtteranceSource string

const (
	// SourceGesture is speech triggered by a recognised gesture.
	SourceGesture UtteranceSource = "gesture"
	// SourceTTS is free-text speech.
	SourceTTS UtteranceSource = "tts"
)

// Utterance records one successful synthesis.
type Utterance struct {
	ID        string
	Source    UtteranceSource
	Gesture   string
	Text      string
	Voice     string
	Bytes     int
	CreatedAt time.Time
}

// UtteranceRepository stores synthesized utterances.
type UtteranceRepository struct {
	db *sql.DB
}

// Utterances returns the utterance repository for this store.
func (s *Store) Utterances() *UtteranceRepository {
	return &UtteranceRepository{db: s.db}
}

// Create inserts an utterance, assigning an ID and timestamp when unset.
func (r *UtteranceRepository) Create(u *Utterance) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(
		`INSERT INTO utterances (id, source, gesture, text, voice, bytes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, string(u.Source), u.Gesture, u.Text, u.Voice, u.Bytes, u.CreatedAt,
	)
	return err
}

// ListRecent returns up to limit utterances, newest first.
func (r *UtteranceRepository) ListRecent(limit int) ([]*Utterance, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.Query(
		`SELECT id, source, gesture, text, voice, bytes, created_at
		 FROM utterances ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	utterances := []*Utterance{}
	for rows.Next() {
		u := &Utterance{}
		var source string
		if err := rows.Scan(&u.ID, &source, &u.Gesture, &u.Text, &u.Voice, &u.Bytes, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Source = UtteranceSource(source)
		utterances = append(utterances, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return utterances, nil
}
