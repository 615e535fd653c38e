package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Majority-label transitions
		`CREATE TABLE IF NOT EXISTS gesture_events (
			id TEXT PRIMARY KEY,
			label INTEGER NOT NULL,
			name TEXT NOT NULL,
			prediction INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		// Successful speech syntheses
		`CREATE TABLE IF NOT EXISTS utterances (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL CHECK(source IN ('gesture', 'tts')),
			gesture TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL,
			voice TEXT NOT NULL,
			bytes INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL CHECK(status IN ('active', 'completed')),
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,

		`CREATE INDEX IF NOT EXISTS idx_gesture_events_created_at ON gesture_events(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_utterances_created_at ON utterances(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_user_id ON conversations(user_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
