package store

func (s *Store) migrate() error {
	return s.migrateV1()
}

func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		telegram_id INTEGER,
		name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'developer'
	);

	CREATE INDEX IF NOT EXISTS idx_users_telegram ON users(telegram_id);

	CREATE TABLE IF NOT EXISTS sprints (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		starts_at INTEGER NOT NULL,
		ends_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		description TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT 'TODO',
		hours_estimated INTEGER NOT NULL DEFAULT 0,
		hours_real INTEGER,
		story_points INTEGER NOT NULL DEFAULT 0,
		sprint_id INTEGER REFERENCES sprints(id),
		assigned_to INTEGER NOT NULL REFERENCES users(id),
		created_at INTEGER NOT NULL,
		finishes_at INTEGER,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_assigned ON tasks(assigned_to);
	CREATE INDEX IF NOT EXISTS idx_tasks_state ON tasks(state);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}
