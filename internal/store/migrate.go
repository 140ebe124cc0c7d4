package store

import "database/sql"

// Schema versions. Each entry applies once; schema_version records what
// has been applied so existing databases upgrade in place without data
// loss.
var migrations = []struct {
	version     int
	description string
	statements  string
}{
	{
		version:     1,
		description: "core entities and typed join tables",
		statements: `
			CREATE TABLE IF NOT EXISTS requirements (
				id                      TEXT PRIMARY KEY,
				requirement_number      INTEGER NOT NULL,
				type                    TEXT    NOT NULL,
				version                 INTEGER NOT NULL DEFAULT 0,
				title                   TEXT    NOT NULL,
				status                  TEXT    NOT NULL DEFAULT 'Draft',
				priority                TEXT    NOT NULL,
				current_state           TEXT,
				desired_state           TEXT,
				functional_requirements TEXT,
				acceptance_criteria     TEXT,
				business_value          TEXT,
				risk_level              TEXT,
				author                  TEXT,
				task_count              INTEGER NOT NULL DEFAULT 0,
				tasks_completed         INTEGER NOT NULL DEFAULT 0,
				created_at              TEXT    NOT NULL,
				updated_at              TEXT    NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_req_status   ON requirements(status);
			CREATE INDEX IF NOT EXISTS idx_req_type     ON requirements(type);
			CREATE INDEX IF NOT EXISTS idx_req_priority ON requirements(priority);

			CREATE TABLE IF NOT EXISTS tasks (
				id                  TEXT PRIMARY KEY,
				task_number         INTEGER NOT NULL,
				subtask_number      INTEGER NOT NULL DEFAULT 0,
				version             INTEGER NOT NULL DEFAULT 0,
				title               TEXT    NOT NULL,
				status              TEXT    NOT NULL DEFAULT 'Not Started',
				priority            TEXT    NOT NULL,
				effort              TEXT,
				user_story          TEXT,
				acceptance_criteria TEXT,
				parent_task_id      TEXT REFERENCES tasks(id),
				assignee            TEXT,
				created_at          TEXT    NOT NULL,
				updated_at          TEXT    NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_task_status   ON tasks(status);
			CREATE INDEX IF NOT EXISTS idx_task_parent   ON tasks(parent_task_id);
			CREATE INDEX IF NOT EXISTS idx_task_assignee ON tasks(assignee);

			CREATE TABLE IF NOT EXISTS architecture (
				id                 TEXT PRIMARY KEY,
				type               TEXT NOT NULL,
				title              TEXT NOT NULL,
				status             TEXT NOT NULL DEFAULT 'Proposed',
				context            TEXT,
				decision_drivers   TEXT,
				considered_options TEXT,
				decision_outcome   TEXT,
				consequences       TEXT,
				authors            TEXT,
				created_at         TEXT NOT NULL,
				updated_at         TEXT NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_arch_status ON architecture(status);

			CREATE TABLE IF NOT EXISTS requirement_tasks (
				requirement_id TEXT NOT NULL REFERENCES requirements(id),
				task_id        TEXT NOT NULL REFERENCES tasks(id),
				PRIMARY KEY (requirement_id, task_id)
			);

			CREATE TABLE IF NOT EXISTS requirement_architecture (
				requirement_id    TEXT NOT NULL REFERENCES requirements(id),
				architecture_id   TEXT NOT NULL REFERENCES architecture(id),
				relationship_type TEXT NOT NULL DEFAULT 'addresses',
				PRIMARY KEY (requirement_id, architecture_id, relationship_type)
			);

			CREATE TABLE IF NOT EXISTS task_dependencies (
				task_id            TEXT NOT NULL REFERENCES tasks(id),
				depends_on_task_id TEXT NOT NULL REFERENCES tasks(id),
				dependency_type    TEXT NOT NULL DEFAULT 'depends',
				PRIMARY KEY (task_id, depends_on_task_id, dependency_type)
			);

			CREATE TABLE IF NOT EXISTS requirement_dependencies (
				requirement_id            TEXT NOT NULL REFERENCES requirements(id),
				depends_on_requirement_id TEXT NOT NULL REFERENCES requirements(id),
				dependency_type           TEXT NOT NULL DEFAULT 'depends',
				PRIMARY KEY (requirement_id, depends_on_requirement_id, dependency_type)
			);

			CREATE TABLE IF NOT EXISTS reviews (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				entity_type TEXT NOT NULL,
				entity_id   TEXT NOT NULL,
				reviewer    TEXT NOT NULL,
				comment     TEXT NOT NULL,
				created_at  TEXT NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_reviews_entity ON reviews(entity_type, entity_id);

			CREATE TABLE IF NOT EXISTS lifecycle_events (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				entity_type TEXT NOT NULL,
				entity_id   TEXT NOT NULL,
				event_type  TEXT NOT NULL,
				from_value  TEXT,
				to_value    TEXT,
				actor       TEXT,
				created_at  TEXT NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_events_entity ON lifecycle_events(entity_type, entity_id);
		`,
	},
	{
		version:     2,
		description: "requirement decomposition metadata",
		statements: `
			ALTER TABLE requirements ADD COLUMN complexity_score     INTEGER;
			ALTER TABLE requirements ADD COLUMN scope_assessment     TEXT;
			ALTER TABLE requirements ADD COLUMN decomposition_source TEXT;
			ALTER TABLE requirements ADD COLUMN decomposition_level  INTEGER NOT NULL DEFAULT 0;
		`,
	},
	{
		version:     3,
		description: "github issue mirror metadata",
		statements: `
			ALTER TABLE tasks ADD COLUMN github_issue_number TEXT;
			ALTER TABLE tasks ADD COLUMN github_issue_url    TEXT;
			ALTER TABLE tasks ADD COLUMN github_etag         TEXT;
			ALTER TABLE tasks ADD COLUMN github_last_sync    TEXT;
		`,
	},
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version     INTEGER PRIMARY KEY,
			applied_at  TEXT NOT NULL,
			description TEXT
		)`); err != nil {
		return err
	}

	var current int
	if err := s.db.QueryRow(
		"SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		err := s.runTx(func(tx *sql.Tx) error {
			if _, err := tx.Exec(m.statements); err != nil {
				return err
			}
			_, err := tx.Exec(
				"INSERT INTO schema_version (version, applied_at, description) VALUES (?, ?, ?)",
				m.version, nowUTC(), m.description)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}
