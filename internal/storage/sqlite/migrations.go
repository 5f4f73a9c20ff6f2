package sqlite

import "database/sql"

// schema sets up the database. It runs on startup, so every statement is idempotent.
// Participants and sessions must exist before attendance due to the foreign keys.
const schema = `
CREATE TABLE IF NOT EXISTS participants (
    name TEXT NOT NULL,
    birth_date TEXT NOT NULL,
    gender TEXT NOT NULL,
    nickname TEXT NOT NULL DEFAULT '',
    phone TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    job TEXT NOT NULL DEFAULT '',
    type_code TEXT NOT NULL DEFAULT '',
    intro TEXT NOT NULL DEFAULT '',
    signup_route TEXT NOT NULL DEFAULT '',
    first_visit_date TEXT NOT NULL DEFAULT '',
    memo TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (name, birth_date)
);

CREATE TABLE IF NOT EXISTS sessions (
    session_id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_date TEXT NOT NULL,
    session_time TEXT NOT NULL DEFAULT '',
    theme TEXT NOT NULL DEFAULT '',
    host TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT '준비중'
);

CREATE TABLE IF NOT EXISTS attendance (
    attendance_id INTEGER PRIMARY KEY AUTOINCREMENT,
    participant_name TEXT NOT NULL,
    participant_birth TEXT NOT NULL,
    session_id INTEGER NOT NULL,
    attended INTEGER NOT NULL DEFAULT 1,
    payment_status TEXT NOT NULL DEFAULT '',
    UNIQUE (participant_name, participant_birth, session_id),
    FOREIGN KEY (participant_name, participant_birth)
        REFERENCES participants(name, birth_date) ON DELETE CASCADE,
    FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS roster_meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    data_version INTEGER NOT NULL
);

INSERT OR IGNORE INTO roster_meta (id, data_version) VALUES (1, 0);

CREATE INDEX IF NOT EXISTS idx_attendance_session_id ON attendance(session_id);
CREATE INDEX IF NOT EXISTS idx_participants_gender ON participants(gender);
CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(session_date, session_time);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
