package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/toastmixer/internal/models"
	"github.com/mmynk/toastmixer/internal/storage"
)

const sessionColumns = "session_id, session_date, session_time, theme, host, status"

func scanSession(row rowScanner, sess *models.Session) error {
	return row.Scan(&sess.ID, &sess.Date, &sess.Time, &sess.Theme, &sess.Host, &sess.Status)
}

// ListSessions retrieves all sessions, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]*models.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sessionColumns+` FROM sessions
		 ORDER BY session_date DESC, session_time DESC, session_id DESC`,
	)
	if err != nil {
		return nil, &storage.StoreError{Op: "list sessions", Err: err}
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		sess := &models.Session{}
		if err := scanSession(rows, sess); err != nil {
			return nil, &storage.StoreError{Op: "list sessions", Err: fmt.Errorf("scan session: %w", err)}
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, &storage.StoreError{Op: "list sessions", Err: fmt.Errorf("iterate sessions: %w", err)}
	}

	return sessions, nil
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID int64) (*models.Session, error) {
	sess := &models.Session{}
	err := scanSession(s.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE session_id = ?",
		sessionID,
	), sess)
	if err == sql.ErrNoRows {
		return nil, nil // Session not found
	}
	if err != nil {
		return nil, &storage.StoreError{Op: "get session", Err: err}
	}
	return sess, nil
}

// CreateSession persists a new session and assigns its ID.
func (s *SQLiteStore) CreateSession(ctx context.Context, sess *models.Session) error {
	return s.withTx(ctx, "create session", func(tx *sql.Tx) (bool, error) {
		return true, insertSession(ctx, tx, sess)
	})
}

func insertSession(ctx context.Context, tx *sql.Tx, sess *models.Session) error {
	if sess.Status == "" {
		sess.Status = models.DefaultSessionStatus
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (session_date, session_time, theme, host, status)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.Date, sess.Time, sess.Theme, sess.Host, sess.Status,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read session id: %w", err)
	}
	sess.ID = id
	return nil
}

// UpdateSessionStatus changes the status label of a session.
func (s *SQLiteStore) UpdateSessionStatus(ctx context.Context, sessionID int64, status string) error {
	return s.withTx(ctx, "update session status", func(tx *sql.Tx) (bool, error) {
		res, err := tx.ExecContext(ctx,
			"UPDATE sessions SET status = ? WHERE session_id = ?",
			status, sessionID,
		)
		if err != nil {
			return false, fmt.Errorf("update status: %w", err)
		}
		updated, err := rowsAffected(res)
		if err != nil {
			return false, err
		}
		if !updated {
			return false, fmt.Errorf("session %d: %w", sessionID, storage.ErrNotFound)
		}
		return true, nil
	})
}

// DeleteSession removes a session, its attendance and any participant the
// deletion left without attendance.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID int64) ([]models.ParticipantKey, error) {
	var swept []models.ParticipantKey

	err := s.withTx(ctx, "delete session", func(tx *sql.Tx) (bool, error) {
		swept = nil

		attendees, err := sessionAttendeeKeys(ctx, tx, sessionID)
		if err != nil {
			return false, err
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM attendance WHERE session_id = ?", sessionID,
		); err != nil {
			return false, fmt.Errorf("delete attendance: %w", err)
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE session_id = ?", sessionID)
		if err != nil {
			return false, fmt.Errorf("delete session: %w", err)
		}
		removed, err := rowsAffected(res)
		if err != nil {
			return false, err
		}

		// Orphan sweep
		for _, key := range attendees {
			res, err := tx.ExecContext(ctx,
				`DELETE FROM participants
				 WHERE name = ? AND birth_date = ?
				   AND NOT EXISTS (
				       SELECT 1 FROM attendance
				       WHERE participant_name = ? AND participant_birth = ?
				   )`,
				key.Name, key.BirthDate, key.Name, key.BirthDate,
			)
			if err != nil {
				return false, fmt.Errorf("sweep participant %s: %w", key.Name, err)
			}
			deleted, err := rowsAffected(res)
			if err != nil {
				return false, err
			}
			if deleted {
				swept = append(swept, key)
			}
		}

		return removed || len(attendees) > 0, nil
	})
	if err != nil {
		return nil, err
	}

	return swept, nil
}

func sessionAttendeeKeys(ctx context.Context, tx *sql.Tx, sessionID int64) ([]models.ParticipantKey, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT DISTINCT participant_name, participant_birth
		 FROM attendance WHERE session_id = ?
		 ORDER BY participant_name, participant_birth`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list session attendees: %w", err)
	}
	defer rows.Close()

	var keys []models.ParticipantKey
	for rows.Next() {
		var key models.ParticipantKey
		if err := rows.Scan(&key.Name, &key.BirthDate); err != nil {
			return nil, fmt.Errorf("scan attendee: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
