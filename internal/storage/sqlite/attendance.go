package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/toastmixer/internal/models"
	"github.com/mmynk/toastmixer/internal/storage"
)

// ParticipantsOfSession retrieves a session's attendees with their attendance rows.
func (s *SQLiteStore) ParticipantsOfSession(ctx context.Context, sessionID int64) ([]*models.SessionAttendee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.name, p.birth_date, p.gender, p.nickname, p.phone, p.location, p.job,
		        p.type_code, p.intro, p.signup_route, p.first_visit_date, p.memo,
		        a.attendance_id, a.payment_status
		 FROM attendance a
		 JOIN participants p ON a.participant_name = p.name
		                    AND a.participant_birth = p.birth_date
		 WHERE a.session_id = ?
		 ORDER BY p.name, p.birth_date`,
		sessionID,
	)
	if err != nil {
		return nil, &storage.StoreError{Op: "list session participants", Err: err}
	}
	defer rows.Close()

	var attendees []*models.SessionAttendee
	for rows.Next() {
		a := &models.SessionAttendee{}
		var gender string
		if err := rows.Scan(
			&a.Name,
			&a.BirthDate,
			&gender,
			&a.Nickname,
			&a.Phone,
			&a.Location,
			&a.Job,
			&a.TypeCode,
			&a.Intro,
			&a.SignupRoute,
			&a.FirstVisitDate,
			&a.Memo,
			&a.AttendanceID,
			&a.PaymentStatus,
		); err != nil {
			return nil, &storage.StoreError{Op: "list session participants", Err: fmt.Errorf("scan attendee: %w", err)}
		}
		a.Gender = models.Gender(gender)
		attendees = append(attendees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, &storage.StoreError{Op: "list session participants", Err: fmt.Errorf("iterate attendees: %w", err)}
	}

	return attendees, nil
}

// AddAttendance links a participant to a session.
func (s *SQLiteStore) AddAttendance(ctx context.Context, sessionID int64, key models.ParticipantKey) (bool, error) {
	var inserted bool
	err := s.withTx(ctx, "add attendance", func(tx *sql.Tx) (bool, error) {
		var err error
		inserted, err = insertAttendance(ctx, tx, sessionID, key)
		return inserted, err
	})
	return inserted, err
}

// insertAttendance is a no-op when the link exists or either parent is missing.
func insertAttendance(ctx context.Context, tx *sql.Tx, sessionID int64, key models.ParticipantKey) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO attendance (participant_name, participant_birth, session_id)
		 SELECT ?, ?, ?
		 WHERE EXISTS (SELECT 1 FROM sessions WHERE session_id = ?)
		   AND EXISTS (SELECT 1 FROM participants WHERE name = ? AND birth_date = ?)
		 ON CONFLICT (participant_name, participant_birth, session_id) DO NOTHING`,
		key.Name, key.BirthDate, sessionID,
		sessionID,
		key.Name, key.BirthDate,
	)
	if err != nil {
		return false, fmt.Errorf("insert attendance: %w", err)
	}
	return rowsAffected(res)
}

// RegisterAttendee adds a participant and their attendance atomically.
func (s *SQLiteStore) RegisterAttendee(ctx context.Context, sessionID int64, p *models.Participant) error {
	return s.withTx(ctx, "register attendee", func(tx *sql.Tx) (bool, error) {
		var exists int
		err := tx.QueryRowContext(ctx,
			"SELECT 1 FROM sessions WHERE session_id = ?", sessionID,
		).Scan(&exists)
		if err == sql.ErrNoRows {
			return false, fmt.Errorf("session %d: %w", sessionID, storage.ErrNotFound)
		}
		if err != nil {
			return false, fmt.Errorf("check session: %w", err)
		}

		addedParticipant, err := insertParticipant(ctx, tx, p)
		if err != nil {
			return false, err
		}
		addedLink, err := insertAttendance(ctx, tx, sessionID, p.Key())
		if err != nil {
			return false, err
		}
		return addedParticipant || addedLink, nil
	})
}

// RemoveAttendance unlinks a participant from a session.
func (s *SQLiteStore) RemoveAttendance(ctx context.Context, sessionID int64, key models.ParticipantKey) error {
	return s.withTx(ctx, "remove attendance", func(tx *sql.Tx) (bool, error) {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM attendance
			 WHERE session_id = ? AND participant_name = ? AND participant_birth = ?`,
			sessionID, key.Name, key.BirthDate,
		)
		if err != nil {
			return false, fmt.Errorf("delete attendance: %w", err)
		}
		return rowsAffected(res)
	})
}

// ImportSession loads one imported session and its attendees.
func (s *SQLiteStore) ImportSession(ctx context.Context, sess *models.Session, participants []*models.Participant) (int, error) {
	var linked int

	err := s.withTx(ctx, "import session", func(tx *sql.Tx) (bool, error) {
		linked = 0
		changed := false

		err := tx.QueryRowContext(ctx,
			`SELECT session_id FROM sessions
			 WHERE session_date = ? AND session_time = ? AND theme = ? AND host = ?
			 ORDER BY session_id LIMIT 1`,
			sess.Date, sess.Time, sess.Theme, sess.Host,
		).Scan(&sess.ID)
		if err == sql.ErrNoRows {
			if err := insertSession(ctx, tx, sess); err != nil {
				return false, err
			}
			changed = true
		} else if err != nil {
			return false, fmt.Errorf("find session: %w", err)
		}

		for _, p := range participants {
			added, err := insertParticipant(ctx, tx, p)
			if err != nil {
				return false, err
			}
			changed = changed || added

			attached, err := insertAttendance(ctx, tx, sess.ID, p.Key())
			if err != nil {
				return false, err
			}
			if attached {
				linked++
				changed = true
			}
		}

		return changed, nil
	})
	if err != nil {
		return 0, err
	}

	return linked, nil
}
