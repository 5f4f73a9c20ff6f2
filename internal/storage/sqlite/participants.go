package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mmynk/toastmixer/internal/models"
	"github.com/mmynk/toastmixer/internal/storage"
)

const participantColumns = `name, birth_date, gender, nickname, phone, location, job,
	type_code, intro, signup_route, first_visit_date, memo`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanParticipant(row rowScanner, p *models.Participant) error {
	var gender string
	if err := row.Scan(
		&p.Name,
		&p.BirthDate,
		&gender,
		&p.Nickname,
		&p.Phone,
		&p.Location,
		&p.Job,
		&p.TypeCode,
		&p.Intro,
		&p.SignupRoute,
		&p.FirstVisitDate,
		&p.Memo,
	); err != nil {
		return err
	}
	p.Gender = models.Gender(gender)
	return nil
}

func (s *SQLiteStore) queryParticipants(ctx context.Context, op, query string, args ...interface{}) ([]*models.Participant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &storage.StoreError{Op: op, Err: err}
	}
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		p := &models.Participant{}
		if err := scanParticipant(rows, p); err != nil {
			return nil, &storage.StoreError{Op: op, Err: fmt.Errorf("scan participant: %w", err)}
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &storage.StoreError{Op: op, Err: fmt.Errorf("iterate participants: %w", err)}
	}

	return participants, nil
}

// ListParticipants retrieves the whole roster ordered by name.
func (s *SQLiteStore) ListParticipants(ctx context.Context) ([]*models.Participant, error) {
	return s.queryParticipants(ctx, "list participants",
		"SELECT "+participantColumns+" FROM participants ORDER BY name, birth_date",
	)
}

// SearchParticipants matches term against name and job, ignoring case.
func (s *SQLiteStore) SearchParticipants(ctx context.Context, term string) ([]*models.Participant, error) {
	pattern := "%" + strings.ToLower(term) + "%"
	return s.queryParticipants(ctx, "search participants",
		"SELECT "+participantColumns+` FROM participants
		 WHERE lower(name) LIKE ? OR lower(job) LIKE ?
		 ORDER BY name, birth_date`,
		pattern, pattern,
	)
}

// FilterParticipants selects the recommendation pool.
func (s *SQLiteStore) FilterParticipants(ctx context.Context, f models.ParticipantFilter) ([]*models.Participant, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if f.Gender != "" {
		conditions = append(conditions, "gender = ?")
		args = append(args, string(f.Gender))
	}
	if f.BirthYearMin > 0 {
		conditions = append(conditions, "CAST(substr(birth_date, 1, 4) AS INTEGER) >= ?")
		args = append(args, f.BirthYearMin)
	}
	if f.BirthYearMax > 0 {
		conditions = append(conditions, "CAST(substr(birth_date, 1, 4) AS INTEGER) <= ?")
		args = append(args, f.BirthYearMax)
	}
	if f.TypeContains != "" {
		// instr is case-sensitive, unlike LIKE
		conditions = append(conditions, "instr(type_code, ?) > 0")
		args = append(args, f.TypeContains)
	}

	query := "SELECT " + participantColumns + " FROM participants"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name, birth_date"

	return s.queryParticipants(ctx, "filter participants", query, args...)
}

// GetParticipant retrieves a participant by natural key.
func (s *SQLiteStore) GetParticipant(ctx context.Context, key models.ParticipantKey) (*models.Participant, error) {
	p := &models.Participant{}
	err := scanParticipant(s.db.QueryRowContext(ctx,
		"SELECT "+participantColumns+" FROM participants WHERE name = ? AND birth_date = ?",
		key.Name, key.BirthDate,
	), p)
	if err == sql.ErrNoRows {
		return nil, nil // Participant not found
	}
	if err != nil {
		return nil, &storage.StoreError{Op: "get participant", Err: err}
	}
	return p, nil
}

// AddParticipant inserts p unless the natural key is already taken.
func (s *SQLiteStore) AddParticipant(ctx context.Context, p *models.Participant) (bool, error) {
	var inserted bool
	err := s.withTx(ctx, "add participant", func(tx *sql.Tx) (bool, error) {
		var err error
		inserted, err = insertParticipant(ctx, tx, p)
		return inserted, err
	})
	return inserted, err
}

func insertParticipant(ctx context.Context, tx *sql.Tx, p *models.Participant) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO participants (`+participantColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (name, birth_date) DO NOTHING`,
		p.Name,
		p.BirthDate,
		string(p.Gender),
		p.Nickname,
		p.Phone,
		p.Location,
		p.Job,
		p.TypeCode,
		p.Intro,
		p.SignupRoute,
		p.FirstVisitDate,
		p.Memo,
	)
	if err != nil {
		return false, fmt.Errorf("insert participant: %w", err)
	}
	return rowsAffected(res)
}

// UpdateMemo replaces a participant's memo.
func (s *SQLiteStore) UpdateMemo(ctx context.Context, key models.ParticipantKey, memo string) error {
	return s.withTx(ctx, "update memo", func(tx *sql.Tx) (bool, error) {
		res, err := tx.ExecContext(ctx,
			"UPDATE participants SET memo = ? WHERE name = ? AND birth_date = ?",
			memo, key.Name, key.BirthDate,
		)
		if err != nil {
			return false, fmt.Errorf("update memo: %w", err)
		}
		updated, err := rowsAffected(res)
		if err != nil {
			return false, err
		}
		if !updated {
			return false, fmt.Errorf("participant %s (%s): %w", key.Name, key.BirthDate, storage.ErrNotFound)
		}
		return true, nil
	})
}

// DeleteParticipant removes a participant and their attendance.
func (s *SQLiteStore) DeleteParticipant(ctx context.Context, key models.ParticipantKey) error {
	return s.withTx(ctx, "delete participant", func(tx *sql.Tx) (bool, error) {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM attendance WHERE participant_name = ? AND participant_birth = ?",
			key.Name, key.BirthDate,
		)
		if err != nil {
			return false, fmt.Errorf("delete attendance: %w", err)
		}
		linksRemoved, err := rowsAffected(res)
		if err != nil {
			return false, err
		}

		res, err = tx.ExecContext(ctx,
			"DELETE FROM participants WHERE name = ? AND birth_date = ?",
			key.Name, key.BirthDate,
		)
		if err != nil {
			return false, fmt.Errorf("delete participant: %w", err)
		}
		removed, err := rowsAffected(res)
		if err != nil {
			return false, err
		}

		return linksRemoved || removed, nil
	})
}
