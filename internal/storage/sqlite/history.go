package sqlite

import (
	"context"
	"fmt"

	"github.com/mmynk/toastmixer/internal/models"
	"github.com/mmynk/toastmixer/internal/storage"
)

// AttendanceHistory fetches, in one query, every attendance row of keys
// outside the excluded session, joined to the session date.
func (s *SQLiteStore) AttendanceHistory(ctx context.Context, keys []models.ParticipantKey, excludeSessionID int64) ([]models.AttendanceRecord, error) {
	keys = uniqueKeys(keys)
	if len(keys) == 0 {
		return nil, nil
	}

	cte, args := targetsCTE(keys)
	args = append(args, excludeSessionID)

	rows, err := s.db.QueryContext(ctx, cte+
		`SELECT a.participant_name, a.participant_birth, a.session_id, s.session_date
		 FROM attendance a
		 JOIN targets t ON a.participant_name = t.name AND a.participant_birth = t.birth
		 JOIN sessions s ON s.session_id = a.session_id
		 WHERE a.session_id != ?
		 ORDER BY a.session_id, a.participant_name, a.participant_birth`,
		args...,
	)
	if err != nil {
		return nil, &storage.StoreError{Op: "query attendance history", Err: err}
	}
	defer rows.Close()

	var records []models.AttendanceRecord
	for rows.Next() {
		var r models.AttendanceRecord
		if err := rows.Scan(&r.Participant.Name, &r.Participant.BirthDate, &r.SessionID, &r.SessionDate); err != nil {
			return nil, &storage.StoreError{Op: "query attendance history", Err: fmt.Errorf("scan record: %w", err)}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &storage.StoreError{Op: "query attendance history", Err: fmt.Errorf("iterate records: %w", err)}
	}

	return records, nil
}

// CoAttendants returns, in one query, everyone who ever shared a session with
// any of keys.
func (s *SQLiteStore) CoAttendants(ctx context.Context, keys []models.ParticipantKey) ([]models.ParticipantKey, error) {
	keys = uniqueKeys(keys)
	if len(keys) == 0 {
		return nil, nil
	}

	cte, args := targetsCTE(keys)
	rows, err := s.db.QueryContext(ctx, cte+
		`SELECT DISTINCT other.participant_name, other.participant_birth
		 FROM attendance mine
		 JOIN targets t ON mine.participant_name = t.name AND mine.participant_birth = t.birth
		 JOIN attendance other ON other.session_id = mine.session_id
		 ORDER BY other.participant_name, other.participant_birth`,
		args...,
	)
	if err != nil {
		return nil, &storage.StoreError{Op: "query co-attendants", Err: err}
	}
	defer rows.Close()

	var met []models.ParticipantKey
	for rows.Next() {
		var key models.ParticipantKey
		if err := rows.Scan(&key.Name, &key.BirthDate); err != nil {
			return nil, &storage.StoreError{Op: "query co-attendants", Err: fmt.Errorf("scan key: %w", err)}
		}
		met = append(met, key)
	}
	if err := rows.Err(); err != nil {
		return nil, &storage.StoreError{Op: "query co-attendants", Err: fmt.Errorf("iterate keys: %w", err)}
	}

	return met, nil
}

// VisitStats counts visits and finds the latest session date per key in one
// grouped query.
func (s *SQLiteStore) VisitStats(ctx context.Context, keys []models.ParticipantKey) (map[models.ParticipantKey]models.VisitStats, error) {
	stats := make(map[models.ParticipantKey]models.VisitStats)

	keys = uniqueKeys(keys)
	if len(keys) == 0 {
		return stats, nil
	}

	cte, args := targetsCTE(keys)
	rows, err := s.db.QueryContext(ctx, cte+
		`SELECT a.participant_name, a.participant_birth, COUNT(*), MAX(s.session_date)
		 FROM attendance a
		 JOIN targets t ON a.participant_name = t.name AND a.participant_birth = t.birth
		 JOIN sessions s ON s.session_id = a.session_id
		 GROUP BY a.participant_name, a.participant_birth`,
		args...,
	)
	if err != nil {
		return nil, &storage.StoreError{Op: "query visit stats", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key models.ParticipantKey
			vs  models.VisitStats
		)
		if err := rows.Scan(&key.Name, &key.BirthDate, &vs.Count, &vs.LastVisit); err != nil {
			return nil, &storage.StoreError{Op: "query visit stats", Err: fmt.Errorf("scan stats: %w", err)}
		}
		stats[key] = vs
	}
	if err := rows.Err(); err != nil {
		return nil, &storage.StoreError{Op: "query visit stats", Err: fmt.Errorf("iterate stats: %w", err)}
	}

	return stats, nil
}

// VisitHistory retrieves a participant's sessions and, with a second bulk
// query, the people met at each of them.
func (s *SQLiteStore) VisitHistory(ctx context.Context, key models.ParticipantKey) ([]models.Visit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.session_id, s.session_date, s.session_time, s.theme
		 FROM attendance a
		 JOIN sessions s ON a.session_id = s.session_id
		 WHERE a.participant_name = ? AND a.participant_birth = ?
		 ORDER BY s.session_date DESC, s.session_time DESC, s.session_id DESC`,
		key.Name, key.BirthDate,
	)
	if err != nil {
		return nil, &storage.StoreError{Op: "query visit history", Err: err}
	}

	var visits []models.Visit
	index := make(map[int64]int)
	for rows.Next() {
		v := models.Visit{MetPeople: []models.MetPerson{}}
		if err := rows.Scan(&v.SessionID, &v.SessionDate, &v.SessionTime, &v.Theme); err != nil {
			rows.Close()
			return nil, &storage.StoreError{Op: "query visit history", Err: fmt.Errorf("scan visit: %w", err)}
		}
		index[v.SessionID] = len(visits)
		visits = append(visits, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, &storage.StoreError{Op: "query visit history", Err: fmt.Errorf("iterate visits: %w", err)}
	}
	if len(visits) == 0 {
		return visits, nil
	}

	metRows, err := s.db.QueryContext(ctx,
		`SELECT other.session_id, p.name, p.gender
		 FROM attendance mine
		 JOIN attendance other ON other.session_id = mine.session_id
		 JOIN participants p ON p.name = other.participant_name
		                    AND p.birth_date = other.participant_birth
		 WHERE mine.participant_name = ? AND mine.participant_birth = ?
		   AND NOT (other.participant_name = ? AND other.participant_birth = ?)
		 ORDER BY other.session_id, p.name, p.birth_date`,
		key.Name, key.BirthDate, key.Name, key.BirthDate,
	)
	if err != nil {
		return nil, &storage.StoreError{Op: "query met people", Err: err}
	}
	defer metRows.Close()

	for metRows.Next() {
		var (
			sessionID int64
			person    models.MetPerson
			gender    string
		)
		if err := metRows.Scan(&sessionID, &person.Name, &gender); err != nil {
			return nil, &storage.StoreError{Op: "query met people", Err: fmt.Errorf("scan person: %w", err)}
		}
		person.Gender = models.Gender(gender)
		if i, ok := index[sessionID]; ok {
			visits[i].MetPeople = append(visits[i].MetPeople, person)
		}
	}
	if err := metRows.Err(); err != nil {
		return nil, &storage.StoreError{Op: "query met people", Err: fmt.Errorf("iterate people: %w", err)}
	}

	return visits, nil
}
