// Package storage provides abstractions for persistent roster storage.
package storage

import (
	"context"

	"github.com/mmynk/toastmixer/internal/models"
)

// ParticipantStore holds the participant roster.
type ParticipantStore interface {
	// ListParticipants returns every participant ordered by name, then birth date.
	ListParticipants(ctx context.Context) ([]*models.Participant, error)

	// SearchParticipants returns participants whose name or job contains term,
	// ignoring case.
	SearchParticipants(ctx context.Context, term string) ([]*models.Participant, error)

	// FilterParticipants returns participants matching every non-zero field of f.
	FilterParticipants(ctx context.Context, f models.ParticipantFilter) ([]*models.Participant, error)

	// GetParticipant returns nil, nil when no participant has the key.
	GetParticipant(ctx context.Context, key models.ParticipantKey) (*models.Participant, error)

	// AddParticipant inserts p unless its key already exists. Existing rows
	// are never overwritten. Reports whether a row was inserted.
	AddParticipant(ctx context.Context, p *models.Participant) (bool, error)

	// UpdateMemo replaces the memo. Returns ErrNotFound for an unknown key.
	UpdateMemo(ctx context.Context, key models.ParticipantKey, memo string) error

	// DeleteParticipant removes the participant and all of their attendance.
	DeleteParticipant(ctx context.Context, key models.ParticipantKey) error
}

// SessionStore holds sessions.
type SessionStore interface {
	// ListSessions returns sessions newest first (date, then time, descending).
	ListSessions(ctx context.Context) ([]*models.Session, error)

	// GetSession returns nil, nil for an unknown ID.
	GetSession(ctx context.Context, sessionID int64) (*models.Session, error)

	// CreateSession persists s and populates s.ID.
	CreateSession(ctx context.Context, s *models.Session) error

	// UpdateSessionStatus returns ErrNotFound for an unknown ID.
	UpdateSessionStatus(ctx context.Context, sessionID int64, status string) error

	// DeleteSession removes the session and its attendance, then deletes every
	// former attendee left with no attendance at all. It returns the swept keys.
	DeleteSession(ctx context.Context, sessionID int64) ([]models.ParticipantKey, error)
}

// AttendanceStore holds the participant/session links.
type AttendanceStore interface {
	// ParticipantsOfSession returns the attendees of a session ordered by name.
	// An unknown session yields an empty list.
	ParticipantsOfSession(ctx context.Context, sessionID int64) ([]*models.SessionAttendee, error)

	// AddAttendance links a participant to a session unless the link exists
	// or either side is missing. Reports whether a row was inserted.
	AddAttendance(ctx context.Context, sessionID int64, key models.ParticipantKey) (bool, error)

	// RegisterAttendee adds p (insert-or-ignore) and links it to the session in
	// one transaction. Returns ErrNotFound for an unknown session.
	RegisterAttendee(ctx context.Context, sessionID int64, p *models.Participant) error

	// RemoveAttendance unlinks a participant from a session.
	RemoveAttendance(ctx context.Context, sessionID int64, key models.ParticipantKey) error

	// ImportSession finds or creates s (matched on date, time, theme and host)
	// and attaches every participant with insert-or-ignore semantics, all in
	// one transaction. s.ID is populated. Returns the number of new links.
	ImportSession(ctx context.Context, s *models.Session, participants []*models.Participant) (int, error)
}

// HistoryStore answers the bulk attendance-history queries used by matching.
type HistoryStore interface {
	// AttendanceHistory returns every attendance row of the given participants
	// outside excludeSessionID (0 excludes nothing), joined to session dates.
	AttendanceHistory(ctx context.Context, keys []models.ParticipantKey, excludeSessionID int64) ([]models.AttendanceRecord, error)

	// CoAttendants returns everyone who shares at least one session with any
	// of keys. The keys themselves are included when they have attendance.
	CoAttendants(ctx context.Context, keys []models.ParticipantKey) ([]models.ParticipantKey, error)

	// VisitStats returns visit count and last visit date per key. Keys with no
	// attendance are absent from the map.
	VisitStats(ctx context.Context, keys []models.ParticipantKey) (map[models.ParticipantKey]models.VisitStats, error)

	// VisitHistory returns the sessions a participant attended, newest first,
	// each with the other attendees of that session.
	VisitHistory(ctx context.Context, key models.ParticipantKey) ([]models.Visit, error)
}

// Store defines the interface for roster storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the repository layer.
type Store interface {
	ParticipantStore
	SessionStore
	AttendanceStore
	HistoryStore

	// DataVersion returns a counter that increases with every committed change.
	DataVersion(ctx context.Context) (int64, error)

	// Close releases any resources held by the store.
	Close() error
}
