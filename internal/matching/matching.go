// Package matching answers the two questions asked about a session: which of
// its attendees already met, and who of a given gender has met none of them.
//
// Both are derived from the attendance history through bulk queries; no
// query is issued per attendee or per pair.
package matching

import (
	"context"
	"time"

	"github.com/mmynk/toastmixer/internal/models"
)

// Reader is the slice of the roster repository the engine reads through.
type Reader interface {
	ParticipantsOfSession(ctx context.Context, sessionID int64) ([]*models.SessionAttendee, error)
	FilterParticipants(ctx context.Context, f models.ParticipantFilter) ([]*models.Participant, error)
	AttendanceHistory(ctx context.Context, keys []models.ParticipantKey, excludeSessionID int64) ([]models.AttendanceRecord, error)
	CoAttendants(ctx context.Context, keys []models.ParticipantKey) ([]models.ParticipantKey, error)
	VisitStats(ctx context.Context, keys []models.ParticipantKey) (map[models.ParticipantKey]models.VisitStats, error)
}

// Engine runs duplicate detection and recommendation. It holds no state
// besides its reader and clock, so one Engine may serve concurrent callers.
type Engine struct {
	reader Reader
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock that anchors age filters to a calendar year.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an Engine reading through reader.
func NewEngine(reader Reader, opts ...Option) *Engine {
	e := &Engine{reader: reader, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// attendeeKeys returns the natural keys of a session's attendees.
func (e *Engine) attendeeKeys(ctx context.Context, sessionID int64) ([]models.ParticipantKey, error) {
	attendees, err := e.reader.ParticipantsOfSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	keys := make([]models.ParticipantKey, 0, len(attendees))
	for _, a := range attendees {
		keys = append(keys, a.Key())
	}
	return keys, nil
}
