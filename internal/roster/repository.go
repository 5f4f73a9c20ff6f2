// Package roster is the typed repository over the record store. It is the
// only writer: every mutation is validated here, runs as one store
// transaction, and advances the data version that caching callers watch.
package roster

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/toastmixer/internal/metrics"
	"github.com/mmynk/toastmixer/internal/models"
	"github.com/mmynk/toastmixer/internal/storage"
	"github.com/mmynk/toastmixer/internal/validation"
)

// Repository exposes roster queries and mutations.
type Repository struct {
	store storage.Store
	now   func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the clock used for default first-visit dates.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// New creates a Repository over store.
func New(store storage.Store, opts ...Option) *Repository {
	r := &Repository{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// key is the boundary form of a participant identity.
type key struct {
	Name      string `json:"name" validate:"required,max=100"`
	BirthDate string `json:"birthDate" validate:"required,birthdate"`
}

// parseKey trims and validates an identity, expanding a bare birth year.
func parseKey(name, birthDate string) (models.ParticipantKey, error) {
	k := key{Name: strings.TrimSpace(name), BirthDate: strings.TrimSpace(birthDate)}
	if err := validation.ValidateStruct(&k); err != nil {
		return models.ParticipantKey{}, err
	}
	return models.ParticipantKey{Name: k.Name, BirthDate: models.NormalizeBirthDate(k.BirthDate)}, nil
}

// prepareParticipant returns a normalized, validated copy of p.
func (r *Repository) prepareParticipant(p *models.Participant) (*models.Participant, error) {
	if p == nil {
		return nil, validation.NewError("participant", "required", "participant is required")
	}

	out := *p
	out.Name = strings.TrimSpace(out.Name)
	out.BirthDate = strings.TrimSpace(out.BirthDate)
	if out.FirstVisitDate == "" {
		out.FirstVisitDate = r.now().Format(time.DateOnly)
	}

	if err := validation.ValidateStruct(&out); err != nil {
		return nil, err
	}
	out.BirthDate = models.NormalizeBirthDate(out.BirthDate)
	return &out, nil
}

// afterMutation records the outcome and refreshes the data version gauge.
func (r *Repository) afterMutation(ctx context.Context, op string, err error) {
	metrics.RecordMutation(op, err)
	if err != nil {
		return
	}
	if version, verr := r.store.DataVersion(ctx); verr == nil {
		metrics.RosterDataVersion.Set(float64(version))
	}
}

// DataVersion returns a counter that increases with every committed change.
// Callers caching query results compare it to detect staleness.
func (r *Repository) DataVersion(ctx context.Context) (int64, error) {
	return r.store.DataVersion(ctx)
}

// ListParticipants returns the whole roster ordered by name.
func (r *Repository) ListParticipants(ctx context.Context) ([]*models.Participant, error) {
	return r.store.ListParticipants(ctx)
}

// SearchParticipants matches term against name and job. An empty term lists everyone.
func (r *Repository) SearchParticipants(ctx context.Context, term string) ([]*models.Participant, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.store.ListParticipants(ctx)
	}
	return r.store.SearchParticipants(ctx, term)
}

// FilterParticipants returns participants matching f.
func (r *Repository) FilterParticipants(ctx context.Context, f models.ParticipantFilter) ([]*models.Participant, error) {
	return r.store.FilterParticipants(ctx, f)
}

// ListSessions returns sessions newest first.
func (r *Repository) ListSessions(ctx context.Context) ([]*models.Session, error) {
	return r.store.ListSessions(ctx)
}

// GetSession returns nil when the session does not exist.
func (r *Repository) GetSession(ctx context.Context, sessionID int64) (*models.Session, error) {
	if sessionID <= 0 {
		return nil, nil
	}
	return r.store.GetSession(ctx, sessionID)
}

// ParticipantsOfSession returns a session's attendees. Unknown sessions yield
// an empty list.
func (r *Repository) ParticipantsOfSession(ctx context.Context, sessionID int64) ([]*models.SessionAttendee, error) {
	if sessionID <= 0 {
		return nil, nil
	}
	return r.store.ParticipantsOfSession(ctx, sessionID)
}

// ParticipantDetail returns a participant with visit history, or nil when the
// participant does not exist.
func (r *Repository) ParticipantDetail(ctx context.Context, name, birthDate string) (*models.ParticipantDetail, error) {
	k, err := parseKey(name, birthDate)
	if err != nil {
		return nil, err
	}

	p, err := r.store.GetParticipant(ctx, k)
	if err != nil || p == nil {
		return nil, err
	}

	visits, err := r.store.VisitHistory(ctx, k)
	if err != nil {
		return nil, err
	}
	if visits == nil {
		visits = []models.Visit{}
	}

	return &models.ParticipantDetail{
		Participant:  *p,
		VisitHistory: visits,
		VisitCount:   len(visits),
	}, nil
}

// AttendanceHistory is the bulk history read used by co-attendance.
func (r *Repository) AttendanceHistory(ctx context.Context, keys []models.ParticipantKey, excludeSessionID int64) ([]models.AttendanceRecord, error) {
	return r.store.AttendanceHistory(ctx, keys, excludeSessionID)
}

// CoAttendants returns everyone who shared any session with any of keys.
func (r *Repository) CoAttendants(ctx context.Context, keys []models.ParticipantKey) ([]models.ParticipantKey, error) {
	return r.store.CoAttendants(ctx, keys)
}

// VisitStats returns visit counts and last visit dates.
func (r *Repository) VisitStats(ctx context.Context, keys []models.ParticipantKey) (map[models.ParticipantKey]models.VisitStats, error) {
	return r.store.VisitStats(ctx, keys)
}

// AddParticipant registers p unless (name, birth date) is already on the
// roster. Existing rows win: fields of a repeated registration are dropped.
func (r *Repository) AddParticipant(ctx context.Context, p *models.Participant) (inserted bool, err error) {
	defer func() { r.afterMutation(ctx, "add_participant", err) }()

	prepared, err := r.prepareParticipant(p)
	if err != nil {
		return false, err
	}

	inserted, err = r.store.AddParticipant(ctx, prepared)
	if err != nil {
		return false, err
	}
	slog.Debug("participant added", "name", prepared.Name, "birth_date", prepared.BirthDate, "inserted", inserted)
	return inserted, nil
}

// RegisterAttendee adds p to the roster if needed and links it to the session.
func (r *Repository) RegisterAttendee(ctx context.Context, sessionID int64, p *models.Participant) (err error) {
	defer func() { r.afterMutation(ctx, "register_attendee", err) }()

	prepared, err := r.prepareParticipant(p)
	if err != nil {
		return err
	}
	return r.store.RegisterAttendee(ctx, sessionID, prepared)
}

// CreateSession persists s and populates s.ID. Status defaults to "준비중".
func (r *Repository) CreateSession(ctx context.Context, s *models.Session) (err error) {
	defer func() { r.afterMutation(ctx, "create_session", err) }()

	if s == nil {
		return validation.NewError("session", "required", "session is required")
	}
	s.Time = strings.TrimSpace(s.Time)
	s.Theme = strings.TrimSpace(s.Theme)
	s.Host = strings.TrimSpace(s.Host)
	if s.Status == "" {
		s.Status = models.DefaultSessionStatus
	}
	if verr := validation.ValidateStruct(s); verr != nil {
		return verr
	}

	return r.store.CreateSession(ctx, s)
}

// UpdateSessionStatus changes a session's status label.
func (r *Repository) UpdateSessionStatus(ctx context.Context, sessionID int64, status string) (err error) {
	defer func() { r.afterMutation(ctx, "update_session_status", err) }()

	status = strings.TrimSpace(status)
	if status == "" {
		return validation.NewError("status", "required", "status is required")
	}
	return r.store.UpdateSessionStatus(ctx, sessionID, status)
}

// AddAttendance links an existing participant to a session. Repeating the
// call is a no-op.
func (r *Repository) AddAttendance(ctx context.Context, sessionID int64, name, birthDate string) (added bool, err error) {
	defer func() { r.afterMutation(ctx, "add_attendance", err) }()

	k, err := parseKey(name, birthDate)
	if err != nil {
		return false, err
	}
	return r.store.AddAttendance(ctx, sessionID, k)
}

// RemoveAttendance unlinks a participant from a session.
func (r *Repository) RemoveAttendance(ctx context.Context, sessionID int64, name, birthDate string) (err error) {
	defer func() { r.afterMutation(ctx, "remove_attendance", err) }()

	k, err := parseKey(name, birthDate)
	if err != nil {
		return err
	}
	return r.store.RemoveAttendance(ctx, sessionID, k)
}

// DeleteParticipant removes a participant and all of their attendance.
func (r *Repository) DeleteParticipant(ctx context.Context, name, birthDate string) (err error) {
	defer func() { r.afterMutation(ctx, "delete_participant", err) }()

	k, err := parseKey(name, birthDate)
	if err != nil {
		return err
	}
	return r.store.DeleteParticipant(ctx, k)
}

// DeleteSession removes a session and its attendance, then sweeps attendees
// left with no attendance anywhere. It returns the swept participants.
func (r *Repository) DeleteSession(ctx context.Context, sessionID int64) (swept []models.ParticipantKey, err error) {
	defer func() { r.afterMutation(ctx, "delete_session", err) }()

	swept, err = r.store.DeleteSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	metrics.OrphansSwept.Add(float64(len(swept)))
	if len(swept) > 0 {
		slog.Info("orphaned participants removed", "session_id", sessionID, "count", len(swept))
	}
	return swept, nil
}

// UpdateMemo replaces a participant's admin memo.
func (r *Repository) UpdateMemo(ctx context.Context, name, birthDate, memo string) (err error) {
	defer func() { r.afterMutation(ctx, "update_memo", err) }()

	k, err := parseKey(name, birthDate)
	if err != nil {
		return err
	}
	if len(memo) > 2000 {
		return validation.NewError("memo", "max", "memo must be at most 2000 characters")
	}
	return r.store.UpdateMemo(ctx, k, memo)
}

// ImportSession loads an imported session with insert-or-ignore semantics.
// The whole batch is rejected if any row fails validation.
func (r *Repository) ImportSession(ctx context.Context, s *models.Session, participants []*models.Participant) (linked int, err error) {
	defer func() { r.afterMutation(ctx, "import_session", err) }()

	if s == nil {
		return 0, validation.NewError("session", "required", "session is required")
	}
	if s.Status == "" {
		s.Status = models.DefaultSessionStatus
	}
	if verr := validation.ValidateStruct(s); verr != nil {
		return 0, verr
	}

	prepared := make([]*models.Participant, 0, len(participants))
	for _, p := range participants {
		pp, err := r.prepareParticipant(p)
		if err != nil {
			return 0, err
		}
		prepared = append(prepared, pp)
	}

	return r.store.ImportSession(ctx, s, prepared)
}
