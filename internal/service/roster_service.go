package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/toastmixer/internal/cache"
	"github.com/mmynk/toastmixer/internal/importer"
	"github.com/mmynk/toastmixer/internal/models"
	"github.com/mmynk/toastmixer/internal/roster"
)

// RosterService implements the Connect RosterService.
type RosterService struct {
	repo     *roster.Repository
	importer *importer.Importer
	cache    *cache.Cache
}

// NewRosterService creates a RosterService over repo. c may be nil.
func NewRosterService(repo *roster.Repository, c *cache.Cache) *RosterService {
	return &RosterService{
		repo:     repo,
		importer: importer.New(repo),
		cache:    c,
	}
}

// ListParticipants returns the whole roster.
func (s *RosterService) ListParticipants(ctx context.Context, req *connect.Request[ListParticipantsRequest]) (*connect.Response[ListParticipantsResponse], error) {
	slog.Info("ListParticipants request received")

	participants, err := s.repo.ListParticipants(ctx)
	if err != nil {
		slog.Error("ListParticipants failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("ListParticipants successful", "count", len(participants))

	return connect.NewResponse(&ListParticipantsResponse{Participants: nonNil(participants)}), nil
}

// SearchParticipants matches a term against names and jobs.
func (s *RosterService) SearchParticipants(ctx context.Context, req *connect.Request[SearchParticipantsRequest]) (*connect.Response[ListParticipantsResponse], error) {
	slog.Info("SearchParticipants request received", "term", req.Msg.Term)

	participants, err := s.repo.SearchParticipants(ctx, req.Msg.Term)
	if err != nil {
		slog.Error("SearchParticipants failed", "term", req.Msg.Term, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("SearchParticipants successful", "count", len(participants))

	return connect.NewResponse(&ListParticipantsResponse{Participants: nonNil(participants)}), nil
}

// ListSessions returns sessions newest first along with the theme choices.
func (s *RosterService) ListSessions(ctx context.Context, req *connect.Request[ListSessionsRequest]) (*connect.Response[ListSessionsResponse], error) {
	slog.Info("ListSessions request received")

	sessions, err := s.repo.ListSessions(ctx)
	if err != nil {
		slog.Error("ListSessions failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("ListSessions successful", "count", len(sessions))

	return connect.NewResponse(&ListSessionsResponse{
		Sessions: nonNil(sessions),
		Themes:   models.Themes,
	}), nil
}

// ParticipantsOfSession lists a session's attendees.
func (s *RosterService) ParticipantsOfSession(ctx context.Context, req *connect.Request[ParticipantsOfSessionRequest]) (*connect.Response[ParticipantsOfSessionResponse], error) {
	slog.Info("ParticipantsOfSession request received", "session_id", req.Msg.SessionID)

	attendees, err := s.repo.ParticipantsOfSession(ctx, req.Msg.SessionID)
	if err != nil {
		slog.Error("ParticipantsOfSession failed", "session_id", req.Msg.SessionID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("ParticipantsOfSession successful", "session_id", req.Msg.SessionID, "count", len(attendees))

	return connect.NewResponse(&ParticipantsOfSessionResponse{Attendees: nonNil(attendees)}), nil
}

// AddParticipant registers a participant unless already on the roster.
func (s *RosterService) AddParticipant(ctx context.Context, req *connect.Request[AddParticipantRequest]) (*connect.Response[AddParticipantResponse], error) {
	p := req.Msg.Participant
	slog.Info("AddParticipant request received", "name", nameOf(p))

	inserted, err := s.repo.AddParticipant(ctx, p)
	if err != nil {
		slog.Error("AddParticipant failed", "name", nameOf(p), "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("AddParticipant successful", "name", nameOf(p), "inserted", inserted)

	return connect.NewResponse(&AddParticipantResponse{Inserted: inserted}), nil
}

// RegisterAttendee adds a participant and links them to a session.
func (s *RosterService) RegisterAttendee(ctx context.Context, req *connect.Request[RegisterAttendeeRequest]) (*connect.Response[RegisterAttendeeResponse], error) {
	p := req.Msg.Participant
	slog.Info("RegisterAttendee request received", "session_id", req.Msg.SessionID, "name", nameOf(p))

	if err := s.repo.RegisterAttendee(ctx, req.Msg.SessionID, p); err != nil {
		slog.Error("RegisterAttendee failed", "session_id", req.Msg.SessionID, "name", nameOf(p), "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("RegisterAttendee successful", "session_id", req.Msg.SessionID, "name", nameOf(p))

	return connect.NewResponse(&RegisterAttendeeResponse{}), nil
}

// CreateSession creates a session in the preparing state.
func (s *RosterService) CreateSession(ctx context.Context, req *connect.Request[CreateSessionRequest]) (*connect.Response[CreateSessionResponse], error) {
	slog.Info("CreateSession request received", "date", req.Msg.Date, "theme", req.Msg.Theme)

	session := &models.Session{
		Date:  strings.TrimSpace(req.Msg.Date),
		Time:  req.Msg.Time,
		Theme: models.ResolveTheme(req.Msg.Theme, req.Msg.CustomTheme),
		Host:  req.Msg.Host,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		slog.Error("CreateSession failed", "date", req.Msg.Date, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("CreateSession successful", "session_id", session.ID)

	return connect.NewResponse(&CreateSessionResponse{Session: session}), nil
}

// UpdateSessionStatus changes a session's status label.
func (s *RosterService) UpdateSessionStatus(ctx context.Context, req *connect.Request[UpdateSessionStatusRequest]) (*connect.Response[UpdateSessionStatusResponse], error) {
	slog.Info("UpdateSessionStatus request received", "session_id", req.Msg.SessionID, "status", req.Msg.Status)

	if err := s.repo.UpdateSessionStatus(ctx, req.Msg.SessionID, req.Msg.Status); err != nil {
		slog.Error("UpdateSessionStatus failed", "session_id", req.Msg.SessionID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("UpdateSessionStatus successful", "session_id", req.Msg.SessionID)

	return connect.NewResponse(&UpdateSessionStatusResponse{}), nil
}

// AddAttendance links an existing participant to a session.
func (s *RosterService) AddAttendance(ctx context.Context, req *connect.Request[AddAttendanceRequest]) (*connect.Response[AddAttendanceResponse], error) {
	slog.Info("AddAttendance request received", "session_id", req.Msg.SessionID, "name", req.Msg.Name)

	added, err := s.repo.AddAttendance(ctx, req.Msg.SessionID, req.Msg.Name, req.Msg.BirthDate)
	if err != nil {
		slog.Error("AddAttendance failed", "session_id", req.Msg.SessionID, "name", req.Msg.Name, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("AddAttendance successful", "session_id", req.Msg.SessionID, "added", added)

	return connect.NewResponse(&AddAttendanceResponse{Added: added}), nil
}

// RemoveAttendance unlinks a participant from a session.
func (s *RosterService) RemoveAttendance(ctx context.Context, req *connect.Request[RemoveAttendanceRequest]) (*connect.Response[RemoveAttendanceResponse], error) {
	slog.Info("RemoveAttendance request received", "session_id", req.Msg.SessionID, "name", req.Msg.Name)

	if err := s.repo.RemoveAttendance(ctx, req.Msg.SessionID, req.Msg.Name, req.Msg.BirthDate); err != nil {
		slog.Error("RemoveAttendance failed", "session_id", req.Msg.SessionID, "name", req.Msg.Name, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("RemoveAttendance successful", "session_id", req.Msg.SessionID)

	return connect.NewResponse(&RemoveAttendanceResponse{}), nil
}

// DeleteParticipant removes a participant and their attendance.
func (s *RosterService) DeleteParticipant(ctx context.Context, req *connect.Request[DeleteParticipantRequest]) (*connect.Response[DeleteParticipantResponse], error) {
	slog.Info("DeleteParticipant request received", "name", req.Msg.Name)

	if err := s.repo.DeleteParticipant(ctx, req.Msg.Name, req.Msg.BirthDate); err != nil {
		slog.Error("DeleteParticipant failed", "name", req.Msg.Name, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("DeleteParticipant successful", "name", req.Msg.Name)

	return connect.NewResponse(&DeleteParticipantResponse{}), nil
}

// DeleteSession removes a session and sweeps orphaned attendees.
func (s *RosterService) DeleteSession(ctx context.Context, req *connect.Request[DeleteSessionRequest]) (*connect.Response[DeleteSessionResponse], error) {
	slog.Info("DeleteSession request received", "session_id", req.Msg.SessionID)

	swept, err := s.repo.DeleteSession(ctx, req.Msg.SessionID)
	if err != nil {
		slog.Error("DeleteSession failed", "session_id", req.Msg.SessionID, "error", err)
		return nil, toConnectError(err)
	}

	resp := &DeleteSessionResponse{Swept: make([]Identity, len(swept))}
	for i, k := range swept {
		resp.Swept[i] = Identity{Name: k.Name, BirthDate: k.BirthDate}
	}

	slog.Info("DeleteSession successful", "session_id", req.Msg.SessionID, "swept", len(swept))

	return connect.NewResponse(resp), nil
}

// UpdateMemo replaces a participant's admin memo.
func (s *RosterService) UpdateMemo(ctx context.Context, req *connect.Request[UpdateMemoRequest]) (*connect.Response[UpdateMemoResponse], error) {
	slog.Info("UpdateMemo request received", "name", req.Msg.Name)

	if err := s.repo.UpdateMemo(ctx, req.Msg.Name, req.Msg.BirthDate, req.Msg.Memo); err != nil {
		slog.Error("UpdateMemo failed", "name", req.Msg.Name, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("UpdateMemo successful", "name", req.Msg.Name)

	return connect.NewResponse(&UpdateMemoResponse{}), nil
}

// ParticipantDetail returns a participant's profile and visit history.
func (s *RosterService) ParticipantDetail(ctx context.Context, req *connect.Request[ParticipantDetailRequest]) (*connect.Response[ParticipantDetailResponse], error) {
	slog.Info("ParticipantDetail request received", "name", req.Msg.Name)

	detail, err := remember(ctx, s.cache, s.repo, "participant_detail", req.Msg.Identity,
		func() (*models.ParticipantDetail, error) {
			return s.repo.ParticipantDetail(ctx, req.Msg.Name, req.Msg.BirthDate)
		})
	if err != nil {
		slog.Error("ParticipantDetail failed", "name", req.Msg.Name, "error", err)
		return nil, toConnectError(err)
	}

	if detail == nil {
		slog.Info("ParticipantDetail successful", "name", req.Msg.Name, "found", false)
	} else {
		slog.Info("ParticipantDetail successful", "name", req.Msg.Name, "visits", detail.VisitCount)
	}

	return connect.NewResponse(&ParticipantDetailResponse{Detail: detail}), nil
}

// DataVersion returns the roster change counter.
func (s *RosterService) DataVersion(ctx context.Context, req *connect.Request[DataVersionRequest]) (*connect.Response[DataVersionResponse], error) {
	version, err := s.repo.DataVersion(ctx)
	if err != nil {
		slog.Error("DataVersion failed", "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DataVersionResponse{Version: version}), nil
}

// ImportSheets loads exported attendance sheets, one transaction per sheet.
func (s *RosterService) ImportSheets(ctx context.Context, req *connect.Request[ImportSheetsRequest]) (*connect.Response[ImportSheetsResponse], error) {
	slog.Info("ImportSheets request received", "sheets", len(req.Msg.Sheets))

	summary, err := s.importer.Import(ctx, req.Msg.Sheets...)
	if err != nil {
		slog.Error("ImportSheets failed", "imported_sheets", summary.Sheets, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("ImportSheets successful",
		"sheets", summary.Sheets,
		"rows", summary.Rows,
		"linked", summary.Linked,
	)

	return connect.NewResponse(&ImportSheetsResponse{Summary: summary}), nil
}

func nameOf(p *models.Participant) string {
	if p == nil {
		return ""
	}
	return p.Name
}

// nonNil keeps empty lists as [] on the wire.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
