package service

import (
	"github.com/mmynk/toastmixer/internal/importer"
	"github.com/mmynk/toastmixer/internal/models"
)

// Identity names a participant by natural key.
type Identity struct {
	Name      string `json:"name"`
	BirthDate string `json:"birthDate"`
}

type ListParticipantsRequest struct{}

type ListParticipantsResponse struct {
	Participants []*models.Participant `json:"participants"`
}

type SearchParticipantsRequest struct {
	Term string `json:"term"`
}

type ListSessionsRequest struct{}

type ListSessionsResponse struct {
	Sessions []*models.Session `json:"sessions"`

	// Themes are the theme choices offered for a new session.
	Themes []string `json:"themes"`
}

type ParticipantsOfSessionRequest struct {
	SessionID int64 `json:"sessionId"`
}

type ParticipantsOfSessionResponse struct {
	Attendees []*models.SessionAttendee `json:"attendees"`
}

type AddParticipantRequest struct {
	Participant *models.Participant `json:"participant"`
}

type AddParticipantResponse struct {
	// Inserted is false when the participant was already on the roster.
	Inserted bool `json:"inserted"`
}

type RegisterAttendeeRequest struct {
	SessionID   int64               `json:"sessionId"`
	Participant *models.Participant `json:"participant"`
}

type RegisterAttendeeResponse struct{}

type CreateSessionRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`

	// Theme is one of the offered themes. Choosing "기타" stores CustomTheme.
	Theme       string `json:"theme"`
	CustomTheme string `json:"customTheme,omitempty"`

	Host string `json:"host"`
}

type CreateSessionResponse struct {
	Session *models.Session `json:"session"`
}

type UpdateSessionStatusRequest struct {
	SessionID int64  `json:"sessionId"`
	Status    string `json:"status"`
}

type UpdateSessionStatusResponse struct{}

type AddAttendanceRequest struct {
	SessionID int64 `json:"sessionId"`
	Identity
}

type AddAttendanceResponse struct {
	// Added is false when the link existed or either side is missing.
	Added bool `json:"added"`
}

type RemoveAttendanceRequest struct {
	SessionID int64 `json:"sessionId"`
	Identity
}

type RemoveAttendanceResponse struct{}

type DeleteParticipantRequest struct {
	Identity
}

type DeleteParticipantResponse struct{}

type DeleteSessionRequest struct {
	SessionID int64 `json:"sessionId"`
}

type DeleteSessionResponse struct {
	// Swept lists attendees removed because they had no other attendance.
	Swept []Identity `json:"swept"`
}

type UpdateMemoRequest struct {
	Identity
	Memo string `json:"memo"`
}

type UpdateMemoResponse struct{}

type ParticipantDetailRequest struct {
	Identity
}

type ParticipantDetailResponse struct {
	// Detail is absent for an unknown participant.
	Detail *models.ParticipantDetail `json:"detail,omitempty"`
}

type DataVersionRequest struct{}

type DataVersionResponse struct {
	Version int64 `json:"version"`
}

type ImportSheetsRequest struct {
	Sheets []importer.Sheet `json:"sheets"`
}

type ImportSheetsResponse struct {
	Summary importer.Summary `json:"summary"`
}

type FindDuplicatesRequest struct {
	SessionID int64 `json:"sessionId"`
}

type FindDuplicatesResponse struct {
	Duplicates []models.DuplicatePair `json:"duplicates"`
}

type RecommendRequest struct {
	SessionID int64         `json:"sessionId"`
	Gender    models.Gender `json:"gender" validate:"required,oneof=M F"`
	AgeMin    *int          `json:"ageMin,omitempty" validate:"omitempty,gte=0,lte=150"`
	AgeMax    *int          `json:"ageMax,omitempty" validate:"omitempty,gte=0,lte=150"`

	// TypeFilter is matched case-sensitively; callers normalize case.
	TypeFilter string `json:"typeFilter,omitempty" validate:"max=16"`

	// SortBy is "last_visit", "visit_count" or empty for store order.
	SortBy string `json:"sortBy,omitempty" validate:"omitempty,oneof=last_visit visit_count"`
}

type RecommendResponse struct {
	Candidates         []models.Candidate `json:"candidates"`
	NoCurrentAttendees bool               `json:"noCurrentAttendees"`
}
