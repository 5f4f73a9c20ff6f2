package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/toastmixer/internal/cache"
	"github.com/mmynk/toastmixer/internal/importer"
	"github.com/mmynk/toastmixer/internal/matching"
	"github.com/mmynk/toastmixer/internal/middleware"
	"github.com/mmynk/toastmixer/internal/models"
	"github.com/mmynk/toastmixer/internal/roster"
	"github.com/mmynk/toastmixer/internal/storage/sqlite"
)

var testClock = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }

// setupTestServer serves both services over a fresh database, with caching on.
func setupTestServer(t *testing.T) *Client {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	repo := roster.New(store, roster.WithClock(testClock))
	engine := matching.NewEngine(repo, matching.WithClock(testClock))
	results := cache.New(64, time.Minute)

	interceptors := connect.WithInterceptors(middleware.MetricsInterceptor(), middleware.LoggingInterceptor())
	rosterPath, rosterHandler := NewRosterServiceHandler(NewRosterService(repo, results), interceptors)
	matchPath, matchHandler := NewMatchServiceHandler(NewMatchService(repo, engine, results), interceptors)

	mux := http.NewServeMux()
	mux.Handle(rosterPath, rosterHandler)
	mux.Handle(matchPath, matchHandler)

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return NewClient(http.DefaultClient, server.URL)
}

func createSession(t *testing.T, c *Client, date string) int64 {
	t.Helper()
	resp, err := Call[CreateSessionRequest, CreateSessionResponse](context.Background(), c,
		RosterServiceCreateSessionProcedure, &CreateSessionRequest{Date: date, Time: "19:30", Theme: "결혼"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return resp.Session.ID
}

func register(t *testing.T, c *Client, sessionID int64, name, birth string, g models.Gender) {
	t.Helper()
	_, err := Call[RegisterAttendeeRequest, RegisterAttendeeResponse](context.Background(), c,
		RosterServiceRegisterAttendeeProcedure, &RegisterAttendeeRequest{
			SessionID:   sessionID,
			Participant: &models.Participant{Name: name, BirthDate: birth, Gender: g, TypeCode: "ENFP"},
		})
	if err != nil {
		t.Fatalf("RegisterAttendee(%s) failed: %v", name, err)
	}
}

func TestCreateSession(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	resp, err := Call[CreateSessionRequest, CreateSessionResponse](ctx, client, RosterServiceCreateSessionProcedure,
		&CreateSessionRequest{Date: "2024-05-01", Time: "20:00", Theme: models.CustomTheme, CustomTheme: "보드게임", Host: "Jin"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	s := resp.Session
	if s.ID == 0 {
		t.Error("expected assigned session ID")
	}
	if s.Theme != "보드게임" {
		t.Errorf("theme: expected custom text, got %q", s.Theme)
	}
	if s.Status != models.DefaultSessionStatus {
		t.Errorf("status: expected %q, got %q", models.DefaultSessionStatus, s.Status)
	}

	list, err := Call[ListSessionsRequest, ListSessionsResponse](ctx, client, RosterServiceListSessionsProcedure, &ListSessionsRequest{})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(list.Sessions) != 1 || list.Sessions[0].ID != s.ID {
		t.Errorf("unexpected sessions %+v", list.Sessions)
	}
	if len(list.Themes) != len(models.Themes) {
		t.Errorf("expected %d themes, got %d", len(models.Themes), len(list.Themes))
	}
}

func TestAddParticipant_ValidationError(t *testing.T) {
	client := setupTestServer(t)

	_, err := Call[AddParticipantRequest, AddParticipantResponse](context.Background(), client,
		RosterServiceAddParticipantProcedure,
		&AddParticipantRequest{Participant: &models.Participant{Name: "Kim", BirthDate: "92", Gender: models.GenderMale}})
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}

	var cerr *connect.Error
	if !asConnectError(err, &cerr) {
		t.Fatal("expected a connect error")
	}
	if fields := cerr.Meta().Get(ValidationFieldsHeader); !strings.Contains(fields, "birthDate") {
		t.Errorf("expected birthDate in field header, got %q", fields)
	}
}

func TestMutationsOnMissingRows(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	_, err := Call[UpdateMemoRequest, UpdateMemoResponse](ctx, client, RosterServiceUpdateMemoProcedure,
		&UpdateMemoRequest{Identity: Identity{Name: "Ghost", BirthDate: "1990"}, Memo: "hi"})
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("UpdateMemo: expected NotFound, got %v", err)
	}

	_, err = Call[UpdateSessionStatusRequest, UpdateSessionStatusResponse](ctx, client, RosterServiceUpdateSessionStatusProcedure,
		&UpdateSessionStatusRequest{SessionID: 77, Status: "완료"})
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("UpdateSessionStatus: expected NotFound, got %v", err)
	}

	added, err := Call[AddAttendanceRequest, AddAttendanceResponse](ctx, client, RosterServiceAddAttendanceProcedure,
		&AddAttendanceRequest{SessionID: 77, Identity: Identity{Name: "Ghost", BirthDate: "1990"}})
	if err != nil {
		t.Fatalf("AddAttendance failed: %v", err)
	}
	if added.Added {
		t.Error("attendance to a missing session must be a no-op")
	}
}

func TestParticipantDetail(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	s1 := createSession(t, client, "2024-01-10")
	register(t, client, s1, "Kim", "1992", models.GenderMale)
	register(t, client, s1, "Lee", "1994", models.GenderFemale)

	resp, err := Call[ParticipantDetailRequest, ParticipantDetailResponse](ctx, client, RosterServiceParticipantDetailProcedure,
		&ParticipantDetailRequest{Identity{Name: "Kim", BirthDate: "1992"}})
	if err != nil {
		t.Fatalf("ParticipantDetail failed: %v", err)
	}
	if resp.Detail == nil {
		t.Fatal("expected detail")
	}
	if resp.Detail.VisitCount != 1 || len(resp.Detail.VisitHistory[0].MetPeople) != 1 {
		t.Errorf("unexpected history %+v", resp.Detail.VisitHistory)
	}

	// A cached detail must not survive a memo change.
	_, err = Call[UpdateMemoRequest, UpdateMemoResponse](ctx, client, RosterServiceUpdateMemoProcedure,
		&UpdateMemoRequest{Identity: Identity{Name: "Kim", BirthDate: "1992"}, Memo: "likes hiking"})
	if err != nil {
		t.Fatalf("UpdateMemo failed: %v", err)
	}
	resp, err = Call[ParticipantDetailRequest, ParticipantDetailResponse](ctx, client, RosterServiceParticipantDetailProcedure,
		&ParticipantDetailRequest{Identity{Name: "Kim", BirthDate: "1992"}})
	if err != nil {
		t.Fatalf("ParticipantDetail failed: %v", err)
	}
	if resp.Detail.Memo != "likes hiking" {
		t.Errorf("memo = %q, stale cache?", resp.Detail.Memo)
	}

	resp, err = Call[ParticipantDetailRequest, ParticipantDetailResponse](ctx, client, RosterServiceParticipantDetailProcedure,
		&ParticipantDetailRequest{Identity{Name: "Nobody", BirthDate: "1980"}})
	if err != nil {
		t.Fatalf("ParticipantDetail failed: %v", err)
	}
	if resp.Detail != nil {
		t.Errorf("expected absent detail, got %+v", resp.Detail)
	}
}

func TestMatchScenario(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	s1 := createSession(t, client, "2024-01-10")
	register(t, client, s1, "X", "1992", models.GenderMale)
	register(t, client, s1, "Y", "1994", models.GenderFemale)
	s2 := createSession(t, client, "2024-02-10")
	register(t, client, s2, "Z", "1993", models.GenderMale)

	dups, err := Call[FindDuplicatesRequest, FindDuplicatesResponse](ctx, client, MatchServiceFindDuplicatesProcedure,
		&FindDuplicatesRequest{SessionID: s1})
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}
	if len(dups.Duplicates) != 0 {
		t.Errorf("expected no duplicates, got %+v", dups.Duplicates)
	}

	rec, err := Call[RecommendRequest, RecommendResponse](ctx, client, MatchServiceRecommendProcedure,
		&RecommendRequest{SessionID: s1, Gender: models.GenderMale})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(rec.Candidates) != 1 || rec.Candidates[0].Name != "Z" {
		t.Fatalf("expected Z only, got %+v", rec.Candidates)
	}

	s3 := createSession(t, client, "2024-03-10")
	register(t, client, s3, "X", "1992", models.GenderMale)
	register(t, client, s3, "Z", "1993", models.GenderMale)

	// Same request as before: the cached answer must be dropped.
	rec, err = Call[RecommendRequest, RecommendResponse](ctx, client, MatchServiceRecommendProcedure,
		&RecommendRequest{SessionID: s1, Gender: models.GenderMale})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(rec.Candidates) != 0 {
		t.Errorf("Z met X in session 3 and must be excluded, got %+v", rec.Candidates)
	}

	if _, err := Call[AddAttendanceRequest, AddAttendanceResponse](ctx, client, RosterServiceAddAttendanceProcedure,
		&AddAttendanceRequest{SessionID: s1, Identity: Identity{Name: "Z", BirthDate: "1993"}}); err != nil {
		t.Fatalf("AddAttendance failed: %v", err)
	}

	dups, err = Call[FindDuplicatesRequest, FindDuplicatesResponse](ctx, client, MatchServiceFindDuplicatesProcedure,
		&FindDuplicatesRequest{SessionID: s3})
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}
	if len(dups.Duplicates) != 1 {
		t.Fatalf("expected one pair, got %+v", dups.Duplicates)
	}
	d := dups.Duplicates[0]
	if d.Person1 != "X" || d.Person2 != "Z" || len(d.SharedDates) != 1 || d.SharedDates[0] != "2024-01-10" {
		t.Errorf("unexpected pair %+v", d)
	}

	del, err := Call[DeleteSessionRequest, DeleteSessionResponse](ctx, client, RosterServiceDeleteSessionProcedure,
		&DeleteSessionRequest{SessionID: s1})
	if err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if len(del.Swept) != 1 || del.Swept[0].Name != "Y" {
		t.Errorf("expected Y swept, got %+v", del.Swept)
	}

	list, err := Call[ListParticipantsRequest, ListParticipantsResponse](ctx, client, RosterServiceListParticipantsProcedure, &ListParticipantsRequest{})
	if err != nil {
		t.Fatalf("ListParticipants failed: %v", err)
	}
	if len(list.Participants) != 2 {
		t.Errorf("expected X and Z to remain, got %d participants", len(list.Participants))
	}
}

func TestRecommend_RequestValidation(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()
	age := func(v int) *int { return &v }

	tests := []struct {
		name string
		req  *RecommendRequest
	}{
		{name: "missing gender", req: &RecommendRequest{SessionID: 1}},
		{name: "unknown gender", req: &RecommendRequest{SessionID: 1, Gender: "X"}},
		{name: "negative age", req: &RecommendRequest{SessionID: 1, Gender: models.GenderMale, AgeMin: age(-1)}},
		{name: "inverted range", req: &RecommendRequest{SessionID: 1, Gender: models.GenderMale, AgeMin: age(40), AgeMax: age(30)}},
		{name: "unknown sort", req: &RecommendRequest{SessionID: 1, Gender: models.GenderMale, SortBy: "name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Call[RecommendRequest, RecommendResponse](ctx, client, MatchServiceRecommendProcedure, tt.req)
			if connect.CodeOf(err) != connect.CodeInvalidArgument {
				t.Errorf("expected InvalidArgument, got %v", err)
			}
		})
	}
}

func TestRecommend_NoCurrentAttendeesAndSort(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	s1 := createSession(t, client, "2024-01-10")
	register(t, client, s1, "A", "1990", models.GenderFemale)
	s2 := createSession(t, client, "2024-02-10")
	register(t, client, s2, "B", "1991", models.GenderFemale)
	s3 := createSession(t, client, "2024-03-10")
	register(t, client, s3, "B", "1991", models.GenderFemale)
	empty := createSession(t, client, "2024-04-10")

	rec, err := Call[RecommendRequest, RecommendResponse](ctx, client, MatchServiceRecommendProcedure,
		&RecommendRequest{SessionID: empty, Gender: models.GenderFemale, SortBy: "visit_count"})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if !rec.NoCurrentAttendees {
		t.Error("expected NoCurrentAttendees for an empty session")
	}
	if len(rec.Candidates) != 2 || rec.Candidates[0].Name != "B" || rec.Candidates[0].VisitCount != 2 {
		t.Errorf("expected B first by visit count, got %+v", rec.Candidates)
	}

	rec, err = Call[RecommendRequest, RecommendResponse](ctx, client, MatchServiceRecommendProcedure,
		&RecommendRequest{SessionID: empty, Gender: models.GenderFemale, SortBy: "last_visit"})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if rec.Candidates[0].Name != "B" || rec.Candidates[0].LastVisit != "2024-03-10" {
		t.Errorf("expected B first by last visit, got %+v", rec.Candidates)
	}
}

func TestImportSheets(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	sheet := importer.Sheet{
		Title:  "20240315",
		Header: "7:30 PM - 결혼",
		Host:   "Jin",
		Rows: [][]string{
			{"남", "", "Kim", "010-1111-2222", "", "", "Seoul", "1992", "Engineer", "ENFP", "", ""},
			{"여", "", "Lee", "", "", "", "Busan", "1994", "Nurse", "ISTJ", "", ""},
		},
	}

	before, err := Call[DataVersionRequest, DataVersionResponse](ctx, client, RosterServiceDataVersionProcedure, &DataVersionRequest{})
	if err != nil {
		t.Fatalf("DataVersion failed: %v", err)
	}

	resp, err := Call[ImportSheetsRequest, ImportSheetsResponse](ctx, client, RosterServiceImportSheetsProcedure,
		&ImportSheetsRequest{Sheets: []importer.Sheet{sheet}})
	if err != nil {
		t.Fatalf("ImportSheets failed: %v", err)
	}
	if resp.Summary.Sheets != 1 || resp.Summary.Linked != 2 {
		t.Errorf("unexpected summary %+v", resp.Summary)
	}

	after, err := Call[DataVersionRequest, DataVersionResponse](ctx, client, RosterServiceDataVersionProcedure, &DataVersionRequest{})
	if err != nil {
		t.Fatalf("DataVersion failed: %v", err)
	}
	if after.Version <= before.Version {
		t.Errorf("data version did not advance: %d -> %d", before.Version, after.Version)
	}

	search, err := Call[SearchParticipantsRequest, ListParticipantsResponse](ctx, client, RosterServiceSearchParticipantsProcedure,
		&SearchParticipantsRequest{Term: "nurse"})
	if err != nil {
		t.Fatalf("SearchParticipants failed: %v", err)
	}
	if len(search.Participants) != 1 || search.Participants[0].Name != "Lee" {
		t.Errorf("expected Lee, got %+v", search.Participants)
	}

	sessions, err := Call[ListSessionsRequest, ListSessionsResponse](ctx, client, RosterServiceListSessionsProcedure, &ListSessionsRequest{})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	attendees, err := Call[ParticipantsOfSessionRequest, ParticipantsOfSessionResponse](ctx, client, RosterServiceParticipantsOfSessionProcedure,
		&ParticipantsOfSessionRequest{SessionID: sessions.Sessions[0].ID})
	if err != nil {
		t.Fatalf("ParticipantsOfSession failed: %v", err)
	}
	if len(attendees.Attendees) != 2 {
		t.Errorf("expected 2 attendees, got %d", len(attendees.Attendees))
	}
}
