package matching

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/mmynk/toastmixer/internal/models"
	"github.com/mmynk/toastmixer/internal/roster"
	"github.com/mmynk/toastmixer/internal/storage/sqlite"
)

var clock = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }

func setupRoster(t *testing.T) (*roster.Repository, *Engine) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "roster.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	repo := roster.New(store, roster.WithClock(clock))
	return repo, NewEngine(repo, WithClock(clock))
}

func mustSession(t *testing.T, repo *roster.Repository, date string) int64 {
	t.Helper()
	s := &models.Session{Date: date, Time: "19:30"}
	if err := repo.CreateSession(context.Background(), s); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return s.ID
}

func mustAttend(t *testing.T, repo *roster.Repository, sessionID int64, p *models.Participant) {
	t.Helper()
	if err := repo.RegisterAttendee(context.Background(), sessionID, p); err != nil {
		t.Fatalf("RegisterAttendee(%d, %s) failed: %v", sessionID, p.Name, err)
	}
}

func candidateNames(r *Recommendation) map[string]models.Candidate {
	out := make(map[string]models.Candidate, len(r.Candidates))
	for _, c := range r.Candidates {
		out[c.Name] = c
	}
	return out
}

func TestScenario_DuplicatesAndRecommendation(t *testing.T) {
	repo, engine := setupRoster(t)
	ctx := context.Background()

	x := &models.Participant{Name: "X", BirthDate: "1992", Gender: models.GenderMale}
	y := &models.Participant{Name: "Y", BirthDate: "1994", Gender: models.GenderFemale}
	z := &models.Participant{Name: "Z", BirthDate: "1993", Gender: models.GenderMale}

	s1 := mustSession(t, repo, "2024-01-10")
	mustAttend(t, repo, s1, x)
	mustAttend(t, repo, s1, y)
	s2 := mustSession(t, repo, "2024-02-10")
	mustAttend(t, repo, s2, z)

	dups, err := engine.FindDuplicates(ctx, s1)
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}
	if len(dups) != 0 {
		t.Errorf("expected no duplicates, got %+v", dups)
	}

	// Z has never met X or Y yet.
	rec, err := engine.Recommend(ctx, Query{SessionID: s1, Gender: models.GenderMale})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	got := candidateNames(rec)
	if _, ok := got["X"]; ok {
		t.Error("current attendee X recommended")
	}
	zc, ok := got["Z"]
	if !ok {
		t.Fatalf("expected Z, got %+v", rec.Candidates)
	}
	if zc.VisitCount != 1 || zc.LastVisit != "2024-02-10" {
		t.Errorf("Z stats: got count=%d last=%s", zc.VisitCount, zc.LastVisit)
	}

	if _, err := repo.AddAttendance(ctx, s1, "Z", "1993"); err != nil {
		t.Fatalf("AddAttendance failed: %v", err)
	}
	s3 := mustSession(t, repo, "2024-03-10")
	mustAttend(t, repo, s3, x)
	mustAttend(t, repo, s3, z)

	dups, err = engine.FindDuplicates(ctx, s3)
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}
	want := []models.DuplicatePair{{
		Person1:      "X",
		Person1Birth: "1992-01-01",
		Person2:      "Z",
		Person2Birth: "1993-01-01",
		SharedDates:  []string{"2024-01-10"},
	}}
	if !reflect.DeepEqual(dups, want) {
		t.Errorf("FindDuplicates(s3) = %+v, want %+v", dups, want)
	}

	rec, err = engine.Recommend(ctx, Query{SessionID: s1, Gender: models.GenderMale})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(rec.Candidates) != 0 {
		t.Errorf("expected nobody left, got %+v", rec.Candidates)
	}

	swept, err := repo.DeleteSession(ctx, s1)
	if err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if len(swept) != 1 || swept[0].Name != "Y" {
		t.Errorf("expected Y swept, got %+v", swept)
	}

	all, err := repo.ListParticipants(ctx)
	if err != nil {
		t.Fatalf("ListParticipants failed: %v", err)
	}
	var names []string
	for _, p := range all {
		names = append(names, p.Name)
	}
	if !reflect.DeepEqual(names, []string{"X", "Z"}) {
		t.Errorf("remaining participants = %v, want [X Z]", names)
	}
}

func TestScenario_MeetingElsewhereExcludes(t *testing.T) {
	repo, engine := setupRoster(t)
	ctx := context.Background()

	x := &models.Participant{Name: "X", BirthDate: "1992", Gender: models.GenderMale}
	z := &models.Participant{Name: "Z", BirthDate: "1993", Gender: models.GenderMale}

	s1 := mustSession(t, repo, "2024-01-10")
	mustAttend(t, repo, s1, x)
	s3 := mustSession(t, repo, "2024-03-10")
	mustAttend(t, repo, s3, x)
	mustAttend(t, repo, s3, z)

	rec, err := engine.Recommend(ctx, Query{SessionID: s1, Gender: models.GenderMale})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(rec.Candidates) != 0 {
		t.Errorf("Z met X at another session and must be excluded, got %+v", rec.Candidates)
	}
}

func TestScenario_UnknownSession(t *testing.T) {
	repo, engine := setupRoster(t)
	ctx := context.Background()

	s := mustSession(t, repo, "2024-01-10")
	mustAttend(t, repo, s, &models.Participant{Name: "A", BirthDate: "1990", Gender: models.GenderFemale})

	dups, err := engine.FindDuplicates(ctx, 999)
	if err != nil || len(dups) != 0 {
		t.Errorf("FindDuplicates(unknown) = %+v, %v", dups, err)
	}

	rec, err := engine.Recommend(ctx, Query{SessionID: 999, Gender: models.GenderFemale})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if !rec.NoCurrentAttendees {
		t.Error("expected NoCurrentAttendees for unknown session")
	}
	if len(rec.Candidates) != 1 || rec.Candidates[0].VisitCount != 1 {
		t.Errorf("expected A with one visit, got %+v", rec.Candidates)
	}
}

// TestProperties checks the matching invariants against a brute-force model
// over a randomly generated history.
func TestProperties(t *testing.T) {
	repo, engine := setupRoster(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	var people []*models.Participant
	for i := 0; i < 24; i++ {
		g := models.GenderMale
		if i%2 == 1 {
			g = models.GenderFemale
		}
		people = append(people, &models.Participant{
			Name:      fmt.Sprintf("P%02d", i),
			BirthDate: fmt.Sprintf("%d", 1980+rng.Intn(20)),
			Gender:    g,
			TypeCode:  []string{"ENFP", "INTJ", "ESTJ", "ISFP"}[rng.Intn(4)],
		})
	}

	// attended[session] -> participant indexes
	attended := make(map[int64]map[int]bool)
	var sessions []int64
	for i := 0; i < 8; i++ {
		// Several sessions share a date on purpose.
		id := mustSession(t, repo, fmt.Sprintf("2024-%02d-01", 1+i/2))
		sessions = append(sessions, id)
		attended[id] = make(map[int]bool)
		for j := range people {
			if rng.Intn(4) == 0 {
				mustAttend(t, repo, id, people[j])
				attended[id][j] = true
			}
		}
	}

	met := func(a, b int) []string {
		var dates []string
		for _, s := range sessions {
			if attended[s][a] && attended[s][b] {
				dates = append(dates, s2date(s, sessions))
			}
		}
		return dates
	}

	ageMin, ageMax := 30, 40
	year := clock().Year()

	for _, s := range sessions {
		dups, err := engine.FindDuplicates(ctx, s)
		if err != nil {
			t.Fatalf("FindDuplicates failed: %v", err)
		}
		seen := make(map[string]bool)
		for _, d := range dups {
			if d.Person1 > d.Person2 {
				t.Errorf("pair not canonical: %+v", d)
			}
			pk := d.Person1 + "|" + d.Person2
			if seen[pk] {
				t.Errorf("pair reported twice: %s", pk)
			}
			seen[pk] = true
			for i := 1; i < len(d.SharedDates); i++ {
				if d.SharedDates[i-1] >= d.SharedDates[i] {
					t.Errorf("dates not strictly ascending: %v", d.SharedDates)
				}
			}
		}

		for _, g := range []models.Gender{models.GenderMale, models.GenderFemale} {
			rec, err := engine.Recommend(ctx, Query{SessionID: s, Gender: g, AgeMin: &ageMin, AgeMax: &ageMax})
			if err != nil {
				t.Fatalf("Recommend failed: %v", err)
			}
			for _, c := range rec.Candidates {
				ci := indexOf(people, c.Name)
				if attended[s][ci] {
					t.Errorf("session %d: current attendee %s recommended", s, c.Name)
				}
				for m := range attended[s] {
					if len(met(ci, m)) > 0 {
						t.Errorf("session %d: %s already met %s", s, c.Name, people[m].Name)
					}
				}
				if age := year - c.BirthYear(); age < ageMin || age > ageMax {
					t.Errorf("session %d: %s age %d outside [%d, %d]", s, c.Name, age, ageMin, ageMax)
				}
				if c.Gender != g {
					t.Errorf("session %d: %s has gender %s, want %s", s, c.Name, c.Gender, g)
				}
			}
		}
	}
}

func s2date(id int64, sessions []int64) string {
	for i, s := range sessions {
		if s == id {
			return fmt.Sprintf("2024-%02d-01", 1+i/2)
		}
	}
	return ""
}

func indexOf(people []*models.Participant, name string) int {
	for i, p := range people {
		if p.Name == name {
			return i
		}
	}
	return -1
}
