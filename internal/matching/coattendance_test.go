package matching

import (
	"context"
	"reflect"
	"testing"

	"github.com/mmynk/toastmixer/internal/models"
)

func key(name, birth string) models.ParticipantKey {
	return models.ParticipantKey{Name: name, BirthDate: birth}
}

func TestBuildPairs(t *testing.T) {
	alice := key("Alice", "1990-01-01")
	bob := key("Bob", "1991-01-01")
	carol := key("Carol", "1992-01-01")
	bob2 := key("Bob", "1985-01-01")

	tests := []struct {
		name    string
		records []models.AttendanceRecord
		want    []Pair
	}{
		{
			name: "no history",
			want: []Pair{},
		},
		{
			name: "single attendee per session never pairs",
			records: []models.AttendanceRecord{
				{Participant: alice, SessionID: 1, SessionDate: "2024-01-01"},
				{Participant: bob, SessionID: 2, SessionDate: "2024-01-01"},
			},
			want: []Pair{},
		},
		{
			name: "pair canonicalized regardless of row order",
			records: []models.AttendanceRecord{
				{Participant: bob, SessionID: 1, SessionDate: "2024-02-01"},
				{Participant: alice, SessionID: 1, SessionDate: "2024-02-01"},
			},
			want: []Pair{{A: alice, B: bob, Dates: []string{"2024-02-01"}}},
		},
		{
			name: "dates merged, deduplicated and sorted",
			records: []models.AttendanceRecord{
				{Participant: alice, SessionID: 3, SessionDate: "2024-03-01"},
				{Participant: bob, SessionID: 3, SessionDate: "2024-03-01"},
				{Participant: alice, SessionID: 1, SessionDate: "2024-01-01"},
				{Participant: bob, SessionID: 1, SessionDate: "2024-01-01"},
				{Participant: alice, SessionID: 2, SessionDate: "2024-01-01"},
				{Participant: bob, SessionID: 2, SessionDate: "2024-01-01"},
			},
			want: []Pair{{A: alice, B: bob, Dates: []string{"2024-01-01", "2024-03-01"}}},
		},
		{
			name: "same date in different sessions is not a meeting",
			records: []models.AttendanceRecord{
				{Participant: alice, SessionID: 1, SessionDate: "2024-01-01"},
				{Participant: bob, SessionID: 2, SessionDate: "2024-01-01"},
				{Participant: carol, SessionID: 2, SessionDate: "2024-01-01"},
			},
			want: []Pair{{A: bob, B: carol, Dates: []string{"2024-01-01"}}},
		},
		{
			name: "three attendees yield three pairs ordered by key",
			records: []models.AttendanceRecord{
				{Participant: carol, SessionID: 1, SessionDate: "2024-01-01"},
				{Participant: bob, SessionID: 1, SessionDate: "2024-01-01"},
				{Participant: alice, SessionID: 1, SessionDate: "2024-01-01"},
			},
			want: []Pair{
				{A: alice, B: bob, Dates: []string{"2024-01-01"}},
				{A: alice, B: carol, Dates: []string{"2024-01-01"}},
				{A: bob, B: carol, Dates: []string{"2024-01-01"}},
			},
		},
		{
			name: "same name ordered by birth date",
			records: []models.AttendanceRecord{
				{Participant: bob, SessionID: 1, SessionDate: "2024-01-01"},
				{Participant: bob2, SessionID: 1, SessionDate: "2024-01-01"},
			},
			want: []Pair{{A: bob2, B: bob, Dates: []string{"2024-01-01"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildPairs(tt.records)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("buildPairs() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSharedSessions_FewerThanTwoTargets(t *testing.T) {
	reader := &fakeReader{}
	e := NewEngine(reader)

	pairs, err := e.SharedSessions(testContext(t), []models.ParticipantKey{key("Alice", "1990-01-01")}, 0)
	if err != nil {
		t.Fatalf("SharedSessions failed: %v", err)
	}
	if pairs != nil {
		t.Errorf("expected no pairs, got %+v", pairs)
	}
	if reader.historyCalls != 0 {
		t.Errorf("expected no history query, got %d", reader.historyCalls)
	}
}

// testContext mirrors testing.T.Context (Go 1.24+) for older toolchains.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
