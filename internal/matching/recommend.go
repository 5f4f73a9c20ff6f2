package matching

import (
	"context"
	"fmt"
	"sort"

	"github.com/mmynk/toastmixer/internal/metrics"
	"github.com/mmynk/toastmixer/internal/models"
)

// Query selects recommendation candidates for a session.
type Query struct {
	SessionID int64
	Gender    models.Gender

	// AgeMin and AgeMax are optional ages in whole years, inclusive.
	AgeMin *int
	AgeMax *int

	// TypeFilter is matched case-sensitively against the type code.
	TypeFilter string
}

// Recommendation is the outcome of a recommendation query.
type Recommendation struct {
	Candidates []models.Candidate

	// NoCurrentAttendees is set when the session is unknown or empty. Nobody
	// was excluded, so Candidates holds every filter match.
	NoCurrentAttendees bool
}

// filter translates ages into a birth-year band anchored on the current year.
func (e *Engine) filter(q Query) models.ParticipantFilter {
	year := e.now().Year()
	f := models.ParticipantFilter{Gender: q.Gender, TypeContains: q.TypeFilter}
	if q.AgeMin != nil {
		f.BirthYearMax = year - *q.AgeMin
	}
	if q.AgeMax != nil {
		f.BirthYearMin = year - *q.AgeMax
	}
	return f
}

// Recommend returns participants matching the query filters who never
// shared a session with any current attendee, annotated with visit stats.
// The order of the candidates is unspecified.
func (e *Engine) Recommend(ctx context.Context, q Query) (*Recommendation, error) {
	pool, err := e.reader.FilterParticipants(ctx, e.filter(q))
	if err != nil {
		return nil, err
	}

	current, err := e.attendeeKeys(ctx, q.SessionID)
	if err != nil {
		return nil, err
	}

	excluded := make(map[models.ParticipantKey]bool, len(current))
	for _, k := range current {
		excluded[k] = true
	}
	if len(current) > 0 {
		met, err := e.reader.CoAttendants(ctx, current)
		if err != nil {
			return nil, err
		}
		for _, k := range met {
			excluded[k] = true
		}
	}

	survivors := make([]*models.Participant, 0, len(pool))
	keys := make([]models.ParticipantKey, 0, len(pool))
	for _, p := range pool {
		if excluded[p.Key()] {
			continue
		}
		survivors = append(survivors, p)
		keys = append(keys, p.Key())
	}

	stats, err := e.reader.VisitStats(ctx, keys)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(survivors))
	for _, p := range survivors {
		s := stats[p.Key()]
		candidates = append(candidates, models.Candidate{
			Participant: *p,
			VisitCount:  s.Count,
			LastVisit:   s.LastVisit,
		})
	}

	metrics.RecommendationCandidates.Observe(float64(len(candidates)))
	return &Recommendation{
		Candidates:         candidates,
		NoCurrentAttendees: len(current) == 0,
	}, nil
}

// Sort keys accepted by SortCandidates.
const (
	SortByLastVisit  = "last_visit"
	SortByVisitCount = "visit_count"
)

// SortCandidates orders candidates descending by the given key, breaking
// ties by name. An empty key leaves the slice untouched.
func SortCandidates(candidates []models.Candidate, key string) error {
	var less func(a, b models.Candidate) bool
	switch key {
	case "":
		return nil
	case SortByLastVisit:
		less = func(a, b models.Candidate) bool { return a.LastVisit > b.LastVisit }
	case SortByVisitCount:
		less = func(a, b models.Candidate) bool { return a.VisitCount > b.VisitCount }
	default:
		return fmt.Errorf("unknown sort key %q", key)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return a.Key().Less(b.Key())
	})
	return nil
}
