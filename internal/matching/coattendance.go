package matching

import (
	"context"
	"sort"

	"github.com/mmynk/toastmixer/internal/models"
)

// Pair is two participants and the dates of the sessions they shared.
// A always orders before B.
type Pair struct {
	A     models.ParticipantKey
	B     models.ParticipantKey
	Dates []string
}

// SharedSessions returns every pair among targets that attended a common
// session other than excludeSessionID (0 excludes nothing). Pairs are
// ordered by (A, B); each pair's dates are distinct and ascending.
func (e *Engine) SharedSessions(ctx context.Context, targets []models.ParticipantKey, excludeSessionID int64) ([]Pair, error) {
	if len(targets) < 2 {
		return nil, nil
	}

	records, err := e.reader.AttendanceHistory(ctx, targets, excludeSessionID)
	if err != nil {
		return nil, err
	}
	return buildPairs(records), nil
}

type pairKey struct {
	a, b models.ParticipantKey
}

// buildPairs groups history rows by session and emits every pairwise
// combination within a group as a meeting on that session's date.
func buildPairs(records []models.AttendanceRecord) []Pair {
	type group struct {
		date    string
		members []models.ParticipantKey
	}

	groups := make(map[int64]*group)
	for _, r := range records {
		g, ok := groups[r.SessionID]
		if !ok {
			g = &group{date: r.SessionDate}
			groups[r.SessionID] = g
		}
		g.members = append(g.members, r.Participant)
	}

	dates := make(map[pairKey]map[string]bool)
	for _, g := range groups {
		for i := 0; i < len(g.members); i++ {
			for j := i + 1; j < len(g.members); j++ {
				a, b := g.members[i], g.members[j]
				if a == b {
					continue
				}
				if b.Less(a) {
					a, b = b, a
				}
				k := pairKey{a, b}
				if dates[k] == nil {
					dates[k] = make(map[string]bool)
				}
				dates[k][g.date] = true
			}
		}
	}

	pairs := make([]Pair, 0, len(dates))
	for k, set := range dates {
		p := Pair{A: k.a, B: k.b, Dates: make([]string, 0, len(set))}
		for d := range set {
			p.Dates = append(p.Dates, d)
		}
		sort.Strings(p.Dates)
		pairs = append(pairs, p)
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A.Less(pairs[j].A)
		}
		return pairs[i].B.Less(pairs[j].B)
	})
	return pairs
}
