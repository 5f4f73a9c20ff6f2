package matching

import (
	"context"

	"github.com/mmynk/toastmixer/internal/metrics"
	"github.com/mmynk/toastmixer/internal/models"
)

// FindDuplicates lists the attendee pairs of a session who already shared
// another session. Sessions with fewer than two attendees, or unknown
// sessions, yield an empty list.
func (e *Engine) FindDuplicates(ctx context.Context, sessionID int64) ([]models.DuplicatePair, error) {
	keys, err := e.attendeeKeys(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	pairs, err := e.SharedSessions(ctx, keys, sessionID)
	if err != nil {
		return nil, err
	}

	duplicates := make([]models.DuplicatePair, 0, len(pairs))
	for _, p := range pairs {
		if len(p.Dates) == 0 {
			continue
		}
		duplicates = append(duplicates, models.DuplicatePair{
			Person1:      p.A.Name,
			Person1Birth: p.A.BirthDate,
			Person2:      p.B.Name,
			Person2Birth: p.B.BirthDate,
			SharedDates:  p.Dates,
		})
	}

	metrics.DuplicatePairsFound.Observe(float64(len(duplicates)))
	return duplicates, nil
}
