package service

import (
	"context"
	"log/slog"
	"slices"

	"connectrpc.com/connect"

	"github.com/mmynk/toastmixer/internal/cache"
	"github.com/mmynk/toastmixer/internal/matching"
	"github.com/mmynk/toastmixer/internal/roster"
	"github.com/mmynk/toastmixer/internal/validation"
)

// MatchService implements the Connect MatchService.
type MatchService struct {
	repo   *roster.Repository
	engine *matching.Engine
	cache  *cache.Cache
}

// NewMatchService creates a MatchService. c may be nil to disable caching.
func NewMatchService(repo *roster.Repository, engine *matching.Engine, c *cache.Cache) *MatchService {
	return &MatchService{repo: repo, engine: engine, cache: c}
}

// FindDuplicates lists attendee pairs of a session who met before.
func (s *MatchService) FindDuplicates(ctx context.Context, req *connect.Request[FindDuplicatesRequest]) (*connect.Response[FindDuplicatesResponse], error) {
	slog.Info("FindDuplicates request received", "session_id", req.Msg.SessionID)

	resp, err := remember(ctx, s.cache, s.repo, "find_duplicates", req.Msg,
		func() (*FindDuplicatesResponse, error) {
			duplicates, err := s.engine.FindDuplicates(ctx, req.Msg.SessionID)
			if err != nil {
				return nil, err
			}
			return &FindDuplicatesResponse{Duplicates: duplicates}, nil
		})
	if err != nil {
		slog.Error("FindDuplicates failed", "session_id", req.Msg.SessionID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("FindDuplicates successful", "session_id", req.Msg.SessionID, "pairs", len(resp.Duplicates))

	return connect.NewResponse(resp), nil
}

// recommendKey is the cache identity of a recommendation; sorting is applied
// after the cache.
type recommendKey struct {
	SessionID  int64
	Gender     string
	AgeMin     *int
	AgeMax     *int
	TypeFilter string
}

// Recommend lists participants who never met any current attendee.
func (s *MatchService) Recommend(ctx context.Context, req *connect.Request[RecommendRequest]) (*connect.Response[RecommendResponse], error) {
	msg := req.Msg
	slog.Info("Recommend request received",
		"session_id", msg.SessionID,
		"gender", msg.Gender,
		"type_filter", msg.TypeFilter,
	)

	if err := validation.ValidateStruct(msg); err != nil {
		slog.Warn("Recommend rejected", "error", err)
		return nil, toConnectError(err)
	}
	if msg.AgeMin != nil && msg.AgeMax != nil && *msg.AgeMin > *msg.AgeMax {
		err := validation.NewError("ageMin", "ltefield", "ageMin must not exceed ageMax")
		slog.Warn("Recommend rejected", "error", err)
		return nil, toConnectError(err)
	}

	query := matching.Query{
		SessionID:  msg.SessionID,
		Gender:     msg.Gender,
		AgeMin:     msg.AgeMin,
		AgeMax:     msg.AgeMax,
		TypeFilter: msg.TypeFilter,
	}
	key := recommendKey{msg.SessionID, string(msg.Gender), msg.AgeMin, msg.AgeMax, msg.TypeFilter}

	rec, err := remember(ctx, s.cache, s.repo, "recommend", key,
		func() (*matching.Recommendation, error) {
			return s.engine.Recommend(ctx, query)
		})
	if err != nil {
		slog.Error("Recommend failed", "session_id", msg.SessionID, "error", err)
		return nil, toConnectError(err)
	}

	// Cached results are shared, sort a copy.
	candidates := slices.Clone(rec.Candidates)
	if err := matching.SortCandidates(candidates, msg.SortBy); err != nil {
		return nil, toConnectError(validation.NewError("sortBy", "oneof", err.Error()))
	}

	slog.Info("Recommend successful",
		"session_id", msg.SessionID,
		"candidates", len(candidates),
		"no_current_attendees", rec.NoCurrentAttendees,
	)

	return connect.NewResponse(&RecommendResponse{
		Candidates:         nonNil(candidates),
		NoCurrentAttendees: rec.NoCurrentAttendees,
	}), nil
}

// remember serves fn through the result cache at the current data version.
func remember[T any](ctx context.Context, c *cache.Cache, repo *roster.Repository, op string, params any, fn func() (T, error)) (T, error) {
	if c == nil {
		return fn()
	}

	version, err := repo.DataVersion(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return cache.Remember(c, op, version, params, fn)
}
