package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/live-scoring/models"
	"github.com/Dosada05/live-scoring/repositories"
	"github.com/Dosada05/live-scoring/sports"
	"github.com/google/uuid"
)

// ErrMatchesListFailed - общая ошибка для листинга матчей
var ErrMatchesListFailed = errors.New("failed to list matches")

type CreateMatchInput struct {
	Sport           string            `json:"sport"`
	Title           string            `json:"title"`
	Format          string            `json:"format"`
	Tournament      bool              `json:"tournament"`
	Teams           [2]models.TeamRef `json:"teams"`
	StartAt         *time.Time        `json:"startAt"`
	DurationMinutes int               `json:"durationMinutes"`
	Location        string            `json:"location"`
	VenueID         string            `json:"venueId"`
	Referee         string            `json:"referee"`
	Scorers         []string          `json:"scoringUpdatedBy"`
}

type MatchService interface {
	Create(ctx context.Context, actor models.Identity, input CreateMatchInput) (*models.Match, error)
	Get(ctx context.Context, sport, matchID string) (*models.Match, error)
	ListBySport(ctx context.Context, sport string, status *models.MatchStatus) ([]*models.Match, error)
	Cancel(ctx context.Context, actor models.Identity, sport, matchID string) (*models.Match, error)
	SetScorers(ctx context.Context, actor models.Identity, sport, matchID string, scorers []string) (*models.Match, error)
}

type matchService struct {
	registry    *sports.Registry
	repo        repositories.MatchRepository
	broadcaster Broadcaster
	locks       *KeyedMutex
	logger      *slog.Logger
	now         func() time.Time
}

// NewMatchService shares locks with the scoring service so that management
// changes and scoring events on one match never interleave.
func NewMatchService(
	registry *sports.Registry,
	repo repositories.MatchRepository,
	broadcaster Broadcaster,
	locks *KeyedMutex,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		registry:    registry,
		repo:        repo,
		broadcaster: broadcaster,
		locks:       locks,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *matchService) Create(ctx context.Context, actor models.Identity, input CreateMatchInput) (*models.Match, error) {
	if !actor.CanManageMatches() {
		return nil, ErrForbiddenOperation
	}
	rules, err := s.registry.Resolve(input.Sport)
	if err != nil {
		return nil, translateSportsError(err)
	}
	if err := validateTeams(&input.Teams); err != nil {
		return nil, err
	}
	if input.DurationMinutes < 0 {
		return nil, fmt.Errorf("%w: durationMinutes must not be negative", ErrValidationFailed)
	}

	scorers := normalizeScorers(input.Scorers)
	if len(scorers) == 0 {
		scorers = []string{actor.UserID}
	}

	now := s.now()
	m := &models.Match{
		ID:               uuid.NewString(),
		Sport:            rules.Sport(),
		Format:           input.Format,
		Title:            strings.TrimSpace(input.Title),
		Tournament:       input.Tournament,
		StartAt:          input.StartAt,
		DurationMinutes:  input.DurationMinutes,
		Location:         input.Location,
		VenueID:          input.VenueID,
		Status:           models.StatusScheduled,
		Teams:            input.Teams,
		Referee:          input.Referee,
		CreatedBy:        actor.UserID,
		ScoringUpdatedBy: scorers,
		Feed:             []models.FeedEntry{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if m.Title == "" {
		m.Title = fmt.Sprintf("%s vs %s", m.Teams[0].Name, m.Teams[1].Name)
	}
	rules.NewState(m)

	if err := s.repo.Create(ctx, rules.Collection(), m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	s.logger.InfoContext(ctx, "Match created",
		slog.String("match_id", m.ID),
		slog.String("sport", string(m.Sport)),
		slog.String("created_by", actor.UserID),
	)
	return m, nil
}

// validateTeams requires two named, distinct teams and fills in missing ids.
func validateTeams(teams *[2]models.TeamRef) error {
	for i := range teams {
		t := &teams[i]
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			return fmt.Errorf("%w: team %d name is required", ErrValidationFailed, i+1)
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		for j := range t.Players {
			if t.Players[j].ID == "" {
				t.Players[j].ID = uuid.NewString()
			}
		}
	}
	if teams[0].ID == teams[1].ID {
		return fmt.Errorf("%w: teams must be different", ErrValidationFailed)
	}
	return nil
}

func normalizeScorers(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (s *matchService) Get(ctx context.Context, sport, matchID string) (*models.Match, error) {
	rules, err := s.registry.Resolve(sport)
	if err != nil {
		return nil, translateSportsError(err)
	}
	m, err := s.repo.GetByID(ctx, rules.Collection(), matchID)
	if err != nil {
		return nil, translateRepositoryError(err, matchID)
	}
	return m, nil
}

func (s *matchService) ListBySport(ctx context.Context, sport string, status *models.MatchStatus) ([]*models.Match, error) {
	rules, err := s.registry.Resolve(sport)
	if err != nil {
		return nil, translateSportsError(err)
	}
	if status != nil && !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidationFailed, *status)
	}
	matches, err := s.repo.ListBySport(ctx, rules.Collection(), status)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMatchesListFailed, rules.Sport(), err)
	}
	if matches == nil {
		return []*models.Match{}, nil
	}
	return matches, nil
}

func (s *matchService) Cancel(ctx context.Context, actor models.Identity, sport, matchID string) (*models.Match, error) {
	if actor.Role != models.RoleAdmin {
		return nil, ErrForbiddenOperation
	}
	return s.mutate(ctx, sport, matchID, func(m *models.Match) error {
		return translateSportsError(sports.Cancel(m, s.now()))
	})
}

func (s *matchService) SetScorers(ctx context.Context, actor models.Identity, sport, matchID string, scorers []string) (*models.Match, error) {
	if !actor.CanManageMatches() {
		return nil, ErrForbiddenOperation
	}
	ids := normalizeScorers(scorers)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one scorer is required", ErrValidationFailed)
	}
	return s.mutate(ctx, sport, matchID, func(m *models.Match) error {
		m.ScoringUpdatedBy = ids
		m.UpdatedAt = s.now()
		return nil
	})
}

// mutate applies fn to a fresh copy under the match lock, saves it and
// broadcasts the result. Version conflicts reload and re-apply.
func (s *matchService) mutate(ctx context.Context, sport, matchID string, fn func(m *models.Match) error) (*models.Match, error) {
	rules, err := s.registry.Resolve(sport)
	if err != nil {
		return nil, translateSportsError(err)
	}
	collection := rules.Collection()

	unlock := s.locks.Lock(lockKey(collection, matchID))
	defer unlock()

	const maxAttempts = 3
	for attempt := 1; ; attempt++ {
		current, err := s.repo.GetByID(ctx, collection, matchID)
		if err != nil {
			return nil, translateRepositoryError(err, matchID)
		}
		next := current.Clone()
		if err := fn(next); err != nil {
			return nil, err
		}
		err = s.repo.Save(ctx, collection, next)
		if err == nil {
			s.broadcaster.BroadcastToRoom(matchID, models.Broadcast{
				Type:    models.BroadcastMatchUpdated,
				Sport:   rules.Sport(),
				MatchID: next.ID,
				Version: next.Version,
				Match:   next,
			})
			return next, nil
		}
		if !errors.Is(err, repositories.ErrMatchVersionConflict) || attempt == maxAttempts {
			return nil, translateRepositoryError(err, matchID)
		}
	}
}
