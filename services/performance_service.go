package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/live-scoring/models"
	"github.com/Dosada05/live-scoring/repositories"
	"github.com/Dosada05/live-scoring/sports"
)

// PerformanceQuery: RangeDays 0 takes every completed match.
type PerformanceQuery struct {
	Sport     string
	ID        string
	RangeDays int
}

type PerformanceService interface {
	Player(ctx context.Context, q PerformanceQuery) (*models.PlayerPerformance, error)
	Team(ctx context.Context, q PerformanceQuery) (*models.TeamPerformance, error)
}

type performanceService struct {
	registry *sports.Registry
	repo     repositories.MatchRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewPerformanceService(registry *sports.Registry, repo repositories.MatchRepository, logger *slog.Logger) PerformanceService {
	return &performanceService{registry: registry, repo: repo, logger: logger, now: time.Now}
}

func (s *performanceService) Player(ctx context.Context, q PerformanceQuery) (*models.PlayerPerformance, error) {
	rules, matches, filter, err := s.load(ctx, q, "playerId")
	if err != nil {
		return nil, err
	}
	return PlayerPerformance(rules.Sport(), strings.TrimSpace(q.ID), matches, filter), nil
}

func (s *performanceService) Team(ctx context.Context, q PerformanceQuery) (*models.TeamPerformance, error) {
	rules, matches, filter, err := s.load(ctx, q, "teamId")
	if err != nil {
		return nil, err
	}
	return TeamPerformance(rules.Sport(), strings.TrimSpace(q.ID), matches, filter), nil
}

func (s *performanceService) load(ctx context.Context, q PerformanceQuery, idField string) (sports.Rules, []*models.Match, models.PerformanceFilter, error) {
	var filter models.PerformanceFilter
	if strings.TrimSpace(q.ID) == "" {
		return nil, nil, filter, fmt.Errorf("%w: %s is required", ErrValidationFailed, idField)
	}
	if q.RangeDays < 0 {
		return nil, nil, filter, fmt.Errorf("%w: range must not be negative", ErrValidationFailed)
	}
	rules, err := s.registry.Resolve(q.Sport)
	if err != nil {
		return nil, nil, filter, translateSportsError(err)
	}
	if q.RangeDays > 0 {
		filter.Since = s.now().AddDate(0, 0, -q.RangeDays)
	}

	matches, err := s.repo.ListCompleted(ctx, rules.Collection())
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load matches for performance",
			slog.String("sport", string(rules.Sport())),
			slog.String(idField, q.ID),
			slog.Any("error", err),
		)
		return nil, nil, filter, fmt.Errorf("failed to load completed %s matches: %w", rules.Sport(), err)
	}
	return rules, matches, filter, nil
}
