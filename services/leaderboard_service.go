package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/live-scoring/models"
	"github.com/Dosada05/live-scoring/repositories"
	"github.com/Dosada05/live-scoring/sports"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

type LeaderboardService interface {
	Get(ctx context.Context, sport string) (*models.Leaderboard, error)
	All(ctx context.Context) ([]*models.Leaderboard, error)
}

type leaderboardService struct {
	registry *sports.Registry
	repo     repositories.MatchRepository
	group    singleflight.Group
	logger   *slog.Logger
}

func NewLeaderboardService(registry *sports.Registry, repo repositories.MatchRepository, logger *slog.Logger) LeaderboardService {
	return &leaderboardService{registry: registry, repo: repo, logger: logger}
}

func (s *leaderboardService) Get(ctx context.Context, sport string) (*models.Leaderboard, error) {
	rules, err := s.registry.Resolve(sport)
	if err != nil {
		return nil, translateSportsError(err)
	}

	// Одинаковые параллельные запросы выполняют один проход по матчам.
	v, err, shared := s.group.Do(string(rules.Sport()), func() (interface{}, error) {
		matches, err := s.repo.ListCompleted(ctx, rules.Collection())
		if err != nil {
			return nil, fmt.Errorf("failed to load completed %s matches: %w", rules.Sport(), err)
		}
		return &models.Leaderboard{
			Sport:   rules.Sport(),
			Entries: leaderboardFor(rules.Sport(), matches),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.DebugContext(ctx, "Leaderboard query shared", slog.String("sport", string(rules.Sport())))
	}
	return v.(*models.Leaderboard), nil
}

func (s *leaderboardService) All(ctx context.Context) ([]*models.Leaderboard, error) {
	supported := s.registry.Supported()
	boards := make([]*models.Leaderboard, len(supported))

	g, gctx := errgroup.WithContext(ctx)
	for i, sport := range supported {
		i, sport := i, sport
		g.Go(func() error {
			lb, err := s.Get(gctx, string(sport))
			if err != nil {
				return err
			}
			boards[i] = lb
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return boards, nil
}
