package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/live-scoring/models"
	"github.com/Dosada05/live-scoring/repositories"
	"github.com/Dosada05/live-scoring/sports"
	"github.com/Dosada05/live-scoring/storage"
)

// Broadcaster delivers a message to every connection observing a room.
// The room of a match is its id.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

type EventInput struct {
	MatchID string
	Sport   string
	Type    string
	Payload json.RawMessage
	ActorID string
}

type ScoringService interface {
	// HandleEvent authorizes, applies and persists one event, then broadcasts
	// the updated match to the match room. On error nothing is broadcast.
	HandleEvent(ctx context.Context, in EventInput) (*models.Match, error)
	// Drain waits for background commentary and archive work.
	Drain()
}

type ScoringServiceConfig struct {
	MaxAttempts  int
	RetryBackoff time.Duration
	Clock        func() time.Time
}

type scoringService struct {
	registry    *sports.Registry
	repo        repositories.MatchRepository
	broadcaster Broadcaster
	commentary  CommentaryService
	archiver    storage.Archiver
	locks       *KeyedMutex
	logger      *slog.Logger

	maxAttempts int
	backoff     time.Duration
	now         func() time.Time

	background sync.WaitGroup
}

// NewScoringService wires the dispatcher. commentary and archiver may be nil.
func NewScoringService(
	registry *sports.Registry,
	repo repositories.MatchRepository,
	broadcaster Broadcaster,
	commentary CommentaryService,
	archiver storage.Archiver,
	locks *KeyedMutex,
	cfg ScoringServiceConfig,
	logger *slog.Logger,
) ScoringService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 50 * time.Millisecond
	}
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &scoringService{
		registry:    registry,
		repo:        repo,
		broadcaster: broadcaster,
		commentary:  commentary,
		archiver:    archiver,
		locks:       locks,
		logger:      logger,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.RetryBackoff,
		now:         cfg.Clock,
	}
}

func lockKey(collection, matchID string) string {
	return collection + "/" + matchID
}

func (s *scoringService) HandleEvent(ctx context.Context, in EventInput) (*models.Match, error) {
	in.MatchID = strings.TrimSpace(in.MatchID)
	in.Type = strings.TrimSpace(in.Type)
	if in.MatchID == "" {
		return nil, fmt.Errorf("%w: matchId is required", ErrValidationFailed)
	}
	if in.Type == "" {
		return nil, fmt.Errorf("%w: event type is required", ErrInvalidEventPayload)
	}
	if in.ActorID == "" {
		return nil, ErrNotAuthorized
	}

	rules, err := s.registry.Resolve(in.Sport)
	if err != nil {
		return nil, translateSportsError(err)
	}
	collection := rules.Collection()

	unlock := s.locks.Lock(lockKey(collection, in.MatchID))
	defer unlock()

	before, after, err := s.applyWithRetry(ctx, rules, collection, in)
	if err != nil {
		s.logger.InfoContext(ctx, "Event rejected",
			slog.String("match_id", in.MatchID),
			slog.String("sport", string(rules.Sport())),
			slog.String("event", in.Type),
			slog.String("actor_id", in.ActorID),
			slog.Any("error", err),
		)
		return nil, err
	}

	// Рассылка под замком матча: порядок сообщений совпадает с порядком коммитов.
	s.broadcaster.BroadcastToRoom(in.MatchID, models.Broadcast{
		Type:    models.BroadcastMatchUpdated,
		Sport:   rules.Sport(),
		MatchID: after.ID,
		Version: after.Version,
		Match:   after,
	})

	s.afterCommit(rules, before, after, in)
	return after, nil
}

// applyWithRetry loads, authorizes, mutates a clone and saves it. A version
// conflict reloads and re-applies; transient storage errors back off first.
func (s *scoringService) applyWithRetry(ctx context.Context, rules sports.Rules, collection string, in EventInput) (before, after *models.Match, err error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		current, err := s.repo.GetByID(ctx, collection, in.MatchID)
		if err != nil {
			if repositories.IsTransient(err) && attempt < s.maxAttempts {
				lastErr = err
				if waitErr := s.wait(ctx, attempt); waitErr != nil {
					return nil, nil, waitErr
				}
				continue
			}
			return nil, nil, translateRepositoryError(err, in.MatchID)
		}

		if !current.IsScorer(in.ActorID) {
			return nil, nil, fmt.Errorf("%w: match %s", ErrNotAuthorized, in.MatchID)
		}

		next := current.Clone()
		if err := sports.Step(rules, next, in.Type, in.Payload, s.now()); err != nil {
			return nil, nil, translateSportsError(err)
		}

		err = s.repo.Save(ctx, collection, next)
		if err == nil {
			return current, next, nil
		}
		lastErr = err
		switch {
		case errors.Is(err, repositories.ErrMatchVersionConflict):
			s.logger.DebugContext(ctx, "Version conflict, reapplying event",
				slog.String("match_id", in.MatchID), slog.Int("attempt", attempt))
		case repositories.IsTransient(err):
			if attempt < s.maxAttempts {
				if waitErr := s.wait(ctx, attempt); waitErr != nil {
					return nil, nil, waitErr
				}
			}
		default:
			return nil, nil, translateRepositoryError(err, in.MatchID)
		}
	}
	return nil, nil, fmt.Errorf("%w: match %s after %d attempts: %w", ErrPersistenceFailed, in.MatchID, s.maxAttempts, lastErr)
}

func (s *scoringService) wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(time.Duration(attempt) * s.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrPersistenceFailed, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// afterCommit starts work that must not delay the event: commentary for the
// room and archiving of a match that has just completed.
func (s *scoringService) afterCommit(rules sports.Rules, before, after *models.Match, in EventInput) {
	if s.commentary != nil && !sports.IsControlEvent(in.Type) {
		s.background.Add(1)
		go func() {
			defer s.background.Done()
			text := s.commentary.Describe(context.Background(), rules.Sport(), in.Type, in.Payload, after)
			if text == "" {
				return
			}
			s.broadcaster.BroadcastToRoom(in.MatchID, models.Broadcast{
				Type:       models.BroadcastMatchCommentary,
				Sport:      rules.Sport(),
				MatchID:    after.ID,
				Version:    after.Version,
				Commentary: text,
			})
		}()
	}

	if s.archiver != nil && before.Status != models.StatusCompleted && after.Status == models.StatusCompleted {
		s.background.Add(1)
		go func() {
			defer s.background.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			res, err := s.archiver.Archive(ctx, after)
			if err != nil {
				s.logger.Error("Failed to archive completed match", slog.String("match_id", after.ID), slog.Any("error", err))
				return
			}
			s.logger.Info("Completed match archived", slog.String("match_id", after.ID), slog.String("key", res.Key))
		}()
	}
}

func (s *scoringService) Drain() {
	s.background.Wait()
}
