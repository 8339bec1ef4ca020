package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/live-scoring/repositories"
	"github.com/Dosada05/live-scoring/sports"
)

// Общие ошибки, используемые в сервисах, HTTP-маппинге и websocket-ответах.
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrMatchNotFound    = errors.New("match not found")
	ErrUnknownSport     = errors.New("unknown sport")

	// Ошибки авторизации
	ErrNotAuthorized      = errors.New("user is not an authorized scorer for this match")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	// Ошибки жизненного цикла и событий
	ErrMatchClosed             = errors.New("match is closed")
	ErrMatchNotLive            = errors.New("match is not live")
	ErrInvalidStatusTransition = errors.New("invalid match status transition")
	ErrInvalidEventPayload     = errors.New("invalid event payload")

	ErrPersistenceFailed     = errors.New("failed to persist match")
	ErrCommentaryUnavailable = errors.New("commentary unavailable")
)

// translateSportsError maps rule-engine errors onto service errors, keeping
// the original in the chain.
func translateSportsError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sports.ErrUnknownSport):
		return fmt.Errorf("%w: %w", ErrUnknownSport, err)
	case errors.Is(err, sports.ErrMatchClosed):
		return fmt.Errorf("%w: %w", ErrMatchClosed, err)
	case errors.Is(err, sports.ErrMatchNotLive):
		return fmt.Errorf("%w: %w", ErrMatchNotLive, err)
	case errors.Is(err, sports.ErrInvalidTransition):
		return fmt.Errorf("%w: %w", ErrInvalidStatusTransition, err)
	case errors.Is(err, sports.ErrInvalidPayload),
		errors.Is(err, sports.ErrUnknownTeam),
		errors.Is(err, sports.ErrUnsupportedEvent),
		errors.Is(err, sports.ErrNoActivePeriod),
		errors.Is(err, sports.ErrMissingState):
		return fmt.Errorf("%w: %w", ErrInvalidEventPayload, err)
	}
	return err
}

func translateRepositoryError(err error, matchID string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrMatchNotFound):
		return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	case errors.Is(err, repositories.ErrInvalidCollection):
		return fmt.Errorf("%w: %w", ErrUnknownSport, err)
	}
	return fmt.Errorf("%w: match %s: %w", ErrPersistenceFailed, matchID, err)
}
