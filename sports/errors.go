package sports

import "errors"

var (
	ErrUnknownSport     = errors.New("unknown sport")
	ErrUnknownTeam      = errors.New("team does not belong to this match")
	ErrInvalidPayload   = errors.New("invalid event payload")
	ErrUnsupportedEvent = errors.New("unsupported event type for sport")
	ErrMissingState     = errors.New("match document has no state for its sport")
	ErrNoActivePeriod   = errors.New("no game or set is accepting points")

	// Ошибки жизненного цикла матча
	ErrMatchClosed       = errors.New("match is closed")
	ErrMatchNotLive      = errors.New("match is not live")
	ErrInvalidTransition = errors.New("invalid match status transition")
)
