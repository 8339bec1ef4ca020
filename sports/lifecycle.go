package sports

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dosada05/live-scoring/models"
)

// IsControlEvent reports whether eventType changes the match status rather
// than the score.
func IsControlEvent(eventType string) bool {
	switch eventType {
	case models.EventStartMatch, models.EventPauseMatch, models.EventResumeMatch, models.EventEndMatch:
		return true
	}
	return false
}

// Step applies one event to m: control events drive the status machine,
// everything else goes to r.Apply. Evaluate always runs afterwards.
// m is mutated in place; callers pass a clone.
func Step(r Rules, m *models.Match, eventType string, payload json.RawMessage, at time.Time) error {
	if m.Status.IsTerminal() {
		return fmt.Errorf("%w: status is %s", ErrMatchClosed, m.Status)
	}

	if IsControlEvent(eventType) {
		if err := transition(r, m, eventType); err != nil {
			return err
		}
		m.AppendFeed(models.FeedEntry{Type: eventType, CreatedAt: at})
	} else {
		if m.Status != models.StatusLive {
			return fmt.Errorf("%w: status is %s", ErrMatchNotLive, m.Status)
		}
		if err := r.Apply(m, eventType, payload, at); err != nil {
			return err
		}
	}

	r.Evaluate(m)
	m.UpdatedAt = at
	return nil
}

func transition(r Rules, m *models.Match, eventType string) error {
	from := m.Status
	switch {
	case eventType == models.EventStartMatch && from == models.StatusScheduled:
		m.Status = models.StatusLive
	case eventType == models.EventPauseMatch && from == models.StatusLive:
		m.Status = models.StatusPaused
	case eventType == models.EventResumeMatch && from == models.StatusPaused:
		m.Status = models.StatusLive
	case eventType == models.EventEndMatch && (from == models.StatusLive || from == models.StatusPaused):
		r.Finish(m)
	default:
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, eventType, from)
	}
	return nil
}

// Cancel closes a non-terminal match without a winner.
func Cancel(m *models.Match, at time.Time) error {
	if m.Status.IsTerminal() {
		return fmt.Errorf("%w: status is %s", ErrMatchClosed, m.Status)
	}
	m.Status = models.StatusCancelled
	m.Winner = nil
	m.AppendFeed(models.FeedEntry{Type: "cancel_match", CreatedAt: at})
	m.UpdatedAt = at
	return nil
}
