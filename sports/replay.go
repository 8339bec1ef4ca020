package sports

import (
	"fmt"

	"github.com/Dosada05/live-scoring/models"
)

// Replay rebuilds a match by running events over a copy of initial.
// Replaying the same history twice yields identical documents.
func Replay(r Rules, initial *models.Match, events []models.RecordedEvent) (*models.Match, error) {
	m := initial.Clone()
	for i, ev := range events {
		if err := Step(r, m, ev.Type, ev.Payload, ev.At); err != nil {
			return nil, fmt.Errorf("event %d (%s): %w", i, ev.Type, err)
		}
	}
	return m, nil
}
