package sports

import (
	"fmt"

	"github.com/Dosada05/live-scoring/models"
)

// SideOf returns the side index (0 or 1) of teamID. An id matching neither
// team is rejected instead of being attributed to the second side.
func SideOf(m *models.Match, teamID string) (int, error) {
	if teamID == "" {
		return -1, fmt.Errorf("%w: teamId is required", ErrInvalidPayload)
	}
	switch teamID {
	case m.Teams[0].ID:
		return 0, nil
	case m.Teams[1].ID:
		return 1, nil
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownTeam, teamID)
}

// sideFromPointTo переводит pointTo (1 или 2) в индекс стороны.
func sideFromPointTo(pointTo int) (int, error) {
	if pointTo != 1 && pointTo != 2 {
		return -1, fmt.Errorf("%w: pointTo must be 1 or 2, got %d", ErrInvalidPayload, pointTo)
	}
	return pointTo - 1, nil
}

func winsWithMargin(hi, lo, target, margin int) bool {
	return hi >= target && hi-lo >= margin
}

func leader(a, b int) (side, hi, lo int) {
	if a >= b {
		return 0, a, b
	}
	return 1, b, a
}
