package sports

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dosada05/live-scoring/models"
)

const (
	basketballScore      = "score"
	basketballFoul       = "foul"
	basketballTimeout    = "timeout"
	basketballQuarterEnd = "quarter_end"
)

// Очки за тип броска; "score" берёт очки из payload.
var basketballShotPoints = map[string]int{
	"1_pointer":  1,
	"free_throw": 1,
	"2_pointer":  2,
	"3_pointer":  3,
}

type basketballRules struct {
	defaults models.BasketballRules
}

func newBasketballRules(o *models.BasketballRules) *basketballRules {
	d := models.BasketballRules{Quarters: 4, QuarterDurationMins: 10}
	if o != nil {
		if o.Quarters > 0 {
			d.Quarters = o.Quarters
		}
		if o.QuarterDurationMins > 0 {
			d.QuarterDurationMins = o.QuarterDurationMins
		}
	}
	return &basketballRules{defaults: d}
}

func (r *basketballRules) Sport() models.Sport { return models.SportBasketball }

func (r *basketballRules) Collection() string { return collectionFor(models.SportBasketball) }

func (r *basketballRules) NewState(m *models.Match) {
	m.Basketball = &models.BasketballState{
		CurrentQuarter: 1,
		ScoreByQuarter: []models.TeamScore{{}},
		ScoreEvents:    []models.ScoreEvent{},
		Fouls:          []models.FoulEvent{},
		Timeouts:       []models.TimeoutEvent{},
		Rules:          r.defaults,
	}
}

func (r *basketballRules) CurrentPeriod(m *models.Match) int {
	if m.Basketball == nil {
		return 0
	}
	return m.Basketball.CurrentQuarter
}

// payload: { teamId, points, playerId, quarter, description?, time?, minute?, count? }
type basketballPayload struct {
	TeamID      string `json:"teamId"`
	Points      int    `json:"points"`
	PlayerID    string `json:"playerId"`
	Quarter     int    `json:"quarter"`
	Description string `json:"description"`
	Time        string `json:"time"`
	Minute      int    `json:"minute"`
	Count       int    `json:"count"`
}

func (r *basketballRules) Apply(m *models.Match, eventType string, payload json.RawMessage, at time.Time) error {
	st := m.Basketball
	if st == nil {
		return ErrMissingState
	}

	if eventType == basketballQuarterEnd {
		if st.CurrentQuarter < st.Rules.Quarters {
			st.CurrentQuarter++
			st.ScoreByQuarter = append(st.ScoreByQuarter, models.TeamScore{})
		} else {
			st.ClockExpired = true
		}
		m.AppendFeed(models.FeedEntry{Type: eventType, CreatedAt: at, Meta: map[string]interface{}{"quarter": st.CurrentQuarter}})
		return nil
	}

	var p basketballPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	side, err := SideOf(m, p.TeamID)
	if err != nil {
		return err
	}
	quarter := p.Quarter
	if quarter == 0 {
		quarter = st.CurrentQuarter
	}
	if quarter < 1 || quarter > st.CurrentQuarter {
		return fmt.Errorf("%w: quarter %d is not played yet", ErrInvalidPayload, quarter)
	}

	switch eventType {
	case basketballScore, "1_pointer", "free_throw", "2_pointer", "3_pointer":
		points, fixed := basketballShotPoints[eventType]
		if !fixed {
			points = p.Points
		}
		if points < 1 || points > 3 {
			return fmt.Errorf("%w: points must be 1, 2 or 3", ErrInvalidPayload)
		}
		st.TotalScore.Add(side, points)
		st.ScoreByQuarter[quarter-1].Add(side, points)
		st.ScoreEvents = append(st.ScoreEvents, models.ScoreEvent{
			Quarter:     quarter,
			Time:        p.Time,
			PlayerID:    p.PlayerID,
			TeamID:      p.TeamID,
			Points:      points,
			Description: p.Description,
		})
		m.AppendFeed(models.FeedEntry{
			Time: p.Time, Type: "score", Description: p.Description,
			TeamID: p.TeamID, PlayerID: p.PlayerID, CreatedAt: at,
			Meta: map[string]interface{}{"points": points, "quarter": quarter},
		})

	case basketballFoul:
		count := p.Count
		if count <= 0 {
			count = 1
		}
		st.Fouls = append(st.Fouls, models.FoulEvent{PlayerID: p.PlayerID, TeamID: p.TeamID, Quarter: quarter, Count: count})
		m.AppendFeed(models.FeedEntry{Type: eventType, TeamID: p.TeamID, PlayerID: p.PlayerID, CreatedAt: at})

	case basketballTimeout:
		st.Timeouts = append(st.Timeouts, models.TimeoutEvent{TeamID: p.TeamID, Quarter: quarter, Minute: p.Minute})
		m.AppendFeed(models.FeedEntry{Type: eventType, TeamID: p.TeamID, CreatedAt: at})

	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedEvent, eventType)
	}
	return nil
}

// Evaluate закрывает матч после последней четверти, если счёт не равный;
// при равенстве добавляется овертайм.
func (r *basketballRules) Evaluate(m *models.Match) {
	st := m.Basketball
	if st == nil {
		return
	}
	if m.Status == models.StatusCompleted {
		m.SetWinner(st.TotalScore.Leader())
		return
	}
	if !st.ClockExpired {
		return
	}
	st.ClockExpired = false
	if side := st.TotalScore.Leader(); side >= 0 {
		m.Complete(side)
		return
	}
	st.CurrentQuarter++
	st.ScoreByQuarter = append(st.ScoreByQuarter, models.TeamScore{})
}

func (r *basketballRules) Finish(m *models.Match) {
	m.Status = models.StatusCompleted
	r.Evaluate(m)
}
