package sports

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dosada05/live-scoring/models"
)

const (
	footballHalfTime        = "half_time"
	footballNextPeriod      = "next_period"
	footballYellowCard      = "yellow_card"
	footballRedCard         = "red_card"
	footballSubstitution    = "substitution"
	footballPenaltyShootout = "penalty_shootout"
)

type footballRules struct {
	defaults models.FootballRules
}

func newFootballRules(o *models.FootballRules) *footballRules {
	d := models.FootballRules{HalfDurationMinutes: 45}
	if o != nil {
		d.ExtraTime = o.ExtraTime
		d.Penalties = o.Penalties
		if o.HalfDurationMinutes > 0 {
			d.HalfDurationMinutes = o.HalfDurationMinutes
		}
	}
	return &footballRules{defaults: d}
}

func (r *footballRules) Sport() models.Sport { return models.SportFootball }

func (r *footballRules) Collection() string { return collectionFor(models.SportFootball) }

func (r *footballRules) NewState(m *models.Match) {
	m.Football = &models.FootballState{
		CurrentHalf:   1,
		Goals:         []models.GoalEvent{},
		YellowCards:   []models.CardEvent{},
		RedCards:      []models.CardEvent{},
		Substitutions: []models.Substitution{},
		Penalties:     []models.PenaltyKick{},
		Rules:         r.defaults,
	}
}

func (r *footballRules) CurrentPeriod(m *models.Match) int {
	if m.Football == nil {
		return 0
	}
	return m.Football.CurrentHalf
}

// goal payload: { teamId, minute, playerId, assistId?, description? }.
// teamId is always the team whose score changes, own goals included.
type footballPayload struct {
	TeamID      string `json:"teamId"`
	Minute      int    `json:"minute"`
	PlayerID    string `json:"playerId"`
	AssistID    string `json:"assistId"`
	OutPlayerID string `json:"outPlayerId"`
	InPlayerID  string `json:"inPlayerId"`
	Reason      string `json:"reason"`
	Converted   bool   `json:"converted"`
	Description string `json:"description"`
}

func (r *footballRules) Apply(m *models.Match, eventType string, payload json.RawMessage, at time.Time) error {
	st := m.Football
	if st == nil {
		return ErrMissingState
	}

	if eventType == footballHalfTime || eventType == footballNextPeriod {
		maxHalf := 2
		if st.Rules.ExtraTime {
			maxHalf = 4
		}
		if st.CurrentHalf >= maxHalf {
			return fmt.Errorf("%w: no period after %d", ErrInvalidPayload, st.CurrentHalf)
		}
		st.CurrentHalf++
		m.AppendFeed(models.FeedEntry{Type: eventType, CreatedAt: at, Meta: map[string]interface{}{"half": st.CurrentHalf}})
		return nil
	}

	var p footballPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	if p.Minute < 0 {
		return fmt.Errorf("%w: minute must not be negative", ErrInvalidPayload)
	}
	side, err := SideOf(m, p.TeamID)
	if err != nil {
		return err
	}
	minute := fmt.Sprintf("%d'", p.Minute)

	switch eventType {
	case string(models.GoalRegular), string(models.GoalOwn), string(models.GoalPenalty),
		string(models.GoalDisallowed), string(models.GoalSaved):
		goal := models.GoalEvent{
			Minute:      p.Minute,
			Type:        models.GoalType(eventType),
			ScorerID:    p.PlayerID,
			AssistID:    p.AssistID,
			TeamID:      p.TeamID,
			Description: p.Description,
		}
		st.Goals = append(st.Goals, goal)
		if goal.Type.CountsTowardScore() {
			st.Score.Add(side, 1)
		}
		m.AppendFeed(models.FeedEntry{
			Time: minute, Type: eventType, Description: p.Description,
			TeamID: p.TeamID, PlayerID: p.PlayerID, CreatedAt: at,
			Meta: map[string]interface{}{"assistId": p.AssistID},
		})

	case footballYellowCard, footballRedCard:
		if p.PlayerID == "" {
			return fmt.Errorf("%w: playerId is required for %s", ErrInvalidPayload, eventType)
		}
		card := models.CardEvent{Minute: p.Minute, PlayerID: p.PlayerID, TeamID: p.TeamID, Reason: p.Reason}
		if eventType == footballYellowCard {
			st.YellowCards = append(st.YellowCards, card)
		} else {
			st.RedCards = append(st.RedCards, card)
		}
		m.AppendFeed(models.FeedEntry{
			Time: minute, Type: eventType, Description: p.Reason,
			TeamID: p.TeamID, PlayerID: p.PlayerID, CreatedAt: at,
		})

	case footballSubstitution:
		if p.OutPlayerID == "" || p.InPlayerID == "" {
			return fmt.Errorf("%w: outPlayerId and inPlayerId are required", ErrInvalidPayload)
		}
		st.Substitutions = append(st.Substitutions, models.Substitution{
			Minute: p.Minute, OutPlayerID: p.OutPlayerID, InPlayerID: p.InPlayerID, TeamID: p.TeamID,
		})
		m.AppendFeed(models.FeedEntry{
			Time: minute, Type: eventType, TeamID: p.TeamID, PlayerID: p.InPlayerID, CreatedAt: at,
			Meta: map[string]interface{}{"outPlayerId": p.OutPlayerID},
		})

	case footballPenaltyShootout:
		st.Penalties = append(st.Penalties, models.PenaltyKick{
			PlayerID:  p.PlayerID,
			Converted: p.Converted,
			Order:     len(st.Penalties) + 1,
			TeamID:    p.TeamID,
		})
		m.AppendFeed(models.FeedEntry{
			Type: eventType, TeamID: p.TeamID, PlayerID: p.PlayerID, CreatedAt: at,
			Meta: map[string]interface{}{"converted": p.Converted},
		})

	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedEvent, eventType)
	}
	return nil
}

// Evaluate: футбол не завершается по счёту, только по end_match. После
// завершения победитель выводится из счёта, а при ничьей - из серии пенальти.
func (r *footballRules) Evaluate(m *models.Match) {
	st := m.Football
	if st == nil || m.Status != models.StatusCompleted {
		return
	}
	winner := st.Score.Leader()
	if winner < 0 {
		winner = st.ShootoutScore(m.Teams).Leader()
	}
	m.SetWinner(winner)
}

func (r *footballRules) Finish(m *models.Match) {
	m.Status = models.StatusCompleted
	r.Evaluate(m)
}
