package sports

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dosada05/live-scoring/models"
)

// Generic rally event types; the concrete kind of rally then comes from
// payload.eventType.
var genericRallyTypes = map[string]bool{
	"rally":        true,
	"point":        true,
	"point_scored": true,
}

// Закрытые словари типов розыгрыша.
var rallyVocabulary = map[models.Sport]map[string]bool{
	models.SportBadminton:  words("Smash", "Drop", "Net", "Out", "ServiceFault", "Ace", "Clear", "Drive", "Point"),
	models.SportPickleball: words("Ace", "Dink", "Drive", "Volley", "Lob", "Smash", "Net", "Out", "Fault", "Point"),
	models.SportVolleyball: words("Ace", "Attack", "Block", "Tip", "ServiceFault", "Net", "Out", "Error", "Point"),
	models.SportTennis:     words("Ace", "DoubleFault", "Winner", "UnforcedError", "ForcedError", "Volley", "Point"),
}

func words(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

// payload: { playerId, eventType, pointTo }
type rallyPayload struct {
	PlayerID  string `json:"playerId"`
	EventType string `json:"eventType"`
	PointTo   int    `json:"pointTo"`
}

// parseRally resolves the event type and side of a rally event.
func parseRally(sport models.Sport, eventType string, payload json.RawMessage, at time.Time) (models.RallyEvent, int, error) {
	vocab := rallyVocabulary[sport]

	var p rallyPayload
	if err := decodePayload(payload, &p); err != nil {
		return models.RallyEvent{}, -1, err
	}

	kind := eventType
	if genericRallyTypes[eventType] {
		kind = p.EventType
		if kind == "" {
			kind = "Point"
		}
	}
	if !vocab[kind] {
		return models.RallyEvent{}, -1, fmt.Errorf("%w: %q", ErrUnsupportedEvent, kind)
	}
	side, err := sideFromPointTo(p.PointTo)
	if err != nil {
		return models.RallyEvent{}, -1, err
	}
	return models.RallyEvent{PlayerID: p.PlayerID, EventType: kind, PointTo: p.PointTo, Time: at}, side, nil
}

type rallyRules struct {
	sport    models.Sport
	bestOf   int
	defaults models.RallyRules
}

func newRallyRules(sport models.Sport, bestOf int, d models.RallyRules, o *RallyOverrides) *rallyRules {
	if o != nil {
		if o.BestOf > 0 {
			bestOf = o.BestOf
		}
		if o.PointsToWin > 0 {
			d.PointsToWin = o.PointsToWin
		}
		if o.WinBy > 0 {
			d.WinBy = o.WinBy
		}
		if o.CapAt > 0 {
			d.CapAt = o.CapAt
		}
		if o.DecidingGamePoints > 0 {
			d.DecidingGamePoints = o.DecidingGamePoints
		}
	}
	return &rallyRules{sport: sport, bestOf: bestOf, defaults: d}
}

func (r *rallyRules) Sport() models.Sport { return r.sport }

func (r *rallyRules) Collection() string { return collectionFor(r.sport) }

func (r *rallyRules) NewState(m *models.Match) {
	m.SetRallyState(&models.RallyState{
		BestOf:      r.bestOf,
		Games:       []models.RallyGame{newRallyGame(1)},
		CurrentGame: 1,
		Rules:       r.defaults,
	})
}

func newRallyGame(number int) models.RallyGame {
	return models.RallyGame{Number: number, RallyLog: []models.RallyEvent{}}
}

func (r *rallyRules) CurrentPeriod(m *models.Match) int {
	st := m.RallyState()
	if st == nil {
		return 0
	}
	return st.CurrentGame
}

// Apply appends the rally to the current game's log, then credits the point.
func (r *rallyRules) Apply(m *models.Match, eventType string, payload json.RawMessage, at time.Time) error {
	st := m.RallyState()
	if st == nil {
		return ErrMissingState
	}
	game := st.Current()
	if game == nil || game.WinnerTeamID != nil {
		return ErrNoActivePeriod
	}
	rally, side, err := parseRally(r.sport, eventType, payload, at)
	if err != nil {
		return err
	}
	game.RallyLog = append(game.RallyLog, rally)
	game.AddPoint(side)
	return nil
}

func (r *rallyRules) Evaluate(m *models.Match) {
	st := m.RallyState()
	if st == nil {
		return
	}
	if m.Status == models.StatusCompleted {
		m.SetWinner(st.GamesWon.Leader())
		return
	}
	game := st.Current()
	if game == nil {
		return
	}
	if game.WinnerTeamID == nil {
		side, ok := rallyGameWinner(game, st)
		if !ok {
			return
		}
		id := m.TeamID(side)
		game.WinnerTeamID = &id
		st.GamesWon.Add(side, 1)
	}

	needed := st.BestOf/2 + 1
	if side := st.GamesWon.Leader(); side >= 0 && st.GamesWon.Get(side) >= needed {
		m.Complete(side)
		return
	}
	if st.CurrentGame == len(st.Games) {
		st.Games = append(st.Games, newRallyGame(len(st.Games)+1))
	}
	st.CurrentGame = len(st.Games)
}

// rallyGameWinner: first to target with the win-by margin; reaching the cap
// wins outright.
func rallyGameWinner(g *models.RallyGame, st *models.RallyState) (int, bool) {
	target := st.Rules.PointsToWin
	if g.Number == st.BestOf && st.Rules.DecidingGamePoints > 0 {
		target = st.Rules.DecidingGamePoints
	}
	side, hi, lo := leader(g.Points(0), g.Points(1))
	if hi == lo {
		return -1, false
	}
	if st.Rules.CapAt > 0 && hi >= st.Rules.CapAt {
		return side, true
	}
	if winsWithMargin(hi, lo, target, st.Rules.WinBy) {
		return side, true
	}
	return -1, false
}

func (r *rallyRules) Finish(m *models.Match) {
	m.Status = models.StatusCompleted
	r.Evaluate(m)
}
