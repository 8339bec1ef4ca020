package models

import "time"

// RallyEvent is one point-level entry of a game's rally log. PointTo is 1 or 2.
type RallyEvent struct {
	PlayerID  string    `json:"playerId,omitempty"`
	EventType string    `json:"eventType"`
	PointTo   int       `json:"pointTo"`
	Time      time.Time `json:"time"`
}

// Side returns the side index (0/1) that won the rally.
func (e RallyEvent) Side() int {
	return e.PointTo - 1
}

type RallyGame struct {
	Number       int          `json:"gameNumber"`
	Team1Points  int          `json:"team1Points"`
	Team2Points  int          `json:"team2Points"`
	WinnerTeamID *string      `json:"winnerTeamId"`
	RallyLog     []RallyEvent `json:"rallyLog"`
}

func (g *RallyGame) Points(side int) int {
	if side == 0 {
		return g.Team1Points
	}
	return g.Team2Points
}

func (g *RallyGame) AddPoint(side int) {
	if side == 0 {
		g.Team1Points++
	} else {
		g.Team2Points++
	}
}

// RallyRules: CapAt 0 means no cap, DecidingGamePoints 0 means the deciding
// game is played to PointsToWin.
type RallyRules struct {
	PointsToWin        int `json:"pointsToWin" yaml:"points_to_win"`
	WinBy              int `json:"winBy" yaml:"win_by"`
	CapAt              int `json:"capAt,omitempty" yaml:"cap_at"`
	DecidingGamePoints int `json:"decidingGamePoints,omitempty" yaml:"deciding_game_points"`
}

// RallyState - общий вариант для бадминтона, пиклбола и волейбола (партии/сеты).
type RallyState struct {
	BestOf      int         `json:"bestOf"`
	Games       []RallyGame `json:"games"`
	CurrentGame int         `json:"currentGame"`
	GamesWon    TeamScore   `json:"gamesWon"`
	Rules       RallyRules  `json:"rules"`
}

// Current returns the game accepting points (CurrentGame is 1-based).
func (s *RallyState) Current() *RallyGame {
	if s.CurrentGame < 1 || s.CurrentGame > len(s.Games) {
		return nil
	}
	return &s.Games[s.CurrentGame-1]
}
