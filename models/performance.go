package models

import "time"

// PerformanceFilter ограничивает выборку матчей. Нулевой Since - все матчи.
type PerformanceFilter struct {
	Since time.Time `json:"since,omitempty"`
}

// PlayerPerformance - статистика игрока по завершённым матчам одного вида спорта.
// Футбольные и баскетбольные поля заполняются только для своих видов спорта,
// поля розыгрышей - для бадминтона, пиклбола, волейбола и тенниса.
type PlayerPerformance struct {
	PlayerID      string `json:"playerId"`
	Sport         Sport  `json:"sport"`
	MatchesPlayed int    `json:"matchesPlayed"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	Draws         int    `json:"draws"`
	MinsPlayed    int    `json:"minsPlayed"`

	Goals       int `json:"goals,omitempty"`
	Assists     int `json:"assists,omitempty"`
	YellowCards int `json:"yellowCards,omitempty"`
	RedCards    int `json:"redCards,omitempty"`

	Points int `json:"points,omitempty"`
	Fouls  int `json:"fouls,omitempty"`

	PointsWon        int            `json:"pointsWon,omitempty"`
	Winners          int            `json:"winners,omitempty"`
	Errors           int            `json:"errors,omitempty"`
	EventCounts      map[string]int `json:"eventCounts,omitempty"`
	ConsistencyScore float64        `json:"consistencyScore,omitempty"`
}

type TopPerformer struct {
	PlayerID string  `json:"playerId"`
	Name     string  `json:"name,omitempty"`
	Score    float64 `json:"score"`
	Goals    int     `json:"goals,omitempty"`
	Assists  int     `json:"assists,omitempty"`
	Points   int     `json:"points,omitempty"`
}

// MatchTrend - итог команды в одном матче, для графика последних игр.
type MatchTrend struct {
	MatchID    string    `json:"matchId"`
	Opponent   string    `json:"opponent,omitempty"`
	Result     string    `json:"result"`
	Goals      int       `json:"goals,omitempty"`
	Assists    int       `json:"assists,omitempty"`
	Points     int       `json:"points,omitempty"`
	MinsPlayed int       `json:"minsPlayed"`
	PlayedAt   time.Time `json:"playedAt"`
}

const (
	ResultWin  = "win"
	ResultLoss = "loss"
	ResultDraw = "draw"
)

type TeamPerformance struct {
	TeamID        string         `json:"teamId"`
	Sport         Sport          `json:"sport"`
	MatchesPlayed int            `json:"matchesPlayed"`
	MatchesWon    int            `json:"matchesWon"`
	MatchesLost   int            `json:"matchesLost"`
	MatchesDrawn  int            `json:"matchesDrawn"`
	TotalGoals    int            `json:"totalGoals"`
	TotalAssists  int            `json:"totalAssists"`
	TotalPoints   int            `json:"totalPoints"`
	Fouls         int            `json:"fouls"`
	MinsPlayed    int            `json:"minsPlayed"`
	WinRate       float64        `json:"winRate"`
	LossRate      float64        `json:"lossRate"`
	DrawRate      float64        `json:"drawRate"`
	TopPlayers    []TopPerformer `json:"topPlayers"`
	Trend         []MatchTrend   `json:"trend"`
}
