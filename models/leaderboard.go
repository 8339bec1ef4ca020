package models

// LeaderboardEntry - агрегированная статистика игрока по завершённым матчам.
// Goals заполняется для футбола, Points - для остальных видов спорта.
type LeaderboardEntry struct {
	PlayerID      string `json:"playerId"`
	TeamID        string `json:"teamId,omitempty"`
	MatchesPlayed int    `json:"matchesPlayed"`
	Goals         int    `json:"goals,omitempty"`
	Points        int    `json:"points,omitempty"`
}

// Metric returns the sport's primary ranking metric.
func (e LeaderboardEntry) Metric(sport Sport) int {
	if sport == SportFootball {
		return e.Goals
	}
	return e.Points
}

type Leaderboard struct {
	Sport   Sport              `json:"sport"`
	Entries []LeaderboardEntry `json:"entries"`
}
