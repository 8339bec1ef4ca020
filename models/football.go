package models

type GoalType string

const (
	GoalRegular    GoalType = "goal"
	GoalOwn        GoalType = "own_goal"
	GoalPenalty    GoalType = "penalty"
	GoalDisallowed GoalType = "disallowed"
	GoalSaved      GoalType = "goal_saved"
)

// CountsTowardScore - засчитывается ли событие в счёт.
func (t GoalType) CountsTowardScore() bool {
	return t == GoalRegular || t == GoalOwn || t == GoalPenalty
}

type GoalEvent struct {
	Minute      int      `json:"minute"`
	Type        GoalType `json:"type"`
	ScorerID    string   `json:"scorerId,omitempty"`
	AssistID    string   `json:"assistId,omitempty"`
	TeamID      string   `json:"teamId"`
	Description string   `json:"description,omitempty"`
}

type CardEvent struct {
	Minute   int    `json:"minute"`
	PlayerID string `json:"playerId"`
	TeamID   string `json:"teamId"`
	Reason   string `json:"reason,omitempty"`
}

type Substitution struct {
	Minute      int    `json:"minute"`
	OutPlayerID string `json:"outPlayerId"`
	InPlayerID  string `json:"inPlayerId"`
	TeamID      string `json:"teamId"`
}

type PenaltyKick struct {
	PlayerID  string `json:"playerId,omitempty"`
	Converted bool   `json:"converted"`
	Order     int    `json:"order"`
	TeamID    string `json:"teamId"`
}

type FootballRules struct {
	HalfDurationMinutes int  `json:"halfDurationMinutes" yaml:"half_duration_minutes"`
	ExtraTime           bool `json:"extraTime" yaml:"extra_time"`
	Penalties           bool `json:"penalties" yaml:"penalties"`
}

type FootballState struct {
	CurrentHalf   int            `json:"currentHalf"`
	Score         TeamScore      `json:"score"`
	Goals         []GoalEvent    `json:"goals"`
	YellowCards   []CardEvent    `json:"yellowCards"`
	RedCards      []CardEvent    `json:"redCards"`
	Substitutions []Substitution `json:"substitutions"`
	Penalties     []PenaltyKick  `json:"penalties"`
	Rules         FootballRules  `json:"rules"`
}

// ShootoutScore считает реализованные пенальти послематчевой серии.
func (s *FootballState) ShootoutScore(teams [2]TeamRef) TeamScore {
	var score TeamScore
	for _, p := range s.Penalties {
		if !p.Converted {
			continue
		}
		if p.TeamID == teams[0].ID {
			score.Team1++
		} else if p.TeamID == teams[1].ID {
			score.Team2++
		}
	}
	return score
}
