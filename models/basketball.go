package models

type ScoreEvent struct {
	Quarter     int    `json:"quarter"`
	Time        string `json:"time,omitempty"`
	PlayerID    string `json:"playerId,omitempty"`
	TeamID      string `json:"teamId"`
	Points      int    `json:"points"`
	Description string `json:"description,omitempty"`
}

type FoulEvent struct {
	PlayerID string `json:"playerId,omitempty"`
	TeamID   string `json:"teamId"`
	Quarter  int    `json:"quarter"`
	Count    int    `json:"count"`
}

type TimeoutEvent struct {
	TeamID  string `json:"teamId"`
	Quarter int    `json:"quarter"`
	Minute  int    `json:"minute"`
}

type BasketballRules struct {
	Quarters            int `json:"quarters" yaml:"quarters"`
	QuarterDurationMins int `json:"quarterDurationMins" yaml:"quarter_duration_mins"`
}

// BasketballState - quarters beyond Rules.Quarters are overtime periods.
type BasketballState struct {
	CurrentQuarter int             `json:"currentQuarter"`
	ScoreByQuarter []TeamScore     `json:"scoreByQuarter"`
	TotalScore     TeamScore       `json:"totalScore"`
	ScoreEvents    []ScoreEvent    `json:"scoreEvents"`
	Fouls          []FoulEvent     `json:"fouls"`
	Timeouts       []TimeoutEvent  `json:"timeouts"`
	ClockExpired   bool            `json:"clockExpired"`
	Rules          BasketballRules `json:"rules"`
}
