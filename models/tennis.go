package models

type TennisRules struct {
	GamesPerSet      int  `json:"gamesPerSet" yaml:"games_per_set"`
	TiebreakAt       int  `json:"tiebreakAt" yaml:"tiebreak_at"`
	TiebreakPoints   int  `json:"tiebreakPoints" yaml:"tiebreak_points"`
	FinalSetTiebreak bool `json:"finalSetTiebreak" yaml:"final_set_tiebreak"`
}

// TennisSet keeps the games of the set plus the points of the game in progress.
// Points are reset each time a game is decided; RallyLog keeps every point.
type TennisSet struct {
	Number       int          `json:"setNumber"`
	Team1Games   int          `json:"team1Games"`
	Team2Games   int          `json:"team2Games"`
	Team1Points  int          `json:"team1Points"`
	Team2Points  int          `json:"team2Points"`
	TieBreak     bool         `json:"tieBreak"`
	WinnerTeamID *string      `json:"winnerTeamId"`
	RallyLog     []RallyEvent `json:"rallyLog"`
}

func (s *TennisSet) Points(side int) int {
	if side == 0 {
		return s.Team1Points
	}
	return s.Team2Points
}

func (s *TennisSet) Games(side int) int {
	if side == 0 {
		return s.Team1Games
	}
	return s.Team2Games
}

type TennisState struct {
	BestOfSets int         `json:"bestOfSets"`
	Sets       []TennisSet `json:"sets"`
	CurrentSet int         `json:"currentSet"`
	SetsWon    TeamScore   `json:"setsWon"`
	Rules      TennisRules `json:"rules"`
}

func (s *TennisState) Current() *TennisSet {
	if s.CurrentSet < 1 || s.CurrentSet > len(s.Sets) {
		return nil
	}
	return &s.Sets[s.CurrentSet-1]
}
