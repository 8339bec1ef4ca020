package models

import (
	"encoding/json"
	"strings"
	"time"
)

type Sport string

const (
	SportFootball   Sport = "football"
	SportBasketball Sport = "basketball"
	SportBadminton  Sport = "badminton"
	SportTennis     Sport = "tennis"
	SportVolleyball Sport = "volleyball"
	SportPickleball Sport = "pickleball"
)

// AllSports - закрытый список поддерживаемых видов спорта в стабильном порядке.
var AllSports = []Sport{
	SportFootball,
	SportBasketball,
	SportBadminton,
	SportTennis,
	SportVolleyball,
	SportPickleball,
}

// ParseSport нормализует идентификатор (регистр, пробелы). Проверку на
// принадлежность закрытому списку делает sports.Resolve.
func ParseSport(s string) Sport {
	return Sport(strings.ToLower(strings.TrimSpace(s)))
}

type MatchStatus string

const (
	StatusScheduled MatchStatus = "scheduled"
	StatusLive      MatchStatus = "live"
	StatusPaused    MatchStatus = "paused"
	StatusCompleted MatchStatus = "completed"
	StatusCancelled MatchStatus = "cancelled"
)

func (s MatchStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s MatchStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusLive, StatusPaused, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type PlayerRef struct {
	ID       string `json:"_id,omitempty"`
	Name     string `json:"name"`
	Number   string `json:"number,omitempty"`
	Position string `json:"position,omitempty"`
}

type TeamRef struct {
	ID        string      `json:"_id"`
	Name      string      `json:"name"`
	ShortName string      `json:"shortName,omitempty"`
	LogoURL   string      `json:"logoUrl,omitempty"`
	Players   []PlayerRef `json:"players,omitempty"`
	Coach     string      `json:"coach,omitempty"`
}

// HasPlayer reports whether playerID is on the team's roster.
func (t TeamRef) HasPlayer(playerID string) bool {
	for _, p := range t.Players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

// FeedEntry - запись ленты матча (гол, карточка, замена, старт/пауза и т.д.).
type FeedEntry struct {
	Time        string                 `json:"time,omitempty"`
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	TeamID      string                 `json:"teamId,omitempty"`
	PlayerID    string                 `json:"playerId,omitempty"`
	Meta        map[string]interface{} `json:"meta,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// Match is the common envelope shared by every sport. Exactly one of the
// sport variant pointers is set and it always matches Sport.
type Match struct {
	ID               string      `json:"_id"`
	Sport            Sport       `json:"sport"`
	Format           string      `json:"format,omitempty"`
	Title            string      `json:"title,omitempty"`
	Tournament       bool        `json:"tournament,omitempty"`
	StartAt          *time.Time  `json:"startAt,omitempty"`
	DurationMinutes  int         `json:"durationMinutes,omitempty"`
	Location         string      `json:"location,omitempty"`
	VenueID          string      `json:"venueId,omitempty"`
	Status           MatchStatus `json:"status"`
	Teams            [2]TeamRef  `json:"teams"`
	Referee          string      `json:"referee,omitempty"`
	CreatedBy        string      `json:"createdBy,omitempty"`
	ScoringUpdatedBy []string    `json:"scoringUpdatedBy"`
	Winner           *string     `json:"winner"`
	Feed             []FeedEntry `json:"feed"`
	Version          int64       `json:"version"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`

	Football   *FootballState   `json:"football,omitempty"`
	Basketball *BasketballState `json:"basketball,omitempty"`
	Badminton  *RallyState      `json:"badminton,omitempty"`
	Pickleball *RallyState      `json:"pickleball,omitempty"`
	Volleyball *RallyState      `json:"volleyball,omitempty"`
	Tennis     *TennisState     `json:"tennis,omitempty"`
}

// IsScorer проверяет, входит ли пользователь в scoringUpdatedBy.
func (m *Match) IsScorer(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range m.ScoringUpdatedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// TeamID returns the id of the team on the given side (0 or 1).
func (m *Match) TeamID(side int) string {
	return m.Teams[side].ID
}

// SetWinner fixes the winner to the team on side; a negative side clears it (draw).
func (m *Match) SetWinner(side int) {
	if side < 0 {
		m.Winner = nil
		return
	}
	id := m.Teams[side].ID
	m.Winner = &id
}

// Complete переводит матч в completed с указанным победителем (-1 = ничья).
func (m *Match) Complete(winnerSide int) {
	m.Status = StatusCompleted
	m.SetWinner(winnerSide)
}

func (m *Match) AppendFeed(entry FeedEntry) {
	m.Feed = append(m.Feed, entry)
}

// RallyState returns the rally variant for badminton, pickleball or volleyball.
func (m *Match) RallyState() *RallyState {
	switch m.Sport {
	case SportBadminton:
		return m.Badminton
	case SportPickleball:
		return m.Pickleball
	case SportVolleyball:
		return m.Volleyball
	}
	return nil
}

// SetRallyState attaches rs to the variant slot of the match's sport.
func (m *Match) SetRallyState(rs *RallyState) {
	switch m.Sport {
	case SportBadminton:
		m.Badminton = rs
	case SportPickleball:
		m.Pickleball = rs
	case SportVolleyball:
		m.Volleyball = rs
	}
}

// Clone returns a deep copy. Mutations are applied to a clone so that a failed
// save never leaves a half-updated document behind.
func (m *Match) Clone() *Match {
	data, err := json.Marshal(m)
	if err != nil {
		panic("models: match is not serializable: " + err.Error())
	}
	var cp Match
	if err := json.Unmarshal(data, &cp); err != nil {
		panic("models: match clone failed: " + err.Error())
	}
	return &cp
}

// TeamScore is a two-sided counter addressed by side index.
type TeamScore struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

func (s *TeamScore) Add(side, n int) {
	if side == 0 {
		s.Team1 += n
	} else {
		s.Team2 += n
	}
}

func (s TeamScore) Get(side int) int {
	if side == 0 {
		return s.Team1
	}
	return s.Team2
}

// Leader returns the leading side, or -1 when level.
func (s TeamScore) Leader() int {
	switch {
	case s.Team1 > s.Team2:
		return 0
	case s.Team2 > s.Team1:
		return 1
	}
	return -1
}
