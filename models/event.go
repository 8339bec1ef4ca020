package models

import (
	"encoding/json"
	"time"
)

// Управляющие события: принимаются только от авторизованных счётчиков матча.
const (
	EventStartMatch  = "start_match"
	EventPauseMatch  = "pause_match"
	EventResumeMatch = "resume_match"
	EventEndMatch    = "end_match"
)

// Broadcast types.
const (
	BroadcastMatchUpdated    = "match_updated"
	BroadcastMatchCommentary = "match_commentary"
)

// ScoringEvent is the inbound wire shape of a scoring event.
type ScoringEvent struct {
	MatchID string          `json:"matchId"`
	Sport   string          `json:"sport"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinRequest is sent by a connection to observe a match.
type JoinRequest struct {
	MatchID string `json:"matchId"`
	Sport   string `json:"sport"`
}

// Broadcast is delivered to every connection in the match room.
// Only match_updated carries the snapshot; match_commentary names the Version
// its text describes.
type Broadcast struct {
	Type       string `json:"type"`
	Sport      Sport  `json:"sport"`
	MatchID    string `json:"matchId,omitempty"`
	Version    int64  `json:"version,omitempty"`
	Match      *Match `json:"match,omitempty"`
	Commentary string `json:"commentary,omitempty"`
}

// RecordedEvent - событие с моментом применения, используется для воспроизведения
// истории матча (sports.Replay).
type RecordedEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	At      time.Time       `json:"at"`
}
