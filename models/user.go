package models

type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleOrganizer UserRole = "organizer"
	RoleScorer    UserRole = "scorer"
	RolePlayer    UserRole = "player"
)

func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOrganizer, RoleScorer, RolePlayer:
		return true
	}
	return false
}

// Identity - результат проверки bearer-токена, привязывается к HTTP-запросу
// или к websocket-соединению.
type Identity struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
}

// CanManageMatches: создание матчей, отмена, назначение счётчиков.
func (i Identity) CanManageMatches() bool {
	return i.Role == RoleAdmin || i.Role == RoleOrganizer
}
