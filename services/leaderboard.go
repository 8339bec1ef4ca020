package services

import (
	"sort"

	"github.com/Dosada05/live-scoring/models"
)

const leaderboardSize = 20

type playerTally struct {
	entry   models.LeaderboardEntry
	matches map[string]struct{}
}

type tallies map[string]*playerTally

func (t tallies) credit(playerID, teamID, matchID string, goals, points int) {
	p, ok := t[playerID]
	if !ok {
		p = &playerTally{
			entry:   models.LeaderboardEntry{PlayerID: playerID, TeamID: teamID},
			matches: make(map[string]struct{}),
		}
		t[playerID] = p
	}
	p.entry.Goals += goals
	p.entry.Points += points
	p.matches[matchID] = struct{}{}
}

// rank sorts by the sport metric descending, then by player id, and keeps
// the top entries.
func (t tallies) rank(sport models.Sport) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(t))
	for _, p := range t {
		e := p.entry
		e.MatchesPlayed = len(p.matches)
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		mi, mj := entries[i].Metric(sport), entries[j].Metric(sport)
		if mi != mj {
			return mi > mj
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	if len(entries) > leaderboardSize {
		entries = entries[:leaderboardSize]
	}
	return entries
}

// FootballLeaderboard counts scored goals (regular and penalty) per scorer.
func FootballLeaderboard(matches []*models.Match) []models.LeaderboardEntry {
	t := make(tallies)
	for _, m := range completedOnly(matches) {
		if m.Football == nil {
			continue
		}
		for _, g := range m.Football.Goals {
			if g.ScorerID == "" || (g.Type != models.GoalRegular && g.Type != models.GoalPenalty) {
				continue
			}
			t.credit(g.ScorerID, g.TeamID, m.ID, 1, 0)
		}
	}
	return t.rank(models.SportFootball)
}

// BasketballLeaderboard sums points of score events per player.
func BasketballLeaderboard(matches []*models.Match) []models.LeaderboardEntry {
	t := make(tallies)
	for _, m := range completedOnly(matches) {
		if m.Basketball == nil {
			continue
		}
		for _, ev := range m.Basketball.ScoreEvents {
			if ev.PlayerID == "" || ev.Points == 0 {
				continue
			}
			t.credit(ev.PlayerID, ev.TeamID, m.ID, 0, ev.Points)
		}
	}
	return t.rank(models.SportBasketball)
}

// RallyLeaderboard counts rally points per player for badminton, pickleball
// and volleyball.
func RallyLeaderboard(matches []*models.Match) []models.LeaderboardEntry {
	t := make(tallies)
	var sport models.Sport
	for _, m := range completedOnly(matches) {
		st := m.RallyState()
		if st == nil {
			continue
		}
		sport = m.Sport
		for _, g := range st.Games {
			creditRallies(t, m, g.RallyLog)
		}
	}
	return t.rank(sport)
}

// TennisLeaderboard counts rally points per player across sets.
func TennisLeaderboard(matches []*models.Match) []models.LeaderboardEntry {
	t := make(tallies)
	for _, m := range completedOnly(matches) {
		if m.Tennis == nil {
			continue
		}
		for _, s := range m.Tennis.Sets {
			creditRallies(t, m, s.RallyLog)
		}
	}
	return t.rank(models.SportTennis)
}

// creditRallies: a rally counts as a point for its player when the point went
// to the player's own side. Players missing from both rosters are credited
// with every rally they appear in.
func creditRallies(t tallies, m *models.Match, log []models.RallyEvent) {
	for _, r := range log {
		if r.PlayerID == "" || (r.PointTo != 1 && r.PointTo != 2) {
			continue
		}
		side := rosterSide(m, r.PlayerID)
		points := 0
		if side < 0 || side == r.Side() {
			points = 1
		}
		teamSide := side
		if teamSide < 0 {
			teamSide = r.Side()
		}
		t.credit(r.PlayerID, m.TeamID(teamSide), m.ID, 0, points)
	}
}

func rosterSide(m *models.Match, playerID string) int {
	for side, team := range m.Teams {
		if team.HasPlayer(playerID) {
			return side
		}
	}
	return -1
}

func completedOnly(matches []*models.Match) []*models.Match {
	out := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		if m != nil && m.Status == models.StatusCompleted {
			out = append(out, m)
		}
	}
	return out
}

// leaderboardFor dispatches to the aggregation of the sport's family.
func leaderboardFor(sport models.Sport, matches []*models.Match) []models.LeaderboardEntry {
	switch sport {
	case models.SportFootball:
		return FootballLeaderboard(matches)
	case models.SportBasketball:
		return BasketballLeaderboard(matches)
	case models.SportTennis:
		return TennisLeaderboard(matches)
	default:
		return RallyLeaderboard(matches)
	}
}
