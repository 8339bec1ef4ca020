package services

import (
	"math"
	"sort"

	"github.com/Dosada05/live-scoring/models"
)

const (
	topPerformersSize = 3
	trendSize         = 10
)

// rallyErrorTypes - розыгрыши, отданные сопернику ошибкой игрока.
var rallyErrorTypes = map[string]bool{
	"Out":           true,
	"ServiceFault":  true,
	"Fault":         true,
	"DoubleFault":   true,
	"UnforcedError": true,
	"Error":         true,
}

// PlayerPerformance aggregates a player's completed matches. A match counts
// when the player is on a roster or, failing that, appears in a goal, card,
// score or foul event of a known team.
func PlayerPerformance(sport models.Sport, playerID string, matches []*models.Match, f models.PerformanceFilter) *models.PlayerPerformance {
	p := &models.PlayerPerformance{PlayerID: playerID, Sport: sport}
	for _, m := range performanceMatches(matches, f) {
		side := playerSide(m, playerID)
		if side < 0 {
			continue
		}
		p.MatchesPlayed++
		p.MinsPlayed += m.DurationMinutes
		switch matchResult(m, side) {
		case models.ResultWin:
			p.Wins++
		case models.ResultLoss:
			p.Losses++
		default:
			p.Draws++
		}

		switch {
		case m.Football != nil:
			for _, g := range m.Football.Goals {
				if g.ScorerID == playerID && scoredByPlayer(g.Type) {
					p.Goals++
				}
				if g.AssistID == playerID && scoredByPlayer(g.Type) {
					p.Assists++
				}
			}
			p.YellowCards += countCards(m.Football.YellowCards, playerID)
			p.RedCards += countCards(m.Football.RedCards, playerID)
		case m.Basketball != nil:
			for _, ev := range m.Basketball.ScoreEvents {
				if ev.PlayerID == playerID {
					p.Points += ev.Points
				}
			}
			for _, fl := range m.Basketball.Fouls {
				if fl.PlayerID == playerID {
					p.Fouls += foulCount(fl)
				}
			}
		default:
			for _, log := range rallyLogs(m) {
				creditPlayerRallies(p, playerID, side, log)
			}
		}
	}
	if p.Winners+p.Errors > 0 {
		p.ConsistencyScore = round(float64(p.Winners)/float64(p.Errors+1), 2)
	}
	return p
}

func creditPlayerRallies(p *models.PlayerPerformance, playerID string, side int, log []models.RallyEvent) {
	for _, r := range log {
		if r.PlayerID != playerID || (r.PointTo != 1 && r.PointTo != 2) {
			continue
		}
		if p.EventCounts == nil {
			p.EventCounts = make(map[string]int)
		}
		p.EventCounts[r.EventType]++
		won := r.Side() == side
		if won {
			p.PointsWon++
		}
		switch {
		case rallyErrorTypes[r.EventType]:
			p.Errors++
		case won && r.EventType != "Point":
			p.Winners++
		}
	}
}

// TeamPerformance aggregates a team's completed matches, its three best
// players and the results of its last ten matches.
func TeamPerformance(sport models.Sport, teamID string, matches []*models.Match, f models.PerformanceFilter) *models.TeamPerformance {
	tp := &models.TeamPerformance{
		TeamID:     teamID,
		Sport:      sport,
		TopPlayers: []models.TopPerformer{},
		Trend:      []models.MatchTrend{},
	}
	players := make(map[string]*models.TopPerformer)
	credit := func(m *models.Match, side int, playerID string, score float64) *models.TopPerformer {
		p, ok := players[playerID]
		if !ok {
			p = &models.TopPerformer{PlayerID: playerID, Name: playerName(m.Teams[side], playerID)}
			players[playerID] = p
		}
		p.Score += score
		return p
	}

	for _, m := range performanceMatches(matches, f) {
		side := teamSide(m, teamID)
		if side < 0 {
			continue
		}
		result := matchResult(m, side)
		trend := models.MatchTrend{
			MatchID:    m.ID,
			Opponent:   m.Teams[1-side].Name,
			Result:     result,
			MinsPlayed: m.DurationMinutes,
			PlayedAt:   m.CreatedAt,
		}
		tp.MatchesPlayed++
		tp.MinsPlayed += m.DurationMinutes
		switch result {
		case models.ResultWin:
			tp.MatchesWon++
		case models.ResultLoss:
			tp.MatchesLost++
		default:
			tp.MatchesDrawn++
		}

		switch {
		case m.Football != nil:
			for _, g := range m.Football.Goals {
				if g.TeamID != teamID || !g.Type.CountsTowardScore() {
					continue
				}
				trend.Goals++
				if g.ScorerID != "" && scoredByPlayer(g.Type) {
					credit(m, side, g.ScorerID, 3).Goals++
				}
				if g.AssistID != "" && scoredByPlayer(g.Type) {
					trend.Assists++
					credit(m, side, g.AssistID, 2).Assists++
				}
			}
			for _, c := range append(append([]models.CardEvent(nil), m.Football.YellowCards...), m.Football.RedCards...) {
				if c.TeamID == teamID {
					tp.Fouls++
				}
			}
		case m.Basketball != nil:
			trend.Points = m.Basketball.TotalScore.Get(side)
			for _, ev := range m.Basketball.ScoreEvents {
				if ev.TeamID == teamID && ev.PlayerID != "" {
					credit(m, side, ev.PlayerID, float64(ev.Points)).Points += ev.Points
				}
			}
			for _, fl := range m.Basketball.Fouls {
				if fl.TeamID == teamID {
					tp.Fouls += foulCount(fl)
				}
			}
		default:
			for _, log := range rallyLogs(m) {
				for _, r := range log {
					if r.Side() != side {
						continue
					}
					trend.Points++
					if r.PlayerID != "" && m.Teams[side].HasPlayer(r.PlayerID) {
						credit(m, side, r.PlayerID, 1).Points++
					}
				}
			}
		}

		tp.TotalGoals += trend.Goals
		tp.TotalAssists += trend.Assists
		tp.TotalPoints += trend.Points
		tp.Trend = append(tp.Trend, trend)
	}

	if len(tp.Trend) > trendSize {
		tp.Trend = tp.Trend[len(tp.Trend)-trendSize:]
	}
	if tp.MatchesPlayed > 0 {
		n := float64(tp.MatchesPlayed)
		tp.WinRate = round(float64(tp.MatchesWon)*100/n, 1)
		tp.LossRate = round(float64(tp.MatchesLost)*100/n, 1)
		tp.DrawRate = round(float64(tp.MatchesDrawn)*100/n, 1)
	}

	for _, p := range players {
		tp.TopPlayers = append(tp.TopPlayers, *p)
	}
	sort.Slice(tp.TopPlayers, func(i, j int) bool {
		a, b := tp.TopPlayers[i], tp.TopPlayers[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.PlayerID < b.PlayerID
	})
	if len(tp.TopPlayers) > topPerformersSize {
		tp.TopPlayers = tp.TopPlayers[:topPerformersSize]
	}
	return tp
}

// performanceMatches returns completed matches inside the filter, oldest first.
func performanceMatches(matches []*models.Match, f models.PerformanceFilter) []*models.Match {
	out := completedOnly(matches)
	if !f.Since.IsZero() {
		kept := out[:0]
		for _, m := range out {
			if !m.CreatedAt.Before(f.Since) {
				kept = append(kept, m)
			}
		}
		out = kept
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func matchResult(m *models.Match, side int) string {
	switch {
	case m.Winner == nil || *m.Winner == "":
		return models.ResultDraw
	case *m.Winner == m.TeamID(side):
		return models.ResultWin
	default:
		return models.ResultLoss
	}
}

func teamSide(m *models.Match, teamID string) int {
	if teamID == "" {
		return -1
	}
	for side, team := range m.Teams {
		if team.ID == teamID {
			return side
		}
	}
	return -1
}

func playerSide(m *models.Match, playerID string) int {
	if side := rosterSide(m, playerID); side >= 0 {
		return side
	}
	switch {
	case m.Football != nil:
		for _, g := range m.Football.Goals {
			if g.ScorerID == playerID || g.AssistID == playerID {
				side := teamSide(m, g.TeamID)
				if side >= 0 && g.Type == models.GoalOwn {
					return 1 - side
				}
				return side
			}
		}
		for _, c := range append(append([]models.CardEvent(nil), m.Football.YellowCards...), m.Football.RedCards...) {
			if c.PlayerID == playerID {
				return teamSide(m, c.TeamID)
			}
		}
	case m.Basketball != nil:
		for _, ev := range m.Basketball.ScoreEvents {
			if ev.PlayerID == playerID {
				return teamSide(m, ev.TeamID)
			}
		}
		for _, fl := range m.Basketball.Fouls {
			if fl.PlayerID == playerID {
				return teamSide(m, fl.TeamID)
			}
		}
	}
	return -1
}

func rallyLogs(m *models.Match) [][]models.RallyEvent {
	var logs [][]models.RallyEvent
	if m.Tennis != nil {
		for _, s := range m.Tennis.Sets {
			logs = append(logs, s.RallyLog)
		}
		return logs
	}
	if st := m.RallyState(); st != nil {
		for _, g := range st.Games {
			logs = append(logs, g.RallyLog)
		}
	}
	return logs
}

// scoredByPlayer: own goals count for the team but not for the player.
func scoredByPlayer(t models.GoalType) bool {
	return t == models.GoalRegular || t == models.GoalPenalty
}

func countCards(cards []models.CardEvent, playerID string) int {
	n := 0
	for _, c := range cards {
		if c.PlayerID == playerID {
			n++
		}
	}
	return n
}

func foulCount(f models.FoulEvent) int {
	if f.Count > 0 {
		return f.Count
	}
	return 1
}

func playerName(team models.TeamRef, playerID string) string {
	for _, p := range team.Players {
		if p.ID == playerID {
			return p.Name
		}
	}
	return ""
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
