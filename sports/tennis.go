package sports

import (
	"encoding/json"
	"time"

	"github.com/Dosada05/live-scoring/models"
)

type tennisRules struct {
	bestOfSets int
	defaults   models.TennisRules
}

func newTennisRules(o *TennisOverrides) *tennisRules {
	r := &tennisRules{
		bestOfSets: 3,
		defaults:   models.TennisRules{GamesPerSet: 6, TiebreakAt: 6, TiebreakPoints: 7, FinalSetTiebreak: true},
	}
	if o != nil {
		if o.BestOfSets > 0 {
			r.bestOfSets = o.BestOfSets
		}
		if o.GamesPerSet > 0 {
			r.defaults.GamesPerSet = o.GamesPerSet
		}
		if o.TiebreakAt > 0 {
			r.defaults.TiebreakAt = o.TiebreakAt
		}
		if o.TiebreakPoints > 0 {
			r.defaults.TiebreakPoints = o.TiebreakPoints
		}
		if o.FinalSetTiebreak != nil {
			r.defaults.FinalSetTiebreak = *o.FinalSetTiebreak
		}
	}
	return r
}

func (r *tennisRules) Sport() models.Sport { return models.SportTennis }

func (r *tennisRules) Collection() string { return collectionFor(models.SportTennis) }

func (r *tennisRules) NewState(m *models.Match) {
	m.Tennis = &models.TennisState{
		BestOfSets: r.bestOfSets,
		Sets:       []models.TennisSet{newTennisSet(1)},
		CurrentSet: 1,
		Rules:      r.defaults,
	}
}

func newTennisSet(number int) models.TennisSet {
	return models.TennisSet{Number: number, RallyLog: []models.RallyEvent{}}
}

func (r *tennisRules) CurrentPeriod(m *models.Match) int {
	if m.Tennis == nil {
		return 0
	}
	return m.Tennis.CurrentSet
}

func (r *tennisRules) Apply(m *models.Match, eventType string, payload json.RawMessage, at time.Time) error {
	st := m.Tennis
	if st == nil {
		return ErrMissingState
	}
	set := st.Current()
	if set == nil || set.WinnerTeamID != nil {
		return ErrNoActivePeriod
	}
	rally, side, err := parseRally(models.SportTennis, eventType, payload, at)
	if err != nil {
		return err
	}
	set.RallyLog = append(set.RallyLog, rally)
	if side == 0 {
		set.Team1Points++
	} else {
		set.Team2Points++
	}
	return nil
}

// Evaluate: очко -> гейм -> сет -> матч. Каждый уровень закрывается не более
// одного раза за вызов, поэтому повторный вызов ничего не меняет.
func (r *tennisRules) Evaluate(m *models.Match) {
	st := m.Tennis
	if st == nil {
		return
	}
	if m.Status == models.StatusCompleted {
		m.SetWinner(st.SetsWon.Leader())
		return
	}
	set := st.Current()
	if set == nil {
		return
	}
	if set.WinnerTeamID == nil {
		finalSet := set.Number == st.BestOfSets
		side, ok := tennisGameWinner(set, st.Rules)
		if !ok {
			return
		}
		wasTiebreak := set.TieBreak
		if side == 0 {
			set.Team1Games++
		} else {
			set.Team2Games++
		}
		set.Team1Points, set.Team2Points = 0, 0
		set.TieBreak = false

		setSide, hi, lo := leader(set.Games(0), set.Games(1))
		switch {
		case wasTiebreak, winsWithMargin(hi, lo, st.Rules.GamesPerSet, 2):
			id := m.TeamID(setSide)
			set.WinnerTeamID = &id
			st.SetsWon.Add(setSide, 1)
		case set.Games(0) == st.Rules.TiebreakAt && set.Games(1) == st.Rules.TiebreakAt &&
			(!finalSet || st.Rules.FinalSetTiebreak):
			set.TieBreak = true
		}
		if set.WinnerTeamID == nil {
			return
		}
	}

	needed := st.BestOfSets/2 + 1
	if side := st.SetsWon.Leader(); side >= 0 && st.SetsWon.Get(side) >= needed {
		m.Complete(side)
		return
	}
	if st.CurrentSet == len(st.Sets) {
		st.Sets = append(st.Sets, newTennisSet(len(st.Sets)+1))
	}
	st.CurrentSet = len(st.Sets)
}

func tennisGameWinner(set *models.TennisSet, rules models.TennisRules) (int, bool) {
	target := 4
	if set.TieBreak {
		target = rules.TiebreakPoints
	}
	side, hi, lo := leader(set.Points(0), set.Points(1))
	if winsWithMargin(hi, lo, target, 2) {
		return side, true
	}
	return -1, false
}

func (r *tennisRules) Finish(m *models.Match) {
	m.Status = models.StatusCompleted
	r.Evaluate(m)
}
