package sports

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Dosada05/live-scoring/models"
	"gopkg.in/yaml.v3"
)

// Rules is the per-sport state machine plugged into the dispatcher.
type Rules interface {
	Sport() models.Sport
	// Collection is the storage collection (table) holding matches of this sport.
	Collection() string
	// NewState attaches a fresh variant to a newly created match.
	NewState(m *models.Match)
	// Apply mutates the minimal set of fields for eventType. It never decides
	// completion; Evaluate does.
	Apply(m *models.Match, eventType string, payload json.RawMessage, at time.Time) error
	// Evaluate re-derives game/set/match completion and the winner. Idempotent.
	Evaluate(m *models.Match)
	CurrentPeriod(m *models.Match) int
	// Finish closes the match on an explicit end_match.
	Finish(m *models.Match)
}

// RallyOverrides - настройки YAML для видов спорта с розыгрышами.
type RallyOverrides struct {
	BestOf            int `yaml:"best_of"`
	models.RallyRules `yaml:",inline"`
}

// TennisOverrides: FinalSetTiebreak is a pointer so that an absent key keeps
// the default instead of switching the tiebreak off.
type TennisOverrides struct {
	BestOfSets       int   `yaml:"best_of_sets"`
	GamesPerSet      int   `yaml:"games_per_set"`
	TiebreakAt       int   `yaml:"tiebreak_at"`
	TiebreakPoints   int   `yaml:"tiebreak_points"`
	FinalSetTiebreak *bool `yaml:"final_set_tiebreak"`
}

// Overrides holds optional per-sport rule overrides loaded from YAML.
// Zero values keep the built-in defaults.
type Overrides struct {
	Football   *models.FootballRules   `yaml:"football"`
	Basketball *models.BasketballRules `yaml:"basketball"`
	Badminton  *RallyOverrides         `yaml:"badminton"`
	Pickleball *RallyOverrides         `yaml:"pickleball"`
	Volleyball *RallyOverrides         `yaml:"volleyball"`
	Tennis     *TennisOverrides        `yaml:"tennis"`
}

// LoadOverrides читает файл правил. Пустой путь - правила по умолчанию.
func LoadOverrides(path string) (Overrides, error) {
	var o Overrides
	if path == "" {
		return o, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return o, fmt.Errorf("failed to read sport rules file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &o); err != nil {
		return o, fmt.Errorf("failed to parse sport rules file %s: %w", path, err)
	}
	return o, nil
}

// Registry resolves sport identifiers to their rules. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	rules map[models.Sport]Rules
}

func NewRegistry(o Overrides) *Registry {
	r := &Registry{rules: make(map[models.Sport]Rules, len(models.AllSports))}

	r.register(newFootballRules(o.Football))
	r.register(newBasketballRules(o.Basketball))
	r.register(newRallyRules(models.SportBadminton, 3, models.RallyRules{PointsToWin: 21, WinBy: 2, CapAt: 30}, o.Badminton))
	r.register(newRallyRules(models.SportPickleball, 3, models.RallyRules{PointsToWin: 11, WinBy: 2}, o.Pickleball))
	r.register(newRallyRules(models.SportVolleyball, 5, models.RallyRules{PointsToWin: 25, WinBy: 2, DecidingGamePoints: 15}, o.Volleyball))
	r.register(newTennisRules(o.Tennis))

	return r
}

func (r *Registry) register(rules Rules) {
	r.rules[rules.Sport()] = rules
}

// Resolve is case-insensitive and fails with ErrUnknownSport for anything
// outside the supported set; it never falls back to a default.
func (r *Registry) Resolve(sport string) (Rules, error) {
	rules, ok := r.rules[models.ParseSport(sport)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSport, sport)
	}
	return rules, nil
}

// Supported returns the registered sports in stable order.
func (r *Registry) Supported() []models.Sport {
	sports := make([]models.Sport, 0, len(r.rules))
	for _, s := range models.AllSports {
		if _, ok := r.rules[s]; ok {
			sports = append(sports, s)
		}
	}
	return sports
}

// Collections returns the storage collection of every registered sport.
func (r *Registry) Collections() []string {
	supported := r.Supported()
	collections := make([]string, 0, len(supported))
	for _, s := range supported {
		collections = append(collections, r.rules[s].Collection())
	}
	return collections
}

var defaultRegistry = NewRegistry(Overrides{})

// Resolve looks the sport up in the registry with built-in rules.
func Resolve(sport string) (Rules, error) {
	return defaultRegistry.Resolve(sport)
}

func collectionFor(s models.Sport) string {
	return string(s) + "_matches"
}

func decodePayload(payload json.RawMessage, dst interface{}) error {
	if len(payload) == 0 || string(payload) == "null" {
		payload = json.RawMessage("{}")
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
