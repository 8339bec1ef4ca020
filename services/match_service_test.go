package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/live-scoring/models"
)

func TestMatchService_Create(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	m, err := h.matches.Create(ctx, organizer, CreateMatchInput{
		Sport: "VOLLEYBALL",
		Teams: [2]models.TeamRef{{Name: "Sharks"}, {Name: "Eagles"}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.ID == "" || m.Teams[0].ID == "" || m.Teams[0].ID == m.Teams[1].ID {
		t.Errorf("ids not assigned: %+v", m.Teams)
	}
	if m.Sport != models.SportVolleyball || m.Status != models.StatusScheduled {
		t.Errorf("sport %s status %s", m.Sport, m.Status)
	}
	if m.Volleyball == nil || m.Volleyball.BestOf != 5 {
		t.Errorf("initial state = %+v", m.Volleyball)
	}
	if len(m.ScoringUpdatedBy) != 1 || m.ScoringUpdatedBy[0] != organizer.UserID {
		t.Errorf("default scorers = %v", m.ScoringUpdatedBy)
	}
	if m.Title != "Sharks vs Eagles" {
		t.Errorf("title = %q", m.Title)
	}

	got, err := h.matches.Get(ctx, "volleyball", m.ID)
	if err != nil || got.ID != m.ID {
		t.Errorf("Get: %v", err)
	}
}

func TestMatchService_CreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		actor   models.Identity
		input   CreateMatchInput
		wantErr error
	}{
		{
			name:    "scorer cannot create",
			actor:   models.Identity{UserID: "s", Role: models.RoleScorer},
			input:   CreateMatchInput{Sport: "tennis", Teams: [2]models.TeamRef{{Name: "A"}, {Name: "B"}}},
			wantErr: ErrForbiddenOperation,
		},
		{
			name:    "unknown sport",
			actor:   organizer,
			input:   CreateMatchInput{Sport: "cricket", Teams: [2]models.TeamRef{{Name: "A"}, {Name: "B"}}},
			wantErr: ErrUnknownSport,
		},
		{
			name:    "missing team name",
			actor:   organizer,
			input:   CreateMatchInput{Sport: "tennis", Teams: [2]models.TeamRef{{Name: "A"}, {}}},
			wantErr: ErrValidationFailed,
		},
		{
			name:    "same team twice",
			actor:   organizer,
			input:   CreateMatchInput{Sport: "tennis", Teams: [2]models.TeamRef{{ID: "x", Name: "A"}, {ID: "x", Name: "B"}}},
			wantErr: ErrValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if _, err := h.matches.Create(context.Background(), tt.actor, tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMatchService_ListBySport(t *testing.T) {
	h := newHarness(t)
	h.createMatch(t, models.SportTennis, models.StatusLive)
	h.createMatch(t, models.SportTennis, models.StatusScheduled)
	ctx := context.Background()

	all, err := h.matches.ListBySport(ctx, "tennis", nil)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListBySport = %d, %v", len(all), err)
	}
	live := models.StatusLive
	onlyLive, err := h.matches.ListBySport(ctx, "tennis", &live)
	if err != nil || len(onlyLive) != 1 {
		t.Errorf("live matches = %d, %v", len(onlyLive), err)
	}
	bogus := models.MatchStatus("finished")
	if _, err := h.matches.ListBySport(ctx, "tennis", &bogus); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("bogus status: err = %v", err)
	}
}

func TestMatchService_Cancel(t *testing.T) {
	h := newHarness(t)
	m := h.createMatch(t, models.SportBasketball, models.StatusLive)
	ctx := context.Background()

	if _, err := h.matches.Cancel(ctx, organizer, "basketball", m.ID); !errors.Is(err, ErrForbiddenOperation) {
		t.Fatalf("organizer cancel: err = %v", err)
	}

	got, err := h.matches.Cancel(ctx, admin, "basketball", m.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got.Status != models.StatusCancelled {
		t.Errorf("status = %s", got.Status)
	}
	if sent := h.broadcaster.messages(); len(sent) != 1 || sent[0].msg.Match.Status != models.StatusCancelled {
		t.Errorf("cancel broadcast = %+v", sent)
	}

	if _, err := h.matches.Cancel(ctx, admin, "basketball", m.ID); !errors.Is(err, ErrMatchClosed) {
		t.Errorf("second cancel: err = %v", err)
	}
	if _, err := h.matches.Cancel(ctx, admin, "basketball", "missing"); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("missing match: err = %v", err)
	}
}

func TestMatchService_SetScorers(t *testing.T) {
	h := newHarness(t)
	m := h.createMatch(t, models.SportBadminton, models.StatusLive)
	ctx := context.Background()

	got, err := h.matches.SetScorers(ctx, organizer, "badminton", m.ID, []string{"new-scorer", " new-scorer ", ""})
	if err != nil {
		t.Fatalf("SetScorers: %v", err)
	}
	if len(got.ScoringUpdatedBy) != 1 || got.ScoringUpdatedBy[0] != "new-scorer" {
		t.Errorf("scorers = %v", got.ScoringUpdatedBy)
	}

	_, err = h.scoring.HandleEvent(ctx, EventInput{MatchID: m.ID, Sport: "badminton", Type: "Ace", Payload: rallyPayload(1), ActorID: "scorer-1"})
	if !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("old scorer: err = %v", err)
	}
	if _, err := h.scoring.HandleEvent(ctx, EventInput{MatchID: m.ID, Sport: "badminton", Type: "Ace", Payload: rallyPayload(1), ActorID: "new-scorer"}); err != nil {
		t.Errorf("new scorer: %v", err)
	}

	if _, err := h.matches.SetScorers(ctx, organizer, "badminton", m.ID, nil); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("empty scorers: err = %v", err)
	}
	if _, err := h.matches.SetScorers(ctx, models.Identity{UserID: "p", Role: models.RolePlayer}, "badminton", m.ID, []string{"x"}); !errors.Is(err, ErrForbiddenOperation) {
		t.Errorf("player: err = %v", err)
	}
}
