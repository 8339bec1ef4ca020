package services

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/live-scoring/models"
	"github.com/Dosada05/live-scoring/sports"
)

func TestHandleEvent_RallyPointBroadcastsUpdate(t *testing.T) {
	h := newHarness(t)
	m := h.createMatch(t, models.SportBadminton, models.StatusLive)

	got, err := h.scoring.HandleEvent(context.Background(), EventInput{
		MatchID: m.ID, Sport: "Badminton", Type: "Smash", Payload: rallyPayload(1), ActorID: "scorer-1",
	})
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if got.Badminton.Games[0].Team1Points != 1 {
		t.Errorf("returned match points = %d", got.Badminton.Games[0].Team1Points)
	}
	if stored := h.load(t, m); stored.Badminton.Games[0].Team1Points != 1 || stored.Version != m.Version+1 {
		t.Errorf("stored points %d version %d", stored.Badminton.Games[0].Team1Points, stored.Version)
	}

	sent := h.broadcaster.messages()
	if len(sent) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(sent))
	}
	if sent[0].room != m.ID || sent[0].msg.Type != models.BroadcastMatchUpdated || sent[0].msg.Sport != models.SportBadminton {
		t.Errorf("broadcast = %+v", sent[0])
	}
}

func TestHandleEvent_RejectionsDoNotBroadcast(t *testing.T) {
	tests := []struct {
		name    string
		status  models.MatchStatus
		input   func(m *models.Match) EventInput
		wantErr error
	}{
		{
			name:   "actor is not a scorer",
			status: models.StatusLive,
			input: func(m *models.Match) EventInput {
				return EventInput{MatchID: m.ID, Sport: "badminton", Type: "Smash", Payload: rallyPayload(1), ActorID: "intruder"}
			},
			wantErr: ErrNotAuthorized,
		},
		{
			name:   "anonymous actor",
			status: models.StatusLive,
			input: func(m *models.Match) EventInput {
				return EventInput{MatchID: m.ID, Sport: "badminton", Type: "Smash", Payload: rallyPayload(1)}
			},
			wantErr: ErrNotAuthorized,
		},
		{
			name:   "completed match",
			status: models.StatusCompleted,
			input: func(m *models.Match) EventInput {
				return EventInput{MatchID: m.ID, Sport: "badminton", Type: "Smash", Payload: rallyPayload(1), ActorID: "scorer-1"}
			},
			wantErr: ErrMatchClosed,
		},
		{
			name:   "scheduled match",
			status: models.StatusScheduled,
			input: func(m *models.Match) EventInput {
				return EventInput{MatchID: m.ID, Sport: "badminton", Type: "Smash", Payload: rallyPayload(1), ActorID: "scorer-1"}
			},
			wantErr: ErrMatchNotLive,
		},
		{
			name:   "unknown match",
			status: models.StatusLive,
			input: func(m *models.Match) EventInput {
				return EventInput{MatchID: "nope", Sport: "badminton", Type: "Smash", Payload: rallyPayload(1), ActorID: "scorer-1"}
			},
			wantErr: ErrMatchNotFound,
		},
		{
			name:   "unknown sport",
			status: models.StatusLive,
			input: func(m *models.Match) EventInput {
				return EventInput{MatchID: m.ID, Sport: "cricket", Type: "Smash", Payload: rallyPayload(1), ActorID: "scorer-1"}
			},
			wantErr: ErrUnknownSport,
		},
		{
			name:   "bad payload",
			status: models.StatusLive,
			input: func(m *models.Match) EventInput {
				return EventInput{MatchID: m.ID, Sport: "badminton", Type: "Smash", Payload: rallyPayload(7), ActorID: "scorer-1"}
			},
			wantErr: ErrInvalidEventPayload,
		},
		{
			name:   "invalid transition",
			status: models.StatusLive,
			input: func(m *models.Match) EventInput {
				return EventInput{MatchID: m.ID, Sport: "badminton", Type: models.EventResumeMatch, ActorID: "scorer-1"}
			},
			wantErr: ErrInvalidStatusTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			m := h.createMatch(t, models.SportBadminton, tt.status)

			_, err := h.scoring.HandleEvent(context.Background(), tt.input(m))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if n := len(h.broadcaster.messages()); n != 0 {
				t.Errorf("broadcasts = %d, want none", n)
			}
			if stored := h.load(t, m); stored.Version != m.Version {
				t.Errorf("rejected event persisted: version %d -> %d", m.Version, stored.Version)
			}
		})
	}
}

func TestHandleEvent_UnknownTeamWrapsSportsError(t *testing.T) {
	h := newHarness(t)
	m := h.createMatch(t, models.SportFootball, models.StatusLive)

	_, err := h.scoring.HandleEvent(context.Background(), EventInput{
		MatchID: m.ID, Sport: "football", Type: "goal",
		Payload: json.RawMessage(`{"teamId":"t9","minute":3}`), ActorID: "scorer-1",
	})
	if !errors.Is(err, ErrInvalidEventPayload) || !errors.Is(err, sports.ErrUnknownTeam) {
		t.Errorf("err = %v, want ErrInvalidEventPayload wrapping ErrUnknownTeam", err)
	}
}

func TestHandleEvent_StartMatchThenScore(t *testing.T) {
	h := newHarness(t)
	m := h.createMatch(t, models.SportTennis, models.StatusScheduled)
	ctx := context.Background()

	got, err := h.scoring.HandleEvent(ctx, EventInput{MatchID: m.ID, Sport: "tennis", Type: models.EventStartMatch, ActorID: "scorer-1"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if got.Status != models.StatusLive {
		t.Fatalf("status = %s", got.Status)
	}
	if _, err := h.scoring.HandleEvent(ctx, EventInput{MatchID: m.ID, Sport: "tennis", Type: "Ace", Payload: rallyPayload(2), ActorID: "scorer-1"}); err != nil {
		t.Fatalf("Ace: %v", err)
	}
	if stored := h.load(t, m); stored.Tennis.Sets[0].Team2Points != 1 {
		t.Errorf("tennis points = %d", stored.Tennis.Sets[0].Team2Points)
	}
}

func TestHandleEvent_ConcurrentEventsAreSerialized(t *testing.T) {
	h := newHarness(t)
	m := h.createMatch(t, models.SportBadminton, models.StatusLive)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.scoring.HandleEvent(context.Background(), EventInput{
				MatchID: m.ID, Sport: "badminton", Type: "Ace", Payload: rallyPayload(1), ActorID: "scorer-1",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("HandleEvent: %v", err)
		}
	}

	stored := h.load(t, m)
	if stored.Badminton.Games[0].Team1Points != 2 {
		t.Errorf("points = %d, want exactly 2", stored.Badminton.Games[0].Team1Points)
	}

	sent := h.broadcaster.messages()
	if len(sent) != 2 {
		t.Fatalf("broadcasts = %d", len(sent))
	}
	first := sent[0].msg.Match.Badminton.Games[0].Team1Points
	second := sent[1].msg.Match.Badminton.Games[0].Team1Points
	if first != 1 || second != 2 {
		t.Errorf("broadcast order = %d, %d, want commit order 1, 2", first, second)
	}
}

// Two dispatchers with separate locks share one store, as two server
// instances would; the version check keeps every increment.
func TestHandleEvent_CrossInstanceVersionCheck(t *testing.T) {
	h := newHarness(t)
	m := h.createMatch(t, models.SportPickleball, models.StatusLive)

	other := NewScoringService(h.registry, h.repo, h.broadcaster, nil, nil, NewKeyedMutex(),
		ScoringServiceConfig{MaxAttempts: 50, RetryBackoff: time.Millisecond}, discardLogger())
	first := NewScoringService(h.registry, h.repo, h.broadcaster, nil, nil, NewKeyedMutex(),
		ScoringServiceConfig{MaxAttempts: 50, RetryBackoff: time.Millisecond}, discardLogger())

	const perInstance = 5
	var wg sync.WaitGroup
	for _, svc := range []ScoringService{first, other} {
		for i := 0; i < perInstance; i++ {
			wg.Add(1)
			go func(svc ScoringService) {
				defer wg.Done()
				if _, err := svc.HandleEvent(context.Background(), EventInput{
					MatchID: m.ID, Sport: "pickleball", Type: "Dink", Payload: rallyPayload(2), ActorID: "scorer-1",
				}); err != nil {
					t.Errorf("HandleEvent: %v", err)
				}
			}(svc)
		}
	}
	wg.Wait()

	if got := h.load(t, m).Pickleball.Games[0].Team2Points; got != 2*perInstance {
		t.Errorf("points = %d, want %d", got, 2*perInstance)
	}
}

func TestHandleEvent_VersionConflictReappliesEvent(t *testing.T) {
	h := newHarness(t)
	m := h.createMatch(t, models.SportBadminton, models.StatusLive)
	rules, _ := h.registry.Resolve("badminton")

	// Another writer commits between our load and our save.
	h.repo.beforeSave = func() {
		ctx := context.Background()
		cur, err := h.repo.MatchRepository.GetByID(ctx, rules.Collection(), m.ID)
		if err != nil {
			t.Error(err)
			return
		}
		cur.Badminton.Games[0].Team2Points++
		if err := h.repo.MatchRepository.Save(ctx, rules.Collection(), cur); err != nil {
			t.Error(err)
		}
	}

	if _, err := h.scoring.HandleEvent(context.Background(), EventInput{
		MatchID: m.ID, Sport: "badminton", Type: "Smash", Payload: rallyPayload(1), ActorID: "scorer-1",
	}); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	g := h.load(t, m).Badminton.Games[0]
	if g.Team1Points != 1 || g.Team2Points != 1 {
		t.Errorf("game = %d-%d, want both writes kept", g.Team1Points, g.Team2Points)
	}
	if h.repo.saveCalls != 2 {
		t.Errorf("save calls = %d, want 2", h.repo.saveCalls)
	}
}

func TestHandleEvent_PersistenceFailures(t *testing.T) {
	t.Run("transient error is retried", func(t *testing.T) {
		h := newHarness(t)
		m := h.createMatch(t, models.SportVolleyball, models.StatusLive)
		h.repo.saveErrs = []error{driver.ErrBadConn}

		if _, err := h.scoring.HandleEvent(context.Background(), EventInput{
			MatchID: m.ID, Sport: "volleyball", Type: "Attack", Payload: rallyPayload(1), ActorID: "scorer-1",
		}); err != nil {
			t.Fatalf("HandleEvent: %v", err)
		}
		if h.repo.saveCalls != 2 {
			t.Errorf("save calls = %d, want 2", h.repo.saveCalls)
		}
		if len(h.broadcaster.messages()) != 1 {
			t.Errorf("expected one broadcast after the retry")
		}
	})

	t.Run("permanent error surfaces without broadcast", func(t *testing.T) {
		h := newHarness(t)
		m := h.createMatch(t, models.SportVolleyball, models.StatusLive)
		h.repo.saveErrs = []error{errDiskFull}

		_, err := h.scoring.HandleEvent(context.Background(), EventInput{
			MatchID: m.ID, Sport: "volleyball", Type: "Attack", Payload: rallyPayload(1), ActorID: "scorer-1",
		})
		if !errors.Is(err, ErrPersistenceFailed) || !errors.Is(err, errDiskFull) {
			t.Fatalf("err = %v", err)
		}
		if h.repo.saveCalls != 1 {
			t.Errorf("save calls = %d, want 1", h.repo.saveCalls)
		}
		if len(h.broadcaster.messages()) != 0 {
			t.Errorf("failed event was broadcast")
		}
		if stored := h.load(t, m); stored.Volleyball.Games[0].Team1Points != 0 {
			t.Errorf("failed event changed stored state")
		}
	})

	t.Run("retries are bounded", func(t *testing.T) {
		h := newHarness(t)
		m := h.createMatch(t, models.SportVolleyball, models.StatusLive)
		h.repo.saveErrs = []error{driver.ErrBadConn, driver.ErrBadConn, driver.ErrBadConn, driver.ErrBadConn}

		_, err := h.scoring.HandleEvent(context.Background(), EventInput{
			MatchID: m.ID, Sport: "volleyball", Type: "Attack", Payload: rallyPayload(1), ActorID: "scorer-1",
		})
		if !errors.Is(err, ErrPersistenceFailed) {
			t.Fatalf("err = %v", err)
		}
		if h.repo.saveCalls != 3 {
			t.Errorf("save calls = %d, want 3", h.repo.saveCalls)
		}
	})
}

func TestHandleEvent_CommentaryFollowsUpdate(t *testing.T) {
	h := newHarness(t, withCommentary(staticCommentary{text: "What a smash!"}))
	m := h.createMatch(t, models.SportBadminton, models.StatusLive)

	if _, err := h.scoring.HandleEvent(context.Background(), EventInput{
		MatchID: m.ID, Sport: "badminton", Type: "Smash", Payload: rallyPayload(1), ActorID: "scorer-1",
	}); err != nil {
		t.Fatal(err)
	}
	h.scoring.Drain()

	sent := h.broadcaster.messages()
	if len(sent) != 2 {
		t.Fatalf("broadcasts = %d, want update and commentary", len(sent))
	}
	if sent[0].msg.Type != models.BroadcastMatchUpdated {
		t.Errorf("first broadcast = %s", sent[0].msg.Type)
	}
	if sent[1].msg.Type != models.BroadcastMatchCommentary || sent[1].msg.Commentary != "What a smash!" {
		t.Errorf("commentary broadcast = %+v", sent[1].msg)
	}
	if sent[1].msg.Match != nil || sent[1].msg.MatchID != m.ID || sent[1].msg.Version != sent[0].msg.Version {
		t.Errorf("commentary must reference the update, got match=%v id=%q version=%d",
			sent[1].msg.Match != nil, sent[1].msg.MatchID, sent[1].msg.Version)
	}
}

func TestHandleEvent_LateCommentaryCarriesNoSnapshot(t *testing.T) {
	gate := newGatedCommentary()
	h := newHarness(t, withCommentary(gate))
	t.Cleanup(gate.open)
	m := h.createMatch(t, models.SportBadminton, models.StatusLive)
	ctx := context.Background()

	smash := func(pointTo int) {
		t.Helper()
		if _, err := h.scoring.HandleEvent(ctx, EventInput{
			MatchID: m.ID, Sport: "badminton", Type: "Smash", Payload: rallyPayload(pointTo), ActorID: "scorer-1",
		}); err != nil {
			t.Fatal(err)
		}
	}

	smash(1)
	<-gate.started
	smash(2)
	gate.open()
	h.scoring.Drain()

	stored := h.load(t, m)
	sent := h.broadcaster.messages()
	if len(sent) != 4 {
		t.Fatalf("broadcasts = %d, want two updates and two commentaries", len(sent))
	}

	// Состояние клиента: последний полученный снимок.
	var view *models.Match
	for _, s := range sent {
		switch s.msg.Type {
		case models.BroadcastMatchUpdated:
			if s.msg.Match == nil || s.msg.Version != s.msg.Match.Version {
				t.Fatalf("update without consistent snapshot: %+v", s.msg)
			}
			view = s.msg.Match
		case models.BroadcastMatchCommentary:
			if s.msg.Match != nil {
				t.Errorf("commentary for v%d carries a snapshot", s.msg.Version)
			}
			if want := fmt.Sprintf("v%d", s.msg.Version); s.msg.Commentary != want {
				t.Errorf("commentary %q labelled version %d", s.msg.Commentary, s.msg.Version)
			}
		}
	}
	if view == nil || view.Version != stored.Version {
		t.Fatalf("client view version = %v, stored = %d", view, stored.Version)
	}
	if g := view.Badminton.Games[0]; g.Team1Points != 1 || g.Team2Points != 1 {
		t.Errorf("client view score = %d-%d, want 1-1", g.Team1Points, g.Team2Points)
	}
	versions := map[int64]bool{}
	for _, s := range sent {
		if s.msg.Type == models.BroadcastMatchCommentary {
			versions[s.msg.Version] = true
		}
	}
	if !versions[stored.Version-1] || !versions[stored.Version] {
		t.Errorf("commentary versions = %v, want %d and %d", versions, stored.Version-1, stored.Version)
	}
}

func TestHandleEvent_EmptyCommentaryIsNotBroadcast(t *testing.T) {
	h := newHarness(t, withCommentary(staticCommentary{}))
	m := h.createMatch(t, models.SportBadminton, models.StatusLive)

	if _, err := h.scoring.HandleEvent(context.Background(), EventInput{
		MatchID: m.ID, Sport: "badminton", Type: "Smash", Payload: rallyPayload(1), ActorID: "scorer-1",
	}); err != nil {
		t.Fatal(err)
	}
	h.scoring.Drain()
	if n := len(h.broadcaster.messages()); n != 1 {
		t.Errorf("broadcasts = %d, want only the update", n)
	}
}

func TestHandleEvent_ArchivesCompletedMatch(t *testing.T) {
	archiver := &recordingArchiver{}
	h := newHarness(t, withArchiver(archiver))
	m := h.createMatch(t, models.SportFootball, models.StatusLive)
	ctx := context.Background()

	if _, err := h.scoring.HandleEvent(ctx, EventInput{
		MatchID: m.ID, Sport: "football", Type: "goal",
		Payload: json.RawMessage(`{"teamId":"t2","playerId":"p2","minute":88}`), ActorID: "scorer-1",
	}); err != nil {
		t.Fatal(err)
	}
	got, err := h.scoring.HandleEvent(ctx, EventInput{MatchID: m.ID, Sport: "football", Type: models.EventEndMatch, ActorID: "scorer-1"})
	if err != nil {
		t.Fatal(err)
	}
	h.scoring.Drain()

	if got.Winner == nil || *got.Winner != "t2" {
		t.Errorf("winner = %v", got.Winner)
	}
	if len(archiver.archived) != 1 || archiver.archived[0] != m.ID {
		t.Errorf("archived = %v", archiver.archived)
	}
}
