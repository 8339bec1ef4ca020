package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/live-scoring/models"
	"github.com/Dosada05/live-scoring/repositories"
	"github.com/Dosada05/live-scoring/sports"
	"github.com/Dosada05/live-scoring/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sentMessage struct {
	room string
	msg  models.Broadcast
}

type recordingBroadcaster struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (b *recordingBroadcaster) BroadcastToRoom(roomID string, message interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, sentMessage{room: roomID, msg: message.(models.Broadcast)})
}

func (b *recordingBroadcaster) messages() []sentMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]sentMessage(nil), b.sent...)
}

// flakyRepository wraps a real repository and injects save failures.
type flakyRepository struct {
	repositories.MatchRepository

	mu        sync.Mutex
	saveErrs  []error
	saveCalls int
	// beforeSave runs once before the first save, outside the wrapper lock.
	beforeSave func()
}

func (r *flakyRepository) Save(ctx context.Context, collection string, m *models.Match) error {
	r.mu.Lock()
	r.saveCalls++
	hook := r.beforeSave
	r.beforeSave = nil
	var injected error
	if len(r.saveErrs) > 0 {
		injected, r.saveErrs = r.saveErrs[0], r.saveErrs[1:]
	}
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	if injected != nil {
		return injected
	}
	return r.MatchRepository.Save(ctx, collection, m)
}

type staticCommentary struct{ text string }

func (c staticCommentary) Describe(ctx context.Context, sport models.Sport, eventType string, payload json.RawMessage, match *models.Match) string {
	return c.text
}

// gatedCommentary holds the first Describe call until release is closed.
// The text names the version it was produced for.
type gatedCommentary struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedCommentary() *gatedCommentary {
	return &gatedCommentary{started: make(chan struct{}), release: make(chan struct{})}
}

func (c *gatedCommentary) Describe(ctx context.Context, sport models.Sport, eventType string, payload json.RawMessage, match *models.Match) string {
	c.mu.Lock()
	c.calls++
	first := c.calls == 1
	c.mu.Unlock()
	if first {
		close(c.started)
		<-c.release
	}
	return fmt.Sprintf("v%d", match.Version)
}

func (c *gatedCommentary) open() {
	c.once.Do(func() { close(c.release) })
}

type recordingArchiver struct {
	mu       sync.Mutex
	archived []string
}

func (a *recordingArchiver) Archive(ctx context.Context, m *models.Match) (*storage.UploadResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.archived = append(a.archived, m.ID)
	return &storage.UploadResult{Key: storage.ArchiveKey(m)}, nil
}

type harness struct {
	registry    *sports.Registry
	repo        *flakyRepository
	broadcaster *recordingBroadcaster
	scoring     ScoringService
	matches     MatchService
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	commentary CommentaryService
	archiver   storage.Archiver
}

func withCommentary(c CommentaryService) harnessOption {
	return func(h *harnessConfig) { h.commentary = c }
}

func withArchiver(a storage.Archiver) harnessOption {
	return func(h *harnessConfig) { h.archiver = a }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	var cfg harnessConfig
	for _, o := range opts {
		o(&cfg)
	}
	registry := sports.NewRegistry(sports.Overrides{})
	repo := &flakyRepository{MatchRepository: repositories.NewMemoryMatchRepository(registry.Collections())}
	b := &recordingBroadcaster{}
	locks := NewKeyedMutex()
	logger := discardLogger()

	scoring := NewScoringService(registry, repo, b, cfg.commentary, cfg.archiver, locks,
		ScoringServiceConfig{RetryBackoff: time.Millisecond}, logger)
	t.Cleanup(scoring.Drain)

	return &harness{
		registry:    registry,
		repo:        repo,
		broadcaster: b,
		scoring:     scoring,
		matches:     NewMatchService(registry, repo, b, locks, logger),
	}
}

var (
	organizer = models.Identity{UserID: "org-1", Role: models.RoleOrganizer}
	admin     = models.Identity{UserID: "admin-1", Role: models.RoleAdmin}
)

// createMatch stores a match for sport scored by "scorer-1" and moves it to
// the requested status.
func (h *harness) createMatch(t *testing.T, sport models.Sport, status models.MatchStatus) *models.Match {
	t.Helper()
	m, err := h.matches.Create(context.Background(), organizer, CreateMatchInput{
		Sport: string(sport),
		Teams: [2]models.TeamRef{
			{ID: "t1", Name: "Home", Players: []models.PlayerRef{{ID: "p1", Name: "Ann"}}},
			{ID: "t2", Name: "Away", Players: []models.PlayerRef{{ID: "p2", Name: "Bob"}}},
		},
		Scorers: []string{"scorer-1"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if status == models.StatusScheduled {
		return m
	}

	ctx := context.Background()
	rules, _ := h.registry.Resolve(string(sport))
	stored, err := h.repo.GetByID(ctx, rules.Collection(), m.ID)
	if err != nil {
		t.Fatal(err)
	}
	stored.Status = status
	if err := h.repo.MatchRepository.Save(ctx, rules.Collection(), stored); err != nil {
		t.Fatal(err)
	}
	return stored
}

func (h *harness) load(t *testing.T, m *models.Match) *models.Match {
	t.Helper()
	rules, _ := h.registry.Resolve(string(m.Sport))
	got, err := h.repo.GetByID(context.Background(), rules.Collection(), m.ID)
	if err != nil {
		t.Fatalf("load %s: %v", m.ID, err)
	}
	return got
}

func rallyPayload(pointTo int) json.RawMessage {
	data, _ := json.Marshal(map[string]interface{}{"playerId": "p1", "pointTo": pointTo})
	return data
}

var errDiskFull = errors.New("disk full")
