package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/Dosada05/live-scoring/models"
)

type memoryDocument struct {
	data    []byte
	status  models.MatchStatus
	version int64
}

type memoryMatchRepository struct {
	mu          sync.RWMutex
	collections map[string]map[string]memoryDocument
}

// NewMemoryMatchRepository keeps encoded documents in process memory, so
// callers never share pointers with the store.
func NewMemoryMatchRepository(collections []string) MatchRepository {
	r := &memoryMatchRepository{collections: make(map[string]map[string]memoryDocument, len(collections))}
	for _, c := range collections {
		r.collections[c] = make(map[string]memoryDocument)
	}
	return r
}

func (r *memoryMatchRepository) collection(name string) (map[string]memoryDocument, error) {
	docs, ok := r.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCollection, name)
	}
	return docs, nil
}

func (r *memoryMatchRepository) Create(ctx context.Context, collection string, match *models.Match) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	docs, err := r.collection(collection)
	if err != nil {
		return err
	}
	if _, exists := docs[match.ID]; exists {
		return ErrMatchAlreadyExists
	}
	if match.Version == 0 {
		match.Version = 1
	}
	data, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("failed to encode match %s: %w", match.ID, err)
	}
	docs[match.ID] = memoryDocument{data: data, status: match.Status, version: match.Version}
	return nil
}

func (r *memoryMatchRepository) GetByID(ctx context.Context, collection, id string) (*models.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs, err := r.collection(collection)
	if err != nil {
		return nil, err
	}
	doc, ok := docs[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return decodeMatch(doc.data, doc.version)
}

func (r *memoryMatchRepository) Save(ctx context.Context, collection string, match *models.Match) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	docs, err := r.collection(collection)
	if err != nil {
		return err
	}
	current, ok := docs[match.ID]
	if !ok {
		return ErrMatchNotFound
	}
	if current.version != match.Version {
		return ErrMatchVersionConflict
	}

	match.Version++
	data, err := json.Marshal(match)
	if err != nil {
		match.Version--
		return fmt.Errorf("failed to encode match %s: %w", match.ID, err)
	}
	docs[match.ID] = memoryDocument{data: data, status: match.Status, version: match.Version}
	return nil
}

func (r *memoryMatchRepository) ListBySport(ctx context.Context, collection string, status *models.MatchStatus) ([]*models.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs, err := r.collection(collection)
	if err != nil {
		return nil, err
	}
	matches := make([]*models.Match, 0, len(docs))
	for _, doc := range docs {
		if status != nil && doc.status != *status {
			continue
		}
		m, err := decodeMatch(doc.data, doc.version)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

func (r *memoryMatchRepository) ListCompleted(ctx context.Context, collection string) ([]*models.Match, error) {
	status := models.StatusCompleted
	return r.ListBySport(ctx, collection, &status)
}
