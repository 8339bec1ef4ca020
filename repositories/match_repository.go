package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/live-scoring/models"
	"github.com/lib/pq"
)

type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// MatchRepository stores match documents, one collection per sport.
type MatchRepository interface {
	Create(ctx context.Context, collection string, match *models.Match) error
	GetByID(ctx context.Context, collection, id string) (*models.Match, error)
	// Save replaces the stored document only if its version still equals
	// match.Version, then bumps match.Version. On ErrMatchVersionConflict the
	// caller must reload and re-apply.
	Save(ctx context.Context, collection string, match *models.Match) error
	ListBySport(ctx context.Context, collection string, status *models.MatchStatus) ([]*models.Match, error)
	ListCompleted(ctx context.Context, collection string) ([]*models.Match, error)
}

type postgresMatchRepository struct {
	db          SQLExecutor
	collections map[string]bool
}

// NewPostgresMatchRepository accepts only the listed collections as table names.
func NewPostgresMatchRepository(db SQLExecutor, collections []string) MatchRepository {
	known := make(map[string]bool, len(collections))
	for _, c := range collections {
		known[c] = true
	}
	return &postgresMatchRepository{db: db, collections: known}
}

func (r *postgresMatchRepository) table(collection string) (string, error) {
	if !r.collections[collection] {
		return "", fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}
	return pq.QuoteIdentifier(collection), nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, collection string, match *models.Match) error {
	table, err := r.table(collection)
	if err != nil {
		return err
	}
	if match.Version == 0 {
		match.Version = 1
	}
	doc, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("failed to encode match %s: %w", match.ID, err)
	}

	query := `
		INSERT INTO ` + table + ` (id, status, version, scorers, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.db.ExecContext(ctx, query,
		match.ID,
		match.Status,
		match.Version,
		pq.Array(match.ScoringUpdatedBy),
		doc,
		match.CreatedAt,
		match.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return ErrMatchAlreadyExists
		}
		return fmt.Errorf("failed to insert match %s into %s: %w", match.ID, collection, err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, collection, id string) (*models.Match, error) {
	table, err := r.table(collection)
	if err != nil {
		return nil, err
	}
	query := `SELECT document, version FROM ` + table + ` WHERE id = $1`

	var (
		doc     []byte
		version int64
	)
	err = r.db.QueryRowContext(ctx, query, id).Scan(&doc, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %s from %s: %w", id, collection, err)
	}
	return decodeMatch(doc, version)
}

func (r *postgresMatchRepository) Save(ctx context.Context, collection string, match *models.Match) error {
	table, err := r.table(collection)
	if err != nil {
		return err
	}

	expected := match.Version
	match.Version = expected + 1
	doc, err := json.Marshal(match)
	if err != nil {
		match.Version = expected
		return fmt.Errorf("failed to encode match %s: %w", match.ID, err)
	}

	query := `
		UPDATE ` + table + `
		SET status = $1, version = $2, scorers = $3, document = $4, updated_at = $5
		WHERE id = $6 AND version = $7`

	result, err := r.db.ExecContext(ctx, query,
		match.Status,
		match.Version,
		pq.Array(match.ScoringUpdatedBy),
		doc,
		match.UpdatedAt,
		match.ID,
		expected,
	)
	if err != nil {
		match.Version = expected
		return fmt.Errorf("failed to save match %s: %w", match.ID, err)
	}
	if err := checkAffectedRows(result, ErrMatchVersionConflict); err != nil {
		match.Version = expected
		if errors.Is(err, ErrMatchVersionConflict) {
			return r.conflictOrMissing(ctx, table, match.ID)
		}
		return err
	}
	return nil
}

// conflictOrMissing distinguishes a stale version from a deleted row after a
// CAS update touched nothing.
func (r *postgresMatchRepository) conflictOrMissing(ctx context.Context, table, id string) error {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM ` + table + ` WHERE id = $1)`
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check match %s existence: %w", id, err)
	}
	if !exists {
		return ErrMatchNotFound
	}
	return ErrMatchVersionConflict
}

func (r *postgresMatchRepository) ListBySport(ctx context.Context, collection string, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	table, err := r.table(collection)
	if err != nil {
		return nil, err
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT document, version FROM ` + table)

	args := []interface{}{}
	if statusFilter != nil {
		queryBuilder.WriteString(" WHERE status = $")
		queryBuilder.WriteString(strconv.Itoa(len(args) + 1))
		args = append(args, *statusFilter)
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches from %s: %w", collection, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var (
			doc     []byte
			version int64
		)
		if scanErr := rows.Scan(&doc, &version); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		m, decodeErr := decodeMatch(doc, version)
		if decodeErr != nil {
			return nil, decodeErr
		}
		matches = append(matches, m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) ListCompleted(ctx context.Context, collection string) ([]*models.Match, error) {
	status := models.StatusCompleted
	return r.ListBySport(ctx, collection, &status)
}

// decodeMatch trusts the version column over the one embedded in the document.
func decodeMatch(doc []byte, version int64) (*models.Match, error) {
	var m models.Match
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, fmt.Errorf("failed to decode match document: %w", err)
	}
	m.Version = version
	return &m, nil
}
