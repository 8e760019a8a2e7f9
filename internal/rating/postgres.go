package rating

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/kainan-collective/kainan/internal/tracing"
)

// PostgresRepository implements Repository using PostgreSQL.
// The ratings table carries a unique constraint on
// (user_id, rateable_id, rateable_type), so Upsert is expressed with
// ON CONFLICT DO UPDATE and the stored weight is preserved on update.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const entryColumns = `
	id, user_id, rateable_id, rateable_type, rating, weight, comment,
	is_verified_visit, helpful_count, report_count, created_at, updated_at
`

func scanEntry(scan func(dest ...any) error) (*Entry, error) {
	e := &Entry{}
	err := scan(
		&e.ID, &e.AuthorID, &e.TargetID, &e.TargetKind, &e.Score, &e.Weight,
		&e.Comment, &e.IsVerifiedVisit, &e.HelpfulCount, &e.ReportCount,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Upsert inserts a new entry or updates the author's existing entry for
// the same target in place.
func (r *PostgresRepository) Upsert(ctx context.Context, e *Entry) (*UpsertResult, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "ratings", tracing.DBOperationInsert)
	var err error
	defer func() { endSpan(err) }()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Weight == 0 {
		e.Weight = DefaultWeight
	}

	query := `
		INSERT INTO ratings (
			id, user_id, rateable_id, rateable_type, rating, weight,
			comment, is_verified_visit
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, rateable_id, rateable_type) DO UPDATE
		SET rating = EXCLUDED.rating,
		    comment = EXCLUDED.comment,
		    is_verified_visit = EXCLUDED.is_verified_visit,
		    updated_at = NOW()
		RETURNING ` + entryColumns + `, (xmax = 0) AS inserted
	`

	stored := &Entry{}
	var inserted bool
	err = r.db.QueryRowContext(ctx, query,
		e.ID, e.AuthorID, e.TargetID, e.TargetKind, e.Score, e.Weight,
		e.Comment, e.IsVerifiedVisit,
	).Scan(
		&stored.ID, &stored.AuthorID, &stored.TargetID, &stored.TargetKind,
		&stored.Score, &stored.Weight, &stored.Comment, &stored.IsVerifiedVisit,
		&stored.HelpfulCount, &stored.ReportCount,
		&stored.CreatedAt, &stored.UpdatedAt, &inserted,
	)
	if err != nil {
		err = fmt.Errorf("failed to upsert rating: %w", err)
		return nil, err
	}
	return &UpsertResult{Inserted: inserted, Entry: stored}, nil
}

// GetByID retrieves an entry by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Entry, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "ratings", tracing.DBOperationQuery)
	var err error
	defer func() { endSpan(err) }()

	query := `SELECT ` + entryColumns + ` FROM ratings WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)
	e, err := scanEntry(row.Scan)
	if err == sql.ErrNoRows {
		err = ErrEntryNotFound
		return nil, err
	}
	if err != nil {
		err = fmt.Errorf("failed to get rating: %w", err)
		return nil, err
	}
	return e, nil
}

// Delete removes an entry by its UUID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	ctx, endSpan := tracing.StartDBSpan(ctx, "ratings", tracing.DBOperationDelete)
	var err error
	defer func() { endSpan(err) }()

	result, err := r.db.ExecContext(ctx, `DELETE FROM ratings WHERE id = $1`, id)
	if err != nil {
		err = fmt.Errorf("failed to delete rating: %w", err)
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		err = fmt.Errorf("failed to check rating delete: %w", err)
		return err
	}
	if affected == 0 {
		err = ErrEntryNotFound
		return err
	}
	return nil
}

// ListByTarget retrieves all entries for a target, newest first with a
// stable id tiebreak.
func (r *PostgresRepository) ListByTarget(ctx context.Context, targetID string, kind Kind) ([]*Entry, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "ratings", tracing.DBOperationQuery)
	var err error
	defer func() { endSpan(err) }()

	query := `
		SELECT ` + entryColumns + `
		FROM ratings
		WHERE rateable_id = $1 AND rateable_type = $2
		ORDER BY created_at DESC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, targetID, kind)
	if err != nil {
		err = fmt.Errorf("failed to list ratings: %w", err)
		return nil, err
	}
	defer rows.Close()

	var result []*Entry
	for rows.Next() {
		e, scanErr := scanEntry(rows.Scan)
		if scanErr != nil {
			err = fmt.Errorf("failed to scan rating: %w", scanErr)
			return nil, err
		}
		result = append(result, e)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("failed to iterate ratings: %w", err)
		return nil, err
	}
	return result, nil
}

// AggregateForTarget computes the weighted aggregate over all entries for
// the target in a single query.
func (r *PostgresRepository) AggregateForTarget(ctx context.Context, targetID string, kind Kind) (Aggregate, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "ratings", tracing.DBOperationQuery)
	var err error
	defer func() { endSpan(err) }()

	// COALESCE covers the empty set: SUM over zero rows is NULL.
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(rating * weight) / NULLIF(SUM(weight), 0), 0)
		FROM ratings
		WHERE rateable_id = $1 AND rateable_type = $2
	`

	var agg Aggregate
	err = r.db.QueryRowContext(ctx, query, targetID, kind).Scan(&agg.TotalRatings, &agg.AverageRating)
	if err != nil {
		err = fmt.Errorf("failed to aggregate ratings: %w", err)
		return Aggregate{}, err
	}
	return agg, nil
}
