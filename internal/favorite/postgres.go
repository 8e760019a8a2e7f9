package favorite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/kainan-collective/kainan/internal/rating"
	"github.com/kainan-collective/kainan/internal/tracing"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL favorite repository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Add stores a favorite. The unique index on (user_id, target_id,
// target_kind) enforces at most one favorite per user and target.
func (r *PostgresRepository) Add(ctx context.Context, f *Favorite) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "favorites", tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO favorites (id, user_id, target_id, target_kind, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, f.ID, f.UserID, f.TargetID, string(f.TargetKind), f.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrAlreadyFavorited
		}
		return fmt.Errorf("failed to insert favorite: %w", err)
	}
	return nil
}

// Remove deletes a user's favorite of a target.
func (r *PostgresRepository) Remove(ctx context.Context, userID, targetID string, kind rating.Kind) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "favorites", tracing.DBOperationDelete)
	defer func() { endSpan(err) }()

	result, err := r.db.ExecContext(ctx, `
		DELETE FROM favorites
		WHERE user_id = $1 AND target_id = $2 AND target_kind = $3
	`, userID, targetID, string(kind))
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if rows == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}

// ListByUser retrieves a user's favorites, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) (favorites []*Favorite, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "favorites", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, target_id, target_kind, created_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f Favorite
		var kind string
		if err = rows.Scan(&f.ID, &f.UserID, &f.TargetID, &kind, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		f.TargetKind = rating.Kind(kind)
		favorites = append(favorites, &f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate favorites: %w", err)
	}
	return favorites, nil
}

// CountByTarget returns how many users favorited the target.
func (r *PostgresRepository) CountByTarget(ctx context.Context, targetID string, kind rating.Kind) (count int, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "favorites", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM favorites
		WHERE target_id = $1 AND target_kind = $2
	`, targetID, string(kind)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}
	return count, nil
}
