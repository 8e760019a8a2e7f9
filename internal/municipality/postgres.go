package municipality

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert stores a new municipality.
func (r *PostgresRepository) Insert(ctx context.Context, m *Municipality) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	query := `
		INSERT INTO municipalities (id, name, slug, province, description, lat, lng)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		m.ID, m.Name, m.Slug, m.Province, m.Description, m.Lat, m.Lng,
	).Scan(&m.CreatedAt, &m.UpdatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrDuplicateSlug
	}
	if err != nil {
		return fmt.Errorf("failed to insert municipality: %w", err)
	}
	return nil
}

// GetByID retrieves a municipality by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Municipality, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetBySlug retrieves a municipality by its URL slug.
func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*Municipality, error) {
	return r.getOne(ctx, "slug = $1", slug)
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*Municipality, error) {
	query := `
		SELECT id, name, slug, province, description, lat, lng, created_at, updated_at
		FROM municipalities
		WHERE ` + where

	m := &Municipality{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&m.ID, &m.Name, &m.Slug, &m.Province, &m.Description,
		&m.Lat, &m.Lng, &m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrMunicipalityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get municipality: %w", err)
	}
	return m, nil
}

// List retrieves all municipalities ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]*Municipality, error) {
	query := `
		SELECT id, name, slug, province, description, lat, lng, created_at, updated_at
		FROM municipalities
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list municipalities: %w", err)
	}
	defer rows.Close()

	var result []*Municipality
	for rows.Next() {
		m := &Municipality{}
		if err := rows.Scan(
			&m.ID, &m.Name, &m.Slug, &m.Province, &m.Description,
			&m.Lat, &m.Lng, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan municipality: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate municipalities: %w", err)
	}
	return result, nil
}
