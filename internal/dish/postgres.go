package dish

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/kainan-collective/kainan/internal/tracing"
)

// PostgresRepository implements Repository using PostgreSQL.
//
// flavor_profile and ingredients are stored as JSON-encoded text columns and
// decoded on read, matching the wire shape of the listing endpoints.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const dishColumns = `
	id, municipality_id, restaurant_id, name, description,
	flavor_profile, ingredients, photo_key,
	average_rating, total_ratings, popularity,
	featured, featured_rank, is_signature, panel_rank,
	created_at, updated_at
`

// encodeStrings JSON-encodes a string slice for a text column.
// A nil slice encodes as an empty JSON array.
func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode string list: %w", err)
	}
	return string(data), nil
}

// decodeStrings decodes a JSON-encoded text column into a string slice.
func decodeStrings(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("failed to decode string list: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}

func scanDish(scan func(dest ...any) error) (*Dish, error) {
	d := &Dish{}
	var flavorRaw, ingredientsRaw string
	err := scan(
		&d.ID, &d.MunicipalityID, &d.RestaurantID, &d.Name, &d.Description,
		&flavorRaw, &ingredientsRaw, &d.PhotoKey,
		&d.AverageRating, &d.TotalRatings, &d.Popularity,
		&d.Featured, &d.FeaturedRank, &d.IsSignature, &d.PanelRank,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if d.FlavorProfile, err = decodeStrings(flavorRaw); err != nil {
		return nil, err
	}
	if d.Ingredients, err = decodeStrings(ingredientsRaw); err != nil {
		return nil, err
	}
	return d, nil
}

// Insert stores a new dish.
func (r *PostgresRepository) Insert(ctx context.Context, d *Dish) error {
	ctx, endSpan := tracing.StartDBSpan(ctx, "dishes", tracing.DBOperationInsert)
	var err error
	defer func() { endSpan(err) }()

	if d.ID == "" {
		d.ID = uuid.New().String()
	}

	flavor, err := encodeStrings(d.FlavorProfile)
	if err != nil {
		return err
	}
	ingredients, err := encodeStrings(d.Ingredients)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO dishes (
			id, municipality_id, restaurant_id, name, description,
			flavor_profile, ingredients, photo_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRowContext(ctx, query,
		d.ID, d.MunicipalityID, d.RestaurantID, d.Name, d.Description,
		flavor, ingredients, d.PhotoKey,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		err = fmt.Errorf("failed to insert dish: %w", err)
		return err
	}
	return nil
}

// Update modifies an existing dish's descriptive fields. Aggregate and
// curation columns are left untouched.
func (r *PostgresRepository) Update(ctx context.Context, d *Dish) error {
	ctx, endSpan := tracing.StartDBSpan(ctx, "dishes", tracing.DBOperationUpdate)
	var err error
	defer func() { endSpan(err) }()

	flavor, err := encodeStrings(d.FlavorProfile)
	if err != nil {
		return err
	}
	ingredients, err := encodeStrings(d.Ingredients)
	if err != nil {
		return err
	}

	query := `
		UPDATE dishes
		SET restaurant_id = $2, name = $3, description = $4,
		    flavor_profile = $5, ingredients = $6, photo_key = $7,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		d.ID, d.RestaurantID, d.Name, d.Description, flavor, ingredients, d.PhotoKey,
	)
	if err != nil {
		err = fmt.Errorf("failed to update dish: %w", err)
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		err = fmt.Errorf("failed to check dish update: %w", err)
		return err
	}
	if affected == 0 {
		err = ErrDishNotFound
		return err
	}
	return nil
}

// GetByID retrieves a dish by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Dish, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "dishes", tracing.DBOperationQuery)
	var err error
	defer func() { endSpan(err) }()

	query := `SELECT ` + dishColumns + ` FROM dishes WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)
	d, err := scanDish(row.Scan)
	if err == sql.ErrNoRows {
		err = ErrDishNotFound
		return nil, err
	}
	if err != nil {
		err = fmt.Errorf("failed to get dish: %w", err)
		return nil, err
	}
	return d, nil
}

// ListByMunicipality retrieves all dishes for a municipality.
func (r *PostgresRepository) ListByMunicipality(ctx context.Context, municipalityID string) ([]*Dish, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "dishes", tracing.DBOperationQuery)
	var err error
	defer func() { endSpan(err) }()

	query := `SELECT ` + dishColumns + ` FROM dishes WHERE municipality_id = $1`

	rows, err := r.db.QueryContext(ctx, query, municipalityID)
	if err != nil {
		err = fmt.Errorf("failed to list dishes: %w", err)
		return nil, err
	}
	defer rows.Close()

	var result []*Dish
	for rows.Next() {
		d, scanErr := scanDish(rows.Scan)
		if scanErr != nil {
			err = fmt.Errorf("failed to scan dish: %w", scanErr)
			return nil, err
		}
		result = append(result, d)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("failed to iterate dishes: %w", err)
		return nil, err
	}
	return result, nil
}

// UpdateAggregates persists the denormalized rating aggregate as a single
// atomic UPDATE scoped by dish id. Concurrent recomputes for the same dish
// are last-write-wins.
func (r *PostgresRepository) UpdateAggregates(ctx context.Context, id string, averageRating float64, totalRatings int) error {
	ctx, endSpan := tracing.StartDBSpan(ctx, "dishes", tracing.DBOperationUpdate)
	var err error
	defer func() { endSpan(err) }()

	query := `
		UPDATE dishes
		SET average_rating = $2, total_ratings = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, averageRating, totalRatings)
	if err != nil {
		err = fmt.Errorf("failed to update dish aggregates: %w", err)
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		err = fmt.Errorf("failed to check aggregate update: %w", err)
		return err
	}
	if affected == 0 {
		err = ErrDishNotFound
		return err
	}
	return nil
}

// AdjustPopularity adds delta to the dish's popularity counter.
func (r *PostgresRepository) AdjustPopularity(ctx context.Context, id string, delta int) error {
	ctx, endSpan := tracing.StartDBSpan(ctx, "dishes", tracing.DBOperationUpdate)
	var err error
	defer func() { endSpan(err) }()

	query := `
		UPDATE dishes
		SET popularity = GREATEST(popularity + $2, 0), updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, delta)
	if err != nil {
		err = fmt.Errorf("failed to adjust dish popularity: %w", err)
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		err = fmt.Errorf("failed to check popularity update: %w", err)
		return err
	}
	if affected == 0 {
		err = ErrDishNotFound
		return err
	}
	return nil
}

// AssignPanelRank sets panel_rank on the dish, evicting the rank from any
// other dish in the same municipality. Evict and set run inside one
// transaction so two concurrent assignments cannot both observe an empty
// slot and leave duplicate holders.
func (r *PostgresRepository) AssignPanelRank(ctx context.Context, id string, rank *int) (string, error) {
	return r.assignRank(ctx, id, rank, "panel_rank", false)
}

// AssignFeaturedRank sets featured/featured_rank on the dish with the same
// transactional single-occupancy guarantee as AssignPanelRank.
func (r *PostgresRepository) AssignFeaturedRank(ctx context.Context, id string, rank *int) (string, error) {
	return r.assignRank(ctx, id, rank, "featured_rank", true)
}

func (r *PostgresRepository) assignRank(ctx context.Context, id string, rank *int, column string, featured bool) (string, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "dishes", tracing.DBOperationUpdate)
	var err error
	defer func() { endSpan(err) }()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		err = fmt.Errorf("failed to begin rank transaction: %w", err)
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var municipalityID string
	err = tx.QueryRowContext(ctx,
		`SELECT municipality_id FROM dishes WHERE id = $1 FOR UPDATE`, id,
	).Scan(&municipalityID)
	if err == sql.ErrNoRows {
		err = ErrDishNotFound
		return "", err
	}
	if err != nil {
		err = fmt.Errorf("failed to lock dish row: %w", err)
		return "", err
	}

	evicted := ""
	if rank != nil {
		// Clear the slot on any other holder before assigning.
		evictQuery := `
			UPDATE dishes SET ` + column + ` = NULL, updated_at = NOW()
			WHERE municipality_id = $1 AND ` + column + ` = $2 AND id <> $3
			RETURNING id
		`
		err = tx.QueryRowContext(ctx, evictQuery, municipalityID, *rank, id).Scan(&evicted)
		if err != nil && err != sql.ErrNoRows {
			err = fmt.Errorf("failed to evict rank holder: %w", err)
			return "", err
		}
		err = nil
	}

	setQuery := `UPDATE dishes SET ` + column + ` = $2, updated_at = NOW() WHERE id = $1`
	args := []any{id, rank}
	if featured {
		setQuery = `
			UPDATE dishes SET featured_rank = $2, featured = $3, updated_at = NOW()
			WHERE id = $1
		`
		args = append(args, rank != nil)
	}
	if _, err = tx.ExecContext(ctx, setQuery, args...); err != nil {
		err = fmt.Errorf("failed to assign rank: %w", err)
		return "", err
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("failed to commit rank transaction: %w", err)
		return "", err
	}
	return evicted, nil
}

// SetSignature toggles the is_signature flag on the dish.
func (r *PostgresRepository) SetSignature(ctx context.Context, id string, signature bool) error {
	ctx, endSpan := tracing.StartDBSpan(ctx, "dishes", tracing.DBOperationUpdate)
	var err error
	defer func() { endSpan(err) }()

	result, err := r.db.ExecContext(ctx,
		`UPDATE dishes SET is_signature = $2, updated_at = NOW() WHERE id = $1`,
		id, signature,
	)
	if err != nil {
		err = fmt.Errorf("failed to set signature flag: %w", err)
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		err = fmt.Errorf("failed to check signature update: %w", err)
		return err
	}
	if affected == 0 {
		err = ErrDishNotFound
		return err
	}
	return nil
}
