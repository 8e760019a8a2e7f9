package restaurant

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/kainan-collective/kainan/internal/geo"
	"github.com/kainan-collective/kainan/internal/tracing"
)

// PostgresRepository implements Repository using PostgreSQL.
// cuisine_types is stored as a JSON-encoded text column.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const restaurantColumns = `
	id, municipality_id, name, description, cuisine_types,
	address, lat, lng, geohash, photo_key,
	average_rating, total_ratings, popularity,
	featured, featured_rank,
	created_at, updated_at
`

func encodeCuisines(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode cuisine types: %w", err)
	}
	return string(data), nil
}

func scanRestaurant(scan func(dest ...any) error) (*Restaurant, error) {
	rest := &Restaurant{}
	var cuisinesRaw string
	err := scan(
		&rest.ID, &rest.MunicipalityID, &rest.Name, &rest.Description, &cuisinesRaw,
		&rest.Address, &rest.Lat, &rest.Lng, &rest.Geohash, &rest.PhotoKey,
		&rest.AverageRating, &rest.TotalRatings, &rest.Popularity,
		&rest.Featured, &rest.FeaturedRank,
		&rest.CreatedAt, &rest.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if cuisinesRaw != "" {
		var cuisines []string
		if err := json.Unmarshal([]byte(cuisinesRaw), &cuisines); err != nil {
			return nil, fmt.Errorf("failed to decode cuisine types: %w", err)
		}
		if len(cuisines) > 0 {
			rest.CuisineTypes = cuisines
		}
	}
	return rest, nil
}

// Insert stores a new restaurant, deriving its coarse geohash.
func (r *PostgresRepository) Insert(ctx context.Context, rest *Restaurant) error {
	ctx, endSpan := tracing.StartDBSpan(ctx, "restaurants", tracing.DBOperationInsert)
	var err error
	defer func() { endSpan(err) }()

	if rest.ID == "" {
		rest.ID = uuid.New().String()
	}
	rest.Geohash = geo.Encode(rest.Lat, rest.Lng, geo.DefaultPrecision)

	cuisines, err := encodeCuisines(rest.CuisineTypes)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO restaurants (
			id, municipality_id, name, description, cuisine_types,
			address, lat, lng, geohash, photo_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRowContext(ctx, query,
		rest.ID, rest.MunicipalityID, rest.Name, rest.Description, cuisines,
		rest.Address, rest.Lat, rest.Lng, rest.Geohash, rest.PhotoKey,
	).Scan(&rest.CreatedAt, &rest.UpdatedAt)
	if err != nil {
		err = fmt.Errorf("failed to insert restaurant: %w", err)
		return err
	}
	return nil
}

// Update modifies an existing restaurant's descriptive fields.
func (r *PostgresRepository) Update(ctx context.Context, rest *Restaurant) error {
	ctx, endSpan := tracing.StartDBSpan(ctx, "restaurants", tracing.DBOperationUpdate)
	var err error
	defer func() { endSpan(err) }()

	rest.Geohash = geo.Encode(rest.Lat, rest.Lng, geo.DefaultPrecision)

	cuisines, err := encodeCuisines(rest.CuisineTypes)
	if err != nil {
		return err
	}

	query := `
		UPDATE restaurants
		SET name = $2, description = $3, cuisine_types = $4,
		    address = $5, lat = $6, lng = $7, geohash = $8, photo_key = $9,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		rest.ID, rest.Name, rest.Description, cuisines,
		rest.Address, rest.Lat, rest.Lng, rest.Geohash, rest.PhotoKey,
	)
	if err != nil {
		err = fmt.Errorf("failed to update restaurant: %w", err)
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		err = fmt.Errorf("failed to check restaurant update: %w", err)
		return err
	}
	if affected == 0 {
		err = ErrRestaurantNotFound
		return err
	}
	return nil
}

// GetByID retrieves a restaurant by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Restaurant, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "restaurants", tracing.DBOperationQuery)
	var err error
	defer func() { endSpan(err) }()

	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)
	rest, err := scanRestaurant(row.Scan)
	if err == sql.ErrNoRows {
		err = ErrRestaurantNotFound
		return nil, err
	}
	if err != nil {
		err = fmt.Errorf("failed to get restaurant: %w", err)
		return nil, err
	}
	return rest, nil
}

// ListByMunicipality retrieves all restaurants for a municipality.
func (r *PostgresRepository) ListByMunicipality(ctx context.Context, municipalityID string) ([]*Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE municipality_id = $1`
	return r.list(ctx, query, municipalityID)
}

// ListByDishName retrieves restaurants in a municipality that serve the
// named dish, via a join against the dishes table.
func (r *PostgresRepository) ListByDishName(ctx context.Context, municipalityID, dishName string) ([]*Restaurant, error) {
	query := `
		SELECT DISTINCT r.id, r.municipality_id, r.name, r.description, r.cuisine_types,
		       r.address, r.lat, r.lng, r.geohash, r.photo_key,
		       r.average_rating, r.total_ratings, r.popularity,
		       r.featured, r.featured_rank,
		       r.created_at, r.updated_at
		FROM restaurants r
		JOIN dishes d ON d.restaurant_id = r.id
		WHERE r.municipality_id = $1 AND LOWER(d.name) = LOWER($2)
	`
	return r.list(ctx, query, municipalityID, dishName)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*Restaurant, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "restaurants", tracing.DBOperationQuery)
	var err error
	defer func() { endSpan(err) }()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		err = fmt.Errorf("failed to list restaurants: %w", err)
		return nil, err
	}
	defer rows.Close()

	var result []*Restaurant
	for rows.Next() {
		rest, scanErr := scanRestaurant(rows.Scan)
		if scanErr != nil {
			err = fmt.Errorf("failed to scan restaurant: %w", scanErr)
			return nil, err
		}
		result = append(result, rest)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("failed to iterate restaurants: %w", err)
		return nil, err
	}
	return result, nil
}

// UpdateAggregates persists the denormalized rating aggregate as a single
// atomic UPDATE scoped by restaurant id.
func (r *PostgresRepository) UpdateAggregates(ctx context.Context, id string, averageRating float64, totalRatings int) error {
	ctx, endSpan := tracing.StartDBSpan(ctx, "restaurants", tracing.DBOperationUpdate)
	var err error
	defer func() { endSpan(err) }()

	query := `
		UPDATE restaurants
		SET average_rating = $2, total_ratings = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, averageRating, totalRatings)
	if err != nil {
		err = fmt.Errorf("failed to update restaurant aggregates: %w", err)
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		err = fmt.Errorf("failed to check aggregate update: %w", err)
		return err
	}
	if affected == 0 {
		err = ErrRestaurantNotFound
		return err
	}
	return nil
}

// AdjustPopularity adds delta to the popularity counter.
func (r *PostgresRepository) AdjustPopularity(ctx context.Context, id string, delta int) error {
	ctx, endSpan := tracing.StartDBSpan(ctx, "restaurants", tracing.DBOperationUpdate)
	var err error
	defer func() { endSpan(err) }()

	query := `
		UPDATE restaurants
		SET popularity = GREATEST(popularity + $2, 0), updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, delta)
	if err != nil {
		err = fmt.Errorf("failed to adjust restaurant popularity: %w", err)
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		err = fmt.Errorf("failed to check popularity update: %w", err)
		return err
	}
	if affected == 0 {
		err = ErrRestaurantNotFound
		return err
	}
	return nil
}

// AssignFeaturedRank sets featured/featured_rank inside one transaction,
// evicting the rank from any other restaurant in the same municipality.
func (r *PostgresRepository) AssignFeaturedRank(ctx context.Context, id string, rank *int) (string, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "restaurants", tracing.DBOperationUpdate)
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
		`SELECT municipality_id FROM restaurants WHERE id = $1 FOR UPDATE`, id,
	).Scan(&municipalityID)
	if err == sql.ErrNoRows {
		err = ErrRestaurantNotFound
		return "", err
	}
	if err != nil {
		err = fmt.Errorf("failed to lock restaurant row: %w", err)
		return "", err
	}

	evicted := ""
	if rank != nil {
		evictQuery := `
			UPDATE restaurants SET featured_rank = NULL, updated_at = NOW()
			WHERE municipality_id = $1 AND featured_rank = $2 AND id <> $3
			RETURNING id
		`
		err = tx.QueryRowContext(ctx, evictQuery, municipalityID, *rank, id).Scan(&evicted)
		if err != nil && err != sql.ErrNoRows {
			err = fmt.Errorf("failed to evict rank holder: %w", err)
			return "", err
		}
		err = nil
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE restaurants SET featured_rank = $2, featured = $3, updated_at = NOW() WHERE id = $1`,
		id, rank, rank != nil,
	); err != nil {
		err = fmt.Errorf("failed to assign rank: %w", err)
		return "", err
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("failed to commit rank transaction: %w", err)
		return "", err
	}
	return evicted, nil
}
