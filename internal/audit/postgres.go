package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kainan-collective/kainan/internal/tracing"
)

// auditLockKey is the advisory lock key serializing hash chain appends.
const auditLockKey = 0x6b61696e616e01

const auditColumns = `id, actor_id, entity_type, entity_id, action, outcome,
	old_rank, new_rank, evicted_id, request_id, ip_address, previous_hash, created_at`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL audit repository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanEntry(row interface{ Scan(...any) error }) (*Entry, error) {
	var e Entry
	var evicted, requestID, ipAddress sql.NullString
	err := row.Scan(
		&e.ID, &e.ActorID, &e.EntityType, &e.EntityID, &e.Action, &e.Outcome,
		&e.OldRank, &e.NewRank, &evicted, &requestID, &ipAddress,
		&e.PreviousHash, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.EvictedID = evicted.String
	e.RequestID = requestID.String
	e.IPAddress = ipAddress.String
	return &e, nil
}

// Record appends a curation change to the audit log.
//
// The hash chain requires reading the previous entry's hash before
// inserting, so appends are serialized with a transaction-scoped
// advisory lock.
func (r *PostgresRepository) Record(ctx context.Context, change Change) (entry *Entry, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "curation_log", tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	if err = validateChange(change); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin audit transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, auditLockKey); err != nil {
		return nil, fmt.Errorf("failed to acquire audit lock: %w", err)
	}

	var prevHash string
	err = tx.QueryRowContext(ctx, `
		SELECT chain_hash FROM curation_log
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`).Scan(&prevHash)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read audit chain head: %w", err)
	}
	err = nil

	e := &Entry{
		ID:           uuid.New().String(),
		ActorID:      change.ActorID,
		EntityType:   change.EntityType,
		EntityID:     change.EntityID,
		Action:       change.Action,
		Outcome:      change.Outcome,
		CreatedAt:    time.Now().UTC(),
		OldRank:      change.OldRank,
		NewRank:      change.NewRank,
		EvictedID:    change.EvictedID,
		RequestID:    change.RequestID,
		IPAddress:    change.IPAddress,
		PreviousHash: prevHash,
	}
	hash := chainHash(prevHash, e)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO curation_log (
			id, actor_id, entity_type, entity_id, action, outcome,
			old_rank, new_rank, evicted_id, request_id, ip_address,
			previous_hash, chain_hash, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
			NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), $12, $13, $14)
	`, e.ID, e.ActorID, e.EntityType, e.EntityID, e.Action, e.Outcome,
		e.OldRank, e.NewRank, e.EvictedID, e.RequestID, e.IPAddress,
		e.PreviousHash, hash, e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert audit entry: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit audit entry: %w", err)
	}
	return e, nil
}

// QueryByEntity retrieves entries for a specific entity, newest first.
func (r *PostgresRepository) QueryByEntity(ctx context.Context, entityType, entityID string, limit int) (entries []*Entry, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "curation_log", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := fmt.Sprintf(`
		SELECT %s FROM curation_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC
	`, auditColumns)
	args := []any{entityType, entityID}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			err = fmt.Errorf("failed to scan audit entry: %w", scanErr)
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}
	return entries, nil
}

// QueryByActor retrieves entries for a specific actor, newest first.
func (r *PostgresRepository) QueryByActor(ctx context.Context, actorID string, limit int) (entries []*Entry, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "curation_log", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := fmt.Sprintf(`
		SELECT %s FROM curation_log
		WHERE actor_id = $1
		ORDER BY created_at DESC, id DESC
	`, auditColumns)
	args := []any{actorID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			err = fmt.Errorf("failed to scan audit entry: %w", scanErr)
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}
	return entries, nil
}
