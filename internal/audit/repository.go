package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one row of the audit log.
type Entry struct {
	CompanyID  *uuid.UUID
	ActorID    *uuid.UUID
	EntityType string
	EntityID   uuid.UUID
	Action     string
	Details    any
	OccurredAt time.Time
}

// Repository writes audit entries to PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, entry Entry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO audit_log (company_id, actor_id, entity_type, entity_id, action, details, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.CompanyID, entry.ActorID, entry.EntityType, entry.EntityID, entry.Action, details, entry.OccurredAt,
	)
	return err
}
