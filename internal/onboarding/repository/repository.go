// Package repository loads onboarding facts for companies from Postgres.
package repository

import (
	"context"
	"errors"
	"time"

	"inmova_backend/internal/onboarding/progress"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("company not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Company is a company row with the related-record counts of its onboarding steps.
type Company struct {
	ID         uuid.UUID
	Nombre     string
	Email      *string
	CIF        *string
	Direccion  *string
	Telefono   *string
	NotasAdmin string
	CreatedAt  time.Time
	Counts     progress.Counts
}

// Profile returns the fields the profile step looks at.
func (c Company) Profile() progress.Profile {
	return progress.Profile{
		CIF:       deref(c.CIF),
		Direccion: deref(c.Direccion),
		Telefono:  deref(c.Telefono),
	}
}

// Filter narrows the company set. Now anchors the stalled cutoff.
type Filter struct {
	Search string
	Status *progress.Status
	Now    time.Time
}

type ListParams struct {
	Filter
	Offset int
	Limit  int
}

// List returns one page of companies matching the filter plus the total match count.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Company, int, error) {
	q := buildFactsQuery(params.Filter, nil)

	var total int
	if err := r.pool.QueryRow(ctx, q.count(), q.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args := q.page(params.Limit, params.Offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := scanCompanies(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListAll returns every company matching the filter, unpaged.
func (r *Repository) ListAll(ctx context.Context, filter Filter) ([]Company, error) {
	q := buildFactsQuery(filter, nil)
	rows, err := r.pool.Query(ctx, q.all(), q.args...)
	if err != nil {
		return nil, err
	}
	return scanCompanies(rows)
}

// Get returns a single company with its counts.
func (r *Repository) Get(ctx context.Context, id uuid.UUID, now time.Time) (Company, error) {
	q := buildFactsQuery(Filter{Now: now}, &id)
	rows, err := r.pool.Query(ctx, q.all(), q.args...)
	if err != nil {
		return Company{}, err
	}
	items, err := scanCompanies(rows)
	if err != nil {
		return Company{}, err
	}
	if len(items) == 0 {
		return Company{}, ErrNotFound
	}
	return items[0], nil
}

// UpdateNotes replaces the admin notes of a company.
func (r *Repository) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE companies SET notas_admin = $2, updated_at = now()
		WHERE id = $1
	`, id, notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCompanies(rows pgx.Rows) ([]Company, error) {
	defer rows.Close()

	items := make([]Company, 0)
	for rows.Next() {
		var c Company
		var lastActivity *time.Time
		if err := rows.Scan(
			&c.ID, &c.Nombre, &c.Email, &c.CIF, &c.Direccion, &c.Telefono, &c.NotasAdmin, &c.CreatedAt,
			&c.Counts.Users, &c.Counts.Buildings, &c.Counts.Units, &c.Counts.Tenants, &c.Counts.Contracts,
			&lastActivity,
		); err != nil {
			return nil, err
		}
		if lastActivity != nil {
			c.Counts.LastActivityAt = *lastActivity
		}
		items = append(items, c)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
