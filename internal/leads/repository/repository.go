package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID                  uuid.UUID
	CompanyID           uuid.UUID
	Nombre              string
	Apellidos           *string
	Email               *string
	Telefono            *string
	Empresa             *string
	Cargo               *string
	Ciudad              *string
	PresupuestoMensual  *float64
	Urgencia            *string
	Estado              string
	Fuente              *string
	Notas               *string
	Metadata            map[string]string
	ContactosRealizados int
	UltimoContacto      *time.Time
	Puntuacion          int
	Temperatura         string
	ProbabilidadCierre  int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// MutateFunc derives the next state of a lead from its locked current state.
// Returning write=false leaves the row untouched.
type MutateFunc func(current Lead) (next Lead, write bool, err error)

const leadColumns = `id, company_id, nombre, apellidos, email, telefono, empresa, cargo, ciudad,
	presupuesto_mensual, urgencia, estado, fuente, notas, metadata, contactos_realizados, ultimo_contacto,
	puntuacion, temperatura, probabilidad_cierre, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, lead Lead) (Lead, error) {
	metadata, err := encodeMetadata(lead.Metadata)
	if err != nil {
		return Lead{}, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			company_id, nombre, apellidos, email, telefono, empresa, cargo, ciudad,
			presupuesto_mensual, urgencia, estado, fuente, notas, metadata,
			contactos_realizados, ultimo_contacto, puntuacion, temperatura, probabilidad_cierre
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING `+leadColumns,
		lead.CompanyID, lead.Nombre, lead.Apellidos, lead.Email, lead.Telefono, lead.Empresa, lead.Cargo, lead.Ciudad,
		lead.PresupuestoMensual, lead.Urgencia, lead.Estado, lead.Fuente, lead.Notas, metadata,
		lead.ContactosRealizados, lead.UltimoContacto, lead.Puntuacion, lead.Temperatura, lead.ProbabilidadCierre,
	)
	return scanLead(row)
}

// GetByID returns a lead of the given company. Leads of other companies are not found.
func (r *Repository) GetByID(ctx context.Context, id, companyID uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 AND company_id = $2`, id, companyID)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// Mutate locks the lead row, lets fn derive the next state and writes it back
// in the same transaction, so concurrent edits cannot interleave.
func (r *Repository) Mutate(ctx context.Context, id, companyID uuid.UUID, fn MutateFunc) (Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanLead(tx.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1 AND company_id = $2 FOR UPDATE`, id, companyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}

	next, write, err := fn(current)
	if err != nil {
		return Lead{}, err
	}
	if !write {
		return current, nil
	}

	metadata, err := encodeMetadata(next.Metadata)
	if err != nil {
		return Lead{}, err
	}

	updated, err := scanLead(tx.QueryRow(ctx, `
		UPDATE leads SET
			nombre = $3, apellidos = $4, email = $5, telefono = $6, empresa = $7, cargo = $8, ciudad = $9,
			presupuesto_mensual = $10, urgencia = $11, estado = $12, fuente = $13, notas = $14, metadata = $15,
			contactos_realizados = $16, ultimo_contacto = $17,
			puntuacion = $18, temperatura = $19, probabilidad_cierre = $20,
			updated_at = now()
		WHERE id = $1 AND company_id = $2
		RETURNING `+leadColumns,
		id, companyID,
		next.Nombre, next.Apellidos, next.Email, next.Telefono, next.Empresa, next.Cargo, next.Ciudad,
		next.PresupuestoMensual, next.Urgencia, next.Estado, next.Fuente, next.Notas, metadata,
		next.ContactosRealizados, next.UltimoContacto,
		next.Puntuacion, next.Temperatura, next.ProbabilidadCierre,
	))
	if err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}
	return updated, nil
}

type ListParams struct {
	CompanyID   uuid.UUID
	Estado      *string
	Temperatura *string
	Search      string
	Offset      int
	Limit       int
}

// Stats aggregates the full filtered lead set.
type Stats struct {
	Total             int
	ByTemperatura     map[string]int
	AveragePuntuacion float64
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	whereClause, args, argIdx := buildLeadListWhere(params)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM leads WHERE %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM leads
		WHERE %s
		ORDER BY puntuacion DESC, created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, leadColumns, whereClause, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return leads, total, nil
}

// Stats runs the unpaged aggregate over the same filter as List.
func (r *Repository) Stats(ctx context.Context, params ListParams) (Stats, error) {
	whereClause, args, _ := buildLeadListWhere(params)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT temperatura, COUNT(*), COALESCE(SUM(puntuacion), 0)
		FROM leads
		WHERE %s
		GROUP BY temperatura
	`, whereClause), args...)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	stats := Stats{ByTemperatura: map[string]int{}}
	var sum int64
	for rows.Next() {
		var temperatura string
		var count, points int64
		if err := rows.Scan(&temperatura, &count, &points); err != nil {
			return Stats{}, err
		}
		stats.ByTemperatura[temperatura] = int(count)
		stats.Total += int(count)
		sum += points
	}
	if rows.Err() != nil {
		return Stats{}, rows.Err()
	}

	if stats.Total > 0 {
		stats.AveragePuntuacion = float64(sum) / float64(stats.Total)
	}
	return stats, nil
}

func buildLeadListWhere(params ListParams) (string, []interface{}, int) {
	// Company ID is always the first filter (mandatory for tenant isolation)
	whereClauses := []string{"company_id = $1"}
	args := []interface{}{params.CompanyID}
	argIdx := 2

	addEquals := func(column string, value string) {
		whereClauses = append(whereClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.Estado != nil {
		addEquals("estado", *params.Estado)
	}
	if params.Temperatura != nil {
		addEquals("temperatura", *params.Temperatura)
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(nombre ILIKE $%d OR apellidos ILIKE $%d OR email ILIKE $%d OR empresa ILIKE $%d OR telefono ILIKE $%d)",
			argIdx, argIdx, argIdx, argIdx, argIdx,
		))
		args = append(args, "%"+likeEscaper.Replace(search)+"%")
		argIdx++
	}

	return strings.Join(whereClauses, " AND "), args, argIdx
}

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	var metadata []byte
	if err := row.Scan(
		&lead.ID, &lead.CompanyID, &lead.Nombre, &lead.Apellidos, &lead.Email, &lead.Telefono, &lead.Empresa, &lead.Cargo, &lead.Ciudad,
		&lead.PresupuestoMensual, &lead.Urgencia, &lead.Estado, &lead.Fuente, &lead.Notas, &metadata,
		&lead.ContactosRealizados, &lead.UltimoContacto,
		&lead.Puntuacion, &lead.Temperatura, &lead.ProbabilidadCierre,
		&lead.CreatedAt, &lead.UpdatedAt,
	); err != nil {
		return Lead{}, err
	}

	lead.Metadata = map[string]string{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &lead.Metadata); err != nil {
			return Lead{}, err
		}
	}
	return lead, nil
}

func encodeMetadata(metadata map[string]string) ([]byte, error) {
	if metadata == nil {
		metadata = map[string]string{}
	}
	return json.Marshal(metadata)
}
