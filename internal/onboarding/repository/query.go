package repository

import (
	"fmt"
	"strings"

	"inmova_backend/internal/onboarding/progress"

	"github.com/google/uuid"
)

// stepPredicates mirrors the step catalog of the progress package in SQL so the
// status filter can run before pagination. Thresholds come from the same constants.
var stepPredicates = map[progress.StepID]string{
	progress.StepProfile: "(" + strings.Join([]string{
		nonBlank("f.cif"), nonBlank("f.direccion"), nonBlank("f.telefono"),
	}, " AND ") + ")",
	progress.StepUsers:    fmt.Sprintf("f.user_count >= %d", progress.MinUsers),
	progress.StepBuilding: fmt.Sprintf("f.building_count >= %d", progress.MinBuildings),
	progress.StepUnit:     fmt.Sprintf("f.unit_count >= %d", progress.MinUnits),
	progress.StepTenant:   fmt.Sprintf("f.tenant_count >= %d", progress.MinTenants),
	progress.StepContract: fmt.Sprintf("f.contract_count >= %d", progress.MinContracts),
}

const factsCTE = `
WITH company_facts AS (
	SELECT c.id, c.nombre, c.email, c.cif, c.direccion, c.telefono, c.notas_admin, c.created_at,
		(SELECT COUNT(*) FROM users u WHERE u.company_id = c.id) AS user_count,
		(SELECT COUNT(*) FROM buildings b WHERE b.company_id = c.id) AS building_count,
		(SELECT COUNT(*) FROM units un WHERE un.company_id = c.id) AS unit_count,
		(SELECT COUNT(*) FROM tenants t WHERE t.company_id = c.id) AS tenant_count,
		(SELECT COUNT(*) FROM contracts ct WHERE ct.company_id = c.id) AS contract_count,
		GREATEST(
			c.created_at,
			(SELECT MAX(GREATEST(u.created_at, u.last_login_at)) FROM users u WHERE u.company_id = c.id),
			(SELECT MAX(b.created_at) FROM buildings b WHERE b.company_id = c.id),
			(SELECT MAX(un.created_at) FROM units un WHERE un.company_id = c.id),
			(SELECT MAX(t.created_at) FROM tenants t WHERE t.company_id = c.id),
			(SELECT MAX(ct.created_at) FROM contracts ct WHERE ct.company_id = c.id)
		) AS last_activity_at
	FROM companies c
	WHERE %s
),
company_steps AS (
	SELECT f.*, (%s) AS steps_done
	FROM company_facts f
),
company_status AS (
	SELECT s.*,
		CASE
			WHEN s.steps_done >= %d THEN '%s'
			WHEN s.steps_done = 0 THEN '%s'
			WHEN s.last_activity_at IS NULL OR s.last_activity_at < $%d THEN '%s'
			ELSE '%s'
		END AS status
	FROM company_steps s
)
`

const factsColumns = `id, nombre, email, cif, direccion, telefono, notas_admin, created_at,
	user_count, building_count, unit_count, tenant_count, contract_count, last_activity_at`

type factsQuery struct {
	cte    string
	where  string
	args   []interface{}
	argIdx int
}

func (q factsQuery) count() string {
	return q.cte + "SELECT COUNT(*) FROM company_status WHERE " + q.where
}

func (q factsQuery) all() string {
	return fmt.Sprintf("%sSELECT %s FROM company_status WHERE %s ORDER BY created_at DESC, id", q.cte, factsColumns, q.where)
}

func (q factsQuery) page(limit, offset int) (string, []interface{}) {
	args := append(append([]interface{}{}, q.args...), limit, offset)
	query := fmt.Sprintf("%s LIMIT $%d OFFSET $%d", q.all(), q.argIdx, q.argIdx+1)
	return query, args
}

// buildFactsQuery assembles the CTE, its company filter and the status filter.
func buildFactsQuery(filter Filter, companyID *uuid.UUID) factsQuery {
	whereClauses := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if companyID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("c.id = $%d", argIdx))
		args = append(args, *companyID)
		argIdx++
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(c.nombre ILIKE $%d OR c.email ILIKE $%d OR c.cif ILIKE $%d)",
			argIdx, argIdx, argIdx,
		))
		args = append(args, "%"+escapeLike(search)+"%")
		argIdx++
	}

	cutoffIdx := argIdx
	args = append(args, filter.Now.Add(-progress.StalledAfter))
	argIdx++

	cte := fmt.Sprintf(factsCTE,
		strings.Join(whereClauses, " AND "),
		stepsDoneExpr(),
		progress.TotalSteps(), progress.StatusCompleted,
		progress.StatusPending,
		cutoffIdx, progress.StatusStalled,
		progress.StatusInProgress,
	)

	statusWhere := "TRUE"
	if filter.Status != nil {
		statusWhere = fmt.Sprintf("status = $%d", argIdx)
		args = append(args, string(*filter.Status))
		argIdx++
	}

	return factsQuery{cte: cte, where: statusWhere, args: args, argIdx: argIdx}
}

func stepsDoneExpr() string {
	terms := make([]string, 0, progress.TotalSteps())
	for _, id := range progress.Catalog() {
		terms = append(terms, fmt.Sprintf("(%s)::int", stepPredicates[id]))
	}
	return strings.Join(terms, " + ")
}

// blankSetSQL spells progress.BlankRunes with chr() so no escape syntax is involved.
var blankSetSQL = func() string {
	parts := make([]string, 0, len(progress.BlankRunes))
	for _, r := range progress.BlankRunes {
		parts = append(parts, fmt.Sprintf("chr(%d)", r))
	}
	return strings.Join(parts, " || ")
}()

func nonBlank(column string) string {
	return fmt.Sprintf("btrim(COALESCE(%s, ''), %s) <> ''", column, blankSetSQL)
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
