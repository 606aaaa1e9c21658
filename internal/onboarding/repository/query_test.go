package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"inmova_backend/internal/onboarding/progress"

	"github.com/google/uuid"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestStepPredicatesCoverCatalog(t *testing.T) {
	if len(stepPredicates) != progress.TotalSteps() {
		t.Fatalf("expected %d predicates, got %d", progress.TotalSteps(), len(stepPredicates))
	}
	for _, id := range progress.Catalog() {
		if _, ok := stepPredicates[id]; !ok {
			t.Fatalf("missing SQL predicate for step %s", id)
		}
	}
}

func TestStepPredicatesUseProgressThresholds(t *testing.T) {
	expected := map[progress.StepID]string{
		progress.StepUsers:    fmt.Sprintf(">= %d", progress.MinUsers),
		progress.StepBuilding: fmt.Sprintf(">= %d", progress.MinBuildings),
		progress.StepUnit:     fmt.Sprintf(">= %d", progress.MinUnits),
		progress.StepTenant:   fmt.Sprintf(">= %d", progress.MinTenants),
		progress.StepContract: fmt.Sprintf(">= %d", progress.MinContracts),
	}
	for id, fragment := range expected {
		if !strings.Contains(stepPredicates[id], fragment) {
			t.Fatalf("step %s: expected %q in %q", id, fragment, stepPredicates[id])
		}
	}
	for _, column := range []string{"f.cif", "f.direccion", "f.telefono"} {
		if !strings.Contains(stepPredicates[progress.StepProfile], column) {
			t.Fatalf("profile predicate must check %s", column)
		}
	}
}

func TestBuildFactsQueryAppliesStatusBeforePaging(t *testing.T) {
	status := progress.StatusCompleted
	q := buildFactsQuery(Filter{Search: "acme", Status: &status, Now: testNow}, nil)

	if len(q.args) != 3 {
		t.Fatalf("expected search, cutoff and status args, got %v", q.args)
	}
	if q.args[0] != "%acme%" {
		t.Fatalf("expected search pattern first, got %v", q.args[0])
	}
	if cutoff, ok := q.args[1].(time.Time); !ok || !cutoff.Equal(testNow.Add(-progress.StalledAfter)) {
		t.Fatalf("expected stalled cutoff second, got %v", q.args[1])
	}
	if q.args[2] != "completed" {
		t.Fatalf("expected status arg, got %v", q.args[2])
	}

	count := q.count()
	if !strings.Contains(count, "SELECT COUNT(*) FROM company_status WHERE status = $3") {
		t.Fatalf("count must filter by status: %s", count)
	}
	if !strings.Contains(count, "c.nombre ILIKE $1 OR c.email ILIKE $1 OR c.cif ILIKE $1") {
		t.Fatalf("count must apply search: %s", count)
	}

	page, args := q.page(20, 40)
	if !strings.HasSuffix(strings.TrimSpace(page), "LIMIT $4 OFFSET $5") {
		t.Fatalf("unexpected paging clause: %s", page)
	}
	if len(args) != 5 || args[3] != 20 || args[4] != 40 {
		t.Fatalf("unexpected page args: %v", args)
	}
	if len(q.args) != 3 {
		t.Fatal("page must not mutate the shared args")
	}
}

func TestBuildFactsQueryStatusThresholds(t *testing.T) {
	q := buildFactsQuery(Filter{Now: testNow}, nil)

	for _, fragment := range []string{
		fmt.Sprintf("WHEN s.steps_done >= %d THEN 'completed'", progress.TotalSteps()),
		"WHEN s.steps_done = 0 THEN 'pending'",
		"s.last_activity_at < $1 THEN 'stalled'",
		"ELSE 'in_progress'",
	} {
		if !strings.Contains(q.cte, fragment) {
			t.Fatalf("expected %q in CTE", fragment)
		}
	}
	if q.where != "TRUE" {
		t.Fatalf("expected no status filter, got %q", q.where)
	}
}

func TestBuildFactsQueryForSingleCompany(t *testing.T) {
	id := uuid.New()
	q := buildFactsQuery(Filter{Now: testNow}, &id)
	if !strings.Contains(q.cte, "c.id = $1") {
		t.Fatalf("expected company filter in CTE: %s", q.cte)
	}
	if q.args[0] != id {
		t.Fatalf("expected company id as first arg, got %v", q.args[0])
	}
}

func TestSearchEscapesLikeWildcards(t *testing.T) {
	q := buildFactsQuery(Filter{Search: "50%_off", Now: testNow}, nil)
	if q.args[0] != `%50\%\_off%` {
		t.Fatalf("expected escaped pattern, got %v", q.args[0])
	}
}

func TestNonBlankTrimsProgressBlankRunes(t *testing.T) {
	predicate := nonBlank("f.cif")
	for _, r := range progress.BlankRunes {
		if want := fmt.Sprintf("chr(%d)", r); !strings.Contains(predicate, want) {
			t.Fatalf("expected %s in %s", want, predicate)
		}
	}
	if !strings.Contains(stepPredicates[progress.StepProfile], predicate) {
		t.Fatal("profile step must use the shared blank set")
	}
}
