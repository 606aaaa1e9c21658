package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"inmova_backend/internal/events"
	"inmova_backend/internal/onboarding/cache"
	"inmova_backend/internal/onboarding/progress"
	"inmova_backend/internal/onboarding/repository"
	"inmova_backend/internal/onboarding/transport"
	"inmova_backend/platform/apperr"
	"inmova_backend/platform/logger"

	"github.com/google/uuid"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeRepo struct {
	companies []repository.Company
	listAllErr error
	notes     map[uuid.UUID]string
}

func (f *fakeRepo) matching(filter repository.Filter) []repository.Company {
	out := make([]repository.Company, 0)
	for _, c := range f.companies {
		if filter.Status != nil && evaluate(c, filter.Now).Status != *filter.Status {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (f *fakeRepo) List(_ context.Context, params repository.ListParams) ([]repository.Company, int, error) {
	all := f.matching(params.Filter)
	start := params.Offset
	if start > len(all) {
		start = len(all)
	}
	end := start + params.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (f *fakeRepo) ListAll(_ context.Context, filter repository.Filter) ([]repository.Company, error) {
	if f.listAllErr != nil {
		return nil, f.listAllErr
	}
	return f.matching(filter), nil
}

func (f *fakeRepo) Get(_ context.Context, id uuid.UUID, _ time.Time) (repository.Company, error) {
	for _, c := range f.companies {
		if c.ID == id {
			return c, nil
		}
	}
	return repository.Company{}, repository.ErrNotFound
}

func (f *fakeRepo) UpdateNotes(_ context.Context, id uuid.UUID, notes string) error {
	if _, err := f.Get(context.Background(), id, testNow); err != nil {
		return err
	}
	if f.notes == nil {
		f.notes = map[uuid.UUID]string{}
	}
	f.notes[id] = notes
	return nil
}

type fakeCache struct {
	entries map[string]progress.Stats
}

func (f *fakeCache) Get(_ context.Context, key string) (progress.Stats, time.Time, error) {
	stats, ok := f.entries[key]
	if !ok {
		return progress.Stats{}, time.Time{}, cache.ErrMiss
	}
	return stats, testNow.Add(-time.Hour), nil
}

func (f *fakeCache) Set(_ context.Context, key string, stats progress.Stats, _ time.Time) error {
	if f.entries == nil {
		f.entries = map[string]progress.Stats{}
	}
	f.entries[key] = stats
	return nil
}

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func strPtr(s string) *string { return &s }

func completedCompany(name string) repository.Company {
	return repository.Company{
		ID:        uuid.New(),
		Nombre:    name,
		CIF:       strPtr("B00000000"),
		Direccion: strPtr("Calle Alcala 10"),
		Telefono:  strPtr("+34912345678"),
		Counts: progress.Counts{
			Users: 3, Buildings: 1, Units: 4, Tenants: 2, Contracts: 1,
			LastActivityAt: testNow.Add(-30 * 24 * time.Hour),
		},
	}
}

func halfwayCompany(name string, idle time.Duration) repository.Company {
	return repository.Company{
		ID:        uuid.New(),
		Nombre:    name,
		Email:     strPtr(name + "@example.com"),
		CIF:       strPtr("B11111111"),
		Direccion: strPtr("Gran Via 1"),
		Telefono:  strPtr("+34600000000"),
		Counts:    progress.Counts{Users: 2, Buildings: 1, LastActivityAt: testNow.Add(-idle)},
	}
}

func newTestService(repo *fakeRepo, statsCache StatsCache) (*Service, *recordingBus) {
	bus := &recordingBus{}
	svc := New(repo, statsCache, bus, logger.Discard())
	svc.now = func() time.Time { return testNow }
	return svc, bus
}

func TestListCompletedFilterCountsOnlyMatches(t *testing.T) {
	repo := &fakeRepo{companies: []repository.Company{
		completedCompany("a"), halfwayCompany("b", time.Hour), completedCompany("c"),
		{ID: uuid.New(), Nombre: "d"}, completedCompany("e"), halfwayCompany("f", 20*24*time.Hour),
	}}
	svc, _ := newTestService(repo, nil)

	for _, limit := range []int{1, 2, 100} {
		resp, err := svc.List(context.Background(), transport.ListCompaniesRequest{Status: "completed", Limit: limit})
		if err != nil {
			t.Fatalf("limit %d: unexpected error: %v", limit, err)
		}
		if resp.Pagination.Total != 3 {
			t.Fatalf("limit %d: expected total 3, got %d", limit, resp.Pagination.Total)
		}
		for _, item := range resp.Items {
			if item.ProgressPercent != 100 || item.Status != progress.StatusCompleted {
				t.Fatalf("limit %d: unexpected item %+v", limit, item)
			}
		}
		if resp.Stats.Total != 3 || resp.Stats.ByStatus[progress.StatusCompleted] != 3 {
			t.Fatalf("limit %d: stats must cover the filtered set, got %+v", limit, resp.Stats)
		}
	}
}

func TestListStatsCoverFullSetNotPage(t *testing.T) {
	repo := &fakeRepo{companies: []repository.Company{
		completedCompany("a"), halfwayCompany("b", time.Hour), halfwayCompany("c", 20*24*time.Hour),
	}}
	svc, _ := newTestService(repo, nil)

	resp, err := svc.List(context.Background(), transport.ListCompaniesRequest{Limit: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("expected one item, got %d", len(resp.Items))
	}
	stats := resp.Stats
	if stats.Total != 3 || stats.ByStatus[progress.StatusInProgress] != 1 || stats.ByStatus[progress.StatusStalled] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.AverageProgress != 66.7 {
		t.Fatalf("expected average 66.7, got %v", stats.AverageProgress)
	}
	if stats.Degraded || stats.Source != transport.StatsSourceLive {
		t.Fatalf("expected live stats, got %+v", stats)
	}
	if resp.Pagination.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", resp.Pagination.TotalPages)
	}
}

func TestListDegradesToCachedStats(t *testing.T) {
	repo := &fakeRepo{companies: []repository.Company{completedCompany("a")}}
	statsCache := &fakeCache{}
	svc, _ := newTestService(repo, statsCache)

	if _, err := svc.List(context.Background(), transport.ListCompaniesRequest{}); err != nil {
		t.Fatalf("warm-up: %v", err)
	}

	repo.listAllErr = errors.New("statement timeout")
	resp, err := svc.List(context.Background(), transport.ListCompaniesRequest{})
	if err != nil {
		t.Fatalf("page must still be returned: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("expected page items, got %d", len(resp.Items))
	}
	if !resp.Stats.Degraded || resp.Stats.Source != transport.StatsSourceCache || resp.Stats.Total != 1 {
		t.Fatalf("expected cached stats, got %+v", resp.Stats)
	}
	if resp.Stats.CachedAt == nil {
		t.Fatal("expected cachedAt on cached stats")
	}
}

func TestListDegradesToZeroedStatsWithoutCache(t *testing.T) {
	repo := &fakeRepo{
		companies:  []repository.Company{completedCompany("a")},
		listAllErr: errors.New("statement timeout"),
	}
	svc, _ := newTestService(repo, &fakeCache{})

	resp, err := svc.List(context.Background(), transport.ListCompaniesRequest{Search: "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stats := resp.Stats
	if !stats.Degraded || stats.Source != transport.StatsSourceUnavailable || stats.Total != 0 {
		t.Fatalf("expected zeroed stats, got %+v", stats)
	}
	if len(stats.ByStatus) != len(progress.Statuses) {
		t.Fatalf("expected every status bucket, got %v", stats.ByStatus)
	}
}

func TestGetUnknownCompanyIsNotFound(t *testing.T) {
	svc, _ := newTestService(&fakeRepo{}, nil)
	_, err := svc.Get(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateNotesSanitizesAndPublishes(t *testing.T) {
	company := halfwayCompany("acme", time.Hour)
	repo := &fakeRepo{companies: []repository.Company{company}}
	svc, bus := newTestService(repo, nil)
	actor := uuid.New()

	resp, err := svc.UpdateNotes(context.Background(), actor, transport.UpdateNotesRequest{
		CompanyID: company.ID,
		Notes:     "<p>Llamar el <b>lunes</b></p>",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.NotasAdmin != "Llamar el lunes" || repo.notes[company.ID] != "Llamar el lunes" {
		t.Fatalf("expected sanitized notes, got %q", resp.NotasAdmin)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.published))
	}
	evt, ok := bus.published[0].(events.CompanyNotesUpdated)
	if !ok || evt.CompanyID != company.ID || evt.ActorID != actor {
		t.Fatalf("unexpected event: %+v", bus.published[0])
	}

	after, _ := svc.Get(context.Background(), company.ID)
	if after.ProgressPercent != 50 {
		t.Fatalf("notes must not affect progress, got %d", after.ProgressPercent)
	}
}

func TestUpdateNotesRejectsLongNotes(t *testing.T) {
	company := halfwayCompany("acme", time.Hour)
	svc, bus := newTestService(&fakeRepo{companies: []repository.Company{company}}, nil)

	long := make([]rune, transport.MaxNotesLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err := svc.UpdateNotes(context.Background(), uuid.New(), transport.UpdateNotesRequest{CompanyID: company.ID, Notes: string(long)})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(bus.published) != 0 {
		t.Fatal("no event expected on rejected update")
	}
}

func TestStalledCompanies(t *testing.T) {
	stalled := halfwayCompany("idle", 10*24*time.Hour)
	repo := &fakeRepo{companies: []repository.Company{
		stalled, halfwayCompany("busy", time.Hour), completedCompany("done"),
	}}
	svc, _ := newTestService(repo, nil)

	got, err := svc.StalledCompanies(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != stalled.ID || got[0].Email != "idle@example.com" {
		t.Fatalf("unexpected stalled set: %+v", got)
	}
	if got[0].ProgressPercent != 50 {
		t.Fatalf("expected 50%%, got %d", got[0].ProgressPercent)
	}
}
