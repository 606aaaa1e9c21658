package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inmova_backend/internal/events"
	"inmova_backend/internal/onboarding/progress"
	"inmova_backend/internal/onboarding/repository"
	"inmova_backend/internal/onboarding/service"
	"inmova_backend/internal/onboarding/transport"
	"inmova_backend/platform/httpkit"
	"inmova_backend/platform/logger"
	"inmova_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type stubRepo struct {
	companies []repository.Company
}

func (s *stubRepo) List(_ context.Context, params repository.ListParams) ([]repository.Company, int, error) {
	return s.companies, len(s.companies), nil
}

func (s *stubRepo) ListAll(context.Context, repository.Filter) ([]repository.Company, error) {
	return s.companies, nil
}

func (s *stubRepo) Get(_ context.Context, id uuid.UUID, _ time.Time) (repository.Company, error) {
	for _, c := range s.companies {
		if c.ID == id {
			return c, nil
		}
	}
	return repository.Company{}, repository.ErrNotFound
}

func (s *stubRepo) UpdateNotes(_ context.Context, id uuid.UUID, _ string) error {
	_, err := s.Get(context.Background(), id, time.Time{})
	return err
}

type nopBus struct{}

func (nopBus) Publish(context.Context, events.Event)           {}
func (nopBus) PublishSync(context.Context, events.Event) error { return nil }
func (nopBus) Subscribe(string, events.Handler)                {}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEngine(repo *stubRepo) *gin.Engine {
	svc := service.New(repo, nil, nopBus{}, logger.Discard())
	h := New(svc, validator.New())

	engine := gin.New()
	group := engine.Group("/api/v1/admin/onboarding")
	group.Use(func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, uuid.New())
		c.Set(httpkit.ContextRolesKey, []string{httpkit.RoleSuperAdmin})
		c.Next()
	})
	h.RegisterRoutes(group)
	return engine
}

func serve(engine *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestListReturnsItemsPaginationAndStats(t *testing.T) {
	repo := &stubRepo{companies: []repository.Company{{
		ID:     uuid.New(),
		Nombre: "Acme",
		Counts: progress.Counts{Buildings: 1, LastActivityAt: time.Now()},
	}}}
	rec := serve(newTestEngine(repo), http.MethodGet, "/api/v1/admin/onboarding?page=1&limit=10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp transport.CompanyListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ProgressPercent != 17 {
		t.Fatalf("unexpected items: %+v", resp.Items)
	}
	if resp.Pagination.Limit != 10 || resp.Pagination.Total != 1 {
		t.Fatalf("unexpected pagination: %+v", resp.Pagination)
	}
	if resp.Stats.Source != transport.StatsSourceLive {
		t.Fatalf("expected live stats, got %q", resp.Stats.Source)
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	rec := serve(newTestEngine(&stubRepo{}), http.MethodGet, "/api/v1/admin/onboarding?status=archived", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp struct {
		Error   string `json:"error"`
		Details []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Details) != 1 || resp.Details[0].Field != "status" {
		t.Fatalf("expected a status field error, got %+v", resp.Details)
	}
}

func TestGetUnknownCompany(t *testing.T) {
	engine := newTestEngine(&stubRepo{})
	if rec := serve(engine, http.MethodGet, "/api/v1/admin/onboarding/"+uuid.NewString(), ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := serve(engine, http.MethodGet, "/api/v1/admin/onboarding/not-a-uuid", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateNotes(t *testing.T) {
	id := uuid.New()
	engine := newTestEngine(&stubRepo{companies: []repository.Company{{ID: id, Nombre: "Acme"}}})

	rec := serve(engine, http.MethodPost, "/api/v1/admin/onboarding", `{"companyId":"`+id.String()+`","notes":"<i>VIP</i>"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp transport.UpdateNotesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.NotasAdmin != "VIP" {
		t.Fatalf("expected sanitized notes, got %q", resp.NotasAdmin)
	}

	if rec := serve(engine, http.MethodPost, "/api/v1/admin/onboarding", `{"notes":"x"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without companyId, got %d", rec.Code)
	}
}
