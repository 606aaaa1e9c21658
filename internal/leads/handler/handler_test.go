package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inmova_backend/internal/events"
	"inmova_backend/internal/leads/domain"
	"inmova_backend/internal/leads/management"
	"inmova_backend/internal/leads/repository"
	"inmova_backend/internal/leads/transport"
	"inmova_backend/platform/httpkit"
	"inmova_backend/platform/logger"
	"inmova_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type memRepo struct {
	leads map[uuid.UUID]repository.Lead
}

func (m *memRepo) Create(_ context.Context, lead repository.Lead) (repository.Lead, error) {
	lead.ID = uuid.New()
	m.leads[lead.ID] = lead
	return lead, nil
}

func (m *memRepo) GetByID(_ context.Context, id, companyID uuid.UUID) (repository.Lead, error) {
	lead, ok := m.leads[id]
	if !ok || lead.CompanyID != companyID {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (m *memRepo) Mutate(ctx context.Context, id, companyID uuid.UUID, fn repository.MutateFunc) (repository.Lead, error) {
	current, err := m.GetByID(ctx, id, companyID)
	if err != nil {
		return repository.Lead{}, err
	}
	next, write, err := fn(current)
	if err != nil {
		return repository.Lead{}, err
	}
	if write {
		m.leads[id] = next
		return next, nil
	}
	return current, nil
}

func (m *memRepo) List(context.Context, repository.ListParams) ([]repository.Lead, int, error) {
	return nil, 0, nil
}

func (m *memRepo) Stats(context.Context, repository.ListParams) (repository.Stats, error) {
	return repository.Stats{}, nil
}

type nopBus struct{}

func (nopBus) Publish(context.Context, events.Event)           {}
func (nopBus) PublishSync(context.Context, events.Event) error { return nil }
func (nopBus) Subscribe(string, events.Handler)                {}

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestEngine mounts the handler behind a fake auth step. A nil tenant
// simulates a user without a company.
func newTestEngine(t *testing.T, tenantID *uuid.UUID) (*gin.Engine, *memRepo) {
	t.Helper()
	val := validator.New()
	if err := val.RegisterValidation(domain.MetadataValidationTag, domain.ValidateMetadataField); err != nil {
		t.Fatalf("register validation: %v", err)
	}
	repo := &memRepo{leads: map[uuid.UUID]repository.Lead{}}
	h := New(management.New(repo, nopBus{}, logger.Discard()), val)

	engine := gin.New()
	group := engine.Group("/api/v1/leads")
	group.Use(func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, uuid.New())
		if tenantID != nil {
			c.Set(httpkit.ContextTenantIDKey, *tenantID)
		}
		c.Next()
	})
	h.RegisterRoutes(group)
	return engine, repo
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

func TestCreateReturnsScoredLead(t *testing.T) {
	tenantID := uuid.New()
	engine, _ := newTestEngine(t, &tenantID)

	rec := serve(engine, http.MethodPost, "/api/v1/leads",
		`{"nombre":"Lucia","email":"lucia@example.com","presupuestoMensual":1200,"urgencia":"high","metadata":{"idioma":"es"}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var lead transport.LeadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &lead); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if lead.Puntuacion != 45 || lead.Temperatura != "warm" || lead.CompanyID != tenantID {
		t.Fatalf("unexpected lead: %+v", lead)
	}
}

func TestCreateRejectsUnknownMetadataKey(t *testing.T) {
	tenantID := uuid.New()
	engine, _ := newTestEngine(t, &tenantID)

	rec := serve(engine, http.MethodPost, "/api/v1/leads", `{"nombre":"Lucia","metadata":{"password":"x"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"field":"metadata"`) {
		t.Fatalf("expected metadata field error, got %s", rec.Body.String())
	}
}

func TestCreateWithoutCompanyIsForbidden(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	rec := serve(engine, http.MethodPost, "/api/v1/leads", `{"nombre":"Lucia"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestGetByIDRejectsMalformedID(t *testing.T) {
	tenantID := uuid.New()
	engine, _ := newTestEngine(t, &tenantID)

	rec := serve(engine, http.MethodGet, "/api/v1/leads/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetByIDOfOtherCompanyIsNotFound(t *testing.T) {
	tenantID := uuid.New()
	engine, repo := newTestEngine(t, &tenantID)
	foreign := repository.Lead{ID: uuid.New(), CompanyID: uuid.New(), Nombre: "Ajeno", Estado: "new"}
	repo.leads[foreign.ID] = foreign

	rec := serve(engine, http.MethodGet, "/api/v1/leads/"+foreign.ID.String(), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUpdateAndRegisterContact(t *testing.T) {
	tenantID := uuid.New()
	engine, repo := newTestEngine(t, &tenantID)
	lead := repository.Lead{ID: uuid.New(), CompanyID: tenantID, Nombre: "Pablo", Estado: "new", Temperatura: "cold"}
	repo.leads[lead.ID] = lead

	rec := serve(engine, http.MethodPut, "/api/v1/leads/"+lead.ID.String(), `{"empresa":"Residencias Sol","estado":"qualified"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stored := repo.leads[lead.ID]; stored.Puntuacion != 15 || stored.Estado != "qualified" {
		t.Fatalf("unexpected stored lead: %+v", stored)
	}

	rec = serve(engine, http.MethodPut, "/api/v1/leads/"+lead.ID.String(), `{"estado":"archived"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown stage, got %d", rec.Code)
	}

	rec = serve(engine, http.MethodPost, "/api/v1/leads/"+lead.ID.String()+"/contacts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stored := repo.leads[lead.ID]; stored.ContactosRealizados != 1 || stored.Puntuacion != 20 {
		t.Fatalf("unexpected stored lead after contact: %+v", stored)
	}
}

func TestUpdateClearsEmailAndUrgencia(t *testing.T) {
	tenantID := uuid.New()
	engine, repo := newTestEngine(t, &tenantID)

	rec := serve(engine, http.MethodPost, "/api/v1/leads",
		`{"nombre":"Lucia","email":"lucia@example.com","presupuestoMensual":1200,"urgencia":"high"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created transport.LeadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = serve(engine, http.MethodPut, "/api/v1/leads/"+created.ID.String(), `{"email":"","urgencia":""}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated transport.LeadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Puntuacion != 20 || updated.Temperatura != "cold" {
		t.Fatalf("expected score to drop from %d to 20/cold, got %d/%s", created.Puntuacion, updated.Puntuacion, updated.Temperatura)
	}
	if stored := repo.leads[created.ID]; stored.Email != nil || stored.Urgencia != nil {
		t.Fatalf("expected email and urgencia cleared, got %+v", stored)
	}
}

func TestUpdateRejectsInvalidEmailAndUrgencia(t *testing.T) {
	tenantID := uuid.New()
	engine, repo := newTestEngine(t, &tenantID)
	lead := repository.Lead{ID: uuid.New(), CompanyID: tenantID, Nombre: "Pablo", Estado: "new", Temperatura: "cold"}
	repo.leads[lead.ID] = lead

	for _, body := range []string{`{"email":"not-an-email"}`, `{"urgencia":"someday"}`} {
		rec := serve(engine, http.MethodPut, "/api/v1/leads/"+lead.ID.String(), body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, rec.Code)
		}
	}
}

func TestListRejectsOutOfRangePage(t *testing.T) {
	tenantID := uuid.New()
	engine, _ := newTestEngine(t, &tenantID)

	rec := serve(engine, http.MethodGet, "/api/v1/leads?page=184467440737095516", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}
