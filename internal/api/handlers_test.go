package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/marketpulse/campaignhub/internal/auth"
	"github.com/marketpulse/campaignhub/internal/config"
	"github.com/marketpulse/campaignhub/internal/domain"
	"github.com/marketpulse/campaignhub/internal/personalize"
	"github.com/marketpulse/campaignhub/internal/seed"
	"github.com/marketpulse/campaignhub/internal/service/campaign"
	"github.com/marketpulse/campaignhub/internal/service/customer"
	"github.com/marketpulse/campaignhub/internal/service/dispatch"
)

// ---- in-memory fakes ----

type memCustomerRepo struct {
	mu        sync.Mutex
	customers map[string]*domain.Customer
}

func newMemCustomerRepo() *memCustomerRepo {
	return &memCustomerRepo{customers: make(map[string]*domain.Customer)}
}

func (m *memCustomerRepo) Get(_ context.Context, userID, id string) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok || c.UserID != userID {
		return nil, customer.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCustomerRepo) List(_ context.Context, userID string, _ customer.ListFilter) ([]domain.Customer, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Customer
	for _, c := range m.customers {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

func (m *memCustomerRepo) Create(_ context.Context, c *domain.Customer) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.customers[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memCustomerRepo) Update(_ context.Context, userID, id string, u customer.UpdateFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok || c.UserID != userID {
		return customer.ErrNotFound
	}
	if u.FullName != nil {
		c.FullName = *u.FullName
	}
	return nil
}

func (m *memCustomerRepo) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok || c.UserID != userID {
		return customer.ErrNotFound
	}
	delete(m.customers, id)
	return nil
}

func (m *memCustomerRepo) SetOptOut(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok || c.UserID != userID {
		return customer.ErrNotFound
	}
	c.OptOut = true
	return nil
}

func (m *memCustomerRepo) ListEligible(_ context.Context, userID string, limit int) ([]domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Customer
	for _, c := range m.customers {
		if c.UserID == userID && !c.OptOut {
			out = append(out, *c)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memCustomerRepo) CreateBatch(_ context.Context, customers []domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range customers {
		cp := customers[i]
		m.customers[cp.ID] = &cp
	}
	return nil
}

type memCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[string]*domain.Campaign
}

func newMemCampaignRepo() *memCampaignRepo {
	return &memCampaignRepo{campaigns: make(map[string]*domain.Campaign)}
}

func (m *memCampaignRepo) Get(_ context.Context, userID, id string) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.UserID != userID {
		return nil, campaign.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCampaignRepo) List(_ context.Context, userID string, _ campaign.ListFilter) ([]domain.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Campaign
	for _, c := range m.campaigns {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

func (m *memCampaignRepo) Create(_ context.Context, c *domain.Campaign) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.campaigns[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memCampaignRepo) Update(_ context.Context, userID, id string, _ campaign.UpdateFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.UserID != userID {
		return campaign.ErrNotFound
	}
	return nil
}

func (m *memCampaignRepo) SetStatus(_ context.Context, userID, id string, status domain.CampaignStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.UserID != userID {
		return campaign.ErrNotFound
	}
	c.Status = status
	return nil
}

func (m *memCampaignRepo) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[id]; !ok {
		return campaign.ErrNotFound
	}
	delete(m.campaigns, id)
	return nil
}

func (m *memCampaignRepo) AddSendStats(_ context.Context, userID, id string, sent, opened, clicked int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.UserID != userID {
		return campaign.ErrNotFound
	}
	c.SentCount += sent
	return nil
}

type memLogs struct {
	mu   sync.Mutex
	rows []domain.DeliveryLog
}

func (m *memLogs) Append(_ context.Context, l *domain.DeliveryLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *l)
	return nil
}

func (m *memLogs) ListByCampaign(_ context.Context, userID, campaignID string, _ int) ([]domain.DeliveryLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.DeliveryLog
	for _, l := range m.rows {
		if l.UserID == userID && l.CampaignID != nil && *l.CampaignID == campaignID {
			out = append(out, l)
		}
	}
	return out, nil
}

type okTransport struct{ calls int }

func (o *okTransport) Deliver(_ context.Context, _, _ string) (string, error) {
	o.calls++
	return fmt.Sprintf("WA%04d", o.calls), nil
}

type fakeAnalytics struct{ snap *domain.Snapshot }

func (f *fakeAnalytics) Summary(_ context.Context, _ string) (*domain.Snapshot, error) {
	return f.snap, nil
}

type fakeChat struct {
	reply string
	err   error
}

func (f *fakeChat) Ask(_ context.Context, _, _ string) (string, error) {
	return f.reply, f.err
}

// ---- harness ----

func devAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{Enabled: false, CookieName: "campaignhub_session"}
}

type testEnv struct {
	handler   http.Handler
	customers *memCustomerRepo
	campaigns *memCampaignRepo
	chat      *fakeChat
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	custRepo := newMemCustomerRepo()
	campRepo := newMemCampaignRepo()
	logs := &memLogs{}
	chat := &fakeChat{reply: "try WhatsApp"}

	custSvc := customer.NewService(custRepo)
	h := &Handlers{
		Customers:  custSvc,
		Campaigns:  campaign.NewService(campRepo),
		Dispatcher: dispatch.NewService(&okTransport{}, nil, logs, custSvc, 0),
		Analytics:  &fakeAnalytics{snap: &domain.Snapshot{Version: domain.SnapshotVersion, TotalCustomers: 5, ComputedAt: time.Now()}},
		Chat:       chat,
		Seeder:     seed.New(custRepo),
		Logs:       logs,
		Preview:    personalize.NewPreviewEngine(),
	}
	// auth disabled: every request runs as the fixed dev user
	sessions := auth.NewManager(devAuthConfig(), "http://localhost", nil)
	return &testEnv{
		handler:   SetupRoutes(h, sessions, nil),
		customers: custRepo,
		campaigns: campRepo,
		chat:      chat,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// ---- tests ----

func TestHealthNoAuth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCustomerCRUDOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/customers", map[string]interface{}{
		"full_name": "Ana Silva",
		"email":     "ana@example.com",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil || created.ID == "" {
		t.Fatalf("create response missing id: %s", rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/customers/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/customers/"+created.ID+"/opt-out", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("opt-out: expected 200, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/api/customers/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/customers/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rec.Code)
	}
}

func TestCreateCustomerValidationIs400(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/customers", map[string]interface{}{
		"email": "no-name@example.com",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUnknownCampaignIs404(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/campaigns/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCampaignStatusTransitionRejected(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/campaigns", map[string]interface{}{
		"name":     "Promo",
		"channel":  "whatsapp",
		"template": "Hi {{customer_name}}",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create campaign: %d: %s", rec.Code, rec.Body.String())
	}
	var c struct {
		ID string `json:"id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &c)

	rec = env.do(t, http.MethodPut, "/api/campaigns/"+c.ID+"/status", map[string]string{
		"status": "completed",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("draft->completed must be 400, got %d", rec.Code)
	}
}

func TestDispatchRequiresActiveCampaign(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/campaigns", map[string]interface{}{
		"name":     "Promo",
		"channel":  "whatsapp",
		"template": "Hi {{customer_name}}",
	})
	var c struct {
		ID string `json:"id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &c)

	rec = env.do(t, http.MethodPost, "/api/campaigns/"+c.ID+"/dispatch", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("dispatching a draft must be 400, got %d", rec.Code)
	}
}

func TestDispatchActiveCampaign(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/customers", map[string]interface{}{
		"full_name": "Ana Silva", "phone": "+5511999990000",
	})

	rec := env.do(t, http.MethodPost, "/api/campaigns", map[string]interface{}{
		"name": "Promo", "channel": "whatsapp", "template": "Hi {{customer_name}}",
	})
	var c struct {
		ID string `json:"id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &c)

	env.do(t, http.MethodPut, "/api/campaigns/"+c.ID+"/status", map[string]string{"status": "active"})

	rec = env.do(t, http.MethodPost, "/api/campaigns/"+c.ID+"/dispatch", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dispatch: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res dispatch.Result
	json.Unmarshal(rec.Body.Bytes(), &res)
	if res.Sent != 1 {
		t.Fatalf("expected 1 sent, got %+v", res)
	}

	rec = env.do(t, http.MethodGet, "/api/campaigns/"+c.ID+"/logs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logs: expected 200, got %d", rec.Code)
	}
}

func TestChatUpstreamErrorIs502(t *testing.T) {
	env := newTestEnv(t)
	env.chat.err = fmt.Errorf("bedrock down")

	rec := env.do(t, http.MethodPost, "/api/chat", map[string]string{"message": "help"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestChatEmptyMessageIs400(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/chat", map[string]string{"message": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAnalyticsSummary(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/analytics/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("bad summary payload: %v", err)
	}
	if snap.TotalCustomers != 5 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestSeedEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/seed", map[string]int{"count": 10})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/customers", nil)
	var list struct {
		Total int `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &list)
	if list.Total != 10 {
		t.Fatalf("expected 10 seeded customers, got %d", list.Total)
	}
}

func TestPreviewTemplate(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/templates/preview", map[string]interface{}{
		"template": "Hello {{ name | capitalize }}",
		"bindings": map[string]interface{}{"name": "ana"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Rendered string `json:"rendered"`
	}
	json.Unmarshal(rec.Body.Bytes(), &res)
	if res.Rendered != "Hello Ana" {
		t.Fatalf("unexpected render %q", res.Rendered)
	}
}
