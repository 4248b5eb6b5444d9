package abtest_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/marketpulse/campaignhub/internal/domain"
	"github.com/marketpulse/campaignhub/internal/service/abtest"
	"github.com/marketpulse/campaignhub/internal/service/campaign"
)

type memRepo struct {
	mu         sync.Mutex
	tests      map[string]*domain.ABTest
	variations map[string][]domain.ABVariation // by test id
	results    map[string][]domain.ABResult    // by test id
	saveErr    error
}

func newMemRepo() *memRepo {
	return &memRepo{
		tests:      make(map[string]*domain.ABTest),
		variations: make(map[string][]domain.ABVariation),
		results:    make(map[string][]domain.ABResult),
	}
}

func (m *memRepo) Get(_ context.Context, userID, id string) (*domain.ABTest, []domain.ABVariation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tests[id]
	if !ok || t.UserID != userID {
		return nil, nil, abtest.ErrNotFound
	}
	tp := *t
	vs := append([]domain.ABVariation(nil), m.variations[id]...)
	return &tp, vs, nil
}

func (m *memRepo) GetByCampaign(_ context.Context, userID, campaignID string) (*domain.ABTest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tests {
		if t.UserID == userID && t.CampaignID == campaignID {
			tp := *t
			return &tp, nil
		}
	}
	return nil, abtest.ErrNotFound
}

func (m *memRepo) List(_ context.Context, userID string, _, _ int) ([]domain.ABTest, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ABTest
	for _, t := range m.tests {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) Create(_ context.Context, t *domain.ABTest, vs []domain.ABVariation) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tp := *t
	m.tests[tp.ID] = &tp
	m.variations[tp.ID] = append([]domain.ABVariation(nil), vs...)
	return tp.ID, nil
}

func (m *memRepo) SaveAssignment(_ context.Context, userID string, run *abtest.AssignmentRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	t, ok := m.tests[run.Test.ID]
	if !ok || t.UserID != userID {
		return abtest.ErrNotFound
	}
	tp := *run.Test
	m.tests[tp.ID] = &tp
	m.variations[tp.ID] = append([]domain.ABVariation(nil), run.Variations...)
	m.results[tp.ID] = append([]domain.ABResult(nil), run.Results...)
	return nil
}

func (m *memRepo) MarkStopped(_ context.Context, userID, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tests[id]
	if !ok || t.UserID != userID {
		return abtest.ErrNotFound
	}
	t.Status = domain.ABTestStopped
	t.CompletedAt = &at
	return nil
}

func (m *memRepo) Results(_ context.Context, userID, testID string) ([]domain.ABResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tests[testID]
	if !ok || t.UserID != userID {
		return nil, abtest.ErrNotFound
	}
	return append([]domain.ABResult(nil), m.results[testID]...), nil
}

func (m *memRepo) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tests[id]
	if !ok || t.UserID != userID {
		return abtest.ErrNotFound
	}
	delete(m.tests, id)
	delete(m.variations, id)
	delete(m.results, id)
	return nil
}

// fixedCustomers serves a fixed eligible pool.
type fixedCustomers struct{ pool []domain.Customer }

func (f *fixedCustomers) ListEligible(_ context.Context, _ string, limit int) ([]domain.Customer, error) {
	if limit > 0 && limit < len(f.pool) {
		return append([]domain.Customer(nil), f.pool[:limit]...), nil
	}
	return append([]domain.Customer(nil), f.pool...), nil
}

// fixedCampaigns resolves a single known campaign.
type fixedCampaigns struct{ c *domain.Campaign }

func (f *fixedCampaigns) Get(_ context.Context, userID, id string) (*domain.Campaign, error) {
	if f.c == nil || f.c.ID != id || f.c.UserID != userID {
		return nil, campaign.ErrNotFound
	}
	cp := *f.c
	return &cp, nil
}

const testUser = "user-1"

func makePool(n int) []domain.Customer {
	pool := make([]domain.Customer, n)
	for i := range pool {
		pool[i] = domain.Customer{
			ID:       fmt.Sprintf("cust-%d", i),
			UserID:   testUser,
			FullName: fmt.Sprintf("Customer %d", i),
			Email:    fmt.Sprintf("c%d@example.com", i),
		}
	}
	return pool
}

func setup(t *testing.T, poolSize int, variations ...abtest.VariationInput) (*abtest.Service, *memRepo, *domain.ABTest) {
	t.Helper()
	repo := newMemRepo()
	camp := &domain.Campaign{ID: "camp-1", UserID: testUser, Status: domain.CampaignDraft}
	svc := abtest.NewService(repo, &fixedCustomers{pool: makePool(poolSize)}, &fixedCampaigns{c: camp}, 0)

	created, err := svc.Create(context.Background(), testUser, abtest.CreateInput{
		CampaignID: "camp-1",
		Name:       "subject line test",
		Variations: variations,
	})
	if err != nil {
		t.Fatalf("create test: %v", err)
	}
	return svc, repo, created
}

func twoVariations() []abtest.VariationInput {
	return []abtest.VariationInput{
		{Name: "A", Template: "Hi {{customer_name}}"},
		{Name: "B", Template: "Hello {{customer_name}}!"},
	}
}

func TestCreateValidation(t *testing.T) {
	repo := newMemRepo()
	camp := &domain.Campaign{ID: "camp-1", UserID: testUser}
	svc := abtest.NewService(repo, &fixedCustomers{}, &fixedCampaigns{c: camp}, 0)
	ctx := context.Background()

	if _, err := svc.Create(ctx, testUser, abtest.CreateInput{CampaignID: "camp-1"}); err != abtest.ErrNameNeeded {
		t.Fatalf("expected ErrNameNeeded, got %v", err)
	}
	if _, err := svc.Create(ctx, testUser, abtest.CreateInput{
		CampaignID: "camp-1", Name: "t",
		Variations: []abtest.VariationInput{{Name: "A", Template: "x"}},
	}); err != abtest.ErrTooFewVariations {
		t.Fatalf("expected ErrTooFewVariations, got %v", err)
	}
	if _, err := svc.Create(ctx, testUser, abtest.CreateInput{
		CampaignID: "camp-1", Name: "t",
		Variations: []abtest.VariationInput{{Name: "A", Template: "x"}, {Name: "A", Template: "y"}},
	}); err != abtest.ErrDuplicateVariation {
		t.Fatalf("expected ErrDuplicateVariation, got %v", err)
	}
	if _, err := svc.Create(ctx, testUser, abtest.CreateInput{
		CampaignID: "missing", Name: "t",
		Variations: []abtest.VariationInput{{Name: "A", Template: "x"}, {Name: "B", Template: "y"}},
	}); err != campaign.ErrNotFound {
		t.Fatalf("expected campaign not found, got %v", err)
	}
}

func TestCreateRejectsSecondTestOnCampaign(t *testing.T) {
	svc, _, _ := setup(t, 10, twoVariations()...)
	_, err := svc.Create(context.Background(), testUser, abtest.CreateInput{
		CampaignID: "camp-1", Name: "another",
		Variations: twoVariations(),
	})
	if err != abtest.ErrCampaignHasTest {
		t.Fatalf("expected ErrCampaignHasTest, got %v", err)
	}
}

func TestStartPartitionsEvenly(t *testing.T) {
	svc, _, created := setup(t, 10, twoVariations()...)

	started, variations, err := svc.Start(context.Background(), testUser, created.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != domain.ABTestRunning {
		t.Fatalf("expected running status, got %s", started.Status)
	}
	if started.StartedAt == nil {
		t.Fatal("started_at not set")
	}
	if len(variations) != 2 {
		t.Fatalf("expected 2 variations, got %d", len(variations))
	}
	for _, v := range variations {
		if v.AudienceCount != 5 {
			t.Fatalf("expected even 5/5 split, variation %s got %d", v.Name, v.AudienceCount)
		}
	}
}

func TestStartRemainderGoesToLastGroup(t *testing.T) {
	svc, _, created := setup(t, 11,
		abtest.VariationInput{Name: "A", Template: "a"},
		abtest.VariationInput{Name: "B", Template: "b"},
		abtest.VariationInput{Name: "C", Template: "c"},
	)

	_, variations, err := svc.Start(context.Background(), testUser, created.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	counts := map[string]int{}
	total := 0
	for _, v := range variations {
		counts[v.Name] = v.AudienceCount
		total += v.AudienceCount
	}
	if total != 11 {
		t.Fatalf("partition must cover the whole pool, got %d", total)
	}
	if counts["A"] != 3 || counts["B"] != 3 || counts["C"] != 5 {
		t.Fatalf("expected 3/3/5 split, got %v", counts)
	}
}

func TestStartAssignsEachCustomerOnce(t *testing.T) {
	svc, repo, created := setup(t, 20, twoVariations()...)

	if _, _, err := svc.Start(context.Background(), testUser, created.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	results, err := svc.Results(context.Background(), testUser, created.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if results.TotalAssigned != 20 {
		t.Fatalf("expected 20 assigned, got %d", results.TotalAssigned)
	}

	rows, _ := repo.Results(context.Background(), testUser, created.ID)
	seen := map[string]bool{}
	for _, r := range rows {
		if seen[r.CustomerID] {
			t.Fatalf("customer %s assigned twice", r.CustomerID)
		}
		seen[r.CustomerID] = true
	}
	if len(seen) != 20 {
		t.Fatalf("expected 20 distinct customers, got %d", len(seen))
	}
}

func TestStartFunnelFlagsAreNested(t *testing.T) {
	svc, repo, created := setup(t, 200, twoVariations()...)

	if _, _, err := svc.Start(context.Background(), testUser, created.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	rows, _ := repo.Results(context.Background(), testUser, created.ID)
	for _, r := range rows {
		if r.Opened && !r.MessageSent {
			t.Fatal("opened without sent")
		}
		if r.Clicked && !r.Opened {
			t.Fatal("clicked without opened")
		}
		if r.Converted && !r.Clicked {
			t.Fatal("converted without clicked")
		}
		if r.Replied && !r.Opened {
			t.Fatal("replied without opened")
		}
		if r.MessageSent && r.SentAt == nil {
			t.Fatal("sent flag without timestamp")
		}
	}
}

func TestStartPicksWinnerAndConfidence(t *testing.T) {
	svc, _, created := setup(t, 500, twoVariations()...)

	started, variations, err := svc.Start(context.Background(), testUser, created.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.WinnerVariationID == nil {
		t.Fatal("winner not set")
	}
	if started.ConfidenceLevel == nil {
		t.Fatal("confidence not set")
	}
	if *started.ConfidenceLevel < 60 || *started.ConfidenceLevel > 95 {
		t.Fatalf("confidence out of range: %v", *started.ConfidenceLevel)
	}

	maxCTR := 0.0
	winnerCTR := 0.0
	for _, v := range variations {
		if v.CTR > maxCTR {
			maxCTR = v.CTR
		}
		if v.ID == *started.WinnerVariationID {
			winnerCTR = v.CTR
		}
	}
	if winnerCTR != maxCTR {
		t.Fatalf("winner CTR %v is not the maximum %v", winnerCTR, maxCTR)
	}
}

func TestStartTwiceRejected(t *testing.T) {
	svc, _, created := setup(t, 10, twoVariations()...)
	ctx := context.Background()

	if _, _, err := svc.Start(ctx, testUser, created.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, _, err := svc.Start(ctx, testUser, created.ID); err != abtest.ErrAlreadyStarted {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestStartEmptyPool(t *testing.T) {
	repo := newMemRepo()
	camp := &domain.Campaign{ID: "camp-1", UserID: testUser}
	svc := abtest.NewService(repo, &fixedCustomers{}, &fixedCampaigns{c: camp}, 0)

	created, err := svc.Create(context.Background(), testUser, abtest.CreateInput{
		CampaignID: "camp-1", Name: "t", Variations: twoVariations(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := svc.Start(context.Background(), testUser, created.ID); err != abtest.ErrNoEligibleCustomers {
		t.Fatalf("expected ErrNoEligibleCustomers, got %v", err)
	}
}

func TestStartPersistFailureLeavesTestDraft(t *testing.T) {
	svc, repo, created := setup(t, 10, twoVariations()...)
	repo.saveErr = fmt.Errorf("db down")

	if _, _, err := svc.Start(context.Background(), testUser, created.ID); err == nil {
		t.Fatal("expected persist error")
	}
	got, _, _ := repo.Get(context.Background(), testUser, created.ID)
	if got.Status != domain.ABTestDraft {
		t.Fatalf("failed run must not advance status, got %s", got.Status)
	}
}

func TestStopRequiresRunning(t *testing.T) {
	svc, repo, created := setup(t, 10, twoVariations()...)
	ctx := context.Background()

	if err := svc.Stop(ctx, testUser, created.ID); err != abtest.ErrNotRunning {
		t.Fatalf("expected ErrNotRunning for draft test, got %v", err)
	}
	if _, _, err := svc.Start(ctx, testUser, created.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := svc.Stop(ctx, testUser, created.ID); err != nil {
		t.Fatalf("stop: %v", err)
	}
	got, _, _ := repo.Get(ctx, testUser, created.ID)
	if got.Status != domain.ABTestStopped || got.CompletedAt == nil {
		t.Fatalf("expected stopped with timestamp, got %s", got.Status)
	}
}

func TestUnknownVariationNameGetsDefaultMultiplier(t *testing.T) {
	svc, _, created := setup(t, 100,
		abtest.VariationInput{Name: "Control", Template: "x"},
		abtest.VariationInput{Name: "Challenger", Template: "y"},
	)

	_, variations, err := svc.Start(context.Background(), testUser, created.ID)
	if err != nil {
		t.Fatalf("start with unknown names: %v", err)
	}
	for _, v := range variations {
		if v.SentCount > v.AudienceCount {
			t.Fatalf("sent %d exceeds audience %d", v.SentCount, v.AudienceCount)
		}
	}
}
