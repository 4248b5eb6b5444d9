package campaign_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/marketpulse/campaignhub/internal/domain"
	"github.com/marketpulse/campaignhub/internal/service/campaign"
)

type memRepo struct {
	mu        sync.Mutex
	campaigns map[string]*domain.Campaign
}

func newMemRepo() *memRepo {
	return &memRepo{campaigns: make(map[string]*domain.Campaign)}
}

func (m *memRepo) Get(_ context.Context, userID, id string) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.UserID != userID {
		return nil, campaign.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, userID string, f campaign.ListFilter) ([]domain.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Campaign
	for _, c := range m.campaigns {
		if c.UserID != userID {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *memRepo) Create(_ context.Context, c *domain.Campaign) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.campaigns[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memRepo) Update(_ context.Context, userID, id string, u campaign.UpdateFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.UserID != userID {
		return campaign.ErrNotFound
	}
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Template != nil {
		c.Template = *u.Template
	}
	return nil
}

func (m *memRepo) SetStatus(_ context.Context, userID, id string, status domain.CampaignStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.UserID != userID {
		return campaign.ErrNotFound
	}
	c.Status = status
	return nil
}

func (m *memRepo) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.UserID != userID {
		return campaign.ErrNotFound
	}
	delete(m.campaigns, id)
	return nil
}

func (m *memRepo) AddSendStats(_ context.Context, userID, id string, sent, opened, clicked int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.UserID != userID {
		return campaign.ErrNotFound
	}
	c.SentCount += sent
	c.OpenedCount += opened
	c.ClickedCount += clicked
	return nil
}

const testUser = "user-1"

func mustCreate(t *testing.T, svc *campaign.Service) *domain.Campaign {
	t.Helper()
	c, err := svc.Create(context.Background(), testUser, campaign.CreateInput{
		Name:     "Spring Promo",
		Channel:  domain.ChannelWhatsApp,
		Template: "Hi {{customer_name}}!",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return c
}

func TestCreateDefaults(t *testing.T) {
	svc := campaign.NewService(newMemRepo())
	c := mustCreate(t, svc)

	if c.Status != domain.CampaignDraft {
		t.Fatalf("expected draft status, got %s", c.Status)
	}
	if c.Schedule != domain.ScheduleImmediate {
		t.Fatalf("expected immediate schedule, got %s", c.Schedule)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := campaign.NewService(newMemRepo())
	ctx := context.Background()

	cases := []struct {
		name  string
		input campaign.CreateInput
		want  error
	}{
		{"missing name", campaign.CreateInput{Channel: domain.ChannelEmail, Template: "x"}, campaign.ErrNameNeeded},
		{"missing template", campaign.CreateInput{Name: "n", Channel: domain.ChannelEmail}, campaign.ErrTemplateNeeded},
		{"bad channel", campaign.CreateInput{Name: "n", Channel: "sms", Template: "x"}, campaign.ErrBadChannel},
		{"scheduled without time", campaign.CreateInput{Name: "n", Channel: domain.ChannelEmail, Template: "x", Schedule: domain.ScheduleScheduled}, campaign.ErrScheduleTimeNeeded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, testUser, tc.input); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateScheduledInPast(t *testing.T) {
	svc := campaign.NewService(newMemRepo())
	past := time.Now().Add(-time.Hour)
	_, err := svc.Create(context.Background(), testUser, campaign.CreateInput{
		Name: "n", Channel: domain.ChannelEmail, Template: "x",
		Schedule: domain.ScheduleScheduled, ScheduledAt: &past,
	})
	if err != campaign.ErrScheduleInPast {
		t.Fatalf("expected ErrScheduleInPast, got %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	svc := campaign.NewService(newMemRepo())
	ctx := context.Background()
	c := mustCreate(t, svc)

	// draft -> completed is not allowed
	if err := svc.SetStatus(ctx, testUser, c.ID, domain.CampaignCompleted); err != campaign.ErrBadTransition {
		t.Fatalf("expected ErrBadTransition, got %v", err)
	}

	// draft -> active -> paused -> active -> completed
	for _, next := range []domain.CampaignStatus{
		domain.CampaignActive, domain.CampaignPaused,
		domain.CampaignActive, domain.CampaignCompleted,
	} {
		if err := svc.SetStatus(ctx, testUser, c.ID, next); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}

	// completed is terminal
	if err := svc.SetStatus(ctx, testUser, c.ID, domain.CampaignActive); err != campaign.ErrBadTransition {
		t.Fatalf("expected ErrBadTransition from completed, got %v", err)
	}
}

func TestRecordDispatch(t *testing.T) {
	repo := newMemRepo()
	svc := campaign.NewService(repo)
	ctx := context.Background()
	c := mustCreate(t, svc)

	if err := svc.RecordDispatch(ctx, testUser, c.ID, 10, 4, 2); err != nil {
		t.Fatalf("record dispatch: %v", err)
	}
	if err := svc.RecordDispatch(ctx, testUser, c.ID, 5, 1, 1); err != nil {
		t.Fatalf("record dispatch: %v", err)
	}

	got, _ := svc.Get(ctx, testUser, c.ID)
	if got.SentCount != 15 || got.OpenedCount != 5 || got.ClickedCount != 3 {
		t.Fatalf("unexpected counters: sent=%d opened=%d clicked=%d",
			got.SentCount, got.OpenedCount, got.ClickedCount)
	}
	if ctr := got.CTR(); ctr != 20 {
		t.Fatalf("expected CTR 20, got %v", ctr)
	}
}

func TestGetScopedToUser(t *testing.T) {
	svc := campaign.NewService(newMemRepo())
	c := mustCreate(t, svc)

	if _, err := svc.Get(context.Background(), "someone-else", c.ID); err != campaign.ErrNotFound {
		t.Fatalf("expected ErrNotFound for foreign user, got %v", err)
	}
}
