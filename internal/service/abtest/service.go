package abtest

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/marketpulse/campaignhub/internal/domain"
	"github.com/marketpulse/campaignhub/internal/pkg/logger"
)

// Base funnel rates before noise and the per-variation multiplier.
const (
	baseSendRate    = 0.95
	baseOpenRate    = 0.45
	baseClickRate   = 0.25
	baseConvertRate = 0.30
	baseReplyRate   = 0.12
	rateNoise       = 0.10 // fractional jitter applied to each base rate
)

// nameMultiplier scales the simulated engagement rates by variation name.
// Unknown names fall back to 1.0.
var nameMultiplier = map[string]float64{
	"A": 1.0,
	"B": 1.15,
	"C": 1.05,
}

// Service implements A/B test business logic.
type Service struct {
	repo          Repository
	customers     CustomerSource
	campaigns     CampaignSource
	audienceLimit int
	rng           *rand.Rand
	now           func() time.Time
}

// NewService creates an A/B test service. audienceLimit caps the pool
// size pulled into one assignment run.
func NewService(repo Repository, customers CustomerSource, campaigns CampaignSource, audienceLimit int) *Service {
	if audienceLimit <= 0 {
		audienceLimit = 1000
	}
	return &Service{
		repo:          repo,
		customers:     customers,
		campaigns:     campaigns,
		audienceLimit: audienceLimit,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		now:           time.Now,
	}
}

// Get returns a test with its variations.
func (s *Service) Get(ctx context.Context, userID, id string) (*domain.ABTest, []domain.ABVariation, error) {
	return s.repo.Get(ctx, userID, id)
}

// List returns tests with pagination.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]domain.ABTest, int, error) {
	return s.repo.List(ctx, userID, limit, offset)
}

// VariationInput describes one candidate message at creation time.
type VariationInput struct {
	Name     string `json:"variation_name"`
	Template string `json:"template"`
}

// CreateInput holds the fields for creating a new test.
type CreateInput struct {
	CampaignID   string           `json:"campaign_id"`
	Name         string           `json:"name"`
	TrafficSplit int              `json:"traffic_split"`
	Variations   []VariationInput `json:"variations"`
}

// Create validates and persists a new draft test with its variations.
// A campaign owns at most one test.
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*domain.ABTest, error) {
	if input.Name == "" {
		return nil, ErrNameNeeded
	}
	if len(input.Variations) < 2 {
		return nil, ErrTooFewVariations
	}
	seen := make(map[string]bool, len(input.Variations))
	for _, v := range input.Variations {
		if v.Template == "" {
			return nil, ErrVariationTemplate
		}
		if seen[v.Name] {
			return nil, ErrDuplicateVariation
		}
		seen[v.Name] = true
	}

	if _, err := s.campaigns.Get(ctx, userID, input.CampaignID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByCampaign(ctx, userID, input.CampaignID); err == nil {
		return nil, ErrCampaignHasTest
	} else if err != ErrNotFound {
		return nil, err
	}

	split := input.TrafficSplit
	if split <= 0 || split > 100 {
		split = 50
	}

	t := &domain.ABTest{
		ID:           uuid.New().String(),
		UserID:       userID,
		CampaignID:   input.CampaignID,
		Name:         input.Name,
		TrafficSplit: split,
		Status:       domain.ABTestDraft,
	}
	variations := make([]domain.ABVariation, 0, len(input.Variations))
	for _, v := range input.Variations {
		variations = append(variations, domain.ABVariation{
			ID:       uuid.New().String(),
			TestID:   t.ID,
			Name:     v.Name,
			Template: v.Template,
		})
	}

	id, err := s.repo.Create(ctx, t, variations)
	if err != nil {
		return nil, err
	}
	t.ID = id
	return t, nil
}

// Start runs the assignment engine: it shuffles the eligible audience,
// partitions it contiguously across the test's variations (remainder to
// the last group), simulates the engagement funnel per variation, ranks
// variations by CTR, and persists the whole run in one transaction. The
// test comes out in running status with a winner and confidence level.
func (s *Service) Start(ctx context.Context, userID, testID string) (*domain.ABTest, []domain.ABVariation, error) {
	t, variations, err := s.repo.Get(ctx, userID, testID)
	if err != nil {
		return nil, nil, err
	}
	if t.Status != domain.ABTestDraft {
		return nil, nil, ErrAlreadyStarted
	}
	if len(variations) == 0 {
		return nil, nil, ErrTooFewVariations
	}

	pool, err := s.customers.ListEligible(ctx, userID, s.audienceLimit)
	if err != nil {
		return nil, nil, err
	}
	if len(pool) == 0 {
		return nil, nil, ErrNoEligibleCustomers
	}

	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	now := s.now()
	run := &AssignmentRun{Test: t}

	groupSize := len(pool) / len(variations)
	for i := range variations {
		v := variations[i]
		start := i * groupSize
		end := start + groupSize
		if i == len(variations)-1 {
			end = len(pool) // remainder goes to the last group
		}
		group := pool[start:end]

		results := s.simulateFunnel(&v, group, now)
		run.Variations = append(run.Variations, v)
		run.Results = append(run.Results, results...)
	}

	winner, confidence := pickWinner(run.Variations)
	t.WinnerVariationID = &winner
	t.ConfidenceLevel = &confidence
	t.Status = domain.ABTestRunning
	t.StartedAt = &now

	if err := s.repo.SaveAssignment(ctx, userID, run); err != nil {
		return nil, nil, err
	}

	logger.Info("ab test started",
		"user_id", userID, "test_id", testID,
		"audience", len(pool), "variations", len(run.Variations),
		"confidence", confidence)
	return t, run.Variations, nil
}

// simulateFunnel fills in the variation's aggregate counters and builds
// one result row per customer in the group. Funnel flags are prefix
// subsets of the shuffled group, so clicked implies opened implies sent,
// converted implies clicked, and replied is a subset of opened.
func (s *Service) simulateFunnel(v *domain.ABVariation, group []domain.Customer, now time.Time) []domain.ABResult {
	mult := nameMultiplier[v.Name]
	if mult == 0 {
		mult = 1.0
	}

	n := len(group)
	sent := scaleCount(n, s.jitter(baseSendRate))
	opened := scaleCount(sent, s.jitter(baseOpenRate)*mult)
	clicked := scaleCount(opened, s.jitter(baseClickRate)*mult)
	converted := scaleCount(clicked, s.jitter(baseConvertRate)*mult)
	replied := scaleCount(opened, s.jitter(baseReplyRate)*mult)

	v.AudienceCount = n
	v.SentCount = sent
	v.OpenedCount = opened
	v.ClickedCount = clicked
	v.ConversionCount = converted
	v.RecalcRates()

	results := make([]domain.ABResult, 0, n)
	for i, c := range group {
		r := domain.ABResult{
			ID:          uuid.New().String(),
			TestID:      v.TestID,
			VariationID: v.ID,
			CustomerID:  c.ID,
			CreatedAt:   now,
		}
		if i < sent {
			r.MessageSent = true
			r.SentAt = &now
		}
		if i < opened {
			r.Opened = true
			r.OpenedAt = &now
		}
		if i < clicked {
			r.Clicked = true
			r.ClickedAt = &now
		}
		if i < converted {
			r.Converted = true
			r.ConvertedAt = &now
		}
		if i < replied {
			r.Replied = true
			r.RepliedAt = &now
		}
		results = append(results, r)
	}
	return results
}

// jitter perturbs a base rate by up to rateNoise in either direction.
func (s *Service) jitter(base float64) float64 {
	return base * (1 + (s.rng.Float64()*2-1)*rateNoise)
}

func scaleCount(n int, rate float64) int {
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	return int(float64(n) * rate)
}

// pickWinner ranks variations by CTR descending and derives the
// confidence level from the gap between the top two.
func pickWinner(variations []domain.ABVariation) (winnerID string, confidence float64) {
	ranked := make([]domain.ABVariation, len(variations))
	copy(ranked, variations)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].CTR > ranked[j].CTR })

	winnerID = ranked[0].ID
	runnerUp := 0.0
	if len(ranked) > 1 {
		runnerUp = ranked[1].CTR
	}
	confidence = 60 + 3*(ranked[0].CTR-runnerUp)
	if confidence > 95 {
		confidence = 95
	}
	return winnerID, confidence
}

// Stop halts a running test. Winner and results are kept as they stood.
func (s *Service) Stop(ctx context.Context, userID, testID string) error {
	t, _, err := s.repo.Get(ctx, userID, testID)
	if err != nil {
		return err
	}
	if t.Status != domain.ABTestRunning {
		return ErrNotRunning
	}
	return s.repo.MarkStopped(ctx, userID, testID, s.now())
}

// ResultsView bundles a test's current standing for the results endpoint.
// Variations are ordered by CTR descending.
type ResultsView struct {
	Test          *domain.ABTest       `json:"test"`
	Variations    []domain.ABVariation `json:"variations"`
	TotalAssigned int                  `json:"total_assigned"`
}

// Results returns the test's variations ranked by CTR plus the total
// number of assigned customers.
func (s *Service) Results(ctx context.Context, userID, testID string) (*ResultsView, error) {
	t, variations, err := s.repo.Get(ctx, userID, testID)
	if err != nil {
		return nil, err
	}
	sort.Slice(variations, func(i, j int) bool { return variations[i].CTR > variations[j].CTR })

	total := 0
	for _, v := range variations {
		total += v.AudienceCount
	}
	return &ResultsView{Test: t, Variations: variations, TotalAssigned: total}, nil
}

// Delete removes a test with its variations and results.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}
