// Package seed generates realistic demo customers for new accounts.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/marketpulse/campaignhub/internal/domain"
	"github.com/marketpulse/campaignhub/internal/pkg/logger"
)

// DefaultCount is the number of demo customers inserted per run.
const DefaultCount = 50

const (
	optOutShare   = 0.08
	complainShare = 0.05
)

var firstNames = []string{
	"Ana", "Bruno", "Carla", "Diego", "Elena", "Felipe", "Gabriela", "Hugo",
	"Isabela", "João", "Karen", "Lucas", "Mariana", "Nicolas", "Olivia",
	"Pedro", "Rafaela", "Sofia", "Thiago", "Valentina",
}

var lastNames = []string{
	"Silva", "Santos", "Oliveira", "Souza", "Costa", "Pereira", "Almeida",
	"Ferreira", "Rodrigues", "Gomes", "Martins", "Araujo", "Barbosa",
}

var companies = []string{
	"Acme Ltda", "Horizonte Tech", "Verde Foods", "Mar Azul Turismo",
	"Estrela Moda", "Lumen Energia", "Casa Bela Decor", "Rapido Log",
	"", "", // some customers have no company
}

var locations = []struct {
	Country string
	City    string
}{
	{"Brazil", "São Paulo"},
	{"Brazil", "Rio de Janeiro"},
	{"Brazil", "Belo Horizonte"},
	{"Portugal", "Lisbon"},
	{"Portugal", "Porto"},
	{"Mexico", "Mexico City"},
	{"Argentina", "Buenos Aires"},
	{"USA", "Miami"},
}

// Store is the persistence slice the seeder needs.
type Store interface {
	CreateBatch(ctx context.Context, customers []domain.Customer) error
}

// Seeder bulk-inserts generated demo customers.
type Seeder struct {
	store Store
	rng   *rand.Rand
}

// New creates a seeder.
func New(store Store) *Seeder {
	return &Seeder{store: store, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Run generates count demo customers for the user and bulk-inserts them.
// count <= 0 falls back to DefaultCount.
func (s *Seeder) Run(ctx context.Context, userID string, count int) (int, error) {
	if count <= 0 {
		count = DefaultCount
	}
	customers := s.Generate(userID, count)
	if err := s.store.CreateBatch(ctx, customers); err != nil {
		return 0, fmt.Errorf("seed customers: %w", err)
	}
	logger.Info("seeded demo customers", "user_id", userID, "count", count)
	return count, nil
}

// Generate builds count demo customers without persisting them.
func (s *Seeder) Generate(userID string, count int) []domain.Customer {
	out := make([]domain.Customer, 0, count)
	for i := 0; i < count; i++ {
		first := firstNames[s.rng.Intn(len(firstNames))]
		last := lastNames[s.rng.Intn(len(lastNames))]
		loc := locations[s.rng.Intn(len(locations))]

		// incomes cluster low with a long right tail
		income := 1500 + s.rng.ExpFloat64()*2500
		if income > 30000 {
			income = 30000
		}
		// spend tracks income with per-customer variance
		spent := income * (0.05 + s.rng.Float64()*0.25)
		purchases := 1 + s.rng.Intn(24)

		c := domain.Customer{
			ID:                uuid.New().String(),
			UserID:            userID,
			FullName:          first + " " + last,
			Email:             fmt.Sprintf("%s.%s%d@example.com", lower(first), lower(last), i),
			Phone:             fmt.Sprintf("+55119%08d", s.rng.Intn(100000000)),
			Company:           companies[s.rng.Intn(len(companies))],
			Country:           loc.Country,
			City:              loc.City,
			Location:          loc.City + ", " + loc.Country,
			Income:            round2(income),
			TotalSpent:        round2(spent),
			TotalPurchases:    purchases,
			CampaignsAccepted: s.rng.Intn(domain.MaxCampaignsAccepted + 1),
			OptOut:            s.rng.Float64() < optOutShare,
			Complained:        s.rng.Float64() < complainShare,
		}
		out = append(out, c)
	}
	return out
}

func lower(s string) string {
	b := []rune(s)
	for i, r := range b {
		if r >= 'A' && r <= 'Z' {
			b[i] = r + ('a' - 'A')
		}
	}
	return string(b)
}

func round2(f float64) float64 {
	return float64(int(f*100)) / 100
}
