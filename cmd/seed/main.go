// Command seed populates the customers table with demo data so the
// dashboard has something to show on a fresh install.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/marketpulse/campaignhub/internal/auth"
	"github.com/marketpulse/campaignhub/internal/repository/postgres"
	"github.com/marketpulse/campaignhub/internal/seed"
)

func main() {
	var (
		userID = flag.String("user", auth.DevUserID, "owner user id for the generated customers")
		count  = flag.Int("count", seed.DefaultCount, "number of customers to generate")
	)
	flag.Parse()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ping database: %v\n", err)
		os.Exit(1)
	}

	seeder := seed.New(postgres.NewCustomerRepo(db))
	n, err := seeder.Run(ctx, *userID, *count)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("seeded %d customers for %s\n", n, *userID)
}
