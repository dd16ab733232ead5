package main

import (
	"fmt"
	"log"

	"github.com/velolab/ride-coach/internal/config"
	"github.com/velolab/ride-coach/internal/seed"
)

func main() {
	cfg := config.Load()

	db, err := config.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Run(db); err != nil {
		log.Fatalf("Failed to seed: %v", err)
	}

	fmt.Println("\nDemo athlete for testing:")
	fmt.Printf("  %s (PRO, FTP 245W, 90 days of rides)\n", seed.DemoAthleteID)
}
