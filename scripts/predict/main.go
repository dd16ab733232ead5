// Script to exercise the inference gateway against a running server:
// runs one FTP prediction and one forecast through a session, then
// shows whether the answers came back live or cached.
// Usage: go run scripts/predict/main.go <athlete-uuid>
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/config"
	"github.com/velolab/ride-coach/internal/domain"
	"github.com/velolab/ride-coach/internal/inference"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run scripts/predict/main.go <athlete-uuid>")
	}
	athleteID, err := uuid.Parse(os.Args[1])
	if err != nil {
		log.Fatalf("Invalid athlete ID: %v", err)
	}

	cfg := config.Load()

	fmt.Println("=== Inference Gateway Test ===")
	fmt.Printf("Base URL: %s\n", cfg.InferenceBaseURL)
	fmt.Printf("Athlete:  %s\n", athleteID)
	fmt.Println()

	gateway := inference.NewGateway(inference.Config{
		BaseURL: cfg.InferenceBaseURL,
		APIKey:  cfg.InferenceAPIKey,
		Plan:    domain.PlanPro,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := gateway.Health(ctx); err != nil {
		fmt.Printf("Health check failed (%v), queries will fall back to cache\n\n", err)
	} else {
		fmt.Println("Service healthy")
	}

	session := inference.NewSession(athleteID, gateway)
	defer session.Close()

	ftpResult, err := session.Query(ctx, inference.QueryFTP, map[string]any{
		"athlete_id":       athleteID,
		"preferred_method": "auto",
	})
	report("ftp", ftpResult, err)

	forecastResult, err := session.Query(ctx, inference.QueryForecast, map[string]any{
		"athlete_id":    athleteID,
		"horizon_weeks": 8,
	})
	report("forecast", forecastResult, err)

	if n := session.QueueLen(); n > 0 {
		fmt.Printf("\n%d request(s) queued for retry\n", n)
	}
}

func report(name string, result *inference.Result, err error) {
	if err != nil {
		fmt.Printf("✗ %s: %v\n", name, err)
		return
	}
	fmt.Printf("✓ %s (%s, computed %s)\n", name, result.Source, result.ComputedAt.Format(time.RFC3339))
	fmt.Printf("  %s\n", result.Payload)
}
