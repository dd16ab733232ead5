// Ride Coach API
//
// Training analytics engine for cyclists.
//
//	@title			Ride Coach API
//	@version		1.0
//	@description	FTP prediction, in-ride fatigue assessment, workout recommendations and CTL forecasting over ride telemetry.
//
//	@BasePath	/v1
//
//	@tag.name			athletes
//	@tag.description	Athlete profiles, baselines and goals
//
//	@tag.name			rides
//	@tag.description	Ride history, FIT imports and daily training load
//
//	@tag.name			workouts
//	@tag.description	Workout library and candidate pool
//
//	@tag.name			inference
//	@tag.description	Analyzer endpoints with enveloped responses
//
//	@tag.name			coach
//	@tag.description	LLM-written coach notes
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/velolab/ride-coach/internal/api"
	"github.com/velolab/ride-coach/internal/api/handler"
	"github.com/velolab/ride-coach/internal/config"
	"github.com/velolab/ride-coach/internal/domain"
	"github.com/velolab/ride-coach/internal/llm"
	"github.com/velolab/ride-coach/internal/repository"
	"github.com/velolab/ride-coach/internal/seed"
	"github.com/velolab/ride-coach/internal/service"
	"github.com/velolab/ride-coach/internal/telemetry"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize tracing
	shutdownTracer, err := telemetry.InitTracer(context.Background(), cfg, "ride-coach-api")
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Tracer shutdown: %v", err)
		}
	}()

	// Connect to database
	db, err := config.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database schema
	if err := db.AutoMigrate(
		&domain.Athlete{}, &domain.AthleteBaseline{}, &domain.TrainingGoal{},
		&domain.RideSummary{}, &domain.PowerDurationPoint{}, &domain.DailyLoad{},
		&domain.Workout{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	if cfg.Seed {
		log.Println("Seeding database with sample data (SEED=true)...")
		if err := seed.Run(db); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
	}

	// Initialize repositories
	athleteRepo := repository.NewAthleteRepository(db)
	rideRepo := repository.NewRideRepository(db)
	workoutRepo := repository.NewWorkoutRepository(db)

	// Initialize services
	athleteService := service.NewAthleteService(athleteRepo)
	rideService := service.NewRideService(rideRepo, athleteRepo)
	workoutService := service.NewWorkoutService(workoutRepo, athleteRepo)
	pdcService := service.NewPDCService(rideRepo, athleteRepo)
	ftpService := service.NewFTPService(rideRepo, athleteRepo)
	fatigueService := service.NewFatigueService(athleteRepo, cfg.FatigueCooldown)
	recommendService := service.NewRecommendService(workoutRepo, rideRepo, athleteRepo)
	forecastService := service.NewForecastService(rideRepo, athleteRepo)
	cadenceService := service.NewCadenceService(athleteRepo)

	// Initialize OpenAI client (may be nil if not configured)
	var coachLLM llm.CoachLLM
	if client := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAICoachModel); client != nil {
		coachLLM = client
	} else {
		log.Println("Warning: OpenAI API key not configured, coach notes endpoint will be unavailable")
	}
	coachService := service.NewCoachService(athleteRepo, ftpService, recommendService, forecastService, coachLLM, cfg.OpenAICoachModel)

	// Initialize handlers
	athleteHandler := handler.NewAthleteHandler(athleteService)
	rideHandler := handler.NewRideHandler(rideService, athleteService)
	workoutHandler := handler.NewWorkoutHandler(workoutService)
	curveHandler := handler.NewCurveHandler(pdcService)
	inferenceHandler := handler.NewInferenceHandler(ftpService, fatigueService, recommendService, forecastService, cadenceService)
	coachHandler := handler.NewCoachHandler(coachService)

	// Setup router
	router := api.NewRouter(athleteHandler, rideHandler, workoutHandler, curveHandler, inferenceHandler, coachHandler, cfg.InferenceAPIKey)
	routerHandler := router.Setup()

	// Start server
	addr := ":" + cfg.Port
	log.Printf("Starting server on %s", addr)
	if err := http.ListenAndServe(addr, routerHandler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
