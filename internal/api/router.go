package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	_ "github.com/velolab/ride-coach/docs"
	"github.com/velolab/ride-coach/internal/api/handler"
	"github.com/velolab/ride-coach/internal/api/middleware"
)

type Router struct {
	athleteHandler   *handler.AthleteHandler
	rideHandler      *handler.RideHandler
	workoutHandler   *handler.WorkoutHandler
	curveHandler     *handler.CurveHandler
	inferenceHandler *handler.InferenceHandler
	coachHandler     *handler.CoachHandler
	inferenceAPIKey  string
}

func NewRouter(
	athleteHandler *handler.AthleteHandler,
	rideHandler *handler.RideHandler,
	workoutHandler *handler.WorkoutHandler,
	curveHandler *handler.CurveHandler,
	inferenceHandler *handler.InferenceHandler,
	coachHandler *handler.CoachHandler,
	inferenceAPIKey string,
) *Router {
	return &Router{
		athleteHandler:   athleteHandler,
		rideHandler:      rideHandler,
		workoutHandler:   workoutHandler,
		curveHandler:     curveHandler,
		inferenceHandler: inferenceHandler,
		coachHandler:     coachHandler,
		inferenceAPIKey:  inferenceAPIKey,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recovery)
	r.Use(middleware.Tracing)

	// Health check (enveloped, unauthenticated)
	r.Get("/health", rt.inferenceHandler.Health)

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	// Inference endpoints, one per analyzer, bearer-guarded
	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(rt.inferenceAPIKey))

		r.Post("/predictions/ftp", rt.inferenceHandler.PredictFTP)
		r.Post("/predictions/fatigue", rt.inferenceHandler.EvaluateFatigue)
		r.Post("/predictions/fatigue/dismiss", rt.inferenceHandler.DismissFatigue)
		r.Post("/predictions/fatigue/end", rt.inferenceHandler.EndFatigueSession)
		r.Post("/recommendations/workouts", rt.inferenceHandler.RecommendWorkouts)
		r.Post("/forecasts/ctl", rt.inferenceHandler.ForecastCTL)
		r.Post("/analysis/cadence", rt.inferenceHandler.AnalyzeCadence)
	})

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		r.Route("/athletes", func(r chi.Router) {
			r.Post("/", rt.athleteHandler.Create)
			r.Get("/{athleteId}", rt.athleteHandler.GetByID)

			r.Put("/{athleteId}/baseline", rt.athleteHandler.UpsertBaseline)
			r.Post("/{athleteId}/goals", rt.athleteHandler.CreateGoal)
			r.Get("/{athleteId}/goals", rt.athleteHandler.ListGoals)

			r.Route("/{athleteId}/rides", func(r chi.Router) {
				r.Post("/", rt.rideHandler.Create)
				r.Get("/", rt.rideHandler.List)
				r.Post("/fit", rt.rideHandler.UploadFIT)
			})

			r.Put("/{athleteId}/loads", rt.rideHandler.UpsertDailyLoad)

			r.Route("/{athleteId}/workouts", func(r chi.Router) {
				r.Post("/", rt.workoutHandler.Import)
				r.Get("/", rt.workoutHandler.ListCandidates)
			})

			r.Get("/{athleteId}/power-curve", rt.curveHandler.Get)
			r.Post("/{athleteId}/coach-notes", rt.coachHandler.GenerateNotes)
		})
	})

	return r
}
