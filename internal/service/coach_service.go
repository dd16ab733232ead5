package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/domain"
	"github.com/velolab/ride-coach/internal/llm"
	"github.com/velolab/ride-coach/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const coachDefaultAvailableMinutes = 90

// CoachService narrates the current analytics through the LLM. The
// judgments themselves come from the deterministic services; the model
// only phrases them.
type CoachService interface {
	GenerateNotes(ctx context.Context, athleteID uuid.UUID) (*domain.CoachNotesResponse, error)
}

type coachService struct {
	athleteRepo repository.AthleteRepository
	ftp         FTPService
	recommend   RecommendService
	forecast    ForecastService
	coachLLM    llm.CoachLLM
	model       string
}

// NewCoachService creates a new CoachService. A nil coachLLM disables
// note generation; callers get ErrModelUnavailable.
func NewCoachService(
	athleteRepo repository.AthleteRepository,
	ftp FTPService,
	recommend RecommendService,
	forecast ForecastService,
	coachLLM llm.CoachLLM,
	model string,
) CoachService {
	return &coachService{
		athleteRepo: athleteRepo,
		ftp:         ftp,
		recommend:   recommend,
		forecast:    forecast,
		coachLLM:    coachLLM,
		model:       model,
	}
}

func (s *coachService) GenerateNotes(ctx context.Context, athleteID uuid.UUID) (*domain.CoachNotesResponse, error) {
	tracer := otel.Tracer("ride-coach-api/coach")
	ctx, span := tracer.Start(ctx, "CoachService.GenerateNotes",
		trace.WithAttributes(attribute.String("athlete.id", athleteID.String())),
	)
	defer span.End()

	if s.coachLLM == nil {
		return nil, domain.ErrModelUnavailable
	}

	athlete, err := s.athleteRepo.GetByID(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	coachCtx := &domain.CoachContext{Athlete: athlete}

	// Sections degrade independently: thin history drops a section, it
	// does not block the notes.
	ftpReq := &domain.FTPPredictRequest{CurrentFTPWatts: athlete.CurrentFTPWatts}
	if prediction, ftpErr := s.ftp.Predict(ctx, athleteID, ftpReq); ftpErr == nil {
		coachCtx.FTP = prediction
	} else if !errors.Is(ftpErr, domain.ErrInsufficientData) {
		return nil, ftpErr
	} else {
		log.Printf("[coach] athlete=%s ftp section skipped: %v", athleteID, ftpErr)
	}

	recommendReq := &domain.RecommendationRequest{AvailableMinutes: coachDefaultAvailableMinutes}
	if result, recErr := s.recommend.Recommend(ctx, athleteID, recommendReq); recErr == nil {
		coachCtx.Recommendation = result
	} else {
		return nil, recErr
	}

	if forecast, fcErr := s.forecast.Forecast(ctx, athleteID, &domain.ForecastRequest{}); fcErr == nil {
		coachCtx.Forecast = forecast
		coachCtx.GeneratedAt = forecast.ComputedAt
	} else if !errors.Is(fcErr, domain.ErrInsufficientData) {
		return nil, fcErr
	} else {
		log.Printf("[coach] athlete=%s forecast section skipped: %v", athleteID, fcErr)
	}
	if coachCtx.GeneratedAt.IsZero() {
		coachCtx.GeneratedAt = coachCtx.Recommendation.ComputedAt
	}

	notes, err := s.coachLLM.GenerateNotes(ctx, coachCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}

	return &domain.CoachNotesResponse{
		Notes:       *notes,
		Model:       s.model,
		GeneratedAt: coachCtx.GeneratedAt,
	}, nil
}
