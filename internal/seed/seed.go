package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/velolab/ride-coach/internal/domain"
	"gorm.io/gorm"
)

const (
	seededDays = 90
	ctlTau     = 42.0
	atlTau     = 7.0
)

// DemoAthleteID is the fixed identity of the seeded athlete, handy for
// exercising the API by hand.
var DemoAthleteID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

// Run seeds the database with the built-in workout library and a demo
// athlete with 90 days of ride history. Safe to call multiple times.
func Run(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Athlete{}, &domain.AthleteBaseline{}, &domain.TrainingGoal{},
		&domain.RideSummary{}, &domain.PowerDurationPoint{}, &domain.DailyLoad{},
		&domain.Workout{},
	); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	if err := seedWorkoutLibrary(db); err != nil {
		return err
	}
	if err := seedDemoAthlete(db); err != nil {
		return err
	}

	log.Println("Seed completed")
	return nil
}

func seedWorkoutLibrary(db *gorm.DB) error {
	library := []struct {
		id         string
		name       string
		systems    []domain.EnergySystem
		minutes    int
		tss        float64
		difficulty int
	}{
		{"a1111111-0000-0000-0000-000000000001", "Endurance Base 2h", []domain.EnergySystem{domain.SystemEndurance}, 120, 95, 3},
		{"a1111111-0000-0000-0000-000000000002", "Endurance Base 3h", []domain.EnergySystem{domain.SystemEndurance}, 180, 150, 4},
		{"a1111111-0000-0000-0000-000000000003", "Tempo 3x15", []domain.EnergySystem{domain.SystemTempo}, 80, 70, 5},
		{"a1111111-0000-0000-0000-000000000004", "Sweet Spot 2x20", []domain.EnergySystem{domain.SystemTempo, domain.SystemThreshold}, 75, 78, 6},
		{"a1111111-0000-0000-0000-000000000005", "2x20 Threshold", []domain.EnergySystem{domain.SystemThreshold}, 75, 85, 7},
		{"a1111111-0000-0000-0000-000000000006", "Over-Unders 3x12", []domain.EnergySystem{domain.SystemThreshold, domain.SystemVO2Max}, 70, 82, 8},
		{"a1111111-0000-0000-0000-000000000007", "VO2 5x4", []domain.EnergySystem{domain.SystemVO2Max}, 65, 80, 9},
		{"a1111111-0000-0000-0000-000000000008", "Anaerobic 8x1", []domain.EnergySystem{domain.SystemAnaerobic}, 60, 65, 9},
		{"a1111111-0000-0000-0000-000000000009", "Sprint Neuromuscular", []domain.EnergySystem{domain.SystemSprint}, 55, 45, 6},
		{"a1111111-0000-0000-0000-000000000010", "Recovery Spin", []domain.EnergySystem{domain.SystemEndurance}, 45, 25, 1},
	}

	for _, entry := range library {
		systems := make([]string, len(entry.systems))
		for i, s := range entry.systems {
			systems[i] = string(s)
		}
		workout := domain.Workout{
			ID:              uuid.MustParse(entry.id),
			Source:          domain.SourceBuiltIn,
			Name:            entry.name,
			EnergySystems:   strings.Join(systems, ","),
			DurationMinutes: entry.minutes,
			ExpectedTSS:     entry.tss,
			Difficulty:      entry.difficulty,
		}
		if err := db.Where("id = ?", workout.ID).FirstOrCreate(&workout).Error; err != nil {
			return fmt.Errorf("failed to create workout %s: %w", entry.name, err)
		}
	}
	return nil
}

func seedDemoAthlete(db *gorm.DB) error {
	ftp := 245.0
	athlete := domain.Athlete{
		ID:              DemoAthleteID,
		Name:            "Demo Rider",
		Plan:            domain.PlanPro,
		CurrentFTPWatts: &ftp,
	}
	if err := db.Where("id = ?", athlete.ID).FirstOrCreate(&athlete).Error; err != nil {
		return fmt.Errorf("failed to create demo athlete: %w", err)
	}

	baseline := domain.AthleteBaseline{
		AthleteID:                athlete.ID,
		RestingHR:                46,
		MaxHR:                    189,
		TypicalAerobicDecoupling: 0.05,
		TypicalPowerVariability:  1.06,
	}
	if err := db.Where("athlete_id = ?", athlete.ID).FirstOrCreate(&baseline).Error; err != nil {
		return fmt.Errorf("failed to create baseline: %w", err)
	}

	eventDate := time.Now().UTC().AddDate(0, 0, 70)
	goal := domain.TrainingGoal{
		ID:           uuid.MustParse("b2222222-0000-0000-0000-000000000001"),
		AthleteID:    athlete.ID,
		Type:         domain.GoalEvent,
		TargetDate:   &eventDate,
		Priority:     1,
		TargetSystem: domain.SystemThreshold,
	}
	if err := db.Where("id = ?", goal.ID).FirstOrCreate(&goal).Error; err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}

	return seedRideHistory(db, athlete.ID, ftp)
}

// seedRideHistory lays down a plausible 90-day block: three or four
// rides a week with a slowly rising load, best-effort points scaled off
// the athlete's FTP, and the CTL/ATL series rolled day by day.
func seedRideHistory(db *gorm.DB, athleteID uuid.UUID, ftp float64) error {
	rng := rand.New(rand.NewSource(7))
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -seededDays)

	ctl, atl := 40.0, 40.0
	for day := 0; day <= seededDays; day++ {
		date := start.AddDate(0, 0, day)
		dayTSS := 0.0

		// Ride on a bit over half the days.
		if rng.Float64() < 0.55 {
			rideID := uuid.MustParse(fmt.Sprintf("c3333333-0000-0000-0000-%012d", day))
			// Fitness creeps up over the block.
			progress := float64(day) / float64(seededDays)
			base := ftp * (0.92 + 0.10*progress)

			durationSecs := 3600 + rng.Intn(5400)
			avg := base * (0.72 + 0.10*rng.Float64())
			np := avg * (1.03 + 0.04*rng.Float64())
			intensity := np / ftp
			tss := float64(durationSecs) / 3600 * intensity * intensity * 100

			ride := domain.RideSummary{
				ID:                   rideID,
				AthleteID:            athleteID,
				StartedAt:            date.Add(8 * time.Hour),
				DurationSeconds:      durationSecs,
				AvgPowerWatts:        round1(avg),
				NormalizedPowerWatts: round1(np),
				MaxPowerWatts:        round1(base * 2.8),
				TSS:                  round1(tss),
				BestEfforts: []domain.PowerDurationPoint{
					{DurationSecs: 5, PowerWatts: round1(base * 2.4)},
					{DurationSecs: 60, PowerWatts: round1(base * 1.5)},
					{DurationSecs: 300, PowerWatts: round1(base * 1.15)},
					{DurationSecs: 1200, PowerWatts: round1(base * 1.0)},
				},
			}
			if rng.Float64() < 0.2 {
				ride.BestEfforts = append(ride.BestEfforts, domain.PowerDurationPoint{
					DurationSecs: 3600, PowerWatts: round1(base * 0.93),
				})
			}
			if err := db.Where("id = ?", ride.ID).FirstOrCreate(&ride).Error; err != nil {
				return fmt.Errorf("failed to create ride: %w", err)
			}
			dayTSS = ride.TSS
		}

		ctl += (dayTSS - ctl) / ctlTau
		atl += (dayTSS - atl) / atlTau

		load := domain.DailyLoad{
			AthleteID: athleteID,
			Date:      time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
			TSS:       round1(dayTSS),
			CTL:       round1(ctl),
			ATL:       round1(atl),
		}
		if err := db.Where("athlete_id = ? AND date = ?", athleteID, load.Date).FirstOrCreate(&load).Error; err != nil {
			return fmt.Errorf("failed to create daily load: %w", err)
		}
	}
	return nil
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
