package profile

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// Assessment status values.
const (
	StatusHealthy             = "healthy"
	StatusUnderweight         = "underweight"
	StatusSeverelyUnderweight = "severely_underweight"
	StatusOverweight          = "overweight"
	StatusObese               = "obese"
	StatusUnknown             = "unknown"
	StatusIncomplete          = "incomplete"
)

// AssessWeight grades a pet's weight against the breed standard table.
// Missing inputs or missing reference data degrade to a recorded-only
// assessment rather than an error.
func AssessWeight(ctx context.Context, store Store, breed, gender string, ageYears int, weight float64) WeightAssessment {
	now := time.Now().UTC()
	if breed == "" || gender == "" || ageYears <= 0 {
		return WeightAssessment{
			Status:        StatusIncomplete,
			Message:       "Weight recorded successfully!",
			WeightRange:   "Unknown",
			CurrentWeight: weight,
			AssessedAt:    now,
		}
	}

	key := strings.ReplaceAll(strings.ToLower(breed), " ", "_")
	ref, ok, err := store.BreedWeightFor(ctx, key, strings.ToLower(gender), ageYears*12)
	if err != nil || !ok {
		return WeightAssessment{
			Status:        StatusUnknown,
			Message:       "Weight standards not available for this breed/gender combination. Weight recorded successfully!",
			WeightRange:   "Unknown",
			CurrentWeight: weight,
			AssessedAt:    now,
		}
	}

	ideal := (ref.MinWeight + ref.MaxWeight) / 2
	deviation := (weight - ideal) / ideal * 100

	var status, message string
	switch {
	case weight < ref.MinWeight && deviation < -15:
		status = StatusSeverelyUnderweight
		message = "Based on breed standards, your pet appears to be significantly underweight. Please consult a veterinarian for proper nutritional guidance."
	case weight < ref.MinWeight:
		status = StatusUnderweight
		message = "Based on breed standards, your pet appears to be underweight. Consider consulting a veterinarian about proper nutrition."
	case weight > ref.MaxWeight && deviation > 15:
		status = StatusObese
		message = "Based on breed standards, your pet appears to be significantly overweight. Please consult a veterinarian about a weight management plan."
	case weight > ref.MaxWeight && deviation > 5:
		status = StatusOverweight
		message = "Based on breed standards, your pet appears to be slightly overweight. Consider adjusting diet and exercise routines."
	default:
		status = StatusHealthy
		message = "Based on breed standards, your pet's weight appears to be in a healthy range for their breed, age, and gender."
	}

	return WeightAssessment{
		Status:           status,
		Message:          message,
		WeightRange:      fmt.Sprintf("%g-%g kg", ref.MinWeight, ref.MaxWeight),
		CurrentWeight:    weight,
		DeviationPercent: round1(deviation),
		AssessedAt:       now,
	}
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
