// Package profile persists durable per-user state: the owner/pet profile
// built during onboarding, the append-only chat transcript, and the breed
// weight reference table used for the setup-completion assessment.
package profile

import (
	"context"
	"time"
)

// Profile is a user's durable record. Onboarding fills it stage by stage;
// conversation reads it for personalization.
type Profile struct {
	UserID          string             `json:"user_id"`
	UserName        string             `json:"user_name"`
	PetName         string             `json:"pet_name"`
	PetType         string             `json:"pet_type"`
	PetGender       string             `json:"pet_gender"`
	PetBreed        string             `json:"pet_breed"`
	PetAge          int                `json:"pet_age"`    // years
	PetWeight       float64            `json:"pet_weight"` // kg
	CurrentStage    string             `json:"current_stage"`
	CompletedStages []string           `json:"completed_stages"`
	SetupComplete   bool               `json:"setup_complete"`
	Assessment      *WeightAssessment  `json:"weight_assessment,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// WeightAssessment compares the pet's weight against breed standards.
type WeightAssessment struct {
	Status           string    `json:"status"`
	Message          string    `json:"message"`
	WeightRange      string    `json:"weight_range"`
	CurrentWeight    float64   `json:"current_weight"`
	DeviationPercent float64   `json:"deviation_percent"`
	AssessedAt       time.Time `json:"assessed_at"`
}

// Transcript stores one exchanged message pair for audit and replay. Unlike
// the session buffer it is never expired or cleared.
type Transcript struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	StageID   string    `json:"stage_id"`
	UserText  string    `json:"user_message"`
	Reply     string    `json:"marshee_response"`
	Question  string    `json:"question"`
	CreatedAt time.Time `json:"created_at"`
}

// BreedWeight is one row of the breed standard table: the healthy weight
// band for a breed/gender at a given age.
type BreedWeight struct {
	Breed     string  `json:"breed"`
	Gender    string  `json:"gender"`
	AgeMonths int     `json:"age_months"`
	MinWeight float64 `json:"min_weight"`
	MaxWeight float64 `json:"max_weight"`
}

// Store persists profiles, transcripts and the breed reference data.
type Store interface {
	// GetOrCreate returns the user's profile, creating a fresh one at the
	// first onboarding stage when none exists.
	GetOrCreate(ctx context.Context, userID string) (Profile, error)
	// Get returns the user's profile without creating one. found is false
	// when the user has never been seen.
	Get(ctx context.Context, userID string) (p Profile, found bool, err error)
	Update(ctx context.Context, p Profile) error
	SaveTranscript(ctx context.Context, t Transcript) error
	RecentTranscripts(ctx context.Context, userID string, limit int) ([]Transcript, error)
	// BreedWeightFor returns the closest reference row at or below ageMonths,
	// falling back to the youngest row for the breed/gender. ok is false when
	// the combination has no data at all.
	BreedWeightFor(ctx context.Context, breed, gender string, ageMonths int) (bw BreedWeight, ok bool, err error)
	Close() error
}
