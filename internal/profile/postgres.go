package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists profiles and transcripts in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id TEXT PRIMARY KEY,
			user_name TEXT NOT NULL DEFAULT '',
			pet_name TEXT NOT NULL DEFAULT '',
			pet_type TEXT NOT NULL DEFAULT '',
			pet_gender TEXT NOT NULL DEFAULT '',
			pet_breed TEXT NOT NULL DEFAULT '',
			pet_age INT NOT NULL DEFAULT 0,
			pet_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
			current_stage TEXT NOT NULL DEFAULT 'user_name',
			completed_stages TEXT[] NOT NULL DEFAULT '{}',
			setup_complete BOOLEAN NOT NULL DEFAULT FALSE,
			assessment JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS transcripts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			stage_id TEXT NOT NULL,
			user_message TEXT NOT NULL,
			marshee_response TEXT NOT NULL,
			question TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transcripts_user_created ON transcripts (user_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS breed_weights (
			breed TEXT NOT NULL,
			gender TEXT NOT NULL,
			age_months INT NOT NULL,
			min_weight DOUBLE PRECISION NOT NULL,
			max_weight DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (breed, gender, age_months)
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return seedBreedWeights(ctx, pool)
}

func seedBreedWeights(ctx context.Context, pool *pgxpool.Pool) error {
	for _, row := range DefaultBreedWeights() {
		_, err := pool.Exec(ctx,
			`INSERT INTO breed_weights (breed, gender, age_months, min_weight, max_weight)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (breed, gender, age_months) DO NOTHING`,
			row.Breed, row.Gender, row.AgeMonths, row.MinWeight, row.MaxWeight,
		)
		if err != nil {
			return fmt.Errorf("seed breed weights: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) GetOrCreate(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	var assessment []byte
	err := s.pool.QueryRow(ctx,
		`INSERT INTO profiles (user_id) VALUES ($1)
		 ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		 RETURNING user_id, user_name, pet_name, pet_type, pet_gender, pet_breed,
		           pet_age, pet_weight, current_stage, completed_stages,
		           setup_complete, assessment, created_at, updated_at`,
		userID,
	).Scan(&p.UserID, &p.UserName, &p.PetName, &p.PetType, &p.PetGender, &p.PetBreed,
		&p.PetAge, &p.PetWeight, &p.CurrentStage, &p.CompletedStages,
		&p.SetupComplete, &assessment, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Profile{}, fmt.Errorf("get or create profile: %w", err)
	}
	if len(assessment) > 0 {
		var a WeightAssessment
		if err := json.Unmarshal(assessment, &a); err == nil {
			p.Assessment = &a
		}
	}
	return p, nil
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (Profile, bool, error) {
	var p Profile
	var assessment []byte
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, user_name, pet_name, pet_type, pet_gender, pet_breed,
		        pet_age, pet_weight, current_stage, completed_stages,
		        setup_complete, assessment, created_at, updated_at
		 FROM profiles WHERE user_id=$1`,
		userID,
	).Scan(&p.UserID, &p.UserName, &p.PetName, &p.PetType, &p.PetGender, &p.PetBreed,
		&p.PetAge, &p.PetWeight, &p.CurrentStage, &p.CompletedStages,
		&p.SetupComplete, &assessment, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, false, nil
	}
	if err != nil {
		return Profile{}, false, fmt.Errorf("get profile: %w", err)
	}
	if len(assessment) > 0 {
		var a WeightAssessment
		if err := json.Unmarshal(assessment, &a); err == nil {
			p.Assessment = &a
		}
	}
	return p, true, nil
}

func (s *PostgresStore) Update(ctx context.Context, p Profile) error {
	var assessment []byte
	if p.Assessment != nil {
		b, err := json.Marshal(p.Assessment)
		if err != nil {
			return fmt.Errorf("encode assessment: %w", err)
		}
		assessment = b
	}

	_, err := s.pool.Exec(ctx,
		`UPDATE profiles SET
			user_name=$2, pet_name=$3, pet_type=$4, pet_gender=$5, pet_breed=$6,
			pet_age=$7, pet_weight=$8, current_stage=$9, completed_stages=$10,
			setup_complete=$11, assessment=$12, updated_at=now()
		 WHERE user_id=$1`,
		p.UserID, p.UserName, p.PetName, p.PetType, p.PetGender, p.PetBreed,
		p.PetAge, p.PetWeight, p.CurrentStage, p.CompletedStages,
		p.SetupComplete, assessment,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveTranscript(ctx context.Context, t Transcript) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO transcripts (id, user_id, stage_id, user_message, marshee_response, question, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.UserID, t.StageID, t.UserText, t.Reply, t.Question, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentTranscripts(ctx context.Context, userID string, limit int) ([]Transcript, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, stage_id, user_message, marshee_response, question, created_at
		 FROM transcripts WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query transcripts: %w", err)
	}
	defer rows.Close()

	items := make([]Transcript, 0, limit)
	for rows.Next() {
		var t Transcript
		if err := rows.Scan(&t.ID, &t.UserID, &t.StageID, &t.UserText, &t.Reply, &t.Question, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transcript row: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcript rows: %w", err)
	}

	// Reverse into chronological order.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}

	return items, nil
}

func (s *PostgresStore) BreedWeightFor(ctx context.Context, breed, gender string, ageMonths int) (BreedWeight, bool, error) {
	var bw BreedWeight
	err := s.pool.QueryRow(ctx,
		`SELECT breed, gender, age_months, min_weight, max_weight
		 FROM breed_weights WHERE breed=$1 AND gender=$2 AND age_months<=$3
		 ORDER BY age_months DESC LIMIT 1`,
		breed, gender, ageMonths,
	).Scan(&bw.Breed, &bw.Gender, &bw.AgeMonths, &bw.MinWeight, &bw.MaxWeight)
	if err == nil {
		return bw, true, nil
	}

	// No row at or below this age: fall back to the youngest reference row.
	err = s.pool.QueryRow(ctx,
		`SELECT breed, gender, age_months, min_weight, max_weight
		 FROM breed_weights WHERE breed=$1 AND gender=$2
		 ORDER BY age_months ASC LIMIT 1`,
		breed, gender,
	).Scan(&bw.Breed, &bw.Gender, &bw.AgeMonths, &bw.MinWeight, &bw.MaxWeight)
	if err != nil {
		return BreedWeight{}, false, nil
	}
	return bw, true, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
