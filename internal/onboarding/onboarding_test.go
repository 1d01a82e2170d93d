package onboarding

import (
	"context"
	"strings"
	"testing"

	"github.com/marshee-ai/marshee/internal/embed"
	"github.com/marshee-ai/marshee/internal/profile"
	"github.com/marshee-ai/marshee/internal/vector"
)

func newFlow(t *testing.T) (*Flow, profile.Store, *vector.Store) {
	t.Helper()
	profiles := profile.NewInMemoryStore()
	idx, err := vector.NewChromemIndex("")
	if err != nil {
		t.Fatalf("NewChromemIndex() error = %v", err)
	}
	vectors := vector.NewStore(idx, embed.NewMockEmbedder(64), nil)
	return New(profiles, vectors), profiles, vectors
}

func TestCurrentStageForNewUser(t *testing.T) {
	f, profiles, _ := newFlow(t)
	ctx := context.Background()

	p, err := profiles.GetOrCreate(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	got := f.CurrentStage(p)
	if got.StageID != StageUserName || got.StageNumber != 1 || got.TotalStages != 7 {
		t.Fatalf("CurrentStage() = %+v", got)
	}
	if !strings.Contains(got.Reply, "I'm Marshee") {
		t.Fatalf("greeting missing from first stage: %q", got.Reply)
	}
}

func TestSubmitInvalidInputReasksStage(t *testing.T) {
	f, profiles, _ := newFlow(t)
	ctx := context.Background()

	p, _ := profiles.GetOrCreate(ctx, "user-1")
	got, err := f.Submit(ctx, p, StageUserName, "x")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if got.Success {
		t.Fatalf("one-character name accepted")
	}
	if got.StageID != StageUserName {
		t.Fatalf("validation failure advanced the stage to %q", got.StageID)
	}

	after, _ := profiles.GetOrCreate(ctx, "user-1")
	if after.CurrentStage != StageUserName {
		t.Fatalf("profile stage moved to %q on invalid input", after.CurrentStage)
	}
}

func TestSubmitAdvancesThroughStages(t *testing.T) {
	f, profiles, _ := newFlow(t)
	ctx := context.Background()

	p, _ := profiles.GetOrCreate(ctx, "user-1")
	got, err := f.Submit(ctx, p, StageUserName, "Asha")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !got.Success || got.StageID != StagePetName || got.StageNumber != 2 {
		t.Fatalf("Submit() = %+v, want pet_name stage", got)
	}
	if !strings.Contains(got.Reply, "Nice to meet you, Asha!") {
		t.Fatalf("intro does not use the recorded name: %q", got.Reply)
	}

	after, _ := profiles.GetOrCreate(ctx, "user-1")
	if after.UserName != "Asha" || after.CurrentStage != StagePetName {
		t.Fatalf("profile after submit = %+v", after)
	}
}

func TestBreedOptionsFollowPetType(t *testing.T) {
	f, profiles, _ := newFlow(t)
	ctx := context.Background()

	p, _ := profiles.GetOrCreate(ctx, "user-1")
	p.PetType = "cat"
	p.CurrentStage = StagePetBreed
	if err := profiles.Update(ctx, p); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got := f.CurrentStage(p)
	opts, ok := got.Data["dropdown_options"].([]string)
	if !ok {
		t.Fatalf("Data = %+v, want dropdown_options", got.Data)
	}
	found := false
	for _, o := range opts {
		if o == "siamese" {
			found = true
		}
		if o == "labrador" {
			t.Fatalf("dog breed offered for a cat")
		}
	}
	if !found {
		t.Fatalf("cat breeds missing: %v", opts)
	}
}

func TestFullOnboardingRun(t *testing.T) {
	f, profiles, vectors := newFlow(t)
	ctx := context.Background()

	steps := []struct {
		stage string
		value string
	}{
		{StageUserName, "Asha"},
		{StagePetName, "Biscuit"},
		{StagePetType, "dog"},
		{StagePetGender, "male"},
		{StagePetBreed, "golden_retriever"},
		{StagePetAge, "2"},
		{StagePetWeight, "37"},
	}

	var last Result
	for _, step := range steps {
		p, _ := profiles.GetOrCreate(ctx, "user-1")
		got, err := f.Submit(ctx, p, step.stage, step.value)
		if err != nil {
			t.Fatalf("Submit(%s) error = %v", step.stage, err)
		}
		if !got.Success {
			t.Fatalf("Submit(%s, %q) rejected: %+v", step.stage, step.value, got)
		}
		last = got
	}

	if last.FlowType != "main" || last.StageID != "main_conversation" {
		t.Fatalf("final result = %+v, want main flow", last)
	}
	if !strings.Contains(last.Reply, "Setup complete for Biscuit.") {
		t.Fatalf("completion reply = %q", last.Reply)
	}
	if !strings.Contains(last.Reply, "healthy range") {
		t.Fatalf("completion reply missing weight assessment: %q", last.Reply)
	}

	p, _ := profiles.GetOrCreate(ctx, "user-1")
	if !p.SetupComplete || p.CurrentStage != "main_conversation" {
		t.Fatalf("profile not sealed: %+v", p)
	}
	if p.Assessment == nil || p.Assessment.Status != profile.StatusHealthy {
		t.Fatalf("assessment = %+v", p.Assessment)
	}
	if p.PetAge != 2 || p.PetWeight != 37 {
		t.Fatalf("numeric fields = age %d weight %v", p.PetAge, p.PetWeight)
	}

	// The sealed profile must be retrievable from the user's history
	// namespace under its stable ID.
	text := ProfileText(p, p.Assessment.AssessedAt)
	matches := vectors.Query(ctx, vector.UserHistory, vectors.Embed(ctx, text), 5,
		map[string]string{"user_id": "user-1"})
	if len(matches) != 1 {
		t.Fatalf("profile records in store = %d, want 1", len(matches))
	}
	if matches[0].ID != vector.ProfileRecordID("user-1") || matches[0].Kind != "user_profile" {
		t.Fatalf("profile record = %+v", matches[0].Record)
	}
	if !strings.Contains(matches[0].Text, "Pet: Biscuit (dog)") {
		t.Fatalf("profile text = %q", matches[0].Text)
	}
}

func TestSubmitUnknownStage(t *testing.T) {
	f, profiles, _ := newFlow(t)
	ctx := context.Background()

	p, _ := profiles.GetOrCreate(ctx, "user-1")
	if _, err := f.Submit(ctx, p, "favorite_color", "blue"); err == nil {
		t.Fatalf("Submit() accepted an unknown stage")
	}
}
