// Package onboarding walks a new user through the seven-stage profile setup
// and, on completion, seals the profile into the semantic store so future
// conversations can recall it.
package onboarding

import (
	"context"
	"fmt"
	"time"

	"github.com/marshee-ai/marshee/internal/profile"
	"github.com/marshee-ai/marshee/internal/vector"
)

// Result is the structured outcome of an onboarding step, shaped for the
// API layer.
type Result struct {
	Success     bool           `json:"success"`
	FlowType    string         `json:"flow_type"`
	StageID     string         `json:"stage_id"`
	StageNumber int            `json:"stage_number"`
	TotalStages int            `json:"total_stages"`
	Question    string         `json:"question"`
	Reply       string         `json:"marshee_response"`
	NextStage   string         `json:"next_stage"`
	Data        map[string]any `json:"data"`
}

// Flow drives the onboarding state machine over the profile store.
type Flow struct {
	profiles profile.Store
	vectors  *vector.Store
}

func New(profiles profile.Store, vectors *vector.Store) *Flow {
	return &Flow{profiles: profiles, vectors: vectors}
}

// CurrentStage describes the question the user is currently on, for clients
// that reconnect mid-setup.
func (f *Flow) CurrentStage(p profile.Profile) Result {
	st, ok := stages[p.CurrentStage]
	if !ok {
		st = stages[StageUserName]
	}
	return Result{
		Success:     true,
		FlowType:    "initial",
		StageID:     st.id,
		StageNumber: st.number,
		TotalStages: TotalStages,
		Question:    st.question(p),
		Reply:       st.intro(p),
		NextStage:   st.next,
		Data:        stageData(st, p),
	}
}

// Submit validates and applies one stage answer, advancing the profile. An
// invalid answer re-asks the same stage with Success=false; it is not an
// error. The final stage runs the weight assessment and seals the profile.
func (f *Flow) Submit(ctx context.Context, p profile.Profile, stageID, value string) (Result, error) {
	st, ok := stages[stageID]
	if !ok {
		return Result{}, fmt.Errorf("unknown onboarding stage %q", stageID)
	}

	if !st.validate(value) {
		return Result{
			Success:     false,
			FlowType:    "initial",
			StageID:     st.id,
			StageNumber: st.number,
			TotalStages: TotalStages,
			Question:    st.question(p),
			Reply:       st.onError(p),
			NextStage:   st.next,
			Data:        map[string]any{},
		}, nil
	}

	st.apply(&p, value)
	p.CurrentStage = st.next
	if !contains(p.CompletedStages, st.id) {
		p.CompletedStages = append(p.CompletedStages, st.id)
	}

	if st.next == StageComplete {
		return f.complete(ctx, p, st, value)
	}

	if err := f.profiles.Update(ctx, p); err != nil {
		return Result{}, fmt.Errorf("advance onboarding: %w", err)
	}

	next := stages[st.next]
	res := Result{
		Success:     true,
		FlowType:    "initial",
		StageID:     next.id,
		StageNumber: next.number,
		TotalStages: TotalStages,
		Question:    next.question(p),
		Reply:       next.intro(p),
		NextStage:   next.next,
		Data:        stageData(next, p),
	}
	f.saveTranscript(ctx, p.UserID, st.id, value, res.Reply, st.question(p))
	return res, nil
}

func (f *Flow) complete(ctx context.Context, p profile.Profile, st stage, value string) (Result, error) {
	assessment := profile.AssessWeight(ctx, f.profiles, p.PetBreed, p.PetGender, p.PetAge, p.PetWeight)
	p.Assessment = &assessment
	p.SetupComplete = true
	p.CurrentStage = "main_conversation"

	if err := f.profiles.Update(ctx, p); err != nil {
		return Result{}, fmt.Errorf("complete onboarding: %w", err)
	}

	// The profile record joins the user's history namespace so retrieval
	// can surface it alongside chat summaries. A failed write is tolerated:
	// the durable profile row is the source of truth and the record can be
	// rewritten on a later profile change.
	_ = f.SaveProfileRecord(ctx, p)

	reply := fmt.Sprintf("Perfect! Setup complete for %s. %s Ask me anything about %s!",
		p.PetName, assessment.Message, p.PetName)
	f.saveTranscript(ctx, p.UserID, st.id, value, reply, "Final setup")

	return Result{
		Success:     true,
		FlowType:    "main",
		StageID:     "main_conversation",
		StageNumber: 1,
		Question:    "How can I help you?",
		Reply:       reply,
		Data:        map[string]any{},
	}, nil
}

// SaveProfileRecord writes or rewrites the user's profile text in the
// semantic store under its stable ID.
func (f *Flow) SaveProfileRecord(ctx context.Context, p profile.Profile) error {
	if f.vectors == nil || !f.vectors.Ready() {
		return nil
	}
	now := time.Now().UTC()
	return f.vectors.UpsertText(ctx, vector.UserHistory, vector.Record{
		ID:        vector.ProfileRecordID(p.UserID),
		Text:      ProfileText(p, now),
		Kind:      "user_profile",
		UserID:    p.UserID,
		CreatedAt: now,
		Extra: map[string]string{
			"pet_name": p.PetName,
			"pet_type": p.PetType,
		},
	})
}

// ProfileText renders the profile as the prose stored in the semantic index.
func ProfileText(p profile.Profile, at time.Time) string {
	return fmt.Sprintf(`User Profile:
User: %s
Pet: %s (%s)
Breed: %s
Age: %d years
Weight: %g kg
Gender: %s
Setup completed: %s`,
		orUnknown(p.UserName), orUnknown(p.PetName), orUnknown(p.PetType),
		orUnknown(p.PetBreed), p.PetAge, p.PetWeight, orUnknown(p.PetGender),
		at.Format("2006-01-02"))
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func stageData(st stage, p profile.Profile) map[string]any {
	if st.options == nil {
		return map[string]any{}
	}
	switch st.kind {
	case "button":
		return map[string]any{"buttons": st.options(p)}
	case "dropdown":
		return map[string]any{"dropdown_options": st.options(p)}
	default:
		return map[string]any{}
	}
}

func (f *Flow) saveTranscript(ctx context.Context, userID, stageID, userText, reply, question string) {
	_ = f.profiles.SaveTranscript(ctx, profile.Transcript{
		UserID:   userID,
		StageID:  stageID,
		UserText: userText,
		Reply:    reply,
		Question: question,
	})
}
