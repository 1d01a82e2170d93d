// Package engine orchestrates one conversational turn: assemble context,
// generate a reply, then feed the exchange back into the memory tiers. A
// turn never fails; every degraded dependency has a cheaper substitute.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/marshee-ai/marshee/internal/assemble"
	"github.com/marshee-ai/marshee/internal/genai"
	"github.com/marshee-ai/marshee/internal/observability"
	"github.com/marshee-ai/marshee/internal/profile"
	"github.com/marshee-ai/marshee/internal/redact"
)

type Engine struct {
	buffers   appendOnly
	assembler *assemble.Assembler
	gen       genai.Completer
	profiles  profile.Store
	metrics   *observability.Metrics
}

// appendOnly is the slice of the buffer service the engine writes through.
type appendOnly interface {
	Append(ctx context.Context, userID, userText, assistantText string) int
}

func New(buffers appendOnly, assembler *assemble.Assembler, gen genai.Completer, profiles profile.Store, metrics *observability.Metrics) *Engine {
	return &Engine{
		buffers:   buffers,
		assembler: assembler,
		gen:       gen,
		profiles:  profiles,
		metrics:   metrics,
	}
}

// Respond produces the assistant reply for one user message and records the
// exchange in both the session buffer and the durable transcript.
func (e *Engine) Respond(ctx context.Context, p profile.Profile, userMessage string) string {
	start := time.Now()

	cc := e.assembler.BuildContext(ctx, p.UserID, userMessage)
	e.metrics.ObservePhase(observability.PhaseAssembleContext, time.Since(start))

	genStart := time.Now()
	reply := e.generate(ctx, p, cc, userMessage)
	e.metrics.ObservePhase(observability.PhaseGenerateReply, time.Since(genStart))

	persistStart := time.Now()
	e.buffers.Append(ctx, p.UserID, userMessage, reply)

	// Session turns expire with the buffer TTL; the transcript does not, so
	// PII is masked before it becomes permanent.
	stored, _ := redact.PII(userMessage)
	_ = e.profiles.SaveTranscript(ctx, profile.Transcript{
		UserID:   p.UserID,
		StageID:  "main_conversation",
		UserText: stored,
		Reply:    reply,
		Question: "How can I help you?",
	})
	e.metrics.ObservePhase(observability.PhasePersistExchange, time.Since(persistStart))

	e.metrics.ObserveTurnLatency(time.Since(start))
	return reply
}

// WelcomeBack greets a returning user who opened a session without a message.
func (e *Engine) WelcomeBack(p profile.Profile) string {
	return fmt.Sprintf("Welcome back, %s! How are you and %s doing today?", p.UserName, p.PetName)
}

func (e *Engine) generate(ctx context.Context, p profile.Profile, cc assemble.Context, userMessage string) string {
	prof := genai.PromptProfile{UserName: p.UserName, PetName: p.PetName, PetType: p.PetType}

	if e.gen != nil && e.gen.Ready() {
		prompt := genai.BuildSystemPrompt(prof, cc)
		out, err := e.gen.Complete(ctx, prompt, genai.HistoryMessages(cc), userMessage)
		if err == nil && strings.TrimSpace(out) != "" {
			e.countPath("model")
			return strings.TrimSpace(out)
		}
		e.countDependencyError()
	}

	e.countPath("fallback")
	return genai.FallbackReply(userMessage, prof)
}

func (e *Engine) countPath(path string) {
	if e.metrics != nil {
		e.metrics.GenerationPath.WithLabelValues(path).Inc()
		e.metrics.Turns.ObserveIndicator("generation_" + path)
	}
}

func (e *Engine) countDependencyError() {
	if e.metrics != nil {
		e.metrics.DependencyErrors.WithLabelValues("generation").Inc()
	}
}
