// Package summary compresses session buffers into durable semantic memory.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/marshee-ai/marshee/internal/buffer"
	"github.com/marshee-ai/marshee/internal/genai"
	"github.com/marshee-ai/marshee/internal/observability"
	"github.com/marshee-ai/marshee/internal/vector"
)

// Trigger identifies what initiated a flush, for metrics only.
type Trigger string

const (
	TriggerThreshold Trigger = "threshold"
	TriggerIdle      Trigger = "idle"
	TriggerManual    Trigger = "manual"
)

// ErrClaimHeld is returned when another flush for the same user is in effect.
var ErrClaimHeld = errors.New("flush already in progress for user")

const condenseInstruction = "You condense pet care conversations. Summarize the transcript in a few sentences, preserving the topics discussed, any health concerns raised, and the advice that was given. Write plain prose."

// Summarizer turns a user's buffered turns into one summary record in the
// user_history namespace and clears the buffer afterwards.
//
// The buffer is cleared ONLY after the vector write succeeds: a failed write
// keeps the turns in place so the next trigger retries them.
type Summarizer struct {
	buffers  *buffer.Service
	store    *vector.Store
	gen      genai.Completer // may be nil: fallback extraction only
	minTurns int
	maxInput int
	metrics  *observability.Metrics
}

// Config controls Summarizer construction.
type Config struct {
	MinTurns int
	MaxInput int
}

func New(buffers *buffer.Service, store *vector.Store, gen genai.Completer, cfg Config, metrics *observability.Metrics) *Summarizer {
	if cfg.MinTurns <= 0 {
		cfg.MinTurns = 5
	}
	if cfg.MaxInput <= 0 {
		cfg.MaxInput = 3000
	}
	return &Summarizer{
		buffers:  buffers,
		store:    store,
		gen:      gen,
		minTurns: cfg.MinTurns,
		maxInput: cfg.MaxInput,
		metrics:  metrics,
	}
}

// HookFor adapts Flush into the buffer service's threshold hook. Failures
// are swallowed there: summarization must never fail the triggering append.
func (s *Summarizer) HookFor(ctx context.Context) func(userID string) {
	return func(userID string) {
		_ = s.Flush(ctx, userID, TriggerThreshold)
	}
}

// Flush summarizes and clears the user's buffer. The read-then-clear window
// is guarded by a short-lived per-user claim in the ephemeral store, so a
// threshold trigger and an idle sweep racing for the same user cannot
// interleave (also across service instances).
func (s *Summarizer) Flush(ctx context.Context, userID string, trigger Trigger) error {
	if !s.buffers.TryClaim(ctx, userID) {
		s.countOutcome(trigger, "claim_denied")
		return ErrClaimHeld
	}
	defer s.buffers.ReleaseClaim(ctx, userID)

	turns := s.buffers.Read(ctx, userID)
	if len(turns) < s.minTurns {
		s.countOutcome(trigger, "below_min")
		return nil
	}

	now := time.Now().UTC()
	text := s.condense(ctx, userID, turns, now)

	rec := vector.Record{
		ID:        vector.SummaryRecordID(userID, now),
		Text:      text,
		Kind:      "chat_summary",
		UserID:    userID,
		CreatedAt: now,
		Extra:     map[string]string{"message_count": strconv.Itoa(len(turns))},
	}
	if err := s.store.UpsertText(ctx, vector.UserHistory, rec); err != nil {
		s.countOutcome(trigger, "write_failed")
		return fmt.Errorf("write summary for %s: %w", userID, err)
	}

	if !s.buffers.Clear(ctx, userID) {
		// The summary is durable; the stale buffer will be re-summarized on
		// the next trigger or lapse with its TTL.
		s.countOutcome(trigger, "clear_failed")
		return nil
	}
	s.countOutcome(trigger, "ok")
	return nil
}

// condense produces the summary prose: model condensation when the
// generation capability is up, deterministic keyword extraction otherwise.
func (s *Summarizer) condense(ctx context.Context, userID string, turns []buffer.Turn, now time.Time) string {
	if s.gen != nil && s.gen.Ready() {
		transcript := renderTranscript(turns, s.maxInput)
		if out, err := s.gen.Complete(ctx, condenseInstruction, nil, transcript); err == nil && strings.TrimSpace(out) != "" {
			return strings.TrimSpace(out)
		}
		s.countDependencyError()
	}
	return extractiveSummary(userID, turns, now)
}

func renderTranscript(turns []buffer.Turn, maxChars int) string {
	var b strings.Builder
	for _, t := range turns {
		b.WriteString("User: ")
		b.WriteString(t.UserText)
		b.WriteString("\nAssistant: ")
		b.WriteString(t.AssistantText)
		b.WriteString("\n")
		if b.Len() >= maxChars {
			break
		}
	}
	out := b.String()
	if len(out) > maxChars {
		out = out[:maxChars]
	}
	return out
}

var (
	concernWords = []string{"sick", "ill", "problem", "worried", "help", "vet"}
	topicWords   = []string{"food", "eat", "groom", "bath", "play", "exercise"}
)

// extractiveSummary builds a summary without the model: concern-flagged
// turns, questions and topic-flagged turns, capped, plus the message count.
func extractiveSummary(userID string, turns []buffer.Turn, now time.Time) string {
	var concerns, questions, topics []string
	seenTopics := make(map[string]bool)

	for _, t := range turns {
		msg := t.UserText
		lower := strings.ToLower(msg)
		if containsAny(lower, concernWords) {
			concerns = append(concerns, msg)
		}
		if strings.Contains(msg, "?") {
			questions = append(questions, msg)
		}
		if containsAny(lower, topicWords) && !seenTopics[lower] {
			seenTopics[lower] = true
			topics = append(topics, lower)
		}
	}

	parts := []string{fmt.Sprintf("Chat summary for user %s on %s", userID, now.Format("2006-01-02 15:04"))}
	if len(concerns) > 0 {
		parts = append(parts, "Health concerns discussed: "+strings.Join(cap3(concerns), "; "))
	}
	if len(questions) > 0 {
		parts = append(parts, "Questions asked: "+strings.Join(cap3(questions), "; "))
	}
	if len(topics) > 0 {
		if len(topics) > 5 {
			topics = topics[:5]
		}
		parts = append(parts, "Topics covered: "+strings.Join(topics, "; "))
	}
	parts = append(parts, fmt.Sprintf("Total messages: %d", len(turns)))
	return strings.Join(parts, "\n")
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func cap3(items []string) []string {
	if len(items) > 3 {
		return items[:3]
	}
	return items
}

func (s *Summarizer) countOutcome(trigger Trigger, result string) {
	if s.metrics != nil {
		s.metrics.FlushOutcomes.WithLabelValues(string(trigger), result).Inc()
	}
}

func (s *Summarizer) countDependencyError() {
	if s.metrics != nil {
		s.metrics.DependencyErrors.WithLabelValues("generation").Inc()
	}
}
