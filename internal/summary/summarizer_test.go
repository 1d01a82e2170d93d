package summary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/marshee-ai/marshee/internal/buffer"
	"github.com/marshee-ai/marshee/internal/embed"
	"github.com/marshee-ai/marshee/internal/genai"
	"github.com/marshee-ai/marshee/internal/vector"
)

func newTestBuffers(t *testing.T) *buffer.Service {
	t.Helper()
	return buffer.NewService(buffer.NewInMemoryStore(time.Hour), buffer.ServiceConfig{
		FlushThreshold: 10,
		MaxTurnChars:   2000,
		ClaimTTL:       30 * time.Second,
	}, nil)
}

func newTestVectorStore(t *testing.T) *vector.Store {
	t.Helper()
	idx, err := vector.NewChromemIndex("")
	if err != nil {
		t.Fatalf("NewChromemIndex() error = %v", err)
	}
	return vector.NewStore(idx, embed.NewMockEmbedder(64), nil)
}

func fillBuffer(t *testing.T, buffers *buffer.Service, userID string, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		if got := buffers.Append(ctx, userID, "my dog seems sick, should I see a vet?", "please monitor him closely"); got != i+1 {
			t.Fatalf("Append() #%d = %d, want %d", i+1, got, i+1)
		}
	}
}

func querySummaries(t *testing.T, store *vector.Store, userID string) []vector.Match {
	t.Helper()
	ctx := context.Background()
	vec := store.Embed(ctx, "dog sick vet")
	return store.Query(ctx, vector.UserHistory, vec, 5, map[string]string{"user_id": userID})
}

func TestFlushBelowMinimumLeavesBufferUntouched(t *testing.T) {
	buffers := newTestBuffers(t)
	store := newTestVectorStore(t)
	s := New(buffers, store, nil, Config{MinTurns: 5}, nil)
	ctx := context.Background()

	fillBuffer(t, buffers, "user-1", 3)
	if err := s.Flush(ctx, "user-1", TriggerManual); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if n := buffers.Count(ctx, "user-1"); n != 3 {
		t.Fatalf("Count() after below-min flush = %d, want 3", n)
	}
	if got := querySummaries(t, store, "user-1"); len(got) != 0 {
		t.Fatalf("summary was written for a below-min flush: %v", got)
	}
}

func TestFlushWritesSummaryAndClearsBuffer(t *testing.T) {
	buffers := newTestBuffers(t)
	store := newTestVectorStore(t)
	s := New(buffers, store, nil, Config{MinTurns: 5}, nil)
	ctx := context.Background()

	fillBuffer(t, buffers, "user-1", 6)
	if err := s.Flush(ctx, "user-1", TriggerManual); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	if turns := buffers.Read(ctx, "user-1"); len(turns) != 0 {
		t.Fatalf("Read() after flush returned %d turns, want 0", len(turns))
	}
	got := querySummaries(t, store, "user-1")
	if len(got) != 1 {
		t.Fatalf("expected one summary record, got %d", len(got))
	}
	if got[0].Kind != "chat_summary" {
		t.Fatalf("Kind = %q, want chat_summary", got[0].Kind)
	}
	if got[0].Extra["message_count"] != "6" {
		t.Fatalf("message_count = %q, want 6", got[0].Extra["message_count"])
	}
}

func TestFlushUsesModelCondensationWhenAvailable(t *testing.T) {
	buffers := newTestBuffers(t)
	store := newTestVectorStore(t)
	gen := &genai.MockCompleter{Reply: "Owner worried about a sick dog; advised a vet visit."}
	s := New(buffers, store, gen, Config{}, nil)
	ctx := context.Background()

	fillBuffer(t, buffers, "user-1", 6)
	if err := s.Flush(ctx, "user-1", TriggerManual); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	got := querySummaries(t, store, "user-1")
	if len(got) != 1 || got[0].Text != gen.Reply {
		t.Fatalf("summary text = %+v, want model reply", got)
	}
	if len(gen.Requests) != 1 || !strings.Contains(gen.Requests[0], "User: my dog seems sick") {
		t.Fatalf("model transcript = %v, want rendered turns", gen.Requests)
	}
}

func TestFlushFallsBackWhenModelFails(t *testing.T) {
	buffers := newTestBuffers(t)
	store := newTestVectorStore(t)
	gen := &genai.MockCompleter{Err: errors.New("model down")}
	s := New(buffers, store, gen, Config{}, nil)
	ctx := context.Background()

	fillBuffer(t, buffers, "user-1", 6)
	if err := s.Flush(ctx, "user-1", TriggerManual); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	got := querySummaries(t, store, "user-1")
	if len(got) != 1 {
		t.Fatalf("expected one summary record, got %d", len(got))
	}
	text := got[0].Text
	if !strings.Contains(text, "Health concerns discussed:") {
		t.Fatalf("fallback summary missing concerns section: %q", text)
	}
	if !strings.Contains(text, "Questions asked:") {
		t.Fatalf("fallback summary missing questions section: %q", text)
	}
	if !strings.Contains(text, "Total messages: 6") {
		t.Fatalf("fallback summary missing message count: %q", text)
	}
}

func TestFlushKeepsBufferWhenWriteFails(t *testing.T) {
	buffers := newTestBuffers(t)
	idx, err := vector.NewChromemIndex("")
	if err != nil {
		t.Fatalf("NewChromemIndex() error = %v", err)
	}
	store := vector.NewStore(idx, embed.NewFailingEmbedder(64), nil)
	s := New(buffers, store, nil, Config{}, nil)
	ctx := context.Background()

	fillBuffer(t, buffers, "user-1", 6)
	if err := s.Flush(ctx, "user-1", TriggerManual); err == nil {
		t.Fatalf("Flush() should report the failed vector write")
	}
	if n := buffers.Count(ctx, "user-1"); n != 6 {
		t.Fatalf("Count() after failed write = %d, buffer must stay intact", n)
	}
}

func TestFlushDeniedWhileClaimHeld(t *testing.T) {
	buffers := newTestBuffers(t)
	store := newTestVectorStore(t)
	s := New(buffers, store, nil, Config{}, nil)
	ctx := context.Background()

	fillBuffer(t, buffers, "user-1", 6)
	if !buffers.TryClaim(ctx, "user-1") {
		t.Fatalf("TryClaim() should succeed")
	}
	if err := s.Flush(ctx, "user-1", TriggerIdle); !errors.Is(err, ErrClaimHeld) {
		t.Fatalf("Flush() error = %v, want ErrClaimHeld", err)
	}
	if n := buffers.Count(ctx, "user-1"); n != 6 {
		t.Fatalf("Count() = %d, denied flush must not touch the buffer", n)
	}
}

func TestThresholdTriggerEndToEnd(t *testing.T) {
	buffers := newTestBuffers(t)
	store := newTestVectorStore(t)
	s := New(buffers, store, nil, Config{}, nil)
	ctx := context.Background()
	buffers.SetFlushHook(s.HookFor(ctx))

	fillBuffer(t, buffers, "user-1", 10)

	if turns := buffers.Read(ctx, "user-1"); len(turns) != 0 {
		t.Fatalf("Read() after threshold flush returned %d turns, want 0", len(turns))
	}
	got := querySummaries(t, store, "user-1")
	if len(got) != 1 {
		t.Fatalf("expected exactly one summary after 10 appends, got %d", len(got))
	}
	if got[0].Extra["message_count"] != "10" {
		t.Fatalf("message_count = %q, want 10", got[0].Extra["message_count"])
	}
}

func TestSweeperFlushesIdleSessions(t *testing.T) {
	buffers := newTestBuffers(t)
	store := newTestVectorStore(t)
	s := New(buffers, store, nil, Config{}, nil)
	sweeper := NewSweeper(s, buffers, time.Minute, time.Millisecond, nil)
	ctx := context.Background()

	fillBuffer(t, buffers, "idle-user", 6)
	time.Sleep(10 * time.Millisecond)

	sweeper.Sweep(ctx)

	if n := buffers.Count(ctx, "idle-user"); n != 0 {
		t.Fatalf("Count() after sweep = %d, want 0", n)
	}
	if got := querySummaries(t, store, "idle-user"); len(got) != 1 {
		t.Fatalf("expected one summary after idle sweep, got %d", len(got))
	}
}

func TestSweeperContinuesPastFailingUser(t *testing.T) {
	buffers := newTestBuffers(t)
	store := newTestVectorStore(t)
	s := New(buffers, store, nil, Config{}, nil)
	sweeper := NewSweeper(s, buffers, time.Minute, time.Millisecond, nil)
	ctx := context.Background()

	fillBuffer(t, buffers, "claimed-user", 6)
	fillBuffer(t, buffers, "other-user", 6)
	time.Sleep(10 * time.Millisecond)

	// A held claim makes the first user's flush fail; the sweep must still
	// process the second.
	if !buffers.TryClaim(ctx, "claimed-user") {
		t.Fatalf("TryClaim() should succeed")
	}
	sweeper.Sweep(ctx)

	if n := buffers.Count(ctx, "claimed-user"); n != 6 {
		t.Fatalf("claimed user buffer = %d turns, want untouched 6", n)
	}
	if n := buffers.Count(ctx, "other-user"); n != 0 {
		t.Fatalf("other user buffer = %d turns, want flushed 0", n)
	}
}
