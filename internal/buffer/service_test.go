package buffer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

// downStore simulates an unreachable ephemeral backend.
type downStore struct{}

var errDown = errors.New("backend unreachable")

func (downStore) Append(context.Context, string, Turn) (int, error) { return 0, errDown }
func (downStore) Read(context.Context, string) ([]Turn, error)      { return nil, errDown }
func (downStore) Count(context.Context, string) (int, error)        { return 0, errDown }
func (downStore) Clear(context.Context, string) error               { return errDown }
func (downStore) IdleUsers(context.Context, time.Duration) ([]string, error) {
	return nil, errDown
}
func (downStore) AcquireClaim(context.Context, string, time.Duration) (bool, error) {
	return false, errDown
}
func (downStore) ReleaseClaim(context.Context, string) error { return errDown }
func (downStore) Ready() bool                                { return false }
func (downStore) Close() error                               { return nil }

func newTestService(t *testing.T, store Store) *Service {
	t.Helper()
	return NewService(store, ServiceConfig{
		OpTimeout:      time.Second,
		MaxTurnChars:   2000,
		FlushThreshold: 10,
		ClaimTTL:       30 * time.Second,
	}, nil)
}

func TestServiceAppendPreservesChronologicalOrder(t *testing.T) {
	svc := newTestService(t, NewInMemoryStore(time.Hour))
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		if n := svc.Append(ctx, "user-1", text, "reply to "+text); n == 0 {
			t.Fatalf("Append(%q) returned 0", text)
		}
	}

	turns := svc.Read(ctx, "user-1")
	if len(turns) != 3 {
		t.Fatalf("Read() returned %d turns, want 3", len(turns))
	}
	for i, want := range []string{"one", "two", "three"} {
		if turns[i].UserText != want {
			t.Fatalf("turns[%d].UserText = %q, want %q", i, turns[i].UserText, want)
		}
	}
}

func TestServiceAppendTruncatesLongSides(t *testing.T) {
	svc := NewService(NewInMemoryStore(time.Hour), ServiceConfig{
		MaxTurnChars:   100,
		FlushThreshold: 10,
	}, nil)
	ctx := context.Background()

	long := strings.Repeat("x", 500)
	if n := svc.Append(ctx, "user-1", long, long); n != 1 {
		t.Fatalf("Append() = %d, want 1", n)
	}
	turns := svc.Read(ctx, "user-1")
	if len(turns[0].UserText) != 100 || len(turns[0].AssistantText) != 100 {
		t.Fatalf("sides = %d/%d chars, want 100/100",
			len(turns[0].UserText), len(turns[0].AssistantText))
	}
}

func TestServiceTruncateKeepsUTF8Valid(t *testing.T) {
	svc := NewService(NewInMemoryStore(time.Hour), ServiceConfig{
		MaxTurnChars:   10,
		FlushThreshold: 100,
	}, nil)
	ctx := context.Background()

	// Each rune is 3 bytes, so a 10-byte cap falls mid-rune.
	long := strings.Repeat("犬", 8)
	if n := svc.Append(ctx, "user-1", long, "ok"); n != 1 {
		t.Fatalf("Append() = %d, want 1", n)
	}
	turns := svc.Read(ctx, "user-1")
	got := turns[0].UserText
	if !utf8.ValidString(got) {
		t.Fatalf("UserText = %q is not valid UTF-8", got)
	}
	if got != strings.Repeat("犬", 3) {
		t.Fatalf("UserText = %q, want three whole runes", got)
	}
}

func TestServiceAppendRejectsInvalidInput(t *testing.T) {
	svc := newTestService(t, NewInMemoryStore(time.Hour))
	ctx := context.Background()

	if n := svc.Append(ctx, "ab", "hello", "hi"); n != 0 {
		t.Fatalf("Append() with short user ID = %d, want 0", n)
	}
	if n := svc.Append(ctx, "user-1", "", "hi"); n != 0 {
		t.Fatalf("Append() with empty user text = %d, want 0", n)
	}
	if n := svc.Count(ctx, "user-1"); n != 0 {
		t.Fatalf("Count() = %d, want 0 after rejected appends", n)
	}
}

func TestServiceFlushHookFiresOnceAtThreshold(t *testing.T) {
	store := NewInMemoryStore(time.Hour)
	svc := newTestService(t, store)
	ctx := context.Background()

	var fired []int
	svc.SetFlushHook(func(userID string) {
		n := svc.Count(ctx, userID)
		fired = append(fired, n)
		// The summarizer clears the buffer after a successful flush.
		svc.Clear(ctx, userID)
	})

	for i := 0; i < 10; i++ {
		svc.Append(ctx, "user-1", "message", "reply")
	}

	if len(fired) != 1 {
		t.Fatalf("flush hook fired %d times over 10 appends, want 1", len(fired))
	}
	if fired[0] != 10 {
		t.Fatalf("flush hook saw %d turns, want 10", fired[0])
	}
	if turns := svc.Read(ctx, "user-1"); len(turns) != 0 {
		t.Fatalf("Read() after flush returned %d turns, want 0", len(turns))
	}
}

func TestServiceHookFailureDoesNotFailAppend(t *testing.T) {
	svc := newTestService(t, NewInMemoryStore(time.Hour))
	ctx := context.Background()

	svc.SetFlushHook(func(string) {
		// A hook that does nothing models a failed summarization: the
		// buffer keeps growing and the trigger fires again next append.
	})

	for i := 0; i < 11; i++ {
		if n := svc.Append(ctx, "user-1", "message", "reply"); n != i+1 {
			t.Fatalf("Append() #%d = %d, want %d", i+1, n, i+1)
		}
	}
}

func TestServiceDegradesWhenBackendDown(t *testing.T) {
	svc := newTestService(t, downStore{})
	ctx := context.Background()

	if n := svc.Append(ctx, "user-1", "hello", "hi"); n != 0 {
		t.Fatalf("Append() on down backend = %d, want 0", n)
	}
	if turns := svc.Read(ctx, "user-1"); turns != nil {
		t.Fatalf("Read() on down backend = %v, want nil", turns)
	}
	if n := svc.Count(ctx, "user-1"); n != 0 {
		t.Fatalf("Count() on down backend = %d, want 0", n)
	}
	if svc.Clear(ctx, "user-1") {
		t.Fatalf("Clear() on down backend should report failure")
	}
	if svc.TryClaim(ctx, "user-1") {
		t.Fatalf("TryClaim() on down backend should be denied")
	}
	if svc.Ready() {
		t.Fatalf("Ready() on down backend should be false")
	}
}
