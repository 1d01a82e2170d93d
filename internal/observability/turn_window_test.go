package observability

import (
	"testing"
	"time"
)

func TestTurnWindowSnapshotStats(t *testing.T) {
	w := NewTurnWindow(8)
	for _, ms := range []int{10, 20, 30, 40} {
		w.Observe(PhaseGenerateReply, time.Duration(ms)*time.Millisecond)
	}
	w.ObserveIndicator("generation_fallback")
	w.ObserveIndicator("generation_fallback")

	snap := w.Snapshot()
	if len(snap.Phases) != 1 {
		t.Fatalf("Snapshot() phases = %d, want 1", len(snap.Phases))
	}
	st := snap.Phases[0]
	if st.Phase != PhaseGenerateReply {
		t.Fatalf("phase = %q, want %q", st.Phase, PhaseGenerateReply)
	}
	if st.Samples != 4 {
		t.Fatalf("samples = %d, want 4", st.Samples)
	}
	if st.LastMS != 40 {
		t.Fatalf("last_ms = %v, want 40", st.LastMS)
	}
	if st.AvgMS != 25 {
		t.Fatalf("avg_ms = %v, want 25", st.AvgMS)
	}
	if st.TargetP95MS != 2500 {
		t.Fatalf("target_p95_ms = %v, want 2500", st.TargetP95MS)
	}

	if len(snap.Indicators) != 1 || snap.Indicators[0].Count != 2 {
		t.Fatalf("indicators = %+v, want one generation_fallback with count 2", snap.Indicators)
	}
}

func TestTurnWindowRingOverwrite(t *testing.T) {
	w := NewTurnWindow(4)
	for i := 1; i <= 6; i++ {
		w.Observe(PhaseTurnTotal, time.Duration(i)*time.Millisecond)
	}

	snap := w.Snapshot()
	if len(snap.Phases) != 1 {
		t.Fatalf("Snapshot() phases = %d, want 1", len(snap.Phases))
	}
	st := snap.Phases[0]
	if st.Samples != 4 {
		t.Fatalf("samples = %d, want window size 4", st.Samples)
	}
	// Oldest two samples (1ms, 2ms) fell out of the window.
	if st.AvgMS != 4.5 {
		t.Fatalf("avg_ms = %v, want 4.5", st.AvgMS)
	}
	if st.LastMS != 6 {
		t.Fatalf("last_ms = %v, want 6", st.LastMS)
	}
}

func TestTurnWindowNilSafe(t *testing.T) {
	var w *TurnWindow
	w.Observe(PhaseTurnTotal, time.Second)
	w.ObserveIndicator("generation_model")
	w.Reset()

	snap := w.Snapshot()
	if len(snap.Phases) != 0 || len(snap.Indicators) != 0 {
		t.Fatalf("nil window snapshot = %+v, want empty", snap)
	}
}
