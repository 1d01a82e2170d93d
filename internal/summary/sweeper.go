package summary

import (
	"context"
	"time"

	"github.com/marshee-ai/marshee/internal/buffer"
	"github.com/marshee-ai/marshee/internal/observability"
)

// Sweeper periodically flushes sessions that have gone idle, so buffers are
// summarized even when the user never sends another message.
type Sweeper struct {
	summarizer *Summarizer
	buffers    *buffer.Service
	interval   time.Duration
	idleAfter  time.Duration
	metrics    *observability.Metrics
}

func NewSweeper(summarizer *Summarizer, buffers *buffer.Service, interval, idleAfter time.Duration, metrics *observability.Metrics) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if idleAfter <= 0 {
		idleAfter = 3 * time.Minute
	}
	return &Sweeper{
		summarizer: summarizer,
		buffers:    buffers,
		interval:   interval,
		idleAfter:  idleAfter,
		metrics:    metrics,
	}
}

// Start launches the sweep loop. It stops when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Sweep flushes every idle session once. A failure for one user never aborts
// the rest of the sweep.
func (s *Sweeper) Sweep(ctx context.Context) {
	if s.metrics != nil {
		// All activity markers, idle or not; both expire with the buffer TTL.
		s.metrics.ActiveBuffers.Set(float64(len(s.buffers.IdleUsers(ctx, 0))))
	}
	for _, userID := range s.buffers.IdleUsers(ctx, s.idleAfter) {
		_ = s.summarizer.Flush(ctx, userID, TriggerIdle)
	}
}
