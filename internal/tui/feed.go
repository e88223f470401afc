package tui

import (
	"context"
	"sync"

	"github.com/p0l0/xknx/internal/monitor"
)

// DefaultFeedSize is the number of recent frames kept for display.
const DefaultFeedSize = 200

// Feed keeps the most recent frame summaries. It is a monitor.Sink so the
// pipeline can write into it while the TUI reads.
type Feed struct {
	mu     sync.Mutex
	frames []monitor.FrameSummary
	next   int
	full   bool
	total  uint64
}

// NewFeed creates a feed holding up to size frames.
func NewFeed(size int) *Feed {
	if size < 1 {
		size = DefaultFeedSize
	}
	return &Feed{frames: make([]monitor.FrameSummary, size)}
}

// Name implements monitor.Sink.
func (*Feed) Name() string { return "tui" }

// HandleEvent implements monitor.Sink.
func (f *Feed) HandleEvent(_ context.Context, ev monitor.Event) error {
	f.Add(monitor.Summarize(ev))
	return nil
}

// Add appends a summary, overwriting the oldest once full.
func (f *Feed) Add(s monitor.FrameSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.frames[f.next] = s
	f.next = (f.next + 1) % len(f.frames)
	if f.next == 0 {
		f.full = true
	}
	f.total++
}

// Recent returns up to n frames, newest first.
func (f *Feed) Recent(n int) []monitor.FrameSummary {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := f.next
	if f.full {
		count = len(f.frames)
	}
	n = min(n, count)

	out := make([]monitor.FrameSummary, 0, n)
	for i := 1; i <= n; i++ {
		idx := (f.next - i + len(f.frames)) % len(f.frames)
		out = append(out, f.frames[idx])
	}
	return out
}

// Total returns the number of frames ever added.
func (f *Feed) Total() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

// Clear drops all kept frames. Total is unchanged.
func (f *Feed) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.frames)
	f.next = 0
	f.full = false
}
