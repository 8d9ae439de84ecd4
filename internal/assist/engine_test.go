package assist

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/wayfind/internal/store"
)

// shownRecorder is a MessageLog capturing reveal order.
type shownRecorder struct {
	mu      sync.Mutex
	entries []store.ShownMessage
}

func (r *shownRecorder) AppendMessage(_ context.Context, m store.ShownMessage) error {
	r.mu.Lock()
	r.entries = append(r.entries, m)
	r.mu.Unlock()
	return nil
}

func (r *shownRecorder) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, m := range r.entries {
		out = append(out, m.Text)
	}
	return out
}

func newTestEngine(t *testing.T, tick, pause time.Duration) (*Engine, *shownRecorder) {
	t.Helper()
	rec := &shownRecorder{}
	e := NewEngine(context.Background(), Options{
		TickInterval: tick,
		MessagePause: pause,
		MessageLog:   rec,
	})
	return e, rec
}

func waitIdle(t *testing.T, e *Engine) {
	t.Helper()
	require.Eventually(t, func() bool { return e.Idle() }, 10*time.Second, time.Millisecond)
}

func TestDrainOrderRespectsPriority(t *testing.T) {
	t.Parallel()

	e, rec := newTestEngine(t, 2*time.Millisecond, 5*time.Millisecond)
	require.NotEmpty(t, e.Enqueue("Hello", PriorityHigh, EnqueueOptions{}))
	require.NotEmpty(t, e.Enqueue("World", PriorityMedium, EnqueueOptions{}))
	require.NotEmpty(t, e.Enqueue("Urgent", PriorityImmediate, EnqueueOptions{}))

	waitIdle(t, e)
	require.Equal(t, []string{"Urgent", "Hello", "World"}, rec.texts())
}

func TestEmptyAndWhitespaceTextDropped(t *testing.T) {
	t.Parallel()

	e, rec := newTestEngine(t, time.Millisecond, time.Millisecond)
	require.Empty(t, e.Enqueue("", PriorityHigh, EnqueueOptions{}))
	require.Empty(t, e.Enqueue("   \t\n", PriorityHigh, EnqueueOptions{}))
	require.Zero(t, e.Pending())
	require.True(t, e.Idle())
	require.Empty(t, rec.texts())
}

func TestDuplicatePendingTextIsNoop(t *testing.T) {
	t.Parallel()

	// Long kick delay keeps both enqueues pending.
	e, _ := newTestEngine(t, 100*time.Millisecond, time.Millisecond)
	require.NotEmpty(t, e.Enqueue("Same text", PriorityMedium, EnqueueOptions{}))
	require.Empty(t, e.Enqueue("Same text", PriorityHigh, EnqueueOptions{}))
	require.Equal(t, 1, e.Pending())
}

func TestClearKeepsHighPriorityInOrder(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, 200*time.Millisecond, time.Millisecond)
	e.Enqueue("low", PriorityLow, EnqueueOptions{})
	e.Enqueue("high-1", PriorityHigh, EnqueueOptions{})
	e.Enqueue("medium", PriorityMedium, EnqueueOptions{})
	e.Enqueue("high-2", PriorityHigh, EnqueueOptions{})

	e.Clear(ClearOptions{PreserveHigh: true})

	e.mu.Lock()
	got := texts(&e.q)
	e.mu.Unlock()
	require.Equal(t, []string{"high-1", "high-2"}, got)
}

func TestClearNotifiesDroppedMessages(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, 200*time.Millisecond, time.Millisecond)
	var mu sync.Mutex
	var results []bool
	e.Enqueue("doomed", PriorityLow, EnqueueOptions{OnDone: func(completed bool) {
		mu.Lock()
		results = append(results, completed)
		mu.Unlock()
	}})
	e.Clear(ClearOptions{})

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []bool{false}, results)
}

func TestImmediateDoesNotPreemptActiveReveal(t *testing.T) {
	t.Parallel()

	e, rec := newTestEngine(t, 5*time.Millisecond, time.Millisecond)
	e.Enqueue("a long first message streaming slowly", PriorityLow, EnqueueOptions{})

	require.Eventually(t, func() bool {
		v := e.View()
		return v.IsTyping && len(v.CurrentText) > 2
	}, 5*time.Second, time.Millisecond)

	e.Enqueue("Now", PriorityImmediate, EnqueueOptions{})

	// The active reveal keeps going; the immediate message waits.
	v := e.View()
	require.True(t, strings.HasPrefix("a long first message streaming slowly", v.CurrentText))

	waitIdle(t, e)
	require.Equal(t, []string{"a long first message streaming slowly", "Now"}, rec.texts())
}

func TestInterruptAndShowResumesInFlightMessage(t *testing.T) {
	t.Parallel()

	const original = "walking you through the long version"
	e, rec := newTestEngine(t, 5*time.Millisecond, time.Millisecond)

	var mu sync.Mutex
	var views []View
	e.OnChange(func(v View) {
		mu.Lock()
		views = append(views, v)
		mu.Unlock()
	})

	e.Enqueue(original, PriorityMedium, EnqueueOptions{})
	require.Eventually(t, func() bool {
		return len(e.View().CurrentText) >= 4
	}, 5*time.Second, time.Millisecond)

	offset := len(e.View().CurrentText)
	e.InterruptAndShow("Pick a spot first.")

	waitIdle(t, e)
	require.Equal(t, original, e.View().CurrentText)
	require.Equal(t, []string{original, "Pick a spot first.", original}, rec.texts())

	// The re-placed message resumed: no view of it ever restarted below
	// the offset captured at interrupt time.
	mu.Lock()
	defer mu.Unlock()
	sawInterrupt := false
	for _, v := range views {
		if strings.HasPrefix("Pick a spot first.", v.CurrentText) && v.CurrentText != "" {
			sawInterrupt = true
			continue
		}
		if sawInterrupt && strings.HasPrefix(original, v.CurrentText) && v.CurrentText != "" {
			require.GreaterOrEqual(t, len(v.CurrentText), offset)
		}
	}
	require.True(t, sawInterrupt)
}

func TestCancelLeavesEngineReady(t *testing.T) {
	t.Parallel()

	e, rec := newTestEngine(t, 5*time.Millisecond, time.Millisecond)
	e.Enqueue("a message that will be cancelled midway", PriorityMedium, EnqueueOptions{})
	require.Eventually(t, func() bool { return e.View().IsTyping }, 5*time.Second, time.Millisecond)

	e.Cancel()
	require.False(t, e.View().IsTyping)
	frozen := e.View().CurrentText
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, frozen, e.View().CurrentText)

	e.Enqueue("fresh start", PriorityMedium, EnqueueOptions{})
	waitIdle(t, e)
	require.Equal(t, "fresh start", e.View().CurrentText)
	require.Equal(t, []string{"a message that will be cancelled midway", "fresh start"}, rec.texts())
}

func TestAutoDismissHidesAfterIdleDelay(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, time.Millisecond, time.Millisecond)
	d := NewDismissManager(30*time.Millisecond, e.Idle, e.Hide)
	e.SetDismiss(d)

	e.Enqueue("hi", PriorityMedium, EnqueueOptions{})
	waitIdle(t, e)
	require.True(t, e.View().Visible)

	require.Eventually(t, func() bool { return !e.View().Visible }, 5*time.Second, time.Millisecond)
}

func TestActivityCancelsPendingDismiss(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, time.Millisecond, time.Millisecond)
	d := NewDismissManager(60*time.Millisecond, e.Idle, e.Hide)
	e.SetDismiss(d)

	e.Enqueue("hi", PriorityMedium, EnqueueOptions{})
	waitIdle(t, e)
	require.True(t, d.Pending())

	// new activity before the delay elapses cancels the first idle
	// period's timer; the surface stays visible until the second idle
	// period runs its own full delay
	e.Enqueue("more", PriorityMedium, EnqueueOptions{})
	waitIdle(t, e)
	time.Sleep(20 * time.Millisecond)
	require.True(t, e.View().Visible)

	require.Eventually(t, func() bool { return !e.View().Visible }, 5*time.Second, time.Millisecond)
}
