package assist

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jask/wayfind/internal/bus"
	"github.com/jask/wayfind/internal/events"
)

// sourceWelcome tags queue entries belonging to the first-run greeting so
// a skip can retract the unspoken lines.
const sourceWelcome = "welcome"

// FlagStore persists the single welcome-seen boolean.
type FlagStore interface {
	WelcomeSeen(ctx context.Context) (bool, error)
	SetWelcomeSeen(ctx context.Context) error
}

// WelcomeState tracks the first-run greeting flow. Completed and Skipped
// are both terminal and equivalent for future sessions.
type WelcomeState int

const (
	WelcomeNotChecked WelcomeState = iota
	WelcomeActive
	WelcomeCompleted
	WelcomeSkipped
)

// Welcome runs the first-run greeting. Any user-initiated event arriving
// while the greeting is active skips it: the in-flight line is cancelled
// directly (not through the queue), the flag is persisted once, and the
// triggering action's own message proceeds normally.
type Welcome struct {
	mu            sync.Mutex
	state         WelcomeState
	skipRequested bool
	remaining     int
	ctx           context.Context

	engine *Engine
	flags  FlagStore
	script []string
	log    zerolog.Logger
}

func NewWelcome(engine *Engine, flags FlagStore, assistantName string, log zerolog.Logger) *Welcome {
	return &Welcome{
		engine: engine,
		flags:  flags,
		log:    log,
		script: []string{
			fmt.Sprintf("Hey! I'm %s, your guide around here.", assistantName),
			"Tap a marker and I'll tell you about the place.",
			"I'll keep quiet when you're busy. Promise.",
		},
	}
}

// Attach subscribes the skip trigger to every user-initiated event type.
func (w *Welcome) Attach(b *bus.Bus) {
	for _, t := range []events.Type{events.ActionPressed, events.SelectItem, events.OpenView} {
		b.Subscribe(t, func(any) { w.Skip() })
	}
}

// Start reads the persisted flag and either begins the greeting or goes
// straight to Skipped for a returning user. A read failure is treated as
// "not yet seen"; over-showing beats never showing.
func (w *Welcome) Start(ctx context.Context) {
	w.mu.Lock()
	if w.state != WelcomeNotChecked {
		w.mu.Unlock()
		return
	}
	w.ctx = ctx
	w.mu.Unlock()

	seen, err := w.flags.WelcomeSeen(ctx)
	if err != nil {
		w.log.Warn().Err(err).Msg("welcome flag read failed, assuming first run")
		seen = false
	}

	w.mu.Lock()
	if seen {
		w.state = WelcomeSkipped
		w.mu.Unlock()
		return
	}
	w.state = WelcomeActive
	w.remaining = len(w.script)
	lines := w.script
	w.mu.Unlock()

	for _, line := range lines {
		w.engine.Enqueue(line, PriorityMedium, EnqueueOptions{
			Source: sourceWelcome,
			OnDone: w.lineDone,
		})
	}
}

// Skip is idempotent: the latch guards against the transition being taken
// twice when several user events land while the greeting is active.
func (w *Welcome) Skip() {
	w.mu.Lock()
	if w.state != WelcomeActive || w.skipRequested {
		w.mu.Unlock()
		return
	}
	w.skipRequested = true
	w.state = WelcomeSkipped
	ctx := w.ctx
	w.mu.Unlock()

	// Retract unspoken lines before cancelling, so the scheduler cannot
	// slip the next greeting line in between the two steps.
	w.engine.clearSource(sourceWelcome)
	if w.engine.activeSource() == sourceWelcome {
		w.engine.Cancel()
	}
	w.persist(ctx)
	w.log.Debug().Msg("welcome skipped")
}

// State returns the current flow state.
func (w *Welcome) State() WelcomeState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Welcome) lineDone(completed bool) {
	if !completed {
		// Cancelled or retracted line; Skip owns the bookkeeping.
		return
	}
	w.mu.Lock()
	if w.state != WelcomeActive {
		w.mu.Unlock()
		return
	}
	w.remaining--
	finished := w.remaining == 0
	if finished {
		w.state = WelcomeCompleted
	}
	ctx := w.ctx
	w.mu.Unlock()

	if finished {
		w.persist(ctx)
		w.log.Debug().Msg("welcome completed")
	}
}

func (w *Welcome) persist(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := w.flags.SetWelcomeSeen(ctx); err != nil {
		w.log.Warn().Err(err).Msg("welcome flag write failed")
	}
}
