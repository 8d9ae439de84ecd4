// Package assist implements the assistant messaging engine: a priority
// queue drained one message at a time into a simulated text reveal, fed
// by coordinators listening on the event bus.
package assist

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jask/wayfind/internal/store"
)

// engineState is the scheduler's single source of truth. No other flags
// encode whether the engine is busy.
//
// Transitions:
//
//	Idle      -> Streaming  on enqueue into an empty engine, or interrupt
//	Streaming -> Paused     on natural completion with work pending
//	Streaming -> Idle       on natural completion with an empty queue,
//	                        or cancel with an empty queue
//	Streaming -> Paused     on cancel with work pending
//	Paused    -> Streaming  when the inter-message pause elapses
//	Paused    -> Idle       when the pause elapses over an empty queue
type engineState int

const (
	stateIdle engineState = iota
	stateStreaming
	statePaused
)

// View is the read model the presentation layer renders. It carries no
// behavior; the surface must not add any.
type View struct {
	CurrentText string
	IsTyping    bool
	Visible     bool
}

// MessageLog records messages as their reveal starts. Failures are logged
// and otherwise ignored.
type MessageLog interface {
	AppendMessage(ctx context.Context, m store.ShownMessage) error
}

// Options configures an Engine.
type Options struct {
	TickInterval time.Duration
	MessagePause time.Duration
	// Log receives engine diagnostics. Zero value is usable.
	Log zerolog.Logger
	// MessageLog, when set, receives every revealed message.
	MessageLog MessageLog
}

// Engine owns the message queue and the streaming coordinator. Enqueue
// and Clear are the queue's only writer paths; nothing else may touch it.
type Engine struct {
	mu           sync.Mutex
	q            queue
	state        engineState
	active       *Message // queue message mid-reveal, nil otherwise
	interrupting bool     // current reveal came from InterruptAndShow
	seq          uint64
	pause        time.Duration
	kickDelay    time.Duration
	pauseTimer   *time.Timer
	timerGen     uint64

	visible atomic.Bool

	hookMu   sync.Mutex
	onChange func(View)

	streamer *Streamer
	log      zerolog.Logger
	msgLog   MessageLog
	ctx      context.Context
	dismiss  *DismissManager
}

func NewEngine(ctx context.Context, opts Options) *Engine {
	if opts.TickInterval <= 0 {
		opts.TickInterval = 35 * time.Millisecond
	}
	if opts.MessagePause <= 0 {
		opts.MessagePause = 300 * time.Millisecond
	}
	e := &Engine{
		pause:     opts.MessagePause,
		kickDelay: opts.TickInterval,
		log:       opts.Log,
		msgLog:    opts.MessageLog,
		ctx:       ctx,
	}
	e.streamer = NewStreamer(opts.TickInterval, func(string, bool) { e.notify() })
	return e
}

// OnChange registers the render notification hook. The hook runs outside
// engine locks and must not call back into Enqueue or Clear.
func (e *Engine) OnChange(fn func(View)) {
	e.hookMu.Lock()
	e.onChange = fn
	e.hookMu.Unlock()
}

// SetDismiss wires the auto-dismiss manager.
func (e *Engine) SetDismiss(d *DismissManager) {
	e.mu.Lock()
	e.dismiss = d
	e.mu.Unlock()
}

// View returns a snapshot of the render model.
func (e *Engine) View() View {
	text, typing := e.streamer.Snapshot()
	return View{CurrentText: text, IsTyping: typing, Visible: e.visible.Load()}
}

// Pending returns the number of queued (not yet revealing) messages.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.q.len()
}

// Idle reports whether the queue is drained and nothing is revealing.
func (e *Engine) Idle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == stateIdle
}

// Enqueue adds a message. Empty or whitespace-only text is dropped, as is
// text identical to an already-pending entry. Returns the queued message
// id, or "" when the message was dropped.
func (e *Engine) Enqueue(text string, p Priority, opts EnqueueOptions) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	e.mu.Lock()
	if e.q.hasText(text) {
		e.mu.Unlock()
		return ""
	}
	e.seq++
	m := Message{
		ID:                uuid.NewString(),
		Text:              text,
		Emoji:             opts.Emoji,
		Priority:          p,
		EnqueuedAt:        time.Now(),
		Source:            opts.Source,
		SurviveOnReselect: opts.SurviveOnReselect,
		seq:               e.seq,
		onDone:            opts.OnDone,
	}
	e.q.insert(m)
	e.visible.Store(true)
	if e.state == stateIdle {
		// Waking the scheduler is deferred by one tick so a synchronous
		// burst of enqueues is fully ordered before the head is popped;
		// an Immediate arriving in the same burst still drains first.
		e.scheduleStartLocked(e.kickDelay)
	}
	id := m.ID
	dismiss := e.dismiss
	e.mu.Unlock()

	if dismiss != nil {
		dismiss.Activity()
	}
	e.notify()
	e.log.Debug().Str("id", id).Str("priority", p.String()).Msg("message enqueued")
	return id
}

// Clear purges pending messages per opts. The message currently
// mid-reveal is never part of the purgeable set: its reveal continues
// uninterrupted, which is how "never jumps mid-reveal" is kept.
func (e *Engine) Clear(opts ClearOptions) {
	e.mu.Lock()
	dropped := e.q.clear(opts)
	e.mu.Unlock()

	for _, m := range dropped {
		if m.onDone != nil {
			m.onDone(false)
		}
	}
	if len(dropped) > 0 {
		e.log.Debug().Int("dropped", len(dropped)).Msg("queue cleared")
	}
}

// InterruptAndShow is the one sanctioned bypass of the queue, reserved
// for blocking prompts. It cancels the active reveal, purges nothing, and
// starts revealing text immediately. A queue message that was mid-reveal
// is re-placed at the head with its revealed offset kept, so it resumes
// rather than restarts once the interrupt finishes.
func (e *Engine) InterruptAndShow(text string) {
	msg := Message{ID: uuid.NewString(), Text: text, Priority: PriorityImmediate, Source: "interrupt"}

	e.mu.Lock()
	e.invalidateTimersLocked()
	if e.active != nil {
		resumed := *e.active
		resumed.revealedOffset = e.streamer.RevealedLen()
		e.q.pushFront(resumed)
		e.active = nil
	}
	e.interrupting = true
	e.state = stateStreaming
	e.visible.Store(true)
	e.recordShown(msg)
	e.streamer.StartAt(text, 0, func(o Outcome) { e.interruptDone(o) })
	dismiss := e.dismiss
	e.mu.Unlock()

	if dismiss != nil {
		dismiss.Activity()
	}
	e.log.Info().Str("text", text).Msg("interrupt shown")
}

// Cancel ends the active reveal without completing it and leaves the
// engine ready for new work. The cancelled message is not re-queued; the
// revealed text stays on the surface but stops mutating.
func (e *Engine) Cancel() {
	e.mu.Lock()
	e.invalidateTimersLocked()
	cancelled := e.active
	e.active = nil
	e.interrupting = false
	e.streamer.Cancel()
	if e.q.len() > 0 {
		e.schedulePauseLocked()
	} else {
		e.toIdleLocked()
	}
	e.mu.Unlock()

	if cancelled != nil && cancelled.onDone != nil {
		cancelled.onDone(false)
	}
}

// Touch records user activity that produces no message, resetting the
// auto-dismiss timer.
func (e *Engine) Touch() {
	e.mu.Lock()
	dismiss := e.dismiss
	e.mu.Unlock()
	if dismiss != nil {
		dismiss.Activity()
	}
}

// Hide is invoked by the auto-dismiss manager once the idle delay passes.
// Idleness is rechecked, not assumed.
func (e *Engine) Hide() {
	e.mu.Lock()
	if e.state != stateIdle {
		e.mu.Unlock()
		return
	}
	e.visible.Store(false)
	e.mu.Unlock()
	e.notify()
	e.log.Debug().Msg("surface hidden")
}

// activeSource reports the source of the message currently mid-reveal.
func (e *Engine) activeSource() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return ""
	}
	return string(e.active.Source)
}

// clearSource retracts pending messages attributed to source.
func (e *Engine) clearSource(source string) {
	e.mu.Lock()
	dropped := e.q.removeBySource(source)
	e.mu.Unlock()
	for _, m := range dropped {
		if m.onDone != nil {
			m.onDone(false)
		}
	}
}

// invalidateTimersLocked makes any pending pause timer a no-op. Caller
// holds e.mu.
func (e *Engine) invalidateTimersLocked() {
	e.timerGen++
	if e.pauseTimer != nil {
		e.pauseTimer.Stop()
		e.pauseTimer = nil
	}
}

// startNextLocked pops the head and hands it to the streamer. Caller
// holds e.mu. Safe because the streamer reports cancellations without
// re-entering the engine and its change hook takes no engine locks.
func (e *Engine) startNextLocked() {
	head, ok := e.q.popHead()
	if !ok {
		e.toIdleLocked()
		return
	}
	e.state = stateStreaming
	e.active = &head
	e.recordShown(head)
	msg := head
	e.streamer.StartAt(msg.display(), msg.revealedOffset, func(o Outcome) {
		e.messageDone(msg, o)
	})
}

func (m Message) display() string {
	if m.Emoji == "" {
		return m.Text
	}
	return m.Emoji + " " + m.Text
}

func (e *Engine) messageDone(m Message, o Outcome) {
	if o != OutcomeCompleted {
		// Cancelled reveals never advance the queue; whoever cancelled
		// already decided what happens next.
		return
	}

	e.mu.Lock()
	if e.active == nil || e.active.ID != m.ID {
		// Stale completion from a session the engine already moved past.
		e.mu.Unlock()
		return
	}
	e.active = nil
	if e.q.len() > 0 {
		e.schedulePauseLocked()
	} else {
		e.toIdleLocked()
	}
	e.mu.Unlock()

	if m.onDone != nil {
		m.onDone(true)
	}
}

func (e *Engine) interruptDone(o Outcome) {
	if o != OutcomeCompleted {
		return
	}
	e.mu.Lock()
	if !e.interrupting {
		e.mu.Unlock()
		return
	}
	e.interrupting = false
	if e.q.len() > 0 {
		e.schedulePauseLocked()
	} else {
		e.toIdleLocked()
	}
	e.mu.Unlock()
}

// schedulePauseLocked arms the inter-message pause. Caller holds e.mu.
func (e *Engine) schedulePauseLocked() {
	e.scheduleStartLocked(e.pause)
}

// scheduleStartLocked parks the scheduler in Paused and arms a timer that
// pops the head after d. Caller holds e.mu.
func (e *Engine) scheduleStartLocked(d time.Duration) {
	e.state = statePaused
	e.timerGen++
	gen := e.timerGen
	e.pauseTimer = time.AfterFunc(d, func() {
		e.mu.Lock()
		if gen != e.timerGen || e.state != statePaused {
			e.mu.Unlock()
			return
		}
		e.pauseTimer = nil
		e.startNextLocked()
		e.mu.Unlock()
	})
}

// toIdleLocked transitions to idle and arms auto-dismiss. Caller holds e.mu.
func (e *Engine) toIdleLocked() {
	e.state = stateIdle
	if e.dismiss != nil {
		e.dismiss.Idle()
	}
}

func (e *Engine) notify() {
	e.hookMu.Lock()
	fn := e.onChange
	e.hookMu.Unlock()
	if fn != nil {
		fn(e.View())
	}
}

func (e *Engine) recordShown(m Message) {
	if e.msgLog == nil {
		return
	}
	err := e.msgLog.AppendMessage(e.ctx, store.ShownMessage{
		ID:       m.ID,
		Text:     m.Text,
		Priority: int(m.Priority),
		Source:   string(m.Source),
		ShownAt:  time.Now().UTC(),
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("message log append failed")
	}
}
