package assist

import (
	"sync"
	"time"
)

// Outcome reports how a streaming session ended.
type Outcome int

const (
	// OutcomeCompleted means the full text was revealed.
	OutcomeCompleted Outcome = iota
	// OutcomeCancelled means Cancel ended the session early.
	OutcomeCancelled
)

// Streamer turns one message's text into a simulated character-by-character
// reveal. At most one session is active at a time; Start on an active
// streamer cancels the previous session first.
//
// Every session's end is reported through the done callback passed to
// Start, with OutcomeCompleted only on a natural finish. Cancel is
// synchronous: once it returns, no timer is pending, the revealed text
// will not change again, and the streamer is ready for a new Start.
type Streamer struct {
	mu       sync.Mutex
	tick     time.Duration
	text     []rune
	revealed int
	typing   bool
	gen      uint64
	timer    *time.Timer
	done     func(Outcome)
	onChange func(text string, typing bool)
}

// NewStreamer builds a streamer revealing one character per tick.
// onChange fires after every visible change, outside the streamer's lock.
func NewStreamer(tick time.Duration, onChange func(text string, typing bool)) *Streamer {
	if onChange == nil {
		onChange = func(string, bool) {}
	}
	return &Streamer{tick: tick, onChange: onChange}
}

// Start begins revealing text from the first character.
func (s *Streamer) Start(text string, done func(Outcome)) {
	s.StartAt(text, 0, done)
}

// StartAt begins revealing text with offset characters already visible.
// A mid-stream message re-placed on the queue resumes through here so the
// surface never flickers back to an empty reveal.
func (s *Streamer) StartAt(text string, offset int, done func(Outcome)) {
	if done == nil {
		done = func(Outcome) {}
	}

	s.mu.Lock()
	prevDone := s.cancelLocked()
	runes := []rune(text)
	if offset < 0 {
		offset = 0
	}
	if offset > len(runes) {
		offset = len(runes)
	}
	s.text = runes
	s.revealed = offset
	s.typing = true
	s.done = done
	gen := s.gen
	s.timer = time.AfterFunc(s.tick, func() { s.step(gen) })
	visible := string(runes[:offset])
	s.mu.Unlock()

	if prevDone != nil {
		prevDone(OutcomeCancelled)
	}
	s.onChange(visible, true)
}

func (s *Streamer) step(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.typing {
		s.mu.Unlock()
		return
	}
	if s.revealed < len(s.text) {
		s.revealed++
	}
	finished := s.revealed >= len(s.text)
	var done func(Outcome)
	if finished {
		s.typing = false
		s.timer = nil
		done = s.done
		s.done = nil
	} else {
		s.timer = time.AfterFunc(s.tick, func() { s.step(gen) })
	}
	visible := string(s.text[:s.revealed])
	typing := s.typing
	s.mu.Unlock()

	s.onChange(visible, typing)
	if done != nil {
		done(OutcomeCompleted)
	}
}

// Cancel ends the active session, if any, without completing it. The
// session's done callback receives OutcomeCancelled before Cancel returns.
func (s *Streamer) Cancel() {
	s.mu.Lock()
	done := s.cancelLocked()
	visible := string(s.text[:s.revealed])
	s.mu.Unlock()

	if done != nil {
		done(OutcomeCancelled)
		s.onChange(visible, false)
	}
}

// cancelLocked invalidates pending timers and returns the interrupted
// session's done callback, or nil when idle.
func (s *Streamer) cancelLocked() func(Outcome) {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if !s.typing {
		return nil
	}
	s.typing = false
	done := s.done
	s.done = nil
	return done
}

// Snapshot returns the currently revealed text and whether a reveal is in
// progress.
func (s *Streamer) Snapshot() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.text[:s.revealed]), s.typing
}

// RevealedLen returns how many characters the active session has shown.
func (s *Streamer) RevealedLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealed
}
