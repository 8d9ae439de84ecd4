package assist

import (
	"time"

	"github.com/jask/wayfind/internal/events"
)

// Priority orders pending messages. Higher values drain first; arrival
// order breaks ties.
type Priority int

const (
	PriorityBackground Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityCritical
	PriorityImmediate
)

func (p Priority) String() string {
	switch p {
	case PriorityBackground:
		return "background"
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	case PriorityImmediate:
		return "immediate"
	default:
		return "unknown"
	}
}

// Message is one pending assistant utterance.
type Message struct {
	ID                string
	Text              string
	Emoji             string
	Priority          Priority
	EnqueuedAt        time.Time
	Source            events.Type
	SurviveOnReselect bool

	// seq is the arrival order, assigned on enqueue. Timestamps from
	// back-to-back enqueues can collide; seq cannot.
	seq uint64
	// revealedOffset is non-zero only when a mid-stream message was
	// re-placed at the head by Clear; the reveal resumes from here.
	revealedOffset int
	// onDone, when set, is called once the message's reveal ends.
	// completed is false when the reveal was cancelled.
	onDone func(completed bool)
}

// EnqueueOptions carries the optional attributes of a message.
type EnqueueOptions struct {
	Emoji             string
	Source            events.Type
	SurviveOnReselect bool
	OnDone            func(completed bool)
}

// ClearOptions selects which pending messages survive a purge. Zero value
// clears everything. Both fields set keeps the union. A message that is
// mid-reveal is never discarded; it is re-placed at the head and resumes.
type ClearOptions struct {
	PreserveHigh      bool
	PreserveSurvivors bool
}

func (o ClearOptions) keeps(m Message) bool {
	if o.PreserveHigh && m.Priority >= PriorityHigh {
		return true
	}
	if o.PreserveSurvivors && m.SurviveOnReselect {
		return true
	}
	return false
}
