package assist

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jask/wayfind/internal/bus"
	"github.com/jask/wayfind/internal/events"
)

// Narrator comments on viewport and view activity: camera settles, view
// open/close. Strictly bus-in, queue-out.
type Narrator struct {
	mu        sync.Mutex
	lastCount int

	engine    *Engine
	showEmoji bool
	log       zerolog.Logger
}

func NewNarrator(engine *Engine, showEmoji bool, log zerolog.Logger) *Narrator {
	return &Narrator{engine: engine, showEmoji: showEmoji, lastCount: -1, log: log}
}

func (n *Narrator) Attach(b *bus.Bus) {
	b.Subscribe(events.ViewportChanging, func(any) { n.engine.Touch() })
	b.Subscribe(events.ViewportChanged, n.handleViewportChanged)
	b.Subscribe(events.OpenView, n.handleOpenView)
	b.Subscribe(events.CloseView, func(any) {
		n.engine.Enqueue("Back to the map.", PriorityBackground, EnqueueOptions{
			Source: events.CloseView,
		})
	})
}

func (n *Narrator) handleViewportChanged(payload any) {
	p, ok := payload.(events.ViewportChangedPayload)
	if !ok {
		n.log.Warn().Any("payload", payload).Msg("malformed viewport payload")
		return
	}
	if p.Searching {
		n.engine.Enqueue("Having a look around…", PriorityBackground, EnqueueOptions{
			Source: events.ViewportChanged,
		})
		return
	}

	count := len(p.Markers)
	n.mu.Lock()
	repeat := count == n.lastCount
	n.lastCount = count
	n.mu.Unlock()
	if repeat || count == 0 {
		return
	}

	emoji := ""
	if n.showEmoji {
		emoji = "🗺"
	}
	noun := "places"
	if count == 1 {
		noun = "place"
	}
	n.engine.Enqueue(fmt.Sprintf("%d %s around here.", count, noun), PriorityLow, EnqueueOptions{
		Emoji:             emoji,
		Source:            events.ViewportChanged,
		SurviveOnReselect: true,
	})
}

func (n *Narrator) handleOpenView(payload any) {
	p, ok := payload.(events.OpenViewPayload)
	if !ok {
		n.log.Warn().Any("payload", payload).Msg("malformed open view payload")
		return
	}
	n.engine.Enqueue(fmt.Sprintf("Opening %s.", p.ViewType), PriorityLow, EnqueueOptions{
		Source: events.OpenView,
	})
}
