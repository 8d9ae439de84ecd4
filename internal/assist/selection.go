package assist

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jask/wayfind/internal/bus"
	"github.com/jask/wayfind/internal/events"
)

// SelectionCoordinator turns item selection events into message
// sequences. It is the only writer of the selection context; the context
// is read and written exclusively inside its handlers.
type SelectionCoordinator struct {
	mu            sync.Mutex
	focusedID     string
	focusedTitle  string
	focusedType   string
	lastMessageAt time.Time
	// handling counts in-flight select handling per item id. It is a
	// reentrancy guard against overlapping deliveries of the same
	// selection from concurrent event sources, not a timed debounce:
	// the guard window is the synchronous handling of one event.
	handling map[string]int
	viewed   int

	engine    *Engine
	showEmoji bool
	log       zerolog.Logger
}

func NewSelectionCoordinator(engine *Engine, showEmoji bool, log zerolog.Logger) *SelectionCoordinator {
	return &SelectionCoordinator{
		engine:    engine,
		showEmoji: showEmoji,
		handling:  make(map[string]int),
		log:       log,
	}
}

// Attach subscribes the coordinator's handlers.
func (c *SelectionCoordinator) Attach(b *bus.Bus) {
	b.Subscribe(events.SelectItem, c.handleSelect)
	b.Subscribe(events.DeselectItem, c.handleDeselect)
	b.Subscribe(events.ActionPressed, c.handleAction)
}

// Focused returns the currently focused item id, or "".
func (c *SelectionCoordinator) Focused() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focusedID
}

func (c *SelectionCoordinator) handleSelect(payload any) {
	p, ok := payload.(events.SelectItemPayload)
	if !ok {
		c.log.Warn().Any("payload", payload).Msg("malformed select payload")
		return
	}
	item := p.Item
	if item.ID == "" {
		c.log.Warn().Msg("select event without item id")
		return
	}

	c.mu.Lock()
	if item.ID == c.focusedID {
		// Duplicate delivery of the current selection.
		c.mu.Unlock()
		return
	}
	if c.handling[item.ID] > 0 {
		c.mu.Unlock()
		return
	}
	c.handling[item.ID]++
	switching := c.focusedID != ""
	c.focusedID = item.ID
	c.focusedTitle = item.Title
	c.focusedType = item.Type
	c.lastMessageAt = time.Now()
	c.viewed++
	viewed := c.viewed
	c.mu.Unlock()

	if switching {
		// A different item had focus; purge its pending chatter but keep
		// anything marked survive-on-reselect.
		c.engine.Clear(ClearOptions{PreserveSurvivors: true})
	}
	priority := PriorityHigh
	if switching {
		// Guarantees the switch feels instant even over a busy queue.
		priority = PriorityImmediate
	}

	c.engine.Enqueue(selectGreeting(item), priority, EnqueueOptions{
		Emoji:  c.emoji("📍"),
		Source: events.SelectItem,
	})
	c.engine.Enqueue(selectDetail(item), priority, EnqueueOptions{
		Source: events.SelectItem,
	})
	if viewed > 1 {
		c.engine.Enqueue(fmt.Sprintf("That's %d places you've checked out so far.", viewed),
			PriorityLow, EnqueueOptions{
				Source:            events.SelectItem,
				SurviveOnReselect: true,
			})
	}

	c.mu.Lock()
	c.handling[item.ID]--
	if c.handling[item.ID] <= 0 {
		delete(c.handling, item.ID)
	}
	c.mu.Unlock()
}

func (c *SelectionCoordinator) handleDeselect(payload any) {
	if _, ok := payload.(events.DeselectItemPayload); !ok {
		c.log.Warn().Any("payload", payload).Msg("malformed deselect payload")
		return
	}

	c.mu.Lock()
	if c.focusedID == "" {
		c.mu.Unlock()
		return
	}
	title := fallbackTitle(c.focusedTitle)
	c.focusedID = ""
	c.focusedTitle = ""
	c.focusedType = ""
	c.lastMessageAt = time.Now()
	c.mu.Unlock()

	// Pending chatter about the item being let go is moot; only
	// survive-on-reselect entries outlive the focus change.
	c.engine.Clear(ClearOptions{PreserveSurvivors: true})
	c.engine.Enqueue(fmt.Sprintf("Done with %s. Shout if something else catches your eye.", title),
		PriorityMedium, EnqueueOptions{Source: events.DeselectItem})
}

func (c *SelectionCoordinator) handleAction(payload any) {
	p, ok := payload.(events.ActionPressedPayload)
	if !ok {
		c.log.Warn().Any("payload", payload).Msg("malformed action payload")
		return
	}
	c.engine.Touch()

	c.mu.Lock()
	title := c.focusedTitle
	focused := c.focusedID != ""
	c.mu.Unlock()

	switch p.Action {
	case "directions", "share", "save":
		if !focused {
			// Blocking prompt: the one sanctioned queue bypass.
			c.engine.InterruptAndShow("Select a location first.")
			return
		}
		c.engine.Enqueue(actionAck(p.Action, fallbackTitle(title)), PriorityHigh,
			EnqueueOptions{Source: events.ActionPressed})
	case "search":
		c.engine.Enqueue("Let's see what's around…", PriorityHigh, EnqueueOptions{
			Emoji:  c.emoji("🔎"),
			Source: events.ActionPressed,
		})
	default:
		c.log.Debug().Str("action", p.Action).Msg("unnarrated action")
	}
}

func (c *SelectionCoordinator) emoji(s string) string {
	if !c.showEmoji {
		return ""
	}
	return s
}

func fallbackTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "that spot"
	}
	return title
}

func selectGreeting(item events.Item) string {
	if strings.TrimSpace(item.Title) == "" {
		return "Taking a look at this spot."
	}
	return fmt.Sprintf("Taking a look at %s.", item.Title)
}

func selectDetail(item events.Item) string {
	switch {
	case item.DistanceKm > 0 && item.WalkMinutes > 0:
		return fmt.Sprintf("It's about %.1f km away, around %d min on foot.", item.DistanceKm, item.WalkMinutes)
	case item.DistanceKm > 0:
		return fmt.Sprintf("It's about %.1f km from here.", item.DistanceKm)
	case item.WalkMinutes > 0:
		return fmt.Sprintf("About %d min on foot.", item.WalkMinutes)
	default:
		return "It's not far from here."
	}
}

func actionAck(action, title string) string {
	switch action {
	case "directions":
		return fmt.Sprintf("Getting directions to %s.", title)
	case "share":
		return fmt.Sprintf("Sharing %s.", title)
	case "save":
		return fmt.Sprintf("Saved %s for later.", title)
	default:
		return ""
	}
}
