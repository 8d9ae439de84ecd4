// Package bus provides the typed publish/subscribe channel the assistant
// engine and its collaborators communicate over. A Bus is constructed
// explicitly and injected; there is no package-level singleton.
package bus

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/jask/wayfind/internal/events"
)

// Handler receives the payload of one emitted event.
type Handler func(payload any)

type subscription struct {
	id uint64
	fn Handler
}

// Bus fans events out to subscribers. Emit is synchronous on the
// caller's goroutine and delivers to a snapshot of the handler list:
// handlers added or removed during delivery affect later emits only.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[events.Type][]subscription
	log    zerolog.Logger
}

func New(log zerolog.Logger) *Bus {
	return &Bus{
		subs: make(map[events.Type][]subscription),
		log:  log,
	}
}

// Subscribe registers fn for events of type t and returns a function that
// removes the registration. Handlers for one type are delivered in
// registration order.
func (b *Bus) Subscribe(t events.Type, fn Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[t] = append(b.subs[t], subscription{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[t]
		for i, s := range list {
			if s.id == id {
				b.subs[t] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Once registers fn to run for at most one event of type t.
func (b *Bus) Once(t events.Type, fn Handler) {
	var (
		once  sync.Once
		unsub func()
	)
	unsub = b.Subscribe(t, func(payload any) {
		once.Do(func() {
			unsub()
			fn(payload)
		})
	})
}

// Emit invokes every handler currently registered for t. A handler that
// panics is recovered and logged; the remaining handlers still run and
// the panic never reaches the emitter.
func (b *Bus) Emit(t events.Type, payload any) {
	b.mu.Lock()
	list := b.subs[t]
	snapshot := make([]subscription, len(list))
	copy(snapshot, list)
	b.mu.Unlock()

	for _, s := range snapshot {
		b.dispatch(t, s, payload)
	}
}

func (b *Bus) dispatch(t events.Type, s subscription, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Str("event", string(t)).
				Uint64("subscription", s.id).
				Any("panic", r).
				Msg("event handler panicked")
		}
	}()
	s.fn(payload)
}
