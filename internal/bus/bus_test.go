package bus

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jask/wayfind/internal/events"
)

func TestEmitDeliversInRegistrationOrder(t *testing.T) {
	t.Parallel()

	b := New(zerolog.Nop())
	var order []string
	b.Subscribe(events.ActionPressed, func(any) { order = append(order, "first") })
	b.Subscribe(events.ActionPressed, func(any) { order = append(order, "second") })
	b.Subscribe(events.ActionPressed, func(any) { order = append(order, "third") })

	b.Emit(events.ActionPressed, events.ActionPressedPayload{Action: "search"})
	require.Equal(t, []string{"first", "second", "third"}, order)
}

func TestEmitUsesSnapshotOfHandlers(t *testing.T) {
	t.Parallel()

	b := New(zerolog.Nop())
	var calls []string
	b.Subscribe(events.CloseView, func(any) {
		calls = append(calls, "outer")
		b.Subscribe(events.CloseView, func(any) { calls = append(calls, "inner") })
	})

	// The handler registered mid-emit must not run during this delivery.
	b.Emit(events.CloseView, events.CloseViewPayload{})
	require.Equal(t, []string{"outer"}, calls)

	b.Emit(events.CloseView, events.CloseViewPayload{})
	require.Equal(t, []string{"outer", "outer", "inner"}, calls)
}

func TestUnsubscribeDuringEmitStillDeliversCurrentEmit(t *testing.T) {
	t.Parallel()

	b := New(zerolog.Nop())
	var calls []string
	var unsubSecond func()
	b.Subscribe(events.OpenView, func(any) {
		calls = append(calls, "first")
		unsubSecond()
	})
	unsubSecond = b.Subscribe(events.OpenView, func(any) { calls = append(calls, "second") })

	b.Emit(events.OpenView, events.OpenViewPayload{ViewType: "camera"})
	require.Equal(t, []string{"first", "second"}, calls)

	b.Emit(events.OpenView, events.OpenViewPayload{ViewType: "camera"})
	require.Equal(t, []string{"first", "second", "first"}, calls)
}

func TestPanickingHandlerIsIsolated(t *testing.T) {
	t.Parallel()

	b := New(zerolog.Nop())
	var reached bool
	b.Subscribe(events.SelectItem, func(any) { panic("bad handler") })
	b.Subscribe(events.SelectItem, func(any) { reached = true })

	require.NotPanics(t, func() {
		b.Emit(events.SelectItem, events.SelectItemPayload{})
	})
	require.True(t, reached)
}

func TestOnceFiresExactlyOnce(t *testing.T) {
	t.Parallel()

	b := New(zerolog.Nop())
	count := 0
	b.Once(events.ViewportChanging, func(any) { count++ })

	b.Emit(events.ViewportChanging, events.ViewportChangingPayload{})
	b.Emit(events.ViewportChanging, events.ViewportChangingPayload{})
	require.Equal(t, 1, count)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	t.Parallel()

	b := New(zerolog.Nop())
	count := 0
	unsub := b.Subscribe(events.DeselectItem, func(any) { count++ })
	unsub()
	unsub()

	b.Emit(events.DeselectItem, events.DeselectItemPayload{})
	require.Zero(t, count)
}
