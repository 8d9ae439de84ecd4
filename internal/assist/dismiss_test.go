package assist

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDismissFiresOncePerIdlePeriod(t *testing.T) {
	t.Parallel()

	var hides atomic.Int32
	d := NewDismissManager(10*time.Millisecond,
		func() bool { return true },
		func() { hides.Add(1) })

	d.Idle()
	require.Eventually(t, func() bool { return hides.Load() == 1 }, 2*time.Second, time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	require.Equal(t, int32(1), hides.Load())
}

func TestDismissActivityCancelsTimer(t *testing.T) {
	t.Parallel()

	var hides atomic.Int32
	d := NewDismissManager(15*time.Millisecond,
		func() bool { return true },
		func() { hides.Add(1) })

	d.Idle()
	d.Activity()
	require.False(t, d.Pending())

	time.Sleep(40 * time.Millisecond)
	require.Zero(t, hides.Load())
}

func TestDismissRechecksIdlenessBeforeHiding(t *testing.T) {
	t.Parallel()

	var idle atomic.Bool
	var hides atomic.Int32
	d := NewDismissManager(10*time.Millisecond,
		idle.Load,
		func() { hides.Add(1) })

	// became busy again between scheduling and firing
	d.Idle()
	time.Sleep(30 * time.Millisecond)
	require.Zero(t, hides.Load())

	idle.Store(true)
	d.Idle()
	require.Eventually(t, func() bool { return hides.Load() == 1 }, 2*time.Second, time.Millisecond)
}

func TestDismissReplacesExistingTimer(t *testing.T) {
	t.Parallel()

	var hides atomic.Int32
	d := NewDismissManager(20*time.Millisecond,
		func() bool { return true },
		func() { hides.Add(1) })

	d.Idle()
	d.Idle()
	d.Idle()
	require.Eventually(t, func() bool { return hides.Load() == 1 }, 2*time.Second, time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(1), hides.Load())
}
