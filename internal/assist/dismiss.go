package assist

import (
	"sync"
	"time"
)

// DismissManager hides the assistant surface after a fixed idle delay.
// At most one timer is ever pending; any activity cancels it. When the
// timer fires, idleness is rechecked through the check hook rather than
// assumed, so a surface that became busy again is left alone.
type DismissManager struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	gen   uint64

	check func() bool
	hide  func()
}

func NewDismissManager(delay time.Duration, check func() bool, hide func()) *DismissManager {
	return &DismissManager{delay: delay, check: check, hide: hide}
}

// Activity cancels any pending hide. Called on every enqueue, selection
// and action press.
func (d *DismissManager) Activity() {
	d.mu.Lock()
	d.cancelLocked()
	d.mu.Unlock()
}

// Idle arms the hide timer, replacing any previous one.
func (d *DismissManager) Idle() {
	d.mu.Lock()
	d.cancelLocked()
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
	d.mu.Unlock()
}

// Pending reports whether a hide timer is armed.
func (d *DismissManager) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *DismissManager) cancelLocked() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *DismissManager) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	if d.check() {
		d.hide()
	}
}
