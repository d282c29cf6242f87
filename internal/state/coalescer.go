package state

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultCoalesceWindow is the interval change-notification bursts are
// collapsed into.
const DefaultCoalesceWindow = 250 * time.Millisecond

// reloadCoalescer turns a burst of change notifications into at most one
// immediate reload plus one trailing reload per window, instead of one reload
// per notification.
type reloadCoalescer struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	window  time.Duration
	reload  func()
	pending bool
	closed  bool
}

func newReloadCoalescer(window time.Duration, reload func()) *reloadCoalescer {
	if window <= 0 {
		window = DefaultCoalesceWindow
	}
	return &reloadCoalescer{
		limiter: rate.NewLimiter(rate.Every(window), 1),
		window:  window,
		reload:  reload,
	}
}

// Trigger requests a reload. The first trigger in a window reloads
// immediately; further triggers within the window collapse into a single
// trailing reload.
func (c *reloadCoalescer) Trigger() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	if c.limiter.Allow() {
		c.mu.Unlock()
		go c.reload()
		return
	}

	if c.pending {
		c.mu.Unlock()
		return
	}
	c.pending = true
	c.mu.Unlock()

	time.AfterFunc(c.window, func() {
		c.mu.Lock()
		c.pending = false
		closed := c.closed
		c.mu.Unlock()
		if !closed {
			c.reload()
		}
	})
}

// Close stops future reloads. A trailing reload already scheduled is dropped.
func (c *reloadCoalescer) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}
