package coalesce

import (
	"sync"
	"time"
)

// DefaultFrameRate is the refresh rate used when none is configured.
const DefaultFrameRate = 60

// Token identifies a scheduled callback. The zero Token is never issued.
type Token uint64

// FrameClock is the display refresh clock.
type FrameClock interface {
	// Schedule arranges for cb to run once, asynchronously, no earlier than
	// the next frame boundary.
	Schedule(cb func()) Token

	// Cancel prevents a scheduled callback from running if it has not
	// started yet. Unknown or already-fired tokens are ignored.
	Cancel(t Token)
}

type scheduledCallback struct {
	token Token
	cb    func()
}

// callbackQueue holds callbacks waiting for the next frame.
type callbackQueue struct {
	mu      sync.Mutex
	next    Token
	pending []scheduledCallback
}

func (q *callbackQueue) add(cb func()) Token {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.next++
	q.pending = append(q.pending, scheduledCallback{token: q.next, cb: cb})
	return q.next
}

func (q *callbackQueue) remove(t Token) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, s := range q.pending {
		if s.token == t {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

// drain removes and returns everything scheduled so far, in schedule order.
func (q *callbackQueue) drain() []scheduledCallback {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

func (q *callbackQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// TickerClock is a FrameClock driven by a fixed-rate ticker. Callbacks run
// on the clock's goroutine, outside any clock lock.
type TickerClock struct {
	queue    callbackQueue
	interval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewTickerClock starts a clock ticking rate times per second. A rate of
// zero or less uses DefaultFrameRate.
func NewTickerClock(rate int) *TickerClock {
	if rate <= 0 {
		rate = DefaultFrameRate
	}
	c := &TickerClock{
		interval: time.Second / time.Duration(rate),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.run()
	return c
}

// Interval returns the frame period.
func (c *TickerClock) Interval() time.Duration {
	return c.interval
}

// Schedule implements FrameClock.
func (c *TickerClock) Schedule(cb func()) Token {
	return c.queue.add(cb)
}

// Cancel implements FrameClock.
func (c *TickerClock) Cancel(t Token) {
	c.queue.remove(t)
}

// Stop halts the clock. Callbacks still queued never run. Safe to call
// multiple times.
func (c *TickerClock) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	<-c.done
}

func (c *TickerClock) run() {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			for _, s := range c.queue.drain() {
				s.cb()
			}
		}
	}
}

// ManualClock is a FrameClock whose frames are triggered by calling Fire.
// It is intended for tests and for hosts that own their own paint loop.
type ManualClock struct {
	queue callbackQueue
}

// NewManualClock creates an idle manual clock.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

// Schedule implements FrameClock.
func (c *ManualClock) Schedule(cb func()) Token {
	return c.queue.add(cb)
}

// Cancel implements FrameClock.
func (c *ManualClock) Cancel(t Token) {
	c.queue.remove(t)
}

// Fire runs every callback scheduled before the call and returns how many
// ran. Callbacks scheduled while firing wait for the next Fire.
func (c *ManualClock) Fire() int {
	cbs := c.queue.drain()
	for _, s := range cbs {
		s.cb()
	}
	return len(cbs)
}

// Pending returns the number of callbacks waiting for a frame.
func (c *ManualClock) Pending() int {
	return c.queue.len()
}
