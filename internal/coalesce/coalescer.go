// Package coalesce batches backend output so the downstream parser runs at
// most once per display refresh.
//
// Chunks pushed between two frames are merged, in arrival order, and handed
// to the consumer as a single buffer on the next frame tick. A lone chunk is
// forwarded as-is without copying.
//
// The refresh cycle is abstracted as a FrameClock so tests can drive frames
// by hand (see ManualClock).
package coalesce

import (
	"sync"

	"github.com/dshills/termview/internal/logging"
)

// Consumer receives merged output. It is never called with an empty batch.
// A consumer must not call Flush or Cancel on the coalescer that invoked it;
// it may call Push.
type Consumer func(data []byte)

// Observer receives coalescing statistics.
type Observer interface {
	ChunkPushed(bytes int)
	Flushed(chunks, bytes int, forced bool)
	Discarded(chunks, bytes int)
}

type nopObserver struct{}

func (nopObserver) ChunkPushed(int)        {}
func (nopObserver) Flushed(int, int, bool) {}
func (nopObserver) Discarded(int, int)     {}

// Options configures a Coalescer.
type Options struct {
	// MaxPendingBytes bounds the pending batch. When a push takes the batch
	// above this size it is flushed immediately instead of waiting for the
	// next frame. Zero means unbounded.
	MaxPendingBytes int

	// Observer receives statistics. Optional.
	Observer Observer

	// Logger for diagnostics. Optional.
	Logger *logging.Logger
}

// Coalescer merges output chunks between display refresh ticks.
// All methods are safe for concurrent use.
type Coalescer struct {
	clock    FrameClock
	consumer Consumer
	maxBytes int
	observer Observer
	logger   *logging.Logger

	// deliverMu serialises hand-off to the consumer so batches arrive in
	// order. Lock order: deliverMu before mu.
	deliverMu sync.Mutex

	mu        sync.Mutex
	pending   [][]byte
	size      int
	scheduled bool
	token     Token
	gen       uint64
}

// New creates a coalescer that delivers to consumer on clock's frames.
func New(clock FrameClock, consumer Consumer, opts Options) *Coalescer {
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	maxBytes := opts.MaxPendingBytes
	if maxBytes < 0 {
		maxBytes = 0
	}
	return &Coalescer{
		clock:    clock,
		consumer: consumer,
		maxBytes: maxBytes,
		observer: obs,
		logger:   logging.OrNop(opts.Logger).WithComponent("coalesce"),
	}
}

// Push appends chunk to the pending batch and schedules a flush if none is
// outstanding. The chunk is retained, not copied, until it is delivered;
// callers must not modify it afterwards.
//
// A push that takes the batch over MaxPendingBytes flushes synchronously,
// unless a delivery is already running (for example the consumer pushing
// from inside its callback). The batch then waits for the next frame.
func (c *Coalescer) Push(chunk []byte) {
	c.mu.Lock()
	c.pending = append(c.pending, chunk)
	c.size += len(chunk)
	over := c.maxBytes > 0 && c.size > c.maxBytes
	if !over {
		c.scheduleLocked()
	}
	c.mu.Unlock()

	c.observer.ChunkPushed(len(chunk))

	if !over {
		return
	}
	if c.deliverMu.TryLock() {
		defer c.deliverMu.Unlock()
		c.logger.Debug("pending batch over %d bytes, flushing early", c.maxBytes)
		c.flushLocked(true)
		return
	}

	c.mu.Lock()
	c.scheduleLocked()
	c.mu.Unlock()
}

// scheduleLocked schedules a frame flush if none is outstanding. Caller
// holds mu.
func (c *Coalescer) scheduleLocked() {
	if c.scheduled {
		return
	}
	gen := c.gen
	c.scheduled = true
	c.token = c.clock.Schedule(func() { c.onFrame(gen) })
}

// Flush delivers the pending batch immediately and drops any scheduled
// flush. Hosts call this when the surface stops refreshing.
func (c *Coalescer) Flush() {
	c.flush(true)
}

// Cancel discards the pending batch and any scheduled flush without calling
// the consumer. A frame callback already in flight becomes a no-op. Cancel
// is idempotent; the coalescer remains usable afterwards.
func (c *Coalescer) Cancel() {
	c.mu.Lock()
	if c.scheduled {
		c.clock.Cancel(c.token)
	}
	c.gen++
	chunks, size := len(c.pending), c.size
	c.reset()
	c.mu.Unlock()

	if chunks > 0 {
		c.observer.Discarded(chunks, size)
		c.logger.Debug("discarded %d pending chunks (%d bytes)", chunks, size)
	}
}

// Pending reports the current batch size.
func (c *Coalescer) Pending() (chunks, bytes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending), c.size
}

// Scheduled reports whether a frame flush is outstanding.
func (c *Coalescer) Scheduled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scheduled
}

// onFrame is the scheduled refresh callback.
func (c *Coalescer) onFrame(gen uint64) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	c.mu.Lock()
	if gen != c.gen {
		// Cancelled or superseded by a forced flush.
		c.mu.Unlock()
		return
	}
	batch, size := c.pending, c.size
	c.reset()
	c.mu.Unlock()

	c.deliver(batch, size, false)
}

func (c *Coalescer) flush(forced bool) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()
	c.flushLocked(forced)
}

// flushLocked takes the whole batch and delivers it. Caller holds deliverMu.
func (c *Coalescer) flushLocked(forced bool) {
	c.mu.Lock()
	if c.scheduled {
		c.clock.Cancel(c.token)
	}
	c.gen++
	batch, size := c.pending, c.size
	c.reset()
	c.mu.Unlock()

	c.deliver(batch, size, forced)
}

// reset clears the batch and scheduling state. Caller holds mu.
func (c *Coalescer) reset() {
	c.pending = nil
	c.size = 0
	c.scheduled = false
	c.token = 0
}

// deliver hands batch to the consumer. Caller holds deliverMu.
func (c *Coalescer) deliver(batch [][]byte, size int, forced bool) {
	if len(batch) == 0 {
		return
	}

	data := batch[0]
	if len(batch) > 1 {
		data = make([]byte, size)
		off := 0
		for _, chunk := range batch {
			off += copy(data[off:], chunk)
		}
	}

	c.consumer(data)
	c.observer.Flushed(len(batch), size, forced)
}
