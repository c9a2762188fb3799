// Package breachqueue implements the two bounded batching queues and their
// periodic drainers: critical breaches feed the "red" channel, warning-tier
// breaches feed the "warning" channel.
package breachqueue

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klvinai/sentinelsuite/internal/model"
)

// item distinguishes a real breach from the end-of-batch sentinel without a
// second channel.
type item struct {
	breach    *model.Breach
	sentinel  bool
}

// Queue is a bounded, multi-producer/single-consumer FIFO of breaches. Puts
// never block: a full queue drops the item and logs.
type Queue struct {
	name     string
	channel  string
	ch       chan item
	capacity int
	highMark int64 // high-water mark, in items, for observability
	logger   *slog.Logger
}

// NewQueue creates a bounded queue for the given channel ("red" or
// "warning") with the given capacity.
func NewQueue(channel string, capacity int, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		name:     channel + "-queue",
		channel:  channel,
		ch:       make(chan item, capacity),
		capacity: capacity,
		logger:   logger,
	}
}

// Put enqueues a breach without blocking. If the queue is full the breach is
// dropped and an error is logged — deliberate backpressure rather than
// stalling the classifier.
func (q *Queue) Put(b *model.Breach) {
	select {
	case q.ch <- item{breach: b}:
		q.trackHighMark()
	default:
		q.logger.Error("breach queue full, dropping breach",
			"channel", q.channel, "device_id", b.DeviceID, "sensor_id", b.SensorID, "capacity", q.capacity)
	}
}

func (q *Queue) trackHighMark() {
	occupancy := int64(len(q.ch))
	for {
		cur := atomic.LoadInt64(&q.highMark)
		if occupancy <= cur {
			break
		}
		if atomic.CompareAndSwapInt64(&q.highMark, cur, occupancy) {
			break
		}
	}
	if float64(occupancy) > 0.8*float64(q.capacity) {
		q.logger.Warn("breach queue occupancy above 80%",
			"channel", q.channel, "occupancy", occupancy, "capacity", q.capacity)
	}
}

// Stats reports queue depth and high-water mark for the operator surface.
type Stats struct {
	Channel      string `json:"channel"`
	Occupancy    int    `json:"occupancy"`
	Capacity     int    `json:"capacity"`
	HighWaterMark int64  `json:"high_water_mark"`
}

func (q *Queue) Stats() Stats {
	return Stats{
		Channel:       q.channel,
		Occupancy:     len(q.ch),
		Capacity:      q.capacity,
		HighWaterMark: atomic.LoadInt64(&q.highMark),
	}
}

// drain performs one sentinel-swap cycle: push a sentinel, pop until it is
// observed, return everything popped before it. This reads exactly the
// items present at cycle start plus anything enqueued before the sentinel
// was placed; late arrivals go to the next cycle.
func (q *Queue) drain() []*model.Breach {
	// Placing the sentinel fails only when the queue is full; this cycle then
	// takes the items present right now by count, so a full queue still
	// empties.
	select {
	case q.ch <- item{sentinel: true}:
	default:
		q.logger.Warn("breach queue full when placing drain sentinel", "channel", q.channel)
		n := len(q.ch)
		batch := make([]*model.Breach, 0, n)
		for i := 0; i < n; i++ {
			if it := <-q.ch; !it.sentinel {
				batch = append(batch, it.breach)
			}
		}
		return batch
	}

	var batch []*model.Breach
	for it := range q.ch {
		if it.sentinel {
			break
		}
		batch = append(batch, it.breach)
	}
	return batch
}

// Handler processes one drained batch for a channel.
type Handler func(batch []*model.Breach, channel string)

// Drainer periodically drains a Queue and invokes a Handler on non-empty
// batches. At most one drainer runs per queue at a time.
type Drainer struct {
	queue    *Queue
	interval time.Duration
	handler  Handler
	logger   *slog.Logger
}

// NewDrainer builds a drainer for queue on the given interval.
func NewDrainer(queue *Queue, interval time.Duration, handler Handler, logger *slog.Logger) *Drainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Drainer{queue: queue, interval: interval, handler: handler, logger: logger}
}

// Run loops forever draining on d.interval until ctx is cancelled.
func (d *Drainer) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("drainer started", "channel", d.queue.channel, "interval", d.interval)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("drainer stopped", "channel", d.queue.channel)
			return
		case <-ticker.C:
			d.runOnce()
		}
	}
}

func (d *Drainer) runOnce() {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("drain cycle panicked, continuing", "channel", d.queue.channel, "panic", r)
		}
	}()

	batch := d.queue.drain()
	if len(batch) == 0 {
		return
	}
	d.handler(batch, d.queue.channel)
}

// Set bundles both queues. StartDrainers uses its WaitGroup to block until
// both drainers have exited; breaches still queued when ctx is cancelled are
// not drained.
type Set struct {
	Critical *Queue
	Warning  *Queue
	wg       sync.WaitGroup
}

// NewSet builds both bounded queues at the given shared capacity.
func NewSet(capacity int, logger *slog.Logger) *Set {
	return &Set{
		Critical: NewQueue("red", capacity, logger),
		Warning:  NewQueue("warning", capacity, logger),
	}
}

// StartDrainers launches both drainers with their configured intervals and
// returns once ctx is cancelled and both drainers have exited.
func (s *Set) StartDrainers(ctx context.Context, criticalInterval, warningInterval time.Duration, handler Handler, logger *slog.Logger) {
	criticalDrainer := NewDrainer(s.Critical, criticalInterval, handler, logger)
	warningDrainer := NewDrainer(s.Warning, warningInterval, handler, logger)

	s.wg.Add(2)
	go func() { defer s.wg.Done(); criticalDrainer.Run(ctx) }()
	go func() { defer s.wg.Done(); warningDrainer.Run(ctx) }()
	s.wg.Wait()
}

// AllStats returns stats for both queues.
func (s *Set) AllStats() []Stats {
	return []Stats{s.Critical.Stats(), s.Warning.Stats()}
}
