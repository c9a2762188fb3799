package notify

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"
)

// RetryRecord is a queued message awaiting re-delivery.
type RetryRecord struct {
	Recipients []string
	Subject    string
	Body       string
	Attempt    int
	NextTry    time.Time
}

// retryHeap is a min-heap on NextTry. A heap avoids the tail-ping-pong a
// literal re-enqueue-at-tail would cause against unrelated, later-scheduled
// items.
type retryHeap []RetryRecord

func (h retryHeap) Len() int            { return len(h) }
func (h retryHeap) Less(i, j int) bool  { return h[i].NextTry.Before(h[j].NextTry) }
func (h retryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *retryHeap) Push(x interface{}) { *h = append(*h, x.(RetryRecord)) }
func (h *retryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// RetryScheduler is a single background worker draining an unbounded,
// bounded-attempt retry queue.
type RetryScheduler struct {
	mu           sync.Mutex
	queue        retryHeap
	mailer       Mailer
	senderEmail  string
	maxAttempts  int
	spacing      time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewRetryScheduler builds a scheduler. Typical defaults: 3 max attempts,
// 30s spacing, 5s poll interval.
func NewRetryScheduler(mailer Mailer, senderEmail string, maxAttempts int, spacing, pollInterval time.Duration, logger *slog.Logger) *RetryScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryScheduler{
		mailer:       mailer,
		senderEmail:  senderEmail,
		maxAttempts:  maxAttempts,
		spacing:      spacing,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Schedule enqueues a record for immediate-as-possible re-delivery; callers
// set Attempt before calling (1 on first failure).
func (s *RetryScheduler) Schedule(r RetryRecord) {
	if r.NextTry.IsZero() {
		r.NextTry = time.Now()
	}
	s.mu.Lock()
	heap.Push(&s.queue, r)
	s.mu.Unlock()
}

// Run loops forever until ctx is cancelled, retrying due messages and
// leaving not-yet-due ones in place.
func (s *RetryScheduler) Run(ctx context.Context) {
	s.logger.Info("retry scheduler started", "max_attempts", s.maxAttempts, "spacing", s.spacing)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("retry scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *RetryScheduler) runOnce() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("retry cycle panicked, continuing", "panic", r)
		}
	}()

	for {
		record, ok := s.popDue()
		if !ok {
			return
		}
		s.attempt(record)
	}
}

// popDue pops and returns the earliest-due record if it is actually due.
func (s *RetryScheduler) popDue() (RetryRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue.Len() == 0 {
		return RetryRecord{}, false
	}
	if time.Now().Before(s.queue[0].NextTry) {
		return RetryRecord{}, false
	}
	return heap.Pop(&s.queue).(RetryRecord), true
}

func (s *RetryScheduler) attempt(r RetryRecord) {
	err := s.mailer.Send(s.senderEmail, r.Recipients, r.Subject, r.Body)
	if err == nil {
		s.logger.Info("retry succeeded", "recipients", r.Recipients, "attempt", r.Attempt)
		return
	}

	if r.Attempt >= s.maxAttempts {
		s.logger.Error("retry attempts exhausted, dropping message permanently",
			"recipients", r.Recipients, "attempt", r.Attempt, "error", err)
		return
	}

	r.Attempt++
	r.NextTry = time.Now().Add(s.spacing)
	s.Schedule(r)
}

// Depth reports the current retry queue size for the operator surface.
func (s *RetryScheduler) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}
