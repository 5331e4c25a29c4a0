package live

import (
	"log/slog"
	"sync"
	"time"

	"teachback/internal/audio"
	"teachback/internal/logging"
)

// Sink plays PCM in write order.
type Sink interface {
	Write(pcm []byte) error
	// Reset drops audio that has been written but not yet played.
	Reset() error
	Close() error
}

type chunk struct {
	pcm   []byte
	epoch uint64
}

// Scheduler queues model audio back to back. It keeps a cursor for the
// instant the queued audio runs out: each chunk starts at the later of the
// cursor and now, and moves the cursor past itself.
type Scheduler struct {
	sink   Sink
	rate   int
	now    func() time.Time
	logger *slog.Logger

	// sendMu keeps Close from closing queue under a pending Schedule.
	sendMu sync.RWMutex

	mu        sync.Mutex
	nextStart time.Time
	epoch     uint64
	queue     chan chunk
	done      chan struct{}
	closed    bool
}

// NewScheduler starts a scheduler writing rate Hz PCM to sink.
func NewScheduler(sink Sink, rate int, now func() time.Time, logger *slog.Logger) *Scheduler {
	if now == nil {
		now = time.Now
	}
	s := &Scheduler{
		sink:   sink,
		rate:   rate,
		now:    now,
		logger: logging.NewComponentLogger(logger, "playback"),
		queue:  make(chan chunk, 256),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// Schedule queues pcm and returns when it will start playing.
func (s *Scheduler) Schedule(pcm []byte) time.Time {
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()
	s.mu.Lock()
	if s.closed || len(pcm) == 0 {
		s.mu.Unlock()
		return time.Time{}
	}
	now := s.now()
	start := s.nextStart
	if start.Before(now) {
		start = now
	}
	s.nextStart = start.Add(audio.Duration(len(pcm), s.rate))
	c := chunk{pcm: pcm, epoch: s.epoch}
	s.mu.Unlock()

	s.queue <- c
	return start
}

// Interrupt stops everything scheduled and resets the cursor to zero.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	s.nextStart = time.Time{}
	s.epoch++
	s.mu.Unlock()
drain:
	for {
		select {
		case _, ok := <-s.queue:
			if !ok {
				break drain
			}
		default:
			break drain
		}
	}
	if err := s.sink.Reset(); err != nil {
		s.logger.Debug("playback reset failed", logging.Error(err))
	}
}

// NextStart returns the cursor. It is zero when nothing has been scheduled
// since the last interruption.
func (s *Scheduler) NextStart() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextStart
}

// Close stops playback and releases the sink.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.epoch++
	s.nextStart = time.Time{}
	s.mu.Unlock()
	// Reset first so a Write blocked on a full player returns.
	_ = s.sink.Reset()
	s.sendMu.Lock()
	close(s.queue)
	s.sendMu.Unlock()
	<-s.done
	return s.sink.Close()
}

func (s *Scheduler) run() {
	defer close(s.done)
	for c := range s.queue {
		s.mu.Lock()
		stale := c.epoch != s.epoch
		s.mu.Unlock()
		if stale {
			continue
		}
		if err := s.sink.Write(c.pcm); err != nil {
			s.logger.Debug("playback write failed", logging.Error(err))
		}
	}
}
