package session

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"teachback/internal/logging"
	"teachback/internal/persistence"
	"teachback/internal/pipeline"
	"teachback/internal/quiz"
	"teachback/internal/services"
	"teachback/internal/teachback"
)

var (
	// ErrBusy is returned while a classification or generation is in flight.
	ErrBusy = errors.New("session busy")
	// ErrNoContent is returned by quiz commands before content exists.
	ErrNoContent = errors.New("no teach-back content")
	// ErrNoSource is returned by OverrideCategory when the original input is gone.
	ErrNoSource = errors.New("original document unavailable")
)

// Pipeline runs the two backend stages.
type Pipeline interface {
	Classify(ctx context.Context, src pipeline.Source) (teachback.ClassificationResult, error)
	Generate(ctx context.Context, src pipeline.Source, category teachback.Category) (teachback.Content, error)
}

// Options tune a Session. Zero values select defaults.
type Options struct {
	ConfidenceThreshold float64
	MinInputChars       int
	Now                 func() time.Time
	Rand                *rand.Rand
	NewID               func() string
}

// Session is the teach-back orchestrator.
type Session struct {
	stages   Pipeline
	saved    *persistence.Sessions
	counters *persistence.Counters
	logger   *slog.Logger

	threshold float64
	minChars  int
	rng       *rand.Rand
	newID     func() string

	mu             sync.Mutex
	listeners      map[int]func(Snapshot)
	nextListener   int
	id             string
	status         Status
	input          pipeline.Source
	classification *teachback.ClassificationResult
	override       teachback.Category
	content        *teachback.Content
	quiz           *quiz.Quiz
	metrics        persistence.Metrics
	timer          *Timer
	lastErr        error
	notice         Notice
	demo           bool
}

// New builds an idle session.
func New(stages Pipeline, saved *persistence.Sessions, counters *persistence.Counters, logger *slog.Logger, opts Options) *Session {
	if opts.ConfidenceThreshold <= 0 {
		opts.ConfidenceThreshold = 0.6
	}
	if opts.MinInputChars <= 0 {
		opts.MinInputChars = 1
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Session{
		stages:    stages,
		saved:     saved,
		counters:  counters,
		logger:    logging.NewComponentLogger(logger, "session"),
		threshold: opts.ConfidenceThreshold,
		minChars:  opts.MinInputChars,
		rng:       opts.Rand,
		newID:     opts.NewID,
		listeners: make(map[int]func(Snapshot)),
		status:    Idle,
		timer:     NewTimer(opts.Now),
	}
}

// OnChange registers fn to receive a snapshot after each transition and
// returns a function that removes it.
func (s *Session) OnChange(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:      s.id,
		Status:         s.status,
		InputText:      s.input.Text,
		IsImage:        s.input.IsImage(),
		Override:       s.override,
		Metrics:        s.metrics,
		ElapsedSeconds: s.timer.Elapsed(),
		TimerRunning:   s.timer.Running(),
		Err:            s.lastErr,
		Notice:         s.notice,
		Demo:           s.demo,
		QuizState:      quiz.NotStarted,
	}
	if s.classification != nil {
		c := *s.classification
		snap.Classification = &c
		snap.Category = c.Context
		snap.LowConfidence = !c.Confident(s.threshold)
	}
	if s.override != "" {
		snap.Category = s.override
	}
	if s.content != nil {
		c := *s.content
		c.QA = slices.Clone(c.QA)
		snap.Content = &c
	}
	if s.quiz != nil {
		snap.QuizState = s.quiz.State()
		snap.Options = s.quiz.OptionOrder()
		snap.Answers = s.quiz.Answers()
		if snap.QuizState == quiz.Submitted || snap.QuizState == quiz.Mastered {
			snap.Results = s.quiz.Results()
		}
	}
	return snap
}

// notify delivers a snapshot to listeners. It must be called without s.mu held.
func (s *Session) notify() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(s.listeners))
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// resetLocked discards everything the cycle produced. The input is kept.
func (s *Session) resetLocked() {
	s.classification = nil
	s.override = ""
	s.content = nil
	s.quiz = nil
	s.metrics = persistence.Metrics{}
	s.timer.Reset()
	s.lastErr = nil
	s.demo = false
}

func (s *Session) setNotice(level NoticeLevel, text string) {
	s.notice = Notice{Level: level, Text: text}
}

func (s *Session) guardLocked() error {
	if s.status.Busy() {
		return ErrBusy
	}
	s.notice = Notice{}
	return nil
}

func (s *Session) bump(ctx context.Context, name persistence.Counter) {
	if s.counters == nil {
		return
	}
	if _, err := s.counters.Increment(ctx, name); err != nil {
		logging.WarnWithContext(s.logger, "counter update failed", "counter_write_failed",
			logging.String("counter", string(name)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "usage counters may be low"),
		)
	}
}

func (s *Session) fail(ctx context.Context, stage string, err error) error {
	s.mu.Lock()
	s.resetLocked()
	s.status = Failed
	s.lastErr = err
	s.setNotice(NoticeError, services.UserMessage(err))
	s.mu.Unlock()

	logging.WithContext(ctx, s.logger).Error("teach-back cycle failed",
		logging.String(logging.FieldStage, stage),
		logging.Error(err),
		logging.String(logging.FieldEventType, "cycle_failed"),
		logging.String(logging.FieldErrorHint, services.UserMessage(err)),
	)
	s.notify()
	return err
}
