// Package live runs the voice Q&A session: microphone audio goes up to the
// backend, model audio is scheduled for gapless playback, and transcripts
// are collected per turn.
package live

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"teachback/internal/logging"
	"teachback/internal/services"
	"teachback/internal/teachback"
)

// SystemInstruction steers the voice assistant.
const SystemInstruction = "You are a calm, friendly patient-education assistant. Answer questions about medical instructions in short, plain sentences a sixth grader could follow. Do not diagnose or change treatment; suggest contacting the care team when a question needs a clinician."

// User-facing messages for session failures.
const (
	StartFailedText    = "Could not start session. Check microphone permissions and try again."
	ConnectionLostText = "A connection error occurred. The session will now close."
	DeviceRemovedText  = "The audio device was disconnected. The session has ended."
)

var (
	// ErrStopped is returned by Start when Stop ran before setup finished.
	ErrStopped = errors.New("live session stopped during setup")
	// ErrDemo is returned by Start while the demo transcript is shown.
	ErrDemo = errors.New("live session is showing the demo transcript")
)

// State is the session lifecycle position.
type State string

// Session states.
const (
	Idle       State = "idle"
	Connecting State = "connecting"
	Active     State = "active"
)

// Status is a snapshot for rendering.
type Status struct {
	State      State
	Transcript []teachback.Utterance
	Demo       bool
	// Notice is set when the session ended on its own.
	Notice string
	Err    error
}

// Options wires a Session.
type Options struct {
	Backend Backend
	Capture CaptureFunc
	Sink    Sink
	// Preflight runs before anything is acquired.
	Preflight  func() error
	OutputRate int
	Connect    ConnectConfig
	Logger     *slog.Logger
}

// Session is one voice conversation at a time.
type Session struct {
	opts   Options
	logger *slog.Logger

	mu         sync.Mutex
	state      State
	gen        uint64
	cancel     context.CancelFunc
	conn       Conn
	capture    Capturer
	scheduler  *Scheduler
	loops      *sync.WaitGroup
	transcript []teachback.Utterance
	inBuf      strings.Builder
	outBuf     strings.Builder
	demo       bool
	notice     string
	lastErr    error
	listeners  []func(Status)
}

// NewSession returns an idle session.
func NewSession(opts Options) *Session {
	if opts.OutputRate <= 0 {
		opts.OutputRate = 24000
	}
	return &Session{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "live"),
		state:  Idle,
	}
}

// OnChange registers fn to receive a status after each change.
func (s *Session) OnChange(fn func(Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Status returns the current state and transcript.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	return Status{
		State:      s.state,
		Transcript: append([]teachback.Utterance(nil), s.transcript...),
		Demo:       s.demo,
		Notice:     s.notice,
		Err:        s.lastErr,
	}
}

func (s *Session) notify() {
	s.mu.Lock()
	st := s.statusLocked()
	fns := append(([]func(Status))(nil), s.listeners...)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

// SetDemo shows the canned transcript instead of a live session. Turning
// demo on stops a running session.
func (s *Session) SetDemo(on bool) {
	if on {
		s.Stop()
	}
	s.mu.Lock()
	s.demo = on
	if on {
		s.transcript = teachback.DemoLiveTranscript()
	} else {
		s.transcript = nil
	}
	s.mu.Unlock()
	s.notify()
}

// Start connects the backend, opens the microphone and begins streaming. It
// returns once audio is flowing. Calling Start on a running session is a
// no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.demo:
		s.mu.Unlock()
		return ErrDemo
	case s.state != Idle:
		s.mu.Unlock()
		return nil
	}
	if s.opts.Preflight != nil {
		if err := s.opts.Preflight(); err != nil {
			s.lastErr = err
			s.notice = services.UserMessage(err)
			s.mu.Unlock()
			s.notify()
			return err
		}
	}
	s.gen++
	gen := s.gen
	// runCtx outlives Start; the caller's ctx only bounds setup.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	detach := context.AfterFunc(ctx, cancel)
	defer detach()
	s.cancel = cancel
	s.state = Connecting
	s.transcript = nil
	s.inBuf.Reset()
	s.outBuf.Reset()
	s.notice = ""
	s.lastErr = nil
	s.mu.Unlock()
	s.notify()

	conn, err := s.opts.Backend.Connect(runCtx, s.opts.Connect)
	if err != nil {
		return s.abortStart(gen, nil, nil, err)
	}
	if !s.current(gen) {
		_ = conn.Close()
		return ErrStopped
	}

	capture, err := s.opts.Capture(runCtx)
	if err != nil {
		return s.abortStart(gen, conn, nil, services.Wrap(services.ErrDeviceUnavailable, "live", "capture", "microphone unavailable", err))
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		_ = capture.Close()
		_ = conn.Close()
		return ErrStopped
	}
	s.conn = conn
	s.capture = capture
	s.scheduler = NewScheduler(s.opts.Sink, s.opts.OutputRate, nil, s.opts.Logger)
	s.state = Active
	scheduler := s.scheduler
	loops := &sync.WaitGroup{}
	s.loops = loops
	loops.Add(2)
	go s.sendLoop(runCtx, loops, gen, conn, capture)
	go s.receiveLoop(runCtx, loops, gen, conn, scheduler)
	detach()
	s.mu.Unlock()

	s.logger.Info("live session started", logging.String(logging.FieldEventType, "live_started"))
	s.notify()
	return nil
}

func (s *Session) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}

func (s *Session) abortStart(gen uint64, conn Conn, capture Capturer, err error) error {
	if capture != nil {
		_ = capture.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return ErrStopped
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = Idle
	s.lastErr = err
	s.notice = StartFailedText
	s.mu.Unlock()

	logging.WarnWithContext(s.logger, "live session failed to start", "live_start_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the microphone and the API key"),
	)
	s.notify()
	return err
}

// Stop ends the session and releases the microphone, the player and the
// backend connection. It is safe to call at any time, including while Start
// is still connecting.
func (s *Session) Stop() {
	s.stop("", nil)
}

func (s *Session) stop(notice string, cause error) {
	s.mu.Lock()
	if s.state == Idle {
		s.mu.Unlock()
		return
	}
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	conn, capture, scheduler, loops := s.conn, s.capture, s.scheduler, s.loops
	s.conn, s.capture, s.scheduler, s.loops = nil, nil, nil, nil
	s.state = Idle
	s.inBuf.Reset()
	s.outBuf.Reset()
	if notice != "" {
		s.notice = notice
		s.lastErr = cause
	}
	s.mu.Unlock()

	if capture != nil {
		_ = capture.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}
	if scheduler != nil {
		_ = scheduler.Close()
	}
	if loops != nil {
		loops.Wait()
	}

	s.logger.Info("live session stopped",
		logging.String(logging.FieldEventType, "live_stopped"),
		logging.Bool("on_error", cause != nil),
	)
	s.notify()
}

// StopWithNotice ends the session and records why, for example after the
// audio device disappeared.
func (s *Session) StopWithNotice(notice string, cause error) {
	s.stop(notice, cause)
}

func (s *Session) sendLoop(ctx context.Context, loops *sync.WaitGroup, gen uint64, conn Conn, capture Capturer) {
	defer loops.Done()
	for pcm := range capture.Chunks() {
		if err := conn.SendAudio(pcm); err != nil {
			if ctx.Err() == nil {
				go s.failed(gen, err)
			}
			return
		}
	}
	if err := capture.Err(); err != nil && ctx.Err() == nil {
		go s.failed(gen, services.Wrap(services.ErrDeviceUnavailable, "live", "capture", "microphone stopped", err))
	}
}

func (s *Session) receiveLoop(ctx context.Context, loops *sync.WaitGroup, gen uint64, conn Conn, scheduler *Scheduler) {
	defer loops.Done()
	for {
		msg, err := conn.Receive()
		if err != nil {
			if ctx.Err() == nil {
				go s.failed(gen, err)
			}
			return
		}
		s.handle(gen, msg, scheduler)
	}
}

// failed stops the session generation gen after a transport error. It runs
// on its own goroutine because stop waits for the loops.
func (s *Session) failed(gen uint64, err error) {
	if !s.current(gen) {
		return
	}
	logging.WarnWithContext(s.logger, "live session lost", "live_connection_lost",
		logging.Error(err),
		logging.String(logging.FieldImpact, "voice session closed"),
	)
	notice := ConnectionLostText
	if errors.Is(err, services.ErrDeviceUnavailable) {
		notice = services.UserMessage(err)
	}
	s.stop(notice, err)
}

func (s *Session) handle(gen uint64, msg Message, scheduler *Scheduler) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	if msg.InputTranscript != "" {
		s.inBuf.WriteString(msg.InputTranscript)
	}
	if msg.OutputTranscript != "" {
		s.outBuf.WriteString(msg.OutputTranscript)
	}
	changed := false
	if msg.TurnComplete {
		if in := strings.TrimSpace(s.inBuf.String()); in != "" {
			s.transcript = append(s.transcript, teachback.Utterance{Role: teachback.RoleUser, Text: in})
			changed = true
		}
		if out := strings.TrimSpace(s.outBuf.String()); out != "" {
			s.transcript = append(s.transcript, teachback.Utterance{Role: teachback.RoleModel, Text: out})
			changed = true
		}
		s.inBuf.Reset()
		s.outBuf.Reset()
	}
	s.mu.Unlock()

	if len(msg.Audio) > 0 {
		scheduler.Schedule(msg.Audio)
	}
	if msg.Interrupted {
		scheduler.Interrupt()
	}
	if changed {
		s.notify()
	}
}
