package live_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"teachback/internal/live"
	"teachback/internal/logging"
	"teachback/internal/services"
	"teachback/internal/teachback"
)

type fakeSink struct {
	mu     sync.Mutex
	writes [][]byte
	resets int
	closes int
}

func (s *fakeSink) Write(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, pcm)
	return nil
}

func (s *fakeSink) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	return nil
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *fakeSink) counts() (writes, resets, closes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes), s.resets, s.closes
}

type fakeConn struct {
	recv      chan live.Message
	sent      chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	recvErr   chan error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		recv:    make(chan live.Message, 8),
		sent:    make(chan []byte, 8),
		closed:  make(chan struct{}),
		recvErr: make(chan error, 1),
	}
}

func (c *fakeConn) SendAudio(pcm []byte) error {
	select {
	case <-c.closed:
		return errors.New("closed")
	case c.sent <- pcm:
		return nil
	}
}

func (c *fakeConn) Receive() (live.Message, error) {
	select {
	case <-c.closed:
		return live.Message{}, errors.New("closed")
	case err := <-c.recvErr:
		return live.Message{}, err
	case msg := <-c.recv:
		return msg, nil
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

type fakeBackend struct {
	conn      *fakeConn
	err       error
	started   chan struct{}
	release   chan struct{}
	mu        sync.Mutex
	connects  int
	honourCtx bool
}

func (b *fakeBackend) Connect(ctx context.Context, _ live.ConnectConfig) (live.Conn, error) {
	b.mu.Lock()
	b.connects++
	b.mu.Unlock()
	if b.started != nil {
		close(b.started)
	}
	if b.release != nil {
		if b.honourCtx {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-b.release:
			}
		} else {
			<-b.release
		}
	}
	if b.err != nil {
		return nil, b.err
	}
	return b.conn, nil
}

type fakeCapture struct {
	chunks    chan []byte
	closeOnce sync.Once
	closed    bool
	mu        sync.Mutex
}

func newFakeCapture() *fakeCapture {
	return &fakeCapture{chunks: make(chan []byte, 8)}
}

func (c *fakeCapture) Chunks() <-chan []byte { return c.chunks }
func (c *fakeCapture) Err() error            { return nil }

func (c *fakeCapture) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.chunks)
	})
	return nil
}

func (c *fakeCapture) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type rig struct {
	backend  *fakeBackend
	capture  *fakeCapture
	sink     *fakeSink
	captures int
	sess     *live.Session
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{
		backend: &fakeBackend{conn: newFakeConn()},
		capture: newFakeCapture(),
		sink:    &fakeSink{},
	}
	r.sess = live.NewSession(live.Options{
		Backend: r.backend,
		Capture: func(context.Context) (live.Capturer, error) {
			r.captures++
			return r.capture, nil
		},
		Sink:       r.sink,
		OutputRate: 24000,
		Logger:     logging.NewNop(),
	})
	t.Cleanup(r.sess.Stop)
	return r
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSessionStreamsAndFlushesTurns(t *testing.T) {
	r := newRig(t)
	if err := r.sess.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if st := r.sess.Status(); st.State != live.Active {
		t.Fatalf("state = %s", st.State)
	}

	r.capture.chunks <- []byte{1, 2, 3, 4}
	select {
	case got := <-r.backend.conn.sent:
		if len(got) != 4 {
			t.Fatalf("sent %d bytes", len(got))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("captured audio never sent")
	}

	conn := r.backend.conn
	conn.recv <- live.Message{InputTranscript: " What is "}
	conn.recv <- live.Message{InputTranscript: "Eliquis? ", OutputTranscript: " It is a "}
	conn.recv <- live.Message{OutputTranscript: "blood thinner. ", Audio: make([]byte, 4800)}
	conn.recv <- live.Message{TurnComplete: true}
	conn.recv <- live.Message{OutputTranscript: "   ", TurnComplete: true}

	waitFor(t, "transcript", func() bool { return len(r.sess.Status().Transcript) == 2 })
	got := r.sess.Status().Transcript
	want := []teachback.Utterance{
		{Role: teachback.RoleUser, Text: "What is Eliquis?"},
		{Role: teachback.RoleModel, Text: "It is a blood thinner."},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("transcript = %+v, want %+v", got, want)
		}
	}
	waitFor(t, "playback write", func() bool { w, _, _ := r.sink.counts(); return w == 1 })

	conn.recv <- live.Message{Interrupted: true}
	waitFor(t, "playback reset", func() bool { _, resets, _ := r.sink.counts(); return resets == 1 })
}

func TestStopIsIdempotentAndReleasesEverything(t *testing.T) {
	r := newRig(t)
	if err := r.sess.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.sess.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	r.sess.Stop()
	r.sess.Stop()

	if st := r.sess.Status(); st.State != live.Idle {
		t.Fatalf("state = %s", st.State)
	}
	if !r.backend.conn.isClosed() || !r.capture.isClosed() {
		t.Fatal("connection or microphone left open")
	}
	if _, _, closes := r.sink.counts(); closes != 1 {
		t.Fatalf("sink closed %d times", closes)
	}
	if r.backend.connects != 1 {
		t.Fatalf("connects = %d", r.backend.connects)
	}
}

func TestStopDuringConnectCancelsSetup(t *testing.T) {
	r := newRig(t)
	r.backend.started = make(chan struct{})
	r.backend.release = make(chan struct{})
	r.backend.honourCtx = true

	result := make(chan error, 1)
	go func() { result <- r.sess.Start(context.Background()) }()
	<-r.backend.started
	if st := r.sess.Status(); st.State != live.Connecting {
		t.Fatalf("state = %s", st.State)
	}
	r.sess.Stop()

	select {
	case err := <-result:
		if !errors.Is(err, live.ErrStopped) {
			t.Fatalf("Start error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
	if r.captures != 0 {
		t.Fatal("microphone opened after Stop")
	}
	if st := r.sess.Status(); st.State != live.Idle {
		t.Fatalf("state = %s", st.State)
	}
}

func TestStopBeforeConnectReturnsReleasesConn(t *testing.T) {
	r := newRig(t)
	r.backend.started = make(chan struct{})
	r.backend.release = make(chan struct{})

	result := make(chan error, 1)
	go func() { result <- r.sess.Start(context.Background()) }()
	<-r.backend.started
	r.sess.Stop()
	close(r.backend.release)

	if err := <-result; !errors.Is(err, live.ErrStopped) {
		t.Fatalf("Start error = %v", err)
	}
	if !r.backend.conn.isClosed() {
		t.Fatal("late connection not closed")
	}
	if r.captures != 0 {
		t.Fatal("microphone opened after Stop")
	}
}

func TestCaptureFailureIsDeviceUnavailable(t *testing.T) {
	conn := newFakeConn()
	sess := live.NewSession(live.Options{
		Backend: &fakeBackend{conn: conn},
		Capture: func(context.Context) (live.Capturer, error) {
			return nil, errors.New("no such device")
		},
		Sink:   &fakeSink{},
		Logger: logging.NewNop(),
	})
	err := sess.Start(context.Background())
	if !errors.Is(err, services.ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
	if !conn.isClosed() {
		t.Fatal("connection not released")
	}
	st := sess.Status()
	if st.State != live.Idle || st.Notice != live.StartFailedText {
		t.Fatalf("status = %+v", st)
	}
}

func TestPreflightRunsFirst(t *testing.T) {
	backend := &fakeBackend{conn: newFakeConn()}
	preflight := services.Wrap(services.ErrUnsupportedBrowser, "live", "preflight", "provider has no voice sessions", nil)
	sess := live.NewSession(live.Options{
		Backend:   backend,
		Preflight: func() error { return preflight },
		Logger:    logging.NewNop(),
	})
	if err := sess.Start(context.Background()); !errors.Is(err, services.ErrUnsupportedBrowser) {
		t.Fatalf("Start error = %v", err)
	}
	if backend.connects != 0 {
		t.Fatal("backend contacted despite failed preflight")
	}
}

func TestReceiveErrorEndsSession(t *testing.T) {
	r := newRig(t)
	if err := r.sess.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	r.backend.conn.recvErr <- errors.New("socket reset")
	waitFor(t, "session to stop", func() bool { return r.sess.Status().State == live.Idle })
	st := r.sess.Status()
	if st.Notice != live.ConnectionLostText || st.Err == nil {
		t.Fatalf("status = %+v", st)
	}
	if !r.capture.isClosed() {
		t.Fatal("microphone left open")
	}
}

func TestDemoShowsCannedTranscript(t *testing.T) {
	r := newRig(t)
	r.sess.SetDemo(true)
	if got := len(r.sess.Status().Transcript); got != len(teachback.DemoLiveTranscript()) {
		t.Fatalf("transcript len = %d", got)
	}
	if err := r.sess.Start(context.Background()); !errors.Is(err, live.ErrDemo) {
		t.Fatalf("Start in demo error = %v", err)
	}
	r.sess.SetDemo(false)
	if st := r.sess.Status(); st.Demo || len(st.Transcript) != 0 {
		t.Fatalf("status after demo = %+v", st)
	}
}
