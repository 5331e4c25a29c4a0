package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

var commandContext = exec.CommandContext

func rawArgs(rate int) []string {
	return []string{"-q", "-t", "raw", "-f", "S16_LE", "-c", "1", "-r", strconv.Itoa(rate)}
}

// Capture reads microphone PCM from a recorder subprocess in fixed-size chunks.
type Capture struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	chunks chan []byte
	done   chan struct{}

	mu  sync.Mutex
	err error

	closeOnce sync.Once
}

// StartCapture launches binary and delivers chunk-sized PCM buffers until ctx
// ends, the recorder exits, or Close is called.
func StartCapture(ctx context.Context, binary string, rate int, chunk time.Duration) (*Capture, error) {
	ctx, cancel := context.WithCancel(ctx)
	cmd := commandContext(ctx, binary, rawArgs(rate)...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}
	c := &Capture{
		cmd:    cmd,
		cancel: cancel,
		chunks: make(chan []byte, 8),
		done:   make(chan struct{}),
	}
	go c.read(ctx, stdout, ChunkBytes(rate, chunk))
	return c, nil
}

func (c *Capture) read(ctx context.Context, r io.Reader, size int) {
	defer close(c.done)
	defer close(c.chunks)
	for {
		buf := make([]byte, size)
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			select {
			case c.chunks <- buf[:n]:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && ctx.Err() == nil {
				c.setErr(fmt.Errorf("read capture: %w", err))
			}
			return
		}
	}
}

func (c *Capture) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
	}
}

// Chunks delivers captured audio. It is closed when capture ends.
func (c *Capture) Chunks() <-chan []byte {
	return c.chunks
}

// Err returns the first read error, if any.
func (c *Capture) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close stops the recorder and waits for it to exit. It is safe to call more
// than once.
func (c *Capture) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		<-c.done
		_ = c.cmd.Wait()
	})
	return nil
}

// Player streams PCM into a player subprocess started on first write.
type Player struct {
	binary string
	rate   int

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// NewPlayer returns a player for rate Hz mono PCM.
func NewPlayer(binary string, rate int) *Player {
	return &Player{binary: binary, rate: rate}
}

// Rate returns the playback sample rate.
func (p *Player) Rate() int {
	return p.rate
}

// Write queues pcm for playback. It blocks while the player's buffer is full.
func (p *Player) Write(pcm []byte) error {
	p.mu.Lock()
	if p.stdin == nil {
		if err := p.startLocked(); err != nil {
			p.mu.Unlock()
			return err
		}
	}
	w := p.stdin
	p.mu.Unlock()
	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("write playback: %w", err)
	}
	return nil
}

func (p *Player) startLocked() error {
	cmd := commandContext(context.Background(), p.binary, rawArgs(p.rate)...) //nolint:gosec
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.binary, err)
	}
	p.cmd = cmd
	p.stdin = stdin
	return nil
}

// Reset drops queued audio by killing the player. The next Write starts a
// fresh one.
func (p *Player) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked(true)
}

// Close lets queued audio finish and releases the player.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked(false)
}

func (p *Player) stopLocked(kill bool) error {
	if p.cmd == nil {
		return nil
	}
	cmd, stdin := p.cmd, p.stdin
	p.cmd, p.stdin = nil, nil
	if kill && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	_ = stdin.Close()
	if err := cmd.Wait(); err != nil && !kill {
		return fmt.Errorf("%s exited: %w", p.binary, err)
	}
	return nil
}

// Play writes pcm to a new player and waits until it has been played.
func Play(ctx context.Context, binary string, rate int, pcm []byte) error {
	cmd := commandContext(ctx, binary, rawArgs(rate)...) //nolint:gosec
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", binary, err)
	}
	_, writeErr := stdin.Write(pcm)
	_ = stdin.Close()
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s exited: %w", binary, err)
	}
	if writeErr != nil {
		return fmt.Errorf("write playback: %w", writeErr)
	}
	return nil
}

// Record captures audio for d and returns the PCM.
func Record(ctx context.Context, binary string, rate int, d time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	c, err := StartCapture(ctx, binary, rate, 250*time.Millisecond)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	var pcm []byte
	for chunk := range c.Chunks() {
		pcm = append(pcm, chunk...)
	}
	return pcm, c.Err()
}
