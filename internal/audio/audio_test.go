package audio_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"teachback/internal/audio"
	"teachback/internal/testsupport"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		bytes int
		rate  int
		want  time.Duration
	}{
		{48000, 24000, time.Second},
		{8000, 16000, 250 * time.Millisecond},
		{0, 24000, 0},
		{100, 0, 0},
	}
	for _, tt := range tests {
		if got := audio.Duration(tt.bytes, tt.rate); got != tt.want {
			t.Fatalf("Duration(%d, %d) = %v, want %v", tt.bytes, tt.rate, got, tt.want)
		}
	}
	if got := audio.ChunkBytes(16000, 256*time.Millisecond); got != 8192 {
		t.Fatalf("ChunkBytes = %d, want 8192", got)
	}
	if got := audio.MIMEType(16000); got != "audio/pcm;rate=16000" {
		t.Fatalf("MIMEType = %q", got)
	}
}

func TestWAVFraming(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	wav, err := audio.EncodeWAV(pcm, 24000)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if len(wav) != 44+len(pcm) || string(wav[:4]) != "RIFF" || string(wav[36:40]) != "data" {
		t.Fatalf("unexpected header % x", wav[:44])
	}

	// An extra LIST chunk before data must be skipped.
	withList := append([]byte{}, wav[:36]...)
	withList = append(withList, 'L', 'I', 'S', 'T', 3, 0, 0, 0, 'a', 'b', 'c', 0)
	withList = append(withList, wav[36:]...)

	for name, data := range map[string][]byte{"plain": wav, "extra chunk": withList} {
		got, rate, err := audio.DecodeWAV(data)
		if err != nil {
			t.Fatalf("%s: DecodeWAV: %v", name, err)
		}
		if rate != 24000 || !bytes.Equal(got, pcm) {
			t.Fatalf("%s: rate %d pcm % x", name, rate, got)
		}
	}

	if _, _, err := audio.DecodeWAV([]byte("ID3 not a wav file")); err == nil {
		t.Fatal("expected error for non-WAV input")
	}
}

func TestCaptureDeliversChunks(t *testing.T) {
	dir := t.TempDir()
	testsupport.StubBinaries(t, dir, "#!/bin/sh\nhead -c 20000 /dev/zero\n", "fake-record")

	c, err := audio.StartCapture(context.Background(), "fake-record", 16000, 256*time.Millisecond)
	if err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	defer c.Close()

	total := 0
	chunks := 0
	for chunk := range c.Chunks() {
		total += len(chunk)
		chunks++
	}
	if total != 20000 || chunks != 3 {
		t.Fatalf("got %d bytes in %d chunks", total, chunks)
	}
	if err := c.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestCaptureCloseStopsRecorder(t *testing.T) {
	dir := t.TempDir()
	testsupport.StubBinaries(t, dir, "#!/bin/sh\nexec cat /dev/zero\n", "endless-record")

	c, err := audio.StartCapture(context.Background(), "endless-record", 16000, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	<-c.Chunks()

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not stop the recorder")
	}
}

func TestPlayerWritesPCM(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "played.raw")
	t.Setenv("PLAYBACK_OUT", out)
	testsupport.StubBinaries(t, dir, "#!/bin/sh\ncat >> \"$PLAYBACK_OUT\"\n", "fake-play")

	p := audio.NewPlayer("fake-play", 24000)
	if err := p.Write([]byte("abcd")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := p.Write([]byte("efgh")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != "abcdefgh" {
		t.Fatalf("played %q", got)
	}

	if err := audio.Play(context.Background(), "fake-play", 24000, []byte("ijkl")); err != nil {
		t.Fatalf("Play: %v", err)
	}
	got, _ = os.ReadFile(out)
	if string(got) != "abcdefghijkl" {
		t.Fatalf("played %q", got)
	}
}

func TestPlayerResetAllowsReuse(t *testing.T) {
	dir := t.TempDir()
	testsupport.StubBinaries(t, dir, "#!/bin/sh\ncat > /dev/null\n", "sink-play")

	p := audio.NewPlayer("sink-play", 24000)
	if err := p.Write(make([]byte, 64)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := p.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := p.Write(make([]byte, 64)); err != nil {
		t.Fatalf("Write after Reset: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
