package live

import "context"

// ConnectConfig configures a backend voice session.
type ConnectConfig struct {
	SystemInstruction string
	Voice             string
	InputSampleRate   int
}

// Message is one server event. Several fields may be set at once.
type Message struct {
	Audio            []byte
	InputTranscript  string
	OutputTranscript string
	TurnComplete     bool
	Interrupted      bool
}

// Conn is an open voice session.
type Conn interface {
	SendAudio(pcm []byte) error
	// Receive blocks for the next server event.
	Receive() (Message, error)
	Close() error
}

// Backend opens voice sessions.
type Backend interface {
	Connect(ctx context.Context, cfg ConnectConfig) (Conn, error)
}

// Capturer yields microphone audio.
type Capturer interface {
	Chunks() <-chan []byte
	Err() error
	Close() error
}

// CaptureFunc starts microphone capture.
type CaptureFunc func(ctx context.Context) (Capturer, error)
