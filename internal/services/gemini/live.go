package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"teachback/internal/audio"
	"teachback/internal/live"
)

type liveSession interface {
	SendRealtimeInput(input genai.LiveRealtimeInput) error
	Receive() (*genai.LiveServerMessage, error)
	Close() error
}

type liveConnector func(ctx context.Context, model string, config *genai.LiveConnectConfig) (liveSession, error)

func sdkConnector(l *genai.Live) liveConnector {
	return func(ctx context.Context, model string, config *genai.LiveConnectConfig) (liveSession, error) {
		if l == nil {
			return nil, errors.New("live api unavailable for this backend")
		}
		return l.Connect(ctx, model, config)
	}
}

// Connect implements live.Backend with audio replies and both transcripts
// enabled.
func (c *Client) Connect(ctx context.Context, cfg live.ConnectConfig) (live.Conn, error) {
	config := &genai.LiveConnectConfig{
		ResponseModalities:       []genai.Modality{genai.ModalityAudio},
		SpeechConfig:             speechConfig(cfg.Voice),
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
	}
	if cfg.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(cfg.SystemInstruction, genai.RoleUser)
	}
	session, err := c.connect(ctx, c.cfg.LiveModel, config)
	if err != nil {
		return nil, fmt.Errorf("gemini live: connect: %w", err)
	}
	rate := cfg.InputSampleRate
	if rate <= 0 {
		rate = 16000
	}
	return &liveConn{session: session, mimeType: audio.MIMEType(rate)}, nil
}

type liveConn struct {
	session  liveSession
	mimeType string
}

func (l *liveConn) SendAudio(pcm []byte) error {
	return l.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{Data: pcm, MIMEType: l.mimeType},
	})
}

func (l *liveConn) Receive() (live.Message, error) {
	msg, err := l.session.Receive()
	if err != nil {
		return live.Message{}, err
	}
	return translateMessage(msg), nil
}

func (l *liveConn) Close() error {
	return l.session.Close()
}

func translateMessage(msg *genai.LiveServerMessage) live.Message {
	var out live.Message
	if msg == nil || msg.ServerContent == nil {
		return out
	}
	content := msg.ServerContent
	if content.InputTranscription != nil {
		out.InputTranscript = content.InputTranscription.Text
	}
	if content.OutputTranscription != nil {
		out.OutputTranscript = content.OutputTranscription.Text
	}
	if content.ModelTurn != nil {
		for _, part := range content.ModelTurn.Parts {
			if part != nil && part.InlineData != nil {
				out.Audio = append(out.Audio, part.InlineData.Data...)
			}
		}
	}
	out.TurnComplete = content.TurnComplete
	out.Interrupted = content.Interrupted
	return out
}
