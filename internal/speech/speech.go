// Package speech reads text aloud in the user's language and turns recorded
// speech into a transcript translated into another language.
package speech

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"teachback/internal/language"
	"teachback/internal/logging"
	"teachback/internal/services"
)

// OutputSampleRate is the rate of synthesized PCM.
const OutputSampleRate = 24000

// Backend is the model surface speech needs.
type Backend interface {
	// SynthesizeSpeech returns 16-bit mono PCM at OutputSampleRate.
	SynthesizeSpeech(ctx context.Context, text, voice string) ([]byte, error)
	// TranscribeAudio runs instruction over one audio clip.
	TranscribeAudio(ctx context.Context, audio []byte, mimeType, instruction string) (string, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Speech is synthesized audio.
type Speech struct {
	PCM      []byte
	Rate     int
	Voice    string
	Language string
}

// Translation is the result of TranscribeAndTranslate.
type Translation struct {
	Transcript string
	Text       string
	From       string
	To         string
}

// Service wraps a Backend.
type Service struct {
	backend Backend
	logger  *slog.Logger
}

// NewService returns a speech service.
func NewService(backend Backend, logger *slog.Logger) *Service {
	return &Service{backend: backend, logger: logging.NewComponentLogger(logger, "speech")}
}

// Synthesize reads text aloud with the voice mapped to lang.
func (s *Service) Synthesize(ctx context.Context, text, lang string) (Speech, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Speech{}, services.Wrap(services.ErrValidation, "speech", "synthesize", "nothing to read aloud", nil)
	}
	code := language.Normalize(lang)
	if code == "" {
		return Speech{}, services.Wrap(services.ErrValidation, "speech", "synthesize", fmt.Sprintf("unsupported language %q", lang), nil)
	}
	voice := language.Voice(code)
	pcm, err := s.backend.SynthesizeSpeech(ctx, text, voice)
	if err != nil {
		return Speech{}, services.Wrap(services.ErrGenerationFailure, "speech", "synthesize", "Failed to generate audio for the translated text.", err)
	}
	if len(pcm) == 0 {
		return Speech{}, services.Wrap(services.ErrGenerationFailure, "speech", "synthesize", "no audio data returned", nil)
	}
	s.logger.Debug("speech synthesized",
		logging.String("language", code),
		logging.String("voice", voice),
		logging.Int("bytes", len(pcm)),
	)
	return Speech{PCM: pcm, Rate: OutputSampleRate, Voice: voice, Language: code}, nil
}

// TranscribeAndTranslate transcribes audio spoken in from and translates the
// transcript into to. An empty transcript is an error.
func (s *Service) TranscribeAndTranslate(ctx context.Context, audio []byte, mimeType, from, to string) (Translation, error) {
	fromCode, toCode := language.Normalize(from), language.Normalize(to)
	if fromCode == "" || toCode == "" {
		return Translation{}, services.Wrap(services.ErrValidation, "speech", "translate", fmt.Sprintf("unsupported language pair %q -> %q", from, to), nil)
	}
	if len(audio) == 0 {
		return Translation{}, services.Wrap(services.ErrInputTooShort, "speech", "transcribe", "no audio recorded", nil)
	}

	instruction := fmt.Sprintf("Transcribe the following audio. The speaker's language is %s.", fromCode)
	transcript, err := s.backend.TranscribeAudio(ctx, audio, mimeType, instruction)
	if err != nil {
		return Translation{}, services.Wrap(services.ErrGenerationFailure, "speech", "transcribe", "Failed to process audio. Please try again.", err)
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return Translation{}, services.Wrap(services.ErrGenerationFailure, "speech", "transcribe", "transcription returned empty text", nil)
	}

	text, err := s.Translate(ctx, transcript, toCode)
	if err != nil {
		return Translation{}, err
	}
	s.logger.Info("audio transcribed and translated",
		logging.String("from", fromCode),
		logging.String("to", toCode),
		logging.Int("transcript_chars", len(transcript)),
	)
	return Translation{Transcript: transcript, Text: text, From: fromCode, To: toCode}, nil
}

// Translate renders text in the language to.
func (s *Service) Translate(ctx context.Context, text, to string) (string, error) {
	code := language.Normalize(to)
	if code == "" {
		return "", services.Wrap(services.ErrValidation, "speech", "translate", fmt.Sprintf("unsupported language %q", to), nil)
	}
	prompt := fmt.Sprintf("Translate the following text to %s:\n\n---\n%s\n---", language.DisplayName(code), strings.TrimSpace(text))
	out, err := s.backend.GenerateText(ctx, prompt)
	if err != nil {
		return "", services.Wrap(services.ErrGenerationFailure, "speech", "translate", "translation failed", err)
	}
	return strings.TrimSpace(out), nil
}
