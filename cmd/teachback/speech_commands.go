package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"teachback/internal/audio"
	"teachback/internal/fileutil"
	"teachback/internal/language"
	"teachback/internal/preflight"
	"teachback/internal/services"
	"teachback/internal/speech"
)

func newSpeakCommand(ctx *commandContext) *cobra.Command {
	var langFlag string
	var outPath string

	cmd := &cobra.Command{
		Use:   "speak <text>",
		Short: "Read text aloud in a supported language",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			svc, err := ctx.newSpeech(cmd.Context())
			if err != nil {
				return err
			}
			lang := strings.TrimSpace(langFlag)
			if lang == "" {
				lang = cfg.Speech.Language
			}
			sp, err := svc.Synthesize(cmd.Context(), strings.Join(args, " "), lang)
			if err != nil {
				return err
			}
			return deliverSpeech(cmd, ctx, sp, outPath)
		},
	}
	cmd.Flags().StringVarP(&langFlag, "lang", "l", "", "Language code or name (default: speech.language)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write a WAV file instead of playing")
	return cmd
}

// deliverSpeech plays synthesized audio or writes it as WAV.
func deliverSpeech(cmd *cobra.Command, ctx *commandContext, sp speech.Speech, outPath string) error {
	out := cmd.OutOrStdout()
	if target := strings.TrimSpace(outPath); target != "" {
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		err := fileutil.WriteAtomic(target, 0o644, func(w io.Writer) error {
			return audio.WriteWAV(w, sp.PCM, sp.Rate)
		})
		if err != nil {
			return fmt.Errorf("write audio: %w", err)
		}
		fmt.Fprintf(out, "Wrote %s audio (voice %s) to %s\n", language.DisplayName(sp.Language), sp.Voice, target)
		return nil
	}
	cfg := ctx.configValue()
	if err := audio.Play(cmd.Context(), cfg.Audio.PlaybackCommand, sp.Rate, sp.PCM); err != nil {
		return services.Wrap(services.ErrDeviceUnavailable, "speech", "play", "Failed to play audio.", err)
	}
	return nil
}

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var fromFlag, toFlag string
	var fileFlag, textFlag string
	var recordFlag time.Duration
	var speakFlag bool
	var outPath string

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate spoken or written text between supported languages",
		Long: "Translates --text directly, or transcribes a recording (--file WAV/MP3, or --record DURATION from the microphone) and translates the transcript.\n" +
			"Supported languages: " + strings.Join(language.Codes(), ", "),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			svc, err := ctx.newSpeech(cmd.Context())
			if err != nil {
				return err
			}
			to := strings.TrimSpace(toFlag)
			if to == "" {
				to = cfg.Speech.Language
			}
			out := cmd.OutOrStdout()

			var translated string
			switch {
			case strings.TrimSpace(textFlag) != "":
				translated, err = svc.Translate(cmd.Context(), textFlag, to)
				if err != nil {
					return err
				}
			case strings.TrimSpace(fileFlag) != "" || recordFlag > 0:
				clip, mimeType, err := loadRecording(cmd, cfg.Audio.CaptureCommand, cfg.Audio.InputSampleRate, fileFlag, recordFlag)
				if err != nil {
					return err
				}
				result, err := svc.TranscribeAndTranslate(cmd.Context(), clip, mimeType, fromFlag, to)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %s\n", language.DisplayName(result.From), result.Transcript)
				translated = result.Text
			default:
				return fmt.Errorf("provide --text, --file or --record")
			}

			fmt.Fprintf(out, "%s: %s\n", language.DisplayName(to), translated)
			if !speakFlag && strings.TrimSpace(outPath) == "" {
				return nil
			}
			sp, err := svc.Synthesize(cmd.Context(), translated, to)
			if err != nil {
				return err
			}
			return deliverSpeech(cmd, ctx, sp, outPath)
		},
	}
	cmd.Flags().StringVar(&fromFlag, "from", "en", "Spoken language of the recording")
	cmd.Flags().StringVar(&toFlag, "to", "", "Target language (default: speech.language)")
	cmd.Flags().StringVarP(&textFlag, "text", "t", "", "Text to translate")
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "WAV or MP3 recording to transcribe")
	cmd.Flags().DurationVar(&recordFlag, "record", 0, "Record from the microphone for this long (e.g. 8s)")
	cmd.Flags().BoolVar(&speakFlag, "speak", false, "Read the translation aloud")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the spoken translation to a WAV file")
	cmd.MarkFlagsMutuallyExclusive("text", "file", "record")
	return cmd
}

// loadRecording returns audio bytes and their MIME type from a file or the microphone.
func loadRecording(cmd *cobra.Command, captureCommand string, rate int, file string, d time.Duration) ([]byte, string, error) {
	if path := strings.TrimSpace(file); path != "" {
		mimeType, err := audioMIMEType(path)
		if err != nil {
			return nil, "", err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", services.Wrap(services.ErrNotFound, "translate", "read", "recording not found", err)
		}
		return data, mimeType, nil
	}
	if err := preflight.CheckCapture(cmd.Context(), captureCommand); err != nil {
		return nil, "", err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Recording for %s...\n", d)
	pcm, err := audio.Record(cmd.Context(), captureCommand, rate, d)
	if err != nil {
		return nil, "", services.Wrap(services.ErrDeviceUnavailable, "translate", "record", "Could not access microphone.", err)
	}
	clip, err := audio.EncodeWAV(pcm, rate)
	if err != nil {
		return nil, "", err
	}
	return clip, "audio/wav", nil
}

func audioMIMEType(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav", nil
	case ".mp3":
		return "audio/mp3", nil
	}
	return "", services.Wrap(services.ErrValidation, "translate", "read", fmt.Sprintf("unsupported recording format %q; use WAV or MP3", filepath.Ext(path)), nil)
}
