package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	xlanguage "golang.org/x/text/language"

	"teachback/internal/ai"
	"teachback/internal/audio"
	"teachback/internal/chat"
	"teachback/internal/config"
	"teachback/internal/glossary"
	"teachback/internal/language"
	"teachback/internal/live"
	"teachback/internal/logging"
	"teachback/internal/persistence"
	"teachback/internal/pipeline"
	"teachback/internal/preflight"
	"teachback/internal/services"
	"teachback/internal/session"
	"teachback/internal/speech"
	"teachback/internal/store"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	kv       *store.SQLite
	backends *backends
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) verbose() bool {
	return c.verboseFlag != nil && *c.verboseFlag
}

func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg := c.configValue()
		now := timeNow()
		var rotateErr error
		if cfg != nil {
			_, rotateErr = logging.RotateIfLarge(cfg.Paths.LogDir, int64(cfg.Logging.MaxFileMB)<<20, now)
		}
		logger, err := logging.NewFromConfig(cfg, c.verbose())
		if err != nil {
			logger = logging.NewNop()
		}
		if rotateErr != nil {
			logger.Warn("log rotation failed", logging.Error(rotateErr))
		}
		if cfg != nil {
			logging.CleanupOldLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, now)
		}
		c.logger = logger
	})
	return c.logger
}

// store opens the key-value store once per invocation; close releases it.
func (c *commandContext) store() (*store.SQLite, error) {
	if c.kv != nil {
		return c.kv, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	kv, err := store.Open(cfg)
	if err != nil {
		if errors.Is(err, store.ErrLocked) {
			return nil, fmt.Errorf("another teachback process is using %s; close it and retry", cfg.Paths.DataDir)
		}
		return nil, err
	}
	c.kv = kv
	return kv, nil
}

func (c *commandContext) close() error {
	if c.kv == nil {
		return nil
	}
	err := c.kv.Close()
	c.kv = nil
	return err
}

func (c *commandContext) models(ctx context.Context) (*backends, error) {
	if c.backends != nil {
		return c.backends, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	b, err := newBackends(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.backends = b
	return b, nil
}

// newSession wires the orchestrator over the store and the configured backend.
func (c *commandContext) newSession(ctx context.Context) (*session.Session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	kv, err := c.store()
	if err != nil {
		return nil, err
	}
	logger := c.log()
	var stages session.Pipeline = unavailablePipeline{}
	if b, err := c.models(ctx); err == nil {
		gateway := ai.NewGateway(b.json,
			ai.WithLogger(logger),
			ai.WithTimeout(cfg.RequestTimeout()),
			ai.WithTemperature(cfg.AI.Temperature),
		)
		stages = pipeline.New(gateway, logger)
	} else {
		stages = unavailablePipeline{err: err}
	}
	return session.New(stages,
		persistence.NewSessions(kv, logger),
		persistence.NewCounters(kv),
		logger,
		session.Options{
			ConfidenceThreshold: cfg.Classification.ConfidenceThreshold,
			MinInputChars:       cfg.Classification.MinInputChars,
		},
	), nil
}

func (c *commandContext) newGlossary(ctx context.Context) (*glossary.Glossary, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	kv, err := c.store()
	if err != nil {
		return nil, err
	}
	return glossary.Load(ctx, kv, xlanguage.Make(language.Tag(cfg.Speech.Language)), c.log())
}

func (c *commandContext) newChat(ctx context.Context) *chat.Chat {
	var streamer chat.Streamer = unavailableStreamer{}
	if b, err := c.models(ctx); err == nil {
		streamer = b.chat
	} else {
		streamer = unavailableStreamer{err: err}
	}
	return chat.New(streamer, c.log())
}

func (c *commandContext) newSpeech(ctx context.Context) (*speech.Service, error) {
	b, err := c.models(ctx)
	if err != nil {
		return nil, err
	}
	return speech.NewService(b.speech, c.log()), nil
}

// newLive wires the voice session to the capture and playback commands.
func (c *commandContext) newLive(ctx context.Context) *live.Session {
	cfg := c.configValue()
	b, modelsErr := c.models(ctx)
	opts := live.Options{
		Capture: func(runCtx context.Context) (live.Capturer, error) {
			chunk := time.Duration(cfg.Audio.ChunkMillis) * time.Millisecond
			capture, err := audio.StartCapture(runCtx, cfg.Audio.CaptureCommand, cfg.Audio.InputSampleRate, chunk)
			if err != nil {
				return nil, err
			}
			return capture, nil
		},
		Sink:       audio.NewPlayer(cfg.Audio.PlaybackCommand, cfg.Audio.OutputSampleRate),
		OutputRate: cfg.Audio.OutputSampleRate,
		Connect: live.ConnectConfig{
			SystemInstruction: live.SystemInstruction,
			Voice:             language.Voice(cfg.Speech.Language),
			InputSampleRate:   cfg.Audio.InputSampleRate,
		},
		Logger: c.log(),
	}
	opts.Preflight = func() error {
		switch {
		case modelsErr != nil:
			return modelsErr
		case b.live == nil:
			return services.Wrap(services.ErrUnsupportedBrowser, "live", "preflight",
				fmt.Sprintf("provider %q has no live audio support", cfg.AI.Provider), nil)
		}
		return preflight.CheckCapture(context.Background(), cfg.Audio.CaptureCommand)
	}
	if modelsErr == nil && b.live != nil {
		opts.Backend = b.live
	}
	return live.NewSession(opts)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
