package main

import (
	"context"
	"iter"

	"teachback/internal/ai"
	"teachback/internal/chat"
	"teachback/internal/config"
	"teachback/internal/live"
	"teachback/internal/pipeline"
	"teachback/internal/preflight"
	"teachback/internal/services"
	"teachback/internal/services/gemini"
	"teachback/internal/services/llm"
	"teachback/internal/speech"
	"teachback/internal/teachback"
)

// backends groups the model surfaces one provider offers. live is nil when
// the provider has no voice sessions.
type backends struct {
	json   ai.Backend
	chat   chat.Streamer
	speech speech.Backend
	live   live.Backend
	pinger preflight.Pinger
}

// newBackends is replaced in tests.
var newBackends = buildBackends

func buildBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "backend", "init", err.Error(), nil)
	}
	switch cfg.AI.Provider {
	case config.ProviderOpenRouter:
		client := llm.NewClient(llm.Config{
			APIKey:         cfg.AI.APIKey,
			BaseURL:        cfg.AI.BaseURL,
			Model:          cfg.AI.Model,
			Referer:        cfg.AI.Referer,
			Title:          cfg.AI.Title,
			TimeoutSeconds: cfg.AI.TimeoutSeconds,
			Temperature:    cfg.AI.Temperature,
		}, llm.WithRetryMaxAttempts(cfg.AI.RetryAttempts))
		return &backends{json: client, chat: client, speech: client, pinger: client}, nil
	default:
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			TTSModel:    cfg.AI.TTSModel,
			LiveModel:   cfg.AI.LiveModel,
			BaseURL:     cfg.AI.BaseURL,
			Temperature: cfg.AI.Temperature,
		})
		if err != nil {
			return nil, err
		}
		return &backends{json: client, chat: client, speech: client, live: client, pinger: client}, nil
	}
}

// unavailablePipeline lets offline commands (load, demo, clear) run without a
// configured backend; generation reports why it cannot start.
type unavailablePipeline struct {
	err error
}

func (u unavailablePipeline) cause() error {
	if u.err != nil {
		return u.err
	}
	return services.Wrap(services.ErrConfiguration, "backend", "init", "no backend configured", nil)
}

func (u unavailablePipeline) Classify(context.Context, pipeline.Source) (teachback.ClassificationResult, error) {
	return teachback.ClassificationResult{}, u.cause()
}

func (u unavailablePipeline) Generate(context.Context, pipeline.Source, teachback.Category) (teachback.Content, error) {
	return teachback.Content{}, u.cause()
}

type unavailableStreamer struct {
	err error
}

func (u unavailableStreamer) StreamChat(context.Context, string, []teachback.Utterance, string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		yield("", unavailablePipeline(u).cause())
	}
}
