package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"teachback/internal/logging"
	"teachback/internal/services"
)

// RetryDirective is appended to the prompt for the single corrective retry.
const RetryDirective = "The previous attempt failed to produce valid JSON. Please ensure your output is a single, valid JSON object matching the schema, with no additional text or explanations."

const (
	maxAttempts        = 2
	defaultTemperature = 0.5
	defaultTimeout     = 90 * time.Second
)

// Gateway validates model output against a schema and retries malformed replies once.
type Gateway struct {
	backend     Backend
	logger      *slog.Logger
	timeout     time.Duration
	temperature float64
}

// Option customizes the gateway.
type Option func(*Gateway)

// WithLogger sets the gateway logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithTimeout bounds each attempt. Zero or negative disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		g.timeout = timeout
	}
}

// WithTemperature sets the default sampling temperature.
func WithTemperature(temperature float64) Option {
	return func(g *Gateway) {
		g.temperature = temperature
	}
}

// NewGateway wraps backend.
func NewGateway(backend Backend, opts ...Option) *Gateway {
	g := &Gateway{
		backend:     backend,
		timeout:     defaultTimeout,
		temperature: defaultTemperature,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.NewComponentLogger(g.logger, "ai-gateway")
	return g
}

// Call runs spec through g and returns the reply decoded into a fresh T.
// finish may normalize and check the candidate; an error from finish counts
// as a malformed reply and triggers the retry.
func Call[T any](ctx context.Context, g *Gateway, spec PromptSpec, schema *jsonschema.Schema, finish func(*T) error) (T, error) {
	var out T
	err := g.Do(ctx, spec, schema, func(payload []byte) error {
		var candidate T
		if err := json.Unmarshal(payload, &candidate); err != nil {
			return fmt.Errorf("decode into %T: %w", candidate, err)
		}
		if finish != nil {
			if err := finish(&candidate); err != nil {
				return fmt.Errorf("content check: %w", err)
			}
		}
		out = candidate
		return nil
	})
	return out, err
}

// Do runs spec against the backend. accept receives the schema-valid reply
// re-encoded as compact JSON; it is called at most once per attempt.
func (g *Gateway) Do(ctx context.Context, spec PromptSpec, schema *jsonschema.Schema, accept func(payload []byte) error) error {
	op := strings.TrimSpace(spec.Op)
	if op == "" {
		op = "generate"
	}
	if g == nil || g.backend == nil {
		return services.Wrap(services.ErrConfiguration, "gateway", op, "no backend configured", nil)
	}
	if err := spec.Content.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, "gateway", op, "invalid content", err)
	}
	if schema == nil {
		return services.Wrap(services.ErrConfiguration, "gateway", op, "response schema required", nil)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "gateway", op, "resolve response schema", err)
	}

	temperature := g.temperature
	if spec.Temperature != nil {
		temperature = *spec.Temperature
	}
	basePrompt := buildPrompt(spec)
	logger := logging.WithContext(ctx, g.logger).With(logging.String("op", op))

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		prompt := basePrompt
		if attempt > 1 {
			prompt += "\n\n" + RetryDirective
		}
		req := Request{
			SystemInstruction: spec.SystemInstruction,
			Prompt:            prompt,
			Image:             spec.Content.Image,
			Schema:            schema,
			Temperature:       temperature,
		}

		started := time.Now()
		lastErr = g.attempt(ctx, req, resolved, accept)
		if lastErr == nil {
			logger.Debug("gateway call succeeded",
				logging.Int(logging.FieldAttempt, attempt),
				logging.Duration("elapsed", time.Since(started)),
			)
			return nil
		}
		if ctx.Err() != nil {
			return services.Wrap(services.ErrGenerationFailure, "gateway", op, "cancelled", ctx.Err())
		}
		logging.WarnWithContext(logger, "gateway attempt failed", "gateway_attempt_failed",
			logging.Int(logging.FieldAttempt, attempt),
			logging.Error(lastErr),
			logging.String(logging.FieldErrorHint, "the model reply was not valid JSON for the schema"),
			logging.String(logging.FieldImpact, retryImpact(attempt)),
		)
	}
	return services.Wrap(services.ErrGenerationFailure, "gateway", op,
		fmt.Sprintf("no valid reply after %d attempts", maxAttempts), lastErr)
}

func (g *Gateway) attempt(ctx context.Context, req Request, resolved *jsonschema.Resolved, accept func([]byte) error) error {
	attemptCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	raw, err := g.backend.GenerateJSON(attemptCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return services.Wrap(services.ErrTimeout, "gateway", "backend", fmt.Sprintf("no reply within %s", g.timeout), err)
		}
		return fmt.Errorf("backend: %w", err)
	}

	var instance any
	if err := DecodeJSON(raw, &instance); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	if _, ok := instance.(map[string]any); !ok {
		return fmt.Errorf("reply is not a JSON object (payload snippet: %s)", Snippet(raw))
	}
	if err := resolved.Validate(instance); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	normalized, err := json.Marshal(instance)
	if err != nil {
		return fmt.Errorf("re-encode reply: %w", err)
	}
	if accept == nil {
		return nil
	}
	return accept(normalized)
}

func retryImpact(attempt int) string {
	if attempt < maxAttempts {
		return "retrying once with a strict JSON directive"
	}
	return "generation failed"
}
