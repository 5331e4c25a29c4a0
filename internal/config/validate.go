package config

import (
	"errors"
	"fmt"
	"strings"

	"teachback/internal/language"
)

// Validate ensures the configuration is usable. A missing API key is not a
// validation error; see RequireAPIKey.
func (c *Config) Validate() error {
	if err := c.validateAI(); err != nil {
		return err
	}
	if err := c.validateClassification(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateSpeech(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAI() error {
	switch c.AI.Provider {
	case ProviderGemini, ProviderOpenRouter:
	default:
		return fmt.Errorf("ai.provider must be %q or %q, got %q", ProviderGemini, ProviderOpenRouter, c.AI.Provider)
	}
	if strings.TrimSpace(c.AI.Model) == "" {
		return errors.New("ai.model must be set")
	}
	if c.AI.Provider == ProviderOpenRouter && strings.TrimSpace(c.AI.BaseURL) == "" {
		return errors.New("ai.base_url must be set when ai.provider is openrouter")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return errors.New("ai.temperature must be between 0 and 2")
	}
	return ensurePositiveMap(map[string]int{
		"ai.timeout_seconds": c.AI.TimeoutSeconds,
		"ai.retry_attempts":  c.AI.RetryAttempts,
	})
}

func (c *Config) validateClassification() error {
	if c.Classification.ConfidenceThreshold < 0 || c.Classification.ConfidenceThreshold > 1 {
		return errors.New("classification.confidence_threshold must be between 0 and 1")
	}
	if c.Classification.MinInputChars < 1 {
		return errors.New("classification.min_input_chars must be >= 1")
	}
	return nil
}

func (c *Config) validateAudio() error {
	return ensurePositiveMap(map[string]int{
		"audio.input_sample_rate":  c.Audio.InputSampleRate,
		"audio.output_sample_rate": c.Audio.OutputSampleRate,
		"audio.chunk_millis":       c.Audio.ChunkMillis,
	})
}

func (c *Config) validateSpeech() error {
	if !language.Supported(c.Speech.Language) {
		return fmt.Errorf("speech.language %q is not supported (choose one of %s)",
			c.Speech.Language, strings.Join(language.Codes(), ", "))
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
