package config

import (
	"fmt"
	"os"
	"strings"

	"teachback/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAI()
	c.normalizeAudio()
	c.normalizeSpeech()
	c.normalizeExtract()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir()
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ExportDir) == "" {
		c.Paths.ExportDir = defaultExportDir
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAI() {
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	if c.AI.Provider == "" {
		c.AI.Provider = defaultProvider
	}
	c.AI.Model = strings.TrimSpace(c.AI.Model)
	c.AI.BaseURL = strings.TrimSpace(c.AI.BaseURL)
	c.AI.TTSModel = strings.TrimSpace(c.AI.TTSModel)
	c.AI.LiveModel = strings.TrimSpace(c.AI.LiveModel)
	c.AI.Referer = strings.TrimSpace(c.AI.Referer)
	c.AI.Title = strings.TrimSpace(c.AI.Title)
	if c.AI.Title == "" {
		c.AI.Title = defaultTitle
	}

	switch c.AI.Provider {
	case ProviderOpenRouter:
		if c.AI.BaseURL == "" {
			c.AI.BaseURL = defaultOpenRouterBaseURL
		}
		if c.AI.Model == "" || c.AI.Model == defaultGeminiModel {
			c.AI.Model = defaultOpenRouterModel
		}
	default:
		if c.AI.Model == "" {
			c.AI.Model = defaultGeminiModel
		}
		if c.AI.TTSModel == "" {
			c.AI.TTSModel = defaultTTSModel
		}
		if c.AI.LiveModel == "" {
			c.AI.LiveModel = defaultLiveModel
		}
	}

	c.AI.APIKey = strings.TrimSpace(c.AI.APIKey)
	if c.AI.APIKey == "" {
		c.AI.APIKey = apiKeyFromEnv(c.AI.Provider)
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = defaultAITimeoutSeconds
	}
	if c.AI.RetryAttempts <= 0 {
		c.AI.RetryAttempts = defaultRetryAttempts
	}
}

func apiKeyFromEnv(provider string) string {
	names := []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY"}
	if provider == ProviderOpenRouter {
		names = []string{"OPENROUTER_API_KEY", "API_KEY"}
	}
	for _, name := range names {
		if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func (c *Config) normalizeAudio() {
	c.Audio.CaptureCommand = strings.TrimSpace(c.Audio.CaptureCommand)
	if c.Audio.CaptureCommand == "" {
		c.Audio.CaptureCommand = defaultCaptureCommand
	}
	c.Audio.PlaybackCommand = strings.TrimSpace(c.Audio.PlaybackCommand)
	if c.Audio.PlaybackCommand == "" {
		c.Audio.PlaybackCommand = defaultPlaybackCommand
	}
	if c.Audio.InputSampleRate == 0 {
		c.Audio.InputSampleRate = defaultInputSampleRate
	}
	if c.Audio.OutputSampleRate == 0 {
		c.Audio.OutputSampleRate = defaultOutputSampleRate
	}
	if c.Audio.ChunkMillis == 0 {
		c.Audio.ChunkMillis = defaultChunkMillis
	}
}

func (c *Config) normalizeSpeech() {
	code := language.Normalize(c.Speech.Language)
	if code == "" {
		code = defaultSpeechLanguage
	}
	c.Speech.Language = code
}

func (c *Config) normalizeExtract() {
	c.Extract.PDFToTextCommand = strings.TrimSpace(c.Extract.PDFToTextCommand)
	if c.Extract.PDFToTextCommand == "" {
		c.Extract.PDFToTextCommand = defaultPDFToTextCommand
	}
	if c.Extract.MaxImageMB <= 0 {
		c.Extract.MaxImageMB = defaultMaxImageMB
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	if c.Logging.MaxFileMB < 0 {
		c.Logging.MaxFileMB = 0
	}
}
