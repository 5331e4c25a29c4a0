package config

const (
	defaultConfigPath          = "~/.config/teachback/config.toml"
	defaultLogDir              = "~/.local/share/teachback/logs"
	defaultExportDir           = "~/Documents/teachback"
	defaultProvider            = ProviderGemini
	defaultGeminiModel         = "gemini-2.5-flash"
	defaultTTSModel            = "gemini-2.5-flash-preview-tts"
	defaultLiveModel           = "gemini-2.5-flash-native-audio-preview-09-2025"
	defaultOpenRouterBaseURL   = "https://openrouter.ai/api/v1/chat/completions"
	defaultOpenRouterModel     = "google/gemini-2.5-flash"
	defaultTitle               = "Teach-Back Engine"
	defaultTemperature         = 0.5
	defaultAITimeoutSeconds    = 90
	defaultRetryAttempts       = 3
	defaultConfidenceThreshold = 0.6
	defaultMinInputChars       = 20
	defaultCaptureCommand      = "arecord"
	defaultPlaybackCommand     = "aplay"
	defaultInputSampleRate     = 16000
	defaultOutputSampleRate    = 24000
	defaultChunkMillis         = 256
	defaultSpeechLanguage      = "en"
	defaultPDFToTextCommand    = "pdftotext"
	defaultMaxImageMB          = 15
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
	defaultLogMaxFileMB        = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir(),
			LogDir:    defaultLogDir,
			ExportDir: defaultExportDir,
		},
		AI: AI{
			Provider:       defaultProvider,
			Model:          defaultGeminiModel,
			TTSModel:       defaultTTSModel,
			LiveModel:      defaultLiveModel,
			Title:          defaultTitle,
			Temperature:    defaultTemperature,
			TimeoutSeconds: defaultAITimeoutSeconds,
			RetryAttempts:  defaultRetryAttempts,
		},
		Classification: Classification{
			ConfidenceThreshold: defaultConfidenceThreshold,
			MinInputChars:       defaultMinInputChars,
		},
		Audio: Audio{
			CaptureCommand:   defaultCaptureCommand,
			PlaybackCommand:  defaultPlaybackCommand,
			InputSampleRate:  defaultInputSampleRate,
			OutputSampleRate: defaultOutputSampleRate,
			ChunkMillis:      defaultChunkMillis,
			MonitorDevices:   true,
		},
		Speech: Speech{
			Language: defaultSpeechLanguage,
		},
		Extract: Extract{
			PDFToTextCommand: defaultPDFToTextCommand,
			MaxImageMB:       defaultMaxImageMB,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
			MaxFileMB:     defaultLogMaxFileMB,
		},
	}
}
