package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Supported AI providers.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// Paths contains directory configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	LogDir    string `toml:"log_dir"`
	ExportDir string `toml:"export_dir"`
}

// AI contains connection settings for the generative model backend.
type AI struct {
	Provider       string  `toml:"provider"`
	APIKey         string  `toml:"api_key"`
	Model          string  `toml:"model"`
	TTSModel       string  `toml:"tts_model"`
	LiveModel      string  `toml:"live_model"`
	BaseURL        string  `toml:"base_url"`
	Referer        string  `toml:"referer"`
	Title          string  `toml:"title"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RetryAttempts  int     `toml:"retry_attempts"`
}

// Classification contains the consumer-side thresholds applied to classifier output.
type Classification struct {
	// ConfidenceThreshold is the minimum confidence treated as a confident
	// classification. Lower scores are surfaced as uncertain. Default: 0.6
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	// MinInputChars is the shortest trimmed text accepted for generation.
	MinInputChars int `toml:"min_input_chars"`
}

// Audio contains microphone capture and speaker playback settings.
type Audio struct {
	CaptureCommand   string `toml:"capture_command"`
	PlaybackCommand  string `toml:"playback_command"`
	InputSampleRate  int    `toml:"input_sample_rate"`
	OutputSampleRate int    `toml:"output_sample_rate"`
	ChunkMillis      int    `toml:"chunk_millis"`
	MonitorDevices   bool   `toml:"monitor_devices"`
}

// Speech contains translation and synthesis defaults.
type Speech struct {
	Language string `toml:"language"`
}

// Extract contains document import settings.
type Extract struct {
	PDFToTextCommand string `toml:"pdftotext_command"`
	MaxImageMB       int    `toml:"max_image_mb"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
	MaxFileMB     int    `toml:"max_file_mb"`
}

// Config encapsulates all configuration values for the teach-back client.
//
// Configuration sections by subsystem:
//   - Paths: data directory (key-value store), logs, exported summaries
//   - AI: provider, models and request settings for the generative backend
//   - Classification: confidence threshold and minimum input length
//   - Audio: capture/playback commands and sample rates for live Q&A
//   - Speech: default translation/synthesis language
//   - Extract: PDF and image import
//   - Logging: log format, level, and retention
type Config struct {
	Paths          Paths          `toml:"paths"`
	AI             AI             `toml:"ai"`
	Classification Classification `toml:"classification"`
	Audio          Audio          `toml:"audio"`
	Speech         Speech         `toml:"speech"`
	Extract        Extract        `toml:"extract"`
	Logging        Logging        `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("teachback.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories. The export directory
// is created lazily by the commands that write into it.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StorePath returns the key-value database location.
func (c *Config) StorePath() string {
	return filepath.Join(c.Paths.DataDir, "teachback.db")
}

// LockPath returns the single-writer lock file guarding the store.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "teachback.lock")
}

// RequestTimeout returns the per-attempt deadline for gateway calls.
func (c *Config) RequestTimeout() time.Duration {
	if c.AI.TimeoutSeconds <= 0 {
		return time.Duration(defaultAITimeoutSeconds) * time.Second
	}
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// RequireAPIKey reports a configuration error when no backend key is available.
// Commands that never reach the backend (glossary, tour, demo) skip this check.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.AI.APIKey) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	envHint := "GEMINI_API_KEY"
	if c.AI.Provider == ProviderOpenRouter {
		envHint = "OPENROUTER_API_KEY"
	}
	return fmt.Errorf("ai.api_key is required. Set %s or edit %s (create with 'teachback config init')", envHint, defaultPath)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultDataDir() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "teachback")
	}
	return "~/.local/share/teachback"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
