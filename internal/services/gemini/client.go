package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"teachback/internal/ai"
	"teachback/internal/services"
	"teachback/internal/teachback"
)

// Default models.
const (
	DefaultModel     = "gemini-2.5-flash"
	DefaultTTSModel  = "gemini-2.5-flash-preview-tts"
	DefaultLiveModel = "gemini-2.5-flash-native-audio-preview-09-2025"
)

// Config captures the runtime settings for the Gemini API.
type Config struct {
	APIKey    string
	Model     string
	TTSModel  string
	LiveModel string
	// BaseURL overrides the API endpoint, mainly for proxies.
	BaseURL     string
	Temperature float64
}

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// Client talks to Gemini through the genai SDK.
type Client struct {
	cfg     Config
	models  generator
	connect liveConnector
}

// NewClient builds a Gemini API client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	cfg = normalizeConfig(cfg)
	if cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "gemini", "client", "api key required", nil)
	}
	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	sdk, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "gemini", "client", "create genai client", err)
	}
	return &Client{cfg: cfg, models: sdk.Models, connect: sdkConnector(sdk.Live)}, nil
}

func normalizeConfig(cfg Config) Config {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.Model = strings.TrimSpace(cfg.Model); cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.TTSModel = strings.TrimSpace(cfg.TTSModel); cfg.TTSModel == "" {
		cfg.TTSModel = DefaultTTSModel
	}
	if cfg.LiveModel = strings.TrimSpace(cfg.LiveModel); cfg.LiveModel == "" {
		cfg.LiveModel = DefaultLiveModel
	}
	return cfg
}

// GenerateJSON implements ai.Backend.
func (c *Client) GenerateJSON(ctx context.Context, req ai.Request) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("gemini generate: prompt required")
	}
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	if req.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, req.Image.MIMEType))
	}
	config := &genai.GenerateContentConfig{
		Temperature:      float32Ptr(req.Temperature),
		ResponseMIMEType: "application/json",
	}
	if system := strings.TrimSpace(req.SystemInstruction); system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if req.Schema != nil {
		schema, err := ConvertSchema(req.Schema)
		if err != nil {
			return "", fmt.Errorf("gemini generate: %w", err)
		}
		config.ResponseSchema = schema
	}
	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, config)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini generate: empty content (finish_reason=%q)", finishReason(resp))
	}
	return text, nil
}

// GenerateText returns the plain text reply to prompt.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("gemini text: prompt required")
	}
	config := &genai.GenerateContentConfig{Temperature: float32Ptr(c.cfg.Temperature)}
	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini text: %w", err)
	}
	return responseText(resp), nil
}

// TranscribeAudio runs instruction over an inline audio clip.
func (c *Client) TranscribeAudio(ctx context.Context, audio []byte, mimeType, instruction string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("gemini transcribe: audio required")
	}
	parts := []*genai.Part{
		genai.NewPartFromBytes(audio, mimeType),
		genai.NewPartFromText(strings.TrimSpace(instruction)),
	}
	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil)
	if err != nil {
		return "", fmt.Errorf("gemini transcribe: %w", err)
	}
	return responseText(resp), nil
}

// SynthesizeSpeech reads text with a prebuilt voice and returns raw 24kHz
// 16-bit mono PCM.
func (c *Client) SynthesizeSpeech(ctx context.Context, text, voice string) ([]byte, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig:       speechConfig(voice),
	}
	resp, err := c.models.GenerateContent(ctx, c.cfg.TTSModel, genai.Text(text), config)
	if err != nil {
		return nil, fmt.Errorf("gemini speech: %w", err)
	}
	for _, part := range firstParts(resp) {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, nil
		}
	}
	return nil, errors.New("gemini speech: no audio data returned")
}

// StreamChat implements chat.Streamer.
func (c *Client) StreamChat(ctx context.Context, system string, history []teachback.Utterance, message string) iter.Seq2[string, error] {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, u := range history {
		role := genai.Role(genai.RoleUser)
		if u.Role == teachback.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(u.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))
	config := &genai.GenerateContentConfig{Temperature: float32Ptr(c.cfg.Temperature)}
	if system = strings.TrimSpace(system); system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return func(yield func(string, error) bool) {
		for resp, err := range c.models.GenerateContentStream(ctx, c.cfg.Model, contents, config) {
			if err != nil {
				yield("", fmt.Errorf("gemini stream: %w", err))
				return
			}
			if text := responseText(resp); text != "" {
				if !yield(text, nil) {
					return
				}
			}
		}
	}
}

func speechConfig(voice string) *genai.SpeechConfig {
	if strings.TrimSpace(voice) == "" {
		return nil
	}
	return &genai.SpeechConfig{
		VoiceConfig: &genai.VoiceConfig{
			PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
		},
	}
}

func firstParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return nil
	}
	return resp.Candidates[0].Content.Parts
}

// responseText joins the text parts of the first candidate, skipping thoughts.
func responseText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, part := range firstParts(resp) {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

func finishReason(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return ""
	}
	return string(resp.Candidates[0].FinishReason)
}

func float32Ptr(v float64) *float32 {
	f := float32(v)
	return &f
}

// HealthCheck issues a minimal text request to verify the key and model.
func (c *Client) HealthCheck(ctx context.Context) error {
	text, err := c.GenerateText(ctx, "Reply with the single word OK.")
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("gemini health: empty reply")
	}
	return nil
}
