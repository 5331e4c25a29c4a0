package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"teachback/internal/ai"
	"teachback/internal/services"
)

const schemaName = "teachback_response"

// GenerateJSON implements ai.Backend. The schema is sent as a strict
// json_schema response format; images travel as data URLs.
func (c *Client) GenerateJSON(ctx context.Context, req ai.Request) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", errors.New("llm generate: api key required")
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errors.New("llm generate: prompt required")
	}
	payload := chatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    systemMessages(req.SystemInstruction),
		Temperature: req.Temperature,
	}
	payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: userContent(prompt, req.Image)})
	if req.Schema != nil {
		payload.ResponseFormat = &responseFormat{
			Type:       "json_schema",
			JSONSchema: &jsonSchema{Name: schemaName, Strict: true, Schema: req.Schema},
		}
	} else {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return c.completionContentWithRetry(ctx, payload, "llm generate")
}

// GenerateText issues a plain completion and returns the reply text.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", errors.New("llm text: api key required")
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("llm text: prompt required")
	}
	payload := chatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.cfg.Temperature,
	}
	return c.completionContentWithRetry(ctx, payload, "llm text")
}

// TranscribeAudio sends a recorded clip as an input_audio part. Only models
// with audio input accept it; others answer with an HTTP error.
func (c *Client) TranscribeAudio(ctx context.Context, audio []byte, mimeType, instruction string) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", errors.New("llm transcribe: api key required")
	}
	if len(audio) == 0 {
		return "", errors.New("llm transcribe: audio required")
	}
	format, err := audioFormat(mimeType)
	if err != nil {
		return "", err
	}
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: strings.TrimSpace(instruction)},
				{Type: "input_audio", InputAudio: &inputAudio{Data: base64.StdEncoding.EncodeToString(audio), Format: format}},
			},
		}},
		Temperature: 0,
	}
	return c.completionContentWithRetry(ctx, payload, "llm transcribe")
}

// SynthesizeSpeech is not offered by the chat completion API.
func (c *Client) SynthesizeSpeech(context.Context, string, string) ([]byte, error) {
	return nil, services.Wrap(services.ErrUnsupportedBrowser, "llm", "synthesize",
		"speech synthesis requires the gemini provider", nil)
}

// HealthCheck issues a fast ping to verify the API key and model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return errors.New("llm health: api key required")
	}
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You must respond with JSON only."},
			{Role: "user", Content: "Respond with {\"ok\":true}"},
		},
		Temperature:    0,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	content, err := c.completionContentWithRetry(ctx, payload, "llm health")
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := ai.DecodeJSON(content, &parsed); err != nil {
		return fmt.Errorf("llm health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("llm health: unexpected response")
	}
	return nil
}

func systemMessages(system string) []chatMessage {
	system = strings.TrimSpace(system)
	if system == "" {
		return nil
	}
	return []chatMessage{{Role: "system", Content: system}}
}

func userContent(prompt string, image *ai.Image) any {
	if image == nil {
		return prompt
	}
	dataURL := "data:" + image.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(image.Data)
	return []contentPart{
		{Type: "text", Text: prompt},
		{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
	}
}

func audioFormat(mimeType string) (string, error) {
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	switch base {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return "wav", nil
	case "audio/mpeg", "audio/mp3":
		return "mp3", nil
	}
	return "", services.Wrap(services.ErrValidation, "llm", "transcribe", fmt.Sprintf("unsupported audio type %q", mimeType), nil)
}
