package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// Image is a single inlined raster image.
type Image struct {
	MIMEType string
	Data     []byte
}

// Content is the user-supplied material for one request: either text or one
// image, never both.
type Content struct {
	Text  string
	Image *Image
}

// IsImage reports whether the content uses the image mode.
func (c Content) IsImage() bool {
	return c.Image != nil
}

// Validate enforces the single content mode rule.
func (c Content) Validate() error {
	hasText := strings.TrimSpace(c.Text) != ""
	hasImage := c.Image != nil && len(c.Image.Data) > 0
	switch {
	case hasText && c.Image != nil:
		return errors.New("content must be text or an image, not both")
	case c.Image != nil && !hasImage:
		return errors.New("image content is empty")
	case !hasText && !hasImage:
		return errors.New("content is empty")
	}
	if hasImage && strings.TrimSpace(c.Image.MIMEType) == "" {
		return errors.New("image content requires a MIME type")
	}
	return nil
}

// PromptSpec describes one gateway call.
type PromptSpec struct {
	// Op names the call in logs and errors (e.g. "classify").
	Op                string
	SystemInstruction string
	// Instruction frames the content. For text content the text is appended
	// between separators; for image content it is the only prompt text.
	Instruction string
	Content     Content
	// Temperature overrides the gateway default when non-nil.
	Temperature *float64
}

// Request is what a Backend receives for a single attempt.
type Request struct {
	SystemInstruction string
	Prompt            string
	Image             *Image
	Schema            *jsonschema.Schema
	Temperature       float64
}

// Backend produces a raw JSON reply for a request.
type Backend interface {
	GenerateJSON(ctx context.Context, req Request) (string, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, req Request) (string, error)

func (f BackendFunc) GenerateJSON(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

func buildPrompt(spec PromptSpec) string {
	instruction := strings.TrimSpace(spec.Instruction)
	if spec.Content.IsImage() {
		return instruction
	}
	text := strings.TrimSpace(spec.Content.Text)
	if instruction == "" {
		return text
	}
	return instruction + "\n\n---\n" + text + "\n---"
}
