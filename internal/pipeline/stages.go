package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"teachback/internal/ai"
	"teachback/internal/logging"
	"teachback/internal/services"
	"teachback/internal/teachback"
)

// Source is the material a cycle works on: text or one image.
type Source struct {
	Text  string
	Image *ai.Image
}

// IsImage reports whether the source is an image.
func (s Source) IsImage() bool {
	return s.Image != nil
}

func (s Source) content() ai.Content {
	if s.Image != nil {
		return ai.Content{Image: s.Image}
	}
	return ai.Content{Text: s.Text}
}

// CheckInput rejects text shorter than minChars (after trimming) before any
// backend call. Image sources always pass.
func CheckInput(src Source, minChars int) error {
	if src.IsImage() {
		if len(src.Image.Data) == 0 {
			return services.Wrap(services.ErrInputTooShort, "input", "check", "image is empty", nil)
		}
		return nil
	}
	if minChars < 1 {
		minChars = 1
	}
	n := utf8.RuneCountInString(strings.TrimSpace(src.Text))
	if n < minChars {
		return services.Wrap(services.ErrInputTooShort, "input", "check",
			fmt.Sprintf("%d characters, need at least %d", n, minChars), nil)
	}
	return nil
}

// Stages runs classification and generation through a gateway.
type Stages struct {
	gateway *ai.Gateway
	logger  *slog.Logger
}

// New builds the stages around gateway.
func New(gateway *ai.Gateway, logger *slog.Logger) *Stages {
	return &Stages{
		gateway: gateway,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Classify returns the model's best-guess category for src.
func (s *Stages) Classify(ctx context.Context, src Source) (teachback.ClassificationResult, error) {
	if err := CheckInput(src, 1); err != nil {
		return teachback.ClassificationResult{}, err
	}
	ctx = services.WithStage(ctx, "classify")
	spec := ai.PromptSpec{
		Op:                "classify",
		SystemInstruction: classifySystemInstruction,
		Instruction:       classifyInstruction(src.IsImage()),
		Content:           src.content(),
	}
	result, err := ai.Call(ctx, s.gateway, spec, teachback.ClassificationSchema(), func(r *teachback.ClassificationResult) error {
		r.Normalize()
		return r.Validate()
	})
	if err != nil {
		return teachback.ClassificationResult{}, err
	}
	logging.WithContext(ctx, s.logger).Info("document classified",
		logging.String("context", string(result.Context)),
		logging.Float64("confidence", result.Confidence),
		logging.Int("alternates", len(result.TopK)),
	)
	return result, nil
}

// Generate produces teach-back content for src under the authoritative category.
func (s *Stages) Generate(ctx context.Context, src Source, category teachback.Category) (teachback.Content, error) {
	if !category.Valid() {
		return teachback.Content{}, services.Wrap(services.ErrValidation, "generate", "category", fmt.Sprintf("unknown category %q", category), nil)
	}
	if err := CheckInput(src, 1); err != nil {
		return teachback.Content{}, err
	}
	ctx = services.WithStage(ctx, "generate")
	spec := ai.PromptSpec{
		Op:                "generate",
		SystemInstruction: generateSystemInstruction,
		Instruction:       generateInstruction(category, src.IsImage()),
		Content:           src.content(),
	}
	content, err := ai.Call(ctx, s.gateway, spec, teachback.ContentSchema(), func(c *teachback.Content) error {
		if c.Context != category {
			logging.WarnWithContext(s.logger, "model ignored requested category", "category_mismatch",
				logging.String("requested", string(category)),
				logging.String("returned", string(c.Context)),
				logging.String(logging.FieldImpact, "context forced to requested category"),
			)
		}
		c.Normalize(category)
		return c.Validate()
	})
	if err != nil {
		return teachback.Content{}, err
	}
	_, hasDetails := content.Details()
	logging.WithContext(ctx, s.logger).Info("teach-back content generated",
		logging.String("context", string(content.Context)),
		logging.Int("questions", len(content.QA)),
		logging.Int("reading_grade", content.ReadingGradeAfter),
		logging.Bool("details", hasDetails),
		logging.Bool("urgent", content.SafetyFlags.UrgentContact),
	)
	return content, nil
}
