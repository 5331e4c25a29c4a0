package teachback

import (
	"errors"
	"fmt"
)

// MaxAlternates bounds the alternates kept from a classification.
const MaxAlternates = 3

// LabelScore is one alternate category with the classifier's score.
type LabelScore struct {
	Label Category `json:"label"`
	Score float64  `json:"score"`
}

// ClassificationResult is the classifier's best guess for a document.
type ClassificationResult struct {
	Context        Category     `json:"context"`
	Confidence     float64      `json:"confidence"`
	TopK           []LabelScore `json:"top_k"`
	UnknownReasons []string     `json:"unknown_reasons"`
}

// Confident reports whether the result clears threshold. Unknown is never confident.
func (r ClassificationResult) Confident(threshold float64) bool {
	return r.Context != Unknown && r.Confidence >= threshold
}

// Normalize clamps the confidence, coerces labels outside the taxonomy to
// unknown, and trims the alternates to the selectable set.
func (r *ClassificationResult) Normalize() {
	if r.Confidence < 0 {
		r.Confidence = 0
	}
	if r.Confidence > 1 {
		r.Confidence = 1
	}
	if !r.Context.Valid() {
		r.UnknownReasons = append(r.UnknownReasons, fmt.Sprintf("classifier returned unrecognized label %q", r.Context))
		r.Context = Unknown
	}
	kept := r.TopK[:0]
	for _, alt := range r.TopK {
		if !alt.Label.Selectable() {
			continue
		}
		if alt.Score < 0 {
			alt.Score = 0
		}
		if alt.Score > 1 {
			alt.Score = 1
		}
		kept = append(kept, alt)
		if len(kept) == MaxAlternates {
			break
		}
	}
	r.TopK = kept
	if r.UnknownReasons == nil {
		r.UnknownReasons = []string{}
	}
}

// Validate checks the result's shape.
func (r ClassificationResult) Validate() error {
	if !r.Context.Valid() {
		return fmt.Errorf("classification context %q is not a known category", r.Context)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("classification confidence %v outside [0,1]", r.Confidence)
	}
	if len(r.TopK) > MaxAlternates {
		return errors.New("classification has more than 3 alternates")
	}
	for _, alt := range r.TopK {
		if !alt.Label.Selectable() {
			return fmt.Errorf("classification alternate %q is not selectable", alt.Label)
		}
	}
	return nil
}
