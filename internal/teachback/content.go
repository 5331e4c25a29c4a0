package teachback

import (
	"errors"
	"fmt"
	"strings"
)

// Reading grade bounds for generated text.
const (
	MinReadingGrade = 5
	MaxReadingGrade = 12
)

// Quiz size bounds.
const (
	MinQuestions   = 3
	MaxQuestions   = 5
	MinDistractors = 2
	MaxDistractors = 3
)

// QAItem is one multiple-choice question.
type QAItem struct {
	Question           string   `json:"q"`
	CorrectAnswer      string   `json:"a_correct"`
	Distractors        []string `json:"a_distractors"`
	ConceptTag         string   `json:"concept_tag,omitempty"`
	RationaleCorrect   string   `json:"rationale_correct"`
	RationaleIncorrect string   `json:"rationale_incorrect"`
}

// Options returns the correct answer followed by the distractors, unshuffled.
func (q QAItem) Options() []string {
	out := make([]string, 0, len(q.Distractors)+1)
	out = append(out, q.CorrectAnswer)
	return append(out, q.Distractors...)
}

// Remediation is re-teaching content shown after an incorrect submission.
type Remediation struct {
	IfWrong  string   `json:"if_wrong"`
	Examples []string `json:"examples"`
}

// SafetyFlags summarises urgent warnings found in the source text.
type SafetyFlags struct {
	UrgentContact             bool     `json:"urgent_contact"`
	ContraindicationMentioned bool     `json:"contraindication_mentioned"`
	RedFlags                  []string `json:"red_flags"`
}

// Any reports whether any flag is raised.
func (s SafetyFlags) Any() bool {
	return s.UrgentContact || s.ContraindicationMentioned || len(s.RedFlags) > 0
}

// Content is the generated teach-back material for one document.
type Content struct {
	Context           Category    `json:"context"`
	SimplifiedText    string      `json:"simplified_text"`
	ReadingGradeAfter int         `json:"reading_grade_after"`
	QA                []QAItem    `json:"qa"`
	Remediation       Remediation `json:"remediation"`
	SafetyFlags       SafetyFlags `json:"safety_flags"`
	Domain            Domain      `json:"domain"`
}

// Normalize forces the content onto the requested category, keeps only the
// matching detail branch, and drops distractors that repeat the correct answer.
func (c *Content) Normalize(requested Category) {
	if requested.Valid() {
		c.Context = requested
	}
	c.Domain = c.Domain.only(c.Context)
	for i := range c.QA {
		item := &c.QA[i]
		kept := make([]string, 0, len(item.Distractors))
		seen := map[string]struct{}{foldAnswer(item.CorrectAnswer): {}}
		for _, d := range item.Distractors {
			key := foldAnswer(d)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			kept = append(kept, d)
		}
		item.Distractors = kept
	}
	if c.Remediation.Examples == nil {
		c.Remediation.Examples = []string{}
	}
	if c.SafetyFlags.RedFlags == nil {
		c.SafetyFlags.RedFlags = []string{}
	}
}

// Validate checks the invariants every consumer relies on.
func (c Content) Validate() error {
	if !c.Context.Valid() {
		return fmt.Errorf("content context %q is not a known category", c.Context)
	}
	if strings.TrimSpace(c.SimplifiedText) == "" {
		return errors.New("simplified_text is empty")
	}
	if c.ReadingGradeAfter < MinReadingGrade || c.ReadingGradeAfter > MaxReadingGrade {
		return fmt.Errorf("reading_grade_after %d outside [%d,%d]", c.ReadingGradeAfter, MinReadingGrade, MaxReadingGrade)
	}
	if n := len(c.QA); n < MinQuestions || n > MaxQuestions {
		return fmt.Errorf("qa has %d items, want %d-%d", n, MinQuestions, MaxQuestions)
	}
	for i, item := range c.QA {
		if strings.TrimSpace(item.Question) == "" || strings.TrimSpace(item.CorrectAnswer) == "" {
			return fmt.Errorf("qa[%d] is missing its question or answer", i)
		}
		if n := len(item.Distractors); n < MinDistractors || n > MaxDistractors {
			return fmt.Errorf("qa[%d] has %d distractors, want %d-%d", i, n, MinDistractors, MaxDistractors)
		}
		correct := foldAnswer(item.CorrectAnswer)
		for _, d := range item.Distractors {
			if foldAnswer(d) == correct {
				return fmt.Errorf("qa[%d] lists the correct answer among its distractors", i)
			}
		}
	}
	if populated := c.Domain.populated(); len(populated) > 1 ||
		(len(populated) == 1 && populated[0] != c.Context) {
		return fmt.Errorf("domain details populated for %v, want only %s", populated, c.Context)
	}
	return nil
}

// Details returns the detail branch matching the content's category.
// ok is false when the branch is absent or belongs to another category.
func (c Content) Details() (Details, bool) {
	d := c.Domain.branch(c.Context)
	if d == nil {
		return nil, false
	}
	return d, true
}

func foldAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
