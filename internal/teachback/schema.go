package teachback

import (
	"github.com/google/jsonschema-go/jsonschema"
)

// ClassificationSchema describes the classifier's JSON reply.
func ClassificationSchema() *jsonschema.Schema {
	return object(map[string]*jsonschema.Schema{
		"context": withEnum(str("The single best category for the document."), categoryEnum(allCategories)),
		"confidence": {
			Type:        "number",
			Description: "Confidence in the chosen category, from 0 to 1.",
			Minimum:     ptr(0.0),
			Maximum:     ptr(1.0),
		},
		"top_k": {
			Type:        "array",
			Description: "Up to three alternate categories with scores, most likely first.",
			MaxItems:    ptr(MaxAlternates),
			Items: object(map[string]*jsonschema.Schema{
				"label": withEnum(str("An alternate category."), categoryEnum(Selectable())),
				"score": {Type: "number", Minimum: ptr(0.0), Maximum: ptr(1.0)},
			}, "label", "score"),
		},
		"unknown_reasons": strList("Why the document could not be confidently classified. Empty when confident."),
	}, "context", "confidence", "top_k", "unknown_reasons")
}

// ContentSchema describes the generated teach-back JSON reply. The domain
// object carries all six branches as optional properties.
func ContentSchema() *jsonschema.Schema {
	qaItem := object(map[string]*jsonschema.Schema{
		"q":         str("The quiz question."),
		"a_correct": str("The single correct answer."),
		"a_distractors": {
			Type:        "array",
			Description: "2-3 incorrect answer choices. Never repeat the correct answer.",
			Items:       &jsonschema.Schema{Type: "string"},
			MinItems:    ptr(MinDistractors),
			MaxItems:    ptr(MaxDistractors),
		},
		"concept_tag":         str("Short tag naming the concept tested."),
		"rationale_correct":   str("Why the correct answer is right."),
		"rationale_incorrect": str("Why the other choices are wrong."),
	}, "q", "a_correct", "a_distractors", "rationale_correct", "rationale_incorrect")

	return object(map[string]*jsonschema.Schema{
		"context":         withEnum(str("The document category. Must equal the requested category."), categoryEnum(allCategories)),
		"simplified_text": str("The simplified version of the medical text."),
		"reading_grade_after": {
			Type:        "integer",
			Description: "Estimated reading grade level (5-12) of the simplified text.",
			Minimum:     ptr(float64(MinReadingGrade)),
			Maximum:     ptr(float64(MaxReadingGrade)),
		},
		"qa": {
			Type:        "array",
			Description: "An array of 3-5 quiz questions.",
			Items:       qaItem,
			MinItems:    ptr(MinQuestions),
			MaxItems:    ptr(MaxQuestions),
		},
		"remediation": object(map[string]*jsonschema.Schema{
			"if_wrong": str("A general re-teaching statement."),
			"examples": strList("One or two concrete examples to clarify the concept."),
		}, "if_wrong", "examples"),
		"safety_flags": object(map[string]*jsonschema.Schema{
			"urgent_contact":             boolean("True if the text suggests urgent medical contact is needed."),
			"contraindication_mentioned": boolean("True if any contraindications are mentioned."),
			"red_flags":                  strList("Specific red-flag words or phrases found."),
		}, "urgent_contact", "contraindication_mentioned", "red_flags"),
		"domain": domainSchema(),
	}, "context", "simplified_text", "reading_grade_after", "qa", "remediation", "safety_flags", "domain")
}

func domainSchema() *jsonschema.Schema {
	s := object(map[string]*jsonschema.Schema{
		string(Prescription): object(map[string]*jsonschema.Schema{
			"dose":                     str(""),
			"route":                    str(""),
			"frequency":                str(""),
			"timing":                   str(""),
			"missed_dose_instructions": str(""),
			"common_side_effects":      strList(""),
			"interaction_warnings":     strList(""),
		}, "dose", "route", "frequency", "timing", "missed_dose_instructions", "common_side_effects", "interaction_warnings"),
		string(EOB): object(map[string]*jsonschema.Schema{
			"claim_id":           str(""),
			"service_date":       str(""),
			"billed":             str(""),
			"allowed":            str(""),
			"deductible":         str(""),
			"copay":              str(""),
			"coinsurance":        str(""),
			"not_covered_reason": str(""),
			"appeal_window_days": {Type: "integer", Minimum: ptr(0.0)},
			"next_steps":         strList(""),
		}, "claim_id", "service_date", "billed", "allowed", "deductible", "copay", "coinsurance", "not_covered_reason", "appeal_window_days", "next_steps"),
		string(PriorAuth): object(map[string]*jsonschema.Schema{
			"status":            str(""),
			"missing_items":     strList(""),
			"clinical_criteria": strList(""),
			"deadline":          str(""),
			"checklist":         strList(""),
			"template_addendum": str(""),
		}, "status", "missing_items", "clinical_criteria", "deadline", "checklist", "template_addendum"),
		string(Discharge): object(map[string]*jsonschema.Schema{
			"followups":             strList(""),
			"med_changes":           strList(""),
			"when_to_call":          strList(""),
			"activity_restrictions": strList(""),
		}, "followups", "med_changes", "when_to_call", "activity_restrictions"),
		string(Lab): object(map[string]*jsonschema.Schema{
			"test":            str(""),
			"value":           str(""),
			"unit":            str(""),
			"reference_range": str(""),
			"interpretation":  str(""),
			"next_steps":      strList(""),
		}, "test", "value", "unit", "reference_range", "interpretation", "next_steps"),
		string(Unknown): object(map[string]*jsonschema.Schema{
			"key_points":                strList(""),
			"action_checklist":          strList(""),
			"questions_to_ask_provider": strList(""),
		}, "key_points", "action_checklist", "questions_to_ask_provider"),
	})
	s.Description = "Category-specific details. Populate only the branch named by context."
	return s
}

// DefinitionSchema describes the structured chat reply for term definitions.
func DefinitionSchema() *jsonschema.Schema {
	return object(map[string]*jsonschema.Schema{
		"isDefinition": boolean("True when the reply defines a single term."),
		"term":         str("The term being defined."),
		"definition":   str("A plain-language definition."),
	}, "isDefinition", "term", "definition")
}

func object(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}

func str(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

func boolean(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "boolean", Description: desc}
}

func strList(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "array", Description: desc, Items: &jsonschema.Schema{Type: "string"}}
}

func withEnum(s *jsonschema.Schema, values []any) *jsonschema.Schema {
	s.Enum = values
	return s
}

func ptr[T any](v T) *T {
	return &v
}
