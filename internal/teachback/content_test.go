package teachback_test

import (
	"encoding/json"
	"strings"
	"testing"

	"teachback/internal/teachback"
)

func TestDemoContentIsValid(t *testing.T) {
	content := teachback.DemoContent()
	if err := content.Validate(); err != nil {
		t.Fatalf("demo content invalid: %v", err)
	}
	details, ok := content.Details()
	if !ok {
		t.Fatal("expected discharge details")
	}
	if details.Category() != teachback.Discharge {
		t.Fatalf("unexpected details category %s", details.Category())
	}
	if len(details.Fields()) != 3 {
		t.Fatalf("expected empty activity restrictions to be dropped, got %+v", details.Fields())
	}
}

func TestNormalizeKeepsOnlyMatchingBranch(t *testing.T) {
	content := teachback.DemoContent()
	content.Domain.Lab = &teachback.LabDetails{Test: "CBC"}
	content.Context = teachback.Lab

	content.Normalize(teachback.Discharge)

	if content.Context != teachback.Discharge {
		t.Fatalf("expected context forced to discharge, got %s", content.Context)
	}
	if content.Domain.Lab != nil {
		t.Fatal("expected lab branch to be cleared")
	}
	if content.Domain.Discharge == nil {
		t.Fatal("expected discharge branch kept")
	}
	if err := content.Validate(); err != nil {
		t.Fatalf("normalized content invalid: %v", err)
	}
}

func TestDetailsMismatchFallsBackToNone(t *testing.T) {
	content := teachback.DemoContent()
	content.Context = teachback.Prescription
	if _, ok := content.Details(); ok {
		t.Fatal("expected no details when branch does not match context")
	}
	if err := content.Validate(); err == nil {
		t.Fatal("expected validation to reject mismatched branch")
	}
}

func TestNormalizeDropsDistractorMatchingAnswer(t *testing.T) {
	content := teachback.DemoContent()
	content.QA[0].Distractors = []string{"TWICE A DAY ", "Once a day", "Once a day", "Weekly"}

	if err := content.Validate(); err == nil || !strings.Contains(err.Error(), "qa[0]") {
		t.Fatalf("expected qa[0] validation error before normalizing, got %v", err)
	}
	content.Normalize(teachback.Discharge)
	got := content.QA[0].Distractors
	if len(got) != 2 || got[0] != "Once a day" || got[1] != "Weekly" {
		t.Fatalf("unexpected distractors %v", got)
	}
	if err := content.Validate(); err != nil {
		t.Fatalf("expected valid content, got %v", err)
	}
}

func TestValidateRejectsQuizSize(t *testing.T) {
	content := teachback.DemoContent()
	content.QA = content.QA[:2]
	if err := content.Validate(); err == nil {
		t.Fatal("expected error for two questions")
	}
	content = teachback.DemoContent()
	content.ReadingGradeAfter = 14
	if err := content.Validate(); err == nil {
		t.Fatal("expected error for reading grade 14")
	}
}

func TestContentSchemaAcceptsDemoContent(t *testing.T) {
	resolved, err := teachback.ContentSchema().Resolve(nil)
	if err != nil {
		t.Fatalf("resolve schema: %v", err)
	}
	raw, err := json.Marshal(teachback.DemoContent())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var instance map[string]any
	if err := json.Unmarshal(raw, &instance); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := resolved.Validate(instance); err != nil {
		t.Fatalf("demo content rejected by schema: %v", err)
	}

	instance["qa"] = []any{}
	if err := resolved.Validate(instance); err == nil {
		t.Fatal("expected schema to reject an empty quiz")
	}
}

func TestClassificationNormalize(t *testing.T) {
	result := teachback.ClassificationResult{
		Context:    "insurance_letter",
		Confidence: 1.4,
		TopK: []teachback.LabelScore{
			{Label: teachback.EOB, Score: 0.5},
			{Label: teachback.Unknown, Score: 0.3},
			{Label: teachback.Lab, Score: 0.2},
			{Label: teachback.PriorAuth, Score: 0.1},
			{Label: teachback.Discharge, Score: 0.05},
		},
	}
	result.Normalize()
	if result.Context != teachback.Unknown {
		t.Fatalf("expected unknown context, got %s", result.Context)
	}
	if result.Confidence != 1 {
		t.Fatalf("expected confidence clamped to 1, got %v", result.Confidence)
	}
	if len(result.TopK) != 3 || result.TopK[1].Label != teachback.Lab {
		t.Fatalf("unexpected alternates %+v", result.TopK)
	}
	if len(result.UnknownReasons) != 1 {
		t.Fatalf("expected an unknown reason, got %v", result.UnknownReasons)
	}
	if err := result.Validate(); err != nil {
		t.Fatalf("normalized result invalid: %v", err)
	}
	if result.Confident(0.6) {
		t.Fatal("unknown must never be confident")
	}
}

func TestParseCategory(t *testing.T) {
	tests := map[string]teachback.Category{
		"prescription": teachback.Prescription,
		"Prior Auth":   teachback.PriorAuth,
		"prior-auth":   teachback.PriorAuth,
		" EOB ":        teachback.EOB,
	}
	for input, want := range tests {
		got, err := teachback.ParseCategory(input)
		if err != nil || got != want {
			t.Fatalf("ParseCategory(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := teachback.ParseCategory("radiology"); err == nil {
		t.Fatal("expected error for unknown category")
	}
	if len(teachback.Selectable()) != 5 {
		t.Fatalf("expected five selectable categories, got %v", teachback.Selectable())
	}
}
