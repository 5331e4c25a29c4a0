package gemini

import (
	"slices"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"

	"teachback/internal/teachback"
)

func TestConvertSchemaContent(t *testing.T) {
	out, err := ConvertSchema(teachback.ContentSchema())
	if err != nil {
		t.Fatalf("ConvertSchema: %v", err)
	}
	if out.Type != genai.TypeObject || len(out.Properties) == 0 {
		t.Fatalf("unexpected root %+v", out)
	}
	if len(out.PropertyOrdering) != len(out.Properties) {
		t.Fatalf("ordering %v does not cover properties", out.PropertyOrdering)
	}
}

func TestConvertSchemaFields(t *testing.T) {
	minItems := 2
	low, high := 0.0, 1.0
	in := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"label"},
		Properties: map[string]*jsonschema.Schema{
			"score": {Type: "number", Minimum: &low, Maximum: &high},
			"label": {Type: "string", Enum: []any{"a", "b"}},
			"list":  {Types: []string{"array", "null"}, MinItems: &minItems, Items: &jsonschema.Schema{Type: "string"}},
		},
	}
	out, err := ConvertSchema(in)
	if err != nil {
		t.Fatalf("ConvertSchema: %v", err)
	}
	if !slices.Equal(out.PropertyOrdering, []string{"label", "list", "score"}) {
		t.Fatalf("ordering = %v", out.PropertyOrdering)
	}
	list := out.Properties["list"]
	if list.Type != genai.TypeArray || list.Nullable == nil || !*list.Nullable || *list.MinItems != 2 || list.Items.Type != genai.TypeString {
		t.Fatalf("list = %+v", list)
	}
	if score := out.Properties["score"]; *score.Minimum != 0 || *score.Maximum != 1 {
		t.Fatalf("score = %+v", score)
	}
	if !slices.Equal(out.Properties["label"].Enum, []string{"a", "b"}) {
		t.Fatalf("enum = %v", out.Properties["label"].Enum)
	}
}

func TestConvertSchemaRejects(t *testing.T) {
	tests := []struct {
		name   string
		schema *jsonschema.Schema
	}{
		{"ref", &jsonschema.Schema{Ref: "#/defs/x"}},
		{"anyOf", &jsonschema.Schema{AnyOf: []*jsonschema.Schema{{Type: "string"}}}},
		{"multi type", &jsonschema.Schema{Types: []string{"string", "integer"}}},
		{"numeric enum", &jsonschema.Schema{Type: "integer", Enum: []any{1}}},
		{"nested", &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "tuple"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ConvertSchema(tt.schema); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
