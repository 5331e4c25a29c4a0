package ai

import (
	"strings"
	"testing"
)

func TestDecodeJSONHandlesFencesAndProse(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"plain", `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```"},
		{"bare fence", "```\n{\"a\":1}\n```"},
		{"prose", "Here you go: {\"a\":1} hope that helps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				A int `json:"a"`
			}
			if err := DecodeJSON(tt.content, &out); err != nil {
				t.Fatalf("DecodeJSON returned error: %v", err)
			}
			if out.A != 1 {
				t.Fatalf("unexpected value %d", out.A)
			}
		})
	}
}

func TestDecodeJSONErrors(t *testing.T) {
	var out map[string]any
	if err := DecodeJSON("   ", &out); err == nil {
		t.Fatal("expected error for empty payload")
	}
	err := DecodeJSON("no json here", &out)
	if err == nil || !strings.Contains(err.Error(), "payload snippet") {
		t.Fatalf("expected snippet in error, got %v", err)
	}
}

func TestSnippetTruncates(t *testing.T) {
	long := strings.Repeat("word ", 100)
	got := Snippet(long)
	if !strings.HasSuffix(got, "...") || len([]rune(got)) != 163 {
		t.Fatalf("unexpected snippet %q", got)
	}
	if Snippet("") != "<empty>" {
		t.Fatal("expected <empty> marker")
	}
}
