package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"teachback/internal/ai"
	"teachback/internal/services"
	"teachback/internal/teachback"
)

func completionHandler(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{"content": content},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, "```json\n{\"ok\":true}\n```"))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}

func TestGenerateJSONSendsSchemaAndImage(t *testing.T) {
	var got chatCompletionRequest
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test" {
			t.Errorf("missing bearer token")
		}
		if r.Header.Get("X-Title") != "Teach-Back" {
			t.Errorf("missing title header")
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_ = json.Unmarshal(body, &raw)
		completionHandler(t, `{"category":"domain.cardiology"}`)(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model", Title: "Teach-Back"})
	schema := &jsonschema.Schema{Type: "object", Required: []string{"category"}}
	reply, err := client.GenerateJSON(context.Background(), ai.Request{
		SystemInstruction: "be kind",
		Prompt:            "Classify this image.",
		Image:             &ai.Image{MIMEType: "image/png", Data: []byte{1, 2, 3}},
		Schema:            schema,
		Temperature:       0.2,
	})
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if reply != `{"category":"domain.cardiology"}` {
		t.Fatalf("reply = %q", reply)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_schema" || got.Temperature != 0.2 {
		t.Fatalf("request = %+v", got)
	}
	messages := raw["messages"].([]any)
	if len(messages) != 2 || messages[0].(map[string]any)["role"] != "system" {
		t.Fatalf("messages = %v", messages)
	}
	parts := messages[1].(map[string]any)["content"].([]any)
	image := parts[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
	if image != "data:image/png;base64,AQID" {
		t.Fatalf("image url = %q", image)
	}
}

func TestCompletionPayloadFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		choice map[string]any
		want   string
	}{
		{"delta", map[string]any{"delta": map[string]any{"content": `{"a":1}`}}, `{"a":1}`},
		{"legacy text", map[string]any{"text": `{"a":2}`}, `{"a":2}`},
		{"tool call", map[string]any{"message": map[string]any{"tool_calls": []any{
			map[string]any{"type": "function", "function": map[string]any{"arguments": `{"a":3}`}},
		}}}, `{"a":3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{tt.choice}})
			}))
			defer server.Close()
			client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
			got, err := client.GenerateJSON(context.Background(), ai.Request{Prompt: "x"})
			if err != nil {
				t.Fatalf("GenerateJSON: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEmptyContentHasSnippet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"finish_reason": "stop", "message": map[string]any{"content": ""}}},
		})
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
	)
	_, err := client.GenerateText(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(err.Error(), "empty content") || !strings.Contains(err.Error(), "response_snippet=") {
		t.Fatalf("expected empty-content error to include snippet, got %v", err)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
			return
		}
		completionHandler(t, "Tome una pastilla.")(w, r)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	text, err := client.GenerateText(context.Background(), "Translate")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != "Tome una pastilla." || calls != 2 {
		t.Fatalf("text %q after %d calls", text, calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, WithSleeper(func(time.Duration) {}))
	if _, err := client.GenerateText(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestTranscribeAudioSendsInputAudio(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		completionHandler(t, "take one tablet")(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	text, err := client.TranscribeAudio(context.Background(), []byte("RIFF"), "audio/wav", "Transcribe")
	if err != nil {
		t.Fatalf("TranscribeAudio: %v", err)
	}
	if text != "take one tablet" {
		t.Fatalf("text = %q", text)
	}
	parts := raw["messages"].([]any)[0].(map[string]any)["content"].([]any)
	audio := parts[1].(map[string]any)["input_audio"].(map[string]any)
	if audio["format"] != "wav" || audio["data"] != "UklGRg==" {
		t.Fatalf("input_audio = %v", audio)
	}

	if _, err := client.TranscribeAudio(context.Background(), []byte{1}, "audio/ogg", "x"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSynthesizeSpeechUnsupported(t *testing.T) {
	client := NewClient(Config{APIKey: "test"})
	if _, err := client.SynthesizeSpeech(context.Background(), "hi", "Zephyr"); !errors.Is(err, services.ErrUnsupportedBrowser) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}

func TestStreamChat(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": OPENROUTER PROCESSING\n\n")
		for _, delta := range []string{"An ", "anticoagulant ", "thins blood."} {
			chunk, _ := json.Marshal(map[string]any{"choices": []any{map[string]any{"delta": map[string]any{"content": delta}}}})
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	history := []teachback.Utterance{
		{Role: teachback.RoleUser, Text: "hi"},
		{Role: teachback.RoleModel, Text: "hello"},
	}
	var got strings.Builder
	for delta, err := range client.StreamChat(context.Background(), "system", history, "what is an anticoagulant?") {
		if err != nil {
			t.Fatalf("stream error: %v", err)
		}
		got.WriteString(delta)
	}
	if got.String() != "An anticoagulant thins blood." {
		t.Fatalf("reply = %q", got.String())
	}
	if raw["stream"] != true {
		t.Fatal("stream flag not set")
	}
	messages := raw["messages"].([]any)
	if len(messages) != 4 || messages[2].(map[string]any)["role"] != "assistant" {
		t.Fatalf("messages = %v", messages)
	}
}

func TestStreamChatErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("mode") == "status" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "data: {\"error\":{\"message\":\"overloaded\"}}\n\n")
	}))
	defer server.Close()

	for _, base := range []string{server.URL + "?mode=status", server.URL} {
		client := NewClient(Config{APIKey: "test", BaseURL: base})
		var streamErr error
		for _, err := range client.StreamChat(context.Background(), "", nil, "hi") {
			if err != nil {
				streamErr = err
			}
		}
		if streamErr == nil {
			t.Fatalf("%s: expected stream error", base)
		}
	}
}

func TestStreamChatStopsEarly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 5; i++ {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"%d\"}}]}\n\n", i)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	count := 0
	for range client.StreamChat(context.Background(), "", nil, "hi") {
		count++
		break
	}
	if count != 1 {
		t.Fatalf("expected one delta, got %d", count)
	}
}

func TestReadSSEJoinsDataLines(t *testing.T) {
	input := "event: message\ndata: one\ndata: two\n\n: comment\ndata: tail"
	var events []string
	err := readSSE(strings.NewReader(input), func(event, data string) error {
		events = append(events, event+"|"+data)
		return nil
	})
	if err != nil {
		t.Fatalf("readSSE: %v", err)
	}
	if len(events) != 2 || events[0] != "message|one\ntwo" || events[1] != "|tail" {
		t.Fatalf("events = %q", events)
	}
}
