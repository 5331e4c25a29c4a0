package gemini

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"

	"teachback/internal/ai"
	"teachback/internal/live"
	"teachback/internal/teachback"
)

type fakeModels struct {
	resp   *genai.GenerateContentResponse
	stream []*genai.GenerateContentResponse
	err    error

	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	return f.resp, f.err
}

func (f *fakeModels) GenerateContentStream(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	f.model, f.contents, f.config = model, contents, config
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, resp := range f.stream {
			if !yield(resp, nil) {
				return
			}
		}
		if f.err != nil {
			yield(nil, f.err)
		}
	}
}

func reply(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: "model", Parts: parts}}},
	}
}

func newTestClient(models generator) *Client {
	return &Client{cfg: normalizeConfig(Config{APIKey: "k"}), models: models}
}

func TestGenerateJSON(t *testing.T) {
	models := &fakeModels{resp: reply(&genai.Part{Text: "thinking", Thought: true}, &genai.Part{Text: `{"a":1}`})}
	client := newTestClient(models)
	schema := &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{"a": {Type: "integer"}}, Required: []string{"a"}}

	got, err := client.GenerateJSON(context.Background(), ai.Request{
		SystemInstruction: "system",
		Prompt:            "Describe.",
		Image:             &ai.Image{MIMEType: "image/png", Data: []byte{1}},
		Schema:            schema,
		Temperature:       0.5,
	})
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if got != `{"a":1}` {
		t.Fatalf("reply = %q", got)
	}
	if models.model != DefaultModel {
		t.Fatalf("model = %q", models.model)
	}
	if models.config.ResponseMIMEType != "application/json" || models.config.ResponseSchema == nil {
		t.Fatalf("config = %+v", models.config)
	}
	if *models.config.Temperature != 0.5 || models.config.SystemInstruction == nil {
		t.Fatalf("config = %+v", models.config)
	}
	parts := models.contents[0].Parts
	if len(parts) != 2 || parts[1].InlineData == nil || parts[1].InlineData.MIMEType != "image/png" {
		t.Fatalf("parts = %+v", parts)
	}
}

func TestGenerateJSONEmptyReply(t *testing.T) {
	client := newTestClient(&fakeModels{resp: &genai.GenerateContentResponse{}})
	if _, err := client.GenerateJSON(context.Background(), ai.Request{Prompt: "x"}); err == nil || !strings.Contains(err.Error(), "empty content") {
		t.Fatalf("expected empty content error, got %v", err)
	}
}

func TestSynthesizeSpeech(t *testing.T) {
	models := &fakeModels{resp: reply(&genai.Part{InlineData: &genai.Blob{Data: []byte{1, 2, 3, 4}, MIMEType: "audio/pcm"}})}
	client := newTestClient(models)
	pcm, err := client.SynthesizeSpeech(context.Background(), "hello", "Puck")
	if err != nil {
		t.Fatalf("SynthesizeSpeech: %v", err)
	}
	if len(pcm) != 4 || models.model != DefaultTTSModel {
		t.Fatalf("pcm %d bytes via %s", len(pcm), models.model)
	}
	if models.config.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName != "Puck" {
		t.Fatal("voice not configured")
	}
	if len(models.config.ResponseModalities) != 1 || models.config.ResponseModalities[0] != "AUDIO" {
		t.Fatalf("modalities = %v", models.config.ResponseModalities)
	}

	empty := newTestClient(&fakeModels{resp: reply(&genai.Part{Text: "no audio"})})
	if _, err := empty.SynthesizeSpeech(context.Background(), "hello", "Puck"); err == nil {
		t.Fatal("expected error without audio data")
	}
}

func TestTranscribeAudio(t *testing.T) {
	models := &fakeModels{resp: reply(&genai.Part{Text: "take one tablet"})}
	client := newTestClient(models)
	text, err := client.TranscribeAudio(context.Background(), []byte{9}, "audio/wav", "Transcribe the following audio.")
	if err != nil {
		t.Fatalf("TranscribeAudio: %v", err)
	}
	if text != "take one tablet" {
		t.Fatalf("text = %q", text)
	}
	parts := models.contents[0].Parts
	if parts[0].InlineData == nil || parts[1].Text != "Transcribe the following audio." {
		t.Fatalf("parts = %+v", parts)
	}
}

func TestStreamChat(t *testing.T) {
	models := &fakeModels{stream: []*genai.GenerateContentResponse{
		reply(&genai.Part{Text: "A beta"}),
		reply(&genai.Part{Text: "-blocker"}),
	}}
	client := newTestClient(models)
	history := []teachback.Utterance{{Role: teachback.RoleUser, Text: "hi"}, {Role: teachback.RoleModel, Text: "hello"}}

	var got strings.Builder
	for delta, err := range client.StreamChat(context.Background(), "system", history, "what is a beta-blocker?") {
		if err != nil {
			t.Fatalf("stream: %v", err)
		}
		got.WriteString(delta)
	}
	if got.String() != "A beta-blocker" {
		t.Fatalf("reply = %q", got.String())
	}
	if len(models.contents) != 3 || models.contents[1].Role != "model" {
		t.Fatalf("contents = %+v", models.contents)
	}

	failing := newTestClient(&fakeModels{err: errors.New("quota")})
	var streamErr error
	for _, err := range failing.StreamChat(context.Background(), "", nil, "hi") {
		streamErr = err
	}
	if streamErr == nil {
		t.Fatal("expected stream error")
	}
}

type fakeSession struct {
	sent     []genai.LiveRealtimeInput
	messages []*genai.LiveServerMessage
	closed   bool
}

func (f *fakeSession) SendRealtimeInput(input genai.LiveRealtimeInput) error {
	f.sent = append(f.sent, input)
	return nil
}

func (f *fakeSession) Receive() (*genai.LiveServerMessage, error) {
	if len(f.messages) == 0 {
		return nil, errors.New("closed")
	}
	msg := f.messages[0]
	f.messages = f.messages[1:]
	return msg, nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func TestLiveConnect(t *testing.T) {
	session := &fakeSession{messages: []*genai.LiveServerMessage{{
		ServerContent: &genai.LiveServerContent{
			InputTranscription:  &genai.Transcription{Text: "hello"},
			OutputTranscription: &genai.Transcription{Text: "hi there"},
			ModelTurn:           &genai.Content{Parts: []*genai.Part{{InlineData: &genai.Blob{Data: []byte{1, 2}}}, {InlineData: &genai.Blob{Data: []byte{3}}}}},
			TurnComplete:        true,
		},
	}}}
	var gotConfig *genai.LiveConnectConfig
	client := newTestClient(nil)
	client.connect = func(_ context.Context, model string, config *genai.LiveConnectConfig) (liveSession, error) {
		if model != DefaultLiveModel {
			t.Errorf("model = %q", model)
		}
		gotConfig = config
		return session, nil
	}

	conn, err := client.Connect(context.Background(), live.ConnectConfig{SystemInstruction: "sys", Voice: "Zephyr", InputSampleRate: 16000})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if gotConfig.InputAudioTranscription == nil || gotConfig.OutputAudioTranscription == nil || gotConfig.SystemInstruction == nil {
		t.Fatalf("config = %+v", gotConfig)
	}
	if err := conn.SendAudio([]byte{0, 0}); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}
	if session.sent[0].Audio.MIMEType != "audio/pcm;rate=16000" {
		t.Fatalf("mime = %q", session.sent[0].Audio.MIMEType)
	}
	msg, err := conn.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if msg.InputTranscript != "hello" || msg.OutputTranscript != "hi there" || len(msg.Audio) != 3 || !msg.TurnComplete {
		t.Fatalf("message = %+v", msg)
	}
	if _, err := conn.Receive(); err == nil {
		t.Fatal("expected receive error")
	}
	_ = conn.Close()
	if !session.closed {
		t.Fatal("session not closed")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), Config{}); err == nil {
		t.Fatal("expected configuration error")
	}
}
