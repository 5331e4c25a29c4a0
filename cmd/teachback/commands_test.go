package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"teachback/internal/services"
	"teachback/internal/testsupport"
)

func TestGlossaryAddListRemove(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"glossary", "add", "Edema", "Swelling", "from", "fluid"}, env.configPath, ""); err != nil {
		t.Fatalf("glossary add: %v", err)
	}
	out, _, err := runCLI(t, []string{"glossary", "add", "edema", "again"}, env.configPath, "")
	if err != nil {
		t.Fatalf("glossary add duplicate: %v", err)
	}
	requireContains(t, out, "already in your glossary")

	out, _, err = runCLI(t, []string{"glossary", "list"}, env.configPath, "")
	if err != nil {
		t.Fatalf("glossary list: %v", err)
	}
	requireContains(t, out, "Swelling from fluid")

	if _, _, err := runCLI(t, []string{"glossary", "remove", "EDEMA"}, env.configPath, ""); err != nil {
		t.Fatalf("glossary remove: %v", err)
	}
	out, _, err = runCLI(t, []string{"glossary", "list"}, env.configPath, "")
	if err != nil {
		t.Fatalf("glossary list: %v", err)
	}
	requireContains(t, out, "glossary is empty")
}

func TestChatSavesDefinition(t *testing.T) {
	env := setupCLITestEnv(t)
	reply := `{"isDefinition": true, "term": "Hypertension", "definition": "High blood pressure."}`
	installBackends(t, &backends{chat: fakeStreamer{reply: reply}})

	out, _, err := runCLI(t, []string{"chat", "--save", "what", "is", "hypertension"}, env.configPath, "")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	requireContains(t, out, "Hypertension: High blood pressure.")
	requireContains(t, out, `Saved "Hypertension"`)
	if bytes.Contains([]byte(out), []byte("isDefinition")) {
		t.Fatalf("expected raw JSON to be held back, got %q", out)
	}

	out, _, err = runCLI(t, []string{"glossary", "list"}, env.configPath, "")
	if err != nil {
		t.Fatalf("glossary list: %v", err)
	}
	requireContains(t, out, "Hypertension")
}

func TestChatPlainReplyStreams(t *testing.T) {
	env := setupCLITestEnv(t)
	installBackends(t, &backends{chat: fakeStreamer{reply: "Take it with food."}})

	out, _, err := runCLI(t, []string{"chat", "how", "do", "I", "take", "it"}, env.configPath, "")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	requireContains(t, out, "Take it with food.")
}

func TestChatStreamFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	installBackends(t, &backends{chat: fakeStreamer{err: errors.New("boom")}})

	out, _, err := runCLI(t, []string{"chat", "hello"}, env.configPath, "")
	if err == nil {
		t.Fatal("expected stream error")
	}
	requireContains(t, out, "Sorry, I encountered an error. Please try again.")
}

func TestSpeakWritesWAV(t *testing.T) {
	env := setupCLITestEnv(t)
	installBackends(t, &backends{speech: &fakeSpeech{pcm: []byte{1, 0, 2, 0, 3, 0}}})

	target := filepath.Join(env.baseDir, "out", "hello.wav")
	out, _, err := runCLI(t, []string{"speak", "--lang", "es", "--out", target, "Hola"}, env.configPath, "")
	if err != nil {
		t.Fatalf("speak: %v", err)
	}
	requireContains(t, out, "Spanish")
	requireContains(t, out, "Puck")
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) || len(data) != 44+6 {
		t.Fatalf("unexpected wav: %d bytes", len(data))
	}
}

func TestTranslateText(t *testing.T) {
	env := setupCLITestEnv(t)
	fake := &fakeSpeech{text: "Tome con comida."}
	installBackends(t, &backends{speech: fake})

	out, _, err := runCLI(t, []string{"translate", "--text", "Take with food.", "--to", "es"}, env.configPath, "")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	requireContains(t, out, "Spanish: Tome con comida.")
	if len(fake.prompts) != 1 {
		t.Fatalf("expected one prompt, got %d", len(fake.prompts))
	}
	requireContains(t, fake.prompts[0], "Take with food.")
}

func TestTranslateRecordingFile(t *testing.T) {
	env := setupCLITestEnv(t)
	installBackends(t, &backends{speech: &fakeSpeech{transcript: "Where is the pharmacy?", text: "¿Dónde está la farmacia?"}})

	clip := filepath.Join(env.baseDir, "question.wav")
	testsupport.WriteWAV(t, clip, 64, 16000)
	out, _, err := runCLI(t, []string{"translate", "--file", clip, "--from", "en", "--to", "es"}, env.configPath, "")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	requireContains(t, out, "English: Where is the pharmacy?")
	requireContains(t, out, "Spanish: ¿Dónde está la farmacia?")
}

func TestTranslateRejectsUnknownFormat(t *testing.T) {
	env := setupCLITestEnv(t)
	installBackends(t, &backends{speech: &fakeSpeech{}})

	clip := filepath.Join(env.baseDir, "question.ogg")
	if err := os.WriteFile(clip, []byte("OggS"), 0o644); err != nil {
		t.Fatalf("write clip: %v", err)
	}
	_, _, err := runCLI(t, []string{"translate", "--file", clip}, env.configPath, "")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLiveRequiresLiveCapableProvider(t *testing.T) {
	env := setupCLITestEnv(t)
	installBackends(t, &backends{json: testsupport.NewScriptedBackend()})

	_, _, err := runCLI(t, []string{"live"}, env.configPath, "")
	if !errors.Is(err, services.ErrUnsupportedBrowser) {
		t.Fatalf("expected unsupported platform, got %v", err)
	}
}

func TestLiveDemoTranscript(t *testing.T) {
	env := setupCLITestEnv(t)
	installBackends(t, &backends{})

	out, _, err := runCLI(t, []string{"live", "--demo"}, env.configPath, "")
	if err != nil {
		t.Fatalf("live demo: %v", err)
	}
	requireContains(t, out, "You: ")
	requireContains(t, out, "Assistant: ")
}

func TestTourStatusAndReset(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"tour", "status"}, env.configPath, "")
	if err != nil {
		t.Fatalf("tour status: %v", err)
	}
	requireContains(t, out, "Not completed")
	requireContains(t, out, "Welcome")

	out, _, err = runCLI(t, []string{"tour", "reset"}, env.configPath, "")
	if err != nil {
		t.Fatalf("tour reset: %v", err)
	}
	requireContains(t, out, "Tour reset")
}

func TestStatusOffline(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status", "--offline"}, env.configPath, "")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Data directory")
	requireContains(t, out, "App starts")
	requireContains(t, out, "Saved session")
}

func TestStatusReportsBackendHealth(t *testing.T) {
	env := setupCLITestEnv(t)
	installBackends(t, &backends{pinger: fakePinger{err: errors.New("401 unauthorized")}})

	out, _, err := runCLI(t, []string{"status"}, env.configPath, "")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "[ERROR]")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath, "")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.configPath, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.configPath, ""); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestConfigShowMasksKey(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.AI.APIKey = "sk-secret-1234"
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath, "")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if bytes.Contains([]byte(out), []byte("sk-secret")) {
		t.Fatalf("expected key to be masked: %s", out)
	}
	requireContains(t, out, "1234")
}

func TestLogsFiltersBySession(t *testing.T) {
	env := setupCLITestEnv(t)

	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	content := "2026-01-02T03:04:05Z INFO session: session saved session_id=first\n" +
		"2026-01-02T03:04:06Z INFO session: session saved session_id=second\n"
	if err := os.WriteFile(filepath.Join(env.cfg.Paths.LogDir, "teachback.log"), []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "--session", "second"}, env.configPath, "")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "session_id=second")
	if bytes.Contains([]byte(out), []byte("session_id=first")) {
		t.Fatalf("expected first session to be filtered out, got %q", out)
	}

	out, _, err = runCLI(t, []string{"logs", "--component", "chat"}, env.configPath, "")
	if err != nil {
		t.Fatalf("logs component: %v", err)
	}
	requireContains(t, out, "No log entries available")
}
