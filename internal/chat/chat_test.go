package chat_test

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"testing"
	"time"

	"teachback/internal/chat"
	"teachback/internal/logging"
	"teachback/internal/teachback"
)

type scriptedStreamer struct {
	mu        sync.Mutex
	fragments [][]string
	errs      []error
	histories [][]teachback.Utterance
	gate      chan struct{}
}

func (s *scriptedStreamer) StreamChat(ctx context.Context, system string, history []teachback.Utterance, message string) iter.Seq2[string, error] {
	s.mu.Lock()
	call := len(s.histories)
	s.histories = append(s.histories, append([]teachback.Utterance(nil), history...))
	var fragments []string
	var err error
	if call < len(s.fragments) {
		fragments = s.fragments[call]
	}
	if call < len(s.errs) {
		err = s.errs[call]
	}
	gate := s.gate
	s.mu.Unlock()

	return func(yield func(string, error) bool) {
		if gate != nil {
			<-gate
		}
		for _, f := range fragments {
			if !yield(f, nil) {
				return
			}
		}
		if err != nil {
			yield("", err)
		}
	}
}

func drain(t *testing.T, events <-chan chat.Event) ([]string, chat.Event) {
	t.Helper()
	var deltas []string
	var final chat.Event
	for ev := range events {
		if ev.Done {
			final = ev
			continue
		}
		deltas = append(deltas, ev.Delta)
	}
	if !final.Done {
		t.Fatal("stream closed without a Done event")
	}
	return deltas, final
}

func TestNewStartsWithGreeting(t *testing.T) {
	c := chat.New(&scriptedStreamer{}, logging.NewNop())
	turns := c.Turns()
	if len(turns) != 1 || turns[0].Role != teachback.RoleModel || turns[0].Text != chat.Greeting {
		t.Fatalf("turns = %+v", turns)
	}
}

func TestSendStreamsDeltasInOrder(t *testing.T) {
	streamer := &scriptedStreamer{fragments: [][]string{{"Take it ", "with ", "food."}}}
	c := chat.New(streamer, logging.NewNop())

	events, err := c.Send(context.Background(), "How do I take metoprolol?")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	deltas, final := drain(t, events)
	if strings.Join(deltas, "|") != "Take it |with |food." {
		t.Fatalf("deltas = %q", deltas)
	}
	if final.Err != nil || final.Turn.Text != "Take it with food." || final.Turn.Definition != nil {
		t.Fatalf("final = %+v", final)
	}

	turns := c.Turns()
	if len(turns) != 3 || turns[1].Role != teachback.RoleUser || turns[2].Text != "Take it with food." {
		t.Fatalf("turns = %+v", turns)
	}
	if c.Busy() {
		t.Fatal("still busy after completion")
	}
	if len(streamer.histories[0]) != 0 {
		t.Fatalf("greeting leaked into history: %+v", streamer.histories[0])
	}
}

func TestDefinitionReplyBecomesCard(t *testing.T) {
	reply := `{"isDefinition": true, "term": "Anticoagulant", "definition": "A medicine that helps prevent blood clots."}`
	streamer := &scriptedStreamer{fragments: [][]string{{reply[:20], reply[20:]}, {"Sure."}}}
	c := chat.New(streamer, logging.NewNop())

	events, err := c.Send(context.Background(), "What is an anticoagulant?")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	_, final := drain(t, events)
	if final.Turn.Definition == nil || final.Turn.Definition.Term != "Anticoagulant" {
		t.Fatalf("definition = %+v", final.Turn.Definition)
	}
	if final.Turn.Text != "" {
		t.Fatalf("text not cleared: %q", final.Turn.Text)
	}

	events, err = c.Send(context.Background(), "Thanks")
	if err != nil {
		t.Fatalf("second Send: %v", err)
	}
	drain(t, events)
	history := streamer.histories[1]
	if len(history) != 2 || history[1].Text != reply {
		t.Fatalf("history = %+v", history)
	}
}

func TestStreamErrorAppendsErrorText(t *testing.T) {
	streamer := &scriptedStreamer{
		fragments: [][]string{nil, {"ok"}},
		errs:      []error{errors.New("upstream 500")},
	}
	c := chat.New(streamer, logging.NewNop())

	events, err := c.Send(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	_, final := drain(t, events)
	if final.Err == nil || final.Turn.Text != chat.ErrorText || !final.Turn.Failed {
		t.Fatalf("final = %+v", final)
	}
	turns := c.Turns()
	if len(turns) != 3 || turns[2].Text != chat.ErrorText {
		t.Fatalf("turns = %+v", turns)
	}

	events, err = c.Send(context.Background(), "again")
	if err != nil {
		t.Fatalf("Send after error: %v", err)
	}
	drain(t, events)
	for _, u := range streamer.histories[1] {
		if u.Text == chat.ErrorText {
			t.Fatal("error text sent as history")
		}
	}
}

func TestOneSendInFlight(t *testing.T) {
	streamer := &scriptedStreamer{fragments: [][]string{{"done"}}, gate: make(chan struct{})}
	c := chat.New(streamer, logging.NewNop())

	events, err := c.Send(context.Background(), "first")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := c.Send(context.Background(), "second"); !errors.Is(err, chat.ErrBusy) {
		t.Fatalf("second Send error = %v", err)
	}
	close(streamer.gate)
	drain(t, events)
	if c.Busy() {
		t.Fatal("busy after drain")
	}
}

func TestDemoModeDisablesSend(t *testing.T) {
	c := chat.New(&scriptedStreamer{}, logging.NewNop())
	c.SetDemo(true)
	if got := len(c.Turns()); got != len(teachback.DemoChat()) {
		t.Fatalf("demo turns = %d", got)
	}
	if _, err := c.Send(context.Background(), "hi"); !errors.Is(err, chat.ErrDemo) {
		t.Fatalf("Send in demo error = %v", err)
	}
	c.SetDemo(false)
	if turns := c.Turns(); len(turns) != 1 || turns[0].Text != chat.Greeting {
		t.Fatalf("turns after demo = %+v", turns)
	}
}

func TestParseDefinition(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		ok    bool
	}{
		{"plain text", "An anticoagulant thins the blood.", false},
		{"definition", `{"isDefinition":true,"term":"BMP","definition":"A blood test."}`, true},
		{"fenced", "```json\n{\"isDefinition\":true,\"term\":\"CBC\",\"definition\":\"Counts blood cells.\"}\n```", true},
		{"flag false", `{"isDefinition":false,"term":"BMP","definition":"x"}`, false},
		{"missing definition", `{"isDefinition":true,"term":"BMP"}`, false},
		{"broken json", `{"isDefinition":true,`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := chat.ParseDefinition(tt.reply)
			if ok != tt.ok {
				t.Fatalf("ParseDefinition(%q) ok = %v, want %v", tt.reply, ok, tt.ok)
			}
		})
	}
}

// cancelingStreamer yields n fragments and then cancels the caller's context.
type cancelingStreamer struct {
	n      int
	cancel context.CancelFunc
}

func (s *cancelingStreamer) StreamChat(ctx context.Context, system string, history []teachback.Utterance, message string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for range s.n {
			if !yield("word ", nil) {
				return
			}
		}
		s.cancel()
	}
}

func TestCanceledStreamExitsWithoutReader(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// exactly fills the event buffer so the final event has nowhere to go
	streamer := &cancelingStreamer{n: 16, cancel: cancel}
	c := chat.New(streamer, logging.NewNop())

	events, err := c.Send(ctx, "What is edema?")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for c.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("stream never finished")
		}
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	deltas := 0
	for ev := range events {
		if ev.Done {
			t.Fatal("final event was queued after the context was canceled")
		}
		deltas++
	}
	if deltas != streamer.n {
		t.Fatalf("deltas = %d, want %d", deltas, streamer.n)
	}
}
