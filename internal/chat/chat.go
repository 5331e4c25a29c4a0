// Package chat runs the Chat Helper conversation: streamed replies, with
// structured definitions that can be added to the glossary.
package chat

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"teachback/internal/ai"
	"teachback/internal/logging"
	"teachback/internal/services"
	"teachback/internal/teachback"
)

// Greeting opens every live conversation.
const Greeting = `Hello! How can I help you understand your medical instructions today? You can ask me to define a term like "What is an anticoagulant?" or rephrase a sentence.`

// ErrorText replaces a reply the backend failed to produce.
const ErrorText = "Sorry, I encountered an error. Please try again."

// SystemInstruction steers the helper model.
const SystemInstruction = `You are a friendly patient-education helper. Explain medical words and sentences in plain language at about a 6th grade reading level. Never diagnose or change a treatment plan; suggest asking a clinician when the question needs one.
When the user asks what a single word or short phrase means, reply with only this JSON and nothing else: {"isDefinition": true, "term": "<the term>", "definition": "<one or two plain sentences>"}.
For every other message reply in plain text.`

var (
	// ErrBusy is returned when a reply is still streaming.
	ErrBusy = errors.New("chat reply in progress")
	// ErrDemo is returned when sending while the demo transcript is shown.
	ErrDemo = errors.New("chat is showing the demo transcript")
)

// Streamer produces a reply to message as ordered text fragments.
type Streamer interface {
	StreamChat(ctx context.Context, system string, history []teachback.Utterance, message string) iter.Seq2[string, error]
}

// Turn is one message in the conversation.
type Turn struct {
	ID         string
	Role       teachback.Role
	Text       string
	Definition *teachback.Term
	Failed     bool

	// reply keeps the raw model text for history when Text was cleared.
	reply string
}

// Event reports streaming progress. Deltas arrive in order; the last event
// has Done set and carries the final turn.
type Event struct {
	Delta string
	Done  bool
	Turn  Turn
	Err   error
}

// Chat is one conversation.
type Chat struct {
	streamer Streamer
	logger   *slog.Logger

	mu       sync.Mutex
	turns    []Turn
	inFlight bool
	demo     bool
}

// New returns a conversation that starts with the greeting.
func New(streamer Streamer, logger *slog.Logger) *Chat {
	c := &Chat{
		streamer: streamer,
		logger:   logging.NewComponentLogger(logger, "chat"),
	}
	c.reset()
	return c
}

func (c *Chat) reset() {
	c.turns = []Turn{{ID: uuid.NewString(), Role: teachback.RoleModel, Text: Greeting}}
}

// SetDemo switches between the canned demo transcript and a fresh
// conversation.
func (c *Chat) SetDemo(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.demo = on
	if !on {
		c.reset()
		return
	}
	c.turns = c.turns[:0]
	for _, u := range teachback.DemoChat() {
		c.turns = append(c.turns, Turn{ID: uuid.NewString(), Role: u.Role, Text: u.Text})
	}
}

// Demo reports whether the demo transcript is shown.
func (c *Chat) Demo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.demo
}

// Busy reports whether a reply is streaming.
func (c *Chat) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Turns returns a copy of the conversation.
func (c *Chat) Turns() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	for i := range out {
		if out[i].Definition != nil {
			d := *out[i].Definition
			out[i].Definition = &d
		}
	}
	return out
}

// Send appends the user's message and streams the reply. The caller must
// drain the returned channel; it is closed after the Done event.
func (c *Chat) Send(ctx context.Context, text string) (<-chan Event, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, services.Wrap(services.ErrValidation, "chat", "send", "message is empty", nil)
	}

	c.mu.Lock()
	switch {
	case c.demo:
		c.mu.Unlock()
		return nil, ErrDemo
	case c.inFlight:
		c.mu.Unlock()
		return nil, ErrBusy
	}
	history := c.historyLocked()
	c.turns = append(c.turns, Turn{ID: uuid.NewString(), Role: teachback.RoleUser, Text: text})
	modelID := uuid.NewString()
	c.turns = append(c.turns, Turn{ID: modelID, Role: teachback.RoleModel})
	c.inFlight = true
	c.mu.Unlock()

	events := make(chan Event, 16)
	go c.stream(ctx, modelID, history, text, events)
	return events, nil
}

func (c *Chat) stream(ctx context.Context, modelID string, history []teachback.Utterance, text string, events chan<- Event) {
	defer close(events)

	var reply strings.Builder
	var streamErr error
	for fragment, err := range c.streamer.StreamChat(ctx, SystemInstruction, history, text) {
		if err != nil {
			streamErr = err
			break
		}
		if fragment == "" {
			continue
		}
		reply.WriteString(fragment)
		c.update(modelID, func(t *Turn) { t.Text = reply.String() })
		select {
		case events <- Event{Delta: fragment}:
		case <-ctx.Done():
		}
	}

	final := c.finish(ctx, modelID, reply.String(), streamErr)
	select {
	case events <- Event{Done: true, Turn: final, Err: streamErr}:
	case <-ctx.Done():
	}
}

func (c *Chat) finish(ctx context.Context, modelID, reply string, streamErr error) Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false

	idx := c.indexLocked(modelID)
	if idx < 0 {
		return Turn{}
	}
	if streamErr != nil {
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "chat reply failed", "chat_stream_failed",
			logging.Error(streamErr),
			logging.String(logging.FieldErrorHint, "the user can resend the message"),
		)
		if strings.TrimSpace(c.turns[idx].Text) == "" {
			c.turns = append(c.turns[:idx], c.turns[idx+1:]...)
		}
		failed := Turn{ID: uuid.NewString(), Role: teachback.RoleModel, Text: ErrorText, Failed: true}
		c.turns = append(c.turns, failed)
		return failed
	}

	turn := &c.turns[idx]
	turn.reply = reply
	if def, ok := ParseDefinition(reply); ok {
		turn.Text = ""
		turn.Definition = &def
		c.logger.Debug("chat reply is a definition", logging.String("term", def.Term))
	}
	return *turn
}

func (c *Chat) update(id string, fn func(*Turn)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := c.indexLocked(id); idx >= 0 {
		fn(&c.turns[idx])
	}
}

func (c *Chat) indexLocked(id string) int {
	for i := len(c.turns) - 1; i >= 0; i-- {
		if c.turns[i].ID == id {
			return i
		}
	}
	return -1
}

// historyLocked returns prior exchanges for the backend. The greeting and
// failed replies are UI-only.
func (c *Chat) historyLocked() []teachback.Utterance {
	out := make([]teachback.Utterance, 0, len(c.turns))
	for i, t := range c.turns {
		if i == 0 || t.Failed {
			continue
		}
		text := t.Text
		if t.reply != "" {
			text = t.reply
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, teachback.Utterance{Role: t.Role, Text: text})
	}
	return out
}

type definitionReply struct {
	IsDefinition bool   `json:"isDefinition"`
	Term         string `json:"term"`
	Definition   string `json:"definition"`
}

// ParseDefinition reports whether reply is a structured definition. Anything
// else, including JSON missing a field, stays plain text.
func ParseDefinition(reply string) (teachback.Term, bool) {
	trimmed := strings.TrimSpace(reply)
	if !strings.Contains(trimmed, "{") {
		return teachback.Term{}, false
	}
	var parsed definitionReply
	if err := ai.DecodeJSON(trimmed, &parsed); err != nil {
		return teachback.Term{}, false
	}
	term := strings.TrimSpace(parsed.Term)
	definition := strings.TrimSpace(parsed.Definition)
	if !parsed.IsDefinition || term == "" || definition == "" {
		return teachback.Term{}, false
	}
	return teachback.Term{Term: term, Definition: definition}, true
}
