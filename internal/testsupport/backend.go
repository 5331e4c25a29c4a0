package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"teachback/internal/ai"
	"teachback/internal/teachback"
)

// Reply is one scripted backend answer.
type Reply struct {
	Body string
	Err  error
	// Block makes the call wait for ctx cancellation or Release.
	Block bool
}

// ScriptedBackend replays replies in order and records every request.
type ScriptedBackend struct {
	mu      sync.Mutex
	replies []Reply
	calls   []ai.Request
	release chan struct{}
	started chan struct{}
}

// NewScriptedBackend returns a backend that answers with replies in order.
func NewScriptedBackend(replies ...Reply) *ScriptedBackend {
	return &ScriptedBackend{
		replies: replies,
		release: make(chan struct{}),
		started: make(chan struct{}, 16),
	}
}

// GenerateJSON implements ai.Backend.
func (b *ScriptedBackend) GenerateJSON(ctx context.Context, req ai.Request) (string, error) {
	b.mu.Lock()
	idx := len(b.calls)
	b.calls = append(b.calls, req)
	var reply Reply
	if idx < len(b.replies) {
		reply = b.replies[idx]
	} else {
		reply = Reply{Err: errors.New("scripted backend: no reply left")}
	}
	b.mu.Unlock()

	select {
	case b.started <- struct{}{}:
	default:
	}
	if reply.Block {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-b.release:
		}
	}
	return reply.Body, reply.Err
}

// Started delivers one value per GenerateJSON call.
func (b *ScriptedBackend) Started() <-chan struct{} {
	return b.started
}

// Release unblocks every blocked call.
func (b *ScriptedBackend) Release() {
	close(b.release)
}

// Calls returns a copy of the recorded requests.
func (b *ScriptedBackend) Calls() []ai.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ai.Request(nil), b.calls...)
}

// CallCount reports how many requests were made.
func (b *ScriptedBackend) CallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

// ClassificationJSON encodes a classifier reply.
func ClassificationJSON(t testing.TB, category teachback.Category, confidence float64) string {
	t.Helper()
	result := teachback.ClassificationResult{
		Context:        category,
		Confidence:     confidence,
		TopK:           []teachback.LabelScore{},
		UnknownReasons: []string{},
	}
	if category.Selectable() {
		result.TopK = append(result.TopK, teachback.LabelScore{Label: category, Score: confidence})
	}
	return mustJSON(t, result)
}

// ContentJSON encodes the demo content re-labelled as category. The demo
// discharge details are replaced by an empty branch for category.
func ContentJSON(t testing.TB, category teachback.Category) string {
	t.Helper()
	content := teachback.DemoContent()
	content.Context = category
	content.Domain = teachback.Domain{}
	switch category {
	case teachback.Prescription:
		content.Domain.Prescription = &teachback.PrescriptionDetails{
			Dose: "5 mg", Route: "by mouth", Frequency: "twice daily",
			CommonSideEffects: []string{}, InteractionWarnings: []string{},
		}
	case teachback.EOB:
		content.Domain.EOB = &teachback.EOBDetails{ClaimID: "C-1", AppealWindowDays: 180, NextSteps: []string{}}
	case teachback.PriorAuth:
		content.Domain.PriorAuth = &teachback.PriorAuthDetails{Status: "pending", MissingItems: []string{}, ClinicalCriteria: []string{}, Checklist: []string{}}
	case teachback.Discharge:
		content.Domain = teachback.DemoContent().Domain
	case teachback.Lab:
		content.Domain.Lab = &teachback.LabDetails{Test: "CBC", Value: "12", Unit: "g/dL", NextSteps: []string{}}
	case teachback.Unknown:
		content.Domain.Unknown = &teachback.UnknownDetails{KeyPoints: []string{"read carefully"}, ActionChecklist: []string{}, QuestionsToAskProvider: []string{}}
	}
	return mustJSON(t, content)
}

func mustJSON(t testing.TB, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}
