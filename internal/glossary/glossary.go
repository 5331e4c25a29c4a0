// Package glossary keeps the user's saved term definitions.
package glossary

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"teachback/internal/logging"
	"teachback/internal/store"
	"teachback/internal/teachback"
)

// Key is the store slot holding the glossary JSON array.
const Key = "teachback_glossary_v1"

// Glossary is a case-insensitively unique, sorted list of terms.
type Glossary struct {
	mu     sync.Mutex
	kv     store.KV
	logger *slog.Logger
	terms  []teachback.Term
	fold   cases.Caser
	tag    language.Tag
}

// Load reads the stored glossary. Corrupt data loads as an empty glossary.
func Load(ctx context.Context, kv store.KV, tag language.Tag, logger *slog.Logger) (*Glossary, error) {
	g := &Glossary{
		kv:     kv,
		logger: logging.NewComponentLogger(logger, "glossary"),
		fold:   cases.Fold(),
		tag:    tag,
	}
	raw, ok, err := kv.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("load glossary: %w", err)
	}
	if !ok {
		return g, nil
	}
	var terms []teachback.Term
	if err := json.Unmarshal([]byte(raw), &terms); err != nil {
		logging.WarnWithContext(g.logger, "stored glossary unreadable; starting empty", "glossary_corrupted",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the glossary will be overwritten on the next change"),
		)
		return g, nil
	}
	for _, term := range terms {
		if strings.TrimSpace(term.Term) == "" || g.index(term.Term) >= 0 {
			continue
		}
		g.terms = append(g.terms, term)
	}
	g.sort()
	return g, nil
}

// Terms returns a copy of the glossary in sorted order.
func (g *Glossary) Terms() []teachback.Term {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]teachback.Term, len(g.terms))
	copy(out, g.terms)
	return out
}

// Len returns the number of terms.
func (g *Glossary) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.terms)
}

// Contains reports whether term is present, ignoring case.
func (g *Glossary) Contains(term string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.index(term) >= 0
}

// Add stores a term. A case-insensitive duplicate is ignored and added is false.
func (g *Glossary) Add(ctx context.Context, term teachback.Term) (added bool, err error) {
	term.Term = strings.TrimSpace(term.Term)
	term.Definition = strings.TrimSpace(term.Definition)
	if term.Term == "" {
		return false, fmt.Errorf("glossary term is empty")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.index(term.Term) >= 0 {
		return false, nil
	}
	g.terms = append(g.terms, term)
	g.sort()
	if err := g.persist(ctx); err != nil {
		return false, err
	}
	g.logger.Debug("glossary term added", logging.String("term", term.Term), logging.Int("count", len(g.terms)))
	return true, nil
}

// Remove deletes a term, ignoring case. removed is false when it was absent.
func (g *Glossary) Remove(ctx context.Context, term string) (removed bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := g.index(term)
	if idx < 0 {
		return false, nil
	}
	g.terms = append(g.terms[:idx], g.terms[idx+1:]...)
	g.sort()
	if err := g.persist(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (g *Glossary) index(term string) int {
	key := g.fold.String(strings.TrimSpace(term))
	for i, t := range g.terms {
		if g.fold.String(t.Term) == key {
			return i
		}
	}
	return -1
}

func (g *Glossary) sort() {
	c := collate.New(g.tag, collate.IgnoreCase)
	c.Sort(byTerm(g.terms))
}

func (g *Glossary) persist(ctx context.Context) error {
	terms := g.terms
	if terms == nil {
		terms = []teachback.Term{}
	}
	data, err := json.Marshal(terms)
	if err != nil {
		return fmt.Errorf("encode glossary: %w", err)
	}
	if err := g.kv.Set(ctx, Key, string(data)); err != nil {
		return fmt.Errorf("save glossary: %w", err)
	}
	return nil
}

// byTerm adapts a term slice to collate.Lister.
type byTerm []teachback.Term

func (b byTerm) Len() int           { return len(b) }
func (b byTerm) Swap(i, j int)      { b[i], b[j] = b[j], b[i] }
func (b byTerm) Bytes(i int) []byte { return []byte(b[i].Term) }
