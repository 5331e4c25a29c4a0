package quiz

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"teachback/internal/teachback"
)

// State is the quiz lifecycle position. Values match the persisted record.
type State string

// Quiz states.
const (
	NotStarted State = "NOT_STARTED"
	InProgress State = "IN_PROGRESS"
	Submitted  State = "SUBMITTED"
	Mastered   State = "MASTERED"
)

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case NotStarted, InProgress, Submitted, Mastered:
		return true
	}
	return false
}

// Active reports whether the elapsed clock should run in this state.
func (s State) Active() bool {
	return s == InProgress || s == Submitted
}

// ErrInvalidTransition is returned for commands the current state does not allow.
var ErrInvalidTransition = errors.New("invalid quiz transition")

// Answers maps question index to the chosen option text.
type Answers map[int]string

// Result is the evaluation of one question after submission.
type Result struct {
	Index     int
	Question  string
	Chosen    string
	Correct   bool
	Answer    string
	Rationale string
}

// Quiz holds the items and progress of one teach-back quiz.
type Quiz struct {
	items   []teachback.QAItem
	state   State
	answers Answers
	options [][]string
	rng     *rand.Rand
}

// New returns a NotStarted quiz over items. rng drives option shuffling; nil
// uses a randomly seeded source.
func New(items []teachback.QAItem, rng *rand.Rand) *Quiz {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Quiz{
		items:   slices.Clone(items),
		state:   NotStarted,
		answers: Answers{},
		rng:     rng,
	}
}

// Restore rebuilds a quiz from persisted progress. options may be nil, in
// which case a fresh shuffle is drawn for active states.
func Restore(items []teachback.QAItem, state State, answers Answers, options [][]string, rng *rand.Rand) (*Quiz, error) {
	q := New(items, rng)
	if !state.Valid() {
		return nil, fmt.Errorf("unknown quiz state %q", state)
	}
	for idx, choice := range answers {
		if idx < 0 || idx >= len(items) {
			return nil, fmt.Errorf("answer index %d out of range", idx)
		}
		if !slices.Contains(items[idx].Options(), choice) {
			return nil, fmt.Errorf("answer %q is not an option for question %d", choice, idx+1)
		}
		q.answers[idx] = choice
	}
	q.state = state
	if options != nil {
		if len(options) != len(items) {
			return nil, fmt.Errorf("option order has %d questions, want %d", len(options), len(items))
		}
		for i, opts := range options {
			if !sameOptions(opts, items[i].Options()) {
				return nil, fmt.Errorf("option order for question %d does not match its answers", i)
			}
		}
		q.options = cloneOptions(options)
	} else if state != NotStarted {
		q.shuffle()
	}
	return q, nil
}

// Start moves NotStarted to InProgress and draws the first option order.
func (q *Quiz) Start() error {
	if q.state != NotStarted {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, q.state)
	}
	q.shuffle()
	q.state = InProgress
	return nil
}

// State returns the lifecycle position.
func (q *Quiz) State() State {
	return q.state
}

// Len returns the number of questions.
func (q *Quiz) Len() int {
	return len(q.items)
}

// Items returns the quiz items.
func (q *Quiz) Items() []teachback.QAItem {
	return slices.Clone(q.items)
}

// Options returns the current display order for question i.
func (q *Quiz) Options(i int) []string {
	if i < 0 || i >= len(q.options) {
		return nil
	}
	return slices.Clone(q.options[i])
}

// OptionOrder returns the display order for every question.
func (q *Quiz) OptionOrder() [][]string {
	return cloneOptions(q.options)
}

// Answers returns a copy of the chosen answers.
func (q *Quiz) Answers() Answers {
	out := make(Answers, len(q.answers))
	for k, v := range q.answers {
		out[k] = v
	}
	return out
}

// Answered reports whether every question has a chosen answer.
func (q *Quiz) Answered() bool {
	return len(q.answers) == len(q.items)
}

// Answer records choice for question i. It does not evaluate anything.
func (q *Quiz) Answer(i int, choice string) error {
	if q.state != InProgress {
		return fmt.Errorf("%w: answer while %s", ErrInvalidTransition, q.state)
	}
	if i < 0 || i >= len(q.items) {
		return fmt.Errorf("question %d out of range (have %d)", i+1, len(q.items))
	}
	if !slices.Contains(q.items[i].Options(), choice) {
		return fmt.Errorf("%q is not an option for question %d", choice, i+1)
	}
	q.answers[i] = choice
	return nil
}

// Submit evaluates every answer. It reports true when the quiz is mastered.
// Unanswered questions count as wrong.
func (q *Quiz) Submit() (bool, error) {
	if q.state != InProgress {
		return false, fmt.Errorf("%w: submit while %s", ErrInvalidTransition, q.state)
	}
	q.state = Submitted
	for i, item := range q.items {
		if q.answers[i] != item.CorrectAnswer {
			return false, nil
		}
	}
	q.state = Mastered
	return true, nil
}

// TryAgain clears the answers and reshuffles every question's options.
func (q *Quiz) TryAgain() error {
	if q.state != Submitted {
		return fmt.Errorf("%w: try again while %s", ErrInvalidTransition, q.state)
	}
	q.answers = Answers{}
	q.shuffle()
	q.state = InProgress
	return nil
}

// Results evaluates each question against the recorded answers.
func (q *Quiz) Results() []Result {
	out := make([]Result, 0, len(q.items))
	for i, item := range q.items {
		chosen := q.answers[i]
		correct := chosen == item.CorrectAnswer
		rationale := item.RationaleIncorrect
		if correct {
			rationale = item.RationaleCorrect
		}
		out = append(out, Result{
			Index:     i,
			Question:  item.Question,
			Chosen:    chosen,
			Correct:   correct,
			Answer:    item.CorrectAnswer,
			Rationale: rationale,
		})
	}
	return out
}

// Score returns the number of correct answers.
func (q *Quiz) Score() int {
	n := 0
	for _, r := range q.Results() {
		if r.Correct {
			n++
		}
	}
	return n
}

func (q *Quiz) shuffle() {
	q.options = make([][]string, len(q.items))
	for i, item := range q.items {
		opts := item.Options()
		q.rng.Shuffle(len(opts), func(a, b int) {
			opts[a], opts[b] = opts[b], opts[a]
		})
		q.options[i] = opts
	}
}

func sameOptions(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}

func cloneOptions(in [][]string) [][]string {
	if in == nil {
		return nil
	}
	out := make([][]string, len(in))
	for i, opts := range in {
		out[i] = slices.Clone(opts)
	}
	return out
}
