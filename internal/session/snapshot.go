package session

import (
	"teachback/internal/persistence"
	"teachback/internal/quiz"
	"teachback/internal/teachback"
)

// Status is the call status of the current cycle.
type Status string

// Session statuses.
const (
	Idle        Status = "idle"
	Classifying Status = "classifying"
	Generating  Status = "generating"
	Ready       Status = "ready"
	Failed      Status = "error"
)

// Busy reports whether a backend call is in flight.
func (s Status) Busy() bool {
	return s == Classifying || s == Generating
}

// NoticeLevel separates confirmations from failures.
type NoticeLevel int

// Notice levels.
const (
	NoticeInfo NoticeLevel = iota
	NoticeError
)

// Notice is a one-line message for the user about the last command.
type Notice struct {
	Level NoticeLevel
	Text  string
}

// Notice texts.
const (
	NoticeNothingToSave = "Nothing to save yet."
	NoticeSaved         = "Session saved successfully!"
	NoticeLoaded        = "Session loaded!"
	NoticeLoadFailed    = "Failed to load session. Data might be corrupted."
	NoticeNoSaved       = "No saved session found."
	NoticeCleared       = "Session cleared."
	NoticeNoSource      = "The original document is no longer available. Please generate again."
)

// Snapshot is a read-only copy of the session for rendering.
type Snapshot struct {
	SessionID      string
	Status         Status
	InputText      string
	IsImage        bool
	Classification *teachback.ClassificationResult
	Override       teachback.Category
	Category       teachback.Category
	LowConfidence  bool
	Content        *teachback.Content
	QuizState      quiz.State
	Options        [][]string
	Answers        quiz.Answers
	Results        []quiz.Result
	Metrics        persistence.Metrics
	ElapsedSeconds int
	TimerRunning   bool
	Err            error
	Notice         Notice
	Demo           bool
}

// HasContent reports whether generated content is available.
func (s Snapshot) HasContent() bool {
	return s.Content != nil
}

// ShowRemediation reports whether the remediation block applies: the quiz was
// submitted with at least one wrong answer.
func (s Snapshot) ShowRemediation() bool {
	return s.QuizState == quiz.Submitted
}
