package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"teachback/internal/logging"
	"teachback/internal/quiz"
	"teachback/internal/services"
	"teachback/internal/store"
	"teachback/internal/teachback"
)

// SessionKey is the versioned slot for the saved session.
const SessionKey = "teachback_session_v2"

// SchemaVersion is written into every record and must match on load.
const SchemaVersion = 2

// Metrics are the per-session progress numbers shown in the footer.
type Metrics struct {
	Attempts           int  `json:"attempts"`
	MasteryTimeSeconds *int `json:"masteryTime"`
	ReadingGradeAfter  *int `json:"readingGradeAfter"`
}

// SavedImage is an image input. Data is base64 in the JSON record.
type SavedImage struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// SavedSession is the serializable snapshot of a Ready session.
type SavedSession struct {
	Version        int                             `json:"version"`
	SessionID      string                          `json:"sessionId,omitempty"`
	InputText      string                          `json:"inputText"`
	InputImage     *SavedImage                     `json:"inputImage,omitempty"`
	Classification *teachback.ClassificationResult `json:"classificationResult"`
	Override       teachback.Category              `json:"categoryOverride,omitempty"`
	Content        teachback.Content               `json:"generatedContent"`
	QuizState      quiz.State                      `json:"quizState"`
	UserAnswers    quiz.Answers                    `json:"userAnswers"`
	OptionOrder    [][]string                      `json:"optionOrder,omitempty"`
	Metrics        Metrics                         `json:"sessionMetrics"`
	ElapsedSeconds int                             `json:"elapsedTime"`
	SavedAt        time.Time                       `json:"savedAt"`
}

// Validate checks the invariants a restorable snapshot must hold.
func (s SavedSession) Validate() error {
	if s.Version != SchemaVersion {
		return fmt.Errorf("record version %d, want %d", s.Version, SchemaVersion)
	}
	if img := s.InputImage; img != nil {
		if !strings.HasPrefix(img.MIMEType, "image/") {
			return fmt.Errorf("input image type %q is not an image", img.MIMEType)
		}
		if len(img.Data) == 0 {
			return errors.New("input image is empty")
		}
	}
	if s.Classification == nil {
		return errors.New("classification result missing")
	}
	if err := s.Classification.Validate(); err != nil {
		return err
	}
	if s.Override != "" && !s.Override.Selectable() {
		return fmt.Errorf("category override %q is not selectable", s.Override)
	}
	if err := s.Content.Validate(); err != nil {
		return err
	}
	if _, err := quiz.Restore(s.Content.QA, s.QuizState, s.UserAnswers, s.OptionOrder, nil); err != nil {
		return err
	}
	if s.Metrics.Attempts < 0 || s.ElapsedSeconds < 0 {
		return errors.New("negative metrics")
	}
	if s.QuizState == quiz.Mastered && s.Metrics.MasteryTimeSeconds == nil {
		return errors.New("mastered session without mastery time")
	}
	return nil
}

// Sessions stores the single saved session slot.
type Sessions struct {
	kv     store.KV
	logger *slog.Logger
}

// NewSessions returns a repository over kv.
func NewSessions(kv store.KV, logger *slog.Logger) *Sessions {
	return &Sessions{kv: kv, logger: logging.NewComponentLogger(logger, "persistence")}
}

// Save overwrites the slot with snap.
func (r *Sessions) Save(ctx context.Context, snap SavedSession) error {
	snap.Version = SchemaVersion
	if snap.SavedAt.IsZero() {
		snap.SavedAt = time.Now().UTC()
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.kv.Set(ctx, SessionKey, string(data)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	r.logger.Debug("session saved", logging.Int("bytes", len(data)), logging.String(logging.FieldSessionID, snap.SessionID))
	return nil
}

// Load returns the saved snapshot. ok is false when no session is stored.
// A corrupted record is deleted and ErrCorruptedSession is returned.
func (r *Sessions) Load(ctx context.Context) (SavedSession, bool, error) {
	raw, ok, err := r.kv.Get(ctx, SessionKey)
	if err != nil {
		return SavedSession{}, false, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return SavedSession{}, false, nil
	}

	var snap SavedSession
	decodeErr := json.Unmarshal([]byte(raw), &snap)
	if decodeErr == nil {
		decodeErr = snap.Validate()
	}
	if decodeErr != nil {
		logging.WarnWithContext(r.logger, "discarding corrupted session", "session_corrupted",
			logging.Error(decodeErr),
			logging.String(logging.FieldErrorHint, "the saved session could not be restored and was removed"),
			logging.String(logging.FieldImpact, "saved session lost"),
		)
		if delErr := r.kv.Delete(ctx, SessionKey); delErr != nil {
			return SavedSession{}, false, fmt.Errorf("clear corrupted session: %w", delErr)
		}
		return SavedSession{}, false, services.Wrap(services.ErrCorruptedSession, "persistence", "load", "saved session is unreadable", decodeErr)
	}
	return snap, true, nil
}

// Exists reports whether a session is stored, without validating it.
func (r *Sessions) Exists(ctx context.Context) (bool, error) {
	_, ok, err := r.kv.Get(ctx, SessionKey)
	return ok, err
}

// Clear deletes the saved session.
func (r *Sessions) Clear(ctx context.Context) error {
	if err := r.kv.Delete(ctx, SessionKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
