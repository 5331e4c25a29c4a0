package session

import (
	"context"
	"errors"

	"teachback/internal/ai"
	"teachback/internal/logging"
	"teachback/internal/persistence"
	"teachback/internal/pipeline"
	"teachback/internal/quiz"
	"teachback/internal/services"
)

// Save writes the current Ready state to the saved slot. Without content it
// only sets a notice.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if err := s.guardLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.content == nil || s.quiz == nil || s.classification == nil {
		s.setNotice(NoticeInfo, NoticeNothingToSave)
		s.mu.Unlock()
		s.notify()
		return nil
	}
	snap := persistence.SavedSession{
		SessionID:      s.id,
		InputText:      s.input.Text,
		InputImage:     savedImage(s.input.Image),
		Classification: s.classification,
		Override:       s.override,
		Content:        *s.content,
		QuizState:      s.quiz.State(),
		UserAnswers:    s.quiz.Answers(),
		OptionOrder:    s.quiz.OptionOrder(),
		Metrics:        s.metrics,
		ElapsedSeconds: s.timer.Elapsed(),
	}
	err := s.saved.Save(ctx, snap)
	if err != nil {
		s.setNotice(NoticeError, "Failed to save session.")
	} else {
		s.setNotice(NoticeInfo, NoticeSaved)
	}
	s.mu.Unlock()
	s.notify()
	return err
}

// Load restores the saved slot. A missing slot only sets a notice. A
// corrupted slot is cleared by persistence and the in-memory session is left
// untouched.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if err := s.guardLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	snap, ok, err := s.saved.Load(ctx)
	switch {
	case err != nil:
		if errors.Is(err, services.ErrCorruptedSession) {
			s.setNotice(NoticeError, NoticeLoadFailed)
		} else {
			s.setNotice(NoticeError, services.UserMessage(err))
		}
		s.mu.Unlock()
		s.notify()
		return err
	case !ok:
		s.setNotice(NoticeInfo, NoticeNoSaved)
		s.mu.Unlock()
		s.notify()
		return nil
	}

	q, err := quiz.Restore(snap.Content.QA, snap.QuizState, snap.UserAnswers, snap.OptionOrder, s.rng)
	if err != nil {
		// Restore mirrors persistence validation; a mismatch is corruption.
		s.setNotice(NoticeError, NoticeLoadFailed)
		s.mu.Unlock()
		s.notify()
		return services.Wrap(services.ErrCorruptedSession, "session", "load", "restore quiz", err)
	}

	s.resetLocked()
	content := snap.Content
	s.id = snap.SessionID
	if s.id == "" {
		s.id = s.newID()
	}
	s.input = pipeline.Source{Text: snap.InputText, Image: restoredImage(snap.InputImage)}
	s.classification = snap.Classification
	s.override = snap.Override
	s.content = &content
	s.quiz = q
	s.metrics = snap.Metrics
	if snap.QuizState.Active() {
		s.timer.Start(snap.ElapsedSeconds)
	} else {
		s.timer.Hold(snap.ElapsedSeconds)
	}
	s.status = Ready
	s.setNotice(NoticeInfo, NoticeLoaded)
	s.mu.Unlock()

	logging.WithContext(services.WithSessionID(ctx, snap.SessionID), s.logger).Info("session restored",
		logging.String("quiz_state", string(snap.QuizState)),
		logging.Int("elapsed_seconds", snap.ElapsedSeconds),
	)
	s.notify()
	return nil
}

// Clear deletes the saved slot and returns the session to Idle. keepInput
// preserves the raw input text.
func (s *Session) Clear(ctx context.Context, keepInput bool) error {
	s.mu.Lock()
	if err := s.guardLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.saved.Clear(ctx); err != nil {
		s.setNotice(NoticeError, "Failed to clear saved session.")
		s.mu.Unlock()
		s.notify()
		return err
	}
	s.resetLocked()
	s.id = ""
	if !keepInput {
		s.input = pipeline.Source{}
	}
	s.status = Idle
	s.setNotice(NoticeInfo, NoticeCleared)
	s.mu.Unlock()
	s.notify()
	return nil
}

func savedImage(img *ai.Image) *persistence.SavedImage {
	if img == nil {
		return nil
	}
	return &persistence.SavedImage{MIMEType: img.MIMEType, Data: append([]byte(nil), img.Data...)}
}

func restoredImage(img *persistence.SavedImage) *ai.Image {
	if img == nil {
		return nil
	}
	return &ai.Image{MIMEType: img.MIMEType, Data: img.Data}
}
