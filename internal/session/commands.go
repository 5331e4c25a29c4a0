package session

import (
	"context"
	"fmt"
	"strings"

	"teachback/internal/logging"
	"teachback/internal/persistence"
	"teachback/internal/pipeline"
	"teachback/internal/quiz"
	"teachback/internal/services"
	"teachback/internal/teachback"
)

// Generate runs a full cycle on src: classify, then generate under the
// classified category, or unknown when the classifier is not confident.
// Input that is too short is rejected before any backend call and leaves the
// session as it was.
func (s *Session) Generate(ctx context.Context, src pipeline.Source) error {
	s.mu.Lock()
	if err := s.guardLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := pipeline.CheckInput(src, s.minChars); err != nil {
		s.setNotice(NoticeError, services.UserMessage(err))
		s.mu.Unlock()
		s.notify()
		return err
	}
	s.resetLocked()
	s.id = s.newID()
	s.input = src
	s.metrics.Attempts = 1
	s.timer.Start(0)
	s.status = Classifying
	id := s.id
	s.mu.Unlock()
	s.notify()

	ctx = services.WithSessionID(ctx, id)
	result, err := s.stages.Classify(ctx, src)
	if err != nil {
		return s.fail(ctx, "classify", err)
	}

	category := result.Context
	if !result.Confident(s.threshold) {
		s.bump(ctx, persistence.UnknownCount)
		category = teachback.Unknown
		logging.WithContext(ctx, s.logger).Info("classification below threshold; generating generic content",
			logging.String("classified", string(result.Context)),
			logging.Float64("confidence", result.Confidence),
			logging.Float64("threshold", s.threshold),
		)
	}

	s.mu.Lock()
	s.classification = &result
	s.status = Generating
	s.mu.Unlock()
	s.notify()

	return s.runGeneration(ctx, src, category)
}

// OverrideCategory re-runs generation under c, keeping the classification.
func (s *Session) OverrideCategory(ctx context.Context, c teachback.Category) error {
	if !c.Selectable() {
		return services.Wrap(services.ErrValidation, "session", "override", fmt.Sprintf("category %q cannot be selected", c), nil)
	}
	s.mu.Lock()
	if err := s.guardLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.status != Ready || s.classification == nil {
		s.mu.Unlock()
		return ErrNoContent
	}
	src := s.input
	if src.Image == nil && strings.TrimSpace(src.Text) == "" {
		s.setNotice(NoticeError, NoticeNoSource)
		s.mu.Unlock()
		s.notify()
		return ErrNoSource
	}
	s.override = c
	s.content = nil
	s.quiz = nil
	s.demo = false
	// attempts carry over; the new quiz has not been mastered yet
	s.metrics.MasteryTimeSeconds = nil
	s.timer.Start(s.timer.Elapsed())
	s.status = Generating
	ctx = services.WithSessionID(ctx, s.id)
	s.mu.Unlock()

	s.bump(ctx, persistence.OverrideCount)
	logging.WithContext(ctx, s.logger).Info("category overridden", logging.String("category", string(c)))
	s.notify()

	return s.runGeneration(ctx, src, c)
}

func (s *Session) runGeneration(ctx context.Context, src pipeline.Source, category teachback.Category) error {
	content, err := s.stages.Generate(ctx, src, category)
	if err != nil {
		return s.fail(ctx, "generate", err)
	}

	q := quiz.New(content.QA, s.rng)
	if err := q.Start(); err != nil {
		return s.fail(ctx, "generate", err)
	}
	grade := content.ReadingGradeAfter

	s.mu.Lock()
	s.content = &content
	s.quiz = q
	s.metrics.ReadingGradeAfter = &grade
	s.status = Ready
	s.mu.Unlock()
	s.notify()
	return nil
}

// Answer records choice for question i without evaluating it.
func (s *Session) Answer(i int, choice string) error {
	s.mu.Lock()
	if err := s.quizCommandLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	err := s.quiz.Answer(i, choice)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

// Submit evaluates every answer. When all are correct the quiz is mastered,
// the clock stops and the mastery time is recorded once.
func (s *Session) Submit(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if err := s.quizCommandLocked(); err != nil {
		s.mu.Unlock()
		return false, err
	}
	mastered, err := s.quiz.Submit()
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	if mastered && s.metrics.MasteryTimeSeconds == nil {
		elapsed := s.timer.Stop()
		s.metrics.MasteryTimeSeconds = &elapsed
	}
	score, total := s.quiz.Score(), s.quiz.Len()
	attempts := s.metrics.Attempts
	demo := s.demo
	s.mu.Unlock()

	if mastered && !demo {
		s.bump(ctx, persistence.MasteredCount)
	}
	logging.WithContext(ctx, s.logger).Info("quiz submitted",
		logging.Int("score", score),
		logging.Int("questions", total),
		logging.Int("attempts", attempts),
		logging.Bool("mastered", mastered),
	)
	s.notify()
	return mastered, nil
}

// TryAgain restarts a submitted quiz with cleared answers and fresh option order.
func (s *Session) TryAgain() error {
	s.mu.Lock()
	if err := s.quizCommandLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.quiz.TryAgain(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.metrics.Attempts++
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Session) quizCommandLocked() error {
	if err := s.guardLocked(); err != nil {
		return err
	}
	if s.status != Ready || s.quiz == nil {
		return ErrNoContent
	}
	return nil
}

// LoadDemo fills the session with the canned sample cycle without any
// backend call.
func (s *Session) LoadDemo() error {
	s.mu.Lock()
	if err := s.guardLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.resetLocked()
	classification := teachback.DemoClassification()
	content := teachback.DemoContent()
	q := quiz.New(content.QA, s.rng)
	if err := q.Start(); err != nil {
		s.mu.Unlock()
		return err
	}
	grade := content.ReadingGradeAfter
	s.id = s.newID()
	s.input = pipeline.Source{Text: teachback.SampleInput}
	s.classification = &classification
	s.content = &content
	s.quiz = q
	s.metrics = persistence.Metrics{Attempts: 1, ReadingGradeAfter: &grade}
	s.timer.Start(0)
	s.status = Ready
	s.demo = true
	s.mu.Unlock()
	s.notify()
	return nil
}

// SetInput replaces the raw input without starting a cycle.
func (s *Session) SetInput(src pipeline.Source) error {
	s.mu.Lock()
	if s.status.Busy() {
		s.mu.Unlock()
		return ErrBusy
	}
	s.input = src
	s.mu.Unlock()
	s.notify()
	return nil
}
