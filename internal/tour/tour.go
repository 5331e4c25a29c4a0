// Package tour runs the guided walkthrough over canned demo data.
//
// The coordinator never calls the AI backend: Start asks the session to load
// its demo content, and each step names the tab its anchor lives on so the
// shell can switch before the step is shown.
package tour

import (
	"context"
	"errors"
	"log/slog"

	"teachback/internal/logging"
	"teachback/internal/persistence"
)

// ErrNotActive is returned by navigation when no tour is running.
var ErrNotActive = errors.New("tour not active")

// TabSwitcher is the shell's tab control.
type TabSwitcher interface {
	CurrentTab() Tab
	SwitchTab(Tab)
}

// DemoLoader fills the session with canned content.
type DemoLoader interface {
	LoadDemo() error
}

// Outcome describes how a tour ended.
type Outcome struct {
	Completed bool
	// OfferDiscard asks the user whether to clear the demo content.
	OfferDiscard bool
}

// DiscardPrompt is shown when a tour ends over demo content.
const DiscardPrompt = "Would you like to clear the demo content and start your own session?"

// Coordinator steps through the tour script.
type Coordinator struct {
	steps  []Step
	tabs   TabSwitcher
	demo   DemoLoader
	flag   *persistence.TourFlag
	logger *slog.Logger

	active bool
	index  int
}

// New returns a coordinator over the standard script.
func New(tabs TabSwitcher, demo DemoLoader, flag *persistence.TourFlag, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		steps:  Steps(),
		tabs:   tabs,
		demo:   demo,
		flag:   flag,
		logger: logging.NewComponentLogger(logger, "tour"),
	}
}

// ShouldOffer reports whether the tour has never been completed or skipped.
func (c *Coordinator) ShouldOffer(ctx context.Context) (bool, error) {
	done, err := c.flag.Completed(ctx)
	if err != nil {
		return false, err
	}
	return !done, nil
}

// Active reports whether a tour is running.
func (c *Coordinator) Active() bool {
	return c.active
}

// Progress returns the 1-based position and the step count.
func (c *Coordinator) Progress() (int, int) {
	return c.index + 1, len(c.steps)
}

// Current returns the step on screen.
func (c *Coordinator) Current() (Step, bool) {
	if !c.active {
		return Step{}, false
	}
	return c.steps[c.index], true
}

// Start loads the demo content and shows the first step.
func (c *Coordinator) Start() (Step, error) {
	if err := c.demo.LoadDemo(); err != nil {
		return Step{}, err
	}
	c.active = true
	c.index = 0
	c.logger.Info("tour started", logging.Int("steps", len(c.steps)))
	return c.show(), nil
}

// Next advances one step. On the last step it finishes the tour and done is true.
func (c *Coordinator) Next(ctx context.Context) (step Step, done bool, outcome Outcome, err error) {
	if !c.active {
		return Step{}, false, Outcome{}, ErrNotActive
	}
	if c.index == len(c.steps)-1 {
		outcome, err = c.Finish(ctx)
		return Step{}, true, outcome, err
	}
	c.index++
	return c.show(), false, Outcome{}, nil
}

// Back returns to the previous step. It stays on the first step.
func (c *Coordinator) Back() (Step, error) {
	if !c.active {
		return Step{}, ErrNotActive
	}
	if c.index > 0 {
		c.index--
	}
	return c.show(), nil
}

// Skip ends the tour early.
func (c *Coordinator) Skip(ctx context.Context) (Outcome, error) {
	return c.end(ctx, false)
}

// Finish ends the tour after the last step.
func (c *Coordinator) Finish(ctx context.Context) (Outcome, error) {
	return c.end(ctx, true)
}

func (c *Coordinator) end(ctx context.Context, completed bool) (Outcome, error) {
	if !c.active {
		return Outcome{}, ErrNotActive
	}
	c.active = false
	position := c.index + 1
	c.index = 0
	if err := c.flag.MarkCompleted(ctx); err != nil {
		logging.WarnWithContext(c.logger, "tour flag not saved", "tour_flag_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the tour will be offered again next start"),
		)
		return Outcome{Completed: completed, OfferDiscard: true}, err
	}
	c.logger.Info("tour ended",
		logging.Bool("completed", completed),
		logging.Int("step", position),
	)
	return Outcome{Completed: completed, OfferDiscard: true}, nil
}

// show switches tabs when the current step needs one and returns the step.
func (c *Coordinator) show() Step {
	step := c.steps[c.index]
	if step.RequiredTab != "" && c.tabs.CurrentTab() != step.RequiredTab {
		c.tabs.SwitchTab(step.RequiredTab)
	}
	return step
}
