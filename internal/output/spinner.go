package output

import (
	"context"

	"github.com/charmbracelet/huh/spinner"
)

// SpinnerOption configures a spinner.
type SpinnerOption func(*spinnerConfig)

type spinnerConfig struct {
	title string
}

// WithTitle sets the spinner title.
func WithTitle(title string) SpinnerOption {
	return func(c *spinnerConfig) {
		c.title = title
	}
}

// RunWithSpinner executes an action with a spinner on terminals and returns
// the action's error. The action always runs to completion; cancelling ctx
// only stops the animation.
func RunWithSpinner(ctx context.Context, action func() error, opts ...SpinnerOption) error {
	cfg := &spinnerConfig{title: "Working..."}
	for _, opt := range opts {
		opt(cfg)
	}

	if !IsTTY() {
		return action()
	}

	var actionErr error
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		actionErr = action()
	}()

	err := spinner.New().
		Title(cfg.title).
		Context(ctx).
		Action(func() { <-finished }).
		Run()
	if err != nil {
		Debug("spinner stopped", "error", err)
	}

	<-finished
	return actionErr
}
