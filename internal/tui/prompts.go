package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
)

// ErrCanceled is returned when the user aborts a prompt.
var ErrCanceled = errors.New("canceled by user")

// Option is one selectable entry of a multi-select prompt.
type Option struct {
	Label    string
	Value    string
	Selected bool
}

// Function variables for testability; tests replace them to script answers.
var (
	ConfirmFn     = confirm
	MultiSelectFn = multiSelect
	SpinFn        = spin
)

func confirm(title, description string, def bool) (bool, error) {
	answer := def
	field := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&answer)
	if err := runForm(huh.NewGroup(field)); err != nil {
		return false, err
	}
	return answer, nil
}

func multiSelect(title string, options []Option) ([]string, error) {
	opts := make([]huh.Option[string], 0, len(options))
	var selected []string
	for _, o := range options {
		opts = append(opts, huh.NewOption(o.Label, o.Value).Selected(o.Selected))
		if o.Selected {
			selected = append(selected, o.Value)
		}
	}
	field := huh.NewMultiSelect[string]().
		Title(title).
		Options(opts...).
		Value(&selected)
	if err := runForm(huh.NewGroup(field)); err != nil {
		return nil, err
	}
	return selected, nil
}

func runForm(groups ...*huh.Group) error {
	err := huh.NewForm(groups...).WithTheme(versyncTheme()).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrCanceled
	}
	return err
}

// spin runs action behind a spinner titled title and returns its error.
func spin(ctx context.Context, title string, action func(context.Context) error) error {
	var actionErr error
	err := spinner.New().
		Title(" " + title).
		Context(ctx).
		ActionWithErr(func(ctx context.Context) error {
			actionErr = action(ctx)
			return actionErr
		}).
		Run()
	if actionErr != nil {
		return actionErr
	}
	return err
}

// WithSpinner runs action, showing a spinner only when the session is interactive.
func WithSpinner(ctx context.Context, title string, action func(context.Context) error) error {
	if !IsInteractive() {
		return action(ctx)
	}
	return SpinFn(ctx, title, action)
}
