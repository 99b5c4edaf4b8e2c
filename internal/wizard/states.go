package wizard

import (
	"errors"
	"fmt"
)

// State is a stage of the import wizard.
type State string

const (
	StateUpload            State = "upload"
	StateResolveCurrencies State = "resolve_currencies"
	StatePreview           State = "preview"
	StateResults           State = "results"
)

// Action is a user action the wizard reacts to.
type Action string

const (
	ActionSelectFile      Action = "select_file"
	ActionNext            Action = "next"
	ActionBack            Action = "back"
	ActionResolveCurrency Action = "resolve_currency"
	ActionSubmit          Action = "submit"
	ActionReset           Action = "reset"
)

// ErrInvalidTransition is returned for an action not allowed in the current
// state.
var ErrInvalidTransition = errors.New("invalid wizard transition")

// ErrSubmissionInFlight is returned while an import request is outstanding.
var ErrSubmissionInFlight = errors.New("an import submission is already in progress")

// transitions lists the actions accepted in each state. Where an action
// leads depends on the upload (see Wizard.Next and Wizard.Back).
var transitions = map[State][]Action{
	StateUpload:            {ActionSelectFile, ActionNext},
	StateResolveCurrencies: {ActionResolveCurrency, ActionNext, ActionBack},
	StatePreview:           {ActionSubmit, ActionBack},
	StateResults:           {ActionReset},
}

// Allowed reports whether action is valid in state.
func Allowed(state State, action Action) bool {
	for _, a := range transitions[state] {
		if a == action {
			return true
		}
	}
	return false
}

func invalid(state State, action Action) error {
	return fmt.Errorf("%w: %s is not allowed in state %s", ErrInvalidTransition, action, state)
}
