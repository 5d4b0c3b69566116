package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownState is returned when a transition names a state the script does not define.
var ErrUnknownState = errors.New("unknown state")

// ErrUnavailable is returned by backend adapters for any non-success response or transport fault.
var ErrUnavailable = errors.New("backend unavailable")

// ErrConversationClosed is returned when a turn targets a conversation that was torn down.
var ErrConversationClosed = errors.New("conversation closed")

// ErrNoSelection is returned when a card is selected outside a carousel state.
var ErrNoSelection = errors.New("no card selection available")

// ErrRateLimited is returned when a session submits input faster than the host allows.
var ErrRateLimited = errors.New("input rate limit exceeded")

// ScriptLoadError reports a script document that could not be fetched, parsed or validated.
// It is the only error class that prevents a conversation from starting.
type ScriptLoadError struct {
	Document string
	Err      error
}

func (e *ScriptLoadError) Error() string {
	return fmt.Sprintf("script %s: %v", e.Document, e.Err)
}

func (e *ScriptLoadError) Unwrap() error {
	return e.Err
}
