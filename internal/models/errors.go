package models

import "errors"

var (
	// ErrAlreadyProcessed is returned when an admin decides a submission that is no longer pending.
	ErrAlreadyProcessed = errors.New("submission already processed")
	// ErrInsufficientBalance is returned when a withdrawal exceeds the reward balance.
	ErrInsufficientBalance = errors.New("insufficient reward balance")
	ErrUnknownUser         = errors.New("unknown user")
	ErrUnknownSubmission   = errors.New("unknown submission")
	ErrUnknownWithdrawal   = errors.New("unknown withdrawal request")
	// ErrInvalidTransition marks an action that does not apply to the current state.
	// Callers acknowledge it silently.
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrNotAdmin          = errors.New("admin rights required")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidInput      = errors.New("invalid input")
)
