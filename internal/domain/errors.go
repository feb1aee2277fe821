package domain

import "errors"

var (
	// ErrValidation is returned when a question is constructed from a
	// malformed spec; the wrapping message names the violated rule.
	ErrValidation = errors.New("question validation failed")
	// ErrInvalidInput is returned when a caller supplies an empty or
	// otherwise unusable collection, e.g. zero questions to load.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidState is returned when an operation is invoked in a state
	// that forbids it, e.g. submitting an answer with no active session.
	ErrInvalidState = errors.New("invalid session state")
	// ErrQuestionSetNotFound indicates the requested question set could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrParticipantNotFound indicates no results are recorded for a participant.
	ErrParticipantNotFound = errors.New("participant not found")
)
