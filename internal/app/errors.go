package app

import "errors"

var (
	// ErrInvalidInput is returned for requests missing required fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured is returned when a required collaborator is absent,
	// typically the speech provider when no API key was supplied.
	ErrNotConfigured = errors.New("not configured")

	// ErrSynthesis wraps a failed text-to-speech call.
	ErrSynthesis = errors.New("speech synthesis failed")

	// ErrUpstream wraps a failed transcription or chat call.
	ErrUpstream = errors.New("upstream service failed")
)
