package entity

import "errors"

var (
	// Event errors
	ErrEventNotFound  = errors.New("event not found")
	ErrMissingEventID = errors.New("event id is required")

	// Query spec errors
	ErrConflictingViewer = errors.New("attendance toggle and attendance filter disagree on user id")
	ErrMissingViewer     = errors.New("attendance filter requires a user id")
	ErrUnknownTimezone   = errors.New("unknown timezone")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
)
