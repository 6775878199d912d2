package tool

import "errors"

// Sentinel errors for tool input validation.
var (
	// ErrUnknown indicates an invalid tool name was specified.
	ErrUnknown = errors.New("unknown tool")

	// ErrMissingInput indicates a required image or parameter was not provided.
	ErrMissingInput = errors.New("missing input")

	// ErrInvalidParam indicates a parameter value outside its accepted range.
	ErrInvalidParam = errors.New("invalid parameter")
)
