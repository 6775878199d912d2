package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrOutputExists indicates the output file already exists.
	ErrOutputExists = errors.New("output file already exists")

	// ErrInvalidAssignment indicates a --image or --param value not of the form name=value.
	ErrInvalidAssignment = errors.New("expected name=value")

	// ErrNoShots indicates a lookbook run without any shot selected.
	ErrNoShots = errors.New("no shots selected")

	// ErrUnknownConfigKey indicates an unsupported `config` key.
	ErrUnknownConfigKey = errors.New("unknown config key")
)
