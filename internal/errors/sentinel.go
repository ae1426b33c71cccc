package errors

import "errors"

// Sentinel errors for known conditions.
var (
	// ErrValidation indicates invalid user input (flags, version vars, config).
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates a requirement, package, or file was not found.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable indicates a required capability is missing on the host
	// (venv support, a package installer, the zipapp module).
	ErrUnavailable = errors.New("capability unavailable")

	// ErrArchiver indicates the runtime cannot execute zipapp archives.
	ErrArchiver = errors.New("zipapp unavailable")

	// ErrCommand indicates a child process that must succeed exited non-zero.
	ErrCommand = errors.New("command failed")

	// ErrPermission indicates insufficient filesystem permissions.
	ErrPermission = errors.New("permission denied")
)
