// Package cmdtypes provides shared types for the cmd package and the
// command helpers in cmdutil, kept separate to avoid import cycles.
package cmdtypes

import (
	"github.com/ceph/cephadm-build/internal/config"
	oerrors "github.com/ceph/cephadm-build/internal/errors"
)

// GlobalConfig holds CLI-wide configuration resolved during PersistentPreRunE.
// It is populated once at startup and passed explicitly into every
// sub-command constructor.
type GlobalConfig struct {
	Settings   *config.Settings
	ConfigPath string // resolved --config path
	Verbose    bool
}

// Exit codes, aliased from internal/errors.
const (
	ExitSuccess             = oerrors.ExitSuccess
	ExitGeneralError        = oerrors.ExitGeneralError
	ExitArchiverUnavailable = oerrors.ExitArchiverUnavailable
	ExitValidationError     = oerrors.ExitValidationError
	ExitNotFound            = oerrors.ExitNotFound
	ExitUnavailable         = oerrors.ExitUnavailable
)

// ExitError is a type alias to internal/errors.ExitError.
type ExitError = oerrors.ExitError
