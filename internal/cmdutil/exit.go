package cmdutil

import (
	"github.com/ceph/cephadm-build/internal/cmdtypes"
	oerrors "github.com/ceph/cephadm-build/internal/errors"
	"github.com/ceph/cephadm-build/internal/output"
)

// Fail logs err under msg and returns it wrapped in an ExitError carrying
// the mapped exit code. The error is marked printed so main does not repeat
// it.
func Fail(msg string, err error) error {
	if err == nil {
		return nil
	}
	code := oerrors.ExitCodeFromError(err)
	output.Error(msg, "exit", oerrors.ExitCodeName(code))
	output.Details(err.Error())
	exitErr := oerrors.NewExitError(err, code)
	exitErr.Printed = true
	return exitErr
}

// Usage wraps a command-line usage error with the validation exit code.
func Usage(err error) error {
	if err == nil {
		return nil
	}
	return oerrors.NewExitError(err, cmdtypes.ExitValidationError)
}
