// Package config holds the immutable build configuration and the settings
// loader for cephadm-build.
package config

import (
	"fmt"
	"strings"

	oerrors "github.com/ceph/cephadm-build/internal/errors"
)

// DependencyMode selects where bundled dependencies come from.
type DependencyMode string

const (
	// ModePip installs dependencies from the package index into the archive.
	ModePip DependencyMode = "pip"

	// ModeRPM copies dependencies from installed system packages.
	ModeRPM DependencyMode = "rpm"

	// ModeNone bundles no dependencies.
	ModeNone DependencyMode = "none"
)

// DependencyModes lists the valid dependency modes.
func DependencyModes() []string {
	return []string{string(ModePip), string(ModeRPM), string(ModeNone)}
}

// ParseDependencyMode parses a --bundled-dependencies value.
func ParseDependencyMode(s string) (DependencyMode, error) {
	switch m := DependencyMode(s); m {
	case ModePip, ModeRPM, ModeNone:
		return m, nil
	}
	return "", oerrors.NewValidationError(
		fmt.Sprintf("invalid dependency mode %q", s),
		"bundled-dependencies",
		"Valid values: "+strings.Join(DependencyModes(), ", "),
	)
}

// VenvPolicy controls use of a virtual environment in pip mode.
type VenvPolicy string

const (
	VenvNever    VenvPolicy = "never"
	VenvAuto     VenvPolicy = "auto"
	VenvRequired VenvPolicy = "required"
)

// VenvPolicies lists the valid venv policies.
func VenvPolicies() []string {
	return []string{string(VenvNever), string(VenvAuto), string(VenvRequired)}
}

// ParseVenvPolicy parses a --pip-use-venv value.
func ParseVenvPolicy(s string) (VenvPolicy, error) {
	switch p := VenvPolicy(s); p {
	case VenvNever, VenvAuto, VenvRequired:
		return p, nil
	}
	return "", oerrors.NewValidationError(
		fmt.Sprintf("invalid venv policy %q", s),
		"pip-use-venv",
		"Valid values: "+strings.Join(VenvPolicies(), ", "),
	)
}

// Enabled reports whether a virtual environment should be attempted.
func (p VenvPolicy) Enabled() bool {
	return p == VenvAuto || p == VenvRequired
}

// InstallBatching controls how requirements are grouped into installer calls.
type InstallBatching int

const (
	// BatchSingleCall installs all requirements in one installer invocation.
	BatchSingleCall InstallBatching = iota

	// BatchPerRequirement runs the installer once per requirement. Old pip
	// releases shipped with legacy runtimes cannot resolve the set at once.
	BatchPerRequirement
)

// String returns the batching name.
func (b InstallBatching) String() string {
	if b == BatchPerRequirement {
		return "one-call-per-requirement"
	}
	return "single-call"
}
