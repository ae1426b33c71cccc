package config

import (
	"fmt"
	"slices"
	"strings"

	oerrors "github.com/ceph/cephadm-build/internal/errors"
)

// validVersionVars are the keys accepted by --set-version-var.
var validVersionVars = []string{
	"CEPH_GIT_VER",
	"CEPH_GIT_NICE_VER",
	"CEPH_RELEASE",
	"CEPH_RELEASE_NAME",
	"CEPH_RELEASE_TYPE",
}

// ValidVersionVars returns the accepted version variable keys.
func ValidVersionVars() []string {
	return slices.Clone(validVersionVars)
}

// VersionVar is one key=value pair written to the generated version module.
type VersionVar struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ParseVersionVar parses and validates a KEY=VALUE pair.
func ParseVersionVar(s string) (VersionVar, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return VersionVar{}, oerrors.NewValidationError(
			fmt.Sprintf("not a key=value pair: %q", s),
			"set-version-var",
			"Use KEY=VALUE, e.g. CEPH_RELEASE=19.2.0",
		)
	}
	if !slices.Contains(validVersionVars, key) {
		return VersionVar{}, oerrors.NewValidationError(
			fmt.Sprintf("unexpected key: %q", key),
			"set-version-var",
			"Valid keys: "+strings.Join(validVersionVars, ", "),
		)
	}
	return VersionVar{Key: key, Value: value}, nil
}
