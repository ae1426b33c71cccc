package config

import (
	"strings"

	"github.com/ceph/cephadm-build/internal/python"
)

// Requirement lists bundled into the archive. Keep defaultRequirements in
// sync with zipapp-reqs.txt in the cephadm source tree.
var (
	legacyRequirements = []string{
		"MarkupSafe >= 2.0.1, <2.2",
		"Jinja2 >= 3.0.2, <3.2",
	}
	defaultRequirements = []string{
		"MarkupSafe >= 2.1.3, <2.2",
		"Jinja2 >= 3.1.2, <3.2",
	}
)

// isLegacyRuntime reports whether v needs the legacy requirement set and
// one installer call per requirement.
func isLegacyRuntime(v python.Version) bool {
	return v.Is(3, 6)
}

// PipRequirements returns the requirement specs for a pip build on v.
func PipRequirements(v python.Version) []string {
	if isLegacyRuntime(v) {
		return append([]string(nil), legacyRequirements...)
	}
	return append([]string(nil), defaultRequirements...)
}

// RPMRequirements returns the bare distribution names used for rpm builds.
func RPMRequirements() []string {
	out := make([]string, 0, len(defaultRequirements))
	for _, spec := range defaultRequirements {
		out = append(out, strings.Fields(spec)[0])
	}
	return out
}

// BatchingFor returns the installer batching for runtime v.
func BatchingFor(v python.Version) InstallBatching {
	if isLegacyRuntime(v) {
		return BatchPerRequirement
	}
	return BatchSingleCall
}
