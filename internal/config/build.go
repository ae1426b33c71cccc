package config

import "github.com/ceph/cephadm-build/internal/python"

// BuildConfig is the immutable configuration of one build. Construct it with
// NewBuildConfig; accessors return copies.
type BuildConfig struct {
	mode         DependencyMode
	venv         VenvPolicy
	batching     InstallBatching
	requirements []string
	runtime      python.Version
}

// NewBuildConfig derives the build configuration for mode on runtime.
// The venv policy only affects pip builds.
func NewBuildConfig(mode DependencyMode, venv VenvPolicy, runtime python.Version) *BuildConfig {
	cfg := &BuildConfig{
		mode:     mode,
		venv:     VenvNever,
		batching: BatchSingleCall,
		runtime:  runtime,
	}
	switch mode {
	case ModePip:
		cfg.requirements = PipRequirements(runtime)
		cfg.batching = BatchingFor(runtime)
		cfg.venv = venv
	case ModeRPM:
		cfg.requirements = RPMRequirements()
	}
	return cfg
}

// Mode returns the dependency mode.
func (c *BuildConfig) Mode() DependencyMode { return c.mode }

// InstallDependencies is false iff the mode is none.
func (c *BuildConfig) InstallDependencies() bool { return c.mode != ModeNone }

// VenvPolicy returns the virtual environment policy.
func (c *BuildConfig) VenvPolicy() VenvPolicy { return c.venv }

// Batching returns the installer batching.
func (c *BuildConfig) Batching() InstallBatching { return c.batching }

// Runtime returns the runtime version the configuration was derived for.
func (c *BuildConfig) Runtime() python.Version { return c.runtime }

// Requirements returns a copy of the requirement specs.
func (c *BuildConfig) Requirements() []string {
	return append([]string(nil), c.requirements...)
}

// Batches partitions the requirements according to the batching mode.
func (c *BuildConfig) Batches() [][]string {
	if len(c.requirements) == 0 {
		return nil
	}
	if c.batching == BatchPerRequirement {
		batches := make([][]string, 0, len(c.requirements))
		for _, r := range c.requirements {
			batches = append(batches, []string{r})
		}
		return batches
	}
	return [][]string{c.Requirements()}
}

// WithRequirements returns a copy of c that bundles reqs instead of the
// built-in requirement list.
func (c *BuildConfig) WithRequirements(reqs []string) *BuildConfig {
	out := *c
	out.requirements = append([]string(nil), reqs...)
	return &out
}
