// Package cmdutil provides shared command utilities: build flag handling,
// precedence resolution against loaded settings, and error reporting.
package cmdutil

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ceph/cephadm-build/internal/config"
)

// DefaultPython is the interpreter used when neither a flag nor the config
// names one.
const DefaultPython = "python3"

// VersionVarsValue is a repeatable KEY=VALUE flag. Pairs are validated as
// they are parsed, so a bad pair fails before any build work starts.
type VersionVarsValue struct {
	vars []config.VersionVar
}

var _ pflag.Value = (*VersionVarsValue)(nil)

// Set implements pflag.Value.
func (v *VersionVarsValue) Set(s string) error {
	vv, err := config.ParseVersionVar(s)
	if err != nil {
		return err
	}
	v.vars = append(v.vars, vv)
	return nil
}

// String implements pflag.Value.
func (v *VersionVarsValue) String() string {
	parts := make([]string, len(v.vars))
	for i, vv := range v.vars {
		parts[i] = vv.Key + "=" + vv.Value
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Type implements pflag.Value.
func (v *VersionVarsValue) Type() string { return "KEY=VALUE" }

// Vars returns the parsed pairs in flag order.
func (v *VersionVarsValue) Vars() []config.VersionVar {
	return append([]config.VersionVar(nil), v.vars...)
}

// BuildFlags holds the flags of the build command.
type BuildFlags struct {
	Source       string
	Python       string
	VersionVars  VersionVarsValue
	PipUseVenv   string
	Dependencies string
	Compress     bool
	Publish      bool
}

// AddTo registers the build flags on the given cobra command.
func (f *BuildFlags) AddTo(cmd *cobra.Command) {
	d := config.DefaultSettings()
	cmd.Flags().StringVar(&f.Source, "source", ".",
		"Directory containing cephadm.py and cephadmlib")
	cmd.Flags().StringVar(&f.Python, "python", "",
		"Python interpreter to build with (default: "+DefaultPython+")")
	cmd.Flags().VarP(&f.VersionVars, "set-version-var", "S",
		"Set a version variable written to the archive (can be repeated); keys: "+
			strings.Join(config.ValidVersionVars(), ", "))
	cmd.Flags().StringVar(&f.PipUseVenv, "pip-use-venv", d.PipUseVenv,
		"Install pip dependencies from a virtualenv: "+strings.Join(config.VenvPolicies(), ", "))
	cmd.Flags().StringVarP(&f.Dependencies, "bundled-dependencies", "B", d.BundledDependencies,
		"Source of bundled dependencies: "+strings.Join(config.DependencyModes(), ", "))
	cmd.Flags().BoolVar(&f.Compress, "compress", d.Compress,
		"Compress archive entries")
	cmd.Flags().BoolVar(&f.Publish, "publish", false,
		"Upload the archive to the configured bucket after building")
}

// BuildRequest is the validated outcome of the build flags merged with the
// loaded settings.
type BuildRequest struct {
	Source      string
	Python      string
	VersionVars []config.VersionVar
	VenvPolicy  config.VenvPolicy
	Mode        config.DependencyMode
	Compress    bool
	Publish     bool

	// PythonFlag is true when --python was given on the command line.
	PythonFlag bool
}

// Resolve merges the flags with s. Explicitly set flags win over settings,
// which win over the built-in defaults. s may be nil.
func (f *BuildFlags) Resolve(flags *pflag.FlagSet, s *config.Settings) (*BuildRequest, error) {
	if s == nil {
		d := config.DefaultSettings()
		s = &d
	}

	pick := func(name, flagValue, setting string) string {
		if flags.Changed(name) || setting == "" {
			return flagValue
		}
		return setting
	}

	venv, err := config.ParseVenvPolicy(pick("pip-use-venv", f.PipUseVenv, s.PipUseVenv))
	if err != nil {
		return nil, err
	}
	mode, err := config.ParseDependencyMode(pick("bundled-dependencies", f.Dependencies, s.BundledDependencies))
	if err != nil {
		return nil, err
	}

	python := pick("python", f.Python, s.Python)
	if python == "" {
		python = DefaultPython
	}

	compress := s.Compress
	if flags.Changed("compress") {
		compress = f.Compress
	}

	return &BuildRequest{
		Source:      f.Source,
		Python:      python,
		VersionVars: f.VersionVars.Vars(),
		VenvPolicy:  venv,
		Mode:        mode,
		Compress:    compress,
		Publish:     f.Publish,
		PythonFlag:  flags.Changed("python"),
	}, nil
}
