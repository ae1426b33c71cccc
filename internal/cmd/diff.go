package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/ceph/cephadm-build/internal/archive"
	"github.com/ceph/cephadm-build/internal/cmdtypes"
	"github.com/ceph/cephadm-build/internal/cmdutil"
	"github.com/ceph/cephadm-build/internal/config"
	"github.com/ceph/cephadm-build/internal/manifest"
	"github.com/ceph/cephadm-build/internal/output"
)

// archiveContents is the part of an archive compared by diff.
type archiveContents struct {
	Interpreter  string                      `json:"interpreter"`
	VersionVars  []config.VersionVar         `json:"versionVars"`
	Dependencies []manifest.DependencyRecord `json:"dependencies"`
}

// NewDiffCmd creates the diff command.
func NewDiffCmd(_ *cmdtypes.GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "diff ARCHIVE_A ARCHIVE_B",
		Short: "Compare the build metadata of two archives",
		Long: `Compare the interpreter line, version variables and bundled dependencies
of two cephadm archives. Dependencies are matched by name.

Exits 0 whether or not differences are found.

Examples:
  cephadm-build diff ./cephadm.old ./cephadm`,
		Args: func(c *cobra.Command, args []string) error {
			return cmdutil.Usage(cobra.ExactArgs(2)(c, args))
		},
		RunE: func(c *cobra.Command, args []string) error {
			return runDiff(c.OutOrStdout(), args[0], args[1])
		},
	}
}

func runDiff(w io.Writer, fromPath, toPath string) error {
	from, err := contentsYAML(fromPath)
	if err != nil {
		return cmdutil.Fail("reading archive", err)
	}
	to, err := contentsYAML(toPath)
	if err != nil {
		return cmdutil.Fail("reading archive", err)
	}

	report, err := output.DiffYAML(fromPath, from, toPath, to, output.IsTTY())
	if err != nil {
		return cmdutil.Fail("comparing archives", err)
	}
	if report == "" {
		fmt.Fprintln(w, output.FormatCheckmark("No differences"))
		return nil
	}
	fmt.Fprintln(w, report)
	return nil
}

func contentsYAML(path string) ([]byte, error) {
	info, err := archive.Inspect(path)
	if err != nil {
		return nil, err
	}
	vars := info.VersionVars
	if vars == nil {
		vars = []config.VersionVar{}
	}
	return yaml.Marshal(archiveContents{
		Interpreter:  info.Interpreter,
		VersionVars:  vars,
		Dependencies: info.Dependencies,
	})
}
