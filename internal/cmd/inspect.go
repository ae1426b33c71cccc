package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ceph/cephadm-build/internal/archive"
	"github.com/ceph/cephadm-build/internal/cmdtypes"
	"github.com/ceph/cephadm-build/internal/cmdutil"
	"github.com/ceph/cephadm-build/internal/output"
)

// NewInspectCmd creates the inspect command.
func NewInspectCmd(_ *cmdtypes.GlobalConfig) *cobra.Command {
	var outputFlag string

	c := &cobra.Command{
		Use:   "inspect ARCHIVE",
		Short: "Show what an archive contains",
		Long: `Show the interpreter line, version variables and bundled dependencies
recorded in a cephadm archive.

Examples:
  # Summary table
  cephadm-build inspect ./cephadm

  # Machine-readable output
  cephadm-build inspect ./cephadm -o json`,
		Args: func(c *cobra.Command, args []string) error {
			return cmdutil.Usage(cobra.ExactArgs(1)(c, args))
		},
		RunE: func(c *cobra.Command, args []string) error {
			return runInspect(c.OutOrStdout(), args[0], outputFlag)
		},
	}

	c.Flags().StringVarP(&outputFlag, "output", "o", "table",
		"Output format: "+strings.Join(output.ValidFormats(), ", "))
	return c
}

func runInspect(w io.Writer, path, format string) error {
	outputFormat, ok := output.ParseOutputFormat(format)
	if !ok {
		return cmdutil.Usage(fmt.Errorf("invalid output format %q (valid: %s)", format, strings.Join(output.ValidFormats(), ", ")))
	}

	info, err := archive.Inspect(path)
	if err != nil {
		return cmdutil.Fail("inspecting archive", err)
	}

	if outputFormat != output.FormatTable {
		return output.WriteDocument(w, info, outputFormat)
	}
	writeInfoTable(w, info)
	return nil
}

func writeInfoTable(w io.Writer, info *archive.Info) {
	fmt.Fprintln(w, output.FormatField("archive", info.Path))
	fmt.Fprintln(w, output.FormatField("interpreter", info.Interpreter))
	fmt.Fprintln(w, output.FormatField("digest", info.Digest))
	fmt.Fprintln(w, output.FormatField("size", strconv.FormatInt(info.Size, 10)))
	fmt.Fprintln(w, output.FormatField("entries", strconv.Itoa(info.Entries)))
	fmt.Fprintln(w, output.FormatField("compressed", strconv.FormatBool(info.Compressed)))

	if len(info.VersionVars) > 0 {
		fmt.Fprintln(w)
		tbl := output.NewTable("VARIABLE", "VALUE")
		for _, v := range info.VersionVars {
			tbl.Row(v.Key, v.Value)
		}
		fmt.Fprintln(w, tbl.String())
	}

	fmt.Fprintln(w)
	if len(info.Dependencies) == 0 {
		fmt.Fprintln(w, output.StyleDim.Render("No bundled dependencies."))
		return
	}
	tbl := output.NewTable("NAME", "VERSION", "SOURCE", "REQUIREMENT", "PACKAGE")
	for _, d := range info.Dependencies {
		pkg := d.RPMName
		if pkg != "" && d.RPMRelease != "" {
			pkg += "-" + d.Version + "-" + d.RPMRelease
		}
		tbl.Row(d.Name, d.Version, string(d.PackageSource), d.RequirementsEntry, pkg)
	}
	fmt.Fprintln(w, tbl.String())
}
