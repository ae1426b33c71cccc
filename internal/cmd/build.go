package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ceph/cephadm-build/internal/archive"
	"github.com/ceph/cephadm-build/internal/build"
	"github.com/ceph/cephadm-build/internal/cmdtypes"
	"github.com/ceph/cephadm-build/internal/cmdutil"
	"github.com/ceph/cephadm-build/internal/config"
	"github.com/ceph/cephadm-build/internal/output"
	"github.com/ceph/cephadm-build/internal/publish"
	"github.com/ceph/cephadm-build/internal/python"
	"github.com/ceph/cephadm-build/internal/reexec"
	"github.com/ceph/cephadm-build/internal/runner"
)

// Environment variables holding static publish credentials.
const (
	envPublishAccessKeyID     = "CEPHADM_BUILD_PUBLISH_ACCESS_KEY_ID"
	envPublishSecretAccessKey = "CEPHADM_BUILD_PUBLISH_SECRET_ACCESS_KEY"
)

// newRunner creates the runner for child processes. Tests replace it.
var newRunner = func() runner.Runner {
	return runner.NewExecRunner()
}

// handOff replaces this process with a fresh run of the same command under
// python. It only returns on failure. Tests replace it.
var handOff = func(python string) error {
	plan, err := reexec.Prepare(python, os.Args[1:], os.Environ())
	if err != nil {
		return err
	}
	return plan.Exec()
}

// newPublisher creates the uploader for --publish. Tests replace it.
var newPublisher = func(c *cobra.Command, cfg publish.Config) (*publish.Publisher, error) {
	client, err := publish.NewClient(c.Context(), cfg)
	if err != nil {
		return nil, err
	}
	return publish.New(client, cfg, nil), nil
}

// runBuild executes the root command.
func runBuild(c *cobra.Command, dest string, cfg *cmdtypes.GlobalConfig, bf *cmdutil.BuildFlags) error {
	ctx := c.Context()

	req, err := bf.Resolve(c.Flags(), cfg.Settings)
	if err != nil {
		return cmdutil.Fail("invalid build options", err)
	}

	interpreter := req.Python
	if req.PythonFlag && reexec.Needed(req.Python) {
		output.Info("Re-executing under alternate python", "python", req.Python)
		if err := handOff(req.Python); err != nil {
			return cmdutil.Fail("switching python runtime", err)
		}
	}
	if marker, ok := reexec.Done(); ok && marker != "" {
		interpreter = marker
	}

	exe, err := python.Resolve(interpreter)
	if err != nil {
		return cmdutil.Fail("locating python", err)
	}

	r := newRunner()
	interp, err := python.Probe(ctx, r, exe)
	if err != nil {
		return cmdutil.Fail("probing python", err)
	}
	output.Info("Using python", "path", interp.Path, "version", interp.Version.String())

	if err := archive.NewEmitter(archive.Options{Runner: r, Python: exe}).CheckRuntime(ctx); err != nil {
		return cmdutil.Fail("checking python runtime", err)
	}

	absDest, err := filepath.Abs(dest)
	if err != nil {
		return cmdutil.Fail("resolving destination", err)
	}
	source, err := filepath.Abs(req.Source)
	if err != nil {
		return cmdutil.Fail("resolving source directory", err)
	}

	buildCfg := config.NewBuildConfig(req.Mode, req.VenvPolicy, interp.Version)
	orch, err := build.New(buildCfg, build.Deps{
		Runner:   r,
		Python:   exe,
		Compress: req.Compress,
	})
	if err != nil {
		return cmdutil.Fail("preparing build", err)
	}

	output.Debug("starting build",
		"id", orch.ID(),
		"mode", string(buildCfg.Mode()),
		"venv", string(buildCfg.VenvPolicy()),
		"runtime", buildCfg.Runtime().String(),
		"batching", buildCfg.Batching().String(),
	)

	res, err := orch.Build(ctx, build.Options{
		SourceDir:   source,
		Dest:        absDest,
		VersionVars: req.VersionVars,
	})
	if err != nil {
		return cmdutil.Fail("build failed", err)
	}

	out := c.OutOrStdout()
	fmt.Fprintln(out, output.FormatCheckmark("Built "+output.StyleNoun.Render(res.Dest)))
	fmt.Fprintln(out, "  "+output.FormatField("python", exe))
	fmt.Fprintln(out, "  "+output.FormatField("dependencies", strconv.Itoa(res.DependencyCount())))
	fmt.Fprintln(out, "  "+output.FormatField("tree digest", res.TreeDigest))

	if !req.Publish {
		return nil
	}

	pubCfg := publishConfig(cfg.Settings)
	if err := pubCfg.Validate(); err != nil {
		return cmdutil.Fail("publishing archive", err)
	}
	pub, err := newPublisher(c, pubCfg)
	if err != nil {
		return cmdutil.Fail("publishing archive", err)
	}
	receipt, err := pub.Publish(ctx, res.Dest)
	if err != nil {
		return cmdutil.Fail("publishing archive", err)
	}
	fmt.Fprintln(out, output.FormatCheckmark("Published "+output.StyleNoun.Render(receipt.URI())))
	return nil
}

// publishConfig builds the upload target from settings and the credential
// environment variables.
func publishConfig(s *config.Settings) publish.Config {
	if s == nil {
		d := config.DefaultSettings()
		s = &d
	}
	return publish.Config{
		Bucket:          s.Publish.Bucket,
		Prefix:          s.Publish.Prefix,
		Endpoint:        s.Publish.Endpoint,
		Region:          s.Publish.Region,
		PathStyle:       s.Publish.PathStyle,
		AccessKeyID:     os.Getenv(envPublishAccessKeyID),
		SecretAccessKey: os.Getenv(envPublishSecretAccessKey),
	}
}
