// Package cmd provides CLI command implementations.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ceph/cephadm-build/internal/cmdtypes"
	"github.com/ceph/cephadm-build/internal/cmdutil"
	"github.com/ceph/cephadm-build/internal/config"
	"github.com/ceph/cephadm-build/internal/output"
)

// NewRootCmd creates the root command. The root command itself builds the
// archive; inspect, diff, config and version are subcommands.
func NewRootCmd() *cobra.Command {
	var (
		configFlag     string
		verboseFlag    bool
		timestampsFlag bool
		bf             cmdutil.BuildFlags
	)
	cfg := &cmdtypes.GlobalConfig{}

	rootCmd := &cobra.Command{
		Use:   "cephadm-build DEST",
		Short: "Build the cephadm zipapp",
		Long: `Build cephadm as a self-executing Python zip application.

The cephadm sources, a generated version module and the bundled third-party
dependencies are staged in a scratch directory, byte-compiled with the target
interpreter and written to DEST.

Dependencies are bundled from one of:
  pip    install from the package index into the archive (default)
  rpm    copy from installed system packages
  none   bundle nothing

Examples:
  # Build from the cephadm source directory
  cephadm-build ./cephadm

  # Build for a specific interpreter with release metadata
  cephadm-build ./cephadm --python /usr/bin/python3.9 \
      -S CEPH_GIT_VER=abc123 -S CEPH_RELEASE=19.2.0

  # Build using system packages
  cephadm-build ./cephadm -B rpm`,
		Args: func(c *cobra.Command, args []string) error {
			return cmdutil.Usage(cobra.ExactArgs(1)(c, args))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			return initializeGlobals(c, cfg, configFlag, verboseFlag, timestampsFlag)
		},
		RunE: func(c *cobra.Command, args []string) error {
			return runBuild(c, args[0], cfg, &bf)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (env: CEPHADM_BUILD_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&timestampsFlag, "timestamps", true, "Show timestamps in log output")
	bf.AddTo(rootCmd)

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return cmdutil.Usage(err)
	})

	rootCmd.AddCommand(NewInspectCmd(cfg))
	rootCmd.AddCommand(NewDiffCmd(cfg))
	rootCmd.AddCommand(NewConfigCmd(cfg))
	rootCmd.AddCommand(NewVersionCmd(cfg))

	return rootCmd
}

// initializeGlobals sets up logging and loads settings into cfg.
func initializeGlobals(c *cobra.Command, cfg *cmdtypes.GlobalConfig, configFlag string, verbose, timestamps bool) error {
	logCfg := output.LogConfig{Verbose: verbose}
	if c.Flags().Changed("timestamps") {
		logCfg.Timestamps = output.BoolPtr(timestamps)
	}
	output.SetupLogging(logCfg)

	configPath := configFlag
	if configPath == "" {
		var err error
		if configPath, err = config.GetConfigFile(); err != nil {
			return cmdutil.Fail("locating config file", err)
		}
	}

	settings, err := config.NewLoader().Load(configPath)
	if err != nil {
		return cmdutil.Fail(fmt.Sprintf("loading config %s", configPath), err)
	}

	cfg.Settings = settings
	cfg.ConfigPath = configPath
	cfg.Verbose = verbose

	output.Debug("initializing CLI",
		"config", configPath,
		"python", settings.Python,
		"bundledDependencies", settings.BundledDependencies,
		"pipUseVenv", settings.PipUseVenv,
	)
	return nil
}
