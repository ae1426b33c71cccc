package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ceph/cephadm-build/internal/cmdtypes"
	"github.com/ceph/cephadm-build/internal/cmdutil"
	"github.com/ceph/cephadm-build/internal/config"
	oerrors "github.com/ceph/cephadm-build/internal/errors"
	"github.com/ceph/cephadm-build/internal/output"
)

// configHeader is written above the generated settings.
const configHeader = "# cephadm-build configuration\n" +
	"# Flags override these values; CEPHADM_BUILD_* environment variables override the file.\n\n"

// NewConfigCmd creates the config command group.
func NewConfigCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Manage cephadm-build configuration",
	}
	c.AddCommand(newConfigInitCmd(cfg))
	c.AddCommand(newConfigShowCmd(cfg))
	return c
}

func newConfigInitCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	var force bool

	c := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with default values",
		Long: `Create a configuration file with default values.

The file is created at ~/.config/cephadm-build/config.yaml by default.
Use --config or CEPHADM_BUILD_CONFIG to choose another location.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runConfigInit(c, cfg.ConfigPath, force)
		},
	}

	c.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config file")
	return c
}

func runConfigInit(c *cobra.Command, configFile string, force bool) error {
	if configFile == "" {
		var err error
		if configFile, err = config.GetConfigFile(); err != nil {
			return cmdutil.Fail("locating config file", err)
		}
	}

	path, err := config.ExpandPath(configFile)
	if err != nil {
		return cmdutil.Fail("expanding config path", err)
	}

	exists, err := config.ConfigFileExists(path)
	if err != nil {
		return cmdutil.Fail("checking config file", err)
	}
	if exists && !force {
		return cmdutil.Fail("config init", &oerrors.DetailError{
			Type:     "validation failed",
			Message:  "configuration already exists",
			Location: path,
			Hint:     "Use --force to overwrite existing configuration.",
			Cause:    oerrors.ErrValidation,
		})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return cmdutil.Fail("creating config directory", err)
	}

	data, err := yaml.Marshal(config.DefaultSettings())
	if err != nil {
		return cmdutil.Fail("marshaling config", err)
	}
	data = append([]byte(configHeader), data...)

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return cmdutil.Fail("writing config file", err)
	}

	fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark("Config file created: "+output.StyleNoun.Render(path)))
	return nil
}

func newConfigShowCmd(cfg *cmdtypes.GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Long: `Print the settings after merging the config file, the environment
and the built-in defaults.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			s := cfg.Settings
			if s == nil {
				d := config.DefaultSettings()
				s = &d
			}
			data, err := yaml.Marshal(s)
			if err != nil {
				return cmdutil.Fail("marshaling config", err)
			}
			_, err = c.OutOrStdout().Write(data)
			return err
		},
	}
}
