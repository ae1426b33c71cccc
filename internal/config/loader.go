package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Environment variable prefix for cephadm-build configuration.
const envPrefix = "CEPHADM_BUILD"

// Loader handles loading and merging configuration from multiple sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader with defaults and
// environment bindings installed.
func NewLoader() *Loader {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("python", envPrefix+"_PYTHON")
	_ = v.BindEnv("pipUseVenv", envPrefix+"_PIP_USE_VENV")
	_ = v.BindEnv("bundledDependencies", envPrefix+"_BUNDLED_DEPENDENCIES")
	_ = v.BindEnv("compress", envPrefix+"_COMPRESS")
	_ = v.BindEnv("publish.bucket", envPrefix+"_PUBLISH_BUCKET")
	_ = v.BindEnv("publish.prefix", envPrefix+"_PUBLISH_PREFIX")
	_ = v.BindEnv("publish.endpoint", envPrefix+"_PUBLISH_ENDPOINT")
	_ = v.BindEnv("publish.region", envPrefix+"_PUBLISH_REGION")
	_ = v.BindEnv("publish.pathStyle", envPrefix+"_PUBLISH_PATH_STYLE")

	d := DefaultSettings()
	v.SetDefault("pipUseVenv", d.PipUseVenv)
	v.SetDefault("bundledDependencies", d.BundledDependencies)
	v.SetDefault("compress", d.Compress)
	v.SetDefault("publish.region", d.Publish.Region)

	return &Loader{v: v}
}

// Load reads settings from configFile, or the default location when empty.
// A missing file is not an error. Environment variables take precedence
// over file values.
func (l *Loader) Load(configFile string) (*Settings, error) {
	if configFile == "" {
		var err error
		configFile, err = GetConfigFile()
		if err != nil {
			return nil, fmt.Errorf("getting config file path: %w", err)
		}
	}

	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}

	l.v.SetConfigFile(expandedPath)
	l.v.SetConfigType("yaml")

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var s Settings
	if err := l.v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// ConfigFileExists checks if the config file exists.
func ConfigFileExists(configFile string) (bool, error) {
	if configFile == "" {
		var err error
		configFile, err = GetConfigFile()
		if err != nil {
			return false, err
		}
	}

	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(expandedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
