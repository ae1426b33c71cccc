package config

import (
	"os"
	"path/filepath"
)

// Paths contains standard filesystem paths for cephadm-build.
type Paths struct {
	// ConfigFile is the path to the config file.
	ConfigFile string

	// ConfigDir holds the config file.
	ConfigDir string
}

// DefaultPaths returns the default paths, rooted at the user config
// directory (~/.config/cephadm-build on Linux).
func DefaultPaths() (*Paths, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(base, "cephadm-build")

	return &Paths{
		ConfigFile: filepath.Join(dir, "config.yaml"),
		ConfigDir:  dir,
	}, nil
}

// GetConfigFile returns the config file path.
// If CEPHADM_BUILD_CONFIG is set, it takes precedence.
func GetConfigFile() (string, error) {
	if envPath := os.Getenv(envPrefix + "_CONFIG"); envPath != "" {
		return envPath, nil
	}

	paths, err := DefaultPaths()
	if err != nil {
		return "", err
	}

	return paths.ConfigFile, nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if len(path) == 1 {
		return homeDir, nil
	}

	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:]), nil
	}

	// ~username is not supported
	return path, nil
}
