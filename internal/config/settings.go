package config

// Settings are the user-level defaults read from the config file and the
// environment. Command-line flags override them.
type Settings struct {
	// Python is the interpreter used to run the build.
	Python string `mapstructure:"python" yaml:"python,omitempty"`

	// PipUseVenv is the default venv policy for pip builds.
	PipUseVenv string `mapstructure:"pipUseVenv" yaml:"pipUseVenv"`

	// BundledDependencies is the default dependency mode.
	BundledDependencies string `mapstructure:"bundledDependencies" yaml:"bundledDependencies"`

	// Compress selects deflate compression for archive entries.
	Compress bool `mapstructure:"compress" yaml:"compress"`

	// Publish configures the optional upload of the finished archive.
	Publish PublishSettings `mapstructure:"publish" yaml:"publish"`
}

// PublishSettings locate the object store that receives published archives.
type PublishSettings struct {
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix,omitempty"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Region    string `mapstructure:"region" yaml:"region,omitempty"`
	PathStyle bool   `mapstructure:"pathStyle" yaml:"pathStyle,omitempty"`
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		PipUseVenv:          string(VenvAuto),
		BundledDependencies: string(ModePip),
		Compress:            true,
		Publish: PublishSettings{
			Region: "us-east-1",
		},
	}
}

// Validate checks the enumerated fields.
func (s Settings) Validate() error {
	if s.PipUseVenv != "" {
		if _, err := ParseVenvPolicy(s.PipUseVenv); err != nil {
			return err
		}
	}
	if s.BundledDependencies != "" {
		if _, err := ParseDependencyMode(s.BundledDependencies); err != nil {
			return err
		}
	}
	return nil
}
