// Package config holds the tool settings loaded from yaml and command line.
package config

// Config holds all tool settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Names   NamesConfig   `yaml:"names"`
	Export  ExportConfig  `yaml:"export"`
	Web     WebConfig     `yaml:"web"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// NamesConfig controls how node names are turned into idstring hashes.
type NamesConfig struct {
	Encoding string `yaml:"encoding"`
}

// ExportConfig holds defaults for export actions.
type ExportConfig struct {
	Format string `yaml:"format"` // fbx, glb or gltf
}

// WebConfig holds the conversion server settings.
type WebConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Names: NamesConfig{
			Encoding: "Windows 1252",
		},
		Export: ExportConfig{
			Format: "glb",
		},
		Web: WebConfig{
			Addr: ":8000",
		},
	}
}

// Apply pushes the settings that have package level state into effect.
func (c *Config) Apply() error {
	if c.Names.Encoding != "" {
		return SetEncoding(c.Names.Encoding)
	}
	return nil
}
