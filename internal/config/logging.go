package config

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level,omitempty"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format,omitempty"` // json, console
	Debug  bool   `yaml:"debug" json:"debug,omitempty"`   // forces debug level and -vvvv
}
