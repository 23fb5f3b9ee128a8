package log

import (
	"fmt"
	"io"
	"strings"
)

// Config defines logging configuration.
type Config struct {
	// Level sets the minimum log level
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format sets the output format (json, text)
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Output is console or null
	Output string `json:"output" yaml:"output" mapstructure:"output"`

	// NoColor disables colored text output
	NoColor bool `json:"no_color" yaml:"no_color" mapstructure:"no_color"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "text",
		Output: "console",
	}
}

// ApplyConfig creates a logger from a configuration. Console output goes to w,
// or stderr when w is nil.
func ApplyConfig(config *Config, w io.Writer) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	level, err := ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	options := []LoggerOption{WithLevel(level)}

	switch strings.ToLower(config.Format) {
	case "json":
		options = append(options, WithFormatter(&JSONFormatter{}))
	case "text", "":
		formatter := NewTextFormatter()
		formatter.DisableColors = config.NoColor
		options = append(options, WithFormatter(formatter))
	default:
		return nil, fmt.Errorf("invalid log format: %s", config.Format)
	}

	switch strings.ToLower(config.Output) {
	case "console", "":
		var consoleOptions []ConsoleOutputOption
		if w != nil {
			consoleOptions = append(consoleOptions, WithCustomWriter(w))
		}
		options = append(options, WithOutput(NewConsoleOutput(consoleOptions...)))
	case "null":
		options = append(options, WithOutput(NewNullOutput()))
	default:
		return nil, fmt.Errorf("unknown output type: %s", config.Output)
	}

	return NewLogger(options...), nil
}

// ParseLevel parses a level string into a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}
