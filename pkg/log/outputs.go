package log

import (
	"io"
	"os"
	"sync"
)

// ConsoleOutput writes log entries to the console. Logs go to stderr by
// default so they never mix with manifests written to stdout.
type ConsoleOutput struct {
	mu     sync.Mutex
	writer io.Writer
}

// Write writes the log entry to the console.
func (o *ConsoleOutput) Write(entry *Entry, formattedEntry []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	writer := o.writer
	if writer == nil {
		writer = os.Stderr
	}
	_, err := writer.Write(formattedEntry)
	return err
}

// ConsoleOutputOption is a function that configures a ConsoleOutput.
type ConsoleOutputOption func(*ConsoleOutput)

// WithStdout configures the ConsoleOutput to use stdout.
func WithStdout() ConsoleOutputOption {
	return func(o *ConsoleOutput) {
		o.writer = os.Stdout
	}
}

// WithCustomWriter configures the ConsoleOutput to use a custom writer.
func WithCustomWriter(writer io.Writer) ConsoleOutputOption {
	return func(o *ConsoleOutput) {
		o.writer = writer
	}
}

// NewConsoleOutput creates a new ConsoleOutput with the given options.
func NewConsoleOutput(options ...ConsoleOutputOption) *ConsoleOutput {
	o := &ConsoleOutput{}
	for _, option := range options {
		option(o)
	}
	return o
}

// NullOutput discards all log entries.
type NullOutput struct{}

// NewNullOutput creates a new NullOutput.
func NewNullOutput() *NullOutput {
	return &NullOutput{}
}

// Write implements the Output interface but does nothing.
func (o *NullOutput) Write(entry *Entry, formattedEntry []byte) error {
	return nil
}
