package format

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rzbill/podprobe/pkg/types"
)

var hintTemplates = map[error]string{
	types.ErrInvalidNumber:          "Ports must be base-10 integers. Fix or remove the value at the winning level,\n       lower levels are not consulted once a value is set.",
	types.ErrConflictingPort:        "Set either port or port-name for a probe, not both.\n       Check the role specific and generic keys in properties and configuration.",
	types.ErrUnsupportedProbeType:   "Supported probe types are http, tcp and exec.",
	types.ErrDuplicateInitContainer: "Another step already added an init container with this name.\n       Rename one of them or check for it before adding.",
	types.ErrMalformedAnnotation:    "The annotation must hold a JSON array of container objects.",
}

// Problem is one error ready for display.
type Problem struct {
	Message string
	Hint    string
}

// Hint returns the remediation hint for err, empty when none is known.
func Hint(err error) string {
	for sentinel, hint := range hintTemplates {
		if errors.Is(err, sentinel) {
			return hint
		}
	}
	return ""
}

// Problems flattens joined errors into displayable problems.
func Problems(err error) []Problem {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var problems []Problem
		for _, e := range joined.Unwrap() {
			problems = append(problems, Problems(e)...)
		}
		return problems
	}
	return []Problem{{Message: err.Error(), Hint: Hint(err)}}
}

// ErrorFormatter prints errors with a header and hints.
type ErrorFormatter struct {
	Out   io.Writer
	Title string
	Width int
}

// NewErrorFormatter creates a formatter writing to out, sized to the terminal.
func NewErrorFormatter(out io.Writer, title string) *ErrorFormatter {
	return &ErrorFormatter{Out: out, Title: title, Width: TerminalWidth()}
}

// Print writes every problem contained in err.
func (f *ErrorFormatter) Print(err error) {
	problems := Problems(err)
	if len(problems) == 0 {
		return
	}

	indent := "  "
	ErrorColor.Fprintln(f.Out, "×", f.Title)
	fmt.Fprintln(f.Out, DimColor.Sprint(strings.Repeat("─", f.Width)))
	for _, p := range problems {
		fmt.Fprintf(f.Out, "%s%s %s\n", indent, StatusSymbol(false), p.Message)
		if p.Hint != "" {
			HintColor.Fprintf(f.Out, "%sHint: %s\n", indent, p.Hint)
		}
	}
	fmt.Fprintln(f.Out)
}
