package format

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	SuccessColor   = color.New(color.FgGreen, color.Bold)
	ErrorColor     = color.New(color.FgRed, color.Bold)
	WarningColor   = color.New(color.FgYellow, color.Bold)
	HintColor      = color.New(color.FgYellow, color.Italic)
	HeadingColor   = color.New(color.FgHiWhite, color.Bold)
	LabelColor     = color.New(color.FgCyan, color.Bold)
	DimColor       = color.New(color.FgHiBlack)
	HighlightColor = color.New(color.FgHiRed)
)

// ConfigureColor enables colored output unless disabled, NO_COLOR or
// PODPROBE_NO_COLOR is set, or stdout is not a terminal. PODPROBE_FORCE_COLOR
// overrides the terminal check.
func ConfigureColor(disable bool) {
	enabled := !disable
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		enabled = false
	}
	if _, ok := os.LookupEnv("PODPROBE_NO_COLOR"); ok {
		enabled = false
	}
	if _, force := os.LookupEnv("PODPROBE_FORCE_COLOR"); !force && !IsTerminal(os.Stdout) {
		enabled = false
	}
	EnableColor(enabled)
}

// EnableColor enables or disables colored output globally.
func EnableColor(enable bool) {
	color.NoColor = !enable
}

// IsColorEnabled returns whether colored output is enabled.
func IsColorEnabled() bool {
	return !color.NoColor
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of the terminal attached to stdout, 80 when
// it cannot be detected.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// Success formats a message as a success (green)
func Success(format string, a ...interface{}) string {
	return SuccessColor.Sprintf(format, a...)
}

// Warning formats a message as a warning (yellow)
func Warning(format string, a ...interface{}) string {
	return WarningColor.Sprintf(format, a...)
}

// Error formats a message as an error (red)
func Error(format string, a ...interface{}) string {
	return ErrorColor.Sprintf(format, a...)
}

// Label formats a key and value with a label style
func Label(key, value string) string {
	return fmt.Sprintf("%s %s", LabelColor.Sprint(key+":"), value)
}

// StatusSymbol returns a colorized status symbol
func StatusSymbol(success bool) string {
	if success {
		return SuccessColor.Sprint("✓")
	}
	return ErrorColor.Sprint("✗")
}
