package log

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
)

// JSONFormatter formats log entries as JSON.
type JSONFormatter struct {
	TimestampFormat string // Format for timestamps
}

// Format formats the entry as JSON.
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Fields)+3)

	timestampFormat := time.RFC3339
	if f.TimestampFormat != "" {
		timestampFormat = f.TimestampFormat
	}

	for k, v := range entry.Fields {
		data[k] = v
	}
	// standard fields win over entry fields of the same name
	data["timestamp"] = entry.Timestamp.Format(timestampFormat)
	data["level"] = entry.Level.String()
	data["message"] = entry.Message

	out, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// TextFormatter formats log entries as human-readable text:
//
//	15:04:05.000 INF [healthcheck] liveness probe disabled role=liveness
type TextFormatter struct {
	TimestampFormat  string // Format for timestamps
	DisableColors    bool   // Disable color output
	DisableTimestamp bool   // Disable timestamp output
}

// NewTextFormatter creates a new TextFormatter with sensible defaults.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		TimestampFormat: "15:04:05.000",
	}
}

var (
	dimColor   = color.New(color.FgHiBlack)
	keyColor   = color.New(color.FgCyan)
	levelColor = map[Level]*color.Color{
		DebugLevel: color.New(color.FgBlue),
		InfoLevel:  color.New(color.FgGreen),
		WarnLevel:  color.New(color.FgYellow),
		ErrorLevel: color.New(color.FgRed, color.Bold),
	}
	levelShort = map[Level]string{
		DebugLevel: "DBG",
		InfoLevel:  "INF",
		WarnLevel:  "WRN",
		ErrorLevel: "ERR",
	}
)

func (f *TextFormatter) paint(c *color.Color, s string) string {
	if f.DisableColors || c == nil {
		return s
	}
	return c.Sprint(s)
}

// Format formats the entry as text. Fields are sorted by key and the component
// field is rendered as a message prefix.
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	var b strings.Builder

	if !f.DisableTimestamp {
		timestampFormat := "2006-01-02T15:04:05.000"
		if f.TimestampFormat != "" {
			timestampFormat = f.TimestampFormat
		}
		b.WriteString(f.paint(dimColor, entry.Timestamp.Format(timestampFormat)))
		b.WriteByte(' ')
	}

	level, ok := levelShort[entry.Level]
	if !ok {
		level = entry.Level.String()
	}
	b.WriteString(f.paint(levelColor[entry.Level], level))
	b.WriteByte(' ')

	if component, ok := entry.Fields[ComponentKey]; ok {
		fmt.Fprintf(&b, "[%v] ", component)
	}
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		if k != ComponentKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", f.paint(keyColor, k), entry.Fields[k])
	}
	b.WriteByte('\n')

	return []byte(b.String()), nil
}
