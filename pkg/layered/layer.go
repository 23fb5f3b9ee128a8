// Package layered resolves configuration keys across an ordered set of
// configuration sources. Each key is resolved on its own: the first source that
// holds a non-blank value for that exact key wins, independently of where any
// other key came from.
package layered

import "strings"

// Kind is the shape of a configuration value.
type Kind int

const (
	KindScalar Kind = iota
	KindList
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Entry is a named child of a mapping value, kept in source order.
type Entry struct {
	Name  string
	Value string
}

// Value is a configuration value found in a layer.
type Value struct {
	Kind    Kind
	Scalar  string
	List    []string
	Entries []Entry
}

// ScalarValue returns a scalar Value.
func ScalarValue(s string) Value {
	return Value{Kind: KindScalar, Scalar: s}
}

// IsBlank reports whether the value carries nothing once whitespace is trimmed.
// Blank values are treated as absent by the resolver.
func (v Value) IsBlank() bool {
	switch v.Kind {
	case KindScalar:
		return strings.TrimSpace(v.Scalar) == ""
	case KindList:
		for _, item := range v.List {
			if strings.TrimSpace(item) != "" {
				return false
			}
		}
		return true
	case KindMapping:
		return len(v.Entries) == 0
	}
	return true
}

// Layer is a read-only view over one configuration source.
type Layer interface {
	// Name identifies the source in logs and errors.
	Name() string

	// Lookup returns the value stored under a dotted path.
	Lookup(path string) (Value, bool)
}

// JoinKey joins non-empty key segments with dots.
func JoinKey(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ".")
}
