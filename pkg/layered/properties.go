package layered

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/magiconair/properties"
)

// PropertyLayer is a flat string-to-string bag of build-time overrides using
// dot-joined keys, e.g. health.port or health.readiness.port-name.
type PropertyLayer struct {
	name  string
	props map[string]string
}

// NewPropertyLayer copies props into a new layer.
func NewPropertyLayer(name string, props map[string]string) *PropertyLayer {
	copied := make(map[string]string, len(props))
	for k, v := range props {
		copied[k] = v
	}
	return &PropertyLayer{name: name, props: copied}
}

// ParsePropertyPairs builds a layer from key=value pairs as given on a command line.
func ParsePropertyPairs(name string, pairs []string) (*PropertyLayer, error) {
	props := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid property %q, expected key=value", pair)
		}
		props[key] = value
	}
	return &PropertyLayer{name: name, props: props}, nil
}

// LoadPropertyLayer reads a Java-style .properties document. ${key}
// references are kept verbatim.
func LoadPropertyLayer(name string, r io.Reader) (*PropertyLayer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read properties %s: %w", name, err)
	}

	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := loader.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse properties %s: %w", name, err)
	}
	return &PropertyLayer{name: name, props: p.Map()}, nil
}

// Name implements Layer.
func (l *PropertyLayer) Name() string {
	return l.name
}

// Lookup implements Layer. Properties only ever hold scalars.
func (l *PropertyLayer) Lookup(path string) (Value, bool) {
	v, ok := l.props[path]
	if !ok {
		return Value{}, false
	}
	return ScalarValue(v), true
}

// Keys returns the property keys in sorted order.
func (l *PropertyLayer) Keys() []string {
	keys := make([]string, 0, len(l.props))
	for k := range l.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of properties.
func (l *PropertyLayer) Len() int {
	return len(l.props)
}

// Overlay returns a new layer holding the properties of l overridden by those of
// top. The result is named after both sources.
func (l *PropertyLayer) Overlay(top *PropertyLayer) *PropertyLayer {
	if top == nil {
		return l
	}
	merged := make(map[string]string, len(l.props)+len(top.props))
	for k, v := range l.props {
		merged[k] = v
	}
	for k, v := range top.props {
		merged[k] = v
	}
	return &PropertyLayer{name: l.name + "+" + top.name, props: merged}
}
