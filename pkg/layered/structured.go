package layered

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// StructuredLayer is a configuration tree with named child nodes, such as an
// enricher's declared configuration:
//
//	path: /health
//	port: 8080
//	readiness:
//	  path: /ready
//	headers:
//	  X-Header: X
type StructuredLayer struct {
	name string
	root *yaml.Node
}

// NewStructuredLayer wraps a YAML node. Document nodes are unwrapped, a nil or
// empty node yields an empty layer and any other non-mapping node is rejected.
func NewStructuredLayer(name string, node *yaml.Node) (*StructuredLayer, error) {
	node = resolveAlias(node)
	if node != nil && node.Kind == 0 {
		node = nil
	}
	if node != nil && node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			node = nil
		} else {
			node = resolveAlias(node.Content[0])
		}
	}
	if node != nil && node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		node = nil
	}
	if node != nil && node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("structured configuration %s must be a mapping, got %s at line %d", name, nodeKind(node), node.Line)
	}
	return &StructuredLayer{name: name, root: node}, nil
}

// ParseStructuredLayer parses YAML into a StructuredLayer.
func ParseStructuredLayer(name string, data []byte) (*StructuredLayer, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse structured configuration %s: %w", name, err)
	}
	return NewStructuredLayer(name, &doc)
}

// NewStructuredLayerFromMap builds a StructuredLayer from a loosely typed map,
// such as one decoded by viper or encoding/json. Scalars are coerced to strings.
// Map keys are sorted since Go maps carry no order.
func NewStructuredLayerFromMap(name string, m map[string]interface{}) (*StructuredLayer, error) {
	if m == nil {
		return &StructuredLayer{name: name}, nil
	}
	node, err := mapToNode(m)
	if err != nil {
		return nil, fmt.Errorf("structured configuration %s: %w", name, err)
	}
	return &StructuredLayer{name: name, root: node}, nil
}

// Name implements Layer.
func (l *StructuredLayer) Name() string {
	return l.name
}

// Sub returns the subtree under path as its own layer, e.g. the configuration
// of one enricher out of a tree keyed by enricher name.
func (l *StructuredLayer) Sub(path string) *StructuredLayer {
	node := l.find(path)
	if node == nil || node.Kind != yaml.MappingNode {
		return &StructuredLayer{name: JoinKey(l.name, path)}
	}
	return &StructuredLayer{name: JoinKey(l.name, path), root: node}
}

// Lookup implements Layer.
func (l *StructuredLayer) Lookup(path string) (Value, bool) {
	node := l.find(path)
	if node == nil {
		return Value{}, false
	}

	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return ScalarValue(""), true
		}
		return ScalarValue(node.Value), true
	case yaml.SequenceNode:
		items := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			item = resolveAlias(item)
			if item.Kind == yaml.ScalarNode {
				items = append(items, item.Value)
			}
		}
		return Value{Kind: KindList, List: items}, true
	case yaml.MappingNode:
		entries := make([]Entry, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], resolveAlias(node.Content[i+1])
			if val.Kind != yaml.ScalarNode {
				continue
			}
			entries = append(entries, Entry{Name: key.Value, Value: val.Value})
		}
		return Value{Kind: KindMapping, Entries: entries}, true
	}
	return Value{}, false
}

func (l *StructuredLayer) find(path string) *yaml.Node {
	if l.root == nil || path == "" {
		return nil
	}

	node := l.root
	for _, segment := range strings.Split(path, ".") {
		if node.Kind != yaml.MappingNode {
			return nil
		}
		var next *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == segment {
				next = resolveAlias(node.Content[i+1])
				break
			}
		}
		if next == nil {
			return nil
		}
		node = next
	}
	return node
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	default:
		return "node"
	}
}

// mapToNode converts a loosely typed tree into YAML nodes.
func mapToNode(m map[string]interface{}) (*yaml.Node, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range keys {
		child, err := valueToNode(m[k])
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", k, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			child,
		)
	}
	return node, nil
}

func valueToNode(v interface{}) (*yaml.Node, error) {
	switch val := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null"}, nil
	case map[string]interface{}:
		return mapToNode(val)
	case map[interface{}]interface{}:
		return mapToNode(cast.ToStringMap(val))
	case []interface{}, []string:
		items, err := cast.ToStringSliceE(val)
		if err != nil {
			return nil, err
		}
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range items {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: item})
		}
		return seq, nil
	default:
		s, err := cast.ToStringE(val)
		if err != nil {
			return nil, err
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}, nil
	}
}
