package podtemplate

import (
	"fmt"
	"strings"

	"github.com/rzbill/podprobe/pkg/types"
	"k8s.io/apimachinery/pkg/util/json"
)

// InitContainers decodes the init containers recorded in the template
// annotation. A missing or blank annotation yields an empty list.
func InitContainers(b Builder) ([]map[string]interface{}, error) {
	value := strings.TrimSpace(b.Annotations()[types.InitContainerAnnotation])
	if value == "" {
		return nil, nil
	}

	var items []interface{}
	if err := json.Unmarshal([]byte(value), &items); err != nil {
		return nil, &types.MalformedAnnotationError{Key: types.InitContainerAnnotation, Err: err}
	}

	containers := make([]map[string]interface{}, 0, len(items))
	for i, item := range items {
		doc, ok := item.(map[string]interface{})
		if !ok {
			return nil, &types.MalformedAnnotationError{
				Key: types.InitContainerAnnotation,
				Err: fmt.Errorf("element %d is %T, not an object", i, item),
			}
		}
		containers = append(containers, doc)
	}
	return containers, nil
}

// HasInitContainer reports whether the template already records an init
// container named name.
func HasInitContainer(b Builder, name string) (bool, error) {
	if !b.HasMetadata() {
		return false, nil
	}
	containers, err := InitContainers(b)
	if err != nil {
		return false, err
	}
	return indexOf(containers, name) >= 0, nil
}

// Merge appends c to the init containers recorded in the template annotation.
// A container whose name is already recorded is rejected with a
// *types.DuplicateInitContainerError and the annotation is left untouched.
func Merge(b Builder, c *types.InitContainer) error {
	if c == nil {
		return types.NewValidationError("init container is nil")
	}
	if err := b.EnsureMetadata(); err != nil {
		return err
	}

	containers, err := InitContainers(b)
	if err != nil {
		return err
	}
	if indexOf(containers, c.Name) >= 0 {
		return &types.DuplicateInitContainerError{Pod: b.Name(), Container: c.Name}
	}

	containers = append(containers, c.Raw)
	data, err := json.Marshal(containers)
	if err != nil {
		return fmt.Errorf("failed to encode init containers: %w", err)
	}
	return b.SetAnnotation(types.InitContainerAnnotation, string(data))
}

func indexOf(containers []map[string]interface{}, name string) int {
	for i, doc := range containers {
		if existing, ok := doc["name"].(string); ok && existing == name {
			return i
		}
	}
	return -1
}
