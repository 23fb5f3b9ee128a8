package types

import (
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

// InitContainerAnnotation is the pod template annotation holding the JSON array
// of init containers, for manifest schemas without native init container support.
const InitContainerAnnotation = "pod.alpha.kubernetes.io/init-containers"

// InitContainer is an init container document. Only Name matters for
// deduplication, Raw is written to the annotation as is.
type InitContainer struct {
	Name string
	Raw  map[string]interface{}
}

// NewInitContainer wraps a raw container document. The document must carry a
// non-blank string name.
func NewInitContainer(raw map[string]interface{}) (*InitContainer, error) {
	name, err := containerName(raw)
	if err != nil {
		return nil, err
	}
	return &InitContainer{Name: name, Raw: raw}, nil
}

// InitContainerFromContainer converts a typed container into an init container document.
func InitContainerFromContainer(c *corev1.Container) (*InitContainer, error) {
	raw, err := runtime.DefaultUnstructuredConverter.ToUnstructured(c)
	if err != nil {
		return nil, fmt.Errorf("failed to convert container %s: %w", c.Name, err)
	}
	return NewInitContainer(raw)
}

func containerName(raw map[string]interface{}) (string, error) {
	if raw == nil {
		return "", NewValidationError("init container document is empty")
	}
	name, ok := raw["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return "", NewValidationError("init container document must have a name")
	}
	return name, nil
}
