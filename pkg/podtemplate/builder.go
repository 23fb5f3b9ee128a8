// Package podtemplate merges init container documents into pod template
// annotations.
package podtemplate

import (
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Builder is the mutable view of a pod template the merger works on.
type Builder interface {
	// HasMetadata reports whether the template carries a metadata section.
	HasMetadata() bool

	// Name returns the template name, empty when unset.
	Name() string

	// Annotations returns a copy of the template annotations.
	Annotations() map[string]string

	// EnsureMetadata creates an empty metadata section when none exists.
	EnsureMetadata() error

	// SetAnnotation sets a single annotation, replacing any previous value.
	SetAnnotation(key, value string) error
}

// Typed adapts a typed pod template. Its metadata section always exists.
type Typed struct {
	Template *corev1.PodTemplateSpec
}

// NewTyped wraps template.
func NewTyped(template *corev1.PodTemplateSpec) *Typed {
	return &Typed{Template: template}
}

func (t *Typed) HasMetadata() bool { return true }

func (t *Typed) Name() string { return t.Template.Name }

func (t *Typed) Annotations() map[string]string {
	return copyAnnotations(t.Template.Annotations)
}

func (t *Typed) EnsureMetadata() error { return nil }

func (t *Typed) SetAnnotation(key, value string) error {
	metav1.SetMetaDataAnnotation(&t.Template.ObjectMeta, key, value)
	return nil
}

// Unstructured adapts a pod template held as a generic object, as decoded
// from a manifest. The template lives at Path inside Object; an empty Path
// means Object is the template itself.
type Unstructured struct {
	Object map[string]interface{}
	Path   []string
}

// NewUnstructured wraps the pod template found at path inside obj, e.g.
// "spec", "template" for a deployment. Missing sections are created on write,
// but sections that exist must have the shape of a pod template.
func NewUnstructured(obj map[string]interface{}, path ...string) (*Unstructured, error) {
	if obj == nil {
		return nil, fmt.Errorf("pod template object is nil")
	}
	u := &Unstructured{Object: obj, Path: path}

	current := obj
	for i, field := range u.fields("metadata") {
		v, ok := current[field]
		if !ok {
			break
		}
		next, isMap := v.(map[string]interface{})
		if isMap {
			current = next
			continue
		}
		// A null metadata section is replaced on write, null ancestors are not.
		if v == nil && i == len(path) {
			break
		}
		return nil, fmt.Errorf("field %s is %T, not an object", strings.Join(u.fields("metadata")[:i+1], "."), v)
	}
	if _, _, err := unstructured.NestedStringMap(obj, u.fields("metadata", "annotations")...); err != nil {
		return nil, fmt.Errorf("invalid pod template annotations: %w", err)
	}
	return u, nil
}

func (u *Unstructured) fields(fields ...string) []string {
	out := make([]string, 0, len(u.Path)+len(fields))
	out = append(out, u.Path...)
	return append(out, fields...)
}

func (u *Unstructured) HasMetadata() bool {
	m, found, err := unstructured.NestedMap(u.Object, u.fields("metadata")...)
	return err == nil && found && m != nil
}

func (u *Unstructured) Name() string {
	name, _, _ := unstructured.NestedString(u.Object, u.fields("metadata", "name")...)
	return name
}

func (u *Unstructured) Annotations() map[string]string {
	annotations, _, err := unstructured.NestedStringMap(u.Object, u.fields("metadata", "annotations")...)
	if err != nil {
		return map[string]string{}
	}
	return copyAnnotations(annotations)
}

// EnsureMetadata creates the metadata section and any missing ancestors. It
// fails when Object is nil or a section on the way is not an object.
func (u *Unstructured) EnsureMetadata() error {
	if u.Object == nil {
		return fmt.Errorf("pod template object is nil")
	}
	if u.HasMetadata() {
		return nil
	}
	if v, found, _ := unstructured.NestedFieldNoCopy(u.Object, u.fields("metadata")...); found && v != nil {
		return fmt.Errorf("pod template metadata is %T, not an object", v)
	}
	if err := unstructured.SetNestedMap(u.Object, map[string]interface{}{}, u.fields("metadata")...); err != nil {
		return fmt.Errorf("cannot create pod template metadata: %w", err)
	}
	return nil
}

func (u *Unstructured) SetAnnotation(key, value string) error {
	if err := u.EnsureMetadata(); err != nil {
		return err
	}
	annotations, _, err := unstructured.NestedStringMap(u.Object, u.fields("metadata", "annotations")...)
	if err != nil {
		return fmt.Errorf("invalid pod template annotations: %w", err)
	}
	if annotations == nil {
		annotations = map[string]string{}
	}
	annotations[key] = value
	if err := unstructured.SetNestedStringMap(u.Object, annotations, u.fields("metadata", "annotations")...); err != nil {
		return fmt.Errorf("cannot set pod template annotation %s: %w", key, err)
	}
	return nil
}

func copyAnnotations(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
