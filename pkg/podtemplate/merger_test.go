package podtemplate

import (
	"errors"
	"testing"

	"github.com/rzbill/podprobe/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"
)

func initContainer(t *testing.T, name, image string) *types.InitContainer {
	t.Helper()
	c, err := types.NewInitContainer(map[string]interface{}{"name": name, "image": image})
	require.NoError(t, err)
	return c
}

func TestMerge_Typed(t *testing.T) {
	template := &corev1.PodTemplateSpec{ObjectMeta: metav1.ObjectMeta{Name: "web"}}
	b := NewTyped(template)

	require.NoError(t, Merge(b, initContainer(t, "init-a", "busybox")))
	require.NoError(t, Merge(b, initContainer(t, "init-b", "alpine")))

	assert.JSONEq(t,
		`[{"name":"init-a","image":"busybox"},{"name":"init-b","image":"alpine"}]`,
		template.Annotations[types.InitContainerAnnotation])

	containers, err := InitContainers(b)
	require.NoError(t, err)
	require.Len(t, containers, 2)
	assert.Equal(t, "init-a", containers[0]["name"])
	assert.Equal(t, "init-b", containers[1]["name"])

	has, err := HasInitContainer(b, "init-b")
	require.NoError(t, err)
	assert.True(t, has)
	has, err = HasInitContainer(b, "init-c")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestMerge_DuplicateLeavesAnnotationUntouched(t *testing.T) {
	template := &corev1.PodTemplateSpec{ObjectMeta: metav1.ObjectMeta{Name: "web"}}
	b := NewTyped(template)

	require.NoError(t, Merge(b, initContainer(t, "init", "busybox")))
	before := template.Annotations[types.InitContainerAnnotation]

	err := Merge(b, initContainer(t, "init", "alpine"))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrDuplicateInitContainer)

	var dup *types.DuplicateInitContainerError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "web", dup.Pod)
	assert.Equal(t, "init", dup.Container)
	assert.Contains(t, err.Error(), "already contains an init container with name init")

	assert.Equal(t, before, template.Annotations[types.InitContainerAnnotation])
}

func TestMerge_KeepsOtherAnnotations(t *testing.T) {
	template := &corev1.PodTemplateSpec{ObjectMeta: metav1.ObjectMeta{
		Annotations: map[string]string{"team": "platform", types.InitContainerAnnotation: "  "},
	}}

	require.NoError(t, Merge(NewTyped(template), initContainer(t, "init", "busybox")))
	assert.Equal(t, "platform", template.Annotations["team"])
	assert.JSONEq(t, `[{"name":"init","image":"busybox"}]`, template.Annotations[types.InitContainerAnnotation])
}

func TestMerge_MalformedAnnotation(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "not json", value: "{broken"},
		{name: "object instead of array", value: `{"name":"init"}`},
		{name: "array of scalars", value: `["init"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			template := &corev1.PodTemplateSpec{ObjectMeta: metav1.ObjectMeta{
				Annotations: map[string]string{types.InitContainerAnnotation: tt.value},
			}}

			err := Merge(NewTyped(template), initContainer(t, "init", "busybox"))
			assert.ErrorIs(t, err, types.ErrMalformedAnnotation)
			assert.Equal(t, tt.value, template.Annotations[types.InitContainerAnnotation])
		})
	}
}

func TestMerge_NilContainer(t *testing.T) {
	err := Merge(NewTyped(&corev1.PodTemplateSpec{}), nil)
	assert.True(t, types.IsValidationError(err))
}

func TestMerge_Unstructured(t *testing.T) {
	var deployment map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(`
apiVersion: apps/v1
kind: Deployment
metadata:
  name: web
spec:
  template:
    spec:
      containers:
        - name: app
          image: nginx
`), &deployment))

	b, err := NewUnstructured(deployment, "spec", "template")
	require.NoError(t, err)
	assert.False(t, b.HasMetadata())

	has, err := HasInitContainer(b, "init")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, Merge(b, initContainer(t, "init", "busybox")))
	assert.True(t, b.HasMetadata())

	template := deployment["spec"].(map[string]interface{})["template"].(map[string]interface{})
	annotations := template["metadata"].(map[string]interface{})["annotations"].(map[string]interface{})
	assert.JSONEq(t, `[{"name":"init","image":"busybox"}]`, annotations[types.InitContainerAnnotation].(string))

	err = Merge(b, initContainer(t, "init", "busybox"))
	var dup *types.DuplicateInitContainerError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "", dup.Pod)
}

func TestNewUnstructured(t *testing.T) {
	tests := []struct {
		name    string
		obj     map[string]interface{}
		path    []string
		wantErr bool
	}{
		{name: "empty template", obj: map[string]interface{}{}},
		{name: "missing ancestors", obj: map[string]interface{}{}, path: []string{"spec", "template"}},
		{name: "null metadata", obj: map[string]interface{}{"metadata": nil}},
		{name: "nil object", obj: nil, wantErr: true},
		{name: "scalar ancestor", obj: map[string]interface{}{"spec": "x"}, path: []string{"spec", "template"}, wantErr: true},
		{name: "null ancestor", obj: map[string]interface{}{"spec": nil}, path: []string{"spec", "template"}, wantErr: true},
		{name: "scalar metadata", obj: map[string]interface{}{"metadata": 3}, wantErr: true},
		{
			name:    "non string annotations",
			obj:     map[string]interface{}{"metadata": map[string]interface{}{"annotations": map[string]interface{}{"a": 1}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewUnstructured(tt.obj, tt.path...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			require.NoError(t, b.EnsureMetadata())
			assert.True(t, b.HasMetadata())
			require.NoError(t, b.SetAnnotation("k", "v"))
			assert.Equal(t, map[string]string{"k": "v"}, b.Annotations())
		})
	}
}

func TestUnstructured_WriteErrors(t *testing.T) {
	tests := []struct {
		name string
		b    *Unstructured
	}{
		{name: "nil object", b: &Unstructured{Path: []string{"spec", "template"}}},
		{name: "scalar ancestor", b: &Unstructured{Object: map[string]interface{}{"spec": "x"}, Path: []string{"spec", "template"}}},
		{name: "null ancestor", b: &Unstructured{Object: map[string]interface{}{"spec": nil}, Path: []string{"spec", "template"}}},
		{name: "scalar metadata", b: &Unstructured{Object: map[string]interface{}{"metadata": "x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.b.EnsureMetadata())
			assert.Error(t, tt.b.SetAnnotation("k", "v"))
			assert.Error(t, Merge(tt.b, initContainer(t, "init", "busybox")))
		})
	}
}

func TestUnstructured_AnnotationsChangedAfterWrap(t *testing.T) {
	obj := map[string]interface{}{"metadata": map[string]interface{}{}}
	b, err := NewUnstructured(obj)
	require.NoError(t, err)

	obj["metadata"].(map[string]interface{})["annotations"] = map[string]interface{}{"a": 1}

	assert.Error(t, b.SetAnnotation("k", "v"))
	assert.Equal(t, map[string]interface{}{"a": 1}, obj["metadata"].(map[string]interface{})["annotations"])
}

func TestUnstructured_Name(t *testing.T) {
	b, err := NewUnstructured(map[string]interface{}{
		"metadata": map[string]interface{}{"name": "job-pod"},
	})
	require.NoError(t, err)
	assert.Equal(t, "job-pod", b.Name())

	require.NoError(t, Merge(b, initContainer(t, "init", "busybox")))
	err = Merge(b, initContainer(t, "init", "busybox"))
	assert.EqualError(t, err, "pod template job-pod already contains an init container with name init, cannot add a second one")
}
