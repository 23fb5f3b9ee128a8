package cmd

import (
	"fmt"
	"os"

	"github.com/rzbill/podprobe/pkg/cli/format"
	"github.com/rzbill/podprobe/pkg/enricher"
	"github.com/rzbill/podprobe/pkg/log"
	"github.com/rzbill/podprobe/pkg/podtemplate"
	"github.com/rzbill/podprobe/pkg/types"
	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/yaml"
)

func newInitContainerCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "init-container",
		Aliases: []string{"ic"},
		Short:   "Manage init containers recorded in pod template annotations",
	}
	cmd.AddCommand(newInitContainerAddCmd(global))
	cmd.AddCommand(newInitContainerListCmd(global))
	return cmd
}

func newInitContainerAddCmd(global *globalOptions) *cobra.Command {
	var (
		templateFile  string
		containerFile string
		outFile       string
		skipExisting  bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an init container to a pod template",
		Long: `Add an init container to the pod template annotation of a manifest. The
manifest may be a pod template spec, a PodTemplate, or any workload holding
its pod template under spec.template. Adding a container whose name is
already recorded fails unless --skip-existing is given.`,
		Example: `  podprobe init-container add --template deployment.yaml --container wait-for-db.yaml
  podprobe init-container add --template pod.yaml --container init.yaml --out pod.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, builder, err := loadTemplate(templateFile)
			if err != nil {
				return err
			}
			container, err := loadInitContainer(containerFile)
			if err != nil {
				return err
			}

			base := enricher.NewBase(&enricher.Context{Logger: global.logger}, "init-container")
			if skipExisting {
				exists, err := base.HasInitContainer(builder, container.Name)
				if err != nil {
					return err
				}
				if exists {
					base.Log().Info("init container already present, skipping", log.Str("container", container.Name))
					return writeManifest(cmd, obj, outFile)
				}
			}
			if err := base.AddInitContainer(builder, container); err != nil {
				return err
			}
			if err := writeManifest(cmd, obj, outFile); err != nil {
				return err
			}
			if outFile != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s added init container %s to %s\n",
					format.StatusSymbol(true), container.Name, outFile)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&templateFile, "template", "", "Manifest holding the pod template")
	cmd.Flags().StringVar(&containerFile, "container", "", "Init container definition (YAML)")
	cmd.Flags().StringVar(&outFile, "out", "", "Write the manifest here instead of stdout")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "Leave the manifest unchanged when the container is already present")
	_ = cmd.MarkFlagRequired("template")
	_ = cmd.MarkFlagRequired("container")
	return cmd
}

func newInitContainerListCmd(global *globalOptions) *cobra.Command {
	var templateFile string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the init containers recorded in a pod template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, builder, err := loadTemplate(templateFile)
			if err != nil {
				return err
			}
			containers, err := podtemplate.InitContainers(builder)
			if err != nil {
				return err
			}
			global.logger.Debug("decoded init containers", log.Int("count", len(containers)))
			for _, c := range containers {
				name, _ := c["name"].(string)
				image, _ := c["image"].(string)
				fmt.Fprintln(cmd.OutOrStdout(), format.Label(name, image))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&templateFile, "template", "", "Manifest holding the pod template")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

// loadTemplate reads a manifest and locates its pod template.
func loadTemplate(path string) (map[string]interface{}, *podtemplate.Unstructured, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read template: %w", err)
	}
	var obj map[string]interface{}
	if err := yaml.Unmarshal(data, &obj); err != nil {
		return nil, nil, fmt.Errorf("failed to parse template %s: %w", path, err)
	}
	if obj == nil {
		obj = map[string]interface{}{}
	}

	builder, err := podtemplate.NewUnstructured(obj, templatePath(obj)...)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid template %s: %w", path, err)
	}
	return obj, builder, nil
}

// templatePath returns where the pod template lives inside a manifest.
func templatePath(obj map[string]interface{}) []string {
	if kind, _ := obj["kind"].(string); kind == "PodTemplate" {
		return []string{"template"}
	}
	if spec, ok := obj["spec"].(map[string]interface{}); ok {
		if _, ok := spec["template"]; ok {
			return []string{"spec", "template"}
		}
	}
	return nil
}

func loadInitContainer(path string) (*types.InitContainer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read container: %w", err)
	}
	var c corev1.Container
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, fmt.Errorf("invalid container %s: %w", path, err)
	}
	return types.InitContainerFromContainer(&c)
}

func writeManifest(cmd *cobra.Command, obj map[string]interface{}, outFile string) error {
	data, err := yaml.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if outFile == "" {
		return writeOutput(cmd, data)
	}
	return os.WriteFile(outFile, data, 0o644)
}
