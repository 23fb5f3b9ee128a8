package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rzbill/podprobe/pkg/enricher"
	"github.com/rzbill/podprobe/pkg/layered"
	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/yaml"
)

type probesOptions struct {
	configFile     string
	section        string
	propertiesFile string
	set            []string
	prefix         string
	notApplicable  bool
	output         string
}

// probesResult is what the probes command prints.
type probesResult struct {
	Liveness  *corev1.Probe `json:"liveness,omitempty"`
	Readiness *corev1.Probe `json:"readiness,omitempty"`
}

func newProbesCmd(global *globalOptions) *cobra.Command {
	opts := &probesOptions{}
	cmd := &cobra.Command{
		Use:   "probes",
		Short: "Resolve liveness and readiness probes",
		Long: `Resolve liveness and readiness probes from an enricher configuration file
and build properties. For every role and key, properties under <prefix>.<role>
win over <prefix>, which win over the role section of the configuration, which
wins over its top level.`,
		Example: `  podprobe probes --config enricher.yaml --set health.readiness.port=8081
  podprobe probes --properties build.properties --prefix vertx.health -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbes(cmd, global, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configFile, "config", "", "Enricher configuration file (YAML)")
	cmd.Flags().StringVar(&opts.section, "section", "", "Dotted path of the enricher section inside the configuration file")
	cmd.Flags().StringVar(&opts.propertiesFile, "properties", "", "Build properties file")
	cmd.Flags().StringArrayVar(&opts.set, "set", nil, "Property override as key=value, can be repeated")
	cmd.Flags().StringVar(&opts.prefix, "prefix", "", "Property prefix (default from settings, health)")
	cmd.Flags().BoolVar(&opts.notApplicable, "not-applicable", false, "Treat the workload as not applicable")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "yaml", "Output format (yaml|json)")
	return cmd
}

func runProbes(cmd *cobra.Command, global *globalOptions, opts *probesOptions) error {
	if opts.output != "yaml" && opts.output != "json" {
		return fmt.Errorf("unsupported output format %q, use yaml or json", opts.output)
	}

	properties, err := loadProperties(opts.propertiesFile, opts.set)
	if err != nil {
		return err
	}
	structured, err := loadStructured(opts.configFile, opts.section)
	if err != nil {
		return err
	}

	prefix := opts.prefix
	if prefix == "" {
		prefix = global.cfg.Enricher.PropertyPrefix
	}

	ctx := &enricher.Context{
		Properties: properties,
		Config:     structured,
		Applicable: global.cfg.Enricher.IsApplicable() && !opts.notApplicable,
		Logger:     global.logger,
	}
	probes, resolveErr := enricher.NewHealthCheck(ctx, global.cfg.Enricher.Name, prefix).Probes()

	result := probesResult{
		Liveness:  probes.Liveness.ToKubernetes(),
		Readiness: probes.Readiness.ToKubernetes(),
	}
	data, err := encodeResult(result, opts.output)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd, data); err != nil {
		return err
	}
	return resolveErr
}

func encodeResult(v interface{}, output string) ([]byte, error) {
	if output == "json" {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
	return yaml.Marshal(v)
}

func loadProperties(path string, pairs []string) (layered.Layer, error) {
	var base *layered.PropertyLayer
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open properties: %w", err)
		}
		defer f.Close()
		if base, err = layered.LoadPropertyLayer(path, f); err != nil {
			return nil, err
		}
	}

	overrides, err := layered.ParsePropertyPairs("--set", pairs)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return overrides, nil
	}
	return base.Overlay(overrides), nil
}

func loadStructured(path, section string) (layered.Layer, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	l, err := layered.ParseStructuredLayer(path, data)
	if err != nil {
		return nil, err
	}
	if section == "" {
		return l, nil
	}
	return l.Sub(section), nil
}
