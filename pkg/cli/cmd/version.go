package cmd

import (
	"fmt"

	"github.com/rzbill/podprobe/pkg/version"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

func newVersionCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the podprobe version information",
		Long:  `Display detailed version information about the podprobe binary.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch output {
			case "", "text":
				fmt.Fprintln(cmd.OutOrStdout(), version.Info())
				return nil
			case "yaml":
				data, err := yaml.Marshal(version.Get())
				if err != nil {
					return err
				}
				return writeOutput(cmd, data)
			default:
				return fmt.Errorf("unsupported output format %q, use text or yaml", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text|yaml)")
	return cmd
}
