package cmd

import (
	"fmt"
	"os"

	"github.com/rzbill/podprobe/internal/config"
	"github.com/rzbill/podprobe/pkg/cli/format"
	"github.com/rzbill/podprobe/pkg/log"
	"github.com/rzbill/podprobe/pkg/version"
	"github.com/spf13/cobra"
)

// globalOptions are shared by every command and filled in before a command runs.
type globalOptions struct {
	settingsFile string
	verbose      bool
	noColor      bool

	cfg    *config.Config
	logger log.Logger
}

// NewRootCmd builds the podprobe command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "podprobe",
		Short: "podprobe - health probes and init containers for pod templates",
		Long: `podprobe resolves liveness and readiness probes from layered build
configuration and merges init containers into pod template annotations.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.settingsFile, "settings", "", "podprobe settings file (default is ./podprobe.yaml or $HOME/.podprobe/podprobe.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(newProbesCmd(opts))
	cmd.AddCommand(newInitContainerCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func (o *globalOptions) init(cmd *cobra.Command) error {
	cfg, err := config.Load(o.settingsFile)
	if err != nil {
		return err
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	if o.noColor {
		cfg.Log.NoColor = true
	}

	logger, err := log.ApplyConfig(cfg.LogConfig(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	format.ConfigureColor(cfg.Log.NoColor)

	o.cfg = cfg
	o.logger = logger
	logger.Debug("configuration loaded", log.Str("enricher", cfg.Enricher.Name), log.Str("prefix", cfg.Enricher.PropertyPrefix))
	return nil
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		format.NewErrorFormatter(os.Stderr, "podprobe failed").Print(err)
		os.Exit(1)
	}
}

func writeOutput(cmd *cobra.Command, data []byte) error {
	if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
