package cli

import (
	"fmt"
	"os"

	"github.com/fermyon/spin-companion/pkg/config"
	"github.com/fermyon/spin-companion/pkg/util"
	"github.com/spf13/cobra"
)

var (
	verbose  bool
	cfgFile  string
	settings *config.Settings
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "spin-companion",
		Short: "Build, run and deploy Spin applications",
		Long: `spin-companion drives the spin CLI for you: it installs a pinned
release, runs build and up, and deploys to a Fermyon platform, recovering
from existing bindles and expired credentials along the way.

Deployment environments and their passwords are remembered between runs.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			settings = s
			util.InitLogger(verbose || s.Verbose)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.fermyon/spin-companion.yaml)")

	// Add subcommands
	rootCmd.AddCommand(NewConnectCmd())
	rootCmd.AddCommand(NewDeployCmd())
	rootCmd.AddCommand(NewDashboardCmd())
	rootCmd.AddCommand(NewAddToPathCmd())
	rootCmd.AddCommand(NewMenuCmd())
	rootCmd.AddCommand(NewStatusCmd())
	rootCmd.AddCommand(NewEnvCmd())
	rootCmd.AddCommand(NewTaskCmd())
	rootCmd.AddCommand(NewCleanCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
