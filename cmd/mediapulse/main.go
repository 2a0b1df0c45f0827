package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mediapulse/pkg/contracts"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newRootCmd returns the root command of the mediapulse CLI
func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           "mediapulse",
		Short:         "MediaPulse media intelligence dashboard",
		Long:          "MediaPulse ingests social listening exports (CSV or XLSX), aggregates them into dashboard views and attaches AI insights.",
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(contracts.GetFullVersionString() + "\n")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or ./configs/config.yaml when present)")

	rootCmd.AddCommand(newServeCmd(&cfgFile))
	rootCmd.AddCommand(newReportCmd(&cfgFile))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString())
			return nil
		},
	}
}
