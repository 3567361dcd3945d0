package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "audit",
		Short:   "Regulatory Gap Auditor - turn enforcement notices into a gap questionnaire",
		Long:    `audit reads a regulatory enforcement notice (PDF), asks an LLM for the specific operational failures it describes, and produces a reviewed gap report.`,
		Version: version,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to config file (default: ~/.config/gapaudit/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(newAnalyzeCmd(), newServeCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
