package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "gateway",
	Short: "pdfcraft gateway - PDF utilities behind a daily usage quota",
	Long: `gateway serves merge, split, compress, page-count and image-to-PDF over HTTP.
Every document operation consumes one unit of the caller's daily quota; premium
callers are never limited.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (optional, PDFCRAFT_* env vars override)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
