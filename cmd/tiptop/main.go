package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/podestapp/tiptop-go-rewrite/internal/buildinfo"
)

var rootCmd = &cobra.Command{
	Use:     "tiptop",
	Short:   "TipTop - non-renewing subscription entitlement service",
	Long:    `TipTop tracks purchase receipts, the free trial window and in-flight payments, and derives the current entitlement state from them.`,
	Version: buildinfo.Build,
	Run: func(cmd *cobra.Command, args []string) {
		runService()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(receiptsCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("TipTop %s\n", buildinfo.Resolve())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
