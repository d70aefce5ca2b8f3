// Package main is the interactive entry point for the AC operator agent:
// it loads configuration, launches a Playwright-controlled browser against
// the AC console, and runs a read-eval loop feeding user instructions to
// the agent core.
//
// Basic usage:
//
//	acagent --config acagent.yaml
//
// Environment variables override their config-file counterparts:
//
//   - ACAGENT_BASE_URL: AC console origin
//   - ACAGENT_AC_PASSWORD: console login password
//   - ACAGENT_LLM_API_KEY: LLM API key
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "acagent",
		Short:         "AI operator for the Cassia AC management console",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runAgent,
	}
	root.Flags().StringP("config", "c", "acagent.yaml", "path to the YAML config file")
	root.Flags().Bool("headless", false, "run the browser headless")
	root.Flags().String("log-level", "info", "log level: debug, info, warn, error")
	root.Flags().Bool("metrics", false, "register Prometheus metrics on the default registry")
	root.Flags().Bool("yes", false, "skip confirmation prompts for high-risk tools")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("acagent", version)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
