package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "busproctl",
		Short: "HDL BusPro AC control over UDP gateways",
		Long: `busproctl drives HDL BusPro air conditioning panels through IP
gateways. All byte-level protocol knowledge comes from a template
catalog captured from the vendor tool; the engine discovers field
offsets from the templates at startup.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/busproctl.yaml",
		"path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevelOverride, "log-level", "",
		"override the configured log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newPollCmd())
	rootCmd.AddCommand(newListenCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newDiscoverCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newExtractCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
