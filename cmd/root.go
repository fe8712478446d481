package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/overlay-studio/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "studio",
	Short: "Place and style icon overlays on a static marketing site",
	Long: `Overlay Studio serves a static site together with a small config and
asset store, and drives a browser session in which an admin can drag,
resize, hide and upload icons layered over the page. Every edit is
written through to the config store so visitors see it on their next
poll.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
