// Command wickdl lists, downloads, and streams files out of a
// chunk-backed, content-addressed CDN build.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SirWaddles/wickdl/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd := &cobra.Command{
		Use:   "wickdl",
		Short: "CLI for a chunk-backed content-addressed CDN build",
		Long:  "wickdl lists, downloads, and streams files out of a chunk-backed, GUID-addressed game CDN build.",
	}

	var configPath string
	var verbose bool
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml (default: OS config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetLevel(logger.LevelDebug)
		}
	}

	rootCmd.AddCommand(newListCmd(&configPath))
	rootCmd.AddCommand(newGetCmd(&configPath))
	rootCmd.AddCommand(newCatCmd(&configPath))
	rootCmd.AddCommand(newVerifyCmd(&configPath))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
