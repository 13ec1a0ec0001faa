package main

import(
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const Version = "0.3.0"

var(
	fConfigFile string
	fVerbosity  int
)

var rootCmd = &cobra.Command{
	Use:     "skycolor",
	Short:   "Colorize all-sky camera frames from a luminance + color capture pair",
	Version: Version,
	SilenceUsage: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	log.SetFlags(log.Ltime)
	rootCmd.PersistentFlags().StringVar(&fConfigFile, "config", "", "YAML config file (flags override it)")
	rootCmd.PersistentFlags().IntVarP(&fVerbosity, "verbose", "v", 0, "how verbose to get")
}
