// Command hldsbot relays HLDS server logs to Telegram.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hldsbot/hldsbot-go/internal/destination"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Exit codes.
const (
	exitOK             = 0
	exitError          = 1
	exitNoDestinations = 3
)

var (
	// global flags
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "hldsbot",
	Short: "Relay Half-Life dedicated server logs to Telegram",
	Long: `hldsbot receives HLDS log lines over UDP, classifies them into events
and posts a notification for each event to a public, private or chat channel.

Point the game server at the bot with:
  logaddress_add <bot-host> 27115
  log on`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "hldsbot.yaml",
		"Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitOK)
}

// exitCode maps an error returned by a command to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, destination.ErrNoDestinations):
		return exitNoDestinations
	default:
		return exitError
	}
}
