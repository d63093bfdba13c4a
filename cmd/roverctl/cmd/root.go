package cmd

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	mcpserver "github.com/sekia-ai/rover/internal/mcp"
)

var (
	cfgFile string
	verbose bool

	// Version is set by the main package via ldflags.
	Version = "dev"
)

// NewRootCmd creates the root roverctl command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "roverctl",
		Short:        "Rover CLI — drive the rover and watch bridge events",
		Version:      Version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (same format as rover-mcp)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log robot round trips")

	rootCmd.AddCommand(newMoveCmd("forward", "Drive forward at --speed"))
	rootCmd.AddCommand(newMoveCmd("backward", "Drive backward at --speed"))
	rootCmd.AddCommand(newStopCmd())
	rootCmd.AddCommand(newTelemetryCmd())
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newPublishCmd())

	return rootCmd
}

func loadConfig() (mcpserver.Config, error) {
	return mcpserver.LoadConfig(cfgFile)
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(
		zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339},
	).Level(level).With().Timestamp().Logger()
}
