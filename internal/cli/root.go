// Package cli implements the storyctl commands.
package cli

import (
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/prudhvinik1/storyline/internal/config"
)

// RootOptions holds global flags and the configuration shared by all commands.
type RootOptions struct {
	Verbose bool
	Config  *config.Config
	Logger  *slog.Logger

	// OpenMedia overrides how media files are opened (for testing).
	OpenMedia func(name string) (io.Closer, error)
}

// NewRootCommand creates the root command for storyctl.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storyctl",
		Short: "Play and inspect ephemeral stories",
		Long:  "storyctl plays a demo stories feed in the terminal and mints tokens for the stories HTTP API.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadPlayerConfig()
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if opts.Verbose {
				level = "debug"
			}
			opts.Config = cfg
			opts.Logger = config.NewLogger(level, cfg.LogFormat, cmd.ErrOrStderr())
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewPlayCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewPostCommand(opts))

	return cmd
}

// durationOr returns d unless it is zero.
func durationOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
