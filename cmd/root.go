package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "stitcher",
		Short: "Stitch images into one composite, side by side or stacked",
		Long: `Stitcher combines an ordered list of images into a single raster.

Images can be rotated, resized, reordered and framed with borders or
separators before stitching. Use the web interface for interactive work or
the stitch command for scripted composites.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			logLevel := slog.LevelInfo
			if verbose {
				logLevel = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
			slog.SetDefault(logger)
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStitchCmd())

	return cmd
}

// orEnv returns flag when set, else the environment value of key, else def.
func orEnv(flag, key, def string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
