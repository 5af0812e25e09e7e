package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/stitcher/internal/handlers"
	"github.com/lehigh-university-libraries/stitcher/internal/prefs"
)

func newServeCmd() *cobra.Command {
	var port string
	var prefsPath string
	var uploadsDir string
	var staticDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for the stitching interface",
		Long: `Starts the Stitcher web interface on the specified port.

The web interface lets you upload images, arrange them by dragging, rotate
and resize them, and download the stitched composite as PNG.`,
		Example: `  # Start server on default port 8888
  stitcher serve

  # Start server on custom port with a project preferences file
  stitcher serve --port 3000 --prefs ./preferences.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Environment fallbacks apply after .env is loaded
			port = orEnv(port, "STITCHER_PORT", "8888")
			prefsPath = orEnv(prefsPath, "STITCHER_PREFS", prefs.DefaultPath())
			uploadsDir = orEnv(uploadsDir, "STITCHER_UPLOADS", "uploads")

			store := prefs.Load(prefsPath, prefs.DefaultThemes)
			if err := os.MkdirAll(filepath.Dir(store.Path()), 0755); err != nil {
				return err
			}
			go func() {
				err := store.Watch(cmd.Context(), func(v prefs.Values) {
					slog.Info("Preferences reloaded", "theme", v.Theme, "border", v.Border.Enabled)
				})
				if err != nil {
					slog.Warn("Preferences watcher stopped", "err", err)
				}
			}()

			handler := handlers.New(store, uploadsDir, staticDir)

			// Set up routes
			mux := http.NewServeMux()
			handler.Register(mux)

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Stitcher interface available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (default $STITCHER_PORT or 8888)")
	cmd.Flags().StringVar(&prefsPath, "prefs", "", "Path to the preferences file (default $STITCHER_PREFS or the user config dir)")
	cmd.Flags().StringVar(&uploadsDir, "uploads", "", "Directory for uploaded images (default $STITCHER_UPLOADS or ./uploads)")
	cmd.Flags().StringVar(&staticDir, "static", "static", "Directory with the web interface assets")

	return cmd
}
