package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/stitcher/internal/compositor"
	"github.com/lehigh-university-libraries/stitcher/internal/manifest"
	"github.com/lehigh-university-libraries/stitcher/internal/prefs"
	"github.com/lehigh-university-libraries/stitcher/internal/report"
	"github.com/lehigh-university-libraries/stitcher/internal/session"
)

type stitchOptions struct {
	manifestPath    string
	direction       string
	stretch         bool
	border          string
	borderThickness int
	borderColor     string
	background      string
	output          string
	reportPath      string
	reportFormat    string
	prefsPath       string
}

func newStitchCmd() *cobra.Command {
	var opts stitchOptions

	cmd := &cobra.Command{
		Use:   "stitch [images...]",
		Short: "Stitch images into a PNG composite",
		Long: `Stitches the given images, in order, into one PNG.

Images come from the arguments or from a YAML manifest, which can also set
per-image rotation and size. Layout flags override the manifest; border
settings not given on the command line come from the saved preferences.`,
		Example: `  # Side by side
  stitcher stitch a.png b.jpg c.webp -o out.png

  # Stacked with separators and a CSV placement report
  stitcher stitch --direction vertical --border separator --border-thickness 8 a.png b.png -o out.png --report out.csv --report-format csv

  # From a manifest
  stitcher stitch --manifest pages.yaml -o pages.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStitch(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.manifestPath, "manifest", "m", "", "YAML manifest listing images and layout")
	cmd.Flags().StringVarP(&opts.direction, "direction", "d", "", "Layout direction (horizontal or vertical)")
	cmd.Flags().BoolVar(&opts.stretch, "stretch", false, "Stretch every image to the largest cross-axis extent")
	cmd.Flags().StringVar(&opts.border, "border", "", "Border type (none, around or separator)")
	cmd.Flags().IntVar(&opts.borderThickness, "border-thickness", 0, "Border thickness in pixels")
	cmd.Flags().StringVar(&opts.borderColor, "border-color", "", "Border color as #rrggbb")
	cmd.Flags().StringVar(&opts.background, "background", "", "Background color as #rrggbb (transparent when unset)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "stitched.png", "Output PNG path")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "Write a placement report to this path (- for stdout)")
	cmd.Flags().StringVar(&opts.reportFormat, "report-format", "text", "Report format (text, json, csv, yaml or parquet)")
	cmd.Flags().StringVar(&opts.prefsPath, "prefs", "", "Path to the preferences file (default $STITCHER_PREFS or the user config dir)")

	return cmd
}

func runStitch(cmd *cobra.Command, args []string, opts stitchOptions) error {
	var m *manifest.Manifest
	switch {
	case opts.manifestPath != "" && len(args) > 0:
		return errors.New("pass either images or --manifest, not both")
	case opts.manifestPath != "":
		loaded, err := manifest.Load(opts.manifestPath)
		if err != nil {
			return err
		}
		m = loaded
	case len(args) > 0:
		m = manifest.FromPaths(args)
	default:
		return errors.New("no images to stitch")
	}

	format, err := report.ParseFormat(opts.reportFormat)
	if err != nil {
		return err
	}

	applyFlags(cmd, m, opts)
	store := prefs.Load(orEnv(opts.prefsPath, "STITCHER_PREFS", prefs.DefaultPath()), prefs.DefaultThemes)
	layout, err := m.Layout(store.Values())
	if err != nil {
		return err
	}

	sess := session.New(nil)
	defer sess.Clear()

	rejected, err := m.Import(sess)
	if err != nil {
		return err
	}
	for _, r := range rejected {
		fmt.Fprintln(cmd.ErrOrStderr(), r)
	}

	res, failures, err := sess.Stitch(cmd.Context(), layout)
	for _, f := range failures {
		fmt.Fprintln(cmd.ErrOrStderr(), f)
	}
	if err != nil {
		return err
	}

	if err := writePNG(opts.output, res); err != nil {
		return err
	}
	slog.Info("Composite written", "path", opts.output, "width", res.Width(), "height", res.Height())

	if opts.reportPath != "" {
		if err := writeReport(cmd.OutOrStdout(), opts.reportPath, format, report.New(res, layout)); err != nil {
			return err
		}
	}
	return nil
}

// applyFlags lets explicitly set flags override the manifest.
func applyFlags(cmd *cobra.Command, m *manifest.Manifest, opts stitchOptions) {
	flags := cmd.Flags()
	if flags.Changed("direction") {
		m.Direction = opts.direction
	}
	if flags.Changed("stretch") {
		m.Stretch = opts.stretch
	}
	if flags.Changed("background") {
		m.Background = opts.background
	}
	if !flags.Changed("border") && !flags.Changed("border-thickness") && !flags.Changed("border-color") {
		return
	}

	b := prefs.Defaults(nil).Border
	if m.Border != nil {
		b = *m.Border
	}
	b.Enabled = true
	if flags.Changed("border") {
		b.Type = opts.border
		b.Enabled = opts.border != compositor.BorderNone.String()
	}
	if flags.Changed("border-thickness") {
		b.Thickness = opts.borderThickness
	}
	if flags.Changed("border-color") {
		b.Color = opts.borderColor
	}
	m.Border = &b
}

func writePNG(path string, res *compositor.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := res.EncodePNG(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode composite: %w", err)
	}
	return f.Close()
}

func writeReport(stdout io.Writer, path string, format report.Format, r report.Report) error {
	if path == "-" {
		return report.Write(stdout, format, r)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := report.Write(f, format, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
