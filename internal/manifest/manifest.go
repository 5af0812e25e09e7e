// Package manifest reads the YAML description of a command-line stitch:
// the images in order, their edits, and the layout.
package manifest

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/stitcher/internal/compositor"
	"github.com/lehigh-university-libraries/stitcher/internal/edits"
	"github.com/lehigh-university-libraries/stitcher/internal/entries"
	"github.com/lehigh-university-libraries/stitcher/internal/prefs"
	"github.com/lehigh-university-libraries/stitcher/internal/session"
)

var ErrInvalidManifest = errors.New("invalid manifest")

type Image struct {
	Path     string `yaml:"path,omitempty"`
	URL      string `yaml:"url,omitempty"`
	Name     string `yaml:"name,omitempty"`
	Type     string `yaml:"type,omitempty"`
	Rotation int    `yaml:"rotation,omitempty"`
	Width    int    `yaml:"width,omitempty"`
	Height   int    `yaml:"height,omitempty"`
}

type Manifest struct {
	Direction  string        `yaml:"direction"`
	Stretch    bool          `yaml:"stretch"`
	Background string        `yaml:"background,omitempty"`
	Border     *prefs.Border `yaml:"border,omitempty"`
	Images     []Image       `yaml:"images"`

	dir string
}

// Load reads and validates a manifest. Relative image paths resolve
// against the manifest's directory.
func Load(p string) (*Manifest, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	m.dir = filepath.Dir(p)
	return m, nil
}

func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if len(m.Images) == 0 {
		return fmt.Errorf("%w: no images listed", ErrInvalidManifest)
	}
	for i, img := range m.Images {
		if (img.Path == "") == (img.URL == "") {
			return fmt.Errorf("%w: image %d needs exactly one of path or url", ErrInvalidManifest, i+1)
		}
		if img.Rotation%90 != 0 || img.Rotation < 0 || img.Rotation >= 360 {
			return fmt.Errorf("%w: image %d rotation %d is not 0, 90, 180 or 270", ErrInvalidManifest, i+1, img.Rotation)
		}
		if (img.Width == 0) != (img.Height == 0) || img.Width < 0 || img.Height < 0 {
			return fmt.Errorf("%w: image %d needs both a positive width and height", ErrInvalidManifest, i+1)
		}
	}
	return nil
}

// Layout builds the compositor layout. fallback supplies the border when
// the manifest has none.
func (m *Manifest) Layout(fallback prefs.Values) (compositor.Layout, error) {
	var layout compositor.Layout
	if m.Direction != "" {
		dir, err := compositor.ParseDirection(m.Direction)
		if err != nil {
			return layout, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
		}
		layout.Direction = dir
	}
	if m.Stretch {
		layout.Aspect = compositor.AspectStretch
	}
	if m.Background != "" {
		c, err := compositor.ParseColor(m.Background)
		if err != nil {
			return layout, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
		}
		layout.Background = c
	}
	if m.Border != nil {
		fallback.Border = *m.Border
	}
	layout.Border = fallback.LayoutBorder()
	return layout, nil
}

func (m *Manifest) file(img Image) (session.File, error) {
	if img.URL != "" {
		name := img.Name
		if name == "" {
			name = path.Base(img.URL)
		}
		contentType := img.Type
		if contentType == "" {
			contentType = mime.TypeByExtension(path.Ext(img.URL))
		}
		return session.File{Name: name, ContentType: contentType, Source: entries.NewURLRef(img.URL)}, nil
	}

	p := img.Path
	if !filepath.IsAbs(p) && m.dir != "" {
		p = filepath.Join(m.dir, p)
	}
	name := img.Name
	if name == "" {
		name = filepath.Base(p)
	}
	contentType := img.Type
	if contentType == "" {
		mt, err := mimetype.DetectFile(p)
		if err != nil {
			return session.File{}, fmt.Errorf("failed to read image %s: %w", name, err)
		}
		contentType = mt.String()
	}
	return session.File{Name: name, ContentType: contentType, Source: &entries.FileRef{Path: p}}, nil
}

// Import adds every image to sess in order and applies its edits. The
// returned errors are per-image rejections.
func (m *Manifest) Import(sess *session.Session) ([]error, error) {
	var rejected []error
	for _, img := range m.Images {
		f, err := m.file(img)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		ids, errs := sess.Import([]session.File{f})
		rejected = append(rejected, errs...)
		if len(ids) == 0 {
			continue
		}
		id := ids[0]
		for r := 0; r < img.Rotation; r += 90 {
			if _, err := sess.Rotate(id, edits.Right); err != nil {
				return rejected, err
			}
		}
		if img.Width > 0 {
			if err := sess.Resize(id, img.Width, img.Height); err != nil {
				return rejected, err
			}
		}
	}
	return rejected, nil
}

// FromPaths builds a manifest listing local files in order.
func FromPaths(paths []string) *Manifest {
	m := &Manifest{Images: make([]Image, 0, len(paths))}
	for _, p := range paths {
		m.Images = append(m.Images, Image{Path: p})
	}
	return m
}
