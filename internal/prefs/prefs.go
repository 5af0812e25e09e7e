// Package prefs provides the durable JSON preference blob: theme and border settings.
package prefs

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/lehigh-university-libraries/stitcher/internal/compositor"
)

const prefsFile = "preferences.json"

// DefaultThemes lists the themes the UI ships; the first is the default.
var DefaultThemes = []string{"light", "dark"}

type Border struct {
	Enabled   bool   `json:"enabled"`
	Type      string `json:"type"`
	Thickness int    `json:"thickness"`
	Color     string `json:"color"`
}

type Values struct {
	Theme  string `json:"theme"`
	Border Border `json:"border"`
}

// Defaults returns first available theme with borders disabled.
func Defaults(themes []string) Values {
	theme := ""
	if len(themes) > 0 {
		theme = themes[0]
	}
	return Values{
		Theme: theme,
		Border: Border{
			Enabled:   false,
			Type:      compositor.BorderAround.String(),
			Thickness: 1,
			Color:     "#000000",
		},
	}
}

// LayoutBorder converts the stored border settings for the compositor.
func (v Values) LayoutBorder() compositor.Border {
	if !v.Border.Enabled {
		return compositor.Border{Kind: compositor.BorderNone}
	}
	kind, err := compositor.ParseBorderKind(v.Border.Type)
	if err != nil {
		kind = compositor.BorderAround
	}
	c, err := compositor.ParseColor(v.Border.Color)
	if err != nil {
		c = nil
	}
	return compositor.Border{Kind: kind, Thickness: v.Border.Thickness, Color: c}
}

// Store holds preferences and writes them on every change.
type Store struct {
	mu     sync.RWMutex
	path   string
	themes []string
	values Values
	// saved is the last content this store wrote; its own write events
	// are not reloads.
	saved []byte
}

// DefaultPath is ~/.config/stitcher/preferences.json or the platform equivalent.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "stitcher", prefsFile)
}

// Load reads preferences from path. A missing or malformed file yields
// defaults; Load never fails.
func Load(path string, themes []string) *Store {
	if len(themes) == 0 {
		themes = DefaultThemes
	}
	s := &Store{path: path, themes: themes}
	s.values = s.read()
	return s
}

func (s *Store) read() Values {
	v, err := s.readFile()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Ignoring malformed preferences", "path", s.path, "error", err)
		}
		return Defaults(s.themes)
	}
	return v
}

// readFile parses the file without falling back to defaults.
func (s *Store) readFile() (Values, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Values{}, err
	}
	return s.parse(data)
}

// parse fills a blob over the defaults, so missing keys keep their default.
func (s *Store) parse(data []byte) (Values, error) {
	v := Defaults(s.themes)
	if err := json.Unmarshal(data, &v); err != nil {
		return Values{}, err
	}
	return s.normalize(v), nil
}

func (s *Store) normalize(v Values) Values {
	def := Defaults(s.themes)
	if !slices.Contains(s.themes, v.Theme) {
		v.Theme = def.Theme
	}
	if _, err := compositor.ParseBorderKind(v.Border.Type); err != nil || v.Border.Type == "" || v.Border.Type == "none" {
		v.Border.Type = def.Border.Type
	}
	if v.Border.Thickness < 0 {
		v.Border.Thickness = 0
	}
	if _, err := compositor.ParseColor(v.Border.Color); err != nil {
		v.Border.Color = def.Border.Color
	}
	return v
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Themes() []string {
	return slices.Clone(s.themes)
}

func (s *Store) Values() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values
}

// Update applies fn, normalizes the result and saves it.
func (s *Store) Update(fn func(*Values)) (Values, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values
	fn(&v)
	s.values = s.normalize(v)
	return s.values, s.save()
}

// Save writes preferences to disk. The file is replaced atomically so
// readers never see a partial write.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+prefsFile+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return err
	}
	s.saved = data
	return nil
}

// Reload re-reads the file and reports whether the values changed. A file
// that cannot be parsed, or that holds what this store last saved, leaves
// the current values in place. A deleted file resets to defaults.
func (s *Store) Reload() (Values, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)

	var v Values
	switch {
	case errors.Is(err, fs.ErrNotExist):
		v = Defaults(s.themes)
	case err != nil:
		slog.Warn("Unable to read preferences", "path", s.path, "error", err)
		return s.values, false
	case bytes.Equal(data, s.saved):
		return s.values, false
	default:
		parsed, err := s.parse(data)
		if err != nil {
			slog.Warn("Ignoring malformed preferences", "path", s.path, "error", err)
			return s.values, false
		}
		v = parsed
	}

	changed := v != s.values
	s.values = v
	return v, changed
}
