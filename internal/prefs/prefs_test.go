package prefs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/stitcher/internal/compositor"
)

func TestLoadDefaults(t *testing.T) {
	tests := []struct {
		name    string
		content string
		write   bool
	}{
		{name: "missing file"},
		{name: "malformed json", content: `{"theme": "dark", "border": {`, write: true},
		{name: "wrong types", content: `{"theme": 42}`, write: true},
		{name: "empty file", content: ``, write: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "preferences.json")
			if tt.write {
				if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
					t.Fatal(err)
				}
			}

			s := Load(path, []string{"light", "dark"})
			v := s.Values()
			if v.Theme != "light" {
				t.Errorf("Expected first theme, got %q", v.Theme)
			}
			if v.Border.Enabled {
				t.Errorf("Expected borders disabled")
			}
		})
	}
}

func TestLoadNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	content := `{"theme": "neon", "border": {"enabled": true, "type": "zigzag", "thickness": -3, "color": "purple"}}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	v := Load(path, nil).Values()
	if v.Theme != DefaultThemes[0] {
		t.Errorf("Expected unknown theme replaced, got %q", v.Theme)
	}
	if !v.Border.Enabled {
		t.Errorf("Expected enabled kept")
	}
	if v.Border.Type != "around" || v.Border.Thickness != 0 || v.Border.Color != "#000000" {
		t.Errorf("Unexpected border %+v", v.Border)
	}
}

func TestPartialBlobKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	if err := os.WriteFile(path, []byte(`{"theme": "dark"}`), 0644); err != nil {
		t.Fatal(err)
	}
	v := Load(path, nil).Values()
	if v.Theme != "dark" || v.Border.Thickness != 1 || v.Border.Type != "around" {
		t.Errorf("Unexpected values %+v", v)
	}
}

func TestUpdateSavesAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "preferences.json")
	s := Load(path, nil)

	_, err := s.Update(func(v *Values) {
		v.Theme = "dark"
		v.Border = Border{Enabled: true, Type: "separator", Thickness: 4, Color: "#00ff00"}
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	again := Load(path, nil).Values()
	if again != s.Values() {
		t.Errorf("Expected %+v, got %+v", s.Values(), again)
	}

	b := again.LayoutBorder()
	if b.Kind != compositor.BorderSeparator || b.Thickness != 4 || b.Color == nil {
		t.Errorf("Unexpected layout border %+v", b)
	}
}

func TestLayoutBorderDisabled(t *testing.T) {
	v := Defaults(DefaultThemes)
	v.Border.Thickness = 9
	if b := v.LayoutBorder(); b.Kind != compositor.BorderNone {
		t.Errorf("Expected no border when disabled, got %+v", b)
	}
}

func TestWatchReloadsExternalEdits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preferences.json")
	s := Load(path, nil)
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan Values, 4)
	go s.Watch(ctx, func(v Values) { changes <- v })

	deadline := time.After(3 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case v := <-changes:
			if v.Theme != "dark" {
				t.Fatalf("Expected dark theme, got %q", v.Theme)
			}
			if s.Values().Theme != "dark" {
				t.Errorf("Store not updated")
			}
			return
		case <-tick.C:
			// Rewrite until the watcher is up and sees it.
			os.WriteFile(path, []byte(`{"theme": "dark"}`), 0644)
		case <-deadline:
			t.Fatal("Watcher never reported the change")
		}
	}
}

func TestReloadKeepsValuesOnMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	s := Load(path, nil)
	if _, err := s.Update(func(v *Values) { v.Border.Enabled = true; v.Border.Thickness = 4 }); err != nil {
		t.Fatal(err)
	}

	if _, changed := s.Reload(); changed {
		t.Errorf("Expected the store's own save not to count as a change")
	}

	// A reader catching a half-written file sees a truncated blob.
	if err := os.WriteFile(path, []byte(`{"theme": "da`), 0644); err != nil {
		t.Fatal(err)
	}
	v, changed := s.Reload()
	if changed || !v.Border.Enabled || v.Border.Thickness != 4 {
		t.Errorf("Expected values kept on a malformed file, got %+v changed=%v", v, changed)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if v, changed := s.Reload(); !changed || v.Border.Enabled {
		t.Errorf("Expected defaults after the file is deleted, got %+v", v)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := Load(filepath.Join(dir, "preferences.json"), nil)
	for i := 0; i < 5; i++ {
		if _, err := s.Update(func(v *Values) { v.Border.Thickness = i + 1 }); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "preferences.json" {
		t.Errorf("Expected only the preferences file, got %v", entries)
	}
}

func TestWatchDoesNotRevertOwnUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	s := Load(path, nil)
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Watch(ctx, nil)
	time.Sleep(100 * time.Millisecond)

	reverted := 0
	for i := 0; i < 300; i++ {
		if _, err := s.Update(func(v *Values) { v.Border.Enabled = true; v.Border.Thickness = i%7 + 1 }); err != nil {
			t.Fatal(err)
		}
		if !s.Values().Border.Enabled {
			reverted++
		}
	}
	time.Sleep(200 * time.Millisecond)
	if !s.Values().Border.Enabled {
		reverted++
	}
	if reverted > 0 {
		t.Errorf("Watcher reverted the border %d times", reverted)
	}
}
